// Package httpapp provides the HTTP API for the posts service.
//
//	@title						Posts API
//	@version					1.0
//	@description				A two-role content service: users author posts, admins moderate all posts.
//	@description
//	@description				## Authentication
//	@description
//	@description				Users and admins sign in with email and password and receive a bearer token:
//	@description				```bash
//	@description				curl -X POST /api/users/login -d '{"email":"u@example.com","password":"secret"}'
//	@description				curl -X POST /api/admins/login -d '{"email":"a@example.com","password":"secret"}'
//	@description				# Returns: {"token": "TOKEN", ...}
//	@description				```
//	@description				Every /api/posts request requires the token:
//	@description				```bash
//	@description				curl /api/posts -H "Authorization: Bearer TOKEN"
//	@description				```
//	@description
//	@description				## Access rules
//	@description				Admins may view, edit, reassign and delete every post. Users only ever
//	@description				see and touch their own posts; the listing, search and pagination all
//	@description				apply within that scope. Search is a case-insensitive substring match
//	@description				over title and content.
//
//	@contact.name				Posts Service
//	@license.name				MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token from /api/users/login or /api/admins/login
//
//	@tag.name					Posts
//	@tag.description			Create, browse, edit and delete posts. Listing supports search and pagination.
//
//	@tag.name					Authentication
//	@tag.description			Email/password login for users and admins, token revocation on logout.
package httpapp
