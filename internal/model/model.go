package model

import "time"

// ActorKind discriminates the two authenticated party types. A request
// is made by exactly one of them; there is no overlap or hierarchy.
type ActorKind string

const (
	KindUser  ActorKind = "user"
	KindAdmin ActorKind = "admin"
)

// Actor is the authenticated party for the lifetime of one request.
// It is built by the auth service and passed explicitly into every
// core call; nothing reads it from ambient request state.
type Actor struct {
	ID   int64     `json:"id"`
	Kind ActorKind `json:"kind"`
}

func (a Actor) IsAdmin() bool { return a.Kind == KindAdmin }

type PostStatus string

const (
	StatusPublished PostStatus = "published"
	StatusDraft     PostStatus = "draft"
)

func (s PostStatus) Valid() bool {
	return s == StatusPublished || s == StatusDraft
}

// Post is owned by a User. UserID always references a user, even when
// an admin created the post on the user's behalf.
type Post struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	UserName  string     `json:"user_name,omitempty"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Status    PostStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Admin struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Token is an opaque bearer credential persisted server-side. Logout
// deletes the row; expiry is checked on every authentication.
type Token struct {
	Token     string
	ActorID   int64
	ActorKind ActorKind
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Page is one page of a scoped post listing.
type Page struct {
	Items       []Post `json:"items"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
}
