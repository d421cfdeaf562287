// Package posts implements the post resource: the ownership-scoped
// listing and the authorization-gated create/update/delete operations.
package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mahmouddwidar/foxsoft-test/internal/model"
	"github.com/mahmouddwidar/foxsoft-test/internal/policy"
	"github.com/mahmouddwidar/foxsoft-test/internal/store"
)

// ErrForbidden is returned when the access policy denies an operation.
// No mutation has been applied when it is returned.
var ErrForbidden = errors.New("forbidden")

// ValidationError carries field-level detail for malformed input.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	var names []string
	for field := range e.Fields {
		names = append(names, field)
	}
	return "validation failed: " + strings.Join(names, ", ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Storage is the slice of the store the post service depends on.
type Storage interface {
	store.PostStore
	store.UserStore
}

type Service struct {
	store Storage
}

func NewService(st Storage) *Service {
	return &Service{store: st}
}

const (
	defaultPerPage = 10
	maxPerPage     = 100
	maxTitleLen    = 255
)

// ListingRequest narrows the post collection for one actor.
type ListingRequest struct {
	Actor   model.Actor
	Search  string
	Page    int
	PerPage int
}

// List returns one page of the posts visible to the requesting actor,
// newest first. Users see only their own posts; admins see everything.
// The search term filters by case-insensitive substring over title or
// content. An empty or past-the-end page is a valid result with an
// accurate total, never an error.
func (s *Service) List(ctx context.Context, req ListingRequest) (model.Page, error) {
	opts := store.PostListOpts{Search: strings.TrimSpace(req.Search)}
	switch req.Actor.Kind {
	case model.KindAdmin:
		// unfiltered base scope
	case model.KindUser:
		owner := req.Actor.ID
		opts.OwnerID = &owner
	default:
		panic(fmt.Sprintf("posts: actor with unknown kind %q", req.Actor.Kind))
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	total, err := s.store.CountPosts(ctx, opts)
	if err != nil {
		return model.Page{}, err
	}
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	opts.Limit = perPage
	opts.Offset = (page - 1) * perPage
	items, err := s.store.ListPosts(ctx, opts)
	if err != nil {
		return model.Page{}, err
	}
	if items == nil {
		items = []model.Post{}
	}

	return model.Page{
		Items:       items,
		CurrentPage: page,
		LastPage:    lastPage,
		PerPage:     perPage,
		Total:       total,
	}, nil
}

// Get fetches a post after checking the view policy.
func (s *Service) Get(ctx context.Context, actor model.Actor, id int64) (model.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return model.Post{}, err
	}
	if !policy.Decide(actor, policy.ActionView, post) {
		return model.Post{}, ErrForbidden
	}
	return post, nil
}

// CreateInput are the fields for a new post. OwnerID is the requested
// owner; it is honored only for admins.
type CreateInput struct {
	Title   string
	Content string
	Status  model.PostStatus
	OwnerID *int64
}

// Create stores a new post. A user always owns the post they create:
// a client-supplied owner is ignored for non-admins rather than
// trusted. An admin must name the target user, who has to exist, since
// posts are never owned by admins.
func (s *Service) Create(ctx context.Context, actor model.Actor, in CreateInput) (model.Post, error) {
	var verr ValidationError
	validateTitle(&verr, in.Title, true)
	validateContent(&verr, in.Content, true)
	if !in.Status.Valid() {
		verr.add("status", "The status must be published or draft.")
	}

	var ownerID int64
	switch actor.Kind {
	case model.KindUser:
		ownerID = actor.ID
	case model.KindAdmin:
		if in.OwnerID == nil {
			verr.add("user_id", "The user_id field is required when creating a post as an admin.")
		} else if err := s.checkUserExists(ctx, *in.OwnerID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return model.Post{}, err
			}
			verr.add("user_id", "The selected user does not exist.")
		} else {
			ownerID = *in.OwnerID
		}
	default:
		panic(fmt.Sprintf("posts: actor with unknown kind %q", actor.Kind))
	}

	if err := verr.orNil(); err != nil {
		return model.Post{}, err
	}

	now := time.Now()
	post := model.Post{
		UserID:    ownerID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Status:    in.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.store.CreatePost(ctx, &post)
	if err != nil {
		return model.Post{}, err
	}
	return s.store.GetPost(ctx, id)
}

// UpdateInput carries partial updates; nil fields are left unchanged.
type UpdateInput struct {
	Title   *string
	Content *string
	Status  *model.PostStatus
	OwnerID *int64
}

// Update applies the supplied fields to an existing post. The policy
// check runs before any field is touched; a denied actor leaves the
// post exactly as it was. Only admins can reassign ownership; a
// user-supplied owner is ignored even on the user's own post.
func (s *Service) Update(ctx context.Context, actor model.Actor, id int64, in UpdateInput) (model.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return model.Post{}, err
	}
	if !policy.Decide(actor, policy.ActionUpdate, post) {
		return model.Post{}, ErrForbidden
	}

	var verr ValidationError
	if in.Title != nil {
		validateTitle(&verr, *in.Title, false)
	}
	if in.Content != nil {
		validateContent(&verr, *in.Content, false)
	}
	if in.Status != nil && !in.Status.Valid() {
		verr.add("status", "The status must be published or draft.")
	}
	if actor.IsAdmin() && in.OwnerID != nil {
		if err := s.checkUserExists(ctx, *in.OwnerID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return model.Post{}, err
			}
			verr.add("user_id", "The selected user does not exist.")
		}
	}
	if err := verr.orNil(); err != nil {
		return model.Post{}, err
	}

	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Status != nil {
		post.Status = *in.Status
	}
	if actor.IsAdmin() && in.OwnerID != nil {
		post.UserID = *in.OwnerID
	}
	post.UpdatedAt = time.Now()

	if err := s.store.UpdatePost(ctx, &post); err != nil {
		return model.Post{}, err
	}
	return s.store.GetPost(ctx, id)
}

// Delete removes a post after the policy check. Hard delete, no
// recovery semantics.
func (s *Service) Delete(ctx context.Context, actor model.Actor, id int64) error {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if !policy.Decide(actor, policy.ActionDelete, post) {
		return ErrForbidden
	}
	return s.store.DeletePost(ctx, id)
}

func (s *Service) checkUserExists(ctx context.Context, id int64) error {
	_, err := s.store.GetUser(ctx, id)
	return err
}

func validateTitle(verr *ValidationError, title string, required bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		if required {
			verr.add("title", "The title field is required.")
		} else {
			verr.add("title", "The title must not be empty.")
		}
		return
	}
	if len(title) > maxTitleLen {
		verr.add("title", fmt.Sprintf("The title must not exceed %d characters.", maxTitleLen))
	}
}

func validateContent(verr *ValidationError, content string, required bool) {
	if strings.TrimSpace(content) == "" {
		if required {
			verr.add("content", "The content field is required.")
		} else {
			verr.add("content", "The content must not be empty.")
		}
	}
}
