package store

import (
	"context"
	"errors"

	"github.com/mahmouddwidar/foxsoft-test/internal/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// PostListOpts is the scope criteria the core hands to the storage
// layer: ownership narrowing, search narrowing and the page window.
// Results are always ordered created_at DESC, id DESC.
type PostListOpts struct {
	// OwnerID restricts the scope to one user's posts. Nil means no
	// ownership narrowing (admin view).
	OwnerID *int64
	// Search keeps posts whose title or content contains the term,
	// case-insensitively. Empty means no search narrowing.
	Search string
	Limit  int
	Offset int
}

type Store interface {
	PostStore
	UserStore
	AdminStore
	TokenStore
	Close() error
}

type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) (int64, error)
	GetPost(ctx context.Context, id int64) (model.Post, error)
	ListPosts(ctx context.Context, opts PostListOpts) ([]model.Post, error)
	CountPosts(ctx context.Context, opts PostListOpts) (int, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id int64) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
}

type AdminStore interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) (int64, error)
	GetAdmin(ctx context.Context, id int64) (model.Admin, error)
	FindAdminByEmail(ctx context.Context, email string) (model.Admin, error)
}

type TokenStore interface {
	CreateToken(ctx context.Context, token model.Token) error
	GetToken(ctx context.Context, token string) (model.Token, error)
	DeleteToken(ctx context.Context, token string) error
}
