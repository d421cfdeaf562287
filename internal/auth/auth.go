// Package auth resolves credentials to actors. Logins verify a bcrypt
// password hash and issue an opaque bearer token persisted in the
// store; authentication looks the token back up and rebuilds the
// actor. The rest of the system never sees raw credentials.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/mahmouddwidar/foxsoft-test/internal/model"
	"github.com/mahmouddwidar/foxsoft-test/internal/store"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// Storage is the slice of the store the auth service depends on.
type Storage interface {
	store.UserStore
	store.AdminStore
	store.TokenStore
}

type Service struct {
	store    Storage
	tokenTTL time.Duration
}

func NewService(st Storage, tokenTTL time.Duration) *Service {
	return &Service{store: st, tokenTTL: tokenTTL}
}

// LoginUser verifies a user's email/password pair and issues a token.
func (s *Service) LoginUser(ctx context.Context, email, password string) (model.Token, model.User, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Token{}, model.User{}, ErrInvalidCredentials
		}
		return model.Token{}, model.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return model.Token{}, model.User{}, ErrInvalidCredentials
	}
	token, err := s.issueToken(ctx, user.ID, model.KindUser)
	if err != nil {
		return model.Token{}, model.User{}, err
	}
	return token, user, nil
}

// LoginAdmin verifies an admin's email/password pair and issues a token.
func (s *Service) LoginAdmin(ctx context.Context, email, password string) (model.Token, model.Admin, error) {
	admin, err := s.store.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Token{}, model.Admin{}, ErrInvalidCredentials
		}
		return model.Token{}, model.Admin{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return model.Token{}, model.Admin{}, ErrInvalidCredentials
	}
	token, err := s.issueToken(ctx, admin.ID, model.KindAdmin)
	if err != nil {
		return model.Token{}, model.Admin{}, err
	}
	return token, admin, nil
}

// Authenticate resolves a bearer token to the actor it was issued to.
func (s *Service) Authenticate(ctx context.Context, bearer string) (model.Actor, error) {
	token, err := s.store.GetToken(ctx, bearer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Actor{}, ErrInvalidToken
		}
		return model.Actor{}, err
	}
	if time.Now().After(token.ExpiresAt) {
		return model.Actor{}, ErrTokenExpired
	}
	return model.Actor{ID: token.ActorID, Kind: token.ActorKind}, nil
}

// Logout revokes the presented token. Revoking an unknown token is an
// authentication failure, not a no-op.
func (s *Service) Logout(ctx context.Context, bearer string) error {
	if err := s.store.DeleteToken(ctx, bearer); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

func (s *Service) issueToken(ctx context.Context, actorID int64, kind model.ActorKind) (model.Token, error) {
	value, err := randomToken(32)
	if err != nil {
		return model.Token{}, err
	}
	token := model.Token{
		Token:     value,
		ActorID:   actorID,
		ActorKind: kind,
		ExpiresAt: time.Now().Add(s.tokenTTL),
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateToken(ctx, token); err != nil {
		return model.Token{}, err
	}
	return token, nil
}

// HashPassword hashes a plaintext password for storage. Used by the
// seeder and tests; the service itself only verifies.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
