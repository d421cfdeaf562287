// Package memory implements store.Store in process memory. It backs
// the core unit tests and mirrors the sqlite adapter's ordering and
// search semantics.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mahmouddwidar/foxsoft-test/internal/model"
	"github.com/mahmouddwidar/foxsoft-test/internal/store"
)

type Store struct {
	mu     sync.RWMutex
	posts  map[int64]model.Post
	users  map[int64]model.User
	admins map[int64]model.Admin
	tokens map[string]model.Token

	nextPostID  int64
	nextUserID  int64
	nextAdminID int64
}

func New() *Store {
	return &Store{
		posts:  make(map[int64]model.Post),
		users:  make(map[int64]model.User),
		admins: make(map[int64]model.Admin),
		tokens: make(map[string]model.Token),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreatePost(ctx context.Context, post *model.Post) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPostID++
	post.ID = s.nextPostID
	s.posts[post.ID] = *post
	return post.ID, nil
}

func (s *Store) GetPost(ctx context.Context, id int64) (model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return model.Post{}, store.ErrNotFound
	}
	s.attachUserName(&post)
	return post, nil
}

func (s *Store) ListPosts(ctx context.Context, opts store.PostListOpts) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	narrowed := s.narrowed(opts)
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	start := opts.Offset
	if start > len(narrowed) {
		start = len(narrowed)
	}
	end := start + limit
	if end > len(narrowed) {
		end = len(narrowed)
	}
	page := make([]model.Post, end-start)
	copy(page, narrowed[start:end])
	for i := range page {
		s.attachUserName(&page[i])
	}
	return page, nil
}

func (s *Store) CountPosts(ctx context.Context, opts store.PostListOpts) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.narrowed(opts)), nil
}

// narrowed applies ownership and search narrowing and returns the
// scope ordered created_at DESC, id DESC. Callers hold s.mu.
func (s *Store) narrowed(opts store.PostListOpts) []model.Post {
	term := strings.ToLower(strings.TrimSpace(opts.Search))
	var out []model.Post
	for _, p := range s.posts {
		if opts.OwnerID != nil && p.UserID != *opts.OwnerID {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Content), term) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) attachUserName(post *model.Post) {
	if u, ok := s.users[post.UserID]; ok {
		post.UserName = u.Name
	}
}

func (s *Store) UpdatePost(ctx context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID]; !ok {
		return store.ErrNotFound
	}
	s.posts[post.ID] = *post
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return 0, store.ErrDuplicateEmail
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = *user
	return user.ID, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, store.ErrNotFound
}

func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.admins {
		if existing.Email == admin.Email {
			return 0, store.ErrDuplicateEmail
		}
	}
	s.nextAdminID++
	admin.ID = s.nextAdminID
	s.admins[admin.ID] = *admin
	return admin.ID, nil
}

func (s *Store) GetAdmin(ctx context.Context, id int64) (model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admin, ok := s.admins[id]
	if !ok {
		return model.Admin{}, store.ErrNotFound
	}
	return admin, nil
}

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, admin := range s.admins {
		if admin.Email == email {
			return admin, nil
		}
	}
	return model.Admin{}, store.ErrNotFound
}

func (s *Store) CreateToken(ctx context.Context, token model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.Token] = token
	return nil
}

func (s *Store) GetToken(ctx context.Context, token string) (model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[token]
	if !ok {
		return model.Token{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) DeleteToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token]; !ok {
		return store.ErrNotFound
	}
	delete(s.tokens, token)
	return nil
}
