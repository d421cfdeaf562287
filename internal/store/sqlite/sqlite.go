package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mahmouddwidar/foxsoft-test/internal/model"
	"github.com/mahmouddwidar/foxsoft-test/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS admins (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_admins_email ON admins(email);

CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);

CREATE TABLE IF NOT EXISTS auth_tokens (
	token TEXT PRIMARY KEY,
	actor_id INTEGER NOT NULL,
	actor_kind TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
`,
	// Future migrations go here:
	// Migration 2: `ALTER TABLE ...`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO posts (user_id, title, content, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, post.UserID, post.Title, post.Content, string(post.Status), post.CreatedAt.Unix(), post.UpdatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetPost(ctx context.Context, id int64) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT p.id, p.user_id, u.name, p.title, p.content, p.status, p.created_at, p.updated_at
FROM posts p
LEFT JOIN users u ON u.id = p.user_id
WHERE p.id = ?
LIMIT 1
`, id)
	return scanPost(row)
}

// postListWhere builds the WHERE clause for ListPosts/CountPosts so
// the page window and the total are always computed over the same
// narrowed scope.
func postListWhere(opts store.PostListOpts) (string, []any) {
	var conds []string
	var args []any
	if opts.OwnerID != nil {
		conds = append(conds, "p.user_id = ?")
		args = append(args, *opts.OwnerID)
	}
	if term := strings.TrimSpace(opts.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		conds = append(conds, "(LOWER(p.title) LIKE ? OR LOWER(p.content) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) ListPosts(ctx context.Context, opts store.PostListOpts) ([]model.Post, error) {
	where, args := postListWhere(opts)
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`
SELECT p.id, p.user_id, u.name, p.title, p.content, p.status, p.created_at, p.updated_at
FROM posts p
LEFT JOIN users u ON u.id = p.user_id
%s
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?
`, where)
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (s *Store) CountPosts(ctx context.Context, opts store.PostListOpts) (int, error) {
	where, args := postListWhere(opts)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM posts p %s`, where)
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) UpdatePost(ctx context.Context, post *model.Post) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE posts SET user_id = ?, title = ?, content = ?, status = ?, updated_at = ?
WHERE id = ?
`, post.UserID, post.Title, post.Content, string(post.Status), post.UpdatedAt.Unix(), post.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO users (name, email, password_hash, created_at)
VALUES (?, ?, ?, ?)
`, user.Name, user.Email, user.PasswordHash, user.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, store.ErrDuplicateEmail
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, email, password_hash, created_at FROM users WHERE id = ? LIMIT 1
`, id)
	return scanUser(row)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, email, password_hash, created_at FROM users WHERE email = ? LIMIT 1
`, email)
	return scanUser(row)
}

func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO admins (name, email, password_hash, created_at)
VALUES (?, ?, ?, ?)
`, admin.Name, admin.Email, admin.PasswordHash, admin.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, store.ErrDuplicateEmail
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetAdmin(ctx context.Context, id int64) (model.Admin, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, email, password_hash, created_at FROM admins WHERE id = ? LIMIT 1
`, id)
	var a model.Admin
	var createdAt int64
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Admin{}, store.ErrNotFound
		}
		return model.Admin{}, err
	}
	a.CreatedAt = time.Unix(createdAt, 0)
	return a, nil
}

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (model.Admin, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, email, password_hash, created_at FROM admins WHERE email = ? LIMIT 1
`, email)
	var a model.Admin
	var createdAt int64
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Admin{}, store.ErrNotFound
		}
		return model.Admin{}, err
	}
	a.CreatedAt = time.Unix(createdAt, 0)
	return a, nil
}

func (s *Store) CreateToken(ctx context.Context, token model.Token) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO auth_tokens (token, actor_id, actor_kind, expires_at, created_at)
VALUES (?, ?, ?, ?, ?)
`, token.Token, token.ActorID, string(token.ActorKind), token.ExpiresAt.Unix(), time.Now().Unix())
	return err
}

func (s *Store) GetToken(ctx context.Context, token string) (model.Token, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT token, actor_id, actor_kind, expires_at, created_at
FROM auth_tokens WHERE token = ? LIMIT 1
`, token)
	var t model.Token
	var kind string
	var expiresAt, createdAt int64
	if err := row.Scan(&t.Token, &t.ActorID, &kind, &expiresAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Token{}, store.ErrNotFound
		}
		return model.Token{}, err
	}
	t.ActorKind = model.ActorKind(kind)
	t.ExpiresAt = time.Unix(expiresAt, 0)
	t.CreatedAt = time.Unix(createdAt, 0)
	return t, nil
}

func (s *Store) DeleteToken(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE token = ?`, token)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (model.Post, error) {
	var p model.Post
	var userName sql.NullString
	var status string
	var createdAt, updatedAt int64
	if err := row.Scan(&p.ID, &p.UserID, &userName, &p.Title, &p.Content, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, err
	}
	p.UserName = userName.String
	p.Status = model.PostStatus(status)
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return p, nil
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	var createdAt int64
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	return u, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
