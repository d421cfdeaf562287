// Command seed populates a database with an admin account, a few user
// accounts and sample posts so the API can be exercised right away.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/mahmouddwidar/foxsoft-test/internal/auth"
	"github.com/mahmouddwidar/foxsoft-test/internal/model"
	"github.com/mahmouddwidar/foxsoft-test/internal/store"
	"github.com/mahmouddwidar/foxsoft-test/internal/store/sqlite"
)

var sampleTitles = []string{
	"Getting started with the posts API",
	"Pagination done right",
	"Why drafts matter",
	"Search tips and tricks",
	"Moderation from the admin side",
	"Keeping tokens short-lived",
	"A note on ownership",
	"Publishing checklists",
	"Content review workflow",
	"Writing better titles",
	"Scheduling your drafts",
	"The case for plain text",
	"Small posts, often",
	"Archiving old content",
	"Editing without fear",
}

func main() {
	dbPath := flag.String("db", "postsd.db", "Database path")
	password := flag.String("password", "password", "Password for every seeded account")
	postCount := flag.Int("posts", 15, "Number of sample posts to create")
	flag.Parse()

	st, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	adminID, err := ensureAdmin(ctx, st, "admin@example.com", "Admin", hash)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("admin #%d admin@example.com / %s\n", adminID, *password)

	users := []struct{ name, email string }{
		{"Alice", "alice@example.com"},
		{"Bob", "bob@example.com"},
		{"Carol", "carol@example.com"},
	}
	userIDs := make([]int64, 0, len(users))
	for _, u := range users {
		id, err := ensureUser(ctx, st, u.email, u.name, hash)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.email, err)
		}
		userIDs = append(userIDs, id)
		fmt.Printf("user  #%d %s / %s\n", id, u.email, *password)
	}

	existing, err := st.CountPosts(ctx, store.PostListOpts{})
	if err != nil {
		log.Fatalf("failed to count posts: %v", err)
	}
	if existing > 0 {
		fmt.Printf("%d posts already present, skipping post seeding\n", existing)
		return
	}

	now := time.Now()
	for i := 0; i < *postCount; i++ {
		title := sampleTitles[i%len(sampleTitles)]
		status := model.StatusPublished
		if i%3 == 2 {
			status = model.StatusDraft
		}
		post := model.Post{
			UserID:  userIDs[i%len(userIDs)],
			Title:   title,
			Content: fmt.Sprintf("%s. Sample content for post %d.", title, i+1),
			Status:  status,
			// Spread creation times so the newest-first ordering is visible.
			CreatedAt: now.Add(-time.Duration(*postCount-i) * time.Hour),
			UpdatedAt: now.Add(-time.Duration(*postCount-i) * time.Hour),
		}
		if _, err := st.CreatePost(ctx, &post); err != nil {
			log.Fatalf("failed to seed post %d: %v", i+1, err)
		}
	}
	fmt.Printf("created %d posts\n", *postCount)
}

func ensureAdmin(ctx context.Context, st store.Store, email, name, hash string) (int64, error) {
	existing, err := st.FindAdminByEmail(ctx, email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}
	admin := model.Admin{Name: name, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	return st.CreateAdmin(ctx, &admin)
}

func ensureUser(ctx context.Context, st store.Store, email, name, hash string) (int64, error) {
	existing, err := st.FindUserByEmail(ctx, email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}
	user := model.User{Name: name, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	return st.CreateUser(ctx, &user)
}
