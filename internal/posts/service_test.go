package posts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmouddwidar/foxsoft-test/internal/model"
	"github.com/mahmouddwidar/foxsoft-test/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	return NewService(st), st
}

func seedUser(t *testing.T, st *memory.Store, name string) model.Actor {
	t.Helper()
	ctx := context.Background()
	user := model.User{
		Name:      name,
		Email:     name + "@example.com",
		CreatedAt: time.Now(),
	}
	id, err := st.CreateUser(ctx, &user)
	require.NoError(t, err)
	return model.Actor{ID: id, Kind: model.KindUser}
}

func seedPost(t *testing.T, st *memory.Store, owner int64, title string) model.Post {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	post := model.Post{
		UserID:    owner,
		Title:     title,
		Content:   "content of " + title,
		Status:    model.StatusPublished,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := st.CreatePost(ctx, &post)
	require.NoError(t, err)
	stored, err := st.GetPost(ctx, id)
	require.NoError(t, err)
	return stored
}

var admin = model.Actor{ID: 1, Kind: model.KindAdmin}

func TestListScopesUsersToTheirOwnPosts(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	seedPost(t, st, alice.ID, "alice one")
	seedPost(t, st, alice.ID, "alice two")
	seedPost(t, st, bob.ID, "bob one")

	page, err := svc.List(ctx, ListingRequest{Actor: alice})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, p := range page.Items {
		assert.Equal(t, alice.ID, p.UserID)
	}

	page, err = svc.List(ctx, ListingRequest{Actor: admin})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}

func TestListNewestFirst(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")

	base := time.Now()
	for i := 0; i < 3; i++ {
		post := model.Post{
			UserID:    alice.ID,
			Title:     fmt.Sprintf("post %d", i),
			Content:   "c",
			Status:    model.StatusPublished,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		_, err := st.CreatePost(ctx, &post)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListingRequest{Actor: alice})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "post 2", page.Items[0].Title)
	assert.Equal(t, "post 0", page.Items[2].Title)
}

func TestListSearchNarrowsWithinScope(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	seedPost(t, st, alice.ID, "Golang tips")
	seedPost(t, st, alice.ID, "Cooking notes")
	seedPost(t, st, bob.ID, "More golang tricks")

	// Search is case-insensitive and stays inside the caller's scope:
	// alice never sees bob's matching post.
	page, err := svc.List(ctx, ListingRequest{Actor: alice, Search: "GOLANG"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Golang tips", page.Items[0].Title)

	page, err = svc.List(ctx, ListingRequest{Actor: admin, Search: "golang"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	// Blank search is a no-op, not a filter for empty content.
	page, err = svc.List(ctx, ListingRequest{Actor: admin, Search: "   "})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}

func TestListSearchMatchesContent(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	seedPost(t, st, alice.ID, "Untitled")

	page, err := svc.List(ctx, ListingRequest{Actor: alice, Search: "content of untitled"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestListPagination(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	for i := 0; i < 15; i++ {
		seedPost(t, st, alice.ID, fmt.Sprintf("post %02d", i))
	}

	page1, err := svc.List(ctx, ListingRequest{Actor: alice, Page: 1})
	require.NoError(t, err)
	assert.Len(t, page1.Items, 10)
	assert.Equal(t, 1, page1.CurrentPage)
	assert.Equal(t, 2, page1.LastPage)
	assert.Equal(t, 10, page1.PerPage)
	assert.Equal(t, 15, page1.Total)

	page2, err := svc.List(ctx, ListingRequest{Actor: alice, Page: 2})
	require.NoError(t, err)
	assert.Len(t, page2.Items, 5)
	assert.Equal(t, 2, page2.CurrentPage)

	// No overlap between pages.
	seen := make(map[int64]bool)
	for _, p := range append(page1.Items, page2.Items...) {
		assert.False(t, seen[p.ID], "post %d appeared twice", p.ID)
		seen[p.ID] = true
	}
}

func TestListPastTheEndPageIsValid(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	seedPost(t, st, alice.ID, "only one")

	page, err := svc.List(ctx, ListingRequest{Actor: alice, Page: 9})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 9, page.CurrentPage)
	assert.Equal(t, 1, page.LastPage)
	assert.Equal(t, 1, page.Total)
}

func TestListEmptyStore(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")

	page, err := svc.List(ctx, ListingRequest{Actor: alice})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 1, page.LastPage)
}

func TestListClampsPageSize(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	seedPost(t, st, alice.ID, "p")

	page, err := svc.List(ctx, ListingRequest{Actor: alice, PerPage: 100000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.PerPage)

	page, err = svc.List(ctx, ListingRequest{Actor: alice, PerPage: -3, Page: -2})
	require.NoError(t, err)
	assert.Equal(t, 10, page.PerPage)
	assert.Equal(t, 1, page.CurrentPage)
}

func TestListPanicsOnUnknownKind(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Panics(t, func() {
		_, _ = svc.List(context.Background(), ListingRequest{Actor: model.Actor{ID: 1, Kind: "ghost"}})
	})
}

func TestGetHonorsPolicy(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	post := seedPost(t, st, alice.ID, "private")

	got, err := svc.Get(ctx, alice, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	_, err = svc.Get(ctx, bob, post.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, admin, post.ID)
	assert.NoError(t, err)
}

func TestCreateAsUserIgnoresRequestedOwner(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	post, err := svc.Create(ctx, alice, CreateInput{
		Title:   "mine",
		Content: "body",
		Status:  model.StatusDraft,
		OwnerID: &bob.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, post.UserID, "requested owner must be ignored for users")
	assert.Equal(t, "alice", post.UserName)
}

func TestCreateAsAdminAssignsOwner(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")

	post, err := svc.Create(ctx, admin, CreateInput{
		Title:   "assigned",
		Content: "body",
		Status:  model.StatusPublished,
		OwnerID: &alice.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, post.UserID)
}

func TestCreateAsAdminRequiresExistingOwner(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedUser(t, st, "alice")

	_, err := svc.Create(ctx, admin, CreateInput{Title: "t", Content: "c", Status: model.StatusDraft})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "user_id")

	missing := int64(9999)
	_, err = svc.Create(ctx, admin, CreateInput{Title: "t", Content: "c", Status: model.StatusDraft, OwnerID: &missing})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "user_id")
}

func TestCreateValidation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")

	longTitle := make([]byte, 256)
	for i := range longTitle {
		longTitle[i] = 'x'
	}

	cases := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"missing title", CreateInput{Content: "c", Status: model.StatusDraft}, "title"},
		{"blank title", CreateInput{Title: "   ", Content: "c", Status: model.StatusDraft}, "title"},
		{"title too long", CreateInput{Title: string(longTitle), Content: "c", Status: model.StatusDraft}, "title"},
		{"missing content", CreateInput{Title: "t", Status: model.StatusDraft}, "content"},
		{"bad status", CreateInput{Title: "t", Content: "c", Status: "archived"}, "status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, alice, tc.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}

	// 255 characters exactly is still fine.
	_, err := svc.Create(ctx, alice, CreateInput{
		Title:   string(longTitle[:255]),
		Content: "c",
		Status:  model.StatusDraft,
	})
	assert.NoError(t, err)
}

func TestUpdatePartialFields(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	post := seedPost(t, st, alice.ID, "original")

	newStatus := model.StatusDraft
	updated, err := svc.Update(ctx, alice, post.ID, UpdateInput{Status: &newStatus})
	require.NoError(t, err)
	assert.Equal(t, "original", updated.Title)
	assert.Equal(t, model.StatusDraft, updated.Status)
	assert.Equal(t, post.Content, updated.Content)

	newTitle := "  renamed  "
	updated, err = svc.Update(ctx, alice, post.ID, UpdateInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
}

func TestUpdateForbiddenLeavesPostUntouched(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	post := seedPost(t, st, alice.ID, "original")

	newTitle := "hijacked"
	_, err := svc.Update(ctx, bob, post.ID, UpdateInput{Title: &newTitle})
	require.ErrorIs(t, err, ErrForbidden)

	stored, err := st.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Title)
	assert.Equal(t, post.UpdatedAt.Unix(), stored.UpdatedAt.Unix())
}

func TestUpdateOwnerReassignment(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	post := seedPost(t, st, alice.ID, "movable")

	// A user cannot give away their own post; the field is ignored.
	updated, err := svc.Update(ctx, alice, post.ID, UpdateInput{OwnerID: &bob.ID})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, updated.UserID)

	// An admin can.
	updated, err = svc.Update(ctx, admin, post.ID, UpdateInput{OwnerID: &bob.ID})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, updated.UserID)
	assert.Equal(t, "bob", updated.UserName)

	// But only to a user that exists.
	missing := int64(424242)
	_, err = svc.Update(ctx, admin, post.ID, UpdateInput{OwnerID: &missing})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "user_id")
}

func TestUpdateMissingPost(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")

	title := "t"
	_, err := svc.Update(ctx, alice, 999, UpdateInput{Title: &title})
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	mine := seedPost(t, st, alice.ID, "mine")
	theirs := seedPost(t, st, bob.ID, "theirs")

	require.ErrorIs(t, svc.Delete(ctx, alice, theirs.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, alice, mine.ID))
	require.NoError(t, svc.Delete(ctx, admin, theirs.ID))

	page, err := svc.List(ctx, ListingRequest{Actor: admin})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}
