package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmouddwidar/foxsoft-test/internal/model"
	"github.com/mahmouddwidar/foxsoft-test/internal/store"
)

func seedPosts(t *testing.T, st *Store, userID int64, n int) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		created := base.Add(time.Duration(i) * time.Minute)
		_, err := st.CreatePost(context.Background(), &model.Post{
			UserID:    userID,
			Title:     fmt.Sprintf("post %d", i),
			Content:   "c",
			Status:    model.StatusPublished,
			CreatedAt: created,
			UpdatedAt: created,
		})
		require.NoError(t, err)
	}
}

func TestAutoIncrementIDs(t *testing.T) {
	st := New()
	ctx := context.Background()

	a, err := st.CreateUser(ctx, &model.User{Name: "a", Email: "a@example.com"})
	require.NoError(t, err)
	b, err := st.CreateUser(ctx, &model.User{Name: "b", Email: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, a+1, b)
}

func TestListMirrorsOrderingAndSearch(t *testing.T) {
	st := New()
	ctx := context.Background()
	userID, err := st.CreateUser(ctx, &model.User{Name: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	seedPosts(t, st, userID, 5)

	posts, err := st.ListPosts(ctx, store.PostListOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "post 4", posts[0].Title)
	assert.Equal(t, "alice", posts[0].UserName)

	posts, err = st.ListPosts(ctx, store.PostListOpts{Limit: 10, Offset: 4})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "post 0", posts[0].Title)

	// Case-insensitive substring over title and content.
	posts, err = st.ListPosts(ctx, store.PostListOpts{Search: "POST 3", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	count, err := st.CountPosts(ctx, store.PostListOpts{Search: "post"})
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestNotFoundAndDuplicates(t *testing.T) {
	st := New()
	ctx := context.Background()

	_, err := st.GetPost(ctx, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeletePost(ctx, 1), store.ErrNotFound)
	assert.ErrorIs(t, st.UpdatePost(ctx, &model.Post{ID: 1}), store.ErrNotFound)
	_, err = st.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.CreateUser(ctx, &model.User{Name: "a", Email: "dup@example.com"})
	require.NoError(t, err)
	_, err = st.CreateUser(ctx, &model.User{Name: "b", Email: "dup@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	// Admin emails live in their own namespace.
	_, err = st.CreateAdmin(ctx, &model.Admin{Name: "root", Email: "dup@example.com"})
	assert.NoError(t, err)
}

func TestTokens(t *testing.T) {
	st := New()
	ctx := context.Background()

	token := model.Token{Token: "abc", ActorID: 1, ActorKind: model.KindUser, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, st.CreateToken(ctx, token))

	got, err := st.GetToken(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ActorID)

	require.NoError(t, st.DeleteToken(ctx, "abc"))
	_, err = st.GetToken(ctx, "abc")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeleteToken(ctx, "abc"), store.ErrNotFound)
}
