package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmouddwidar/foxsoft-test/internal/model"
)

var allActions = []Action{ActionView, ActionUpdate, ActionDelete}

func TestAdminAllowedEverything(t *testing.T) {
	admin := model.Actor{ID: 1, Kind: model.KindAdmin}
	posts := []model.Post{
		{ID: 10, UserID: 1},
		{ID: 11, UserID: 2},
		{ID: 12, UserID: 999},
	}
	for _, post := range posts {
		for _, action := range allActions {
			assert.True(t, Decide(admin, action, post),
				"admin should be allowed %s on post owned by %d", action, post.UserID)
		}
	}
}

func TestUserAllowedOnOwnPostsOnly(t *testing.T) {
	owner := model.Actor{ID: 7, Kind: model.KindUser}
	other := model.Actor{ID: 8, Kind: model.KindUser}
	post := model.Post{ID: 42, UserID: 7}

	for _, action := range allActions {
		assert.True(t, Decide(owner, action, post))
		assert.False(t, Decide(other, action, post))
	}
}

// The three actions always agree for a given actor and post: there is
// no action an actor can perform on a post while being denied another.
func TestActionSymmetry(t *testing.T) {
	actors := []model.Actor{
		{ID: 1, Kind: model.KindUser},
		{ID: 2, Kind: model.KindUser},
		{ID: 1, Kind: model.KindAdmin},
	}
	posts := []model.Post{
		{ID: 1, UserID: 1},
		{ID: 2, UserID: 2},
		{ID: 3, UserID: 3},
	}
	for _, actor := range actors {
		for _, post := range posts {
			view := Decide(actor, ActionView, post)
			update := Decide(actor, ActionUpdate, post)
			del := Decide(actor, ActionDelete, post)
			require.Equal(t, view, update, "actor %+v post %d", actor, post.ID)
			require.Equal(t, view, del, "actor %+v post %d", actor, post.ID)
		}
	}
}

func TestAdminVerdictIgnoresAdminID(t *testing.T) {
	post := model.Post{ID: 5, UserID: 5}
	// Even an admin whose numeric ID collides with the owner's user ID
	// is allowed through the admin branch, not the ownership check.
	colliding := model.Actor{ID: 5, Kind: model.KindAdmin}
	distinct := model.Actor{ID: 99, Kind: model.KindAdmin}
	assert.True(t, Decide(colliding, ActionDelete, post))
	assert.True(t, Decide(distinct, ActionDelete, post))
}

func TestUnknownActorKindPanics(t *testing.T) {
	assert.Panics(t, func() {
		Decide(model.Actor{ID: 1}, ActionView, model.Post{ID: 1, UserID: 1})
	})
	assert.Panics(t, func() {
		Decide(model.Actor{ID: 1, Kind: "moderator"}, ActionView, model.Post{ID: 1})
	})
}
