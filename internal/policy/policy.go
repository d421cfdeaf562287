// Package policy holds the single Allow/Deny rule for post access.
// Every endpoint routes its authorization decision through Decide so
// the rule exists in exactly one place.
package policy

import (
	"fmt"

	"github.com/mahmouddwidar/foxsoft-test/internal/model"
)

type Action string

const (
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Decide reports whether actor may perform action on post.
//
// Admins may perform every action on every post. Users may act only on
// posts they own. The rule is deliberately identical for view, update
// and delete: an actor that can see a post can also change or remove
// it, and vice versa.
//
// Decide panics when the actor's kind is unset; that is a programming
// error in the caller, not a deniable request.
func Decide(actor model.Actor, action Action, post model.Post) bool {
	switch actor.Kind {
	case model.KindAdmin:
		return true
	case model.KindUser:
		return post.UserID == actor.ID
	default:
		panic(fmt.Sprintf("policy: actor with unknown kind %q", actor.Kind))
	}
}
