// Package policy decides whether an actor may perform an action on a
// form, template, response or set of user accounts.
//
// Evaluate is a pure function of its inputs. Handlers build the Actor
// once per request and describe the target with one of the Target
// constructors; nothing here touches the database.
package policy

import (
	"net/http"

	"github.com/vnkhanh/gforms-server/models"
)

type Action string

const (
	ActionRead           Action = "read"
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionPublish        Action = "publish"
	ActionSubmitResponse Action = "submit-response"
	ActionLike           Action = "like"
	ActionComment        Action = "comment"
	ActionBlock          Action = "block"
	ActionUnblock        Action = "unblock"
	ActionChangeRole     Action = "role-change"
	ActionDeleteUser     Action = "delete-user"
)

// Denial reasons.
const (
	ReasonAuthRequired        = "authentication required"
	ReasonSuperAdminProtected = "cannot modify super-admin"
	ReasonSelf                = "cannot act on self"
	ReasonInsufficient        = "insufficient privileges"
	ReasonInvalidRole         = "invalid role"
	ReasonUnauthorized        = "unauthorized"
)

// Actor is the caller. The zero value is anonymous.
type Actor struct {
	ID            uint
	Role          models.Role
	Blocked       bool
	Authenticated bool
}

func Anonymous() Actor { return Actor{} }

// NewActor builds the actor for a loaded user account.
func NewActor(u models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Blocked: u.IsBlocked, Authenticated: true}
}

// effectivelyAnonymous treats blocked accounts like missing sessions.
func (a Actor) effectivelyAnonymous() bool {
	return !a.Authenticated || a.Blocked || a.ID == 0
}

func (a Actor) IsAdmin() bool {
	return !a.effectivelyAnonymous() && a.Role.IsAdmin()
}

func (a Actor) IsSuperAdmin() bool {
	return !a.effectivelyAnonymous() && a.Role == models.RoleSuperAdmin
}

type Decision struct {
	Allowed bool
	Reason  string
}

var Allow = Decision{Allowed: true}

func deny(reason string) Decision { return Decision{Reason: reason} }

// Status maps the decision onto an HTTP status code.
func (d Decision) Status() int {
	switch {
	case d.Allowed:
		return http.StatusOK
	case d.Reason == ReasonAuthRequired:
		return http.StatusUnauthorized
	case d.Reason == ReasonSelf || d.Reason == ReasonInvalidRole:
		return http.StatusBadRequest
	}
	return http.StatusForbidden
}

// Evaluate applies the rules in order; the first rule that decides wins
// and anything not explicitly allowed is denied.
func Evaluate(actor Actor, target Target, action Action) Decision {
	if target.Kind == KindUnknown || action == "" {
		return deny(ReasonUnauthorized)
	}

	// Missing or blocked session: only public reads and open submissions.
	if actor.effectivelyAnonymous() && !anonymousMayTry(target, action) {
		return deny(ReasonAuthRequired)
	}

	if isUserAction(action) {
		if d, decided := userActionGuards(actor, target, action); decided {
			return d
		}
	}

	switch action {
	case ActionRead:
		if target.visible() {
			return Allow
		}
	case ActionSubmitResponse:
		return submitDecision(actor, target)
	case ActionCreate:
		if target.Kind == KindForm || target.Kind == KindTemplate {
			return Allow
		}
		return deny(ReasonUnauthorized)
	case ActionLike, ActionComment:
		if target.Kind != KindForm && target.Kind != KindTemplate {
			return deny(ReasonUnauthorized)
		}
		return Evaluate(actor, target, ActionRead)
	}

	if target.isResource() && target.ownedBy(actor) && ownerAction(action) {
		return Allow
	}

	if actor.IsAdmin() {
		if target.isResource() && (action == ActionRead || action == ActionUpdate || action == ActionDelete) {
			return Allow
		}
		if target.Kind == KindUser && (action == ActionRead || isUserAction(action)) {
			return Allow
		}
	}

	return deny(ReasonUnauthorized)
}

func anonymousMayTry(t Target, action Action) bool {
	switch action {
	case ActionRead:
		return t.visible()
	case ActionSubmitResponse:
		return t.Kind == KindForm && !t.RequireLogin
	}
	return false
}

// userActionGuards covers the account protections that must hold even
// for admins. It reports decided=false when the remaining rules apply.
func userActionGuards(actor Actor, t Target, action Action) (Decision, bool) {
	if t.Kind != KindUser || len(t.Users) == 0 {
		return deny(ReasonUnauthorized), true
	}

	if !actor.IsSuperAdmin() && t.includesRole(models.RoleSuperAdmin) {
		return deny(ReasonSuperAdminProtected), true
	}

	if t.includesUser(actor.ID) && selfProtected(actor, t, action) {
		return deny(ReasonSelf), true
	}

	if action == ActionChangeRole {
		if !t.NewRole.IsValid() {
			return deny(ReasonInvalidRole), true
		}
		if t.NewRole == models.RoleSuperAdmin && !actor.IsSuperAdmin() {
			return deny(ReasonInsufficient), true
		}
	}
	return Decision{}, false
}

func selfProtected(actor Actor, t Target, action Action) bool {
	switch action {
	case ActionBlock, ActionDeleteUser:
		return true
	case ActionChangeRole:
		return t.NewRole.Rank() < actor.Role.Rank()
	}
	return false
}

func submitDecision(actor Actor, t Target) Decision {
	if t.Kind != KindForm || !t.IsPublished {
		return deny(ReasonUnauthorized)
	}
	if t.IsPublic || t.ownedBy(actor) {
		return Allow
	}
	return deny(ReasonUnauthorized)
}

func isUserAction(a Action) bool {
	switch a {
	case ActionBlock, ActionUnblock, ActionChangeRole, ActionDeleteUser:
		return true
	}
	return false
}

func ownerAction(a Action) bool {
	switch a {
	case ActionRead, ActionUpdate, ActionDelete, ActionPublish:
		return true
	}
	return false
}
