package policy

import "github.com/vnkhanh/gforms-server/models"

type Kind uint8

const (
	KindUnknown Kind = iota
	KindForm
	KindTemplate
	KindResponse
	KindUser
)

// UserRef is the part of an account the user-management rules look at.
type UserRef struct {
	ID   uint
	Role models.Role
}

// Target describes the thing being acted on. Use the constructors.
type Target struct {
	Kind Kind
	// OwnerID is the resource owner; for responses it is the owner of
	// the form the response belongs to. Zero means unknown.
	OwnerID      uint
	IsPublic     bool
	IsPublished  bool
	RequireLogin bool

	// User targets only.
	Users   []UserRef
	NewRole models.Role
}

func FormTarget(f *models.Form) Target {
	return Target{
		Kind:         KindForm,
		OwnerID:      f.OwnerID,
		IsPublic:     f.IsPublic,
		IsPublished:  f.IsPublished,
		RequireLogin: f.RequireLogin,
	}
}

// NewForm is the target for creating a form that does not exist yet.
func NewForm() Target { return Target{Kind: KindForm} }

// Templates are always published.
func TemplateTarget(t *models.Template) Target {
	return Target{
		Kind:        KindTemplate,
		OwnerID:     t.OwnerID,
		IsPublic:    t.IsPublic,
		IsPublished: true,
	}
}

func NewTemplate() Target { return Target{Kind: KindTemplate} }

// FormResponses targets the responses collected by form f.
func FormResponses(f *models.Form) Target {
	return Target{Kind: KindResponse, OwnerID: f.OwnerID}
}

// TemplateResponses targets the responses gathered by forms copied from t.
func TemplateResponses(t *models.Template) Target {
	return Target{Kind: KindResponse, OwnerID: t.OwnerID}
}

// UsersTarget targets a set of accounts. Chain WithRole for role changes.
func UsersTarget(users ...models.User) Target {
	refs := make([]UserRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, UserRef{ID: u.ID, Role: u.Role})
	}
	return Target{Kind: KindUser, Users: refs}
}

// UserDirectory targets the account collection as a whole, for listing.
func UserDirectory() Target {
	return Target{Kind: KindUser}
}

func (t Target) WithRole(r models.Role) Target {
	t.NewRole = r
	return t
}

func (t Target) isResource() bool {
	return t.Kind == KindForm || t.Kind == KindTemplate || t.Kind == KindResponse
}

func (t Target) visible() bool {
	return (t.Kind == KindForm || t.Kind == KindTemplate) && t.IsPublic && t.IsPublished
}

func (t Target) ownedBy(a Actor) bool {
	return t.OwnerID != 0 && !a.effectivelyAnonymous() && t.OwnerID == a.ID
}

func (t Target) includesRole(r models.Role) bool {
	for _, u := range t.Users {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (t Target) includesUser(id uint) bool {
	for _, u := range t.Users {
		if u.ID == id {
			return true
		}
	}
	return false
}
