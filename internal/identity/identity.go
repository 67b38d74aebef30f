// internal/identity/identity.go
//
// Minimal actor identity shared by the business services.  Role names
// mirror the `user_role` table; resolving them from the session belongs to
// the authentication layer, which hands a populated Actor to the services.
package identity

// Role names.
const (
	RoleAdmin    = "admin"
	RoleApprover = "approver"
	RoleMember   = "member"
)

// Actor is the authenticated user a service call runs on behalf of.
type Actor struct {
	ID    uint64
	Roles []string
}

// HasRole reports whether the actor carries any of the named roles.
func (a Actor) HasRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range a.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
