package auth

import "fmt"

// Route allow-lists. Membership is exact; a superadmin is only admitted
// where RoleSuperadmin is listed.
var (
	// SuperadminOnly guards administrator management and the audit trail.
	SuperadminOnly = []Role{RoleSuperadmin}

	// DonationEditors may record contributions against an initiative.
	DonationEditors = []Role{RoleSuperadmin, RoleAdmin}

	// StaffRoles may read mentorship requests and the filtered admin directory.
	StaffRoles = []Role{RoleSuperadmin, RoleAdmin, RoleModerator}
)

// Allowed reports whether role is a member of allow. An empty allow-list
// admits nobody.
func Allowed(role Role, allow []Role) bool {
	return containsRole(allow, role)
}

// Authorize returns ErrForbidden unless role is a member of allow.
func Authorize(role Role, allow []Role) error {
	if !Allowed(role, allow) {
		return fmt.Errorf("%w: role %q", ErrForbidden, role)
	}
	return nil
}

// CheckDeletion refuses an administrator deleting their own account.
func CheckDeletion(actorID, targetID int64) error {
	if actorID == targetID {
		return ErrSelfDeletion
	}
	return nil
}

// adminVisibility lists, per viewer role, which administrator roles the
// filtered directory shows. A nil entry with ok=true means every role.
var adminVisibility = map[Role][]Role{
	RoleSuperadmin: nil,
	RoleAdmin:      {RoleModerator},
	RoleModerator:  {},
}

// VisibleAdminRoles returns the administrator roles viewer may list.
// all is true when every administrator is visible. Unknown viewers see
// nothing.
func VisibleAdminRoles(viewer Role) (roles []Role, all bool) {
	visible, ok := adminVisibility[viewer]
	if !ok {
		return []Role{}, false
	}
	if visible == nil {
		return nil, true
	}
	out := make([]Role, len(visible))
	copy(out, visible)
	return out, false
}

func containsRole(roles []Role, r Role) bool {
	for _, v := range roles {
		if v == r {
			return true
		}
	}
	return false
}
