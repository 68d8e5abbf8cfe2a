package auth

import (
	"errors"
	"time"
)

// Role represents an authorisation tier. Matching is exact and case-sensitive.
type Role string

const (
	// RoleSuperadmin manages administrators and sees every account.
	RoleSuperadmin Role = "superadmin"

	// RoleAdmin manages content and sees moderators.
	RoleAdmin Role = "admin"

	// RoleModerator reviews mentorship requests.
	RoleModerator Role = "moderator"

	// RoleStudent is the default role for self-registered users.
	RoleStudent Role = "student"

	// RoleAlumni is a graduated standard user.
	RoleAlumni Role = "alumni"
)

// DefaultUserRole is assigned when registration omits a role.
const DefaultUserRole = RoleStudent

// AdminRoles is the set of roles an administrator may hold.
var AdminRoles = []Role{RoleSuperadmin, RoleAdmin, RoleModerator}

// IsAdminRole reports whether r is a valid administrator role.
func IsAdminRole(r Role) bool {
	return containsRole(AdminRoles, r)
}

// Partition identifies which table an identity lives in.
type Partition string

const (
	PartitionUsers          Partition = "users"
	PartitionAdministrators Partition = "administrators"
)

// Identity is a principal able to authenticate. Users and administrators
// share this shape in separate partitions.
type Identity struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // never serialised
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Public is the identity without timestamps or credentials, as returned by
// the register and login flows.
type Public struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Public returns the client-facing fields of the identity.
func (i *Identity) Public() Public {
	return Public{ID: i.ID, Name: i.Name, Email: i.Email, Role: i.Role}
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrMissingRole        = errors.New("stored identity has no role")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrSelfDeletion       = errors.New("cannot delete own account")
)
