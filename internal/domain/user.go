package domain

import "time"

// Role enumerates the roles a principal may hold. A user holds exactly one.
type Role string

const (
	RoleUser       Role = "user"
	RoleAgent      Role = "agent"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// ValidRole reports whether the value is a recognized role.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// User is the account backing a principal.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	AvatarURL    string
	Bio          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated actor attached to a request. Immutable
// for the life of the request; the core trusts it verbatim.
type Principal struct {
	ID   string
	Role Role
}

// PrincipalOf derives the request principal from a loaded user.
func PrincipalOf(u *User) Principal {
	return Principal{ID: u.ID, Role: u.Role}
}

// AuthorRef is the minimal author identity attached to reply listings.
type AuthorRef struct {
	ID       string
	Username string
	Email    string
	Role     Role
}
