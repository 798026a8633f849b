// internal/domain/actor.go
package domain

import (
	"fmt"

	"github.com/google/uuid"

	"bidmarket/internal/util"
)

// Role is the closed set of roles an authenticated caller can hold.
type Role string

const (
	RoleVendor Role = "Vendor"
	RoleAdmin  Role = "Admin"
)

// ParseRole converts a raw role label into a Role. Unknown labels are rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleVendor, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unrecognized role %q", util.ErrUnauthorized, s)
	}
}

// Actor is the already-authenticated caller of a listing or bid operation.
type Actor struct {
	UserID   uuid.UUID
	Role     Role
	FullName string
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// DisplayName returns the actor's name for notification text.
func (a Actor) DisplayName() string {
	if a.FullName == "" {
		return "Unknown"
	}
	return a.FullName
}
