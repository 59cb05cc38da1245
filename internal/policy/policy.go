// Package policy holds the access rules applied by every service before it
// reads or mutates a user-owned resource.
package policy

import (
	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID   string
	Role models.Role
}

// IsAdmin reports whether p carries the admin role.
func IsAdmin(p Principal) bool {
	return p.Role == models.RoleAdmin
}

// IsOwner reports whether p owns a resource belonging to ownerID.
func IsOwner(p Principal, ownerID string) bool {
	return p.ID != "" && p.ID == ownerID
}

// RequireAdmin fails with ForbiddenError unless p is an admin.
func RequireAdmin(p Principal) error {
	if !IsAdmin(p) {
		return apperrors.Forbidden("admin role required")
	}
	return nil
}

// RequireOwnerOrAdmin fails with ForbiddenError unless p is an admin or owns the resource.
func RequireOwnerOrAdmin(p Principal, ownerID string) error {
	if IsAdmin(p) || IsOwner(p, ownerID) {
		return nil
	}
	return apperrors.Forbidden("access denied")
}

// ScopeUserFilter returns the user filter a list query must use: admins keep
// the requested filter, everyone else is pinned to their own id.
func ScopeUserFilter(p Principal, requested string) string {
	if IsAdmin(p) {
		return requested
	}
	return p.ID
}
