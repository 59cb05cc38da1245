package policy_test

import (
	"testing"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/policy"

	"github.com/stretchr/testify/assert"
)

var (
	admin = policy.Principal{ID: "admin-1", Role: models.RoleAdmin}
	alice = policy.Principal{ID: "user-a", Role: models.RoleUser}
)

func TestIsOwner(t *testing.T) {
	assert.True(t, policy.IsOwner(alice, "user-a"))
	assert.False(t, policy.IsOwner(alice, "user-b"))
	assert.False(t, policy.IsOwner(policy.Principal{}, ""))
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	assert.NoError(t, policy.RequireOwnerOrAdmin(alice, "user-a"))
	assert.NoError(t, policy.RequireOwnerOrAdmin(admin, "user-a"))

	err := policy.RequireOwnerOrAdmin(alice, "user-b")
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, policy.RequireAdmin(admin))
	assert.True(t, apperrors.Is(policy.RequireAdmin(alice), apperrors.KindForbidden))
}

func TestScopeUserFilter(t *testing.T) {
	assert.Equal(t, "user-b", policy.ScopeUserFilter(admin, "user-b"))
	assert.Equal(t, "", policy.ScopeUserFilter(admin, ""))
	assert.Equal(t, "user-a", policy.ScopeUserFilter(alice, "user-b"))
	assert.Equal(t, "user-a", policy.ScopeUserFilter(alice, ""))
}
