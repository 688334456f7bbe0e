package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

// TestPurpose: Validates the ownership predicate applied to by-id lookups.
// Scope: Unit Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: Rows of another tenant are denied; legacy rows are admitted only when IncludeLegacy is set; unscoped admits everything.
// Test Case ID: ISO-01
func TestScope_Authorize(t *testing.T) {
	own := strPtr("t-1")
	other := strPtr("t-2")

	tenantScope := ForTenant("t-1")
	assert.NoError(t, tenantScope.Authorize(own))
	assert.ErrorIs(t, tenantScope.Authorize(other), ErrAccessDenied)
	assert.ErrorIs(t, tenantScope.Authorize(nil), ErrAccessDenied)

	legacy := Scope{TenantID: "t-1", IncludeLegacy: true}
	assert.NoError(t, legacy.Authorize(nil))
	assert.ErrorIs(t, legacy.Authorize(other), ErrAccessDenied)

	all := Unscoped()
	assert.NoError(t, all.Authorize(other))
	assert.NoError(t, all.Authorize(nil))
}

func TestScope_OwnerID(t *testing.T) {
	assert.Nil(t, Unscoped().OwnerID())

	s := ForTenant("t-1")
	owner := s.OwnerID()
	if assert.NotNil(t, owner) {
		assert.Equal(t, "t-1", *owner)
	}
	assert.Equal(t, "_all", Unscoped().CacheKey())
	assert.Equal(t, "t-1", s.CacheKey())
}
