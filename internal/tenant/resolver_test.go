package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	bySlug map[string]*Tenant
	err    error
}

func newStubRepo(tenants ...*Tenant) *stubRepo {
	r := &stubRepo{bySlug: map[string]*Tenant{}}
	for _, t := range tenants {
		r.bySlug[t.Slug] = t
	}
	return r
}

func (r *stubRepo) Create(context.Context, *Tenant) error { return nil }
func (r *stubRepo) GetByID(context.Context, string) (*Tenant, error) {
	return nil, ErrTenantNotFound
}
func (r *stubRepo) GetBySlug(_ context.Context, slug string) (*Tenant, error) {
	if r.err != nil {
		return nil, r.err
	}
	if t, ok := r.bySlug[slug]; ok {
		return t, nil
	}
	return nil, ErrTenantNotFound
}
func (r *stubRepo) Search(context.Context, string, int) ([]*Tenant, error) { return nil, nil }
func (r *stubRepo) Update(context.Context, *Tenant) error                  { return nil }

var (
	mainClub  = &Tenant{ID: "t-main", Slug: "main"}
	seoulClub = &Tenant{ID: "t-seoul", Slug: "seoul"}
	busanClub = &Tenant{ID: "t-busan", Slug: "busan"}
)

// TestPurpose: Validates the input priority order subdomain > header > param > default.
// Scope: Unit Test
// Security: Tenant context resolution
// Expected: The highest-priority present input wins.
// Test Case ID: RES-01
func TestResolver_Priority(t *testing.T) {
	r := NewResolver(Config{Mode: ModeStrict, DefaultSlug: "main", BaseDomain: "clubledger.app"},
		newStubRepo(mainClub, seoulClub, busanClub))
	ctx := context.Background()

	tests := []struct {
		name   string
		in     Input
		want   string
		source string
	}{
		{"subdomain beats header", Input{Host: "seoul.clubledger.app:8443", Header: "busan", Param: "busan"}, "t-seoul", SourceSubdomain},
		{"header beats param", Input{Host: "clubledger.app", Header: "Busan", Param: "seoul"}, "t-busan", SourceHeader},
		{"param", Input{Host: "localhost:8080", Param: "seoul"}, "t-seoul", SourceParam},
		{"default", Input{Host: "127.0.0.1"}, "t-main", SourceDefault},
		{"www ignored", Input{Host: "www.clubledger.app", Param: "busan"}, "t-busan", SourceParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(ctx, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Tenant.ID)
			assert.Equal(t, tt.source, res.Source)
			assert.False(t, res.FellBack)
		})
	}
}

// TestPurpose: Validates strict and permissive handling of unknown slugs.
// Scope: Unit Test
// Security: Fail-closed tenant resolution in strict mode
// Expected: Strict fails with ErrTenantNotFound; permissive falls back to the default tenant.
// Test Case ID: RES-02
func TestResolver_UnknownSlug(t *testing.T) {
	repo := newStubRepo(mainClub, seoulClub)
	ctx := context.Background()
	in := Input{Header: "nowhere"}

	strict := NewResolver(Config{Mode: ModeStrict, DefaultSlug: "main"}, repo)
	_, err := strict.Resolve(ctx, in)
	assert.ErrorIs(t, err, ErrTenantNotFound)

	permissive := NewResolver(Config{Mode: ModePermissive, DefaultSlug: "main"}, repo)
	res, err := permissive.Resolve(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "t-main", res.Tenant.ID)
	assert.True(t, res.FellBack)

	missingDefault := NewResolver(Config{Mode: ModePermissive, DefaultSlug: "gone"}, repo)
	_, err = missingDefault.Resolve(ctx, in)
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

// TestPurpose: Validates that single mode grants unscoped access without touching storage.
// Scope: Unit Test
// Expected: Resolution succeeds with an unscoped predicate even when the repository fails.
// Test Case ID: RES-03
func TestResolver_SingleMode(t *testing.T) {
	repo := newStubRepo()
	repo.err = errors.New("db down")
	r := NewResolver(Config{Mode: ModeSingle}, repo)

	res, err := r.Resolve(context.Background(), Input{Header: "seoul"})
	require.NoError(t, err)
	assert.Nil(t, res.Tenant)
	assert.True(t, res.Scope.IsUnscoped())
}

// TestPurpose: Validates that storage failures are not mistaken for unknown tenants.
// Scope: Unit Test
// Expected: A repository error surfaces as a wrapped error, not ErrTenantNotFound.
// Test Case ID: RES-04
func TestResolver_StorageError(t *testing.T) {
	repo := newStubRepo(mainClub)
	repo.err = errors.New("db down")
	r := NewResolver(Config{Mode: ModePermissive, DefaultSlug: "main"}, repo)

	_, err := r.Resolve(context.Background(), Input{Header: "seoul"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTenantNotFound)
}

// TestPurpose: Validates that legacy null-tenant rows are admitted only for the default tenant.
// Scope: Unit Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: Only the default tenant's scope includes legacy rows, and only with compatibility on.
// Test Case ID: RES-05
func TestResolver_ScopeFor_Legacy(t *testing.T) {
	on := NewResolver(Config{DefaultSlug: "main", LegacyNullCompat: true}, newStubRepo())
	off := NewResolver(Config{DefaultSlug: "main"}, newStubRepo())

	assert.Equal(t, Scope{TenantID: "t-main", IncludeLegacy: true}, on.ScopeFor(mainClub))
	assert.Equal(t, Scope{TenantID: "t-seoul"}, on.ScopeFor(seoulClub))
	assert.Equal(t, Scope{TenantID: "t-main"}, off.ScopeFor(mainClub))
}

func TestSubdomainOf(t *testing.T) {
	tests := []struct {
		host, base, want string
	}{
		{"seoul.clubledger.app", "clubledger.app", "seoul"},
		{"SEOUL.clubledger.app:443", "clubledger.app", "seoul"},
		{"a.b.clubledger.app", "clubledger.app", ""},
		{"seoul.other.app", "clubledger.app", ""},
		{"clubledger.app", "clubledger.app", ""},
		{"seoul.example.com", "", "seoul"},
		{"example.com", "", ""},
		{"www.example.com", "", ""},
		{"localhost:3000", "", ""},
		{"10.0.0.1:8080", "", ""},
		{"[::1]:8080", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, SubdomainOf(tt.host, tt.base))
		})
	}
}
