package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/clubledger/clubledger/internal/audit"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*Tenant, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) Search(ctx context.Context, query string, limit int) ([]*Tenant, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]*Tenant), args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

type mockSummaries struct {
	mock.Mock
}

func (m *mockSummaries) Summary(ctx context.Context, scope Scope, today clock.Date) (*Summary, error) {
	args := m.Called(ctx, scope, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Summary), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func testHasher() *PasswordHasher {
	return NewPasswordHasher(1024, 1, 1, 16, 32)
}

// TestPurpose: Validates that club provisioning generates UUIDv7 ids and stores only hashed credentials.
// Scope: Unit Test
// Security: Credential storage (CWE-256)
// Expected: A new club has a v7 id, a normalized slug, and argon2id hashes in place of the join code.
// Test Case ID: TEN-01
func TestTenant_Service_Provision(t *testing.T) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	service := NewService(repo, nil, testHasher(), auditLogger)
	ctx := context.Background()

	repo.On("GetBySlug", ctx, "seoul-smash").Return((*Tenant)(nil), ErrTenantNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(t *Tenant) bool {
		uid, err := uuid.Parse(t.ID)
		return err == nil && uid.Version() == 7 && t.Slug == "seoul-smash"
	})).Return(nil)
	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeClubProvisioned
	})).Return()

	club, err := service.Provision(ctx, ProvisionInput{Name: "Seoul Smash", Slug: " Seoul-Smash ", JoinCode: "rally"})
	require.NoError(t, err)
	assert.Equal(t, "Seoul Smash", club.Name)
	assert.True(t, club.HasJoinCode())
	assert.NotContains(t, club.JoinCodeHash, "rally")

	assert.NoError(t, service.VerifyJoinCode(ctx, club, "rally"))

	repo.AssertExpectations(t)
	auditLogger.AssertExpectations(t)
}

// TestPurpose: Validates slug validation and uniqueness on provisioning.
// Scope: Unit Test
// Expected: Reserved or malformed slugs fail with ErrInvalidSlug; a taken slug fails with ErrSlugTaken.
// Test Case ID: TEN-02
func TestTenant_Service_Provision_SlugRules(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, nil, testHasher(), audit.Nop{})
	ctx := context.Background()

	for _, slug := range []string{"www", "a", "bad_slug", "-edge"} {
		_, err := service.Provision(ctx, ProvisionInput{Name: "X", Slug: slug})
		assert.ErrorIs(t, err, ErrInvalidSlug, slug)
	}

	repo.On("GetBySlug", ctx, "taken").Return(&Tenant{ID: "t1", Slug: "taken"}, nil)
	_, err := service.Provision(ctx, ProvisionInput{Name: "X", Slug: "taken"})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

// TestPurpose: Validates join code verification failure modes.
// Scope: Unit Test
// Security: Self-registration gate
// Expected: Wrong codes and clubs without a code both yield ErrInvalidJoinCode; rejections are audited.
// Test Case ID: TEN-03
func TestTenant_Service_VerifyJoinCode(t *testing.T) {
	hasher := testHasher()
	auditLogger := new(mockAudit)
	service := NewService(new(mockRepo), nil, hasher, auditLogger)
	ctx := context.Background()

	hash, err := hasher.Hash("rally")
	require.NoError(t, err)
	club := &Tenant{ID: "club-1", JoinCodeHash: hash}

	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeJoinCodeRejected && e.TenantID == "club-1"
	})).Return().Once()

	assert.ErrorIs(t, service.VerifyJoinCode(ctx, club, "smash"), ErrInvalidJoinCode)
	assert.ErrorIs(t, service.VerifyJoinCode(ctx, &Tenant{ID: "club-2"}, "rally"), ErrInvalidJoinCode)
	assert.NoError(t, service.VerifyJoinCode(ctx, club, "rally"))
	auditLogger.AssertExpectations(t)
}

func TestTenant_Service_Summary(t *testing.T) {
	summaries := new(mockSummaries)
	service := NewService(new(mockRepo), summaries, testHasher(), audit.Nop{})
	ctx := context.Background()
	club := &Tenant{ID: "club-1", Slug: "seoul"}
	today := clock.MustParseDate("2025-12-12")

	summaries.On("Summary", ctx, ForTenant("club-1"), today).Return(&Summary{MemberCount: 4}, nil).Once()
	sum, err := service.Summary(ctx, club, ForTenant("club-1"), today)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.MemberCount)
	assert.Same(t, club, sum.Club)

	summaries.On("Summary", ctx, ForTenant("club-2"), today).Return(nil, errors.New("boom")).Once()
	_, err = service.Summary(ctx, club, ForTenant("club-2"), today)
	assert.Error(t, err)
}
