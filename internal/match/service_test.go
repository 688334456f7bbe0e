package match

import (
	"context"
	"testing"
	"time"

	"github.com/clubledger/clubledger/internal/audit"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-12-12 12:00 at +09:00
var scenarioNow = time.Date(2025, 12, 12, 3, 0, 0, 0, time.UTC)

type recorderFixture struct {
	svc        *Service
	repo       *fakeRepo
	ledger     *fakeLedger
	reconciler *fakeReconciler
	inv        *countingInvalidator
	scope      tenant.Scope
}

func newRecorder(t *testing.T) *recorderFixture {
	t.Helper()
	f := &recorderFixture{
		repo:       newFakeRepo(),
		ledger:     &fakeLedger{},
		reconciler: &fakeReconciler{},
		inv:        &countingInvalidator{},
		scope:      tenant.ForTenant("t-1"),
	}
	f.svc = NewService(f.repo, clubMembers(), f.ledger, f.reconciler, testCalendar(t, scenarioNow), audit.Nop{}, nil)
	f.svc.SetInvalidator(f.inv)
	return f
}

// TestPurpose: Validates recording a match persists it and drives session and attendance enrichment.
// Scope: Unit Test
// Expected: Match stamped with the tenant, session resolved for its civil date, reconciler called with all four members.
// Test Case ID: MAT-02
func TestService_Create_Enriches(t *testing.T) {
	f := newRecorder(t)
	ctx := context.Background()

	m, err := f.svc.Create(ctx, f.scope, CreateInput{
		Date:         clock.MustParseDate("2025-12-12"),
		Participants: doubles("A", "B", "C", "D", 6, 3),
	})
	require.NoError(t, err)

	assert.Equal(t, "t-1", *m.TenantID)
	assert.Equal(t, KindDoubles, m.Kind)
	assert.Equal(t, scenarioNow, m.PlayedAt)
	assert.Equal(t, []clock.Date{clock.MustParseDate("2025-12-12")}, f.ledger.dates)
	require.Len(t, f.reconciler.calls, 1)
	assert.Equal(t, []string{"A", "B", "C", "D"}, f.reconciler.calls[0])
	assert.Equal(t, 1, f.inv.calls)

	stored, err := f.repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Participants, 4)
}

// TestPurpose: Validates that past-dated matches get the noon anchor and explicit playedAt derives the date.
// Scope: Unit Test
// Expected: PlayedAt = local noon of the given date; date of an explicit instant follows the calendar zone.
// Test Case ID: MAT-03
func TestService_Create_Timing(t *testing.T) {
	f := newRecorder(t)
	ctx := context.Background()

	m, err := f.svc.Create(ctx, f.scope, CreateInput{
		Date:         clock.MustParseDate("2025-12-01"),
		Participants: doubles("A", "B", "C", "D", 6, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 3, 0, 0, 0, time.UTC), m.PlayedAt)

	late := time.Date(2025, 12, 10, 16, 30, 0, 0, time.UTC)
	m, err = f.svc.Create(ctx, f.scope, CreateInput{
		PlayedAt:     &late,
		Participants: doubles("A", "B", "C", "D", 6, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, clock.MustParseDate("2025-12-11"), m.Date)
}

// TestPurpose: Validates that enrichment failures never fail or roll back the match.
// Scope: Unit Test
// Expected: Create succeeds and the match stays persisted when the ledger or reconciler fails.
// Test Case ID: MAT-04
func TestService_Create_EnrichmentFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()

	f := newRecorder(t)
	f.ledger.err = errBoom
	m, err := f.svc.Create(ctx, f.scope, CreateInput{Participants: doubles("A", "B", "C", "D", 6, 3)})
	require.NoError(t, err)
	_, err = f.repo.GetByID(ctx, m.ID)
	assert.NoError(t, err)
	assert.Empty(t, f.reconciler.calls)

	f = newRecorder(t)
	f.reconciler.err = errBoom
	m, err = f.svc.Create(ctx, f.scope, CreateInput{Participants: doubles("A", "B", "C", "D", 6, 3)})
	require.NoError(t, err)
	_, err = f.repo.GetByID(ctx, m.ID)
	assert.NoError(t, err)
}

// TestPurpose: Validates participant checks against the tenant scope.
// Scope: Unit Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: Unknown members are InvalidMatch; another club's member is AccessDenied; nothing is persisted.
// Test Case ID: MAT-05
func TestService_Create_ParticipantScope(t *testing.T) {
	f := newRecorder(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.scope, CreateInput{Participants: doubles("A", "B", "C", "nobody", 6, 3)})
	assert.ErrorIs(t, err, ErrInvalidMatch)

	_, err = f.svc.Create(ctx, f.scope, CreateInput{Participants: doubles("A", "B", "C", "Z", 6, 3)})
	assert.ErrorIs(t, err, tenant.ErrAccessDenied)

	_, err = f.svc.Create(ctx, f.scope, CreateInput{Participants: doubles("A", "B", "C", "D", 6, 3)[:3]})
	assert.ErrorIs(t, err, ErrInvalidMatch)

	assert.Empty(t, f.repo.matches)
	assert.Empty(t, f.ledger.dates)
}

// TestPurpose: Validates that mutations re-verify ownership of the match.
// Scope: Unit Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: Update, score and delete from another club return AccessDenied and leave the row unchanged.
// Test Case ID: MAT-06
func TestService_Mutations_CrossTenantDenied(t *testing.T) {
	f := newRecorder(t)
	ctx := context.Background()

	m, err := f.svc.Create(ctx, f.scope, CreateInput{Participants: doubles("A", "B", "C", "D", 6, 3)})
	require.NoError(t, err)

	other := tenant.ForTenant("t-2")
	_, err = f.svc.Get(ctx, other, m.ID)
	assert.ErrorIs(t, err, tenant.ErrAccessDenied)
	_, err = f.svc.UpdateParticipantScore(ctx, other, m.ID, "A", 0)
	assert.ErrorIs(t, err, tenant.ErrAccessDenied)
	assert.ErrorIs(t, f.svc.Delete(ctx, other, m.ID), tenant.ErrAccessDenied)

	stored, err := f.repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Participants[0].Score)
}

func TestService_UpdateAndDelete(t *testing.T) {
	f := newRecorder(t)
	ctx := context.Background()

	m, err := f.svc.Create(ctx, f.scope, CreateInput{Participants: doubles("A", "B", "C", "D", 6, 3)})
	require.NoError(t, err)

	updated, err := f.svc.UpdateParticipantScore(ctx, f.scope, m.ID, "C", 8)
	require.NoError(t, err)
	assert.Equal(t, Win, updated.OutcomeFor("C"))

	_, err = f.svc.UpdateParticipantScore(ctx, f.scope, m.ID, "E", 8)
	assert.ErrorIs(t, err, ErrInvalidMatch)

	newDate := clock.MustParseDate("2025-12-10")
	updated, err = f.svc.Update(ctx, f.scope, m.ID, UpdateInput{Date: &newDate})
	require.NoError(t, err)
	assert.Equal(t, newDate, updated.Date)
	assert.Equal(t, time.Date(2025, 12, 10, 3, 0, 0, 0, time.UTC), updated.PlayedAt)

	require.NoError(t, f.svc.Delete(ctx, f.scope, m.ID))
	_, err = f.svc.Get(ctx, f.scope, m.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)
	// create + 2 updates + delete
	assert.Equal(t, 4, f.inv.calls)
	// no re-enrichment on update
	assert.Len(t, f.reconciler.calls, 1)
}
