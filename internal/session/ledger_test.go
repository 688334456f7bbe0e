package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clubledger/clubledger/internal/audit"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu       sync.Mutex
	byID     map[string]*Session
	creates  int
	hideOnce bool // first GetByDate misses even if a row exists
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]*Session{}}
}

func key(owner *string) string {
	if owner == nil {
		return ""
	}
	return *owner
}

func (r *fakeRepo) Create(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	for _, existing := range r.byID {
		if key(existing.TenantID) == key(s.TenantID) && existing.Date == s.Date {
			return ErrSessionExists
		}
	}
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, ErrSessionNotFound
}

func (r *fakeRepo) GetByDate(_ context.Context, scope tenant.Scope, date clock.Date) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hideOnce {
		r.hideOnce = false
		return nil, ErrSessionNotFound
	}
	for _, s := range r.byID {
		if s.Date == date && scope.Allows(s.TenantID) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (r *fakeRepo) List(context.Context, tenant.Scope, clock.Span) ([]*Session, error) {
	return nil, nil
}

func (r *fakeRepo) CountDays(context.Context, tenant.Scope, clock.Span) (int, error) {
	return 0, nil
}

func (r *fakeRepo) UpdateLabel(_ context.Context, id, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id].Label = label
	return nil
}

func testCalendar() *clock.Calendar {
	loc, _ := clock.ParseOffset("+09:00")
	return clock.NewCalendar(loc).WithNow(func() time.Time {
		return time.Date(2025, 12, 12, 1, 0, 0, 0, time.UTC)
	})
}

// TestPurpose: Validates that get-or-create is idempotent per club and civil day.
// Scope: Unit Test
// Expected: Two calls for the same date return the same session and create one row; another club gets its own session.
// Test Case ID: SES-01
func TestLedger_GetOrCreateForDate_Idempotent(t *testing.T) {
	repo := newFakeRepo()
	ledger := NewLedger(repo, testCalendar(), audit.Nop{})
	ctx := context.Background()
	date := clock.MustParseDate("2025-12-12")

	first, err := ledger.GetOrCreateForDate(ctx, tenant.ForTenant("t-1"), date)
	require.NoError(t, err)
	second, err := ledger.GetOrCreateForDate(ctx, tenant.ForTenant("t-1"), date)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Morning Session 2025-12-12", first.Label)
	assert.Equal(t, 1, repo.creates)

	other, err := ledger.GetOrCreateForDate(ctx, tenant.ForTenant("t-2"), date)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

// TestPurpose: Validates that "today" follows the configured calendar, not host time.
// Scope: Unit Test
// Expected: At 01:00Z on 2025-12-12 with +09:00, today's session is dated 2025-12-12.
// Test Case ID: SES-02
func TestLedger_GetOrCreateForToday(t *testing.T) {
	ledger := NewLedger(newFakeRepo(), testCalendar(), audit.Nop{})

	s, err := ledger.GetOrCreateForToday(context.Background(), tenant.ForTenant("t-1"))
	require.NoError(t, err)
	assert.Equal(t, clock.MustParseDate("2025-12-12"), s.Date)
}

// TestPurpose: Validates the lost-race path of get-or-create.
// Scope: Unit Test
// Expected: When the lookup misses but the insert hits the unique slot, the existing session is returned.
// Test Case ID: SES-03
func TestLedger_GetOrCreateForDate_RaceReturnsExisting(t *testing.T) {
	repo := newFakeRepo()
	ledger := NewLedger(repo, testCalendar(), audit.Nop{})
	ctx := context.Background()
	date := clock.MustParseDate("2025-12-12")
	scope := tenant.ForTenant("t-1")

	winner, err := ledger.GetOrCreateForDate(ctx, scope, date)
	require.NoError(t, err)

	repo.hideOnce = true
	loser, err := ledger.GetOrCreateForDate(ctx, scope, date)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, loser.ID)
	assert.Equal(t, 2, repo.creates)
}

// TestPurpose: Validates concurrent callers converge on one session.
// Scope: Unit Test
// Expected: Ten goroutines all observe the same session id.
// Test Case ID: SES-04
func TestLedger_GetOrCreateForDate_Concurrent(t *testing.T) {
	ledger := NewLedger(newFakeRepo(), testCalendar(), audit.Nop{})
	ctx := context.Background()
	date := clock.MustParseDate("2025-12-12")

	ids := make([]string, 10)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := ledger.GetOrCreateForDate(ctx, tenant.ForTenant("t-1"), date)
			if err == nil {
				ids[i] = s.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.NotEmpty(t, ids[0])
}

// TestPurpose: Validates that relabeling another club's session is denied.
// Scope: Unit Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: ErrAccessDenied for foreign sessions; ErrInvalidLabel for blank labels.
// Test Case ID: SES-05
func TestLedger_UpdateLabel(t *testing.T) {
	repo := newFakeRepo()
	ledger := NewLedger(repo, testCalendar(), audit.Nop{})
	ctx := context.Background()

	s, err := ledger.GetOrCreateForDate(ctx, tenant.ForTenant("t-1"), clock.MustParseDate("2025-12-12"))
	require.NoError(t, err)

	_, err = ledger.UpdateLabel(ctx, tenant.ForTenant("t-2"), s.ID, "Hijacked")
	assert.True(t, errors.Is(err, tenant.ErrAccessDenied))

	_, err = ledger.UpdateLabel(ctx, tenant.ForTenant("t-1"), s.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidLabel)

	updated, err := ledger.UpdateLabel(ctx, tenant.ForTenant("t-1"), s.ID, "Evening Doubles")
	require.NoError(t, err)
	assert.Equal(t, "Evening Doubles", updated.Label)
}
