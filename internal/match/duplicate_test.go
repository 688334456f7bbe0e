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

func seedMatch(t *testing.T, repo *fakeRepo, id, tenantID string, playedAt time.Time, p []Participant) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &Match{
		ID:           id,
		TenantID:     strPtr(tenantID),
		Date:         clock.MustParseDate("2025-12-12"),
		PlayedAt:     playedAt,
		Kind:         KindDoubles,
		Participants: p,
	}))
}

// TestPurpose: Validates the closed ±30 minute window around an explicit timestamp.
// Scope: Unit Test
// Expected: 29 minutes apart is a duplicate, 31 minutes apart is not, in both directions.
// Test Case ID: DUP-01
func TestDetector_Window(t *testing.T) {
	repo := newFakeRepo()
	seedMatch(t, repo, "m-1", "t-1", scenarioNow, doubles("A", "B", "C", "D", 6, 3))
	d := NewDetector(repo, testCalendar(t, scenarioNow), 0, nil)
	ctx := context.Background()
	scope := tenant.ForTenant("t-1")

	for _, tc := range []struct {
		offset time.Duration
		want   bool
	}{
		{29 * time.Minute, true},
		{-29 * time.Minute, true},
		{30 * time.Minute, true},
		{31 * time.Minute, false},
		{-31 * time.Minute, false},
	} {
		at := scenarioNow.Add(tc.offset)
		res := d.Check(ctx, scope, DuplicateQuery{PlayedAt: &at, MemberIDs: []string{"D", "C", "B", "A"}})
		assert.Equal(t, tc.want, res.IsDuplicate, "offset %s", tc.offset)
	}
}

// TestPurpose: Validates participant-set equality is order and team independent and exact.
// Scope: Unit Test
// Expected: {A,B,C,E} is not a duplicate of {A,B,C,D}; a reordered set is, and the existing match is described.
// Test Case ID: DUP-02
func TestDetector_SetEquality(t *testing.T) {
	repo := newFakeRepo()
	seedMatch(t, repo, "m-1", "t-1", scenarioNow, doubles("A", "B", "C", "D", 6, 3))
	d := NewDetector(repo, testCalendar(t, scenarioNow), 30*time.Minute, nil)
	ctx := context.Background()
	scope := tenant.ForTenant("t-1")

	res := d.Check(ctx, scope, DuplicateQuery{PlayedAt: &scenarioNow, MemberIDs: []string{"A", "B", "C", "E"}})
	assert.False(t, res.IsDuplicate)
	assert.Nil(t, res.ExistingMatch)

	res = d.Check(ctx, scope, DuplicateQuery{PlayedAt: &scenarioNow, MemberIDs: []string{"C", "A", "D", "B"}})
	require.True(t, res.IsDuplicate)
	assert.Equal(t, "m-1", res.ExistingMatch.ID)
	assert.Len(t, res.ExistingMatch.TeamA, 2)
	assert.Equal(t, 3, res.ExistingMatch.TeamB[0].Score)
}

// TestPurpose: Validates the noon anchor for past date-only queries and tenant isolation of candidates.
// Scope: Unit Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: A query for yesterday matches a game played at 12:10 local that day; another club never sees it.
// Test Case ID: DUP-03
func TestDetector_AnchorAndScope(t *testing.T) {
	repo := newFakeRepo()
	seedMatch(t, repo, "m-1", "t-1", scenarioNow.Add(-24*time.Hour+10*time.Minute), doubles("A", "B", "C", "D", 6, 3))
	d := NewDetector(repo, testCalendar(t, scenarioNow), 0, nil)
	ctx := context.Background()
	q := DuplicateQuery{Date: clock.MustParseDate("2025-12-11"), MemberIDs: []string{"A", "B", "C", "D"}}

	assert.True(t, d.Check(ctx, tenant.ForTenant("t-1"), q).IsDuplicate)
	assert.False(t, d.Check(ctx, tenant.ForTenant("t-2"), q).IsDuplicate)
}

// TestPurpose: Validates that a same-day resubmission is caught away from noon.
// Scope: Unit Test
// Expected: A date-only match recorded at 19:00 local is a duplicate of a date-only check for today
// minutes later, and not of a check for the previous day.
// Test Case ID: DUP-05
func TestDetector_TodayUsesRecordedInstant(t *testing.T) {
	evening := time.Date(2025, 12, 12, 10, 0, 0, 0, time.UTC) // 19:00 +09:00
	now := evening
	loc, err := clock.ParseOffset("+09:00")
	require.NoError(t, err)
	cal := clock.NewCalendar(loc).WithNow(func() time.Time { return now })

	repo := newFakeRepo()
	svc := NewService(repo, clubMembers(), &fakeLedger{}, &fakeReconciler{}, cal, audit.Nop{}, nil)
	d := NewDetector(repo, cal, 0, nil)
	ctx := context.Background()
	scope := tenant.ForTenant("t-1")
	today := clock.MustParseDate("2025-12-12")

	created, err := svc.Create(ctx, scope, CreateInput{Date: today, Participants: doubles("A", "B", "C", "D", 6, 3)})
	require.NoError(t, err)
	assert.True(t, evening.Equal(created.PlayedAt))

	now = evening.Add(12 * time.Minute)
	res := d.Check(ctx, scope, DuplicateQuery{Date: today, MemberIDs: []string{"D", "C", "B", "A"}})
	require.True(t, res.IsDuplicate)
	assert.Equal(t, created.ID, res.ExistingMatch.ID)

	res = d.Check(ctx, scope, DuplicateQuery{Date: today.AddDays(-1), MemberIDs: []string{"A", "B", "C", "D"}})
	assert.False(t, res.IsDuplicate)
}

// TestPurpose: Validates that lookup failures degrade to "not a duplicate".
// Scope: Unit Test
// Expected: No error surfaces and IsDuplicate is false.
// Test Case ID: DUP-04
func TestDetector_FailureIsNotDuplicate(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = errBoom
	d := NewDetector(repo, testCalendar(t, scenarioNow), 0, nil)

	res := d.Check(context.Background(), tenant.ForTenant("t-1"), DuplicateQuery{PlayedAt: &scenarioNow, MemberIDs: []string{"A", "B", "C", "D"}})
	assert.False(t, res.IsDuplicate)
	assert.Equal(t, DefaultDuplicateWindow, d.Window())
}
