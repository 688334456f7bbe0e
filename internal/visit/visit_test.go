package visit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rows []*Visit
}

func (r *fakeRepo) Record(_ context.Context, v *Visit) (bool, error) {
	for _, row := range r.rows {
		if row.VisitorID == v.VisitorID && row.Date == v.Date && tenant.ForTenant(*row.TenantID).Allows(v.TenantID) {
			return false, nil
		}
	}
	r.rows = append(r.rows, v)
	return true, nil
}

func (r *fakeRepo) CountUnique(_ context.Context, scope tenant.Scope, date clock.Date) (int, error) {
	n := 0
	for _, row := range r.rows {
		if row.Date == date && scope.Allows(row.TenantID) {
			n++
		}
	}
	return n, nil
}

// TestPurpose: Validates visits are counted once per visitor, club and civil day.
// Scope: Unit Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: Repeat visits are no-ops; another club's visitors are not counted.
// Test Case ID: VIS-01
func TestService_Record(t *testing.T) {
	loc, err := clock.ParseOffset("+09:00")
	require.NoError(t, err)
	cal := clock.NewCalendar(loc).WithNow(func() time.Time { return time.Date(2025, 12, 12, 3, 0, 0, 0, time.UTC) })
	repo := &fakeRepo{}
	svc := NewService(repo, cal)
	ctx := context.Background()
	club, other := tenant.ForTenant("t-1"), tenant.ForTenant("t-2")

	created, err := svc.Record(ctx, club, "v-1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Record(ctx, club, " v-1 ")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.Record(ctx, other, "v-1")
	require.NoError(t, err)
	_, err = svc.Record(ctx, club, "v-2")
	require.NoError(t, err)

	n, err := svc.CountToday(ctx, club)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, clock.MustParseDate("2025-12-12"), repo.rows[0].Date)

	_, err = svc.Record(ctx, club, "")
	assert.ErrorIs(t, err, ErrInvalidVisitor)
	_, err = svc.Record(ctx, club, strings.Repeat("x", 129))
	assert.ErrorIs(t, err, ErrInvalidVisitor)
}
