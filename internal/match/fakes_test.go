package match

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/clubledger/clubledger/internal/attendance"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/session"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	matches map[string]*Match
	findErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{matches: map[string]*Match{}}
}

func clone(m *Match) *Match {
	cp := *m
	cp.Participants = append([]Participant(nil), m.Participants...)
	return &cp
}

func (r *fakeRepo) Create(_ context.Context, m *Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[m.ID] = clone(m)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return clone(m), nil
}

func (r *fakeRepo) List(_ context.Context, scope tenant.Scope, _ Filter) ([]*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Match
	for _, m := range r.matches {
		if scope.Allows(m.TenantID) {
			out = append(out, clone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayedAt.After(out[j].PlayedAt) })
	return out, nil
}

func (r *fakeRepo) FindPlayedBetween(_ context.Context, scope tenant.Scope, from, to time.Time) ([]*Match, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Match
	for _, m := range r.matches {
		if scope.Allows(m.TenantID) && !m.PlayedAt.Before(from) && !m.PlayedAt.After(to) {
			out = append(out, clone(m))
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, m *Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[m.ID]; !ok {
		return ErrMatchNotFound
	}
	r.matches[m.ID] = clone(m)
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[id]; !ok {
		return ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

type fakeMembers map[string]*member.Member

func (f fakeMembers) Get(_ context.Context, scope tenant.Scope, id string) (*member.Member, error) {
	m, ok := f[id]
	if !ok {
		return nil, member.ErrMemberNotFound
	}
	if err := scope.Authorize(m.TenantID); err != nil {
		return nil, err
	}
	return m, nil
}

type fakeLedger struct {
	err   error
	dates []clock.Date
}

func (l *fakeLedger) GetOrCreateForDate(_ context.Context, scope tenant.Scope, date clock.Date) (*session.Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.dates = append(l.dates, date)
	return &session.Session{ID: "s-" + date.String(), TenantID: scope.OwnerID(), Date: date}, nil
}

type fakeReconciler struct {
	err   error
	calls [][]string
}

func (r *fakeReconciler) Reconcile(_ context.Context, _ tenant.Scope, _ *session.Session, participants []*member.Member) (*attendance.Result, error) {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	r.calls = append(r.calls, ids)
	if r.err != nil {
		return &attendance.Result{}, r.err
	}
	return &attendance.Result{Created: ids}, nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context, tenant.Scope) { c.calls++ }

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }

// clubMembers registers A..E in t-1 and Z in t-2.
func clubMembers() fakeMembers {
	out := fakeMembers{}
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		out[id] = &member.Member{ID: id, TenantID: strPtr("t-1"), Name: id, Kind: member.KindRegistered}
	}
	out["Z"] = &member.Member{ID: "Z", TenantID: strPtr("t-2"), Name: "Z", Kind: member.KindRegistered}
	return out
}

func doubles(a1, a2, b1, b2 string, scoreA, scoreB int) []Participant {
	return []Participant{
		{MemberID: a1, Team: TeamA, Score: scoreA},
		{MemberID: a2, Team: TeamA, Score: scoreA},
		{MemberID: b1, Team: TeamB, Score: scoreB},
		{MemberID: b2, Team: TeamB, Score: scoreB},
	}
}

func testCalendar(t *testing.T, now time.Time) *clock.Calendar {
	t.Helper()
	loc, err := clock.ParseOffset("+09:00")
	require.NoError(t, err)
	return clock.NewCalendar(loc).WithNow(func() time.Time { return now })
}
