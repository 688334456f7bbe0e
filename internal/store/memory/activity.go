package memory

import (
	"context"
	"sort"
	"time"

	"github.com/clubledger/clubledger/internal/attendance"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/match"
	"github.com/clubledger/clubledger/internal/session"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/clubledger/clubledger/internal/visit"
)

// SessionRepository implements session.Repository
type SessionRepository struct{ s *Store }

func (r *SessionRepository) Create(_ context.Context, sess *session.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.sessions {
		if cur.Date == sess.Date && sameOwner(cur.TenantID, sess.TenantID) {
			return session.ErrSessionExists
		}
	}
	cp := *sess
	r.s.sessions[sess.ID] = &cp
	return nil
}

func (r *SessionRepository) GetByID(_ context.Context, id string) (*session.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (r *SessionRepository) GetByDate(_ context.Context, scope tenant.Scope, date clock.Date) (*session.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *session.Session
	for _, sess := range r.s.sessions {
		if sess.Date != date || !scope.Allows(sess.TenantID) {
			continue
		}
		if found == nil || (found.TenantID == nil && sess.TenantID != nil) {
			found = sess
		}
	}
	if found == nil {
		return nil, session.ErrSessionNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *SessionRepository) List(_ context.Context, scope tenant.Scope, span clock.Span) ([]*session.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*session.Session
	for _, sess := range r.s.sessions {
		if scope.Allows(sess.TenantID) && span.Contains(sess.Date) {
			cp := *sess
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *SessionRepository) CountDays(ctx context.Context, scope tenant.Scope, span clock.Span) (int, error) {
	list, _ := r.List(ctx, scope, span)
	days := map[clock.Date]bool{}
	for _, sess := range list {
		days[sess.Date] = true
	}
	return len(days), nil
}

func (r *SessionRepository) UpdateLabel(_ context.Context, id, label string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return session.ErrSessionNotFound
	}
	sess.Label = label
	return nil
}

// MatchRepository implements match.Repository
type MatchRepository struct{ s *Store }

func cloneMatch(m *match.Match) *match.Match {
	cp := *m
	cp.Participants = append([]match.Participant(nil), m.Participants...)
	return &cp
}

func (r *MatchRepository) Create(_ context.Context, m *match.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.matches[m.ID] = cloneMatch(m)
	return nil
}

func (r *MatchRepository) GetByID(_ context.Context, id string) (*match.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, match.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r *MatchRepository) List(_ context.Context, scope tenant.Scope, filter match.Filter) ([]*match.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*match.Match
	for _, m := range r.s.matches {
		if !scope.Allows(m.TenantID) || !filter.Span.Contains(m.Date) {
			continue
		}
		if filter.MemberID != "" {
			if _, ok := m.Participant(filter.MemberID); !ok {
				continue
			}
		}
		out = append(out, cloneMatch(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PlayedAt.Equal(out[j].PlayedAt) {
			return out[i].PlayedAt.After(out[j].PlayedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MatchRepository) FindPlayedBetween(_ context.Context, scope tenant.Scope, from, to time.Time) ([]*match.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*match.Match
	for _, m := range r.s.matches {
		if scope.Allows(m.TenantID) && !m.PlayedAt.Before(from) && !m.PlayedAt.After(to) {
			out = append(out, cloneMatch(m))
		}
	}
	return out, nil
}

func (r *MatchRepository) Update(_ context.Context, m *match.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[m.ID]; !ok {
		return match.ErrMatchNotFound
	}
	r.s.matches[m.ID] = cloneMatch(m)
	return nil
}

func (r *MatchRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[id]; !ok {
		return match.ErrMatchNotFound
	}
	delete(r.s.matches, id)
	return nil
}

// AttendanceRepository implements attendance.Repository
type AttendanceRepository struct{ s *Store }

// conflicts mirrors the two unique indexes on attendances.
func (r *AttendanceRepository) conflicts(a *attendance.Attendance) *attendance.Attendance {
	for _, cur := range r.s.attendances {
		if cur.MemberID != a.MemberID {
			continue
		}
		if cur.SessionID == a.SessionID {
			return cur
		}
		if cur.Date == a.Date && cur.Status == attendance.StatusAttended && a.Status == attendance.StatusAttended {
			return cur
		}
	}
	return nil
}

func (r *AttendanceRepository) InsertIfAbsent(_ context.Context, a *attendance.Attendance) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.conflicts(a) != nil {
		return false, nil
	}
	cp := *a
	r.s.attendances[a.ID] = &cp
	return true, nil
}

func (r *AttendanceRepository) HasAttended(_ context.Context, scope tenant.Scope, memberID string, date clock.Date) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.attendances {
		if a.MemberID == memberID && a.Date == date && a.Status == attendance.StatusAttended && scope.Allows(a.TenantID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *AttendanceRepository) Upsert(_ context.Context, a *attendance.Attendance) (*attendance.Attendance, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var same, sameDay *attendance.Attendance
	for _, cur := range r.s.attendances {
		if cur.MemberID != a.MemberID {
			continue
		}
		switch {
		case cur.SessionID == a.SessionID:
			same = cur
		case cur.Date == a.Date && cur.Status == attendance.StatusAttended:
			sameDay = cur
		}
	}
	switch {
	case sameDay != nil && a.Status == attendance.StatusAttended:
		cp := *sameDay
		return &cp, false, nil
	case same != nil:
		same.Status = a.Status
		same.UpdatedAt = a.UpdatedAt
		cp := *same
		return &cp, true, nil
	}
	cp := *a
	r.s.attendances[a.ID] = &cp
	out := cp
	return &out, true, nil
}

func (r *AttendanceRepository) List(_ context.Context, scope tenant.Scope, filter attendance.Filter) ([]*attendance.Attendance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*attendance.Attendance
	for _, a := range r.s.attendances {
		if !scope.Allows(a.TenantID) || !filter.Span.Contains(a.Date) {
			continue
		}
		if (filter.MemberID != "" && a.MemberID != filter.MemberID) || (filter.SessionID != "" && a.SessionID != filter.SessionID) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out, nil
}

func (r *AttendanceRepository) CountAttended(_ context.Context, scope tenant.Scope, memberID string, span clock.Span) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	days := map[clock.Date]bool{}
	for _, a := range r.s.attendances {
		if a.MemberID == memberID && a.Status == attendance.StatusAttended && scope.Allows(a.TenantID) && span.Contains(a.Date) {
			days[a.Date] = true
		}
	}
	return len(days), nil
}

// VisitRepository implements visit.Repository
type VisitRepository struct{ s *Store }

func (r *VisitRepository) Record(_ context.Context, v *visit.Visit) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.visits {
		if cur.Date == v.Date && cur.VisitorID == v.VisitorID && sameOwner(cur.TenantID, v.TenantID) {
			return false, nil
		}
	}
	cp := *v
	r.s.visits = append(r.s.visits, &cp)
	return true, nil
}

func (r *VisitRepository) CountUnique(_ context.Context, scope tenant.Scope, date clock.Date) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := map[string]bool{}
	for _, v := range r.s.visits {
		if v.Date == date && scope.Allows(v.TenantID) {
			seen[v.VisitorID] = true
		}
	}
	return len(seen), nil
}
