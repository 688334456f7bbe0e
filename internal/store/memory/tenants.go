package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/attendance"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/tenant"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct{ s *Store }

func (r *TenantRepository) Create(_ context.Context, t *tenant.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.clubs {
		if c.Slug == t.Slug {
			return tenant.ErrSlugTaken
		}
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	cp := *t
	r.s.clubs[t.ID] = &cp
	return nil
}

func (r *TenantRepository) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.clubs[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *TenantRepository) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.clubs {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (r *TenantRepository) Search(_ context.Context, query string, limit int) ([]*tenant.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []*tenant.Tenant
	for _, c := range r.s.clubs {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Slug, q) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *TenantRepository) Update(_ context.Context, t *tenant.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clubs[t.ID]
	if !ok {
		return tenant.ErrTenantNotFound
	}
	c.Name = t.Name
	c.AdminPasswordHash = t.AdminPasswordHash
	c.JoinCodeHash = t.JoinCodeHash
	c.UpdatedAt = time.Now()
	t.UpdatedAt = c.UpdatedAt
	return nil
}

// SummaryRepository implements tenant.SummaryRepository
type SummaryRepository struct{ s *Store }

func (r *SummaryRepository) Summary(_ context.Context, scope tenant.Scope, today clock.Date) (*tenant.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sum := &tenant.Summary{}
	for _, m := range r.s.members {
		if !scope.Allows(m.TenantID) {
			continue
		}
		if m.Kind == member.KindGuest {
			sum.GuestCount++
		} else {
			sum.MemberCount++
		}
	}
	for _, sess := range r.s.sessions {
		if !scope.Allows(sess.TenantID) {
			continue
		}
		sum.SessionCount++
		if sum.LatestSessionDate == nil || sess.Date.After(*sum.LatestSessionDate) {
			d := sess.Date
			sum.LatestSessionDate = &d
		}
	}
	for _, m := range r.s.matches {
		if scope.Allows(m.TenantID) {
			sum.MatchCount++
		}
	}
	for _, a := range r.s.attendances {
		if scope.Allows(a.TenantID) && a.Status == attendance.StatusAttended {
			sum.AttendanceCount++
		}
	}
	seen := map[string]bool{}
	for _, v := range r.s.visits {
		if scope.Allows(v.TenantID) && v.Date == today && !seen[v.VisitorID] {
			seen[v.VisitorID] = true
			sum.UniqueVisitorsToday++
		}
	}
	return sum, nil
}
