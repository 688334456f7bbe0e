package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/tenant"
)

// MemberRepository implements member.Repository
type MemberRepository struct{ s *Store }

func (r *MemberRepository) Create(_ context.Context, m *member.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	r.s.members[m.ID] = &cp
	return nil
}

func (r *MemberRepository) GetByID(_ context.Context, id string) (*member.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.members[id]
	if !ok {
		return nil, member.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MemberRepository) List(_ context.Context, scope tenant.Scope, filter member.ListFilter) ([]*member.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q := strings.ToLower(filter.Query)
	var out []*member.Member
	for _, m := range r.s.members {
		if !scope.Allows(m.TenantID) || (!filter.IncludeGuests && m.IsGuest()) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(m.Name), q) && !strings.Contains(strings.ToLower(m.Email), q) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemberRepository) Update(_ context.Context, m *member.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.members[m.ID]
	if !ok {
		return member.ErrMemberNotFound
	}
	cp := *m
	cp.TenantID = cur.TenantID
	cp.CreatedAt = cur.CreatedAt
	r.s.members[m.ID] = &cp
	return nil
}

func (r *MemberRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.members[id]; !ok {
		return member.ErrMemberNotFound
	}
	for _, m := range r.s.matches {
		if _, played := m.Participant(id); played {
			return member.ErrMemberInUse
		}
	}
	for key, a := range r.s.attendances {
		if a.MemberID == id {
			delete(r.s.attendances, key)
		}
	}
	delete(r.s.members, id)
	return nil
}
