// Copyright 2026 The ClubLedger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package member

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/audit"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/google/uuid"
)

// JoinCodeVerifier checks a club's self-registration code.
type JoinCodeVerifier interface {
	VerifyJoinCode(ctx context.Context, t *tenant.Tenant, code string) error
}

// Invalidator drops derived statistics after the roster changes.
type Invalidator interface {
	Invalidate(ctx context.Context, scope tenant.Scope)
}

// Service provides member management
type Service struct {
	repo        Repository
	joinCodes   JoinCodeVerifier
	auditLogger audit.Logger
	invalidator Invalidator
}

// NewService creates a new member service
func NewService(repo Repository, joinCodes JoinCodeVerifier, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		joinCodes:   joinCodes,
		auditLogger: auditLogger,
	}
}

// SetInvalidator wires a statistics cache to invalidate on roster writes.
func (s *Service) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

func (s *Service) invalidate(ctx context.Context, scope tenant.Scope) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, scope)
	}
}

// CreateInput carries the fields of a new member.
type CreateInput struct {
	Name       string
	Email      string
	Phone      string
	SkillLevel string
	Role       Role
	Language   string
}

// Create adds a member to the scope's club. The guest kind is decided here,
// once, from the naming rule.
func (s *Service) Create(ctx context.Context, scope tenant.Scope, in CreateInput) (*Member, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidMember, maxNameLength)
	}
	if len(in.Email) > maxContactLength || len(in.Phone) > maxContactLength {
		return nil, fmt.Errorf("%w: contact field too long", ErrInvalidMember)
	}
	skill, err := ParseSkillLevel(in.SkillLevel)
	if err != nil {
		return nil, err
	}
	role := in.Role
	switch role {
	case "":
		role = RoleMember
	case RoleMember, RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidMember, in.Role)
	}
	lang := strings.TrimSpace(in.Language)
	if lang == "" {
		lang = DefaultLanguage
	}
	if len(lang) > maxLanguageLength {
		return nil, fmt.Errorf("%w: language too long", ErrInvalidMember)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate member id: %w", err)
	}

	now := time.Now()
	m := &Member{
		ID:         id.String(),
		TenantID:   scope.OwnerID(),
		Name:       name,
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		SkillLevel: skill,
		Role:       role,
		Language:   lang,
		Kind:       ClassifyKind(name, in.Email),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberCreated,
		TenantID: scope.TenantID,
		Resource: m.ID,
		Metadata: map[string]any{"kind": string(m.Kind)},
	})
	s.invalidate(ctx, scope)

	return m, nil
}

// Register is self-registration gated by the club's join code. Registered
// members always get the member role.
func (s *Service) Register(ctx context.Context, club *tenant.Tenant, scope tenant.Scope, code string, in CreateInput) (*Member, error) {
	if err := s.joinCodes.VerifyJoinCode(ctx, club, code); err != nil {
		return nil, err
	}
	in.Role = RoleMember
	return s.Create(ctx, scope, in)
}

// Get returns a member visible in scope. A member of another club yields
// tenant.ErrAccessDenied.
func (s *Service) Get(ctx context.Context, scope tenant.Scope, id string) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.Authorize(m.TenantID); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns members in scope ordered by name.
func (s *Service) List(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]*Member, error) {
	return s.repo.List(ctx, scope, filter)
}

// UpdateInput carries optional field changes. Kind is not editable.
type UpdateInput struct {
	Name       *string
	Email      *string
	Phone      *string
	SkillLevel *string
	Role       *Role
	Language   *string
}

// Update modifies a member after re-verifying ownership.
func (s *Service) Update(ctx context.Context, scope tenant.Scope, id string, in UpdateInput) (*Member, error) {
	m, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > maxNameLength {
			return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidMember, maxNameLength)
		}
		m.Name = name
	}
	if in.Email != nil {
		m.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		m.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.SkillLevel != nil {
		if m.SkillLevel, err = ParseSkillLevel(*in.SkillLevel); err != nil {
			return nil, err
		}
	}
	if in.Role != nil {
		if *in.Role != RoleMember && *in.Role != RoleAdmin {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidMember, *in.Role)
		}
		m.Role = *in.Role
	}
	if in.Language != nil && strings.TrimSpace(*in.Language) != "" {
		m.Language = strings.TrimSpace(*in.Language)
	}
	m.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberUpdated,
		TenantID: scope.TenantID,
		Resource: m.ID,
	})
	s.invalidate(ctx, scope)

	return m, nil
}

// Delete removes a member after re-verifying ownership.
func (s *Service) Delete(ctx context.Context, scope tenant.Scope, id string) error {
	m, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, m.ID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberDeleted,
		TenantID: scope.TenantID,
		Resource: m.ID,
	})
	s.invalidate(ctx, scope)
	return nil
}

// BackfillKinds re-applies the guest naming rule to every stored member and
// marks matches as guests. It never demotes a guest. Returns the number of
// members changed.
func (s *Service) BackfillKinds(ctx context.Context) (int, error) {
	members, err := s.repo.List(ctx, tenant.Unscoped(), ListFilter{IncludeGuests: true})
	if err != nil {
		return 0, fmt.Errorf("failed to list members: %w", err)
	}

	changed := 0
	touched := map[string]bool{}
	defer func() {
		for id := range touched {
			s.invalidate(ctx, tenant.ForTenant(id))
		}
	}()
	for _, m := range members {
		if m.IsGuest() || ClassifyKind(m.Name, m.Email) != KindGuest {
			continue
		}
		m.Kind = KindGuest
		m.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, m); err != nil {
			return changed, fmt.Errorf("failed to update member %s: %w", m.ID, err)
		}
		changed++
		if m.TenantID != nil {
			touched[*m.TenantID] = true
		}
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeGuestKindBackfill,
		Resource: "members",
		Metadata: map[string]any{"changed": changed},
	})
	return changed, nil
}
