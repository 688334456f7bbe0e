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

package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/audit"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/google/uuid"
)

// Service provides club provisioning and lookup
type Service struct {
	repo        Repository
	summaries   SummaryRepository
	hasher      *PasswordHasher
	auditLogger audit.Logger
}

// NewService creates a new tenant service
func NewService(repo Repository, summaries SummaryRepository, hasher *PasswordHasher, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		summaries:   summaries,
		hasher:      hasher,
		auditLogger: auditLogger,
	}
}

// ProvisionInput describes a new club.
type ProvisionInput struct {
	Name          string
	Slug          string
	AdminPassword string
	JoinCode      string
}

// Provision creates a club. Slugs are immutable once provisioned.
func (s *Service) Provision(ctx context.Context, in ProvisionInput) (*Tenant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("club name is required")
	}
	slug := NormalizeSlug(in.Slug)
	if !ValidSlug(slug) || reservedLabels[slug] {
		return nil, ErrInvalidSlug
	}

	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, ErrTenantNotFound) {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate club id: %w", err)
	}

	now := time.Now()
	t := &Tenant{
		ID:        id.String(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.AdminPassword != "" {
		if t.AdminPasswordHash, err = s.hasher.Hash(in.AdminPassword); err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	}
	if in.JoinCode != "" {
		if t.JoinCodeHash, err = s.hasher.Hash(in.JoinCode); err != nil {
			return nil, fmt.Errorf("failed to hash join code: %w", err)
		}
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create club: %w", err)
	}

	s.auditLogger.Log(ctx, Event(t.ID, audit.TypeClubProvisioned, "club", map[string]any{"slug": t.Slug}))

	return t, nil
}

// SetJoinCode replaces the club's join code; an empty code closes
// self-registration.
func (s *Service) SetJoinCode(ctx context.Context, t *Tenant, code string) error {
	hash := ""
	if code != "" {
		var err error
		if hash, err = s.hasher.Hash(code); err != nil {
			return fmt.Errorf("failed to hash join code: %w", err)
		}
	}
	t.JoinCodeHash = hash
	t.UpdatedAt = time.Now()
	return s.repo.Update(ctx, t)
}

// VerifyJoinCode checks a self-registration code.
func (s *Service) VerifyJoinCode(ctx context.Context, t *Tenant, code string) error {
	if t == nil || !t.HasJoinCode() || code == "" {
		return ErrInvalidJoinCode
	}
	ok, err := s.hasher.Verify(code, t.JoinCodeHash)
	if err != nil {
		return fmt.Errorf("failed to verify join code: %w", err)
	}
	if !ok {
		s.auditLogger.Log(ctx, Event(t.ID, audit.TypeJoinCodeRejected, "club", nil))
		return ErrInvalidJoinCode
	}
	return nil
}

// GetBySlug retrieves a club by slug
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return s.repo.GetBySlug(ctx, NormalizeSlug(slug))
}

// Search lists clubs whose name or slug contains query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*Tenant, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.Search(ctx, strings.TrimSpace(query), limit)
}

// Summary returns activity counts for a resolved club.
func (s *Service) Summary(ctx context.Context, t *Tenant, scope Scope, today clock.Date) (*Summary, error) {
	sum, err := s.summaries.Summary(ctx, scope, today)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize club: %w", err)
	}
	sum.Club = t
	return sum, nil
}

// Event builds an audit event attributed to a club.
func Event(tenantID, eventType, resource string, metadata map[string]any) audit.Event {
	return audit.Event{
		Type:     eventType,
		TenantID: tenantID,
		Resource: resource,
		Metadata: metadata,
	}
}
