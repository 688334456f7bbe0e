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

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/audit"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/observability/logger"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/google/uuid"
)

const maxLabelLength = 120

// Label is the default label of a lazily created session.
func Label(d clock.Date) string {
	return "Morning Session " + d.String()
}

// Ledger guarantees at most one session per club per civil day.
type Ledger struct {
	repo        Repository
	calendar    *clock.Calendar
	auditLogger audit.Logger
}

// NewLedger creates a session ledger
func NewLedger(repo Repository, calendar *clock.Calendar, auditLogger audit.Logger) *Ledger {
	return &Ledger{
		repo:        repo,
		calendar:    calendar,
		auditLogger: auditLogger,
	}
}

// GetOrCreateForToday returns today's session, creating it if needed.
func (l *Ledger) GetOrCreateForToday(ctx context.Context, scope tenant.Scope) (*Session, error) {
	return l.GetOrCreateForDate(ctx, scope, l.calendar.Today())
}

// GetOrCreateForDate returns the session for date, creating it if needed.
// A concurrent creator losing the unique-index race re-reads the winner's row.
func (l *Ledger) GetOrCreateForDate(ctx context.Context, scope tenant.Scope, date clock.Date) (*Session, error) {
	s, err := l.repo.GetByDate(ctx, scope, date)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	s = &Session{
		ID:        id.String(),
		TenantID:  scope.OwnerID(),
		Date:      date,
		Label:     Label(date),
		CreatedAt: time.Now(),
	}

	err = l.repo.Create(ctx, s)
	switch {
	case err == nil:
		slog.DebugContext(ctx, "session created",
			logger.Component("session_ledger"),
			logger.TenantID(scope.TenantID),
			logger.SessionID(s.ID),
			logger.Date(date.String()),
		)
		return s, nil
	case errors.Is(err, ErrSessionExists):
		existing, getErr := l.repo.GetByDate(ctx, scope, date)
		if getErr != nil {
			return nil, fmt.Errorf("failed to re-read session after conflict: %w", getErr)
		}
		return existing, nil
	default:
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
}

// Get returns a session visible in scope.
func (l *Ledger) Get(ctx context.Context, scope tenant.Scope, id string) (*Session, error) {
	s, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.Authorize(s.TenantID); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns sessions in span.
func (l *Ledger) List(ctx context.Context, scope tenant.Scope, span clock.Span) ([]*Session, error) {
	return l.repo.List(ctx, scope, span)
}

// CountDays counts session days in span.
func (l *Ledger) CountDays(ctx context.Context, scope tenant.Scope, span clock.Span) (int, error) {
	return l.repo.CountDays(ctx, scope, span)
}

// UpdateLabel renames a session after re-verifying ownership.
func (l *Ledger) UpdateLabel(ctx context.Context, scope tenant.Scope, id, label string) (*Session, error) {
	label = strings.TrimSpace(label)
	if label == "" || len(label) > maxLabelLength {
		return nil, ErrInvalidLabel
	}

	s, err := l.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := l.repo.UpdateLabel(ctx, s.ID, label); err != nil {
		return nil, fmt.Errorf("failed to update session label: %w", err)
	}
	s.Label = label

	l.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSessionRelabeled,
		TenantID: scope.TenantID,
		Resource: s.ID,
	})
	return s, nil
}
