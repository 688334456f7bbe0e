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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/session"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/jackc/pgx/v5"
)

// SessionRepository implements session.Repository
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, tenant_id, session_date, label, created_at`

func scanSession(row pgx.Row) (*session.Session, error) {
	var (
		s    session.Session
		date time.Time
	)
	if err := row.Scan(&s.ID, &s.TenantID, &date, &s.Label, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Date = clock.DateFromStorage(date)
	return &s, nil
}

// Create inserts a session; the (tenant, date) unique index maps to ErrSessionExists.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO sessions (id, tenant_id, session_date, label, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.TenantID, s.Date.StorageTime(), s.Label, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return session.ErrSessionExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*session.Session, error) {
	s, err := scanSession(r.db.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) GetByDate(ctx context.Context, scope tenant.Scope, date clock.Date) (*session.Session, error) {
	args := []any{date.StorageTime()}
	where, args := scopeClause(scope, "tenant_id", args)

	s, err := scanSession(r.db.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE session_date = $1 AND `+where+`
		ORDER BY tenant_id IS NULL, created_at
		LIMIT 1
	`, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session by date: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) List(ctx context.Context, scope tenant.Scope, span clock.Span) ([]*session.Session, error) {
	where, args := scopeClause(scope, "tenant_id", nil)
	dates, args := spanClause(span, "session_date", args)

	rows, err := r.db.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE `+where+` AND `+dates+`
		ORDER BY session_date DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SessionRepository) CountDays(ctx context.Context, scope tenant.Scope, span clock.Span) (int, error) {
	where, args := scopeClause(scope, "tenant_id", nil)
	dates, args := spanClause(span, "session_date", args)

	var n int
	err := r.db.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT session_date) FROM sessions WHERE `+where+` AND `+dates, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// UpdateLabel renames a session
func (r *SessionRepository) UpdateLabel(ctx context.Context, id, label string) error {
	result, err := r.db.pool.Exec(ctx, `UPDATE sessions SET label = $2 WHERE id = $1`, id, label)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}
