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
	"github.com/clubledger/clubledger/internal/match"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/jackc/pgx/v5"
)

// MatchRepository implements match.Repository
type MatchRepository struct {
	db *DB
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *DB) *MatchRepository {
	return &MatchRepository{db: db}
}

const matchColumns = `m.id, m.tenant_id, m.match_date, m.played_at, m.kind, m.created_by, m.created_at, m.updated_at`

func scanMatch(row pgx.Row) (*match.Match, error) {
	var (
		m    match.Match
		date time.Time
	)
	err := row.Scan(&m.ID, &m.TenantID, &date, &m.PlayedAt, &m.Kind, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Date = clock.DateFromStorage(date)
	m.PlayedAt = m.PlayedAt.UTC()
	return &m, nil
}

// Create inserts the match and its participants in one transaction.
func (r *MatchRepository) Create(ctx context.Context, m *match.Match) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO matches (id, tenant_id, match_date, played_at, kind, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, m.ID, m.TenantID, m.Date.StorageTime(), m.PlayedAt, m.Kind, m.CreatedBy, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}

		batch := &pgx.Batch{}
		for slot, p := range m.Participants {
			batch.Queue(`
				INSERT INTO match_participants (match_id, member_id, slot, team, score)
				VALUES ($1, $2, $3, $4, $5)
			`, m.ID, p.MemberID, slot, string(p.Team), p.Score)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert participants: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a match with its participants
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*match.Match, error) {
	m, err := scanMatch(r.db.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches m WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, match.ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if err := r.attachParticipants(ctx, []*match.Match{m}); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MatchRepository) List(ctx context.Context, scope tenant.Scope, filter match.Filter) ([]*match.Match, error) {
	where, args := scopeClause(scope, "m.tenant_id", nil)
	dates, args := spanClause(filter.Span, "m.match_date", args)
	where += " AND " + dates
	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM match_participants p WHERE p.match_id = m.id AND p.member_id = $%d)`, len(args))
	}
	query := `SELECT ` + matchColumns + ` FROM matches m WHERE ` + where + ` ORDER BY m.played_at DESC, m.id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return r.query(ctx, query, args...)
}

func (r *MatchRepository) FindPlayedBetween(ctx context.Context, scope tenant.Scope, from, to time.Time) ([]*match.Match, error) {
	args := []any{from, to}
	where, args := scopeClause(scope, "m.tenant_id", args)
	return r.query(ctx, `
		SELECT `+matchColumns+`
		FROM matches m
		WHERE m.played_at BETWEEN $1 AND $2 AND `+where+`
		ORDER BY m.played_at
	`, args...)
}

func (r *MatchRepository) query(ctx context.Context, query string, args ...any) ([]*match.Match, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var out []*match.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	if err := r.attachParticipants(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MatchRepository) attachParticipants(ctx context.Context, matches []*match.Match) error {
	if len(matches) == 0 {
		return nil
	}
	byID := make(map[string]*match.Match, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT match_id, member_id, team, score
		FROM match_participants
		WHERE match_id = ANY($1)
		ORDER BY match_id, slot
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			matchID, team string
			p             match.Participant
		)
		if err := rows.Scan(&matchID, &p.MemberID, &team, &p.Score); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Team = match.Team(team)
		if m, ok := byID[matchID]; ok {
			m.Participants = append(m.Participants, p)
		}
	}
	return rows.Err()
}

// Update rewrites date, played_at and scores in one transaction.
func (r *MatchRepository) Update(ctx context.Context, m *match.Match) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE matches SET match_date = $2, played_at = $3, updated_at = $4
			WHERE id = $1
		`, m.ID, m.Date.StorageTime(), m.PlayedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update match: %w", err)
		}
		if result.RowsAffected() == 0 {
			return match.ErrMatchNotFound
		}

		for _, p := range m.Participants {
			if _, err := tx.Exec(ctx, `
				UPDATE match_participants SET score = $3
				WHERE match_id = $1 AND member_id = $2
			`, m.ID, p.MemberID, p.Score); err != nil {
				return fmt.Errorf("failed to update participant %s: %w", p.MemberID, err)
			}
		}
		return nil
	})
}

// Delete removes a match; participants cascade.
func (r *MatchRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	if result.RowsAffected() == 0 {
		return match.ErrMatchNotFound
	}
	return nil
}
