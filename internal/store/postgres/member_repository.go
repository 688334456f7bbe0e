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

	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/jackc/pgx/v5"
)

// MemberRepository implements member.Repository
type MemberRepository struct {
	db *DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `id, tenant_id, name, email, phone, skill_level, role, language, kind, created_at, updated_at`

func scanMember(row pgx.Row) (*member.Member, error) {
	var m member.Member
	err := row.Scan(
		&m.ID, &m.TenantID, &m.Name, &m.Email, &m.Phone,
		&m.SkillLevel, &m.Role, &m.Language, &m.Kind,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create creates a new member
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO members (
			id, tenant_id, name, email, phone, skill_level, role, language, kind,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		m.ID, m.TenantID, m.Name, m.Email, m.Phone,
		string(m.SkillLevel), string(m.Role), m.Language, string(m.Kind),
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetByID retrieves a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*member.Member, error) {
	m, err := scanMember(r.db.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, member.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// List returns members in scope ordered by name.
func (r *MemberRepository) List(ctx context.Context, scope tenant.Scope, filter member.ListFilter) ([]*member.Member, error) {
	where, args := scopeClause(scope, "tenant_id", nil)
	if !filter.IncludeGuests {
		where += " AND kind = 'registered'"
	}
	if filter.Query != "" {
		args = append(args, filter.Query)
		where += fmt.Sprintf(" AND (name ILIKE '%%' || $%d || '%%' OR email ILIKE '%%' || $%d || '%%')", len(args), len(args))
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM members
		WHERE `+where+`
		ORDER BY name, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var out []*member.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update updates member information. tenant_id is never rewritten.
func (r *MemberRepository) Update(ctx context.Context, m *member.Member) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE members SET
			name = $2,
			email = $3,
			phone = $4,
			skill_level = $5,
			role = $6,
			language = $7,
			kind = $8,
			updated_at = $9
		WHERE id = $1
	`,
		m.ID, m.Name, m.Email, m.Phone,
		string(m.SkillLevel), string(m.Role), m.Language, string(m.Kind),
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return member.ErrMemberNotFound
	}
	return nil
}

// Delete removes a member. Members referenced by matches cannot be deleted.
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return member.ErrMemberInUse
		}
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return member.ErrMemberNotFound
	}
	return nil
}
