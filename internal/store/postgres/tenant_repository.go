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

	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/jackc/pgx/v5"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

const clubColumns = `id, name, slug, admin_password_hash, join_code_hash, created_at, updated_at`

func scanClub(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.AdminPasswordHash, &t.JoinCodeHash, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO clubs (id, name, slug, admin_password_hash, join_code_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.Name, t.Slug, t.AdminPasswordHash, t.JoinCodeHash, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return tenant.ErrSlugTaken
		}
		return fmt.Errorf("failed to insert club: %w", err)
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	return r.getOne(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id = $1`, id)
}

// GetBySlug retrieves a tenant by its subdomain slug
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return r.getOne(ctx, `SELECT `+clubColumns+` FROM clubs WHERE slug = $1`, slug)
}

func (r *TenantRepository) getOne(ctx context.Context, query string, arg string) (*tenant.Tenant, error) {
	t, err := scanClub(r.db.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get club: %w", err)
	}
	return t, nil
}

func (r *TenantRepository) Search(ctx context.Context, query string, limit int) ([]*tenant.Tenant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+clubColumns+`
		FROM clubs
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR slug ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search clubs: %w", err)
	}
	defer rows.Close()

	var out []*tenant.Tenant
	for rows.Next() {
		t, err := scanClub(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan club: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update updates mutable club fields. The slug is immutable.
func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	now := time.Now()
	result, err := r.db.pool.Exec(ctx, `
		UPDATE clubs
		SET name = $2, admin_password_hash = $3, join_code_hash = $4, updated_at = $5
		WHERE id = $1
	`, t.ID, t.Name, t.AdminPasswordHash, t.JoinCodeHash, now)
	if err != nil {
		return fmt.Errorf("failed to update club: %w", err)
	}
	if result.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	t.UpdatedAt = now
	return nil
}
