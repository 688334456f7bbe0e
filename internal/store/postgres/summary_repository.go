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
	"fmt"
	"strings"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// SummaryRepository implements tenant.SummaryRepository
type SummaryRepository struct {
	db *DB
}

func NewSummaryRepository(db *DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Summary counts a club's rows in one round trip. Every sub-select shares
// the same scope predicate.
func (r *SummaryRepository) Summary(ctx context.Context, scope tenant.Scope, today clock.Date) (*tenant.Summary, error) {
	args := []any{today.StorageTime()}
	where, args := scopeClause(scope, "tenant_id", args)

	query := strings.NewReplacer("{scope}", where).Replace(`
		SELECT
			(SELECT COUNT(*) FROM members WHERE {scope} AND kind = 'registered'),
			(SELECT COUNT(*) FROM members WHERE {scope} AND kind = 'guest'),
			(SELECT COUNT(*) FROM sessions WHERE {scope}),
			(SELECT COUNT(*) FROM matches WHERE {scope}),
			(SELECT COUNT(*) FROM attendances WHERE {scope} AND status = 'ATTENDED'),
			(SELECT MAX(session_date) FROM sessions WHERE {scope}),
			(SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE {scope} AND visit_date = $1)
	`)

	var (
		sum    tenant.Summary
		latest pgtype.Date
	)
	err := r.db.pool.QueryRow(ctx, query, args...).Scan(
		&sum.MemberCount,
		&sum.GuestCount,
		&sum.SessionCount,
		&sum.MatchCount,
		&sum.AttendanceCount,
		&latest,
		&sum.UniqueVisitorsToday,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize club: %w", err)
	}
	if latest.Valid {
		d := clock.DateFromStorage(latest.Time)
		sum.LatestSessionDate = &d
	}
	return &sum, nil
}

// BackfillResult counts rows reassigned per table.
type BackfillResult map[string]int64

// BackfillLegacyTenant assigns every untenanted row to tenantID in one
// transaction. Legacy sessions and visits that collide with the tenant's own
// rows for the same day are merged into them first.
func (db *DB) BackfillLegacyTenant(ctx context.Context, tenantID string) (BackfillResult, error) {
	res := BackfillResult{}
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		steps := []struct {
			name  string
			query string
		}{
			{"attendances_merged", `
				DELETE FROM attendances a
				USING sessions legacy, sessions own, attendances b
				WHERE a.session_id = legacy.id AND legacy.tenant_id IS NULL
				  AND own.tenant_id = $1 AND own.session_date = legacy.session_date
				  AND b.session_id = own.id AND b.member_id = a.member_id`},
			{"attendances_repointed", `
				UPDATE attendances a SET session_id = own.id
				FROM sessions legacy, sessions own
				WHERE a.session_id = legacy.id AND legacy.tenant_id IS NULL
				  AND own.tenant_id = $1 AND own.session_date = legacy.session_date`},
			{"sessions_merged", `
				DELETE FROM sessions legacy
				USING sessions own
				WHERE legacy.tenant_id IS NULL AND own.tenant_id = $1
				  AND own.session_date = legacy.session_date`},
			{"visits_merged", `
				DELETE FROM visits legacy
				USING visits own
				WHERE legacy.tenant_id IS NULL AND own.tenant_id = $1
				  AND own.visit_date = legacy.visit_date AND own.visitor_id = legacy.visitor_id`},
			{"members", `UPDATE members SET tenant_id = $1 WHERE tenant_id IS NULL`},
			{"sessions", `UPDATE sessions SET tenant_id = $1 WHERE tenant_id IS NULL`},
			{"matches", `UPDATE matches SET tenant_id = $1 WHERE tenant_id IS NULL`},
			{"attendances", `UPDATE attendances SET tenant_id = $1 WHERE tenant_id IS NULL`},
			{"visits", `UPDATE visits SET tenant_id = $1 WHERE tenant_id IS NULL`},
		}
		for _, step := range steps {
			tag, err := tx.Exec(ctx, step.query, tenantID)
			if err != nil {
				return fmt.Errorf("failed to backfill %s: %w", step.name, err)
			}
			res[step.name] = tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
