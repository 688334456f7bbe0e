package postgres

import (
	"context"
	"fmt"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/clubledger/clubledger/internal/visit"
)

// VisitRepository implements visit.Repository
type VisitRepository struct {
	db *DB
}

func NewVisitRepository(db *DB) *VisitRepository {
	return &VisitRepository{db: db}
}

func (r *VisitRepository) Record(ctx context.Context, v *visit.Visit) (bool, error) {
	result, err := r.db.pool.Exec(ctx, `
		INSERT INTO visits (tenant_id, visit_date, visitor_id, first_seen_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, v.TenantID, v.Date.StorageTime(), v.VisitorID, v.FirstSeenAt)
	if err != nil {
		return false, fmt.Errorf("failed to record visit: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *VisitRepository) CountUnique(ctx context.Context, scope tenant.Scope, date clock.Date) (int, error) {
	args := []any{date.StorageTime()}
	where, args := scopeClause(scope, "tenant_id", args)

	var n int
	err := r.db.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE visit_date = $1 AND `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return n, nil
}
