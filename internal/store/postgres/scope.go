package postgres

import (
	"fmt"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/tenant"
)

// scopeClause renders scope as a predicate on column, appending its
// parameter to args.
func scopeClause(scope tenant.Scope, column string, args []any) (string, []any) {
	if scope.IsUnscoped() {
		return "TRUE", args
	}
	args = append(args, scope.TenantID)
	if scope.IncludeLegacy {
		return fmt.Sprintf("(%s = $%d OR %s IS NULL)", column, len(args), column), args
	}
	return fmt.Sprintf("%s = $%d", column, len(args)), args
}

// spanClause renders the half-open span as a predicate on a DATE column.
func spanClause(span clock.Span, column string, args []any) (string, []any) {
	clause := "TRUE"
	if !span.From.IsZero() {
		args = append(args, span.From.StorageTime())
		clause = fmt.Sprintf("%s >= $%d", column, len(args))
	}
	if !span.To.IsZero() {
		args = append(args, span.To.StorageTime())
		bound := fmt.Sprintf("%s < $%d", column, len(args))
		if clause == "TRUE" {
			clause = bound
		} else {
			clause += " AND " + bound
		}
	}
	return clause, args
}
