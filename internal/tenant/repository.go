package tenant

import (
	"context"
	"errors"

	"github.com/clubledger/clubledger/internal/clock"
)

var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrSlugTaken       = errors.New("club slug already taken")
	ErrInvalidSlug     = errors.New("invalid club slug")
	ErrInvalidJoinCode = errors.New("invalid join code")
)

// Repository defines the interface for tenant storage
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	// Search matches query against name and slug, case-insensitively.
	// An empty query lists every tenant.
	Search(ctx context.Context, query string, limit int) ([]*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
}

// SummaryRepository computes per-club activity counts.
type SummaryRepository interface {
	Summary(ctx context.Context, scope Scope, today clock.Date) (*Summary, error)
}
