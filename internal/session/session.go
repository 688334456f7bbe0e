package session

import (
	"context"
	"errors"
	"time"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/tenant"
)

// Domain errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists for date")
	ErrInvalidLabel    = errors.New("invalid session label")
)

// Session is the per-club, per-civil-day container attendance attaches to.
type Session struct {
	ID        string     `json:"id"`
	TenantID  *string    `json:"tenantId,omitempty"`
	Date      clock.Date `json:"date"`
	Label     string     `json:"label"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Repository defines the interface for session persistence
type Repository interface {
	// Create returns ErrSessionExists when the (tenant, date) slot is taken.
	Create(ctx context.Context, s *Session) error

	// GetByID looks up a session regardless of tenant; callers authorize.
	GetByID(ctx context.Context, id string) (*Session, error)

	// GetByDate returns the scope's session for date, preferring a
	// tenant-owned row over a legacy one.
	GetByDate(ctx context.Context, scope tenant.Scope, date clock.Date) (*Session, error)

	// List returns sessions in span, newest first.
	List(ctx context.Context, scope tenant.Scope, span clock.Span) ([]*Session, error)

	// CountDays counts distinct session dates in span.
	CountDays(ctx context.Context, scope tenant.Scope, span clock.Span) (int, error)

	// UpdateLabel renames a session
	UpdateLabel(ctx context.Context, id, label string) error
}
