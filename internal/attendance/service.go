package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clubledger/clubledger/internal/audit"
	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/observability/logger"
	"github.com/clubledger/clubledger/internal/session"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/google/uuid"
)

// MemberReader resolves members within a scope.
type MemberReader interface {
	Get(ctx context.Context, scope tenant.Scope, id string) (*member.Member, error)
}

// SessionSource resolves sessions within a scope.
type SessionSource interface {
	Get(ctx context.Context, scope tenant.Scope, id string) (*session.Session, error)
	GetOrCreateForToday(ctx context.Context, scope tenant.Scope) (*session.Session, error)
}

// Invalidator drops derived statistics after attendance changes.
type Invalidator interface {
	Invalidate(ctx context.Context, scope tenant.Scope)
}

// Service handles manual attendance marks and check-ins.
type Service struct {
	repo        Repository
	members     MemberReader
	sessions    SessionSource
	auditLogger audit.Logger
	invalidator Invalidator
}

// NewService creates a new attendance service
func NewService(repo Repository, members MemberReader, sessions SessionSource, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		members:     members,
		sessions:    sessions,
		auditLogger: auditLogger,
	}
}

// SetInvalidator wires a statistics cache to invalidate on writes.
func (s *Service) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// MarkInput identifies the row to write.
type MarkInput struct {
	MemberID  string
	SessionID string
	Status    Status
}

// Mark sets a member's status for a session. Both the member and the
// session are ownership-checked; guests are rejected.
func (s *Service) Mark(ctx context.Context, scope tenant.Scope, in MarkInput) (*Attendance, error) {
	if in.Status != StatusAttended && in.Status != StatusAbsent {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	m, err := s.members.Get(ctx, scope, in.MemberID)
	if err != nil {
		return nil, err
	}
	if m.IsGuest() {
		return nil, ErrGuestAttendance
	}
	sess, err := s.sessions.Get(ctx, scope, in.SessionID)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, scope, m, sess, in.Status)
}

// CheckIn marks a member present at today's session.
func (s *Service) CheckIn(ctx context.Context, scope tenant.Scope, memberID string) (*Attendance, error) {
	m, err := s.members.Get(ctx, scope, memberID)
	if err != nil {
		return nil, err
	}
	if m.IsGuest() {
		return nil, ErrGuestAttendance
	}
	sess, err := s.sessions.GetOrCreateForToday(ctx, scope)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, scope, m, sess, StatusAttended)
}

func (s *Service) write(ctx context.Context, scope tenant.Scope, m *member.Member, sess *session.Session, status Status) (*Attendance, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate attendance id: %w", err)
	}
	now := time.Now()
	a := &Attendance{
		ID:        id.String(),
		TenantID:  scope.OwnerID(),
		MemberID:  m.ID,
		SessionID: sess.ID,
		Date:      sess.Date,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored, written, err := s.repo.Upsert(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}
	if !written {
		slog.DebugContext(ctx, "attendance already recorded for the day",
			logger.Component("attendance"),
			logger.String("member_id", m.ID),
			logger.String("session_id", stored.SessionID),
		)
		return stored, nil
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAttendanceMarked,
		TenantID: scope.TenantID,
		Resource: stored.ID,
		Metadata: map[string]any{"member_id": m.ID, "session_id": sess.ID, "status": string(status)},
	})
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, scope)
	}
	return stored, nil
}

// List returns attendance rows in scope.
func (s *Service) List(ctx context.Context, scope tenant.Scope, filter Filter) ([]*Attendance, error) {
	return s.repo.List(ctx, scope, filter)
}
