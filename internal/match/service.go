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

package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clubledger/clubledger/internal/attendance"
	"github.com/clubledger/clubledger/internal/audit"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/observability/logger"
	"github.com/clubledger/clubledger/internal/observability/metrics"
	"github.com/clubledger/clubledger/internal/session"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/clubledger/clubledger/internal/match")

// MemberReader resolves members within a scope.
type MemberReader interface {
	Get(ctx context.Context, scope tenant.Scope, id string) (*member.Member, error)
}

// SessionLedger supplies the session of a civil day.
type SessionLedger interface {
	GetOrCreateForDate(ctx context.Context, scope tenant.Scope, date clock.Date) (*session.Session, error)
}

// AttendanceReconciler turns participation into attendance.
type AttendanceReconciler interface {
	Reconcile(ctx context.Context, scope tenant.Scope, sess *session.Session, participants []*member.Member) (*attendance.Result, error)
}

// Invalidator drops derived statistics after match writes.
type Invalidator interface {
	Invalidate(ctx context.Context, scope tenant.Scope)
}

// Service records matches and triggers their attendance side effects.
type Service struct {
	repo        Repository
	members     MemberReader
	ledger      SessionLedger
	reconciler  AttendanceReconciler
	calendar    *clock.Calendar
	auditLogger audit.Logger
	metrics     *metrics.Instruments
	invalidator Invalidator
}

// NewService creates a new match service
func NewService(
	repo Repository,
	members MemberReader,
	ledger SessionLedger,
	reconciler AttendanceReconciler,
	calendar *clock.Calendar,
	auditLogger audit.Logger,
	instruments *metrics.Instruments,
) *Service {
	return &Service{
		repo:        repo,
		members:     members,
		ledger:      ledger,
		reconciler:  reconciler,
		calendar:    calendar,
		auditLogger: auditLogger,
		metrics:     instruments,
	}
}

// SetInvalidator wires a statistics cache to invalidate on writes.
func (s *Service) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// CreateInput describes a match to record. Date defaults to the civil day
// of PlayedAt, or today; PlayedAt defaults to now for today's matches and
// to the day's anchor otherwise.
type CreateInput struct {
	Date         clock.Date
	PlayedAt     *time.Time
	Kind         string
	CreatedBy    *string
	Participants []Participant
}

// Create validates and persists a match, then best-effort resolves the
// day's session and reconciles attendance. Enrichment failures are logged
// and counted but never undo the match.
func (s *Service) Create(ctx context.Context, scope tenant.Scope, in CreateInput) (*Match, error) {
	ctx, span := tracer.Start(ctx, "match.Create")
	defer span.End()

	kind := in.Kind
	if kind == "" {
		kind = KindDoubles
	}
	if err := Validate(kind, in.Participants); err != nil {
		return nil, err
	}

	members, err := s.loadParticipants(ctx, scope, in.Participants)
	if err != nil {
		return nil, err
	}
	if in.CreatedBy != nil && *in.CreatedBy != "" {
		if _, err := s.member(ctx, scope, *in.CreatedBy); err != nil {
			return nil, err
		}
	} else {
		in.CreatedBy = nil
	}

	date, playedAt := s.resolveTiming(in.Date, in.PlayedAt)

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate match id: %w", err)
	}
	now := time.Now()
	m := &Match{
		ID:           id.String(),
		TenantID:     scope.OwnerID(),
		Date:         date,
		PlayedAt:     playedAt,
		Kind:         kind,
		CreatedBy:    in.CreatedBy,
		Participants: append([]Participant(nil), in.Participants...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	span.SetAttributes(
		attribute.String("match.id", m.ID),
		attribute.String("match.date", date.String()),
		attribute.String("tenant.id", scope.TenantID),
	)

	if err := s.repo.Create(ctx, m); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.enrich(ctx, scope, m, members)

	s.metrics.MatchRecorded(ctx, scope.TenantID)
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMatchRecorded,
		TenantID: scope.TenantID,
		Resource: m.ID,
		Metadata: map[string]any{"date": date.String(), "members": m.MemberIDs()},
	})
	s.invalidate(ctx, scope)

	return m, nil
}

func (s *Service) resolveTiming(date clock.Date, playedAt *time.Time) (clock.Date, time.Time) {
	return nominalTiming(s.calendar, date, playedAt)
}

// nominalTiming is the civil date and instant a match is filed under. An
// explicit playedAt wins. A date-only match for today is stamped with the
// current instant, any other date with its local-noon anchor. Recording and
// duplicate detection both go through here.
func nominalTiming(cal *clock.Calendar, date clock.Date, playedAt *time.Time) (clock.Date, time.Time) {
	switch {
	case playedAt != nil && date.IsZero():
		return cal.DateOf(*playedAt), playedAt.UTC()
	case playedAt != nil:
		return date, playedAt.UTC()
	case date.IsZero() || date == cal.Today():
		now := cal.Now()
		return cal.DateOf(now), now.UTC()
	default:
		return date, cal.Anchor(date)
	}
}

func (s *Service) enrich(ctx context.Context, scope tenant.Scope, m *Match, members []*member.Member) {
	ctx, span := tracer.Start(ctx, "match.enrich")
	defer span.End()

	sess, err := s.ledger.GetOrCreateForDate(ctx, scope, m.Date)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "match recorded without session",
			logger.Component("match_recorder"),
			logger.Operation("resolve_session"),
			logger.TenantID(scope.TenantID),
			logger.MatchID(m.ID),
			logger.Error(err),
		)
		s.metrics.EnrichmentFailed(ctx, scope.TenantID, "session")
		return
	}

	res, err := s.reconciler.Reconcile(ctx, scope, sess, members)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "attendance reconciliation incomplete",
			logger.Component("match_recorder"),
			logger.Operation("reconcile_attendance"),
			logger.TenantID(scope.TenantID),
			logger.MatchID(m.ID),
			logger.SessionID(sess.ID),
			logger.Error(err),
		)
		s.metrics.EnrichmentFailed(ctx, scope.TenantID, "attendance")
	}
	if res != nil {
		slog.DebugContext(ctx, "attendance reconciled",
			logger.MatchID(m.ID),
			logger.SessionID(sess.ID),
			logger.Count("created", len(res.Created)),
			logger.Count("skipped_guests", len(res.SkippedGuests)),
			logger.Count("already_attended", len(res.AlreadyAttended)),
		)
	}
}

// loadParticipants resolves every participant in scope. Unknown members make
// the match invalid; members of another club are an access violation.
func (s *Service) loadParticipants(ctx context.Context, scope tenant.Scope, participants []Participant) ([]*member.Member, error) {
	out := make([]*member.Member, 0, len(participants))
	for _, p := range participants {
		m, err := s.member(ctx, scope, p.MemberID)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Service) member(ctx context.Context, scope tenant.Scope, id string) (*member.Member, error) {
	m, err := s.members.Get(ctx, scope, id)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return nil, invalid("unknown member %s", id)
		}
		return nil, err
	}
	return m, nil
}

// Get returns a match visible in scope.
func (s *Service) Get(ctx context.Context, scope tenant.Scope, id string) (*Match, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.Authorize(m.TenantID); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns matches in scope.
func (s *Service) List(ctx context.Context, scope tenant.Scope, filter Filter) ([]*Match, error) {
	return s.repo.List(ctx, scope, filter)
}

// UpdateInput carries corrections. Scores maps member id to new score.
type UpdateInput struct {
	Date     *clock.Date
	PlayedAt *time.Time
	Scores   map[string]int
}

// Update applies date or score corrections after re-verifying ownership.
// Attendance already derived from the match is left untouched.
func (s *Service) Update(ctx context.Context, scope tenant.Scope, id string, in UpdateInput) (*Match, error) {
	m, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if in.Date != nil && !in.Date.IsZero() {
		m.Date = *in.Date
		if in.PlayedAt == nil {
			m.PlayedAt = s.calendar.Anchor(m.Date)
		}
	}
	if in.PlayedAt != nil {
		m.PlayedAt = in.PlayedAt.UTC()
	}
	for memberID, score := range in.Scores {
		if err := validateScore(score); err != nil {
			return nil, err
		}
		found := false
		for i := range m.Participants {
			if m.Participants[i].MemberID == memberID {
				m.Participants[i].Score = score
				found = true
			}
		}
		if !found {
			return nil, invalid("member %s did not play in match %s", memberID, m.ID)
		}
	}
	m.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMatchUpdated,
		TenantID: scope.TenantID,
		Resource: m.ID,
	})
	s.invalidate(ctx, scope)
	return m, nil
}

// UpdateParticipantScore sets one participant's score.
func (s *Service) UpdateParticipantScore(ctx context.Context, scope tenant.Scope, id, memberID string, score int) (*Match, error) {
	return s.Update(ctx, scope, id, UpdateInput{Scores: map[string]int{memberID: score}})
}

// Delete removes a match after re-verifying ownership. Attendance derived
// from it is kept.
func (s *Service) Delete(ctx context.Context, scope tenant.Scope, id string) error {
	m, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, m.ID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMatchDeleted,
		TenantID: scope.TenantID,
		Resource: m.ID,
	})
	s.invalidate(ctx, scope)
	return nil
}

func (s *Service) invalidate(ctx context.Context, scope tenant.Scope) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, scope)
	}
}
