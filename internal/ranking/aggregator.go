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

package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/match"
	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/observability/logger"
	"github.com/clubledger/clubledger/internal/observability/metrics"
	"github.com/clubledger/clubledger/internal/tenant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/clubledger/clubledger/internal/ranking")

// DefaultBatchSize bounds concurrent per-member computations.
const DefaultBatchSize = 5

// MemberSource lists and resolves members within a scope.
type MemberSource interface {
	Get(ctx context.Context, scope tenant.Scope, id string) (*member.Member, error)
	List(ctx context.Context, scope tenant.Scope, filter member.ListFilter) ([]*member.Member, error)
}

// MatchSource lists matches within a scope.
type MatchSource interface {
	List(ctx context.Context, scope tenant.Scope, filter match.Filter) ([]*match.Match, error)
}

// AttendanceCounter counts attended days.
type AttendanceCounter interface {
	CountAttended(ctx context.Context, scope tenant.Scope, memberID string, span clock.Span) (int, error)
}

// SessionCounter counts session days.
type SessionCounter interface {
	CountDays(ctx context.Context, scope tenant.Scope, span clock.Span) (int, error)
}

// Cache stores monthly rankings per scope. On a miss Get returns the entry
// the freshly computed result is stored under; an entry handed out before
// an Invalidate is never read afterwards, so a computation racing a write
// cannot publish stale rankings. An empty entry means "do not store".
// Implementations must treat failures as misses.
type Cache interface {
	Get(ctx context.Context, scope tenant.Scope, key string) (r *MonthlyRankings, entry string, ok bool)
	Set(ctx context.Context, scope tenant.Scope, entry string, r *MonthlyRankings)
	Invalidate(ctx context.Context, scope tenant.Scope)
}

// MonthlyRankings is the month's per-member stats and leaderboards.
type MonthlyRankings struct {
	Year         int          `json:"year"`
	Month        int          `json:"month"`
	From         clock.Date   `json:"from"`
	To           clock.Date   `json:"to"`
	Members      []*Stats     `json:"members"`
	Leaderboards Leaderboards `json:"leaderboards"`
}

// Aggregator computes statistics on demand.
type Aggregator struct {
	members    MemberSource
	matches    MatchSource
	attendance AttendanceCounter
	sessions   SessionCounter
	calendar   *clock.Calendar
	batchSize  int
	metrics    *metrics.Instruments
	cache      Cache
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithBatchSize sets the concurrent fan-out limit.
func WithBatchSize(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.batchSize = n
		}
	}
}

// WithCache enables monthly ranking caching.
func WithCache(c Cache) Option {
	return func(a *Aggregator) { a.cache = c }
}

// WithMetrics records ranking instruments.
func WithMetrics(m *metrics.Instruments) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// NewAggregator creates a ranking aggregator
func NewAggregator(
	members MemberSource,
	matches MatchSource,
	attendance AttendanceCounter,
	sessions SessionCounter,
	calendar *clock.Calendar,
	opts ...Option,
) *Aggregator {
	a := &Aggregator{
		members:    members,
		matches:    matches,
		attendance: attendance,
		sessions:   sessions,
		calendar:   calendar,
		batchSize:  DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// StatsForMember computes one member's stats over span.
func (a *Aggregator) StatsForMember(ctx context.Context, scope tenant.Scope, memberID string, span clock.Span) (*Stats, error) {
	ctx, sp := tracer.Start(ctx, "ranking.StatsForMember")
	defer sp.End()

	m, err := a.members.Get(ctx, scope, memberID)
	if err != nil {
		return nil, err
	}
	sessions, err := a.sessions.CountDays(ctx, scope, span)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	return a.compute(ctx, scope, m, span, sessions)
}

func (a *Aggregator) compute(ctx context.Context, scope tenant.Scope, m *member.Member, span clock.Span, sessions int) (*Stats, error) {
	s := &Stats{
		MemberID:        m.ID,
		Name:            m.Name,
		Kind:            m.Kind,
		SessionsInRange: sessions,
		From:            span.From,
		To:              span.To,
	}

	attended, err := a.attendance.CountAttended(ctx, scope, m.ID, span)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendance for member %s: %w", m.ID, err)
	}
	s.Attended = attended
	s.AttendanceRate = percent(attended, sessions)

	matches, err := a.matches.List(ctx, scope, match.Filter{Span: span, MemberID: m.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for member %s: %w", m.ID, err)
	}
	if divergent := tally(s, m.ID, matches); divergent > 0 {
		slog.WarnContext(ctx, "teammates reported different scores",
			logger.Component("ranking"),
			logger.TenantID(scope.TenantID),
			logger.MemberID(m.ID),
			logger.Count("matches", divergent),
		)
		a.metrics.DivergentScores(ctx, scope.TenantID, divergent)
	}
	return s, nil
}

// RankingsForMonth computes stats for every member over the month (cut at
// today for the current month) and the three leaderboards.
func (a *Aggregator) RankingsForMonth(ctx context.Context, scope tenant.Scope, year int, month time.Month) (*MonthlyRankings, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", ErrInvalidRange, month)
	}
	span := a.calendar.MonthSpan(year, month)
	key := fmt.Sprintf("%04d-%02d:%s", year, month, span.To)

	var entry string
	if a.cache != nil {
		cached, e, ok := a.cache.Get(ctx, scope, key)
		if ok {
			return cached, nil
		}
		entry = e
	}

	ctx, sp := tracer.Start(ctx, "ranking.RankingsForMonth")
	defer sp.End()
	sp.SetAttributes(
		attribute.String("tenant.id", scope.TenantID),
		attribute.Int("ranking.year", year),
		attribute.Int("ranking.month", int(month)),
	)
	started := time.Now()

	members, err := a.members.List(ctx, scope, member.ListFilter{IncludeGuests: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	sessions, err := a.sessions.CountDays(ctx, scope, span)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	stats := make([]*Stats, len(members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.batchSize)
	for i, m := range members {
		g.Go(func() error {
			s, err := a.compute(gctx, scope, m, span, sessions)
			if err != nil {
				return err
			}
			stats[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &MonthlyRankings{
		Year:         year,
		Month:        int(month),
		From:         span.From,
		To:           span.To,
		Members:      stats,
		Leaderboards: BuildLeaderboards(stats, LeaderboardSize),
	}

	a.metrics.RankingComputed(ctx, scope.TenantID, float64(time.Since(started).Microseconds())/1000)
	slog.DebugContext(ctx, "monthly rankings computed",
		logger.Component("ranking"),
		logger.TenantID(scope.TenantID),
		logger.Count("members", len(stats)),
		logger.Duration(time.Since(started).Milliseconds()),
	)

	if a.cache != nil && entry != "" {
		a.cache.Set(ctx, scope, entry, out)
	}
	return out, nil
}

// Invalidate drops cached rankings for the scope.
func (a *Aggregator) Invalidate(ctx context.Context, scope tenant.Scope) {
	if a.cache != nil {
		a.cache.Invalidate(ctx, scope)
	}
}
