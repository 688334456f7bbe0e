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
	"log/slog"
	"time"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/observability/logger"
	"github.com/clubledger/clubledger/internal/observability/metrics"
	"github.com/clubledger/clubledger/internal/tenant"
)

// DefaultDuplicateWindow is the half-width of the duplicate search window.
const DefaultDuplicateWindow = 30 * time.Minute

// DuplicateQuery describes a match about to be submitted.
type DuplicateQuery struct {
	Date      clock.Date
	PlayedAt  *time.Time
	MemberIDs []string
}

// ExistingMatch summarises the match a submission collides with.
type ExistingMatch struct {
	ID       string        `json:"id"`
	Date     clock.Date    `json:"date"`
	PlayedAt time.Time     `json:"playedAt"`
	TeamA    []Participant `json:"teamA"`
	TeamB    []Participant `json:"teamB"`
}

// DuplicateResult is the detector's answer.
type DuplicateResult struct {
	IsDuplicate   bool           `json:"isDuplicate"`
	ExistingMatch *ExistingMatch `json:"existingMatch,omitempty"`
}

// Detector flags submissions whose participant set already played within
// the window around the nominal timestamp.
type Detector struct {
	repo     Repository
	calendar *clock.Calendar
	window   time.Duration
	metrics  *metrics.Instruments
}

// NewDetector creates a detector. A non-positive window uses the default.
func NewDetector(repo Repository, calendar *clock.Calendar, window time.Duration, instruments *metrics.Instruments) *Detector {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	return &Detector{repo: repo, calendar: calendar, window: window, metrics: instruments}
}

// Window returns the configured half-width.
func (d *Detector) Window() time.Duration {
	return d.window
}

// Check never fails: lookup errors are logged and reported as no duplicate.
// The nominal timestamp is the one Create would file the submission under.
func (d *Detector) Check(ctx context.Context, scope tenant.Scope, q DuplicateQuery) DuplicateResult {
	_, nominal := nominalTiming(d.calendar, q.Date, q.PlayedAt)

	candidates, err := d.repo.FindPlayedBetween(ctx, scope, nominal.Add(-d.window), nominal.Add(d.window))
	if err != nil {
		slog.WarnContext(ctx, "duplicate check failed",
			logger.Component("duplicate_detector"),
			logger.TenantID(scope.TenantID),
			logger.Error(err),
		)
		return DuplicateResult{}
	}

	want := memberSet(q.MemberIDs)
	for _, m := range candidates {
		if !sameSet(want, memberSet(m.MemberIDs())) {
			continue
		}
		d.metrics.DuplicateHit(ctx, scope.TenantID)
		return DuplicateResult{
			IsDuplicate: true,
			ExistingMatch: &ExistingMatch{
				ID:       m.ID,
				Date:     m.Date,
				PlayedAt: m.PlayedAt,
				TeamA:    m.Team(TeamA),
				TeamB:    m.Team(TeamB),
			},
		}
	}
	return DuplicateResult{}
}

func memberSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
