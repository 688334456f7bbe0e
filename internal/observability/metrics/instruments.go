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

package metrics

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments holds the counters the activity engine reports. A nil
// *Instruments is valid and records nothing.
type Instruments struct {
	matchesRecorded    metric.Int64Counter
	enrichmentFailures metric.Int64Counter
	attendanceCreated  metric.Int64Counter
	duplicateHits      metric.Int64Counter
	divergentScores    metric.Int64Counter
	rankingDuration    metric.Float64Histogram
}

// NewInstruments registers the engine's instruments on m.
func NewInstruments(m *Meter) (*Instruments, error) {
	var (
		inst Instruments
		err  error
		errs []error
	)

	if inst.matchesRecorded, err = m.CreateCounter("clubledger.match.recorded", "Matches persisted"); err != nil {
		errs = append(errs, err)
	}
	if inst.enrichmentFailures, err = m.CreateCounter("clubledger.match.enrichment_failures", "Session or attendance enrichment failures after a match was persisted"); err != nil {
		errs = append(errs, err)
	}
	if inst.attendanceCreated, err = m.CreateCounter("clubledger.attendance.created", "Attendance rows written by reconciliation"); err != nil {
		errs = append(errs, err)
	}
	if inst.duplicateHits, err = m.CreateCounter("clubledger.match.duplicate_hits", "Duplicate checks that found an existing match"); err != nil {
		errs = append(errs, err)
	}
	if inst.divergentScores, err = m.CreateCounter("clubledger.ranking.divergent_team_scores", "Matches whose teammates carry different scores"); err != nil {
		errs = append(errs, err)
	}
	if inst.rankingDuration, err = m.CreateHistogram("clubledger.ranking.duration", "Monthly ranking computation time", "ms",
		5, 10, 25, 50, 100, 250, 500, 1000, 2500); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &inst, nil
}

func tenantAttr(tenantID string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("tenant_id", tenantID))
}

func (i *Instruments) MatchRecorded(ctx context.Context, tenantID string) {
	if i == nil {
		return
	}
	i.matchesRecorded.Add(ctx, 1, tenantAttr(tenantID))
}

// EnrichmentFailed counts a failed post-persist step ("session" or "attendance").
func (i *Instruments) EnrichmentFailed(ctx context.Context, tenantID, stage string) {
	if i == nil {
		return
	}
	i.enrichmentFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("stage", stage),
	))
}

func (i *Instruments) AttendanceCreated(ctx context.Context, tenantID string, n int) {
	if i == nil || n == 0 {
		return
	}
	i.attendanceCreated.Add(ctx, int64(n), tenantAttr(tenantID))
}

func (i *Instruments) DuplicateHit(ctx context.Context, tenantID string) {
	if i == nil {
		return
	}
	i.duplicateHits.Add(ctx, 1, tenantAttr(tenantID))
}

func (i *Instruments) DivergentScores(ctx context.Context, tenantID string, n int) {
	if i == nil || n == 0 {
		return
	}
	i.divergentScores.Add(ctx, int64(n), tenantAttr(tenantID))
}

func (i *Instruments) RankingComputed(ctx context.Context, tenantID string, ms float64) {
	if i == nil {
		return
	}
	i.rankingDuration.Record(ctx, ms, tenantAttr(tenantID))
}
