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

// Package visit counts anonymous visitors per club and civil day.
package visit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/tenant"
)

// ErrInvalidVisitor is returned for empty or oversized visitor ids.
var ErrInvalidVisitor = errors.New("invalid visitor id")

const maxVisitorIDLength = 128

// Visit is the first sighting of a visitor on a day.
type Visit struct {
	TenantID    *string    `json:"tenantId,omitempty"`
	Date        clock.Date `json:"date"`
	VisitorID   string     `json:"visitorId"`
	FirstSeenAt time.Time  `json:"firstSeenAt"`
}

// Repository defines the interface for visit persistence
type Repository interface {
	// Record upserts the visit and reports whether it was new.
	Record(ctx context.Context, v *Visit) (bool, error)
	CountUnique(ctx context.Context, scope tenant.Scope, date clock.Date) (int, error)
}

// Service records visits on the club's calendar.
type Service struct {
	repo     Repository
	calendar *clock.Calendar
}

func NewService(repo Repository, calendar *clock.Calendar) *Service {
	return &Service{repo: repo, calendar: calendar}
}

// Record notes visitorID for today. Repeat visits on the same day are no-ops.
func (s *Service) Record(ctx context.Context, scope tenant.Scope, visitorID string) (bool, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" || len(visitorID) > maxVisitorIDLength {
		return false, ErrInvalidVisitor
	}

	now := s.calendar.Now()
	created, err := s.repo.Record(ctx, &Visit{
		TenantID:    scope.OwnerID(),
		Date:        s.calendar.DateOf(now),
		VisitorID:   visitorID,
		FirstSeenAt: now.UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to record visit: %w", err)
	}
	return created, nil
}

// CountToday returns today's unique visitors.
func (s *Service) CountToday(ctx context.Context, scope tenant.Scope) (int, error) {
	return s.repo.CountUnique(ctx, scope, s.calendar.Today())
}
