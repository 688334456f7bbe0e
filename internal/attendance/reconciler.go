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

package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/observability/metrics"
	"github.com/clubledger/clubledger/internal/session"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/google/uuid"
)

// Result reports what reconciliation did per member.
type Result struct {
	Created         []string `json:"created"`
	SkippedGuests   []string `json:"skippedGuests"`
	AlreadyAttended []string `json:"alreadyAttended"`
}

// Reconciler derives attendance from match participation.
type Reconciler struct {
	repo    Repository
	metrics *metrics.Instruments
}

// NewReconciler creates an attendance reconciler
func NewReconciler(repo Repository, instruments *metrics.Instruments) *Reconciler {
	return &Reconciler{repo: repo, metrics: instruments}
}

// Reconcile ensures each non-guest participant has exactly one ATTENDED row
// for the session's date. Guests are skipped; members who already attended
// that day (through any session) are left alone. A failure for one member
// does not stop the others; all failures are returned joined.
func (r *Reconciler) Reconcile(ctx context.Context, scope tenant.Scope, sess *session.Session, participants []*member.Member) (*Result, error) {
	res := &Result{}
	var errs []error

	for _, m := range participants {
		if m.IsGuest() {
			res.SkippedGuests = append(res.SkippedGuests, m.ID)
			continue
		}

		attended, err := r.repo.HasAttended(ctx, scope, m.ID, sess.Date)
		if err != nil {
			errs = append(errs, fmt.Errorf("member %s: %w", m.ID, err))
			continue
		}
		if attended {
			res.AlreadyAttended = append(res.AlreadyAttended, m.ID)
			continue
		}

		id, err := uuid.NewV7()
		if err != nil {
			errs = append(errs, fmt.Errorf("member %s: %w", m.ID, err))
			continue
		}
		now := time.Now()
		created, err := r.repo.InsertIfAbsent(ctx, &Attendance{
			ID:        id.String(),
			TenantID:  scope.OwnerID(),
			MemberID:  m.ID,
			SessionID: sess.ID,
			Date:      sess.Date,
			Status:    StatusAttended,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("member %s: %w", m.ID, err))
			continue
		}
		if created {
			res.Created = append(res.Created, m.ID)
		} else {
			res.AlreadyAttended = append(res.AlreadyAttended, m.ID)
		}
	}

	r.metrics.AttendanceCreated(ctx, scope.TenantID, len(res.Created))

	if len(errs) > 0 {
		return res, fmt.Errorf("failed to reconcile attendance: %w", errors.Join(errs...))
	}
	return res, nil
}
