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
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/tenant"
)

// Domain errors
var (
	ErrAttendanceNotFound = errors.New("attendance not found")
	ErrGuestAttendance    = errors.New("guests do not accrue attendance")
	ErrInvalidStatus      = errors.New("invalid attendance status")
)

// Status of a member for one session.
type Status string

const (
	StatusAttended Status = "ATTENDED"
	StatusAbsent   Status = "ABSENT"
)

// ParseStatus accepts a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusAttended:
		return StatusAttended, nil
	case StatusAbsent:
		return StatusAbsent, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Attendance records one member's presence at one session.
type Attendance struct {
	ID        string     `json:"id"`
	TenantID  *string    `json:"tenantId,omitempty"`
	MemberID  string     `json:"memberId"`
	SessionID string     `json:"sessionId"`
	Date      clock.Date `json:"date"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Filter narrows attendance listings.
type Filter struct {
	MemberID  string
	SessionID string
	Span      clock.Span
}

// Repository defines the interface for attendance persistence
type Repository interface {
	// InsertIfAbsent writes a new row and reports false when a conflicting
	// row already exists for (member, session) or for an ATTENDED
	// (member, date).
	InsertIfAbsent(ctx context.Context, a *Attendance) (bool, error)

	// HasAttended reports whether member has an ATTENDED row on date in scope.
	HasAttended(ctx context.Context, scope tenant.Scope, memberID string, date clock.Date) (bool, error)

	// Upsert inserts or updates the row for (member, session) and returns the
	// stored row. An ATTENDED mark that collides with another ATTENDED row on
	// the same day is not written; the existing row is returned with false.
	Upsert(ctx context.Context, a *Attendance) (*Attendance, bool, error)

	List(ctx context.Context, scope tenant.Scope, filter Filter) ([]*Attendance, error)

	// CountAttended counts distinct ATTENDED dates for member in span.
	CountAttended(ctx context.Context, scope tenant.Scope, memberID string, span clock.Span) (int, error)
}
