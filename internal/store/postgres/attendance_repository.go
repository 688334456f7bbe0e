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

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/clubledger/clubledger/internal/attendance"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/jackc/pgx/v5"
)

// AttendanceRepository implements attendance.Repository
type AttendanceRepository struct {
	db *DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, tenant_id, member_id, session_id, attendance_date, status, created_at, updated_at`

func scanAttendance(row pgx.Row) (*attendance.Attendance, error) {
	var (
		a    attendance.Attendance
		date time.Time
	)
	err := row.Scan(&a.ID, &a.TenantID, &a.MemberID, &a.SessionID, &date, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Date = clock.DateFromStorage(date)
	return &a, nil
}

// InsertIfAbsent relies on both unique indexes: a conflict on either one
// means the row already exists.
func (r *AttendanceRepository) InsertIfAbsent(ctx context.Context, a *attendance.Attendance) (bool, error) {
	result, err := r.db.pool.Exec(ctx, `
		INSERT INTO attendances (`+attendanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
	`, a.ID, a.TenantID, a.MemberID, a.SessionID, a.Date.StorageTime(), string(a.Status), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert attendance: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *AttendanceRepository) HasAttended(ctx context.Context, scope tenant.Scope, memberID string, date clock.Date) (bool, error) {
	args := []any{memberID, date.StorageTime()}
	where, args := scopeClause(scope, "tenant_id", args)

	var exists bool
	err := r.db.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendances
			WHERE member_id = $1 AND attendance_date = $2 AND status = 'ATTENDED' AND `+where+`
		)
	`, args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check attendance: %w", err)
	}
	return exists, nil
}

// Upsert writes the (member, session) row. An ATTENDED mark that trips the
// per-day index returns the day's existing ATTENDED row unchanged.
func (r *AttendanceRepository) Upsert(ctx context.Context, a *attendance.Attendance) (*attendance.Attendance, bool, error) {
	stored, err := scanAttendance(r.db.pool.QueryRow(ctx, `
		INSERT INTO attendances (`+attendanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT uq_attendances_member_session
		DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		RETURNING `+attendanceColumns,
		a.ID, a.TenantID, a.MemberID, a.SessionID, a.Date.StorageTime(), string(a.Status), a.CreatedAt, a.UpdatedAt))
	if err == nil {
		return stored, true, nil
	}
	if !isUniqueViolation(err) {
		return nil, false, fmt.Errorf("failed to upsert attendance: %w", err)
	}

	existing, err := scanAttendance(r.db.pool.QueryRow(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendances
		WHERE member_id = $1 AND attendance_date = $2 AND status = 'ATTENDED'
	`, a.MemberID, a.Date.StorageTime()))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing attendance: %w", err)
	}
	return existing, false, nil
}

func (r *AttendanceRepository) List(ctx context.Context, scope tenant.Scope, filter attendance.Filter) ([]*attendance.Attendance, error) {
	where, args := scopeClause(scope, "tenant_id", nil)
	dates, args := spanClause(filter.Span, "attendance_date", args)
	where += " AND " + dates
	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		where += fmt.Sprintf(" AND member_id = $%d", len(args))
	}
	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		where += fmt.Sprintf(" AND session_id = $%d", len(args))
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendances
		WHERE `+where+`
		ORDER BY attendance_date DESC, member_id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	var out []*attendance.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AttendanceRepository) CountAttended(ctx context.Context, scope tenant.Scope, memberID string, span clock.Span) (int, error) {
	args := []any{memberID}
	where, args := scopeClause(scope, "tenant_id", args)
	dates, args := spanClause(span, "attendance_date", args)

	var n int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT attendance_date)
		FROM attendances
		WHERE member_id = $1 AND status = 'ATTENDED' AND `+where+` AND `+dates,
		args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count attendance: %w", err)
	}
	return n, nil
}
