package http

import (
	"net/http"
	"strings"

	"github.com/clubledger/clubledger/internal/attendance"
)

// MarkAttendanceRequest sets a member's status for a session.
type MarkAttendanceRequest struct {
	MemberID  string `json:"memberId" validate:"required"`
	SessionID string `json:"sessionId" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// CheckInRequest marks a member present at today's session.
type CheckInRequest struct {
	MemberID string `json:"memberId" validate:"required"`
}

// ListAttendances lists attendance rows
// @Summary List attendance
// @Tags Attendance
// @Produce json
// @Param memberId query string false "Member ID"
// @Param sessionId query string false "Session ID"
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {array} attendance.Attendance
// @Router /attendances [get]
func (h *Handler) ListAttendances(w http.ResponseWriter, r *http.Request) {
	span, err := h.querySpan(r)
	if err != nil {
		fail(w, r, "list_attendances", err)
		return
	}

	q := r.URL.Query()
	rows, err := h.attendance.List(r.Context(), scopeFrom(r.Context()), attendance.Filter{
		MemberID:  strings.TrimSpace(q.Get("memberId")),
		SessionID: strings.TrimSpace(q.Get("sessionId")),
		Span:      span,
	})
	if err != nil {
		fail(w, r, "list_attendances", err)
		return
	}
	if rows == nil {
		rows = []*attendance.Attendance{}
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req MarkAttendanceRequest
	if !h.decode(w, r, &req) {
		return
	}
	status, err := attendance.ParseStatus(req.Status)
	if err != nil {
		fail(w, r, "mark_attendance", err)
		return
	}

	a, err := h.attendance.Mark(r.Context(), scopeFrom(r.Context()), attendance.MarkInput{
		MemberID:  req.MemberID,
		SessionID: req.SessionID,
		Status:    status,
	})
	if err != nil {
		fail(w, r, "mark_attendance", err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.attendance.CheckIn(r.Context(), scopeFrom(r.Context()), req.MemberID)
	if err != nil {
		fail(w, r, "check_in", err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}
