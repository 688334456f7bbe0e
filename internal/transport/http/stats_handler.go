package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MemberStats returns one member's attendance and match record
// @Summary Member statistics
// @Description Range is year+month, from/to (inclusive), or all time when omitted.
// @Tags Rankings
// @Produce json
// @Param id path string true "Member ID"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {object} ranking.Stats
// @Router /users/{id}/stats [get]
func (h *Handler) MemberStats(w http.ResponseWriter, r *http.Request) {
	span, err := h.querySpan(r)
	if err != nil {
		fail(w, r, "member_stats", err)
		return
	}

	stats, err := h.rankings.StatsForMember(r.Context(), scopeFrom(r.Context()), chi.URLParam(r, "id"), span)
	if err != nil {
		fail(w, r, "member_stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// MonthlyRankings returns every member's stats for a month plus leaderboards
// @Summary Monthly rankings
// @Tags Rankings
// @Produce json
// @Param year query int false "Year (defaults to current)"
// @Param month query int false "Month (defaults to current)"
// @Success 200 {object} ranking.MonthlyRankings
// @Router /users/with-monthly-stats [get]
func (h *Handler) MonthlyRankings(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.queryMonth(r)
	if err != nil {
		fail(w, r, "monthly_rankings", err)
		return
	}

	rankings, err := h.rankings.RankingsForMonth(r.Context(), scopeFrom(r.Context()), year, month)
	if err != nil {
		fail(w, r, "monthly_rankings", err)
		return
	}
	respondJSON(w, http.StatusOK, rankings)
}

// Versus compares two members' records against and alongside each other.
func (h *Handler) Versus(w http.ResponseWriter, r *http.Request) {
	span, err := h.querySpan(r)
	if err != nil {
		fail(w, r, "versus", err)
		return
	}

	h2h, err := h.rankings.Versus(r.Context(), scopeFrom(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "opponentId"), span)
	if err != nil {
		fail(w, r, "versus", err)
		return
	}
	respondJSON(w, http.StatusOK, h2h)
}
