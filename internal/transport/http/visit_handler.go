package http

import "net/http"

// RecordVisitRequest identifies an anonymous visitor, typically a
// client-generated id kept in local storage.
type RecordVisitRequest struct {
	VisitorID string `json:"visitorId" validate:"required,max=128"`
}

// RecordVisit notes a visitor for today
// @Summary Record a visit
// @Tags Visits
// @Accept json
// @Produce json
// @Param request body RecordVisitRequest true "Visitor"
// @Success 200 {object} map[string]any
// @Router /visits [post]
func (h *Handler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	var req RecordVisitRequest
	if !h.decode(w, r, &req) {
		return
	}

	scope := scopeFrom(r.Context())
	created, err := h.visits.Record(r.Context(), scope, req.VisitorID)
	if err != nil {
		fail(w, r, "record_visit", err)
		return
	}
	count, err := h.visits.CountToday(r.Context(), scope)
	if err != nil {
		fail(w, r, "record_visit", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"new":         created,
		"uniqueToday": count,
	})
}
