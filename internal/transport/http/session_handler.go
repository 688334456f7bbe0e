package http

import (
	"net/http"

	"github.com/clubledger/clubledger/internal/session"
	"github.com/go-chi/chi/v5"
)

// UpdateSessionRequest renames a session.
type UpdateSessionRequest struct {
	Label string `json:"label" validate:"required,max=120"`
}

// CurrentSession returns today's session, creating it on first use
// @Summary Today's session
// @Tags Sessions
// @Produce json
// @Success 200 {object} session.Session
// @Router /sessions/today/current [get]
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.GetOrCreateForToday(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		fail(w, r, "current_session", err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	span, err := h.querySpan(r)
	if err != nil {
		fail(w, r, "list_sessions", err)
		return
	}

	sessions, err := h.sessions.List(r.Context(), scopeFrom(r.Context()), span)
	if err != nil {
		fail(w, r, "list_sessions", err)
		return
	}
	if sessions == nil {
		sessions = []*session.Session{}
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req UpdateSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.sessions.UpdateLabel(r.Context(), scopeFrom(r.Context()), chi.URLParam(r, "id"), req.Label)
	if err != nil {
		fail(w, r, "update_session", err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}
