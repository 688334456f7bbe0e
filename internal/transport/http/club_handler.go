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

package http

import (
	"net/http"

	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/go-chi/chi/v5"
)

// ListClubs lists clubs whose name or slug contains q
// @Summary List clubs
// @Tags Clubs
// @Security OperatorToken
// @Produce json
// @Param q query string false "Name or slug substring"
// @Param limit query int false "Maximum results (default 20)"
// @Success 200 {array} tenant.Tenant
// @Failure 401 {object} map[string]string
// @Router /clubs [get]
func (h *Handler) ListClubs(w http.ResponseWriter, r *http.Request) {
	limit, _, err := queryInt(r, "limit")
	if err != nil {
		fail(w, r, "list_clubs", err)
		return
	}

	clubs, err := h.tenants.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		fail(w, r, "list_clubs", err)
		return
	}
	if clubs == nil {
		clubs = []*tenant.Tenant{}
	}
	respondJSON(w, http.StatusOK, clubs)
}

// ClubSummary returns a club's headline counts
// @Summary Club summary
// @Tags Clubs
// @Security OperatorToken
// @Produce json
// @Param slug path string true "Club slug"
// @Success 200 {object} tenant.Summary
// @Failure 404 {object} map[string]string
// @Router /clubs/{slug}/summary [get]
func (h *Handler) ClubSummary(w http.ResponseWriter, r *http.Request) {
	club, err := h.tenants.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		fail(w, r, "club_summary", err)
		return
	}

	sum, err := h.tenants.Summary(r.Context(), club, h.resolver.ScopeFor(club), h.calendar.Today())
	if err != nil {
		fail(w, r, "club_summary", err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}
