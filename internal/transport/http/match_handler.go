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
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/match"
	"github.com/go-chi/chi/v5"
)

// ParticipantRequest is one player's slot.
type ParticipantRequest struct {
	MemberID string `json:"memberId" validate:"required"`
	Team     string `json:"team" validate:"required,oneof=A B"`
	Score    int    `json:"score" validate:"min=0"`
}

// CreateMatchRequest records a match. Date defaults to the day of
// PlayedAt, or today.
type CreateMatchRequest struct {
	Date         clock.Date           `json:"date"`
	PlayedAt     *time.Time           `json:"playedAt"`
	Kind         string               `json:"kind" validate:"omitempty,oneof=doubles"`
	CreatedBy    string               `json:"createdBy"`
	Participants []ParticipantRequest `json:"participants" validate:"required,dive"`
}

// CheckDuplicateRequest describes a match about to be submitted. Either
// memberIds or participants identify the players.
type CheckDuplicateRequest struct {
	Date         clock.Date           `json:"date"`
	PlayedAt     *time.Time           `json:"playedAt"`
	MemberIDs    []string             `json:"memberIds" validate:"omitempty,dive,required"`
	Participants []ParticipantRequest `json:"participants" validate:"omitempty,dive"`
}

// UpdateMatchRequest carries corrections. Scores maps member id to score.
type UpdateMatchRequest struct {
	Date     *clock.Date    `json:"date"`
	PlayedAt *time.Time     `json:"playedAt"`
	Scores   map[string]int `json:"scores" validate:"omitempty,dive,min=0"`
}

// UpdateScoreRequest sets one participant's score.
type UpdateScoreRequest struct {
	MemberID string `json:"memberId" validate:"required"`
	Score    int    `json:"score" validate:"min=0"`
}

func toParticipants(reqs []ParticipantRequest) []match.Participant {
	out := make([]match.Participant, len(reqs))
	for i, p := range reqs {
		out[i] = match.Participant{
			MemberID: strings.TrimSpace(p.MemberID),
			Team:     match.Team(p.Team),
			Score:    p.Score,
		}
	}
	return out
}

// ListMatches lists the club's matches, newest first
// @Summary List matches
// @Tags Matches
// @Produce json
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Param memberId query string false "Only matches this member played"
// @Param limit query int false "Maximum results"
// @Success 200 {array} match.Match
// @Router /matches [get]
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	span, err := h.querySpan(r)
	if err != nil {
		fail(w, r, "list_matches", err)
		return
	}
	limit, _, err := queryInt(r, "limit")
	if err != nil {
		fail(w, r, "list_matches", err)
		return
	}

	matches, err := h.matches.List(r.Context(), scopeFrom(r.Context()), match.Filter{
		Span:     span,
		MemberID: strings.TrimSpace(r.URL.Query().Get("memberId")),
		Limit:    limit,
	})
	if err != nil {
		fail(w, r, "list_matches", err)
		return
	}
	if matches == nil {
		matches = []*match.Match{}
	}
	respondJSON(w, http.StatusOK, matches)
}

// CreateMatch records a match and reconciles the day's attendance
// @Summary Record a match
// @Tags Matches
// @Accept json
// @Produce json
// @Param request body CreateMatchRequest true "Match"
// @Success 201 {object} match.Match
// @Failure 400 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /matches [post]
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	in := match.CreateInput{
		Date:         req.Date,
		PlayedAt:     req.PlayedAt,
		Kind:         req.Kind,
		Participants: toParticipants(req.Participants),
	}
	if id := strings.TrimSpace(req.CreatedBy); id != "" {
		in.CreatedBy = &id
	}

	m, err := h.matches.Create(r.Context(), scopeFrom(r.Context()), in)
	if err != nil {
		fail(w, r, "create_match", err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// CheckDuplicate reports whether the same players already have a match
// near the given time. Lookup failures answer "not a duplicate".
// @Summary Check for a duplicate match
// @Tags Matches
// @Accept json
// @Produce json
// @Param request body CheckDuplicateRequest true "Pending match"
// @Success 200 {object} match.DuplicateResult
// @Router /matches/check-duplicate [post]
func (h *Handler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	var req CheckDuplicateRequest
	if !h.decode(w, r, &req) {
		return
	}

	ids := req.MemberIDs
	if len(ids) == 0 {
		for _, p := range req.Participants {
			ids = append(ids, strings.TrimSpace(p.MemberID))
		}
	}
	if len(ids) == 0 {
		fail(w, r, "check_duplicate", badRequest("memberIds or participants required"))
		return
	}

	res := h.duplicates.Check(r.Context(), scopeFrom(r.Context()), match.DuplicateQuery{
		Date:      req.Date,
		PlayedAt:  req.PlayedAt,
		MemberIDs: ids,
	})
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.matches.Get(r.Context(), scopeFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, "get_match", err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *Handler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	var req UpdateMatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.matches.Update(r.Context(), scopeFrom(r.Context()), chi.URLParam(r, "id"), match.UpdateInput{
		Date:     req.Date,
		PlayedAt: req.PlayedAt,
		Scores:   req.Scores,
	})
	if err != nil {
		fail(w, r, "update_match", err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.matches.Delete(r.Context(), scopeFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		fail(w, r, "delete_match", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	var req UpdateScoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.matches.UpdateParticipantScore(r.Context(), scopeFrom(r.Context()),
		chi.URLParam(r, "id"), req.MemberID, req.Score)
	if err != nil {
		fail(w, r, "update_score", err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}
