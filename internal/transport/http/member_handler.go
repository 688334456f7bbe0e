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

	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/go-chi/chi/v5"
)

// CreateMemberRequest represents a new member. A non-empty JoinCode makes
// it a self-registration checked against the club's join code.
type CreateMemberRequest struct {
	Name       string `json:"name" validate:"required,max=100" example:"Alex Chen"`
	Email      string `json:"email" validate:"omitempty,email,max=255" example:"alex@example.com"`
	Phone      string `json:"phone" validate:"omitempty,max=255"`
	SkillLevel string `json:"skillLevel" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Role       string `json:"role" validate:"omitempty,oneof=member admin"`
	Language   string `json:"language" validate:"omitempty,max=16"`
	JoinCode   string `json:"joinCode"`
}

// UpdateMemberRequest carries profile edits; absent fields are unchanged.
type UpdateMemberRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=100"`
	Email      *string `json:"email" validate:"omitempty,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=255"`
	SkillLevel *string `json:"skillLevel" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Role       *string `json:"role" validate:"omitempty,oneof=member admin"`
	Language   *string `json:"language" validate:"omitempty,max=16"`
}

// ListMembers lists the club's members
// @Summary List members
// @Tags Members
// @Produce json
// @Param includeGuests query bool false "Include guest members"
// @Param q query string false "Name or email substring"
// @Success 200 {array} member.Member
// @Router /users [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(r.Context(), scopeFrom(r.Context()), member.ListFilter{
		IncludeGuests: queryBool(r, "includeGuests"),
		Query:         strings.TrimSpace(r.URL.Query().Get("q")),
	})
	if err != nil {
		fail(w, r, "list_members", err)
		return
	}
	if members == nil {
		members = []*member.Member{}
	}
	respondJSON(w, http.StatusOK, members)
}

// CreateMember adds a member to the club
// @Summary Create or self-register a member
// @Tags Members
// @Accept json
// @Produce json
// @Param request body CreateMemberRequest true "Member"
// @Success 201 {object} member.Member
// @Failure 400 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /users [post]
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if !h.decode(w, r, &req) {
		return
	}

	in := member.CreateInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		SkillLevel: req.SkillLevel,
		Role:       member.Role(req.Role),
		Language:   req.Language,
	}

	var (
		m   *member.Member
		err error
	)
	if req.JoinCode != "" {
		var club *tenant.Tenant
		if res := GetResolution(r.Context()); res != nil {
			club = res.Tenant
		}
		m, err = h.members.Register(r.Context(), club, scopeFrom(r.Context()), req.JoinCode, in)
	} else {
		m, err = h.members.Create(r.Context(), scopeFrom(r.Context()), in)
	}
	if err != nil {
		fail(w, r, "create_member", err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.members.Get(r.Context(), scopeFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, "get_member", err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req UpdateMemberRequest
	if !h.decode(w, r, &req) {
		return
	}

	in := member.UpdateInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		SkillLevel: req.SkillLevel,
		Language:   req.Language,
	}
	if req.Role != nil {
		role := member.Role(*req.Role)
		in.Role = &role
	}

	m, err := h.members.Update(r.Context(), scopeFrom(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		fail(w, r, "update_member", err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.members.Delete(r.Context(), scopeFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		fail(w, r, "delete_member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
