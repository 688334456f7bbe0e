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

package member

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/tenant"
)

// Domain errors
var (
	ErrMemberNotFound = errors.New("member not found")
	ErrInvalidMember  = errors.New("invalid member")
	ErrMemberInUse    = errors.New("member has recorded matches")
)

// SkillLevel is an ordered self-assessed playing level.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

var skillRanks = map[SkillLevel]int{
	SkillBeginner:     1,
	SkillIntermediate: 2,
	SkillAdvanced:     3,
	SkillExpert:       4,
}

// Rank orders skill levels; unknown levels rank 0.
func (s SkillLevel) Rank() int {
	return skillRanks[s]
}

// ParseSkillLevel accepts a level name; empty means beginner.
func ParseSkillLevel(s string) (SkillLevel, error) {
	lvl := SkillLevel(strings.ToLower(strings.TrimSpace(s)))
	if lvl == "" {
		return SkillBeginner, nil
	}
	if _, ok := skillRanks[lvl]; !ok {
		return "", fmt.Errorf("%w: unknown skill level %q", ErrInvalidMember, s)
	}
	return lvl, nil
}

// Role is a member's role within their club.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Kind separates registered members from guests. Guests can play but never
// accrue attendance.
type Kind string

const (
	KindRegistered Kind = "registered"
	KindGuest      Kind = "guest"
)

// Naming conventions that mark a guest at creation time.
const (
	GuestNamePrefix   = "[GUEST]"
	GuestEmailSuffix  = "@guest.local"
	DefaultLanguage   = "en"
	maxNameLength     = 100
	maxContactLength  = 255
	maxLanguageLength = 16
)

// ClassifyKind applies the guest naming rule.
func ClassifyKind(name, email string) Kind {
	if strings.HasPrefix(strings.TrimSpace(name), GuestNamePrefix) {
		return KindGuest
	}
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), GuestEmailSuffix) {
		return KindGuest
	}
	return KindRegistered
}

// Member is a person belonging to one club.
type Member struct {
	ID         string     `json:"id"`
	TenantID   *string    `json:"tenantId,omitempty"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	SkillLevel SkillLevel `json:"skillLevel"`
	Role       Role       `json:"role"`
	Language   string     `json:"language"`
	Kind       Kind       `json:"kind"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// IsGuest reports whether the member is a guest.
func (m *Member) IsGuest() bool {
	return m.Kind == KindGuest
}

// ListFilter narrows member listings.
type ListFilter struct {
	IncludeGuests bool
	Query         string
}

// Repository defines the interface for member persistence
type Repository interface {
	Create(ctx context.Context, m *Member) error
	// GetByID looks up a member regardless of tenant; callers authorize.
	GetByID(ctx context.Context, id string) (*Member, error)
	List(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]*Member, error)
	Update(ctx context.Context, m *Member) error
	// Delete returns ErrMemberInUse when the member appears in a match.
	Delete(ctx context.Context, id string) error
}
