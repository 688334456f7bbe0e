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

package match

import (
	"context"
	"time"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/tenant"
)

// Team is one side of a match.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// KindDoubles is the only supported match kind.
const KindDoubles = "doubles"

// Participant is one player's slot in a match.
type Participant struct {
	MemberID string `json:"memberId"`
	Team     Team   `json:"team"`
	Score    int    `json:"score"`
}

// Match is a recorded game between two teams of two.
type Match struct {
	ID           string        `json:"id"`
	TenantID     *string       `json:"tenantId,omitempty"`
	Date         clock.Date    `json:"date"`
	PlayedAt     time.Time     `json:"playedAt"`
	Kind         string        `json:"kind"`
	CreatedBy    *string       `json:"createdBy,omitempty"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// MemberIDs returns participant ids in slot order.
func (m *Match) MemberIDs() []string {
	ids := make([]string, len(m.Participants))
	for i, p := range m.Participants {
		ids[i] = p.MemberID
	}
	return ids
}

// Participant returns the slot of memberID, if present.
func (m *Match) Participant(memberID string) (Participant, bool) {
	for _, p := range m.Participants {
		if p.MemberID == memberID {
			return p, true
		}
	}
	return Participant{}, false
}

// Team returns the participants on team t.
func (m *Match) Team(t Team) []Participant {
	var out []Participant
	for _, p := range m.Participants {
		if p.Team == t {
			out = append(out, p)
		}
	}
	return out
}

// TeamScore is the highest score recorded by any member of team t.
func (m *Match) TeamScore(t Team) int {
	best := 0
	for _, p := range m.Participants {
		if p.Team == t && p.Score > best {
			best = p.Score
		}
	}
	return best
}

// HasDivergentScores reports whether teammates carry different scores.
func (m *Match) HasDivergentScores() bool {
	seen := map[Team]int{}
	for _, p := range m.Participants {
		if s, ok := seen[p.Team]; ok && s != p.Score {
			return true
		}
		seen[p.Team] = p.Score
	}
	return false
}

// Outcome of a match from one member's perspective.
type Outcome int

const (
	NotPlayed Outcome = iota
	Win
	Loss
	Draw
)

// OutcomeFor compares the member's team score against the opponent's.
func (m *Match) OutcomeFor(memberID string) Outcome {
	p, ok := m.Participant(memberID)
	if !ok {
		return NotPlayed
	}
	own, opp := m.TeamScore(p.Team), m.TeamScore(p.Team.Opponent())
	switch {
	case own > opp:
		return Win
	case own < opp:
		return Loss
	default:
		return Draw
	}
}

// Filter narrows match listings.
type Filter struct {
	Span     clock.Span
	MemberID string
	Limit    int
}

// Repository defines the interface for match persistence
type Repository interface {
	// Create persists a match and its participants atomically.
	Create(ctx context.Context, m *Match) error

	// GetByID looks up a match regardless of tenant; callers authorize.
	GetByID(ctx context.Context, id string) (*Match, error)

	// List returns matches in scope, newest first, with participants.
	List(ctx context.Context, scope tenant.Scope, filter Filter) ([]*Match, error)

	// FindPlayedBetween returns matches whose played_at is in [from, to].
	FindPlayedBetween(ctx context.Context, scope tenant.Scope, from, to time.Time) ([]*Match, error)

	// Update rewrites date, played_at and participant scores atomically.
	Update(ctx context.Context, m *Match) error

	Delete(ctx context.Context, id string) error
}
