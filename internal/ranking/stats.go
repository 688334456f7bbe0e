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

// Package ranking derives member statistics and leaderboards from match
// and attendance history.
package ranking

import (
	"math"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/match"
	"github.com/clubledger/clubledger/internal/member"
)

// Stats summarises one member's activity over a span.
type Stats struct {
	MemberID        string      `json:"memberId"`
	Name            string      `json:"name"`
	Kind            member.Kind `json:"kind"`
	Attended        int         `json:"attended"`
	MatchesPlayed   int         `json:"matchesPlayed"`
	Wins            int         `json:"wins"`
	Losses          int         `json:"losses"`
	Draws           int         `json:"draws"`
	WinRate         int         `json:"winRate"`
	AttendanceRate  int         `json:"attendanceRate"`
	SessionsInRange int         `json:"sessionsInRange"`
	From            clock.Date  `json:"from"`
	To              clock.Date  `json:"to"`
}

// Decided is the number of games with an outcome.
func (s *Stats) Decided() int {
	return s.Wins + s.Losses + s.Draws
}

// percent rounds 100*n/total half away from zero; 0 when total is 0.
func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(total)))
}

// tally folds matches into s and returns how many had divergent team scores.
func tally(s *Stats, memberID string, matches []*match.Match) int {
	divergent := 0
	for _, m := range matches {
		outcome := m.OutcomeFor(memberID)
		if outcome == match.NotPlayed {
			continue
		}
		s.MatchesPlayed++
		switch outcome {
		case match.Win:
			s.Wins++
		case match.Loss:
			s.Losses++
		case match.Draw:
			s.Draws++
		}
		if m.HasDivergentScores() {
			divergent++
		}
	}
	s.WinRate = percent(s.Wins, s.Decided())
	return divergent
}
