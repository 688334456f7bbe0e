package match

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrMatchNotFound = errors.New("match not found")
	ErrInvalidMatch  = errors.New("invalid match")
)

// ValidationError explains why a match was rejected. It matches
// ErrInvalidMatch under errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid match: " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidMatch
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

const (
	participantsPerMatch = 4
	playersPerTeam       = 2
	maxScore             = 99
)

// Validate checks the doubles shape: four distinct members, two per team,
// non-negative scores.
func Validate(kind string, participants []Participant) error {
	if kind != KindDoubles {
		return invalid("unsupported kind %q", kind)
	}
	if len(participants) != participantsPerMatch {
		return invalid("expected %d participants, got %d", participantsPerMatch, len(participants))
	}

	seen := make(map[string]bool, len(participants))
	perTeam := map[Team]int{}
	for _, p := range participants {
		if p.MemberID == "" {
			return invalid("participant without member id")
		}
		if seen[p.MemberID] {
			return invalid("member %s appears more than once", p.MemberID)
		}
		seen[p.MemberID] = true

		if p.Team != TeamA && p.Team != TeamB {
			return invalid("unknown team %q", p.Team)
		}
		perTeam[p.Team]++

		if err := validateScore(p.Score); err != nil {
			return err
		}
	}

	if perTeam[TeamA] != playersPerTeam || perTeam[TeamB] != playersPerTeam {
		return invalid("each team needs %d players", playersPerTeam)
	}
	return nil
}

func validateScore(score int) error {
	if score < 0 || score > maxScore {
		return invalid("score %d out of range 0-%d", score, maxScore)
	}
	return nil
}
