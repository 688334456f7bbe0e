package ranking

import (
	"context"
	"errors"
	"fmt"

	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/match"
	"github.com/clubledger/clubledger/internal/tenant"
)

// ErrInvalidRange is returned for malformed month or date inputs.
var ErrInvalidRange = errors.New("invalid range")

// Record is a win/loss/draw tally from one member's perspective.
type Record struct {
	Played int `json:"played"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

func (r *Record) add(o match.Outcome) {
	r.Played++
	switch o {
	case match.Win:
		r.Wins++
	case match.Loss:
		r.Losses++
	case match.Draw:
		r.Draws++
	}
}

// HeadToHead compares two members over a span.
type HeadToHead struct {
	MemberID   string     `json:"memberId"`
	OpponentID string     `json:"opponentId"`
	From       clock.Date `json:"from"`
	To         clock.Date `json:"to"`
	// Against counts games on opposing teams, Together games as partners.
	Against  Record `json:"against"`
	Together Record `json:"together"`
}

// Versus returns memberID's record against and alongside opponentID.
func (a *Aggregator) Versus(ctx context.Context, scope tenant.Scope, memberID, opponentID string, span clock.Span) (*HeadToHead, error) {
	if memberID == opponentID {
		return nil, fmt.Errorf("%w: member compared with itself", ErrInvalidRange)
	}
	for _, id := range []string{memberID, opponentID} {
		if _, err := a.members.Get(ctx, scope, id); err != nil {
			return nil, err
		}
	}

	matches, err := a.matches.List(ctx, scope, match.Filter{Span: span, MemberID: memberID})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	h := &HeadToHead{MemberID: memberID, OpponentID: opponentID, From: span.From, To: span.To}
	for _, m := range matches {
		me, ok := m.Participant(memberID)
		if !ok {
			continue
		}
		other, ok := m.Participant(opponentID)
		if !ok {
			continue
		}
		if me.Team == other.Team {
			h.Together.add(m.OutcomeFor(memberID))
		} else {
			h.Against.add(m.OutcomeFor(memberID))
		}
	}
	return h, nil
}
