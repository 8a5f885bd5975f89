package game

import (
	"fmt"
	"slices"
)

// CandidateSet is a group of slots a player claims is a set. It is immutable:
// the slots are copied in and out.
type CandidateSet struct {
	player int
	slots  []int
}

// NewCandidateSet creates a submission for player.
func NewCandidateSet(player int, slots []int) CandidateSet {
	return CandidateSet{player: player, slots: slices.Clone(slots)}
}

// PlayerID returns the submitting player.
func (c CandidateSet) PlayerID() int {
	return c.player
}

// Slots returns a copy of the submitted slots.
func (c CandidateSet) Slots() []int {
	return slices.Clone(c.slots)
}

func (c CandidateSet) String() string {
	return fmt.Sprintf("player %d %v", c.player, c.slots)
}

// Outcome is the dealer's verdict on a CandidateSet.
type Outcome int32

const (
	// Neutral means no verdict: either nothing is pending or the submission
	// went stale before validation.
	Neutral Outcome = iota
	Point
	Penalty
)

func (o Outcome) String() string {
	switch o {
	case Neutral:
		return "neutral"
	case Point:
		return "point"
	case Penalty:
		return "penalty"
	default:
		return fmt.Sprintf("outcome(%d)", int32(o))
	}
}
