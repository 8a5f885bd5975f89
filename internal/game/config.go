package game

import (
	"time"

	"github.com/lox/setforbots/internal/board"
)

// Config holds every numeric parameter of a game. Nothing in this package
// falls back to a built-in value; start from DefaultConfig and override.
type Config struct {
	TableSize   int
	DeckSize    int
	FeatureSize int

	TurnTimeout        time.Duration
	TurnTimeoutWarning time.Duration
	PointFreeze        time.Duration
	PenaltyFreeze      time.Duration
	TableDelay         time.Duration

	// Tick is how long the dealer sleeps between countdown refreshes while the
	// deadline is further away than TurnTimeoutWarning; WarningTick applies
	// inside the warning window.
	Tick        time.Duration
	WarningTick time.Duration
	// FreezeTick is how often a frozen player refreshes its remaining time.
	FreezeTick time.Duration
	// ComputerDelay is the pause before a computer player proposes a slot.
	ComputerDelay time.Duration

	// Hints logs every set on the board after each deal.
	Hints bool
	// Seed drives the dealer and computer player RNGs.
	Seed int64
}

// DefaultConfig returns the classic 12-slot, 81-card game.
func DefaultConfig() Config {
	return Config{
		TableSize:          12,
		DeckSize:           81,
		FeatureSize:        3,
		TurnTimeout:        60 * time.Second,
		TurnTimeoutWarning: 5 * time.Second,
		PointFreeze:        1 * time.Second,
		PenaltyFreeze:      3 * time.Second,
		TableDelay:         100 * time.Millisecond,
		Tick:               1 * time.Second,
		WarningTick:        10 * time.Millisecond,
		FreezeTick:         100 * time.Millisecond,
		ComputerDelay:      250 * time.Millisecond,
	}
}

// BoardConfig extracts the parameters the board needs.
func (c Config) BoardConfig() board.Config {
	return board.Config{
		Size:        c.TableSize,
		DeckSize:    c.DeckSize,
		FeatureSize: c.FeatureSize,
		Delay:       c.TableDelay,
	}
}
