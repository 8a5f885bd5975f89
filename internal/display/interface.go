// Package display defines the sink that the dealer, players and board notify
// about every visible state change, plus a few reusable implementations.
package display

import "time"

// Display receives fire-and-forget notifications about board and player state.
// Implementations must not block the caller for any meaningful amount of time:
// they are invoked from the dealer and player goroutines while board slots are
// locked.
type Display interface {
	PlaceCard(card, slot int)
	RemoveCard(slot int)
	PlaceToken(player, slot int)
	RemoveToken(player, slot int)
	SetScore(player, score int)
	// SetFreeze reports the remaining freeze time for a player; zero clears it.
	SetFreeze(player int, remaining time.Duration)
	// SetCountdown reports the time left in the current round. warn is true once
	// the countdown is inside the configured warning threshold.
	SetCountdown(remaining time.Duration, warn bool)
	AnnounceWinners(players []int)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) PlaceCard(int, int)               {}
func (Nop) RemoveCard(int)                   {}
func (Nop) PlaceToken(int, int)              {}
func (Nop) RemoveToken(int, int)             {}
func (Nop) SetScore(int, int)                {}
func (Nop) SetFreeze(int, time.Duration)     {}
func (Nop) SetCountdown(time.Duration, bool) {}
func (Nop) AnnounceWinners([]int)            {}

// Multi fans every notification out to several displays in order.
type Multi []Display

// NewMulti drops nil entries and returns a Multi over the rest.
func NewMulti(displays ...Display) Multi {
	m := make(Multi, 0, len(displays))
	for _, d := range displays {
		if d != nil {
			m = append(m, d)
		}
	}
	return m
}

func (m Multi) PlaceCard(card, slot int) {
	for _, d := range m {
		d.PlaceCard(card, slot)
	}
}

func (m Multi) RemoveCard(slot int) {
	for _, d := range m {
		d.RemoveCard(slot)
	}
}

func (m Multi) PlaceToken(player, slot int) {
	for _, d := range m {
		d.PlaceToken(player, slot)
	}
}

func (m Multi) RemoveToken(player, slot int) {
	for _, d := range m {
		d.RemoveToken(player, slot)
	}
}

func (m Multi) SetScore(player, score int) {
	for _, d := range m {
		d.SetScore(player, score)
	}
}

func (m Multi) SetFreeze(player int, remaining time.Duration) {
	for _, d := range m {
		d.SetFreeze(player, remaining)
	}
}

func (m Multi) SetCountdown(remaining time.Duration, warn bool) {
	for _, d := range m {
		d.SetCountdown(remaining, warn)
	}
}

func (m Multi) AnnounceWinners(players []int) {
	for _, d := range m {
		d.AnnounceWinners(players)
	}
}
