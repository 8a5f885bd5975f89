package display

import (
	"slices"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// EventKind identifies a display notification.
type EventKind string

const (
	EventPlaceCard       EventKind = "place_card"
	EventRemoveCard      EventKind = "remove_card"
	EventPlaceToken      EventKind = "place_token"
	EventRemoveToken     EventKind = "remove_token"
	EventSetScore        EventKind = "set_score"
	EventSetFreeze       EventKind = "set_freeze"
	EventSetCountdown    EventKind = "set_countdown"
	EventAnnounceWinners EventKind = "announce_winners"
)

// Event is one recorded notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	Card      int
	Slot      int
	Player    int
	Score     int
	Remaining time.Duration
	Warn      bool
	Players   []int
}

// Recorder keeps every notification in memory. It is safe for concurrent use
// and is mainly useful in tests.
type Recorder struct {
	mu     deadlock.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) PlaceCard(card, slot int) {
	r.record(Event{Kind: EventPlaceCard, Card: card, Slot: slot})
}

func (r *Recorder) RemoveCard(slot int) {
	r.record(Event{Kind: EventRemoveCard, Slot: slot})
}

func (r *Recorder) PlaceToken(player, slot int) {
	r.record(Event{Kind: EventPlaceToken, Player: player, Slot: slot})
}

func (r *Recorder) RemoveToken(player, slot int) {
	r.record(Event{Kind: EventRemoveToken, Player: player, Slot: slot})
}

func (r *Recorder) SetScore(player, score int) {
	r.record(Event{Kind: EventSetScore, Player: player, Score: score})
}

func (r *Recorder) SetFreeze(player int, remaining time.Duration) {
	r.record(Event{Kind: EventSetFreeze, Player: player, Remaining: remaining})
}

func (r *Recorder) SetCountdown(remaining time.Duration, warn bool) {
	r.record(Event{Kind: EventSetCountdown, Remaining: remaining, Warn: warn})
}

func (r *Recorder) AnnounceWinners(players []int) {
	r.record(Event{Kind: EventAnnounceWinners, Players: slices.Clone(players)})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Filter returns the recorded events of the given kind, oldest first.
func (r *Recorder) Filter(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events of the given kind were recorded.
func (r *Recorder) Count(kind EventKind) int {
	return len(r.Filter(kind))
}

// Last returns the most recent event of the given kind.
func (r *Recorder) Last(kind EventKind) (Event, bool) {
	events := r.Filter(kind)
	if len(events) == 0 {
		return Event{}, false
	}
	return events[len(events)-1], true
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
