// Package board holds the shared table of slots, cards and player tokens that
// the dealer and every player mutate concurrently.
//
// Each slot has its own mutex so that unrelated slots never contend. A player's
// token toggles are additionally serialized per player, which keeps the
// "tokens held" count that guards the per-player limit consistent. Locks are
// always taken in the order player → slot → card index, and no code path holds
// two slot locks at once.
package board

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/sasha-s/go-deadlock"

	"github.com/lox/setforbots/internal/display"
)

const none = -1

// Config carries the numeric parameters the board depends on.
type Config struct {
	// Size is the number of slots.
	Size int
	// DeckSize is the number of distinct card identifiers, [0, DeckSize).
	DeckSize int
	// FeatureSize is the number of cards in a set, which is also the maximum
	// number of tokens a player may hold.
	FeatureSize int
	// Delay is slept before every card placement or removal.
	Delay time.Duration
}

type slot struct {
	mu     deadlock.Mutex
	card   int
	tokens map[int]struct{}
}

type playerTokens struct {
	mu    deadlock.Mutex
	count atomic.Int32
}

// Board is the shared table. The zero value is not usable; create one with New.
type Board struct {
	cfg     Config
	clock   quartz.Clock
	display display.Display
	logger  *log.Logger

	slots []*slot

	cardsMu    deadlock.RWMutex
	cardToSlot []int

	playersMu deadlock.Mutex
	players   map[int]*playerTokens

	busy atomic.Bool
}

// New creates an empty board.
func New(logger *log.Logger, cfg Config, disp display.Display, clock quartz.Clock) *Board {
	if disp == nil {
		disp = display.Nop{}
	}
	b := &Board{
		cfg:        cfg,
		clock:      clock,
		display:    disp,
		logger:     logger.WithPrefix("board"),
		slots:      make([]*slot, cfg.Size),
		cardToSlot: make([]int, cfg.DeckSize),
		players:    make(map[int]*playerTokens),
	}
	for i := range b.slots {
		b.slots[i] = &slot{card: none, tokens: make(map[int]struct{})}
	}
	for i := range b.cardToSlot {
		b.cardToSlot[i] = none
	}
	return b
}

// Size returns the number of slots.
func (b *Board) Size() int {
	return b.cfg.Size
}

// FeatureSize returns the number of cards in a set.
func (b *Board) FeatureSize() int {
	return b.cfg.FeatureSize
}

func (b *Board) player(id int) *playerTokens {
	b.playersMu.Lock()
	defer b.playersMu.Unlock()
	pt, ok := b.players[id]
	if !ok {
		pt = &playerTokens{}
		b.players[id] = pt
	}
	return pt
}

func (b *Board) validSlot(s int) bool {
	return s >= 0 && s < len(b.slots)
}

func (b *Board) pause() {
	if b.cfg.Delay <= 0 {
		return
	}
	t := b.clock.NewTimer(b.cfg.Delay, "board", "delay")
	<-t.C
}

// PlaceCard puts card into an empty slot and notifies the display. Placing
// into an occupied slot, or placing a card that is already on the board, is a
// caller bug; it is logged and ignored.
func (b *Board) PlaceCard(card, slotIdx int) {
	if !b.validSlot(slotIdx) || card < 0 || card >= b.cfg.DeckSize {
		b.logger.Error("Card placement out of range", "card", card, "slot", slotIdx)
		return
	}
	b.pause()

	s := b.slots[slotIdx]
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.card != none {
		b.logger.Error("Slot already holds a card", "slot", slotIdx, "card", s.card, "new_card", card)
		return
	}

	b.cardsMu.Lock()
	if current := b.cardToSlot[card]; current != none {
		b.cardsMu.Unlock()
		b.logger.Error("Card already on the board", "card", card, "slot", current)
		return
	}
	b.cardToSlot[card] = slotIdx
	s.card = card
	b.cardsMu.Unlock()

	b.display.PlaceCard(card, slotIdx)
}

// RemoveCard clears the card in slot together with every token on it. The
// slot lock is held for the whole operation so no player can observe a slot
// whose tokens are gone but whose card is still present.
func (b *Board) RemoveCard(slotIdx int) {
	if !b.validSlot(slotIdx) {
		b.logger.Error("Card removal out of range", "slot", slotIdx)
		return
	}
	b.pause()

	s := b.slots[slotIdx]
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.card == none {
		b.logger.Error("No card to remove", "slot", slotIdx)
		return
	}

	holders := make([]int, 0, len(s.tokens))
	for p := range s.tokens {
		holders = append(holders, p)
	}
	slices.Sort(holders)
	for _, p := range holders {
		delete(s.tokens, p)
		b.player(p).count.Add(-1)
		b.display.RemoveToken(p, slotIdx)
	}

	b.cardsMu.Lock()
	b.cardToSlot[s.card] = none
	s.card = none
	b.cardsMu.Unlock()

	b.display.RemoveCard(slotIdx)
}

// PlaceOrRemoveToken toggles player's token on slot. It returns false, after
// logging a warning, when the slot holds no card or when placing would exceed
// the per-player token limit.
func (b *Board) PlaceOrRemoveToken(player, slotIdx int) bool {
	if !b.validSlot(slotIdx) {
		b.logger.Warn("Token on a slot outside the board", "player", player, "slot", slotIdx)
		return false
	}

	pt := b.player(player)
	pt.mu.Lock()
	defer pt.mu.Unlock()

	s := b.slots[slotIdx]
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.card == none {
		b.logger.Warn("Token on an empty slot", "player", player, "slot", slotIdx)
		return false
	}

	if _, ok := s.tokens[player]; ok {
		delete(s.tokens, player)
		pt.count.Add(-1)
		b.display.RemoveToken(player, slotIdx)
		return true
	}

	if int(pt.count.Load()) >= b.cfg.FeatureSize {
		b.logger.Warn("Player already holds the maximum number of tokens",
			"player", player, "slot", slotIdx, "max", b.cfg.FeatureSize)
		return false
	}

	s.tokens[player] = struct{}{}
	pt.count.Add(1)
	b.display.PlaceToken(player, slotIdx)
	return true
}

// RemoveTokens clears every token held by player.
func (b *Board) RemoveTokens(player int) {
	pt := b.player(player)
	pt.mu.Lock()
	defer pt.mu.Unlock()

	for i, s := range b.slots {
		s.mu.Lock()
		if _, ok := s.tokens[player]; ok {
			delete(s.tokens, player)
			pt.count.Add(-1)
			b.display.RemoveToken(player, i)
		}
		s.mu.Unlock()
	}
}

// TokenCount returns how many tokens player currently holds.
func (b *Board) TokenCount(player int) int {
	return int(b.player(player).count.Load())
}

// TokenSlots returns the slots holding one of player's tokens, in slot order.
// Reads are serialized with the player's own toggles.
func (b *Board) TokenSlots(player int) []int {
	pt := b.player(player)
	pt.mu.Lock()
	defer pt.mu.Unlock()

	out := make([]int, 0, b.cfg.FeatureSize)
	for i, s := range b.slots {
		s.mu.Lock()
		if _, ok := s.tokens[player]; ok {
			out = append(out, i)
		}
		s.mu.Unlock()
	}
	return out
}

// Tokens returns the players holding a token on slot, sorted.
func (b *Board) Tokens(slotIdx int) []int {
	if !b.validSlot(slotIdx) {
		return nil
	}
	s := b.slots[slotIdx]
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.tokens))
	for p := range s.tokens {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// IsLegalSet reports whether every slot still carries at least one token. It
// is the freshness check the dealer runs before validating a submission.
func (b *Board) IsLegalSet(slots []int) bool {
	for _, i := range slots {
		if !b.validSlot(i) {
			return false
		}
		s := b.slots[i]
		s.mu.Lock()
		tokened := len(s.tokens) > 0
		s.mu.Unlock()
		if !tokened {
			return false
		}
	}
	return true
}

// HoldsTokens reports whether player has a token on every one of slots.
func (b *Board) HoldsTokens(player int, slots []int) bool {
	for _, i := range slots {
		if !b.validSlot(i) {
			return false
		}
		s := b.slots[i]
		s.mu.Lock()
		_, ok := s.tokens[player]
		s.mu.Unlock()
		if !ok {
			return false
		}
	}
	return true
}

// SlotsToCards projects slots onto the cards they hold. An empty slot maps to
// -1; callers are expected to check IsLegalSet first.
func (b *Board) SlotsToCards(slots []int) []int {
	cards := make([]int, len(slots))
	for i, idx := range slots {
		card, _ := b.Card(idx)
		cards[i] = card
	}
	return cards
}

// Card returns the card in slot.
func (b *Board) Card(slotIdx int) (int, bool) {
	if !b.validSlot(slotIdx) {
		return none, false
	}
	s := b.slots[slotIdx]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card, s.card != none
}

// SlotOf returns the slot holding card.
func (b *Board) SlotOf(card int) (int, bool) {
	if card < 0 || card >= len(b.cardToSlot) {
		return none, false
	}
	b.cardsMu.RLock()
	defer b.cardsMu.RUnlock()
	s := b.cardToSlot[card]
	return s, s != none
}

// Cards returns the cards currently on the board in slot order.
func (b *Board) Cards() []int {
	out := make([]int, 0, len(b.slots))
	for _, s := range b.slots {
		s.mu.Lock()
		if s.card != none {
			out = append(out, s.card)
		}
		s.mu.Unlock()
	}
	return out
}

// CountCards returns how many slots hold a card.
func (b *Board) CountCards() int {
	return len(b.Cards())
}

// EmptySlots returns a snapshot of the slots without a card. The board may
// change as soon as the call returns.
func (b *Board) EmptySlots() []int {
	var out []int
	for i, s := range b.slots {
		s.mu.Lock()
		if s.card == none {
			out = append(out, i)
		}
		s.mu.Unlock()
	}
	return out
}

// OccupiedSlots returns a snapshot of the slots holding a card.
func (b *Board) OccupiedSlots() []int {
	var out []int
	for i, s := range b.slots {
		s.mu.Lock()
		if s.card != none {
			out = append(out, i)
		}
		s.mu.Unlock()
	}
	return out
}

// Lock marks the board busy while the dealer restructures it. It is advisory:
// players check Busy before starting a toggle, but toggles already in flight
// complete normally.
func (b *Board) Lock() {
	b.busy.Store(true)
}

// Unlock clears the busy mark.
func (b *Board) Unlock() {
	b.busy.Store(false)
}

// Busy reports whether the dealer is dealing or clearing.
func (b *Board) Busy() bool {
	return b.busy.Load()
}
