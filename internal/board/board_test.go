package board

import (
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/setforbots/internal/display"
)

func newTestBoard(t *testing.T) (*Board, *display.Recorder) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	rec := display.NewRecorder()
	b := New(logger, Config{Size: 12, DeckSize: 81, FeatureSize: 3}, rec, quartz.NewMock(t))
	return b, rec
}

func fill(b *Board) {
	for slot := 0; slot < b.Size(); slot++ {
		b.PlaceCard(slot*2, slot)
	}
}

func requireConsistent(t *testing.T, b *Board) {
	t.Helper()
	for slot := 0; slot < b.Size(); slot++ {
		if card, ok := b.Card(slot); ok {
			back, ok := b.SlotOf(card)
			require.True(t, ok, "card %d in slot %d has no reverse mapping", card, slot)
			require.Equal(t, slot, back)
		}
	}
	for card := 0; card < 81; card++ {
		if slot, ok := b.SlotOf(card); ok {
			got, ok := b.Card(slot)
			require.True(t, ok)
			require.Equal(t, card, got)
		}
	}
}

func TestPlaceAndRemoveCard(t *testing.T) {
	b, rec := newTestBoard(t)

	b.PlaceCard(7, 3)
	card, ok := b.Card(3)
	require.True(t, ok)
	assert.Equal(t, 7, card)
	slot, ok := b.SlotOf(7)
	require.True(t, ok)
	assert.Equal(t, 3, slot)
	assert.Equal(t, 1, b.CountCards())
	assert.Len(t, b.EmptySlots(), 11)
	requireConsistent(t, b)

	b.RemoveCard(3)
	_, ok = b.Card(3)
	assert.False(t, ok)
	_, ok = b.SlotOf(7)
	assert.False(t, ok)
	assert.Equal(t, 0, b.CountCards())
	requireConsistent(t, b)

	assert.Equal(t, 1, rec.Count(display.EventPlaceCard))
	assert.Equal(t, 1, rec.Count(display.EventRemoveCard))
}

func TestPlaceCardRejectsOccupiedSlotAndDuplicateCard(t *testing.T) {
	b, _ := newTestBoard(t)

	b.PlaceCard(1, 0)
	b.PlaceCard(2, 0)
	card, _ := b.Card(0)
	assert.Equal(t, 1, card, "occupied slot must keep its card")

	b.PlaceCard(1, 5)
	_, ok := b.Card(5)
	assert.False(t, ok, "a card can only be on one slot")
	requireConsistent(t, b)
}

func TestTokenToggleIsIdempotentInPairs(t *testing.T) {
	b, rec := newTestBoard(t)
	fill(b)

	require.True(t, b.PlaceOrRemoveToken(0, 4))
	assert.Equal(t, []int{0}, b.Tokens(4))
	assert.Equal(t, 1, b.TokenCount(0))

	require.True(t, b.PlaceOrRemoveToken(0, 4))
	assert.Empty(t, b.Tokens(4))
	assert.Equal(t, 0, b.TokenCount(0))

	assert.Equal(t, 1, rec.Count(display.EventPlaceToken))
	assert.Equal(t, 1, rec.Count(display.EventRemoveToken))
}

func TestTokenOnEmptySlotFails(t *testing.T) {
	b, rec := newTestBoard(t)

	assert.False(t, b.PlaceOrRemoveToken(0, 2))
	assert.False(t, b.PlaceOrRemoveToken(0, -1))
	assert.False(t, b.PlaceOrRemoveToken(0, 12))
	assert.Equal(t, 0, b.TokenCount(0))
	assert.Zero(t, rec.Count(display.EventPlaceToken))
}

func TestTokenLimitPerPlayer(t *testing.T) {
	b, _ := newTestBoard(t)
	fill(b)

	for _, slot := range []int{0, 1, 2} {
		require.True(t, b.PlaceOrRemoveToken(0, slot))
	}
	assert.False(t, b.PlaceOrRemoveToken(0, 3), "fourth token must be rejected")
	assert.Equal(t, []int{0, 1, 2}, b.TokenSlots(0))

	// Another player is unaffected by player 0's limit.
	assert.True(t, b.PlaceOrRemoveToken(1, 3))

	// Removing one frees room for another.
	require.True(t, b.PlaceOrRemoveToken(0, 1))
	assert.True(t, b.PlaceOrRemoveToken(0, 3))
	assert.Equal(t, []int{0, 2, 3}, b.TokenSlots(0))
	assert.Equal(t, []int{0, 1}, b.Tokens(3))
}

func TestRemoveCardClearsEveryToken(t *testing.T) {
	b, rec := newTestBoard(t)
	fill(b)

	require.True(t, b.PlaceOrRemoveToken(0, 6))
	require.True(t, b.PlaceOrRemoveToken(1, 6))
	require.True(t, b.PlaceOrRemoveToken(1, 7))

	b.RemoveCard(6)

	assert.Empty(t, b.Tokens(6))
	assert.Equal(t, 0, b.TokenCount(0))
	assert.Equal(t, 1, b.TokenCount(1))
	assert.Equal(t, []int{7}, b.TokenSlots(1))
	assert.Equal(t, 2, rec.Count(display.EventRemoveToken))
	assert.False(t, b.PlaceOrRemoveToken(0, 6), "slot is empty now")
}

func TestRemoveTokens(t *testing.T) {
	b, _ := newTestBoard(t)
	fill(b)

	require.True(t, b.PlaceOrRemoveToken(2, 0))
	require.True(t, b.PlaceOrRemoveToken(2, 9))
	require.True(t, b.PlaceOrRemoveToken(3, 9))

	b.RemoveTokens(2)

	assert.Equal(t, 0, b.TokenCount(2))
	assert.Empty(t, b.TokenSlots(2))
	assert.Equal(t, []int{3}, b.Tokens(9))
}

func TestIsLegalSetAndHoldsTokens(t *testing.T) {
	b, _ := newTestBoard(t)
	fill(b)

	require.True(t, b.PlaceOrRemoveToken(0, 0))
	require.True(t, b.PlaceOrRemoveToken(0, 1))
	require.True(t, b.PlaceOrRemoveToken(1, 2))

	assert.True(t, b.IsLegalSet([]int{0, 1, 2}))
	assert.False(t, b.HoldsTokens(0, []int{0, 1, 2}))
	assert.False(t, b.IsLegalSet([]int{0, 1, 3}))

	require.True(t, b.PlaceOrRemoveToken(0, 2))
	assert.True(t, b.HoldsTokens(0, []int{0, 1, 2}))

	b.RemoveCard(1)
	assert.False(t, b.IsLegalSet([]int{0, 1, 2}), "removed card takes its tokens with it")
	assert.False(t, b.HoldsTokens(0, []int{0, 1, 2}))
}

func TestSlotsToCards(t *testing.T) {
	b, _ := newTestBoard(t)
	fill(b)

	assert.Equal(t, []int{0, 10, 22}, b.SlotsToCards([]int{0, 5, 11}))
	b.RemoveCard(5)
	assert.Equal(t, []int{0, -1, 22}, b.SlotsToCards([]int{0, 5, 11}))
}

func TestBusyFlag(t *testing.T) {
	b, _ := newTestBoard(t)

	assert.False(t, b.Busy())
	b.Lock()
	assert.True(t, b.Busy())
	b.Unlock()
	assert.False(t, b.Busy())
}

func TestConcurrentTogglesRespectLimit(t *testing.T) {
	b, _ := newTestBoard(t)
	fill(b)

	const players = 4
	var wg sync.WaitGroup
	for p := 0; p < players; p++ {
		wg.Add(1)
		go func(player int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				b.PlaceOrRemoveToken(player, (i*7+player)%b.Size())
				assert.LessOrEqual(t, b.TokenCount(player), b.FeatureSize())
			}
		}(p)
	}

	// The dealer clears and refills slots while players toggle.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			slot := i % b.Size()
			card, ok := b.Card(slot)
			if !ok {
				continue
			}
			b.RemoveCard(slot)
			b.PlaceCard(card, slot)
		}
	}()
	wg.Wait()

	for p := 0; p < players; p++ {
		slots := b.TokenSlots(p)
		assert.LessOrEqual(t, len(slots), b.FeatureSize())
		assert.Equal(t, len(slots), b.TokenCount(p), "counter must match the slots for player %d", p)
	}
	requireConsistent(t, b)
}
