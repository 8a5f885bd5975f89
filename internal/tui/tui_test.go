package tui

import (
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/setforbots/internal/cards"
	"github.com/lox/setforbots/internal/display"
)

var _ display.Display = (*Model)(nil)

type recordingSelector struct {
	mu     sync.Mutex
	accept bool
	calls  [][2]int
}

func (r *recordingSelector) SlotSelected(player, slot int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, [2]int{player, slot})
	return r.accept
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, sel Selector, onQuit func()) *Model {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	seats := []Seat{
		{ID: 0, Name: "alice", Human: true},
		{ID: 1, Name: "hal"},
		{ID: 2, Name: "bob", Human: true},
	}
	return NewModel(logger, 12, seats, sel, cards.NewFeatures(3, 4), onQuit)
}

func TestKeysSelectSlotsForEachHuman(t *testing.T) {
	sel := &recordingSelector{accept: true}
	m := newTestModel(t, sel, nil)

	for _, k := range []string{"q", "v", "u", ";", "/"} {
		_, cmd := m.Update(runes(k))
		assert.Nil(t, cmd)
	}
	_, _ = m.Update(runes("b"))

	sel.mu.Lock()
	defer sel.mu.Unlock()
	assert.Equal(t, [][2]int{{0, 0}, {0, 11}, {2, 0}, {2, 7}, {2, 11}}, sel.calls)
}

func TestRejectedSelectionsAreCounted(t *testing.T) {
	m := newTestModel(t, &recordingSelector{accept: false}, nil)

	m.Update(runes("w"))
	m.Update(runes("e"))

	assert.Equal(t, 2, m.rejected)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Contains(t, m.View(), "2 selections ignored")
}

func TestQuitCallsOnQuit(t *testing.T) {
	quits := 0
	m := newTestModel(t, &recordingSelector{}, func() { quits++ })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 1, quits, "onQuit runs once")
	assert.Empty(t, m.View())
}

func TestDisplayEventsRender(t *testing.T) {
	m := newTestModel(t, &recordingSelector{}, nil)

	m.PlaceCard(5, 0)
	m.PlaceToken(2, 0)
	m.SetScore(1, 3)
	m.SetFreeze(1, 1500*time.Millisecond)
	m.SetCountdown(4*time.Second, true)

	view := m.View()
	assert.Contains(t, view, "#5 2100")
	assert.Contains(t, view, "hal (bot): 3")
	assert.Contains(t, view, "1.5s")
	assert.Contains(t, view, "Time: 4.0s")

	m.RemoveCard(0)
	assert.Equal(t, -1, m.cards[0])
	assert.Empty(t, m.tokens[0])
}

func TestWinnersEndTheGame(t *testing.T) {
	quits := 0
	m := newTestModel(t, &recordingSelector{accept: true}, func() { quits++ })

	m.AnnounceWinners([]int{0, 2})
	assert.Contains(t, m.View(), "It's a tie: alice, bob")

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, quits)
}

func TestGameOverMessage(t *testing.T) {
	m := newTestModel(t, &recordingSelector{}, nil)
	m.Update(GameOverMsg{})
	assert.Contains(t, m.View(), "Game over")
}

func TestKeyMapLabels(t *testing.T) {
	km := NewKeyMap(1, 4, 6)
	assert.Len(t, km.Slots, 6)
	assert.Equal(t, "u", km.Label(0))
	assert.Equal(t, "k", km.Label(5))
	assert.Empty(t, km.Label(6))

	slot, ok := km.Slot(runes("j"))
	require.True(t, ok)
	assert.Equal(t, 4, slot)
}
