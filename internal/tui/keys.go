package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// layouts are the slot keys of each human seat, row-major over a four
// column board.
var layouts = [][]string{
	{"q", "w", "e", "r", "a", "s", "d", "f", "z", "x", "c", "v"},
	{"u", "i", "o", "p", "j", "k", "l", ";", "m", ",", ".", "/"},
}

// MaxHumans is the number of keyboard layouts available.
var MaxHumans = len(layouts)

// KeyMap binds one human player's keys to slots.
type KeyMap struct {
	Player int
	Slots  []key.Binding
}

// NewKeyMap returns the bindings for the layout-th human seat, controlling
// player. Boards larger than the layout leave the extra slots unbound.
func NewKeyMap(layout, player, boardSize int) KeyMap {
	keys := layouts[layout]
	km := KeyMap{Player: player}
	for slot := 0; slot < min(boardSize, len(keys)); slot++ {
		km.Slots = append(km.Slots, key.NewBinding(
			key.WithKeys(keys[slot]),
			key.WithHelp(keys[slot], "slot "+strconv.Itoa(slot)),
		))
	}
	return km
}

// Slot returns the slot bound to msg, if any.
func (k KeyMap) Slot(msg tea.KeyMsg) (int, bool) {
	for slot, b := range k.Slots {
		if key.Matches(msg, b) {
			return slot, true
		}
	}
	return 0, false
}

// Label returns the keys of slot for display.
func (k KeyMap) Label(slot int) string {
	if slot < 0 || slot >= len(k.Slots) {
		return ""
	}
	return strings.Join(k.Slots[slot].Keys(), "/")
}

// globalKeys are shared by every seat.
type globalKeys struct {
	Quit key.Binding
}

func defaultGlobalKeys() globalKeys {
	return globalKeys{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// helpKeys adapts the key maps to bubbles/help.
type helpKeys struct {
	global globalKeys
	seats  []KeyMap
}

func (h helpKeys) ShortHelp() []key.Binding {
	return []key.Binding{h.global.Quit}
}

func (h helpKeys) FullHelp() [][]key.Binding {
	groups := make([][]key.Binding, 0, len(h.seats)+1)
	for _, s := range h.seats {
		groups = append(groups, s.Slots)
	}
	return append(groups, []key.Binding{h.global.Quit})
}
