// Package tui renders a running game in the terminal and turns key presses
// into slot selections.
package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/sasha-s/go-deadlock"
)

// refreshInterval is how often the view picks up display events.
const refreshInterval = 50 * time.Millisecond

// columns is the width of the board grid.
const columns = 4

// Selector routes a slot selection to a player.
type Selector interface {
	SlotSelected(player, slot int) bool
}

// Describer renders the features of a card.
type Describer interface {
	Features(card int) []int
}

// Seat names one player for the sidebar.
type Seat struct {
	ID    int
	Name  string
	Human bool
}

// GameOverMsg tells the model the game has finished.
type GameOverMsg struct{}

type tickMsg time.Time

// Model is the Bubble Tea model for a game. It is also a display sink: the
// game's goroutines update its state under a lock and the view picks the
// changes up on the next refresh.
type Model struct {
	logger    *log.Logger
	selector  Selector
	describer Describer
	seats     []Seat
	keymaps   []KeyMap
	global    globalKeys
	help      help.Model
	onQuit    func()

	mu        deadlock.Mutex
	cards     []int
	tokens    []map[int]struct{}
	scores    map[int]int
	freezes   map[int]time.Duration
	remaining time.Duration
	warn      bool
	winners   []int
	finished  bool
	rejected  int

	width    int
	height   int
	quitting bool
}

// NewModel creates a model for a board of size slots. Human seats get the
// keyboard layouts in seat order; onQuit is called when the user quits.
func NewModel(logger *log.Logger, size int, seats []Seat, selector Selector, describer Describer, onQuit func()) *Model {
	m := &Model{
		logger:    logger.WithPrefix("tui"),
		selector:  selector,
		describer: describer,
		seats:     slices.Clone(seats),
		global:    defaultGlobalKeys(),
		help:      help.New(),
		onQuit:    onQuit,
		cards:     make([]int, size),
		tokens:    make([]map[int]struct{}, size),
		scores:    make(map[int]int),
		freezes:   make(map[int]time.Duration),
	}
	for i := range m.cards {
		m.cards[i] = -1
		m.tokens[i] = make(map[int]struct{})
	}
	for _, s := range seats {
		if s.Human && len(m.keymaps) < MaxHumans {
			m.keymaps = append(m.keymaps, NewKeyMap(len(m.keymaps), s.ID, size))
		}
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the refresh loop.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case GameOverMsg:
		m.mu.Lock()
		m.finished = true
		m.mu.Unlock()
		return m, nil

	case tea.KeyMsg:
		if m.isFinished() || key.Matches(msg, m.global.Quit) {
			return m, m.quit()
		}
		if msg.String() == "?" {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		for _, km := range m.keymaps {
			if slot, ok := km.Slot(msg); ok {
				if !m.selector.SlotSelected(km.Player, slot) {
					m.logger.Debug("Selection ignored", "player", km.Player, "slot", slot)
					m.mu.Lock()
					m.rejected++
					m.mu.Unlock()
				}
				return m, nil
			}
		}
	}
	return m, nil
}

func (m *Model) quit() tea.Cmd {
	if !m.quitting {
		m.quitting = true
		if m.onQuit != nil {
			m.onQuit()
		}
	}
	return tea.Quit
}

func (m *Model) isFinished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	board := m.renderBoard()
	sidebar := SidebarStyle.Render(m.renderSidebar())
	body := lipgloss.JoinHorizontal(lipgloss.Top, board, sidebar)

	footer := m.help.View(helpKeys{global: m.global, seats: m.keymaps})
	if m.finished {
		footer = WinnerStyle.Render(m.renderWinners()) + "  " + InfoStyle.Render("press any key to exit")
	}
	return lipgloss.JoinVertical(lipgloss.Left, HeaderStyle.Render("setforbots"), body, footer)
}

func (m *Model) renderBoard() string {
	var rows []string
	for start := 0; start < len(m.cards); start += columns {
		var cells []string
		for slot := start; slot < min(start+columns, len(m.cards)); slot++ {
			cells = append(cells, m.renderSlot(slot))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderSlot(slot int) string {
	var labels []string
	for _, km := range m.keymaps {
		if l := km.Label(slot); l != "" {
			labels = append(labels, l)
		}
	}
	hint := KeyHintStyle.Render(strings.Join(labels, " "))

	card := m.cards[slot]
	if card < 0 {
		return EmptyCardStyle.Render(fmt.Sprintf("%s\n\n-\n", hint))
	}

	features := ""
	if m.describer != nil {
		var b strings.Builder
		for _, f := range m.describer.Features(card) {
			fmt.Fprintf(&b, "%d", f)
		}
		features = b.String()
	}

	holders := make([]int, 0, len(m.tokens[slot]))
	for p := range m.tokens[slot] {
		holders = append(holders, p)
	}
	slices.Sort(holders)
	var marks strings.Builder
	for _, p := range holders {
		marks.WriteString(playerStyle(p).Render("●"))
	}

	style := CardStyle
	if len(holders) > 0 {
		style = SelectedCardStyle
	}
	return style.Render(fmt.Sprintf("%s\n#%d %s\n%s", hint, card, features, marks.String()))
}

func (m *Model) renderSidebar() string {
	var b strings.Builder

	countdown := fmt.Sprintf("Time: %.1fs", m.remaining.Seconds())
	if m.warn {
		b.WriteString(WarningStyle.Render(countdown))
	} else {
		b.WriteString(CountdownStyle.Render(countdown))
	}
	b.WriteString("\n\n")

	for _, s := range m.seats {
		kind := "bot"
		if s.Human {
			kind = "you"
		}
		line := fmt.Sprintf("%s %s (%s): %d", playerStyle(s.ID).Render("●"), s.Name, kind, m.scores[s.ID])
		b.WriteString(line)
		if d := m.freezes[s.ID]; d > 0 {
			b.WriteString(FrozenStyle.Render(fmt.Sprintf(" ❄ %.1fs", d.Seconds())))
		}
		b.WriteString("\n")
	}
	if m.rejected > 0 {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("\n%d selections ignored", m.rejected)))
	}
	return b.String()
}

func (m *Model) renderWinners() string {
	if len(m.winners) == 0 {
		return "Game over"
	}
	names := make([]string, 0, len(m.winners))
	for _, id := range m.winners {
		name := fmt.Sprintf("player %d", id)
		for _, s := range m.seats {
			if s.ID == id {
				name = s.Name
			}
		}
		names = append(names, name)
	}
	if len(names) == 1 {
		return "Winner: " + names[0]
	}
	return "It's a tie: " + strings.Join(names, ", ")
}

func (m *Model) validSlot(slot int) bool {
	return slot >= 0 && slot < len(m.cards)
}

func (m *Model) PlaceCard(card, slot int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validSlot(slot) {
		m.cards[slot] = card
	}
}

func (m *Model) RemoveCard(slot int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validSlot(slot) {
		m.cards[slot] = -1
		clear(m.tokens[slot])
	}
}

func (m *Model) PlaceToken(player, slot int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validSlot(slot) {
		m.tokens[slot][player] = struct{}{}
	}
}

func (m *Model) RemoveToken(player, slot int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validSlot(slot) {
		delete(m.tokens[slot], player)
	}
}

func (m *Model) SetScore(player, score int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[player] = score
}

func (m *Model) SetFreeze(player int, remaining time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freezes[player] = remaining
}

func (m *Model) SetCountdown(remaining time.Duration, warn bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining, m.warn = remaining, warn
}

func (m *Model) AnnounceWinners(players []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.winners = slices.Clone(players)
	m.finished = true
}
