// Package spectator streams a running game to websocket clients and,
// optionally, accepts slot selections from them.
package spectator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"
)

// countdownResolution limits how often countdown updates are forwarded.
const countdownResolution = 100 * time.Millisecond

// Selector routes a remote slot selection to a player.
type Selector interface {
	SlotSelected(player, slot int) bool
}

// Hub is a display sink that mirrors the board to every connected client.
// New clients receive a snapshot first, then the live event stream.
type Hub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader
	selector Selector

	mu              deadlock.Mutex
	conns           map[*connection]struct{}
	cards           []int
	tokens          []map[int]struct{}
	scores          map[int]int
	remaining       time.Duration
	warn            bool
	countdownBucket int64
}

// NewHub creates a hub for a board of size slots. A nil selector disables
// remote input.
func NewHub(logger *log.Logger, size int, selector Selector) *Hub {
	h := &Hub{
		logger: logger.WithPrefix("spectator"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		selector:        selector,
		conns:           make(map[*connection]struct{}),
		cards:           make([]int, size),
		tokens:          make([]map[int]struct{}, size),
		scores:          make(map[int]int),
		countdownBucket: -1,
	}
	for i := range h.cards {
		h.cards[i] = -1
		h.tokens[i] = make(map[int]struct{})
	}
	return h
}

// Handler serves the websocket endpoint at /ws and a health check at /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ServeHTTP upgrades the request to a websocket connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	c := newConnection(conn, h)
	h.register(c)
	c.start()
	h.logger.Info("Spectator connected", "remote", conn.RemoteAddr().String())
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	h.logger.Info("Spectator feed listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown spectator server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("spectator server: %w", err)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*connection, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.close()
	}
}

// Connections returns the number of connected clients.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
	if msg, err := NewMessage(MessageTypeSnapshot, h.snapshotLocked()); err == nil {
		_ = c.enqueue(msg)
	}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		h.logger.Debug("Spectator disconnected")
	}
}

func (h *Hub) snapshotLocked() SnapshotData {
	s := SnapshotData{
		Cards:       slices.Clone(h.cards),
		Tokens:      make([][]int, len(h.tokens)),
		Scores:      make(map[int]int, len(h.scores)),
		RemainingMS: h.remaining.Milliseconds(),
		Warn:        h.warn,
		RemoteInput: h.selector != nil,
	}
	for i, holders := range h.tokens {
		s.Tokens[i] = make([]int, 0, len(holders))
		for p := range holders {
			s.Tokens[i] = append(s.Tokens[i], p)
		}
		slices.Sort(s.Tokens[i])
	}
	for p, score := range h.scores {
		s.Scores[p] = score
	}
	return s
}

func (h *Hub) broadcastLocked(t MessageType, data any) {
	msg, err := NewMessage(t, data)
	if err != nil {
		h.logger.Error("Failed to encode message", "type", t, "error", err)
		return
	}
	for c := range h.conns {
		_ = c.enqueue(msg)
	}
}

func (h *Hub) validSlot(slot int) bool {
	return slot >= 0 && slot < len(h.cards)
}

func (h *Hub) selectSlot(player, slot int) error {
	if h.selector == nil {
		return errors.New("remote input is disabled")
	}
	if !h.validSlot(slot) {
		return fmt.Errorf("slot %d out of range", slot)
	}
	if !h.selector.SlotSelected(player, slot) {
		return fmt.Errorf("selection of slot %d by player %d rejected", slot, player)
	}
	return nil
}

func (h *Hub) PlaceCard(card, slot int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.validSlot(slot) {
		h.cards[slot] = card
	}
	h.broadcastLocked(MessageTypePlaceCard, CardData{Card: card, Slot: slot})
}

func (h *Hub) RemoveCard(slot int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.validSlot(slot) {
		h.cards[slot] = -1
		clear(h.tokens[slot])
	}
	h.broadcastLocked(MessageTypeRemoveCard, SlotData{Slot: slot})
}

func (h *Hub) PlaceToken(player, slot int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.validSlot(slot) {
		h.tokens[slot][player] = struct{}{}
	}
	h.broadcastLocked(MessageTypePlaceToken, TokenData{Player: player, Slot: slot})
}

func (h *Hub) RemoveToken(player, slot int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.validSlot(slot) {
		delete(h.tokens[slot], player)
	}
	h.broadcastLocked(MessageTypeRemoveToken, TokenData{Player: player, Slot: slot})
}

func (h *Hub) SetScore(player, score int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scores[player] = score
	h.broadcastLocked(MessageTypeSetScore, ScoreData{Player: player, Score: score})
}

func (h *Hub) SetFreeze(player int, remaining time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(MessageTypeSetFreeze, FreezeData{Player: player, RemainingMS: remaining.Milliseconds()})
}

func (h *Hub) SetCountdown(remaining time.Duration, warn bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	bucket := int64(remaining / countdownResolution)
	changed := bucket != h.countdownBucket || warn != h.warn
	h.remaining, h.warn, h.countdownBucket = remaining, warn, bucket
	if changed {
		h.broadcastLocked(MessageTypeSetCountdown, CountdownData{RemainingMS: remaining.Milliseconds(), Warn: warn})
	}
}

func (h *Hub) AnnounceWinners(players []int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(MessageTypeAnnounceWinners, WinnersData{Players: slices.Clone(players)})
}
