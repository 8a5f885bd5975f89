package game

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/sasha-s/go-deadlock"

	"github.com/lox/setforbots/internal/board"
	"github.com/lox/setforbots/internal/cards"
	"github.com/lox/setforbots/internal/display"
	"github.com/lox/setforbots/internal/gameid"
	"github.com/lox/setforbots/internal/randutil"
)

// Phase is the dealer's position in a round.
type Phase int32

const (
	PhaseDealing Phase = iota
	PhaseCounting
	PhaseAwaiting
	PhaseClearing
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseDealing:
		return "dealing"
	case PhaseCounting:
		return "counting"
	case PhaseAwaiting:
		return "awaiting"
	case PhaseClearing:
		return "clearing"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Termination reasons reported in Result.
const (
	ReasonNoSets  = "no_sets"
	ReasonStopped = "stopped"
)

// PlayerResult is one player's line in a finished game.
type PlayerResult struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Score  int    `json:"score"`
	Winner bool   `json:"winner"`
}

// Result summarises a finished game.
type Result struct {
	GameID    string         `json:"game_id"`
	Seed      int64          `json:"seed"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	Reason    string         `json:"reason"`
	Rounds    int            `json:"rounds"`
	Players   []PlayerResult `json:"players"`
	Winners   []int          `json:"winners"`
}

// DealerOption customises a Dealer.
type DealerOption func(*Dealer)

// WithClock sets the clock used for the turn timer and player freezes.
func WithClock(clock quartz.Clock) DealerOption {
	return func(d *Dealer) { d.clock = clock }
}

// WithRand replaces the dealer's seeded generator.
func WithRand(rng *rand.Rand) DealerOption {
	return func(d *Dealer) { d.rng = rng }
}

// WithGameID sets the id reported in Result.
func WithGameID(id string) DealerOption {
	return func(d *Dealer) { d.gameID = id }
}

// Dealer owns the deck and the turn timer, deals cards onto the board and
// judges the sets players submit. Run executes on the caller's goroutine.
type Dealer struct {
	cfg     Config
	board   *board.Board
	oracle  cards.Oracle
	display display.Display
	logger  *log.Logger
	clock   quartz.Clock
	rng     *rand.Rand

	players []*Player

	deck      []int
	discarded []int

	inboxMu deadlock.Mutex
	inbox   []CandidateSet
	wake    chan struct{}

	reshuffleAt time.Time
	exhausted   bool
	rounds      int
	terminate   atomic.Bool
	phase       atomic.Int32

	gameID    string
	startedAt time.Time

	// onPlayerStopped is called after each player has been joined.
	onPlayerStopped func(*Player)
}

// NewDealer creates a dealer with a full deck. The board must be sized from
// the same Config.
func NewDealer(logger *log.Logger, cfg Config, b *board.Board, oracle cards.Oracle, disp display.Display, opts ...DealerOption) *Dealer {
	if disp == nil {
		disp = display.Nop{}
	}
	d := &Dealer{
		cfg:     cfg,
		board:   b,
		oracle:  oracle,
		display: disp,
		logger:  logger.WithPrefix("dealer"),
		clock:   quartz.NewReal(),
		deck:    make([]int, cfg.DeckSize),
		wake:    make(chan struct{}, 1),
	}
	for i := range d.deck {
		d.deck[i] = i
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = randutil.New(cfg.Seed)
	}
	if d.gameID == "" {
		d.gameID = gameid.Generate()
	}
	return d
}

// AddPlayer registers a player. Ids are assigned in call order starting at
// zero. All players must be added before Run.
func (d *Dealer) AddPlayer(name string, kind PlayerKind) *Player {
	id := len(d.players)
	if name == "" {
		name = fmt.Sprintf("%s-%d", kind, id)
	}
	p := newPlayer(id, name, kind, d.cfg, d.board, d, d.display, d.logger, d.clock,
		randutil.Stream(d.cfg.Seed, uint64(id+1)))
	d.players = append(d.players, p)
	return p
}

// Players returns the registered players in id order.
func (d *Dealer) Players() []*Player {
	return slices.Clone(d.players)
}

// Player looks up a player by id.
func (d *Dealer) Player(id int) (*Player, bool) {
	if id < 0 || id >= len(d.players) {
		return nil, false
	}
	return d.players[id], true
}

// GameID returns the id of this game.
func (d *Dealer) GameID() string {
	return d.gameID
}

// Phase returns the dealer's current phase.
func (d *Dealer) Phase() Phase {
	return Phase(d.phase.Load())
}

// DeckSize returns how many cards remain in the deck.
func (d *Dealer) DeckSize() int {
	return len(d.deck)
}

// SlotSelected routes an input selection to a player. It returns false when
// the player does not exist or rejected the selection.
func (d *Dealer) SlotSelected(playerID, slot int) bool {
	p, ok := d.Player(playerID)
	if !ok {
		d.logger.Warn("Selection for unknown player", "player", playerID, "slot", slot)
		return false
	}
	return p.KeyPressed(slot)
}

// Submit queues a set for validation. It never blocks.
func (d *Dealer) Submit(cs CandidateSet) {
	d.inboxMu.Lock()
	d.inbox = append(d.inbox, cs)
	d.inboxMu.Unlock()
	d.signal()
}

// Terminate asks Run to finish the current round and stop.
func (d *Dealer) Terminate() {
	d.terminate.Store(true)
	d.signal()
}

func (d *Dealer) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dealer) terminated() bool {
	return d.terminate.Load()
}

func (d *Dealer) setPhase(p Phase) {
	d.phase.Store(int32(p))
}

// Run plays rounds until no set remains among the deck and the board, or
// until ctx is cancelled or Terminate is called. Players are started in id
// order and stopped in reverse order before the winners are announced.
func (d *Dealer) Run(ctx context.Context) Result {
	d.startedAt = d.clock.Now()
	d.logger.Info("Dealer starting", "game_id", d.gameID, "players", len(d.players), "deck", len(d.deck))

	// Players are stopped explicitly, one at a time, so they must not see
	// the caller's cancellation.
	playerCtx := context.WithoutCancel(ctx)
	for _, p := range d.players {
		d.display.SetScore(p.ID, 0)
		p.start(playerCtx)
	}

	for !d.shouldFinish() {
		d.rounds++
		d.logger.Info("Round starting", "round", d.rounds, "deck", len(d.deck))
		d.setPhase(PhaseDealing)
		d.placeCards()
		d.updateCountdown(true)
		d.timerLoop(ctx)
		d.setPhase(PhaseClearing)
		d.removeAllCards()
	}

	d.stopPlayers()
	d.setPhase(PhaseFinished)
	result := d.result()
	d.display.AnnounceWinners(result.Winners)
	d.logger.Info("Dealer stopped", "reason", result.Reason, "winners", result.Winners, "rounds", d.rounds)
	return result
}

// shouldFinish reports whether the game is over.
func (d *Dealer) shouldFinish() bool {
	if d.terminated() {
		return true
	}
	remaining := append(slices.Clone(d.deck), d.board.Cards()...)
	return len(d.oracle.FindSets(remaining, 1)) == 0
}

// timerLoop waits for submissions until the turn timer expires.
func (d *Dealer) timerLoop(ctx context.Context) {
	d.setPhase(PhaseAwaiting)
	for !d.terminated() && !d.exhausted && d.clock.Now().Before(d.reshuffleAt) {
		d.sleep(ctx)
		d.setPhase(PhaseCounting)
		d.updateCountdown(false)
		d.processSubmissions()
		d.placeCards()
		d.setPhase(PhaseAwaiting)
	}
	if !d.terminated() && !d.exhausted {
		d.logger.Info("Turn timed out", "round", d.rounds)
	}
	d.exhausted = false
}

// sleep blocks until the next countdown refresh, a submission, or
// termination. Refreshes are coarse until the warning window and fine inside
// it.
func (d *Dealer) sleep(ctx context.Context) {
	remaining := d.clock.Until(d.reshuffleAt)
	if remaining <= 0 {
		return
	}
	var wait time.Duration
	if remaining > d.cfg.TurnTimeoutWarning {
		wait = min(d.cfg.Tick, remaining-d.cfg.TurnTimeoutWarning)
	} else {
		wait = min(d.cfg.WarningTick, remaining)
	}

	t := d.clock.NewTimer(wait, "dealer", "sleep")
	defer t.Stop()
	select {
	case <-ctx.Done():
		d.terminate.Store(true)
	case <-d.wake:
	case <-t.C:
	}
}

// updateCountdown publishes the time left in the turn. With reset it first
// rearms the timer to a full turn.
func (d *Dealer) updateCountdown(reset bool) {
	if reset {
		d.reshuffleAt = d.clock.Now().Add(d.cfg.TurnTimeout)
	}
	remaining := max(d.clock.Until(d.reshuffleAt), 0)
	d.display.SetCountdown(remaining, remaining < d.cfg.TurnTimeoutWarning)
}

// placeCards deals random deck cards into random empty slots until the board
// is full or the deck is empty.
func (d *Dealer) placeCards() {
	empty := d.board.EmptySlots()
	if len(empty) == 0 || len(d.deck) == 0 {
		return
	}

	d.board.Lock()
	placed := 0
	for len(empty) > 0 && len(d.deck) > 0 {
		si := d.rng.IntN(len(empty))
		ci := d.rng.IntN(len(d.deck))
		d.board.PlaceCard(d.deck[ci], empty[si])
		empty = slices.Delete(empty, si, si+1)
		d.deck = slices.Delete(d.deck, ci, ci+1)
		placed++
	}
	d.board.Unlock()

	d.logger.Debug("Cards dealt", "placed", placed, "deck", len(d.deck))
	if d.cfg.Hints {
		d.hints()
	}
}

// hints logs every set currently on the board.
func (d *Dealer) hints() {
	onBoard := d.board.Cards()
	for _, set := range d.oracle.FindSets(onBoard, 0) {
		slots := make([]int, 0, len(set))
		for _, c := range set {
			if s, ok := d.board.SlotOf(c); ok {
				slots = append(slots, s)
			}
		}
		slices.Sort(slots)
		d.logger.Info("Hint", "slots", slots, "cards", set)
	}
}

// removeAllCards returns every card on the board to the deck in random order.
func (d *Dealer) removeAllCards() {
	occupied := d.board.OccupiedSlots()
	if len(occupied) == 0 {
		return
	}
	d.rng.Shuffle(len(occupied), func(i, j int) {
		occupied[i], occupied[j] = occupied[j], occupied[i]
	})

	d.board.Lock()
	for _, s := range occupied {
		c, ok := d.board.Card(s)
		if !ok {
			continue
		}
		d.board.RemoveCard(s)
		d.deck = append(d.deck, c)
	}
	d.board.Unlock()
	d.logger.Debug("Board cleared", "returned", len(occupied), "deck", len(d.deck))
}

// processSubmissions validates queued sets one at a time until the inbox is
// empty.
func (d *Dealer) processSubmissions() {
	for {
		d.inboxMu.Lock()
		if len(d.inbox) == 0 {
			d.inboxMu.Unlock()
			return
		}
		cs := d.inbox[0]
		d.inbox = d.inbox[1:]
		d.inboxMu.Unlock()

		d.validate(cs)
	}
}

// validate judges one submission and always wakes its submitter.
func (d *Dealer) validate(cs CandidateSet) {
	p, ok := d.Player(cs.PlayerID())
	if !ok {
		d.logger.Warn("Submission from unknown player", "set", cs)
		return
	}
	slots := cs.Slots()

	if !d.board.IsLegalSet(slots) || !d.board.HoldsTokens(p.ID, slots) {
		d.logger.Debug("Stale submission", "set", cs)
		p.deliver(Neutral)
		return
	}

	picked := d.board.SlotsToCards(slots)
	if !d.oracle.IsValidSet(picked) {
		d.logger.Info("Invalid set", "player", p.ID, "slots", slots, "cards", picked)
		p.deliver(Penalty)
		return
	}

	d.logger.Info("Valid set", "player", p.ID, "slots", slots, "cards", picked)
	d.board.Lock()
	for _, s := range slots {
		d.board.RemoveCard(s)
	}
	d.board.Unlock()
	d.discarded = append(d.discarded, picked...)
	d.updateCountdown(true)

	remaining := append(slices.Clone(d.deck), d.board.Cards()...)
	if len(d.oracle.FindSets(remaining, 1)) == 0 {
		d.exhausted = true
	}
	p.deliver(Point)
}

// stopPlayers stops players in reverse creation order, joining each before
// the next.
func (d *Dealer) stopPlayers() {
	for i := len(d.players) - 1; i >= 0; i-- {
		p := d.players[i]
		p.stop()
		if d.onPlayerStopped != nil {
			d.onPlayerStopped(p)
		}
	}
}

// winners returns the ids of every player holding the top score.
func (d *Dealer) winners() []int {
	best := -1
	var ids []int
	for _, p := range d.players {
		switch s := p.Score(); {
		case s > best:
			best = s
			ids = []int{p.ID}
		case s == best:
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (d *Dealer) result() Result {
	reason := ReasonNoSets
	if d.terminated() {
		reason = ReasonStopped
	}
	winners := d.winners()
	r := Result{
		GameID:    d.gameID,
		Seed:      d.cfg.Seed,
		StartedAt: d.startedAt,
		EndedAt:   d.clock.Now(),
		Reason:    reason,
		Rounds:    d.rounds,
		Winners:   winners,
		Players:   make([]PlayerResult, 0, len(d.players)),
	}
	for _, p := range d.players {
		r.Players = append(r.Players, PlayerResult{
			ID:     p.ID,
			Name:   p.Name,
			Kind:   p.Kind.String(),
			Score:  p.Score(),
			Winner: slices.Contains(winners, p.ID),
		})
	}
	return r
}
