package game

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/setforbots/internal/board"
	"github.com/lox/setforbots/internal/display"
)

// PlayerKind distinguishes keyboard-driven players from generated ones.
type PlayerKind int

const (
	Human PlayerKind = iota
	Computer
)

func (k PlayerKind) String() string {
	switch k {
	case Human:
		return "human"
	case Computer:
		return "computer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParsePlayerKind accepts "human" or "computer" (also "bot" and "ai").
func ParsePlayerKind(s string) (PlayerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human":
		return Human, nil
	case "computer", "bot", "ai":
		return Computer, nil
	default:
		return 0, fmt.Errorf("unknown player kind %q", s)
	}
}

// PlayerState is where a player is in its action loop.
type PlayerState int32

const (
	StateIdle PlayerState = iota
	StateActionPending
	StateAwaitingDealer
	StateFrozenPoint
	StateFrozenPenalty
)

func (s PlayerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActionPending:
		return "action_pending"
	case StateAwaitingDealer:
		return "awaiting_dealer"
	case StateFrozenPoint:
		return "frozen_point"
	case StateFrozenPenalty:
		return "frozen_penalty"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type submitter interface {
	Submit(CandidateSet)
}

// Player places tokens on the board from its own goroutine. Computer players
// run a second goroutine that proposes random slots one at a time.
type Player struct {
	ID   int
	Name string
	Kind PlayerKind

	cfg     Config
	board   *board.Board
	dealer  submitter
	display display.Display
	logger  *log.Logger
	clock   quartz.Clock
	rng     *rand.Rand

	actions chan int
	outcome chan Outcome
	genWake chan struct{}

	state         atomic.Int32
	freezeOutcome atomic.Int32
	score         atomic.Int64

	cancel  context.CancelFunc
	done    chan struct{}
	genDone chan struct{}
}

func newPlayer(id int, name string, kind PlayerKind, cfg Config, b *board.Board, dealer submitter,
	disp display.Display, logger *log.Logger, clock quartz.Clock, rng *rand.Rand,
) *Player {
	p := &Player{
		ID:      id,
		Name:    name,
		Kind:    kind,
		cfg:     cfg,
		board:   b,
		dealer:  dealer,
		display: disp,
		logger:  logger.WithPrefix("player").With("player", id, "name", name),
		clock:   clock,
		rng:     rng,
		actions: make(chan int, cfg.FeatureSize),
		outcome: make(chan Outcome, 1),
		genWake: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if kind == Computer {
		p.genDone = make(chan struct{})
	}
	return p
}

// Score returns the number of sets the player has found.
func (p *Player) Score() int {
	return int(p.score.Load())
}

// State returns the player's current loop state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// FreezeOutcome returns the verdict the player is currently serving.
func (p *Player) FreezeOutcome() Outcome {
	return Outcome(p.freezeOutcome.Load())
}

// Done is closed once the player's goroutines have exited.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

func (p *Player) setState(s PlayerState) {
	p.state.Store(int32(s))
}

// eligible reports whether a new selection may be queued.
func (p *Player) eligible() bool {
	switch p.State() {
	case StateIdle, StateActionPending:
	default:
		return false
	}
	return p.FreezeOutcome() == Neutral && !p.board.Busy()
}

// KeyPressed queues a slot selection from an input device. It returns false
// when the selection was rejected: computer players ignore key presses, and a
// human player refuses input while frozen, waiting for the dealer, or while
// the board is busy.
func (p *Player) KeyPressed(slot int) bool {
	if p.Kind != Human {
		p.logger.Warn("Key press for a computer player ignored", "slot", slot)
		return false
	}
	if slot < 0 || slot >= p.board.Size() {
		p.logger.Warn("Key press outside the board", "slot", slot)
		return false
	}
	return p.offer(slot)
}

func (p *Player) offer(slot int) bool {
	if !p.eligible() {
		p.logger.Warn("Selection rejected while blocked", "slot", slot, "state", p.State(), "busy", p.board.Busy())
		return false
	}
	select {
	case p.actions <- slot:
		return true
	default:
		p.logger.Warn("Selection queue full", "slot", slot)
		return false
	}
}

// deliver posts the dealer's verdict. There is at most one submission in
// flight per player, so the buffered send never blocks.
func (p *Player) deliver(o Outcome) {
	p.freezeOutcome.Store(int32(o))
	select {
	case p.outcome <- o:
	default:
		p.logger.Error("Outcome dropped, previous outcome still pending", "outcome", o)
	}
}

func (p *Player) start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.run(ctx)
}

// stop asks the player to exit and waits until it has.
func (p *Player) stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *Player) run(ctx context.Context) {
	defer close(p.done)
	p.logger.Info("Player starting", "kind", p.Kind)

	if p.Kind == Computer {
		go p.generate(ctx)
	}

	p.loop(ctx)

	if p.Kind == Computer {
		<-p.genDone
	}
	p.logger.Info("Player stopped", "score", p.Score())
}

func (p *Player) loop(ctx context.Context) {
	for {
		if p.Kind == Computer {
			p.wakeGenerator()
		}
		select {
		case <-ctx.Done():
			return
		case slot := <-p.actions:
			p.execute(ctx, slot)
		}
	}
}

// execute applies one selection and, when it completes a group, submits the
// group and serves the dealer's verdict.
func (p *Player) execute(ctx context.Context, slot int) {
	if p.board.Busy() {
		p.logger.Debug("Board busy, selection dropped", "slot", slot)
		return
	}

	p.setState(StateActionPending)
	defer p.setState(StateIdle)

	if !p.board.PlaceOrRemoveToken(p.ID, slot) {
		return
	}
	if p.board.TokenCount(p.ID) < p.cfg.FeatureSize {
		return
	}
	slots := p.board.TokenSlots(p.ID)
	if len(slots) != p.cfg.FeatureSize {
		// A card was taken between the toggle and the read.
		return
	}

	p.setState(StateAwaitingDealer)
	p.discardPending()
	p.logger.Debug("Submitting set", "slots", slots)
	p.dealer.Submit(NewCandidateSet(p.ID, slots))

	var o Outcome
	select {
	case o = <-p.outcome:
	case <-ctx.Done():
		// The verdict may have been delivered just before the stop.
		select {
		case o = <-p.outcome:
		default:
			return
		}
	}
	p.serve(ctx, o)
}

// discardPending drops selections made before the group was complete; they
// refer to a board that is about to change.
func (p *Player) discardPending() {
	for {
		select {
		case slot := <-p.actions:
			p.logger.Debug("Pending selection discarded", "slot", slot)
		default:
			return
		}
	}
}

func (p *Player) serve(ctx context.Context, o Outcome) {
	defer p.freezeOutcome.Store(int32(Neutral))

	switch o {
	case Point:
		score := p.score.Add(1)
		p.display.SetScore(p.ID, int(score))
		p.logger.Info("Point", "score", score)
		p.setState(StateFrozenPoint)
		p.freeze(ctx, p.cfg.PointFreeze)
	case Penalty:
		p.logger.Info("Penalty", "freeze", p.cfg.PenaltyFreeze)
		p.setState(StateFrozenPenalty)
		p.freeze(ctx, p.cfg.PenaltyFreeze)
		p.board.RemoveTokens(p.ID)
	default:
		p.logger.Debug("Submission went stale, resuming")
	}
}

// freeze blocks for d while refreshing the remaining time on the display. It
// returns early when ctx is cancelled.
func (p *Player) freeze(ctx context.Context, d time.Duration) {
	defer p.display.SetFreeze(p.ID, 0)

	deadline := p.clock.Now().Add(d)
	for {
		remaining := p.clock.Until(deadline)
		if remaining <= 0 {
			return
		}
		p.display.SetFreeze(p.ID, remaining)
		if !p.sleep(ctx, min(remaining, p.cfg.FreezeTick)) {
			return
		}
	}
}

// sleep waits for d and reports false if ctx was cancelled first.
func (p *Player) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := p.clock.NewTimer(d, "player", "sleep")
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (p *Player) wakeGenerator() {
	select {
	case p.genWake <- struct{}{}:
	default:
	}
}

// generate proposes one random slot per wake. While the player is not
// eligible it keeps waiting ComputerDelay between checks, but it never
// queues a second proposal for the same wake.
func (p *Player) generate(ctx context.Context) {
	defer close(p.genDone)
	p.logger.Debug("Generator starting")
	defer p.logger.Debug("Generator stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.genWake:
		}

		for {
			if !p.sleep(ctx, p.cfg.ComputerDelay) {
				return
			}
			if !p.eligible() {
				continue
			}
			slot := p.rng.IntN(p.board.Size())
			select {
			case p.actions <- slot:
			default:
			}
			break
		}
	}
}
