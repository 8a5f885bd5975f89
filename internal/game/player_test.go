package game

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/setforbots/internal/display"
)

func TestParsePlayerKind(t *testing.T) {
	tests := []struct {
		in      string
		want    PlayerKind
		wantErr bool
	}{
		{"human", Human, false},
		{"Computer", Computer, false},
		{" bot ", Computer, false},
		{"robot", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePlayerKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyPressedRejections(t *testing.T) {
	g := newTestGame(t, testConfig(), quartz.NewMock(t), 4)
	human := g.dealer.AddPlayer("alice", Human)
	bot := g.dealer.AddPlayer("bot", Computer)

	assert.False(t, bot.KeyPressed(0), "computer players take no key presses")
	assert.False(t, human.KeyPressed(-1))
	assert.False(t, human.KeyPressed(12))

	g.board.Lock()
	assert.False(t, human.KeyPressed(0), "board busy")
	g.board.Unlock()

	human.setState(StateAwaitingDealer)
	assert.False(t, human.KeyPressed(0))
	human.setState(StateFrozenPenalty)
	assert.False(t, human.KeyPressed(0))
	human.setState(StateIdle)

	// The queue holds one group's worth of selections.
	for i := 0; i < 3; i++ {
		assert.True(t, human.KeyPressed(i))
	}
	assert.False(t, human.KeyPressed(3), "queue full")
}

func TestPlayerScoresPoint(t *testing.T) {
	g := newTestGame(t, testConfig(), quartz.NewReal(), 4)
	p := g.dealer.AddPlayer("alice", Human)
	g.deal(t, validCards...)

	p.start(context.Background())
	defer p.stop()

	for slot := 0; slot < 3; slot++ {
		require.True(t, p.KeyPressed(slot))
	}

	require.Eventually(t, func() bool {
		g.dealer.inboxMu.Lock()
		defer g.dealer.inboxMu.Unlock()
		return len(g.dealer.inbox) == 1
	}, 5*time.Second, time.Millisecond, "set submitted")
	assert.Equal(t, StateAwaitingDealer, p.State())
	assert.False(t, p.KeyPressed(5), "no input while awaiting the dealer")

	g.dealer.processSubmissions()

	require.Eventually(t, func() bool {
		return p.Score() == 1 && p.State() == StateIdle
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, Neutral, p.FreezeOutcome())

	score, ok := g.rec.Last(display.EventSetScore)
	require.True(t, ok)
	assert.Equal(t, 1, score.Score)

	freeze, ok := g.rec.Last(display.EventSetFreeze)
	require.True(t, ok)
	assert.Zero(t, freeze.Remaining, "freeze display cleared")
	assert.Equal(t, 0, g.board.CountCards())
}

func TestPlayerPenaltyFreezesAndClearsTokens(t *testing.T) {
	g := newTestGame(t, testConfig(), quartz.NewReal(), 4)
	p := g.dealer.AddPlayer("alice", Human)
	g.deal(t, 0, 1, 5, 7)

	p.start(context.Background())
	defer p.stop()

	for slot := 0; slot < 3; slot++ {
		require.True(t, p.KeyPressed(slot))
	}
	require.Eventually(t, func() bool {
		return p.State() == StateAwaitingDealer
	}, 5*time.Second, time.Millisecond)

	g.dealer.processSubmissions()

	require.Eventually(t, func() bool {
		return p.State() == StateFrozenPenalty
	}, 5*time.Second, time.Millisecond)
	assert.False(t, p.KeyPressed(3), "no input while frozen")
	assert.Equal(t, 3, g.board.TokenCount(p.ID), "tokens stay during the freeze")

	require.Eventually(t, func() bool {
		return p.State() == StateIdle
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, 0, p.Score())
	assert.Equal(t, 0, g.board.TokenCount(p.ID))
	assert.Equal(t, 4, g.board.CountCards())
	assert.True(t, p.KeyPressed(3), "eligible again after the freeze")
}

func TestPlayerTogglesWithoutSubmitting(t *testing.T) {
	g := newTestGame(t, testConfig(), quartz.NewReal(), 4)
	p := g.dealer.AddPlayer("alice", Human)
	g.deal(t, validCards...)

	p.start(context.Background())
	defer p.stop()

	require.True(t, p.KeyPressed(0))
	require.True(t, p.KeyPressed(1))
	require.Eventually(t, func() bool {
		return g.board.TokenCount(p.ID) == 2
	}, 5*time.Second, time.Millisecond)

	require.True(t, p.KeyPressed(1))
	require.Eventually(t, func() bool {
		return g.board.TokenCount(p.ID) == 1
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, []int{0}, g.board.TokenSlots(p.ID))
}

func TestComputerPlayerPlacesTokens(t *testing.T) {
	g := newTestGame(t, testConfig(), quartz.NewReal(), 4)
	p := g.dealer.AddPlayer("bot", Computer)
	g.dealer.placeCards()

	p.start(context.Background())

	require.Eventually(t, func() bool {
		return g.rec.Count(display.EventPlaceToken) > 0
	}, 5*time.Second, time.Millisecond)
	assert.LessOrEqual(t, g.board.TokenCount(p.ID), 3)

	p.stop()
	select {
	case <-p.genDone:
	default:
		t.Fatal("generator still running after stop")
	}
}

func TestStopUnblocksAwaitingPlayer(t *testing.T) {
	g := newTestGame(t, testConfig(), quartz.NewReal(), 4)
	p := g.dealer.AddPlayer("alice", Human)
	g.deal(t, validCards...)

	p.start(context.Background())
	for slot := 0; slot < 3; slot++ {
		require.True(t, p.KeyPressed(slot))
	}
	require.Eventually(t, func() bool {
		return p.State() == StateAwaitingDealer
	}, 5*time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		p.stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not unblock a player waiting for the dealer")
	}
}
