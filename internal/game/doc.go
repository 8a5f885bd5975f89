// Package game runs a real-time game of Set between one dealer and any number
// of human or computer players.
//
// The Dealer owns the deck and the round timer and is the only authority on
// whether a group of cards is a set. Players place and remove tokens on the
// shared board.Board concurrently; when a player holds a full group of tokens
// it sends a CandidateSet to the dealer and waits for an Outcome before it may
// act again.
//
// # Basic Usage
//
//	b := board.New(logger, cfg.BoardConfig(), disp, clock)
//	d := game.NewDealer(logger, cfg, b, cards.NewFeatures(3, 4), disp)
//	d.AddPlayer("alice", game.Human)
//	d.AddPlayer("bot", game.Computer)
//	result := d.Run(ctx)
//
// Run starts one goroutine per player, plus one proposal generator per
// computer player, and returns when the context is cancelled, Terminate is
// called, or no set is left in the deck and on the board. Players are stopped
// in the reverse of the order they were added, each one fully joined before
// the next is asked to stop.
//
// # Input
//
// Key presses from any input source are routed with Dealer.SlotSelected. A
// selection is rejected up front when the player is waiting for the dealer,
// frozen, or when the board is being dealt or cleared.
//
// # Outcomes
//
//   - Point: the cards are removed, the round timer restarts and the player is
//     frozen for Config.PointFreeze.
//   - Penalty: nothing changes on the board, the player is frozen for
//     Config.PenaltyFreeze and then loses its tokens.
//   - Neutral: the group went stale before the dealer got to it (a card was
//     taken or the board was cleared); the player simply resumes.
package game
