package display

import (
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Log writes every notification to a logger. Board and token traffic goes to
// Debug, scores and winners to Info, so a headless game stays readable at the
// default level.
type Log struct {
	logger     *log.Logger
	lastSecond atomic.Int64
}

// NewLog creates a display that reports through logger.
func NewLog(logger *log.Logger) *Log {
	return &Log{logger: logger.WithPrefix("display")}
}

func (l *Log) PlaceCard(card, slot int) {
	l.logger.Debug("Card placed", "card", card, "slot", slot)
}

func (l *Log) RemoveCard(slot int) {
	l.logger.Debug("Card removed", "slot", slot)
}

func (l *Log) PlaceToken(player, slot int) {
	l.logger.Debug("Token placed", "player", player, "slot", slot)
}

func (l *Log) RemoveToken(player, slot int) {
	l.logger.Debug("Token removed", "player", player, "slot", slot)
}

func (l *Log) SetScore(player, score int) {
	l.logger.Info("Score updated", "player", player, "score", score)
}

func (l *Log) SetFreeze(player int, remaining time.Duration) {
	l.logger.Debug("Freeze", "player", player, "remaining", remaining.Round(time.Millisecond))
}

func (l *Log) SetCountdown(remaining time.Duration, warn bool) {
	// Only log once per whole second.
	second := int64(remaining / time.Second)
	if l.lastSecond.Swap(second) == second {
		return
	}
	l.logger.Debug("Countdown", "remaining", remaining.Truncate(time.Second), "warn", warn)
}

func (l *Log) AnnounceWinners(players []int) {
	l.logger.Info("Winners announced", "players", players)
}
