// Package results persists finished games in SQLite.
package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/lox/setforbots/internal/fileutil"
	"github.com/lox/setforbots/internal/game"
)

var (
	// ErrAlreadyExists is returned when a game id has already been recorded.
	ErrAlreadyExists = errors.New("game already recorded")
	// ErrNotFound is returned when no game has the requested id.
	ErrNotFound = errors.New("game not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id    TEXT PRIMARY KEY,
	seed       INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at   INTEGER NOT NULL,
	reason     TEXT NOT NULL,
	rounds     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS game_players (
	game_id TEXT NOT NULL REFERENCES games(game_id) ON DELETE CASCADE,
	seat    INTEGER NOT NULL,
	name    TEXT NOT NULL,
	kind    TEXT NOT NULL,
	score   INTEGER NOT NULL,
	winner  INTEGER NOT NULL,
	PRIMARY KEY (game_id, seat)
);
CREATE INDEX IF NOT EXISTS games_ended_at ON games(ended_at);
`

// Standing aggregates one player name across recorded games.
type Standing struct {
	Name   string
	Games  int
	Wins   int
	Points int
}

// Store records game results.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("results database path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordGame stores a finished game and its players in one transaction.
func (s *Store) RecordGame(ctx context.Context, r game.Result) error {
	if strings.TrimSpace(r.GameID) == "" {
		return fmt.Errorf("game id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO games (game_id, seed, started_at, ended_at, reason, rounds) VALUES (?, ?, ?, ?, ?, ?)`,
		r.GameID, r.Seed, toMillis(r.StartedAt), toMillis(r.EndedAt), r.Reason, r.Rounds,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert game: %w", err)
	}

	for _, p := range r.Players {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO game_players (game_id, seat, name, kind, score, winner) VALUES (?, ?, ?, ?, ?, ?)`,
			r.GameID, p.ID, p.Name, p.Kind, p.Score, boolToInt(p.Winner),
		)
		if err != nil {
			return fmt.Errorf("insert player %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit game: %w", err)
	}
	return nil
}

// GetGame loads one recorded game.
func (s *Store) GetGame(ctx context.Context, gameID string) (game.Result, error) {
	var r game.Result
	var started, ended int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT game_id, seed, started_at, ended_at, reason, rounds FROM games WHERE game_id = ?`, gameID,
	).Scan(&r.GameID, &r.Seed, &started, &ended, &r.Reason, &r.Rounds)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Result{}, ErrNotFound
	}
	if err != nil {
		return game.Result{}, fmt.Errorf("get game %s: %w", gameID, err)
	}
	r.StartedAt, r.EndedAt = fromMillis(started), fromMillis(ended)

	if err := s.loadPlayers(ctx, &r); err != nil {
		return game.Result{}, err
	}
	return r, nil
}

// RecentGames returns up to limit games, most recently finished first.
func (s *Store) RecentGames(ctx context.Context, limit int) ([]game.Result, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT game_id, seed, started_at, ended_at, reason, rounds FROM games ORDER BY ended_at DESC, game_id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []game.Result
	for rows.Next() {
		var r game.Result
		var started, ended int64
		if err := rows.Scan(&r.GameID, &r.Seed, &started, &ended, &r.Reason, &r.Rounds); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		r.StartedAt, r.EndedAt = fromMillis(started), fromMillis(ended)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	rows.Close()

	for i := range out {
		if err := s.loadPlayers(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Standings totals games, wins and points per player name, best first.
func (s *Store) Standings(ctx context.Context) ([]Standing, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, COUNT(*), SUM(winner), SUM(score) FROM game_players
		 GROUP BY name ORDER BY SUM(winner) DESC, SUM(score) DESC, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var st Standing
		if err := rows.Scan(&st.Name, &st.Games, &st.Wins, &st.Points); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) loadPlayers(ctx context.Context, r *game.Result) error {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seat, name, kind, score, winner FROM game_players WHERE game_id = ? ORDER BY seat`, r.GameID,
	)
	if err != nil {
		return fmt.Errorf("load players for %s: %w", r.GameID, err)
	}
	defer rows.Close()

	r.Players = nil
	r.Winners = nil
	for rows.Next() {
		var p game.PlayerResult
		var winner int
		if err := rows.Scan(&p.ID, &p.Name, &p.Kind, &p.Score, &winner); err != nil {
			return fmt.Errorf("scan player: %w", err)
		}
		p.Winner = winner != 0
		if p.Winner {
			r.Winners = append(r.Winners, p.ID)
		}
		r.Players = append(r.Players, p)
	}
	return rows.Err()
}

// ExportJSON writes r to path as indented JSON.
func ExportJSON(path string, r game.Result) error {
	if err := fileutil.WriteJSONAtomic(path, r); err != nil {
		return fmt.Errorf("export result: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
