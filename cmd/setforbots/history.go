package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lox/setforbots/internal/game"
	"github.com/lox/setforbots/internal/results"
)

// HistoryCmd lists games recorded in a results database.
type HistoryCmd struct {
	DB        string `default:"setforbots.db" help:"SQLite results database"`
	Limit     int    `short:"n" default:"10" help:"Number of recent games to list"`
	Standings bool   `help:"Show per-player totals instead of recent games"`
}

func (c *HistoryCmd) Run() error {
	if _, err := os.Stat(c.DB); err != nil {
		return fmt.Errorf("results database %s: %w", c.DB, err)
	}
	store, err := results.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if c.Standings {
		standings, err := store.Standings(ctx)
		if err != nil {
			return err
		}
		printStandings(os.Stdout, standings)
		return nil
	}

	games, err := store.RecentGames(ctx, c.Limit)
	if err != nil {
		return err
	}
	printGames(os.Stdout, games)
	return nil
}

func printGames(w io.Writer, games []game.Result) {
	fmt.Fprintln(w, titleStyle.Render("Recent games"))
	if len(games) == 0 {
		fmt.Fprintln(w, "no games recorded")
		return
	}
	for _, g := range games {
		var names []string
		for _, p := range g.Players {
			entry := fmt.Sprintf("%s %d", p.Name, p.Score)
			if p.Winner {
				entry = winnerStyle.Render(entry)
			}
			names = append(names, entry)
		}
		fmt.Fprintf(w, "%s  %s  %-8s %3d rounds  %s\n",
			g.EndedAt.Local().Format(time.DateTime), g.GameID, g.Reason, g.Rounds, strings.Join(names, ", "))
	}
}

func printStandings(w io.Writer, standings []results.Standing) {
	fmt.Fprintln(w, titleStyle.Render("Standings"))
	if len(standings) == 0 {
		fmt.Fprintln(w, "no games recorded")
		return
	}
	fmt.Fprintf(w, "  %-12s %5s %5s %6s\n", "player", "games", "wins", "points")
	for _, s := range standings {
		fmt.Fprintf(w, "  %-12s %5d %5d %6d\n", s.Name, s.Games, s.Wins, s.Points)
	}
}
