package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"

	"github.com/lox/setforbots/cmd/setforbots/shared"
	"github.com/lox/setforbots/internal/board"
	"github.com/lox/setforbots/internal/cards"
	"github.com/lox/setforbots/internal/config"
	"github.com/lox/setforbots/internal/display"
	"github.com/lox/setforbots/internal/game"
	"github.com/lox/setforbots/internal/randutil"
	"github.com/lox/setforbots/internal/results"
	"github.com/lox/setforbots/internal/spectator"
	"github.com/lox/setforbots/internal/tui"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	winnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)
)

// PlayCmd runs one game.
type PlayCmd struct {
	Config       string        `short:"c" default:"setforbots.hcl" help:"HCL config file (defaults apply when missing)"`
	Humans       int           `default:"-1" help:"Number of human players, overriding the config"`
	Bots         int           `default:"-1" help:"Number of computer players, overriding the config"`
	Seed         int64         `help:"Seed for dealing and computer players (0 = config or random)"`
	Hints        bool          `help:"Log every set on the board after each deal"`
	TurnTimeout  time.Duration `help:"Turn timeout, overriding the config"`
	Headless     bool          `help:"Run without the terminal UI, logging game events"`
	Debug        bool          `help:"Enable debug logging"`
	LogFile      string        `help:"Log file used while the terminal UI is active"`
	SpectateAddr string        `help:"Serve a websocket spectator feed on this address"`
	RemoteInput  bool          `help:"Accept slot selections from spectators"`
	ResultsDB    string        `help:"SQLite database to record the result in"`
	WriteResults string        `help:"Write the result as JSON to this file"`
}

// selectorFunc lets the UI surfaces be built before the dealer exists.
type selectorFunc func(player, slot int) bool

func (f selectorFunc) SlotSelected(player, slot int) bool { return f(player, slot) }

func (c *PlayCmd) loadConfig() (*config.Config, game.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, game.Config{}, fmt.Errorf("load config %s: %w", c.Config, err)
	}
	if c.Humans >= 0 || c.Bots >= 0 {
		humans, bots := c.Humans, c.Bots
		if humans < 0 {
			humans = 0
		}
		if bots < 0 {
			bots = 0
		}
		cfg.SetPlayers(humans, bots)
	}
	if c.Headless {
		for _, p := range cfg.Players {
			if p.Kind == game.Human.String() {
				return nil, game.Config{}, errors.New("headless games cannot seat human players")
			}
		}
	}
	if c.Seed != 0 {
		cfg.Game.Seed = c.Seed
	}
	if c.Hints {
		cfg.Game.Hints = true
	}
	if c.TurnTimeout > 0 {
		cfg.Game.TurnTimeout = c.TurnTimeout.String()
	}
	if c.SpectateAddr != "" {
		cfg.Spectator.Address = c.SpectateAddr
	}
	if c.RemoteInput {
		cfg.Spectator.RemoteInput = true
	}
	if c.ResultsDB != "" {
		cfg.Results.Database = c.ResultsDB
	}
	if c.WriteResults != "" {
		cfg.Results.JSONFile = c.WriteResults
	}
	if c.LogFile != "" {
		cfg.Log.File = c.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, game.Config{}, fmt.Errorf("invalid config: %w", err)
	}

	gc, err := cfg.GameConfig()
	if err != nil {
		return nil, game.Config{}, err
	}
	return cfg, gc, nil
}

func (c *PlayCmd) setupLogger(cfg *config.Config) (*log.Logger, io.Closer, error) {
	debug := c.Debug
	if !debug {
		var err error
		if debug, err = shared.ParseLevel(cfg.Log.Level); err != nil {
			return nil, nil, err
		}
	}
	if c.Headless {
		return shared.SetupLogger(debug, os.Stderr), io.NopCloser(nil), nil
	}
	return shared.SetupFileLogger(debug, cfg.Log.File)
}

func (c *PlayCmd) Run() error {
	cfg, gc, err := c.loadConfig()
	if err != nil {
		return err
	}

	logger, closer, err := c.setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	seed, generated := randutil.Seed(gc.Seed)
	gc.Seed = seed
	logger.Info("Starting game", "seed", seed, "generated_seed", generated, "players", len(cfg.Players))

	var dealer *game.Dealer
	selector := selectorFunc(func(player, slot int) bool {
		return dealer.SlotSelected(player, slot)
	})

	sinks := []display.Display{display.NewLog(logger)}

	var hub *spectator.Hub
	if cfg.Spectator.Address != "" {
		var remote spectator.Selector
		if cfg.Spectator.RemoteInput {
			remote = selector
		}
		hub = spectator.NewHub(logger, gc.TableSize, remote)
		sinks = append(sinks, hub)
	}

	oracle := cards.NewFeatures(gc.FeatureSize, cfg.Game.FeatureCount)
	sigCtx, cancelSignals := shared.SetupSignalHandlerWithLogger(logger)
	defer cancelSignals()
	g, gctx := errgroup.WithContext(sigCtx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	var model *tui.Model
	if !c.Headless {
		seats := make([]tui.Seat, 0, len(cfg.Players))
		for i, p := range cfg.Players {
			seats = append(seats, tui.Seat{ID: i, Name: p.Name, Human: p.Kind == game.Human.String()})
		}
		model = tui.NewModel(logger, gc.TableSize, seats, selector, oracle, func() { dealer.Terminate() })
		sinks = append(sinks, model)
	}

	disp := display.NewMulti(sinks...)
	clock := quartz.NewReal()
	b := board.New(logger, gc.BoardConfig(), disp, clock)
	dealer = game.NewDealer(logger, gc, b, oracle, disp, game.WithClock(clock))
	for _, p := range cfg.Players {
		kind, err := game.ParsePlayerKind(p.Kind)
		if err != nil {
			return err
		}
		dealer.AddPlayer(p.Name, kind)
	}

	var program *tea.Program
	if model != nil {
		program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(runCtx))
		g.Go(func() error {
			_, err := program.Run()
			stop()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	}

	if hub != nil {
		g.Go(func() error {
			return hub.ListenAndServe(runCtx, cfg.Spectator.Address)
		})
	}

	var result game.Result
	g.Go(func() error {
		result = dealer.Run(runCtx)
		if program != nil {
			program.Send(tui.GameOverMsg{})
		} else {
			stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if err := c.record(cfg, result, logger); err != nil {
		return err
	}
	printResult(os.Stdout, result)
	return nil
}

func (c *PlayCmd) record(cfg *config.Config, result game.Result, logger *log.Logger) error {
	if path := cfg.Results.Database; path != "" {
		store, err := results.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.RecordGame(context.Background(), result); err != nil {
			return fmt.Errorf("record game: %w", err)
		}
		logger.Info("Result recorded", "database", path, "game_id", result.GameID)
	}
	if path := cfg.Results.JSONFile; path != "" {
		if err := results.ExportJSON(path, result); err != nil {
			return err
		}
		logger.Info("Result written", "file", path)
	}
	return nil
}

func printResult(w io.Writer, r game.Result) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Game %s", r.GameID)))
	fmt.Fprintf(w, "Finished after %d rounds (%s) in %s\n\n", r.Rounds, strings.ReplaceAll(r.Reason, "_", " "),
		r.EndedAt.Sub(r.StartedAt).Round(time.Second))
	for _, p := range r.Players {
		line := fmt.Sprintf("  %-12s %-8s %3d", p.Name, p.Kind, p.Score)
		if p.Winner {
			line = winnerStyle.Render(line + "  winner")
		}
		fmt.Fprintln(w, line)
	}
}
