package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/oddsengine/internal/deck"
	"github.com/lox/oddsengine/internal/profile"
	"github.com/lox/oddsengine/internal/scenario"
	"github.com/lox/oddsengine/internal/simulation"
)

type CLI struct {
	Players  []string `arg:"" optional:"" help:"Player specs: hole cards ('AhKh'), 'random', or 'range:25'"`
	Scenario string   `short:"f" help:"Load the simulation from an HCL scenario file"`
	Variant  string   `default:"holdem" help:"Game variant: holdem or omaha"`
	Trials   int      `short:"n" default:"100000" help:"Number of Monte Carlo trials"`
	Flop     string   `help:"Flop cards, e.g. 'Td7s8h'"`
	Turn     string   `help:"Turn card, e.g. '2c'"`
	River    string   `help:"River card, e.g. 'Qd'"`
	Interval int      `short:"i" default:"10" help:"Progress update interval (positive divisor of 100)"`
	Workers  int      `short:"w" help:"Worker count (0 = number of logical CPUs)"`
	Seed     int64    `help:"RNG seed for reproducible results (0 for random)"`
	Verbose  bool     `short:"v" help:"Verbose logging"`
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	playerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	loseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli)

	logger := log.New(os.Stderr)
	if cli.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	sim, err := buildSimulator(&cli, logger)
	if err != nil {
		logger.Error("Invalid simulation request", "error", err)
		ctx.Exit(1)
	}

	sim.Subscribe(&progressReporter{logger: logger})

	if err := sim.Start(); err != nil {
		logger.Error("Failed to start simulation", "error", err)
		ctx.Exit(1)
	}

	// Ctrl-C cancels the run; the terminal notification still arrives.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("Interrupt received, stopping simulation")
		sim.Stop()
	}()

	<-sim.Done()

	result := sim.Result()
	if result == nil {
		logger.Warn("Simulation cancelled, no result")
		ctx.Exit(1)
	}

	displayResult(result, sim.Board())
}

func buildSimulator(cli *CLI, logger *log.Logger) (*simulation.Simulator, error) {
	if cli.Scenario != "" {
		sc, err := scenario.Load(cli.Scenario)
		if err != nil {
			return nil, err
		}
		return sc.Build(simulation.WithLogger(logger))
	}

	variant, err := simulation.ParseVariant(cli.Variant)
	if err != nil {
		return nil, err
	}

	opts := []simulation.Option{simulation.WithLogger(logger)}
	if cli.Seed != 0 {
		opts = append(opts, simulation.WithSeed(cli.Seed))
	}

	sim, err := simulation.New(variant, cli.Trials, opts...)
	if err != nil {
		return nil, err
	}
	if cli.Workers > 0 {
		if err := sim.SetWorkers(cli.Workers); err != nil {
			return nil, err
		}
	}
	if err := sim.SetUpdateInterval(cli.Interval); err != nil {
		return nil, err
	}

	for i, spec := range cli.Players {
		prof, err := parsePlayerSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", i+1, err)
		}
		if err := sim.AddPlayer(prof); err != nil {
			return nil, fmt.Errorf("player %d: %w", i+1, err)
		}
	}

	if cli.Flop != "" {
		cards, err := deck.ParseCards(cli.Flop)
		if err != nil {
			return nil, fmt.Errorf("flop: %w", err)
		}
		if err := sim.SetFlop(cards); err != nil {
			return nil, err
		}
	}
	if cli.Turn != "" {
		if err := setSingle(cli.Turn, sim.SetTurn); err != nil {
			return nil, fmt.Errorf("turn: %w", err)
		}
	}
	if cli.River != "" {
		if err := setSingle(cli.River, sim.SetRiver); err != nil {
			return nil, fmt.Errorf("river: %w", err)
		}
	}

	return sim, nil
}

func parsePlayerSpec(spec string) (*profile.Profile, error) {
	switch {
	case spec == "random":
		return profile.Random(), nil
	case strings.HasPrefix(spec, "range:"):
		pct, err := strconv.Atoi(strings.TrimPrefix(spec, "range:"))
		if err != nil {
			return nil, fmt.Errorf("invalid range percentage %q", spec)
		}
		return profile.Range(pct), nil
	default:
		cards, err := deck.ParseCards(spec)
		if err != nil {
			return nil, err
		}
		return profile.ExactCards(cards), nil
	}
}

func setSingle(spec string, set func(deck.Card) error) error {
	cards, err := deck.ParseCards(spec)
	if err != nil {
		return err
	}
	if len(cards) != 1 {
		return fmt.Errorf("expected exactly one card, got %d", len(cards))
	}
	return set(cards[0])
}

// progressReporter logs throttled progress updates and the outcome.
type progressReporter struct {
	logger *log.Logger
}

func (r *progressReporter) ProgressChanged(_, newPct int) {
	r.logger.Info("Simulation progress", "pct", newPct)
}

func (r *progressReporter) RunFinished(outcome simulation.Outcome) {
	r.logger.Info("Simulation finished", "outcome", outcome)
}

func displayResult(result *simulation.FinalResult, board []deck.Card) {
	if len(board) > 0 {
		fmt.Printf("%s\n%s\n\n", headerStyle.Render("board"), formatCards(board))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("player"),
		headerStyle.Render("win"),
		headerStyle.Render("tie"),
		headerStyle.Render("lose"))

	for _, p := range result.Players {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			playerStyle.Render(p.Profile.String()),
			winStyle.Render(fmt.Sprintf("%.1f%%", p.Win)),
			tieStyle.Render(fmt.Sprintf("%.1f%%", p.Tie)),
			loseStyle.Render(fmt.Sprintf("%.1f%%", p.Lose)))
	}
	w.Flush()

	fmt.Printf("\n%d trials in %v\n", result.Trials, result.Elapsed)
}

func formatCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = card.String()
	}
	return strings.Join(parts, " ")
}
