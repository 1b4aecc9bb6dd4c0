// Command solemnstats computes opening-hand odds for Yu-Gi-Oh deck lists
// from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/combo"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/config"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/logging"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, out io.Writer) error {
	switch command {
	case "odds":
		return runOdds(ctx, args, out)
	case "simulate":
		return runSimulate(ctx, args, out, false)
	case "exact":
		return runSimulate(ctx, args, out, true)
	case "chart":
		return runChart(ctx, args, out)
	case "watch":
		return runWatch(ctx, args, out)
	case "backup":
		return runBackup(ctx, args, out)
	case "version":
		fmt.Fprintf(out, "solemnstats %s\n", version.GetVersion())
		return nil
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: solemnstats <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  odds      Draw odds per category (0, 1, 2, 3+ copies)")
	fmt.Fprintln(w, "  simulate  Monte Carlo combo probability")
	fmt.Fprintln(w, "  exact     Exact combo probability")
	fmt.Fprintln(w, "  chart     Write an HTML chart of the category odds")
	fmt.Fprintln(w, "  watch     Re-run odds and combo checks when the files change")
	fmt.Fprintln(w, "  backup    Create or list database backups")
	fmt.Fprintln(w, "  version   Print the build version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'solemnstats <command> -h' for command flags.")
}

// commonFlags are shared by the commands that read a deck and a combo file.
type commonFlags struct {
	deckPath   string
	comboPath  string
	configPath string
	handSize   int
	iterations int
	workers    int
	seed       uint64
	matcher    string
}

func newFlagSet(name string, c *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&c.deckPath, "deck", "", "Deck list file (required)")
	fs.StringVar(&c.comboPath, "combo", "", "Combo TOML file with [[step]] and [[category]] tables")
	fs.StringVar(&c.configPath, "config", "", "Config file (default: ~/.solemnstats/config.toml)")
	fs.IntVar(&c.handSize, "hand", 0, "Opening hand size (default from combo file or config)")
	fs.IntVar(&c.iterations, "iterations", 0, "Monte Carlo iterations (default from combo file or config)")
	fs.IntVar(&c.workers, "workers", 0, "Simulation workers (0 = one per CPU)")
	fs.Uint64Var(&c.seed, "seed", 0, "Random seed for reproducible runs (0 = random)")
	fs.StringVar(&c.matcher, "matcher", "", "Step matcher: backtracking or bipartite")
	return fs
}

// loadConfig reads and validates the config file, falling back to the
// default location.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newService builds an analysis service without storage for file based runs.
func newService(cfg *config.Config) (*analysis.Service, *zap.Logger, error) {
	logCfg := cfg.Log
	logCfg.Format = "console"
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, err
	}

	opts := analysis.Options{
		HandSize:      cfg.Simulation.HandSize,
		Iterations:    cfg.Simulation.Iterations,
		MaxIterations: cfg.Simulation.MaxIterations,
		Workers:       cfg.Simulation.Workers,
	}
	if cfg.Simulation.Matcher != "" {
		m, err := combo.ParseMatcher(cfg.Simulation.Matcher)
		if err != nil {
			return nil, nil, err
		}
		opts.Matcher = m
	}
	return analysis.NewService(nil, nil, opts, nil, logger), logger, nil
}
