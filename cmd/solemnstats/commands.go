package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/charts"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/deck"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/watch"
)

// session holds the inputs shared by one command invocation.
type session struct {
	flags commonFlags
	svc   *analysis.Service
	deck  *deck.Document
	combo *comboFile
}

func openSession(c commonFlags) (*session, error) {
	if c.deckPath == "" {
		return nil, errors.New("-deck is required")
	}
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	svc, _, err := newService(cfg)
	if err != nil {
		return nil, err
	}
	s := &session{flags: c, svc: svc}
	return s, s.reload()
}

// reload re-reads the deck and combo files.
func (s *session) reload() error {
	doc, err := loadDeck(s.flags.deckPath)
	if err != nil {
		return err
	}
	cf := &comboFile{}
	if s.flags.comboPath != "" {
		if cf, err = loadComboFile(s.flags.comboPath); err != nil {
			return err
		}
	}
	s.deck, s.combo = doc, cf
	return nil
}

// handSize resolves flag, then combo file. Zero leaves the config default.
func (s *session) handSize() int {
	if s.flags.handSize > 0 {
		return s.flags.handSize
	}
	return s.combo.HandSize
}

func (s *session) distribution() (*analysis.DistributionResult, error) {
	return s.svc.DistributionForCards(s.deck.Entries, analysis.DistributionRequest{
		HandSize:   s.handSize(),
		Categories: s.combo.Categories,
	})
}

func (s *session) simulate(ctx context.Context, exact bool) (*analysis.SimulationResult, error) {
	if len(s.combo.Steps) == 0 {
		return nil, errors.New("combo file has no [[step]] tables")
	}
	req := analysis.SimulateRequest{
		Steps:      s.combo.Steps,
		HandSize:   s.handSize(),
		Iterations: s.combo.Iterations,
		Seed:       s.combo.Seed,
		Workers:    s.flags.workers,
		Matcher:    s.flags.matcher,
		Exact:      exact,
	}
	if s.flags.iterations > 0 {
		req.Iterations = s.flags.iterations
	}
	if s.flags.seed != 0 {
		seed := s.flags.seed
		req.Seed = &seed
	}
	return s.svc.SimulateCards(ctx, s.deck.Entries, req)
}

func parseCommon(name string, args []string, extra func(*flag.FlagSet)) (commonFlags, error) {
	var c commonFlags
	fs := newFlagSet(name, &c)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	return c, nil
}

func runOdds(_ context.Context, args []string, out io.Writer) error {
	c, err := parseCommon("odds", args, nil)
	if err != nil {
		return err
	}
	s, err := openSession(c)
	if err != nil {
		return err
	}
	dist, err := s.distribution()
	if err != nil {
		return err
	}
	printDistribution(out, dist)
	return nil
}

func runSimulate(ctx context.Context, args []string, out io.Writer, exact bool) error {
	name := "simulate"
	if exact {
		name = "exact"
	}
	c, err := parseCommon(name, args, nil)
	if err != nil {
		return err
	}
	s, err := openSession(c)
	if err != nil {
		return err
	}
	result, err := s.simulate(ctx, exact)
	if err != nil {
		return err
	}
	printSimulation(out, s.combo, result)
	return nil
}

func runChart(_ context.Context, args []string, out io.Writer) error {
	var (
		outPath string
		open    bool
	)
	c, err := parseCommon("chart", args, func(fs *flag.FlagSet) {
		fs.StringVar(&outPath, "out", "odds.html", "Output HTML file")
		fs.BoolVar(&open, "open", false, "Open the chart in the default browser")
	})
	if err != nil {
		return err
	}
	s, err := openSession(c)
	if err != nil {
		return err
	}
	dist, err := s.distribution()
	if err != nil {
		return err
	}

	cats := make([]charts.Category, len(dist.Categories))
	for i, cat := range dist.Categories {
		cats[i] = charts.Category{Name: cat.Name, Distribution: cat.Distribution}
	}
	cfg := charts.DefaultChartConfig()
	cfg.Title = "Opening hand odds"
	cfg.Subtitle = fmt.Sprintf("%d cards from a %d card deck", dist.HandSize, dist.DeckSize)

	if err := charts.RenderToFile(outPath, func(w io.Writer) error {
		return charts.RenderDistribution(w, cats, cfg)
	}); err != nil {
		return err
	}
	fmt.Fprintf(out, "Chart written to %s\n", outPath)
	if open {
		return charts.OpenInBrowser(outPath)
	}
	return nil
}

func runWatch(ctx context.Context, args []string, out io.Writer) error {
	var debounce time.Duration
	c, err := parseCommon("watch", args, func(fs *flag.FlagSet) {
		fs.DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before re-running")
	})
	if err != nil {
		return err
	}
	s, err := openSession(c)
	if err != nil {
		return err
	}

	paths := []string{c.deckPath}
	if c.comboPath != "" {
		paths = append(paths, c.comboPath)
	}
	w, err := watch.New(paths, debounce, nil)
	if err != nil {
		return err
	}

	s.report(ctx, out)
	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", strings.Join(paths, ", "))
	return w.Run(ctx, func(ctx context.Context, path string) error {
		fmt.Fprintf(out, "\n%s changed\n", path)
		if err := s.reload(); err != nil {
			return err
		}
		s.report(ctx, out)
		return nil
	})
}

// report prints the odds and, when the combo file has steps, the exact
// combo probability, falling back to a simulation.
func (s *session) report(ctx context.Context, out io.Writer) {
	if dist, err := s.distribution(); err == nil {
		printDistribution(out, dist)
	} else {
		fmt.Fprintf(out, "Odds: %v\n", err)
	}
	if len(s.combo.Steps) == 0 {
		return
	}
	result, err := s.simulate(ctx, true)
	if err != nil {
		result, err = s.simulate(ctx, false)
	}
	if err != nil {
		fmt.Fprintf(out, "Combo: %v\n", err)
		return
	}
	printSimulation(out, s.combo, result)
}

func runBackup(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file (default: ~/.solemnstats/config.toml)")
	dir := fs.String("dir", "", "Backup directory (default: next to the database)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	action := "create"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	dbCfg := storage.DefaultConfig(cfg.Storage.Path)
	dbCfg.BusyTimeout = cfg.BusyTimeout()
	db, err := storage.Open(dbCfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	switch action {
	case "create":
		info, err := db.Backup(ctx, *dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Backup created: %s (%d bytes, sha256 %s)\n", info.Path, info.Size, info.Checksum)
		return nil
	case "list", "ls":
		backups, err := db.ListBackups(*dir)
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Fprintln(out, "No backups found.")
			return nil
		}
		for _, b := range backups {
			fmt.Fprintf(out, "%s  %s  %d bytes\n", b.ModTime.Format("2006-01-02 15:04:05"), b.Name, b.Size)
		}
		return nil
	default:
		return fmt.Errorf("unknown backup action %q (use create or list)", action)
	}
}
