package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
)

// printDistribution displays the 0/1/2/3+ odds of each category.
func printDistribution(w io.Writer, dist *analysis.DistributionResult) {
	fmt.Fprintf(w, "Opening Hand Odds (%d cards from %d)\n", dist.HandSize, dist.DeckSize)
	fmt.Fprintln(w, "==================================")
	if len(dist.Categories) == 0 {
		fmt.Fprintln(w, "No categories. Tag cards or add [[category]] tables to the combo file.")
		return
	}

	fmt.Fprintf(w, "%-24s %6s %8s %8s %8s %8s\n", "Category", "Count", "0", "1", "2", "3+")
	for _, c := range dist.Categories {
		p := c.Distribution.Percentages()
		fmt.Fprintf(w, "%-24s %6d %7.2f%% %7.2f%% %7.2f%% %7.2f%%\n",
			truncate(c.Name, 24), c.Distribution.CountInDeck, p[0], p[1], p[2], p[3])
	}
}

// printSimulation displays a combo probability result.
func printSimulation(w io.Writer, cf *comboFile, r *analysis.SimulationResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Combo Probability")
	fmt.Fprintln(w, "=================")
	for i, st := range cf.Steps {
		fmt.Fprintf(w, "  %d. %s: %d of %s\n", i+1, st.Name(), st.RequiredCount, strings.Join(st.AllowedNames, ", "))
	}
	fmt.Fprintln(w)

	switch {
	case r.ShortCircuit != nil:
		fmt.Fprintf(w, "Impossible: %s\n", r.ShortCircuit.Reason)
	case r.Exact != nil:
		fmt.Fprintf(w, "Probability: %.3f%% (exact, %d hand compositions)\n", r.Probability, r.Exact.States)
	case r.MonteCarlo != nil:
		mc := r.MonteCarlo
		fmt.Fprintf(w, "Probability: %.3f%% (%d of %d hands, seed %d, %s)\n",
			r.Probability, mc.Successes, mc.Trials, mc.Seed, mc.Duration.Round(time.Millisecond))
	default:
		fmt.Fprintf(w, "Probability: %.3f%%\n", r.Probability)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
