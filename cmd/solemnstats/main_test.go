package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDeck = `#main
Ash Blossom & Joyous Spring x3
Filler x37
#extra
Accesscode Talker
`

const testCombo = `hand_size = 5
iterations = 10000

[[step]]
label = "Handtrap"
cards = ["Ash Blossom & Joyous Spring"]
required = 1

[[category]]
name = "Handtraps"
cards = ["Ash Blossom & Joyous Spring"]
`

type fixture struct {
	dir, deck, combo, config string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		deck:   filepath.Join(dir, "deck.txt"),
		combo:  filepath.Join(dir, "combo.toml"),
		config: filepath.Join(dir, "config.toml"),
	}
	require.NoError(t, os.WriteFile(f.deck, []byte(testDeck), 0o644))
	require.NoError(t, os.WriteFile(f.combo, []byte(testCombo), 0o644))
	cfg := "[storage]\npath = " + `"` + filepath.ToSlash(filepath.Join(dir, "data.db")) + `"` + "\n"
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0o644))
	return f
}

func (f fixture) run(t *testing.T, command string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), command, args, &out)
	return out.String(), err
}

func TestLoadComboFile(t *testing.T) {
	f := newFixture(t)
	cf, err := loadComboFile(f.combo)
	require.NoError(t, err)

	assert.Equal(t, 5, cf.HandSize)
	assert.Equal(t, 10000, cf.Iterations)
	require.Len(t, cf.Steps, 1)
	assert.Equal(t, "Handtrap", cf.Steps[0].Label)
	assert.Equal(t, []string{"Ash Blossom & Joyous Spring"}, cf.Steps[0].AllowedNames)
	assert.Equal(t, 1, cf.Steps[0].RequiredCount)
	require.Len(t, cf.Categories, 1)
	assert.Equal(t, "Handtraps", cf.Categories[0].Name)
}

func TestOdds(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "odds", "-deck", f.deck, "-combo", f.combo, "-config", f.config)
	require.NoError(t, err)

	assert.Contains(t, out, "Opening Hand Odds (5 cards from 40)")
	assert.Contains(t, out, "Handtraps")
}

func TestExact(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "exact", "-deck", f.deck, "-combo", f.combo, "-config", f.config)
	require.NoError(t, err)

	assert.Contains(t, out, "1. Handtrap: 1 of Ash Blossom & Joyous Spring")
	assert.Contains(t, out, "33.755%")
	assert.Contains(t, out, "exact")
}

func TestSimulate(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "simulate", "-deck", f.deck, "-combo", f.combo, "-config", f.config,
		"-seed", "42", "-iterations", "5000", "-workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "of 5000 hands, seed 42")

	again, err := f.run(t, "simulate", "-deck", f.deck, "-combo", f.combo, "-config", f.config,
		"-seed", "42", "-iterations", "5000", "-workers", "2")
	require.NoError(t, err)
	probability := func(s string) string {
		i := strings.Index(s, "Probability:")
		require.GreaterOrEqual(t, i, 0)
		return s[i : i+strings.Index(s[i:], "%")]
	}
	assert.Equal(t, probability(out), probability(again))
}

func TestSimulate_Impossible(t *testing.T) {
	f := newFixture(t)
	combo := filepath.Join(f.dir, "missing.toml")
	require.NoError(t, os.WriteFile(combo, []byte(`
[[step]]
label = "Starter"
cards = ["Not In Deck"]
required = 1
`), 0o644))

	out, err := f.run(t, "simulate", "-deck", f.deck, "-combo", combo, "-config", f.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Impossible:")
}

func TestCommandErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "odds", "-config", f.config)
	assert.ErrorContains(t, err, "-deck is required")

	_, err = f.run(t, "simulate", "-deck", f.deck, "-config", f.config)
	assert.ErrorContains(t, err, "no [[step]]")

	_, err = f.run(t, "exact", "-deck", filepath.Join(f.dir, "nope.txt"), "-config", f.config)
	assert.Error(t, err)

	_, err = f.run(t, "frobnicate")
	assert.ErrorContains(t, err, "unknown command")
}

func TestVersion(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "solemnstats ")
}

func TestChart(t *testing.T) {
	f := newFixture(t)
	outPath := filepath.Join(f.dir, "odds.html")
	out, err := f.run(t, "chart", "-deck", f.deck, "-combo", f.combo, "-config", f.config, "-out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, outPath)

	html, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Handtraps")
}

func TestBackup(t *testing.T) {
	f := newFixture(t)
	backups := filepath.Join(f.dir, "backups")

	out, err := f.run(t, "backup", "-config", f.config, "-dir", backups, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No backups found.")

	out, err = f.run(t, "backup", "-config", f.config, "-dir", backups, "create")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup created:")

	out, err = f.run(t, "backup", "-config", f.config, "-dir", backups, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "backup_")
}
