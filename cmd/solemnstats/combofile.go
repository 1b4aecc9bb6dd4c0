package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/combo"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/deck"
)

// comboFile is the TOML description of what to compute for a deck.
type comboFile struct {
	HandSize   int                 `toml:"hand_size"`
	Iterations int                 `toml:"iterations"`
	Seed       *uint64             `toml:"seed"`
	Steps      []combo.Step        `toml:"step"`
	Categories []analysis.Category `toml:"category"`
}

func loadComboFile(path string) (*comboFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read combo file: %w", err)
	}
	var f comboFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse combo file %s: %w", path, err)
	}
	return &f, nil
}

// loadDeck reads a sectioned deck list. Lines before a header are main deck.
func loadDeck(path string) (*deck.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck file: %w", err)
	}
	doc, err := deck.ParseDocument(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse deck file %s: %w", path, err)
	}
	return doc, nil
}
