package analysis

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/catalog"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage"
)

const ashName = "Ash Blossom & Joyous Spring"

type fakeCatalog struct {
	meta      map[string]catalog.Metadata
	best      map[string]*catalog.Card
	bestCalls int
}

func (f *fakeCatalog) Metadata(_ context.Context, names []string) (map[string]catalog.Metadata, error) {
	out := make(map[string]catalog.Metadata)
	for _, n := range names {
		if m, ok := f.meta[strings.ToLower(n)]; ok {
			out[strings.ToLower(n)] = m
		}
	}
	return out, nil
}

func (f *fakeCatalog) BestMatch(_ context.Context, name string) (*catalog.Card, error) {
	f.bestCalls++
	return f.best[strings.ToLower(name)], nil
}

func newFakeCatalog() *fakeCatalog {
	level := 3
	return &fakeCatalog{
		meta: map[string]catalog.Metadata{
			strings.ToLower(ashName): {Name: ashName, Type: "Tuner Effect Monster", Attribute: "FIRE", Level: &level},
			`maxx "c"`:               {Name: `Maxx "C"`, Type: "Effect Monster"},
		},
		best: map[string]*catalog.Card{
			"ash blosom": {Name: ashName, Type: "Tuner Effect Monster"},
			"maxx c":     {Name: `Maxx "C"`, Type: "Effect Monster"},
		},
	}
}

func setupService(t *testing.T, cat Catalog) *Service {
	t.Helper()

	db, err := storage.Open(storage.DefaultConfig(filepath.Join(t.TempDir(), "analysis.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewService(storage.NewService(db), cat, Options{
		HandSize:      5,
		Iterations:    20_000,
		MaxIterations: 100_000,
		Workers:       2,
	}, nil, nil)
}

// fortyCardDeck imports a 40 card main deck holding three Ash Blossom.
func fortyCardDeck(t *testing.T, svc *Service) *DeckView {
	t.Helper()
	view, err := svc.ImportDeck(context.Background(), ImportRequest{
		Name:      "Test Deck",
		MainList:  ashName + " x3\nFiller x37",
		ExtraList: "Accesscode Talker",
	})
	require.NoError(t, err)
	return view
}
