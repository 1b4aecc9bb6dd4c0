package analysis

import (
	"context"
	"strings"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/deck"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/probability"
)

// Category selects deck cards either by tag or by an explicit name list.
type Category struct {
	Name  string   `json:"name" toml:"name"`
	Tag   string   `json:"tag,omitempty" toml:"tag"`
	Cards []string `json:"cards,omitempty" toml:"cards"`
}

// DistributionRequest asks for draw distributions. With no categories, one
// category per tag present in the main deck is used.
type DistributionRequest struct {
	HandSize   int        `json:"hand_size"`
	Categories []Category `json:"categories,omitempty"`
}

// CategoryDistribution is the draw distribution of one category.
type CategoryDistribution struct {
	Name         string                   `json:"name"`
	Cards        []string                 `json:"cards"`
	Distribution probability.Distribution `json:"distribution"`
	AtLeastOne   float64                  `json:"at_least_one"`
}

// DistributionResult holds one distribution per category.
type DistributionResult struct {
	DeckSize   int                    `json:"deck_size"`
	HandSize   int                    `json:"hand_size"`
	Categories []CategoryDistribution `json:"categories"`
}

// Distributions computes category draw distributions for a stored deck.
func (s *Service) Distributions(ctx context.Context, deckID string, req DistributionRequest) (*DistributionResult, error) {
	view, err := s.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	return s.DistributionForCards(Entries(view.Cards), req)
}

// DistributionForCards computes category draw distributions for inline entries.
func (s *Service) DistributionForCards(entries []deck.Entry, req DistributionRequest) (*DistributionResult, error) {
	handSize := req.HandSize
	if handSize == 0 {
		handSize = s.opts.HandSize
	}
	deckSize := deck.MainCount(entries)
	if deckSize == 0 {
		return nil, invalid("%v", probability.ErrEmptyDeck)
	}
	if handSize < 0 {
		return nil, invalid("%v", probability.ErrInvalidHandSize)
	}

	categories := req.Categories
	if len(categories) == 0 {
		for _, tag := range deck.TagNames(entries) {
			categories = append(categories, Category{Name: tag, Tag: tag})
		}
	}

	result := &DistributionResult{
		DeckSize:   deckSize,
		HandSize:   min(handSize, deckSize),
		Categories: make([]CategoryDistribution, 0, len(categories)),
	}
	for _, c := range categories {
		names, count, err := categoryCards(entries, c)
		if err != nil {
			return nil, err
		}
		dist, err := probability.NewDistribution(deckSize, count, handSize)
		if err != nil {
			return nil, invalid("category %q: %v", c.Name, err)
		}
		result.Categories = append(result.Categories, CategoryDistribution{
			Name:         categoryName(c),
			Cards:        names,
			Distribution: dist,
			AtLeastOne:   dist.AtLeastOne(),
		})
	}
	return result, nil
}

func categoryCards(entries []deck.Entry, c Category) ([]string, int, error) {
	switch {
	case c.Tag != "":
		return nonNil(deck.NamesWithTag(entries, c.Tag)), deck.CountTagged(entries, c.Tag), nil
	case len(c.Cards) > 0:
		return c.Cards, deck.CountNames(entries, c.Cards), nil
	default:
		return nil, 0, invalid("category %q needs a tag or a card list", c.Name)
	}
}

func categoryName(c Category) string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	if c.Tag != "" {
		return c.Tag
	}
	return strings.Join(c.Cards, " / ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
