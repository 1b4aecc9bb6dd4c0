package analysis

import (
	"context"
	"math/rand/v2"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/combo"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/deck"
)

// SampleHand is one random opening hand and the card that would be drawn next.
type SampleHand struct {
	Hand     []string `json:"hand"`
	Next     string   `json:"next,omitempty"`
	Seed     uint64   `json:"seed"`
	DeckSize int      `json:"deck_size"`
	// Combos reports, per saved combo ID, whether the hand satisfies it.
	Combos map[string]bool `json:"combos,omitempty"`
}

// SampleHand shuffles the main deck of a stored deck and deals a hand.
// A nil seed draws a random one.
func (s *Service) SampleHand(ctx context.Context, deckID string, handSize int, seed *uint64) (*SampleHand, error) {
	view, err := s.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	cards := deck.MainDeck(Entries(view.Cards))
	if len(cards) == 0 {
		return nil, invalid("deck %s has no main deck cards", deckID)
	}
	if handSize == 0 {
		handSize = s.opts.HandSize
	}
	if handSize < 0 {
		return nil, invalid("hand size must be positive, got %d", handSize)
	}
	if len(cards) < handSize {
		return nil, &combo.InfeasibleDeckError{DeckSize: len(cards), HandSize: handSize}
	}

	var sd uint64
	if seed != nil {
		sd = *seed
	} else if sd, err = combo.NewSeed(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(sd, 0))
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })

	hand := &SampleHand{
		Hand:     cards[:handSize],
		Seed:     sd,
		DeckSize: len(cards),
	}
	if handSize < len(cards) {
		hand.Next = cards[handSize]
	}

	combos, err := s.store.Combos().ListByDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if len(combos) > 0 {
		hand.Combos = make(map[string]bool, len(combos))
		for _, c := range combos {
			hand.Combos[c.ID] = combo.Satisfies(hand.Hand, StepsFromModel(c.Steps))
		}
	}
	return hand, nil
}
