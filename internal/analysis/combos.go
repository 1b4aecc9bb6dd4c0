package analysis

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/combo"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/deck"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage/models"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage/repository"
)

// ComboRequest creates or replaces a saved combo. An empty ID creates a new
// combo; a nil Probability is computed from the deck.
type ComboRequest struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name"`
	Steps       []combo.Step `json:"steps"`
	Probability *float64     `json:"probability,omitempty"`
}

// ListCombos returns the combos saved for a deck.
func (s *Service) ListCombos(ctx context.Context, deckID string) ([]*models.Combo, error) {
	if err := s.requireDeck(ctx, deckID); err != nil {
		return nil, err
	}
	return s.store.Combos().ListByDeck(ctx, deckID)
}

// SaveCombo upserts a combo for a deck.
func (s *Service) SaveCombo(ctx context.Context, deckID string, req ComboRequest) (*models.Combo, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("combo name is required")
	}
	if len(req.Steps) == 0 {
		return nil, invalid("combo needs at least one step")
	}
	for _, st := range req.Steps {
		if st.RequiredCount < 0 {
			return nil, invalid("step %q has a negative required count", st.Name())
		}
	}

	view, err := s.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	steps := numberSteps(req.Steps)

	probability := req.Probability
	if probability == nil {
		p, err := s.comboProbability(ctx, deck.MainDeck(Entries(view.Cards)), steps)
		if err != nil {
			return nil, err
		}
		probability = &p
	}

	now := s.now().UTC()
	c := &models.Combo{
		ID:          req.ID,
		DeckID:      deckID,
		Name:        name,
		Steps:       StepsToModel(steps),
		Probability: probability,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	} else if existing, err := s.store.Combos().GetByID(ctx, deckID, c.ID); err != nil {
		return nil, err
	} else if existing != nil {
		c.CreatedAt = existing.CreatedAt
	}

	if err := s.store.Combos().Upsert(ctx, c); err != nil {
		if errors.Is(err, repository.ErrComboConflict) {
			return nil, invalid("combo id %s belongs to another deck", c.ID)
		}
		return nil, err
	}
	return c, nil
}

// DeleteCombo removes a saved combo.
func (s *Service) DeleteCombo(ctx context.Context, deckID, comboID string) error {
	ok, err := s.store.Combos().Delete(ctx, deckID, comboID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("combo %s in deck %s", comboID, deckID)
	}
	return nil
}

// comboProbability prefers exact enumeration and falls back to sampling when
// the combo is beyond the enumeration limits.
func (s *Service) comboProbability(ctx context.Context, cards []string, steps []combo.Step) (float64, error) {
	exact, err := combo.Exact(cards, steps, s.opts.HandSize)
	if err == nil {
		return exact.Probability, nil
	}
	if !errors.Is(err, combo.ErrTooManySteps) && !errors.Is(err, combo.ErrTooComplex) {
		return 0, err
	}
	s.logger.Debug("exact enumeration unavailable, sampling", zap.Error(err))

	res, err := s.run(ctx, cards, SimulateRequest{Steps: steps})
	if err != nil {
		return 0, err
	}
	return res.Probability, nil
}

func (s *Service) requireDeck(ctx context.Context, deckID string) error {
	d, err := s.store.Decks().GetByID(ctx, deckID)
	if err != nil {
		return err
	}
	if d == nil {
		return notFound("deck %s", deckID)
	}
	return nil
}

// StepsToModel converts combo steps to their stored form.
func StepsToModel(steps []combo.Step) []models.ComboStep {
	out := make([]models.ComboStep, len(steps))
	for i, st := range steps {
		out[i] = models.ComboStep{ID: st.ID, Label: st.Label, Cards: st.AllowedNames, Required: st.RequiredCount}
	}
	return out
}

// StepsFromModel converts stored steps back to combo steps.
func StepsFromModel(steps []models.ComboStep) []combo.Step {
	out := make([]combo.Step, len(steps))
	for i, st := range steps {
		out[i] = combo.Step{ID: st.ID, Label: st.Label, AllowedNames: st.Cards, RequiredCount: st.Required}
	}
	return out
}
