package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage/models"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage/repository"
)

// Service groups the repositories and the operations spanning several tables.
type Service struct {
	db     *DB
	decks  repository.DeckRepository
	combos repository.ComboRepository
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:     db,
		decks:  repository.NewDeckRepository(db.Conn()),
		combos: repository.NewComboRepository(db.Conn()),
	}
}

// DB returns the underlying database.
func (s *Service) DB() *DB {
	return s.db
}

// Decks returns the deck repository.
func (s *Service) Decks() repository.DeckRepository {
	return s.decks
}

// Combos returns the combo repository.
func (s *Service) Combos() repository.ComboRepository {
	return s.combos
}

// CreateDeck inserts a deck and its cards atomically.
func (s *Service) CreateDeck(ctx context.Context, deck *models.Deck, cards []*models.DeckCard) error {
	return s.saveDeck(ctx, deck, cards, true)
}

// UpdateDeck updates a deck and replaces its cards atomically.
func (s *Service) UpdateDeck(ctx context.Context, deck *models.Deck, cards []*models.DeckCard) error {
	return s.saveDeck(ctx, deck, cards, false)
}

func (s *Service) saveDeck(ctx context.Context, deck *models.Deck, cards []*models.DeckCard, create bool) error {
	return RetryOnBusy(ctx, 3, func() error {
		return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
			decks := repository.NewDeckRepository(tx)
			if create {
				if err := decks.Create(ctx, deck); err != nil {
					return err
				}
			} else if err := decks.Update(ctx, deck); err != nil {
				return err
			}
			if err := decks.ReplaceCards(ctx, deck.ID, cards); err != nil {
				return fmt.Errorf("failed to store cards for deck %s: %w", deck.ID, err)
			}
			return nil
		})
	})
}

// DeckWithCards loads a deck and its cards. The deck is nil when it does not exist.
func (s *Service) DeckWithCards(ctx context.Context, id string) (*models.Deck, []*models.DeckCard, error) {
	deck, err := s.decks.GetByID(ctx, id)
	if err != nil || deck == nil {
		return nil, nil, err
	}
	cards, err := s.decks.GetCards(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return deck, cards, nil
}
