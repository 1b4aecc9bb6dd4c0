package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage/models"
)

// DeckRepository handles database operations for decks and their cards.
type DeckRepository interface {
	// Create inserts a new deck.
	Create(ctx context.Context, deck *models.Deck) error

	// Update updates the name, raw list and card total of an existing deck.
	Update(ctx context.Context, deck *models.Deck) error

	// GetByID retrieves a deck by its ID. Returns nil when it does not exist.
	GetByID(ctx context.Context, id string) (*models.Deck, error)

	// List retrieves all decks, newest first.
	List(ctx context.Context) ([]*models.Deck, error)

	// Delete deletes a deck and, through the foreign keys, its cards and combos.
	Delete(ctx context.Context, id string) error

	// ReplaceCards deletes the cards of a deck and inserts the given ones.
	// Run it on a transaction to make the swap atomic.
	ReplaceCards(ctx context.Context, deckID string, cards []*models.DeckCard) error

	// GetCards retrieves all cards in a deck in insertion order.
	GetCards(ctx context.Context, deckID string) ([]*models.DeckCard, error)

	// GetCard retrieves a single card of a deck. Returns nil when it does not exist.
	GetCard(ctx context.Context, deckID string, cardID int64) (*models.DeckCard, error)

	// UpdateCardTags replaces the tags of one card. Returns false when the card does not exist.
	UpdateCardTags(ctx context.Context, deckID string, cardID int64, tags []string) (bool, error)

	// UpdateTagsByName replaces the tags of every card in the deck whose name
	// matches cardName case-insensitively, returning the updated card IDs.
	UpdateTagsByName(ctx context.Context, deckID, cardName string, tags []string) ([]int64, error)
}

// Querier is the subset of *sql.DB and *sql.Tx the repositories use.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// deckRepository is the concrete implementation of DeckRepository.
type deckRepository struct {
	db Querier
}

// NewDeckRepository creates a new deck repository.
func NewDeckRepository(db Querier) DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) Create(ctx context.Context, deck *models.Deck) error {
	query := `
		INSERT INTO decks (id, name, raw_list, total_cards, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		deck.ID,
		deck.Name,
		deck.RawList,
		deck.TotalCards,
		deck.CreatedAt,
		deck.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deck: %w", err)
	}
	return nil
}

func (r *deckRepository) Update(ctx context.Context, deck *models.Deck) error {
	query := `
		UPDATE decks
		SET name = ?, raw_list = ?, total_cards = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		deck.Name,
		deck.RawList,
		deck.TotalCards,
		deck.UpdatedAt,
		deck.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update deck: %w", err)
	}
	return nil
}

func (r *deckRepository) GetByID(ctx context.Context, id string) (*models.Deck, error) {
	query := `
		SELECT id, name, raw_list, total_cards, created_at, updated_at
		FROM decks
		WHERE id = ?
	`
	deck := &models.Deck{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&deck.ID,
		&deck.Name,
		&deck.RawList,
		&deck.TotalCards,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck by id: %w", err)
	}
	return deck, nil
}

func (r *deckRepository) List(ctx context.Context) ([]*models.Deck, error) {
	query := `
		SELECT id, name, raw_list, total_cards, created_at, updated_at
		FROM decks
		ORDER BY created_at DESC, name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	decks := []*models.Deck{}
	for rows.Next() {
		deck := &models.Deck{}
		if err := rows.Scan(
			&deck.ID,
			&deck.Name,
			&deck.RawList,
			&deck.TotalCards,
			&deck.CreatedAt,
			&deck.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		decks = append(decks, deck)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decks: %w", err)
	}
	return decks, nil
}

func (r *deckRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	return nil
}

func (r *deckRepository) ReplaceCards(ctx context.Context, deckID string, cards []*models.DeckCard) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM deck_cards WHERE deck_id = ?`, deckID); err != nil {
		return fmt.Errorf("failed to clear deck cards: %w", err)
	}

	query := `
		INSERT INTO deck_cards (
			deck_id, card_name, area, quantity, card_type, image_url,
			attribute, level, atk, defense, custom_tags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, card := range cards {
		tags, err := encodeTags(card.Tags)
		if err != nil {
			return err
		}
		res, err := r.db.ExecContext(ctx, query,
			deckID,
			card.CardName,
			card.Area,
			card.Quantity,
			card.CardType,
			card.ImageURL,
			card.Attribute,
			card.Level,
			card.Atk,
			card.Def,
			tags,
		)
		if err != nil {
			return fmt.Errorf("failed to insert card %q: %w", card.CardName, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read card id: %w", err)
		}
		card.ID = id
		card.DeckID = deckID
	}
	return nil
}

const cardColumns = `
	id, deck_id, card_name, area, quantity, card_type, image_url,
	attribute, level, atk, defense, custom_tags
`

func (r *deckRepository) GetCards(ctx context.Context, deckID string) ([]*models.DeckCard, error) {
	query := `SELECT ` + cardColumns + ` FROM deck_cards WHERE deck_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cards := []*models.DeckCard{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deck cards: %w", err)
	}
	return cards, nil
}

func (r *deckRepository) GetCard(ctx context.Context, deckID string, cardID int64) (*models.DeckCard, error) {
	query := `SELECT ` + cardColumns + ` FROM deck_cards WHERE deck_id = ? AND id = ?`
	card, err := scanCard(r.db.QueryRowContext(ctx, query, deckID, cardID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (r *deckRepository) UpdateCardTags(ctx context.Context, deckID string, cardID int64, tags []string) (bool, error) {
	encoded, err := encodeTags(tags)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE deck_cards SET custom_tags = ? WHERE deck_id = ? AND id = ?`,
		encoded, deckID, cardID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update card tags: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *deckRepository) UpdateTagsByName(ctx context.Context, deckID, cardName string, tags []string) ([]int64, error) {
	encoded, err := encodeTags(tags)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`UPDATE deck_cards SET custom_tags = ?
		 WHERE deck_id = ? AND card_name = ? COLLATE NOCASE
		 RETURNING id`,
		encoded, deckID, cardName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update tags by name: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating updated cards: %w", err)
	}
	return ids, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(s scanner) (*models.DeckCard, error) {
	card := &models.DeckCard{}
	var (
		cardType, imageURL, attribute sql.NullString
		level, atk, def               sql.NullInt64
		tags                          string
	)
	err := s.Scan(
		&card.ID,
		&card.DeckID,
		&card.CardName,
		&card.Area,
		&card.Quantity,
		&cardType,
		&imageURL,
		&attribute,
		&level,
		&atk,
		&def,
		&tags,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan deck card: %w", err)
	}

	card.CardType = nullString(cardType)
	card.ImageURL = nullString(imageURL)
	card.Attribute = nullString(attribute)
	card.Level = nullInt(level)
	card.Atk = nullInt(atk)
	card.Def = nullInt(def)
	if err := json.Unmarshal([]byte(tags), &card.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for card %d: %w", card.ID, err)
	}
	if card.Tags == nil {
		card.Tags = []string{}
	}
	return card, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}
