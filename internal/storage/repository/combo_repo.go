package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage/models"
)

// ErrComboConflict is returned by Upsert when the combo ID is already used by another deck.
var ErrComboConflict = errors.New("combo id belongs to another deck")

// ComboRepository handles database operations for saved combos.
type ComboRepository interface {
	// ListByDeck retrieves the combos saved for a deck, oldest first.
	ListByDeck(ctx context.Context, deckID string) ([]*models.Combo, error)

	// GetByID retrieves a combo of a deck. Returns nil when it does not exist.
	GetByID(ctx context.Context, deckID, id string) (*models.Combo, error)

	// Upsert inserts a combo or updates it when the ID already exists for the same deck.
	Upsert(ctx context.Context, combo *models.Combo) error

	// Delete removes a combo from a deck. Returns false when nothing was deleted.
	Delete(ctx context.Context, deckID, id string) (bool, error)
}

type comboRepository struct {
	db Querier
}

// NewComboRepository creates a new combo repository.
func NewComboRepository(db Querier) ComboRepository {
	return &comboRepository{db: db}
}

func (r *comboRepository) ListByDeck(ctx context.Context, deckID string) ([]*models.Combo, error) {
	query := `
		SELECT id, deck_id, name, steps, probability, created_at, updated_at
		FROM deck_combos
		WHERE deck_id = ?
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list combos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	combos := []*models.Combo{}
	for rows.Next() {
		combo, err := scanCombo(rows)
		if err != nil {
			return nil, err
		}
		combos = append(combos, combo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating combos: %w", err)
	}
	return combos, nil
}

func (r *comboRepository) GetByID(ctx context.Context, deckID, id string) (*models.Combo, error) {
	query := `
		SELECT id, deck_id, name, steps, probability, created_at, updated_at
		FROM deck_combos
		WHERE deck_id = ? AND id = ?
	`
	combo, err := scanCombo(r.db.QueryRowContext(ctx, query, deckID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return combo, err
}

func (r *comboRepository) Upsert(ctx context.Context, combo *models.Combo) error {
	steps := combo.Steps
	if steps == nil {
		steps = []models.ComboStep{}
	}
	encoded, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("failed to encode combo steps: %w", err)
	}

	query := `
		INSERT INTO deck_combos (id, deck_id, name, steps, probability, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			steps = excluded.steps,
			probability = excluded.probability,
			updated_at = excluded.updated_at
		WHERE deck_combos.deck_id = excluded.deck_id
	`
	res, err := r.db.ExecContext(ctx, query,
		combo.ID,
		combo.DeckID,
		combo.Name,
		string(encoded),
		combo.Probability,
		combo.CreatedAt,
		combo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert combo: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrComboConflict, combo.ID)
	}
	return nil
}

func (r *comboRepository) Delete(ctx context.Context, deckID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deck_combos WHERE deck_id = ? AND id = ?`, deckID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete combo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func scanCombo(s scanner) (*models.Combo, error) {
	combo := &models.Combo{}
	var (
		steps       string
		probability sql.NullFloat64
	)
	err := s.Scan(
		&combo.ID,
		&combo.DeckID,
		&combo.Name,
		&steps,
		&probability,
		&combo.CreatedAt,
		&combo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan combo: %w", err)
	}
	if probability.Valid {
		combo.Probability = &probability.Float64
	}
	if err := json.Unmarshal([]byte(steps), &combo.Steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps for combo %s: %w", combo.ID, err)
	}
	return combo, nil
}
