package models

import "time"

// Deck represents a stored deck list.
type Deck struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	RawList    string    `json:"raw_list"`    // Original import text, kept for re-parsing
	TotalCards int       `json:"total_cards"` // Copies across all areas
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DeckCard represents one card line in a deck, with catalog metadata.
type DeckCard struct {
	ID        int64    `json:"id"`
	DeckID    string   `json:"deck_id"`
	CardName  string   `json:"card_name"`
	Area      string   `json:"area"` // "MAIN", "EXTRA" or "SIDE"
	Quantity  int      `json:"quantity"`
	CardType  *string  `json:"card_type,omitempty"` // Nullable
	ImageURL  *string  `json:"image_url,omitempty"` // Nullable
	Attribute *string  `json:"attribute,omitempty"` // Nullable
	Level     *int     `json:"level,omitempty"`     // Nullable
	Atk       *int     `json:"atk,omitempty"`       // Nullable
	Def       *int     `json:"def,omitempty"`       // Nullable
	Tags      []string `json:"tags"`
}

// ComboStep is the stored form of one combo requirement.
type ComboStep struct {
	ID       string   `json:"id"`
	Label    string   `json:"label,omitempty"`
	Cards    []string `json:"cards"`
	Required int      `json:"required"`
}

// Combo is a saved combo definition for a deck.
type Combo struct {
	ID          string      `json:"id"`
	DeckID      string      `json:"deck_id"`
	Name        string      `json:"name"`
	Steps       []ComboStep `json:"steps"`
	Probability *float64    `json:"probability"` // Nullable: last computed percentage
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
