package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoResults is returned when the API reports no matching card.
	ErrNoResults = errors.New("no card matching query")
	// ErrUnavailable is returned when retries are exhausted on network
	// errors, 429 or 5xx responses.
	ErrUnavailable = errors.New("catalog unavailable")
)

// Card is a catalog entry as returned by searches.
type Card struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Desc          string `json:"desc"`
	Race          string `json:"race,omitempty"`
	Attribute     string `json:"attribute,omitempty"`
	Level         *int   `json:"level,omitempty"`
	Atk           *int   `json:"atk,omitempty"`
	Def           *int   `json:"def,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	ImageURLSmall string `json:"image_url_small,omitempty"`
}

// Metadata is the subset of card data stored alongside deck cards.
type Metadata struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	ImageURL  string `json:"image_url,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Level     *int   `json:"level,omitempty"`
	Atk       *int   `json:"atk,omitempty"`
	Def       *int   `json:"def,omitempty"`
}

// Metadata extracts the deck-card metadata of a card.
func (c Card) Metadata() Metadata {
	return Metadata{
		Name:      c.Name,
		Type:      c.Type,
		ImageURL:  c.ImageURLSmall,
		Attribute: c.Attribute,
		Level:     c.Level,
		Atk:       c.Atk,
		Def:       c.Def,
	}
}

// IsExtraDeck reports whether the card type belongs to the extra deck.
func (c Card) IsExtraDeck() bool {
	t := strings.ToLower(c.Type)
	for _, kind := range []string{"fusion", "synchro", "xyz", "link"} {
		if strings.Contains(t, kind) {
			return true
		}
	}
	return false
}

// apiCard is the cardinfo.php representation of a card.
type apiCard struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Desc       string `json:"desc"`
	Race       string `json:"race"`
	Attribute  string `json:"attribute"`
	Level      *int   `json:"level"`
	Atk        *int   `json:"atk"`
	Def        *int   `json:"def"`
	CardImages []struct {
		ImageURL      string `json:"image_url"`
		ImageURLSmall string `json:"image_url_small"`
	} `json:"card_images"`
}

func (a apiCard) toCard() Card {
	c := Card{
		ID:        a.ID,
		Name:      a.Name,
		Type:      a.Type,
		Desc:      a.Desc,
		Race:      a.Race,
		Attribute: a.Attribute,
		Level:     a.Level,
		Atk:       a.Atk,
		Def:       a.Def,
	}
	if len(a.CardImages) > 0 {
		c.ImageURL = a.CardImages[0].ImageURL
		c.ImageURLSmall = a.CardImages[0].ImageURLSmall
	}
	return c
}

type cardInfoResponse struct {
	Data []apiCard `json:"data"`
}

// APIError is an error body returned by the API.
type APIError struct {
	Status  int
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API error (HTTP %d): %s", e.Status, e.Message)
}
