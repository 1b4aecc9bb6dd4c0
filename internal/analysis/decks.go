package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/catalog"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/deck"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage/models"
)

const defaultDeckName = "My New Deck"

// ImportRequest is a deck submitted as per-area lists or as one sectioned
// document. Document takes precedence when set.
type ImportRequest struct {
	Name      string `json:"name"`
	MainList  string `json:"main_list"`
	ExtraList string `json:"extra_list"`
	SideList  string `json:"side_list"`
	Document  string `json:"document,omitempty"`
}

// DeckView is a deck with its cards.
type DeckView struct {
	Deck     *models.Deck       `json:"deck"`
	Cards    []*models.DeckCard `json:"cards"`
	Counts   map[deck.Area]int  `json:"counts"`
	Warnings []string           `json:"warnings,omitempty"`
}

// DeckSummary is a list item.
type DeckSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	TotalCards int       `json:"total_cards"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ImportDeck parses, resolves and stores a new deck.
func (s *Service) ImportDeck(ctx context.Context, req ImportRequest) (*DeckView, error) {
	entries, warnings, raw, err := parseRequest(req)
	if err != nil {
		return nil, err
	}
	cards := s.resolveCards(ctx, entries)

	now := s.now().UTC()
	d := &models.Deck{
		ID:         uuid.New().String(),
		Name:       deckName(req.Name),
		RawList:    raw,
		TotalCards: totalQuantity(cards),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateDeck(ctx, d, cards); err != nil {
		return nil, err
	}
	s.logger.Info("imported deck",
		zap.String("deck_id", d.ID),
		zap.String("name", d.Name),
		zap.Int("cards", d.TotalCards),
	)

	view, err := s.GetDeck(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	view.Warnings = warnings
	return view, nil
}

// UpdateDeck re-imports the lists of an existing deck. Tags of cards that
// keep their name and area are carried over.
func (s *Service) UpdateDeck(ctx context.Context, deckID string, req ImportRequest) (*DeckView, error) {
	existing, oldCards, err := s.store.DeckWithCards(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, notFound("deck %s", deckID)
	}

	entries, warnings, raw, err := parseRequest(req)
	if err != nil {
		return nil, err
	}
	cards := s.resolveCards(ctx, entries)
	carryTags(oldCards, cards)

	if strings.TrimSpace(req.Name) != "" {
		existing.Name = strings.TrimSpace(req.Name)
	}
	existing.RawList = raw
	existing.TotalCards = totalQuantity(cards)
	existing.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateDeck(ctx, existing, cards); err != nil {
		return nil, err
	}

	view, err := s.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	view.Warnings = warnings
	return view, nil
}

// GetDeck returns a deck with its cards.
func (s *Service) GetDeck(ctx context.Context, deckID string) (*DeckView, error) {
	d, cards, err := s.store.DeckWithCards(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFound("deck %s", deckID)
	}
	if cards == nil {
		cards = []*models.DeckCard{}
	}
	return &DeckView{
		Deck:   d,
		Cards:  cards,
		Counts: deck.CountByArea(Entries(cards)),
	}, nil
}

// ListDecks returns every deck, newest first.
func (s *Service) ListDecks(ctx context.Context) ([]DeckSummary, error) {
	decks, err := s.store.Decks().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DeckSummary, len(decks))
	for i, d := range decks {
		out[i] = DeckSummary{ID: d.ID, Name: d.Name, TotalCards: d.TotalCards, UpdatedAt: d.UpdatedAt}
	}
	return out, nil
}

// DeleteDeck removes a deck with its cards and combos.
func (s *Service) DeleteDeck(ctx context.Context, deckID string) error {
	d, err := s.store.Decks().GetByID(ctx, deckID)
	if err != nil {
		return err
	}
	if d == nil {
		return notFound("deck %s", deckID)
	}
	return s.store.Decks().Delete(ctx, deckID)
}

// UpdateCardTags replaces the tags of a single deck card.
func (s *Service) UpdateCardTags(ctx context.Context, deckID string, cardID int64, tags []string) (*models.DeckCard, error) {
	ok, err := s.store.Decks().UpdateCardTags(ctx, deckID, cardID, deck.NormalizeTags(tags))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("card %d in deck %s", cardID, deckID)
	}
	return s.store.Decks().GetCard(ctx, deckID, cardID)
}

// TagResult reports a bulk tag update.
type TagResult struct {
	Count      int      `json:"count"`
	UpdatedIDs []int64  `json:"updated_ids"`
	Tags       []string `json:"tags"`
}

// TagByName replaces the tags of every copy of a card in a deck, matching the
// name case-insensitively.
func (s *Service) TagByName(ctx context.Context, deckID, cardName string, tags []string) (*TagResult, error) {
	cardName = strings.TrimSpace(cardName)
	if cardName == "" {
		return nil, invalid("card name is required")
	}
	tags = deck.NormalizeTags(tags)
	ids, err := s.store.Decks().UpdateTagsByName(ctx, deckID, cardName, tags)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, notFound("no card named %q in deck %s", cardName, deckID)
	}
	return &TagResult{Count: len(ids), UpdatedIDs: ids, Tags: tags}, nil
}

// Entries converts stored cards to deck entries.
func Entries(cards []*models.DeckCard) []deck.Entry {
	entries := make([]deck.Entry, 0, len(cards))
	for _, c := range cards {
		entries = append(entries, deck.Entry{
			Name:     c.CardName,
			Quantity: c.Quantity,
			Area:     deck.Area(c.Area),
			Tags:     c.Tags,
		})
	}
	return entries
}

func parseRequest(req ImportRequest) ([]deck.Entry, []string, string, error) {
	if strings.TrimSpace(req.Document) != "" {
		doc, err := deck.ParseDocument(req.Document)
		if errors.Is(err, deck.ErrNoCards) {
			return nil, nil, "", invalid("no deck list provided")
		}
		if err != nil {
			return nil, nil, "", invalid("%v", err)
		}
		return deck.Aggregate(doc.Entries), doc.Warnings, req.Document, nil
	}

	var entries []deck.Entry
	entries = append(entries, deck.ParseList(req.MainList, deck.Main)...)
	entries = append(entries, deck.ParseList(req.ExtraList, deck.Extra)...)
	entries = append(entries, deck.ParseList(req.SideList, deck.Side)...)
	if len(entries) == 0 {
		return nil, nil, "", invalid("no deck list provided")
	}
	return deck.Aggregate(entries), nil, req.MainList, nil
}

// resolveCards attaches catalog metadata. Names the catalog does not know
// verbatim are replaced by the closest fuzzy match when there is one.
// Catalog failures never fail the import: lookups run under
// Options.CatalogBudget, and the fuzzy fallback is skipped once the catalog
// has returned an error, leaving the remaining cards without metadata.
func (s *Service) resolveCards(ctx context.Context, entries []deck.Entry) []*models.DeckCard {
	cards := make([]*models.DeckCard, len(entries))
	for i, e := range entries {
		cards[i] = &models.DeckCard{
			CardName: e.Name,
			Area:     string(e.Area),
			Quantity: e.Quantity,
			Tags:     deck.NormalizeTags(e.Tags),
		}
	}
	if s.catalog == nil {
		return cards
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.CatalogBudget)
	defer cancel()

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	start := time.Now()
	meta, err := s.catalog.Metadata(ctx, names)
	s.metrics.RecordCatalogCall(time.Since(start), err)
	fuzzy := err == nil
	if err != nil {
		s.logger.Warn("catalog metadata lookup failed, skipping fuzzy matching", zap.Error(err))
	}

	for _, c := range cards {
		if m, ok := meta[strings.ToLower(c.CardName)]; ok {
			applyMetadata(c, m)
			continue
		}
		if !fuzzy || ctx.Err() != nil {
			continue
		}
		start := time.Now()
		match, err := s.catalog.BestMatch(ctx, c.CardName)
		s.metrics.RecordCatalogCall(time.Since(start), err)
		if err != nil {
			s.logger.Warn("fuzzy card lookup failed, skipping the remaining cards",
				zap.String("card", c.CardName), zap.Error(err))
			fuzzy = false
			continue
		}
		if match == nil {
			s.logger.Debug("card not found in catalog", zap.String("card", c.CardName))
			continue
		}
		c.CardName = match.Name
		applyMetadata(c, match.Metadata())
	}
	return mergeCards(cards)
}

func applyMetadata(c *models.DeckCard, m catalog.Metadata) {
	if m.Name != "" {
		c.CardName = m.Name
	}
	c.CardType = optional(m.Type)
	c.ImageURL = optional(m.ImageURL)
	c.Attribute = optional(m.Attribute)
	c.Level = m.Level
	c.Atk = m.Atk
	c.Def = m.Def
}

// mergeCards folds cards that resolved to the same canonical name and area.
func mergeCards(cards []*models.DeckCard) []*models.DeckCard {
	type key struct{ name, area string }
	index := make(map[key]*models.DeckCard, len(cards))
	out := make([]*models.DeckCard, 0, len(cards))
	for _, c := range cards {
		k := key{strings.ToLower(c.CardName), c.Area}
		if existing, ok := index[k]; ok {
			existing.Quantity += c.Quantity
			existing.Tags = deck.NormalizeTags(append(existing.Tags, c.Tags...))
			continue
		}
		index[k] = c
		out = append(out, c)
	}
	return out
}

func carryTags(oldCards, newCards []*models.DeckCard) {
	tags := make(map[string][]string, len(oldCards))
	for _, c := range oldCards {
		if len(c.Tags) > 0 {
			tags[strings.ToLower(c.CardName)+"\x00"+c.Area] = c.Tags
		}
	}
	for _, c := range newCards {
		if len(c.Tags) == 0 {
			c.Tags = tags[strings.ToLower(c.CardName)+"\x00"+c.Area]
		}
	}
}

func totalQuantity(cards []*models.DeckCard) int {
	total := 0
	for _, c := range cards {
		total += c.Quantity
	}
	return total
}

func deckName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return defaultDeckName
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
