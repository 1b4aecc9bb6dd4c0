package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api/response"
)

// DeckHandler handles deck and tag requests.
type DeckHandler struct {
	svc *analysis.Service
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(svc *analysis.Service) *DeckHandler {
	return &DeckHandler{svc: svc}
}

// ListDecks returns all decks, most recently updated first.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.svc.ListDecks(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, decks)
}

// ImportDeck parses and stores a new deck.
func (h *DeckHandler) ImportDeck(w http.ResponseWriter, r *http.Request) {
	var req analysis.ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	view, err := h.svc.ImportDeck(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, view)
}

// GetDeck returns a deck with its cards.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetDeck(r.Context(), chi.URLParam(r, "deckID"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, view)
}

// UpdateDeck replaces the lists of a deck.
func (h *DeckHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	var req analysis.ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	view, err := h.svc.UpdateDeck(r.Context(), chi.URLParam(r, "deckID"), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, view)
}

// DeleteDeck removes a deck with its cards and combos.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDeck(r.Context(), chi.URLParam(r, "deckID")); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

// TagsRequest replaces the tags of one card.
type TagsRequest struct {
	Tags []string `json:"tags"`
}

// UpdateCardTags replaces the tags of a deck card.
func (h *DeckHandler) UpdateCardTags(w http.ResponseWriter, r *http.Request) {
	cardID, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		response.BadRequest(w, errors.New("card ID must be an integer"))
		return
	}
	var req TagsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	card, err := h.svc.UpdateCardTags(r.Context(), chi.URLParam(r, "deckID"), cardID, req.Tags)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, card)
}

// TagByNameRequest tags every copy of a card.
type TagByNameRequest struct {
	CardName string   `json:"card_name"`
	Tags     []string `json:"tags"`
}

// TagByName replaces the tags of every deck card with the given name.
func (h *DeckHandler) TagByName(w http.ResponseWriter, r *http.Request) {
	var req TagByNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	result, err := h.svc.TagByName(r.Context(), chi.URLParam(r, "deckID"), req.CardName, req.Tags)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}
