package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api/response"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/catalog"
)

// maxMetadataNames bounds one metadata request.
const maxMetadataNames = 200

// CardCatalog is the card database used by CardHandler.
type CardCatalog interface {
	Search(ctx context.Context, query string) ([]catalog.Card, error)
	Metadata(ctx context.Context, names []string) (map[string]catalog.Metadata, error)
}

// CardHandler proxies card searches to the catalog.
type CardHandler struct {
	catalog CardCatalog
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(c CardCatalog) *CardHandler {
	return &CardHandler{catalog: c}
}

// SearchCards returns cards whose name contains ?q=.
func (h *CardHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		response.BadRequest(w, errors.New("query must be at least 2 characters"))
		return
	}

	cards, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		response.Error(w, http.StatusBadGateway, err)
		return
	}
	response.Success(w, cards)
}

// MetadataRequest asks for the metadata of exact card names.
type MetadataRequest struct {
	Names []string `json:"names"`
}

// Metadata returns card metadata keyed by lower-cased name. Partial results
// are returned when only some chunks failed.
func (h *CardHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	var req MetadataRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if len(req.Names) == 0 {
		response.BadRequest(w, errors.New("names are required"))
		return
	}
	if len(req.Names) > maxMetadataNames {
		response.BadRequest(w, errors.New("too many names"))
		return
	}

	meta, err := h.catalog.Metadata(r.Context(), req.Names)
	if err != nil && len(meta) == 0 {
		response.Error(w, http.StatusBadGateway, err)
		return
	}
	response.Success(w, meta)
}
