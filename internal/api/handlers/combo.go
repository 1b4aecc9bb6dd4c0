package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api/response"
)

// ComboHandler handles saved combo requests.
type ComboHandler struct {
	svc *analysis.Service
}

// NewComboHandler creates a new ComboHandler.
func NewComboHandler(svc *analysis.Service) *ComboHandler {
	return &ComboHandler{svc: svc}
}

// ListCombos returns the combos saved for a deck.
func (h *ComboHandler) ListCombos(w http.ResponseWriter, r *http.Request) {
	combos, err := h.svc.ListCombos(r.Context(), chi.URLParam(r, "deckID"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, combos)
}

// SaveCombo creates or replaces a combo.
func (h *ComboHandler) SaveCombo(w http.ResponseWriter, r *http.Request) {
	var req analysis.ComboRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	c, err := h.svc.SaveCombo(r.Context(), chi.URLParam(r, "deckID"), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if req.ID == "" {
		response.Created(w, c)
		return
	}
	response.Success(w, c)
}

// DeleteCombo removes a combo from a deck.
func (h *ComboHandler) DeleteCombo(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCombo(r.Context(), chi.URLParam(r, "deckID"), chi.URLParam(r, "comboID")); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}
