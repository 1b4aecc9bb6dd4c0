package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api/response"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/charts"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/deck"
)

// AnalysisHandler handles distribution, simulation and sample-hand requests.
type AnalysisHandler struct {
	svc *analysis.Service
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(svc *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

// distributionQuery reads ?hand_size= and repeated ?category= tag filters.
func distributionQuery(r *http.Request) (analysis.DistributionRequest, error) {
	handSize, err := queryInt(r, "hand_size")
	if err != nil {
		return analysis.DistributionRequest{}, err
	}
	req := analysis.DistributionRequest{HandSize: handSize}
	for _, tag := range r.URL.Query()["category"] {
		req.Categories = append(req.Categories, analysis.Category{Name: tag, Tag: tag})
	}
	return req, nil
}

// Distribution returns per-category draw distributions of a deck.
func (h *AnalysisHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	req, err := distributionQuery(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	result, err := h.svc.Distributions(r.Context(), chi.URLParam(r, "deckID"), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

// DistributionChart renders the distributions of a deck as an HTML bar chart.
func (h *AnalysisHandler) DistributionChart(w http.ResponseWriter, r *http.Request) {
	req, err := distributionQuery(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	deckID := chi.URLParam(r, "deckID")

	result, err := h.svc.Distributions(r.Context(), deckID, req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	view, err := h.svc.GetDeck(r.Context(), deckID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	cats := make([]charts.Category, len(result.Categories))
	for i, c := range result.Categories {
		cats[i] = charts.Category{Name: c.Name, Distribution: c.Distribution}
	}
	cfg := charts.DefaultChartConfig()
	cfg.Title = view.Deck.Name
	cfg.Subtitle = fmt.Sprintf("Opening hand of %d from %d cards", result.HandSize, result.DeckSize)

	var buf bytes.Buffer
	if err := charts.RenderDistribution(&buf, cats, cfg); err != nil {
		if errors.Is(err, charts.ErrNoData) {
			response.Error(w, http.StatusUnprocessableEntity, errors.New("deck has no tagged categories to chart"))
			return
		}
		response.InternalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// SampleHand deals one random opening hand from a deck.
func (h *AnalysisHandler) SampleHand(w http.ResponseWriter, r *http.Request) {
	handSize, err := queryInt(r, "hand_size")
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	seed, err := querySeed(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	hand, err := h.svc.SampleHand(r.Context(), chi.URLParam(r, "deckID"), handSize, seed)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, hand)
}

// Simulate runs a combo probability calculation against a stored deck.
func (h *AnalysisHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req analysis.SimulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	result, err := h.svc.Simulate(r.Context(), chi.URLParam(r, "deckID"), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

// CardsSimulateRequest is a stateless simulation over an inline card list.
type CardsSimulateRequest struct {
	Cards []deck.Entry `json:"cards"`
	analysis.SimulateRequest
}

// SimulateCards runs a combo probability calculation against inline cards.
func (h *AnalysisHandler) SimulateCards(w http.ResponseWriter, r *http.Request) {
	var req CardsSimulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	result, err := h.svc.SimulateCards(r.Context(), req.Cards, req.SimulateRequest)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

// CardsDistributionRequest is a stateless distribution over inline cards.
type CardsDistributionRequest struct {
	Cards []deck.Entry `json:"cards"`
	analysis.DistributionRequest
}

// DistributionForCards returns category draw distributions of inline cards.
func (h *AnalysisHandler) DistributionForCards(w http.ResponseWriter, r *http.Request) {
	var req CardsDistributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	result, err := h.svc.DistributionForCards(analysis.MainByDefault(req.Cards), req.DistributionRequest)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}
