package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/combo"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/jobs"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/probability"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: deck 1", analysis.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("get: %w", jobs.ErrJobNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: name required", analysis.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: hand size", combo.ErrInvalidInput), http.StatusBadRequest},
		{probability.ErrInvalidCount, http.StatusBadRequest},
		{jobs.ErrInvalidRequest, http.StatusBadRequest},
		{&combo.InfeasibleDeckError{DeckSize: 3, HandSize: 5}, http.StatusUnprocessableEntity},
		{combo.ErrTooManySteps, http.StatusUnprocessableEntity},
		{combo.ErrTooComplex, http.StatusUnprocessableEntity},
		{jobs.ErrJobFinished, http.StatusConflict},
		{jobs.ErrShuttingDown, http.StatusServiceUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.err), tt.err.Error())
	}
}

func TestFromError(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(w, &combo.InfeasibleDeckError{DeckSize: 3, HandSize: 5})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, http.StatusUnprocessableEntity, body.Code)
	assert.Equal(t, "Unprocessable Entity", body.Error)
	assert.Contains(t, body.Message, "3 cards cannot fill a 5-card hand")
}

func TestSuccessEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	Created(w, map[string]int{"total": 40})

	assert.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 40, body.Data["total"])
}
