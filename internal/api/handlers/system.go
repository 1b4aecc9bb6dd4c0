package handlers

import (
	"net/http"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api/response"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/metrics"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage"
)

// SystemHandler handles metrics and database maintenance requests.
type SystemHandler struct {
	metrics *metrics.SimulationMetrics
	db      *storage.DB
	clients func() int
}

// NewSystemHandler creates a new SystemHandler. clients reports the number
// of connected websocket clients and may be nil.
func NewSystemHandler(m *metrics.SimulationMetrics, db *storage.DB, clients func() int) *SystemHandler {
	return &SystemHandler{metrics: m, db: db, clients: clients}
}

// MetricsResponse is the body of GET /system/metrics.
type MetricsResponse struct {
	metrics.Stats
	WebSocketClients int `json:"websocket_clients"`
}

// GetMetrics returns simulation and catalog metrics.
func (h *SystemHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	resp := MetricsResponse{Stats: h.metrics.Snapshot()}
	if h.clients != nil {
		resp.WebSocketClients = h.clients()
	}
	response.Success(w, resp)
}

// Backup writes a verified copy of the database to the backup directory.
func (h *SystemHandler) Backup(w http.ResponseWriter, r *http.Request) {
	info, err := h.db.Backup(r.Context(), "")
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Created(w, info)
}

// ListBackups returns the backups in the backup directory, newest first.
func (h *SystemHandler) ListBackups(w http.ResponseWriter, _ *http.Request) {
	backups, err := h.db.ListBackups("")
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, backups)
}
