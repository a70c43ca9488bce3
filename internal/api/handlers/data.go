package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/internal/s0_data/quality"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

// SummaryLoader reads the most recent run summary
type SummaryLoader interface {
	LoadLatest() (*contracts.RunSummary, error)
}

// DataHandler handles data-related API endpoints
// ⭐ SSOT: 데이터 API 핸들러는 이 구조체에서만
type DataHandler struct {
	ratings     contracts.RatingReader
	summaries   SummaryLoader
	qualityGate *quality.QualityGate
	logger      *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(
	ratings contracts.RatingReader,
	summaries SummaryLoader,
	qualityGate *quality.QualityGate,
	log *logger.Logger,
) *DataHandler {
	return &DataHandler{
		ratings:     ratings,
		summaries:   summaries,
		qualityGate: qualityGate,
		logger:      log,
	}
}

// StatsResponse is the /api/stats payload
type StatsResponse struct {
	Stats   *contracts.DatabaseStats       `json:"stats"`
	Quality *contracts.DataQualitySnapshot `json:"quality"`
}

// GetStats returns live database statistics and coverage
// GET /api/stats
func (h *DataHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ratings.GetDatabaseStats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get database stats")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve stats")
		return
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		Stats:   stats,
		Quality: h.qualityGate.Check(stats, time.Now()),
	})
}

// GetLatestRun returns the summary of the last pipeline run
// GET /api/runs/latest
func (h *DataHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	summary, err := h.summaries.LoadLatest()
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No run recorded yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load run summary")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
