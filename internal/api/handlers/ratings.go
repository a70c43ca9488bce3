package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/internal/selection"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

const (
	defaultLimit = 100
	maxLimit     = 5000
)

// RatingsHandler serves stored composite ratings
// ⭐ SSOT: 레이팅 API 핸들러는 이 구조체에서만
type RatingsHandler struct {
	ratings contracts.RatingReader
	logger  *logger.Logger
}

// NewRatingsHandler creates a new ratings handler
func NewRatingsHandler(ratings contracts.RatingReader, log *logger.Logger) *RatingsHandler {
	return &RatingsHandler{
		ratings: ratings,
		logger:  log,
	}
}

// RatingsResponse is the list payload
type RatingsResponse struct {
	Count   int                         `json:"count"`
	Total   int                         `json:"total"`
	Ratings []contracts.CompositeRating `json:"ratings"`
}

// ListRatings returns ratings ordered by composite score
// GET /api/ratings?min_comp=&min_rs=&min_eps=&smr=&off_high=&limit=
func (h *RatingsHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseScreen(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	all, err := h.ratings.GetAllRatings(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get ratings")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve ratings")
		return
	}

	passed := selection.NewScreener(cfg, h.logger).Screen(all)
	respondJSON(w, http.StatusOK, RatingsResponse{
		Count:   len(passed),
		Total:   len(all),
		Ratings: passed,
	})
}

// GetRating returns one ticker's rating
// GET /api/ratings/{ticker}
func (h *RatingsHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])

	rating, err := h.ratings.GetRating(r.Context(), ticker)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No rating for "+ticker)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to get rating")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve rating")
		return
	}

	respondJSON(w, http.StatusOK, rating)
}

// parseScreen maps query parameters onto a screener config
func parseScreen(r *http.Request) (selection.ScreenerConfig, error) {
	q := r.URL.Query()
	cfg := selection.ScreenerConfig{Limit: defaultLimit}

	ints := []struct {
		key      string
		dst      *int
		min, max int
	}{
		{"min_comp", &cfg.MinComp, 0, 99},
		{"min_rs", &cfg.MinRS, 0, 99},
		{"min_eps", &cfg.MinEPS, 0, 99},
		{"limit", &cfg.Limit, 1, maxLimit}, // 0은 스크리너에서 무제한이므로 거부
	}
	for _, p := range ints {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < p.min || v > p.max {
			return cfg, errors.New("invalid " + p.key)
		}
		*p.dst = v
	}

	if smr := strings.ToUpper(q.Get("smr")); smr != "" {
		if len(smr) != 1 || smr < "A" || smr > "E" {
			return cfg, errors.New("invalid smr")
		}
		cfg.MaxSMRLetter = smr
	}

	if raw := q.Get("off_high"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return cfg, errors.New("invalid off_high")
		}
		cfg.MaxOffHigh = &v
	}

	return cfg, nil
}
