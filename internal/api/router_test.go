package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-ratings/internal/api/handlers"
	"github.com/wonny/aegis-ratings/internal/audit"
	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/internal/s0_data/memstore"
	"github.com/wonny/aegis-ratings/internal/s0_data/quality"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

func newTestRouter(t *testing.T) (http.Handler, *audit.Exporter) {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()

	store := memstore.New()
	require.NoError(t, store.InsertTickersBulk(ctx, []contracts.Ticker{{Symbol: "AAA"}, {Symbol: "BBB"}}))
	require.NoError(t, store.InsertRatings(ctx, []contracts.CompositeRating{
		{Ticker: "AAA", CompRating: 92, RSRating: contracts.Int(95), SMRRating: "A", PriceVs52WeekHigh: contracts.Float(0)},
		{Ticker: "BBB", CompRating: 41, RSRating: contracts.Int(20), SMRRating: "D", PriceVs52WeekHigh: contracts.Float(-12)},
	}))

	exporter := audit.NewExporter(filepath.Join(t.TempDir(), "exports"), log)
	router := NewRouter(
		handlers.NewRatingsHandler(store, log),
		handlers.NewDataHandler(store, exporter, quality.NewQualityGate(quality.DefaultConfig()), log),
		log,
	)
	return router, exporter
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestListRatings(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name    string
		path    string
		code    int
		tickers []string
	}{
		{"all", "/api/ratings", http.StatusOK, []string{"AAA", "BBB"}},
		{"min comp", "/api/ratings?min_comp=80", http.StatusOK, []string{"AAA"}},
		{"limit", "/api/ratings?limit=1", http.StatusOK, []string{"AAA"}},
		{"smr", "/api/ratings?smr=b", http.StatusOK, []string{"AAA"}},
		{"bad min comp", "/api/ratings?min_comp=abc", http.StatusBadRequest, nil},
		{"out of range", "/api/ratings?min_comp=120", http.StatusBadRequest, nil},
		{"bad smr", "/api/ratings?smr=Z", http.StatusBadRequest, nil},
		{"at the high", "/api/ratings?off_high=0", http.StatusOK, []string{"AAA"}},
		{"off high", "/api/ratings?off_high=15", http.StatusOK, []string{"AAA", "BBB"}},
		{"negative off high", "/api/ratings?off_high=-1", http.StatusBadRequest, nil},
		{"zero limit", "/api/ratings?limit=0", http.StatusBadRequest, nil},
		{"limit over max", "/api/ratings?limit=5001", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.path)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.code != http.StatusOK {
				return
			}

			var resp handlers.RatingsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, 2, resp.Total)
			got := make([]string, len(resp.Ratings))
			for i, r := range resp.Ratings {
				got[i] = r.Ticker
			}
			assert.Equal(t, tt.tickers, got)
		})
	}
}

func TestGetRating(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(t, router, "/api/ratings/aaa")
	require.Equal(t, http.StatusOK, rec.Code)
	var rating contracts.CompositeRating
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rating))
	assert.Equal(t, "AAA", rating.Ticker)
	assert.Equal(t, 92, rating.CompRating)

	rec = get(t, router, "/api/ratings/ZZZ")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStats(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(t, router, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 2, resp.Stats.Tickers)
	assert.Equal(t, 2, resp.Stats.Ratings)
	require.NotNil(t, resp.Quality)
	assert.False(t, resp.Quality.Passed, "no price data yet")
}

func TestGetLatestRun(t *testing.T) {
	router, exporter := newTestRouter(t)

	rec := get(t, router, "/api/runs/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := exporter.WriteSummary(&contracts.RunSummary{RunID: "run_1", FinishedAt: time.Now(), Success: true})
	require.NoError(t, err)

	rec = get(t, router, "/api/runs/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run_1"`)
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/ratings", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/ratings/AAA", http.StatusMethodNotAllowed},
		{http.MethodPut, "/api/stats", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/runs/latest", http.StatusMethodNotAllowed},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
