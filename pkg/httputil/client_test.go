package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-ratings/pkg/logger"
)

type countingWaiter struct {
	calls atomic.Int32
	err   error
}

func (w *countingWaiter) Wait(ctx context.Context) error {
	w.calls.Add(1)
	return w.err
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"AAPL","price":189.5}`))
	}))
	defer server.Close()

	waiter := &countingWaiter{}
	client := New(logger.Nop(), 5*time.Second).WithLimiter(waiter)

	var out struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	require.NoError(t, client.GetJSON(context.Background(), server.URL+"?apikey=secret", &out))
	assert.Equal(t, "AAPL", out.Symbol)
	assert.InDelta(t, 189.5, out.Price, 1e-9)
	assert.Equal(t, int32(1), waiter.calls.Load())
}

func TestGetJSON_StatusError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := New(logger.Nop(), 5*time.Second)

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), server.URL+"/x?apikey=secret", &out)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.NotContains(t, statusErr.Error(), "secret")
	// single attempt, no retry
	assert.Equal(t, int32(1), hits.Load())
}

func TestGet_LimiterErrorStopsRequest(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client := New(logger.Nop(), 5*time.Second).WithLimiter(&countingWaiter{err: context.Canceled})

	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, hits.Load())
}

func TestGet_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := New(logger.Nop(), 50*time.Millisecond)
	_, err := client.Get(context.Background(), server.URL)
	assert.Error(t, err)
}
