package analyst

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinResearch/internal/domain/models"
)

func newSidecar(t *testing.T, h http.HandlerFunc) Config {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return Config{BaseURL: srv.URL, Timeout: time.Second, Attempts: 3, Backoff: time.Millisecond}
}

func TestNewsProvider_Success(t *testing.T) {
	var got summaryRequest
	cfg := newSidecar(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/news/summary", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"summary":"ETF inflows continue.","sentiment":"Bullish","sources":["https://example.com/a"]}`))
	})
	cfg.Prompts = map[string]string{PromptNews: "Summarise crypto news."}

	rep, err := NewHTTPNewsProvider(cfg).FetchNewsSummary(context.Background(), " BTC ")
	require.NoError(t, err)
	assert.Equal(t, "ETF inflows continue.", rep.Text)
	assert.Equal(t, models.SentimentBullish, rep.Sentiment)
	assert.Equal(t, []string{"https://example.com/a"}, rep.Sources)
	assert.Equal(t, summaryRequest{Token: "BTC", Instructions: "Summarise crypto news."}, got)
}

func TestSentimentProvider_DefaultPromptAndUnknownTag(t *testing.T) {
	var got summaryRequest
	cfg := newSidecar(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sentiment/summary", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"summary":"Fear and greed at 55.","sentiment":"euphoric"}`))
	})

	rep, err := NewHTTPSentimentProvider(cfg).FetchSentimentSummary(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentUnknown, rep.Sentiment)
	assert.Equal(t, defaultSentimentPrompt, got.Instructions)
}

func TestSummary_ErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   models.ErrorKind
	}{
		{"empty summary", http.StatusOK, `{"summary":"   "}`, models.ErrNoData},
		{"no content", http.StatusNoContent, ``, models.ErrNoData},
		{"not found", http.StatusNotFound, `{}`, models.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, `{}`, models.ErrRateLimited},
		{"unavailable", http.StatusServiceUnavailable, `{}`, models.ErrUnavailable},
		{"bad request", http.StatusBadRequest, `{}`, models.ErrMalformed},
		{"garbage", http.StatusOK, `<html>`, models.ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := newSidecar(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := NewHTTPNewsProvider(cfg).FetchNewsSummary(context.Background(), "BTC")
			require.Error(t, err)
			assert.Equal(t, tc.want, models.KindOf(err))
		})
	}
}

func TestSummary_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	cfg := newSidecar(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"summary":"recovered","sentiment":"neutral"}`))
	})

	rep, err := NewHTTPNewsProvider(cfg).FetchNewsSummary(context.Background(), "SOL")
	require.NoError(t, err)
	assert.Equal(t, "recovered", rep.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSummary_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	cfg := newSidecar(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := NewHTTPSentimentProvider(cfg).FetchSentimentSummary(context.Background(), "XYZ")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSummary_Unconfigured(t *testing.T) {
	_, err := NewHTTPNewsProvider(Config{}).FetchNewsSummary(context.Background(), "BTC")
	assert.Equal(t, models.ErrUnavailable, models.KindOf(err))
}
