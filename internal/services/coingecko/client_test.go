package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinResearch/internal/domain/models"
	"FinResearch/internal/service/ratelimit"
	"FinResearch/pkg/cache"
)

type fakeAPI struct {
	marketsStatus int
	marketsBody   string
	chartStatus   int
	closes        []float64
	hits          atomic.Int32
	apiKey        atomic.Value
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/markets", func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.apiKey.Store(r.Header.Get("x-cg-pro-api-key"))
		if f.marketsStatus != 0 {
			w.WriteHeader(f.marketsStatus)
			return
		}
		body := f.marketsBody
		if body == "" {
			body = fmt.Sprintf(`[{"id":%q,"symbol":"btc","name":"Bitcoin","current_price":67250.5,
				"market_cap":1325000000000,"total_volume":31000000000,"price_change_percentage_24h":2.14,
				"high_24h":68000,"low_24h":66000,"last_updated":"2025-01-01T00:00:00.000Z"}]`, r.URL.Query().Get("ids"))
		}
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/coins/bitcoin/market_chart", func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		if f.chartStatus != 0 {
			w.WriteHeader(f.chartStatus)
			return
		}
		var out chart
		for i, c := range f.closes {
			ts := float64(1735689600000 + int64(i)*86400000)
			out.Prices = append(out.Prices, [2]float64{ts, c})
			out.TotalVolumes = append(out.TotalVolumes, [2]float64{ts, 1000})
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	return mux
}

func rising(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
		if i%3 == 2 {
			out[i] -= step / 2
		}
	}
	return out
}

func newTestClient(t *testing.T, api *fakeAPI, c cache.Service) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "k"}, c, ratelimit.New(), nil)
}

func TestResolveID(t *testing.T) {
	assert.Equal(t, "bitcoin", ResolveID("btc"))
	assert.Equal(t, "avalanche-2", ResolveID(" AVAX "))
	assert.Equal(t, "some-coin", ResolveID("Some-Coin"))
}

func TestFetchPriceSignal_BuildsCompleteSnapshot(t *testing.T) {
	api := &fakeAPI{closes: rising(90, 50000, 100)}
	c := newTestClient(t, api, nil)

	rep, err := c.FetchPriceSignal(context.Background(), "btc")
	require.NoError(t, err)

	assert.Equal(t, "BTC", rep.Token)
	assert.Equal(t, "bitcoin", rep.CoinID)
	assert.Equal(t, "67250.5", rep.Snapshot.CurrentPrice.String())
	assert.True(t, rep.Snapshot.Complete())
	assert.False(t, rep.Snapshot.SupportBroken)
	assert.Equal(t, "full", rep.DataQuality)
	assert.Contains(t, rep.Text, "**Bitcoin (BTC)** at $67,250.5")
	assert.Contains(t, rep.Text, "RSI(14):")
	assert.Equal(t, "k", api.apiKey.Load())
}

func TestFetchPriceSignal_ShortHistoryIsIncomplete(t *testing.T) {
	api := &fakeAPI{closes: rising(10, 100, 1)}
	c := newTestClient(t, api, nil)

	rep, err := c.FetchPriceSignal(context.Background(), "BTC")
	require.NoError(t, err)
	assert.False(t, rep.Snapshot.Complete())
	assert.Equal(t, []string{"SMA20", "SMA50", "RSI14"}, rep.Snapshot.MissingFields())
	assert.Equal(t, "minimal", rep.DataQuality)
	assert.Contains(t, rep.Text, "SMA20: n/a")
}

func TestFetchPriceSignal_MissingHistoryDegrades(t *testing.T) {
	api := &fakeAPI{chartStatus: http.StatusNotFound}
	c := newTestClient(t, api, nil)

	rep, err := c.FetchPriceSignal(context.Background(), "BTC")
	require.NoError(t, err)
	assert.False(t, rep.Snapshot.Complete())
	assert.Equal(t, "none", rep.DataQuality)
}

func TestFetchPriceSignal_ErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		api  *fakeAPI
		want models.ErrorKind
	}{
		{"unknown coin", &fakeAPI{marketsBody: `[]`}, models.ErrNotFound},
		{"not found", &fakeAPI{marketsStatus: http.StatusNotFound}, models.ErrNotFound},
		{"rate limited", &fakeAPI{marketsStatus: http.StatusTooManyRequests}, models.ErrRateLimited},
		{"server error", &fakeAPI{marketsStatus: http.StatusBadGateway}, models.ErrUnavailable},
		{"bad json", &fakeAPI{marketsBody: `{"not":"a list"`}, models.ErrMalformed},
		{"null price", &fakeAPI{marketsBody: `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":null}]`}, models.ErrNoData},
		{"chart rate limited", &fakeAPI{chartStatus: http.StatusTooManyRequests}, models.ErrRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.api, nil)
			_, err := c.FetchPriceSignal(context.Background(), "BTC")
			require.Error(t, err)
			assert.Equal(t, tc.want, models.KindOf(err))
		})
	}
}

func TestFetchPriceSignal_UsesCache(t *testing.T) {
	api := &fakeAPI{closes: rising(60, 10, 0.1)}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	c := newTestClient(t, api, mc)

	first, err := c.FetchPriceSignal(context.Background(), "BTC")
	require.NoError(t, err)
	second, err := c.FetchPriceSignal(context.Background(), "bitcoin")
	require.NoError(t, err)

	assert.Equal(t, int32(2), api.hits.Load())
	assert.True(t, first.Snapshot.CurrentPrice.Equal(second.Snapshot.CurrentPrice))
	assert.Equal(t, first.Text, second.Text)
}

func TestFetchPriceSignal_EmptyToken(t *testing.T) {
	c := newTestClient(t, &fakeAPI{}, nil)
	_, err := c.FetchPriceSignal(context.Background(), "  ")
	assert.Equal(t, models.ErrNotFound, models.KindOf(err))
	assert.True(t, strings.Contains(err.Error(), "empty token"))
}
