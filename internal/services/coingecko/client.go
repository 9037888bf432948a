package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"FinResearch/internal/domain/models"
	"FinResearch/internal/service/ratelimit"
	"FinResearch/pkg/cache"
	pkghttp "FinResearch/pkg/http"
	applogger "FinResearch/pkg/logger"
	"FinResearch/pkg/util"
)

const (
	FreeBaseURL = "https://api.coingecko.com/api/v3"
	ProBaseURL  = "https://pro-api.coingecko.com/api/v3"

	limiterKey = "coingecko"
)

// Config holds CoinGecko client settings.
type Config struct {
	BaseURL      string
	APIKey       string
	HistoryDays  int
	QuoteTTL     time.Duration
	HistoryTTL   time.Duration
	RateCapacity float64
	RatePerSec   float64
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = FreeBaseURL
		if c.APIKey != "" {
			c.BaseURL = ProBaseURL
		}
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.HistoryDays <= 0 {
		c.HistoryDays = 90
	}
	if c.QuoteTTL <= 0 {
		c.QuoteTTL = time.Minute
	}
	if c.HistoryTTL <= 0 {
		c.HistoryTTL = 15 * time.Minute
	}
	if c.RateCapacity <= 0 {
		c.RateCapacity = 5
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 0.5
	}
}

// Client talks to the CoinGecko REST API. Responses are cached and calls are
// paced by a shared token bucket.
type Client struct {
	cfg     Config
	http    *pkghttp.Client
	cache   cache.Service
	limiter *ratelimit.Limiter
	l       *applogger.Logger
}

// New builds a client. cache and limiter may be nil.
func New(cfg Config, c cache.Service, limiter *ratelimit.Limiter, l *applogger.Logger, opts ...pkghttp.ClientOption) *Client {
	cfg.applyDefaults()
	if l == nil {
		l = applogger.NewNop()
	}
	opts = append([]pkghttp.ClientOption{pkghttp.WithUserAgent("finresearch/1.0")}, opts...)
	return &Client{
		cfg:     cfg,
		http:    pkghttp.NewClient(opts...),
		cache:   c,
		limiter: limiter,
		l:       l,
	}
}

type marketRow struct {
	ID            string              `json:"id"`
	Symbol        string              `json:"symbol"`
	Name          string              `json:"name"`
	CurrentPrice  decimal.NullDecimal `json:"current_price"`
	MarketCap     decimal.Decimal     `json:"market_cap"`
	TotalVolume   decimal.Decimal     `json:"total_volume"`
	Change24h     decimal.Decimal     `json:"price_change_percentage_24h"`
	High24h       decimal.Decimal     `json:"high_24h"`
	Low24h        decimal.Decimal     `json:"low_24h"`
	LastUpdatedAt string              `json:"last_updated"`
}

// chart mirrors /coins/{id}/market_chart; each pair is [unix_ms, value].
type chart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// Quote fetches the current market row for a coin id.
func (c *Client) Quote(ctx context.Context, id string) (models.MarketQuote, error) {
	const op = "coingecko.quote"
	row, err := cache.GetOrLoad(ctx, c.cache, cache.Key("coingecko", "quote", id), c.cfg.QuoteTTL,
		func(ctx context.Context) (marketRow, error) {
			var rows []marketRow
			err := c.get(ctx, "/coins/markets", map[string][]string{
				"vs_currency":             {"usd"},
				"ids":                     {id},
				"order":                   {"market_cap_desc"},
				"per_page":                {"1"},
				"page":                    {"1"},
				"sparkline":               {"false"},
				"price_change_percentage": {"24h,7d"},
			}, &rows)
			if err != nil {
				return marketRow{}, classify(op, err)
			}
			if len(rows) == 0 {
				return marketRow{}, models.NewProviderError(models.ErrNotFound, op, fmt.Errorf("unknown coin %q", id))
			}
			return rows[0], nil
		})
	if err != nil {
		return models.MarketQuote{}, err
	}
	if !row.CurrentPrice.Valid {
		return models.MarketQuote{}, models.NewProviderError(models.ErrNoData, op, fmt.Errorf("no current price for %q", id))
	}

	updated, _ := util.ParseTime(row.LastUpdatedAt)
	return models.MarketQuote{
		CoinID:       row.ID,
		Symbol:       strings.ToUpper(row.Symbol),
		Name:         row.Name,
		CurrentPrice: row.CurrentPrice.Decimal,
		MarketCap:    row.MarketCap,
		Volume24h:    row.TotalVolume,
		Change24h:    row.Change24h,
		High24h:      row.High24h,
		Low24h:       row.Low24h,
		UpdatedAt:    updated,
	}, nil
}

// History returns daily closes and volumes, oldest first.
func (c *Client) History(ctx context.Context, id string, days int) ([]models.PricePoint, []float64, error) {
	const op = "coingecko.history"
	ch, err := cache.GetOrLoad(ctx, c.cache, cache.Key("coingecko", "chart", id, strconv.Itoa(days)), c.cfg.HistoryTTL,
		func(ctx context.Context) (chart, error) {
			var out chart
			err := c.get(ctx, "/coins/"+id+"/market_chart", map[string][]string{
				"vs_currency": {"usd"},
				"days":        {strconv.Itoa(days)},
				"interval":    {"daily"},
			}, &out)
			if err != nil {
				return chart{}, classify(op, err)
			}
			return out, nil
		})
	if err != nil {
		return nil, nil, err
	}

	points := make([]models.PricePoint, 0, len(ch.Prices))
	for _, p := range ch.Prices {
		points = append(points, models.PricePoint{Time: util.FromUnixMillis(p[0]), Price: p[1]})
	}
	volumes := make([]float64, 0, len(ch.TotalVolumes))
	for _, v := range ch.TotalVolumes {
		volumes = append(volumes, v[1])
	}
	return points, volumes, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, limiterKey, c.cfg.RateCapacity, c.cfg.RatePerSec); err != nil {
			return err
		}
	}
	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["x-cg-pro-api-key"] = c.cfg.APIKey
	}

	start := time.Now()
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.cfg.BaseURL + path,
		Headers:     headers,
		QueryParams: query,
	}, dest)
	c.l.Debug("coingecko request",
		applogger.String("path", path),
		applogger.Duration("elapsed", time.Since(start)),
		applogger.Bool("ok", err == nil),
	)
	return err
}

// classify maps transport failures onto the research error taxonomy.
func classify(op string, err error) error {
	var kind models.ErrorKind
	switch code := pkghttp.StatusCode(err); {
	case code == http.StatusNotFound:
		kind = models.ErrNotFound
	case code == http.StatusTooManyRequests:
		kind = models.ErrRateLimited
	case code >= 500:
		kind = models.ErrUnavailable
	case code >= 400:
		kind = models.ErrMalformed
	case errors.Is(err, pkghttp.ErrDecode):
		kind = models.ErrMalformed
	case errors.Is(err, context.DeadlineExceeded):
		kind = models.ErrTimedOut
	default:
		kind = models.ErrUnavailable
	}
	return models.NewProviderError(kind, op, err)
}
