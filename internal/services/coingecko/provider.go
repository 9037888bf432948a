package coingecko

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"FinResearch/internal/domain/models"
	"FinResearch/internal/services/features"
	applogger "FinResearch/pkg/logger"
	"FinResearch/pkg/util"
)

// FetchPriceSignal resolves token, pulls the quote and daily history, and
// derives the signal snapshot. Missing history yields a snapshot with absent
// indicators rather than an error.
func (c *Client) FetchPriceSignal(ctx context.Context, token string) (models.PriceReport, error) {
	id := ResolveID(token)
	if id == "" {
		return models.PriceReport{}, models.NewProviderError(models.ErrNotFound, "coingecko.price", fmt.Errorf("empty token"))
	}

	q, err := c.Quote(ctx, id)
	if err != nil {
		return models.PriceReport{}, err
	}

	points, volumes, err := c.History(ctx, id, c.cfg.HistoryDays)
	if err != nil {
		if models.KindOf(err) != models.ErrNotFound {
			return models.PriceReport{}, err
		}
		c.l.Warn("coingecko history unavailable", applogger.String("coin", id), applogger.Error(err))
	}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Price
	}
	ind := features.Compute(closes, volumes)
	snap := features.BuildSnapshot(q.CurrentPrice, ind)

	return models.PriceReport{
		Token:       strings.ToUpper(strings.TrimSpace(token)),
		CoinID:      q.CoinID,
		Name:        q.Name,
		Snapshot:    snap,
		MarketCap:   q.MarketCap,
		Volume24h:   q.Volume24h,
		Change24h:   q.Change24h,
		DataQuality: ind.Quality,
		Text:        render(q, ind, snap),
	}, nil
}

func render(q models.MarketQuote, ind features.Indicators, s models.SignalSnapshot) string {
	var b strings.Builder
	price, _ := s.CurrentPrice.Float64()

	fmt.Fprintf(&b, "**%s (%s)** at %s", q.Name, q.Symbol, util.FormatUSD(q.CurrentPrice))
	fmt.Fprintf(&b, " (24h: %s", util.FormatSignedPercent(q.Change24h))
	if s.PriceChange7d != nil {
		fmt.Fprintf(&b, ", 7d: %s", util.FormatSignedPercent(*s.PriceChange7d))
	}
	b.WriteString(")\n\n")

	fmt.Fprintf(&b, "- Market cap: %s\n", util.FormatUSD(q.MarketCap.Round(0)))
	fmt.Fprintf(&b, "- 24h volume: %s\n", util.FormatUSD(q.Volume24h.Round(0)))
	if !q.High24h.IsZero() || !q.Low24h.IsZero() {
		fmt.Fprintf(&b, "- 24h range: %s to %s\n", util.FormatUSD(q.Low24h), util.FormatUSD(q.High24h))
	}
	fmt.Fprintf(&b, "- Trend: %s\n", features.Trend(price, ind))
	fmt.Fprintf(&b, "- SMA20: %s | SMA50: %s\n", usdOrNA(s.SMA20), usdOrNA(s.SMA50))
	if s.RSI14 != nil {
		fmt.Fprintf(&b, "- RSI(14): %s (%s)\n", s.RSI14.StringFixed(1), features.InterpretRSI(ind.RSI14))
	} else {
		b.WriteString("- RSI(14): n/a\n")
	}
	if s.SupportLevel != nil {
		state := "holding"
		if s.SupportBroken {
			state = "broken"
		}
		fmt.Fprintf(&b, "- Support: %s (%s)\n", util.FormatUSD(*s.SupportLevel), state)
	}
	if ind.VolumeRatio != nil {
		fmt.Fprintf(&b, "- Volume: %s (%sx %d-day average)\n",
			features.InterpretVolume(ind.VolumeRatio),
			decimal.NewFromFloat(*ind.VolumeRatio).StringFixed(2),
			features.VolumeWindow)
	}
	fmt.Fprintf(&b, "- Data quality: %s (%d daily closes)", ind.Quality, ind.Points)
	return b.String()
}

func usdOrNA(d *decimal.Decimal) string {
	if d == nil {
		return "n/a"
	}
	return util.FormatUSD(*d)
}
