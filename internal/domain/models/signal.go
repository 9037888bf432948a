package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SignalSnapshot is the technical picture of a token at research time.
// Absent indicators are nil. Build it with NewSignalSnapshot so DataComplete
// always agrees with the indicator fields.
type SignalSnapshot struct {
	CurrentPrice  decimal.Decimal
	SMA20         *decimal.Decimal
	SMA50         *decimal.Decimal
	RSI14         *decimal.Decimal
	SupportBroken bool
	DataComplete  bool

	// Context for rationale text; never consulted for the bias.
	SupportLevel  *decimal.Decimal
	PriceChange7d *decimal.Decimal // percent
}

// NewSignalSnapshot derives DataComplete from the indicator fields.
func NewSignalSnapshot(price decimal.Decimal, sma20, sma50, rsi14 *decimal.Decimal, supportBroken bool) SignalSnapshot {
	return SignalSnapshot{
		CurrentPrice:  price,
		SMA20:         sma20,
		SMA50:         sma50,
		RSI14:         rsi14,
		SupportBroken: supportBroken,
		DataComplete:  sma20 != nil && sma50 != nil && rsi14 != nil,
	}
}

// WithContext returns a copy carrying the informational fields.
func (s SignalSnapshot) WithContext(support, change7d *decimal.Decimal) SignalSnapshot {
	s.SupportLevel = support
	s.PriceChange7d = change7d
	return s
}

// Complete reports whether every quantitative field is present.
// A snapshot claiming DataComplete with a nil indicator is treated as incomplete.
func (s SignalSnapshot) Complete() bool {
	return s.DataComplete && s.SMA20 != nil && s.SMA50 != nil && s.RSI14 != nil
}

// MissingFields lists absent indicators in a stable order.
func (s SignalSnapshot) MissingFields() []string {
	var missing []string
	if s.SMA20 == nil {
		missing = append(missing, "SMA20")
	}
	if s.SMA50 == nil {
		missing = append(missing, "SMA50")
	}
	if s.RSI14 == nil {
		missing = append(missing, "RSI14")
	}
	return missing
}

// PriceReport is the price collaborator's output: structured signals plus rendered text.
type PriceReport struct {
	Token       string
	CoinID      string
	Name        string
	Snapshot    SignalSnapshot
	MarketCap   decimal.Decimal
	Volume24h   decimal.Decimal
	Change24h   decimal.Decimal
	DataQuality string // "full", "partial", "limited", "insufficient"
	Text        string
}

// Sentiment is the coarse tag attached to news and sentiment summaries.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
	SentimentMixed   Sentiment = "mixed"
	SentimentUnknown Sentiment = "unknown"
)

// TextReport is the output of the news and sentiment collaborators.
type TextReport struct {
	Text      string
	Sentiment Sentiment
	Sources   []string
}

// ParseSentiment normalises a free-form tag; anything unrecognised is unknown.
func ParseSentiment(s string) Sentiment {
	switch v := Sentiment(strings.ToLower(strings.TrimSpace(s))); v {
	case SentimentBullish, SentimentBearish, SentimentNeutral, SentimentMixed:
		return v
	default:
		return SentimentUnknown
	}
}
