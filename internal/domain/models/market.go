package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketQuote is the current market state of a coin.
type MarketQuote struct {
	CoinID       string
	Symbol       string
	Name         string
	CurrentPrice decimal.Decimal
	MarketCap    decimal.Decimal
	Volume24h    decimal.Decimal
	Change24h    decimal.Decimal // percent
	High24h      decimal.Decimal
	Low24h       decimal.Decimal
	UpdatedAt    time.Time
}

// PricePoint is one observation of a daily price series, oldest first.
type PricePoint struct {
	Time  time.Time
	Price float64
}
