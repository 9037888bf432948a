package features

import (
	"math"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"FinResearch/internal/domain/models"
)

const (
	SMAShortPeriod = 20
	SMALongPeriod  = 50
	RSIPeriod      = 14
	SupportWindow  = 14
	ChangeLookback = 7
	VolumeWindow   = 7
)

// Indicators are computed from a daily series, oldest first. Nil means not enough history.
type Indicators struct {
	SMA20       *float64
	SMA50       *float64
	RSI14       *float64
	Support     *float64
	Change7d    *float64
	VolumeRatio *float64
	Quality     string
	Points      int
}

// SMA returns the simple moving average of the last period closes.
func SMA(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}
	return last(talib.Sma(closes, period))
}

// RSI returns Wilder's relative strength index over period.
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}
	return last(talib.Rsi(closes, period))
}

// Support is the lowest close of the window preceding the latest observation.
func Support(closes []float64, window int) *float64 {
	if window <= 0 || len(closes) < window+1 {
		return nil
	}
	prior := closes[len(closes)-1-window : len(closes)-1]
	lo := prior[0]
	for _, c := range prior[1:] {
		lo = math.Min(lo, c)
	}
	return &lo
}

// PercentChange compares the latest close with the one lookback observations earlier.
func PercentChange(closes []float64, lookback int) *float64 {
	if lookback <= 0 || len(closes) < lookback+1 {
		return nil
	}
	base := closes[len(closes)-1-lookback]
	if base == 0 {
		return nil
	}
	v := (closes[len(closes)-1] - base) / base * 100
	return &v
}

// VolumeRatio compares the latest volume with the average of the window before it.
func VolumeRatio(volumes []float64, window int) *float64 {
	if window <= 0 || len(volumes) < window+1 {
		return nil
	}
	sum := 0.0
	for _, v := range volumes[len(volumes)-1-window : len(volumes)-1] {
		sum += v
	}
	if sum == 0 {
		return nil
	}
	r := volumes[len(volumes)-1] / (sum / float64(window))
	return &r
}

// DataQuality grades how much history backs the indicators.
func DataQuality(n int) string {
	switch {
	case n >= SMALongPeriod:
		return "full"
	case n >= SMAShortPeriod:
		return "partial"
	case n >= RSIPeriod:
		return "limited"
	case n > 0:
		return "minimal"
	default:
		return "none"
	}
}

// Compute derives every indicator the snapshot needs from daily closes and volumes.
func Compute(closes, volumes []float64) Indicators {
	return Indicators{
		SMA20:       SMA(closes, SMAShortPeriod),
		SMA50:       SMA(closes, SMALongPeriod),
		RSI14:       RSI(closes, RSIPeriod),
		Support:     Support(closes, SupportWindow),
		Change7d:    PercentChange(closes, ChangeLookback),
		VolumeRatio: VolumeRatio(volumes, VolumeWindow),
		Quality:     DataQuality(len(closes)),
		Points:      len(closes),
	}
}

// BuildSnapshot turns indicators into a SignalSnapshot at the given price.
// Support counts as broken when the price trades under the prior window's low.
func BuildSnapshot(price decimal.Decimal, ind Indicators) models.SignalSnapshot {
	support := toDecimal(ind.Support, 8)
	broken := support != nil && price.LessThan(*support)
	s := models.NewSignalSnapshot(price, toDecimal(ind.SMA20, 8), toDecimal(ind.SMA50, 8), toDecimal(ind.RSI14, 2), broken)
	return s.WithContext(support, toDecimal(ind.Change7d, 2))
}

func toDecimal(v *float64, places int32) *decimal.Decimal {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	d := decimal.NewFromFloat(*v).Round(places)
	return &d
}

func last(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1]
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
