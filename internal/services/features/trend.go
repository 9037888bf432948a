package features

// Trend summarises price against its averages and RSI, e.g. "Strong uptrend".
func Trend(price float64, ind Indicators) string {
	if ind.SMA20 == nil {
		return "Insufficient data for trend analysis"
	}
	total, bullish := 1, 0
	if price > *ind.SMA20 {
		bullish++
	}
	if ind.SMA50 != nil {
		total++
		if *ind.SMA20 > *ind.SMA50 {
			bullish++
		}
	}
	if ind.RSI14 != nil {
		total++
		if *ind.RSI14 > 50 {
			bullish++
		}
	}

	ratio := float64(bullish) / float64(total)
	switch {
	case bullish == total:
		return "Strong uptrend"
	case ratio >= 0.66:
		return "Moderate uptrend"
	case ratio >= 0.33:
		return "Sideways / Choppy"
	case bullish > 0:
		return "Moderate downtrend"
	default:
		return "Strong downtrend"
	}
}

// InterpretRSI labels an RSI reading.
func InterpretRSI(rsi *float64) string {
	if rsi == nil {
		return "Insufficient data"
	}
	switch v := *rsi; {
	case v >= 80:
		return "Extremely overbought, high reversal risk"
	case v >= 70:
		return "Overbought, potential pullback"
	case v >= 60:
		return "Bullish momentum"
	case v >= 40:
		return "Neutral"
	case v >= 30:
		return "Bearish momentum"
	case v >= 20:
		return "Oversold, potential bounce"
	default:
		return "Extremely oversold, high reversal potential"
	}
}

// InterpretVolume labels a volume ratio against the trailing average.
func InterpretVolume(ratio *float64) string {
	if ratio == nil {
		return "Insufficient data"
	}
	switch v := *ratio; {
	case v >= 1.5:
		return "Significantly elevated"
	case v >= 1.0:
		return "Above average"
	case v >= 0.75:
		return "Normal range"
	case v >= 0.5:
		return "Below average"
	default:
		return "Very low"
	}
}
