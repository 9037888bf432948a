// Package allocation turns a SignalSnapshot into a weekly allocation verdict.
// Evaluate is pure: no clock, no I/O, no randomness.
package allocation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"FinResearch/internal/domain/models"
	"FinResearch/pkg/util"
)

const TimeHorizon = "1 week"

var (
	rsiFloor     = decimal.NewFromInt(40)
	rsiCeiling   = decimal.NewFromInt(70)
	dropFactor   = decimal.RequireFromString("0.9")
	rallyFactor  = decimal.RequireFromString("1.1")
	deepPullback = decimal.NewFromInt(-10)
	pullback     = decimal.NewFromInt(-5)
	strongRally  = decimal.NewFromInt(10)
)

const (
	maxRationale  = 4
	maxTriggers   = 3
	maxNextChecks = 2
)

type rule int

const (
	ruleSupportBroken rule = iota + 1
	ruleIncomplete
	ruleBelowTrend
	ruleBullishHealthy
	ruleBullishWeak
	ruleWarning
	ruleFallback
)

// Evaluate applies the decision table in priority order, then the
// data-availability downgrade. It never fails.
func Evaluate(s models.SignalSnapshot, auxiliaryDataAvailable bool) models.AllocationVerdict {
	r, base := classify(s)

	final := base
	if !auxiliaryDataAvailable {
		final = base.Downgrade()
	}

	rationale := baseRationale(r, s)
	if ctx := changeContext(s); ctx != "" {
		rationale = append(rationale, ctx)
	}
	if final != base {
		rationale = append(rationale, fmt.Sprintf("News/sentiment data unavailable: bias reduced one step from %s", base))
	}

	return models.AllocationVerdict{
		Bias:                 final,
		BaseBias:             base,
		AllocationPercent:    final.AllocationPercent(),
		Rationale:            capList(rationale, maxRationale),
		InvalidationTriggers: triggers(s, base),
		NextChecks:           nextChecks(s, final, final != base),
		TimeHorizon:          TimeHorizon,
		Downgraded:           final != base,
	}
}

func classify(s models.SignalSnapshot) (rule, models.Bias) {
	if s.SupportBroken {
		return ruleSupportBroken, models.BiasPause
	}
	if !s.Complete() {
		return ruleIncomplete, models.BiasHold
	}
	price, sma20, sma50, rsi := s.CurrentPrice, *s.SMA20, *s.SMA50, *s.RSI14
	if price.LessThan(sma50) {
		return ruleBelowTrend, models.BiasHold
	}
	bullish := price.GreaterThan(sma20) && sma20.GreaterThan(sma50)
	switch {
	case bullish && rsi.GreaterThanOrEqual(rsiFloor) && rsi.LessThanOrEqual(rsiCeiling):
		return ruleBullishHealthy, models.BiasAccumulate
	case bullish && rsi.LessThan(rsiFloor):
		return ruleBullishWeak, models.BiasLightAccumulate
	case price.GreaterThan(sma50) && price.LessThanOrEqual(sma20):
		return ruleWarning, models.BiasLightAccumulate
	}
	return ruleFallback, models.BiasHold
}

func baseRationale(r rule, s models.SignalSnapshot) []string {
	price := util.FormatUSD(s.CurrentPrice)
	switch r {
	case ruleSupportBroken:
		first := "Key support level invalidated"
		if s.SupportLevel != nil {
			first = fmt.Sprintf("Key support level invalidated: price %s below support at %s", price, util.FormatUSD(*s.SupportLevel))
		}
		return []string{first, "Capital preservation takes priority until support is reclaimed"}
	case ruleIncomplete:
		missing := s.MissingFields()
		first := "Signal set flagged incomplete"
		if len(missing) > 0 {
			first = "Insufficient signal confidence to accumulate: missing " + strings.Join(missing, ", ")
		}
		return []string{first, fmt.Sprintf("Defaulting to a conservative stance at %s", price)}
	case ruleBelowTrend:
		return []string{
			fmt.Sprintf("Risk-off: price %s below medium-term trend (SMA50 at %s)", price, util.FormatUSD(*s.SMA50)),
			rsiLine(*s.RSI14),
		}
	case ruleBullishHealthy:
		return []string{
			bullishLine(s),
			fmt.Sprintf("RSI at %s in healthy momentum range (40-70)", s.RSI14.StringFixed(1)),
		}
	case ruleBullishWeak:
		return []string{
			bullishLine(s),
			fmt.Sprintf("RSI at %s shows weak momentum despite bullish structure", s.RSI14.StringFixed(1)),
		}
	case ruleWarning:
		return []string{
			fmt.Sprintf("Warning structure: price %s above SMA50 (%s) but not above SMA20 (%s)",
				price, util.FormatUSD(*s.SMA50), util.FormatUSD(*s.SMA20)),
			rsiLine(*s.RSI14),
		}
	}
	return fallbackRationale(s)
}

func fallbackRationale(s models.SignalSnapshot) []string {
	price, sma20, sma50, rsi := s.CurrentPrice, *s.SMA20, *s.SMA50, *s.RSI14
	var first string
	switch {
	case price.GreaterThan(sma20) && sma20.GreaterThan(sma50) && rsi.GreaterThan(rsiCeiling):
		first = fmt.Sprintf("RSI at %s is overextended above 70 despite bullish structure", rsi.StringFixed(1))
	case price.Equal(sma50):
		first = fmt.Sprintf("Price %s sitting exactly on SMA50 with no trend confirmation", util.FormatUSD(price))
	default:
		first = fmt.Sprintf("Moving averages not aligned: SMA20 at %s vs SMA50 at %s", util.FormatUSD(sma20), util.FormatUSD(sma50))
	}
	return []string{first, "No accumulation rule matched; holding the base allocation"}
}

func bullishLine(s models.SignalSnapshot) string {
	return fmt.Sprintf("Bullish structure: price %s above SMA20 (%s) and SMA20 above SMA50 (%s)",
		util.FormatUSD(s.CurrentPrice), util.FormatUSD(*s.SMA20), util.FormatUSD(*s.SMA50))
}

func rsiLine(rsi decimal.Decimal) string {
	v := rsi.StringFixed(1)
	switch {
	case rsi.LessThan(rsiFloor):
		return fmt.Sprintf("RSI at %s below 40: momentum weakening", v)
	case rsi.GreaterThan(rsiCeiling):
		return fmt.Sprintf("RSI at %s above 70: momentum stretched", v)
	default:
		return fmt.Sprintf("RSI at %s in neutral range, no extreme", v)
	}
}

func changeContext(s models.SignalSnapshot) string {
	c := s.PriceChange7d
	if c == nil {
		return ""
	}
	switch {
	case c.LessThanOrEqual(deepPullback):
		return fmt.Sprintf("7-day correction of %s creates a potential mean-reversion setup", util.FormatPercent(*c))
	case c.LessThanOrEqual(pullback):
		return fmt.Sprintf("Modest 7-day pullback (%s), watching for stabilization", util.FormatPercent(*c))
	case c.GreaterThanOrEqual(strongRally):
		return fmt.Sprintf("Strong 7-day rally (%s), caution on chasing", util.FormatSignedPercent(*c))
	}
	return ""
}

// triggers follow the base bias so a downgraded bullish call still lists the
// levels that would break the bullish case.
func triggers(s models.SignalSnapshot, base models.Bias) []string {
	var out []string
	if base >= models.BiasLightAccumulate {
		if s.SMA20 != nil {
			out = append(out, fmt.Sprintf("Daily close below SMA20 at %s", util.FormatUSD(*s.SMA20)))
		}
		if s.SupportLevel != nil {
			out = append(out, fmt.Sprintf("Break below support at %s", util.FormatUSD(*s.SupportLevel)))
		} else if s.SMA50 != nil {
			out = append(out, fmt.Sprintf("Price closing below %s SMA50 support", util.FormatUSD(*s.SMA50)))
		}
		if s.RSI14 != nil {
			out = append(out, "RSI below 40 sustained for 2+ days")
		}
	} else {
		if s.SMA50 != nil {
			out = append(out, fmt.Sprintf("Failure to reclaim SMA50 at %s", util.FormatUSD(*s.SMA50)))
		}
		if s.SupportLevel != nil {
			out = append(out, fmt.Sprintf("Break below support at %s", util.FormatUSD(*s.SupportLevel)))
		}
		if s.RSI14 != nil {
			out = append(out, "RSI dropping below 30 (oversold panic)")
		}
	}

	if len(out) < 2 {
		out = append(out, fmt.Sprintf("Price drop >10%% from current (%s)", util.FormatUSD(s.CurrentPrice.Mul(dropFactor))))
	}
	if len(out) < 2 {
		out = append(out, fmt.Sprintf("Price recovery >10%% from current (%s) with volume confirmation", util.FormatUSD(s.CurrentPrice.Mul(rallyFactor))))
	}
	return capList(out, maxTriggers)
}

func nextChecks(s models.SignalSnapshot, final models.Bias, downgraded bool) []string {
	out := []string{"Next weekly run"}
	if downgraded {
		return append(out, "Check whether news/sentiment data availability is restored")
	}
	switch final {
	case models.BiasAccumulate:
		out = append(out, "Watch for continued momentum and volume confirmation")
	case models.BiasLightAccumulate:
		if s.SMA20 != nil {
			out = append(out, fmt.Sprintf("Watch for reclaim of SMA20 at %s", util.FormatUSD(*s.SMA20)))
		} else {
			out = append(out, "Watch for stabilization and support holding")
		}
	case models.BiasHold:
		if s.SMA50 != nil {
			out = append(out, fmt.Sprintf("Watch for reclaim of SMA50 at %s", util.FormatUSD(*s.SMA50)))
		} else {
			out = append(out, "Watch for trend reversal signals")
		}
	default:
		out = append(out, "Watch for capitulation and a volume spike for a potential bottom")
	}
	return capList(out, maxNextChecks)
}

func capList(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}
