package allocation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinResearch/internal/domain/models"
)

func d(v float64) *decimal.Decimal {
	x := decimal.NewFromFloat(v)
	return &x
}

func snapshot(price, sma20, sma50, rsi float64) models.SignalSnapshot {
	return models.NewSignalSnapshot(decimal.NewFromFloat(price), d(sma20), d(sma50), d(rsi), false)
}

func assertShape(t *testing.T, v models.AllocationVerdict) {
	t.Helper()
	assert.Equal(t, v.Bias.AllocationPercent(), v.AllocationPercent)
	assert.GreaterOrEqual(t, len(v.Rationale), 2)
	assert.LessOrEqual(t, len(v.Rationale), 4)
	assert.GreaterOrEqual(t, len(v.InvalidationTriggers), 2)
	assert.LessOrEqual(t, len(v.InvalidationTriggers), 3)
	assert.LessOrEqual(t, len(v.NextChecks), 2)
	assert.Equal(t, v.BaseBias != v.Bias, v.Downgraded)
	assert.Equal(t, TimeHorizon, v.TimeHorizon)
}

func TestEvaluate_Scenarios(t *testing.T) {
	broken := snapshot(105, 100, 90, 55)
	broken.SupportBroken = true

	tests := []struct {
		name       string
		snap       models.SignalSnapshot
		aux        bool
		bias       models.Bias
		percent    int
		downgraded bool
	}{
		{"bullish healthy momentum", snapshot(105, 100, 90, 55), true, models.BiasAccumulate, 100, false},
		{"bullish weak momentum", snapshot(105, 100, 90, 30), true, models.BiasLightAccumulate, 50, false},
		{"warning structure", snapshot(95, 100, 90, 55), true, models.BiasLightAccumulate, 50, false},
		{"below both averages", snapshot(85, 100, 90, 55), true, models.BiasHold, 25, false},
		{"bullish without aux data", snapshot(105, 100, 90, 55), false, models.BiasLightAccumulate, 50, true},
		{"support broken with aux", broken, true, models.BiasPause, 0, false},
		{"support broken without aux", broken, false, models.BiasPause, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Evaluate(tc.snap, tc.aux)
			assert.Equal(t, tc.bias, v.Bias)
			assert.Equal(t, tc.percent, v.AllocationPercent)
			assert.Equal(t, tc.downgraded, v.Downgraded)
			assertShape(t, v)
		})
	}
}

func TestEvaluate_Boundaries(t *testing.T) {
	// price == sma20 is not above it: warning branch.
	v := Evaluate(snapshot(100, 100, 90, 55), true)
	assert.Equal(t, models.BiasLightAccumulate, v.Bias)

	// price == sma50 is neither below nor above: fallback.
	v = Evaluate(snapshot(90, 100, 90, 55), true)
	assert.Equal(t, models.BiasHold, v.Bias)
	assert.Contains(t, v.Rationale[0], "SMA50")

	// RSI bounds are inclusive.
	assert.Equal(t, models.BiasAccumulate, Evaluate(snapshot(105, 100, 90, 40), true).Bias)
	assert.Equal(t, models.BiasAccumulate, Evaluate(snapshot(105, 100, 90, 70), true).Bias)

	// Overbought bullish structure falls through to Hold.
	v = Evaluate(snapshot(105, 100, 90, 75), true)
	assert.Equal(t, models.BiasHold, v.Bias)
	assert.Contains(t, v.Rationale[0], "overextended")

	// sma20 == sma50 is not a bullish stack.
	assert.Equal(t, models.BiasHold, Evaluate(snapshot(105, 90, 90, 55), true).Bias)
}

func TestEvaluate_IncompleteData(t *testing.T) {
	s := models.NewSignalSnapshot(decimal.NewFromInt(105), d(100), nil, nil, false)
	require.False(t, s.DataComplete)

	v := Evaluate(s, true)
	assert.Equal(t, models.BiasHold, v.Bias)
	assert.Contains(t, v.Rationale[0], "SMA50, RSI14")
	assertShape(t, v)

	// A hand-built snapshot lying about completeness is still incomplete.
	lying := models.SignalSnapshot{CurrentPrice: decimal.NewFromInt(105), DataComplete: true}
	v = Evaluate(lying, true)
	assert.Equal(t, models.BiasHold, v.Bias)
	assertShape(t, v)

	v = Evaluate(lying, false)
	assert.Equal(t, models.BiasPause, v.Bias)
	assert.True(t, v.Downgraded)
}

func TestEvaluate_SupportBrokenAlwaysPauses(t *testing.T) {
	for _, rsi := range []float64{10, 40, 55, 70, 95} {
		for _, aux := range []bool{true, false} {
			s := snapshot(200, 150, 100, rsi)
			s.SupportBroken = true
			v := Evaluate(s, aux)
			assert.Equal(t, models.BiasPause, v.Bias)
			assert.False(t, v.Downgraded)
		}
	}
}

func TestEvaluate_DowngradeFloor(t *testing.T) {
	grid := []float64{80, 90, 95, 100, 105, 110}
	for _, price := range grid {
		for _, sma20 := range grid {
			for _, sma50 := range grid {
				for _, rsi := range []float64{20, 40, 55, 70, 85} {
					s := snapshot(price, sma20, sma50, rsi)
					with := Evaluate(s, true)
					without := Evaluate(s, false)

					assertShape(t, with)
					assertShape(t, without)
					assert.Equal(t, with.Bias, without.BaseBias)
					if with.Bias == models.BiasPause {
						assert.Equal(t, models.BiasPause, without.Bias)
						continue
					}
					assert.Equal(t, with.Bias-1, without.Bias)
					if without.Bias == models.BiasPause {
						assert.Equal(t, models.BiasHold, with.Bias)
					}
				}
			}
		}
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	s := snapshot(105, 100, 90, 55).WithContext(d(98.5), d(-12.34))
	first := Evaluate(s, false)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate(s, false))
	}
}

func TestEvaluate_Text(t *testing.T) {
	v := Evaluate(snapshot(105, 100, 90, 30), true)
	assert.Equal(t, "RSI at 30.0 shows weak momentum despite bullish structure", v.Rationale[1])
	assert.Contains(t, v.InvalidationTriggers, "Daily close below SMA20 at $100")
	assert.Contains(t, v.InvalidationTriggers, "Price closing below $90 SMA50 support")

	v = Evaluate(snapshot(85, 100, 90, 55), true)
	assert.Contains(t, v.Rationale[0], "Risk-off: price $85 below medium-term trend")
	assert.Equal(t, "Failure to reclaim SMA50 at $90", v.InvalidationTriggers[0])
	assert.Equal(t, []string{"Next weekly run", "Watch for reclaim of SMA50 at $90"}, v.NextChecks)

	s := snapshot(105, 100, 90, 55).WithContext(nil, d(-12.34))
	v = Evaluate(s, false)
	require.Len(t, v.Rationale, 4)
	assert.Contains(t, v.Rationale[2], "-12.3%")
	assert.Contains(t, v.Rationale[3], "reduced one step from Accumulate")
	assert.Equal(t, "Check whether news/sentiment data availability is restored", v.NextChecks[1])
}

func TestEvaluate_TriggerPadding(t *testing.T) {
	s := models.NewSignalSnapshot(decimal.NewFromInt(1000), nil, nil, nil, true)
	v := Evaluate(s, true)
	assert.Equal(t, models.BiasPause, v.Bias)
	assert.Equal(t, []string{
		"Price drop >10% from current ($900)",
		"Price recovery >10% from current ($1,100) with volume confirmation",
	}, v.InvalidationTriggers)
}

func TestEvaluate_NegativePriceAccepted(t *testing.T) {
	v := Evaluate(snapshot(-5, 100, 90, 55), true)
	assert.Equal(t, models.BiasHold, v.Bias)
	assertShape(t, v)
}
