package features

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestSMA(t *testing.T) {
	closes := series(25, 1, 1) // 1..25
	got := SMA(closes, 20)
	require.NotNil(t, got)
	assert.InDelta(t, 15.5, *got, 1e-9)

	assert.Nil(t, SMA(closes, 50))
	assert.Nil(t, SMA(nil, 20))
}

func TestRSI(t *testing.T) {
	up := series(30, 100, 1)
	got := RSI(up, 14)
	require.NotNil(t, got)
	assert.InDelta(t, 100, *got, 1e-6)

	alternating := make([]float64, 40)
	for i := range alternating {
		alternating[i] = 100
		if i%2 == 1 {
			alternating[i] = 101
		}
	}
	got = RSI(alternating, 14)
	require.NotNil(t, got)
	assert.InDelta(t, 50, *got, 5)

	assert.Nil(t, RSI(series(14, 1, 1), 14))
}

func TestSupportExcludesLatest(t *testing.T) {
	closes := []float64{50, 10, 20, 30, 25, 40, 5}
	got := Support(closes, 5)
	require.NotNil(t, got)
	assert.Equal(t, 10.0, *got)
	assert.Nil(t, Support(closes, 10))
}

func TestPercentChangeAndVolume(t *testing.T) {
	closes := []float64{100, 1, 1, 1, 1, 1, 1, 110}
	got := PercentChange(closes, 7)
	require.NotNil(t, got)
	assert.InDelta(t, 10, *got, 1e-9)

	vols := []float64{10, 10, 10, 10, 10, 10, 10, 20}
	ratio := VolumeRatio(vols, 7)
	require.NotNil(t, ratio)
	assert.InDelta(t, 2, *ratio, 1e-9)
	assert.Equal(t, "Significantly elevated", InterpretVolume(ratio))
}

func TestDataQuality(t *testing.T) {
	assert.Equal(t, "full", DataQuality(90))
	assert.Equal(t, "partial", DataQuality(20))
	assert.Equal(t, "limited", DataQuality(14))
	assert.Equal(t, "minimal", DataQuality(3))
	assert.Equal(t, "none", DataQuality(0))
}

func TestBuildSnapshot(t *testing.T) {
	closes := series(60, 100, 1) // steady uptrend to 159
	ind := Compute(closes, nil)

	s := BuildSnapshot(decimal.NewFromFloat(159), ind)
	assert.True(t, s.DataComplete)
	assert.False(t, s.SupportBroken)
	require.NotNil(t, s.SMA20)
	assert.True(t, s.SMA20.Equal(decimal.RequireFromString("149.5")))
	require.NotNil(t, s.SupportLevel)
	assert.True(t, s.SupportLevel.Equal(decimal.NewFromInt(145)))

	broken := BuildSnapshot(decimal.NewFromFloat(140), ind)
	assert.True(t, broken.SupportBroken)

	short := BuildSnapshot(decimal.NewFromFloat(120), Compute(series(25, 100, 1), nil))
	assert.False(t, short.DataComplete)
	assert.Nil(t, short.SMA50)
	assert.NotNil(t, short.SMA20)
	assert.Equal(t, []string{"SMA50"}, short.MissingFields())
}

func TestTrend(t *testing.T) {
	ind := Compute(series(60, 100, 1), nil)
	assert.Equal(t, "Strong uptrend", Trend(159, ind))
	assert.Equal(t, "Insufficient data for trend analysis", Trend(10, Indicators{}))
}
