package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jump-backtester/pkg/types"
)

func testParams(t *testing.T, mutate func(*types.StrategyConfig)) types.TradingParams {
	t.Helper()
	raw := types.StrategyConfig{
		ThresholdPct:    1.5,
		WindowSize:      1,
		TimeStart:       "09:30",
		TimeEnd:         "16:00",
		SellAfterHours:  2.0 / 60,
		JumpSide:        "both",
		VolumeThreshold: 1.5,
		Year:            2024,
	}
	if mutate != nil {
		mutate(&raw)
	}
	params, err := types.NewTradingParams(raw)
	require.NoError(t, err)
	return params
}

func scenarioSeries(t *testing.T) *types.MarketSeries {
	t.Helper()
	times := make([]types.TimeOfDay, 5)
	for i := range times {
		times[i] = types.NewTimeOfDay(9, 30+i, 0)
	}
	series, err := types.NewMarketSeries("TEST", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		times, []float64{100, 101, 103, 90, 95}, []float64{10, 10, 10, 50, 10})
	require.NoError(t, err)
	return series
}

func TestRunDay(t *testing.T) {
	result, err := NewJumpEngine(testParams(t, nil)).RunDay(scenarioSeries(t))
	require.NoError(t, err)

	assert.Equal(t, 5, result.Samples)
	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, 3, result.Jumps)
	require.Len(t, result.Trades, 3)

	// 09:32 买入 103，09:34 卖出 95
	assert.Equal(t, types.NewTimeOfDay(9, 32, 0), result.Trades[0].BuyTime)
	assert.Equal(t, types.NewTimeOfDay(9, 34, 0), result.Trades[0].SellTime)
	assert.InDelta(t, (95.0-103.0)/103.0*100, result.Trades[0].ReturnPct, 1e-9)
	// 最后一笔在收盘样本强制平仓
	assert.Equal(t, types.NewTimeOfDay(9, 34, 0), result.Trades[2].SellTime)
}

func TestRunDayNegativeSide(t *testing.T) {
	params := testParams(t, func(c *types.StrategyConfig) { c.JumpSide = "negative" })
	result, err := NewJumpEngine(params).RunDay(scenarioSeries(t))
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, 90.0, result.Trades[0].BuyPrice)
}

func TestRunDayVolumeConfirmation(t *testing.T) {
	params := testParams(t, func(c *types.StrategyConfig) {
		c.UseVolumeConfirmation = true
		c.WindowSize = 2
	})
	result, err := NewJumpEngine(params).RunDay(scenarioSeries(t))
	require.NoError(t, err)

	assert.Equal(t, 1, result.VolumeSpikes)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, types.NewTimeOfDay(9, 33, 0), result.Trades[0].BuyTime)
}

func TestRunDayIdempotent(t *testing.T) {
	engine := NewJumpEngine(testParams(t, func(c *types.StrategyConfig) { c.JumpSide = "positive" }))
	series := scenarioSeries(t)

	first, err := engine.RunDay(series)
	require.NoError(t, err)
	second, err := engine.RunDay(series)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(2), engine.GetStats()["processed_days"])
}
