package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jump-backtester/pkg/types"
)

var testDate = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func minutes(hhmm ...[2]int) []types.TimeOfDay {
	out := make([]types.TimeOfDay, len(hhmm))
	for i, v := range hhmm {
		out[i] = types.NewTimeOfDay(v[0], v[1], 0)
	}
	return out
}

func newSeries(t *testing.T, times []types.TimeOfDay, prices []float64) *types.MarketSeries {
	t.Helper()
	volumes := make([]float64, len(prices))
	for i := range volumes {
		volumes[i] = 100
	}
	series, err := types.NewMarketSeries("TEST", testDate, times, prices, volumes)
	require.NoError(t, err)
	return series
}

func TestSimulateTradesForceCloseAtLastSample(t *testing.T) {
	series := newSeries(t, minutes([2]int{9, 30}, [2]int{9, 31}, [2]int{9, 32}), []float64{100, 101, 102})

	trades, err := SimulateTrades(series, []int{0}, 5.0/60)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	trade := trades[0]
	assert.Equal(t, types.NewTimeOfDay(9, 30, 0), trade.BuyTime)
	assert.Equal(t, types.NewTimeOfDay(9, 32, 0), trade.SellTime)
	assert.Equal(t, 102.0, trade.SellPrice)
	assert.InDelta(t, 2.0, trade.ReturnPct, 1e-9)
	assert.Equal(t, testDate, trade.Date)
}

func TestSimulateTradesFirstSampleAtOrAfterTarget(t *testing.T) {
	series := newSeries(t,
		minutes([2]int{9, 30}, [2]int{9, 31}, [2]int{9, 33}, [2]int{9, 40}, [2]int{9, 41}),
		[]float64{100, 110, 120, 130, 140})

	tests := []struct {
		name     string
		jump     int
		hours    float64
		wantSell types.TimeOfDay
	}{
		{name: "exact match", jump: 0, hours: 1.0 / 60, wantSell: types.NewTimeOfDay(9, 31, 0)},
		{name: "gap in data", jump: 1, hours: 5.0 / 60, wantSell: types.NewTimeOfDay(9, 40, 0)},
		{name: "zero holding sells immediately", jump: 2, hours: 0, wantSell: types.NewTimeOfDay(9, 33, 0)},
		{name: "beyond close", jump: 3, hours: 2, wantSell: types.NewTimeOfDay(9, 41, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades, err := SimulateTrades(series, []int{tt.jump}, tt.hours)
			require.NoError(t, err)
			require.Len(t, trades, 1)
			assert.Equal(t, tt.wantSell, trades[0].SellTime)
			assert.GreaterOrEqual(t, trades[0].SellTime, trades[0].BuyTime)
		})
	}
}

func TestSimulateTradesPreservesOrderAndOverlap(t *testing.T) {
	series := newSeries(t,
		minutes([2]int{9, 30}, [2]int{9, 31}, [2]int{9, 32}, [2]int{9, 33}),
		[]float64{100, 101, 102, 103})

	// 重叠持仓各自独立模拟
	jumps := []int{1, 2, 3}
	trades, err := SimulateTrades(series, jumps, 2.0/60)
	require.NoError(t, err)
	require.Len(t, trades, len(jumps))

	for i, j := range jumps {
		assert.Equal(t, series.Time(j), trades[i].BuyTime)
		assert.Equal(t, series.Price(j), trades[i].BuyPrice)
	}
	assert.Equal(t, types.NewTimeOfDay(9, 33, 0), trades[0].SellTime)
	assert.Equal(t, types.NewTimeOfDay(9, 33, 0), trades[1].SellTime)
	assert.Equal(t, types.NewTimeOfDay(9, 33, 0), trades[2].SellTime)
	assert.Equal(t, 0.0, trades[2].ReturnPct)
}

func TestSimulateTradesErrors(t *testing.T) {
	series := newSeries(t, minutes([2]int{9, 30}, [2]int{9, 31}), []float64{0, 1})

	_, err := SimulateTrades(series, []int{0}, 1)
	assert.ErrorIs(t, err, types.ErrZeroPrice)

	_, err = SimulateTrades(series, []int{2}, 1)
	assert.ErrorIs(t, err, types.ErrInvalidSeries)

	trades, err := SimulateTrades(series, nil, 1)
	require.NoError(t, err)
	assert.Empty(t, trades)
}
