package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jump-backtester/pkg/types"
)

func TestPerformanceMonitorRecordDay(t *testing.T) {
	pm := NewPerformanceMonitor()

	result := &types.DayResult{
		Ticker: "AAPL",
		Jumps:  3,
		Trades: []types.Trade{{ReturnPct: 1}, {ReturnPct: -1}, {ReturnPct: 0}},
	}
	pm.RecordDay(result, 20*time.Millisecond, false)
	pm.RecordDay(&types.DayResult{Ticker: "AAPL"}, 10*time.Millisecond, true)
	pm.RecordSkip(time.Now(), "no_data")

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.daysProcessed.WithLabelValues("AAPL")))
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.jumpsDetected.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.trades.WithLabelValues("AAPL", "win")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.trades.WithLabelValues("AAPL", "loss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.trades.WithLabelValues("AAPL", "flat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.daysSkipped.WithLabelValues("no_data")))

	m := pm.GetMetrics()
	assert.Equal(t, int64(2), m.DaysProcessed)
	assert.Equal(t, int64(1), m.DaysSkipped)
	assert.Equal(t, int64(3), m.Trades)
	assert.Equal(t, int64(1), m.WinningTrades)
	assert.Equal(t, int64(1), m.SkipReasons["no_data"])

	// 快照不受后续写入影响
	m.SkipReasons["no_data"] = 100
	assert.Equal(t, int64(1), pm.GetMetrics().SkipReasons["no_data"])

	assert.NotPanics(t, pm.LogReport)
}

func TestPerformanceMonitorHandler(t *testing.T) {
	pm := NewPerformanceMonitor()
	pm.RecordDay(&types.DayResult{Ticker: "MSFT"}, time.Millisecond, false)

	rec := httptest.NewRecorder()
	pm.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `jumpbt_days_processed_total{ticker="MSFT"} 1`))
	assert.True(t, strings.Contains(body, "jumpbt_day_duration_seconds_count 1"))
}

func TestSeparateMonitorsDoNotConflict(t *testing.T) {
	var a, b *PerformanceMonitor
	require.NotPanics(t, func() {
		a = NewPerformanceMonitor()
		b = NewPerformanceMonitor()
	})

	a.RecordDay(&types.DayResult{Ticker: "AAPL"}, time.Millisecond, false)
	a.RecordDay(&types.DayResult{Ticker: "MSFT"}, time.Millisecond, false)

	n, err := testutil.GatherAndCount(a.Registry(), "jumpbt_days_processed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testutil.GatherAndCount(b.Registry(), "jumpbt_days_processed_total")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
