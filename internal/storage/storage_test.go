package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jump-backtester/pkg/types"
)

func testResult() *types.DayResult {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return &types.DayResult{
		Ticker:  "AAPL",
		Date:    date,
		Samples: 10,
		Jumps:   1,
		Trades: []types.Trade{{
			Date:      date,
			BuyTime:   types.NewTimeOfDay(10, 0, 0),
			BuyPrice:  100,
			SellTime:  types.NewTimeOfDay(11, 0, 0),
			SellPrice: 101,
			ReturnPct: 1,
		}},
	}
}

func TestResultCacheMemoryRoundTrip(t *testing.T) {
	cache := NewResultCache(types.RedisConfig{})
	defer cache.Close()
	ctx := context.Background()

	_, ok := cache.Get(ctx, "missing")
	assert.False(t, ok)

	want := testResult()
	cache.Put(ctx, "k", want)

	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, want.Trades, got.Trades)
	assert.True(t, want.Date.Equal(got.Date))

	// 返回的是副本
	got.Trades[0].BuyPrice = 1
	again, _ := cache.Get(ctx, "k")
	assert.Equal(t, 100.0, again.Trades[0].BuyPrice)

	stats := cache.GetStats(ctx)
	assert.Equal(t, false, stats["redis_enabled"])
	assert.Equal(t, 1, stats["memory_keys"])
}

func TestResultCacheTTL(t *testing.T) {
	cache := NewResultCache(types.RedisConfig{TTL: time.Millisecond})
	ctx := context.Background()

	cache.Put(ctx, "k", testResult())
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)
}

func TestDayKey(t *testing.T) {
	params, err := types.NewTradingParams(types.StrategyConfig{
		ThresholdPct: 1, WindowSize: 1, TimeStart: "09:30", TimeEnd: "16:00",
		JumpSide: "both", VolumeThreshold: 1, Year: 2024,
	})
	require.NoError(t, err)

	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	key := DayKey("AAPL", date, params, "src1")
	assert.Equal(t, "jumpbt:day:AAPL:2024-03-05:"+params.Fingerprint()+":src1", key)
	assert.NotEqual(t, key, DayKey("AAPL", date, params, "src2"))
}
