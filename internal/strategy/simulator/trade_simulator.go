package simulator

import (
	"fmt"
	"sort"

	"jump-backtester/internal/strategy/indicators"
	"jump-backtester/pkg/types"
)

// SimulateTrades 对每个跳跃索引模拟一次 "跳跃时买入，持有 sellAfterHours 后卖出"
// 每个输入索引恰好产生一笔交易，顺序与输入一致；仓位之间互不影响，不做资金和仓位限制
func SimulateTrades(series *types.MarketSeries, jumps []int, sellAfterHours float64) ([]types.Trade, error) {
	holding := types.HoldingPeriodOf(sellAfterHours)

	trades := make([]types.Trade, 0, len(jumps))
	for _, j := range jumps {
		if j < 0 || j > series.Last() {
			return nil, fmt.Errorf("%w: 跳跃索引%d越界 (len=%d)", types.ErrInvalidSeries, j, series.Len())
		}

		buyTime := series.Time(j)
		buyPrice := series.Price(j)
		sellIndex := findSellIndex(series, j, buyTime.Add(holding))
		sellPrice := series.Price(sellIndex)

		returnPct, err := indicators.PercentChange(buyPrice, sellPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: 买入索引%d", err, j)
		}

		trades = append(trades, types.Trade{
			Date:      series.Date(),
			BuyTime:   buyTime,
			BuyPrice:  buyPrice,
			SellTime:  series.Time(sellIndex),
			SellPrice: sellPrice,
			ReturnPct: returnPct,
		})
	}

	return trades, nil
}

// findSellIndex 从 from 开始找第一个 times[k] >= target 的样本
// 目标时间超过最后一个样本时，在最后一个样本强制平仓
func findSellIndex(series *types.MarketSeries, from int, target types.TimeOfDay) int {
	n := series.Len() - from
	k := sort.Search(n, func(i int) bool {
		return series.Time(from+i) >= target
	})
	if k == n {
		return series.Last()
	}
	return from + k
}
