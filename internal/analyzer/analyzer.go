package analyzer

import (
	"math"
	"sort"
	"time"

	"jump-backtester/pkg/types"
)

// Summarize 汇总交易统计：胜率、均值、中位数、标准差（总体）等
func Summarize(trades []types.Trade) types.Summary {
	if len(trades) == 0 {
		return types.Summary{}
	}

	summary := types.Summary{
		TotalTrades: len(trades),
		BestReturn:  math.Inf(-1),
		WorstReturn: math.Inf(1),
	}

	returns := make([]float64, len(trades))
	days := make(map[time.Time]struct{})
	var holding time.Duration

	for i, trade := range trades {
		r := trade.ReturnPct
		returns[i] = r
		summary.CumulativeSum += r

		if r > 0 {
			summary.Wins++
		} else if r < 0 {
			summary.Losses++
		}

		summary.BestReturn = math.Max(summary.BestReturn, r)
		summary.WorstReturn = math.Min(summary.WorstReturn, r)

		holding += trade.HoldingDuration()
		days[trade.Date] = struct{}{}
	}

	n := float64(len(trades))
	summary.MeanReturn = summary.CumulativeSum / n
	summary.MedianReturn = median(returns)
	summary.StdReturn = stdDev(returns, summary.MeanReturn)
	summary.WinRate = float64(summary.Wins) / n * 100
	summary.AvgHoldingMins = holding.Minutes() / n
	summary.DaysWithTrades = len(days)

	return summary
}

// median 会对入参排序
func median(values []float64) float64 {
	sort.Float64s(values)

	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}

func stdDev(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// GroupByDate 按日期统计交易笔数和当日收益之和
func GroupByDate(trades []types.Trade) map[time.Time]DailyStat {
	stats := make(map[time.Time]DailyStat)
	for _, trade := range trades {
		s := stats[trade.Date]
		s.Trades++
		s.SumReturn += trade.ReturnPct
		stats[trade.Date] = s
	}
	return stats
}

// DailyStat 单日统计
type DailyStat struct {
	Trades    int     `json:"trades"`
	SumReturn float64 `json:"sum_return"`
}
