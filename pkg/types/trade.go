package types

import "time"

// Trade 一次模拟的买入-卖出
type Trade struct {
	Date      time.Time `json:"date"`
	BuyTime   TimeOfDay `json:"buy_time"`
	BuyPrice  float64   `json:"buy_price"`
	SellTime  TimeOfDay `json:"sell_time"`
	SellPrice float64   `json:"sell_price"`
	ReturnPct float64   `json:"return_pct"`
}

// HoldingDuration 实际持仓时长（被强制平仓时可能短于设定值）
func (t Trade) HoldingDuration() time.Duration {
	return t.SellTime.Sub(t.BuyTime)
}

// JumpDetection 跳跃检测结果
// Indices/Candidates/VolumeSpikes 都是原价格序列上的索引；Returns[i] 对应价格索引 i+1
type JumpDetection struct {
	Indices      []int     `json:"indices"`
	Candidates   []int     `json:"candidates"`
	Returns      []float64 `json:"returns"`
	VolumeSpikes []int     `json:"volume_spikes"`
}

// DayResult 单日流水线输出
type DayResult struct {
	Ticker       string    `json:"ticker"`
	Date         time.Time `json:"date"`
	Samples      int       `json:"samples"`
	Candidates   int       `json:"candidates"`
	VolumeSpikes int       `json:"volume_spikes"`
	Jumps        int       `json:"jumps"`
	Trades       []Trade   `json:"trades"`
}

// Summary 交易统计
type Summary struct {
	TotalTrades    int     `json:"total_trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"`
	MeanReturn     float64 `json:"mean_return"`
	MedianReturn   float64 `json:"median_return"`
	StdReturn      float64 `json:"std_return"`
	BestReturn     float64 `json:"best_return"`
	WorstReturn    float64 `json:"worst_return"`
	CumulativeSum  float64 `json:"cumulative_sum"`
	AvgHoldingMins float64 `json:"avg_holding_minutes"`
	DaysWithTrades int     `json:"days_with_trades"`
}

// BacktestReport 区间回测结果
type BacktestReport struct {
	Ticker        string        `json:"ticker"`
	Params        TradingParams `json:"params"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	DaysRequested int           `json:"days_requested"`
	DaysProcessed int           `json:"days_processed"`
	DaysSkipped   int           `json:"days_skipped"`
	Days          []DayResult   `json:"days"`
	Trades        []Trade       `json:"trades"`
	Summary       Summary       `json:"summary"`
	Elapsed       time.Duration `json:"elapsed"`
}
