package engine

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"jump-backtester/internal/strategy/signals"
	"jump-backtester/internal/strategy/simulator"
	"jump-backtester/pkg/types"
)

// JumpEngine 单日跳跃检测与交易模拟流水线
// RunDay 本身无共享状态，可被多个 worker 并发调用；只有统计计数加锁
type JumpEngine struct {
	params   types.TradingParams
	detector *signals.JumpDetector

	// 统计
	processedDays   int64
	detectedJumps   int64
	simulatedTrades int64
	statsMutex      sync.RWMutex
}

// NewJumpEngine 创建流水线，params 必须已通过 NewTradingParams 校验
func NewJumpEngine(params types.TradingParams) *JumpEngine {
	return &JumpEngine{
		params:   params,
		detector: signals.NewJumpDetector(params.ThresholdPct, params.VolumeThreshold, params.WindowSize),
	}
}

// Params 返回流水线参数
func (je *JumpEngine) Params() types.TradingParams {
	return je.params
}

// RunDay 检测 -> 方向过滤 -> 模拟交易
func (je *JumpEngine) RunDay(series *types.MarketSeries) (*types.DayResult, error) {
	prices := series.Prices()

	var volumes []float64
	if je.params.UseVolumeConfirmation {
		volumes = series.Volumes()
	}

	// 1. 跳跃检测
	detection, err := je.detector.Detect(prices, volumes)
	if err != nil {
		return nil, fmt.Errorf("跳跃检测失败 %s: %w", series.Date().Format("2006-01-02"), err)
	}

	// 2. 方向过滤
	jumps, err := signals.FilterByDirection(detection.Indices, prices, je.params.JumpSide, je.params.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("方向过滤失败 %s: %w", series.Date().Format("2006-01-02"), err)
	}

	// 3. 模拟交易
	trades, err := simulator.SimulateTrades(series, jumps, je.params.SellAfterHours)
	if err != nil {
		return nil, fmt.Errorf("交易模拟失败 %s: %w", series.Date().Format("2006-01-02"), err)
	}

	zap.L().Debug("单日回测完成",
		zap.String("ticker", series.Ticker()),
		zap.String("date", series.Date().Format("2006-01-02")),
		zap.Int("samples", series.Len()),
		zap.Int("candidates", len(detection.Candidates)),
		zap.Int("volume_spikes", len(detection.VolumeSpikes)),
		zap.Int("jumps", len(jumps)),
		zap.Int("trades", len(trades)))

	je.recordStats(len(jumps), len(trades))

	return &types.DayResult{
		Ticker:       series.Ticker(),
		Date:         series.Date(),
		Samples:      series.Len(),
		Candidates:   len(detection.Candidates),
		VolumeSpikes: len(detection.VolumeSpikes),
		Jumps:        len(jumps),
		Trades:       trades,
	}, nil
}

// recordStats 累加统计
func (je *JumpEngine) recordStats(jumps, trades int) {
	je.statsMutex.Lock()
	je.processedDays++
	je.detectedJumps += int64(jumps)
	je.simulatedTrades += int64(trades)
	je.statsMutex.Unlock()
}

// GetStats 获取统计信息
func (je *JumpEngine) GetStats() map[string]interface{} {
	je.statsMutex.RLock()
	defer je.statsMutex.RUnlock()

	return map[string]interface{}{
		"processed_days":   je.processedDays,
		"detected_jumps":   je.detectedJumps,
		"simulated_trades": je.simulatedTrades,
		"jump_side":        je.params.JumpSide.String(),
		"threshold_pct":    je.params.ThresholdPct,
		"window_size":      je.params.WindowSize,
	}
}
