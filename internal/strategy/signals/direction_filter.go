package signals

import (
	"fmt"

	"jump-backtester/internal/strategy/indicators"
	"jump-backtester/pkg/types"
)

// FilterByDirection 按跳跃方向过滤
// 与 windowSize 个样本之前的价格比较；历史不足（j-windowSize<0）的跳跃直接丢弃
func FilterByDirection(jumps []int, prices []float64, side types.JumpSide, windowSize int) ([]int, error) {
	if side == types.JumpSideBoth || len(jumps) == 0 {
		return append([]int{}, jumps...), nil
	}

	filtered := make([]int, 0, len(jumps))
	for _, j := range jumps {
		if j < 0 || j >= len(prices) {
			return nil, fmt.Errorf("%w: 跳跃索引%d越界 (len=%d)", types.ErrInvalidSeries, j, len(prices))
		}

		lookback := j - windowSize
		if lookback < 0 {
			continue
		}

		pct, err := indicators.PercentChange(prices[lookback], prices[j])
		if err != nil {
			return nil, fmt.Errorf("%w: 回看索引%d", err, lookback)
		}

		if (side == types.JumpSidePositive && pct > 0) || (side == types.JumpSideNegative && pct < 0) {
			filtered = append(filtered, j)
		}
	}

	return filtered, nil
}
