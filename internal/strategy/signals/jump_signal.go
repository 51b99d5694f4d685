package signals

import (
	"fmt"
	"math"

	"jump-backtester/internal/strategy/indicators"
	"jump-backtester/pkg/types"
)

// JumpDetector 价格跳跃检测器
type JumpDetector struct {
	thresholdPct    float64
	volumeThreshold float64
	windowSize      int
}

// NewJumpDetector 创建跳跃检测器
func NewJumpDetector(thresholdPct, volumeThreshold float64, windowSize int) *JumpDetector {
	return &JumpDetector{
		thresholdPct:    thresholdPct,
		volumeThreshold: volumeThreshold,
		windowSize:      windowSize,
	}
}

// Detect 检测跳跃
// volumes 为 nil 时不做成交量确认；否则结果为阈值候选与放量索引的交集
func (jd *JumpDetector) Detect(prices, volumes []float64) (*types.JumpDetection, error) {
	returns, err := indicators.CalculateReturns(prices)
	if err != nil {
		return nil, err
	}

	// 1. 收益率超过阈值的候选，索引平移到原价格序列
	candidates := make([]int, 0)
	for i, r := range returns {
		if math.Abs(r) > jd.thresholdPct {
			candidates = append(candidates, i+1)
		}
	}

	result := &types.JumpDetection{
		Candidates:   candidates,
		Returns:      returns,
		VolumeSpikes: []int{},
	}

	if volumes == nil {
		result.Indices = append([]int{}, candidates...)
		return result, nil
	}

	if len(volumes) != len(prices) {
		return nil, fmt.Errorf("%w: 成交量长度%d与价格长度%d不一致", types.ErrInvalidSeries, len(volumes), len(prices))
	}

	// 2. 成交量确认
	result.VolumeSpikes = indicators.NewVolumeCalculator(jd.windowSize).Spikes(volumes, jd.volumeThreshold)
	result.Indices = intersectSorted(candidates, result.VolumeSpikes)

	return result, nil
}

// DetectJumps 检测跳跃，返回 (跳跃索引, 收益率, 放量索引)
func DetectJumps(prices, volumes []float64, thresholdPct, volumeThreshold float64, windowSize int) ([]int, []float64, []int, error) {
	detection, err := NewJumpDetector(thresholdPct, volumeThreshold, windowSize).Detect(prices, volumes)
	if err != nil {
		return nil, nil, nil, err
	}
	return detection.Indices, detection.Returns, detection.VolumeSpikes, nil
}

// intersectSorted 两个升序切片求交集，结果升序去重
func intersectSorted(a, b []int) []int {
	out := make([]int, 0)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			if len(out) == 0 || out[len(out)-1] != a[i] {
				out = append(out, a[i])
			}
			i++
			j++
		}
	}
	return out
}
