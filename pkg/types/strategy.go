package types

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"
)

// JumpSide 跳跃方向过滤
type JumpSide int

const (
	JumpSideBoth JumpSide = iota
	JumpSidePositive
	JumpSideNegative
)

// ParseJumpSide 不区分大小写解析 positive/negative/both
func ParseJumpSide(s string) (JumpSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both":
		return JumpSideBoth, nil
	case "positive":
		return JumpSidePositive, nil
	case "negative":
		return JumpSideNegative, nil
	default:
		return JumpSideBoth, fmt.Errorf("%w: jump_side 必须为 positive/negative/both, 实际 %q", ErrInvalidConfig, s)
	}
}

func (s JumpSide) String() string {
	switch s {
	case JumpSidePositive:
		return "positive"
	case JumpSideNegative:
		return "negative"
	default:
		return "both"
	}
}

// TradingParams 回测参数，只能通过 NewTradingParams 构造，构造后按值传递
type TradingParams struct {
	ThresholdPct          float64
	WindowSize            int
	TimeStart             TimeOfDay
	TimeEnd               TimeOfDay
	SellAfterHours        float64
	JumpSide              JumpSide
	UseVolumeConfirmation bool
	VolumeThreshold       float64
	Year                  int
}

// NewTradingParams 校验原始策略配置，所有配置错误都在这里返回
func NewTradingParams(raw StrategyConfig) (TradingParams, error) {
	if !(raw.ThresholdPct > 0) {
		return TradingParams{}, fmt.Errorf("%w: threshold_pct 必须大于0, 实际 %v", ErrInvalidConfig, raw.ThresholdPct)
	}
	if raw.WindowSize <= 0 {
		return TradingParams{}, fmt.Errorf("%w: window_size 必须大于0, 实际 %d", ErrInvalidConfig, raw.WindowSize)
	}
	if !(raw.SellAfterHours >= 0) || math.IsInf(raw.SellAfterHours, 0) {
		return TradingParams{}, fmt.Errorf("%w: sell_after_hours 不能为负, 实际 %v", ErrInvalidConfig, raw.SellAfterHours)
	}
	if !(raw.VolumeThreshold > 0) {
		return TradingParams{}, fmt.Errorf("%w: volume_threshold 必须大于0, 实际 %v", ErrInvalidConfig, raw.VolumeThreshold)
	}
	if raw.Year <= 0 {
		return TradingParams{}, fmt.Errorf("%w: year 必须大于0, 实际 %d", ErrInvalidConfig, raw.Year)
	}

	side, err := ParseJumpSide(raw.JumpSide)
	if err != nil {
		return TradingParams{}, err
	}

	start, err := ParseTimeOfDay(raw.TimeStart)
	if err != nil {
		return TradingParams{}, fmt.Errorf("%w: time_start: %v", ErrInvalidConfig, err)
	}
	end, err := ParseTimeOfDay(raw.TimeEnd)
	if err != nil {
		return TradingParams{}, fmt.Errorf("%w: time_end: %v", ErrInvalidConfig, err)
	}
	if end < start {
		return TradingParams{}, fmt.Errorf("%w: time_end %s 早于 time_start %s", ErrInvalidConfig, end, start)
	}

	return TradingParams{
		ThresholdPct:          raw.ThresholdPct,
		WindowSize:            raw.WindowSize,
		TimeStart:             start,
		TimeEnd:               end,
		SellAfterHours:        raw.SellAfterHours,
		JumpSide:              side,
		UseVolumeConfirmation: raw.UseVolumeConfirmation,
		VolumeThreshold:       raw.VolumeThreshold,
		Year:                  raw.Year,
	}, nil
}

// HoldingMinutes 持仓时长换算为整分钟，四舍六入五成双
func HoldingMinutes(sellAfterHours float64) int {
	return int(math.RoundToEven(sellAfterHours * 60))
}

// HoldingPeriodOf 按整分钟取整后的持仓时长
func HoldingPeriodOf(sellAfterHours float64) time.Duration {
	return time.Duration(HoldingMinutes(sellAfterHours)) * time.Minute
}

// HoldingPeriod 持仓时长
func (p TradingParams) HoldingPeriod() time.Duration {
	return HoldingPeriodOf(p.SellAfterHours)
}

// Fingerprint 参数指纹，用作缓存键的一部分
func (p TradingParams) Fingerprint() string {
	raw := fmt.Sprintf("%g|%d|%d|%d|%g|%s|%t|%g",
		p.ThresholdPct, p.WindowSize, p.TimeStart, p.TimeEnd,
		p.SellAfterHours, p.JumpSide, p.UseVolumeConfirmation, p.VolumeThreshold)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
