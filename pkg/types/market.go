package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay 日内时间（距当日零点的偏移）
type TimeOfDay time.Duration

// NewTimeOfDay 由时分秒构造日内时间
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second)
}

// TimeOfDayOf 取时间戳在其所在时区中的日内时间
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second()) + TimeOfDay(t.Nanosecond())
}

// ParseTimeOfDay 解析 "15:04" 或 "15:04:05"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("日内时间格式错误 %q, 应为 HH:MM 或 HH:MM:SS", s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("日内时间格式错误 %q", s)
		}
		values[i] = v
	}

	return NewTimeOfDay(values[0], values[1], values[2]), nil
}

// Add 加上一段时长，结果可以超过 24:00，仅用于比较
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d)
}

// Sub 返回 t-u
func (t TimeOfDay) Sub(u TimeOfDay) time.Duration {
	return time.Duration(t - u)
}

// Truncate 向下取整到 d 的整数倍
func (t TimeOfDay) Truncate(d time.Duration) TimeOfDay {
	if d <= 0 {
		return t
	}
	return TimeOfDay(time.Duration(t) / d * d)
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// MarketSeries 单日单标的的时间序列，构造后不可变
type MarketSeries struct {
	ticker  string
	date    time.Time
	times   []TimeOfDay
	prices  []float64
	volumes []float64
}

// NewMarketSeries 校验并复制输入数组，返回的序列与调用方的切片不共享内存
func NewMarketSeries(ticker string, date time.Time, times []TimeOfDay, prices, volumes []float64) (*MarketSeries, error) {
	if len(times) != len(prices) || len(times) != len(volumes) {
		return nil, fmt.Errorf("%w: 长度不一致 times=%d prices=%d volumes=%d",
			ErrInvalidSeries, len(times), len(prices), len(volumes))
	}
	if len(times) < 2 {
		return nil, fmt.Errorf("%w: %s %s 仅有%d个样本", ErrInsufficientData, ticker, date.Format("2006-01-02"), len(times))
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("%w: 时间非严格递增, 索引%d (%s <= %s)",
				ErrInvalidSeries, i, times[i], times[i-1])
		}
	}

	return &MarketSeries{
		ticker:  ticker,
		date:    date,
		times:   append([]TimeOfDay(nil), times...),
		prices:  append([]float64(nil), prices...),
		volumes: append([]float64(nil), volumes...),
	}, nil
}

func (ms *MarketSeries) Ticker() string  { return ms.ticker }
func (ms *MarketSeries) Date() time.Time { return ms.date }
func (ms *MarketSeries) Len() int        { return len(ms.times) }

func (ms *MarketSeries) Time(i int) TimeOfDay { return ms.times[i] }
func (ms *MarketSeries) Price(i int) float64  { return ms.prices[i] }
func (ms *MarketSeries) Volume(i int) float64 { return ms.volumes[i] }

// Times 返回副本
func (ms *MarketSeries) Times() []TimeOfDay { return append([]TimeOfDay(nil), ms.times...) }

// Prices 返回副本
func (ms *MarketSeries) Prices() []float64 { return append([]float64(nil), ms.prices...) }

// Volumes 返回副本
func (ms *MarketSeries) Volumes() []float64 { return append([]float64(nil), ms.volumes...) }

// Last 最后一个样本的索引
func (ms *MarketSeries) Last() int { return len(ms.times) - 1 }
