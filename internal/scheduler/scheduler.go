package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"jump-backtester/internal/analyzer"
	"jump-backtester/internal/storage"
	"jump-backtester/pkg/types"
)

const defaultWorkers = 4

// SeriesLoader 加载单日时间序列
// Fingerprint 标识加载配置，配置不同的加载器不会共用缓存结果
type SeriesLoader interface {
	LoadDay(ctx context.Context, ticker string, date time.Time) (*types.MarketSeries, error)
	Fingerprint() string
}

// DayRunner 单日流水线
type DayRunner interface {
	Params() types.TradingParams
	RunDay(series *types.MarketSeries) (*types.DayResult, error)
}

// DayCache 单日结果缓存
type DayCache interface {
	Get(ctx context.Context, key string) (*types.DayResult, bool)
	Put(ctx context.Context, key string, result *types.DayResult)
}

// DayRecorder 单日指标记录
type DayRecorder interface {
	RecordDay(result *types.DayResult, elapsed time.Duration, cached bool)
	RecordSkip(date time.Time, reason string)
}

// Option 回测器选项
type Option func(*Backtester)

// WithWorkers 并发处理的交易日数量
func WithWorkers(n int) Option {
	return func(b *Backtester) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithCache 启用单日结果缓存
func WithCache(cache DayCache) Option {
	return func(b *Backtester) { b.cache = cache }
}

// WithRecorder 启用指标记录
func WithRecorder(recorder DayRecorder) Option {
	return func(b *Backtester) { b.recorder = recorder }
}

// WithSkipWeekends 跳过周六周日
func WithSkipWeekends(skip bool) Option {
	return func(b *Backtester) { b.skipWeekends = skip }
}

// Backtester 按日期区间逐日回测
type Backtester struct {
	loader       SeriesLoader
	runner       DayRunner
	cache        DayCache
	recorder     DayRecorder
	workers      int
	skipWeekends bool

	// 相同标的、日期、参数的并发请求只跑一次
	inflight singleflight.Group
}

// NewBacktester 创建回测器
func NewBacktester(loader SeriesLoader, runner DayRunner, opts ...Option) *Backtester {
	b := &Backtester{
		loader:  loader,
		runner:  runner,
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// dayOutcome 单日处理结果，result 为空表示该日被跳过
type dayOutcome struct {
	result *types.DayResult
	cached bool
}

// Run 解析日期区间并回测，start/end 支持 MM-DD 或 YYYY-MM-DD
func (b *Backtester) Run(ctx context.Context, ticker, start, end string) (*types.BacktestReport, error) {
	from, to, err := ResolveDateRange(start, end, b.runner.Params().Year)
	if err != nil {
		return nil, err
	}
	return b.RunRange(ctx, ticker, from, to)
}

// RunRange 回测 [from, to] 闭区间内的每个交易日
func (b *Backtester) RunRange(ctx context.Context, ticker string, from, to time.Time) (*types.BacktestReport, error) {
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker 不能为空", types.ErrInvalidConfig)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: 开始日期 %s 晚于结束日期 %s",
			types.ErrInvalidConfig, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	began := time.Now()
	dates := TradingDates(from, to, b.skipWeekends)

	zap.L().Info("🚀 开始区间回测",
		zap.String("ticker", ticker),
		zap.String("start", from.Format("2006-01-02")),
		zap.String("end", to.Format("2006-01-02")),
		zap.Int("days", len(dates)),
		zap.Int("workers", b.workers))

	var (
		mutex   sync.Mutex
		results = make([]types.DayResult, 0, len(dates))
		skipped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for _, date := range dates {
		date := date
		g.Go(func() error {
			outcome, err := b.processDay(gctx, ticker, date)
			if err != nil {
				return err
			}

			mutex.Lock()
			defer mutex.Unlock()
			if outcome.result == nil {
				skipped++
				return nil
			}
			results = append(results, *outcome.result)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("区间回测中断: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Date.Before(results[j].Date)
	})

	trades := make([]types.Trade, 0)
	for _, day := range results {
		trades = append(trades, day.Trades...)
	}

	report := &types.BacktestReport{
		Ticker:        ticker,
		Params:        b.runner.Params(),
		Start:         from,
		End:           to,
		DaysRequested: len(dates),
		DaysProcessed: len(results),
		DaysSkipped:   skipped,
		Days:          results,
		Trades:        trades,
		Summary:       analyzer.Summarize(trades),
		Elapsed:       time.Since(began),
	}

	zap.L().Info("✅ 区间回测完成",
		zap.String("ticker", ticker),
		zap.Int("days_processed", report.DaysProcessed),
		zap.Int("days_skipped", report.DaysSkipped),
		zap.Int("trades", len(trades)),
		zap.Duration("elapsed", report.Elapsed))

	return report, nil
}

// RunDay 单日回测，数据错误直接返回给调用方
func (b *Backtester) RunDay(ctx context.Context, ticker string, date time.Time) (*types.DayResult, error) {
	result, _, err := b.runDay(ctx, ticker, date)
	return result, err
}

// processDay 数据类错误记为跳过，只有 ctx 取消才返回错误
func (b *Backtester) processDay(ctx context.Context, ticker string, date time.Time) (dayOutcome, error) {
	result, cached, err := b.runDay(ctx, ticker, date)
	if err == nil {
		return dayOutcome{result: result, cached: cached}, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return dayOutcome{}, ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dayOutcome{}, err
	}

	reason := SkipReason(err)
	if reason == "no_data" {
		zap.L().Debug("跳过交易日", zap.String("date", date.Format("2006-01-02")), zap.String("reason", reason))
	} else {
		zap.L().Warn("⚠️ 跳过交易日",
			zap.String("ticker", ticker),
			zap.String("date", date.Format("2006-01-02")),
			zap.String("reason", reason),
			zap.Error(err))
	}
	if b.recorder != nil {
		b.recorder.RecordSkip(date, reason)
	}
	return dayOutcome{}, nil
}

func (b *Backtester) runDay(ctx context.Context, ticker string, date time.Time) (*types.DayResult, bool, error) {
	began := time.Now()
	key := storage.DayKey(ticker, date, b.runner.Params(), b.loader.Fingerprint())

	if b.cache != nil {
		if result, ok := b.cache.Get(ctx, key); ok {
			if b.recorder != nil {
				b.recorder.RecordDay(result, time.Since(began), true)
			}
			return result, true, nil
		}
	}

	v, err, _ := b.inflight.Do(key, func() (interface{}, error) {
		series, err := b.loader.LoadDay(ctx, ticker, date)
		if err != nil {
			return nil, err
		}
		result, err := b.runner.RunDay(series)
		if err != nil {
			return nil, err
		}
		if b.cache != nil {
			b.cache.Put(ctx, key, result)
		}
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}

	shared := v.(*types.DayResult)
	result := *shared
	result.Trades = append([]types.Trade(nil), shared.Trades...)

	if b.recorder != nil {
		b.recorder.RecordDay(&result, time.Since(began), false)
	}
	return &result, false, nil
}

// SkipReason 将单日错误归类为指标标签
func SkipReason(err error) string {
	switch {
	case errors.Is(err, types.ErrNoData):
		return "no_data"
	case errors.Is(err, types.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, types.ErrZeroPrice):
		return "zero_price"
	case errors.Is(err, types.ErrInvalidSeries):
		return "invalid_series"
	default:
		return "error"
	}
}

// TradingDates 生成 [from, to] 内的日期，可选跳过周末
func TradingDates(from, to time.Time, skipWeekends bool) []time.Time {
	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if skipWeekends && (d.Weekday() == time.Saturday || d.Weekday() == time.Sunday) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// ResolveDate 解析 YYYY-MM-DD，或结合 year 解析 MM-DD
func ResolveDate(s string, year int) (time.Time, error) {
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}

	d, err := time.Parse("01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: 日期格式应为 MM-DD 或 YYYY-MM-DD, 实际 %q", types.ErrInvalidConfig, s)
	}
	if year <= 0 {
		return time.Time{}, fmt.Errorf("%w: 使用 MM-DD 时 year 必须大于0", types.ErrInvalidConfig)
	}

	resolved := time.Date(year, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if resolved.Month() != d.Month() {
		// 02-29 落在非闰年
		return time.Time{}, fmt.Errorf("%w: %d 年没有 %s", types.ErrInvalidConfig, year, s)
	}
	return resolved, nil
}

// ResolveDateRange 解析闭区间，开始晚于结束视为配置错误
func ResolveDateRange(start, end string, year int) (time.Time, time.Time, error) {
	from, err := ResolveDate(start, year)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	to, err := ResolveDate(end, year)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 开始日期 %s 晚于结束日期 %s",
			types.ErrInvalidConfig, start, end)
	}
	return from, to, nil
}
