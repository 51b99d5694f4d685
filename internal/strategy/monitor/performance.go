package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"jump-backtester/pkg/types"
)

// PerformanceMonitor 回测性能监控器
// 指标注册在私有 registry 上，多个实例互不干扰
type PerformanceMonitor struct {
	registry *prometheus.Registry

	daysProcessed *prometheus.CounterVec
	daysSkipped   *prometheus.CounterVec
	cacheHits     prometheus.Counter
	jumpsDetected *prometheus.CounterVec
	trades        *prometheus.CounterVec
	dayDuration   prometheus.Histogram

	mutex   sync.Mutex
	metrics PerformanceMetrics
}

// PerformanceMetrics 本进程内的累计指标快照
type PerformanceMetrics struct {
	StartTime     time.Time        `json:"start_time"`
	DaysProcessed int64            `json:"days_processed"`
	DaysSkipped   int64            `json:"days_skipped"`
	CacheHits     int64            `json:"cache_hits"`
	JumpsDetected int64            `json:"jumps_detected"`
	Trades        int64            `json:"trades"`
	WinningTrades int64            `json:"winning_trades"`
	DayTime       time.Duration    `json:"day_time"`
	SkipReasons   map[string]int64 `json:"skip_reasons"`
	LastUpdate    time.Time        `json:"last_update"`
}

// NewPerformanceMonitor 创建性能监控器
func NewPerformanceMonitor() *PerformanceMonitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PerformanceMonitor{
		registry: reg,
		daysProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jumpbt_days_processed_total",
				Help: "Total number of trading days run through the pipeline",
			},
			[]string{"ticker"},
		),
		daysSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jumpbt_days_skipped_total",
				Help: "Total number of trading days skipped",
			},
			[]string{"reason"},
		),
		cacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jumpbt_cache_hits_total",
				Help: "Total number of day results served from cache",
			},
		),
		jumpsDetected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jumpbt_jumps_detected_total",
				Help: "Total number of jumps kept after filtering",
			},
			[]string{"ticker"},
		),
		trades: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jumpbt_trades_total",
				Help: "Total number of simulated trades",
			},
			[]string{"ticker", "outcome"},
		),
		dayDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jumpbt_day_duration_seconds",
				Help:    "Duration of single day load and pipeline in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		metrics: PerformanceMetrics{
			StartTime:   time.Now(),
			SkipReasons: make(map[string]int64),
		},
	}
}

// RecordDay 记录一个完成的交易日
func (pm *PerformanceMonitor) RecordDay(result *types.DayResult, elapsed time.Duration, cached bool) {
	pm.daysProcessed.WithLabelValues(result.Ticker).Inc()
	pm.jumpsDetected.WithLabelValues(result.Ticker).Add(float64(result.Jumps))
	pm.dayDuration.Observe(elapsed.Seconds())
	if cached {
		pm.cacheHits.Inc()
	}

	wins := 0
	for _, trade := range result.Trades {
		outcome := "flat"
		if trade.ReturnPct > 0 {
			outcome = "win"
			wins++
		} else if trade.ReturnPct < 0 {
			outcome = "loss"
		}
		pm.trades.WithLabelValues(result.Ticker, outcome).Inc()
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.metrics.DaysProcessed++
	pm.metrics.JumpsDetected += int64(result.Jumps)
	pm.metrics.Trades += int64(len(result.Trades))
	pm.metrics.WinningTrades += int64(wins)
	pm.metrics.DayTime += elapsed
	if cached {
		pm.metrics.CacheHits++
	}
	pm.metrics.LastUpdate = time.Now()
}

// RecordSkip 记录一个被跳过的交易日
func (pm *PerformanceMonitor) RecordSkip(date time.Time, reason string) {
	pm.daysSkipped.WithLabelValues(reason).Inc()

	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.metrics.DaysSkipped++
	pm.metrics.SkipReasons[reason]++
	pm.metrics.LastUpdate = time.Now()
}

// GetMetrics 获取当前指标快照
func (pm *PerformanceMonitor) GetMetrics() PerformanceMetrics {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	snapshot := pm.metrics
	snapshot.SkipReasons = make(map[string]int64, len(pm.metrics.SkipReasons))
	for k, v := range pm.metrics.SkipReasons {
		snapshot.SkipReasons[k] = v
	}
	return snapshot
}

// Registry 私有 registry，供采集或嵌入其他指标服务
func (pm *PerformanceMonitor) Registry() *prometheus.Registry {
	return pm.registry
}

// Handler Prometheus 抓取接口
func (pm *PerformanceMonitor) Handler() http.Handler {
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{})
}

// Start 周期性输出性能报告，ctx 取消后退出
func (pm *PerformanceMonitor) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pm.LogReport()
			}
		}
	}()
}

// LogReport 输出性能报告
func (pm *PerformanceMonitor) LogReport() {
	m := pm.GetMetrics()

	var avgDay time.Duration
	if m.DaysProcessed > 0 {
		avgDay = m.DayTime / time.Duration(m.DaysProcessed)
	}

	zap.L().Info("📈 回测性能报告",
		zap.Duration("run_time", time.Since(m.StartTime)),
		zap.Int64("days_processed", m.DaysProcessed),
		zap.Int64("days_skipped", m.DaysSkipped),
		zap.Int64("cache_hits", m.CacheHits),
		zap.Int64("jumps_detected", m.JumpsDetected),
		zap.Int64("trades", m.Trades),
		zap.Int64("winning_trades", m.WinningTrades),
		zap.Duration("avg_day_time", avgDay))

	for reason, count := range m.SkipReasons {
		zap.L().Info("⏭️ 跳过原因", zap.String("reason", reason), zap.Int64("days", count))
	}
}
