package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"jump-backtester/internal/analyzer"
	"jump-backtester/internal/fetcher"
	"jump-backtester/internal/notifier"
	"jump-backtester/internal/scheduler"
	"jump-backtester/internal/storage"
	"jump-backtester/internal/strategy/database"
	"jump-backtester/internal/strategy/engine"
	"jump-backtester/internal/strategy/monitor"
	"jump-backtester/pkg/types"
)

// App 应用程序管理器
type App struct {
	config     *types.Config
	params     types.TradingParams
	engine     *engine.JumpEngine
	cache      *storage.ResultCache
	dbManager  *database.Manager
	monitor    *monitor.PerformanceMonitor
	backtester *scheduler.Backtester
	reporter   notifier.Reporter
	server     *http.Server
}

// NewApp 校验配置并组装各模块
func NewApp(config *types.Config) (*App, error) {
	params, err := config.TradingParams()
	if err != nil {
		return nil, err
	}

	loader, err := fetcher.NewTickLoader(config.Data, params)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:  config,
		params:  params,
		engine:  engine.NewJumpEngine(params),
		cache:   storage.NewResultCache(config.Redis),
		monitor: monitor.NewPerformanceMonitor(),
	}

	// 数据库可选，连接失败只影响持久化
	if config.Database.MySQL.Host != "" {
		dbManager, err := database.NewManager(config.Database.MySQL)
		if err != nil {
			zap.L().Warn("⚠️ MySQL不可用，回测结果不会持久化", zap.Error(err))
		} else if err := dbManager.Health(); err != nil {
			zap.L().Warn("⚠️ MySQL健康检查失败，回测结果不会持久化", zap.Error(err))
			_ = dbManager.Close()
		} else {
			app.dbManager = dbManager
		}
	}

	app.backtester = scheduler.NewBacktester(loader, app.engine,
		scheduler.WithWorkers(config.Backtest.Workers),
		scheduler.WithSkipWeekends(config.Backtest.SkipWeekends),
		scheduler.WithCache(app.cache),
		scheduler.WithRecorder(app.monitor),
	)

	reporters := notifier.MultiReporter{notifier.NewConsoleReporter(nil, config.Backtest.ShowTrades)}
	if config.Backtest.OutputCSV != "" {
		reporters = append(reporters, notifier.NewCSVReporter(config.Backtest.OutputCSV))
	}
	if config.DingTalk.WebhookURL != "" {
		reporters = append(reporters, notifier.NewDingTalkReporter(config.DingTalk))
	}
	app.reporter = reporters

	return app, nil
}

// Start 启动指标服务和周期性性能报告
func (app *App) Start(ctx context.Context) {
	app.monitor.Start(ctx, app.config.Metrics.ReportInterval)

	if !app.config.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.monitor.Handler())
	app.server = &http.Server{
		Addr:              app.config.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zap.L().Info("📡 指标服务启动", zap.String("addr", app.config.Metrics.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("❌ 指标服务异常退出", zap.Error(err))
		}
	}()
}

// RunBacktest 区间回测、输出并持久化
func (app *App) RunBacktest(ctx context.Context, ticker, start, end string) (*types.BacktestReport, error) {
	report, err := app.backtester.Run(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	if err := app.reporter.Report(report); err != nil {
		zap.L().Error("❌ 输出回测结果失败", zap.Error(err))
	}

	if app.dbManager != nil {
		runID, err := app.dbManager.SaveReport(report)
		if err != nil {
			zap.L().Error("❌ 保存回测结果失败", zap.Error(err))
		} else {
			zap.L().Info("💾 回测结果已保存", zap.Uint("run_id", runID))
		}
	}

	return report, nil
}

// RunDay 单日回测，交易明细总是打印
func (app *App) RunDay(ctx context.Context, ticker, date string, out io.Writer) (*types.DayResult, error) {
	day, err := scheduler.ResolveDate(date, app.params.Year)
	if err != nil {
		return nil, err
	}
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker 不能为空", types.ErrInvalidConfig)
	}

	began := time.Now()
	result, err := app.backtester.RunDay(ctx, ticker, day)
	if err != nil {
		return nil, fmt.Errorf("%s %s 回测失败: %w", ticker, day.Format("2006-01-02"), err)
	}

	report := &types.BacktestReport{
		Ticker:        ticker,
		Params:        app.params,
		Start:         day,
		End:           day,
		DaysRequested: 1,
		DaysProcessed: 1,
		Days:          []types.DayResult{*result},
		Trades:        result.Trades,
		Elapsed:       time.Since(began),
	}
	report.Summary = analyzer.Summarize(result.Trades)

	if err := notifier.NewConsoleReporter(out, true).Report(report); err != nil {
		return nil, err
	}
	return result, nil
}

// Stop 输出性能报告并释放资源
func (app *App) Stop() {
	app.monitor.LogReport()

	stats := app.engine.GetStats()
	zap.L().Info("🛑 回测结束",
		zap.Any("processed_days", stats["processed_days"]),
		zap.Any("detected_jumps", stats["detected_jumps"]),
		zap.Any("simulated_trades", stats["simulated_trades"]),
		zap.Any("cache", app.cache.GetStats(context.Background())))

	if app.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.server.Shutdown(ctx); err != nil {
			zap.L().Warn("⚠️ 关闭指标服务失败", zap.Error(err))
		}
	}

	if err := app.cache.Close(); err != nil {
		zap.L().Warn("⚠️ 关闭Redis连接失败", zap.Error(err))
	}

	if app.dbManager != nil {
		if err := app.dbManager.Close(); err != nil {
			zap.L().Warn("⚠️ 关闭数据库连接失败", zap.Error(err))
		}
	}

	_ = zap.L().Sync()
}
