package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"jump-backtester/pkg/types"
)

type backtestOptions struct {
	ticker     string
	start      string
	end        string
	workers    int
	side       string
	threshold  float64
	showTrades bool
	outputCSV  string
}

var backtestFlags backtestOptions

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "按日期区间回测",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyBacktestFlags(cmd, cfg)

		app, err := NewApp(cfg)
		if err != nil {
			return err
		}
		defer app.Stop()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app.Start(ctx)
		_, err = app.RunBacktest(ctx, cfg.Backtest.Ticker, cfg.Backtest.Start, cfg.Backtest.End)
		return err
	},
}

func init() {
	f := backtestCmd.Flags()
	f.StringVar(&backtestFlags.ticker, "ticker", "", "标的代码")
	f.StringVar(&backtestFlags.start, "start", "", "开始日期 MM-DD 或 YYYY-MM-DD")
	f.StringVar(&backtestFlags.end, "end", "", "结束日期（包含）")
	f.IntVar(&backtestFlags.workers, "workers", 0, "并发处理的交易日数量")
	f.StringVar(&backtestFlags.side, "side", "", "跳跃方向 positive/negative/both")
	f.Float64Var(&backtestFlags.threshold, "threshold", 0, "跳跃阈值（百分比）")
	f.BoolVar(&backtestFlags.showTrades, "show-trades", false, "打印每笔交易")
	f.StringVar(&backtestFlags.outputCSV, "output-csv", "", "交易明细输出CSV路径")
}

// applyBacktestFlags 命令行显式指定的参数覆盖配置
func applyBacktestFlags(cmd *cobra.Command, c *types.Config) {
	f := cmd.Flags()
	if f.Changed("ticker") {
		c.Backtest.Ticker = backtestFlags.ticker
	}
	if f.Changed("start") {
		c.Backtest.Start = backtestFlags.start
	}
	if f.Changed("end") {
		c.Backtest.End = backtestFlags.end
	}
	if f.Changed("workers") {
		c.Backtest.Workers = backtestFlags.workers
	}
	if f.Changed("side") {
		c.Strategy.JumpSide = backtestFlags.side
	}
	if f.Changed("threshold") {
		c.Strategy.ThresholdPct = backtestFlags.threshold
	}
	if f.Changed("show-trades") {
		c.Backtest.ShowTrades = backtestFlags.showTrades
	}
	if f.Changed("output-csv") {
		c.Backtest.OutputCSV = backtestFlags.outputCSV
	}
}
