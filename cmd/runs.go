package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"jump-backtester/internal/strategy/database"
	"jump-backtester/pkg/types"
)

var runsFlags struct {
	ticker string
	limit  int
	id     uint
}

// runStore 回测记录查询
type runStore interface {
	GetRuns(ticker string, limit int) ([]database.BacktestRun, error)
	GetTrades(runID uint) ([]database.BacktestTrade, error)
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "查看 MySQL 中保存的回测记录",
	Long: `查看 MySQL 中保存的回测记录

    jumpbt runs --ticker AAPL --limit 5   # 最近的回测
    jumpbt runs --id 7                    # 某次回测的全部交易
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.MySQL.Host == "" {
			return fmt.Errorf("%w: 未配置 database.mysql.host", types.ErrInvalidConfig)
		}

		ticker := cfg.Backtest.Ticker
		if cmd.Flags().Changed("ticker") {
			ticker = runsFlags.ticker
		}

		manager, err := database.NewManager(cfg.Database.MySQL)
		if err != nil {
			return err
		}
		defer manager.Close()

		return listRuns(cmd.OutOrStdout(), manager, ticker, runsFlags.limit, runsFlags.id)
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsFlags.ticker, "ticker", "", "标的代码")
	runsCmd.Flags().IntVar(&runsFlags.limit, "limit", 10, "最多显示的回测条数")
	runsCmd.Flags().UintVar(&runsFlags.id, "id", 0, "回测ID，指定时打印该次回测的交易明细")
}

// listRuns runID 非零时打印交易明细，否则打印标的最近的回测
func listRuns(w io.Writer, store runStore, ticker string, limit int, runID uint) error {
	if runID > 0 {
		trades, err := store.GetTrades(runID)
		if err != nil {
			return err
		}
		printRunTrades(w, runID, trades)
		return nil
	}

	if ticker == "" {
		return fmt.Errorf("%w: 需要 --ticker 或 --id", types.ErrInvalidConfig)
	}
	runs, err := store.GetRuns(ticker, limit)
	if err != nil {
		return err
	}
	printRuns(w, ticker, runs)
	return nil
}

func printRuns(w io.Writer, ticker string, runs []database.BacktestRun) {
	if len(runs) == 0 {
		fmt.Fprintf(w, "%s 没有保存的回测记录\n", ticker)
		return
	}

	fmt.Fprintf(w, "%-6s %-10s %-10s %-10s %-8s %8s %8s %10s %12s\n",
		"ID", "标的", "开始", "结束", "方向", "交易数", "胜率%", "平均收益%", "累计收益%")
	for _, r := range runs {
		fmt.Fprintf(w, "%-6d %-10s %-10s %-10s %-8s %8d %8.2f %10.4f %12.4f\n",
			r.ID, r.Ticker,
			r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"),
			r.JumpSide, r.TotalTrades, r.WinRate, r.MeanReturn, r.CumulativeSum)
	}
}

func printRunTrades(w io.Writer, runID uint, trades []database.BacktestTrade) {
	if len(trades) == 0 {
		fmt.Fprintf(w, "回测 #%d 没有交易\n", runID)
		return
	}

	fmt.Fprintf(w, "回测 #%d 共 %d 笔交易\n", runID, len(trades))
	for _, t := range trades {
		fmt.Fprintf(w, "%s %s  买入 %s @ %.4f  卖出 %s @ %.4f  收益 %+.4f%%\n",
			t.TradeDate.Format("2006-01-02"), t.Ticker,
			t.BuyTime, t.BuyPrice, t.SellTime, t.SellPrice, t.ReturnPct)
	}
}
