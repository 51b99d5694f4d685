package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var dayFlags struct {
	ticker string
	date   string
}

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "回测单个交易日并打印每笔交易",
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := cfg.Backtest.Ticker
		if cmd.Flags().Changed("ticker") {
			ticker = dayFlags.ticker
		}

		app, err := NewApp(cfg)
		if err != nil {
			return err
		}
		defer app.Stop()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, err = app.RunDay(ctx, ticker, dayFlags.date, cmd.OutOrStdout())
		return err
	},
}

func init() {
	dayCmd.Flags().StringVar(&dayFlags.ticker, "ticker", "", "标的代码")
	dayCmd.Flags().StringVar(&dayFlags.date, "date", "", "交易日 MM-DD 或 YYYY-MM-DD")
	_ = dayCmd.MarkFlagRequired("date")
}
