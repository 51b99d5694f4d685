package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"jump-backtester/pkg/config"
	"jump-backtester/pkg/logger"
	"jump-backtester/pkg/types"
)

var (
	version = "dev"

	// 公共参数
	cfgFile string
	cfg     *types.Config
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "jumpbt",
	Short: "日内价格跳跃策略回测",
	Long: `日内价格跳跃策略回测

用法:
    jumpbt backtest --ticker AAPL --start 01-02 --end 03-29
    jumpbt day --ticker AAPL --date 2024-03-04
    jumpbt runs --ticker AAPL --limit 5
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认 configs/config.local.yaml 或 configs/config.yaml）")

	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig 读取 .env、配置文件并初始化日志
func initConfig() error {
	// .env 不存在时直接使用环境变量
	_ = godotenv.Load()

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	if _, err := logger.Init(loaded.Log); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}

	cfg = loaded
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "打印版本号",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "jumpbt %s\n", version)
	},
}
