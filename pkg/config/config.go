package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"jump-backtester/pkg/types"
)

const envPrefix = "JUMPBT"

// Load 加载配置，path 为空时依次尝试 config.local.yaml、config.yaml
func Load(path string) (*types.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 设置默认值
	setDefaults(v)

	// 读取环境变量，例如 JUMPBT_STRATEGY_THRESHOLD_PCT
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: 读取配置文件 %s 失败: %v", types.ErrInvalidConfig, path, err)
		}
	} else {
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 优先尝试读取本地配置文件
		v.SetConfigName("config.local")
		if err := v.ReadInConfig(); err != nil {
			// 如果本地配置文件不存在，尝试读取默认配置文件
			v.SetConfigName("config")
			if err := v.ReadInConfig(); err != nil {
				var configFileNotFoundError viper.ConfigFileNotFoundError
				if !errors.As(err, &configFileNotFoundError) {
					return nil, fmt.Errorf("%w: %v", types.ErrInvalidConfig, err)
				}
			}
		}
	}

	var config types.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: 解析配置失败: %v", types.ErrInvalidConfig, err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file_path", "logs")
	v.SetDefault("log.max_size", 200)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.compress", false)

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.file_pattern", "{date}.csv.gz")
	v.SetDefault("data.timezone", "America/New_York")
	v.SetDefault("data.bar_interval", time.Duration(0))
	v.SetDefault("data.columns.ticker", "ticker")
	v.SetDefault("data.columns.timestamp", "sip_timestamp")
	v.SetDefault("data.columns.price", "price")
	v.SetDefault("data.columns.volume", "size")

	v.SetDefault("strategy.threshold_pct", 0.5)
	v.SetDefault("strategy.window_size", 5)
	v.SetDefault("strategy.time_start", "09:30")
	v.SetDefault("strategy.time_end", "16:00")
	v.SetDefault("strategy.sell_after_hours", 1.0)
	v.SetDefault("strategy.jump_side", "both")
	v.SetDefault("strategy.use_volume_confirmation", false)
	v.SetDefault("strategy.volume_threshold", 2.0)
	v.SetDefault("strategy.year", time.Now().Year())

	v.SetDefault("backtest.ticker", "")
	v.SetDefault("backtest.start", "")
	v.SetDefault("backtest.end", "")
	v.SetDefault("backtest.workers", 4)
	v.SetDefault("backtest.skip_weekends", true)
	v.SetDefault("backtest.show_trades", false)
	v.SetDefault("backtest.output_csv", "")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("database.mysql.host", "")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.username", "root")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "jump_backtest")
	v.SetDefault("database.mysql.max_idle_conns", 5)
	v.SetDefault("database.mysql.max_open_conns", 10)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.report_interval", time.Duration(0))

	v.SetDefault("dingtalk.webhook_url", "")
	v.SetDefault("dingtalk.secret", "")
}
