package types

import "time"

// Config 主配置结构
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Data     DataConfig     `mapstructure:"data"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	DingTalk DingTalkConfig `mapstructure:"dingtalk"`
}

// TradingParams 校验并转换策略配置
func (c *Config) TradingParams() (TradingParams, error) {
	return NewTradingParams(c.Strategy)
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // 日志级别
	FilePath   string `mapstructure:"file_path"`   // 日志输出目录，为空则只输出控制台
	MaxSize    int    `mapstructure:"max_size"`    // 日志文件大小 单位：MB，超限后会自动切割
	MaxAge     int    `mapstructure:"max_age"`     // 日志文件存放时间 单位：天
	MaxBackups int    `mapstructure:"max_backups"` // 日志文件备份数量
	Compress   bool   `mapstructure:"compress"`    // 日志文件压缩
}

// DataConfig 逐笔数据文件配置
type DataConfig struct {
	Dir         string        `mapstructure:"dir"`
	FilePattern string        `mapstructure:"file_pattern"` // 支持 {date} {yyyy} {mm} {dd}
	Timezone    string        `mapstructure:"timezone"`     // 纳秒时间戳换算日内时间所用时区
	BarInterval time.Duration `mapstructure:"bar_interval"` // 大于0时按该周期聚合为K线
	Columns     ColumnConfig  `mapstructure:"columns"`
}

// ColumnConfig CSV列名映射
type ColumnConfig struct {
	Ticker    string `mapstructure:"ticker"`
	Timestamp string `mapstructure:"timestamp"` // 纳秒级 Unix 时间戳
	Price     string `mapstructure:"price"`
	Volume    string `mapstructure:"volume"`
}

// StrategyConfig 跳跃策略原始配置，使用前必须经 NewTradingParams 校验
type StrategyConfig struct {
	ThresholdPct          float64 `mapstructure:"threshold_pct"`
	WindowSize            int     `mapstructure:"window_size"`
	TimeStart             string  `mapstructure:"time_start"`
	TimeEnd               string  `mapstructure:"time_end"`
	SellAfterHours        float64 `mapstructure:"sell_after_hours"`
	JumpSide              string  `mapstructure:"jump_side"`
	UseVolumeConfirmation bool    `mapstructure:"use_volume_confirmation"`
	VolumeThreshold       float64 `mapstructure:"volume_threshold"`
	Year                  int     `mapstructure:"year"`
}

// BacktestConfig 区间回测配置
type BacktestConfig struct {
	Ticker       string `mapstructure:"ticker"`
	Start        string `mapstructure:"start"` // MM-DD 或 YYYY-MM-DD
	End          string `mapstructure:"end"`
	Workers      int    `mapstructure:"workers"`
	SkipWeekends bool   `mapstructure:"skip_weekends"`
	ShowTrades   bool   `mapstructure:"show_trades"`
	OutputCSV    string `mapstructure:"output_csv"`
}

// RedisConfig Redis配置，用于缓存单日结果
type RedisConfig struct {
	URL      string        `mapstructure:"url"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
}

// MySQLConfig MySQL配置，Host 为空时不持久化
type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr"`
	ReportInterval time.Duration `mapstructure:"report_interval"` // 周期性输出性能报告，0 表示只在结束时输出
}

// DingTalkConfig 钉钉机器人配置，WebhookURL 为空时不推送
type DingTalkConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Secret     string `mapstructure:"secret"`
}
