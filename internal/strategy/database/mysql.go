package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"jump-backtester/pkg/types"
)

// Manager 数据库管理器
type Manager struct {
	db     *gorm.DB
	config types.MySQLConfig
}

// BacktestRun 一次区间回测
type BacktestRun struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Ticker                string    `gorm:"type:varchar(20);not null;index:idx_ticker_created" json:"ticker"`
	StartDate             time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate               time.Time `gorm:"type:date;not null" json:"end_date"`
	Fingerprint           string    `gorm:"type:varchar(32);not null;index" json:"fingerprint"`
	ThresholdPct          float64   `gorm:"type:decimal(10,4);not null" json:"threshold_pct"`
	WindowSize            int       `gorm:"not null" json:"window_size"`
	TimeStart             string    `gorm:"type:varchar(8);not null" json:"time_start"`
	TimeEnd               string    `gorm:"type:varchar(8);not null" json:"time_end"`
	SellAfterHours        float64   `gorm:"type:decimal(10,4);not null" json:"sell_after_hours"`
	JumpSide              string    `gorm:"type:enum('both','positive','negative');not null" json:"jump_side"`
	UseVolumeConfirmation bool      `gorm:"default:false" json:"use_volume_confirmation"`
	VolumeThreshold       float64   `gorm:"type:decimal(10,4);not null" json:"volume_threshold"`
	DaysRequested         int       `gorm:"default:0" json:"days_requested"`
	DaysProcessed         int       `gorm:"default:0" json:"days_processed"`
	DaysSkipped           int       `gorm:"default:0" json:"days_skipped"`
	TotalTrades           int       `gorm:"default:0" json:"total_trades"`
	WinRate               float64   `gorm:"type:decimal(7,3)" json:"win_rate"`
	MeanReturn            float64   `gorm:"type:decimal(12,6)" json:"mean_return"`
	MedianReturn          float64   `gorm:"type:decimal(12,6)" json:"median_return"`
	StdReturn             float64   `gorm:"type:decimal(12,6)" json:"std_return"`
	CumulativeSum         float64   `gorm:"type:decimal(14,6)" json:"cumulative_sum"`
	ElapsedMs             int64     `json:"elapsed_ms"`
	CreatedAt             time.Time `gorm:"index:idx_ticker_created" json:"created_at"`
}

// BacktestTrade 回测中的单笔交易
type BacktestTrade struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RunID     uint      `gorm:"not null;index:idx_run_date" json:"run_id"`
	Ticker    string    `gorm:"type:varchar(20);not null" json:"ticker"`
	TradeDate time.Time `gorm:"type:date;not null;index:idx_run_date" json:"trade_date"`
	BuyTime   string    `gorm:"type:varchar(8);not null" json:"buy_time"`
	BuyPrice  float64   `gorm:"type:decimal(20,8);not null" json:"buy_price"`
	SellTime  string    `gorm:"type:varchar(8);not null" json:"sell_time"`
	SellPrice float64   `gorm:"type:decimal(20,8);not null" json:"sell_price"`
	ReturnPct float64   `gorm:"type:decimal(12,6);not null" json:"return_pct"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyPerformance 回测中单日的汇总
type DailyPerformance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RunID     uint      `gorm:"not null;uniqueIndex:uk_run_date" json:"run_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:uk_run_date" json:"date"`
	Trades    int       `gorm:"default:0" json:"trades"`
	SumReturn float64   `gorm:"type:decimal(14,6)" json:"sum_return"`
	CreatedAt time.Time `json:"created_at"`
}

// NewManager 创建数据库管理器
func NewManager(config types.MySQLConfig) (*Manager, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
	)

	// 配置GORM日志
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	manager := &Manager{
		db:     db,
		config: config,
	}

	// 自动迁移表结构
	if err := manager.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	zap.L().Info("✅ MySQL数据库连接成功",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("database", config.Database))

	return manager, nil
}

// AutoMigrate 自动迁移表结构
func (m *Manager) AutoMigrate() error {
	return m.db.AutoMigrate(
		&BacktestRun{},
		&BacktestTrade{},
		&DailyPerformance{},
	)
}

// NewRunRecord 将回测报告转换为数据库模型
func NewRunRecord(report *types.BacktestReport) BacktestRun {
	p := report.Params
	s := report.Summary
	return BacktestRun{
		Ticker:                report.Ticker,
		StartDate:             report.Start,
		EndDate:               report.End,
		Fingerprint:           p.Fingerprint(),
		ThresholdPct:          p.ThresholdPct,
		WindowSize:            p.WindowSize,
		TimeStart:             p.TimeStart.String(),
		TimeEnd:               p.TimeEnd.String(),
		SellAfterHours:        p.SellAfterHours,
		JumpSide:              p.JumpSide.String(),
		UseVolumeConfirmation: p.UseVolumeConfirmation,
		VolumeThreshold:       p.VolumeThreshold,
		DaysRequested:         report.DaysRequested,
		DaysProcessed:         report.DaysProcessed,
		DaysSkipped:           report.DaysSkipped,
		TotalTrades:           s.TotalTrades,
		WinRate:               s.WinRate,
		MeanReturn:            s.MeanReturn,
		MedianReturn:          s.MedianReturn,
		StdReturn:             s.StdReturn,
		CumulativeSum:         s.CumulativeSum,
		ElapsedMs:             report.Elapsed.Milliseconds(),
	}
}

// NewTradeRecords 转换交易明细，RunID 由调用方在插入前填充
func NewTradeRecords(runID uint, ticker string, trades []types.Trade) []BacktestTrade {
	records := make([]BacktestTrade, 0, len(trades))
	for _, t := range trades {
		records = append(records, BacktestTrade{
			RunID:     runID,
			Ticker:    ticker,
			TradeDate: t.Date,
			BuyTime:   t.BuyTime.String(),
			BuyPrice:  t.BuyPrice,
			SellTime:  t.SellTime.String(),
			SellPrice: t.SellPrice,
			ReturnPct: t.ReturnPct,
		})
	}
	return records
}

// NewDailyRecords 按交易日汇总，按日期升序
func NewDailyRecords(runID uint, days []types.DayResult) []DailyPerformance {
	records := make([]DailyPerformance, 0, len(days))
	for _, day := range days {
		sum := 0.0
		for _, t := range day.Trades {
			sum += t.ReturnPct
		}
		records = append(records, DailyPerformance{
			RunID:     runID,
			Date:      day.Date,
			Trades:    len(day.Trades),
			SumReturn: sum,
		})
	}
	return records
}

// SaveReport 在一个事务内保存回测及其交易明细，返回回测ID
func (m *Manager) SaveReport(report *types.BacktestReport) (uint, error) {
	run := NewRunRecord(report)

	tx := m.db.Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}

	if err := tx.Create(&run).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("保存回测记录失败: %w", err)
	}

	trades := NewTradeRecords(run.ID, report.Ticker, report.Trades)
	if len(trades) > 0 {
		// 分批插入避免单条SQL过大
		if err := tx.CreateInBatches(trades, 100).Error; err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("批量插入交易明细失败: %w", err)
		}
	}

	daily := NewDailyRecords(run.ID, report.Days)
	if len(daily) > 0 {
		if err := tx.CreateInBatches(daily, 100).Error; err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("批量插入每日汇总失败: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("提交回测事务失败: %w", err)
	}

	zap.L().Debug("✅ 回测结果已保存",
		zap.Uint("run_id", run.ID),
		zap.String("ticker", report.Ticker),
		zap.Int("trades", len(trades)))

	return run.ID, nil
}

// GetRuns 获取某标的最近的回测记录
func (m *Manager) GetRuns(ticker string, limit int) ([]BacktestRun, error) {
	var runs []BacktestRun
	err := m.db.Where("ticker = ?", ticker).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error

	return runs, err
}

// GetTrades 获取回测的交易明细
func (m *Manager) GetTrades(runID uint) ([]BacktestTrade, error) {
	var trades []BacktestTrade
	err := m.db.Where("run_id = ?", runID).
		Order("trade_date ASC, buy_time ASC").
		Find(&trades).Error

	return trades, err
}

// Close 关闭数据库连接
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health 检查数据库连接健康状态
func (m *Manager) Health() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
