package notifier

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	"jump-backtester/pkg/types"
)

var csvHeader = []string{"date", "buy_time", "buy_price", "sell_time", "sell_price", "return_pct"}

// CSVReporter 将交易明细写入 CSV 文件
type CSVReporter struct {
	path string
}

func NewCSVReporter(path string) *CSVReporter {
	return &CSVReporter{path: path}
}

func (cr *CSVReporter) Report(report *types.BacktestReport) error {
	if dir := filepath.Dir(cr.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	f, err := os.Create(cr.path)
	if err != nil {
		return fmt.Errorf("创建CSV文件失败: %w", err)
	}

	if err := WriteTradesCSV(f, report.Trades); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("关闭CSV文件失败: %w", err)
	}

	zap.L().Info("💾 交易明细已写入CSV", zap.String("path", cr.path), zap.Int("trades", len(report.Trades)))
	return nil
}

// WriteTradesCSV 写表头和每笔交易
func WriteTradesCSV(w io.Writer, trades []types.Trade) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("写入CSV失败: %w", err)
	}

	for _, t := range trades {
		record := []string{
			formatDate(t.Date),
			t.BuyTime.String(),
			strconv.FormatFloat(t.BuyPrice, 'f', -1, 64),
			t.SellTime.String(),
			strconv.FormatFloat(t.SellPrice, 'f', -1, 64),
			strconv.FormatFloat(t.ReturnPct, 'f', 6, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("写入CSV失败: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("写入CSV失败: %w", err)
	}
	return nil
}
