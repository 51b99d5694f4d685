package notifier

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"jump-backtester/internal/analyzer"
	"jump-backtester/pkg/types"
)

const boxWidth = 72

// Reporter 回测结果输出接口
type Reporter interface {
	Report(report *types.BacktestReport) error
}

// MultiReporter 依次调用多个输出，返回第一个错误
type MultiReporter []Reporter

func (mr MultiReporter) Report(report *types.BacktestReport) error {
	var first error
	for _, r := range mr {
		if err := r.Report(report); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// safePadding 安全地计算填充空格数量，避免负数
func safePadding(content string, totalWidth int) int {
	// 按字符数而不是字节数计算
	runeCount := utf8.RuneCountInString(content)
	padding := totalWidth - runeCount - 2
	if padding < 0 {
		padding = 0
	}
	return padding
}

// formatDuration 格式化时间周期为中文描述
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0f秒", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%.0f分钟", d.Minutes())
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%.1f小时", d.Hours())
	}
	return fmt.Sprintf("%.1f天", d.Hours()/24)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ConsoleReporter 控制台输出
type ConsoleReporter struct {
	out        io.Writer
	showTrades bool
}

// NewConsoleReporter out 为空时输出到标准输出
func NewConsoleReporter(out io.Writer, showTrades bool) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out, showTrades: showTrades}
}

func (cr *ConsoleReporter) Report(report *types.BacktestReport) error {
	cr.printSummary(report)
	if cr.showTrades && len(report.Trades) > 0 {
		cr.printTrades(report.Trades)
	}
	return nil
}

func (cr *ConsoleReporter) line(content string) {
	fmt.Fprintf(cr.out, "║ %s%s ║\n", content, strings.Repeat(" ", safePadding(content, boxWidth)))
}

func (cr *ConsoleReporter) blank() {
	fmt.Fprintln(cr.out, "║"+strings.Repeat(" ", boxWidth)+"║")
}

func (cr *ConsoleReporter) printSummary(report *types.BacktestReport) {
	p := report.Params
	s := report.Summary

	fmt.Fprintln(cr.out)
	fmt.Fprintln(cr.out, "╔"+strings.Repeat("═", boxWidth)+"╗")
	cr.line(fmt.Sprintf("📊 跳跃策略回测报告 - %s", report.Ticker))
	cr.line(fmt.Sprintf("区间: %s ~ %s", formatDate(report.Start), formatDate(report.End)))
	cr.blank()

	cr.line(fmt.Sprintf("阈值: %.2f%%  窗口: %d  方向: %s", p.ThresholdPct, p.WindowSize, p.JumpSide))
	cr.line(fmt.Sprintf("时段: %s - %s  持仓: %s", p.TimeStart, p.TimeEnd, formatDuration(p.HoldingPeriod())))
	if p.UseVolumeConfirmation {
		cr.line(fmt.Sprintf("成交量确认: 开启 (%.2f 倍)", p.VolumeThreshold))
	} else {
		cr.line("成交量确认: 关闭")
	}
	cr.blank()

	cr.line(fmt.Sprintf("交易日: 请求 %d  处理 %d  跳过 %d  有交易 %d",
		report.DaysRequested, report.DaysProcessed, report.DaysSkipped, s.DaysWithTrades))

	if s.TotalTrades == 0 {
		cr.line("💤 区间内没有触发任何交易")
	} else {
		cr.line(fmt.Sprintf("交易次数: %d  盈利: %d  亏损: %d  胜率: %.2f%%",
			s.TotalTrades, s.Wins, s.Losses, s.WinRate))
		cr.line(fmt.Sprintf("平均收益: %+.4f%%  中位数: %+.4f%%  标准差: %.4f%%",
			s.MeanReturn, s.MedianReturn, s.StdReturn))
		cr.line(fmt.Sprintf("📈 最佳: %+.4f%%  📉 最差: %+.4f%%", s.BestReturn, s.WorstReturn))
		cr.line(fmt.Sprintf("累计收益: %+.4f%%  平均持仓: %.1f分钟", s.CumulativeSum, s.AvgHoldingMins))
	}

	cr.blank()
	cr.line(fmt.Sprintf("耗时: %s", report.Elapsed.Truncate(time.Millisecond)))
	fmt.Fprintln(cr.out, "╚"+strings.Repeat("═", boxWidth)+"╝")
	fmt.Fprintln(cr.out)
}

func (cr *ConsoleReporter) printTrades(trades []types.Trade) {
	fmt.Fprintf(cr.out, "%-12s %-10s %12s %-10s %12s %10s\n",
		"日期", "买入时间", "买入价", "卖出时间", "卖出价", "收益%")
	fmt.Fprintln(cr.out, strings.Repeat("-", boxWidth))
	for _, t := range trades {
		fmt.Fprintf(cr.out, "%-12s %-10s %12.4f %-10s %12.4f %+10.4f\n",
			formatDate(t.Date), t.BuyTime, t.BuyPrice, t.SellTime, t.SellPrice, t.ReturnPct)
	}
	fmt.Fprintln(cr.out, strings.Repeat("-", boxWidth))

	// 按日小计
	daily := analyzer.GroupByDate(trades)
	dates := make([]time.Time, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for _, d := range dates {
		stat := daily[d]
		fmt.Fprintf(cr.out, "%-12s %d笔 %+10.4f%%\n", formatDate(d), stat.Trades, stat.SumReturn)
	}
	fmt.Fprintln(cr.out)
}
