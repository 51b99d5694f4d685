package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jump-backtester/pkg/types"
)

func testReport(t *testing.T) *types.BacktestReport {
	t.Helper()
	params, err := types.NewTradingParams(types.StrategyConfig{
		ThresholdPct: 0.5, WindowSize: 5, TimeStart: "09:30", TimeEnd: "16:00",
		SellAfterHours: 1, JumpSide: "positive", VolumeThreshold: 2, Year: 2024,
	})
	require.NoError(t, err)

	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	trades := []types.Trade{
		{Date: date, BuyTime: types.NewTimeOfDay(10, 0, 0), BuyPrice: 100, SellTime: types.NewTimeOfDay(11, 0, 0), SellPrice: 101.5, ReturnPct: 1.5},
		{Date: date, BuyTime: types.NewTimeOfDay(13, 0, 0), BuyPrice: 102, SellTime: types.NewTimeOfDay(14, 0, 0), SellPrice: 101, ReturnPct: -0.980392},
	}
	return &types.BacktestReport{
		Ticker:        "AAPL",
		Params:        params,
		Start:         date,
		End:           date.AddDate(0, 0, 4),
		DaysRequested: 5,
		DaysProcessed: 4,
		DaysSkipped:   1,
		Trades:        trades,
		Summary: types.Summary{
			TotalTrades: 2, Wins: 1, Losses: 1, WinRate: 50,
			MeanReturn: 0.259804, CumulativeSum: 0.519608, DaysWithTrades: 1,
		},
	}
}

func TestConsoleReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf, true).Report(testReport(t)))

	out := buf.String()
	assert.Contains(t, out, "跳跃策略回测报告 - AAPL")
	assert.Contains(t, out, "2024-03-04 ~ 2024-03-08")
	assert.Contains(t, out, "方向: positive")
	assert.Contains(t, out, "持仓: 1.0小时")
	assert.Contains(t, out, "胜率: 50.00%")
	assert.Contains(t, out, "10:00:00")
	assert.Contains(t, out, "-0.9804")
	assert.Contains(t, out, "2024-03-04   2笔")
}

func TestConsoleReporterNoTrades(t *testing.T) {
	report := testReport(t)
	report.Trades = nil
	report.Summary = types.Summary{}

	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf, true).Report(report))

	assert.Contains(t, buf.String(), "没有触发任何交易")
	assert.NotContains(t, buf.String(), "买入时间")
}

func TestWriteTradesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, testReport(t).Trades))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,buy_time,buy_price,sell_time,sell_price,return_pct", lines[0])
	assert.Equal(t, "2024-03-04,10:00:00,100,11:00:00,101.5,1.500000", lines[1])
	assert.Equal(t, "2024-03-04,13:00:00,102,14:00:00,101,-0.980392", lines[2])
}

func TestCSVReporterCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trades.csv")
	require.NoError(t, NewCSVReporter(path).Report(testReport(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "date,buy_time"))
}

type failingReporter struct{ err error }

func (f failingReporter) Report(*types.BacktestReport) error { return f.err }

func TestMultiReporter(t *testing.T) {
	boom := errors.New("boom")
	var buf bytes.Buffer

	err := MultiReporter{failingReporter{boom}, NewConsoleReporter(&buf, false)}.Report(testReport(t))

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "AAPL")
}

func TestDingTalkReporter(t *testing.T) {
	var got DingTalkMessage
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer server.Close()

	reporter := NewDingTalkReporter(types.DingTalkConfig{WebhookURL: server.URL + "/robot/send?access_token=x", Secret: "s"})
	require.NoError(t, reporter.Report(testReport(t)))

	assert.Equal(t, "markdown", got.MsgType)
	assert.Contains(t, got.Markdown.Title, "AAPL")
	assert.Contains(t, got.Markdown.Text, "交易次数**: 2")
	assert.Contains(t, query, "access_token=x&timestamp=")
	assert.Contains(t, query, "&sign=")
}

func TestDingTalkReporterAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errcode":310000,"errmsg":"sign not match"}`))
	}))
	defer server.Close()

	err := NewDingTalkReporter(types.DingTalkConfig{WebhookURL: server.URL}).Report(testReport(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "310000")
}

func TestDingTalkSignedURL(t *testing.T) {
	r := NewDingTalkReporter(types.DingTalkConfig{WebhookURL: "https://oapi.example/robot", Secret: "k"})
	now := time.UnixMilli(1700000000000)

	signed := r.buildSignedURL(now)
	assert.True(t, strings.HasPrefix(signed, "https://oapi.example/robot?timestamp=1700000000000&sign="))
	assert.Equal(t, signed, r.buildSignedURL(now))

	plain := NewDingTalkReporter(types.DingTalkConfig{WebhookURL: "https://oapi.example/robot"})
	assert.Equal(t, "https://oapi.example/robot", plain.buildSignedURL(now))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30秒", formatDuration(30*time.Second))
	assert.Equal(t, "5分钟", formatDuration(5*time.Minute))
	assert.Equal(t, "1.5小时", formatDuration(90*time.Minute))
	assert.Equal(t, "2.0天", formatDuration(48*time.Hour))
}
