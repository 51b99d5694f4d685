package notifier

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"jump-backtester/pkg/types"
)

// DingTalkMessage 钉钉消息结构
type DingTalkMessage struct {
	MsgType  string            `json:"msgtype"`
	Markdown *DingTalkMarkdown `json:"markdown,omitempty"`
	At       *DingTalkAt       `json:"at,omitempty"`
}

type DingTalkMarkdown struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type DingTalkAt struct {
	AtAll bool `json:"isAtAll"`
}

type DingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// DingTalkReporter 将回测摘要推送到钉钉机器人
type DingTalkReporter struct {
	webhookURL string
	secret     string
	httpClient *http.Client
}

func NewDingTalkReporter(config types.DingTalkConfig) *DingTalkReporter {
	if config.Secret == "" {
		zap.L().Warn("⚠️ 钉钉通知已配置，但未设置secret（建议配置加签验证）")
	}

	return &DingTalkReporter{
		webhookURL: config.WebhookURL,
		secret:     config.Secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (dtr *DingTalkReporter) Report(report *types.BacktestReport) error {
	title := fmt.Sprintf("📊 跳跃策略回测 - %s", report.Ticker)
	if err := dtr.send(title, buildMarkdownContent(report)); err != nil {
		return fmt.Errorf("钉钉发送失败: %w", err)
	}

	zap.L().Info("✅ 钉钉通知已发送", zap.String("ticker", report.Ticker))
	return nil
}

// generateSignature 生成钉钉加签
func (dtr *DingTalkReporter) generateSignature(timestamp int64) string {
	// timestamp + "\n" + secret
	stringToSign := fmt.Sprintf("%d\n%s", timestamp, dtr.secret)

	h := hmac.New(sha256.New, []byte(dtr.secret))
	h.Write([]byte(stringToSign))
	return url.QueryEscape(base64.StdEncoding.EncodeToString(h.Sum(nil)))
}

// buildSignedURL 构建带签名的URL
func (dtr *DingTalkReporter) buildSignedURL(now time.Time) string {
	if dtr.secret == "" {
		return dtr.webhookURL
	}

	timestamp := now.UnixMilli()
	separator := "&"
	if !strings.Contains(dtr.webhookURL, "?") {
		separator = "?"
	}

	return fmt.Sprintf("%s%stimestamp=%d&sign=%s",
		dtr.webhookURL, separator, timestamp, dtr.generateSignature(timestamp))
}

// buildMarkdownContent 构建回测摘要的Markdown内容
func buildMarkdownContent(report *types.BacktestReport) string {
	p := report.Params
	s := report.Summary

	color := "green"
	if s.CumulativeSum < 0 {
		color = "red"
	}

	content := fmt.Sprintf(`## 📊 %s 跳跃策略回测

**区间**: %s ~ %s  
**参数**: 阈值 %.2f%% / 窗口 %d / 方向 %s / 持仓 %s  
**交易日**: 处理 %d，跳过 %d  
**交易次数**: %d（胜率 %.2f%%）  
**平均收益**: %+.4f%%  
**累计收益**: <font color="%s">%+.4f%%</font>  
`,
		report.Ticker,
		formatDate(report.Start), formatDate(report.End),
		p.ThresholdPct, p.WindowSize, p.JumpSide, formatDuration(p.HoldingPeriod()),
		report.DaysProcessed, report.DaysSkipped,
		s.TotalTrades, s.WinRate,
		s.MeanReturn,
		color, s.CumulativeSum)

	if s.TotalTrades == 0 {
		content += "\n> 💤 区间内没有触发任何交易"
	}
	return content
}

// send 发送钉钉消息
func (dtr *DingTalkReporter) send(title, content string) error {
	message := &DingTalkMessage{
		MsgType: "markdown",
		Markdown: &DingTalkMarkdown{
			Title: title,
			Text:  content,
		},
		At: &DingTalkAt{
			AtAll: false,
		},
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	resp, err := dtr.httpClient.Post(dtr.buildSignedURL(time.Now()), "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	var dingResp DingTalkResponse
	if err := json.NewDecoder(resp.Body).Decode(&dingResp); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}

	if dingResp.ErrCode != 0 {
		return fmt.Errorf("钉钉API错误 [%d]: %s", dingResp.ErrCode, dingResp.ErrMsg)
	}

	return nil
}
