package fetcher

import (
	"context"
	"crypto/sha1"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"jump-backtester/pkg/types"
)

// TickLoader 逐笔成交文件加载器
// 每个交易日一个 CSV 文件（可 gzip/zstd 压缩），按标的和日内时间窗口过滤后构造 MarketSeries
type TickLoader struct {
	dir         string
	pattern     string
	columns     types.ColumnConfig
	location    *time.Location
	barInterval time.Duration
	timeStart   types.TimeOfDay
	timeEnd     types.TimeOfDay
}

// tick 单个样本
type tick struct {
	time   types.TimeOfDay
	price  float64
	volume float64
}

// NewTickLoader 创建加载器，时间窗口取自已校验的交易参数
func NewTickLoader(cfg types.DataConfig, params types.TradingParams) (*TickLoader, error) {
	location := time.UTC
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: 时区 %q: %v", types.ErrInvalidConfig, cfg.Timezone, err)
		}
		location = loc
	}

	if cfg.FilePattern == "" {
		return nil, fmt.Errorf("%w: data.file_pattern 不能为空", types.ErrInvalidConfig)
	}
	if cfg.BarInterval < 0 {
		return nil, fmt.Errorf("%w: data.bar_interval 不能为负", types.ErrInvalidConfig)
	}

	return &TickLoader{
		dir:         cfg.Dir,
		pattern:     cfg.FilePattern,
		columns:     cfg.Columns,
		location:    location,
		barInterval: cfg.BarInterval,
		timeStart:   params.TimeStart,
		timeEnd:     params.TimeEnd,
	}, nil
}

// Fingerprint 加载配置指纹，决定同一天会构造出怎样的序列，用作缓存键的一部分
func (tl *TickLoader) Fingerprint() string {
	raw := fmt.Sprintf("%s|%s|%s|%d|%s|%s|%s|%s|%d|%d",
		tl.dir, tl.pattern, tl.location, tl.barInterval,
		tl.columns.Ticker, tl.columns.Timestamp, tl.columns.Price, tl.columns.Volume,
		tl.timeStart, tl.timeEnd)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:8])
}

// Path 渲染某日数据文件路径
func (tl *TickLoader) Path(date time.Time) string {
	name := strings.NewReplacer(
		"{date}", date.Format("2006-01-02"),
		"{yyyy}", date.Format("2006"),
		"{mm}", date.Format("01"),
		"{dd}", date.Format("02"),
	).Replace(tl.pattern)
	return filepath.Join(tl.dir, name)
}

// LoadDay 加载某日某标的的时间序列
func (tl *TickLoader) LoadDay(ctx context.Context, ticker string, date time.Time) (*types.MarketSeries, error) {
	path := tl.Path(date)

	reader, err := openCompressed(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: 数据文件不存在 %s", types.ErrNoData, path)
		}
		return nil, err
	}
	defer reader.Close()

	ticks, matched, err := tl.readTicks(ctx, reader, ticker, date)
	if err != nil {
		return nil, fmt.Errorf("读取数据文件失败 %s: %w", path, err)
	}
	if matched == 0 {
		return nil, fmt.Errorf("%w: %s 中没有 %s 的成交", types.ErrNoData, path, ticker)
	}

	ticks = mergeTicks(ticks, tl.barInterval)

	times := make([]types.TimeOfDay, len(ticks))
	prices := make([]float64, len(ticks))
	volumes := make([]float64, len(ticks))
	for i, t := range ticks {
		times[i] = t.time
		prices[i] = t.price
		volumes[i] = t.volume
	}

	return types.NewMarketSeries(ticker, date, times, prices, volumes)
}

// readTicks 解析 CSV，返回时间窗口内的样本以及该标的的总行数
func (tl *TickLoader) readTicks(ctx context.Context, r io.Reader, ticker string, date time.Time) ([]tick, int, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("读取表头失败: %w", err)
	}

	idx, err := columnIndexes(header, tl.columns)
	if err != nil {
		return nil, 0, err
	}

	year, month, day := date.Date()
	ticks := make([]tick, 0, 1024)
	matched, malformed := 0, 0

	for row := 0; ; row++ {
		if row%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		if record[idx.ticker] != ticker {
			continue
		}
		matched++

		ns, err := strconv.ParseInt(record[idx.timestamp], 10, 64)
		if err != nil {
			malformed++
			continue
		}
		price, err := strconv.ParseFloat(record[idx.price], 64)
		if err != nil {
			malformed++
			continue
		}
		volume, err := strconv.ParseFloat(record[idx.volume], 64)
		if err != nil {
			malformed++
			continue
		}

		ts := time.Unix(0, ns).In(tl.location)
		if y, m, d := ts.Date(); y != year || m != month || d != day {
			continue
		}

		tod := types.TimeOfDayOf(ts)
		if tod < tl.timeStart || tod > tl.timeEnd {
			continue
		}

		ticks = append(ticks, tick{time: tod, price: price, volume: volume})
	}

	if malformed > 0 {
		zap.L().Warn("⚠️ 跳过格式错误的行",
			zap.String("ticker", ticker),
			zap.String("date", date.Format("2006-01-02")),
			zap.Int("malformed", malformed))
	}

	return ticks, matched, nil
}

// mergeTicks 按时间排序并合并同一时间（或同一K线周期）的样本：价格取最后一笔，成交量累加
func mergeTicks(ticks []tick, interval time.Duration) []tick {
	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].time < ticks[j].time
	})

	merged := make([]tick, 0, len(ticks))
	for _, t := range ticks {
		t.time = t.time.Truncate(interval)

		if n := len(merged); n > 0 && merged[n-1].time == t.time {
			merged[n-1].price = t.price
			merged[n-1].volume += t.volume
			continue
		}
		merged = append(merged, t)
	}

	return merged
}

type columnIndex struct {
	ticker, timestamp, price, volume int
}

func columnIndexes(header []string, columns types.ColumnConfig) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}

	lookup := func(name string) (int, error) {
		i, ok := positions[name]
		if !ok {
			return 0, fmt.Errorf("数据文件缺少列 %q", name)
		}
		return i, nil
	}

	var idx columnIndex
	var err error
	if idx.ticker, err = lookup(columns.Ticker); err != nil {
		return idx, err
	}
	if idx.timestamp, err = lookup(columns.Timestamp); err != nil {
		return idx, err
	}
	if idx.price, err = lookup(columns.Price); err != nil {
		return idx, err
	}
	if idx.volume, err = lookup(columns.Volume); err != nil {
		return idx, err
	}
	return idx, nil
}
