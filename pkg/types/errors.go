package types

import "errors"

// 错误分类，调用方通过 errors.Is 判断
var (
	// ErrInvalidConfig 配置错误（非法 jump_side、非正阈值/窗口等），仅在构造参数时返回
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInsufficientData 时间窗口过滤后样本数不足2个
	ErrInsufficientData = errors.New("insufficient data")
	// ErrZeroPrice 价格为0导致除零，说明输入数据已损坏
	ErrZeroPrice = errors.New("zero price")
	// ErrNoData 数据文件不存在或文件中没有该标的
	ErrNoData = errors.New("no data")
	// ErrInvalidSeries 序列长度不一致或时间非严格递增
	ErrInvalidSeries = errors.New("invalid market series")
)
