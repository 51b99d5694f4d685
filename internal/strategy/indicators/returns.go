package indicators

import (
	"fmt"

	"jump-backtester/pkg/types"
)

// CalculateReturns 计算相邻样本的百分比收益率
// 返回长度为 len(prices)-1，returns[i] 对应价格序列中的样本 i+1
func CalculateReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: 计算收益率至少需要2个价格, 实际%d", types.ErrInsufficientData, len(prices))
	}

	returns := make([]float64, len(prices)-1)
	for i := 0; i < len(prices)-1; i++ {
		if prices[i] == 0 {
			return nil, fmt.Errorf("%w: 价格索引%d", types.ErrZeroPrice, i)
		}
		returns[i] = (prices[i+1] - prices[i]) / prices[i] * 100
	}

	return returns, nil
}

// PercentChange 计算 from -> to 的涨跌幅百分比
func PercentChange(from, to float64) (float64, error) {
	if from == 0 {
		return 0, types.ErrZeroPrice
	}
	return (to - from) / from * 100, nil
}
