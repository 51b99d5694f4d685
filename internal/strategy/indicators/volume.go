package indicators

// VolumeCalculator 成交量均线与放量检测
type VolumeCalculator struct {
	length int
}

// NewVolumeCalculator 创建成交量计算器，length 为均线长度
func NewVolumeCalculator(length int) *VolumeCalculator {
	return &VolumeCalculator{
		length: length,
	}
}

// MovingAverage 计算以 i 结尾（含 i）的 length 个样本的成交量均值
// 只有 i >= length 的位置有定义，ok[i] 标记是否有值
func (vc *VolumeCalculator) MovingAverage(volumes []float64) (ma []float64, ok []bool) {
	ma = make([]float64, len(volumes))
	ok = make([]bool, len(volumes))
	if vc.length <= 0 || vc.length >= len(volumes) {
		return ma, ok
	}

	// 滑动窗口求和
	sum := 0.0
	for i := 0; i < vc.length; i++ {
		sum += volumes[i]
	}

	for i := vc.length; i < len(volumes); i++ {
		sum += volumes[i] - volumes[i-vc.length]
		ma[i] = sum / float64(vc.length)
		ok[i] = true
	}

	return ma, ok
}

// Spikes 返回 volumes[i]/ma[i] > multiplier 的索引（升序）
func (vc *VolumeCalculator) Spikes(volumes []float64, multiplier float64) []int {
	ma, ok := vc.MovingAverage(volumes)

	spikes := make([]int, 0)
	for i := range volumes {
		// 均量为0时窗口内全部无成交，不算放量
		if !ok[i] || ma[i] <= 0 {
			continue
		}
		if volumes[i]/ma[i] > multiplier {
			spikes = append(spikes, i)
		}
	}

	return spikes
}
