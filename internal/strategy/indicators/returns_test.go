package indicators

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jump-backtester/pkg/types"
)

func TestCalculateReturns(t *testing.T) {
	returns, err := CalculateReturns([]float64{100, 101, 103, 90, 95})
	require.NoError(t, err)
	require.Len(t, returns, 4)

	want := []float64{1.0, 1.980198, -12.621359, 5.555556}
	for i := range want {
		assert.InDelta(t, want[i], returns[i], 1e-6, "returns[%d]", i)
	}
}

func TestCalculateReturnsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 2; n < 50; n++ {
		prices := make([]float64, n)
		for i := range prices {
			prices[i] = 1 + rng.Float64()*500
		}

		returns, err := CalculateReturns(prices)
		require.NoError(t, err)
		require.Len(t, returns, n-1)

		for i, r := range returns {
			assert.InDelta(t, prices[i+1], prices[i]*(1+r/100), 1e-9)
		}
	}
}

func TestCalculateReturnsErrors(t *testing.T) {
	_, err := CalculateReturns([]float64{100})
	assert.ErrorIs(t, err, types.ErrInsufficientData)

	_, err = CalculateReturns([]float64{100, 0, 5})
	assert.ErrorIs(t, err, types.ErrZeroPrice)

	// 最后一个价格为0不作除数
	returns, err := CalculateReturns([]float64{100, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{-100}, returns)
}

func TestPercentChange(t *testing.T) {
	pct, err := PercentChange(90, 95)
	require.NoError(t, err)
	assert.InDelta(t, 5.555556, pct, 1e-6)

	_, err = PercentChange(0, 1)
	assert.ErrorIs(t, err, types.ErrZeroPrice)
}
