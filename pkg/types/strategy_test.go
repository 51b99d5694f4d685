package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStrategy() StrategyConfig {
	return StrategyConfig{
		ThresholdPct:    1.5,
		WindowSize:      5,
		TimeStart:       "09:30",
		TimeEnd:         "16:00",
		SellAfterHours:  1,
		JumpSide:        "both",
		VolumeThreshold: 2,
		Year:            2024,
	}
}

func TestParseJumpSide(t *testing.T) {
	for in, want := range map[string]JumpSide{
		"Positive": JumpSidePositive,
		"NEGATIVE": JumpSideNegative,
		" both ":   JumpSideBoth,
	} {
		got, err := ParseJumpSide(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseJumpSide("up")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewTradingParams(t *testing.T) {
	params, err := NewTradingParams(validStrategy())
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(9, 30, 0), params.TimeStart)
	assert.Equal(t, JumpSideBoth, params.JumpSide)
	assert.Equal(t, time.Hour, params.HoldingPeriod())

	tests := []struct {
		name   string
		mutate func(*StrategyConfig)
	}{
		{"zero threshold", func(c *StrategyConfig) { c.ThresholdPct = 0 }},
		{"negative window", func(c *StrategyConfig) { c.WindowSize = -1 }},
		{"negative holding", func(c *StrategyConfig) { c.SellAfterHours = -0.5 }},
		{"zero volume threshold", func(c *StrategyConfig) { c.VolumeThreshold = 0 }},
		{"bad side", func(c *StrategyConfig) { c.JumpSide = "sideways" }},
		{"bad start", func(c *StrategyConfig) { c.TimeStart = "9am" }},
		{"end before start", func(c *StrategyConfig) { c.TimeEnd = "09:00" }},
		{"missing year", func(c *StrategyConfig) { c.Year = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validStrategy()
			tt.mutate(&raw)
			_, err := NewTradingParams(raw)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestHoldingMinutes(t *testing.T) {
	assert.Equal(t, 5, HoldingMinutes(5.0/60))
	assert.Equal(t, 90, HoldingMinutes(1.5))
	assert.Equal(t, 0, HoldingMinutes(0))
	assert.Equal(t, 1, HoldingMinutes(0.01))
}

func TestFingerprintStable(t *testing.T) {
	a, err := NewTradingParams(validStrategy())
	require.NoError(t, err)
	b, err := NewTradingParams(validStrategy())
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	raw := validStrategy()
	raw.JumpSide = "negative"
	c, err := NewTradingParams(raw)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
