package booking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePrice(t *testing.T) {
	start := at(9, 0)
	tests := []struct {
		name     string
		duration time.Duration
		rate     string
		want     string
	}{
		{"two hours at 10", 2 * time.Hour, "10", "20.00"},
		{"ninety minutes at 20", 90 * time.Minute, "20", "30.00"},
		{"one hour forty at 15", 100 * time.Minute, "15", "25.00"},
		{"thirty seven minutes at 15", 37 * time.Minute, "15", "9.25"},
		{"twenty minutes at 11 rounds up", 20 * time.Minute, "11", "3.67"},
		{"five minutes at 10 rounds down", 5 * time.Minute, "10", "0.83"},
		{"half cent rounds up", 3 * time.Minute, "0.10", "0.01"},
		{"one second at 3600", time.Second, "3600", "1.00"},
		{"free resource", 3 * time.Hour, "0", "0.00"},
		{"fractional rate", 45 * time.Minute, "12.50", "9.38"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculatePrice(start, start.Add(tc.duration), decimal.RequireFromString(tc.rate))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.StringFixed(PriceScale))
		})
	}
}

func TestCalculatePriceIsLinear(t *testing.T) {
	rate := decimal.RequireFromString("7.30")
	start := at(8, 0)
	one, err := CalculatePrice(start, start.Add(time.Hour), rate)
	require.NoError(t, err)
	for h := 2; h <= 10; h++ {
		got, err := CalculatePrice(start, start.Add(time.Duration(h)*time.Hour), rate)
		require.NoError(t, err)
		assert.True(t, one.Mul(decimal.NewFromInt(int64(h))).Equal(got), "hours=%d got=%s", h, got)
	}
}

func TestCalculatePriceBeyondDurationRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2500, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := CalculatePrice(start, end, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, "4155000.00", got.StringFixed(PriceScale))
}

func TestCalculatePriceAcrossSecondBoundary(t *testing.T) {
	start := at(9, 0).Add(900 * time.Millisecond)
	got, err := CalculatePrice(start, start.Add(200*time.Millisecond), decimal.NewFromInt(18000))
	require.NoError(t, err)
	assert.Equal(t, "1.00", got.StringFixed(PriceScale))
}

func TestCalculatePriceRoundsOnlyOnce(t *testing.T) {
	// 1 minute at 0.29/h is 0.0048333..; three such minutes are still
	// charged as one window, not as three rounded minutes.
	rate := decimal.RequireFromString("0.29")
	got, err := CalculatePrice(at(9, 0), at(9, 3), rate)
	require.NoError(t, err)
	assert.Equal(t, "0.01", got.StringFixed(PriceScale))
	minute, err := CalculatePrice(at(9, 0), at(9, 1), rate)
	require.NoError(t, err)
	assert.Equal(t, "0.00", minute.StringFixed(PriceScale))
}

func TestCalculatePriceRejectsEmptyAndReversedWindows(t *testing.T) {
	rate := decimal.NewFromInt(25)
	_, err := CalculatePrice(at(9, 0), at(9, 0), rate)
	assert.ErrorIs(t, err, ErrInvalidInterval)
	_, err = CalculatePrice(at(10, 0), at(9, 0), rate)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestCalculatePriceRejectsNegativeRate(t *testing.T) {
	_, err := CalculatePrice(at(9, 0), at(10, 0), decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrNegativeRate)
}

func TestPriceInterval(t *testing.T) {
	got, err := PriceInterval(Interval{Start: at(9, 0), End: at(11, 30)}, decimal.NewFromInt(8))
	require.NoError(t, err)
	assert.Equal(t, "20.00", got.StringFixed(PriceScale))
}
