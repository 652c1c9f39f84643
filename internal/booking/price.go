package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places a price is rounded to.
const PriceScale = 2

var (
	nanosPerSecond = decimal.NewFromInt(int64(time.Second))
	nanosPerHour   = decimal.NewFromInt(int64(time.Hour))
)

// elapsedNanos is end minus start in nanoseconds.  time.Sub saturates
// near 292 years, so seconds and nanoseconds are subtracted separately.
func elapsedNanos(start, end time.Time) decimal.Decimal {
	secs := decimal.NewFromInt(end.Unix() - start.Unix())
	frac := decimal.NewFromInt(int64(end.Nanosecond() - start.Nanosecond()))
	return secs.Mul(nanosPerSecond).Add(frac)
}

// CalculatePrice charges hourlyRate for every hour between start and
// end, billing partial hours proportionally.  The product is computed
// exactly and rounded half-up to two places once, at the end.
func CalculatePrice(start, end time.Time, hourlyRate decimal.Decimal) (decimal.Decimal, error) {
	if !end.After(start) {
		return decimal.Zero, ErrInvalidInterval
	}
	if hourlyRate.IsNegative() {
		return decimal.Zero, ErrNegativeRate
	}
	elapsed := elapsedNanos(start, end)
	// DivRound rounds half away from zero, which is half-up for the
	// non-negative amounts seen here.
	return hourlyRate.Mul(elapsed).DivRound(nanosPerHour, PriceScale), nil
}

// PriceInterval is CalculatePrice for an Interval.
func PriceInterval(iv Interval, hourlyRate decimal.Decimal) (decimal.Decimal, error) {
	return CalculatePrice(iv.Start, iv.End, hourlyRate)
}
