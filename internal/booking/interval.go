package booking

import "time"

// Interval is the half-open window [Start, End).  Two intervals that
// merely touch (one ends exactly when the other starts) do not overlap,
// so back-to-back bookings are legal.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an interval and validates it.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate returns ErrInvalidInterval unless End is after Start.
func (iv Interval) Validate() error {
	if !iv.End.After(iv.Start) {
		return ErrInvalidInterval
	}
	return nil
}

// Overlaps reports whether iv and other share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return other.Start.Before(iv.End) && other.End.After(iv.Start)
}

// Duration is End minus Start.
func (iv Interval) Duration() time.Duration { return iv.End.Sub(iv.Start) }
