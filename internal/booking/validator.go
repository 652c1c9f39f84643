package booking

import "github.com/iliyamo/coworking-booking/internal/model"

// FindConflict looks for an active booking of resourceID whose window
// overlaps proposed.  existing is expected to hold the resource's
// non-cancelled bookings; entries for other resources or with the
// cancelled status are skipped anyway.  The first overlapping booking
// in input order is returned.  existing is not modified.
func FindConflict(resourceID uint64, proposed Interval, existing []model.Booking) (model.Booking, bool, error) {
	if err := proposed.Validate(); err != nil {
		return model.Booking{}, false, err
	}
	for _, b := range existing {
		if b.ResourceID != resourceID || !b.Active() {
			continue
		}
		if proposed.Overlaps(Interval{Start: b.StartTime, End: b.EndTime}) {
			return b, true, nil
		}
	}
	return model.Booking{}, false, nil
}

// HasConflict is FindConflict without the conflicting booking.
func HasConflict(resourceID uint64, proposed Interval, existing []model.Booking) (bool, error) {
	_, found, err := FindConflict(resourceID, proposed, existing)
	return found, err
}

// CheckAvailable returns nil when proposed is free, ErrInvalidInterval
// for a malformed window, or a *ConflictError naming the overlapping
// booking.
func CheckAvailable(resourceID uint64, proposed Interval, existing []model.Booking) error {
	b, found, err := FindConflict(resourceID, proposed, existing)
	if err != nil {
		return err
	}
	if found {
		return &ConflictError{Booking: b}
	}
	return nil
}
