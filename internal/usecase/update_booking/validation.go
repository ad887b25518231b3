package update_booking

import (
	"fmt"
	"unicode/utf8"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
)

func validateRequest(req *Request, grid domain.SlotGrid) error {
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
	}

	if utf8.RuneCountInString(req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	if !grid.Contains(req.StartTime) {
		return fmt.Errorf("%w: %s is not an offered start time", ErrInvalidTimeSlot, req.StartTime)
	}

	return nil
}
