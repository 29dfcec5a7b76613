package scheduling

import (
	"errors"
	"fmt"
	"time"
)

// WindowRules are a tenant's public booking constraints.
type WindowRules struct {
	MinNoticeHours    int
	BookingWindowDays int
}

// ErrOutsideWindow matches every WindowError.
var ErrOutsideWindow = errors.New("outside booking window")

// WindowError explains why a requested date was rejected.
type WindowError struct {
	Reason string
}

func (e *WindowError) Error() string { return e.Reason }

func (e *WindowError) Is(target error) bool { return target == ErrOutsideWindow }

// ValidateBookingWindow checks a requested date against today's date and the
// tenant's rules. Rules are evaluated in order and the first failure wins:
// past dates, then minimum notice, then the advance window. Both dates are
// reduced to calendar days before comparing.
func ValidateBookingWindow(requested, today time.Time, rules WindowRules) error {
	days := DaysBetween(today, requested)

	if days < 0 {
		return &WindowError{Reason: "cannot book in the past"}
	}
	if days*24 < rules.MinNoticeHours {
		return &WindowError{Reason: fmt.Sprintf("minimum %d hours notice required", rules.MinNoticeHours)}
	}
	if days > rules.BookingWindowDays {
		return &WindowError{Reason: "date beyond booking window"}
	}
	return nil
}
