package scheduling

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking request.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusWaitlisted BookingStatus = "waitlisted"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusDeclined   BookingStatus = "declined"
	StatusCancelled  BookingStatus = "cancelled"
	StatusCompleted  BookingStatus = "completed"
	StatusNoShow     BookingStatus = "no_show"
)

// AllStatuses lists every booking status.
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusWaitlisted,
	StatusConfirmed,
	StatusDeclined,
	StatusCancelled,
	StatusCompleted,
	StatusNoShow,
}

// transitions is the allowed-move table. Terminal states have no entry.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusConfirmed, StatusDeclined, StatusCancelled},
	StatusWaitlisted: {StatusConfirmed, StatusDeclined, StatusCancelled},
	StatusConfirmed:  {StatusCompleted, StatusCancelled, StatusNoShow},
}

// ParseBookingStatus rejects anything that is not a known status.
func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown booking status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s BookingStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Editable reports whether staff may still change a request's details.
func (s BookingStatus) Editable() bool {
	return s == StatusPending || s == StatusWaitlisted
}

// CanTransitionTo reports whether the table allows s -> next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the states reachable from s in one step.
func (s BookingStatus) NextStatuses() []BookingStatus {
	out := make([]BookingStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

func (s BookingStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *BookingStatus) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*s = BookingStatus(v)
	case []byte:
		*s = BookingStatus(v)
	case nil:
		*s = ""
	default:
		return fmt.Errorf("cannot scan %T into BookingStatus", value)
	}
	return nil
}

var (
	// ErrInvalidTransition matches every InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConfirmationDetails is returned when entering confirmed without a
	// confirmed date and time.
	ErrConfirmationDetails = errors.New("confirmed date and time are required")
)

// InvalidTransitionError names the rejected move.
type InvalidTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// TransitionRequest is a proposed move plus the side data it may carry.
type TransitionRequest struct {
	To            BookingStatus
	ConfirmedDate time.Time
	ConfirmedTime *TimeOfDay
}

// Confirmation is the side data persisted when entering confirmed.
type Confirmation struct {
	Date time.Time
	Time TimeOfDay
}

// Transition checks a proposed move against the table. On success it returns
// the confirmation details when the target is confirmed (nil otherwise). On
// failure nothing about the caller's record should change.
func Transition(current BookingStatus, req TransitionRequest) (*Confirmation, error) {
	if !current.CanTransitionTo(req.To) {
		return nil, &InvalidTransitionError{From: current, To: req.To}
	}
	if req.To != StatusConfirmed {
		return nil, nil
	}
	if req.ConfirmedDate.IsZero() || req.ConfirmedTime == nil {
		return nil, ErrConfirmationDetails
	}
	return &Confirmation{Date: CivilDate(req.ConfirmedDate), Time: *req.ConfirmedTime}, nil
}
