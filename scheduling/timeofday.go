// Package scheduling holds the booking engine: capacity, slot availability,
// booking window rules, the booking request lifecycle and crew ranking.
// Nothing in here touches storage or the network.
package scheduling

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

const minutesPerDay = 24 * 60

// ParseTimeOfDay parses "HH:MM" (24h). "24:00" is accepted as end of day.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || len(hh) == 0 || len(hh) > 2 {
		return 0, fmt.Errorf("invalid time %q: bad hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 {
		return 0, fmt.Errorf("invalid time %q: bad minute", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for constants; it panics on bad input.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Clock builds a TimeOfDay from hours and minutes.
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// String formats as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add returns t shifted by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// On places t on the calendar date of d, in d's location.
func (t TimeOfDay) On(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, int(t)/60, int(t)%60, 0, 0, d.Location())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// CivilDate drops the clock part of t, keeping the calendar date as seen in
// t's own location, and returns it at UTC midnight. All engine date math is
// done on these values.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b (negative when b is
// before a).
func DaysBetween(a, b time.Time) int {
	return int(CivilDate(b).Sub(CivilDate(a)).Hours() / 24)
}
