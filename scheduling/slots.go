package scheduling

// Slot granularity modes, as stored in tenant configuration.
const (
	GranularityCoarse = "coarse"
	GranularityExact  = "exact"
)

// SlotInterval maps a granularity mode to the step between candidate starts.
// Unknown modes fall back to the coarse step.
func SlotInterval(mode string) int {
	if mode == GranularityExact {
		return 30
	}
	return 60
}

// BusinessHours are the opening hours for one weekday.
type BusinessHours struct {
	Open   TimeOfDay `json:"open"`
	Close  TimeOfDay `json:"close"`
	Closed bool      `json:"closed"`
}

// Commitment is an occupied time range on a date: a dispatched job or an
// accepted booking. The engine does not care which.
type Commitment struct {
	Start           TimeOfDay `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
}

// End returns the first minute after the commitment.
func (c Commitment) End() TimeOfDay {
	return c.Start.Add(c.DurationMinutes)
}

// SlotParams tunes slot generation.
type SlotParams struct {
	BufferMinutes   int
	SlotInterval    int
	DefaultDuration int
}

func (p SlotParams) normalized() SlotParams {
	if p.SlotInterval <= 0 {
		p.SlotInterval = 60
	}
	if p.DefaultDuration <= 0 {
		p.DefaultDuration = p.SlotInterval
	}
	if p.BufferMinutes < 0 {
		p.BufferMinutes = 0
	}
	return p
}

// Slot is a bookable start time with its implied end.
type Slot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// interval is a half-open [start, end) range in minutes.
type interval struct {
	start, end int
}

func (a interval) overlaps(b interval) bool {
	return a.start < b.end && b.start < a.end
}

func expanded(start TimeOfDay, duration, buffer int) interval {
	return interval{start: int(start) - buffer, end: int(start) + duration + buffer}
}

// AvailableSlots lists the slots that can be offered on one day. Candidates
// start at the opening time and step by the slot interval up to
// close - default duration. A candidate survives when its buffer-expanded
// interval misses the buffer-expanded interval of every commitment. A closed
// day yields no slots.
func AvailableSlots(hours BusinessHours, commitments []Commitment, params SlotParams) []Slot {
	if hours.Closed || hours.Close <= hours.Open {
		return []Slot{}
	}
	p := params.normalized()

	busy := make([]interval, 0, len(commitments))
	for _, c := range commitments {
		if c.DurationMinutes < 0 {
			continue
		}
		busy = append(busy, expanded(c.Start, c.DurationMinutes, p.BufferMinutes))
	}

	last := hours.Close.Add(-p.DefaultDuration)
	slots := make([]Slot, 0, int(hours.Close-hours.Open)/p.SlotInterval+1)
	for start := hours.Open; start <= last; start = start.Add(p.SlotInterval) {
		if conflicts(expanded(start, p.DefaultDuration, p.BufferMinutes), busy) {
			continue
		}
		slots = append(slots, Slot{Start: start, End: start.Add(p.DefaultDuration)})
	}
	return slots
}

// IsAvailable reports whether a specific start time of the given duration fits
// inside business hours without touching any commitment's buffered interval.
// Unlike AvailableSlots it does not require start to sit on the slot grid.
func IsAvailable(hours BusinessHours, commitments []Commitment, start TimeOfDay, duration, buffer int) bool {
	if hours.Closed || duration <= 0 {
		return false
	}
	if start < hours.Open || start.Add(duration) > hours.Close {
		return false
	}
	if buffer < 0 {
		buffer = 0
	}
	busy := make([]interval, 0, len(commitments))
	for _, c := range commitments {
		busy = append(busy, expanded(c.Start, c.DurationMinutes, buffer))
	}
	return !conflicts(expanded(start, duration, buffer), busy)
}

func conflicts(candidate interval, busy []interval) bool {
	for _, b := range busy {
		if candidate.overlaps(b) {
			return true
		}
	}
	return false
}
