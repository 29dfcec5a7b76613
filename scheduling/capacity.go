package scheduling

// CapacityStatus is the qualitative view of a day's remaining capacity.
type CapacityStatus string

const (
	CapacityOpen    CapacityStatus = "open"
	CapacityLimited CapacityStatus = "limited"
	CapacityFull    CapacityStatus = "full"
)

// Capacity summarizes how much of a day's capacity has been consumed.
type Capacity struct {
	Total     int            `json:"total"`
	Used      int            `json:"used"`
	Remaining int            `json:"remaining"`
	Status    CapacityStatus `json:"status"`
}

// ComputeCapacity turns a total daily capacity and the number of commitments
// already placed into a summary. Used may exceed total when staff over-book;
// remaining floors at zero and the day reads as full.
func ComputeCapacity(total, used int) Capacity {
	if total < 0 {
		total = 0
	}
	if used < 0 {
		used = 0
	}

	remaining := total - used
	if remaining < 0 {
		remaining = 0
	}

	status := CapacityLimited
	switch {
	case remaining == 0:
		status = CapacityFull
	case remaining*2 > total:
		status = CapacityOpen
	}

	return Capacity{
		Total:     total,
		Used:      used,
		Remaining: remaining,
		Status:    status,
	}
}

// DailyCapacity derives a tenant's total daily capacity from its crew setup.
func DailyCapacity(crewsPerDay, maxJobsPerCrew int) int {
	if crewsPerDay <= 0 || maxJobsPerCrew <= 0 {
		return 0
	}
	return crewsPerDay * maxJobsPerCrew
}
