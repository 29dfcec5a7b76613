package scheduling_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"field-service-server/scheduling"
)

func TestComputeCapacity(t *testing.T) {
	tests := map[string]struct {
		total, used int
		expected    scheduling.Capacity
	}{
		"ThreeCrewsFullyBooked": {
			total: 18, used: 18,
			expected: scheduling.Capacity{Total: 18, Used: 18, Remaining: 0, Status: scheduling.CapacityFull},
		},
		"Untouched": {
			total: 18, used: 0,
			expected: scheduling.Capacity{Total: 18, Used: 0, Remaining: 18, Status: scheduling.CapacityOpen},
		},
		"ExactlyHalfRemainingIsLimited": {
			total: 10, used: 5,
			expected: scheduling.Capacity{Total: 10, Used: 5, Remaining: 5, Status: scheduling.CapacityLimited},
		},
		"JustOverHalfIsOpen": {
			total: 5, used: 2,
			expected: scheduling.Capacity{Total: 5, Used: 2, Remaining: 3, Status: scheduling.CapacityOpen},
		},
		"OneLeftIsLimited": {
			total: 18, used: 17,
			expected: scheduling.Capacity{Total: 18, Used: 17, Remaining: 1, Status: scheduling.CapacityLimited},
		},
		"OverBookedFloorsAtZero": {
			total: 6, used: 9,
			expected: scheduling.Capacity{Total: 6, Used: 9, Remaining: 0, Status: scheduling.CapacityFull},
		},
		"NoCapacityAtAll": {
			total: 0, used: 0,
			expected: scheduling.Capacity{Total: 0, Used: 0, Remaining: 0, Status: scheduling.CapacityFull},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, scheduling.ComputeCapacity(tc.total, tc.used))
		})
	}
}

func TestComputeCapacity_StatusProperties(t *testing.T) {
	for total := 0; total <= 20; total++ {
		for used := 0; used <= 25; used++ {
			c := scheduling.ComputeCapacity(total, used)

			want := total - used
			if want < 0 {
				want = 0
			}
			assert.Equal(t, want, c.Remaining)
			assert.Equal(t, c.Remaining == 0, c.Status == scheduling.CapacityFull, "total=%d used=%d", total, used)
			assert.Equal(t, float64(c.Remaining) > float64(total)/2, c.Status == scheduling.CapacityOpen, "total=%d used=%d", total, used)
		}
	}
}

func TestDailyCapacity(t *testing.T) {
	assert.Equal(t, 18, scheduling.DailyCapacity(3, 6))
	assert.Equal(t, 0, scheduling.DailyCapacity(0, 6))
	assert.Equal(t, 0, scheduling.DailyCapacity(3, -1))
}
