package scheduling_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-service-server/scheduling"
)

func zone(id uint) *uint { return &id }

func crewIDs(s scheduling.Suggestion) []uint {
	out := make([]uint, 0, len(s.Ranked))
	for _, r := range s.Ranked {
		out = append(out, r.CrewID)
	}
	return out
}

func TestRankCrews(t *testing.T) {
	travel := scheduling.TravelTimes{
		{From: 2, To: 1}: 15,
		{From: 3, To: 1}: 45,
	}
	req := scheduling.AssignmentRequest{ZoneID: 1, Time: scheduling.Clock(10, 0), DurationMinutes: 60}

	tests := map[string]struct {
		crews       []scheduling.CrewCandidate
		req         scheduling.AssignmentRequest
		expected    []uint
		explanation string
	}{
		"SameZoneBeatsTravel": {
			crews: []scheduling.CrewCandidate{
				{CrewID: 10, ZoneID: zone(2), Active: true, MaxJobsPerDay: 6},
				{CrewID: 11, ZoneID: zone(1), Active: true, JobsToday: 2, MaxJobsPerDay: 6},
			},
			req:         req,
			expected:    []uint{11, 10},
			explanation: "same zone, crew under daily capacity (2/6 jobs)",
		},
		"ShorterTravelWins": {
			crews: []scheduling.CrewCandidate{
				{CrewID: 20, ZoneID: zone(3), Active: true, MaxJobsPerDay: 6},
				{CrewID: 21, ZoneID: zone(2), Active: true, MaxJobsPerDay: 6},
			},
			req:         req,
			expected:    []uint{21, 20},
			explanation: "15 min travel from crew zone, crew under daily capacity (0/6 jobs)",
		},
		"UnknownEdgeLastButKept": {
			crews: []scheduling.CrewCandidate{
				{CrewID: 30, ZoneID: zone(9), Active: true},
				{CrewID: 31, Active: true},
				{CrewID: 32, ZoneID: zone(3), Active: true},
			},
			req:         req,
			expected:    []uint{32, 30, 31},
			explanation: "45 min travel from crew zone, crew under daily capacity",
		},
		"TieBrokenByLoad": {
			crews: []scheduling.CrewCandidate{
				{CrewID: 40, ZoneID: zone(1), Active: true, JobsToday: 4, MaxJobsPerDay: 6},
				{CrewID: 41, ZoneID: zone(1), Active: true, JobsToday: 1, MaxJobsPerDay: 6},
				{CrewID: 42, ZoneID: zone(1), Active: true, JobsToday: 1, MaxJobsPerDay: 6},
			},
			req:         req,
			expected:    []uint{41, 42, 40},
			explanation: "same zone, crew under daily capacity (1/6 jobs)",
		},
		"InactiveAndFullExcluded": {
			crews: []scheduling.CrewCandidate{
				{CrewID: 50, ZoneID: zone(1), Active: false, MaxJobsPerDay: 6},
				{CrewID: 51, ZoneID: zone(1), Active: true, JobsToday: 6, MaxJobsPerDay: 6},
				{CrewID: 52, ZoneID: zone(2), Active: true, JobsToday: 5, MaxJobsPerDay: 6},
			},
			req:         req,
			expected:    []uint{52},
			explanation: "15 min travel from crew zone, crew under daily capacity (5/6 jobs)",
		},
		"HourCapExcludes": {
			crews: []scheduling.CrewCandidate{
				{CrewID: 60, ZoneID: zone(1), Active: true, MinutesToday: 7*60 + 30, MaxHoursPerDay: 8},
				{CrewID: 61, ZoneID: zone(2), Active: true, MinutesToday: 60, MaxHoursPerDay: 8},
			},
			req:         req,
			expected:    []uint{61},
			explanation: "15 min travel from crew zone, crew under daily capacity",
		},
		"SpecializationRequired": {
			crews: []scheduling.CrewCandidate{
				{CrewID: 70, ZoneID: zone(1), Active: true, Specializations: []string{"plumbing"}},
				{CrewID: 71, ZoneID: zone(2), Active: true, Specializations: []string{"HVAC", "electrical"}},
			},
			req:         scheduling.AssignmentRequest{ZoneID: 1, DurationMinutes: 60, Specialization: "hvac"},
			expected:    []uint{71},
			explanation: "15 min travel from crew zone, crew under daily capacity",
		},
		"NobodyEligible": {
			crews: []scheduling.CrewCandidate{
				{CrewID: 80, ZoneID: zone(1), Active: false},
			},
			req:         req,
			expected:    []uint{},
			explanation: "no eligible crews: all inactive, at daily capacity or missing the required specialization",
		},
		"NoCrews": {
			req:         req,
			expected:    []uint{},
			explanation: "no crews available",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := scheduling.RankCrews(tc.req, tc.crews, travel)
			assert.Equal(t, tc.expected, crewIDs(s))
			assert.Equal(t, tc.explanation, s.Explanation)
		})
	}
}

func TestRankCrews_ScoreDecreasesWithTravel(t *testing.T) {
	travel := scheduling.TravelTimes{}
	var crews []scheduling.CrewCandidate
	for i, minutes := range []int{5, 10, 20, 40, 80} {
		from := uint(100 + i)
		travel[scheduling.ZonePair{From: from, To: 1}] = minutes
		crews = append(crews, scheduling.CrewCandidate{CrewID: uint(i + 1), ZoneID: zone(from), Active: true})
	}

	s := scheduling.RankCrews(scheduling.AssignmentRequest{ZoneID: 1, DurationMinutes: 60}, crews, travel)
	require.Len(t, s.Ranked, 5)
	for i := 1; i < len(s.Ranked); i++ {
		assert.Greater(t, s.Ranked[i-1].Score, s.Ranked[i].Score)
		assert.Greater(t, s.Ranked[i].Score, 0.0)
	}
}

func TestTravelTimes_Lookup(t *testing.T) {
	tt := scheduling.TravelTimes{{From: 1, To: 2}: 20, {From: 2, To: 1}: 25, {From: 3, To: 4}: 10}

	m, ok := tt.Lookup(1, 2)
	assert.True(t, ok)
	assert.Equal(t, 20, m)

	m, ok = tt.Lookup(2, 1)
	assert.True(t, ok)
	assert.Equal(t, 25, m)

	m, ok = tt.Lookup(4, 3)
	assert.True(t, ok, "reverse edge used when only one direction is known")
	assert.Equal(t, 10, m)

	_, ok = tt.Lookup(1, 4)
	assert.False(t, ok)

	m, ok = tt.Lookup(7, 7)
	assert.True(t, ok)
	assert.Equal(t, 0, m)
}
