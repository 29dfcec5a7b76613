package scheduling

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Scoring constants. Same-zone crews get sameZoneScore; a known travel edge
// of t minutes scores sameZoneScore / (1 + t/travelHalfLife), which is
// strictly positive, so any known edge beats a crew with no edge (score 0).
const (
	sameZoneScore  = 100.0
	travelHalfLife = 30.0
	unknownScore   = 0.0
)

// ZonePair is a directed edge between zones.
type ZonePair struct {
	From uint
	To   uint
}

// TravelTimes holds travel minutes per directed zone edge.
type TravelTimes map[ZonePair]int

// Lookup returns travel minutes from -> to. When only the reverse edge is
// known it is used as a symmetric fallback.
func (tt TravelTimes) Lookup(from, to uint) (int, bool) {
	if from == to {
		return 0, true
	}
	if m, ok := tt[ZonePair{From: from, To: to}]; ok {
		return m, true
	}
	if m, ok := tt[ZonePair{From: to, To: from}]; ok {
		return m, true
	}
	return 0, false
}

// CrewCandidate is a crew as loaded for one day, with its current load.
type CrewCandidate struct {
	CrewID          uint
	Name            string
	ZoneID          *uint
	Active          bool
	Specializations []string
	JobsToday       int
	MaxJobsPerDay   int
	MinutesToday    int
	MaxHoursPerDay  int
}

// AssignmentRequest describes the work a crew is being picked for.
type AssignmentRequest struct {
	ZoneID          uint
	Date            time.Time
	Time            TimeOfDay
	DurationMinutes int
	Specialization  string
}

// RankedCrew is one entry of a suggestion, best first.
type RankedCrew struct {
	CrewID        uint    `json:"crew_id"`
	Name          string  `json:"name"`
	Score         float64 `json:"score"`
	SameZone      bool    `json:"same_zone"`
	TravelMinutes *int    `json:"travel_minutes"`
	JobsToday     int     `json:"jobs_today"`
	MaxJobsPerDay int     `json:"max_jobs_per_day"`
}

// Suggestion is the scorer's output.
type Suggestion struct {
	Ranked      []RankedCrew `json:"ranked"`
	Explanation string       `json:"explanation"`
}

// Top returns the best crew, if any.
func (s Suggestion) Top() (RankedCrew, bool) {
	if len(s.Ranked) == 0 {
		return RankedCrew{}, false
	}
	return s.Ranked[0], true
}

// eligible reports whether a crew can take the work at all.
func (c CrewCandidate) eligible(req AssignmentRequest) bool {
	if !c.Active {
		return false
	}
	if c.MaxJobsPerDay > 0 && c.JobsToday >= c.MaxJobsPerDay {
		return false
	}
	if c.MaxHoursPerDay > 0 && c.MinutesToday+req.DurationMinutes > c.MaxHoursPerDay*60 {
		return false
	}
	if req.Specialization != "" && !hasTag(c.Specializations, req.Specialization) {
		return false
	}
	return true
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// RankCrews scores eligible crews for a request and orders them best first.
// Ineligible crews (inactive, at their daily job or hour cap, or missing a
// required specialization) are left out. Ties go to the crew with fewer jobs
// today, then to the lower crew id.
func RankCrews(req AssignmentRequest, crews []CrewCandidate, travel TravelTimes) Suggestion {
	ranked := make([]RankedCrew, 0, len(crews))
	for _, c := range crews {
		if !c.eligible(req) {
			continue
		}
		rc := RankedCrew{
			CrewID:        c.CrewID,
			Name:          c.Name,
			JobsToday:     c.JobsToday,
			MaxJobsPerDay: c.MaxJobsPerDay,
			Score:         unknownScore,
		}
		if c.ZoneID != nil {
			if *c.ZoneID == req.ZoneID {
				zero := 0
				rc.SameZone = true
				rc.TravelMinutes = &zero
				rc.Score = sameZoneScore
			} else if minutes, ok := travel.Lookup(*c.ZoneID, req.ZoneID); ok {
				if minutes < 0 {
					minutes = 0
				}
				m := minutes
				rc.TravelMinutes = &m
				rc.Score = sameZoneScore / (1 + float64(minutes)/travelHalfLife)
			}
		}
		ranked = append(ranked, rc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.JobsToday != b.JobsToday {
			return a.JobsToday < b.JobsToday
		}
		return a.CrewID < b.CrewID
	})

	return Suggestion{Ranked: ranked, Explanation: explain(ranked, len(crews))}
}

func explain(ranked []RankedCrew, considered int) string {
	if len(ranked) == 0 {
		if considered == 0 {
			return "no crews available"
		}
		return "no eligible crews: all inactive, at daily capacity or missing the required specialization"
	}

	top := ranked[0]
	var where string
	switch {
	case top.SameZone:
		where = "same zone"
	case top.TravelMinutes != nil:
		where = fmt.Sprintf("%d min travel from crew zone", *top.TravelMinutes)
	default:
		where = "no travel data for requested zone"
	}

	load := "crew under daily capacity"
	if top.MaxJobsPerDay > 0 {
		load = fmt.Sprintf("crew under daily capacity (%d/%d jobs)", top.JobsToday, top.MaxJobsPerDay)
	}
	return where + ", " + load
}
