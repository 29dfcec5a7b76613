package models

// SchedulingConfigUpdate replaces a tenant's scheduling configuration.
type SchedulingConfigUpdate struct {
	Timezone               string               `json:"timezone"`
	BufferMinutes          int                  `json:"buffer_minutes"`
	DefaultDurationMinutes int                  `json:"default_duration_minutes"`
	SlotGranularity        string               `json:"slot_granularity"`
	CrewsPerDay            int                  `json:"crews_per_day"`
	MaxJobsPerCrew         int                  `json:"max_jobs_per_crew"`
	BookingWindowDays      int                  `json:"booking_window_days"`
	MinNoticeHours         int                  `json:"min_notice_hours"`
	BusinessHours          []BusinessHoursInput `json:"business_hours"`
}

// BusinessHoursInput is one weekday of opening hours (0 = Sunday).
type BusinessHoursInput struct {
	Weekday   int    `json:"weekday"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	IsClosed  bool   `json:"is_closed"`
}

// ZoneCreate is the body of a new zone.
type ZoneCreate struct {
	Name        string   `json:"name" binding:"required"`
	PostalCodes []string `json:"postal_codes"`
	Color       string   `json:"color"`
}

// CrewCreate is the body of a new crew. Nil limits take the defaults.
type CrewCreate struct {
	Name            string   `json:"name" binding:"required"`
	ZoneID          *uint    `json:"zone_id"`
	Specializations []string `json:"specializations"`
	MaxHoursPerDay  *int     `json:"max_hours_per_day"`
	MaxJobsPerDay   *int     `json:"max_jobs_per_day"`
	IsActive        *bool    `json:"is_active"`
}

// TravelTimeInput sets the travel minutes of one directed zone edge.
type TravelTimeInput struct {
	FromZoneID uint `json:"from_zone_id" binding:"required"`
	ToZoneID   uint `json:"to_zone_id" binding:"required"`
	Minutes    int  `json:"minutes"`
}

// JobCreate records a dispatched job that occupies crew time.
type JobCreate struct {
	CrewID          *uint  `json:"crew_id"`
	Title           string `json:"title"`
	ScheduledDate   string `json:"scheduled_date" binding:"required"`
	ScheduledTime   string `json:"scheduled_time" binding:"required"`
	DurationMinutes int    `json:"duration_minutes"`
}
