package models

import (
	"fmt"
	"time"

	"field-service-server/scheduling"
)

// SchedulingConfig is a tenant's booking setup. One row per tenant.
type SchedulingConfig struct {
	ID                     uint            `json:"id" gorm:"primaryKey"`
	TenantID               uint            `json:"tenant_id" gorm:"uniqueIndex;not null"`
	Timezone               string          `json:"timezone" gorm:"type:varchar(64);not null;default:'UTC'"`
	BufferMinutes          int             `json:"buffer_minutes" gorm:"not null;default:0"`
	DefaultDurationMinutes int             `json:"default_duration_minutes" gorm:"not null;default:60"`
	SlotGranularity        string          `json:"slot_granularity" gorm:"type:varchar(10);not null;default:'coarse';check:slot_granularity IN ('coarse','exact')"`
	CrewsPerDay            int             `json:"crews_per_day" gorm:"not null;default:0"`
	MaxJobsPerCrew         int             `json:"max_jobs_per_crew" gorm:"not null;default:0"`
	BookingWindowDays      int             `json:"booking_window_days" gorm:"not null;default:30"`
	MinNoticeHours         int             `json:"min_notice_hours" gorm:"not null;default:24"`
	BusinessHours          []BusinessHours `json:"business_hours" gorm:"foreignKey:SchedulingConfigID;constraint:OnDelete:CASCADE"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the SchedulingConfig model
func (SchedulingConfig) TableName() string {
	return "scheduling_configs"
}

// BusinessHours are the opening hours for one weekday (0 = Sunday).
type BusinessHours struct {
	ID                 uint   `json:"id" gorm:"primaryKey"`
	SchedulingConfigID uint   `json:"scheduling_config_id" gorm:"not null;uniqueIndex:idx_business_hours_day"`
	Weekday            int    `json:"weekday" gorm:"not null;uniqueIndex:idx_business_hours_day;check:weekday BETWEEN 0 AND 6"`
	OpenTime           string `json:"open_time" gorm:"type:varchar(5)"`  // "09:00"
	CloseTime          string `json:"close_time" gorm:"type:varchar(5)"` // "17:00"
	IsClosed           bool   `json:"is_closed" gorm:"default:false"`
}

// TableName specifies the table name for the BusinessHours model
func (BusinessHours) TableName() string {
	return "business_hours"
}

// Location resolves the tenant's timezone, falling back to UTC.
func (c *SchedulingConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Today returns the tenant's current calendar date for the instant now.
func (c *SchedulingConfig) Today(now time.Time) time.Time {
	return scheduling.CivilDate(now.In(c.Location()))
}

// HoursFor returns the opening hours for the weekday of date. A weekday with
// no row is closed.
func (c *SchedulingConfig) HoursFor(date time.Time) (scheduling.BusinessHours, error) {
	wd := int(date.Weekday())
	for _, bh := range c.BusinessHours {
		if bh.Weekday != wd {
			continue
		}
		if bh.IsClosed {
			return scheduling.BusinessHours{Closed: true}, nil
		}
		open, err := scheduling.ParseTimeOfDay(bh.OpenTime)
		if err != nil {
			return scheduling.BusinessHours{}, fmt.Errorf("business hours for weekday %d: %w", wd, err)
		}
		closing, err := scheduling.ParseTimeOfDay(bh.CloseTime)
		if err != nil {
			return scheduling.BusinessHours{}, fmt.Errorf("business hours for weekday %d: %w", wd, err)
		}
		return scheduling.BusinessHours{Open: open, Close: closing}, nil
	}
	return scheduling.BusinessHours{Closed: true}, nil
}

// SlotParams derives slot generation parameters.
func (c *SchedulingConfig) SlotParams() scheduling.SlotParams {
	return scheduling.SlotParams{
		BufferMinutes:   c.BufferMinutes,
		SlotInterval:    scheduling.SlotInterval(c.SlotGranularity),
		DefaultDuration: c.DefaultDurationMinutes,
	}
}

// TotalCapacity is the number of commitments the tenant's crews can take in a day.
func (c *SchedulingConfig) TotalCapacity() int {
	return scheduling.DailyCapacity(c.CrewsPerDay, c.MaxJobsPerCrew)
}

// WindowRules returns the public booking window rules.
func (c *SchedulingConfig) WindowRules() scheduling.WindowRules {
	return scheduling.WindowRules{
		MinNoticeHours:    c.MinNoticeHours,
		BookingWindowDays: c.BookingWindowDays,
	}
}
