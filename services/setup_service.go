package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"field-service-server/models"
	"field-service-server/scheduling"
)

// AvailabilityInvalidator drops cached availability after setup changes.
type AvailabilityInvalidator interface {
	InvalidateAvailability(tenantID uint, dates ...string)
}

// SetupService manages the tenant data the booking engine reads: scheduling
// configuration, zones, crews, travel times and dispatched jobs.
type SetupService struct {
	store   SetupStore
	configs ConfigSource
	cache   AvailabilityInvalidator
}

// NewSetupService creates a setup service. cache may be nil.
func NewSetupService(store SetupStore, configs ConfigSource, cache AvailabilityInvalidator) *SetupService {
	return &SetupService{store: store, configs: configs, cache: cache}
}

func (s *SetupService) invalidate(tenantID uint, dates ...string) {
	if s.cache != nil {
		s.cache.InvalidateAvailability(tenantID, dates...)
	}
}

// GetSchedulingConfig returns the tenant's configuration or ErrNotConfigured.
func (s *SetupService) GetSchedulingConfig(ctx context.Context, tenantID uint) (*models.SchedulingConfig, error) {
	cfg, err := s.configs.SchedulingConfig(ctx, tenantID)
	if err != nil {
		return nil, storageFailure("load scheduling config", err)
	}
	return cfg, nil
}

// SaveSchedulingConfig validates and replaces the tenant's configuration,
// business hours included.
func (s *SetupService) SaveSchedulingConfig(ctx context.Context, tenantID uint, in models.SchedulingConfigUpdate) (*models.SchedulingConfig, error) {
	cfg, err := buildSchedulingConfig(tenantID, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveSchedulingConfig(ctx, cfg); err != nil {
		return nil, storageFailure("save scheduling config", err)
	}
	s.invalidate(tenantID)
	return cfg, nil
}

func buildSchedulingConfig(tenantID uint, in models.SchedulingConfigUpdate) (*models.SchedulingConfig, error) {
	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, invalid("timezone", "unknown timezone")
	}

	granularity := strings.TrimSpace(in.SlotGranularity)
	if granularity == "" {
		granularity = "coarse"
	}
	if granularity != "coarse" && granularity != "exact" {
		return nil, invalid("slot_granularity", "must be coarse or exact")
	}

	duration := in.DefaultDurationMinutes
	if duration == 0 {
		duration = 60
	}

	switch {
	case in.BufferMinutes < 0:
		return nil, invalid("buffer_minutes", "must not be negative")
	case duration < 0:
		return nil, invalid("default_duration_minutes", "must be positive")
	case in.CrewsPerDay < 0:
		return nil, invalid("crews_per_day", "must not be negative")
	case in.MaxJobsPerCrew < 0:
		return nil, invalid("max_jobs_per_crew", "must not be negative")
	case in.BookingWindowDays < 0:
		return nil, invalid("booking_window_days", "must not be negative")
	case in.MinNoticeHours < 0:
		return nil, invalid("min_notice_hours", "must not be negative")
	}

	cfg := &models.SchedulingConfig{
		TenantID:               tenantID,
		Timezone:               tz,
		BufferMinutes:          in.BufferMinutes,
		DefaultDurationMinutes: duration,
		SlotGranularity:        granularity,
		CrewsPerDay:            in.CrewsPerDay,
		MaxJobsPerCrew:         in.MaxJobsPerCrew,
		BookingWindowDays:      in.BookingWindowDays,
		MinNoticeHours:         in.MinNoticeHours,
	}

	seen := make(map[int]bool)
	for _, bh := range in.BusinessHours {
		if bh.Weekday < 0 || bh.Weekday > 6 {
			return nil, invalid("business_hours", "weekday must be between 0 and 6")
		}
		if seen[bh.Weekday] {
			return nil, invalid("business_hours", fmt.Sprintf("weekday %d is listed twice", bh.Weekday))
		}
		seen[bh.Weekday] = true

		row := models.BusinessHours{Weekday: bh.Weekday, IsClosed: bh.IsClosed}
		if !bh.IsClosed {
			open, err := scheduling.ParseTimeOfDay(bh.OpenTime)
			if err != nil {
				return nil, invalid("business_hours", fmt.Sprintf("weekday %d: open_time must be HH:MM", bh.Weekday))
			}
			closing, err := scheduling.ParseTimeOfDay(bh.CloseTime)
			if err != nil {
				return nil, invalid("business_hours", fmt.Sprintf("weekday %d: close_time must be HH:MM", bh.Weekday))
			}
			if closing <= open {
				return nil, invalid("business_hours", fmt.Sprintf("weekday %d: close_time must be after open_time", bh.Weekday))
			}
			row.OpenTime = open.String()
			row.CloseTime = closing.String()
		}
		cfg.BusinessHours = append(cfg.BusinessHours, row)
	}
	return cfg, nil
}

// CreateZone adds a zone. A postal code may belong to one zone only.
func (s *SetupService) CreateZone(ctx context.Context, tenantID uint, in models.ZoneCreate) (*models.Zone, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	existing, err := s.store.Zones(ctx, tenantID)
	if err != nil {
		return nil, storageFailure("load zones", err)
	}
	areas := make([]scheduling.ZoneArea, 0, len(existing))
	for _, z := range existing {
		areas = append(areas, z.Area())
	}

	codes := make([]string, 0, len(in.PostalCodes))
	seen := make(map[string]bool)
	for _, code := range in.PostalCodes {
		norm := scheduling.NormalizePostalCode(code)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		if owner, ok := scheduling.ResolveZone(norm, areas); ok {
			return nil, invalid("postal_codes", fmt.Sprintf("%s already belongs to zone %d", norm, owner))
		}
		codes = append(codes, norm)
	}

	zone := &models.Zone{
		TenantID:    tenantID,
		Name:        name,
		PostalCodes: strings.Join(codes, ","),
		Color:       strings.TrimSpace(in.Color),
	}
	if err := s.store.CreateZone(ctx, zone); err != nil {
		return nil, storageFailure("create zone", err)
	}
	return zone, nil
}

// ListZones returns the tenant's zones.
func (s *SetupService) ListZones(ctx context.Context, tenantID uint) ([]models.Zone, error) {
	zones, err := s.store.Zones(ctx, tenantID)
	if err != nil {
		return nil, storageFailure("load zones", err)
	}
	return zones, nil
}

func (s *SetupService) requireZone(ctx context.Context, tenantID, zoneID uint, field string) error {
	zones, err := s.store.Zones(ctx, tenantID)
	if err != nil {
		return storageFailure("load zones", err)
	}
	if !hasZone(zones, zoneID) {
		return invalid(field, "unknown zone")
	}
	return nil
}

// CreateCrew adds a crew, active with an 8 hour and 6 job daily cap unless
// told otherwise.
func (s *SetupService) CreateCrew(ctx context.Context, tenantID uint, in models.CrewCreate) (*models.Crew, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if in.ZoneID != nil {
		if err := s.requireZone(ctx, tenantID, *in.ZoneID, "zone_id"); err != nil {
			return nil, err
		}
	}

	crew := &models.Crew{
		TenantID:       tenantID,
		Name:           name,
		ZoneID:         in.ZoneID,
		MaxHoursPerDay: 8,
		MaxJobsPerDay:  6,
		IsActive:       true,
	}
	if in.MaxHoursPerDay != nil {
		if *in.MaxHoursPerDay < 0 || *in.MaxHoursPerDay > 24 {
			return nil, invalid("max_hours_per_day", "must be between 0 and 24")
		}
		crew.MaxHoursPerDay = *in.MaxHoursPerDay
	}
	if in.MaxJobsPerDay != nil {
		if *in.MaxJobsPerDay < 0 {
			return nil, invalid("max_jobs_per_day", "must not be negative")
		}
		crew.MaxJobsPerDay = *in.MaxJobsPerDay
	}
	if in.IsActive != nil {
		crew.IsActive = *in.IsActive
	}

	tags := make([]string, 0, len(in.Specializations))
	for _, tag := range in.Specializations {
		if t := strings.TrimSpace(tag); t != "" {
			tags = append(tags, t)
		}
	}
	crew.Specializations = strings.Join(tags, ",")

	if err := s.store.CreateCrew(ctx, crew); err != nil {
		return nil, storageFailure("create crew", err)
	}
	return crew, nil
}

// ListCrews returns the tenant's crews.
func (s *SetupService) ListCrews(ctx context.Context, tenantID uint) ([]models.Crew, error) {
	crews, err := s.store.Crews(ctx, tenantID)
	if err != nil {
		return nil, storageFailure("load crews", err)
	}
	return crews, nil
}

// SetTravelTime records the minutes from one zone to another.
func (s *SetupService) SetTravelTime(ctx context.Context, tenantID uint, in models.TravelTimeInput) (*models.ZoneTravelTime, error) {
	if in.FromZoneID == in.ToZoneID {
		return nil, invalid("to_zone_id", "must differ from from_zone_id")
	}
	if in.Minutes < 0 {
		return nil, invalid("minutes", "must not be negative")
	}
	if err := s.requireZone(ctx, tenantID, in.FromZoneID, "from_zone_id"); err != nil {
		return nil, err
	}
	if err := s.requireZone(ctx, tenantID, in.ToZoneID, "to_zone_id"); err != nil {
		return nil, err
	}

	edge := &models.ZoneTravelTime{
		TenantID:   tenantID,
		FromZoneID: in.FromZoneID,
		ToZoneID:   in.ToZoneID,
		Minutes:    in.Minutes,
	}
	if err := s.store.SaveTravelTime(ctx, edge); err != nil {
		return nil, storageFailure("save travel time", err)
	}
	return edge, nil
}

// CreateJob records a dispatched job. It occupies capacity on its date from
// then on.
func (s *SetupService) CreateJob(ctx context.Context, tenantID uint, in models.JobCreate) (*models.Job, error) {
	date, err := parseDateField("scheduled_date", in.ScheduledDate)
	if err != nil {
		return nil, err
	}
	start, err := parseTimeField("scheduled_time", in.ScheduledTime)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, invalid("scheduled_time", "is required")
	}
	duration := in.DurationMinutes
	if duration < 0 {
		return nil, invalid("duration_minutes", "must be positive")
	}
	if duration == 0 {
		duration = 60
	}
	if in.CrewID != nil {
		crews, err := s.store.Crews(ctx, tenantID)
		if err != nil {
			return nil, storageFailure("load crews", err)
		}
		found := false
		for _, c := range crews {
			if c.ID == *in.CrewID {
				found = true
				break
			}
		}
		if !found {
			return nil, invalid("crew_id", "unknown crew")
		}
	}

	day := date.Format(scheduling.DateLayout)
	job := &models.Job{
		TenantID:        tenantID,
		CrewID:          in.CrewID,
		Title:           strings.TrimSpace(in.Title),
		ScheduledDate:   day,
		ScheduledTime:   start.String(),
		DurationMinutes: duration,
		Status:          models.JobStatusScheduled,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, storageFailure("create job", err)
	}
	s.invalidate(tenantID, day)
	return job, nil
}

// ListJobs returns the tenant's jobs on a YYYY-MM-DD date.
func (s *SetupService) ListJobs(ctx context.Context, tenantID uint, date string) ([]models.Job, error) {
	d, err := parseDateField("date", date)
	if err != nil {
		return nil, err
	}
	jobs, err := s.store.Jobs(ctx, tenantID, d.Format(scheduling.DateLayout))
	if err != nil {
		return nil, storageFailure("load jobs", err)
	}
	return jobs, nil
}
