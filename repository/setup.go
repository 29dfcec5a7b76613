package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"field-service-server/models"
	"field-service-server/services"
)

var _ services.SetupStore = (*Store)(nil)

// SaveSchedulingConfig creates or replaces the tenant's configuration and
// its business hours. Columns are written from a map so zero values such as
// a zero minimum notice survive the model defaults.
func (s *Store) SaveSchedulingConfig(ctx context.Context, cfg *models.SchedulingConfig) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.SchedulingConfig
		err := tx.Where("tenant_id = ?", cfg.TenantID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = models.SchedulingConfig{TenantID: cfg.TenantID}
			if err := tx.Omit(clause.Associations).Create(&existing).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.SchedulingConfig{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
			"timezone":                 cfg.Timezone,
			"buffer_minutes":           cfg.BufferMinutes,
			"default_duration_minutes": cfg.DefaultDurationMinutes,
			"slot_granularity":         cfg.SlotGranularity,
			"crews_per_day":            cfg.CrewsPerDay,
			"max_jobs_per_crew":        cfg.MaxJobsPerCrew,
			"booking_window_days":      cfg.BookingWindowDays,
			"min_notice_hours":         cfg.MinNoticeHours,
			"updated_at":               now,
		}).Error; err != nil {
			return err
		}

		if err := tx.Where("scheduling_config_id = ?", existing.ID).Delete(&models.BusinessHours{}).Error; err != nil {
			return err
		}
		for i := range cfg.BusinessHours {
			cfg.BusinessHours[i].ID = 0
			cfg.BusinessHours[i].SchedulingConfigID = existing.ID
		}
		if len(cfg.BusinessHours) > 0 {
			if err := tx.Create(&cfg.BusinessHours).Error; err != nil {
				return err
			}
		}

		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
		cfg.UpdatedAt = now
		return nil
	})
}

// CreateZone inserts a zone.
func (s *Store) CreateZone(ctx context.Context, zone *models.Zone) error {
	return s.db.WithContext(ctx).Create(zone).Error
}

// CreateCrew inserts a crew, keeping explicit zero caps and an inactive flag
// that the column defaults would otherwise replace.
func (s *Store) CreateCrew(ctx context.Context, crew *models.Crew) error {
	active, hours, jobs := crew.IsActive, crew.MaxHoursPerDay, crew.MaxJobsPerDay
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(crew).Error; err != nil {
			return err
		}
		if active && hours != 0 && jobs != 0 {
			return nil
		}
		if err := tx.Model(&models.Crew{}).Where("id = ?", crew.ID).Updates(map[string]interface{}{
			"is_active":         active,
			"max_hours_per_day": hours,
			"max_jobs_per_day":  jobs,
		}).Error; err != nil {
			return err
		}
		crew.IsActive, crew.MaxHoursPerDay, crew.MaxJobsPerDay = active, hours, jobs
		return nil
	})
}

// Crews returns the tenant's crews with their home zone.
func (s *Store) Crews(ctx context.Context, tenantID uint) ([]models.Crew, error) {
	crews := []models.Crew{}
	err := s.db.WithContext(ctx).Preload("Zone").Where("tenant_id = ?", tenantID).Order("id").Find(&crews).Error
	return crews, err
}

// SaveTravelTime inserts or updates a directed travel edge.
func (s *Store) SaveTravelTime(ctx context.Context, edge *models.ZoneTravelTime) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "from_zone_id"}, {Name: "to_zone_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"minutes"}),
	}).Create(edge).Error
}

// CreateJob inserts a dispatched job.
func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	return s.db.WithContext(ctx).Create(job).Error
}

// Jobs returns the tenant's jobs on date, earliest first.
func (s *Store) Jobs(ctx context.Context, tenantID uint, date string) ([]models.Job, error) {
	jobs := []models.Job{}
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND scheduled_date = ?", tenantID, date).
		Order("scheduled_time, id").
		Find(&jobs).Error
	return jobs, err
}
