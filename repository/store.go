// Package repository is the gorm-backed storage for the booking engine.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"field-service-server/models"
	"field-service-server/scheduling"
	"field-service-server/services"
)

// Store implements the booking service collaborators on top of gorm.
type Store struct {
	db    *gorm.DB
	locks *dayLocks
}

// NewStore creates a new gorm store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, locks: newDayLocks()}
}

var (
	_ services.ConfigSource     = (*Store)(nil)
	_ services.CommitmentSource = (*Store)(nil)
	_ services.CrewDirectory    = (*Store)(nil)
	_ services.BookingStore     = (*Store)(nil)
)

// occupyingStatuses are the booking statuses that hold a slot.
var occupyingStatuses = []scheduling.BookingStatus{scheduling.StatusConfirmed, scheduling.StatusCompleted}

// editableStatuses are the booking statuses staff may still edit.
var editableStatuses = []scheduling.BookingStatus{scheduling.StatusPending, scheduling.StatusWaitlisted}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error, what error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return what
	}
	return err
}

// SchedulingConfig loads a tenant's configuration with its business hours.
func (s *Store) SchedulingConfig(ctx context.Context, tenantID uint) (*models.SchedulingConfig, error) {
	var cfg models.SchedulingConfig
	err := s.db.WithContext(ctx).
		Preload("BusinessHours").
		Where("tenant_id = ?", tenantID).
		First(&cfg).Error
	if err != nil {
		return nil, notFound(err, services.ErrNotConfigured)
	}
	return &cfg, nil
}

// Commitments returns the tenant's occupied ranges on date.
func (s *Store) Commitments(ctx context.Context, tenantID uint, date time.Time) ([]scheduling.Commitment, error) {
	return commitmentsOn(s.db.WithContext(ctx), tenantID, date.Format(scheduling.DateLayout))
}

func commitmentsOn(db *gorm.DB, tenantID uint, day string) ([]scheduling.Commitment, error) {
	var jobs []models.Job
	if err := db.
		Where("tenant_id = ? AND scheduled_date = ? AND status <> ?", tenantID, day, string(models.JobStatusCancelled)).
		Find(&jobs).Error; err != nil {
		return nil, err
	}

	var bookings []models.BookingRequest
	if err := db.
		Where("tenant_id = ? AND confirmed_date = ? AND status IN ?", tenantID, day, occupyingStatuses).
		Find(&bookings).Error; err != nil {
		return nil, err
	}

	commitments := make([]scheduling.Commitment, 0, len(jobs)+len(bookings))
	for _, j := range jobs {
		start, err := scheduling.ParseTimeOfDay(j.ScheduledTime)
		if err != nil {
			log.Printf("⚠️ Job %d has unreadable scheduled time %q, skipping", j.ID, j.ScheduledTime)
			continue
		}
		commitments = append(commitments, scheduling.Commitment{Start: start, DurationMinutes: j.DurationMinutes})
	}
	for i := range bookings {
		if c, ok := bookings[i].Commitment(); ok {
			commitments = append(commitments, c)
		}
	}
	return commitments, nil
}

type crewLoad struct {
	CrewID  uint
	Jobs    int
	Minutes int
}

// CrewCandidates returns every crew of the tenant with its load on date.
func (s *Store) CrewCandidates(ctx context.Context, tenantID uint, date time.Time) ([]scheduling.CrewCandidate, error) {
	db := s.db.WithContext(ctx)
	day := date.Format(scheduling.DateLayout)

	var crews []models.Crew
	if err := db.Where("tenant_id = ?", tenantID).Order("id").Find(&crews).Error; err != nil {
		return nil, err
	}

	var jobLoads []crewLoad
	if err := db.Model(&models.Job{}).
		Select("crew_id, COUNT(*) AS jobs, COALESCE(SUM(duration_minutes), 0) AS minutes").
		Where("tenant_id = ? AND scheduled_date = ? AND status <> ? AND crew_id IS NOT NULL", tenantID, day, string(models.JobStatusCancelled)).
		Group("crew_id").
		Scan(&jobLoads).Error; err != nil {
		return nil, err
	}

	var bookingLoads []crewLoad
	if err := db.Model(&models.BookingRequest{}).
		Select("assigned_crew_id AS crew_id, COUNT(*) AS jobs, COALESCE(SUM(duration_minutes), 0) AS minutes").
		Where("tenant_id = ? AND confirmed_date = ? AND status IN ? AND assigned_crew_id IS NOT NULL", tenantID, day, occupyingStatuses).
		Group("assigned_crew_id").
		Scan(&bookingLoads).Error; err != nil {
		return nil, err
	}

	load := make(map[uint]crewLoad)
	for _, l := range append(jobLoads, bookingLoads...) {
		cur := load[l.CrewID]
		cur.Jobs += l.Jobs
		cur.Minutes += l.Minutes
		load[l.CrewID] = cur
	}

	out := make([]scheduling.CrewCandidate, 0, len(crews))
	for _, c := range crews {
		l := load[c.ID]
		out = append(out, scheduling.CrewCandidate{
			CrewID:          c.ID,
			Name:            c.Name,
			ZoneID:          c.ZoneID,
			Active:          c.IsActive,
			Specializations: c.SpecializationList(),
			JobsToday:       l.Jobs,
			MaxJobsPerDay:   c.MaxJobsPerDay,
			MinutesToday:    l.Minutes,
			MaxHoursPerDay:  c.MaxHoursPerDay,
		})
	}
	return out, nil
}

// TravelTimes returns the tenant's zone travel matrix.
func (s *Store) TravelTimes(ctx context.Context, tenantID uint) (scheduling.TravelTimes, error) {
	var rows []models.ZoneTravelTime
	if err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&rows).Error; err != nil {
		return nil, err
	}
	tt := make(scheduling.TravelTimes, len(rows))
	for _, r := range rows {
		tt[scheduling.ZonePair{From: r.FromZoneID, To: r.ToZoneID}] = r.Minutes
	}
	return tt, nil
}

// Zones returns the tenant's service zones.
func (s *Store) Zones(ctx context.Context, tenantID uint) ([]models.Zone, error) {
	var zones []models.Zone
	if err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("id").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

// FindBookingRequest loads a booking request owned by the tenant.
func (s *Store) FindBookingRequest(ctx context.Context, tenantID, id uint) (*models.BookingRequest, error) {
	var req models.BookingRequest
	if err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&req).Error; err != nil {
		return nil, notFound(err, fmt.Errorf("booking request %d: %w", id, services.ErrNotFound))
	}
	return &req, nil
}

// FindByIdempotencyKey loads the request created with key.
func (s *Store) FindByIdempotencyKey(ctx context.Context, tenantID uint, key string) (*models.BookingRequest, error) {
	var req models.BookingRequest
	if err := s.db.WithContext(ctx).Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).First(&req).Error; err != nil {
		return nil, notFound(err, services.ErrNotFound)
	}
	return &req, nil
}

// ListBookingRequests lists a tenant's requests, newest first.
func (s *Store) ListBookingRequests(ctx context.Context, tenantID uint, filter services.BookingFilter) ([]models.BookingRequest, error) {
	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("(requested_date = ? OR confirmed_date = ?)", filter.Date, filter.Date)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	reqs := []models.BookingRequest{}
	if err := q.Order("created_at DESC, id DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// ListOpenRequestsBefore lists pending and waitlisted requests of every
// tenant whose requested date is before date.
func (s *Store) ListOpenRequestsBefore(ctx context.Context, date string) ([]models.BookingRequest, error) {
	var reqs []models.BookingRequest
	err := s.db.WithContext(ctx).
		Where("status IN ? AND requested_date < ?", editableStatuses, date).
		Order("tenant_id, id").
		Find(&reqs).Error
	return reqs, err
}

// UpdateDetails saves staff edits while the request is still editable.
func (s *Store) UpdateDetails(ctx context.Context, req *models.BookingRequest) error {
	res := s.db.WithContext(ctx).Model(&models.BookingRequest{}).
		Where("id = ? AND tenant_id = ? AND status IN ?", req.ID, req.TenantID, editableStatuses).
		Updates(map[string]interface{}{
			"contact_name":     req.ContactName,
			"contact_email":    req.ContactEmail,
			"contact_phone":    req.ContactPhone,
			"address":          req.Address,
			"postal_code":      req.PostalCode,
			"requested_date":   req.RequestedDate,
			"requested_time":   req.RequestedTime,
			"duration_minutes": req.DurationMinutes,
			"assigned_zone_id": req.AssignedZoneID,
			"assigned_crew_id": req.AssignedCrewID,
			"notes":            req.Notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotEditable
	}
	return nil
}

// InDay serializes fn against other writers of the same tenant day: an
// in-process lock, a transaction and, on Postgres, a transaction-scoped
// advisory lock for writers in other processes.
func (s *Store) InDay(ctx context.Context, tenantID uint, date time.Time, fn func(ctx context.Context, tx services.DayTx) error) error {
	day := date.Format(scheduling.DateLayout)
	unlock := s.locks.lock(fmt.Sprintf("%d|%s", tenantID, day))
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			epochDay := int32(scheduling.CivilDate(date).Unix() / 86400)
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", int32(tenantID), epochDay).Error; err != nil {
				return err
			}
		}
		return fn(ctx, &dayTx{db: tx, tenantID: tenantID, day: day})
	})
}

type dayTx struct {
	db       *gorm.DB
	tenantID uint
	day      string
}

func (t *dayTx) Commitments(ctx context.Context) ([]scheduling.Commitment, error) {
	return commitmentsOn(t.db, t.tenantID, t.day)
}

func (t *dayTx) CreateBookingRequest(ctx context.Context, req *models.BookingRequest) error {
	req.TenantID = t.tenantID
	if err := t.db.Create(req).Error; err != nil {
		if isDuplicateKey(err) {
			return services.ErrDuplicateRequest
		}
		return err
	}
	return t.db.Create(&models.BookingStatusEvent{
		BookingRequestID: req.ID,
		TenantID:         req.TenantID,
		ToStatus:         req.Status,
	}).Error
}

func (t *dayTx) SaveTransition(ctx context.Context, req *models.BookingRequest, from scheduling.BookingStatus, event *models.BookingStatusEvent) error {
	now := time.Now()
	res := t.db.Model(&models.BookingRequest{}).
		Where("id = ? AND tenant_id = ? AND status = ?", req.ID, t.tenantID, from).
		Updates(map[string]interface{}{
			"status":            req.Status,
			"confirmed_date":    req.ConfirmedDate,
			"confirmed_time":    req.ConfirmedTime,
			"assigned_crew_id":  req.AssignedCrewID,
			"status_changed_at": req.StatusChangedAt,
			"updated_at":        now,
		})
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return fmt.Errorf("%w: crew already has a confirmed booking at that time", services.ErrSlotUnavailable)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrConcurrentUpdate
	}
	req.UpdatedAt = now
	return t.db.Create(event).Error
}

// StatusHistory returns a request's status events, oldest first.
func (s *Store) StatusHistory(ctx context.Context, tenantID, id uint) ([]models.BookingStatusEvent, error) {
	events := []models.BookingStatusEvent{}
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND booking_request_id = ?", tenantID, id).
		Order("id").
		Find(&events).Error
	return events, err
}
