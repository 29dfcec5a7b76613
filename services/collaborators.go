package services

import (
	"context"
	"time"

	"field-service-server/models"
	"field-service-server/scheduling"
)

// ConfigSource supplies tenant scheduling configuration. It returns
// ErrNotConfigured when the tenant has none.
type ConfigSource interface {
	SchedulingConfig(ctx context.Context, tenantID uint) (*models.SchedulingConfig, error)
}

// CommitmentSource supplies the occupied ranges for a tenant's day, merging
// dispatched jobs and confirmed bookings.
type CommitmentSource interface {
	Commitments(ctx context.Context, tenantID uint, date time.Time) ([]scheduling.Commitment, error)
}

// CrewDirectory supplies crews, zones and travel times.
type CrewDirectory interface {
	CrewCandidates(ctx context.Context, tenantID uint, date time.Time) ([]scheduling.CrewCandidate, error)
	TravelTimes(ctx context.Context, tenantID uint) (scheduling.TravelTimes, error)
	Zones(ctx context.Context, tenantID uint) ([]models.Zone, error)
}

// BookingFilter narrows a booking request listing.
type BookingFilter struct {
	Status *scheduling.BookingStatus
	Date   string // YYYY-MM-DD, empty for any
	Limit  int
}

// BookingStore persists booking requests. Lookups for another tenant's
// record return ErrNotFound.
type BookingStore interface {
	FindBookingRequest(ctx context.Context, tenantID, id uint) (*models.BookingRequest, error)
	FindByIdempotencyKey(ctx context.Context, tenantID uint, key string) (*models.BookingRequest, error)
	ListBookingRequests(ctx context.Context, tenantID uint, filter BookingFilter) ([]models.BookingRequest, error)
	ListOpenRequestsBefore(ctx context.Context, date string) ([]models.BookingRequest, error)
	UpdateDetails(ctx context.Context, req *models.BookingRequest) error
	StatusHistory(ctx context.Context, tenantID, id uint) ([]models.BookingStatusEvent, error)

	// InDay runs fn in a transaction serialized against every other InDay
	// call for the same tenant and date.
	InDay(ctx context.Context, tenantID uint, date time.Time, fn func(ctx context.Context, tx DayTx) error) error
}

// DayTx is the view of one tenant-day inside InDay.
type DayTx interface {
	Commitments(ctx context.Context) ([]scheduling.Commitment, error)
	CreateBookingRequest(ctx context.Context, req *models.BookingRequest) error

	// SaveTransition writes req only if its stored status is still from,
	// and appends event. It returns ErrConcurrentUpdate when the status moved.
	SaveTransition(ctx context.Context, req *models.BookingRequest, from scheduling.BookingStatus, event *models.BookingStatusEvent) error
}

// EventPublisher pushes booking events to connected staff boards.
type EventPublisher interface {
	Publish(tenantID uint, event string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(uint, string, any) {}

// SetupStore persists a tenant's scheduling setup: configuration, zones,
// crews, travel times and dispatched jobs.
type SetupStore interface {
	SaveSchedulingConfig(ctx context.Context, cfg *models.SchedulingConfig) error
	CreateZone(ctx context.Context, zone *models.Zone) error
	Zones(ctx context.Context, tenantID uint) ([]models.Zone, error)
	CreateCrew(ctx context.Context, crew *models.Crew) error
	Crews(ctx context.Context, tenantID uint) ([]models.Crew, error)
	SaveTravelTime(ctx context.Context, edge *models.ZoneTravelTime) error
	CreateJob(ctx context.Context, job *models.Job) error
	Jobs(ctx context.Context, tenantID uint, date string) ([]models.Job, error)
}
