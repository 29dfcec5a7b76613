package services_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"field-service-server/models"
	"field-service-server/scheduling"
	"field-service-server/services"
)

// memoryStore is an in-memory stand-in for every collaborator.
type memoryStore struct {
	dayMu sync.Mutex // held for the whole of InDay
	mu    sync.Mutex

	configs  map[uint]*models.SchedulingConfig
	jobs     map[string][]scheduling.Commitment // "tenant|date"
	crews    map[uint][]scheduling.CrewCandidate
	zones    map[uint][]models.Zone
	travel   map[uint]scheduling.TravelTimes
	requests map[uint]*models.BookingRequest
	history  []models.BookingStatusEvent
	nextID   uint

	crewRows []models.Crew
	jobRows  []models.Job
	nextRow  uint

	// beforeSave runs inside SaveTransition before the status check.
	beforeSave func(req *models.BookingRequest)
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		configs:  make(map[uint]*models.SchedulingConfig),
		jobs:     make(map[string][]scheduling.Commitment),
		crews:    make(map[uint][]scheduling.CrewCandidate),
		zones:    make(map[uint][]models.Zone),
		travel:   make(map[uint]scheduling.TravelTimes),
		requests: make(map[uint]*models.BookingRequest),
	}
}

func dayKey(tenantID uint, day string) string { return fmt.Sprintf("%d|%s", tenantID, day) }

func (m *memoryStore) addJob(tenantID uint, day, start string, minutes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := dayKey(tenantID, day)
	m.jobs[k] = append(m.jobs[k], scheduling.Commitment{Start: scheduling.MustParseTimeOfDay(start), DurationMinutes: minutes})
}

func (m *memoryStore) request(id uint) models.BookingRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.requests[id]
}

func (m *memoryStore) SchedulingConfig(_ context.Context, tenantID uint) (*models.SchedulingConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[tenantID]
	if !ok {
		return nil, services.ErrNotConfigured
	}
	return cfg, nil
}

func (m *memoryStore) Commitments(_ context.Context, tenantID uint, date time.Time) ([]scheduling.Commitment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commitmentsLocked(tenantID, date.Format(scheduling.DateLayout)), nil
}

func (m *memoryStore) commitmentsLocked(tenantID uint, day string) []scheduling.Commitment {
	out := append([]scheduling.Commitment(nil), m.jobs[dayKey(tenantID, day)]...)
	for _, r := range m.requests {
		if r.TenantID != tenantID || r.ConfirmedDate == nil || *r.ConfirmedDate != day {
			continue
		}
		if r.Status != scheduling.StatusConfirmed && r.Status != scheduling.StatusCompleted {
			continue
		}
		if c, ok := r.Commitment(); ok {
			out = append(out, c)
		}
	}
	return out
}

func (m *memoryStore) CrewCandidates(_ context.Context, tenantID uint, _ time.Time) ([]scheduling.CrewCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.crews[tenantID], nil
}

func (m *memoryStore) TravelTimes(_ context.Context, tenantID uint) (scheduling.TravelTimes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.travel[tenantID], nil
}

func (m *memoryStore) Zones(_ context.Context, tenantID uint) ([]models.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zones[tenantID], nil
}

func (m *memoryStore) FindBookingRequest(_ context.Context, tenantID, id uint) (*models.BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.TenantID != tenantID {
		return nil, services.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memoryStore) FindByIdempotencyKey(_ context.Context, tenantID uint, key string) (*models.BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.TenantID == tenantID && r.IdempotencyKey != nil && *r.IdempotencyKey == key {
			cp := *r
			return &cp, nil
		}
	}
	return nil, services.ErrNotFound
}

func (m *memoryStore) ListBookingRequests(_ context.Context, tenantID uint, filter services.BookingFilter) ([]models.BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.BookingRequest{}
	for id := m.nextID; id > 0; id-- {
		r, ok := m.requests[id]
		if !ok || r.TenantID != tenantID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		if filter.Date != "" && r.RequestedDate != filter.Date {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memoryStore) ListOpenRequestsBefore(_ context.Context, date string) ([]models.BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BookingRequest
	for id := uint(1); id <= m.nextID; id++ {
		r, ok := m.requests[id]
		if ok && r.Status.Editable() && r.RequestedDate < date {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memoryStore) UpdateDetails(_ context.Context, req *models.BookingRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.requests[req.ID]
	if !ok || cur.TenantID != req.TenantID {
		return services.ErrNotFound
	}
	if !cur.Status.Editable() {
		return services.ErrNotEditable
	}
	cp := *req
	cp.Status = cur.Status
	m.requests[req.ID] = &cp
	return nil
}

func (m *memoryStore) StatusHistory(_ context.Context, tenantID, id uint) ([]models.BookingStatusEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BookingStatusEvent
	for _, e := range m.history {
		if e.TenantID == tenantID && e.BookingRequestID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) InDay(ctx context.Context, tenantID uint, date time.Time, fn func(ctx context.Context, tx services.DayTx) error) error {
	m.dayMu.Lock()
	defer m.dayMu.Unlock()
	return fn(ctx, &memoryDay{store: m, tenantID: tenantID, day: date.Format(scheduling.DateLayout)})
}

type memoryDay struct {
	store    *memoryStore
	tenantID uint
	day      string
}

func (d *memoryDay) Commitments(context.Context) ([]scheduling.Commitment, error) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	return d.store.commitmentsLocked(d.tenantID, d.day), nil
}

func (d *memoryDay) CreateBookingRequest(_ context.Context, req *models.BookingRequest) error {
	m := d.store
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	req.ID = m.nextID
	req.TenantID = d.tenantID
	cp := *req
	m.requests[req.ID] = &cp
	m.history = append(m.history, models.BookingStatusEvent{BookingRequestID: req.ID, TenantID: d.tenantID, ToStatus: req.Status})
	return nil
}

func (d *memoryDay) SaveTransition(_ context.Context, req *models.BookingRequest, from scheduling.BookingStatus, event *models.BookingStatusEvent) error {
	m := d.store
	if m.beforeSave != nil {
		m.beforeSave(req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.requests[req.ID]
	if !ok || cur.Status != from {
		return services.ErrConcurrentUpdate
	}
	cp := *req
	m.requests[req.ID] = &cp
	m.history = append(m.history, *event)
	return nil
}

func (m *memoryStore) SaveSchedulingConfig(_ context.Context, cfg *models.SchedulingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cfg
	m.configs[cfg.TenantID] = &cp
	return nil
}

func (m *memoryStore) CreateZone(_ context.Context, zone *models.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRow++
	zone.ID = 100 + m.nextRow
	m.zones[zone.TenantID] = append(m.zones[zone.TenantID], *zone)
	return nil
}

func (m *memoryStore) CreateCrew(_ context.Context, crew *models.Crew) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRow++
	crew.ID = 100 + m.nextRow
	m.crewRows = append(m.crewRows, *crew)
	return nil
}

func (m *memoryStore) Crews(_ context.Context, tenantID uint) ([]models.Crew, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Crew
	for _, c := range m.crewRows {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryStore) SaveTravelTime(_ context.Context, edge *models.ZoneTravelTime) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.travel[edge.TenantID] == nil {
		m.travel[edge.TenantID] = scheduling.TravelTimes{}
	}
	m.travel[edge.TenantID][scheduling.ZonePair{From: edge.FromZoneID, To: edge.ToZoneID}] = edge.Minutes
	return nil
}

func (m *memoryStore) CreateJob(_ context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRow++
	job.ID = 100 + m.nextRow
	m.jobRows = append(m.jobRows, *job)
	k := dayKey(job.TenantID, job.ScheduledDate)
	m.jobs[k] = append(m.jobs[k], scheduling.Commitment{
		Start:           scheduling.MustParseTimeOfDay(job.ScheduledTime),
		DurationMinutes: job.DurationMinutes,
	})
	return nil
}

func (m *memoryStore) Jobs(_ context.Context, tenantID uint, date string) ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Job
	for _, j := range m.jobRows {
		if j.TenantID == tenantID && j.ScheduledDate == date {
			out = append(out, j)
		}
	}
	return out, nil
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(tenantID uint, event string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fmt.Sprintf("%d:%s", tenantID, event))
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
