package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"field-service-server/metrics"
	"field-service-server/models"
	"field-service-server/scheduling"
)

// Dispatch board event names.
const (
	EventBookingCreated       = "booking_request.created"
	EventBookingStatusChanged = "booking_request.status_changed"
)

const (
	defaultCacheTTL = 30 * time.Second
	staleNote       = "requested date passed"
)

// BookingService answers availability questions and moves booking requests
// through their lifecycle. It reads configuration, commitments and crews from
// its collaborators and never caches mutable booking state beyond the
// availability cache, which every write for a day invalidates.
type BookingService struct {
	configs     ConfigSource
	commitments CommitmentSource
	crews       CrewDirectory
	store       BookingStore
	events      EventPublisher
	cache       *availabilityCache
	now         func() time.Time
}

// Option configures a BookingService.
type Option func(*BookingService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *BookingService) { s.now = now }
}

// WithCacheTTL sets how long computed availability is reused. Zero disables
// the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *BookingService) { s.cache = newAvailabilityCache(ttl) }
}

// WithEvents sets where booking events are published.
func WithEvents(p EventPublisher) Option {
	return func(s *BookingService) {
		if p != nil {
			s.events = p
		}
	}
}

// NewBookingService creates a new booking service
func NewBookingService(configs ConfigSource, commitments CommitmentSource, crews CrewDirectory, store BookingStore, opts ...Option) *BookingService {
	s := &BookingService{
		configs:     configs,
		commitments: commitments,
		crews:       crews,
		store:       store,
		events:      nopPublisher{},
		cache:       newAvailabilityCache(defaultCacheTTL),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Availability is the open slots and capacity of one tenant day.
type Availability struct {
	Date     string              `json:"date"`
	Closed   bool                `json:"closed"`
	Slots    []scheduling.Slot   `json:"slots"`
	Capacity scheduling.Capacity `json:"capacity"`
}

func (s *BookingService) config(ctx context.Context, tenantID uint) (*models.SchedulingConfig, error) {
	cfg, err := s.configs.SchedulingConfig(ctx, tenantID)
	if err != nil {
		return nil, storageFailure("load scheduling config", err)
	}
	if cfg == nil {
		return nil, ErrNotConfigured
	}
	return cfg, nil
}

func parseDateField(field, value string) (time.Time, error) {
	d, err := scheduling.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, invalid(field, "expected a YYYY-MM-DD date")
	}
	return d, nil
}

func parseTimeField(field, value string) (*scheduling.TimeOfDay, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := scheduling.ParseTimeOfDay(value)
	if err != nil {
		return nil, invalid(field, "expected an HH:MM time")
	}
	return &t, nil
}

// GetAvailability returns the open slots and capacity for a tenant on date.
// A closed day has no slots; a full day has no slots and a full capacity.
func (s *BookingService) GetAvailability(ctx context.Context, tenantID uint, date time.Time) (*Availability, error) {
	date = scheduling.CivilDate(date)
	key := date.Format(scheduling.DateLayout)
	if cached, ok := s.cache.get(tenantID, key, s.now()); ok {
		metrics.AvailabilityLookups.WithLabelValues("hit").Inc()
		cached.Slots = append([]scheduling.Slot(nil), cached.Slots...)
		return &cached, nil
	}
	metrics.AvailabilityLookups.WithLabelValues("miss").Inc()
	start := time.Now()

	cfg, err := s.config(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	hours, err := cfg.HoursFor(date)
	if err != nil {
		return nil, storageFailure("read business hours", err)
	}
	commitments, err := s.commitments.Commitments(ctx, tenantID, date)
	if err != nil {
		return nil, storageFailure("load commitments", err)
	}

	avail := Availability{
		Date:     key,
		Closed:   hours.Closed,
		Capacity: scheduling.ComputeCapacity(cfg.TotalCapacity(), len(commitments)),
		Slots:    []scheduling.Slot{},
	}
	if avail.Capacity.Status != scheduling.CapacityFull {
		avail.Slots = scheduling.AvailableSlots(hours, commitments, cfg.SlotParams())
	}

	s.cache.put(tenantID, key, avail, s.now())
	metrics.SlotsOffered.Observe(float64(len(avail.Slots)))
	metrics.AvailabilityDuration.Observe(time.Since(start).Seconds())
	return &avail, nil
}

// InvalidateAvailability drops cached availability for the given dates, or
// for every date of the tenant when none are given.
func (s *BookingService) InvalidateAvailability(tenantID uint, dates ...string) {
	if len(dates) == 0 {
		s.cache.invalidateTenant(tenantID)
		return
	}
	s.cache.invalidate(tenantID, dates...)
}

// ValidateBookingWindow checks a date against the tenant's public booking
// window. It returns nil when the date is bookable and a *ValidationError
// naming the first failed rule otherwise.
func (s *BookingService) ValidateBookingWindow(ctx context.Context, tenantID uint, date time.Time) error {
	cfg, err := s.config(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.checkWindow(cfg, date)
}

func (s *BookingService) checkWindow(cfg *models.SchedulingConfig, date time.Time) error {
	err := scheduling.ValidateBookingWindow(date, cfg.Today(s.now()), cfg.WindowRules())
	var werr *scheduling.WindowError
	if errors.As(err, &werr) {
		return invalid("requested_date", werr.Reason)
	}
	return err
}

// SubmitInput is a booking submission with its origin.
type SubmitInput struct {
	models.BookingRequestCreate
	Source models.BookingSource
}

// SubmitBookingRequest validates and records a new booking request. Public
// submissions must fall inside the booking window; staff submissions skip
// that check. The request lands in waitlisted when the day is full and in
// pending otherwise. An exact-time request whose slot is taken is refused
// with ErrSlotUnavailable. A repeated idempotency key returns the request
// created the first time.
func (s *BookingService) SubmitBookingRequest(ctx context.Context, tenantID uint, in SubmitInput) (*models.BookingRequest, error) {
	req, err := s.submit(ctx, tenantID, in)
	outcome := "rejected"
	if err == nil {
		outcome = string(req.Status)
	}
	source := in.Source
	if source == "" {
		source = models.BookingSourcePublic
	}
	metrics.BookingSubmissions.WithLabelValues(string(source), outcome).Inc()
	return req, err
}

func (s *BookingService) submit(ctx context.Context, tenantID uint, in SubmitInput) (*models.BookingRequest, error) {
	cfg, err := s.config(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		existing, err := s.store.FindByIdempotencyKey(ctx, tenantID, key)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, storageFailure("find by idempotency key", err)
		}
	}

	req, date, err := s.buildRequest(ctx, tenantID, cfg, in)
	if err != nil {
		return nil, err
	}
	if key != "" {
		req.IdempotencyKey = &key
	}

	if in.Source != models.BookingSourceStaff {
		if err := s.checkWindow(cfg, date); err != nil {
			return nil, err
		}
	}

	hours, err := cfg.HoursFor(date)
	if err != nil {
		return nil, storageFailure("read business hours", err)
	}
	if hours.Closed {
		return nil, invalid("requested_date", "closed on the requested date")
	}

	var requestedTime *scheduling.TimeOfDay
	if req.RequestedTime != "" {
		t := scheduling.MustParseTimeOfDay(req.RequestedTime)
		requestedTime = &t
	}

	err = s.store.InDay(ctx, tenantID, date, func(ctx context.Context, tx DayTx) error {
		commitments, err := tx.Commitments(ctx)
		if err != nil {
			return err
		}
		capacity := scheduling.ComputeCapacity(cfg.TotalCapacity(), len(commitments))

		switch {
		case capacity.Status == scheduling.CapacityFull:
			req.Status = scheduling.StatusWaitlisted
		case requestedTime != nil && !scheduling.IsAvailable(hours, commitments, *requestedTime, req.DurationMinutes, cfg.BufferMinutes):
			if req.Flexibility == models.FlexibilityExact {
				return fmt.Errorf("%w: %s on %s is already taken", ErrSlotUnavailable, req.RequestedTime, req.RequestedDate)
			}
			req.Status = scheduling.StatusPending
		default:
			req.Status = scheduling.StatusPending
		}
		return tx.CreateBookingRequest(ctx, req)
	})
	if errors.Is(err, ErrDuplicateRequest) && key != "" {
		// Lost a race with the same key; hand back the winner.
		existing, ferr := s.store.FindByIdempotencyKey(ctx, tenantID, key)
		if ferr != nil {
			return nil, storageFailure("find by idempotency key", ferr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, storageFailure("create booking request", err)
	}

	s.cache.invalidate(tenantID, req.RequestedDate)
	s.events.Publish(tenantID, EventBookingCreated, req)
	log.Printf("📥 Booking request %s created for tenant %d (%s)", req.Reference, tenantID, req.Status)
	return req, nil
}

// buildRequest validates the submission fields and resolves zone and score.
func (s *BookingService) buildRequest(ctx context.Context, tenantID uint, cfg *models.SchedulingConfig, in SubmitInput) (*models.BookingRequest, time.Time, error) {
	name := strings.TrimSpace(in.ContactName)
	if name == "" {
		return nil, time.Time{}, invalid("contact_name", "is required")
	}
	email := strings.TrimSpace(in.ContactEmail)
	phone := strings.TrimSpace(in.ContactPhone)
	if email == "" && phone == "" {
		return nil, time.Time{}, invalid("contact", "an email or phone number is required")
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, time.Time{}, invalid("contact_email", "is not an email address")
	}

	date, err := parseDateField("requested_date", in.RequestedDate)
	if err != nil {
		return nil, time.Time{}, err
	}
	start, err := parseTimeField("requested_time", in.RequestedTime)
	if err != nil {
		return nil, time.Time{}, err
	}

	flex := models.Flexibility(strings.ToLower(strings.TrimSpace(in.Flexibility)))
	switch flex {
	case "":
		flex = models.FlexibilityFlexible
	case models.FlexibilityExact, models.FlexibilityFlexible:
	default:
		return nil, time.Time{}, invalid("flexibility", "must be exact or flexible")
	}
	if flex == models.FlexibilityExact && start == nil {
		return nil, time.Time{}, invalid("requested_time", "is required for an exact booking")
	}

	duration := in.DurationMinutes
	if duration < 0 {
		return nil, time.Time{}, invalid("duration_minutes", "must be positive")
	}
	if duration == 0 {
		duration = cfg.DefaultDurationMinutes
	}
	if duration <= 0 {
		duration = scheduling.SlotInterval(cfg.SlotGranularity)
	}

	source := in.Source
	if source == "" {
		source = models.BookingSourcePublic
	}

	req := &models.BookingRequest{
		TenantID:        tenantID,
		Source:          source,
		ContactName:     name,
		ContactEmail:    email,
		ContactPhone:    phone,
		Address:         strings.TrimSpace(in.Address),
		PostalCode:      strings.TrimSpace(in.PostalCode),
		RequestedDate:   date.Format(scheduling.DateLayout),
		Flexibility:     flex,
		DurationMinutes: duration,
		Notes:           strings.TrimSpace(in.Notes),
	}
	if start != nil {
		req.RequestedTime = start.String()
	}

	zones, err := s.crews.Zones(ctx, tenantID)
	if err != nil {
		return nil, time.Time{}, storageFailure("load zones", err)
	}
	switch {
	case in.ZoneID != nil:
		if !hasZone(zones, *in.ZoneID) {
			return nil, time.Time{}, invalid("zone_id", "unknown zone")
		}
		req.RequestedZoneID = in.ZoneID
	case req.PostalCode != "":
		areas := make([]scheduling.ZoneArea, 0, len(zones))
		for _, z := range zones {
			areas = append(areas, z.Area())
		}
		if id, ok := scheduling.ResolveZone(req.PostalCode, areas); ok {
			req.RequestedZoneID = &id
		}
	}

	candidates, err := s.crews.CrewCandidates(ctx, tenantID, date)
	if err != nil {
		return nil, time.Time{}, storageFailure("load crews", err)
	}
	if in.CrewID != nil {
		if !hasCrew(candidates, *in.CrewID) {
			return nil, time.Time{}, invalid("crew_id", "unknown crew")
		}
		req.RequestedCrewID = in.CrewID
	}

	if req.RequestedZoneID != nil {
		travel, err := s.crews.TravelTimes(ctx, tenantID)
		if err != nil {
			return nil, time.Time{}, storageFailure("load travel times", err)
		}
		ar := scheduling.AssignmentRequest{ZoneID: *req.RequestedZoneID, Date: date, DurationMinutes: duration}
		if start != nil {
			ar.Time = *start
		}
		suggestion := scheduling.RankCrews(ar, candidates, travel)
		if top, ok := suggestion.Top(); ok {
			req.Score = top.Score
		}
		req.ScoringExplanation = suggestion.Explanation
	}
	return req, date, nil
}

func hasZone(zones []models.Zone, id uint) bool {
	for _, z := range zones {
		if z.ID == id {
			return true
		}
	}
	return false
}

func hasCrew(crews []scheduling.CrewCandidate, id uint) bool {
	for _, c := range crews {
		if c.CrewID == id {
			return true
		}
	}
	return false
}

// TransitionInput is a staff status change.
type TransitionInput struct {
	Status         string
	ConfirmedDate  string
	ConfirmedTime  string
	AssignedCrewID *uint
	Notes          string
	Override       bool
	ActorID        *uint
}

// TransitionBookingRequest moves a booking request to a new status. Moves the
// lifecycle forbids fail with ErrInvalidTransition and leave the record as it
// was. Confirming persists the confirmed date and time (defaulting to the
// requested ones) and, unless Override is set, re-checks that the slot is
// still free and the day has capacity.
func (s *BookingService) TransitionBookingRequest(ctx context.Context, tenantID, id uint, in TransitionInput) (*models.BookingRequest, error) {
	req, err := s.transition(ctx, tenantID, id, in)
	if err != nil {
		metrics.TransitionRejections.WithLabelValues(rejectionReason(err)).Inc()
	}
	return req, err
}

func rejectionReason(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrConcurrentUpdate):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (s *BookingService) transition(ctx context.Context, tenantID, id uint, in TransitionInput) (*models.BookingRequest, error) {
	target, err := scheduling.ParseBookingStatus(in.Status)
	if err != nil {
		return nil, invalid("status", err.Error())
	}

	current, err := s.store.FindBookingRequest(ctx, tenantID, id)
	if err != nil {
		return nil, storageFailure("load booking request", err)
	}

	tr := scheduling.TransitionRequest{To: target}
	if target == scheduling.StatusConfirmed {
		dateValue := in.ConfirmedDate
		if strings.TrimSpace(dateValue) == "" {
			dateValue = current.RequestedDate
		}
		if tr.ConfirmedDate, err = parseDateField("confirmed_date", dateValue); err != nil {
			return nil, err
		}
		timeValue := in.ConfirmedTime
		if strings.TrimSpace(timeValue) == "" {
			timeValue = current.RequestedTime
		}
		if tr.ConfirmedTime, err = parseTimeField("confirmed_time", timeValue); err != nil {
			return nil, err
		}
	}

	confirmation, err := scheduling.Transition(current.Status, tr)
	if errors.Is(err, scheduling.ErrConfirmationDetails) {
		return nil, invalid("confirmed_time", "a confirmed date and time are required")
	}
	if err != nil {
		return nil, err
	}

	var cfg *models.SchedulingConfig
	lockDate := current.RequestedDate
	if current.ConfirmedDate != nil {
		// A confirmed booking occupies its confirmed date, not the requested one.
		lockDate = *current.ConfirmedDate
	}
	if confirmation != nil {
		if cfg, err = s.config(ctx, tenantID); err != nil {
			return nil, err
		}
		lockDate = confirmation.Date.Format(scheduling.DateLayout)
	}
	day, err := scheduling.ParseDate(lockDate)
	if err != nil {
		return nil, storageFailure("parse stored date", err)
	}

	from := current.Status
	next := *current
	next.Status = target
	now := s.now()
	next.StatusChangedAt = &now
	if confirmation != nil {
		d := confirmation.Date.Format(scheduling.DateLayout)
		t := confirmation.Time.String()
		next.ConfirmedDate = &d
		next.ConfirmedTime = &t
	}
	if in.AssignedCrewID != nil {
		crews, err := s.crews.CrewCandidates(ctx, tenantID, day)
		if err != nil {
			return nil, storageFailure("load crews", err)
		}
		if !hasCrew(crews, *in.AssignedCrewID) {
			return nil, invalid("assigned_crew_id", "unknown crew")
		}
		next.AssignedCrewID = in.AssignedCrewID
	}

	err = s.store.InDay(ctx, tenantID, day, func(ctx context.Context, tx DayTx) error {
		if confirmation != nil && !in.Override {
			if err := s.checkConfirmable(ctx, tx, cfg, confirmation, next.DurationMinutes); err != nil {
				return err
			}
		}
		event := &models.BookingStatusEvent{
			BookingRequestID: next.ID,
			TenantID:         tenantID,
			FromStatus:       from,
			ToStatus:         target,
			ActorID:          in.ActorID,
			Note:             strings.TrimSpace(in.Notes),
		}
		return tx.SaveTransition(ctx, &next, from, event)
	})
	if err != nil {
		return nil, storageFailure("save transition", err)
	}

	touched := []string{current.RequestedDate, lockDate}
	if current.ConfirmedDate != nil {
		touched = append(touched, *current.ConfirmedDate)
	}
	s.cache.invalidate(tenantID, touched...)
	metrics.BookingTransitions.WithLabelValues(string(from), string(target)).Inc()
	s.events.Publish(tenantID, EventBookingStatusChanged, &next)
	log.Printf("🔄 Booking request %d for tenant %d moved %s -> %s", next.ID, tenantID, from, target)
	return &next, nil
}

// checkConfirmable refuses a confirmation whose day is full or whose slot
// overlaps a commitment made since the request was submitted.
func (s *BookingService) checkConfirmable(ctx context.Context, tx DayTx, cfg *models.SchedulingConfig, c *scheduling.Confirmation, duration int) error {
	hours, err := cfg.HoursFor(c.Date)
	if err != nil {
		return err
	}
	if hours.Closed {
		return fmt.Errorf("%w: closed on %s", ErrSlotUnavailable, c.Date.Format(scheduling.DateLayout))
	}
	commitments, err := tx.Commitments(ctx)
	if err != nil {
		return err
	}
	if scheduling.ComputeCapacity(cfg.TotalCapacity(), len(commitments)).Status == scheduling.CapacityFull {
		return fmt.Errorf("%w: daily capacity reached on %s", ErrSlotUnavailable, c.Date.Format(scheduling.DateLayout))
	}
	if !scheduling.IsAvailable(hours, commitments, c.Time, duration, cfg.BufferMinutes) {
		return fmt.Errorf("%w: %s on %s conflicts with an existing commitment", ErrSlotUnavailable, c.Time, c.Date.Format(scheduling.DateLayout))
	}
	return nil
}

// UpdateBookingRequest applies staff edits to a pending or waitlisted request.
// Requests in any other status fail with ErrNotEditable. Status is never
// changed here.
func (s *BookingService) UpdateBookingRequest(ctx context.Context, tenantID, id uint, upd models.BookingRequestUpdate) (*models.BookingRequest, error) {
	req, err := s.store.FindBookingRequest(ctx, tenantID, id)
	if err != nil {
		return nil, storageFailure("load booking request", err)
	}
	if !req.Status.Editable() {
		return nil, ErrNotEditable
	}
	oldDate := req.RequestedDate

	if upd.ContactName != nil {
		name := strings.TrimSpace(*upd.ContactName)
		if name == "" {
			return nil, invalid("contact_name", "is required")
		}
		req.ContactName = name
	}
	if upd.ContactEmail != nil {
		req.ContactEmail = strings.TrimSpace(*upd.ContactEmail)
	}
	if upd.ContactPhone != nil {
		req.ContactPhone = strings.TrimSpace(*upd.ContactPhone)
	}
	if req.ContactEmail == "" && req.ContactPhone == "" {
		return nil, invalid("contact", "an email or phone number is required")
	}
	if upd.Address != nil {
		req.Address = strings.TrimSpace(*upd.Address)
	}
	if upd.PostalCode != nil {
		req.PostalCode = strings.TrimSpace(*upd.PostalCode)
	}
	if upd.RequestedDate != nil {
		d, err := parseDateField("requested_date", *upd.RequestedDate)
		if err != nil {
			return nil, err
		}
		req.RequestedDate = d.Format(scheduling.DateLayout)
	}
	if upd.RequestedTime != nil {
		t, err := parseTimeField("requested_time", *upd.RequestedTime)
		if err != nil {
			return nil, err
		}
		req.RequestedTime = ""
		if t != nil {
			req.RequestedTime = t.String()
		}
	}
	if upd.DurationMinutes != nil {
		if *upd.DurationMinutes <= 0 {
			return nil, invalid("duration_minutes", "must be positive")
		}
		req.DurationMinutes = *upd.DurationMinutes
	}
	if upd.AssignedZoneID != nil {
		zones, err := s.crews.Zones(ctx, tenantID)
		if err != nil {
			return nil, storageFailure("load zones", err)
		}
		if !hasZone(zones, *upd.AssignedZoneID) {
			return nil, invalid("assigned_zone_id", "unknown zone")
		}
		req.AssignedZoneID = upd.AssignedZoneID
	}
	if upd.AssignedCrewID != nil {
		day, _ := scheduling.ParseDate(req.RequestedDate)
		crews, err := s.crews.CrewCandidates(ctx, tenantID, day)
		if err != nil {
			return nil, storageFailure("load crews", err)
		}
		if !hasCrew(crews, *upd.AssignedCrewID) {
			return nil, invalid("assigned_crew_id", "unknown crew")
		}
		req.AssignedCrewID = upd.AssignedCrewID
	}
	if upd.Notes != nil {
		req.Notes = strings.TrimSpace(*upd.Notes)
	}

	if err := s.store.UpdateDetails(ctx, req); err != nil {
		return nil, storageFailure("update booking request", err)
	}
	s.cache.invalidate(tenantID, oldDate, req.RequestedDate)
	return req, nil
}

// GetBookingRequest loads one of the tenant's booking requests.
func (s *BookingService) GetBookingRequest(ctx context.Context, tenantID, id uint) (*models.BookingRequest, error) {
	req, err := s.store.FindBookingRequest(ctx, tenantID, id)
	if err != nil {
		return nil, storageFailure("load booking request", err)
	}
	return req, nil
}

// BookingRequestHistory returns the status changes of one of the tenant's
// booking requests, oldest first.
func (s *BookingService) BookingRequestHistory(ctx context.Context, tenantID, id uint) ([]models.BookingStatusEvent, error) {
	if _, err := s.store.FindBookingRequest(ctx, tenantID, id); err != nil {
		return nil, storageFailure("load booking request", err)
	}
	events, err := s.store.StatusHistory(ctx, tenantID, id)
	if err != nil {
		return nil, storageFailure("load status history", err)
	}
	return events, nil
}

// ListBookingRequests lists the tenant's booking requests, newest first.
func (s *BookingService) ListBookingRequests(ctx context.Context, tenantID uint, filter BookingFilter) ([]models.BookingRequest, error) {
	if filter.Date != "" {
		d, err := parseDateField("date", filter.Date)
		if err != nil {
			return nil, err
		}
		filter.Date = d.Format(scheduling.DateLayout)
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	reqs, err := s.store.ListBookingRequests(ctx, tenantID, filter)
	if err != nil {
		return nil, storageFailure("list booking requests", err)
	}
	return reqs, nil
}

// SuggestInput describes the work a crew suggestion is for.
type SuggestInput struct {
	ZoneID          uint
	Date            time.Time
	Time            *scheduling.TimeOfDay
	DurationMinutes int
	Specialization  string
}

// SuggestCrewAssignment ranks the tenant's crews for work in a zone on a date.
// The result is advisory; nothing is assigned.
func (s *BookingService) SuggestCrewAssignment(ctx context.Context, tenantID uint, in SuggestInput) (*scheduling.Suggestion, error) {
	zones, err := s.crews.Zones(ctx, tenantID)
	if err != nil {
		return nil, storageFailure("load zones", err)
	}
	if !hasZone(zones, in.ZoneID) {
		return nil, fmt.Errorf("zone %d: %w", in.ZoneID, ErrNotFound)
	}

	duration := in.DurationMinutes
	if duration <= 0 {
		cfg, err := s.config(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		duration = cfg.DefaultDurationMinutes
	}

	date := scheduling.CivilDate(in.Date)
	crews, err := s.crews.CrewCandidates(ctx, tenantID, date)
	if err != nil {
		return nil, storageFailure("load crews", err)
	}
	travel, err := s.crews.TravelTimes(ctx, tenantID)
	if err != nil {
		return nil, storageFailure("load travel times", err)
	}

	req := scheduling.AssignmentRequest{
		ZoneID:          in.ZoneID,
		Date:            date,
		DurationMinutes: duration,
		Specialization:  strings.TrimSpace(in.Specialization),
	}
	if in.Time != nil {
		req.Time = *in.Time
	}
	suggestion := scheduling.RankCrews(req, crews, travel)
	if _, ok := suggestion.Top(); ok {
		metrics.CrewSuggestions.WithLabelValues("ranked").Inc()
	} else {
		metrics.CrewSuggestions.WithLabelValues("none_eligible").Inc()
	}
	return &suggestion, nil
}

// DeclineStaleRequests declines pending and waitlisted requests whose
// requested date is already past in their tenant's timezone. It returns how
// many were declined.
func (s *BookingService) DeclineStaleRequests(ctx context.Context) (int, error) {
	// Tenants east of UTC may already be a day ahead.
	horizon := scheduling.CivilDate(s.now().UTC()).AddDate(0, 0, 1)
	open, err := s.store.ListOpenRequestsBefore(ctx, horizon.Format(scheduling.DateLayout))
	if err != nil {
		return 0, storageFailure("list open requests", err)
	}

	todays := make(map[uint]string)
	declined := 0
	for _, req := range open {
		today, ok := todays[req.TenantID]
		if !ok {
			cfg, err := s.config(ctx, req.TenantID)
			if err != nil {
				log.Printf("⚠️ Skipping stale requests for tenant %d: %v", req.TenantID, err)
				todays[req.TenantID] = ""
				continue
			}
			today = cfg.Today(s.now()).Format(scheduling.DateLayout)
			todays[req.TenantID] = today
		}
		if today == "" || req.RequestedDate >= today {
			continue
		}

		_, err := s.TransitionBookingRequest(ctx, req.TenantID, req.ID, TransitionInput{
			Status: string(scheduling.StatusDeclined),
			Notes:  staleNote,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrConcurrentUpdate) {
				continue
			}
			return declined, err
		}
		declined++
		metrics.StaleDeclined.Inc()
	}
	return declined, nil
}
