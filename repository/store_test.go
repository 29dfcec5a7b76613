package repository

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"field-service-server/config"
	"field-service-server/database"
	"field-service-server/models"
	"field-service-server/scheduling"
	"field-service-server/services"
)

const tenant uint = 4

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.DatabaseConfig{URL: "sqlite:file:" + name + "?mode=memory&cache=shared"}, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func strPtr(s string) *string { return &s }
func uintPtr(v uint) *uint    { return &v }

func day(s string) time.Time {
	d, err := scheduling.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func createRequest(t *testing.T, store *Store, req *models.BookingRequest) {
	t.Helper()
	err := store.InDay(context.Background(), tenant, day(req.RequestedDate), func(ctx context.Context, tx services.DayTx) error {
		return tx.CreateBookingRequest(ctx, req)
	})
	require.NoError(t, err)
}

func TestSchedulingConfigRoundTrip(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	_, err := store.SchedulingConfig(ctx, tenant)
	assert.ErrorIs(t, err, services.ErrNotConfigured)

	require.NoError(t, store.SaveSchedulingConfig(ctx, &models.SchedulingConfig{
		TenantID:               tenant,
		Timezone:               "UTC",
		DefaultDurationMinutes: 90,
		SlotGranularity:        "exact",
		CrewsPerDay:            3,
		MaxJobsPerCrew:         2,
		BookingWindowDays:      0,
		MinNoticeHours:         0,
		BusinessHours: []models.BusinessHours{
			{Weekday: 1, OpenTime: "09:00", CloseTime: "17:00"},
			{Weekday: 2, OpenTime: "09:00", CloseTime: "12:00"},
		},
	}))

	cfg, err := store.SchedulingConfig(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MinNoticeHours, "zero notice must not fall back to the column default")
	assert.Equal(t, 0, cfg.BookingWindowDays)
	assert.Equal(t, 6, cfg.TotalCapacity())
	assert.Len(t, cfg.BusinessHours, 2)

	// Saving again replaces the hours instead of adding to them.
	require.NoError(t, store.SaveSchedulingConfig(ctx, &models.SchedulingConfig{
		TenantID:               tenant,
		Timezone:               "Europe/Paris",
		DefaultDurationMinutes: 60,
		SlotGranularity:        "coarse",
		MinNoticeHours:         12,
		BusinessHours:          []models.BusinessHours{{Weekday: 3, IsClosed: true}},
	}))
	cfg, err = store.SchedulingConfig(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", cfg.Timezone)
	assert.Equal(t, 12, cfg.MinNoticeHours)
	require.Len(t, cfg.BusinessHours, 1)
	assert.Equal(t, 3, cfg.BusinessHours[0].Weekday)
}

func TestCommitmentsMergeJobsAndConfirmedBookings(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, &models.Job{TenantID: tenant, ScheduledDate: "2025-05-06", ScheduledTime: "08:00", DurationMinutes: 60, Status: models.JobStatusScheduled}))
	require.NoError(t, store.CreateJob(ctx, &models.Job{TenantID: tenant, ScheduledDate: "2025-05-06", ScheduledTime: "10:00", DurationMinutes: 60, Status: models.JobStatusCancelled}))
	require.NoError(t, store.CreateJob(ctx, &models.Job{TenantID: tenant + 1, ScheduledDate: "2025-05-06", ScheduledTime: "11:00", DurationMinutes: 60, Status: models.JobStatusScheduled}))

	pending := &models.BookingRequest{ContactName: "P", RequestedDate: "2025-05-06", RequestedTime: "13:00", DurationMinutes: 60, Status: scheduling.StatusPending}
	createRequest(t, store, pending)
	confirmed := &models.BookingRequest{
		ContactName: "C", RequestedDate: "2025-05-06", DurationMinutes: 45, Status: scheduling.StatusConfirmed,
		ConfirmedDate: strPtr("2025-05-06"), ConfirmedTime: strPtr("14:00"),
	}
	createRequest(t, store, confirmed)

	commitments, err := store.Commitments(ctx, tenant, day("2025-05-06"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []scheduling.Commitment{
		{Start: scheduling.Clock(8, 0), DurationMinutes: 60},
		{Start: scheduling.Clock(14, 0), DurationMinutes: 45},
	}, commitments)
}

func TestCreateBookingRequestIdempotencyKey(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	first := &models.BookingRequest{ContactName: "A", RequestedDate: "2025-05-06", DurationMinutes: 60, Status: scheduling.StatusPending, IdempotencyKey: strPtr("abc")}
	createRequest(t, store, first)
	assert.NotEmpty(t, first.Reference)

	second := &models.BookingRequest{ContactName: "A", RequestedDate: "2025-05-06", DurationMinutes: 60, Status: scheduling.StatusPending, IdempotencyKey: strPtr("abc")}
	err := store.InDay(ctx, tenant, day("2025-05-06"), func(ctx context.Context, tx services.DayTx) error {
		return tx.CreateBookingRequest(ctx, second)
	})
	assert.ErrorIs(t, err, services.ErrDuplicateRequest)

	found, err := store.FindByIdempotencyKey(ctx, tenant, "abc")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	history, err := store.StatusHistory(ctx, tenant, first.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, scheduling.StatusPending, history[0].ToStatus)
}

func TestSaveTransitionCompareAndSwap(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	req := &models.BookingRequest{ContactName: "A", RequestedDate: "2025-05-06", DurationMinutes: 60, Status: scheduling.StatusPending}
	createRequest(t, store, req)

	save := func(from scheduling.BookingStatus, to scheduling.BookingStatus) error {
		next := *req
		next.Status = to
		return store.InDay(ctx, tenant, day("2025-05-06"), func(ctx context.Context, tx services.DayTx) error {
			return tx.SaveTransition(ctx, &next, from, &models.BookingStatusEvent{BookingRequestID: req.ID, TenantID: tenant, FromStatus: from, ToStatus: to})
		})
	}

	require.NoError(t, save(scheduling.StatusPending, scheduling.StatusDeclined))
	assert.ErrorIs(t, save(scheduling.StatusPending, scheduling.StatusCancelled), services.ErrConcurrentUpdate)

	stored, err := store.FindBookingRequest(ctx, tenant, req.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduling.StatusDeclined, stored.Status)

	history, err := store.StatusHistory(ctx, tenant, req.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSaveTransitionRejectsCrewDoubleBooking(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	a := &models.BookingRequest{ContactName: "A", RequestedDate: "2025-05-06", DurationMinutes: 60, Status: scheduling.StatusPending}
	b := &models.BookingRequest{ContactName: "B", RequestedDate: "2025-05-06", DurationMinutes: 60, Status: scheduling.StatusPending}
	createRequest(t, store, a)
	createRequest(t, store, b)

	confirm := func(req *models.BookingRequest) error {
		next := *req
		next.Status = scheduling.StatusConfirmed
		next.ConfirmedDate = strPtr("2025-05-06")
		next.ConfirmedTime = strPtr("09:00")
		next.AssignedCrewID = uintPtr(3)
		return store.InDay(ctx, tenant, day("2025-05-06"), func(ctx context.Context, tx services.DayTx) error {
			return tx.SaveTransition(ctx, &next, scheduling.StatusPending, &models.BookingStatusEvent{BookingRequestID: req.ID, TenantID: tenant, ToStatus: scheduling.StatusConfirmed})
		})
	}

	require.NoError(t, confirm(a))
	assert.ErrorIs(t, confirm(b), services.ErrSlotUnavailable)
}

func TestUpdateDetailsOnlyWhileEditable(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	req := &models.BookingRequest{ContactName: "A", RequestedDate: "2025-05-06", DurationMinutes: 60, Status: scheduling.StatusPending}
	createRequest(t, store, req)

	req.ContactName = "Ada"
	req.Notes = ""
	require.NoError(t, store.UpdateDetails(ctx, req))
	stored, err := store.FindBookingRequest(ctx, tenant, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.ContactName)

	done := &models.BookingRequest{ContactName: "B", RequestedDate: "2025-05-06", DurationMinutes: 60, Status: scheduling.StatusCompleted}
	createRequest(t, store, done)
	assert.ErrorIs(t, store.UpdateDetails(ctx, done), services.ErrNotEditable)

	_, err = store.FindBookingRequest(ctx, tenant+1, req.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCrewCandidatesCarryDailyLoad(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	zone := &models.Zone{TenantID: tenant, Name: "North", PostalCodes: "10115"}
	require.NoError(t, store.CreateZone(ctx, zone))
	busy := &models.Crew{TenantID: tenant, Name: "Busy", ZoneID: &zone.ID, MaxHoursPerDay: 8, MaxJobsPerDay: 4, IsActive: true}
	idle := &models.Crew{TenantID: tenant, Name: "Idle", MaxHoursPerDay: 0, MaxJobsPerDay: 4, IsActive: false, Specializations: "hvac, plumbing"}
	require.NoError(t, store.CreateCrew(ctx, busy))
	require.NoError(t, store.CreateCrew(ctx, idle))

	require.NoError(t, store.CreateJob(ctx, &models.Job{TenantID: tenant, CrewID: &busy.ID, ScheduledDate: "2025-05-06", ScheduledTime: "08:00", DurationMinutes: 90, Status: models.JobStatusScheduled}))
	booked := &models.BookingRequest{
		ContactName: "C", RequestedDate: "2025-05-06", DurationMinutes: 30, Status: scheduling.StatusConfirmed,
		ConfirmedDate: strPtr("2025-05-06"), ConfirmedTime: strPtr("13:00"), AssignedCrewID: &busy.ID,
	}
	createRequest(t, store, booked)

	candidates, err := store.CrewCandidates(ctx, tenant, day("2025-05-06"))
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "Busy", candidates[0].Name)
	assert.Equal(t, 2, candidates[0].JobsToday)
	assert.Equal(t, 120, candidates[0].MinutesToday)
	assert.True(t, candidates[0].Active)

	assert.False(t, candidates[1].Active, "inactive flag must survive the column default")
	assert.Equal(t, 0, candidates[1].MaxHoursPerDay)
	assert.Equal(t, []string{"hvac", "plumbing"}, candidates[1].Specializations)
	assert.Zero(t, candidates[1].JobsToday)

	require.NoError(t, store.SaveTravelTime(ctx, &models.ZoneTravelTime{TenantID: tenant, FromZoneID: 1, ToZoneID: 2, Minutes: 20}))
	require.NoError(t, store.SaveTravelTime(ctx, &models.ZoneTravelTime{TenantID: tenant, FromZoneID: 1, ToZoneID: 2, Minutes: 35}))
	travel, err := store.TravelTimes(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, scheduling.TravelTimes{{From: 1, To: 2}: 35}, travel)
}

func TestListOpenRequestsBefore(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	old := &models.BookingRequest{ContactName: "Old", RequestedDate: "2025-05-01", DurationMinutes: 60, Status: scheduling.StatusWaitlisted}
	closed := &models.BookingRequest{ContactName: "Closed", RequestedDate: "2025-05-01", DurationMinutes: 60, Status: scheduling.StatusDeclined}
	future := &models.BookingRequest{ContactName: "Future", RequestedDate: "2025-05-09", DurationMinutes: 60, Status: scheduling.StatusPending}
	for _, r := range []*models.BookingRequest{old, closed, future} {
		createRequest(t, store, r)
	}

	open, err := store.ListOpenRequestsBefore(ctx, "2025-05-06")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, old.ID, open[0].ID)

	status := scheduling.StatusPending
	listed, err := store.ListBookingRequests(ctx, tenant, services.BookingFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, future.ID, listed[0].ID)
}

func TestInDaySerializesWriters(t *testing.T) {
	store := NewStore(openTestDB(t))

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.InDay(context.Background(), tenant, day("2025-05-06"), func(ctx context.Context, tx services.DayTx) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, store.locks.size())
}
