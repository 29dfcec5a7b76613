package routes

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"field-service-server/middleware"
	"field-service-server/models"
	"field-service-server/scheduling"
	"field-service-server/services"
)

// BookingHandler serves the public booking page and the staff booking tools.
type BookingHandler struct {
	bookings *services.BookingService
}

// NewBookingHandler creates a booking handler
func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// RegisterPublicBookingRoutes registers the unauthenticated booking page
// routes under /public/tenants/:tenant_id
func (h *BookingHandler) RegisterPublicBookingRoutes(router *gin.RouterGroup) {
	router.GET("/availability", h.getPublicAvailability)
	router.GET("/booking-window", h.checkBookingWindow)
	router.POST("/booking-requests", h.submitPublicBookingRequest)
}

// RegisterStaffBookingRoutes registers the booking routes for authenticated staff
func (h *BookingHandler) RegisterStaffBookingRoutes(router *gin.RouterGroup) {
	router.GET("/availability", h.getStaffAvailability)
	router.GET("/crew-suggestions", h.suggestCrew)

	bookings := router.Group("/booking-requests")
	{
		bookings.GET("", h.listBookingRequests)
		bookings.POST("", h.createStaffBookingRequest)
		bookings.GET("/:id", h.getBookingRequest)
		bookings.PATCH("/:id", h.updateBookingRequest)
		bookings.POST("/:id/transition", h.transitionBookingRequest)
		bookings.GET("/:id/history", h.getBookingRequestHistory)
	}
}

// publicTenantID reads the tenant from the path of a public route
func publicTenantID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("tenant_id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant ID", "code": "validation_failed", "field": "tenant_id"})
		return 0, false
	}
	return uint(id), true
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking request ID", "code": "validation_failed", "field": "id"})
		return 0, false
	}
	return uint(id), true
}

// queryDate parses the ?date= parameter
func queryDate(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.Query("date"))
	d, err := scheduling.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be a YYYY-MM-DD date", "code": "validation_failed", "field": "date"})
		return "", false
	}
	return d.Format(scheduling.DateLayout), true
}

func (h *BookingHandler) availability(c *gin.Context, tenantID uint) {
	date, ok := queryDate(c)
	if !ok {
		return
	}
	day, _ := scheduling.ParseDate(date)

	avail, err := h.bookings.GetAvailability(c.Request.Context(), tenantID, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": avail})
}

// getPublicAvailability returns open start times for a tenant's day
func (h *BookingHandler) getPublicAvailability(c *gin.Context) {
	tenantID, ok := publicTenantID(c)
	if !ok {
		return
	}
	h.availability(c, tenantID)
}

func (h *BookingHandler) getStaffAvailability(c *gin.Context) {
	h.availability(c, middleware.TenantID(c))
}

// checkBookingWindow tells the booking page whether a date can be requested
func (h *BookingHandler) checkBookingWindow(c *gin.Context) {
	tenantID, ok := publicTenantID(c)
	if !ok {
		return
	}
	date, ok := queryDate(c)
	if !ok {
		return
	}
	day, _ := scheduling.ParseDate(date)

	err := h.bookings.ValidateBookingWindow(c.Request.Context(), tenantID, day)
	var ve *services.ValidationError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"date": date, "bookable": true}})
	case errors.As(err, &ve):
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"date": date, "bookable": false, "reason": ve.Reason}})
	default:
		respondError(c, err)
	}
}

// submitPublicBookingRequest records a request from the public booking page.
// Only the reference and outcome are returned to the customer.
func (h *BookingHandler) submitPublicBookingRequest(c *gin.Context) {
	tenantID, ok := publicTenantID(c)
	if !ok {
		return
	}

	var body models.BookingRequestCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	// Crews are picked by staff, never by the public form.
	body.CrewID = nil

	req, err := h.bookings.SubmitBookingRequest(c.Request.Context(), tenantID, services.SubmitInput{
		BookingRequestCreate: body,
		Source:               models.BookingSourcePublic,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking request received",
		"data": gin.H{
			"reference":      req.Reference,
			"status":         req.Status,
			"requested_date": req.RequestedDate,
			"requested_time": req.RequestedTime,
		},
	})
}

func (h *BookingHandler) createStaffBookingRequest(c *gin.Context) {
	var body models.BookingRequestCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	req, err := h.bookings.SubmitBookingRequest(c.Request.Context(), middleware.TenantID(c), services.SubmitInput{
		BookingRequestCreate: body,
		Source:               models.BookingSourceStaff,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Booking request created", "data": req})
}

// listBookingRequests lists the tenant's requests, optionally by status and date
func (h *BookingHandler) listBookingRequests(c *gin.Context) {
	var filter services.BookingFilter

	if raw := c.Query("status"); raw != "" {
		status, err := scheduling.ParseBookingStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status", "code": "validation_failed", "field": "status"})
			return
		}
		filter.Status = &status
	}
	if c.Query("date") != "" {
		date, ok := queryDate(c)
		if !ok {
			return
		}
		filter.Date = date
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number", "code": "validation_failed", "field": "limit"})
			return
		}
		filter.Limit = limit
	}

	reqs, err := h.bookings.ListBookingRequests(c.Request.Context(), middleware.TenantID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reqs, "count": len(reqs)})
}

func (h *BookingHandler) getBookingRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req, err := h.bookings.GetBookingRequest(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": req})
}

// updateBookingRequest edits a request that is still pending or waitlisted
func (h *BookingHandler) updateBookingRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body models.BookingRequestUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	req, err := h.bookings.UpdateBookingRequest(c.Request.Context(), middleware.TenantID(c), id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking request updated", "data": req})
}

// transitionBookingRequest applies a status change
func (h *BookingHandler) transitionBookingRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body models.BookingTransitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	req, err := h.bookings.TransitionBookingRequest(c.Request.Context(), middleware.TenantID(c), id, services.TransitionInput{
		Status:         body.Status,
		ConfirmedDate:  body.ConfirmedDate,
		ConfirmedTime:  body.ConfirmedTime,
		AssignedCrewID: body.AssignedCrewID,
		Notes:          body.Notes,
		Override:       body.Override,
		ActorID:        middleware.UserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking request " + string(req.Status), "data": req})
}

func (h *BookingHandler) getBookingRequestHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	events, err := h.bookings.BookingRequestHistory(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

// suggestCrew ranks crews for work in a zone. Nothing is assigned.
func (h *BookingHandler) suggestCrew(c *gin.Context) {
	zoneID, err := strconv.ParseUint(c.Query("zone_id"), 10, 32)
	if err != nil || zoneID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "zone_id is required", "code": "validation_failed", "field": "zone_id"})
		return
	}
	date, ok := queryDate(c)
	if !ok {
		return
	}
	day, _ := scheduling.ParseDate(date)

	in := services.SuggestInput{
		ZoneID:         uint(zoneID),
		Date:           day,
		Specialization: c.Query("specialization"),
	}
	if raw := c.Query("time"); raw != "" {
		t, err := scheduling.ParseTimeOfDay(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "time must be an HH:MM time", "code": "validation_failed", "field": "time"})
			return
		}
		in.Time = &t
	}
	if raw := c.Query("duration"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be a positive number of minutes", "code": "validation_failed", "field": "duration"})
			return
		}
		in.DurationMinutes = minutes
	}

	suggestion, err := h.bookings.SuggestCrewAssignment(c.Request.Context(), middleware.TenantID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": suggestion})
}
