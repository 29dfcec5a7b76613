package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"field-service-server/middleware"
	"field-service-server/models"
	"field-service-server/services"
)

// SetupHandler serves the admin routes that maintain a tenant's scheduling setup
type SetupHandler struct {
	setup *services.SetupService
}

// NewSetupHandler creates a setup handler
func NewSetupHandler(setup *services.SetupService) *SetupHandler {
	return &SetupHandler{setup: setup}
}

// RegisterSetupRoutes registers the admin setup routes
func (h *SetupHandler) RegisterSetupRoutes(router *gin.RouterGroup) {
	router.GET("/scheduling-config", h.getSchedulingConfig)
	router.PUT("/scheduling-config", h.saveSchedulingConfig)

	router.GET("/zones", h.listZones)
	router.POST("/zones", h.createZone)
	router.PUT("/travel-times", h.setTravelTime)

	router.GET("/crews", h.listCrews)
	router.POST("/crews", h.createCrew)

	router.GET("/jobs", h.listJobs)
	router.POST("/jobs", h.createJob)
}

func (h *SetupHandler) getSchedulingConfig(c *gin.Context) {
	cfg, err := h.setup.GetSchedulingConfig(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cfg})
}

// saveSchedulingConfig replaces the tenant's configuration and business hours
func (h *SetupHandler) saveSchedulingConfig(c *gin.Context) {
	var body models.SchedulingConfigUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	cfg, err := h.setup.SaveSchedulingConfig(c.Request.Context(), middleware.TenantID(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Scheduling configuration saved", "data": cfg})
}

func (h *SetupHandler) listZones(c *gin.Context) {
	zones, err := h.setup.ListZones(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": zones})
}

func (h *SetupHandler) createZone(c *gin.Context) {
	var body models.ZoneCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	zone, err := h.setup.CreateZone(c.Request.Context(), middleware.TenantID(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Zone created", "data": zone})
}

func (h *SetupHandler) setTravelTime(c *gin.Context) {
	var body models.TravelTimeInput
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	edge, err := h.setup.SetTravelTime(c.Request.Context(), middleware.TenantID(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Travel time saved", "data": edge})
}

func (h *SetupHandler) listCrews(c *gin.Context) {
	crews, err := h.setup.ListCrews(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": crews})
}

func (h *SetupHandler) createCrew(c *gin.Context) {
	var body models.CrewCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	crew, err := h.setup.CreateCrew(c.Request.Context(), middleware.TenantID(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Crew created", "data": crew})
}

// listJobs returns the dispatched jobs on ?date=
func (h *SetupHandler) listJobs(c *gin.Context) {
	date, ok := queryDate(c)
	if !ok {
		return
	}
	jobs, err := h.setup.ListJobs(c.Request.Context(), middleware.TenantID(c), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": jobs})
}

func (h *SetupHandler) createJob(c *gin.Context) {
	var body models.JobCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	job, err := h.setup.CreateJob(c.Request.Context(), middleware.TenantID(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Job created", "data": job})
}
