package routes

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"field-service-server/services"
)

// respondError maps a service error onto an HTTP response. Storage failures
// and anything unexpected are reported without detail.
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Reason, "code": "validation_failed"}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": "not_found"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "invalid_transition"})
	case errors.Is(err, services.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "slot_unavailable"})
	case errors.Is(err, services.ErrNotEditable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "not_editable"})
	case errors.Is(err, services.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "concurrent_update"})
	case errors.Is(err, services.ErrNotConfigured):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Scheduling is not configured for this tenant", "code": "scheduling_not_configured"})
	default:
		if !errors.Is(err, services.ErrStorage) {
			log.Printf("❌ Unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindError reports a malformed request body.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_body"})
}
