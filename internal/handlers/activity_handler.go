package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"grindsheet/internal/pagination"
	"grindsheet/internal/services"
)

// ActivityHandler lists a user's account activity.
type ActivityHandler struct {
	auditService services.AuditServicer
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(auditService services.AuditServicer) *ActivityHandler {
	return &ActivityHandler{auditService: auditService}
}

// ListActivity returns the user's audit trail, newest first
// @Summary     List account activity
// @Tags        activity
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page (max 100)"
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Activity page"
// @Failure     400 {object} ErrorResponse "Invalid paging"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Invalid token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /activity [get]
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	email, err := getUserEmail(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.auditService.List(c.Request.Context(), email, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HealthResponse reports process liveness.
type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
	Version   string  `json:"version"`
}

// HealthHandler answers liveness probes.
type HealthHandler struct {
	version string
	started time.Time
	now     func() time.Time
}

// NewHealthHandler creates a HealthHandler whose uptime counts from now.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, started: time.Now(), now: time.Now}
}

// Health reports status, current time, uptime in seconds and version
// @Summary     Health check
// @Tags        health
// @Produce     json
// @Success     200 {object} HealthResponse "Service is up"
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Uptime:    now.Sub(h.started).Seconds(),
		Version:   h.version,
	})
}
