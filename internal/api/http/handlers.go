// Package http contains the gin handlers for the syscall gateway.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aurora-os/nucleus/internal/api/middleware"
	"github.com/aurora-os/nucleus/internal/kernel"
	"github.com/aurora-os/nucleus/internal/logging"
	"github.com/aurora-os/nucleus/internal/monitoring"
	"github.com/aurora-os/nucleus/internal/service"
	"github.com/aurora-os/nucleus/internal/shared/types"
	"github.com/aurora-os/nucleus/internal/shared/utils"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	kernel   *kernel.Kernel
	registry *service.Registry
	metrics  *monitoring.Metrics
	logger   *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(k *kernel.Kernel, registry *service.Registry, metrics *monitoring.Metrics, logger *logging.Logger) *Handlers {
	return &Handlers{
		kernel:   k,
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "nucleus",
		"boot_id": h.kernel.BootID.String(),
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"boot_id":          h.kernel.BootID.String(),
		"uptime_seconds":   h.metrics.Uptime().Seconds(),
		"service_registry": h.registry.Stats(),
		"scheduler":        h.kernel.Scheduler.Stats(),
		"channels":         h.kernel.Channels.Stats(),
		"audit": gin.H{
			"entries": h.kernel.Audit.Len(),
			"total":   h.kernel.Audit.Total(),
		},
	})
}

// ListServices lists all registered syscall services
func (h *Handlers) ListServices(c *gin.Context) {
	categoryStr := c.Query("category")

	var category *types.Category
	if categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	services := h.registry.List(category)
	stats := h.registry.Stats()

	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"stats":    stats,
	})
}

// ExecuteService executes a syscall tool by dotted id
func (h *Handlers) ExecuteService(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxJSONSize)

	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateToolID(req.ToolID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rid := middleware.GetRequestID(c)
	procCtx := &types.Context{
		ProcessID: req.ProcessID,
	}
	if rid != "" {
		procCtx.RequestID = &rid
	}

	timer := monitoring.NewTimer(h.metrics, req.ToolID)
	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, procCtx)
	if err != nil {
		timer.Stop("error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if result.Success {
		timer.Stop("success")
	} else {
		timer.Stop("failure")
	}

	c.JSON(http.StatusOK, result)
}
