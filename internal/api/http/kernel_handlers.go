package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aurora-os/nucleus/internal/kernel/capability"
	"github.com/aurora-os/nucleus/internal/kernel/ipc"
	"github.com/aurora-os/nucleus/internal/kernel/sched"
)

// GrantCapability issues a token to a process
func (h *Handlers) GrantCapability(c *gin.Context) {
	var req struct {
		ProcessID   uint32   `json:"process_id"`
		Permissions []string `json:"permissions" binding:"required"`
		ExpiresAt   int64    `json:"expires_at"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	var bitmap uint64
	for _, name := range req.Permissions {
		perm, ok := capability.ParsePermission(name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Unknown permission: " + name,
			})
			return
		}
		bitmap |= perm.Bit()
	}

	handle, err := h.kernel.Capabilities.GrantUntil(req.ProcessID, bitmap, req.ExpiresAt)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, capability.ErrStorageFull) || errors.Is(err, capability.ErrInvalidProcess) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.metrics.TokensGranted.Inc()

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"process_id": handle.ProcessID,
		"slot":       handle.Slot,
	})
}

// CheckCapability checks whether a process holds a permission
func (h *Handlers) CheckCapability(c *gin.Context) {
	var req struct {
		ProcessID  uint32 `json:"process_id"`
		Permission string `json:"permission" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	perm, ok := capability.ParsePermission(req.Permission)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Unknown permission: " + req.Permission,
		})
		return
	}

	held, err := h.kernel.Capabilities.Check(req.ProcessID, perm)
	if err != nil && !isDenial(err) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	resp := gin.H{
		"success":    true,
		"held":       held,
		"process_id": req.ProcessID,
		"permission": perm.String(),
	}
	if err != nil {
		h.metrics.PermissionDenials.Inc()
		resp["reason"] = err.Error()
	}

	c.JSON(http.StatusOK, resp)
}

// ProcessPermissions returns the union bitmap of a process's tokens
func (h *Handlers) ProcessPermissions(c *gin.Context) {
	pid, ok := parsePID(c)
	if !ok {
		return
	}

	bitmap, err := h.kernel.Capabilities.Permissions(pid)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, capability.ErrNoTokenStorage) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	names := make([]string, 0)
	for perm := capability.Read; perm <= capability.GpuAccess; perm++ {
		if bitmap&perm.Bit() != 0 {
			names = append(names, perm.String())
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"process_id":  pid,
		"bitmap":      bitmap,
		"permissions": names,
	})
}

// RecentAudit returns the newest audit entries
func (h *Handlers) RecentAudit(c *gin.Context) {
	limit := 100
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	entries := h.kernel.Audit.Recent(limit)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"entries": entries,
		"total":   h.kernel.Audit.Total(),
	})
}

// CreateChannel allocates a new message channel
func (h *Handlers) CreateChannel(c *gin.Context) {
	id, err := h.kernel.Channels.Create()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.metrics.ChannelsActive.Inc()

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"channel_id": id,
	})
}

// SendMessage enqueues a message on a channel
func (h *Handlers) SendMessage(c *gin.Context) {
	channelID, ok := parseChannelID(c)
	if !ok {
		return
	}

	var req struct {
		Sender   uint32 `json:"sender"`
		Receiver uint32 `json:"receiver"`
		Type     uint32 `json:"type"`
		Data     string `json:"data" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	header := ipc.Header{
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Type:     req.Type,
	}

	if err := h.kernel.Channels.Send(channelID, header, []byte(req.Data)); err != nil {
		status := ipcErrorStatus(err)
		if errors.Is(err, capability.ErrPermissionDenied) {
			h.metrics.PermissionDenials.Inc()
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.metrics.MessagesSent.Inc()

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"channel_id": channelID,
	})
}

// RecvMessage dequeues the oldest message from a channel
func (h *Handlers) RecvMessage(c *gin.Context) {
	channelID, ok := parseChannelID(c)
	if !ok {
		return
	}

	header, payload, err := h.kernel.Channels.Recv(channelID)
	if err != nil {
		if errors.Is(err, ipc.ErrBufferEmpty) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"empty":   true,
			})
			return
		}
		c.JSON(ipcErrorStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.metrics.MessagesReceived.Inc()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"empty":   false,
		"header": gin.H{
			"id":       header.ID,
			"sender":   header.Sender,
			"receiver": header.Receiver,
			"length":   header.Length,
			"type":     header.Type,
		},
		"data": string(payload),
	})
}

// PollChannel reports whether a channel has a pending message
func (h *Handlers) PollChannel(c *gin.Context) {
	channelID, ok := parseChannelID(c)
	if !ok {
		return
	}

	ready, err := h.kernel.Channels.Poll(channelID)
	if err != nil {
		c.JSON(ipcErrorStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	depth, _ := h.kernel.Channels.Depth(channelID)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"channel_id": channelID,
		"ready":      ready,
		"depth":      depth,
	})
}

// ChannelStats returns aggregate IPC counters
func (h *Handlers) ChannelStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.kernel.Channels.Stats(),
	})
}

// EnqueueTask adds a task to a CPU's run queue
func (h *Handlers) EnqueueTask(c *gin.Context) {
	var req struct {
		CPU    uint32 `json:"cpu"`
		TaskID uint32 `json:"task_id" binding:"required"`
		Stride uint32 `json:"stride" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	task := sched.NewTask(req.TaskID, req.Stride)
	if err := h.kernel.Scheduler.Enqueue(req.CPU, task); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sched.ErrQueueFull) {
			status = http.StatusConflict
		} else if errors.Is(err, sched.ErrInvalidCPU) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.metrics.TasksEnqueued.Inc()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cpu":     req.CPU,
		"task_id": req.TaskID,
	})
}

// TickCPU advances the tick counter and reschedules one CPU
func (h *Handlers) TickCPU(c *gin.Context) {
	cpu, ok := parseCPU(c)
	if !ok {
		return
	}

	h.kernel.Scheduler.Tick(cpu)
	h.metrics.TicksTotal.Inc()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cpu":     cpu,
		"ticks":   h.kernel.Scheduler.Ticks(),
	})
}

// ScheduleNext picks the next task on a CPU
func (h *Handlers) ScheduleNext(c *gin.Context) {
	cpu, ok := parseCPU(c)
	if !ok {
		return
	}

	task, scheduled := h.kernel.Scheduler.Schedule(cpu)
	if !scheduled {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"idle":    true,
			"message": "No tasks available to schedule",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"idle":    false,
		"task": gin.H{
			"id":     task.ID,
			"stride": task.Stride,
			"pass":   task.Pass,
			"state":  task.State.String(),
		},
	})
}

// TerminateTask removes a task from scheduling
func (h *Handlers) TerminateTask(c *gin.Context) {
	cpu, ok := parseCPU(c)
	if !ok {
		return
	}

	taskID64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid task id",
		})
		return
	}

	if err := h.kernel.Scheduler.Terminate(cpu, uint32(taskID64)); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sched.ErrInvalidTaskID) {
			status = http.StatusNotFound
		} else if errors.Is(err, sched.ErrInvalidCPU) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cpu":     cpu,
		"task_id": uint32(taskID64),
	})
}

// GetSchedulerStats retrieves scheduler statistics
func (h *Handlers) GetSchedulerStats(c *gin.Context) {
	stats := h.kernel.Scheduler.Stats()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

func parsePID(c *gin.Context) (uint32, bool) {
	pid64, err := strconv.ParseUint(c.Param("pid"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid process id",
		})
		return 0, false
	}
	return uint32(pid64), true
}

func parseChannelID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid channel id",
		})
		return 0, false
	}
	return id, true
}

func parseCPU(c *gin.Context) (uint32, bool) {
	s := c.Query("cpu")
	if s == "" {
		s = "0"
	}
	cpu64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid cpu",
		})
		return 0, false
	}
	return uint32(cpu64), true
}

func isDenial(err error) bool {
	return errors.Is(err, capability.ErrPermissionDenied) ||
		errors.Is(err, capability.ErrTokenExpired) ||
		errors.Is(err, capability.ErrNoTokenStorage)
}

func ipcErrorStatus(err error) int {
	switch {
	case errors.Is(err, ipc.ErrInvalidChannel):
		return http.StatusNotFound
	case errors.Is(err, ipc.ErrMessageTooLarge), errors.Is(err, ipc.ErrInvalidMessage):
		return http.StatusBadRequest
	case errors.Is(err, capability.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ipc.ErrBufferFull):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
