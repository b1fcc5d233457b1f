// Package scheduler exposes the stride scheduler through the service
// registry: task admission, tick delivery, and scheduling decisions.
package scheduler

import (
	"context"
	"fmt"

	"github.com/aurora-os/nucleus/internal/kernel/sched"
	"github.com/aurora-os/nucleus/internal/monitoring"
	"github.com/aurora-os/nucleus/internal/shared/types"
)

// Provider implements scheduler operations against the in-process scheduler
type Provider struct {
	scheduler *sched.Scheduler
	metrics   *monitoring.Metrics
}

// NewProvider creates a new scheduler provider
func NewProvider(scheduler *sched.Scheduler) *Provider {
	return &Provider{scheduler: scheduler}
}

// WithMetrics attaches a metrics collector
func (p *Provider) WithMetrics(m *monitoring.Metrics) *Provider {
	p.metrics = m
	return p
}

// Definition returns the service definition
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "scheduler",
		Name:        "Stride Scheduler",
		Description: "Per-CPU run queues with stride-based fair-share task selection",
		Category:    types.CategoryScheduler,
		Capabilities: []string{
			"enqueue",
			"tick",
			"schedule",
			"terminate",
			"stats",
			"queue",
		},
		Tools: []types.Tool{
			{
				ID:          "scheduler.enqueue",
				Name:        "Enqueue Task",
				Description: "Append a task descriptor to a specific CPU's run queue",
				Parameters: []types.Parameter{
					{
						Name:        "cpu",
						Type:        "number",
						Description: "Target CPU; the task never migrates afterwards",
						Required:    true,
					},
					{
						Name:        "task_id",
						Type:        "number",
						Description: "Task identifier",
						Required:    true,
					},
					{
						Name:        "stride",
						Type:        "number",
						Description: "Stride value (inverse of priority; smaller runs more often)",
						Required:    true,
					},
				},
				Returns: "Success confirmation",
			},
			{
				ID:          "scheduler.tick",
				Name:        "Timer Tick",
				Description: "Deliver one timer tick to a CPU, triggering an immediate scheduling decision",
				Parameters: []types.Parameter{
					{
						Name:        "cpu",
						Type:        "number",
						Description: "CPU receiving the tick (default 0)",
						Required:    false,
					},
				},
				Returns: "Global tick count",
			},
			{
				ID:          "scheduler.schedule",
				Name:        "Schedule",
				Description: "Perform one scheduling decision on a CPU without advancing the tick counter",
				Parameters: []types.Parameter{
					{
						Name:        "cpu",
						Type:        "number",
						Description: "CPU to schedule (default 0)",
						Required:    false,
					},
				},
				Returns: "Selected task, or idle",
			},
			{
				ID:          "scheduler.terminate",
				Name:        "Terminate Task",
				Description: "Mark a task Terminated; it is never selected again",
				Parameters: []types.Parameter{
					{
						Name:        "cpu",
						Type:        "number",
						Description: "CPU owning the task",
						Required:    true,
					},
					{
						Name:        "task_id",
						Type:        "number",
						Description: "Task to terminate",
						Required:    true,
					},
				},
				Returns: "Success confirmation",
			},
			{
				ID:          "scheduler.stats",
				Name:        "Scheduler Stats",
				Description: "Snapshot of scheduler counters",
				Parameters:  []types.Parameter{},
				Returns:     "Counters: ticks, context switches, cpus, tasks",
			},
			{
				ID:          "scheduler.queue",
				Name:        "Inspect Run Queue",
				Description: "Return a copy of one CPU's run queue",
				Parameters: []types.Parameter{
					{
						Name:        "cpu",
						Type:        "number",
						Description: "CPU to inspect",
						Required:    true,
					},
				},
				Returns: "Array of task descriptors",
			},
		},
	}
}

// Execute handles scheduler tool execution
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, procCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "scheduler.enqueue":
		return p.enqueue(params)
	case "scheduler.tick":
		return p.tick(params)
	case "scheduler.schedule":
		return p.schedule(params)
	case "scheduler.terminate":
		return p.terminate(params)
	case "scheduler.stats":
		return p.stats()
	case "scheduler.queue":
		return p.queue(params)
	default:
		return errorResult(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *Provider) enqueue(params map[string]interface{}) (*types.Result, error) {
	cpu, ok := params["cpu"].(float64)
	if !ok {
		return errorResult("cpu is required")
	}
	taskID, ok := params["task_id"].(float64)
	if !ok {
		return errorResult("task_id is required")
	}
	stride, ok := params["stride"].(float64)
	if !ok {
		return errorResult("stride is required")
	}
	if stride < 1 {
		return errorResult("stride must be at least 1")
	}

	task := sched.NewTask(uint32(taskID), uint32(stride))
	if err := p.scheduler.Enqueue(uint32(cpu), task); err != nil {
		return errorResult(err.Error())
	}
	if p.metrics != nil {
		p.metrics.TasksEnqueued.Inc()
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"cpu":     uint32(cpu),
			"task_id": task.ID,
			"stride":  task.Stride,
		},
	}, nil
}

func (p *Provider) tick(params map[string]interface{}) (*types.Result, error) {
	var cpu uint32
	if c, ok := params["cpu"].(float64); ok {
		cpu = uint32(c)
	}

	p.scheduler.Tick(cpu)
	if p.metrics != nil {
		p.metrics.TicksTotal.Inc()
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"ticks": p.scheduler.Ticks(),
		},
	}, nil
}

func (p *Provider) schedule(params map[string]interface{}) (*types.Result, error) {
	var cpu uint32
	if c, ok := params["cpu"].(float64); ok {
		cpu = uint32(c)
	}

	task, ok := p.scheduler.Schedule(cpu)
	if !ok {
		return &types.Result{
			Success: true,
			Data: map[string]interface{}{
				"idle": true,
			},
		}, nil
	}
	if p.metrics != nil {
		p.metrics.ContextSwitches.Inc()
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"idle":    false,
			"task_id": task.ID,
			"stride":  task.Stride,
			"pass":    task.Pass,
		},
	}, nil
}

func (p *Provider) terminate(params map[string]interface{}) (*types.Result, error) {
	cpu, ok := params["cpu"].(float64)
	if !ok {
		return errorResult("cpu is required")
	}
	taskID, ok := params["task_id"].(float64)
	if !ok {
		return errorResult("task_id is required")
	}

	if err := p.scheduler.Terminate(uint32(cpu), uint32(taskID)); err != nil {
		return errorResult(err.Error())
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"cpu":     uint32(cpu),
			"task_id": uint32(taskID),
		},
	}, nil
}

func (p *Provider) stats() (*types.Result, error) {
	stats := p.scheduler.Stats()
	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"ticks":            stats.Ticks,
			"context_switches": stats.ContextSwitches,
			"cpus":             stats.CPUs,
			"tasks":            stats.Tasks,
		},
	}, nil
}

func (p *Provider) queue(params map[string]interface{}) (*types.Result, error) {
	cpu, ok := params["cpu"].(float64)
	if !ok {
		return errorResult("cpu is required")
	}

	tasks, err := p.scheduler.Snapshot(uint32(cpu))
	if err != nil {
		return errorResult(err.Error())
	}

	out := make([]map[string]interface{}, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, map[string]interface{}{
			"task_id": t.ID,
			"stride":  t.Stride,
			"pass":    t.Pass,
			"state":   t.State.String(),
		})
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"cpu":   uint32(cpu),
			"tasks": out,
		},
	}, nil
}

func errorResult(message string) (*types.Result, error) {
	return &types.Result{
		Success: false,
		Error:   stringPtr(message),
	}, fmt.Errorf("%s", message)
}

func stringPtr(s string) *string {
	return &s
}
