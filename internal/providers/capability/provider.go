// Package capability exposes the capability store through the service
// registry: token grants, permission checks, and the audit trail.
package capability

import (
	"context"
	"fmt"

	"github.com/aurora-os/nucleus/internal/kernel/audit"
	"github.com/aurora-os/nucleus/internal/kernel/capability"
	"github.com/aurora-os/nucleus/internal/monitoring"
	"github.com/aurora-os/nucleus/internal/shared/types"
)

// Provider implements capability operations against the in-process store
type Provider struct {
	store   *capability.Store
	log     *audit.Log
	metrics *monitoring.Metrics
}

// NewProvider creates a new capability provider
func NewProvider(store *capability.Store, log *audit.Log) *Provider {
	return &Provider{store: store, log: log}
}

// WithMetrics attaches a metrics collector
func (p *Provider) WithMetrics(m *monitoring.Metrics) *Provider {
	p.metrics = m
	return p
}

// Definition returns the service definition
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "capability",
		Name:        "Capability Store",
		Description: "Grant permission tokens, check process rights, and inspect the audit log",
		Category:    types.CategoryCapability,
		Capabilities: []string{
			"grant",
			"check",
			"permissions",
			"audit",
		},
		Tools: []types.Tool{
			{
				ID:          "capability.grant",
				Name:        "Grant Token",
				Description: "Issue a capability token granting a set of permissions to a process",
				Parameters: []types.Parameter{
					{
						Name:        "process_id",
						Type:        "number",
						Description: "Process receiving the token",
						Required:    true,
					},
					{
						Name:        "permissions",
						Type:        "array",
						Description: "Permission names to grant (e.g. ipc_send, file_create)",
						Required:    true,
					},
					{
						Name:        "expires_at",
						Type:        "number",
						Description: "Optional expiry on the kernel clock in nanoseconds (0 = never)",
						Required:    false,
					},
				},
				Returns: "Token handle (process id and slot)",
			},
			{
				ID:          "capability.check",
				Name:        "Check Permission",
				Description: "Check whether a process holds a permission on any unexpired token",
				Parameters: []types.Parameter{
					{
						Name:        "process_id",
						Type:        "number",
						Description: "Process to check",
						Required:    true,
					},
					{
						Name:        "permission",
						Type:        "string",
						Description: "Permission name",
						Required:    true,
					},
				},
				Returns: "Whether the permission is held (boolean)",
			},
			{
				ID:          "capability.permissions",
				Name:        "List Permissions",
				Description: "Return the union bitmap of a process's unexpired tokens",
				Parameters: []types.Parameter{
					{
						Name:        "process_id",
						Type:        "number",
						Description: "Process to inspect",
						Required:    true,
					},
				},
				Returns: "Permission names plus the raw bitmap",
			},
			{
				ID:          "capability.audit",
				Name:        "Read Audit Log",
				Description: "Return recent audit entries, newest first",
				Parameters: []types.Parameter{
					{
						Name:        "limit",
						Type:        "number",
						Description: "Maximum entries to return (default 100)",
						Required:    false,
					},
				},
				Returns: "Array of audit entries",
			},
		},
	}
}

// Execute handles capability tool execution
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, procCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "capability.grant":
		return p.grant(params)
	case "capability.check":
		return p.check(params)
	case "capability.permissions":
		return p.permissions(params)
	case "capability.audit":
		return p.auditLog(params)
	default:
		return errorResult(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *Provider) grant(params map[string]interface{}) (*types.Result, error) {
	pid, ok := params["process_id"].(float64)
	if !ok {
		return errorResult("process_id is required")
	}

	names, ok := params["permissions"].([]interface{})
	if !ok || len(names) == 0 {
		return errorResult("permissions is required")
	}

	var bitmap uint64
	for _, raw := range names {
		name, ok := raw.(string)
		if !ok {
			return errorResult("permissions must be strings")
		}
		perm, ok := capability.ParsePermission(name)
		if !ok {
			return errorResult(fmt.Sprintf("unknown permission: %s", name))
		}
		bitmap |= perm.Bit()
	}

	var expiresAt int64
	if exp, ok := params["expires_at"].(float64); ok {
		expiresAt = int64(exp)
	}

	handle, err := p.store.GrantUntil(uint32(pid), bitmap, expiresAt)
	if err != nil {
		return errorResult(err.Error())
	}
	if p.metrics != nil {
		p.metrics.TokensGranted.Inc()
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"process_id": handle.ProcessID,
			"slot":       handle.Slot,
			"bitmap":     bitmap,
		},
	}, nil
}

func (p *Provider) check(params map[string]interface{}) (*types.Result, error) {
	pid, ok := params["process_id"].(float64)
	if !ok {
		return errorResult("process_id is required")
	}

	name, ok := params["permission"].(string)
	if !ok {
		return errorResult("permission is required")
	}
	perm, ok := capability.ParsePermission(name)
	if !ok {
		return errorResult(fmt.Sprintf("unknown permission: %s", name))
	}

	held, err := p.store.Check(uint32(pid), perm)
	if err != nil {
		if p.metrics != nil {
			p.metrics.PermissionDenials.Inc()
			p.metrics.AuditEntries.Inc()
		}
		// Denial is a result, not a transport failure.
		return &types.Result{
			Success: true,
			Data: map[string]interface{}{
				"held":   false,
				"reason": err.Error(),
			},
		}, nil
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"held": held,
		},
	}, nil
}

func (p *Provider) permissions(params map[string]interface{}) (*types.Result, error) {
	pid, ok := params["process_id"].(float64)
	if !ok {
		return errorResult("process_id is required")
	}

	bitmap, err := p.store.Permissions(uint32(pid))
	if err != nil {
		return errorResult(err.Error())
	}

	var names []string
	for perm := capability.Read; perm <= capability.GpuAccess; perm++ {
		if bitmap&perm.Bit() != 0 {
			names = append(names, perm.String())
		}
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"bitmap":      bitmap,
			"permissions": names,
		},
	}, nil
}

func (p *Provider) auditLog(params map[string]interface{}) (*types.Result, error) {
	limit := 100
	if n, ok := params["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}

	entries := p.log.Recent(limit)
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{
			"timestamp":  e.Timestamp,
			"process_id": e.ProcessID,
			"action":     e.Action,
			"result":     e.Result,
		})
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"entries": out,
			"total":   p.log.Total(),
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
