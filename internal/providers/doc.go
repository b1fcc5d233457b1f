// Package providers groups the syscall surface exposed over the
// service registry.
//
// Each provider wraps one kernel subsystem behind a standardized
// tool-based interface, dispatched by dotted tool id.
//
// Available Providers:
//   - Capability: token grants, permission checks, audit queries
//   - IPC: channel creation, send/recv/poll, transfer stats
//   - Scheduler: task admission, ticks, scheduling decisions
//
// Provider Interface:
//   - Definition(): Returns service metadata and tool definitions
//   - Execute(): Executes a tool with parameters and context
//
// Example Usage:
//
//	p := capability.NewProvider(store, log)
//	result, err := p.Execute(ctx, "capability.grant", params, procCtx)
package providers
