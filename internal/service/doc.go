// Package service provides the provider registry for the syscall surface.
//
// The registry maintains a catalog of kernel service providers and
// dispatches tool execution by dotted tool id (service.tool).
//
// Components:
//   - Registry: Central service catalog
//   - Provider: Interface for service implementations
//
// Features:
//   - Thread-safe service registration
//   - Category-based filtering
//   - Tool execution with context passing
//   - Service statistics
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(ipcProvider)
//	result, err := registry.Execute(ctx, "ipc.send", params, procCtx)
package service
