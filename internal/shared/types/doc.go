// Package types provides shared data structures for the syscall surface.
//
// This package defines the types used by the provider registry and the
// HTTP gateway, ensuring consistent shapes across components.
//
// Core Types:
//   - Service: Service provider definition
//   - Tool: Service tool specification
//   - Context: Execution context for operations
//   - Result: Standard operation result
//
// Request Types:
//   - ExecuteRequest: Service tool execution
//   - WSMessage: WebSocket communication
package types
