// Package ws provides WebSocket streaming of kernel events.
//
// A connected client subscribes to named streams and receives periodic
// pushes until it unsubscribes or disconnects.
//
// Streams:
//   - audit: new audit log entries since the last push
//   - scheduler: scheduler statistics snapshots
//
// Message Types (Client → Server):
//   - subscribe: Subscribe to a stream ("stream" field)
//   - unsubscribe: Unsubscribe from a stream
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection established (carries the stream session id)
//   - audit_entries: Batch of new audit entries
//   - scheduler_stats: Scheduler statistics snapshot
//   - pong: Ping reply
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(k, logger, time.Second)
//	router.GET("/stream", handler.HandleConnection)
package ws
