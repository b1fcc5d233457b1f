// Package ipc exposes the kernel's message channels to the syscall
// surface.
//
// A channel is a fixed-capacity ring of slots, each carrying a header
// plus an inline payload of at most 4096 bytes. Sends are admitted only
// when the sending process holds the ipc_send capability; denials land in
// the audit log. Nothing blocks: receivers poll, or the surrounding
// system layers notification on top.
//
// Example Usage:
//
//	// Allocate a channel
//	chID := ipc.create_channel()
//
//	// Sender (must hold ipc_send) admits a message
//	ipc.send(channel_id: chID, sender: 7, receiver: 9, data: "hello")
//
//	// Receiver consumes it
//	result := ipc.recv(channel_id: chID)
//
//	// Non-blocking availability check
//	ready := ipc.poll(channel_id: chID)
package ipc
