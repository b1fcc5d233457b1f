// Package audit provides a fixed-capacity circular log of
// security-relevant decisions.
//
// The log is best-effort telemetry, not a durable audit trail: once the
// buffer wraps, the oldest entry is silently overwritten. Writers are the
// capability store and the IPC layer; readers are diagnostic surfaces
// (HTTP export, websocket stream).
package audit

import (
	"sync"

	"github.com/aurora-os/nucleus/internal/kernel/clock"
)

// DefaultCapacity is the number of entries retained before wrapping.
const DefaultCapacity = 4096

// SignatureSize is the width of an entry's signature field.
const SignatureSize = 16

// Result codes recorded per entry.
const (
	ResultGranted uint32 = 0
	ResultDenied  uint32 = 1
	ResultExpired uint32 = 2
)

// Entry is one audit record.
type Entry struct {
	Timestamp int64               `json:"timestamp"`
	ProcessID uint32              `json:"process_id"`
	Action    uint32              `json:"action"`
	Result    uint32              `json:"result"`
	Signature [SignatureSize]byte `json:"-"`
}

// Log is a circular buffer of audit entries.
type Log struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries []Entry
	next    int
	total   uint64
}

// New creates a log with the given capacity. Capacity must be positive;
// zero selects DefaultCapacity.
func New(capacity int, clk clock.Clock) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		clock:   clk,
		entries: make([]Entry, 0, capacity),
	}
}

// Append records an entry, stamping it with the log's clock. The oldest
// entry is overwritten once the buffer is full.
func (l *Log) Append(pid uint32, action, result uint32, signature [SignatureSize]byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		Timestamp: l.clock.Now(),
		ProcessID: pid,
		Action:    action,
		Result:    result,
		Signature: signature,
	}

	if len(l.entries) < cap(l.entries) {
		l.entries = append(l.entries, e)
	} else {
		l.entries[l.next] = e
	}
	l.next = (l.next + 1) % cap(l.entries)
	l.total++
}

// Len returns the number of retained entries, capped at capacity.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Total returns the number of entries ever appended, including those
// already overwritten.
func (l *Log) Total() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Recent returns up to n entries, newest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, 0, n)
	// next-1 is the most recently written slot.
	for i := 0; i < n; i++ {
		idx := (l.next - 1 - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}
	return out
}

// Snapshot returns all retained entries, oldest first.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.entries))
	if len(l.entries) < cap(l.entries) {
		out = append(out, l.entries...)
		return out
	}
	for i := 0; i < len(l.entries); i++ {
		out = append(out, l.entries[(l.next+i)%len(l.entries)])
	}
	return out
}
