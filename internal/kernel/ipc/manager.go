// Package ipc implements zero-copy message channels: fixed-capacity ring
// buffers carrying a header plus inline payload, addressed by channel id.
//
// A send copies the payload exactly once, into the slot's inline buffer;
// the receiver reads directly from that buffer. Admission is gated by the
// capability store: a sender must hold IpcSend. Nothing here blocks;
// callers poll or layer their own notification on top.
package ipc

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aurora-os/nucleus/internal/kernel/capability"
)

// DefaultMaxChannels bounds the channel table.
const DefaultMaxChannels = 1024

// Errors returned by the channel layer.
var (
	ErrBufferFull      = errors.New("ipc: ring buffer full")
	ErrBufferEmpty     = errors.New("ipc: ring buffer empty")
	ErrMessageTooLarge = errors.New("ipc: message exceeds maximum size")
	ErrInvalidMessage  = errors.New("ipc: invalid message")
	ErrInvalidChannel  = errors.New("ipc: unknown channel id")
	ErrTooManyChannels = errors.New("ipc: channel table exhausted")
)

// Checker is the capability query the channel layer depends on.
type Checker interface {
	Check(pid uint32, perm capability.Permission) (bool, error)
}

// Stats is a point-in-time view of the channel table.
type Stats struct {
	Channels     int    `json:"channels"`
	Sends        uint64 `json:"sends"`
	Receives     uint64 `json:"receives"`
	Denials      uint64 `json:"denials"`
	RingSize     int    `json:"ring_size"`
	MaxChannels  int    `json:"max_channels"`
	MaxMessage   int    `json:"max_message_size"`
}

// Manager owns the channel table. Channels are created on demand,
// identified by a monotonically increasing id, and live for the lifetime
// of the kernel.
type Manager struct {
	mu          sync.RWMutex
	channels    []*ring
	nextID      atomic.Uint64
	ringSize    int
	maxChannels int
	checker     Checker

	sends    atomic.Uint64
	receives atomic.Uint64
	denials  atomic.Uint64
}

// Config sizes a manager.
type Config struct {
	MaxChannels int
	RingSize    int
}

// NewManager creates an empty channel table gated by the checker.
func NewManager(cfg Config, checker Checker) *Manager {
	if cfg.MaxChannels <= 0 {
		cfg.MaxChannels = DefaultMaxChannels
	}
	if cfg.RingSize <= 0 || cfg.RingSize&(cfg.RingSize-1) != 0 {
		cfg.RingSize = DefaultRingSize
	}
	return &Manager{
		channels:    make([]*ring, 0, cfg.MaxChannels),
		ringSize:    cfg.RingSize,
		maxChannels: cfg.MaxChannels,
		checker:     checker,
	}
}

// Create allocates the next sequential channel id with a fresh, empty
// ring. Fails with ErrTooManyChannels once the table is exhausted.
func (m *Manager) Create() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.channels) >= m.maxChannels {
		return 0, ErrTooManyChannels
	}
	id := m.nextID.Add(1) - 1
	m.channels = append(m.channels, newRing(m.ringSize))
	return id, nil
}

// Send admits a message to the channel. The capability store is consulted
// first: the sender must hold IpcSend (checked per process, not per
// channel). The payload is copied once into the slot's inline buffer.
func (m *Manager) Send(channelID uint64, header Header, payload []byte) error {
	ch, err := m.channel(channelID)
	if err != nil {
		return err
	}
	if len(payload) > MaxMessageSize {
		return ErrMessageTooLarge
	}
	if header.Length != 0 && int(header.Length) != len(payload) {
		return ErrInvalidMessage
	}
	header.Length = uint32(len(payload))

	if _, err := m.checker.Check(header.Sender, capability.IpcSend); err != nil {
		m.denials.Add(1)
		return capability.ErrPermissionDenied
	}

	if err := ch.send(header, payload); err != nil {
		return err
	}
	m.sends.Add(1)
	return nil
}

// Recv returns the oldest message on the channel: its header and a
// read-only view over the slot's payload bytes, sized to header.Length.
// The view is valid until the slot is reused by a later send.
func (m *Manager) Recv(channelID uint64) (Header, []byte, error) {
	ch, err := m.channel(channelID)
	if err != nil {
		return Header{}, nil, err
	}
	header, view, err := ch.recv()
	if err != nil {
		return Header{}, nil, err
	}
	m.receives.Add(1)
	return header, view, nil
}

// Poll reports whether a message is available without consuming it.
func (m *Manager) Poll(channelID uint64) (bool, error) {
	ch, err := m.channel(channelID)
	if err != nil {
		return false, err
	}
	return ch.poll(), nil
}

// Depth returns the number of outstanding messages on the channel.
func (m *Manager) Depth(channelID uint64) (uint32, error) {
	ch, err := m.channel(channelID)
	if err != nil {
		return 0, err
	}
	return ch.depth(), nil
}

// Stats returns a snapshot of channel table counters.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	n := len(m.channels)
	m.mu.RUnlock()
	return Stats{
		Channels:    n,
		Sends:       m.sends.Load(),
		Receives:    m.receives.Load(),
		Denials:     m.denials.Load(),
		RingSize:    m.ringSize,
		MaxChannels: m.maxChannels,
		MaxMessage:  MaxMessageSize,
	}
}

func (m *Manager) channel(id uint64) (*ring, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id >= uint64(len(m.channels)) {
		return nil, ErrInvalidChannel
	}
	return m.channels[id], nil
}
