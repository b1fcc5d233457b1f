package ipc

import "sync/atomic"

// Sizing of a channel's ring.
const (
	// MaxMessageSize is the largest payload a slot can carry.
	MaxMessageSize = 4096
	// DefaultRingSize is the slot count per channel. Must be a power of
	// two; one slot is always kept empty to disambiguate full from empty,
	// so usable capacity is DefaultRingSize-1.
	DefaultRingSize = 16
)

// slot pairs a header with its inline payload region.
type slot struct {
	header  Header
	valid   bool
	payload [MaxMessageSize]byte
}

// ring is a single-producer/single-consumer-per-slot circular buffer.
// The two cursors are the only shared mutable state: the producer
// publishes a fully written slot by advancing writeIdx (release), and the
// consumer frees a slot by advancing readIdx (release). A cursor load
// that gates slot access is an acquire. Go's sync/atomic operations are
// sequentially consistent, which subsumes the acquire/release ordering
// the slot protocol needs.
type ring struct {
	writeIdx atomic.Uint32
	readIdx  atomic.Uint32
	slots    []slot
}

func newRing(size int) *ring {
	if size <= 0 || size&(size-1) != 0 {
		size = DefaultRingSize
	}
	return &ring{slots: make([]slot, size)}
}

func (r *ring) size() uint32 { return uint32(len(r.slots)) }

// send places the header and payload into the next free slot and
// publishes it. The single copy into the slot's inline buffer is the only
// copy the message undergoes.
func (r *ring) send(header Header, payload []byte) error {
	if len(payload) > MaxMessageSize {
		return ErrMessageTooLarge
	}

	w := r.writeIdx.Load()
	rd := r.readIdx.Load()
	if (w+1)%r.size() == rd {
		return ErrBufferFull
	}

	s := &r.slots[w]
	s.header = header
	s.valid = true
	copy(s.payload[:], payload)

	// Publish: the slot contents must be visible before the cursor moves.
	r.writeIdx.Store((w + 1) % r.size())
	return nil
}

// recv returns the oldest message's header and a view over its payload
// bytes, then frees the slot. The view aliases the slot's inline buffer
// and is valid until a later send reuses the slot; callers that retain
// the payload past the next send on this channel must copy it.
func (r *ring) recv() (Header, []byte, error) {
	rd := r.readIdx.Load()
	w := r.writeIdx.Load()
	if rd == w {
		return Header{}, nil, ErrBufferEmpty
	}

	s := &r.slots[rd]
	if !s.valid {
		return Header{}, nil, ErrInvalidMessage
	}
	header := s.header
	view := s.payload[:header.Length]

	r.readIdx.Store((rd + 1) % r.size())
	return header, view, nil
}

// poll reports whether a message is available without consuming it.
func (r *ring) poll() bool {
	return r.readIdx.Load() != r.writeIdx.Load()
}

// depth returns the number of outstanding messages.
func (r *ring) depth() uint32 {
	w := r.writeIdx.Load()
	rd := r.readIdx.Load()
	return (w + r.size() - rd) % r.size()
}
