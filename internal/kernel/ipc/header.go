package ipc

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the encoded width of a message header in bytes.
const HeaderSize = 24

// Header describes one message. It travels through the ring alongside an
// inline payload of at most MaxMessageSize bytes. The encoded layout is
// fixed and little-endian so independently built tasks sharing a channel
// table agree on the wire format.
type Header struct {
	ID       uint64 `json:"id"`
	Sender   uint32 `json:"sender"`
	Receiver uint32 `json:"receiver"`
	Length   uint32 `json:"length"`
	Type     uint32 `json:"type"`
}

// MarshalBinary encodes the header into its fixed 24-byte layout.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.ID)
	binary.LittleEndian.PutUint32(buf[8:12], h.Sender)
	binary.LittleEndian.PutUint32(buf[12:16], h.Receiver)
	binary.LittleEndian.PutUint32(buf[16:20], h.Length)
	binary.LittleEndian.PutUint32(buf[20:24], h.Type)
	return buf, nil
}

// UnmarshalBinary decodes a header from its fixed layout.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) != HeaderSize {
		return errors.New("ipc: header must be exactly 24 bytes")
	}
	h.ID = binary.LittleEndian.Uint64(data[0:8])
	h.Sender = binary.LittleEndian.Uint32(data[8:12])
	h.Receiver = binary.LittleEndian.Uint32(data[12:16])
	h.Length = binary.LittleEndian.Uint32(data[16:20])
	h.Type = binary.LittleEndian.Uint32(data[20:24])
	return nil
}
