package ipc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurora-os/nucleus/internal/kernel/audit"
	"github.com/aurora-os/nucleus/internal/kernel/capability"
	"github.com/aurora-os/nucleus/internal/kernel/clock"
)

func newTestManager(t *testing.T, cfg Config) (*Manager, *capability.Store, *audit.Log) {
	t.Helper()
	clk := clock.NewManual(0)
	log := audit.New(64, clk)
	caps, err := capability.NewStore(capability.Config{}, clk, log)
	require.NoError(t, err)
	return NewManager(cfg, caps), caps, log
}

func TestCreateChannelSequentialIDs(t *testing.T) {
	m, _, _ := newTestManager(t, Config{})

	for want := uint64(0); want < 3; want++ {
		id, err := m.Create()
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

func TestCreateChannelTableExhausted(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxChannels: 2})

	_, err := m.Create()
	require.NoError(t, err)
	_, err = m.Create()
	require.NoError(t, err)

	_, err = m.Create()
	assert.ErrorIs(t, err, ErrTooManyChannels)
}

func TestSendRecvEndToEnd(t *testing.T) {
	m, caps, _ := newTestManager(t, Config{})

	ch, err := m.Create()
	require.NoError(t, err)

	_, err = caps.Grant(7, capability.IpcSend.Bit())
	require.NoError(t, err)

	header := Header{Sender: 7, Receiver: 9, Length: 5}
	payload := []byte{1, 2, 3, 4, 5}
	require.NoError(t, m.Send(ch, header, payload))

	got, view, err := m.Recv(ch)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), got.Sender)
	assert.Equal(t, uint32(9), got.Receiver)
	assert.Equal(t, uint32(5), got.Length)
	assert.Equal(t, payload, view)

	_, _, err = m.Recv(ch)
	assert.ErrorIs(t, err, ErrBufferEmpty)
}

func TestSendWithoutPermission(t *testing.T) {
	m, _, log := newTestManager(t, Config{})

	ch, err := m.Create()
	require.NoError(t, err)

	// Process 3 was never granted anything.
	err = m.Send(ch, Header{Sender: 3}, []byte{1})
	assert.ErrorIs(t, err, capability.ErrPermissionDenied)

	// The channel admitted nothing and the denial is observable.
	depth, err := m.Depth(ch)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), depth)

	entries := log.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(3), entries[0].ProcessID)
}

func TestSendUnknownChannel(t *testing.T) {
	m, _, _ := newTestManager(t, Config{})

	err := m.Send(99, Header{Sender: 0}, []byte{1})
	assert.ErrorIs(t, err, ErrInvalidChannel)

	_, _, err = m.Recv(99)
	assert.ErrorIs(t, err, ErrInvalidChannel)

	_, err = m.Poll(99)
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestSendHeaderLengthMismatch(t *testing.T) {
	m, _, _ := newTestManager(t, Config{})

	ch, err := m.Create()
	require.NoError(t, err)

	err = m.Send(ch, Header{Sender: 0, Length: 10}, []byte{1, 2})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestSendOversizedPayload(t *testing.T) {
	m, _, _ := newTestManager(t, Config{})

	ch, err := m.Create()
	require.NoError(t, err)

	err = m.Send(ch, Header{Sender: 0}, make([]byte, MaxMessageSize+1))
	assert.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestPollDoesNotConsume(t *testing.T) {
	m, _, _ := newTestManager(t, Config{})

	ch, err := m.Create()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ready, err := m.Poll(ch)
		require.NoError(t, err)
		assert.False(t, ready)
	}

	require.NoError(t, m.Send(ch, Header{Sender: 0}, []byte{1}))

	for i := 0; i < 3; i++ {
		ready, err := m.Poll(ch)
		require.NoError(t, err)
		assert.True(t, ready)
	}
}

func TestChannelFIFOUnderLoad(t *testing.T) {
	m, _, _ := newTestManager(t, Config{RingSize: 16})

	ch, err := m.Create()
	require.NoError(t, err)

	// Interleave sends and receives across several ring wraps.
	next := uint64(0)
	sent := uint64(0)
	for sent < 100 {
		for i := 0; i < 10 && sent < 100; i++ {
			if err := m.Send(ch, Header{ID: sent, Sender: 0}, []byte{byte(sent)}); err != nil {
				break
			}
			sent++
		}
		for {
			h, _, err := m.Recv(ch)
			if err != nil {
				break
			}
			require.Equal(t, next, h.ID)
			next++
		}
	}
	assert.Equal(t, sent, next)
}

func TestManagerStats(t *testing.T) {
	m, caps, _ := newTestManager(t, Config{})

	ch, err := m.Create()
	require.NoError(t, err)
	_, err = caps.Grant(7, capability.IpcSend.Bit())
	require.NoError(t, err)

	require.NoError(t, m.Send(ch, Header{Sender: 7}, []byte{1}))
	_, _, err = m.Recv(ch)
	require.NoError(t, err)
	_ = m.Send(ch, Header{Sender: 200}, []byte{1})

	stats := m.Stats()
	assert.Equal(t, 1, stats.Channels)
	assert.Equal(t, uint64(1), stats.Sends)
	assert.Equal(t, uint64(1), stats.Receives)
	assert.Equal(t, uint64(1), stats.Denials)
}
