package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurora-os/nucleus/internal/kernel/clock"
)

func TestLogAppend(t *testing.T) {
	clk := clock.NewManual(100)
	log := New(4, clk)

	var sig [SignatureSize]byte

	log.Append(7, 3, ResultDenied, sig)
	require.Equal(t, 1, log.Len())
	require.Equal(t, uint64(1), log.Total())

	entries := log.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(7), entries[0].ProcessID)
	assert.Equal(t, uint32(3), entries[0].Action)
	assert.Equal(t, ResultDenied, entries[0].Result)
	assert.Equal(t, int64(100), entries[0].Timestamp)
}

func TestLogWraps(t *testing.T) {
	clk := clock.NewManual(0)
	log := New(4, clk)

	var sig [SignatureSize]byte
	for pid := uint32(1); pid <= 10; pid++ {
		log.Append(pid, 0, ResultDenied, sig)
	}

	// Capacity never grows; the oldest entries are silently gone.
	assert.Equal(t, 4, log.Len())
	assert.Equal(t, uint64(10), log.Total())

	snap := log.Snapshot()
	require.Len(t, snap, 4)
	for i, e := range snap {
		assert.Equal(t, uint32(7+i), e.ProcessID)
	}
}

func TestLogRecentNewestFirst(t *testing.T) {
	clk := clock.NewManual(0)
	log := New(8, clk)

	var sig [SignatureSize]byte
	for pid := uint32(1); pid <= 5; pid++ {
		log.Append(pid, 0, ResultGranted, sig)
	}

	recent := log.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, uint32(5), recent[0].ProcessID)
	assert.Equal(t, uint32(4), recent[1].ProcessID)
	assert.Equal(t, uint32(3), recent[2].ProcessID)
}

func TestLogRecentEmpty(t *testing.T) {
	log := New(4, clock.NewManual(0))
	assert.Empty(t, log.Recent(10))
}
