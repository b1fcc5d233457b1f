package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurora-os/nucleus/internal/kernel/audit"
	"github.com/aurora-os/nucleus/internal/kernel/clock"
)

func newTestStore(t *testing.T, cfg Config) (*Store, *audit.Log, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(1000)
	log := audit.New(64, clk)
	store, err := NewStore(cfg, clk, log)
	require.NoError(t, err)
	return store, log, clk
}

func TestRootGrant(t *testing.T) {
	store, _, _ := newTestStore(t, Config{})

	// Process 0 receives every permission at boot.
	for p := Read; p <= GpuAccess; p++ {
		ok, err := store.Check(0, p)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestGrantAndCheck(t *testing.T) {
	store, _, _ := newTestStore(t, Config{})

	_, err := store.Grant(7, IpcSend.Bit())
	require.NoError(t, err)

	t.Run("granted permission passes", func(t *testing.T) {
		ok, err := store.Check(7, IpcSend)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ungranted permission denied", func(t *testing.T) {
		ok, err := store.Check(7, GpuAccess)
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("rights are the union of all tokens", func(t *testing.T) {
		_, err := store.Grant(7, FileCreate.Bit()|FileDelete.Bit())
		require.NoError(t, err)

		for _, p := range []Permission{IpcSend, FileCreate, FileDelete} {
			ok, err := store.Check(7, p)
			require.NoError(t, err)
			assert.True(t, ok)
		}

		union, err := store.Permissions(7)
		require.NoError(t, err)
		assert.Equal(t, IpcSend.Bit()|FileCreate.Bit()|FileDelete.Bit(), union)
	})
}

func TestCheckNoTokenStorage(t *testing.T) {
	store, _, _ := newTestStore(t, Config{})

	ok, err := store.Check(42, Read)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNoTokenStorage)
}

func TestGrantStorageFull(t *testing.T) {
	store, _, _ := newTestStore(t, Config{TokensPerProcess: 2})

	_, err := store.Grant(5, Read.Bit())
	require.NoError(t, err)
	_, err = store.Grant(5, Write.Bit())
	require.NoError(t, err)

	_, err = store.Grant(5, Execute.Bit())
	assert.ErrorIs(t, err, ErrStorageFull)

	// The failed insertion did not disturb existing tokens.
	n, err := store.TokenCount(5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGrantInvalidProcess(t *testing.T) {
	store, _, _ := newTestStore(t, Config{MaxProcesses: 8})

	_, err := store.Grant(8, Read.Bit())
	assert.ErrorIs(t, err, ErrInvalidProcess)
}

func TestCheckEnforcesExpiry(t *testing.T) {
	store, _, clk := newTestStore(t, Config{})

	_, err := store.GrantUntil(9, NetworkAccess.Bit(), 2000)
	require.NoError(t, err)

	ok, err := store.Check(9, NetworkAccess)
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(5000)

	ok, err = store.Check(9, NetworkAccess)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestDenialIsAudited(t *testing.T) {
	store, log, _ := newTestStore(t, Config{})

	_, err := store.Grant(3, Read.Bit())
	require.NoError(t, err)

	before := log.Total()
	_, err = store.Check(3, IpcSend)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	require.Equal(t, before+1, log.Total())

	entries := log.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(3), entries[0].ProcessID)
	assert.Equal(t, uint32(IpcSend), entries[0].Action)
	assert.Equal(t, audit.ResultDenied, entries[0].Result)
}

func TestSuccessfulCheckNotAudited(t *testing.T) {
	store, log, _ := newTestStore(t, Config{})

	before := log.Total()
	ok, err := store.Check(0, Read)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before, log.Total())
}

func TestTokenSignatureDeterministic(t *testing.T) {
	key := make([]byte, 32)
	a := sign(key, 7, IpcSend.Bit(), 0)
	b := sign(key, 7, IpcSend.Bit(), 0)
	c := sign(key, 8, IpcSend.Bit(), 0)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestParsePermission(t *testing.T) {
	p, ok := ParsePermission("ipc_send")
	require.True(t, ok)
	assert.Equal(t, IpcSend, p)

	_, ok = ParsePermission("warp_drive")
	assert.False(t, ok)
}
