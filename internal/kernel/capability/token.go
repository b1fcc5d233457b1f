package capability

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// SignatureSize is the width of a token signature in bytes.
const SignatureSize = 32

// Permission is one discrete right a token can grant. Each permission
// occupies one bit of a token's 64-bit bitmap.
type Permission uint8

const (
	Read Permission = iota
	Write
	Execute
	IpcSend
	IpcRecv
	FileCreate
	FileDelete
	NetworkAccess
	GpuAccess
)

var permissionNames = map[Permission]string{
	Read:          "read",
	Write:         "write",
	Execute:       "execute",
	IpcSend:       "ipc_send",
	IpcRecv:       "ipc_recv",
	FileCreate:    "file_create",
	FileDelete:    "file_delete",
	NetworkAccess: "network_access",
	GpuAccess:     "gpu_access",
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return "unknown"
}

// Bit returns the bitmap mask for the permission.
func (p Permission) Bit() uint64 {
	return 1 << uint64(p)
}

// ParsePermission resolves a permission name to its value.
func ParsePermission(name string) (Permission, bool) {
	for p, n := range permissionNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// AllPermissions is the bitmap granting every defined permission.
const AllPermissions uint64 = (1 << (uint64(GpuAccess) + 1)) - 1

// Token is an immutable grant of permissions to one process. The
// signature is a keyed MAC over the token body, reserved for an external
// verifier; this core computes but does not verify it.
type Token struct {
	Signature   [SignatureSize]byte
	Permissions uint64
	ProcessID   uint32
	ExpiresAt   int64 // nanoseconds on the store's clock; 0 means never
}

// Has reports whether the token grants the permission.
func (t *Token) Has(p Permission) bool {
	return t.Permissions&p.Bit() != 0
}

// Expired reports whether the token has expired at time now.
func (t *Token) Expired(now int64) bool {
	return t.ExpiresAt != 0 && now >= t.ExpiresAt
}

// sign computes the keyed BLAKE2b-256 MAC over the token body.
func sign(key []byte, pid uint32, permissions uint64, expiresAt int64) [SignatureSize]byte {
	var body [20]byte
	binary.LittleEndian.PutUint32(body[0:4], pid)
	binary.LittleEndian.PutUint64(body[4:12], permissions)
	binary.LittleEndian.PutUint64(body[12:20], uint64(expiresAt))

	h, err := blake2b.New256(key)
	if err != nil {
		// blake2b only rejects keys longer than 64 bytes; ours is fixed.
		panic(err)
	}
	h.Write(body[:])

	var sig [SignatureSize]byte
	copy(sig[:], h.Sum(nil))
	return sig
}
