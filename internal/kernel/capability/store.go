// Package capability implements the capability store: per-process
// collections of permission tokens and the check that gates privileged
// operations.
//
// Rights are the union of the bitmaps of all tokens a process holds.
// Checks are a linear scan over a small, bounded token array; the store
// trades lookup speed for an allocation-free representation and coarse
// per-process locking, which is sufficient because checks are far cheaper
// than the message copies they gate.
package capability

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/aurora-os/nucleus/internal/kernel/audit"
	"github.com/aurora-os/nucleus/internal/kernel/clock"
)

// Sizing of the process-indexed token table.
const (
	DefaultMaxProcesses     = 1024
	DefaultTokensPerProcess = 64
)

// Errors returned by the store.
var (
	ErrPermissionDenied = errors.New("capability: permission denied")
	ErrInvalidToken     = errors.New("capability: invalid token")
	ErrTokenExpired     = errors.New("capability: token expired")
	ErrStorageFull      = errors.New("capability: token storage full")
	ErrNoTokenStorage   = errors.New("capability: process has no token storage")
	ErrInvalidProcess   = errors.New("capability: process id out of range")
)

// Handle identifies a granted token within its process's storage.
type Handle struct {
	ProcessID uint32
	Slot      int
}

// processStore holds one process's tokens. A slot is either empty (nil)
// or holds exactly one token; insertion fails rather than overwrites.
type processStore struct {
	mu     sync.Mutex
	tokens []*Token
}

// Store is the process-indexed token table.
type Store struct {
	mu               sync.RWMutex
	processes        []*processStore
	tokensPerProcess int
	clock            clock.Clock
	log              *audit.Log
	signingKey       []byte
}

// Config sizes a store.
type Config struct {
	MaxProcesses     int
	TokensPerProcess int
}

// NewStore creates a store and seeds process 0 with an all-permissions
// root token, mirroring the boot-time grant.
func NewStore(cfg Config, clk clock.Clock, log *audit.Log) (*Store, error) {
	if cfg.MaxProcesses <= 0 {
		cfg.MaxProcesses = DefaultMaxProcesses
	}
	if cfg.TokensPerProcess <= 0 {
		cfg.TokensPerProcess = DefaultTokensPerProcess
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("capability: signing key: %w", err)
	}

	s := &Store{
		processes:        make([]*processStore, cfg.MaxProcesses),
		tokensPerProcess: cfg.TokensPerProcess,
		clock:            clk,
		log:              log,
		signingKey:       key,
	}

	if _, err := s.Grant(0, AllPermissions); err != nil {
		return nil, fmt.Errorf("capability: root grant: %w", err)
	}
	return s, nil
}

// Grant issues a token for the process and inserts it into the process's
// storage, creating the storage on first grant. Fails with ErrStorageFull
// when the process already holds the maximum number of tokens.
func (s *Store) Grant(pid uint32, permissions uint64) (Handle, error) {
	return s.GrantUntil(pid, permissions, 0)
}

// GrantUntil issues a token that expires at the given clock time.
// An expiry of zero means the token never expires.
func (s *Store) GrantUntil(pid uint32, permissions uint64, expiresAt int64) (Handle, error) {
	ps, err := s.storageFor(pid, true)
	if err != nil {
		return Handle{}, err
	}

	tok := &Token{
		Signature:   sign(s.signingKey, pid, permissions, expiresAt),
		Permissions: permissions,
		ProcessID:   pid,
		ExpiresAt:   expiresAt,
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	for i, slot := range ps.tokens {
		if slot == nil {
			ps.tokens[i] = tok
			return Handle{ProcessID: pid, Slot: i}, nil
		}
	}
	return Handle{}, ErrStorageFull
}

// Check reports whether any unexpired token held by pid grants the
// permission. It returns ErrNoTokenStorage when the process has no
// storage at all, ErrTokenExpired when only expired tokens match, and
// ErrPermissionDenied otherwise. Denials are appended to the audit log.
func (s *Store) Check(pid uint32, perm Permission) (bool, error) {
	ps, err := s.storageFor(pid, false)
	if err != nil {
		s.auditDenial(pid, perm, audit.ResultDenied)
		return false, err
	}

	now := s.clock.Now()
	expiredMatch := false

	ps.mu.Lock()
	for _, tok := range ps.tokens {
		if tok == nil || !tok.Has(perm) {
			continue
		}
		if tok.Expired(now) {
			expiredMatch = true
			continue
		}
		ps.mu.Unlock()
		return true, nil
	}
	ps.mu.Unlock()

	if expiredMatch {
		s.auditDenial(pid, perm, audit.ResultExpired)
		return false, ErrTokenExpired
	}
	s.auditDenial(pid, perm, audit.ResultDenied)
	return false, ErrPermissionDenied
}

// Permissions returns the union bitmap of pid's unexpired tokens.
func (s *Store) Permissions(pid uint32) (uint64, error) {
	ps, err := s.storageFor(pid, false)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	var union uint64

	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, tok := range ps.tokens {
		if tok != nil && !tok.Expired(now) {
			union |= tok.Permissions
		}
	}
	return union, nil
}

// TokenCount returns the number of tokens held by pid.
func (s *Store) TokenCount(pid uint32) (int, error) {
	ps, err := s.storageFor(pid, false)
	if err != nil {
		return 0, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	n := 0
	for _, tok := range ps.tokens {
		if tok != nil {
			n++
		}
	}
	return n, nil
}

func (s *Store) storageFor(pid uint32, create bool) (*processStore, error) {
	if int(pid) >= len(s.processes) {
		return nil, ErrInvalidProcess
	}

	s.mu.RLock()
	ps := s.processes[pid]
	s.mu.RUnlock()
	if ps != nil {
		return ps, nil
	}
	if !create {
		return nil, ErrNoTokenStorage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processes[pid] == nil {
		s.processes[pid] = &processStore{tokens: make([]*Token, s.tokensPerProcess)}
	}
	return s.processes[pid], nil
}

func (s *Store) auditDenial(pid uint32, perm Permission, result uint32) {
	if s.log == nil {
		return
	}
	sig := sign(s.signingKey, pid, perm.Bit(), 0)
	var short [audit.SignatureSize]byte
	copy(short[:], sig[:audit.SignatureSize])
	s.log.Append(pid, uint32(perm), result, short)
}
