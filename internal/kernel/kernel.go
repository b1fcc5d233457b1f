// Package kernel assembles the coordination core: capability store,
// audit log, IPC channel table, and stride scheduler, owned by a single
// Kernel object with an explicit boot lifecycle in place of ambient
// global state.
package kernel

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aurora-os/nucleus/internal/kernel/audit"
	"github.com/aurora-os/nucleus/internal/kernel/capability"
	"github.com/aurora-os/nucleus/internal/kernel/clock"
	"github.com/aurora-os/nucleus/internal/kernel/ipc"
	"github.com/aurora-os/nucleus/internal/kernel/sched"
)

// Config sizes the core's registries.
type Config struct {
	CPUs             int
	QueueCapacity    int
	MaxChannels      int
	RingSize         int
	MaxProcesses     int
	TokensPerProcess int
	AuditCapacity    int
}

// Kernel owns the core registries. Boot order matters: the capability
// store must exist before the channel layer accepts any send, because
// send unconditionally consults it. The scheduler is independent of both
// and only needs to exist before the first tick.
type Kernel struct {
	BootID       uuid.UUID
	Clock        clock.Clock
	Audit        *audit.Log
	Capabilities *capability.Store
	Channels     *ipc.Manager
	Scheduler    *sched.Scheduler
}

// Boot wires the core in dependency order. The returned kernel is ready
// to accept syscalls; the caller owns the tick source.
func Boot(cfg Config, switcher sched.Switcher) (*Kernel, error) {
	clk := clock.NewMonotonic()
	log := audit.New(cfg.AuditCapacity, clk)

	caps, err := capability.NewStore(capability.Config{
		MaxProcesses:     cfg.MaxProcesses,
		TokensPerProcess: cfg.TokensPerProcess,
	}, clk, log)
	if err != nil {
		return nil, fmt.Errorf("kernel boot: %w", err)
	}

	channels := ipc.NewManager(ipc.Config{
		MaxChannels: cfg.MaxChannels,
		RingSize:    cfg.RingSize,
	}, caps)

	scheduler := sched.New(sched.Config{
		CPUs:          cfg.CPUs,
		QueueCapacity: cfg.QueueCapacity,
	}, switcher)

	return &Kernel{
		BootID:       uuid.New(),
		Clock:        clk,
		Audit:        log,
		Capabilities: caps,
		Channels:     channels,
		Scheduler:    scheduler,
	}, nil
}
