// Package sched implements a stride scheduler over per-CPU run queues.
//
// Each CPU owns its queue exclusively; there is no cross-CPU state and no
// task migration. A scheduling decision is O(n) over the queue: pick the
// Ready task with the minimum pass, advance its pass by its stride, mark
// it Running. Integer arithmetic only, no ordered structure to maintain,
// which keeps the decision cheap on the interrupt-adjacent tick path.
package sched

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Defaults mirroring the per-CPU sizing of the surrounding kernel.
const (
	DefaultMaxCPUs = 256

	// IdleTaskID and IdleStride describe the idle task seeded onto CPU 0
	// at init: low priority via a large stride.
	IdleTaskID uint32 = 0
	IdleStride uint32 = 100
)

// Errors returned by the scheduler.
var (
	ErrQueueFull        = errors.New("sched: run queue full")
	ErrNoTasksAvailable = errors.New("sched: no tasks available")
	ErrInvalidTaskID    = errors.New("sched: unknown task id")
	ErrInvalidCPU       = errors.New("sched: cpu id out of range")
)

// Switcher receives control transfers. The scheduler calls it with the
// selected task on every decision; the surrounding system supplies the
// actual context-switch mechanism.
type Switcher interface {
	Switch(cpu uint32, task Task)
}

// SwitcherFunc adapts a function to the Switcher interface.
type SwitcherFunc func(cpu uint32, task Task)

func (f SwitcherFunc) Switch(cpu uint32, task Task) { f(cpu, task) }

// Stats is a point-in-time view of scheduler counters.
type Stats struct {
	Ticks           uint64 `json:"ticks"`
	ContextSwitches uint64 `json:"context_switches"`
	CPUs            int    `json:"cpus"`
	Tasks           int    `json:"tasks"`
}

// Scheduler owns one run queue per CPU plus the global tick counter.
// Queues are guarded by per-CPU mutexes only because, in this rendition,
// tick delivery and the HTTP surface may touch a queue from different
// goroutines; on real hardware each queue is touched only by its CPU.
type Scheduler struct {
	queues []*queue
	locks  []sync.Mutex

	ticks    atomic.Uint64
	switches atomic.Uint64
	switcher Switcher
}

// Config sizes a scheduler.
type Config struct {
	CPUs          int
	QueueCapacity int
}

// New creates a scheduler and seeds CPU 0 with the idle task.
func New(cfg Config, switcher Switcher) *Scheduler {
	if cfg.CPUs <= 0 {
		cfg.CPUs = 1
	}
	if cfg.CPUs > DefaultMaxCPUs {
		cfg.CPUs = DefaultMaxCPUs
	}

	s := &Scheduler{
		queues:   make([]*queue, cfg.CPUs),
		locks:    make([]sync.Mutex, cfg.CPUs),
		switcher: switcher,
	}
	for i := range s.queues {
		s.queues[i] = newQueue(cfg.QueueCapacity)
	}

	// Idle task keeps CPU 0 schedulable from the first tick.
	_ = s.queues[0].enqueue(NewTask(IdleTaskID, IdleStride))
	return s
}

// Enqueue appends a task to a specific CPU's queue. The task never
// migrates afterwards.
func (s *Scheduler) Enqueue(cpu uint32, t Task) error {
	if int(cpu) >= len(s.queues) {
		return ErrInvalidCPU
	}
	s.locks[cpu].Lock()
	defer s.locks[cpu].Unlock()
	return s.queues[cpu].enqueue(t)
}

// Tick handles one timer interrupt on the given CPU: it increments the
// global tick counter and triggers an immediate scheduling decision.
func (s *Scheduler) Tick(cpu uint32) {
	s.ticks.Add(1)
	s.Schedule(cpu)
}

// Schedule performs one decision on the CPU's queue. An empty queue is
// normal idle state, not an error; the selected task, if any, is handed
// to the Switcher.
func (s *Scheduler) Schedule(cpu uint32) (Task, bool) {
	if int(cpu) >= len(s.queues) {
		return Task{}, false
	}

	s.locks[cpu].Lock()
	q := s.queues[cpu]
	idx := q.next()
	if idx < 0 {
		s.locks[cpu].Unlock()
		return Task{}, false
	}
	selected := q.tasks[idx]
	s.locks[cpu].Unlock()

	s.switches.Add(1)
	if s.switcher != nil {
		s.switcher.Switch(cpu, selected)
	}
	return selected, true
}

// Terminate marks a task Terminated; it is never selected again.
func (s *Scheduler) Terminate(cpu, taskID uint32) error {
	if int(cpu) >= len(s.queues) {
		return ErrInvalidCPU
	}
	s.locks[cpu].Lock()
	defer s.locks[cpu].Unlock()
	return s.queues[cpu].terminate(taskID)
}

// Block marks a task Blocked until Unblock returns it to Ready.
func (s *Scheduler) Block(cpu, taskID uint32) error {
	if int(cpu) >= len(s.queues) {
		return ErrInvalidCPU
	}
	s.locks[cpu].Lock()
	defer s.locks[cpu].Unlock()
	return s.queues[cpu].block(taskID)
}

// Unblock returns a Blocked task to Ready.
func (s *Scheduler) Unblock(cpu, taskID uint32) error {
	if int(cpu) >= len(s.queues) {
		return ErrInvalidCPU
	}
	s.locks[cpu].Lock()
	defer s.locks[cpu].Unlock()
	return s.queues[cpu].unblock(taskID)
}

// Run drives the CPU's schedule loop from the tick source until the
// context is cancelled. It is the software stand-in for the
// halt-until-interrupt loop: each value from ticks is one timer
// interrupt.
func (s *Scheduler) Run(ctx context.Context, cpu uint32, ticks <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			s.Tick(cpu)
		}
	}
}

// Ticks returns the global tick count.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

// Stats returns a snapshot of scheduler counters.
func (s *Scheduler) Stats() Stats {
	tasks := 0
	for i := range s.queues {
		s.locks[i].Lock()
		tasks += len(s.queues[i].tasks)
		s.locks[i].Unlock()
	}
	return Stats{
		Ticks:           s.ticks.Load(),
		ContextSwitches: s.switches.Load(),
		CPUs:            len(s.queues),
		Tasks:           tasks,
	}
}

// Snapshot returns a copy of one CPU's queue for inspection.
func (s *Scheduler) Snapshot(cpu uint32) ([]Task, error) {
	if int(cpu) >= len(s.queues) {
		return nil, ErrInvalidCPU
	}
	s.locks[cpu].Lock()
	defer s.locks[cpu].Unlock()
	return s.queues[cpu].snapshot(), nil
}
