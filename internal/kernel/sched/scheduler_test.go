package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSeedsIdleTask(t *testing.T) {
	s := New(Config{CPUs: 2}, nil)

	tasks, err := s.Snapshot(0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, IdleTaskID, tasks[0].ID)
	assert.Equal(t, IdleStride, tasks[0].Stride)

	tasks, err = s.Snapshot(1)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestEnqueueQueueFull(t *testing.T) {
	s := New(Config{CPUs: 1, QueueCapacity: 3}, nil)

	// CPU 0 already holds the idle task.
	require.NoError(t, s.Enqueue(0, NewTask(1, 10)))
	require.NoError(t, s.Enqueue(0, NewTask(2, 10)))
	assert.ErrorIs(t, s.Enqueue(0, NewTask(3, 10)), ErrQueueFull)
}

func TestEnqueueInvalidCPU(t *testing.T) {
	s := New(Config{CPUs: 2}, nil)
	assert.ErrorIs(t, s.Enqueue(2, NewTask(1, 10)), ErrInvalidCPU)
}

func TestScheduleSelectsMinimumPass(t *testing.T) {
	s := New(Config{CPUs: 2}, nil)

	require.NoError(t, s.Enqueue(1, NewTask(1, 10)))
	require.NoError(t, s.Enqueue(1, NewTask(2, 10)))

	// Equal pass: queue position breaks the tie, first match wins.
	task, ok := s.Schedule(1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), task.ID)
	assert.Equal(t, uint64(10), task.Pass)

	// Task 1 now carries pass 10, so task 2 at pass 0 is next.
	task, ok = s.Schedule(1)
	require.True(t, ok)
	assert.Equal(t, uint32(2), task.ID)
}

func TestScheduleEmptyQueueIsIdle(t *testing.T) {
	s := New(Config{CPUs: 2}, nil)

	_, ok := s.Schedule(1)
	assert.False(t, ok)
}

func TestPassMonotonicallyNonDecreasing(t *testing.T) {
	s := New(Config{CPUs: 1}, nil)
	require.NoError(t, s.Enqueue(0, NewTask(1, 7)))

	var last uint64
	for i := 0; i < 50; i++ {
		s.Schedule(0)
		tasks, err := s.Snapshot(0)
		require.NoError(t, err)
		for _, task := range tasks {
			if task.ID == 1 {
				require.GreaterOrEqual(t, task.Pass, last)
				last = task.Pass
			}
		}
	}
}

func TestStrideFairness(t *testing.T) {
	s := New(Config{CPUs: 2}, nil)

	// Smaller stride accrues pass more slowly, so it is eligible more
	// often: over a long run task 1 must be selected at least as often
	// as task 2.
	require.NoError(t, s.Enqueue(1, NewTask(1, 5)))
	require.NoError(t, s.Enqueue(1, NewTask(2, 20)))

	counts := map[uint32]int{}
	for i := 0; i < 1000; i++ {
		task, ok := s.Schedule(1)
		require.True(t, ok)
		counts[task.ID]++
	}

	assert.GreaterOrEqual(t, counts[1], counts[2])
	// Selection frequency tracks the stride ratio (4:1) closely.
	assert.InDelta(t, 800, counts[1], 10)
}

func TestTickTriggersSchedule(t *testing.T) {
	var switched []uint32
	switcher := SwitcherFunc(func(cpu uint32, task Task) {
		switched = append(switched, task.ID)
	})

	s := New(Config{CPUs: 1}, switcher)
	require.NoError(t, s.Enqueue(0, NewTask(1, 1)))

	s.Tick(0)
	s.Tick(0)

	assert.Equal(t, uint64(2), s.Ticks())
	assert.Len(t, switched, 2)
}

func TestTerminatedTaskNeverSelected(t *testing.T) {
	s := New(Config{CPUs: 2}, nil)

	require.NoError(t, s.Enqueue(1, NewTask(1, 1)))
	require.NoError(t, s.Enqueue(1, NewTask(2, 100)))
	require.NoError(t, s.Terminate(1, 1))

	for i := 0; i < 20; i++ {
		task, ok := s.Schedule(1)
		require.True(t, ok)
		assert.Equal(t, uint32(2), task.ID)
	}

	assert.ErrorIs(t, s.Terminate(1, 99), ErrInvalidTaskID)
}

func TestBlockAndUnblock(t *testing.T) {
	s := New(Config{CPUs: 2}, nil)

	require.NoError(t, s.Enqueue(1, NewTask(1, 1)))
	require.NoError(t, s.Enqueue(1, NewTask(2, 1)))
	require.NoError(t, s.Block(1, 1))

	task, ok := s.Schedule(1)
	require.True(t, ok)
	assert.Equal(t, uint32(2), task.ID)

	require.NoError(t, s.Unblock(1, 1))
	// Task 1 kept its old pass while blocked and is eligible again.
	task, ok = s.Schedule(1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), task.ID)
}

func TestStats(t *testing.T) {
	s := New(Config{CPUs: 2}, nil)
	require.NoError(t, s.Enqueue(1, NewTask(1, 1)))

	s.Tick(0)
	s.Tick(1)

	stats := s.Stats()
	assert.Equal(t, uint64(2), stats.Ticks)
	assert.Equal(t, 2, stats.CPUs)
	assert.Equal(t, 2, stats.Tasks) // idle on CPU 0 plus task 1 on CPU 1
	assert.GreaterOrEqual(t, stats.ContextSwitches, uint64(2))
}
