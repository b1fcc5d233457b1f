package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurora-os/nucleus/internal/kernel/sched"
)

func newTestProvider() *Provider {
	return NewProvider(sched.New(sched.Config{CPUs: 2}, nil))
}

func TestEnqueueAndSchedule(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	result, err := p.Execute(ctx, "scheduler.enqueue", map[string]interface{}{
		"cpu":     1.0,
		"task_id": 5.0,
		"stride":  10.0,
	}, nil)
	require.NoError(t, err)
	require.True(t, result.Success)

	result, err = p.Execute(ctx, "scheduler.schedule", map[string]interface{}{
		"cpu": 1.0,
	}, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, false, result.Data["idle"])
	assert.Equal(t, uint32(5), result.Data["task_id"])
	assert.Equal(t, uint64(10), result.Data["pass"])
}

func TestScheduleIdleCPU(t *testing.T) {
	p := newTestProvider()

	// CPU 1 has no tasks; idle is normal, not an error.
	result, err := p.Execute(context.Background(), "scheduler.schedule", map[string]interface{}{
		"cpu": 1.0,
	}, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, true, result.Data["idle"])
}

func TestEnqueueRejectsZeroStride(t *testing.T) {
	p := newTestProvider()

	result, err := p.Execute(context.Background(), "scheduler.enqueue", map[string]interface{}{
		"cpu":     0.0,
		"task_id": 1.0,
		"stride":  0.0,
	}, nil)
	assert.Error(t, err)
	assert.False(t, result.Success)
}

func TestTickAdvancesCounter(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	for i := uint64(1); i <= 3; i++ {
		result, err := p.Execute(ctx, "scheduler.tick", map[string]interface{}{}, nil)
		require.NoError(t, err)
		assert.Equal(t, i, result.Data["ticks"])
	}
}

func TestStatsAndQueue(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	_, err := p.Execute(ctx, "scheduler.enqueue", map[string]interface{}{
		"cpu":     0.0,
		"task_id": 9.0,
		"stride":  4.0,
	}, nil)
	require.NoError(t, err)

	result, err := p.Execute(ctx, "scheduler.stats", map[string]interface{}{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Data["cpus"])
	assert.Equal(t, 2, result.Data["tasks"]) // idle plus task 9

	result, err = p.Execute(ctx, "scheduler.queue", map[string]interface{}{
		"cpu": 0.0,
	}, nil)
	require.NoError(t, err)
	tasks := result.Data["tasks"].([]map[string]interface{})
	require.Len(t, tasks, 2)
	assert.Equal(t, "ready", tasks[0]["state"])
}

func TestTerminateUnknownTask(t *testing.T) {
	p := newTestProvider()

	result, err := p.Execute(context.Background(), "scheduler.terminate", map[string]interface{}{
		"cpu":     0.0,
		"task_id": 42.0,
	}, nil)
	assert.Error(t, err)
	assert.False(t, result.Success)
}
