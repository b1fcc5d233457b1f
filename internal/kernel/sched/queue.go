package sched

// DefaultQueueCapacity is the task limit per CPU.
const DefaultQueueCapacity = 256

// queue is one CPU's run queue. It is owned exclusively by its CPU: all
// mutation happens on that CPU's schedule path, so no locking is needed.
// Adding work-stealing would require layering synchronization on top
// deliberately.
type queue struct {
	tasks    []Task
	capacity int
	current  int // index of the Running task, -1 when idle
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &queue{
		tasks:    make([]Task, 0, capacity),
		capacity: capacity,
		current:  -1,
	}
}

func (q *queue) enqueue(t Task) error {
	if len(q.tasks) >= q.capacity {
		return ErrQueueFull
	}
	q.tasks = append(q.tasks, t)
	return nil
}

// next selects the Ready task with the minimum pass value, ties broken by
// queue position (first match wins), advances its pass by its stride and
// marks it Running. The previously Running task returns to Ready. Returns
// -1 when no task is Ready.
func (q *queue) next() int {
	// Every tick reschedules: the task preempted here competes again on
	// equal footing with its accumulated pass.
	if q.current >= 0 && q.current < len(q.tasks) && q.tasks[q.current].State == Running {
		q.tasks[q.current].State = Ready
	}

	minIdx := -1
	minPass := uint64(1<<64 - 1)
	for i := range q.tasks {
		t := &q.tasks[i]
		if t.State == Ready && t.Pass < minPass {
			minPass = t.Pass
			minIdx = i
		}
	}
	if minIdx < 0 {
		q.current = -1
		return -1
	}

	t := &q.tasks[minIdx]
	t.Pass += uint64(t.Stride)
	t.State = Running
	q.current = minIdx
	return minIdx
}

// terminate marks the task with the given id Terminated.
func (q *queue) terminate(id uint32) error {
	for i := range q.tasks {
		if q.tasks[i].ID == id {
			q.tasks[i].State = Terminated
			if q.current == i {
				q.current = -1
			}
			return nil
		}
	}
	return ErrInvalidTaskID
}

// block marks the task with the given id Blocked.
func (q *queue) block(id uint32) error {
	for i := range q.tasks {
		if q.tasks[i].ID == id {
			q.tasks[i].State = Blocked
			if q.current == i {
				q.current = -1
			}
			return nil
		}
	}
	return ErrInvalidTaskID
}

// unblock returns a Blocked task to Ready.
func (q *queue) unblock(id uint32) error {
	for i := range q.tasks {
		if q.tasks[i].ID == id {
			if q.tasks[i].State == Blocked {
				q.tasks[i].State = Ready
			}
			return nil
		}
	}
	return ErrInvalidTaskID
}

func (q *queue) snapshot() []Task {
	out := make([]Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}
