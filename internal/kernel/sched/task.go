package sched

// State is a task's run state.
type State uint8

const (
	Ready State = iota
	Running
	Blocked
	Terminated
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// Task is a schedulable unit. Stride is the inverse of priority: a task
// with a smaller stride accrues pass more slowly per selection and is
// therefore chosen more often. Pass is monotonically non-decreasing and
// advances only when the task is selected.
type Task struct {
	ID     uint32 `json:"id"`
	Stride uint32 `json:"stride"`
	Pass   uint64 `json:"pass"`
	State  State  `json:"state"`

	// Saved execution context, opaque to the core.
	StackPtr       uint64 `json:"stack_ptr"`
	InstructionPtr uint64 `json:"instruction_ptr"`
}

// NewTask creates a Ready task with zero pass.
func NewTask(id, stride uint32) Task {
	return Task{ID: id, Stride: stride, State: Ready}
}
