package core

import "time"

// RunState is the lifecycle phase of a background simulation run.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateDone
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunStatus is a snapshot of the background run lifecycle. Err is empty
// unless State is StateFailed.
type RunStatus struct {
	State      RunState  `json:"-"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Err        string    `json:"error,omitempty"`
}
