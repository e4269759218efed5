package judge

import "fmt"

// State is where a workspace is in its judging lifecycle:
// NotBuilt -> Built -> (Running -> Passed|Failed)* -> Done
type State int

const (
	StateNotBuilt State = iota
	StateBuilt
	StateRunning
	StatePassed
	StateFailed
	StateDone
)

func (s State) String() string {
	switch s {
	case StateNotBuilt:
		return "not-built"
	case StateBuilt:
		return "built"
	case StateRunning:
		return "running"
	case StatePassed:
		return "passed"
	case StateFailed:
		return "failed"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
