package model

// LockdownState is the finite state set the lockdown engine (C5) moves
// through. Transitions are explicit — see internal/lockdown.
type LockdownState int

const (
	StateIdle LockdownState = iota
	StateInitializing
	StatePreCheck
	StateLocked
	StateExamActive
	StateShuttingDown
	StateError
)

func (s LockdownState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateInitializing:
		return "Initializing"
	case StatePreCheck:
		return "PreCheck"
	case StateLocked:
		return "Locked"
	case StateExamActive:
		return "ExamActive"
	case StateShuttingDown:
		return "ShuttingDown"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}
