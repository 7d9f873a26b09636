package parser

import "github.com/verte-zerg/trep/internal/model"

// State is the lifecycle position of a session while its actions are read.
type State int

// Session lifecycle states.
const (
	NotStarted State = iota
	Active
	Paused
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Active:
		return "active"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Next returns the state after kind, or false when kind is not allowed.
// A finish is only accepted while active; Finished is terminal.
func (s State) Next(kind model.ActionKind) (State, bool) {
	switch s {
	case NotStarted:
		if kind == model.KindStart {
			return Active, true
		}
	case Active:
		switch kind {
		case model.KindPause:
			return Paused, true
		case model.KindFinish:
			return Finished, true
		}
	case Paused:
		if kind == model.KindResume {
			return Active, true
		}
	}
	return s, false
}

// Replay feeds kinds through the state machine starting from NotStarted.
// ok is false at the first illegal transition, with the state reached so far.
func Replay(kinds []model.ActionKind) (State, bool) {
	st := NotStarted
	for _, k := range kinds {
		next, ok := st.Next(k)
		if !ok {
			return st, false
		}
		st = next
	}
	return st, true
}

// Allows reports whether kind may follow the state.
func (s State) Allows(kind model.ActionKind) bool {
	_, ok := s.Next(kind)
	return ok
}
