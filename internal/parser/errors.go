package parser

import (
	"fmt"
	"strconv"
)

// InvalidTimestampError reports a line whose timestamp cannot be parsed.
type InvalidTimestampError struct {
	Line  int
	Value string
	Err   error
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("line %d: invalid timestamp %q: %v", e.Line, e.Value, e.Err)
}

func (e *InvalidTimestampError) Unwrap() error {
	return e.Err
}

// InvalidActionError reports a line that is not a valid action.
type InvalidActionError struct {
	Line   int
	Text   string
	Reason string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("line %d: invalid action %q: %s", e.Line, e.Text, e.Reason)
}

// MalformedSessionError reports a missing or misplaced start/finish, or an
// action that is not allowed in the session's current state.
type MalformedSessionError struct {
	Session int
	Line    int
	Reason  string
}

func (e *MalformedSessionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("session %d (line %d): %s", e.Session, e.Line, e.Reason)
	}
	return fmt.Sprintf("session %d: %s", e.Session, e.Reason)
}

// UnpairedPauseError reports a session whose interior actions do not form
// pause/resume pairs.
type UnpairedPauseError struct {
	Session   int
	Line      int
	StartPage float64
	Interior  int
}

func (e *UnpairedPauseError) Error() string {
	return fmt.Sprintf("session %d (line %d, start page %s): %d interior actions do not form pause/resume pairs",
		e.Session, e.Line, strconv.FormatFloat(e.StartPage, 'f', -1, 64), e.Interior)
}
