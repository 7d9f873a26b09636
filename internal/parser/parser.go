// Package parser turns raw log lines into actions and sessions.
package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/trep/internal/model"
)

// TimestampLayout is the layout used when writing actions.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// DefaultEndToken is the word written for a finish action.
const DefaultEndToken = "end"

// Accepts an optional fractional second, like Python's isoformat().
const naiveLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp parses an ISO-8601 timestamp as zone-free wall clock time.
// A zone offset, if present, is dropped so durations never cross zones.
func ParseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(naiveLayout, value)
	if err == nil {
		return t, nil
	}
	zoned, zerr := time.Parse(time.RFC3339Nano, value)
	if zerr != nil {
		return time.Time{}, err
	}
	return time.Date(zoned.Year(), zoned.Month(), zoned.Day(), zoned.Hour(), zoned.Minute(), zoned.Second(), zoned.Nanosecond(), time.UTC), nil
}

// FormatTimestamp renders t the way actions are written to the log.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FormatPosition renders a page marker the way the log stores it ("12.0", "12.5").
func FormatPosition(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ParseKind maps a log word to an action kind.
func ParseKind(word, endToken string) (model.ActionKind, bool) {
	if endToken == "" {
		endToken = DefaultEndToken
	}
	switch word {
	case string(model.KindStart):
		return model.KindStart, true
	case string(model.KindPause):
		return model.KindPause, true
	case string(model.KindResume):
		return model.KindResume, true
	case string(model.KindFinish), endToken:
		return model.KindFinish, true
	}
	return "", false
}

// ParseAction parses "<timestamp> <kind> [<position>]".
func ParseAction(line string, lineNo int, endToken string) (model.Action, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 {
		return model.Action{}, &InvalidActionError{
			Line:   lineNo,
			Text:   strings.TrimSpace(line),
			Reason: fmt.Sprintf("expected 2 or 3 fields, got %d", len(fields)),
		}
	}
	at, err := ParseTimestamp(fields[0])
	if err != nil {
		return model.Action{}, &InvalidTimestampError{Line: lineNo, Value: fields[0], Err: err}
	}
	kind, ok := ParseKind(fields[1], endToken)
	if !ok {
		return model.Action{}, &InvalidActionError{
			Line:   lineNo,
			Text:   strings.TrimSpace(line),
			Reason: fmt.Sprintf("unknown action %q", fields[1]),
		}
	}
	action := model.Action{At: at, Kind: kind, Line: lineNo}
	if len(fields) == 3 {
		pos, err := strconv.ParseFloat(fields[2], 64)
		if err != nil || math.IsNaN(pos) || math.IsInf(pos, 0) {
			return model.Action{}, &InvalidActionError{
				Line:   lineNo,
				Text:   strings.TrimSpace(line),
				Reason: fmt.Sprintf("invalid position %q", fields[2]),
			}
		}
		action.Position = &pos
	}
	return action, nil
}

type numberedLine struct {
	no   int
	text string
}

// ParseSession converts one session block into a Session. The first action
// must be a start, the last a finish, both with a position, and the actions
// between them must be consecutive pause/resume pairs.
func ParseSession(block model.Block, endToken string) (model.Session, error) {
	lines := nonBlankLines(block)
	if len(lines) == 0 {
		return model.Session{}, &MalformedSessionError{Session: block.Index, Line: block.FirstLine, Reason: "empty session"}
	}

	first, err := ParseAction(lines[0].text, lines[0].no, endToken)
	if err != nil {
		return model.Session{}, err
	}
	if first.Kind != model.KindStart {
		return model.Session{}, &MalformedSessionError{
			Session: block.Index,
			Line:    first.Line,
			Reason:  fmt.Sprintf("first action must be start, got %s", first.Kind),
		}
	}
	if len(lines) == 1 {
		return model.Session{}, &MalformedSessionError{Session: block.Index, Line: first.Line, Reason: "missing finish"}
	}
	lastLine := lines[len(lines)-1]
	last, err := ParseAction(lastLine.text, lastLine.no, endToken)
	if err != nil {
		return model.Session{}, err
	}
	if last.Kind != model.KindFinish {
		return model.Session{}, &MalformedSessionError{
			Session: block.Index,
			Line:    last.Line,
			Reason:  fmt.Sprintf("last action must be finish, got %s", last.Kind),
		}
	}
	if !first.HasPosition() {
		return model.Session{}, &MalformedSessionError{Session: block.Index, Line: first.Line, Reason: "start without position"}
	}
	if !last.HasPosition() {
		return model.Session{}, &MalformedSessionError{Session: block.Index, Line: last.Line, Reason: "finish without position"}
	}

	interior := lines[1 : len(lines)-1]
	if len(interior)%2 != 0 {
		return model.Session{}, &UnpairedPauseError{
			Session:   block.Index,
			Line:      first.Line,
			StartPage: first.Page(),
			Interior:  len(interior),
		}
	}

	session := model.Session{
		Index:  block.Index,
		Start:  first,
		End:    last,
		Pauses: make([]model.Pause, 0, len(interior)/2),
	}
	st := Active
	var pausedAt time.Time
	for _, ln := range interior {
		action, err := ParseAction(ln.text, ln.no, endToken)
		if err != nil {
			return model.Session{}, err
		}
		next, ok := st.Next(action.Kind)
		if !ok {
			return model.Session{}, &MalformedSessionError{
				Session: block.Index,
				Line:    action.Line,
				Reason:  fmt.Sprintf("%s while %s", action.Kind, st),
			}
		}
		switch action.Kind {
		case model.KindPause:
			pausedAt = action.At
		case model.KindResume:
			session.Pauses = append(session.Pauses, model.Pause{PausedAt: pausedAt, ResumedAt: action.At})
		}
		st = next
	}
	if _, ok := st.Next(model.KindFinish); !ok {
		return model.Session{}, &MalformedSessionError{
			Session: block.Index,
			Line:    last.Line,
			Reason:  fmt.Sprintf("finish while %s", st),
		}
	}
	return session, nil
}

// ParseSessions parses every block and stops at the first error.
func ParseSessions(blocks []model.Block, endToken string) ([]model.Session, error) {
	sessions := make([]model.Session, 0, len(blocks))
	for _, block := range blocks {
		s, err := ParseSession(block, endToken)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func nonBlankLines(block model.Block) []numberedLine {
	out := make([]numberedLine, 0, len(block.Lines))
	for i, line := range block.Lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		no := 0
		if block.FirstLine > 0 {
			no = block.FirstLine + i
		}
		out = append(out, numberedLine{no: no, text: line})
	}
	return out
}
