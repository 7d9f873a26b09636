package eventlog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/trep/internal/model"
	"github.com/verte-zerg/trep/internal/parser"
)

// ErrLogExists is returned by Init when the log file is already present.
var ErrLogExists = errors.New("log file already exists")

// Log is a log file on disk. It assumes a single writer.
type Log struct {
	path   string
	format Format
	now    func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the time source used for new actions.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// New returns a Log for path. No file access happens until a method is called.
func New(path string, format Format, opts ...Option) *Log {
	l := &Log{
		path:   path,
		format: format.WithDefaults(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Format returns the tokens in use.
func (l *Log) Format() Format {
	return l.format
}

// Read loads and checks the log.
func (l *Log) Read() (Snapshot, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read log: %w", err)
	}
	return ParseSnapshot(string(data), l.format)
}

// Init creates a new log with the given header.
func (l *Log) Init(h model.Header) error {
	if _, err := os.Stat(l.path); err == nil {
		return fmt.Errorf("%w: %s", ErrLogExists, l.path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat log: %w", err)
	}
	lines := RenderHeader(h)
	lines = append(lines, l.format.RecordsTitle, l.format.Separator)
	return writeLines(l.path, lines)
}

// Status describes the log's trailing, unterminated session.
type Status struct {
	State parser.State
	// Pending are the actions of the session in progress.
	Pending []model.Action
	// LastPosition is the end position of the most recent finished session.
	LastPosition *float64
	Sessions     int
	// Blocks are the finished sessions before the one in progress.
	Blocks []model.Block
}

// Status inspects the log without requiring the trailing separator.
func (l *Log) Status() (Status, error) {
	lines, err := l.readLines()
	if err != nil {
		return Status{}, err
	}
	snap, err := split(lines, l.format)
	if err != nil {
		return Status{}, err
	}
	st := Status{State: parser.NotStarted, Sessions: len(snap.Blocks), Blocks: snap.Blocks}
	if n := len(snap.Blocks); n > 0 {
		st.LastPosition = lastPosition(snap.Blocks[n-1], l.format)
	}
	if len(snap.Pending.Lines) == 0 {
		return st, nil
	}
	kinds := make([]model.ActionKind, 0, len(snap.Pending.Lines))
	for i, line := range snap.Pending.Lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		action, err := parser.ParseAction(line, snap.Pending.FirstLine+i, l.format.EndToken)
		if err != nil {
			return Status{}, err
		}
		st.Pending = append(st.Pending, action)
		kinds = append(kinds, action.Kind)
	}
	state, ok := parser.Replay(kinds)
	if !ok {
		return Status{}, &FormatError{
			Line:   st.Pending[len(st.Pending)-1].Line,
			Reason: fmt.Sprintf("session in progress is inconsistent (%s)", state),
		}
	}
	st.State = state
	return st, nil
}

// LastPosition returns the end position of the last finished session, or nil.
func (l *Log) LastPosition() (*float64, error) {
	st, err := l.Status()
	if err != nil {
		return nil, err
	}
	return st.LastPosition, nil
}

// Append writes a start, pause or resume action stamped with the current time.
func (l *Log) Append(kind model.ActionKind, position *float64) (model.Action, error) {
	if kind == model.KindFinish {
		return model.Action{}, fmt.Errorf("use Finish to end a session")
	}
	st, err := l.Status()
	if err != nil {
		return model.Action{}, err
	}
	if !st.State.Allows(kind) {
		return model.Action{}, fmt.Errorf("cannot %s: session is %s", kind, st.State)
	}
	if kind == model.KindStart {
		lines, err := l.readLines()
		if err != nil {
			return model.Action{}, err
		}
		if err := Check(lines, l.format); err != nil {
			return model.Action{}, err
		}
	}
	action := model.Action{At: l.now(), Kind: kind, Position: position}
	line := formatAction(action.At, string(kind), position)

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return model.Action{}, fmt.Errorf("failed to open log: %w", err)
	}
	if _, err := file.WriteString(line + "\n"); err != nil {
		_ = file.Close()
		return model.Action{}, fmt.Errorf("failed to append action: %w", err)
	}
	if err := file.Close(); err != nil {
		return model.Action{}, fmt.Errorf("failed to close log: %w", err)
	}
	return action, nil
}

// Finish ends the session in progress at position. When the session is
// paused, the trailing pause line is replaced by the finish line and keeps
// the pause timestamp, so paused time after it is not counted. When active,
// the finish is stamped with the current time.
func (l *Log) Finish(position float64) (model.Action, error) {
	st, err := l.Status()
	if err != nil {
		return model.Action{}, err
	}
	lines, err := l.readLines()
	if err != nil {
		return model.Action{}, err
	}
	action := model.Action{Kind: model.KindFinish, Position: &position}
	switch st.State {
	case parser.Paused:
		pause := st.Pending[len(st.Pending)-1]
		idx := pause.Line - 1
		action.At = pause.At
		lines[idx] = formatAction(pause.At, l.format.EndToken, &position)
		lines = lines[:idx+1]
	case parser.Active:
		action.At = l.now()
		lines = append(trimTrailingBlank(lines), formatAction(action.At, l.format.EndToken, &position))
	default:
		return model.Action{}, fmt.Errorf("cannot finish: session is %s", st.State)
	}
	lines = append(lines, l.format.Separator)
	if err := writeLines(l.path, lines); err != nil {
		return model.Action{}, err
	}
	return action, nil
}

func (l *Log) readLines() ([]string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return SplitLines(string(data)), nil
}

func lastPosition(block model.Block, format Format) *float64 {
	for i := len(block.Lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(block.Lines[i]) == "" {
			continue
		}
		action, err := parser.ParseAction(block.Lines[i], block.FirstLine+i, format.EndToken)
		if err != nil || !action.HasPosition() {
			return nil
		}
		return action.Position
	}
	return nil
}

// formatAction renders "<timestamp> <word> <position>"; a missing position
// leaves the trailing field empty.
func formatAction(at time.Time, word string, position *float64) string {
	pos := ""
	if position != nil {
		pos = parser.FormatPosition(*position)
	}
	return fmt.Sprintf("%s %s %s", parser.FormatTimestamp(at), word, pos)
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "trep-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp log: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	for _, line := range lines {
		if _, err := fmt.Fprintln(writer, line); err != nil {
			return fmt.Errorf("failed to write log: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush log: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close log: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write log: %w", err)
	}
	return nil
}
