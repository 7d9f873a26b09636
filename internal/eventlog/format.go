// Package eventlog reads and appends the plain-text action log.
//
// A log starts with "Key: value" header lines, followed by the records title
// line and a separator line. Each finished session is a block of action lines
// terminated by another separator line.
package eventlog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/trep/internal/model"
	"github.com/verte-zerg/trep/internal/parser"
)

// Format holds the tokens that structure a log file.
type Format struct {
	Separator    string
	RecordsTitle string
	EndToken     string
	// MinLines is the smallest valid file: header, title and separator.
	MinLines int
}

// DefaultFormat returns the tokens used by freshly initialized logs.
func DefaultFormat() Format {
	return Format{
		Separator:    "------",
		RecordsTitle: "Action Records:",
		EndToken:     parser.DefaultEndToken,
		MinLines:     6,
	}
}

// WithDefaults fills empty fields from DefaultFormat.
func (f Format) WithDefaults() Format {
	def := DefaultFormat()
	if f.Separator == "" {
		f.Separator = def.Separator
	}
	if f.RecordsTitle == "" {
		f.RecordsTitle = def.RecordsTitle
	}
	if f.EndToken == "" {
		f.EndToken = def.EndToken
	}
	if f.MinLines <= 0 {
		f.MinLines = def.MinLines
	}
	return f
}

// FormatError reports a structural problem with the log file.
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("bad log format (line %d): %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("bad log format: %s", e.Reason)
}

// Snapshot is an in-memory view of a log file.
type Snapshot struct {
	Format Format
	Header model.Header
	Lines  []string
	// Blocks are the finished sessions, in log order.
	Blocks []model.Block
	// Pending holds the actions of an unterminated session, if any.
	Pending model.Block
}

// SplitLines splits file content into lines without terminators.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Check validates the overall layout of a log that has no session in progress.
func Check(lines []string, format Format) error {
	format = format.WithDefaults()
	if len(lines) < format.MinLines {
		return &FormatError{Reason: fmt.Sprintf("bad header: expected at least %d lines, got %d", format.MinLines, len(lines))}
	}
	if _, err := recordsStart(lines, format); err != nil {
		return err
	}
	last := len(lines) - 1
	if strings.TrimSpace(lines[last]) != format.Separator {
		return &FormatError{Line: last + 1, Reason: fmt.Sprintf("last line must be %q", format.Separator)}
	}
	prev := strings.TrimSpace(lines[last-1])
	if prev == format.RecordsTitle {
		return nil
	}
	action, err := parser.ParseAction(prev, last, format.EndToken)
	if err != nil || action.Kind != model.KindFinish {
		return &FormatError{Line: last, Reason: fmt.Sprintf("last action must be %q", format.EndToken)}
	}
	if !action.HasPosition() {
		return &FormatError{Line: last, Reason: fmt.Sprintf("%q needs an end position", format.EndToken)}
	}
	return nil
}

// ParseSnapshot checks the log text and splits it into header and session blocks.
func ParseSnapshot(text string, format Format) (Snapshot, error) {
	format = format.WithDefaults()
	lines := SplitLines(text)
	if err := Check(lines, format); err != nil {
		return Snapshot{}, err
	}
	return split(lines, format)
}

func split(lines []string, format Format) (Snapshot, error) {
	start, err := recordsStart(lines, format)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Format: format,
		Header: ParseHeader(lines[:start-2], format),
		Lines:  lines,
	}
	var current model.Block
	for i := start; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == format.Separator {
			if hasContent(current.Lines) {
				current.Index = len(snap.Blocks) + 1
				snap.Blocks = append(snap.Blocks, current)
			}
			current = model.Block{}
			continue
		}
		if len(current.Lines) == 0 {
			current.FirstLine = i + 1
		}
		current.Lines = append(current.Lines, line)
	}
	if hasContent(current.Lines) {
		current.Index = len(snap.Blocks) + 1
		snap.Pending = current
	}
	return snap, nil
}

// recordsStart returns the index of the first line after the records title
// and its separator.
func recordsStart(lines []string, format Format) (int, error) {
	for i, line := range lines {
		if strings.TrimSpace(line) != format.RecordsTitle {
			continue
		}
		if i+1 >= len(lines) || strings.TrimSpace(lines[i+1]) != format.Separator {
			return 0, &FormatError{Line: i + 2, Reason: fmt.Sprintf("records title must be followed by %q", format.Separator)}
		}
		return i + 2, nil
	}
	return 0, &FormatError{Reason: fmt.Sprintf("missing records title %q", format.RecordsTitle)}
}

func hasContent(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}

// Header keys recognized by ParseHeader and written by Init.
const (
	HeaderTitle      = "Title"
	HeaderAuthor     = "Author"
	HeaderLanguage   = "Language"
	HeaderTotalPages = "Total pages"
)

// ParseHeader reads "Key: value" lines. Unknown keys are kept in Fields.
func ParseHeader(lines []string, format Format) model.Header {
	var h model.Header
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || line == format.Separator {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !found {
			value = ""
		}
		h.Fields = append(h.Fields, model.HeaderField{Key: key, Value: value})
		switch strings.ToLower(key) {
		case strings.ToLower(HeaderTitle):
			h.Title = value
		case strings.ToLower(HeaderAuthor):
			h.Author = value
		case strings.ToLower(HeaderLanguage):
			h.Language = value
		case strings.ToLower(HeaderTotalPages), "pages":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				h.TotalPages = v
			}
		}
	}
	return h
}

// RenderHeader writes the header fields of a new log.
func RenderHeader(h model.Header) []string {
	total := ""
	if h.TotalPages > 0 {
		total = parser.FormatPosition(h.TotalPages)
	}
	return []string{
		fmt.Sprintf("%s: %s", HeaderTitle, h.Title),
		fmt.Sprintf("%s: %s", HeaderAuthor, h.Author),
		fmt.Sprintf("%s: %s", HeaderLanguage, h.Language),
		fmt.Sprintf("%s: %s", HeaderTotalPages, total),
	}
}
