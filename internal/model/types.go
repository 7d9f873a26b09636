// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// ActionKind is the kind of a recorded action.
type ActionKind string

// Action kinds as they appear in the log. Finish is written with the log's end token.
const (
	KindStart  ActionKind = "start"
	KindPause  ActionKind = "pause"
	KindResume ActionKind = "resume"
	KindFinish ActionKind = "finish"
)

// Action is a single timestamped log line.
type Action struct {
	At       time.Time
	Kind     ActionKind
	Position *float64
	// Line is the 1-based line number in the log, 0 when unknown.
	Line int
}

// HasPosition reports whether the action carries a page marker.
func (a Action) HasPosition() bool {
	return a.Position != nil
}

// Page returns the page marker or 0 when absent.
func (a Action) Page() float64 {
	if a.Position == nil {
		return 0
	}
	return *a.Position
}

// Pause is one pause/resume interval inside a session.
type Pause struct {
	PausedAt  time.Time
	ResumedAt time.Time
}

// Duration returns the time spent paused.
func (p Pause) Duration() time.Duration {
	return p.ResumedAt.Sub(p.PausedAt)
}

// Session is one start-to-finish unit of work.
type Session struct {
	// Index is the 1-based position of the session in the log.
	Index  int
	Start  Action
	End    Action
	Pauses []Pause
}

// StartPage returns the position recorded at start.
func (s Session) StartPage() float64 {
	return s.Start.Page()
}

// EndPage returns the position recorded at finish.
func (s Session) EndPage() float64 {
	return s.End.Page()
}

// SpeedUnit selects the time unit used for speed.
type SpeedUnit string

// Supported speed units.
const (
	UnitDay  SpeedUnit = "day"
	UnitHour SpeedUnit = "hour"
)

// Seconds returns the length of the unit in seconds.
func (u SpeedUnit) Seconds() float64 {
	if u == UnitHour {
		return 3600
	}
	return 86400
}

// ParseSpeedUnit validates a unit name.
func ParseSpeedUnit(s string) (SpeedUnit, error) {
	switch SpeedUnit(s) {
	case UnitDay, UnitHour:
		return SpeedUnit(s), nil
	case "":
		return UnitDay, nil
	default:
		return "", fmt.Errorf("unknown speed unit %q (use day or hour)", s)
	}
}

// SessionMetrics holds values derived from a session.
type SessionMetrics struct {
	TotalSpan       time.Duration
	Pauses          []time.Duration
	TranslationTime time.Duration
	Pages           float64
	Speed           float64
	Unit            SpeedUnit
}

// SessionRecord is a session decorated with metrics and bucket keys.
type SessionRecord struct {
	Session Session
	Metrics SessionMetrics
	Day     string
	Week    string
	Month   string
}

// TranslationMinutes returns the net translation time in minutes.
func (r SessionRecord) TranslationMinutes() float64 {
	return r.Metrics.TranslationTime.Minutes()
}

// Bucket selects the time bucket used for aggregation.
type Bucket string

// Supported buckets.
const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// Buckets lists buckets in display order.
var Buckets = []Bucket{BucketDay, BucketWeek, BucketMonth}

// Key returns the record's label for the bucket.
func (b Bucket) Key(r SessionRecord) string {
	switch b {
	case BucketWeek:
		return r.Week
	case BucketMonth:
		return r.Month
	default:
		return r.Day
	}
}

// SeriesPoint is one labeled value of an aggregate series.
type SeriesPoint struct {
	Key   string
	Pages int
}

// ReportConfig defines filters and options for report output.
type ReportConfig struct {
	Unit        SpeedUnit
	Since       *time.Time
	Last        int
	CurveWindow int
}

// Header describes the translated work, stored at the top of the log.
type Header struct {
	Title      string
	Author     string
	Language   string
	TotalPages float64
	// Fields keeps every header entry, including unknown keys, in file order.
	Fields []HeaderField
}

// HeaderField is a raw "Key: value" header entry.
type HeaderField struct {
	Key   string
	Value string
}

// Block is the raw text of one session, as split from the log.
type Block struct {
	// Index is the 1-based position of the session in the log.
	Index int
	// FirstLine is the 1-based log line number of Lines[0].
	FirstLine int
	Lines     []string
}
