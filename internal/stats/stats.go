// Package stats derives session metrics and time-bucketed aggregates.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/verte-zerg/trep/internal/model"
	"github.com/verte-zerg/trep/internal/parser"
)

// NegativeDurationError reports timestamps that go backwards inside a session.
type NegativeDurationError struct {
	Session   int
	StartedAt time.Time
	Delta     time.Duration
}

func (e *NegativeDurationError) Error() string {
	return fmt.Sprintf("session %d (started %s): timestamps go backwards by %s",
		e.Session, parser.FormatTimestamp(e.StartedAt), -e.Delta)
}

// ZeroTranslationTimeError reports pages covered in zero translation time.
type ZeroTranslationTimeError struct {
	Session   int
	StartedAt time.Time
	Pages     float64
}

func (e *ZeroTranslationTimeError) Error() string {
	return fmt.Sprintf("session %d (started %s): %s pages in zero translation time",
		e.Session, parser.FormatTimestamp(e.StartedAt), parser.FormatPosition(e.Pages))
}

// Compute derives span, pauses, translation time, pages and speed for a session.
func Compute(s model.Session, unit model.SpeedUnit) (model.SessionMetrics, error) {
	if unit == "" {
		unit = model.UnitDay
	}
	if err := checkOrder(s); err != nil {
		return model.SessionMetrics{}, err
	}
	span := s.End.At.Sub(s.Start.At)
	pauses := make([]time.Duration, len(s.Pauses))
	var paused time.Duration
	for i, p := range s.Pauses {
		pauses[i] = p.Duration()
		paused += pauses[i]
	}
	m := model.SessionMetrics{
		TotalSpan:       span,
		Pauses:          pauses,
		TranslationTime: span - paused,
		Pages:           s.EndPage() - s.StartPage(),
		Unit:            unit,
	}
	speed, ok := Speed(m.Pages, m.TranslationTime, unit)
	if !ok {
		return model.SessionMetrics{}, &ZeroTranslationTimeError{Session: s.Index, StartedAt: s.Start.At, Pages: m.Pages}
	}
	m.Speed = speed
	return m, nil
}

// Speed returns pages per unit of translation time. ok is false when pages
// were covered in zero time; zero pages in zero time is a speed of 0.
func Speed(pages float64, translation time.Duration, unit model.SpeedUnit) (speed float64, ok bool) {
	seconds := translation.Seconds()
	if seconds == 0 {
		return 0, pages == 0
	}
	return pages * unit.Seconds() / seconds, true
}

// checkOrder requires start, every pause, every resume and the finish to be
// non-decreasing in time.
func checkOrder(s model.Session) error {
	prev := s.Start.At
	step := func(at time.Time) error {
		if d := at.Sub(prev); d < 0 {
			return &NegativeDurationError{Session: s.Index, StartedAt: s.Start.At, Delta: d}
		}
		prev = at
		return nil
	}
	for _, p := range s.Pauses {
		if err := step(p.PausedAt); err != nil {
			return err
		}
		if err := step(p.ResumedAt); err != nil {
			return err
		}
	}
	return step(s.End.At)
}

// DayKey labels the calendar date of t.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekKey labels the ISO week of t by its Monday and week number.
func WeekKey(t time.Time) string {
	_, week := t.ISOWeek()
	return fmt.Sprintf("%s W%02d", WeekStart(t).Format("2006-01-02"), week)
}

// MonthKey labels the calendar month of t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// WeekStart returns midnight of the Monday of t's ISO week.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// Enrich computes metrics and bucket keys for each session, failing on the
// first session that cannot be measured.
func Enrich(sessions []model.Session, unit model.SpeedUnit) ([]model.SessionRecord, error) {
	records := make([]model.SessionRecord, 0, len(sessions))
	for _, s := range sessions {
		m, err := Compute(s, unit)
		if err != nil {
			return nil, err
		}
		records = append(records, model.SessionRecord{
			Session: s,
			Metrics: m,
			Day:     DayKey(s.Start.At),
			Week:    WeekKey(s.Start.At),
			Month:   MonthKey(s.Start.At),
		})
	}
	return records, nil
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// SessionSpeeds extracts per-session speeds in log order.
func SessionSpeeds(records []model.SessionRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Metrics.Speed
	}
	return out
}

// roundPages rounds half away from zero.
func roundPages(v float64) int {
	return int(math.Round(v))
}
