package stats

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/trep/internal/model"
	"github.com/verte-zerg/trep/internal/parser"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := parser.ParseTimestamp(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func page(v float64) *float64 {
	return &v
}

func session(t *testing.T, start string, startPage float64, end string, endPage float64, pauses ...[2]string) model.Session {
	t.Helper()
	s := model.Session{
		Index: 1,
		Start: model.Action{At: at(t, start), Kind: model.KindStart, Position: page(startPage)},
		End:   model.Action{At: at(t, end), Kind: model.KindFinish, Position: page(endPage)},
	}
	for _, p := range pauses {
		s.Pauses = append(s.Pauses, model.Pause{PausedAt: at(t, p[0]), ResumedAt: at(t, p[1])})
	}
	return s
}

func TestComputeExampleSession(t *testing.T) {
	block := model.Block{Index: 1, FirstLine: 1, Lines: strings.Split(
		"2024-01-01T10:00:00.000000 start 0\n"+
			"2024-01-01T10:30:00.000000 pause \n"+
			"2024-01-01T10:40:00.000000 resume \n"+
			"2024-01-01T12:00:00.000000 end 20", "\n")}
	s, err := parser.ParseSession(block, parser.DefaultEndToken)
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	m, err := Compute(s, model.UnitHour)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if m.Pages != 20 {
		t.Fatalf("expected 20 pages, got %v", m.Pages)
	}
	if m.TotalSpan != 2*time.Hour {
		t.Fatalf("expected span 2h, got %s", m.TotalSpan)
	}
	if len(m.Pauses) != 1 || m.Pauses[0] != 10*time.Minute {
		t.Fatalf("expected one 10m pause, got %v", m.Pauses)
	}
	if m.TranslationTime != 110*time.Minute {
		t.Fatalf("expected 1h50m translation time, got %s", m.TranslationTime)
	}
	if math.Abs(m.Speed-20/(110.0/60)) > 1e-9 {
		t.Fatalf("unexpected speed %v", m.Speed)
	}
	if got := math.Round(m.Speed*100) / 100; got != 10.91 {
		t.Fatalf("expected speed ~10.91, got %v", got)
	}
}

func TestComputeWithoutPauses(t *testing.T) {
	s := session(t, "2024-01-01T08:00:00", 0, "2024-01-01T18:00:00", 50)
	m, err := Compute(s, model.UnitHour)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if m.TranslationTime != m.TotalSpan {
		t.Fatalf("translation time %s should equal span %s", m.TranslationTime, m.TotalSpan)
	}
	if len(m.Pauses) != 0 {
		t.Fatalf("expected no pauses, got %v", m.Pauses)
	}
	if m.Speed != 5.0 {
		t.Fatalf("expected 5.0 pages/hour, got %v", m.Speed)
	}

	daily, err := Compute(s, model.UnitDay)
	if err != nil {
		t.Fatalf("compute daily: %v", err)
	}
	if daily.Speed != 120.0 {
		t.Fatalf("expected 120 pages/day, got %v", daily.Speed)
	}
}

func TestComputeTwoPauses(t *testing.T) {
	s := session(t, "2024-01-01T08:00:00", 10, "2024-01-01T12:00:00", 4,
		[2]string{"2024-01-01T09:00:00", "2024-01-01T09:15:00"},
		[2]string{"2024-01-01T10:00:00", "2024-01-01T10:45:00"},
	)
	m, err := Compute(s, model.UnitHour)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(m.Pauses) != 2 || m.Pauses[0] != 15*time.Minute || m.Pauses[1] != 45*time.Minute {
		t.Fatalf("unexpected pauses %v", m.Pauses)
	}
	if m.TranslationTime != 3*time.Hour {
		t.Fatalf("expected 3h translation time, got %s", m.TranslationTime)
	}
	if m.Pages != -6 {
		t.Fatalf("pages must not be clamped, got %v", m.Pages)
	}
	if m.Speed != -2 {
		t.Fatalf("expected -2 pages/hour, got %v", m.Speed)
	}
}

func TestComputeZeroTranslationTime(t *testing.T) {
	s := session(t, "2024-01-01T08:00:00", 0, "2024-01-01T09:00:00", 5,
		[2]string{"2024-01-01T08:00:00", "2024-01-01T09:00:00"},
	)
	_, err := Compute(s, model.UnitDay)
	var zero *ZeroTranslationTimeError
	if !errors.As(err, &zero) {
		t.Fatalf("expected ZeroTranslationTimeError, got %v", err)
	}
	if zero.Pages != 5 {
		t.Fatalf("expected 5 pages in error, got %v", zero.Pages)
	}

	idle := session(t, "2024-01-01T08:00:00", 5, "2024-01-01T08:00:00", 5)
	m, err := Compute(idle, model.UnitDay)
	if err != nil {
		t.Fatalf("zero pages in zero time should not fail: %v", err)
	}
	if m.Speed != 0 {
		t.Fatalf("expected speed 0, got %v", m.Speed)
	}
}

func TestComputeNegativeDuration(t *testing.T) {
	s := session(t, "2024-01-01T08:00:00", 0, "2024-01-01T12:00:00", 5,
		[2]string{"2024-01-01T10:00:00", "2024-01-01T09:00:00"},
	)
	s.Index = 4
	_, err := Compute(s, model.UnitDay)
	var neg *NegativeDurationError
	if !errors.As(err, &neg) {
		t.Fatalf("expected NegativeDurationError, got %v", err)
	}
	if neg.Session != 4 || neg.Delta != -time.Hour {
		t.Fatalf("unexpected error fields %+v", neg)
	}
	if !strings.Contains(err.Error(), "session 4") || !strings.Contains(err.Error(), "2024-01-01T08:00:00") {
		t.Fatalf("error should name the session and start time: %v", err)
	}

	backwards := session(t, "2024-01-01T08:00:00", 0, "2024-01-01T07:00:00", 5)
	if _, err := Compute(backwards, model.UnitDay); !errors.As(err, &neg) {
		t.Fatalf("expected NegativeDurationError for end before start, got %v", err)
	}
}

func TestBucketKeys(t *testing.T) {
	cases := []struct {
		at    string
		day   string
		week  string
		month string
	}{
		{"2024-05-08T12:00:00", "2024-05-08", "2024-05-06 W19", "2024-05"},
		{"2024-05-06T00:00:00", "2024-05-06", "2024-05-06 W19", "2024-05"},
		{"2024-05-12T23:59:59", "2024-05-12", "2024-05-06 W19", "2024-05"},
		// ISO week 1 of 2025 starts in 2024.
		{"2024-12-31T10:00:00", "2024-12-31", "2024-12-30 W01", "2024-12"},
		// 2021-01-01 belongs to week 53 of 2020.
		{"2021-01-01T10:00:00", "2021-01-01", "2020-12-28 W53", "2021-01"},
	}
	for _, tc := range cases {
		ts := at(t, tc.at)
		if got := DayKey(ts); got != tc.day {
			t.Fatalf("%s: day key %q, want %q", tc.at, got, tc.day)
		}
		if got := WeekKey(ts); got != tc.week {
			t.Fatalf("%s: week key %q, want %q", tc.at, got, tc.week)
		}
		if got := MonthKey(ts); got != tc.month {
			t.Fatalf("%s: month key %q, want %q", tc.at, got, tc.month)
		}
	}
}

func TestEnrichStopsAtFirstError(t *testing.T) {
	good := session(t, "2024-01-01T08:00:00", 0, "2024-01-01T09:00:00", 5)
	bad := session(t, "2024-01-02T08:00:00", 5, "2024-01-02T07:00:00", 9)
	bad.Index = 2
	if _, err := Enrich([]model.Session{good, bad}, model.UnitDay); err == nil {
		t.Fatalf("expected error from second session")
	}
	records, err := Enrich([]model.Session{good}, model.UnitDay)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if records[0].Day != "2024-01-01" || records[0].Month != "2024-01" {
		t.Fatalf("unexpected keys %+v", records[0])
	}
	if records[0].TranslationMinutes() != 60 {
		t.Fatalf("expected 60 minutes, got %v", records[0].TranslationMinutes())
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
	same := MovingAverage([]float64{1, 5}, 1)
	if same[0] != 1 || same[1] != 5 {
		t.Fatalf("window 1 should copy values, got %v", same)
	}
}
