package statsui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/trep/internal/eventlog"
	"github.com/verte-zerg/trep/internal/model"
)

const testLog = `Title: Notes
Author: B. Author
Language: de
Total pages: 100
Action Records:
------
2024-01-01T10:00:00.000000 start 0.0
2024-01-01T12:00:00.000000 end 20.0
------
2024-01-08T09:00:00.000000 start 20.0
2024-01-08T10:00:00.000000 end 30.0
------
`

func staticLoader(text string) Loader {
	return func() (eventlog.Snapshot, error) {
		return eventlog.ParseSnapshot(text, eventlog.DefaultFormat())
	}
}

func sized(t *testing.T, m *Model) {
	t.Helper()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
}

func TestModelRendersOverview(t *testing.T) {
	m := NewModel(staticLoader(testLog), model.ReportConfig{CurveWindow: 2})
	sized(t, m)
	if m.errMsg != "" {
		t.Fatalf("unexpected error: %s", m.errMsg)
	}
	view := m.View()
	for _, want := range []string{"Overview", "Sessions", "Monthly", "Notes by B. Author", "Progress", "30.0%"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestModelTabNavigation(t *testing.T) {
	m := NewModel(staticLoader(testLog), model.ReportConfig{})
	sized(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabSessions {
		t.Fatalf("expected sessions tab, got %d", m.activeTab)
	}
	if view := m.View(); !strings.Contains(view, "2024-01-08 W02") {
		t.Fatalf("expected session rows in view:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if view := m.View(); !strings.Contains(view, "Pages per day") {
		t.Fatalf("expected daily series in view:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabMonthly {
		t.Fatalf("expected wrap to monthly tab, got %d", m.activeTab)
	}
}

func TestModelCurveWindowAndUnitKeys(t *testing.T) {
	m := NewModel(staticLoader(testLog), model.ReportConfig{CurveWindow: 1})
	sized(t, m)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("=")})
	if m.cfg.CurveWindow != 5 {
		t.Fatalf("expected window 5, got %d", m.cfg.CurveWindow)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	if m.cfg.CurveWindow != 1 {
		t.Fatalf("expected window 1, got %d", m.cfg.CurveWindow)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
	if m.cfg.Unit != model.UnitHour || m.report.Records[1].Metrics.Speed != 10 {
		t.Fatalf("expected hourly speeds, got %q %v", m.cfg.Unit, m.report.Records[1].Metrics.Speed)
	}
}

func TestModelSettingsForm(t *testing.T) {
	m := NewModel(staticLoader(testLog), model.ReportConfig{CurveWindow: 3})
	sized(t, m)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filterMode {
		t.Fatalf("expected settings form")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2024-01-05")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("settings form should close, error: %s", m.filterError)
	}
	if len(m.report.Records) != 1 || m.report.Records[0].Session.Index != 2 {
		t.Fatalf("since filter not applied: %+v", m.report.Records)
	}
	if m.cfg.CurveWindow != 3 {
		t.Fatalf("curve window should be kept, got %d", m.cfg.CurveWindow)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || !strings.Contains(m.filterError, "unknown speed unit") {
		t.Fatalf("expected unit error, got mode=%v err=%q", m.filterMode, m.filterError)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filterMode {
		t.Fatalf("esc should close the form")
	}
}

func TestModelReloadKeepsReportOnError(t *testing.T) {
	fail := false
	load := func() (eventlog.Snapshot, error) {
		if fail {
			return eventlog.Snapshot{}, errors.New("bad log format: last line must be \"------\"")
		}
		return eventlog.ParseSnapshot(testLog, eventlog.DefaultFormat())
	}
	m := NewModel(load, model.ReportConfig{})
	sized(t, m)

	fail = true
	m.Update(logChangedMsg{})
	if !strings.Contains(m.errMsg, "last line must be") {
		t.Fatalf("expected reload error, got %q", m.errMsg)
	}
	if len(m.report.Records) != 2 {
		t.Fatalf("previous report should be kept")
	}
	if view := m.View(); !strings.Contains(view, "last line must be") {
		t.Fatalf("error should be shown in the footer:\n%s", view)
	}

	fail = false
	m.Update(logChangedMsg{})
	if m.errMsg != "" {
		t.Fatalf("error should clear after a good reload, got %q", m.errMsg)
	}
}

func TestModelQuit(t *testing.T) {
	m := NewModel(staticLoader(testLog), model.ReportConfig{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected QuitMsg")
	}
}

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct {
		in, next, prev int
	}{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{20, 25, 15},
	}
	for _, tc := range cases {
		if got := nextCurveWindow(tc.in); got != tc.next {
			t.Fatalf("next(%d) = %d, want %d", tc.in, got, tc.next)
		}
		if got := prevCurveWindow(tc.in); got != tc.prev {
			t.Fatalf("prev(%d) = %d, want %d", tc.in, got, tc.prev)
		}
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trep.dat")
	if err := os.WriteFile(path, []byte(testLog), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	other := filepath.Join(filepath.Dir(path), "other.txt")
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	if err := os.WriteFile(path, []byte(testLog+"\n"), 0o644); err != nil {
		t.Fatalf("rewrite log: %v", err)
	}

	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatalf("expected a change notification")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close watcher: %v", err)
	}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-w.Changes():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("changes channel should close after Close")
		}
	}
}
