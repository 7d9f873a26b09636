// Package recorder provides the Bubble Tea session recorder.
package recorder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/trep/internal/eventlog"
	"github.com/verte-zerg/trep/internal/model"
	"github.com/verte-zerg/trep/internal/parser"
	"github.com/verte-zerg/trep/internal/stats"
)

type phase int

const (
	phaseStart phase = iota
	phaseActive
	phasePaused
	phaseFinish
	phaseDone
)

type tickMsg time.Time

// Model implements the Bubble Tea recording UI.
type Model struct {
	log *eventlog.Log
	now func() time.Time

	width  int
	height int

	phase phase
	// resumeTo is the phase to return to when the finish prompt is cancelled.
	resumeTo phase
	input    textinput.Model
	actions  []model.Action

	defaultStart *float64
	finished     *model.Action
	err          error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs a recorder for log. A session already in progress in
// the log is picked up where it was left.
func NewModel(log *eventlog.Log, now func() time.Time) (*Model, error) {
	if now == nil {
		now = time.Now
	}
	st, err := log.Status()
	if err != nil {
		return nil, err
	}
	m := &Model{
		log:          log,
		now:          now,
		actions:      st.Pending,
		defaultStart: st.LastPosition,
	}
	switch st.State {
	case parser.Active:
		m.phase = phaseActive
	case parser.Paused:
		m.phase = phasePaused
	default:
		m.phase = phaseStart
		m.actions = nil
		m.input = newInput(positionPlaceholder(st.LastPosition))
	}
	return m, nil
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = placeholder
	ti.CharLimit = 16
	ti.Focus()
	return ti
}

func positionPlaceholder(pos *float64) string {
	if pos == nil {
		return "0"
	}
	return parser.FormatPosition(*pos)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.phase == phaseActive {
		return tick()
	}
	return textinput.Blink
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.phase == phaseActive || (m.phase == phaseFinish && m.resumeTo == phaseActive) {
			return m, tick()
		}
		return m, nil
	case tea.KeyMsg:
		switch m.phase {
		case phaseStart:
			return m.updateStart(msg)
		case phaseActive:
			return m.updateActive(msg)
		case phasePaused:
			return m.updatePaused(msg)
		case phaseFinish:
			return m.updateFinish(msg)
		default:
			return m, tea.Quit
		}
	}
	if m.phase == phaseStart || m.phase == phaseFinish {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateStart(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		start := 0.0
		if m.defaultStart != nil {
			start = *m.defaultStart
		}
		pos, err := parsePosition(m.input.Value(), &start)
		if err != nil {
			m.err = err
			return m, nil
		}
		if !m.append(model.KindStart, &pos) {
			return m, nil
		}
		m.phase = phaseActive
		return m, tick()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// keyName normalizes the space key, which has its own key type.
func keyName(msg tea.KeyMsg) string {
	if msg.Type == tea.KeySpace {
		return "space"
	}
	return msg.String()
}

func (m *Model) updateActive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyName(msg) {
	case "p", "space", "ctrl+c":
		if m.append(model.KindPause, nil) {
			m.phase = phasePaused
		}
	case "f":
		m.openFinish(phaseActive)
		return m, textinput.Blink
	case "q":
		if m.append(model.KindPause, nil) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) updatePaused(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyName(msg) {
	case "r", "space":
		if m.append(model.KindResume, nil) {
			m.phase = phaseActive
			return m, tick()
		}
	case "f":
		m.openFinish(phasePaused)
		return m, textinput.Blink
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateFinish(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.phase = m.resumeTo
		m.err = nil
		if m.phase == phaseActive {
			return m, tick()
		}
		return m, nil
	case tea.KeyEnter:
		pos, err := parsePosition(m.input.Value(), nil)
		if err != nil {
			m.err = err
			return m, nil
		}
		action, err := m.log.Finish(pos)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.finished = &action
		m.phase = phaseDone
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) openFinish(from phase) {
	m.resumeTo = from
	m.phase = phaseFinish
	m.err = nil
	m.input = newInput("end position")
}

// append writes an action and records it, keeping the error for display.
func (m *Model) append(kind model.ActionKind, pos *float64) bool {
	action, err := m.log.Append(kind, pos)
	if err != nil {
		m.err = err
		return false
	}
	m.err = nil
	m.actions = append(m.actions, action)
	return true
}

func parsePosition(value string, fallback *float64) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if fallback != nil {
			return *fallback, nil
		}
		return 0, fmt.Errorf("enter a position")
	}
	pos, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", value)
	}
	return pos, nil
}

// Elapsed returns the translation time so far, excluding pauses.
func (m *Model) Elapsed() time.Duration {
	var (
		total  time.Duration
		since  time.Time
		active bool
	)
	for _, a := range m.actions {
		switch a.Kind {
		case model.KindStart, model.KindResume:
			since, active = a.At, true
		case model.KindPause:
			if active {
				total += a.At.Sub(since)
			}
			active = false
		}
	}
	if active {
		end := m.now()
		if m.finished != nil {
			end = m.finished.At
		}
		total += end.Sub(since)
	}
	return max(total, 0)
}

// Finished returns the finish action once the session has been closed.
func (m *Model) Finished() (model.Action, bool) {
	if m.finished == nil {
		return model.Action{}, false
	}
	return *m.finished, true
}

// InProgress reports whether a session was started but not finished.
func (m *Model) InProgress() bool {
	return len(m.actions) > 0 && m.finished == nil
}

// View implements tea.Model.
func (m *Model) View() string {
	lines := []string{titleStyle.Render("trep · " + m.log.Path())}
	switch m.phase {
	case phaseStart:
		lines = append(lines, "Start position:", m.input.View())
	case phaseActive:
		lines = append(lines, activeStyle.Render("● Translating  "+formatClock(m.Elapsed())))
	case phasePaused:
		lines = append(lines, pausedStyle.Render("❚❚ Paused  "+formatClock(m.Elapsed())))
	case phaseFinish:
		lines = append(lines, "End position:", m.input.View())
	case phaseDone:
		lines = append(lines, "Session saved.")
	}
	if m.err != nil {
		lines = append(lines, errorStyle.Render(m.err.Error()))
	}
	if footer := m.renderFooter(); footer != "" {
		lines = append(lines, "", footer)
	}
	content := strings.Join(lines, "\n")
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderFooter() string {
	var hints string
	switch m.phase {
	case phaseStart:
		hints = "enter start  esc quit"
	case phaseActive:
		hints = "p/space pause  f finish  q pause and quit"
	case phasePaused:
		hints = "r/space resume  f finish  q quit"
	case phaseFinish:
		hints = "enter save  esc back"
	default:
		return ""
	}
	return footerStyle.Render(hints)
}

func formatClock(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// Summary describes the finished session, or "" before finish.
func (m *Model) Summary() string {
	if m.finished == nil || len(m.actions) == 0 {
		return ""
	}
	session := model.Session{Start: m.actions[0], End: *m.finished}
	translated := m.Elapsed()
	pages := session.EndPage() - session.StartPage()
	speed, ok := stats.Speed(pages, translated, model.UnitHour)
	if !ok {
		return fmt.Sprintf("%s pages in %s", parser.FormatPosition(pages), stats.FormatDuration(translated))
	}
	return fmt.Sprintf("%s pages in %s (%s)", parser.FormatPosition(pages),
		stats.FormatDuration(translated), stats.FormatSpeed(speed, model.UnitHour))
}
