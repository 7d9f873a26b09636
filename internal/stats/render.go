package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/trep/internal/model"
	"github.com/verte-zerg/trep/internal/parser"
)

// RenderOptions controls plain-text output.
type RenderOptions struct {
	// Width is the total output width; 0 uses the terminal width.
	Width      int
	PlotHeight int
	Color      bool
}

// SessionHeaders are the column titles of the sessions table.
var SessionHeaders = []string{"ID", "Day", "Week", "Month", "Start", "End", "Pages", "Pauses", "Minutes", "Speed"}

var sessionRightCols = map[int]bool{0: true, 4: true, 5: true, 6: true, 7: true, 8: true, 9: true}

// SessionRows formats records for the sessions table.
func SessionRows(records []model.SessionRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Session.Index),
			r.Day,
			r.Week,
			r.Month,
			parser.FormatPosition(r.Session.StartPage()),
			parser.FormatPosition(r.Session.EndPage()),
			formatPages(r.Metrics.Pages),
			strconv.Itoa(len(r.Metrics.Pauses)),
			fmt.Sprintf("%.1f", r.TranslationMinutes()),
			fmt.Sprintf("%.2f", r.Metrics.Speed),
		})
	}
	return rows
}

// RenderSessions writes the sessions table.
func RenderSessions(w io.Writer, records []model.SessionRecord) error {
	if len(records) == 0 {
		_, err := io.WriteString(w, "No finished sessions.\n")
		return err
	}
	lines := Table{Headers: SessionHeaders, Rows: SessionRows(records), Right: sessionRightCols}.Lines()
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n\n")
	return err
}

// SummaryLines formats the header, totals and progress of a report.
func SummaryLines(r Report) []string {
	var lines []string
	if r.Header.Title != "" {
		title := r.Header.Title
		if r.Header.Author != "" {
			title += " by " + r.Header.Author
		}
		if r.Header.Language != "" {
			title += " (" + r.Header.Language + ")"
		}
		lines = append(lines, title)
	}
	s := r.Summary
	lines = append(lines,
		fmt.Sprintf("Sessions: %d over %d days", s.Sessions, s.Days),
		fmt.Sprintf("Pages: %s", formatPages(s.Pages)),
		fmt.Sprintf("Translation time: %s", FormatDuration(s.TranslationTime)),
		fmt.Sprintf("Average speed: %s", FormatSpeed(s.AvgSpeed, s.Unit)),
		fmt.Sprintf("Best speed: %s", FormatSpeed(s.BestSpeed, s.Unit)),
	)
	if best := TopPoints(r.SeriesFor(model.BucketDay).Pages, 1); len(best) == 1 {
		lines = append(lines, fmt.Sprintf("Best day: %s (%d pages)", best[0].Key, best[0].Pages))
	}
	p := r.Progress
	if p.HasTotal {
		line := fmt.Sprintf("Progress: %s/%s pages (%.1f%%)",
			parser.FormatPosition(p.Position), parser.FormatPosition(p.Total), p.Percent)
		if p.HasETA {
			line += fmt.Sprintf(", about %.0f days left", p.RemainingDays)
		}
		lines = append(lines, line)
	}
	return lines
}

// RenderSummary writes the summary block.
func RenderSummary(w io.Writer, r Report) error {
	_, err := io.WriteString(w, strings.Join(SummaryLines(r), "\n")+"\n\n")
	return err
}

// RenderSeries writes a bar chart of pages per bucket and a line plot of the
// cumulative pages.
func RenderSeries(w io.Writer, s BucketSeries, opts RenderOptions) error {
	if len(s.Pages) == 0 {
		return nil
	}
	if err := RenderBars(w, fmt.Sprintf("Pages per %s", s.Bucket), s.Pages, opts.Width, opts.Color); err != nil {
		return err
	}
	return PlotChart(w, Chart{
		Title:      fmt.Sprintf("Cumulative pages by %s", s.Bucket),
		Labels:     Keys(s.Cumulative),
		Series:     []Series{{Name: "cumulative", Values: Values(s.Cumulative)}},
		Width:      plotWidth(opts),
		Height:     opts.PlotHeight,
		ForceColor: opts.Color,
	})
}

// RenderSpeedCurve plots per-session speed and its moving average.
func RenderSpeedCurve(w io.Writer, records []model.SessionRecord, unit model.SpeedUnit, window int, opts RenderOptions) error {
	if len(records) == 0 {
		return nil
	}
	speeds := SessionSpeeds(records)
	series := []Series{{Name: "speed", Values: speeds}}
	if window > 1 {
		series = append(series, Series{Name: fmt.Sprintf("avg %d", window), Values: MovingAverage(speeds, window)})
	}
	labels := make([]string, len(records))
	for i, r := range records {
		labels[i] = r.Day
	}
	return PlotChart(w, Chart{
		Title:      fmt.Sprintf("Speed (pages/%s)", unit),
		Labels:     labels,
		Series:     series,
		Width:      plotWidth(opts),
		Height:     opts.PlotHeight,
		ForceColor: opts.Color,
	})
}

// RenderReport writes the full plain-text report.
func RenderReport(w io.Writer, r Report, opts RenderOptions) error {
	if err := RenderSummary(w, r); err != nil {
		return err
	}
	if err := RenderSessions(w, r.Records); err != nil {
		return err
	}
	for _, s := range r.Series {
		if err := RenderSeries(w, s, opts); err != nil {
			return err
		}
	}
	return RenderSpeedCurve(w, r.Records, r.Config.Unit, r.Config.CurveWindow, opts)
}

func plotWidth(opts RenderOptions) int {
	if opts.Width <= 0 {
		return 0
	}
	return PlotWidthFor(opts.Width)
}

// FormatDuration prints a duration as hours and minutes, or seconds when short.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}

// FormatSpeed prints a speed with its unit.
func FormatSpeed(speed float64, unit model.SpeedUnit) string {
	return fmt.Sprintf("%.2f pages/%s", speed, unit)
}

func formatPages(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
