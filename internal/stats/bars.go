package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/trep/internal/model"
)

const (
	minBarWidth = 10
	barColor    = "\x1b[36m"
)

// eighths are the partial block glyphs, from one eighth to a full cell.
var eighths = []rune{'▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

// RenderBars draws one horizontal bar per point, scaled to the largest value.
// Negative values draw no bar but still print their value.
func RenderBars(w io.Writer, title string, points []model.SeriesPoint, width int, useColor bool) error {
	if len(points) == 0 {
		return nil
	}
	if width <= 0 {
		width = terminalWidth()
	}
	labelWidth, valueWidth, peak := 0, 0, 0
	for _, p := range points {
		labelWidth = max(labelWidth, displayWidth(p.Key))
		valueWidth = max(valueWidth, len(strconv.Itoa(p.Pages)))
		peak = max(peak, p.Pages)
	}
	barWidth := max(width-labelWidth-valueWidth-displayWidth(axisSeparator)-1, minBarWidth)

	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	for _, p := range points {
		bar := barGlyphs(p.Pages, peak, barWidth)
		fill := strings.Repeat(" ", barWidth-displayWidth(bar))
		if useColor && bar != "" {
			bar = barColor + bar + colorReset
		}
		fmt.Fprintf(&b, "%s%s%s%s %*d\n", padCell(p.Key, labelWidth, false), axisSeparator,
			bar, fill, valueWidth, p.Pages)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// barGlyphs renders value/peak of width cells with eighth-cell resolution.
func barGlyphs(value, peak, width int) string {
	if value <= 0 || peak <= 0 || width <= 0 {
		return ""
	}
	units := int(float64(value) / float64(peak) * float64(width*8))
	units = min(max(units, 1), width*8)
	full, rest := units/8, units%8
	s := strings.Repeat(string(eighths[7]), full)
	if rest > 0 {
		s += string(eighths[rest-1])
	}
	return s
}
