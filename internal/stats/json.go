package stats

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/verte-zerg/trep/internal/model"
	"github.com/verte-zerg/trep/internal/parser"
)

type jsonReport struct {
	Header   jsonHeader    `json:"header"`
	Unit     string        `json:"unit"`
	Summary  jsonSummary   `json:"summary"`
	Progress *jsonProgress `json:"progress,omitempty"`
	Sessions []jsonSession `json:"sessions"`
	Series   []jsonSeries  `json:"series"`
}

type jsonHeader struct {
	Title      string  `json:"title,omitempty"`
	Author     string  `json:"author,omitempty"`
	Language   string  `json:"language,omitempty"`
	TotalPages float64 `json:"total_pages,omitempty"`
}

type jsonSummary struct {
	Sessions               int     `json:"sessions"`
	Days                   int     `json:"days"`
	Pages                  float64 `json:"pages"`
	TranslationTimeMinutes float64 `json:"translation_time_minutes"`
	AvgSpeed               float64 `json:"avg_speed"`
	BestSpeed              float64 `json:"best_speed"`
}

type jsonProgress struct {
	Position      float64  `json:"position"`
	Total         float64  `json:"total"`
	Percent       float64  `json:"percent"`
	RemainingDays *float64 `json:"remaining_days,omitempty"`
}

type jsonSession struct {
	DisplayID              int     `json:"display_id"`
	DisplayDay             string  `json:"display_day"`
	DisplayWeek            string  `json:"display_week"`
	DisplayMonth           string  `json:"display_month"`
	StartedAt              string  `json:"started_at"`
	StartPage              float64 `json:"start_page"`
	EndPage                float64 `json:"end_page"`
	Pages                  float64 `json:"pages"`
	Pauses                 int     `json:"pauses"`
	Speed                  float64 `json:"speed"`
	TranslationTimeMinutes float64 `json:"translation_time_minutes"`
}

type jsonSeries struct {
	Bucket     string      `json:"bucket"`
	Pages      []jsonPoint `json:"pages"`
	Cumulative []jsonPoint `json:"cumulative"`
}

type jsonPoint struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, r Report) error {
	data, err := sonic.MarshalIndent(toJSON(r), "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func toJSON(r Report) jsonReport {
	out := jsonReport{
		Header: jsonHeader{
			Title:      r.Header.Title,
			Author:     r.Header.Author,
			Language:   r.Header.Language,
			TotalPages: r.Header.TotalPages,
		},
		Unit: string(r.Summary.Unit),
		Summary: jsonSummary{
			Sessions:               r.Summary.Sessions,
			Days:                   r.Summary.Days,
			Pages:                  r.Summary.Pages,
			TranslationTimeMinutes: r.Summary.TranslationTime.Minutes(),
			AvgSpeed:               r.Summary.AvgSpeed,
			BestSpeed:              r.Summary.BestSpeed,
		},
		Sessions: make([]jsonSession, 0, len(r.Records)),
		Series:   make([]jsonSeries, 0, len(r.Series)),
	}
	if p := r.Progress; p.HasTotal {
		out.Progress = &jsonProgress{Position: p.Position, Total: p.Total, Percent: p.Percent}
		if p.HasETA {
			days := p.RemainingDays
			out.Progress.RemainingDays = &days
		}
	}
	for _, rec := range r.Records {
		out.Sessions = append(out.Sessions, jsonSession{
			DisplayID:              rec.Session.Index,
			DisplayDay:             rec.Day,
			DisplayWeek:            rec.Week,
			DisplayMonth:           rec.Month,
			StartedAt:              parser.FormatTimestamp(rec.Session.Start.At),
			StartPage:              rec.Session.StartPage(),
			EndPage:                rec.Session.EndPage(),
			Pages:                  rec.Metrics.Pages,
			Pauses:                 len(rec.Metrics.Pauses),
			Speed:                  rec.Metrics.Speed,
			TranslationTimeMinutes: rec.TranslationMinutes(),
		})
	}
	for _, s := range r.Series {
		out.Series = append(out.Series, jsonSeries{
			Bucket:     string(s.Bucket),
			Pages:      jsonPoints(s.Pages),
			Cumulative: jsonPoints(s.Cumulative),
		})
	}
	return out
}

func jsonPoints(points []model.SeriesPoint) []jsonPoint {
	out := make([]jsonPoint, len(points))
	for i, p := range points {
		out[i] = jsonPoint{Label: p.Key, Value: p.Pages}
	}
	return out
}
