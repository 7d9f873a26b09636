package stats

import (
	"time"

	"github.com/verte-zerg/trep/internal/eventlog"
	"github.com/verte-zerg/trep/internal/model"
	"github.com/verte-zerg/trep/internal/parser"
)

// BucketSeries holds the per-bucket and cumulative series for one bucket size.
type BucketSeries struct {
	Bucket     model.Bucket
	Pages      []model.SeriesPoint
	Cumulative []model.SeriesPoint
}

// Summary totals the reported sessions.
type Summary struct {
	Sessions        int
	Days            int
	Pages           float64
	TranslationTime time.Duration
	AvgSpeed        float64
	BestSpeed       float64
	Unit            model.SpeedUnit
}

// Progress compares the last position with the header's total pages.
type Progress struct {
	Position      float64
	Total         float64
	Percent       float64
	RemainingDays float64
	HasTotal      bool
	HasETA        bool
}

// Report contains precomputed data for rendering.
type Report struct {
	Header   model.Header
	Config   model.ReportConfig
	Records  []model.SessionRecord
	Series   []BucketSeries
	Summary  Summary
	Progress Progress
}

// BuildReport parses every session in the snapshot, then applies the
// config's filters and aggregates what remains. Any malformed session fails
// the whole report.
func BuildReport(snap eventlog.Snapshot, cfg model.ReportConfig) (Report, error) {
	if cfg.Unit == "" {
		cfg.Unit = model.UnitDay
	}
	sessions, err := parser.ParseSessions(snap.Blocks, snap.Format.EndToken)
	if err != nil {
		return Report{}, err
	}
	records, err := Enrich(sessions, cfg.Unit)
	if err != nil {
		return Report{}, err
	}
	all := records
	records = filterRecords(records, cfg)

	report := Report{
		Header:  snap.Header,
		Config:  cfg,
		Records: records,
		Summary: Summarize(records, cfg.Unit),
	}
	for _, b := range model.Buckets {
		pages := Aggregate(records, b)
		report.Series = append(report.Series, BucketSeries{
			Bucket:     b,
			Pages:      pages,
			Cumulative: Cumulative(pages),
		})
	}
	report.Progress = computeProgress(snap.Header, all)
	return report, nil
}

// SeriesFor returns the series for a bucket.
func (r Report) SeriesFor(b model.Bucket) BucketSeries {
	for _, s := range r.Series {
		if s.Bucket == b {
			return s
		}
	}
	return BucketSeries{Bucket: b}
}

// Summarize totals records. The average speed is weighted by translation time.
func Summarize(records []model.SessionRecord, unit model.SpeedUnit) Summary {
	sum := Summary{Sessions: len(records), Unit: unit}
	days := map[string]struct{}{}
	for i, r := range records {
		sum.Pages += r.Metrics.Pages
		sum.TranslationTime += r.Metrics.TranslationTime
		if i == 0 || r.Metrics.Speed > sum.BestSpeed {
			sum.BestSpeed = r.Metrics.Speed
		}
		days[r.Day] = struct{}{}
	}
	sum.Days = len(days)
	if speed, ok := Speed(sum.Pages, sum.TranslationTime, unit); ok {
		sum.AvgSpeed = speed
	}
	return sum
}

func filterRecords(records []model.SessionRecord, cfg model.ReportConfig) []model.SessionRecord {
	out := records
	if cfg.Since != nil {
		// Log timestamps are wall clock; compare against the since date's wall clock.
		since := time.Date(cfg.Since.Year(), cfg.Since.Month(), cfg.Since.Day(), 0, 0, 0, 0, time.UTC)
		out = make([]model.SessionRecord, 0, len(records))
		for _, r := range records {
			if !r.Session.Start.At.Before(since) {
				out = append(out, r)
			}
		}
	}
	if cfg.Last > 0 && len(out) > cfg.Last {
		out = out[len(out)-cfg.Last:]
	}
	return out
}

// computeProgress uses every session, ignoring filters, since the position
// in the work does not depend on the reporting window.
func computeProgress(h model.Header, records []model.SessionRecord) Progress {
	var p Progress
	if len(records) > 0 {
		p.Position = records[len(records)-1].Session.EndPage()
	}
	if h.TotalPages <= 0 {
		return p
	}
	p.Total = h.TotalPages
	p.HasTotal = true
	p.Percent = p.Position / p.Total * 100
	sum := Summarize(records, model.UnitDay)
	remaining := p.Total - p.Position
	if sum.Days > 0 && sum.Pages > 0 && remaining > 0 {
		perDay := sum.Pages / float64(sum.Days)
		p.RemainingDays = remaining / perDay
		p.HasETA = true
	}
	return p
}
