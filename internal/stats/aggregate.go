package stats

import "github.com/verte-zerg/trep/internal/model"

// Aggregate sums pages per bucket over consecutive runs of records.
func Aggregate(records []model.SessionRecord, bucket model.Bucket) []model.SeriesPoint {
	return AggregateBy(records, bucket.Key)
}

// AggregateBy groups consecutive records with equal keys and sums their pages.
// Records are not re-sorted: a key that reappears after a different key
// starts a new group. Each group's sum is rounded half away from zero.
func AggregateBy(records []model.SessionRecord, key func(model.SessionRecord) string) []model.SeriesPoint {
	var (
		out     []model.SeriesPoint
		current string
		sum     float64
		open    bool
	)
	for _, r := range records {
		k := key(r)
		if open && k == current {
			sum += r.Metrics.Pages
			continue
		}
		if open {
			out = append(out, model.SeriesPoint{Key: current, Pages: roundPages(sum)})
		}
		current, sum, open = k, r.Metrics.Pages, true
	}
	if open {
		out = append(out, model.SeriesPoint{Key: current, Pages: roundPages(sum)})
	}
	return out
}

// Cumulative returns the running total of a series, keeping its keys.
func Cumulative(points []model.SeriesPoint) []model.SeriesPoint {
	out := make([]model.SeriesPoint, len(points))
	total := 0
	for i, p := range points {
		total += p.Pages
		out[i] = model.SeriesPoint{Key: p.Key, Pages: total}
	}
	return out
}

// Values returns the page values of a series as floats for plotting.
func Values(points []model.SeriesPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = float64(p.Pages)
	}
	return out
}

// Keys returns the labels of a series.
func Keys(points []model.SeriesPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Key
	}
	return out
}
