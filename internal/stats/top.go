package stats

import (
	"sort"

	"github.com/verte-zerg/trep/internal/model"
)

// TopPoints returns the n points with the most pages, ties broken by key.
func TopPoints(points []model.SeriesPoint, n int) []model.SeriesPoint {
	if n <= 0 || len(points) == 0 {
		return nil
	}
	items := make([]model.SeriesPoint, len(points))
	copy(items, points)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Pages == items[j].Pages {
			return items[i].Key < items[j].Key
		}
		return items[i].Pages > items[j].Pages
	})
	return items[:min(n, len(items))]
}
