package sources

import (
	"fmt"
	"sort"

	"ChartFeed/internal/domain/models"
)

// MinBars is the smallest sequence a live strategy may return.
const MinBars = 11

// Finalize sorts bars ascending, keeps the first row seen for each date, truncates to
// the last days bars and enforces MinBars. The input slice is not modified.
func Finalize(bars []models.Bar, days int) ([]models.Bar, error) {
	sorted := make([]models.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := sorted[:0]
	for _, b := range sorted {
		if len(out) > 0 && b.Date.Equal(out[len(out)-1].Date) {
			continue
		}
		out = append(out, b)
	}

	if days > 0 && len(out) > days {
		out = out[len(out)-days:]
	}
	if len(out) < MinBars {
		return nil, fmt.Errorf("%w: %d bars, need %d", models.ErrInsufficientData, len(out), MinBars)
	}
	return out, nil
}
