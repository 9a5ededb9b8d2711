package pipeline

import (
	"shale-dashboard/internal/models"
)

// EstimateEUR returns the largest primary-phase cumulative (Np for oil, Gp
// otherwise) among records dated on or before first date + horizonDays. The
// records must be ordered by date. Nil means the window could not be evaluated.
//
// Monthly granularity means short horizons usually see only the first month;
// values are not interpolated.
func EstimateEUR(records []*models.WellMonthRecord, oil bool, horizonDays int) *float64 {
	if len(records) == 0 {
		return nil
	}

	target := records[0].Date.AddDate(0, 0, horizonDays)

	var best *float64
	for _, rec := range records {
		if rec.Date.After(target) {
			break
		}
		v := rec.Gp
		if oil {
			v = rec.Np
		}
		if best == nil || v > *best {
			best = models.Float(v)
		}
	}
	return best
}
