package pipeline

import (
	"fmt"
	"sort"

	"shale-dashboard/internal/models"
)

// WellSeries is one well's monthly records ordered by date, with rates and
// cumulatives derived.
type WellSeries struct {
	Sigla   string
	Records []*models.WellMonthRecord
}

// First returns the earliest record.
func (s *WellSeries) First() *models.WellMonthRecord {
	return s.Records[0]
}

// Last returns the latest record.
func (s *WellSeries) Last() *models.WellMonthRecord {
	return s.Records[len(s.Records)-1]
}

// BuildSeries groups records by well, orders each well by date and derives
// rates and running cumulatives. Input records are copied, never modified.
// Wells appear in order of first appearance in the input. A well with two
// records for the same month fails the build.
func BuildSeries(records []*models.WellMonthRecord, operators *OperatorCanonicalizer) ([]*WellSeries, error) {
	index := make(map[string]int)
	var series []*WellSeries

	for _, r := range records {
		rec := *r
		rec.Operator = operators.Canonical(rec.RawOperator)

		i, ok := index[rec.Sigla]
		if !ok {
			i = len(series)
			index[rec.Sigla] = i
			series = append(series, &WellSeries{Sigla: rec.Sigla})
		}
		series[i].Records = append(series[i].Records, &rec)
	}

	for _, s := range series {
		sort.SliceStable(s.Records, func(a, b int) bool {
			return s.Records[a].Date.Before(s.Records[b].Date)
		})

		// The accumulators are local to the well, so they restart at every well.
		var np, gp, wp float64
		for i, rec := range s.Records {
			if i > 0 && rec.Date.Equal(s.Records[i-1].Date) {
				return nil, &models.ValidationError{
					Field:   "date",
					Value:   rec.Date.Format("2006-01"),
					Message: fmt.Sprintf("well %s has more than one record for %s", s.Sigla, rec.Date.Format("2006-01")),
				}
			}

			rec.OilRate = rate(rec.OilVolume, rec.TEF)
			rec.GasRate = rate(rec.GasVolume, rec.TEF)
			rec.WaterRate = rate(rec.WaterVolume, rec.TEF)

			np += rec.OilVolume
			gp += rec.GasVolume
			wp += rec.WaterVolume
			rec.Np, rec.Gp, rec.Wp = np, gp, wp
		}
	}

	return series, nil
}

// rate is volume per unit of effective time, undefined when tef is zero.
func rate(volume, tef float64) *float64 {
	if tef <= 0 {
		return nil
	}
	return models.Float(volume / tef)
}
