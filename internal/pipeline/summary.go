package pipeline

import (
	"shale-dashboard/internal/models"
)

// Summarize reduces one well's series to its WellSummary. Descriptive
// attributes come from the earliest record; volumes from the latest cumulatives.
func Summarize(s *WellSeries) *models.WellSummary {
	first, last := s.First(), s.Last()

	summary := &models.WellSummary{
		Sigla:           s.Sigla,
		FirstDate:       first.Date,
		LastDate:        last.Date,
		StartYear:       first.Date.Year(),
		Months:          len(s.Records),
		Operator:        first.Operator,
		Block:           first.Block,
		Formation:       first.Formation,
		ResourceSubType: first.ResourceSubType,
		WellType:        first.WellType,
		Np:              last.Np,
		Gp:              last.Gp,
		Wp:              last.Wp,
	}

	for _, rec := range s.Records {
		if !rec.Producing() {
			continue
		}
		summary.ProducingMonths++
		summary.QoPeak = maxRate(summary.QoPeak, rec.OilRate)
		summary.QgPeak = maxRate(summary.QgPeak, rec.GasRate)
	}

	summary.GOR = GOR(summary.Np, summary.Gp)
	summary.WOR = WOR(summary.Wp, summary.Np)
	summary.WGR = WGR(summary.Wp, summary.Gp)
	summary.McCainFluid = ClassifyMcCain(summary.Np, summary.Gp)
	summary.EffectiveType = EffectiveWellType(summary.WellType, summary.McCainFluid)

	oil := summary.IsOil()
	summary.EUR30 = EstimateEUR(s.Records, oil, models.EURHorizonsDays[0])
	summary.EUR90 = EstimateEUR(s.Records, oil, models.EURHorizonsDays[1])
	summary.EUR180 = EstimateEUR(s.Records, oil, models.EURHorizonsDays[2])

	return summary
}

func maxRate(cur, v *float64) *float64 {
	if v == nil {
		return cur
	}
	if cur == nil || *v > *cur {
		return models.Float(*v)
	}
	return cur
}
