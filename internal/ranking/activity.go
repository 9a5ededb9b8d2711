package ranking

import (
	"slices"

	"shale-dashboard/internal/models"
)

// ActivityYears returns the selectable years of the activity rankings: the
// latest start year in the activity table and the year before. Empty when
// there is no activity.
func ActivityYears(activity []*models.MergedWell) []int {
	latest, found := 0, false
	for _, m := range activity {
		if !m.HasProduction() {
			continue
		}
		if !found || m.Summary.StartYear > latest {
			latest, found = m.Summary.StartYear, true
		}
	}
	if !found {
		return nil
	}
	return []int{latest, latest - 1}
}

// OperatorWellCount is the number of distinct wells of one operator.
type OperatorWellCount struct {
	Operator  string `json:"empresaNEW"`
	FluidType string `json:"tipopozoNEW,omitempty"`
	Wells     int    `json:"well_count"`
}

// WellsPerOperator counts distinct activity wells per operator for one start
// year and one effective well type, keeping the top n operators.
func WellsPerOperator(activity []*models.MergedWell, year int, fluid string, n int) []OperatorWellCount {
	keys, groups := groupBy(filterActivity(activity, func(m *models.MergedWell) bool {
		return m.Summary.StartYear == year && m.Summary.EffectiveType == fluid
	}), func(m *models.MergedWell) string { return m.Summary.Operator })

	counts := make([]OperatorWellCount, 0, len(keys))
	for _, op := range keys {
		counts = append(counts, OperatorWellCount{Operator: op, FluidType: fluid, Wells: distinctWells(groups[op])})
	}
	return TopN(counts, func(c OperatorWellCount) float64 { return float64(c.Wells) }, n)
}

// WellLength is one well's horizontal branch length.
type WellLength struct {
	StartYear int     `json:"start_year"`
	Sigla     string  `json:"sigla"`
	Operator  string  `json:"empresaNEW"`
	LengthM   float64 `json:"max_length_m"`
}

// OperatorLength is the median branch length of one operator's wells in a year.
type OperatorLength struct {
	StartYear     int     `json:"start_year"`
	Operator      string  `json:"empresaNEW"`
	MedianLengthM float64 `json:"median_length_m"`
}

// lateralRows keeps rows with a positive branch length, one per well.
func lateralRows(activity []*models.MergedWell) []*models.MergedWell {
	seen := make(map[string]struct{})
	var out []*models.MergedWell
	for _, m := range activity {
		if !m.HasCompletion() || !m.HasProduction() || m.Completion.BranchLengthM <= 0 {
			continue
		}
		if _, ok := seen[m.Sigla]; ok {
			continue
		}
		seen[m.Sigla] = struct{}{}
		out = append(out, m)
	}
	return out
}

// LateralLengthByWell ranks wells by branch length, top n per start year.
func LateralLengthByWell(activity []*models.MergedWell, n int) []WellLength {
	rows := lateralRows(activity)
	wells := make([]WellLength, 0, len(rows))
	for _, m := range rows {
		wells = append(wells, WellLength{
			StartYear: m.Summary.StartYear,
			Sigla:     m.Sigla,
			Operator:  m.Summary.Operator,
			LengthM:   round(m.Completion.BranchLengthM, 0),
		})
	}
	return TopNPerGroup(wells, func(w WellLength) int { return w.StartYear }, func(w WellLength) float64 { return w.LengthM }, n)
}

// LateralLengthByOperator ranks operators by median branch length, top n per start year.
func LateralLengthByOperator(activity []*models.MergedWell, n int) []OperatorLength {
	keys, groups := groupBy(lateralRows(activity), yearOperator)
	ops := make([]OperatorLength, 0, len(keys))
	for _, k := range keys {
		lengths := make([]float64, 0, len(groups[k]))
		for _, m := range groups[k] {
			lengths = append(lengths, m.Completion.BranchLengthM)
		}
		ops = append(ops, OperatorLength{StartYear: k.year, Operator: k.operator, MedianLengthM: round(median(lengths), 0)})
	}
	return TopNPerGroup(ops, func(o OperatorLength) int { return o.StartYear }, func(o OperatorLength) float64 { return o.MedianLengthM }, n)
}

// Fluid selects the primary phase of a peak-rate ranking.
type Fluid string

const (
	FluidOil Fluid = "oil"
	FluidGas Fluid = "gas"
)

// Label returns the effective well type the fluid ranks.
func (f Fluid) Label() string {
	if f == FluidGas {
		return models.FluidGas
	}
	return models.FluidOil
}

// Valid reports whether f is a known fluid.
func (f Fluid) Valid() bool {
	return f == FluidOil || f == FluidGas
}

func (f Fluid) peak(s *models.WellSummary) *float64 {
	if f == FluidGas {
		return s.QgPeak
	}
	return s.QoPeak
}

// WellPeak is one well's peak rate annotated with its own completion design.
type WellPeak struct {
	StartYear        int     `json:"start_year"`
	Sigla            string  `json:"sigla"`
	Operator         string  `json:"empresaNEW"`
	PeakRate         float64 `json:"peak_rate"`
	BranchLengthM    float64 `json:"longitud_rama_horizontal_m"`
	Stages           float64 `json:"cantidad_fracturas"`
	FracSpacing      float64 `json:"fracspacing"`
	ProppantPerStage float64 `json:"agente_etapa"`
}

// OperatorPeak is the median peak rate and median stage count of one operator in a year.
type OperatorPeak struct {
	StartYear    int     `json:"start_year"`
	Operator     string  `json:"empresaNEW"`
	MedianPeak   float64 `json:"median_peak_rate"`
	MedianStages float64 `json:"median_stages"`
}

// peakRows keeps activity rows of the fluid's well type with a defined peak.
func peakRows(activity []*models.MergedWell, fluid Fluid) []*models.MergedWell {
	return filterActivity(activity, func(m *models.MergedWell) bool {
		return m.Summary.EffectiveType == fluid.Label() && fluid.peak(m.Summary) != nil
	})
}

// PeakRateByWell ranks wells of one fluid type by peak rate, top n per start
// year. Stage metrics are the medians of the well's completion records and
// proppant is summed across them.
func PeakRateByWell(activity []*models.MergedWell, fluid Fluid, n int) []WellPeak {
	keys, groups := groupBy(peakRows(activity, fluid), func(m *models.MergedWell) string { return m.Sigla })

	wells := make([]WellPeak, 0, len(keys))
	for _, sigla := range keys {
		rows := groups[sigla]
		s := rows[0].Summary

		var lengths, stages []float64
		var proppant float64
		for _, m := range rows {
			lengths = append(lengths, m.Completion.BranchLengthM)
			stages = append(stages, m.Completion.StageCount)
			proppant += m.Completion.ProppantNational + m.Completion.ProppantImported
		}

		w := WellPeak{
			StartYear:     s.StartYear,
			Sigla:         sigla,
			Operator:      s.Operator,
			PeakRate:      *fluid.peak(s),
			BranchLengthM: median(lengths),
			Stages:        median(stages),
		}
		if w.Stages > 0 {
			w.FracSpacing = w.BranchLengthM / w.Stages
			w.ProppantPerStage = proppant / w.Stages
		}
		wells = append(wells, w)
	}

	return TopNPerGroup(wells, func(w WellPeak) int { return w.StartYear }, func(w WellPeak) float64 { return w.PeakRate }, n)
}

// PeakRateByOperator ranks operators by median peak rate, top n per start year.
func PeakRateByOperator(activity []*models.MergedWell, fluid Fluid, n int) []OperatorPeak {
	keys, groups := groupBy(peakRows(activity, fluid), yearOperator)

	ops := make([]OperatorPeak, 0, len(keys))
	for _, k := range keys {
		var peaks, stages []float64
		for _, m := range groups[k] {
			peaks = append(peaks, *fluid.peak(m.Summary))
			stages = append(stages, m.Completion.StageCount)
		}
		ops = append(ops, OperatorPeak{StartYear: k.year, Operator: k.operator, MedianPeak: median(peaks), MedianStages: median(stages)})
	}

	return TopNPerGroup(ops, func(o OperatorPeak) int { return o.StartYear }, func(o OperatorPeak) float64 { return o.MedianPeak }, n)
}

// WellProppant is the total proppant pumped into one well.
type WellProppant struct {
	StartYear  int     `json:"start_year"`
	Sigla      string  `json:"sigla"`
	Operator   string  `json:"empresaNEW"`
	ProppantTn float64 `json:"arena_total_tn"`
}

// OperatorProppant is the mean per-well proppant of one operator in a year.
type OperatorProppant struct {
	StartYear      int     `json:"start_year"`
	Operator       string  `json:"empresaNEW"`
	MeanProppantTn float64 `json:"mean_arena_total_tn"`
}

func wellProppant(activity []*models.MergedWell) []WellProppant {
	complete := filterActivity(activity, func(*models.MergedWell) bool { return true })
	keys, groups := groupBy(complete, func(m *models.MergedWell) string { return m.Sigla })
	wells := make([]WellProppant, 0, len(keys))
	for _, sigla := range keys {
		rows := groups[sigla]
		var total float64
		for _, m := range rows {
			total += m.Completion.ProppantTotal
		}
		wells = append(wells, WellProppant{
			StartYear:  rows[0].Summary.StartYear,
			Sigla:      sigla,
			Operator:   rows[0].Summary.Operator,
			ProppantTn: total,
		})
	}
	return wells
}

// ProppantByWell ranks wells by total proppant, top n per start year.
func ProppantByWell(activity []*models.MergedWell, n int) []WellProppant {
	return TopNPerGroup(wellProppant(activity), func(w WellProppant) int { return w.StartYear }, func(w WellProppant) float64 { return w.ProppantTn }, n)
}

// ProppantByOperator ranks operators by mean per-well proppant, top n per start year.
func ProppantByOperator(activity []*models.MergedWell, n int) []OperatorProppant {
	keys, groups := groupBy(wellProppant(activity), func(w WellProppant) yearOperatorKey {
		return yearOperatorKey{year: w.StartYear, operator: w.Operator}
	})
	ops := make([]OperatorProppant, 0, len(keys))
	for _, k := range keys {
		totals := make([]float64, 0, len(groups[k]))
		for _, w := range groups[k] {
			totals = append(totals, w.ProppantTn)
		}
		ops = append(ops, OperatorProppant{StartYear: k.year, Operator: k.operator, MeanProppantTn: mean(totals)})
	}
	return TopNPerGroup(ops, func(o OperatorProppant) int { return o.StartYear }, func(o OperatorProppant) float64 { return o.MeanProppantTn }, n)
}

type yearOperatorKey struct {
	year     int
	operator string
}

func yearOperator(m *models.MergedWell) yearOperatorKey {
	return yearOperatorKey{year: m.Summary.StartYear, operator: m.Summary.Operator}
}

// filterActivity keeps rows with both join sides that satisfy keep.
func filterActivity(activity []*models.MergedWell, keep func(*models.MergedWell) bool) []*models.MergedWell {
	return slices.DeleteFunc(slices.Clone(activity), func(m *models.MergedWell) bool {
		return !m.HasCompletion() || !m.HasProduction() || !keep(m)
	})
}

func distinctWells(rows []*models.MergedWell) int {
	seen := make(map[string]struct{}, len(rows))
	for _, m := range rows {
		seen[m.Sigla] = struct{}{}
	}
	return len(seen)
}
