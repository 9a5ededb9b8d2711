package models

import (
	"time"
)

// Well type labels as they appear in the tipopozo column.
const (
	FluidOil  = "Petrolífero"
	FluidGas  = "Gasífero"
	OtherType = "Otro tipo"
)

// UndefinedRatio stands in for GOR/WOR/WGR when the denominator is zero. It
// means "undefined, effectively all gas/water", never a measured value, and
// must be left out of any average.
const UndefinedRatio = 100000.0

// IsUndefinedRatio reports whether v is the UndefinedRatio sentinel.
func IsUndefinedRatio(v float64) bool {
	return v == UndefinedRatio
}

// EUR horizons in days after the first producing month.
var EURHorizonsDays = [3]int{30, 90, 180}

// WellSummary is the full reduction of one well's monthly series.
type WellSummary struct {
	Sigla           string    `json:"sigla"`
	FirstDate       time.Time `json:"first_date"`
	LastDate        time.Time `json:"last_date"`
	StartYear       int       `json:"start_year"`
	Months          int       `json:"months"`
	ProducingMonths int       `json:"producing_months"`
	Operator        string    `json:"empresaNEW"`
	Block           string    `json:"areayacimiento"`
	Formation       string    `json:"formprod"`
	ResourceSubType string    `json:"sub_tipo_recurso"`
	WellType        string    `json:"tipopozo"`

	Np float64 `json:"Np"`
	Gp float64 `json:"Gp"`
	Wp float64 `json:"Wp"`

	GOR           float64 `json:"GOR"`
	WOR           float64 `json:"WOR"`
	WGR           float64 `json:"WGR"`
	McCainFluid   string  `json:"fluido_mccain"`
	EffectiveType string  `json:"tipopozoNEW"`

	// Peaks are nil when the well never had a producing (TEF > 0) month.
	QoPeak *float64 `json:"Qo_peak"`
	QgPeak *float64 `json:"Qg_peak"`

	// EUR values are nil when they cannot be evaluated; zero means evaluated
	// with no production.
	EUR30  *float64 `json:"EUR_30"`
	EUR90  *float64 `json:"EUR_90"`
	EUR180 *float64 `json:"EUR_180"`
}

// IsOil reports whether the well's effective type selects oil as its primary phase.
func (s *WellSummary) IsOil() bool {
	return s.EffectiveType == FluidOil
}

// PeakRate returns the primary-phase peak: oil for oil wells, gas otherwise.
func (s *WellSummary) PeakRate() *float64 {
	if s.IsOil() {
		return s.QoPeak
	}
	return s.QgPeak
}

// MergedWell is one row of the outer join between completion records and well
// summaries. Either side may be nil.
type MergedWell struct {
	Sigla      string            `json:"sigla"`
	Completion *CompletionRecord `json:"completion"`
	Summary    *WellSummary      `json:"summary"`
}

// HasCompletion reports whether the row carries fracture data.
func (m *MergedWell) HasCompletion() bool {
	return m.Completion != nil
}

// HasProduction reports whether the row carries production-derived fields.
func (m *MergedWell) HasProduction() bool {
	return m.Summary != nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
