package ranking

import (
	"cmp"
	"slices"
	"time"

	"shale-dashboard/internal/models"
	"shale-dashboard/internal/pipeline"
)

// BarrelsPerCubicMeter converts m³ of oil to barrels.
const BarrelsPerCubicMeter = 6.28981

// OthersLabel groups operators outside the top of a series.
const OthersLabel = "Otros"

// Headline holds the basin totals of the consolidated month.
type Headline struct {
	LatestDate       time.Time `json:"latest_date"`
	ConsolidatedDate time.Time `json:"consolidated_date"`
	LagMonths        int       `json:"lag_months"`
	// GasRate is in MMm³/d, OilRate in km³/d, OilRateKbpd in thousand barrels per day.
	GasRate        float64 `json:"gas_rate_mmm3d"`
	OilRate        float64 `json:"oil_rate_km3d"`
	OilRateKbpd    float64 `json:"oil_rate_kbpd"`
	ProducingWells int     `json:"producing_wells"`
}

// ComputeHeadline totals the rates of the month lagMonths before the latest
// allocated month. ok is false when nothing has produced.
func ComputeHeadline(p *pipeline.Pipeline, lagMonths int) (h Headline, ok bool) {
	latest, ok := p.LatestProducingDate()
	if !ok {
		return Headline{}, false
	}

	h = Headline{
		LatestDate:       latest,
		ConsolidatedDate: latest.AddDate(0, -lagMonths, 0),
		LagMonths:        lagMonths,
	}

	var gas, oil float64
	for _, rec := range p.ProducingRecords() {
		if !rec.Date.Equal(h.ConsolidatedDate) {
			continue
		}
		gas += *rec.GasRate
		oil += *rec.OilRate
		h.ProducingWells++
	}

	gas /= 1000
	oil /= 1000
	h.GasRate = round(gas, 1)
	h.OilRate = round(oil, 1)
	h.OilRateKbpd = round(oil*BarrelsPerCubicMeter, 1)
	return h, true
}

// WellRate is one well's rate in one month.
type WellRate struct {
	Sigla    string  `json:"sigla"`
	Operator string  `json:"empresaNEW"`
	Rate     float64 `json:"rate"`
}

// LatestTopWells holds the best wells of the latest allocated month.
type LatestTopWells struct {
	Date time.Time  `json:"date"`
	Gas  []WellRate `json:"gas"`
	Oil  []WellRate `json:"oil"`
}

// TopWellsLatest returns the top n wells by gas rate and by oil rate in the
// latest allocated month.
func TopWellsLatest(p *pipeline.Pipeline, n int) LatestTopWells {
	latest, ok := p.LatestProducingDate()
	if !ok {
		return LatestTopWells{}
	}

	var gas, oil []WellRate
	for _, rec := range p.ProducingRecords() {
		if !rec.Date.Equal(latest) {
			continue
		}
		gas = append(gas, WellRate{Sigla: rec.Sigla, Operator: rec.Operator, Rate: *rec.GasRate})
		oil = append(oil, WellRate{Sigla: rec.Sigla, Operator: rec.Operator, Rate: *rec.OilRate})
	}

	byRate := func(w WellRate) float64 { return w.Rate }
	return LatestTopWells{Date: latest, Gas: TopN(gas, byRate, n), Oil: TopN(oil, byRate, n)}
}

// RatePoint is a summed gas and oil rate at one date for one series.
type RatePoint struct {
	Series  string    `json:"series"`
	Date    time.Time `json:"date"`
	GasRate float64   `json:"total_gas_rate"`
	OilRate float64   `json:"total_oil_rate"`
}

type seriesKey struct {
	series string
	date   time.Time
}

// sumRates adds producing-record rates by (series, date), ordered by series then date.
func sumRates(records []*models.WellMonthRecord, series func(*models.WellMonthRecord) string) []RatePoint {
	sums := make(map[seriesKey]*RatePoint)
	for _, rec := range records {
		k := seriesKey{series: series(rec), date: rec.Date}
		pt, ok := sums[k]
		if !ok {
			pt = &RatePoint{Series: k.series, Date: k.date}
			sums[k] = pt
		}
		pt.GasRate += *rec.GasRate
		pt.OilRate += *rec.OilRate
	}

	out := make([]RatePoint, 0, len(sums))
	for _, pt := range sums {
		out = append(out, *pt)
	}
	slices.SortFunc(out, func(a, b RatePoint) int {
		if c := cmp.Compare(a.Series, b.Series); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	return out
}

// OperatorSeries sums rates per operator and month. Operators outside the top
// n by total oil rate are folded into OthersLabel.
func OperatorSeries(p *pipeline.Pipeline, n int) []RatePoint {
	producing := p.ProducingRecords()

	keys, groups := groupBy(producing, func(rec *models.WellMonthRecord) string { return rec.Operator })
	slices.Sort(keys)
	totals := make([]WellRate, 0, len(keys))
	for _, op := range keys {
		var oil float64
		for _, rec := range groups[op] {
			oil += *rec.OilRate
		}
		totals = append(totals, WellRate{Operator: op, Rate: oil})
	}

	top := make(map[string]struct{}, n)
	for _, t := range TopN(totals, func(w WellRate) float64 { return w.Rate }, n) {
		top[t.Operator] = struct{}{}
	}

	return sumRates(producing, func(rec *models.WellMonthRecord) string {
		if _, ok := top[rec.Operator]; ok {
			return rec.Operator
		}
		return OthersLabel
	})
}

// VintagePoint is a summed gas and oil rate at one date for one start year.
type VintagePoint struct {
	StartYear int       `json:"start_year"`
	Date      time.Time `json:"date"`
	GasRate   float64   `json:"total_gas_rate"`
	OilRate   float64   `json:"total_oil_rate"`
}

// VintageSeries sums rates per well start year and month, dropping points
// where either sum is not positive.
func VintageSeries(p *pipeline.Pipeline) []VintagePoint {
	type vintageKey struct {
		year int
		date time.Time
	}

	sums := make(map[vintageKey]*VintagePoint)
	var order []vintageKey
	for _, rec := range p.ProducingRecords() {
		s, _ := p.Summary(rec.Sigla)
		k := vintageKey{year: s.StartYear, date: rec.Date}
		pt, ok := sums[k]
		if !ok {
			pt = &VintagePoint{StartYear: s.StartYear, Date: rec.Date}
			sums[k] = pt
			order = append(order, k)
		}
		pt.GasRate += *rec.GasRate
		pt.OilRate += *rec.OilRate
	}

	out := make([]VintagePoint, 0, len(order))
	for _, k := range order {
		if pt := sums[k]; pt.GasRate > 0 && pt.OilRate > 0 {
			out = append(out, *pt)
		}
	}
	slices.SortFunc(out, func(a, b VintagePoint) int {
		if c := cmp.Compare(a.StartYear, b.StartYear); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	return out
}

// WellCounts returns the top n operators by number of distinct producing wells.
func WellCounts(p *pipeline.Pipeline, n int) []OperatorWellCount {
	keys, groups := groupBy(p.ProducingRecords(), func(rec *models.WellMonthRecord) string { return rec.Operator })
	slices.Sort(keys)

	counts := make([]OperatorWellCount, 0, len(keys))
	for _, op := range keys {
		seen := make(map[string]struct{})
		for _, rec := range groups[op] {
			seen[rec.Sigla] = struct{}{}
		}
		counts = append(counts, OperatorWellCount{Operator: op, Wells: len(seen)})
	}
	return TopN(counts, func(c OperatorWellCount) float64 { return float64(c.Wells) }, n)
}

// HistoryPoint is one producing month of a watched well.
type HistoryPoint struct {
	Counter int       `json:"counter"`
	Date    time.Time `json:"date"`
	Rate    float64   `json:"rate"`
}

// WatchedWell is the holder of a basin-wide rate record with its history.
type WatchedWell struct {
	Sigla    string         `json:"sigla"`
	Operator string         `json:"empresaNEW"`
	Peak     float64        `json:"peak_rate"`
	PeakDate time.Time      `json:"peak_date"`
	History  []HistoryPoint `json:"history"`
}

// Watchlist holds the record gas and oil wells.
type Watchlist struct {
	Gas *WatchedWell `json:"gas"`
	Oil *WatchedWell `json:"oil"`
}

// BuildWatchlist finds the wells holding the highest gas rate and the highest
// oil rate of any producing month. Ties go to the first record.
func BuildWatchlist(p *pipeline.Pipeline) Watchlist {
	gasRate := func(rec *models.WellMonthRecord) float64 { return *rec.GasRate }
	oilRate := func(rec *models.WellMonthRecord) float64 { return *rec.OilRate }
	return Watchlist{
		Gas: watch(p, gasRate),
		Oil: watch(p, oilRate),
	}
}

func watch(p *pipeline.Pipeline, rate func(*models.WellMonthRecord) float64) *WatchedWell {
	var best *models.WellMonthRecord
	for _, rec := range p.ProducingRecords() {
		if best == nil || rate(rec) > rate(best) {
			best = rec
		}
	}
	if best == nil {
		return nil
	}

	w := &WatchedWell{Sigla: best.Sigla, Operator: best.Operator, Peak: rate(best), PeakDate: best.Date}
	records, _ := p.WellRecords(best.Sigla)
	for _, rec := range records {
		if !rec.Producing() {
			continue
		}
		w.History = append(w.History, HistoryPoint{Counter: len(w.History) + 1, Date: rec.Date, Rate: rate(rec)})
	}
	return w
}
