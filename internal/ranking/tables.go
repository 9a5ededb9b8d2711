package ranking

import (
	"fmt"
	"math"
	"time"

	"shale-dashboard/internal/models"
)

const dateLayout = "2006-01-02"

// Column labels shared by several views.
const (
	colCampaign = "Campaña"
	colSigla    = "Sigla"
	colOperator = "Empresa"
	colDate     = "Fecha"
)

func day(t time.Time) string {
	return t.Format(dateLayout)
}

// truncate mirrors the integer display of the peak-rate tables.
func truncate(v float64) int {
	return int(math.Trunc(v))
}

// HeadlineTable renders the consolidated totals.
func HeadlineTable(h Headline) *Table {
	t := NewTable("Producción Consolidada",
		"Fecha de Última Alocación", "Fecha Consolidada",
		"Total Caudal de Gas (MMm³/d)", "Total Caudal de Petróleo (km³/d)", "Total Caudal de Petróleo (kbpd)", "Pozos en Producción")
	if h.LatestDate.IsZero() {
		return t
	}
	t.Append(day(h.LatestDate), day(h.ConsolidatedDate), h.GasRate, h.OilRate, h.OilRateKbpd, h.ProducingWells)
	return t
}

// TopWellsTables renders the latest-month gas and oil leaders.
func TopWellsTables(w LatestTopWells) (gas, oil *Table) {
	gas = NewTable("Top Pozos por Producción de Gas", "Pozo", colOperator, "Producción de Gas (m³/día)")
	for _, r := range w.Gas {
		gas.Append(r.Sigla, r.Operator, r.Rate)
	}
	oil = NewTable("Top Pozos por Producción de Petróleo", "Pozo", colOperator, "Producción de Petróleo (m³/día)")
	for _, r := range w.Oil {
		oil.Append(r.Sigla, r.Operator, r.Rate)
	}
	return gas, oil
}

// OperatorSeriesTable renders per-operator monthly rate sums.
func OperatorSeriesTable(points []RatePoint) *Table {
	t := NewTable("Caudal por Empresa", colOperator, colDate, "Caudal de Gas (m³/d)", "Caudal de Petróleo (m³/d)")
	for _, pt := range points {
		t.Append(pt.Series, day(pt.Date), pt.GasRate, pt.OilRate)
	}
	return t
}

// VintageSeriesTable renders per-start-year monthly rate sums.
func VintageSeriesTable(points []VintagePoint) *Table {
	t := NewTable("Caudal por Campaña", colCampaign, colDate, "Caudal de Gas (m³/d)", "Caudal de Petróleo (m³/d)")
	for _, pt := range points {
		t.Append(pt.StartYear, day(pt.Date), pt.GasRate, pt.OilRate)
	}
	return t
}

// WellCountsTable renders producing wells per operator.
func WellCountsTable(counts []OperatorWellCount) *Table {
	t := NewTable("Cantidad de Pozos por Empresa", colOperator, "Número de Pozos")
	for _, c := range counts {
		t.Append(c.Operator, c.Wells)
	}
	return t
}

// WellsPerOperatorTable renders activity well counts for one year and fluid.
func WellsPerOperatorTable(year int, fluid string, counts []OperatorWellCount) *Table {
	t := NewTable(fmt.Sprintf("Pozos %s por Empresa (Año %d)", fluid, year), colOperator, "Número de Pozos")
	for _, c := range counts {
		t.Append(c.Operator, c.Wells)
	}
	return t
}

// LateralLengthWellTable renders the per-well branch length ranking, banded by year.
func LateralLengthWellTable(rows []WellLength) *Table {
	t := NewTable("Top Pozos con Máxima Longitud de Rama", colCampaign, colSigla, colOperator, "Longitud de Rama Maxima (metros)")
	for _, r := range rows {
		t.Append(r.StartYear, r.Sigla, r.Operator, r.LengthM)
	}
	return t.Banded()
}

// LateralLengthOperatorTable renders the per-operator branch length ranking, banded by year.
func LateralLengthOperatorTable(rows []OperatorLength) *Table {
	t := NewTable("Top Empresas con Máxima Longitud de Rama Promedio", colCampaign, colOperator, "Longitud de Rama Promedio (metros)")
	for _, r := range rows {
		t.Append(r.StartYear, r.Operator, r.MedianLengthM)
	}
	return t.Banded()
}

// PeakRateWellTable renders the per-well peak-rate ranking, banded by year.
func PeakRateWellTable(fluid Fluid, rows []WellPeak) *Table {
	peakCol := "Caudal Pico de Petróleo (m3/d)"
	if fluid == FluidGas {
		peakCol = "Caudal Pico de Gas (km3/d)"
	}
	t := NewTable(fmt.Sprintf("Tipo %s: Top Pozos con Mayor Caudal Pico", fluid.Label()),
		colCampaign, colSigla, colOperator, peakCol,
		"Cantidad de Fracturas", "Fracspacing (m/etapa)", "Agente de Sosten por Etapa (tn/etapa)")
	for _, r := range rows {
		t.Append(r.StartYear, r.Sigla, r.Operator, truncate(r.PeakRate),
			truncate(r.Stages), truncate(r.FracSpacing), truncate(r.ProppantPerStage))
	}
	return t.Banded()
}

// PeakRateOperatorTable renders the per-operator peak-rate ranking, banded by year.
func PeakRateOperatorTable(fluid Fluid, rows []OperatorPeak) *Table {
	peakCol := "Prom. Caudal Pico Petróleo"
	if fluid == FluidGas {
		peakCol = "Prom. Caudal Pico Gas"
	}
	t := NewTable(fmt.Sprintf("Tipo %s: Top Empresas con Mayores Caudales Pico", fluid.Label()),
		colCampaign, colOperator, peakCol, "Etapas Promedio")
	for _, r := range rows {
		t.Append(r.StartYear, r.Operator, r.MedianPeak, r.MedianStages)
	}
	return t.Banded()
}

// ProppantWellTable renders the per-well proppant ranking, banded by year.
func ProppantWellTable(rows []WellProppant) *Table {
	t := NewTable("Top Siglas con la Mayor Cantidad de Arena Bombeada por Año", colCampaign, colSigla, colOperator, "Máxima Arena Bombeada (tn)")
	for _, r := range rows {
		t.Append(r.StartYear, r.Sigla, r.Operator, round(r.ProppantTn, 0))
	}
	return t.Banded()
}

// ProppantOperatorTable renders the per-operator proppant ranking, banded by year.
func ProppantOperatorTable(rows []OperatorProppant) *Table {
	t := NewTable("Top Empresas con el Mayor Promedio de Arena Bombeada por Año", colCampaign, colOperator, "Prom. Arena Bombeada (tn)")
	for _, r := range rows {
		t.Append(r.StartYear, r.Operator, round(r.MeanProppantTn, 0))
	}
	return t.Banded()
}

// WatchlistTable renders a watched well's producing history.
func WatchlistTable(title string, w *WatchedWell) *Table {
	t := NewTable(title, "Meses", colDate, colSigla, "Caudal (m³/día)", "Caudal Pico (m³/día)")
	if w == nil {
		return t
	}
	for _, h := range w.History {
		t.Append(h.Counter, day(h.Date), w.Sigla, h.Rate, w.Peak)
	}
	return t
}

// FluidSummaryTable renders classification fields per well. Undefined ratios
// keep the sentinel value.
func FluidSummaryTable(summaries []*models.WellSummary) *Table {
	t := NewTable("Clasificación de Fluido", colSigla, colOperator, "Np", "Gp", "Wp", "GOR", "WOR", "WGR", "Fluido McCain", "Tipo de Pozo")
	for _, s := range summaries {
		t.Append(s.Sigla, s.Operator, s.Np, s.Gp, s.Wp, s.GOR, s.WOR, s.WGR, s.McCainFluid, s.EffectiveType)
	}
	return t
}

// WellHistoryTable renders one well's monthly series. Undefined rates are nil.
func WellHistoryTable(sigla string, records []*models.WellMonthRecord) *Table {
	t := NewTable("Historia de Producción "+sigla, colDate, "tef",
		"Caudal de Petróleo (m³/d)", "Caudal de Gas (m³/d)", "Caudal de Agua (m³/d)", "Np", "Gp", "Wp")
	for _, rec := range records {
		t.Append(day(rec.Date), rec.TEF, nullable(rec.OilRate), nullable(rec.GasRate), nullable(rec.WaterRate), rec.Np, rec.Gp, rec.Wp)
	}
	return t
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
