package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RawProductionRecord is one row of the monthly production table as delivered
// by a loader source, already split into typed columns.
type RawProductionRecord struct {
	Sigla           string   `db:"sigla"`
	Year            int      `db:"anio"`
	Month           int      `db:"mes"`
	OilVolume       float64  `db:"prod_pet"`
	GasVolume       float64  `db:"prod_gas"`
	WaterVolume     float64  `db:"prod_agua"`
	TEF             float64  `db:"tef"`
	Operator        string   `db:"empresa"`
	Block           string   `db:"areayacimiento"`
	CoordX          *float64 `db:"coordenadax"`
	CoordY          *float64 `db:"coordenaday"`
	Formation       string   `db:"formprod"`
	ResourceSubType string   `db:"sub_tipo_recurso"`
	WellType        string   `db:"tipopozo"`
}

// ToMonthRecord validates the row and converts it to a WellMonthRecord.
// Derived fields (rates, cumulatives, canonical operator) are filled by the pipeline.
func (r *RawProductionRecord) ToMonthRecord() (*WellMonthRecord, error) {
	sigla := strings.TrimSpace(r.Sigla)
	if sigla == "" {
		return nil, &ValidationError{
			Field:   "sigla",
			Value:   r.Sigla,
			Message: "well identifier is empty",
		}
	}

	if r.Month < 1 || r.Month > 12 {
		return nil, &ValidationError{
			Field:   "mes",
			Value:   fmt.Sprint(r.Month),
			Message: fmt.Sprintf("well %s: month must be between 1 and 12", sigla),
		}
	}

	if r.Year < 1900 || r.Year > 2200 {
		return nil, &ValidationError{
			Field:   "anio",
			Value:   fmt.Sprint(r.Year),
			Message: fmt.Sprintf("well %s: year out of range", sigla),
		}
	}

	volumes := []struct {
		field string
		value float64
	}{
		{"prod_pet", r.OilVolume},
		{"prod_gas", r.GasVolume},
		{"prod_agua", r.WaterVolume},
		{"tef", r.TEF},
	}
	for _, v := range volumes {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return nil, &ValidationError{
				Field:   v.field,
				Value:   fmt.Sprint(v.value),
				Message: fmt.Sprintf("well %s: not a finite number", sigla),
			}
		}
	}

	if r.TEF < 0 {
		return nil, &ValidationError{
			Field:   "tef",
			Value:   fmt.Sprint(r.TEF),
			Message: fmt.Sprintf("well %s: effective time cannot be negative", sigla),
		}
	}

	return &WellMonthRecord{
		Sigla:           sigla,
		Year:            r.Year,
		Month:           r.Month,
		Date:            time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC),
		OilVolume:       r.OilVolume,
		GasVolume:       r.GasVolume,
		WaterVolume:     r.WaterVolume,
		TEF:             r.TEF,
		RawOperator:     strings.TrimSpace(r.Operator),
		Operator:        strings.TrimSpace(r.Operator),
		Block:           strings.TrimSpace(r.Block),
		CoordX:          r.CoordX,
		CoordY:          r.CoordY,
		Formation:       strings.TrimSpace(r.Formation),
		ResourceSubType: strings.TrimSpace(r.ResourceSubType),
		WellType:        strings.TrimSpace(r.WellType),
	}, nil
}

// WellMonthRecord is one well in one calendar month.
type WellMonthRecord struct {
	Sigla           string    `json:"sigla"`
	Year            int       `json:"anio"`
	Month           int       `json:"mes"`
	Date            time.Time `json:"date"`
	OilVolume       float64   `json:"prod_pet"`
	GasVolume       float64   `json:"prod_gas"`
	WaterVolume     float64   `json:"prod_agua"`
	TEF             float64   `json:"tef"`
	RawOperator     string    `json:"empresa"`
	Operator        string    `json:"empresaNEW"`
	Block           string    `json:"areayacimiento"`
	CoordX          *float64  `json:"coordenadax,omitempty"`
	CoordY          *float64  `json:"coordenaday,omitempty"`
	Formation       string    `json:"formprod"`
	ResourceSubType string    `json:"sub_tipo_recurso"`
	WellType        string    `json:"tipopozo"`

	// Rates are nil when TEF is zero: the month still counts toward the
	// cumulatives but has no defined rate.
	OilRate   *float64 `json:"oil_rate"`
	GasRate   *float64 `json:"gas_rate"`
	WaterRate *float64 `json:"water_rate"`

	Np float64 `json:"Np"`
	Gp float64 `json:"Gp"`
	Wp float64 `json:"Wp"`
}

// Producing reports whether the month has a defined rate (TEF > 0). Every
// rate-based consumer must filter on it.
func (r *WellMonthRecord) Producing() bool {
	return r.TEF > 0
}
