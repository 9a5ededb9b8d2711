package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawProductionRecord_ToMonthRecord(t *testing.T) {
	tests := []struct {
		name        string
		record      RawProductionRecord
		wantErr     bool
		wantField   string
		checkValues func(*testing.T, *WellMonthRecord)
	}{
		{
			name: "valid record",
			record: RawProductionRecord{
				Sigla: " YPF.Nq.LACh-1(h) ", Year: 2023, Month: 3,
				OilVolume: 1200, GasVolume: 350, WaterVolume: 40, TEF: 0.9,
				Operator: "YPF S.A.", Formation: "VMUT", ResourceSubType: "SHALE", WellType: FluidOil,
				CoordX: Float(2500000), CoordY: nil,
			},
			checkValues: func(t *testing.T, rec *WellMonthRecord) {
				assert.Equal(t, "YPF.Nq.LACh-1(h)", rec.Sigla)
				assert.True(t, rec.Date.Equal(time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)))
				assert.Equal(t, "YPF S.A.", rec.RawOperator)
				assert.Equal(t, "YPF S.A.", rec.Operator, "canonicalization happens later")
				assert.Nil(t, rec.OilRate, "rates are derived by the pipeline")
				assert.NotNil(t, rec.CoordX)
				assert.Nil(t, rec.CoordY)
				assert.True(t, rec.Producing())
			},
		},
		{
			name:   "zero tef is valid but not producing",
			record: RawProductionRecord{Sigla: "W1", Year: 2023, Month: 1, TEF: 0},
			checkValues: func(t *testing.T, rec *WellMonthRecord) {
				assert.False(t, rec.Producing())
			},
		},
		{
			name:      "empty sigla",
			record:    RawProductionRecord{Sigla: "  ", Year: 2023, Month: 1},
			wantErr:   true,
			wantField: "sigla",
		},
		{
			name:      "month out of range",
			record:    RawProductionRecord{Sigla: "W1", Year: 2023, Month: 13},
			wantErr:   true,
			wantField: "mes",
		},
		{
			name:      "year out of range",
			record:    RawProductionRecord{Sigla: "W1", Year: 23, Month: 1},
			wantErr:   true,
			wantField: "anio",
		},
		{
			name:      "NaN volume",
			record:    RawProductionRecord{Sigla: "W1", Year: 2023, Month: 1, OilVolume: math.NaN(), TEF: 1},
			wantErr:   true,
			wantField: "prod_pet",
		},
		{
			name:      "infinite gas volume",
			record:    RawProductionRecord{Sigla: "W1", Year: 2023, Month: 1, GasVolume: math.Inf(1), TEF: 1},
			wantErr:   true,
			wantField: "prod_gas",
		},
		{
			name:      "NaN tef",
			record:    RawProductionRecord{Sigla: "W1", Year: 2023, Month: 1, TEF: math.NaN()},
			wantErr:   true,
			wantField: "tef",
		},
		{
			name:      "negative tef",
			record:    RawProductionRecord{Sigla: "W1", Year: 2023, Month: 1, TEF: -0.1},
			wantErr:   true,
			wantField: "tef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := tt.record.ToMonthRecord()
			if tt.wantErr {
				require.Error(t, err)
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.wantField, verr.Field)
				assert.False(t, verr.IsTransient())
				return
			}
			require.NoError(t, err)
			if tt.checkValues != nil {
				tt.checkValues(t, rec)
			}
		})
	}
}

func TestRawFractureRecord_ToCompletion(t *testing.T) {
	tests := []struct {
		name    string
		record  RawFractureRecord
		wantOK  bool
		spacing float64
		perStg  float64
	}{
		{
			name:    "multi-stage horizontal",
			record:  RawFractureRecord{Sigla: "W1", FractureID: "10", BranchLengthM: 2500, StageCount: 50, ProppantNational: 3000, ProppantImported: 1000},
			wantOK:  true,
			spacing: 50,
			perStg:  80,
		},
		{
			name:   "branch length at cutoff",
			record: RawFractureRecord{Sigla: "W1", BranchLengthM: 100, StageCount: 20, ProppantNational: 500},
		},
		{
			name:   "stage count at cutoff",
			record: RawFractureRecord{Sigla: "W1", BranchLengthM: 1000, StageCount: 6, ProppantNational: 500},
		},
		{
			name:   "proppant at cutoff across both sources",
			record: RawFractureRecord{Sigla: "W1", BranchLengthM: 1000, StageCount: 20, ProppantNational: 60, ProppantImported: 40},
		},
		{
			name:    "proppant just above cutoff",
			record:  RawFractureRecord{Sigla: "W1", BranchLengthM: 1000, StageCount: 20, ProppantNational: 60, ProppantImported: 40.5},
			wantOK:  true,
			spacing: 50,
			perStg:  100.5 / 20,
		},
		{
			name:   "missing sigla",
			record: RawFractureRecord{BranchLengthM: 1000, StageCount: 20, ProppantNational: 500},
		},
		{
			name:   "infinite branch length",
			record: RawFractureRecord{Sigla: "W1", BranchLengthM: math.Inf(1), StageCount: 20, ProppantNational: 500},
		},
		{
			name:   "NaN proppant",
			record: RawFractureRecord{Sigla: "W1", BranchLengthM: 1000, StageCount: 20, ProppantNational: math.NaN()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := tt.record.ToCompletion()
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, rec)
				return
			}
			assert.InDelta(t, tt.spacing, rec.FracSpacing, 1e-9)
			assert.InDelta(t, tt.perStg, rec.ProppantPerStage, 1e-9)
			assert.InDelta(t, tt.record.ProppantNational+tt.record.ProppantImported, rec.ProppantTotal, 1e-9)
		})
	}
}

func TestWellSummary_PeakRate(t *testing.T) {
	oil := &WellSummary{EffectiveType: FluidOil, QoPeak: Float(300), QgPeak: Float(90000)}
	gas := &WellSummary{EffectiveType: FluidGas, QoPeak: Float(10), QgPeak: Float(500000)}
	other := &WellSummary{EffectiveType: "Inyección de Agua", QgPeak: Float(7)}

	assert.True(t, oil.IsOil())
	assert.Equal(t, 300.0, *oil.PeakRate())
	assert.Equal(t, 500000.0, *gas.PeakRate())
	assert.Equal(t, 7.0, *other.PeakRate())
}

func TestMergedWell_Sides(t *testing.T) {
	onlyFrac := MergedWell{Sigla: "F", Completion: &CompletionRecord{Sigla: "F"}}
	onlyProd := MergedWell{Sigla: "P", Summary: &WellSummary{Sigla: "P"}}

	assert.True(t, onlyFrac.HasCompletion())
	assert.False(t, onlyFrac.HasProduction())
	assert.False(t, onlyProd.HasCompletion())
	assert.True(t, onlyProd.HasProduction())
}

func TestIsUndefinedRatio(t *testing.T) {
	assert.True(t, IsUndefinedRatio(UndefinedRatio))
	assert.False(t, IsUndefinedRatio(2999.9))
}
