package models

import (
	"math"
	"strings"
)

// Completion record cutoff: anything at or below these values is a workover,
// a vertical well or an incomplete record.
const (
	MinBranchLengthM = 100.0
	MinStageCount    = 6.0
	MinProppantTn    = 100.0
)

// RawFractureRecord is one row of the hydraulic fracture table.
type RawFractureRecord struct {
	Sigla            string  `db:"sigla"`
	FractureID       string  `db:"id_base_fractura_adjiv"`
	BranchLengthM    float64 `db:"longitud_rama_horizontal_m"`
	StageCount       float64 `db:"cantidad_fracturas"`
	ProppantNational float64 `db:"arena_bombeada_nacional_tn"`
	ProppantImported float64 `db:"arena_bombeada_importada_tn"`
}

// CompletionRecord is a fracture record that passed the cutoff, with its per-record ratios.
type CompletionRecord struct {
	Sigla            string  `json:"sigla"`
	FractureID       string  `json:"id_base_fractura_adjiv"`
	BranchLengthM    float64 `json:"longitud_rama_horizontal_m"`
	StageCount       float64 `json:"cantidad_fracturas"`
	ProppantNational float64 `json:"arena_bombeada_nacional_tn"`
	ProppantImported float64 `json:"arena_bombeada_importada_tn"`
	ProppantTotal    float64 `json:"arena_total_tn"`
	FracSpacing      float64 `json:"fracspacing"`
	ProppantPerStage float64 `json:"proppant_per_stage"`
}

// ToCompletion applies the record cutoff. ok is false when the record is not a
// multi-stage horizontal completion; the record is then dropped, not an error.
func (r *RawFractureRecord) ToCompletion() (rec *CompletionRecord, ok bool) {
	sigla := strings.TrimSpace(r.Sigla)
	total := r.ProppantNational + r.ProppantImported

	if sigla == "" ||
		!(r.BranchLengthM > MinBranchLengthM) ||
		!(r.StageCount > MinStageCount) ||
		!(total > MinProppantTn) ||
		math.IsInf(r.BranchLengthM, 0) || math.IsInf(r.StageCount, 0) || math.IsInf(total, 0) {
		return nil, false
	}

	return &CompletionRecord{
		Sigla:            sigla,
		FractureID:       strings.TrimSpace(r.FractureID),
		BranchLengthM:    r.BranchLengthM,
		StageCount:       r.StageCount,
		ProppantNational: r.ProppantNational,
		ProppantImported: r.ProppantImported,
		ProppantTotal:    total,
		FracSpacing:      r.BranchLengthM / r.StageCount,
		ProppantPerStage: total / r.StageCount,
	}, true
}
