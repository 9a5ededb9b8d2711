package pipeline

import (
	"shale-dashboard/internal/models"
)

// BuildCompletions applies the completion record cutoff, drops records
// without a base fracture id and exact duplicates. Input order is preserved.
func BuildCompletions(raw []*models.RawFractureRecord) (accepted []*models.CompletionRecord, rejected int) {
	seen := make(map[models.CompletionRecord]struct{}, len(raw))
	for _, r := range raw {
		rec, ok := r.ToCompletion()
		if !ok || rec.FractureID == "" {
			rejected++
			continue
		}
		if _, dup := seen[*rec]; dup {
			continue
		}
		seen[*rec] = struct{}{}
		accepted = append(accepted, rec)
	}
	return accepted, rejected
}

// JoinCompletions outer-joins completions with well summaries on sigla.
// Completion rows come first in input order, each paired with its well's
// summary when one exists, followed by production-only wells in summary order.
func JoinCompletions(completions []*models.CompletionRecord, summaries []*models.WellSummary) []*models.MergedWell {
	bySigla := make(map[string]*models.WellSummary, len(summaries))
	for _, s := range summaries {
		bySigla[s.Sigla] = s
	}

	merged := make([]*models.MergedWell, 0, len(completions)+len(summaries))
	matched := make(map[string]struct{}, len(completions))
	for _, c := range completions {
		merged = append(merged, &models.MergedWell{
			Sigla:      c.Sigla,
			Completion: c,
			Summary:    bySigla[c.Sigla],
		})
		matched[c.Sigla] = struct{}{}
	}

	for _, s := range summaries {
		if _, ok := matched[s.Sigla]; ok {
			continue
		}
		merged = append(merged, &models.MergedWell{Sigla: s.Sigla, Summary: s})
	}

	return merged
}

// ActivityFilter selects merged rows for the activity rankings: both sides
// present, target formation and resource sub-type.
type ActivityFilter struct {
	Formation string
	SubType   string
}

// Apply returns the rows of merged that pass the filter. merged is not modified.
func (f ActivityFilter) Apply(merged []*models.MergedWell) []*models.MergedWell {
	var out []*models.MergedWell
	for _, m := range merged {
		if !m.HasCompletion() || !m.HasProduction() {
			continue
		}
		if m.Summary.Formation != f.Formation || m.Summary.ResourceSubType != f.SubType {
			continue
		}
		out = append(out, m)
	}
	return out
}
