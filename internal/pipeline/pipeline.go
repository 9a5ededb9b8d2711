// Package pipeline derives every analytical table of the dashboard from the
// two raw inputs: per-well monthly rates and cumulatives, fluid
// classification, peaks, early-time EUR and the completion join.
//
// A Pipeline is built once per loaded input and never mutated afterwards, so
// it can be shared by concurrent readers.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"shale-dashboard/internal/models"
)

// Options parameterizes Build.
type Options struct {
	Operators *OperatorCanonicalizer
	Activity  ActivityFilter
	// Workers bounds the per-well fan-out. Zero means GOMAXPROCS.
	Workers int
}

// DefaultOptions returns the basin defaults: default aliases, VMUT shale.
func DefaultOptions() Options {
	return Options{
		Operators: NewOperatorCanonicalizer(nil),
		Activity:  ActivityFilter{Formation: "VMUT", SubType: "SHALE"},
	}
}

// Pipeline holds the immutable derived tables of one session.
type Pipeline struct {
	// Records holds every month record with derived fields, grouped by well
	// in order of first appearance and ordered by date within a well.
	Records   []*models.WellMonthRecord
	Series    []*WellSeries
	Summaries []*models.WellSummary

	Completions         []*models.CompletionRecord
	RejectedCompletions int

	// Merged is the unfiltered outer join; Activity is its filtered view.
	Merged   []*models.MergedWell
	Activity []*models.MergedWell

	BuiltAt time.Time

	index map[string]int
}

// Build runs the full derivation over validated month records and raw
// fracture records. Inputs are not modified.
func Build(ctx context.Context, production []*models.WellMonthRecord, fractures []*models.RawFractureRecord, opts Options) (*Pipeline, error) {
	series, err := BuildSeries(production, opts.Operators)
	if err != nil {
		return nil, fmt.Errorf("build well series: %w", err)
	}

	summaries := make([]*models.WellSummary, len(series))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range series {
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summaries[i] = Summarize(s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summarize wells: %w", err)
	}

	completions, rejected := BuildCompletions(fractures)
	merged := JoinCompletions(completions, summaries)

	p := &Pipeline{
		Series:              series,
		Summaries:           summaries,
		Completions:         completions,
		RejectedCompletions: rejected,
		Merged:              merged,
		Activity:            opts.Activity.Apply(merged),
		BuiltAt:             time.Now().UTC(),
		index:               make(map[string]int, len(series)),
	}

	n := 0
	for _, s := range series {
		n += len(s.Records)
	}
	p.Records = make([]*models.WellMonthRecord, 0, n)
	for i, s := range series {
		p.index[s.Sigla] = i
		p.Records = append(p.Records, s.Records...)
	}

	return p, nil
}

// Summary returns the summary of one well.
func (p *Pipeline) Summary(sigla string) (*models.WellSummary, bool) {
	i, ok := p.index[sigla]
	if !ok {
		return nil, false
	}
	return p.Summaries[i], true
}

// WellRecords returns one well's monthly series ordered by date.
func (p *Pipeline) WellRecords(sigla string) ([]*models.WellMonthRecord, bool) {
	i, ok := p.index[sigla]
	if !ok {
		return nil, false
	}
	return p.Series[i].Records, true
}

// ProducingRecords returns the records with TEF > 0, the only rows that may
// feed rate-based views.
func (p *Pipeline) ProducingRecords() []*models.WellMonthRecord {
	out := make([]*models.WellMonthRecord, 0, len(p.Records))
	for _, rec := range p.Records {
		if rec.Producing() {
			out = append(out, rec)
		}
	}
	return out
}

// LatestProducingDate returns the latest month with any TEF > 0 record.
func (p *Pipeline) LatestProducingDate() (time.Time, bool) {
	var latest time.Time
	found := false
	for _, rec := range p.Records {
		if rec.Producing() && (!found || rec.Date.After(latest)) {
			latest = rec.Date
			found = true
		}
	}
	return latest, found
}

// WellCount returns the number of distinct wells.
func (p *Pipeline) WellCount() int {
	return len(p.Series)
}
