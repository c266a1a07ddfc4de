package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/JonMunkholm/ledgerimport/internal/schema"
)

// Aggregator accumulates findings from every layer. It is the only place
// that decides how a finding is classified.
type Aggregator struct {
	findings []Finding
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add appends findings.
func (a *Aggregator) Add(fs ...Finding) {
	a.findings = append(a.findings, fs...)
}

// Findings returns everything collected so far.
func (a *Aggregator) Findings() []Finding {
	return a.findings
}

// IsCommittable reports whether no blocking error has been collected.
func (a *Aggregator) IsCommittable() bool {
	for _, f := range a.findings {
		if isBlocking(f) {
			return false
		}
	}
	return true
}

// isError reports whether the finding belongs in Report.Errors.
func isError(f Finding) bool {
	switch f.Class {
	case ClassStructural, ClassPersistence, ClassBackup:
		return true
	case ClassReferential:
		return !f.Optional
	case ClassArithmetic:
		return f.Blocking
	}
	return false
}

// isBlocking reports whether the finding prevents the import from being
// committed. Mandatory referential errors exclude one record and do not block.
func isBlocking(f Finding) bool {
	if !isError(f) {
		return false
	}
	return f.Class != ClassReferential
}

// Build produces a report for the run. imported holds the per-entity counts
// of records that survived validation.
func (a *Aggregator) Build(runID string, now time.Time, imported map[schema.EntityType]int) *Report {
	r := &Report{
		RunID:           runID,
		Timestamp:       now.UTC(),
		Errors:          []ErrorEntry{},
		Warnings:        []WarningEntry{},
		Transformations: []TransformationEntry{},
		Counts: Counts{
			ImportedByType: make(map[string]int),
			FindingsByType: make(map[string]int),
		},
	}

	errored := make(map[string]struct{})
	for _, f := range a.findings {
		r.Counts.FindingsByType[f.Type]++

		switch {
		case f.Class == ClassTransformation:
			r.Transformations = append(r.Transformations, TransformationEntry{
				Type:     f.Type,
				Entity:   string(f.Entity),
				Field:    f.Field,
				Sheet:    f.Sheet,
				RowIndex: f.RowIndex,
				From:     f.From,
				To:       f.To,
			})

		case isError(f):
			blocking := isBlocking(f)
			r.Errors = append(r.Errors, ErrorEntry{
				Kind:     f.Class,
				Type:     f.Type,
				Entity:   string(f.Entity),
				Field:    f.Field,
				Sheet:    f.Sheet,
				RowIndex: f.RowIndex,
				RecordID: f.RecordID,
				Value:    f.Value,
				Message:  f.Message,
				Declared: f.Declared,
				Computed: f.Computed,
				Delta:    f.Delta(),
				Blocking: blocking,
				Excluded: !blocking,
			})
			errored[recordKey(f)] = struct{}{}
			if !blocking {
				r.Counts.Excluded++
			}

		default:
			r.Warnings = append(r.Warnings, WarningEntry{
				Kind:     f.Class,
				Type:     f.Type,
				Entity:   string(f.Entity),
				Field:    f.Field,
				Sheet:    f.Sheet,
				RowIndex: f.RowIndex,
				RecordID: f.RecordID,
				Value:    f.Value,
				Declared: f.Declared,
				Computed: f.Computed,
				Delta:    f.Delta(),
				Message:  f.Message,
			})
		}
	}

	for entity, n := range imported {
		r.Counts.ImportedByType[string(entity)] = n
		r.Counts.Imported += n
	}
	r.Counts.Errored = len(errored)
	r.Counts.Warned = len(r.Warnings)
	r.Counts.Transformed = len(r.Transformations)
	r.IsCommittable = a.IsCommittable()

	sort.SliceStable(r.Errors, func(i, j int) bool {
		return r.Errors[i].Blocking && !r.Errors[j].Blocking
	})
	return r
}

func recordKey(f Finding) string {
	return fmt.Sprintf("%s|%s|%d|%s", f.Entity, f.Sheet, f.RowIndex, f.RecordID)
}
