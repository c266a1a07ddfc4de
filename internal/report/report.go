package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// ErrorEntry is a finding that lands in Report.Errors.
type ErrorEntry struct {
	Kind     Class            `json:"kind"`
	Type     string           `json:"type"`
	Entity   string           `json:"entity,omitempty"`
	Field    string           `json:"field,omitempty"`
	Sheet    string           `json:"sheet,omitempty"`
	RowIndex int              `json:"rowIndex"`
	RecordID string           `json:"recordId,omitempty"`
	Value    string           `json:"value,omitempty"`
	Message  string           `json:"message"`
	Declared *decimal.Decimal `json:"declared,omitempty"`
	Computed *decimal.Decimal `json:"computed,omitempty"`
	Delta    *decimal.Decimal `json:"delta,omitempty"`
	// Blocking errors make the whole import non-committable. Non-blocking
	// errors only exclude the offending record.
	Blocking bool `json:"blocking"`
	Excluded bool `json:"excluded,omitempty"`
}

// WarningEntry is a non-blocking finding.
type WarningEntry struct {
	Kind     Class            `json:"kind"`
	Type     string           `json:"type"`
	Entity   string           `json:"entity,omitempty"`
	Field    string           `json:"field,omitempty"`
	Sheet    string           `json:"sheet,omitempty"`
	RowIndex int              `json:"rowIndex,omitempty"`
	RecordID string           `json:"recordId,omitempty"`
	Value    string           `json:"value,omitempty"`
	Declared *decimal.Decimal `json:"declared,omitempty"`
	Computed *decimal.Decimal `json:"computed,omitempty"`
	Delta    *decimal.Decimal `json:"delta,omitempty"`
	Message  string           `json:"message"`
}

// TransformationEntry records an input value the adapter rewrote.
type TransformationEntry struct {
	Type     string `json:"type"`
	Entity   string `json:"entity"`
	Field    string `json:"field"`
	Sheet    string `json:"sheet,omitempty"`
	RowIndex int    `json:"rowIndex"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// Counts summarizes the run.
type Counts struct {
	Imported       int            `json:"imported"`
	Errored        int            `json:"errored"`
	Warned         int            `json:"warned"`
	Excluded       int            `json:"excluded"`
	Transformed    int            `json:"transformed"`
	ImportedByType map[string]int `json:"importedByEntity,omitempty"`
	FindingsByType map[string]int `json:"findingsByType,omitempty"`
}

// Transition is one entry of the run's state history.
type Transition struct {
	State string    `json:"state"`
	At    time.Time `json:"at"`
}

// CommitSummary describes what the committer wrote.
type CommitSummary struct {
	Written          map[string]int `json:"written"`
	Batches          int            `json:"batches"`
	Overwritten      int            `json:"overwritten"`
	FailedCollection string         `json:"failedCollection,omitempty"`
	FailedBatch      int            `json:"failedBatch,omitempty"`
	Attempts         int            `json:"attempts,omitempty"`
}

// Report is the diagnostic artifact returned by an import run and written
// to disk as JSON.
type Report struct {
	RunID           string                     `json:"runId"`
	Timestamp       time.Time                  `json:"timestamp"`
	Source          string                     `json:"source,omitempty"`
	State           string                     `json:"state"`
	History         []Transition               `json:"history"`
	Strict          bool                       `json:"strict"`
	DryRun          bool                       `json:"dryRun,omitempty"`
	IsCommittable   bool                       `json:"isCommittable"`
	Errors          []ErrorEntry               `json:"errors"`
	Warnings        []WarningEntry             `json:"warnings"`
	Transformations []TransformationEntry      `json:"transformations"`
	Counts          Counts                     `json:"counts"`
	Totals          map[string]decimal.Decimal `json:"totals,omitempty"`
	SnapshotID      string                     `json:"snapshotId,omitempty"`
	Commit          *CommitSummary             `json:"commit,omitempty"`
	Failure         *UserMessage               `json:"failure,omitempty"`
	FailureDetail   string                     `json:"failureDetail,omitempty"`
}

// Transition appends a state change to the history and makes it current.
func (r *Report) Transition(state string, at time.Time) {
	r.State = state
	r.History = append(r.History, Transition{State: state, At: at})
}

// Fail records the I/O error that prevented a clean commit. The error is
// appended to Errors without changing IsCommittable, which reflects the
// validation gate only.
func (r *Report) Fail(kind Class, typ string, err error) {
	if err == nil {
		return
	}
	msg := MapError(err)
	r.Failure = &msg
	r.FailureDetail = err.Error()
	r.Errors = append(r.Errors, ErrorEntry{
		Kind:     kind,
		Type:     typ,
		Message:  err.Error(),
		Blocking: true,
	})
}

// Reject records why the validation gate closed. Unlike Fail it adds no
// error entry, since the blocking findings are already listed.
func (r *Report) Reject(err error) {
	if err == nil {
		return
	}
	msg := MapError(err)
	r.Failure = &msg
	r.FailureDetail = err.Error()
}

// BlockingErrors returns the number of errors that prevent a commit.
func (r *Report) BlockingErrors() int {
	n := 0
	for _, e := range r.Errors {
		if e.Blocking {
			n++
		}
	}
	return n
}

// BlockingOf returns the number of blocking errors of the given class.
func (r *Report) BlockingOf(kind Class) int {
	n := 0
	for _, e := range r.Errors {
		if e.Blocking && e.Kind == kind {
			n++
		}
	}
	return n
}
