// Package report collects findings from every validation layer and merges
// them into the single diagnostic report an import run returns.
package report

import (
	"fmt"

	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
)

// Class is the layer (or concern) a finding comes from.
type Class string

const (
	ClassStructural     Class = "structural"
	ClassReferential    Class = "referential"
	ClassArithmetic     Class = "arithmetic"
	ClassNotice         Class = "notice"
	ClassTransformation Class = "transformation"
	ClassPersistence    Class = "persistence"
	ClassBackup         Class = "backup"
	ClassRun            Class = "run" // source and cancellation failures
)

// Finding types emitted by the ingestion and validation layers. Arithmetic
// findings use the schema.Invariant name as their type.
const (
	TypeMissingHeader     = "missing-header-row"
	TypeMissingColumn     = "missing-column"
	TypeMissingField      = "missing-field"
	TypeInvalidType       = "invalid-type"
	TypeInvalidEnum       = "invalid-enum"
	TypeDanglingOptional  = "dangling-optional-reference"
	TypeDanglingMandatory = "dangling-mandatory-reference"
	TypeDuplicateRecord   = "duplicate-record"
	TypeUnrecognizedSheet = "unrecognized-sheet"
	TypeUnparseableDate   = "unparseable-date"
	TypeNumericCoercion   = "numeric-coercion"
	TypeNumericDefault    = "numeric-default-zero"
	TypeResolvedByName    = "reference-resolved-by-name"
	TypeBatchFailed       = "batch-write-failed"
	TypeSnapshotFailed    = "snapshot-failed"
	TypeVerifyFailed      = "commit-verification-failed"
	TypeRestoreFailed     = "restore-failed"
	TypeSourceUnreadable  = "source-unreadable"
	TypeRunCanceled       = "run-canceled"
)

// Finding is one observation about the input. Layers only ever return
// findings; the Aggregator decides whether each becomes an error, a warning
// or a transformation record.
type Finding struct {
	Class    Class
	Type     string
	Entity   schema.EntityType
	Sheet    string
	RowIndex int
	RecordID string
	Field    string
	Value    string
	Message  string

	// Transformations
	From string
	To   string

	// Arithmetic comparisons
	Declared *decimal.Decimal
	Computed *decimal.Decimal

	// Optional marks a referential finding on a nullable reference.
	Optional bool
	// Blocking marks an arithmetic finding promoted by strict mode.
	Blocking bool
}

// Delta returns Declared - Computed when both are set.
func (f Finding) Delta() *decimal.Decimal {
	if f.Declared == nil || f.Computed == nil {
		return nil
	}
	d := f.Declared.Sub(*f.Computed)
	return &d
}

// String renders the finding for logs.
func (f Finding) String() string {
	loc := string(f.Entity)
	if f.Sheet != "" {
		loc = fmt.Sprintf("%s[%s row %d]", loc, f.Sheet, f.RowIndex)
	}
	if f.Field != "" {
		loc += "." + f.Field
	}
	return fmt.Sprintf("%s %s: %s", f.Type, loc, f.Message)
}

// Structural builds a layer-1 finding.
func Structural(typ string, entity schema.EntityType, sheet string, row int, field, message string) Finding {
	return Finding{
		Class:    ClassStructural,
		Type:     typ,
		Entity:   entity,
		Sheet:    sheet,
		RowIndex: row,
		Field:    field,
		Message:  message,
	}
}

// Notice builds a non-blocking warning that is not an arithmetic mismatch.
func Notice(typ string, entity schema.EntityType, sheet string, row int, field, message string) Finding {
	return Finding{
		Class:    ClassNotice,
		Type:     typ,
		Entity:   entity,
		Sheet:    sheet,
		RowIndex: row,
		Field:    field,
		Message:  message,
	}
}

// Transformation records a lossy or rewriting conversion of an input value.
func Transformation(typ string, entity schema.EntityType, sheet string, row int, field, from, to string) Finding {
	return Finding{
		Class:    ClassTransformation,
		Type:     typ,
		Entity:   entity,
		Sheet:    sheet,
		RowIndex: row,
		Field:    field,
		From:     from,
		To:       to,
	}
}
