// Package validate holds the first two validation layers: structural checks
// on ingested drafts and cross-entity reference resolution on the typed
// dataset built from them. Neither layer returns errors; both report
// findings for the aggregator to classify.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/ledgerimport/internal/ingest"
	"github.com/JonMunkholm/ledgerimport/internal/report"
	"github.com/JonMunkholm/ledgerimport/internal/schema"
)

// StructuralError is a required-field or type problem on one draft.
type StructuralError struct {
	Entity   schema.EntityType
	Sheet    string
	RowIndex int
	Field    string
	Type     string // report.TypeMissingField, TypeInvalidType or TypeInvalidEnum
	Value    string
	Message  string
}

func (e StructuralError) Error() string {
	return fmt.Sprintf("%s row %d: %s: %s", e.Entity, e.RowIndex, e.Field, e.Message)
}

// Finding converts the error for the aggregator.
func (e StructuralError) Finding() report.Finding {
	f := report.Structural(e.Type, e.Entity, e.Sheet, e.RowIndex, e.Field, e.Message)
	f.Value = e.Value
	return f
}

// Structural checks every draft and returns one finding per problem, plus
// warnings for unknown spellings in optional enum fields.
func Structural(drafts []ingest.Draft) []report.Finding {
	var findings []report.Finding
	for _, d := range drafts {
		spec, ok := schema.SpecFor(d.Entity)
		if !ok {
			continue
		}
		for _, e := range ValidateDraft(d, spec) {
			findings = append(findings, e.Finding())
		}
		findings = append(findings, enumNotices(d, spec)...)
	}
	return findings
}

// ValidateDraft checks that required fields are present and that every
// resolved cell has a primitive type its field accepts. Fields whose column
// is missing are skipped; the adapter already reported the column.
func ValidateDraft(d ingest.Draft, spec schema.EntitySpec) []StructuralError {
	var errs []StructuralError
	for _, f := range spec.Fields {
		v, ok := d.Get(f.Name)
		if !ok {
			continue
		}

		newErr := func(typ, msg string) StructuralError {
			return StructuralError{
				Entity:   d.Entity,
				Sheet:    d.Sheet,
				RowIndex: d.RowIndex,
				Field:    f.Name,
				Type:     typ,
				Value:    v.Text,
				Message:  msg,
			}
		}

		if v.Blank() {
			if f.Required {
				errs = append(errs, newErr(report.TypeMissingField, "required field is empty"))
			}
			continue
		}

		if !accepts(f.Type, v.Kind) {
			errs = append(errs, newErr(report.TypeInvalidType,
				fmt.Sprintf("invalid value: expected %s, got %s", f.Type, v.Kind)))
			continue
		}

		if f.Type == schema.FieldEnum && v.Enum == "" && f.Required {
			errs = append(errs, newErr(report.TypeInvalidEnum,
				fmt.Sprintf("invalid value %q: must be one of %s", v.Text, enumValues(f))))
		}
	}
	return errs
}

func enumNotices(d ingest.Draft, spec schema.EntitySpec) []report.Finding {
	var out []report.Finding
	for _, f := range spec.Fields {
		if f.Type != schema.FieldEnum || f.Required {
			continue
		}
		v, ok := d.Get(f.Name)
		if !ok || v.Blank() || v.Enum != "" || !accepts(f.Type, v.Kind) {
			continue
		}
		n := report.Notice(report.TypeInvalidEnum, d.Entity, d.Sheet, d.RowIndex, f.Name,
			fmt.Sprintf("unknown %s %q left empty (expected %s)", f.Name, v.Text, enumValues(f)))
		n.Value = v.Text
		out = append(out, n)
	}
	return out
}

// accepts reports whether a raw cell kind can be coerced to the field type.
func accepts(ft schema.FieldType, kind ingest.CellKind) bool {
	switch kind {
	case ingest.KindBlank:
		return true
	case ingest.KindBool, ingest.KindOther:
		return false
	}

	switch ft {
	case schema.FieldText:
		return kind == ingest.KindText || kind == ingest.KindNumber
	case schema.FieldNumeric:
		return kind == ingest.KindText || kind == ingest.KindNumber
	case schema.FieldDate:
		return true
	case schema.FieldEnum:
		return kind == ingest.KindText
	}
	return false
}

func enumValues(f schema.FieldSpec) string {
	seen := make(map[string]bool)
	var vals []string
	for _, v := range f.EnumAliases {
		if !seen[v] {
			seen[v] = true
			vals = append(vals, v)
		}
	}
	sort.Strings(vals)
	return strings.Join(vals, ", ")
}
