package ingest

import (
	"fmt"
	"time"

	"github.com/JonMunkholm/ledgerimport/internal/report"
	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
)

// DefaultMaxHeaderSearchRows is how many leading rows are scanned for the
// header row when Options does not say otherwise.
const DefaultMaxHeaderSearchRows = 20

// Options tunes ingestion.
type Options struct {
	// DayFirst reads ambiguous text dates such as 03/04/2024 as 3 April.
	DayFirst bool
	// MaxHeaderSearchRows bounds the header search (title rows above the
	// header are common in exported dashboards).
	MaxHeaderSearchRows int
}

// CellKind is the primitive kind of a raw cell.
type CellKind int

const (
	KindBlank CellKind = iota
	KindText
	KindNumber
	KindDate
	KindBool
	KindOther
)

func (k CellKind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Value is one field of a draft: the raw cell plus its coerced forms.
type Value struct {
	Raw    any
	Kind   CellKind
	Text   string
	Number decimal.Decimal
	Date   schema.Date
	// Enum is the canonical enum value, "" when the spelling is unknown.
	Enum string
}

// Blank reports an empty cell.
func (v Value) Blank() bool {
	return v.Kind == KindBlank
}

// Draft is one data row mapped onto an entity's fields. Values only holds
// fields whose column was found in the sheet.
type Draft struct {
	Entity   schema.EntityType
	Sheet    string
	RowIndex int // 1-based spreadsheet row
	Values   map[string]Value
}

// Get returns the value of a field and whether its column exists.
func (d Draft) Get(field string) (Value, bool) {
	v, ok := d.Values[field]
	return v, ok
}

// SheetInfo describes how one sheet was read.
type SheetInfo struct {
	Name      string
	Entity    schema.EntityType // "" for unrecognized sheets
	HeaderRow int               // 1-based, 0 when no header was found
	Rows      int               // drafts produced
	Columns   map[string]string // field -> header text it was resolved from
}

// Result is everything ingestion produced.
type Result struct {
	Drafts   []Draft
	Sheets   []SheetInfo
	Findings []report.Finding
}

// DraftsFor returns the drafts of one entity type in source order.
func (r *Result) DraftsFor(entity schema.EntityType) []Draft {
	var out []Draft
	for _, d := range r.Drafts {
		if d.Entity == entity {
			out = append(out, d)
		}
	}
	return out
}

// Ingest maps every recognized sheet of src onto entity drafts. It never
// fails: problems are returned as findings scoped to the sheet or row that
// caused them, and other sheets proceed independently.
func Ingest(src Source, opts Options) Result {
	if opts.MaxHeaderSearchRows <= 0 {
		opts.MaxHeaderSearchRows = DefaultMaxHeaderSearchRows
	}

	var res Result
	for _, sheet := range src.Sheets {
		spec, ok := Lookup(sheet.Name)
		if !ok {
			res.Sheets = append(res.Sheets, SheetInfo{Name: sheet.Name})
			res.Findings = append(res.Findings, report.Notice(
				report.TypeUnrecognizedSheet, "", sheet.Name, 0, "",
				fmt.Sprintf("sheet %q is not a known ledger sheet and was skipped", sheet.Name),
			))
			continue
		}
		info, drafts, findings := ingestSheet(sheet, spec, opts)
		res.Sheets = append(res.Sheets, info)
		res.Drafts = append(res.Drafts, drafts...)
		res.Findings = append(res.Findings, findings...)
	}
	return res
}

func ingestSheet(sheet Sheet, spec schema.EntitySpec, opts Options) (SheetInfo, []Draft, []report.Finding) {
	info := SheetInfo{Name: sheet.Name, Entity: spec.Entity}

	headerIdx, columns := findHeader(sheet.Rows, spec, opts.MaxHeaderSearchRows)
	if headerIdx < 0 {
		if spec.SingleRow {
			if draft, ok := keyValueDraft(sheet, spec, opts); ok {
				info.Rows = 1
				return info, []Draft{draft.Draft}, draft.findings
			}
		}
		return info, nil, []report.Finding{report.Structural(
			report.TypeMissingHeader, spec.Entity, sheet.Name, 0, "",
			fmt.Sprintf("sheet %q: missing header row (none of the first %d rows name the %s columns)",
				sheet.Name, opts.MaxHeaderSearchRows, spec.Label),
		)}
	}

	info.HeaderRow = headerIdx + 1
	info.Columns = make(map[string]string, len(columns))
	header := sheet.Rows[headerIdx]
	for field, col := range columns {
		info.Columns[field] = CellText(header[col])
	}

	var findings []report.Finding
	for _, f := range spec.Fields {
		if _, ok := columns[f.Name]; !ok && f.Required {
			findings = append(findings, report.Structural(
				report.TypeMissingColumn, spec.Entity, sheet.Name, info.HeaderRow, f.Name,
				fmt.Sprintf("missing column for required field %s (accepted headers: %v)", f.Name, f.Headers),
			))
		}
	}

	var drafts []Draft
	for i, row := range sheet.Rows[headerIdx+1:] {
		if isEmptyRow(row) {
			continue
		}
		rowIndex := headerIdx + i + 2
		b := newDraftBuilder(spec, sheet.Name, rowIndex, opts)
		for field, col := range columns {
			var cell any
			if col < len(row) {
				cell = row[col]
			}
			b.set(field, cell)
		}
		drafts = append(drafts, b.Draft)
		findings = append(findings, b.findings...)
		if spec.SingleRow {
			break
		}
	}

	info.Rows = len(drafts)
	return info, drafts, findings
}

// findHeader returns the index of the first row within the search window
// that names the entity's columns, together with the field -> column map.
// A row qualifies when it resolves every required field, or at least two
// fields for entities without required fields.
func findHeader(rows [][]any, spec schema.EntitySpec, maxRows int) (int, map[string]int) {
	if len(rows) < maxRows {
		maxRows = len(rows)
	}

	required := 0
	for _, f := range spec.Fields {
		if f.Required {
			required++
		}
	}

	best, bestCols := -1, map[string]int(nil)
	for i := 0; i < maxRows; i++ {
		cols := resolveColumns(rows[i], spec)
		if len(cols) == 0 {
			continue
		}
		found := 0
		for _, f := range spec.Fields {
			if _, ok := cols[f.Name]; ok && f.Required {
				found++
			}
		}
		if required > 0 && found == required {
			return i, cols
		}
		if required == 0 && (len(cols) >= 2 || len(cols) == len(spec.Fields)) {
			return i, cols
		}
		// Keep the best partial match so a missing required column is
		// reported as such instead of as a missing header.
		if len(cols) >= 2 && (bestCols == nil || len(cols) > len(bestCols)) {
			best, bestCols = i, cols
		}
	}
	return best, bestCols
}

// resolveColumns maps fields to column indexes. Fields are resolved in
// declaration order, each taking the first accepted spelling present whose
// column has not been claimed yet.
func resolveColumns(header []any, spec schema.EntitySpec) map[string]int {
	index := make(map[string]int, len(header))
	for i, cell := range header {
		key := FoldKey(CellText(cell))
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	claimed := make(map[int]bool)
	cols := make(map[string]int)
	for _, f := range spec.Fields {
		for _, h := range f.Headers {
			col, ok := index[FoldKey(h)]
			if ok && !claimed[col] {
				cols[f.Name] = col
				claimed[col] = true
				break
			}
		}
	}
	return cols
}

type draftBuilder struct {
	Draft
	spec     schema.EntitySpec
	opts     Options
	findings []report.Finding
}

func newDraftBuilder(spec schema.EntitySpec, sheet string, rowIndex int, opts Options) *draftBuilder {
	return &draftBuilder{
		Draft: Draft{
			Entity:   spec.Entity,
			Sheet:    sheet,
			RowIndex: rowIndex,
			Values:   make(map[string]Value, len(spec.Fields)),
		},
		spec: spec,
		opts: opts,
	}
}

// set coerces a cell according to the field type and records lossy
// conversions as transformations.
func (b *draftBuilder) set(field string, cell any) {
	f, _ := b.spec.Field(field)
	v := Value{Raw: cell, Kind: kindOf(cell), Text: CellText(cell)}
	if v.Text == "" && v.Kind == KindText {
		v.Kind = KindBlank
	}

	switch f.Type {
	case schema.FieldNumeric:
		if v.Kind == KindDate || v.Kind == KindBool {
			break
		}
		n := ParseNumber(cell)
		v.Number = n.Value
		switch {
		case n.Defaulted:
			b.transform(report.TypeNumericDefault, field, v.Text, "0")
		case n.Coerced:
			b.transform(report.TypeNumericCoercion, field, v.Text, n.Value.String())
		}

	case schema.FieldDate:
		if v.Kind == KindBool {
			break
		}
		v.Date = ParseDate(cell, b.opts.DayFirst)
		if v.Date.Unparseable {
			b.transform(report.TypeUnparseableDate, field, v.Text, "unparseable")
			b.findings = append(b.findings, report.Notice(
				report.TypeUnparseableDate, b.Entity, b.Sheet, b.RowIndex, field,
				fmt.Sprintf("date %q could not be parsed; kept as unparseable", v.Text),
			))
		}

	case schema.FieldEnum:
		v.Enum = f.EnumAliases[FoldKey(v.Text)]
	}

	b.Values[field] = v
}

func (b *draftBuilder) transform(typ, field, from, to string) {
	b.findings = append(b.findings, report.Transformation(typ, b.Entity, b.Sheet, b.RowIndex, field, from, to))
}

// keyValueDraft reads a vertical "label | value" layout, used by summary
// sheets that list KPIs one per row.
func keyValueDraft(sheet Sheet, spec schema.EntitySpec, opts Options) (*draftBuilder, bool) {
	b := newDraftBuilder(spec, sheet.Name, 0, opts)
	for i, row := range sheet.Rows {
		if len(row) < 2 {
			continue
		}
		key := FoldKey(CellText(row[0]))
		for _, f := range spec.Fields {
			if _, done := b.Values[f.Name]; done {
				continue
			}
			for _, h := range f.Headers {
				if key == FoldKey(h) {
					if b.RowIndex == 0 {
						b.RowIndex = i + 1
					}
					b.set(f.Name, row[1])
					break
				}
			}
		}
	}
	return b, len(b.Values) > 0
}

func kindOf(cell any) CellKind {
	switch cell.(type) {
	case nil:
		return KindBlank
	case string:
		return KindText
	case float64, float32, int, int64, decimal.Decimal:
		return KindNumber
	case time.Time:
		return KindDate
	case bool:
		return KindBool
	default:
		return KindOther
	}
}

func isEmptyRow(row []any) bool {
	for _, cell := range row {
		if CellText(cell) != "" {
			return false
		}
	}
	return true
}
