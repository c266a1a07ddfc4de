package ingest

import (
	"testing"

	"github.com/JonMunkholm/ledgerimport/internal/report"
	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
)

func sheet(name string, rows ...[]string) Sheet {
	return Sheet{Name: name, Rows: StringRows(rows)}
}

func countType(fs []report.Finding, typ string) int {
	n := 0
	for _, f := range fs {
		if f.Type == typ {
			n++
		}
	}
	return n
}

func TestIngestHeaderSynonyms(t *testing.T) {
	src := Source{Sheets: []Sheet{
		sheet("Clientes",
			[]string{"ID Cliente", "Nombre", "Teléfono", "Deuda", "Abonos"},
			[]string{"C-1", "Ana", "555-0101", "1000", "1200"},
		),
		sheet("CUSTOMERS",
			[]string{"CLIENT ID", "NAME", "WHATSAPP", "DEBT", "PAYMENTS"},
			[]string{"C-2", "Luis", "555-0102", "500", "0"},
		),
	}}

	res := Ingest(src, Options{})
	drafts := res.DraftsFor(schema.EntityClient)
	if len(drafts) != 2 {
		t.Fatalf("drafts = %d, want 2", len(drafts))
	}
	for _, d := range drafts {
		if v, ok := d.Get(schema.FieldPhone); !ok || v.Text == "" {
			t.Errorf("%s row %d: phone not resolved", d.Sheet, d.RowIndex)
		}
	}
	if got := drafts[0].Values[schema.FieldPaymentsMade].Number; !got.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("payments = %s, want 1200", got)
	}
	if drafts[0].RowIndex != 2 {
		t.Errorf("RowIndex = %d, want 2", drafts[0].RowIndex)
	}
	if len(res.Findings) != 0 {
		t.Errorf("unexpected findings: %v", res.Findings)
	}
}

func TestIngestHeaderSearchSkipsTitleRows(t *testing.T) {
	src := Source{Sheets: []Sheet{
		sheet("INVENTARIO",
			[]string{"Reporte de inventario"},
			[]string{""},
			[]string{"SKU", "Producto", "Existencia", "Costo", "Precio"},
			[]string{"P-1", "Tornillo", "150", "250", "300"},
		),
	}}
	res := Ingest(src, Options{})
	if len(res.Drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(res.Drafts))
	}
	if res.Drafts[0].RowIndex != 4 {
		t.Errorf("RowIndex = %d, want 4", res.Drafts[0].RowIndex)
	}
	if res.Sheets[0].HeaderRow != 3 {
		t.Errorf("HeaderRow = %d, want 3", res.Sheets[0].HeaderRow)
	}
}

func TestIngestMissingHeaderIsScopedToSheet(t *testing.T) {
	src := Source{Sheets: []Sheet{
		sheet("VENTAS",
			[]string{"foo", "bar"},
			[]string{"1", "2"},
		),
		sheet("DISTRIBUIDORES",
			[]string{"ID", "Nombre"},
			[]string{"D-1", "Acme"},
		),
	}}

	res := Ingest(src, Options{})
	if got := countType(res.Findings, report.TypeMissingHeader); got != 1 {
		t.Fatalf("missing-header findings = %d, want 1", got)
	}
	f := res.Findings[0]
	if f.Sheet != "VENTAS" || f.Class != report.ClassStructural {
		t.Errorf("finding = %+v, want structural on VENTAS", f)
	}
	if got := len(res.DraftsFor(schema.EntityDistributor)); got != 1 {
		t.Errorf("distributor drafts = %d, want 1", got)
	}
}

func TestIngestHeaderOnlySheet(t *testing.T) {
	src := Source{Sheets: []Sheet{
		sheet("MOVIMIENTOS", []string{"ID Producto", "Tipo", "Cantidad", "Fecha"}),
	}}
	res := Ingest(src, Options{})
	if len(res.Drafts) != 0 || len(res.Findings) != 0 {
		t.Errorf("drafts = %d findings = %v, want none", len(res.Drafts), res.Findings)
	}
}

func TestIngestMissingRequiredColumn(t *testing.T) {
	src := Source{Sheets: []Sheet{
		sheet("VENTAS",
			[]string{"Fecha", "Cantidad", "Precio", "Total"},
			[]string{"2024-03-15", "2", "50", "100"},
		),
	}}
	res := Ingest(src, Options{})
	if got := countType(res.Findings, report.TypeMissingColumn); got != 1 {
		t.Fatalf("missing-column findings = %d, want 1: %v", got, res.Findings)
	}
	if res.Findings[0].Field != schema.FieldClientID || res.Findings[0].RowIndex != 1 {
		t.Errorf("finding = %+v", res.Findings[0])
	}
}

func TestIngestUnrecognizedSheet(t *testing.T) {
	src := Source{Sheets: []Sheet{sheet("Gráficas", []string{"x"})}}
	res := Ingest(src, Options{})
	if got := countType(res.Findings, report.TypeUnrecognizedSheet); got != 1 {
		t.Fatalf("unrecognized-sheet findings = %d, want 1", got)
	}
	if res.Findings[0].Class != report.ClassNotice {
		t.Errorf("class = %s, want notice", res.Findings[0].Class)
	}
}

func TestIngestRecordsTransformations(t *testing.T) {
	src := Source{Sheets: []Sheet{
		sheet("VENTAS 2024",
			[]string{"ID Venta", "Fecha", "Cliente", "Cantidad", "Precio", "Total", "Estado"},
			[]string{"V-1", "15/03/2024", "C-1", "2", "$1,200", "N/A", "Pagado"},
			[]string{"V-2", "sin fecha", "C-1", "", "100", "0", "PENDIENTE"},
		),
	}}
	res := Ingest(src, Options{DayFirst: true})

	if got := countType(res.Findings, report.TypeNumericCoercion); got != 1 {
		t.Errorf("numeric-coercion = %d, want 1", got)
	}
	if got := countType(res.Findings, report.TypeNumericDefault); got != 1 {
		t.Errorf("numeric-default-zero = %d, want 1", got)
	}
	if got := countType(res.Findings, report.TypeUnparseableDate); got != 2 {
		t.Errorf("unparseable-date findings = %d, want 2 (transformation and warning)", got)
	}

	v1 := res.Drafts[0]
	if v1.Values[schema.FieldStatus].Enum != schema.StatusPaid {
		t.Errorf("status = %q, want Paid", v1.Values[schema.FieldStatus].Enum)
	}
	if v1.Values[schema.FieldDateName].Date.String() != "2024-03-15" {
		t.Errorf("date = %s", v1.Values[schema.FieldDateName].Date)
	}
	if !res.Drafts[1].Values[schema.FieldQuantity].Blank() {
		t.Error("blank quantity should stay blank")
	}
}

func TestIngestVerticalSummary(t *testing.T) {
	src := Source{Sheets: []Sheet{
		sheet("RESUMEN",
			[]string{"Capital", "971,000"},
			[]string{"Ingresos", "1488000"},
			[]string{"Gastos", "917000"},
		),
	}}
	res := Ingest(src, Options{})
	if len(res.Drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(res.Drafts))
	}
	d := res.Drafts[0]
	if got := d.Values[schema.FieldCapital].Number; !got.Equal(decimal.NewFromInt(971000)) {
		t.Errorf("capital = %s, want 971000", got)
	}
	if got := d.Values[schema.FieldExpense].Number; !got.Equal(decimal.NewFromInt(917000)) {
		t.Errorf("expense = %s, want 917000", got)
	}
}
