package ingest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
)

func TestReadCSVStripsBOMAndInvalidUTF8(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("ID,Nombre\nC-1,Jos\xe9\n")...)
	sh, err := ReadCSV("CLIENTES", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if got := sh.Rows[0][0]; got != "ID" {
		t.Errorf("first header = %q, want ID (BOM stripped)", got)
	}
	if got := sh.Rows[1][1].(string); !strings.HasSuffix(got, "�") {
		t.Errorf("name = %q, want replacement character", got)
	}
}

func TestOpenCSVDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"CLIENTES.csv": "ID,Nombre,Deuda\nC-1,Ana,100\n",
		"VENTAS.csv":   "ID,Cliente,Total\nV-1,C-1,100\n",
		"notas.txt":    "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	src, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(src.Sheets) != 2 {
		t.Fatalf("sheets = %d, want 2", len(src.Sheets))
	}
	if src.Sheets[0].Name != "CLIENTES" || src.Sheets[1].Name != "VENTAS" {
		t.Errorf("sheet names = %q, %q", src.Sheets[0].Name, src.Sheets[1].Name)
	}
}

func TestOpenUnknownSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Open() error = %v, want ErrUnknownSource", err)
	}
}

func TestReadUpload(t *testing.T) {
	src, err := Read("uploads/CLIENTES.csv", strings.NewReader("ID,Nombre\nC-1,Ana\n"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if src.Name != "CLIENTES.csv" || len(src.Sheets) != 1 || src.Sheets[0].Name != "CLIENTES" {
		t.Errorf("Read() = %q with sheets %+v", src.Name, src.Sheets)
	}

	if _, err := Read("ledger.pdf", strings.NewReader("%PDF")); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Read(pdf) error = %v, want ErrUnknownSource", err)
	}
}

func TestWorkbookRoundTrip(t *testing.T) {
	capital := decimal.NewFromInt(1200)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	ds := &schema.Dataset{
		Accounts: []schema.Account{
			{ID: "B-1", Name: "Caja", IncomeTotal: decimal.NewFromInt(2000), ExpenseTotal: decimal.NewFromInt(800), Balance: capital},
		},
		Income: []schema.LedgerEntry{
			{AccountID: "B-1", Amount: decimal.RequireFromString("2000.50"), Date: schema.ParsedDate(day), Concept: "Venta"},
		},
		Movements: []schema.InventoryMovement{
			{ItemID: "P-1", Type: schema.MovementOut, Quantity: decimal.NewFromInt(3), Date: schema.UnparseableDate("ayer")},
		},
		Summary: schema.Summary{Capital: &capital},
	}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, ds); err != nil {
		t.Fatalf("WriteWorkbook() error = %v", err)
	}
	src, err := ReadWorkbook("export.xlsx", &buf)
	if err != nil {
		t.Fatalf("ReadWorkbook() error = %v", err)
	}
	if _, ok := src.Sheet("Sheet1"); ok {
		t.Error("default sheet should be removed")
	}

	res := Ingest(src, Options{})
	accounts := res.DraftsFor(schema.EntityAccount)
	if len(accounts) != 1 {
		t.Fatalf("account drafts = %d, want 1", len(accounts))
	}
	if got := accounts[0].Values[schema.FieldBalance].Number; !got.Equal(capital) {
		t.Errorf("balance = %s, want 1200", got)
	}

	income := res.DraftsFor(schema.EntityIncome)
	if len(income) != 1 {
		t.Fatalf("income drafts = %d, want 1", len(income))
	}
	if got := income[0].Values[schema.FieldDateName].Date.String(); got != "2024-03-15" {
		t.Errorf("income date = %q, want 2024-03-15", got)
	}
	if got := income[0].Values[schema.FieldAmount].Number; !got.Equal(decimal.RequireFromString("2000.5")) {
		t.Errorf("amount = %s, want 2000.5", got)
	}

	moves := res.DraftsFor(schema.EntityInventoryMovement)
	if len(moves) != 1 || !moves[0].Values[schema.FieldDateName].Date.Unparseable {
		t.Errorf("movement drafts = %+v, want one with an unparseable date", moves)
	}

	summary := res.DraftsFor(schema.EntitySummary)
	if len(summary) != 1 || !summary[0].Values[schema.FieldCapital].Number.Equal(capital) {
		t.Errorf("summary drafts = %+v", summary)
	}
}
