package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestAggregatorClassification(t *testing.T) {
	tests := []struct {
		name          string
		finding       Finding
		wantErrors    int
		wantWarnings  int
		wantTransform int
		committable   bool
	}{
		{
			name:        "structural error blocks",
			finding:     Structural(TypeMissingField, schema.EntityClient, "CLIENTES", 3, schema.FieldID, "required field is empty"),
			wantErrors:  1,
			committable: false,
		},
		{
			name: "mandatory dangling reference excludes without blocking",
			finding: Finding{
				Class: ClassReferential, Type: TypeDanglingMandatory,
				Entity: schema.EntitySale, Field: schema.FieldClientID, Value: "C-99",
			},
			wantErrors:  1,
			committable: true,
		},
		{
			name: "optional dangling reference is a warning",
			finding: Finding{
				Class: ClassReferential, Type: TypeDanglingOptional, Optional: true,
				Entity: schema.EntitySale, Field: schema.FieldSaleOrderRef, Value: "OC-404",
			},
			wantWarnings: 1,
			committable:  true,
		},
		{
			name: "lenient arithmetic mismatch is a warning",
			finding: Finding{
				Class: ClassArithmetic, Type: string(schema.InvAccountBalance),
				Entity: schema.EntityAccount, Declared: dec("100"), Computed: dec("90"),
			},
			wantWarnings: 1,
			committable:  true,
		},
		{
			name: "strict arithmetic mismatch blocks",
			finding: Finding{
				Class: ClassArithmetic, Type: string(schema.InvAccountBalance), Blocking: true,
				Entity: schema.EntityAccount, Declared: dec("1000"), Computed: dec("10"),
			},
			wantErrors:  1,
			committable: false,
		},
		{
			name:          "transformation",
			finding:       Transformation(TypeNumericCoercion, schema.EntitySale, "VENTAS", 2, schema.FieldUnitPrice, "$1,200", "1200"),
			wantTransform: 1,
			committable:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			agg.Add(tt.finding)
			r := agg.Build("run-1", time.Now(), nil)

			if len(r.Errors) != tt.wantErrors {
				t.Errorf("errors = %d, want %d", len(r.Errors), tt.wantErrors)
			}
			if len(r.Warnings) != tt.wantWarnings {
				t.Errorf("warnings = %d, want %d", len(r.Warnings), tt.wantWarnings)
			}
			if len(r.Transformations) != tt.wantTransform {
				t.Errorf("transformations = %d, want %d", len(r.Transformations), tt.wantTransform)
			}
			if r.IsCommittable != tt.committable {
				t.Errorf("IsCommittable = %t, want %t", r.IsCommittable, tt.committable)
			}
			if agg.IsCommittable() != r.IsCommittable {
				t.Error("aggregator and report disagree on committability")
			}
		})
	}
}

func TestAggregatorCounts(t *testing.T) {
	agg := NewAggregator()
	agg.Add(
		Structural(TypeMissingField, schema.EntityClient, "CLIENTES", 3, schema.FieldID, "empty"),
		Structural(TypeInvalidType, schema.EntityClient, "CLIENTES", 3, schema.FieldDebt, "not numeric"),
		Finding{Class: ClassArithmetic, Type: string(schema.InvClientOverpayment), Entity: schema.EntityClient},
		Finding{Class: ClassArithmetic, Type: string(schema.InvClientOverpayment), Entity: schema.EntityClient},
	)
	r := agg.Build("run-2", time.Now(), map[schema.EntityType]int{
		schema.EntityClient:  4,
		schema.EntityAccount: 2,
	})

	if r.Counts.Errored != 1 {
		t.Errorf("Errored = %d, want 1 (both errors are on the same row)", r.Counts.Errored)
	}
	if r.Counts.Warned != 2 {
		t.Errorf("Warned = %d, want 2", r.Counts.Warned)
	}
	if r.Counts.Imported != 6 {
		t.Errorf("Imported = %d, want 6", r.Counts.Imported)
	}
	if got := r.Counts.FindingsByType[string(schema.InvClientOverpayment)]; got != 2 {
		t.Errorf("FindingsByType[overpayment] = %d, want 2", got)
	}
}

func TestSaveLoadAndSummary(t *testing.T) {
	dir := t.TempDir()
	agg := NewAggregator()
	agg.Add(Finding{
		Class: ClassArithmetic, Type: string(schema.InvSaleRevenue), Entity: schema.EntitySale,
		Declared: dec("110"), Computed: dec("100"), Message: "gross revenue does not match",
	})
	r := agg.Build("run-3", time.Date(2026, 10, 14, 10, 15, 0, 0, time.UTC), nil)
	r.Transition("COMMITTED", r.Timestamp)

	if _, err := Save(dir, r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(dir, "run-3")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.State != "COMMITTED" || len(got.Warnings) != 1 {
		t.Fatalf("loaded report = %+v", got)
	}
	if !got.Warnings[0].Delta.Equal(decimal.NewFromInt(10)) {
		t.Errorf("delta = %s, want 10", got.Warnings[0].Delta)
	}

	if _, err := Load(dir, "missing"); err != ErrReportNotFound {
		t.Errorf("Load(missing) error = %v, want ErrReportNotFound", err)
	}

	var buf bytes.Buffer
	WriteSummary(&buf, got, 10)
	if !strings.Contains(buf.String(), "revenue≠price×qty") {
		t.Errorf("summary missing warning type:\n%s", buf.String())
	}
}
