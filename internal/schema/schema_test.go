package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateJSON(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		date Date
		want string
	}{
		{"valid", ParsedDate(day), `"2024-03-15"`},
		{"unset", Date{}, `null`},
		{"unparseable", UnparseableDate("ayer"), `{"raw":"ayer","unparseable":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.date)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}

			var got Date
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got.String() != tt.date.String() || got.Unparseable != tt.date.Unparseable || !got.Time.Equal(tt.date.Time) {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.date)
			}
		})
	}
}

func TestDateAccessors(t *testing.T) {
	d := ParsedDate(time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC))
	if !d.Valid() || d.IsZero() || d.Period() != "2024-11" {
		t.Errorf("parsed date: Valid=%t IsZero=%t Period=%q", d.Valid(), d.IsZero(), d.Period())
	}

	u := UnparseableDate("32/13/2024")
	if u.Valid() || u.IsZero() || u.Period() != "" || u.String() != "32/13/2024" {
		t.Errorf("unparseable date: Valid=%t IsZero=%t Period=%q String=%q", u.Valid(), u.IsZero(), u.Period(), u.String())
	}

	var zero Date
	if zero.Valid() || !zero.IsZero() {
		t.Errorf("zero date: Valid=%t IsZero=%t", zero.Valid(), zero.IsZero())
	}
}

func TestInvariantIsMismatch(t *testing.T) {
	tests := []struct {
		inv  Invariant
		want bool
	}{
		{InvAccountBalance, true},
		{InvSaleRevenue, true},
		{InvCapital, true},
		{InvSaleUnverifiable, false},
		{InvClientOverpayment, false},
		{InvItemMargin, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.inv), func(t *testing.T) {
			if got := tt.inv.IsMismatch(); got != tt.want {
				t.Errorf("IsMismatch() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestReferencesFrom(t *testing.T) {
	refs := ReferencesFrom(EntitySale)
	if len(refs) != 2 {
		t.Fatalf("ReferencesFrom(sales) = %d refs, want 2", len(refs))
	}
	for _, r := range refs {
		if r.To == EntityPurchaseOrder && !r.Optional {
			t.Error("sale -> purchase order must be optional")
		}
		if r.To == EntityClient && r.Optional {
			t.Error("sale -> client must be mandatory")
		}
	}
	if refs := ReferencesFrom(EntityAccount); len(refs) != 0 {
		t.Errorf("ReferencesFrom(accounts) = %+v, want none", refs)
	}
}

func TestPersistedEntitiesHaveSpecs(t *testing.T) {
	for _, e := range PersistedEntities() {
		if _, ok := SpecFor(e); !ok {
			t.Errorf("SpecFor(%s) missing", e)
		}
	}
	if len(Collections()) != len(PersistedEntities()) {
		t.Errorf("Collections() = %d names, want %d", len(Collections()), len(PersistedEntities()))
	}
}

func TestDatasetCounts(t *testing.T) {
	ds := &Dataset{
		Accounts: []Account{{ID: "A1"}},
		Income:   []LedgerEntry{{AccountID: "A1"}, {AccountID: "A1"}},
		Items:    []InventoryItem{{ID: "P1", StockQty: decimal.NewFromInt(3), UnitCost: decimal.NewFromInt(5)}},
	}
	if ds.Count(EntityIncome) != 2 || ds.Count(EntitySummary) != 0 || ds.Total() != 4 {
		t.Errorf("Count(income)=%d Count(summary)=%d Total()=%d", ds.Count(EntityIncome), ds.Count(EntitySummary), ds.Total())
	}
	if v := ds.Items[0].Valuation(); !v.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Valuation() = %s, want 15", v)
	}
}

func TestMovementSigned(t *testing.T) {
	in := InventoryMovement{Type: MovementIn, Quantity: decimal.NewFromInt(4)}
	out := InventoryMovement{Type: MovementOut, Quantity: decimal.NewFromInt(4)}
	if !in.Signed().Equal(decimal.NewFromInt(4)) || !out.Signed().Equal(decimal.NewFromInt(-4)) {
		t.Errorf("Signed() = %s, %s", in.Signed(), out.Signed())
	}
}
