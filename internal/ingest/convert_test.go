package ingest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name          string
		input         any
		want          string
		wantCoerced   bool
		wantDefaulted bool
	}{
		{name: "plain integer", input: "1200", want: "1200"},
		{name: "plain decimal", input: "1200.50", want: "1200.5"},
		{name: "blank is zero without transformation", input: "  ", want: "0"},
		{name: "nil is zero", input: nil, want: "0"},
		{name: "scientific notation", input: "1.5E+3", want: "1500"},
		{name: "native float", input: 575000.0, want: "575000"},
		{name: "native int", input: 42, want: "42"},
		{name: "currency and thousands", input: "$1,200.50", want: "1200.5", wantCoerced: true},
		{name: "thousands only", input: "1,200", want: "1200", wantCoerced: true},
		{name: "decimal comma", input: "12,5", want: "12.5", wantCoerced: true},
		{name: "european thousands", input: "1.200.000", want: "1200000", wantCoerced: true},
		{name: "european decimal", input: "1.234,56", want: "1234.56", wantCoerced: true},
		{name: "accounting negative", input: "(450.00)", want: "-450", wantCoerced: true},
		{name: "negative with symbol", input: "-$300", want: "-300", wantCoerced: true},
		{name: "trailing text", input: "85 pzas", want: "85", wantCoerced: true},
		{name: "formula prefix", input: `="250"`, want: "250"},
		{name: "non numeric defaults to zero", input: "N/A", want: "0", wantDefaulted: true},
		{name: "boolean defaults to zero", input: true, want: "0", wantDefaulted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumber(tt.input)
			if !got.Value.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseNumber(%v) = %s, want %s", tt.input, got.Value, tt.want)
			}
			if got.Coerced != tt.wantCoerced {
				t.Errorf("ParseNumber(%v) Coerced = %t, want %t", tt.input, got.Coerced, tt.wantCoerced)
			}
			if got.Defaulted != tt.wantDefaulted {
				t.Errorf("ParseNumber(%v) Defaulted = %t, want %t", tt.input, got.Defaulted, tt.wantDefaulted)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name            string
		input           any
		dayFirst        bool
		want            string
		wantUnparseable bool
	}{
		{name: "iso", input: "2024-03-15", want: "2024-03-15"},
		{name: "iso with time", input: "2024-03-15 13:45:00", want: "2024-03-15"},
		{name: "compact", input: "20240315", want: "2024-03-15"},
		{name: "month first", input: "03/15/2024", want: "2024-03-15"},
		{name: "day first", input: "15/03/2024", dayFirst: true, want: "2024-03-15"},
		{name: "ambiguous day first", input: "03/04/2024", dayFirst: true, want: "2024-04-03"},
		{name: "ambiguous month first", input: "03/04/2024", want: "2024-03-04"},
		{name: "serial text", input: "45366", want: "2024-03-15"},
		{name: "serial float", input: 45366.0, want: "2024-03-15"},
		{name: "serial with time fraction", input: 45366.75, want: "2024-03-15"},
		{name: "serial one", input: 1.0, want: "1900-01-01"},
		{name: "serial before leap bug", input: 59.0, want: "1900-02-28"},
		{name: "serial after leap bug", input: 61.0, want: "1900-03-01"},
		{name: "native time", input: time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC), want: "2024-03-15"},
		{name: "english text", input: "Mar 15, 2024", want: "2024-03-15"},
		{name: "spanish text", input: "15 de marzo de 2024", want: "2024-03-15"},
		{name: "spanish abbreviation", input: "15-ene-2024", want: "2024-01-15"},
		{name: "blank", input: "", want: ""},
		{name: "garbage", input: "pendiente", wantUnparseable: true},
		{name: "serial out of range", input: 0.0, wantUnparseable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.input, tt.dayFirst)
			if got.Unparseable != tt.wantUnparseable {
				t.Fatalf("ParseDate(%v) Unparseable = %t, want %t", tt.input, got.Unparseable, tt.wantUnparseable)
			}
			if tt.wantUnparseable {
				if got.Raw == "" {
					t.Errorf("ParseDate(%v) lost the raw text", tt.input)
				}
				return
			}
			if got.String() != tt.want {
				t.Errorf("ParseDate(%v) = %q, want %q", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestSerialRoundTrip(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	serial := TimeToSerial(day)
	if serial != 45366 {
		t.Fatalf("TimeToSerial() = %v, want 45366", serial)
	}
	got, ok := SerialToTime(serial)
	if !ok || !got.Equal(day) {
		t.Errorf("SerialToTime(%v) = %v, %t", serial, got, ok)
	}
}

func TestFoldKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Teléfono", "TELEFONO"},
		{"TELÉFONO", "TELEFONO"},
		{"  id_cliente ", "ID CLIENTE"},
		{"Límite de crédito", "LIMITE DE CREDITO"},
		{"Bóvedas", "BOVEDAS"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FoldKey(tt.input); got != tt.want {
				t.Errorf("FoldKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
