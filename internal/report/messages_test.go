package report

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "missing header", err: errors.New("sheet VENTAS: missing header row"), wantCode: "STR001"},
		{name: "persistence wrapped", err: fmt.Errorf("commit: %w", errors.New("persist batch 3 of sales: boom")), wantCode: "PER001"},
		{name: "snapshot not found before generic snapshot", err: errors.New("backup restore 123: snapshot not found"), wantCode: "BAK002"},
		{name: "generic snapshot", err: errors.New("backup capture: snapshot write: disk full"), wantCode: "BAK001"},
		{name: "strict ledger mismatch", err: errors.New("ledger mismatch: 2 blocking arithmetic findings"), wantCode: "ARI001"},
		{name: "run guard", err: errors.New("import in progress"), wantCode: "RUN001"},
		{name: "case insensitive", err: errors.New("CONNECTION REFUSED"), wantCode: "PER003"},
		{name: "unknown error returns default", err: errors.New("something odd"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
	want := "Another import is already running (Code: RUN001). Wait for it to finish and try again"
	if got := FormatUserError(errors.New("import in progress")); got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}

func TestReject(t *testing.T) {
	r := &Report{Errors: []ErrorEntry{
		{Kind: ClassArithmetic, Blocking: true},
		{Kind: ClassStructural, Blocking: true},
		{Kind: ClassArithmetic},
	}}
	r.Reject(nil)
	if r.Failure != nil {
		t.Fatalf("Reject(nil) set Failure = %+v", r.Failure)
	}

	r.Reject(errors.New("ledger mismatch: 1 blocking arithmetic findings"))
	if r.Failure == nil || r.Failure.Code != "ARI001" {
		t.Errorf("Failure = %+v, want ARI001", r.Failure)
	}
	if len(r.Errors) != 3 {
		t.Errorf("Reject added error entries: %d", len(r.Errors))
	}
	if got := r.BlockingOf(ClassArithmetic); got != 1 {
		t.Errorf("BlockingOf(arithmetic) = %d, want 1", got)
	}
	if got := r.BlockingErrors(); got != 2 {
		t.Errorf("BlockingErrors() = %d, want 2", got)
	}
}
