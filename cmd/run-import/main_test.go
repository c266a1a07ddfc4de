package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/ledgerimport/internal/report"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, o options)
	}{
		{name: "source", args: []string{"ledger.xlsx"}, check: func(t *testing.T, o options) {
			if o.source != "ledger.xlsx" || o.setFlags["strict"] {
				t.Errorf("options = %+v", o)
			}
		}},
		{name: "flags", args: []string{"-strict", "-capital", "1500.50", "-dry-run", "ledger.xlsx"}, check: func(t *testing.T, o options) {
			ro, err := o.runOptions()
			if err != nil {
				t.Fatal(err)
			}
			if ro.Strict == nil || !*ro.Strict || !ro.DryRun || ro.ReportedCapital.String() != "1500.5" {
				t.Errorf("runOptions() = %+v", ro)
			}
		}},
		{name: "restore", args: []string{"-restore", "20240101T000000Z-deadbeef"}, check: func(t *testing.T, o options) {
			if o.restore == "" || o.source != "" {
				t.Errorf("options = %+v", o)
			}
		}},
		{name: "nothing", args: nil, wantErr: true},
		{name: "two modes", args: []string{"-export", "out.xlsx", "ledger.xlsx"}, wantErr: true},
		{name: "two sources", args: []string{"a.xlsx", "b.xlsx"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := parseArgs(tt.args, io.Discard)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, o)
			}
		})
	}
}

func TestInvalidCapital(t *testing.T) {
	o, err := parseArgs([]string{"-capital", "mucho", "ledger.xlsx"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.runOptions(); err == nil {
		t.Error("runOptions() error = nil, want invalid capital")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		rep  report.Report
		want int
	}{
		{"committed", report.Report{State: "COMMITTED"}, 0},
		{"committable dry run", report.Report{State: "ABORTED", DryRun: true, IsCommittable: true}, 0},
		{"invalid dry run", report.Report{State: "ABORTED", DryRun: true}, 1},
		{"aborted", report.Report{State: "ABORTED", IsCommittable: true}, 1},
		{"rolled back", report.Report{State: "ROLLED_BACK", IsCommittable: true}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(&tt.rep); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunWithMemoryStore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("IMPORT_BACKUP_DIR", filepath.Join(dir, "snapshots"))
	t.Setenv("IMPORT_REPORT_DIR", filepath.Join(dir, "reports"))

	src := filepath.Join(dir, "CLIENTES.csv")
	if err := os.WriteFile(src, []byte("ID,NOMBRE,DEUDA,PAGOS\nC1,Ana,1000,400\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{src}, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d; stdout = %s; stderr = %s", code, stdout.String(), stderr.String())
	}
	if !strings.Contains(stdout.String(), "COMMITTED") {
		t.Errorf("summary does not mention COMMITTED:\n%s", stdout.String())
	}

	if code := run([]string{filepath.Join(dir, "missing.pdf")}, &stdout, &stderr); code != 1 {
		t.Errorf("run(unreadable) = %d, want 1", code)
	}
}
