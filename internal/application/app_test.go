package application

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledgerimport/internal/config"
)

func TestPipelineConfig(t *testing.T) {
	ic := config.ImportConfig{
		Epsilon:           0.01,
		Strict:            true,
		StrictMultiple:    100,
		BatchSize:         250,
		MaxRetries:        3,
		RetryInterval:     time.Second,
		CommitConcurrency: 2,
		BackupDir:         "snaps",
		ReportDir:         "reports",
		SalesConcepts:     []string{"VENTA"},
		DayFirst:          true,
		HeaderSearchRows:  15,
	}
	pc := PipelineConfig(ic)

	if !pc.Reconcile.Epsilon.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("Epsilon = %s, want 0.01", pc.Reconcile.Epsilon)
	}
	if !pc.Reconcile.Strict || !pc.Reconcile.StrictMultiple.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Reconcile = %+v", pc.Reconcile)
	}
	if pc.Commit.BatchSize != 250 || pc.Commit.Concurrency != 2 || pc.Commit.RetryInterval != time.Second {
		t.Errorf("Commit = %+v", pc.Commit)
	}
	if !pc.Ingest.DayFirst || pc.Ingest.MaxHeaderSearchRows != 15 {
		t.Errorf("Ingest = %+v", pc.Ingest)
	}
	if pc.BackupDir != "snaps" || pc.ReportDir != "reports" {
		t.Errorf("dirs = %q, %q", pc.BackupDir, pc.ReportDir)
	}
}

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{
		Store:  config.StoreConfig{Driver: config.DriverMemory},
		Import: config.ImportConfig{BackupDir: t.TempDir()},
	}
	app, err := Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer app.Close()

	if app.Pipeline == nil || app.Store == nil {
		t.Fatal("Open() returned an incomplete app")
	}
	if st := app.Pipeline.Status(); st.Busy {
		t.Errorf("new pipeline is busy: %+v", st)
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	if _, _, err := OpenStore(context.Background(), config.StoreConfig{Driver: "mongo"}); err == nil {
		t.Error("OpenStore() error = nil, want unknown driver error")
	}
}
