// Package application turns a loaded configuration into a ready pipeline.
// Both commands share it so the CLI and the server import identically.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledgerimport/internal/commit"
	"github.com/JonMunkholm/ledgerimport/internal/config"
	"github.com/JonMunkholm/ledgerimport/internal/ingest"
	"github.com/JonMunkholm/ledgerimport/internal/pipeline"
	"github.com/JonMunkholm/ledgerimport/internal/reconcile"
	"github.com/JonMunkholm/ledgerimport/internal/store"
	"github.com/JonMunkholm/ledgerimport/internal/store/memstore"
	"github.com/JonMunkholm/ledgerimport/internal/store/pgstore"
)

// App holds the wired components.
type App struct {
	Config   *config.Config
	Store    store.Store
	Pipeline *pipeline.Pipeline

	close func()
}

// Open connects the configured store and builds the pipeline.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	s, closeStore, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:   cfg,
		Store:    s,
		Pipeline: pipeline.New(s, PipelineConfig(cfg.Import), logger),
		close:    closeStore,
	}, nil
}

// Close releases the store.
func (a *App) Close() {
	if a.close != nil {
		a.close()
	}
}

// OpenStore returns the store selected by DriverName and its close function.
func OpenStore(ctx context.Context, sc config.StoreConfig) (store.Store, func(), error) {
	switch strings.ToLower(sc.Driver) {
	case config.DriverMemory:
		return memstore.New(), func() {}, nil
	case config.DriverPostgres, "":
		s, err := pgstore.Connect(ctx, sc.URL, pgstore.PoolOptions{
			MaxConns:        sc.MaxConns,
			MinConns:        sc.MinConns,
			MaxConnLifetime: sc.MaxConnLifetime,
			MaxConnIdleTime: sc.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", sc.Driver)
	}
}

// PipelineConfig maps the import settings onto the pipeline.
func PipelineConfig(ic config.ImportConfig) pipeline.Config {
	return pipeline.Config{
		Ingest: ingest.Options{
			DayFirst:            ic.DayFirst,
			MaxHeaderSearchRows: ic.HeaderSearchRows,
		},
		Reconcile: reconcile.Options{
			Epsilon:        decimal.NewFromFloat(ic.Epsilon),
			Strict:         ic.Strict,
			StrictMultiple: decimal.NewFromFloat(ic.StrictMultiple),
			SalesAccount:   ic.SalesAccount,
			SalesConcepts:  ic.SalesConcepts,
		},
		Commit: commit.Options{
			BatchSize:     ic.BatchSize,
			MaxRetries:    ic.MaxRetries,
			RetryInterval: ic.RetryInterval,
			Concurrency:   ic.CommitConcurrency,
		},
		BackupDir: ic.BackupDir,
		ReportDir: ic.ReportDir,
	}
}
