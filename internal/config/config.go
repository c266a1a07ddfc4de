// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Import  ImportConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including waiting for an
	// active import (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// MaxUploadSize is the largest accepted workbook upload in bytes (default: 50MB)
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" default:"52428800"`

	// TrustedProxies are CIDRs whose X-Real-IP/X-Forwarded-For are honored.
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES" default:"127.0.0.1/32,::1/128"`
}

// StoreConfig selects and tunes the document store.
type StoreConfig struct {
	// Driver is "postgres" or "memory" (default: postgres)
	Driver string `env:"STORE_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds reconciliation and commit settings.
type ImportConfig struct {
	// Epsilon is the absolute tolerance for currency comparisons (default: 0.01)
	Epsilon float64 `env:"IMPORT_EPSILON" default:"0.01"`

	// Strict blocks the commit on mismatches above Epsilon*StrictMultiple
	Strict         bool    `env:"IMPORT_STRICT" default:"false"`
	StrictMultiple float64 `env:"IMPORT_STRICT_MULTIPLE" default:"100"`

	// BatchSize is documents per atomic write, at most 500 (default: 500)
	BatchSize         int           `env:"IMPORT_BATCH_SIZE" default:"500"`
	MaxRetries        int           `env:"IMPORT_MAX_RETRIES" default:"3"`
	RetryInterval     time.Duration `env:"IMPORT_RETRY_INTERVAL" default:"200ms"`
	CommitConcurrency int           `env:"IMPORT_COMMIT_CONCURRENCY" default:"4"`

	BackupDir string `env:"IMPORT_BACKUP_DIR" default:"data/snapshots"`
	ReportDir string `env:"IMPORT_REPORT_DIR" default:"data/reports"`

	// SalesAccount limits sales income to one account id (default: any)
	SalesAccount  string   `env:"IMPORT_SALES_ACCOUNT"`
	SalesConcepts []string `env:"IMPORT_SALES_CONCEPTS" default:"VENTA,VENTAS,SALE,SALES"`

	// DayFirst reads 03/04/2024 as 3 April (default: true)
	DayFirst         bool `env:"IMPORT_DAY_FIRST" default:"true"`
	HeaderSearchRows int  `env:"IMPORT_HEADER_SEARCH_ROWS" default:"20"`

	// MaxPrintedFindings caps the errors and warnings printed by the CLI (default: 10)
	MaxPrintedFindings int `env:"IMPORT_MAX_PRINTED_FINDINGS" default:"10"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
