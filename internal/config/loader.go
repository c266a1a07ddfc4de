package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables, applies defaults
// for unset values and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := fill(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// fill walks the section structs of Config and sets every field carrying
// an env tag.
func fill(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf, f := t.Field(i), v.Field(i)

		if sf.Type.Kind() == reflect.Struct {
			if err := fill(f); err != nil {
				return err
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := lookup(name, sf.Tag.Get("envAlt"), sf.Tag.Get("default"))
		if raw == "" {
			continue
		}
		if err := parse(f, raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, raw, err)
		}
	}
	return nil
}

// lookup returns the first non-empty of the primary variable, the
// alternate variable and the default.
func lookup(name, alt, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	if alt != "" {
		if v := os.Getenv(alt); v != "" {
			return v
		}
	}
	return def
}

func parse(f reflect.Value, raw string) error {
	if f.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		f.SetInt(int64(d))
		return nil
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Float64:
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		f.SetFloat(x)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Slice:
		if f.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported field type %s", f.Type())
		}
		f.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type %s", f.Type())
	}
	return nil
}

// splitList splits a comma-separated value, dropping blank items.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type problems []string

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

// Validate checks every setting and reports all failures at once.
func (c *Config) Validate() error {
	var p problems

	s := c.Store
	switch strings.ToLower(s.Driver) {
	case DriverPostgres:
		p.check(s.URL != "", "DATABASE_URL is required when STORE_DRIVER is postgres")
		p.check(s.MaxConns >= s.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", s.MaxConns, s.MinConns)
		p.check(s.MaxConns > 0, "DB_MAX_CONNS must be positive")
		p.check(s.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
	case DriverMemory:
	default:
		p.check(false, "STORE_DRIVER (%q) must be one of: postgres, memory", s.Driver)
	}

	srv := c.Server
	p.check(srv.Port > 0 && srv.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", srv.Port)
	p.check(srv.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.check(srv.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	p.check(srv.MaxUploadSize > 0, "SERVER_MAX_UPLOAD_SIZE must be positive")

	im := c.Import
	p.check(im.Epsilon > 0, "IMPORT_EPSILON must be positive")
	p.check(im.StrictMultiple >= 1, "IMPORT_STRICT_MULTIPLE must be at least 1")
	p.check(im.BatchSize > 0 && im.BatchSize <= 500, "IMPORT_BATCH_SIZE (%d) must be 1-500", im.BatchSize)
	p.check(im.MaxRetries >= 0, "IMPORT_MAX_RETRIES must be non-negative")
	p.check(im.RetryInterval > 0, "IMPORT_RETRY_INTERVAL must be positive")
	p.check(im.CommitConcurrency > 0, "IMPORT_COMMIT_CONCURRENCY must be positive")
	p.check(im.BackupDir != "", "IMPORT_BACKUP_DIR is required")
	p.check(im.HeaderSearchRows > 0, "IMPORT_HEADER_SEARCH_ROWS must be positive")
	p.check(im.MaxPrintedFindings >= 0, "IMPORT_MAX_PRINTED_FINDINGS must be non-negative")

	lg := c.Logging
	p.check(slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(lg.Level)),
		"LOG_LEVEL (%q) must be one of: debug, info, warn, error", lg.Level)
	p.check(slices.Contains([]string{"text", "json"}, strings.ToLower(lg.Format)),
		"LOG_FORMAT (%q) must be one of: text, json", lg.Format)

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

// String renders the config for logging with the database URL masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Host: %q, Port: %d}, "+
		"Store: {Driver: %q, URL: [MASKED], MaxConns: %d, MinConns: %d}, "+
		"Import: {Epsilon: %g, Strict: %v, BatchSize: %d, MaxRetries: %d, Concurrency: %d}, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Host, c.Server.Port,
		c.Store.Driver, c.Store.MaxConns, c.Store.MinConns,
		c.Import.Epsilon, c.Import.Strict, c.Import.BatchSize, c.Import.MaxRetries, c.Import.CommitConcurrency,
		c.Logging.Level, c.Logging.Format)
}
