// Package commit writes validated records to the store in bounded, atomic
// batches under deterministic ids, so repeated imports overwrite instead of
// duplicating.
package commit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/JonMunkholm/ledgerimport/internal/store"
)

// Default options.
const (
	DefaultMaxRetries    = 3
	DefaultRetryInterval = 200 * time.Millisecond
	DefaultConcurrency   = 4
)

// Options tunes the committer. Zero values select the defaults.
type Options struct {
	BatchSize     int // capped at store.MaxBatchSize
	MaxRetries    int
	RetryInterval time.Duration
	Concurrency   int // collections written in parallel
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 || o.BatchSize > store.MaxBatchSize {
		o.BatchSize = store.MaxBatchSize
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// ErrHalted means the commit context was canceled before every batch was
// written.
var ErrHalted = errors.New("commit halted")

// PersistenceError reports a batch that failed after every retry.
type PersistenceError struct {
	Collection string
	Batch      int // 1-based
	Attempts   int
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist batch %d of %s failed after %d attempts: %v",
		e.Batch, e.Collection, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Result describes what reached the store. On failure it still lists every
// batch that committed before the halt.
type Result struct {
	Written map[string][]string // collection -> committed ids
	Batches int
	Retries int
}

// Count returns the number of committed documents per collection.
func (r *Result) Count() map[string]int {
	counts := make(map[string]int, len(r.Written))
	for c, ids := range r.Written {
		counts[c] = len(ids)
	}
	return counts
}

func (r *Result) total() int {
	n := 0
	for _, ids := range r.Written {
		n += len(ids)
	}
	return n
}

// Committer writes collections to a store.
type Committer struct {
	store  store.Store
	opts   Options
	logger *slog.Logger
}

// New returns a committer for s.
func New(s store.Store, opts Options, logger *slog.Logger) *Committer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Committer{store: s, opts: opts.withDefaults(), logger: logger}
}

// Options returns the effective options.
func (c *Committer) Options() Options { return c.opts }

// Commit writes every collection in docs. Batches inside a collection run in
// order; separate collections run concurrently up to Options.Concurrency.
// The first exhausted batch stops every collection at its next batch
// boundary and is returned as a *PersistenceError. Canceling ctx never
// interrupts a batch in flight: writing stops at the next batch boundary
// and Commit returns an error wrapping ErrHalted.
func (c *Committer) Commit(ctx context.Context, docs map[string][]store.Document) (*Result, error) {
	res := &Result{Written: make(map[string][]string, len(docs))}
	var mu sync.Mutex

	wctx := context.WithoutCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for _, name := range order(docs) {
		name, batch := name, docs[name]
		if len(batch) == 0 {
			continue
		}
		g.Go(func() error {
			return c.writeCollection(wctx, gctx, name, batch, func(ids []string, attempts int) {
				mu.Lock()
				defer mu.Unlock()
				res.Written[name] = append(res.Written[name], ids...)
				res.Batches++
				res.Retries += attempts - 1
			})
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil && res.total() < countAll(docs) {
		return res, fmt.Errorf("%w: %w", ErrHalted, err)
	}
	return res, nil
}

func countAll(docs map[string][]store.Document) int {
	n := 0
	for _, d := range docs {
		n += len(d)
	}
	return n
}

// writeCollection writes one collection batch by batch. Writes use ctx;
// stop only ends the loop between batches. A halt caused by another
// collection's failure returns nil so that failure is the one reported.
func (c *Committer) writeCollection(ctx, stop context.Context, name string, docs []store.Document, committed func([]string, int)) error {
	total := (len(docs) + c.opts.BatchSize - 1) / c.opts.BatchSize
	for i := 0; i < total; i++ {
		if stop.Err() != nil {
			c.logger.Warn("collection halted", "collection", name, "batch", i+1, "of", total)
			return nil
		}

		end := min((i+1)*c.opts.BatchSize, len(docs))
		batch := docs[i*c.opts.BatchSize : end]

		attempts, err := c.writeBatch(ctx, name, i+1, batch)
		if err != nil {
			c.logger.Error("batch write failed",
				"collection", name,
				"batch", i+1,
				"attempts", attempts,
				"error", err,
			)
			return &PersistenceError{Collection: name, Batch: i + 1, Attempts: attempts, Err: err}
		}

		ids := make([]string, len(batch))
		for j, d := range batch {
			ids[j] = d.ID
		}
		committed(ids, attempts)
		c.logger.Debug("batch committed", "collection", name, "batch", i+1, "of", total, "documents", len(batch))
	}
	return nil
}

func (c *Committer) writeBatch(ctx context.Context, name string, n int, batch []store.Document) (int, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.opts.RetryInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.opts.MaxRetries)), ctx)

	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		err := c.store.WriteBatch(ctx, name, batch)
		if errors.Is(err, store.ErrBatchTooLarge) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		c.logger.Warn("retrying batch write",
			"collection", name,
			"batch", n,
			"attempt", attempts,
			"wait", wait,
			"error", err,
		)
	})
	return attempts, err
}

// order lists collections in dependency order, then any others by name.
func order(docs map[string][]store.Document) []string {
	names := make([]string, 0, len(docs))
	known := make(map[string]bool, len(docs))
	for _, e := range schema.PersistedEntities() {
		if _, ok := docs[string(e)]; ok {
			names = append(names, string(e))
			known[string(e)] = true
		}
	}
	var rest []string
	for name := range docs {
		if !known[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
