// Package pipeline drives an import from source to store.
//
// A run moves through INIT, INGESTED and VALIDATED. A committable run then
// goes BACKED_UP, COMMITTING and ends COMMITTED, or falls back through
// PARTIALLY_COMMITTED to ROLLED_BACK. A run that is not committable, or that
// fails before any write, ends ABORTED with the store untouched.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledgerimport/internal/backup"
	"github.com/JonMunkholm/ledgerimport/internal/commit"
	"github.com/JonMunkholm/ledgerimport/internal/ingest"
	"github.com/JonMunkholm/ledgerimport/internal/logging"
	"github.com/JonMunkholm/ledgerimport/internal/reconcile"
	"github.com/JonMunkholm/ledgerimport/internal/report"
	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/JonMunkholm/ledgerimport/internal/store"
	"github.com/JonMunkholm/ledgerimport/internal/validate"
)

// State is a stage of a run.
type State string

const (
	StateInit               State = "INIT"
	StateIngested           State = "INGESTED"
	StateValidated          State = "VALIDATED"
	StateBackedUp           State = "BACKED_UP"
	StateCommitting         State = "COMMITTING"
	StateCommitted          State = "COMMITTED"
	StatePartiallyCommitted State = "PARTIALLY_COMMITTED"
	StateRolledBack         State = "ROLLED_BACK"
	StateAborted            State = "ABORTED"
)

// Terminal reports whether a run can end in s.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateRolledBack || s == StateAborted
}

// ErrRollbackFailed means a partial commit could not be undone. The report
// keeps the snapshot id so the restore can be retried.
var ErrRollbackFailed = errors.New("rollback failed")

// ErrLedgerMismatch is the failure recorded when strict arithmetic findings
// close the validation gate.
var ErrLedgerMismatch = errors.New("ledger mismatch")

// Config is fixed at construction.
type Config struct {
	Ingest    ingest.Options
	Reconcile reconcile.Options
	Commit    commit.Options
	BackupDir string
	ReportDir string // empty disables report files
}

// RunOptions override Config for a single run.
type RunOptions struct {
	Strict          *bool
	DryRun          bool
	ReportedCapital *decimal.Decimal
}

// Pipeline owns the only write path to a store.
type Pipeline struct {
	store     store.Store
	backups   *backup.Manager
	committer *commit.Committer
	cfg       Config
	logger    *slog.Logger
	guard     *runGuard
	now       func() time.Time
}

// New returns a pipeline writing to s.
func New(s store.Store, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     s,
		backups:   backup.NewManager(cfg.BackupDir, s, logger),
		committer: commit.New(s, cfg.Commit, logger),
		cfg:       cfg,
		logger:    logger,
		guard:     newRunGuard(),
		now:       time.Now,
	}
}

// RunPath opens the source at path and runs it. A source that cannot be
// read yields an ABORTED report.
func (p *Pipeline) RunPath(ctx context.Context, path string, opts RunOptions) (*report.Report, error) {
	if !p.guard.tryAcquire("import " + path) {
		return nil, ErrRunInProgress
	}
	defer p.guard.release()

	src, err := ingest.Open(path)
	if err != nil {
		rn := p.newRun(ctx, path)
		rep := report.NewAggregator().Build(rn.id, rn.started, nil)
		rep.Source = path
		rep.DryRun = opts.DryRun
		rep.Fail(report.ClassRun, report.TypeSourceUnreadable, err)
		rn.log.Error("source unreadable", "error", err)
		rn.transition(StateAborted)
		return rn.finish(rep), p.save(rn, rep)
	}
	return p.runLocked(ctx, src, opts)
}

// Run imports src. The returned error is non-nil only when a rollback
// failed, the report could not be saved, or another run is active;
// every other outcome is described by the report's State.
func (p *Pipeline) Run(ctx context.Context, src ingest.Source, opts RunOptions) (*report.Report, error) {
	if !p.guard.tryAcquire("import " + src.Name) {
		return nil, ErrRunInProgress
	}
	defer p.guard.release()
	return p.runLocked(ctx, src, opts)
}

func (p *Pipeline) runLocked(ctx context.Context, src ingest.Source, opts RunOptions) (*report.Report, error) {
	rn := p.newRun(ctx, src.Name)
	rep, err := p.execute(rn, src, opts)
	return rep, errors.Join(err, p.save(rn, rep))
}

// run carries the per-run state through the stages.
type run struct {
	id      string
	ctx     context.Context
	log     *slog.Logger
	now     func() time.Time
	started time.Time
	state   State
	history []report.Transition
}

func (p *Pipeline) newRun(ctx context.Context, source string) *run {
	id := uuid.NewString()
	ctx = logging.WithRunID(ctx, id)
	rn := &run{
		id:      id,
		ctx:     ctx,
		log:     logging.Enrich(ctx, p.logger).With("source", source),
		now:     p.now,
		started: p.now().UTC(),
	}
	rn.transition(StateInit)
	return rn
}

func (rn *run) transition(s State, args ...any) {
	rn.state = s
	rn.history = append(rn.history, report.Transition{State: string(s), At: rn.now().UTC()})
	rn.log.Info("import "+string(s), args...)
}

func (rn *run) finish(rep *report.Report) *report.Report {
	rep.History = rn.history
	rep.State = string(rn.state)
	return rep
}

// canceled records a cancellation observed between stages.
func (rn *run) canceled(rep *report.Report) bool {
	err := rn.ctx.Err()
	if err == nil {
		return false
	}
	rep.Fail(report.ClassRun, report.TypeRunCanceled, err)
	rn.log.Warn("import canceled", "state", rn.state, "error", err)
	return true
}

func (p *Pipeline) execute(rn *run, src ingest.Source, opts RunOptions) (*report.Report, error) {
	agg := report.NewAggregator()

	res := ingest.Ingest(src, p.cfg.Ingest)
	agg.Add(res.Findings...)
	rn.transition(StateIngested, "sheets", len(res.Sheets), "rows", len(res.Drafts))

	if rn.ctx.Err() != nil {
		rep := agg.Build(rn.id, rn.started, nil)
		p.describe(rep, src, opts)
		rn.canceled(rep)
		rn.transition(StateAborted)
		return rn.finish(rep), nil
	}

	agg.Add(validate.Structural(res.Drafts)...)
	ds, refs := validate.Referential(validate.Materialize(res.Drafts))
	agg.Add(refs...)
	findings, totals := reconcile.New(p.reconcileOptions(opts)).Reconcile(ds)
	agg.Add(findings...)

	imported := make(map[schema.EntityType]int)
	for _, e := range schema.PersistedEntities() {
		if n := ds.Count(e); n > 0 {
			imported[e] = n
		}
	}
	rep := agg.Build(rn.id, rn.started, imported)
	p.describe(rep, src, opts)
	rep.Totals = totals.Map()
	rn.transition(StateValidated,
		"committable", rep.IsCommittable,
		"errors", len(rep.Errors),
		"warnings", len(rep.Warnings),
		"records", ds.Total(),
	)

	switch {
	case !rep.IsCommittable:
		if n := rep.BlockingOf(report.ClassArithmetic); n > 0 {
			rep.Reject(fmt.Errorf("%w: %d blocking arithmetic findings", ErrLedgerMismatch, n))
		}
		rn.transition(StateAborted, "blocking_errors", rep.BlockingErrors())
		return rn.finish(rep), nil
	case opts.DryRun:
		rn.transition(StateAborted, "dry_run", true)
		return rn.finish(rep), nil
	case rn.canceled(rep):
		rn.transition(StateAborted)
		return rn.finish(rep), nil
	}

	snap, err := p.backups.Capture(rn.ctx, rn.id, schema.Collections())
	if err != nil {
		rep.Fail(report.ClassBackup, report.TypeSnapshotFailed, err)
		rn.log.Error("snapshot failed", "error", err)
		rn.transition(StateAborted)
		return rn.finish(rep), nil
	}
	rep.SnapshotID = snap.ID
	rn.transition(StateBackedUp, "snapshot_id", snap.ID)

	// From here on the store may change, so every exit restores the snapshot.
	// Writes and the restore ignore cancellation; the committer stops at the
	// next batch boundary once rn.ctx is canceled.
	wctx := context.WithoutCancel(rn.ctx)
	if rn.canceled(rep) {
		return p.rollback(wctx, rn, rep, snap)
	}

	docs, err := commit.Documents(ds)
	if err != nil {
		rep.Fail(report.ClassPersistence, report.TypeBatchFailed, err)
		return p.rollback(wctx, rn, rep, snap)
	}
	rn.transition(StateCommitting, "documents", countDocs(docs))

	result, err := p.committer.Commit(rn.ctx, docs)
	rep.Commit = commitSummary(result, snap, err)
	switch {
	case errors.Is(err, commit.ErrHalted):
		rep.Fail(report.ClassRun, report.TypeRunCanceled, err)
		rn.log.Warn("import canceled", "state", rn.state, "batches", result.Batches)
		rn.transition(StatePartiallyCommitted, "batches", result.Batches, "error", err)
		return p.rollback(wctx, rn, rep, snap)
	case err != nil:
		rep.Fail(report.ClassPersistence, report.TypeBatchFailed, err)
		rn.transition(StatePartiallyCommitted, "batches", result.Batches, "error", err)
		return p.rollback(wctx, rn, rep, snap)
	}

	if err := p.verify(wctx, snap, result); err != nil {
		rep.Fail(report.ClassPersistence, report.TypeVerifyFailed, err)
		rn.transition(StatePartiallyCommitted, "error", err)
		return p.rollback(wctx, rn, rep, snap)
	}

	// Every batch landed but the run was canceled before it could finish.
	if rn.canceled(rep) {
		rn.transition(StatePartiallyCommitted, "batches", result.Batches)
		return p.rollback(wctx, rn, rep, snap)
	}

	rn.transition(StateCommitted,
		"batches", result.Batches,
		"retries", result.Retries,
		"overwritten", rep.Commit.Overwritten,
	)
	return rn.finish(rep), nil
}

func (p *Pipeline) describe(rep *report.Report, src ingest.Source, opts RunOptions) {
	rep.Source = src.Name
	rep.Strict = p.reconcileOptions(opts).Strict
	rep.DryRun = opts.DryRun
}

func (p *Pipeline) reconcileOptions(opts RunOptions) reconcile.Options {
	ro := p.cfg.Reconcile
	if opts.Strict != nil {
		ro.Strict = *opts.Strict
	}
	if opts.ReportedCapital != nil {
		capital := *opts.ReportedCapital
		ro.ReportedCapital = &capital
	}
	return ro
}

// rollback restores the snapshot, retrying with backoff.
func (p *Pipeline) rollback(ctx context.Context, rn *run, rep *report.Report, snap *backup.Snapshot) (*report.Report, error) {
	rn.log.Error("rolling back", "snapshot_id", snap.ID)

	co := p.committer.Options()
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = co.RetryInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(co.MaxRetries)), ctx)

	err := backoff.RetryNotify(func() error {
		_, err := p.backups.Restore(ctx, snap.ID)
		if errors.Is(err, backup.ErrSnapshotNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		rn.log.Warn("retrying restore", "snapshot_id", snap.ID, "wait", wait, "error", err)
	})
	if err != nil {
		rep.Fail(report.ClassBackup, report.TypeRestoreFailed, err)
		rn.log.Error("rollback failed", "snapshot_id", snap.ID, "state", rn.state, "error", err)
		return rn.finish(rep), fmt.Errorf("%w: snapshot %s: %v", ErrRollbackFailed, snap.ID, err)
	}

	rn.transition(StateRolledBack, "snapshot_id", snap.ID)
	return rn.finish(rep), nil
}

// verify checks that each written collection holds exactly its prior ids
// plus the written ids, and that every written id reads back.
func (p *Pipeline) verify(ctx context.Context, snap *backup.Snapshot, res *commit.Result) error {
	for collection, ids := range res.Written {
		want := store.IDs(snap.Collections[collection])
		for _, id := range ids {
			want[id] = struct{}{}
		}

		n, err := p.store.Count(ctx, collection)
		if err != nil {
			return fmt.Errorf("verification failed: count %s: %w", collection, err)
		}
		if n != len(want) {
			return fmt.Errorf("verification failed: %s holds %d documents, want %d", collection, n, len(want))
		}

		docs, err := p.store.ReadAll(ctx, collection)
		if err != nil {
			return fmt.Errorf("verification failed: read %s: %w", collection, err)
		}
		stored := store.IDs(docs)
		for _, id := range ids {
			if _, ok := stored[id]; !ok {
				return fmt.Errorf("verification failed: %s/%s not readable", collection, id)
			}
		}
	}
	return nil
}

func commitSummary(res *commit.Result, snap *backup.Snapshot, err error) *report.CommitSummary {
	cs := &report.CommitSummary{Written: res.Count(), Batches: res.Batches}
	for c, ids := range res.Written {
		prior := store.IDs(snap.Collections[c])
		for _, id := range ids {
			if _, ok := prior[id]; ok {
				cs.Overwritten++
			}
		}
	}
	var pe *commit.PersistenceError
	if errors.As(err, &pe) {
		cs.FailedCollection = pe.Collection
		cs.FailedBatch = pe.Batch
		cs.Attempts = pe.Attempts
	}
	return cs
}

func countDocs(docs map[string][]store.Document) int {
	n := 0
	for _, d := range docs {
		n += len(d)
	}
	return n
}

func (p *Pipeline) save(rn *run, rep *report.Report) error {
	if p.cfg.ReportDir == "" {
		return nil
	}
	path, err := report.Save(p.cfg.ReportDir, rep)
	if err != nil {
		rn.log.Error("failed to save report", "error", err)
		return fmt.Errorf("save report: %w", err)
	}
	rn.log.Info("report saved", "path", path)
	return nil
}

// Export reads every committed collection back into a dataset. The summary
// carries the recomputed totals so a re-import reconciles against them.
func (p *Pipeline) Export(ctx context.Context) (*schema.Dataset, reconcile.Totals, error) {
	if !p.guard.tryAcquire("export") {
		return nil, reconcile.Totals{}, ErrRunInProgress
	}
	defer p.guard.release()
	return p.export(ctx)
}

func (p *Pipeline) export(ctx context.Context) (*schema.Dataset, reconcile.Totals, error) {
	collections := make(map[string][]store.Document)
	for _, c := range schema.Collections() {
		docs, err := p.store.ReadAll(ctx, c)
		if err != nil {
			return nil, reconcile.Totals{}, fmt.Errorf("export %s: %w", c, err)
		}
		collections[c] = docs
	}
	ds, err := commit.Decode(collections)
	if err != nil {
		return nil, reconcile.Totals{}, fmt.Errorf("export: %w", err)
	}
	totals := reconcile.ComputeTotals(ds)
	ds.Summary = totals.Summary()
	return ds, totals, nil
}

// ExportWorkbook writes the committed data to w as an xlsx workbook.
func (p *Pipeline) ExportWorkbook(ctx context.Context, w io.Writer) (reconcile.Totals, error) {
	if !p.guard.tryAcquire("export") {
		return reconcile.Totals{}, ErrRunInProgress
	}
	defer p.guard.release()

	ds, totals, err := p.export(ctx)
	if err != nil {
		return totals, err
	}
	if err := ingest.WriteWorkbook(w, ds); err != nil {
		return totals, err
	}
	return totals, nil
}

// Restore overwrites the store with snapshot id.
func (p *Pipeline) Restore(ctx context.Context, id string) (*backup.Info, error) {
	if !p.guard.tryAcquire("restore " + id) {
		return nil, ErrRunInProgress
	}
	defer p.guard.release()

	snap, err := p.backups.Restore(ctx, id)
	if err != nil {
		return nil, err
	}
	return &backup.Info{ID: snap.ID, RunID: snap.RunID, CreatedAt: snap.CreatedAt, Counts: snap.Counts()}, nil
}

// Snapshots lists stored snapshots, newest first.
func (p *Pipeline) Snapshots() ([]backup.Info, error) {
	return p.backups.List()
}

// LoadReport returns the saved report of a previous run.
func (p *Pipeline) LoadReport(runID string) (*report.Report, error) {
	if p.cfg.ReportDir == "" {
		return nil, report.ErrReportNotFound
	}
	return report.Load(p.cfg.ReportDir, runID)
}

// Status reports the operation currently holding the pipeline.
func (p *Pipeline) Status() Status {
	return p.guard.status()
}

// Drain waits for the active operation to finish.
func (p *Pipeline) Drain(ctx context.Context) error {
	return p.guard.drain(ctx)
}
