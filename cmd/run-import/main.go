// Command run-import validates a ledger workbook and, when it is
// consistent, commits it to the configured store.
//
//	run-import [-strict] [-capital N] [-dry-run] <source>
//	run-import -restore <snapshot-id>
//	run-import -export <out.xlsx>
//
// The source is an .xlsx workbook, a .csv sheet or a directory of .csv
// sheets. The exit status is 0 when the ledger was committed (or, with
// -dry-run, would have been) and 1 otherwise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledgerimport/internal/application"
	"github.com/JonMunkholm/ledgerimport/internal/config"
	"github.com/JonMunkholm/ledgerimport/internal/logging"
	"github.com/JonMunkholm/ledgerimport/internal/pipeline"
	"github.com/JonMunkholm/ledgerimport/internal/report"
)

type options struct {
	strict   bool
	capital  string
	dryRun   bool
	restore  string
	export   string
	source   string
	setFlags map[string]bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	_ = godotenv.Overload()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := application.Open(ctx, cfg, slog.Default())
	if err != nil {
		fmt.Fprintln(stderr, report.FormatUserError(err))
		slog.Error("failed to open store", "error", err)
		return 1
	}
	defer app.Close()

	switch {
	case opts.restore != "":
		return restore(ctx, app.Pipeline, opts.restore, stdout, stderr)
	case opts.export != "":
		return export(ctx, app.Pipeline, opts.export, stdout, stderr)
	}

	runOpts, err := opts.runOptions()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	rep, err := app.Pipeline.RunPath(ctx, opts.source, runOpts)
	if rep != nil {
		report.WriteSummary(stdout, rep, cfg.Import.MaxPrintedFindings)
		if cfg.Import.ReportDir != "" {
			fmt.Fprintf(stdout, "report: %s\n", report.Path(cfg.Import.ReportDir, rep.RunID))
		}
	}
	if err != nil {
		fmt.Fprintln(stderr, report.FormatUserError(err))
		slog.Error("import failed", "error", err)
		return 1
	}
	return exitCode(rep)
}

// exitCode is 0 for a committed run and for a dry run that would commit.
func exitCode(rep *report.Report) int {
	switch {
	case rep.State == string(pipeline.StateCommitted):
		return 0
	case rep.DryRun && rep.IsCommittable && rep.Failure == nil:
		return 0
	default:
		return 1
	}
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("run-import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.strict, "strict", false, "block the commit on arithmetic mismatches")
	fs.StringVar(&opts.capital, "capital", "", "reported capital, overriding the summary sheet")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "validate and report without writing")
	fs.StringVar(&opts.restore, "restore", "", "restore the store from a snapshot id")
	fs.StringVar(&opts.export, "export", "", "write the committed ledger to an .xlsx file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: run-import [-strict] [-capital N] [-dry-run] <source>")
		fmt.Fprintln(stderr, "       run-import -restore <snapshot-id>")
		fmt.Fprintln(stderr, "       run-import -export <out.xlsx>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.setFlags = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.setFlags[f.Name] = true })

	modes := 0
	for _, set := range []bool{opts.restore != "", opts.export != "", fs.NArg() > 0} {
		if set {
			modes++
		}
	}
	switch {
	case modes == 0:
		fs.Usage()
		return opts, errors.New("missing source")
	case modes > 1:
		return opts, errors.New("a source, -restore and -export are mutually exclusive")
	case fs.NArg() > 1:
		return opts, fmt.Errorf("expected one source, got %d", fs.NArg())
	}
	opts.source = fs.Arg(0)
	return opts, nil
}

// runOptions keeps the configured strict mode unless -strict was given.
func (o options) runOptions() (pipeline.RunOptions, error) {
	var ro pipeline.RunOptions
	if o.setFlags["strict"] {
		strict := o.strict
		ro.Strict = &strict
	}
	ro.DryRun = o.dryRun
	if o.capital != "" {
		c, err := decimal.NewFromString(o.capital)
		if err != nil {
			return ro, fmt.Errorf("invalid value for -capital: %q", o.capital)
		}
		ro.ReportedCapital = &c
	}
	return ro, nil
}

func restore(ctx context.Context, p *pipeline.Pipeline, id string, stdout, stderr io.Writer) int {
	info, err := p.Restore(ctx, id)
	if err != nil {
		fmt.Fprintln(stderr, report.FormatUserError(err))
		slog.Error("restore failed", "snapshot_id", id, "error", err)
		return 1
	}
	fmt.Fprintf(stdout, "restored snapshot %s (run %s)\n", info.ID, info.RunID)
	collections := make([]string, 0, len(info.Counts))
	for c := range info.Counts {
		collections = append(collections, c)
	}
	sort.Strings(collections)
	for _, c := range collections {
		fmt.Fprintf(stdout, "  %s: %d\n", c, info.Counts[c])
	}
	return 0
}

func export(ctx context.Context, p *pipeline.Pipeline, path string, stdout, stderr io.Writer) int {
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	totals, err := p.ExportWorkbook(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(stderr, report.FormatUserError(err))
		slog.Error("export failed", "path", path, "error", err)
		return 1
	}
	fmt.Fprintf(stdout, "exported %s (capital %s)\n", path, totals.Capital)
	return 0
}
