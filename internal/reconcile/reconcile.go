// Package reconcile verifies the numeric invariants of a ledger dataset.
//
// Every check compares a declared value from the source against a value
// computed from other fields or records, with an absolute tolerance. A
// mismatch is a warning unless strict mode is on and the difference exceeds
// StrictMultiple times the tolerance, in which case it blocks the import.
package reconcile

import (
	"fmt"

	"github.com/JonMunkholm/ledgerimport/internal/report"
	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
)

// DefaultEpsilon is the default absolute tolerance for currency comparisons.
var DefaultEpsilon = decimal.RequireFromString("0.01")

// DefaultStrictMultiple is the default number of epsilons a mismatch must
// exceed before strict mode blocks on it.
var DefaultStrictMultiple = decimal.NewFromInt(100)

// DefaultSalesConcepts are the concept keywords that mark an income entry
// as sales income.
var DefaultSalesConcepts = []string{"VENTA", "VENTAS", "SALE", "SALES"}

// Options configures the reconciler.
type Options struct {
	Epsilon        decimal.Decimal
	Strict         bool
	StrictMultiple decimal.Decimal

	// SalesAccount restricts sales income to entries of one account ("" = any).
	SalesAccount string
	// SalesConcepts are matched against entry concepts, accent and case
	// insensitive. Empty means every income entry counts as sales income.
	SalesConcepts []string

	// ReportedCapital overrides the capital KPI read from the summary sheet.
	ReportedCapital *decimal.Decimal
}

// Reconciler runs the arithmetic layer.
type Reconciler struct {
	opts      Options
	threshold decimal.Decimal
}

// New returns a reconciler, filling unset options with defaults.
func New(opts Options) *Reconciler {
	if opts.Epsilon.IsZero() || opts.Epsilon.IsNegative() {
		opts.Epsilon = DefaultEpsilon
	}
	if opts.StrictMultiple.IsZero() || opts.StrictMultiple.IsNegative() {
		opts.StrictMultiple = DefaultStrictMultiple
	}
	if opts.SalesConcepts == nil {
		opts.SalesConcepts = DefaultSalesConcepts
	}
	return &Reconciler{
		opts:      opts,
		threshold: opts.Epsilon.Mul(opts.StrictMultiple),
	}
}

// Options returns the effective options.
func (r *Reconciler) Options() Options {
	return r.opts
}

// Reconcile checks every invariant of ds and returns the findings together
// with the dataset totals. It never modifies ds.
func (r *Reconciler) Reconcile(ds *schema.Dataset) ([]report.Finding, Totals) {
	c := &checker{r: r, ds: ds}
	c.accounts()
	c.sales()
	c.orders()
	c.clients()
	c.items()
	c.cutoffs()

	totals := ComputeTotals(ds)
	c.aggregates(totals)
	return c.findings, totals
}

// Equal reports whether two amounts agree within the tolerance.
func (r *Reconciler) Equal(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(r.opts.Epsilon)
}

type checker struct {
	r        *Reconciler
	ds       *schema.Dataset
	findings []report.Finding
}

// compare emits a finding when declared and computed disagree beyond the
// tolerance and reports whether they agreed.
func (c *checker) compare(inv schema.Invariant, entity schema.EntityType, o schema.Origin, id string,
	declared, computed decimal.Decimal, format string, args ...any) bool {
	if c.r.Equal(declared, computed) {
		return true
	}
	delta := declared.Sub(computed)
	f := c.finding(inv, entity, o, id, fmt.Sprintf(format, args...))
	f.Declared = &declared
	f.Computed = &computed
	f.Blocking = c.r.opts.Strict && inv.IsMismatch() && delta.Abs().GreaterThan(c.r.threshold)
	c.findings = append(c.findings, f)
	return false
}

// notice emits a non-blocking arithmetic observation.
func (c *checker) notice(inv schema.Invariant, entity schema.EntityType, o schema.Origin, id, msg string, value *decimal.Decimal) {
	f := c.finding(inv, entity, o, id, msg)
	f.Computed = value
	c.findings = append(c.findings, f)
}

func (c *checker) finding(inv schema.Invariant, entity schema.EntityType, o schema.Origin, id, msg string) report.Finding {
	return report.Finding{
		Class:    report.ClassArithmetic,
		Type:     string(inv),
		Entity:   entity,
		Sheet:    o.Sheet,
		RowIndex: o.RowIndex,
		RecordID: id,
		Message:  msg,
	}
}
