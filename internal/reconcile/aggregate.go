package reconcile

import (
	"sort"
	"strings"

	"github.com/JonMunkholm/ledgerimport/internal/ingest"
	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
)

// aggregates runs the cross-entity checks: reported KPIs against account
// sums, and per-month sales revenue against sales income.
func (c *checker) aggregates(t Totals) {
	summary := c.ds.Summary
	capital := summary.Capital
	if c.r.opts.ReportedCapital != nil {
		capital = c.r.opts.ReportedCapital
	}

	if capital != nil {
		c.compare(schema.InvCapital, schema.EntitySummary, schema.Origin{}, "capital",
			*capital, t.Capital,
			"reported capital %s does not equal the sum of account balances %s", *capital, t.Capital)
	}
	if summary.Income != nil {
		c.compare(schema.InvIncomeReported, schema.EntitySummary, schema.Origin{}, "income",
			*summary.Income, t.Income,
			"reported income %s does not equal the sum of account income %s", *summary.Income, t.Income)
	}
	if summary.Expense != nil {
		c.compare(schema.InvExpenseReported, schema.EntitySummary, schema.Origin{}, "expense",
			*summary.Expense, t.Expense,
			"reported expense %s does not equal the sum of account expense %s", *summary.Expense, t.Expense)
	}

	c.salesIncome()
}

// salesIncome compares, per calendar month, gross sales revenue with the
// income entries attributed to sales. Records without a valid date cannot
// be assigned to a month and are left out.
func (c *checker) salesIncome() {
	if len(c.ds.Sales) == 0 || len(c.ds.Income) == 0 {
		return
	}

	revenue := make(map[string]decimal.Decimal)
	for _, s := range c.ds.Sales {
		if p := s.Date.Period(); p != "" {
			revenue[p] = revenue[p].Add(s.GrossRevenue)
		}
	}

	income := make(map[string]decimal.Decimal)
	for _, e := range c.ds.Income {
		if !c.isSalesIncome(e) {
			continue
		}
		if p := e.Date.Period(); p != "" {
			income[p] = income[p].Add(e.Amount)
		}
	}

	periods := make([]string, 0, len(revenue)+len(income))
	seen := make(map[string]bool)
	for p := range revenue {
		periods, seen[p] = append(periods, p), true
	}
	for p := range income {
		if !seen[p] {
			periods = append(periods, p)
		}
	}
	sort.Strings(periods)

	for _, p := range periods {
		c.compare(schema.InvSalesIncome, schema.EntitySale, schema.Origin{}, p,
			revenue[p], income[p],
			"sales revenue for %s is %s but sales income entries total %s", p, revenue[p], income[p])
	}
}

func (c *checker) isSalesIncome(e schema.LedgerEntry) bool {
	if acct := c.r.opts.SalesAccount; acct != "" && e.AccountID != acct {
		return false
	}
	if len(c.r.opts.SalesConcepts) == 0 {
		return true
	}
	concept := " " + ingest.FoldKey(e.Concept) + " "
	for _, kw := range c.r.opts.SalesConcepts {
		if strings.Contains(concept, " "+ingest.FoldKey(kw)+" ") {
			return true
		}
	}
	return false
}
