package reconcile

import (
	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
)

// Totals are the dataset-wide figures an operator checks after an import.
type Totals struct {
	Capital            decimal.Decimal `json:"capital"` // sum of account balances
	Income             decimal.Decimal `json:"income"`  // sum of account income totals
	Expense            decimal.Decimal `json:"expense"` // sum of account expense totals
	InventoryValuation decimal.Decimal `json:"inventoryValuation"`
	GrossRevenue       decimal.Decimal `json:"grossRevenue"`
	Utility            decimal.Decimal `json:"utility"`
	Receivable         decimal.Decimal `json:"receivable"` // client pending balances
	Payable            decimal.Decimal `json:"payable"`    // purchase order outstanding debt
}

// ComputeTotals sums ds.
func ComputeTotals(ds *schema.Dataset) Totals {
	var t Totals
	for _, a := range ds.Accounts {
		t.Capital = t.Capital.Add(a.Balance)
		t.Income = t.Income.Add(a.IncomeTotal)
		t.Expense = t.Expense.Add(a.ExpenseTotal)
	}
	for _, it := range ds.Items {
		t.InventoryValuation = t.InventoryValuation.Add(it.Valuation())
	}
	for _, s := range ds.Sales {
		t.GrossRevenue = t.GrossRevenue.Add(s.GrossRevenue)
		t.Utility = t.Utility.Add(s.Utility)
	}
	for _, c := range ds.Clients {
		t.Receivable = t.Receivable.Add(c.PendingBalance)
	}
	for _, o := range ds.Orders {
		t.Payable = t.Payable.Add(o.OutstandingDebt)
	}
	return t
}

// Map flattens the totals for the report artifact.
func (t Totals) Map() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"capital":            t.Capital,
		"income":             t.Income,
		"expense":            t.Expense,
		"inventoryValuation": t.InventoryValuation,
		"grossRevenue":       t.GrossRevenue,
		"utility":            t.Utility,
		"receivable":         t.Receivable,
		"payable":            t.Payable,
	}
}

// Summary returns the totals as reported KPIs, the form the summary sheet
// of an export carries.
func (t Totals) Summary() schema.Summary {
	capital, income, expense := t.Capital, t.Income, t.Expense
	return schema.Summary{Capital: &capital, Income: &income, Expense: &expense}
}
