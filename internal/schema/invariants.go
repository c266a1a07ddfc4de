package schema

// Invariant names the check behind an arithmetic finding. Operators triage
// reconciliation output by these values.
type Invariant string

const (
	InvAccountBalance    Invariant = "balance≠income−expense"
	InvAccountIncome     Invariant = "account-income≠Σentries"
	InvAccountExpense    Invariant = "account-expense≠Σentries"
	InvSaleRevenue       Invariant = "revenue≠price×qty"
	InvSaleUtility       Invariant = "utility≠revenue−cost−freight"
	InvSaleUnverifiable  Invariant = "utility-unverifiable"
	InvOrderTotal        Invariant = "po-total≠qty×cost"
	InvOrderDebt         Invariant = "po-debt≠total−payment"
	InvClientPending     Invariant = "pending≠debt−payments"
	InvClientOverpayment Invariant = "client-overpayment"
	InvItemMargin        Invariant = "price≤cost"
	InvItemStock         Invariant = "stock≠movements"
	InvCutoffHistory     Invariant = "cutoff≠ledger-history"
	InvCapital           Invariant = "capital≠Σbalance"
	InvIncomeReported    Invariant = "income-total≠reported"
	InvExpenseReported   Invariant = "expense-total≠reported"
	InvSalesIncome       Invariant = "sales-revenue≠sales-income"
)

// IsMismatch reports whether the invariant compares a declared value against a
// computed one. Only mismatches are eligible for strict-mode promotion.
func (i Invariant) IsMismatch() bool {
	switch i {
	case InvSaleUnverifiable, InvClientOverpayment, InvItemMargin:
		return false
	default:
		return true
	}
}
