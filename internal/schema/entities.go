package schema

import "github.com/shopspring/decimal"

// Origin locates the spreadsheet row a record was built from.
type Origin struct {
	Sheet    string `json:"-"`
	RowIndex int    `json:"-"` // 1-based row number within the sheet
}

// Account is a vault: a ledger bucket tracking income, expense and balance.
// Invariant: Balance == IncomeTotal - ExpenseTotal.
type Account struct {
	Origin       `json:"-"`
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	IncomeTotal  decimal.Decimal `json:"incomeTotal"`
	ExpenseTotal decimal.Decimal `json:"expenseTotal"`
	Balance      decimal.Decimal `json:"balance"`
}

// LedgerEntry is a single income or expense movement on an account.
type LedgerEntry struct {
	Origin    `json:"-"`
	ID        string          `json:"id,omitempty"`
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	Date      Date            `json:"date"`
	Concept   string          `json:"concept,omitempty"`
}

// Sale is one sale line.
// Invariant: Utility == GrossRevenue - costBasis - FreightCost, where the cost
// basis comes from the referenced purchase order when it resolves.
type Sale struct {
	Origin        `json:"-"`
	ID            string          `json:"id,omitempty"`
	Date          Date            `json:"date"`
	SaleOrderRef  string          `json:"saleOrderRef,omitempty"`
	ClientID      string          `json:"clientId"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	GrossRevenue  decimal.Decimal `json:"grossRevenue"`
	FreightCost   decimal.Decimal `json:"freightCost"`
	FreightProfit decimal.Decimal `json:"freightProfit"`
	Utility       decimal.Decimal `json:"utility"`
	Status        string          `json:"status"`
}

// PurchaseOrder ("OC") is a stock purchase from a distributor.
// Invariants: TotalCost == Quantity*UnitCost and
// OutstandingDebt == TotalCost - PaymentToDistributor.
type PurchaseOrder struct {
	Origin               `json:"-"`
	ID                   string          `json:"id"`
	DistributorID        string          `json:"distributorId"`
	Quantity             decimal.Decimal `json:"quantity"`
	UnitCost             decimal.Decimal `json:"unitCost"`
	TotalCost            decimal.Decimal `json:"totalCost"`
	PaymentToDistributor decimal.Decimal `json:"paymentToDistributor"`
	OutstandingDebt      decimal.Decimal `json:"outstandingDebt"`
}

// Client is a customer with a running debt.
// Invariant: PendingBalance == Debt - PaymentsMade; negative values are flagged.
type Client struct {
	Origin         `json:"-"`
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Debt           decimal.Decimal `json:"debt"`
	PaymentsMade   decimal.Decimal `json:"paymentsMade"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	PendingBalance decimal.Decimal `json:"pendingBalance"`
}

// Distributor supplies purchase orders.
type Distributor struct {
	Origin `json:"-"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
}

// InventoryItem is a stocked product. Invariant: UnitPrice > UnitCost.
type InventoryItem struct {
	Origin    `json:"-"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	StockQty  decimal.Decimal `json:"stockQty"`
	UnitCost  decimal.Decimal `json:"unitCost"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Valuation is StockQty * UnitCost.
func (i InventoryItem) Valuation() decimal.Decimal {
	return i.StockQty.Mul(i.UnitCost)
}

// InventoryMovement is a stock entry (IN) or exit (OUT).
type InventoryMovement struct {
	Origin   `json:"-"`
	ID       string          `json:"id,omitempty"`
	ItemID   string          `json:"itemId"`
	Type     string          `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
	Date     Date            `json:"date"`
}

// Signed returns the quantity with OUT movements negated.
func (m InventoryMovement) Signed() decimal.Decimal {
	if m.Type == MovementOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// Cutoff ("corte") is a checkpoint of an account balance at a date.
type Cutoff struct {
	Origin          `json:"-"`
	Date            Date            `json:"date"`
	AccountID       string          `json:"accountId"`
	BalanceAtCutoff decimal.Decimal `json:"balanceAtCutoff"`
}

// Summary holds KPIs reported by the source dashboard. Nil fields were not reported.
type Summary struct {
	Capital *decimal.Decimal `json:"capital,omitempty"`
	Income  *decimal.Decimal `json:"income,omitempty"`
	Expense *decimal.Decimal `json:"expense,omitempty"`
}
