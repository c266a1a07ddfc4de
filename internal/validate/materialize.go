package validate

import (
	"github.com/JonMunkholm/ledgerimport/internal/ingest"
	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
)

// Materialize builds typed records from drafts, in source order. Missing
// columns leave their fields at the zero value, except derived amounts
// (order total and debt, client pending balance) which are computed when
// the sheet leaves them blank.
func Materialize(drafts []ingest.Draft) *schema.Dataset {
	ds := &schema.Dataset{}
	for _, d := range drafts {
		r := row{d}
		origin := schema.Origin{Sheet: d.Sheet, RowIndex: d.RowIndex}

		switch d.Entity {
		case schema.EntityAccount:
			ds.Accounts = append(ds.Accounts, schema.Account{
				Origin:       origin,
				ID:           r.text(schema.FieldID),
				Name:         r.text(schema.FieldName),
				IncomeTotal:  r.num(schema.FieldIncomeTotal),
				ExpenseTotal: r.num(schema.FieldExpenseTotal),
				Balance:      r.num(schema.FieldBalance),
			})
		case schema.EntityIncome:
			ds.Income = append(ds.Income, r.entry(origin))
		case schema.EntityExpense:
			ds.Expenses = append(ds.Expenses, r.entry(origin))
		case schema.EntitySale:
			ds.Sales = append(ds.Sales, schema.Sale{
				Origin:        origin,
				ID:            r.text(schema.FieldID),
				Date:          r.date(schema.FieldDateName),
				SaleOrderRef:  r.text(schema.FieldSaleOrderRef),
				ClientID:      r.text(schema.FieldClientID),
				Quantity:      r.num(schema.FieldQuantity),
				UnitPrice:     r.num(schema.FieldUnitPrice),
				GrossRevenue:  r.num(schema.FieldGrossRevenue),
				FreightCost:   r.num(schema.FieldFreightCost),
				FreightProfit: r.num(schema.FieldFreightProfit),
				Utility:       r.num(schema.FieldUtility),
				Status:        r.enum(schema.FieldStatus),
			})
		case schema.EntityPurchaseOrder:
			ds.Orders = append(ds.Orders, schema.PurchaseOrder{
				Origin:               origin,
				ID:                   r.text(schema.FieldID),
				DistributorID:        r.text(schema.FieldDistributorID),
				Quantity:             r.num(schema.FieldQuantity),
				UnitCost:             r.num(schema.FieldUnitCost),
				TotalCost:            r.num(schema.FieldTotalCost),
				PaymentToDistributor: r.num(schema.FieldPayment),
				OutstandingDebt:      r.num(schema.FieldOutstandingDebt),
			})
			o := &ds.Orders[len(ds.Orders)-1]
			if r.blank(schema.FieldTotalCost) {
				o.TotalCost = o.Quantity.Mul(o.UnitCost)
			}
			if r.blank(schema.FieldOutstandingDebt) {
				o.OutstandingDebt = o.TotalCost.Sub(o.PaymentToDistributor)
			}
		case schema.EntityClient:
			ds.Clients = append(ds.Clients, schema.Client{
				Origin:         origin,
				ID:             r.text(schema.FieldID),
				Name:           r.text(schema.FieldName),
				Phone:          r.text(schema.FieldPhone),
				Debt:           r.num(schema.FieldDebt),
				PaymentsMade:   r.num(schema.FieldPaymentsMade),
				CreditLimit:    r.num(schema.FieldCreditLimit),
				PendingBalance: r.num(schema.FieldPendingBalance),
			})
			if r.blank(schema.FieldPendingBalance) {
				c := &ds.Clients[len(ds.Clients)-1]
				c.PendingBalance = c.Debt.Sub(c.PaymentsMade)
			}
		case schema.EntityDistributor:
			ds.Distributors = append(ds.Distributors, schema.Distributor{
				Origin: origin,
				ID:     r.text(schema.FieldID),
				Name:   r.text(schema.FieldName),
				Phone:  r.text(schema.FieldPhone),
			})
		case schema.EntityInventoryItem:
			ds.Items = append(ds.Items, schema.InventoryItem{
				Origin:    origin,
				ID:        r.text(schema.FieldID),
				Name:      r.text(schema.FieldName),
				StockQty:  r.num(schema.FieldStockQty),
				UnitCost:  r.num(schema.FieldUnitCost),
				UnitPrice: r.num(schema.FieldUnitPrice),
			})
		case schema.EntityInventoryMovement:
			ds.Movements = append(ds.Movements, schema.InventoryMovement{
				Origin:   origin,
				ID:       r.text(schema.FieldID),
				ItemID:   r.text(schema.FieldItemID),
				Type:     r.enum(schema.FieldMovementType),
				Quantity: r.num(schema.FieldQuantity),
				Date:     r.date(schema.FieldDateName),
			})
		case schema.EntityCutoff:
			ds.Cutoffs = append(ds.Cutoffs, schema.Cutoff{
				Origin:          origin,
				Date:            r.date(schema.FieldDateName),
				AccountID:       r.text(schema.FieldAccountID),
				BalanceAtCutoff: r.num(schema.FieldBalanceAtCutoff),
			})
		case schema.EntitySummary:
			if v := r.optNum(schema.FieldCapital); v != nil {
				ds.Summary.Capital = v
			}
			if v := r.optNum(schema.FieldIncome); v != nil {
				ds.Summary.Income = v
			}
			if v := r.optNum(schema.FieldExpense); v != nil {
				ds.Summary.Expense = v
			}
		}
	}
	return ds
}

type row struct {
	ingest.Draft
}

func (r row) text(field string) string {
	return r.Values[field].Text
}

func (r row) num(field string) decimal.Decimal {
	return r.Values[field].Number
}

// blank reports a missing column or an empty cell.
func (r row) blank(field string) bool {
	v, ok := r.Values[field]
	return !ok || v.Blank()
}

func (r row) optNum(field string) *decimal.Decimal {
	v, ok := r.Values[field]
	if !ok || v.Blank() {
		return nil
	}
	n := v.Number
	return &n
}

func (r row) date(field string) schema.Date {
	return r.Values[field].Date
}

func (r row) enum(field string) string {
	return r.Values[field].Enum
}

func (r row) entry(origin schema.Origin) schema.LedgerEntry {
	return schema.LedgerEntry{
		Origin:    origin,
		ID:        r.text(schema.FieldID),
		AccountID: r.text(schema.FieldAccountID),
		Amount:    r.num(schema.FieldAmount),
		Date:      r.date(schema.FieldDateName),
		Concept:   r.text(schema.FieldConcept),
	}
}
