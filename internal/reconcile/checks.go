package reconcile

import (
	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
)

func sumBy[T any](items []T, key func(T) string, amount func(T) decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, it := range items {
		k := key(it)
		out[k] = out[k].Add(amount(it))
	}
	return out
}

func entryAccount(e schema.LedgerEntry) string { return e.AccountID }
func entryAmount(e schema.LedgerEntry) decimal.Decimal { return e.Amount }

// accounts checks balance = income - expense and, when the ledger sheets are
// present, that each account total matches the sum of its entries.
func (c *checker) accounts() {
	income := sumBy(c.ds.Income, entryAccount, entryAmount)
	expense := sumBy(c.ds.Expenses, entryAccount, entryAmount)

	for _, a := range c.ds.Accounts {
		c.compare(schema.InvAccountBalance, schema.EntityAccount, a.Origin, a.ID,
			a.Balance, a.IncomeTotal.Sub(a.ExpenseTotal),
			"account %s balance %s does not equal income %s minus expense %s",
			a.ID, a.Balance, a.IncomeTotal, a.ExpenseTotal)

		if len(c.ds.Income) > 0 {
			c.compare(schema.InvAccountIncome, schema.EntityAccount, a.Origin, a.ID,
				a.IncomeTotal, income[a.ID],
				"account %s income total %s does not match its income entries", a.ID, a.IncomeTotal)
		}
		if len(c.ds.Expenses) > 0 {
			c.compare(schema.InvAccountExpense, schema.EntityAccount, a.Origin, a.ID,
				a.ExpenseTotal, expense[a.ID],
				"account %s expense total %s does not match its expense entries", a.ID, a.ExpenseTotal)
		}
	}
}

// sales checks gross revenue = quantity x unit price and, when the sale's
// purchase order resolves, utility = gross revenue - cost basis - freight.
// Revenue with neither quantity nor unit price is reported as unverifiable.
func (c *checker) sales() {
	orders := make(map[string]schema.PurchaseOrder, len(c.ds.Orders))
	for _, o := range c.ds.Orders {
		orders[o.ID] = o
	}

	for _, s := range c.ds.Sales {
		switch {
		case !s.Quantity.IsZero() || !s.UnitPrice.IsZero():
			c.compare(schema.InvSaleRevenue, schema.EntitySale, s.Origin, s.ID,
				s.GrossRevenue, s.Quantity.Mul(s.UnitPrice),
				"sale %s gross revenue %s does not equal %s x %s", s.ID, s.GrossRevenue, s.Quantity, s.UnitPrice)
		case !s.GrossRevenue.IsZero():
			revenue := s.GrossRevenue
			c.notice(schema.InvSaleUnverifiable, schema.EntitySale, s.Origin, s.ID,
				"sale "+s.ID+" gross revenue cannot be verified without quantity and unit price", &revenue)
		}

		po, ok := orders[s.SaleOrderRef]
		if s.SaleOrderRef == "" || !ok {
			c.notice(schema.InvSaleUnverifiable, schema.EntitySale, s.Origin, s.ID,
				"sale utility cannot be verified without a purchase order cost basis", nil)
			continue
		}
		costBasis := s.Quantity.Mul(po.UnitCost)
		c.compare(schema.InvSaleUtility, schema.EntitySale, s.Origin, s.ID,
			s.Utility, s.GrossRevenue.Sub(costBasis).Sub(s.FreightCost),
			"sale %s utility %s does not equal revenue %s - cost %s - freight %s",
			s.ID, s.Utility, s.GrossRevenue, costBasis, s.FreightCost)
	}
}

func (c *checker) orders() {
	for _, o := range c.ds.Orders {
		c.compare(schema.InvOrderTotal, schema.EntityPurchaseOrder, o.Origin, o.ID,
			o.TotalCost, o.Quantity.Mul(o.UnitCost),
			"order %s total %s does not equal %s x %s", o.ID, o.TotalCost, o.Quantity, o.UnitCost)
		c.compare(schema.InvOrderDebt, schema.EntityPurchaseOrder, o.Origin, o.ID,
			o.OutstandingDebt, o.TotalCost.Sub(o.PaymentToDistributor),
			"order %s outstanding debt %s does not equal total %s - payment %s",
			o.ID, o.OutstandingDebt, o.TotalCost, o.PaymentToDistributor)
	}
}

// clients checks pending = debt - payments and flags clients whose
// payments exceed their debt, whatever pending balance the sheet declares.
func (c *checker) clients() {
	for _, cl := range c.ds.Clients {
		c.compare(schema.InvClientPending, schema.EntityClient, cl.Origin, cl.ID,
			cl.PendingBalance, cl.Debt.Sub(cl.PaymentsMade),
			"client %s pending balance %s does not equal debt %s - payments %s",
			cl.ID, cl.PendingBalance, cl.Debt, cl.PaymentsMade)

		if owed := cl.Debt.Sub(cl.PaymentsMade); owed.IsNegative() {
			c.notice(schema.InvClientOverpayment, schema.EntityClient, cl.Origin, cl.ID,
				"client "+cl.ID+" has paid "+owed.Neg().String()+" more than owed", &owed)
		}
	}
}

// items flags non-positive margins and, for items with movements, stock
// that does not match the net movement quantity.
func (c *checker) items() {
	moved := sumBy(c.ds.Movements,
		func(m schema.InventoryMovement) string { return m.ItemID },
		schema.InventoryMovement.Signed)

	for _, it := range c.ds.Items {
		if !(it.UnitCost.IsZero() && it.UnitPrice.IsZero()) && it.UnitPrice.LessThanOrEqual(it.UnitCost) {
			margin := it.UnitPrice.Sub(it.UnitCost)
			c.notice(schema.InvItemMargin, schema.EntityInventoryItem, it.Origin, it.ID,
				"item "+it.ID+" sells at "+it.UnitPrice.String()+" but costs "+it.UnitCost.String(), &margin)
		}
		if net, ok := moved[it.ID]; ok {
			c.compare(schema.InvItemStock, schema.EntityInventoryItem, it.Origin, it.ID,
				it.StockQty, net,
				"item %s stock %s does not match net movements %s", it.ID, it.StockQty, net)
		}
	}
}

// cutoffs compares each checkpoint with the account history up to its date.
// Entries with unparseable dates cannot be placed in time and are left out.
func (c *checker) cutoffs() {
	if len(c.ds.Income) == 0 && len(c.ds.Expenses) == 0 {
		return
	}
	for _, cut := range c.ds.Cutoffs {
		if !cut.Date.Valid() {
			continue
		}
		history := decimal.Zero
		seen := false
		for _, e := range c.ds.Income {
			if e.AccountID == cut.AccountID && e.Date.Valid() && !e.Date.Time.After(cut.Date.Time) {
				history = history.Add(e.Amount)
				seen = true
			}
		}
		for _, e := range c.ds.Expenses {
			if e.AccountID == cut.AccountID && e.Date.Valid() && !e.Date.Time.After(cut.Date.Time) {
				history = history.Sub(e.Amount)
				seen = true
			}
		}
		if !seen {
			continue
		}
		c.compare(schema.InvCutoffHistory, schema.EntityCutoff, cut.Origin, cut.AccountID+"@"+cut.Date.String(),
			cut.BalanceAtCutoff, history,
			"cutoff %s for account %s declares %s but the ledger history gives %s",
			cut.Date, cut.AccountID, cut.BalanceAtCutoff, history)
	}
}
