package ingest

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// WriteWorkbook renders a dataset as an xlsx workbook that Ingest reads
// back into the same records: one sheet per entity, named and headed with
// the first accepted spelling of each.
func WriteWorkbook(w io.Writer, ds *schema.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	first := true
	for _, spec := range schema.Specs() {
		rows := recordRows(ds, spec)
		if rows == nil {
			continue
		}

		name := spec.SheetNames[0]
		idx, err := f.NewSheet(name)
		if err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		if first {
			f.SetActiveSheet(idx)
			first = false
		}

		header := make([]any, len(spec.Fields))
		for i, field := range spec.Fields {
			header[i] = field.Headers[0]
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("export %s header: %w", name, err)
		}

		for i, rec := range rows {
			cells := make([]any, len(spec.Fields))
			for j, field := range spec.Fields {
				cells[j] = rec[field.Name]
			}
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &cells); err != nil {
				return fmt.Errorf("export %s row %d: %w", name, i+2, err)
			}
		}
	}
	if !first {
		f.DeleteSheet(defaultSheet)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}
	return nil
}

type record map[string]any

// recordRows returns the dataset's records for an entity as field -> cell
// maps, or nil when the entity has nothing to export.
func recordRows(ds *schema.Dataset, spec schema.EntitySpec) []record {
	var out []record
	switch spec.Entity {
	case schema.EntityAccount:
		for _, a := range ds.Accounts {
			out = append(out, record{
				schema.FieldID:           a.ID,
				schema.FieldName:         a.Name,
				schema.FieldIncomeTotal:  num(a.IncomeTotal),
				schema.FieldExpenseTotal: num(a.ExpenseTotal),
				schema.FieldBalance:      num(a.Balance),
			})
		}
	case schema.EntityIncome:
		out = entryRows(ds.Income)
	case schema.EntityExpense:
		out = entryRows(ds.Expenses)
	case schema.EntitySale:
		for _, s := range ds.Sales {
			out = append(out, record{
				schema.FieldID:            s.ID,
				schema.FieldDateName:      dateCell(s.Date),
				schema.FieldSaleOrderRef:  s.SaleOrderRef,
				schema.FieldClientID:      s.ClientID,
				schema.FieldQuantity:      num(s.Quantity),
				schema.FieldUnitPrice:     num(s.UnitPrice),
				schema.FieldGrossRevenue:  num(s.GrossRevenue),
				schema.FieldFreightCost:   num(s.FreightCost),
				schema.FieldFreightProfit: num(s.FreightProfit),
				schema.FieldUtility:       num(s.Utility),
				schema.FieldStatus:        s.Status,
			})
		}
	case schema.EntityPurchaseOrder:
		for _, o := range ds.Orders {
			out = append(out, record{
				schema.FieldID:              o.ID,
				schema.FieldDistributorID:   o.DistributorID,
				schema.FieldQuantity:        num(o.Quantity),
				schema.FieldUnitCost:        num(o.UnitCost),
				schema.FieldTotalCost:       num(o.TotalCost),
				schema.FieldPayment:         num(o.PaymentToDistributor),
				schema.FieldOutstandingDebt: num(o.OutstandingDebt),
			})
		}
	case schema.EntityClient:
		for _, c := range ds.Clients {
			out = append(out, record{
				schema.FieldID:             c.ID,
				schema.FieldName:           c.Name,
				schema.FieldPhone:          c.Phone,
				schema.FieldDebt:           num(c.Debt),
				schema.FieldPaymentsMade:   num(c.PaymentsMade),
				schema.FieldCreditLimit:    num(c.CreditLimit),
				schema.FieldPendingBalance: num(c.PendingBalance),
			})
		}
	case schema.EntityDistributor:
		for _, d := range ds.Distributors {
			out = append(out, record{
				schema.FieldID:    d.ID,
				schema.FieldName:  d.Name,
				schema.FieldPhone: d.Phone,
			})
		}
	case schema.EntityInventoryItem:
		for _, it := range ds.Items {
			out = append(out, record{
				schema.FieldID:        it.ID,
				schema.FieldName:      it.Name,
				schema.FieldStockQty:  num(it.StockQty),
				schema.FieldUnitCost:  num(it.UnitCost),
				schema.FieldUnitPrice: num(it.UnitPrice),
			})
		}
	case schema.EntityInventoryMovement:
		for _, m := range ds.Movements {
			out = append(out, record{
				schema.FieldID:           m.ID,
				schema.FieldItemID:       m.ItemID,
				schema.FieldMovementType: m.Type,
				schema.FieldQuantity:     num(m.Quantity),
				schema.FieldDateName:     dateCell(m.Date),
			})
		}
	case schema.EntityCutoff:
		for _, c := range ds.Cutoffs {
			out = append(out, record{
				schema.FieldDateName:        dateCell(c.Date),
				schema.FieldAccountID:       c.AccountID,
				schema.FieldBalanceAtCutoff: num(c.BalanceAtCutoff),
			})
		}
	case schema.EntitySummary:
		s := ds.Summary
		if s.Capital == nil && s.Income == nil && s.Expense == nil {
			return nil
		}
		out = append(out, record{
			schema.FieldCapital: optNum(s.Capital),
			schema.FieldIncome:  optNum(s.Income),
			schema.FieldExpense: optNum(s.Expense),
		})
	}
	return out
}

func entryRows(entries []schema.LedgerEntry) []record {
	var out []record
	for _, e := range entries {
		out = append(out, record{
			schema.FieldID:        e.ID,
			schema.FieldAccountID: e.AccountID,
			schema.FieldAmount:    num(e.Amount),
			schema.FieldDateName:  dateCell(e.Date),
			schema.FieldConcept:   e.Concept,
		})
	}
	return out
}

func num(d decimal.Decimal) any {
	return d.InexactFloat64()
}

func optNum(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.InexactFloat64()
}

func dateCell(d schema.Date) any {
	switch {
	case d.Valid():
		return d.Time
	case d.Unparseable:
		return d.Raw
	default:
		return nil
	}
}
