package schema

// Canonical field names shared across entities.
const (
	FieldID              = "id"
	FieldName            = "name"
	FieldPhone           = "phone"
	FieldAccountID       = "account_id"
	FieldAmount          = "amount"
	FieldDateName        = "date"
	FieldConcept         = "concept"
	FieldIncomeTotal     = "income_total"
	FieldExpenseTotal    = "expense_total"
	FieldBalance         = "balance"
	FieldSaleOrderRef    = "sale_order_ref"
	FieldClientID        = "client_id"
	FieldQuantity        = "quantity"
	FieldUnitPrice       = "unit_price"
	FieldGrossRevenue    = "gross_revenue"
	FieldFreightCost     = "freight_cost"
	FieldFreightProfit   = "freight_profit"
	FieldUtility         = "utility"
	FieldStatus          = "status"
	FieldDistributorID   = "distributor_id"
	FieldUnitCost        = "unit_cost"
	FieldTotalCost       = "total_cost"
	FieldPayment         = "payment_to_distributor"
	FieldOutstandingDebt = "outstanding_debt"
	FieldDebt            = "debt"
	FieldPaymentsMade    = "payments_made"
	FieldCreditLimit     = "credit_limit"
	FieldPendingBalance  = "pending_balance"
	FieldStockQty        = "stock_qty"
	FieldItemID          = "item_id"
	FieldMovementType    = "type"
	FieldBalanceAtCutoff = "balance_at_cutoff"
	FieldCapital         = "capital"
	FieldIncome          = "income"
	FieldExpense         = "expense"
)

var phoneHeaders = []string{"TELEFONO", "TEL", "CELULAR", "WHATSAPP", "PHONE"}

var entryFields = []FieldSpec{
	{Name: FieldID, Headers: []string{"ID", "FOLIO"}, Type: FieldText},
	{Name: FieldAccountID, Headers: []string{"ID BOVEDA", "BOVEDA", "BANCO", "CUENTA", "ACCOUNT ID", "ACCOUNT"}, Type: FieldText, Required: true},
	{Name: FieldAmount, Headers: []string{"MONTO", "IMPORTE", "CANTIDAD", "AMOUNT"}, Type: FieldNumeric},
	{Name: FieldDateName, Headers: []string{"FECHA", "DATE"}, Type: FieldDate},
	{Name: FieldConcept, Headers: []string{"CONCEPTO", "DESCRIPCION", "DETALLE", "CONCEPT", "DESCRIPTION"}, Type: FieldText},
}

// AccountSpec describes the vault sheet.
var AccountSpec = EntitySpec{
	Entity:     EntityAccount,
	Label:      "Accounts",
	SheetNames: []string{"BOVEDAS", "BANCOS", "CUENTAS", "ACCOUNTS", "VAULTS"},
	Fields: []FieldSpec{
		{Name: FieldID, Headers: []string{"ID", "ID BOVEDA", "CODIGO", "ACCOUNT ID"}, Type: FieldText, Required: true},
		{Name: FieldName, Headers: []string{"NOMBRE", "BOVEDA", "BANCO", "NAME"}, Type: FieldText},
		{Name: FieldIncomeTotal, Headers: []string{"INGRESOS", "TOTAL INGRESOS", "INGRESOS HISTORICOS", "INCOME TOTAL", "INCOME"}, Type: FieldNumeric},
		{Name: FieldExpenseTotal, Headers: []string{"GASTOS", "EGRESOS", "TOTAL GASTOS", "EXPENSE TOTAL", "EXPENSES"}, Type: FieldNumeric},
		{Name: FieldBalance, Headers: []string{"SALDO", "SALDO ACTUAL", "CAPITAL", "BALANCE"}, Type: FieldNumeric},
	},
}

// IncomeSpec describes the income ledger sheet.
var IncomeSpec = EntitySpec{
	Entity:     EntityIncome,
	Label:      "Income entries",
	SheetNames: []string{"INGRESOS", "ENTRADAS", "INCOME"},
	Fields:     entryFields,
}

// ExpenseSpec describes the expense ledger sheet.
var ExpenseSpec = EntitySpec{
	Entity:     EntityExpense,
	Label:      "Expense entries",
	SheetNames: []string{"GASTOS", "EGRESOS", "SALIDAS", "EXPENSES"},
	Fields:     entryFields,
}

// SaleSpec describes the sales sheet.
var SaleSpec = EntitySpec{
	Entity:     EntitySale,
	Label:      "Sales",
	SheetNames: []string{"VENTAS", "SALES"},
	Fields: []FieldSpec{
		{Name: FieldID, Headers: []string{"ID", "ID VENTA", "FOLIO"}, Type: FieldText},
		{Name: FieldDateName, Headers: []string{"FECHA", "DATE"}, Type: FieldDate},
		{Name: FieldSaleOrderRef, Headers: []string{"OC", "OC RELACIONADA", "ORDEN DE COMPRA", "PURCHASE ORDER"}, Type: FieldText},
		{Name: FieldClientID, Headers: []string{"ID CLIENTE", "CLIENTE", "CLIENT ID", "CLIENT"}, Type: FieldText, Required: true},
		{Name: FieldQuantity, Headers: []string{"CANTIDAD", "QTY", "QUANTITY"}, Type: FieldNumeric},
		{Name: FieldUnitPrice, Headers: []string{"PRECIO VENTA", "PRECIO UNITARIO", "PRECIO", "UNIT PRICE"}, Type: FieldNumeric},
		{Name: FieldGrossRevenue, Headers: []string{"INGRESO BRUTO", "TOTAL VENTA", "TOTAL", "GROSS REVENUE"}, Type: FieldNumeric},
		{Name: FieldFreightCost, Headers: []string{"FLETE", "COSTO FLETE", "FREIGHT COST", "FREIGHT"}, Type: FieldNumeric},
		{Name: FieldFreightProfit, Headers: []string{"UTILIDAD FLETE", "GANANCIA FLETE", "FREIGHT PROFIT"}, Type: FieldNumeric},
		{Name: FieldUtility, Headers: []string{"UTILIDAD", "GANANCIA", "UTILITY", "PROFIT"}, Type: FieldNumeric},
		{Name: FieldStatus, Headers: []string{"ESTADO", "ESTATUS", "STATUS"}, Type: FieldEnum, EnumAliases: map[string]string{
			"PAID": StatusPaid, "PAGADO": StatusPaid, "PAGADA": StatusPaid, "LIQUIDADO": StatusPaid,
			"PENDING": StatusPending, "PENDIENTE": StatusPending, "POR COBRAR": StatusPending,
		}},
	},
}

// PurchaseOrderSpec describes the purchase order ("OC") sheet.
var PurchaseOrderSpec = EntitySpec{
	Entity:     EntityPurchaseOrder,
	Label:      "Purchase orders",
	SheetNames: []string{"ORDENES DE COMPRA", "ORDENES", "OC", "COMPRAS", "PURCHASE ORDERS"},
	Fields: []FieldSpec{
		{Name: FieldID, Headers: []string{"OC", "ID", "NUMERO OC", "ORDEN", "PURCHASE ORDER"}, Type: FieldText, Required: true},
		{Name: FieldDistributorID, Headers: []string{"ID DISTRIBUIDOR", "DISTRIBUIDOR", "PROVEEDOR", "DISTRIBUTOR ID", "DISTRIBUTOR"}, Type: FieldText, Required: true},
		{Name: FieldQuantity, Headers: []string{"CANTIDAD", "QTY", "QUANTITY"}, Type: FieldNumeric},
		{Name: FieldUnitCost, Headers: []string{"COSTO UNITARIO", "COSTO", "PRECIO COMPRA", "UNIT COST"}, Type: FieldNumeric},
		{Name: FieldTotalCost, Headers: []string{"COSTO TOTAL", "TOTAL", "TOTAL COST"}, Type: FieldNumeric},
		{Name: FieldPayment, Headers: []string{"PAGO DISTRIBUIDOR", "PAGO", "PAGADO", "PAYMENT"}, Type: FieldNumeric},
		{Name: FieldOutstandingDebt, Headers: []string{"DEUDA", "ADEUDO", "SALDO PENDIENTE", "OUTSTANDING DEBT"}, Type: FieldNumeric},
	},
}

// ClientSpec describes the client debt sheet.
var ClientSpec = EntitySpec{
	Entity:     EntityClient,
	Label:      "Clients",
	SheetNames: []string{"CLIENTES", "CLIENTS", "CUSTOMERS"},
	Fields: []FieldSpec{
		{Name: FieldID, Headers: []string{"ID", "ID CLIENTE", "CODIGO", "CLIENT ID"}, Type: FieldText, Required: true},
		{Name: FieldName, Headers: []string{"NOMBRE", "CLIENTE", "NAME"}, Type: FieldText},
		{Name: FieldPhone, Headers: phoneHeaders, Type: FieldText},
		{Name: FieldDebt, Headers: []string{"DEUDA", "ADEUDO", "DEBT"}, Type: FieldNumeric},
		{Name: FieldPaymentsMade, Headers: []string{"PAGOS", "ABONOS", "PAGOS REALIZADOS", "PAYMENTS"}, Type: FieldNumeric},
		{Name: FieldCreditLimit, Headers: []string{"LIMITE CREDITO", "LIMITE DE CREDITO", "CREDIT LIMIT"}, Type: FieldNumeric},
		{Name: FieldPendingBalance, Headers: []string{"SALDO PENDIENTE", "PENDIENTE", "SALDO", "PENDING BALANCE"}, Type: FieldNumeric},
	},
}

// DistributorSpec describes the distributor sheet.
var DistributorSpec = EntitySpec{
	Entity:     EntityDistributor,
	Label:      "Distributors",
	SheetNames: []string{"DISTRIBUIDORES", "PROVEEDORES", "DISTRIBUTORS", "SUPPLIERS"},
	Fields: []FieldSpec{
		{Name: FieldID, Headers: []string{"ID", "ID DISTRIBUIDOR", "CODIGO", "DISTRIBUTOR ID"}, Type: FieldText, Required: true},
		{Name: FieldName, Headers: []string{"NOMBRE", "DISTRIBUIDOR", "PROVEEDOR", "NAME"}, Type: FieldText},
		{Name: FieldPhone, Headers: phoneHeaders, Type: FieldText},
	},
}

// InventoryItemSpec describes the inventory sheet.
var InventoryItemSpec = EntitySpec{
	Entity:     EntityInventoryItem,
	Label:      "Inventory",
	SheetNames: []string{"INVENTARIO", "ALMACEN", "PRODUCTOS", "INVENTORY"},
	Fields: []FieldSpec{
		{Name: FieldID, Headers: []string{"ID", "SKU", "CODIGO", "ID PRODUCTO"}, Type: FieldText, Required: true},
		{Name: FieldName, Headers: []string{"PRODUCTO", "NOMBRE", "DESCRIPCION", "NAME"}, Type: FieldText},
		{Name: FieldStockQty, Headers: []string{"STOCK", "EXISTENCIA", "EXISTENCIAS", "CANTIDAD", "STOCK QTY"}, Type: FieldNumeric},
		{Name: FieldUnitCost, Headers: []string{"COSTO UNITARIO", "COSTO", "UNIT COST"}, Type: FieldNumeric},
		{Name: FieldUnitPrice, Headers: []string{"PRECIO VENTA", "PRECIO", "UNIT PRICE"}, Type: FieldNumeric},
	},
}

// InventoryMovementSpec describes the stock movement sheet.
var InventoryMovementSpec = EntitySpec{
	Entity:     EntityInventoryMovement,
	Label:      "Inventory movements",
	SheetNames: []string{"MOVIMIENTOS", "MOVIMIENTOS INVENTARIO", "KARDEX", "INVENTORY MOVEMENTS"},
	Fields: []FieldSpec{
		{Name: FieldID, Headers: []string{"ID", "FOLIO"}, Type: FieldText},
		{Name: FieldItemID, Headers: []string{"ID PRODUCTO", "PRODUCTO", "SKU", "ITEM ID", "ITEM"}, Type: FieldText, Required: true},
		{Name: FieldMovementType, Headers: []string{"TIPO", "MOVIMIENTO", "TYPE"}, Type: FieldEnum, Required: true, EnumAliases: map[string]string{
			"IN": MovementIn, "ENTRADA": MovementIn, "E": MovementIn,
			"OUT": MovementOut, "SALIDA": MovementOut, "S": MovementOut,
		}},
		{Name: FieldQuantity, Headers: []string{"CANTIDAD", "QTY", "QUANTITY"}, Type: FieldNumeric},
		{Name: FieldDateName, Headers: []string{"FECHA", "DATE"}, Type: FieldDate},
	},
}

// CutoffSpec describes the ledger checkpoint ("corte") sheet.
var CutoffSpec = EntitySpec{
	Entity:     EntityCutoff,
	Label:      "Cutoffs",
	SheetNames: []string{"CORTES", "CORTE", "CORTES DE CAJA", "CUTOFFS"},
	Fields: []FieldSpec{
		{Name: FieldDateName, Headers: []string{"FECHA", "FECHA CORTE", "DATE"}, Type: FieldDate, Required: true},
		{Name: FieldAccountID, Headers: []string{"ID BOVEDA", "BOVEDA", "CUENTA", "ACCOUNT ID", "ACCOUNT"}, Type: FieldText, Required: true},
		{Name: FieldBalanceAtCutoff, Headers: []string{"SALDO CORTE", "SALDO", "BALANCE"}, Type: FieldNumeric},
	},
}

// SummarySpec describes the reported KPI sheet.
var SummarySpec = EntitySpec{
	Entity:     EntitySummary,
	Label:      "Summary",
	SheetNames: []string{"RESUMEN", "KPI", "KPIS", "DASHBOARD", "SUMMARY"},
	SingleRow:  true,
	Fields: []FieldSpec{
		{Name: FieldCapital, Headers: []string{"CAPITAL", "CAPITAL TOTAL", "TOTAL CAPITAL"}, Type: FieldNumeric},
		{Name: FieldIncome, Headers: []string{"INGRESOS", "TOTAL INGRESOS", "INCOME"}, Type: FieldNumeric},
		{Name: FieldExpense, Headers: []string{"GASTOS", "TOTAL GASTOS", "EXPENSES"}, Type: FieldNumeric},
	},
}

// Specs returns every entity spec known to the importer.
func Specs() []EntitySpec {
	return []EntitySpec{
		AccountSpec,
		IncomeSpec,
		ExpenseSpec,
		SaleSpec,
		PurchaseOrderSpec,
		ClientSpec,
		DistributorSpec,
		InventoryItemSpec,
		InventoryMovementSpec,
		CutoffSpec,
		SummarySpec,
	}
}

// SpecFor returns the spec of an entity type.
func SpecFor(entity EntityType) (EntitySpec, bool) {
	for _, s := range Specs() {
		if s.Entity == entity {
			return s, true
		}
	}
	return EntitySpec{}, false
}
