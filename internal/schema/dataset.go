package schema

// Dataset is the typed output of one import run.
type Dataset struct {
	Accounts     []Account
	Income       []LedgerEntry
	Expenses     []LedgerEntry
	Sales        []Sale
	Orders       []PurchaseOrder
	Clients      []Client
	Distributors []Distributor
	Items        []InventoryItem
	Movements    []InventoryMovement
	Cutoffs      []Cutoff
	Summary      Summary
}

// Count returns the number of records held for an entity type.
func (d *Dataset) Count(entity EntityType) int {
	switch entity {
	case EntityAccount:
		return len(d.Accounts)
	case EntityIncome:
		return len(d.Income)
	case EntityExpense:
		return len(d.Expenses)
	case EntitySale:
		return len(d.Sales)
	case EntityPurchaseOrder:
		return len(d.Orders)
	case EntityClient:
		return len(d.Clients)
	case EntityDistributor:
		return len(d.Distributors)
	case EntityInventoryItem:
		return len(d.Items)
	case EntityInventoryMovement:
		return len(d.Movements)
	case EntityCutoff:
		return len(d.Cutoffs)
	default:
		return 0
	}
}

// Total returns the number of persisted records across all entity types.
func (d *Dataset) Total() int {
	n := 0
	for _, e := range PersistedEntities() {
		n += d.Count(e)
	}
	return n
}
