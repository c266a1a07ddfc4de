// Package schema is the canonical catalogue of ledger entities: their Go
// types, the spreadsheet columns each field accepts, the references between
// entities, and the names of the numeric invariants checked at import time.
//
// The package has no behaviour beyond small helpers on its own types and
// never returns errors.
package schema

// EntityType identifies a ledger entity. The value doubles as the name of the
// persisted collection that holds documents of that type.
type EntityType string

const (
	EntityAccount           EntityType = "accounts"
	EntityIncome            EntityType = "income_entries"
	EntityExpense           EntityType = "expense_entries"
	EntitySale              EntityType = "sales"
	EntityPurchaseOrder     EntityType = "purchase_orders"
	EntityClient            EntityType = "clients"
	EntityDistributor       EntityType = "distributors"
	EntityInventoryItem     EntityType = "inventory_items"
	EntityInventoryMovement EntityType = "inventory_movements"
	EntityCutoff            EntityType = "cutoffs"

	// EntitySummary is the reported KPI sheet. It is read and reconciled but
	// never persisted.
	EntitySummary EntityType = "summary"
)

// PersistedEntities lists every entity type that owns a store collection,
// in dependency order (referenced types first).
func PersistedEntities() []EntityType {
	return []EntityType{
		EntityAccount,
		EntityClient,
		EntityDistributor,
		EntityInventoryItem,
		EntityPurchaseOrder,
		EntityIncome,
		EntityExpense,
		EntitySale,
		EntityInventoryMovement,
		EntityCutoff,
	}
}

// Collections returns the store collection names for all persisted entities.
func Collections() []string {
	entities := PersistedEntities()
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = string(e)
	}
	return names
}

// FieldType is the primitive type a field expects after coercion.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
)

// String returns the name used in diagnostics.
func (ft FieldType) String() string {
	switch ft {
	case FieldText:
		return "text"
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	default:
		return "value"
	}
}

// FieldSpec declares one entity field and the spreadsheet headers that map to it.
type FieldSpec struct {
	Name     string    // Canonical field name: "account_id"
	Headers  []string  // Accepted header spellings, most specific first
	Type     FieldType // Expected type after coercion
	Required bool      // Value must be present and non-empty

	// EnumAliases maps accepted spellings (upper case, accent-free) to the
	// canonical enum value. Only used for FieldEnum.
	EnumAliases map[string]string
}

// EntitySpec groups everything the ingestion layer needs for one entity.
type EntitySpec struct {
	Entity     EntityType
	Label      string   // Display name: "Accounts"
	SheetNames []string // Accepted sheet names
	Fields     []FieldSpec
	SingleRow  bool // Only the first data row is meaningful (summary sheets)
}

// Field returns the spec of the named field.
func (s EntitySpec) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Reference declares a foreign-key shaped field.
type Reference struct {
	From     EntityType
	Field    string
	To       EntityType
	Optional bool // Dangling optional references only warn
}

// References is the full set of cross-entity links checked by the referential layer.
var References = []Reference{
	{From: EntityIncome, Field: FieldAccountID, To: EntityAccount},
	{From: EntityExpense, Field: FieldAccountID, To: EntityAccount},
	{From: EntitySale, Field: FieldSaleOrderRef, To: EntityPurchaseOrder, Optional: true},
	{From: EntitySale, Field: FieldClientID, To: EntityClient},
	{From: EntityPurchaseOrder, Field: FieldDistributorID, To: EntityDistributor},
	{From: EntityInventoryMovement, Field: FieldItemID, To: EntityInventoryItem},
	{From: EntityCutoff, Field: FieldAccountID, To: EntityAccount},
}

// ReferencesFrom returns the references declared on an entity.
func ReferencesFrom(entity EntityType) []Reference {
	var refs []Reference
	for _, r := range References {
		if r.From == entity {
			refs = append(refs, r)
		}
	}
	return refs
}

// Sale statuses.
const (
	StatusPaid    = "Paid"
	StatusPending = "Pending"
)

// Inventory movement directions.
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)
