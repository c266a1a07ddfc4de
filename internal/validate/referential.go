package validate

import (
	"fmt"

	"github.com/JonMunkholm/ledgerimport/internal/ingest"
	"github.com/JonMunkholm/ledgerimport/internal/report"
	"github.com/JonMunkholm/ledgerimport/internal/schema"
)

// ReferentialError is a foreign key naming no record of the same run.
type ReferentialError struct {
	Entity   schema.EntityType
	Sheet    string
	RowIndex int
	RecordID string
	Field    string
	Value    string
	Target   schema.EntityType
	Optional bool
}

func (e ReferentialError) Error() string {
	return fmt.Sprintf("dangling reference: %s.%s %q matches no %s in this import",
		e.Entity, e.Field, e.Value, e.Target)
}

// Finding converts the error for the aggregator. Optional references become
// warnings; mandatory ones exclude the record.
func (e ReferentialError) Finding() report.Finding {
	typ := report.TypeDanglingMandatory
	msg := e.Error() + "; record excluded"
	if e.Optional {
		typ = report.TypeDanglingOptional
		msg = e.Error() + "; record kept"
	}
	return report.Finding{
		Class:    report.ClassReferential,
		Type:     typ,
		Entity:   e.Entity,
		Sheet:    e.Sheet,
		RowIndex: e.RowIndex,
		RecordID: e.RecordID,
		Field:    e.Field,
		Value:    e.Value,
		Message:  msg,
		Optional: e.Optional,
	}
}

// Referential resolves every reference of ds against records of the same
// run and returns the dataset with mandatory-dangling records removed.
//
// Duplicate declared ids keep the last occurrence. A reference that does not
// match an id but matches exactly one target name is rewritten to that id
// and recorded as a transformation.
func Referential(ds *schema.Dataset) (*schema.Dataset, []report.Finding) {
	out := *ds
	r := &resolver{
		ids:   make(map[schema.EntityType]map[string]bool),
		names: make(map[schema.EntityType]map[string]string),
	}

	out.Accounts = dedupe(r, schema.EntityAccount, out.Accounts, func(a schema.Account) (string, schema.Origin) { return a.ID, a.Origin })
	out.Clients = dedupe(r, schema.EntityClient, out.Clients, func(c schema.Client) (string, schema.Origin) { return c.ID, c.Origin })
	out.Distributors = dedupe(r, schema.EntityDistributor, out.Distributors, func(d schema.Distributor) (string, schema.Origin) { return d.ID, d.Origin })
	out.Items = dedupe(r, schema.EntityInventoryItem, out.Items, func(i schema.InventoryItem) (string, schema.Origin) { return i.ID, i.Origin })
	out.Orders = dedupe(r, schema.EntityPurchaseOrder, out.Orders, func(o schema.PurchaseOrder) (string, schema.Origin) { return o.ID, o.Origin })
	out.Income = dedupe(r, schema.EntityIncome, out.Income, func(e schema.LedgerEntry) (string, schema.Origin) { return e.ID, e.Origin })
	out.Expenses = dedupe(r, schema.EntityExpense, out.Expenses, func(e schema.LedgerEntry) (string, schema.Origin) { return e.ID, e.Origin })
	out.Sales = dedupe(r, schema.EntitySale, out.Sales, func(s schema.Sale) (string, schema.Origin) { return s.ID, s.Origin })
	out.Movements = dedupe(r, schema.EntityInventoryMovement, out.Movements, func(m schema.InventoryMovement) (string, schema.Origin) { return m.ID, m.Origin })

	for _, a := range out.Accounts {
		r.add(schema.EntityAccount, a.ID, a.Name)
	}
	for _, c := range out.Clients {
		r.add(schema.EntityClient, c.ID, c.Name)
	}
	for _, d := range out.Distributors {
		r.add(schema.EntityDistributor, d.ID, d.Name)
	}
	for _, i := range out.Items {
		r.add(schema.EntityInventoryItem, i.ID, i.Name)
	}

	// Orders first: an excluded order must not satisfy a sale's reference.
	out.Orders = filter(out.Orders, func(o *schema.PurchaseOrder) bool {
		return r.check(schema.EntityPurchaseOrder, schema.FieldDistributorID, &o.DistributorID, o.Origin, o.ID)
	})
	for _, o := range out.Orders {
		r.add(schema.EntityPurchaseOrder, o.ID, "")
	}

	out.Income = filter(out.Income, func(e *schema.LedgerEntry) bool {
		return r.check(schema.EntityIncome, schema.FieldAccountID, &e.AccountID, e.Origin, e.ID)
	})
	out.Expenses = filter(out.Expenses, func(e *schema.LedgerEntry) bool {
		return r.check(schema.EntityExpense, schema.FieldAccountID, &e.AccountID, e.Origin, e.ID)
	})
	out.Sales = filter(out.Sales, func(s *schema.Sale) bool {
		keep := r.check(schema.EntitySale, schema.FieldClientID, &s.ClientID, s.Origin, s.ID)
		r.check(schema.EntitySale, schema.FieldSaleOrderRef, &s.SaleOrderRef, s.Origin, s.ID)
		return keep
	})
	out.Movements = filter(out.Movements, func(m *schema.InventoryMovement) bool {
		return r.check(schema.EntityInventoryMovement, schema.FieldItemID, &m.ItemID, m.Origin, m.ID)
	})
	out.Cutoffs = filter(out.Cutoffs, func(c *schema.Cutoff) bool {
		return r.check(schema.EntityCutoff, schema.FieldAccountID, &c.AccountID, c.Origin, "")
	})

	return &out, r.findings
}

type resolver struct {
	ids      map[schema.EntityType]map[string]bool
	names    map[schema.EntityType]map[string]string // folded name -> id, "" when ambiguous
	findings []report.Finding
}

func (r *resolver) add(entity schema.EntityType, id, name string) {
	if r.ids[entity] == nil {
		r.ids[entity] = make(map[string]bool)
		r.names[entity] = make(map[string]string)
	}
	if id != "" {
		r.ids[entity][id] = true
	}
	key := ingest.FoldKey(name)
	if key == "" || id == "" {
		return
	}
	if existing, ok := r.names[entity][key]; ok && existing != id {
		r.names[entity][key] = ""
		return
	}
	r.names[entity][key] = id
}

// check resolves one reference field in place and reports whether the
// record may be kept.
func (r *resolver) check(from schema.EntityType, field string, value *string, o schema.Origin, recordID string) bool {
	ref, ok := lookupReference(from, field)
	if !ok || *value == "" {
		return true
	}
	if r.ids[ref.To][*value] {
		return true
	}

	if id := r.names[ref.To][ingest.FoldKey(*value)]; id != "" {
		r.findings = append(r.findings, report.Transformation(
			report.TypeResolvedByName, from, o.Sheet, o.RowIndex, field, *value, id))
		*value = id
		return true
	}

	r.findings = append(r.findings, ReferentialError{
		Entity:   from,
		Sheet:    o.Sheet,
		RowIndex: o.RowIndex,
		RecordID: recordID,
		Field:    field,
		Value:    *value,
		Target:   ref.To,
		Optional: ref.Optional,
	}.Finding())
	return ref.Optional
}

func lookupReference(from schema.EntityType, field string) (schema.Reference, bool) {
	for _, ref := range schema.ReferencesFrom(from) {
		if ref.Field == field {
			return ref, true
		}
	}
	return schema.Reference{}, false
}

// dedupe drops earlier records that share a declared id with a later one.
// Records without an id are always kept.
func dedupe[T any](r *resolver, entity schema.EntityType, items []T, key func(T) (string, schema.Origin)) []T {
	last := make(map[string]int, len(items))
	for i, it := range items {
		if id, _ := key(it); id != "" {
			last[id] = i
		}
	}

	out := make([]T, 0, len(items))
	for i, it := range items {
		id, o := key(it)
		if id != "" && last[id] != i {
			_, winner := key(items[last[id]])
			n := report.Notice(report.TypeDuplicateRecord, entity, o.Sheet, o.RowIndex, schema.FieldID,
				fmt.Sprintf("id %q is repeated at %s row %d; the later row replaces this one", id, winner.Sheet, winner.RowIndex))
			n.RecordID = id
			n.Value = id
			r.findings = append(r.findings, n)
			continue
		}
		out = append(out, it)
	}
	return out
}

func filter[T any](items []T, keep func(*T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(&it) {
			out = append(out, it)
		}
	}
	return out
}
