package commit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/JonMunkholm/ledgerimport/internal/store"
)

// Namespace seeds every document id. Changing it re-keys every collection.
var Namespace = uuid.MustParse("6f1c9a52-3b7e-5d40-9a1e-2c8b4e7d0f13")

// DocumentID derives the stable id of a record from its natural key. The
// ordinal separates records whose natural keys collide inside one source.
func DocumentID(entity schema.EntityType, naturalKey string, ordinal int) string {
	name := string(entity) + "|" + naturalKey + "|" + strconv.Itoa(ordinal)
	return uuid.NewSHA1(Namespace, []byte(name)).String()
}

// NaturalKey is the declared id when present, otherwise the fields that
// identify the record for its entity type.
func NaturalKey(entity schema.EntityType, rec any) string {
	switch r := rec.(type) {
	case schema.Account:
		return keyOr(r.ID, r.Name)
	case schema.LedgerEntry:
		return keyOr(r.ID, r.AccountID, r.Date.String(), r.Amount.String(), r.Concept)
	case schema.Sale:
		return keyOr(r.ID, r.Date.String(), r.ClientID, r.SaleOrderRef, r.Quantity.String(), r.UnitPrice.String())
	case schema.PurchaseOrder:
		return keyOr(r.ID, r.DistributorID, r.Quantity.String(), r.UnitCost.String())
	case schema.Client:
		return keyOr(r.ID, r.Name)
	case schema.Distributor:
		return keyOr(r.ID, r.Name)
	case schema.InventoryItem:
		return keyOr(r.ID, r.Name)
	case schema.InventoryMovement:
		return keyOr(r.ID, r.ItemID, r.Type, r.Date.String(), r.Quantity.String())
	case schema.Cutoff:
		return keyOr("", r.AccountID, r.Date.String())
	default:
		return fmt.Sprintf("%v", rec)
	}
}

func keyOr(id string, fields ...string) string {
	if id = strings.TrimSpace(id); id != "" {
		return "id:" + id
	}
	return strings.Join(fields, "|")
}

// Documents encodes every persisted record of ds, keyed by collection.
// Collections with no records are present with an empty slice.
func Documents(ds *schema.Dataset) (map[string][]store.Document, error) {
	out := make(map[string][]store.Document, len(schema.PersistedEntities()))
	var err error
	for _, e := range schema.PersistedEntities() {
		var docs []store.Document
		switch e {
		case schema.EntityAccount:
			docs, err = encode(e, ds.Accounts)
		case schema.EntityIncome:
			docs, err = encode(e, ds.Income)
		case schema.EntityExpense:
			docs, err = encode(e, ds.Expenses)
		case schema.EntitySale:
			docs, err = encode(e, ds.Sales)
		case schema.EntityPurchaseOrder:
			docs, err = encode(e, ds.Orders)
		case schema.EntityClient:
			docs, err = encode(e, ds.Clients)
		case schema.EntityDistributor:
			docs, err = encode(e, ds.Distributors)
		case schema.EntityInventoryItem:
			docs, err = encode(e, ds.Items)
		case schema.EntityInventoryMovement:
			docs, err = encode(e, ds.Movements)
		case schema.EntityCutoff:
			docs, err = encode(e, ds.Cutoffs)
		}
		if err != nil {
			return nil, err
		}
		out[string(e)] = docs
	}
	return out, nil
}

func encode[T any](entity schema.EntityType, recs []T) ([]store.Document, error) {
	docs := make([]store.Document, 0, len(recs))
	seen := make(map[string]int, len(recs))
	for _, r := range recs {
		key := NaturalKey(entity, r)
		ordinal := seen[key]
		seen[key]++

		data, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encode %s %q: %w", entity, key, err)
		}
		docs = append(docs, store.Document{ID: DocumentID(entity, key, ordinal), Data: data})
	}
	return docs, nil
}

// Decode rebuilds a dataset from stored collections. Unknown collections
// are ignored.
func Decode(collections map[string][]store.Document) (*schema.Dataset, error) {
	ds := &schema.Dataset{}
	var err error
	for name, docs := range collections {
		switch schema.EntityType(name) {
		case schema.EntityAccount:
			ds.Accounts, err = decode[schema.Account](name, docs)
		case schema.EntityIncome:
			ds.Income, err = decode[schema.LedgerEntry](name, docs)
		case schema.EntityExpense:
			ds.Expenses, err = decode[schema.LedgerEntry](name, docs)
		case schema.EntitySale:
			ds.Sales, err = decode[schema.Sale](name, docs)
		case schema.EntityPurchaseOrder:
			ds.Orders, err = decode[schema.PurchaseOrder](name, docs)
		case schema.EntityClient:
			ds.Clients, err = decode[schema.Client](name, docs)
		case schema.EntityDistributor:
			ds.Distributors, err = decode[schema.Distributor](name, docs)
		case schema.EntityInventoryItem:
			ds.Items, err = decode[schema.InventoryItem](name, docs)
		case schema.EntityInventoryMovement:
			ds.Movements, err = decode[schema.InventoryMovement](name, docs)
		case schema.EntityCutoff:
			ds.Cutoffs, err = decode[schema.Cutoff](name, docs)
		}
		if err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func decode[T any](collection string, docs []store.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d.Data, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
