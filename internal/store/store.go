// Package store defines the document-collection contract the committer and
// backup manager write through. Each entity type maps to one collection and
// every document is addressed by a deterministic id.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// MaxBatchSize is the atomic-write ceiling of a single WriteBatch call.
const MaxBatchSize = 500

// ErrBatchTooLarge is returned when a write exceeds MaxBatchSize documents.
var ErrBatchTooLarge = errors.New("batch exceeds atomic write limit")

// Document is a stored record.
type Document struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Store is a document-collection store.
//
// WriteBatch upserts docs by id, all-or-nothing. Replace overwrites the whole
// collection with docs in one transaction and is only used to restore snapshots.
type Store interface {
	ReadAll(ctx context.Context, collection string) ([]Document, error)
	WriteBatch(ctx context.Context, collection string, docs []Document) error
	Replace(ctx context.Context, collection string, docs []Document) error
	Count(ctx context.Context, collection string) (int, error)
}

// CheckBatch validates a batch before it reaches the backend.
func CheckBatch(docs []Document) error {
	if len(docs) > MaxBatchSize {
		return fmt.Errorf("%w: %d documents (max %d)", ErrBatchTooLarge, len(docs), MaxBatchSize)
	}
	for i, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document %d: empty id", i)
		}
		if !json.Valid(d.Data) {
			return fmt.Errorf("document %s: invalid JSON", d.ID)
		}
	}
	return nil
}

// SortByID orders documents by id in place.
func SortByID(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}

// IDs returns the set of ids in docs.
func IDs(docs []Document) map[string]struct{} {
	ids := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		ids[d.ID] = struct{}{}
	}
	return ids
}
