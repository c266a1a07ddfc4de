// Package memstore is an in-memory implementation of store.Store.
package memstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/JonMunkholm/ledgerimport/internal/store"
)

// Store keeps collections in memory. The zero value is not usable; use New.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
}

// New returns an empty store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]json.RawMessage)}
}

var _ store.Store = (*Store)(nil)

func (s *Store) ReadAll(ctx context.Context, collection string) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]store.Document, 0, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		docs = append(docs, store.Document{ID: id, Data: clone(data)})
	}
	store.SortByID(docs)
	return docs, nil
}

func (s *Store) WriteBatch(ctx context.Context, collection string, docs []store.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.CheckBatch(docs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		c = make(map[string]json.RawMessage, len(docs))
		s.collections[collection] = c
	}
	for _, d := range docs {
		c[d.ID] = clone(d.Data)
	}
	return nil
}

func (s *Store) Replace(ctx context.Context, collection string, docs []store.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, d := range docs {
		if d.ID == "" || !json.Valid(d.Data) {
			return store.CheckBatch([]store.Document{d})
		}
	}
	c := make(map[string]json.RawMessage, len(docs))
	for _, d := range docs {
		c[d.ID] = clone(d.Data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(c) == 0 {
		delete(s.collections, collection)
		return nil
	}
	s.collections[collection] = c
	return nil
}

func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection]), nil
}

func clone(b json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(b))
	copy(out, b)
	return out
}
