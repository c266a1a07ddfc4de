// Package storetest holds a conformance suite for store.Store implementations
// and a fault-injecting wrapper used by the committer and pipeline tests.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/JonMunkholm/ledgerimport/internal/store"
)

// ErrInjected is returned by Faulty for every injected failure.
var ErrInjected = errors.New("injected store failure")

// Doc builds a document whose data is {"n": n}.
func Doc(id string, n int) store.Document {
	return store.Document{ID: id, Data: json.RawMessage(fmt.Sprintf(`{"n":%d}`, n))}
}

// Run exercises the store.Store contract against s. Collections are prefixed
// with prefix so a shared database can be used.
func Run(t *testing.T, s store.Store, prefix string) {
	t.Helper()
	ctx := context.Background()

	t.Run("UpsertOverwritesByID", func(t *testing.T) {
		c := prefix + "upsert"
		if err := s.WriteBatch(ctx, c, []store.Document{Doc("a", 1), Doc("b", 2)}); err != nil {
			t.Fatalf("WriteBatch() error = %v", err)
		}
		if err := s.WriteBatch(ctx, c, []store.Document{Doc("b", 3), Doc("c", 4)}); err != nil {
			t.Fatalf("WriteBatch() error = %v", err)
		}
		n, err := s.Count(ctx, c)
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if n != 3 {
			t.Errorf("Count() = %d, want 3", n)
		}
		docs, err := s.ReadAll(ctx, c)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		got := values(t, docs)
		want := map[string]int{"a": 1, "b": 3, "c": 4}
		for id, v := range want {
			if got[id] != v {
				t.Errorf("doc %s = %d, want %d", id, got[id], v)
			}
		}
		for i := 1; i < len(docs); i++ {
			if docs[i-1].ID > docs[i].ID {
				t.Errorf("ReadAll() not ordered by id: %s before %s", docs[i-1].ID, docs[i].ID)
			}
		}
	})

	t.Run("ReplaceOverwritesCollection", func(t *testing.T) {
		c := prefix + "replace"
		if err := s.WriteBatch(ctx, c, []store.Document{Doc("a", 1), Doc("b", 2)}); err != nil {
			t.Fatalf("WriteBatch() error = %v", err)
		}
		if err := s.Replace(ctx, c, []store.Document{Doc("z", 9)}); err != nil {
			t.Fatalf("Replace() error = %v", err)
		}
		docs, err := s.ReadAll(ctx, c)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if len(docs) != 1 || docs[0].ID != "z" {
			t.Errorf("ReadAll() after Replace = %v, want [z]", docs)
		}
		if err := s.Replace(ctx, c, nil); err != nil {
			t.Fatalf("Replace(nil) error = %v", err)
		}
		if n, _ := s.Count(ctx, c); n != 0 {
			t.Errorf("Count() after empty Replace = %d, want 0", n)
		}
	})

	t.Run("EmptyCollection", func(t *testing.T) {
		docs, err := s.ReadAll(ctx, prefix+"missing")
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("ReadAll() = %d docs, want 0", len(docs))
		}
	})

	t.Run("RejectsOversizedBatch", func(t *testing.T) {
		c := prefix + "oversized"
		docs := make([]store.Document, store.MaxBatchSize+1)
		for i := range docs {
			docs[i] = Doc(fmt.Sprintf("d%04d", i), i)
		}
		err := s.WriteBatch(ctx, c, docs)
		if !errors.Is(err, store.ErrBatchTooLarge) {
			t.Fatalf("WriteBatch() error = %v, want ErrBatchTooLarge", err)
		}
		if n, _ := s.Count(ctx, c); n != 0 {
			t.Errorf("Count() after rejected batch = %d, want 0", n)
		}
	})
}

func values(t *testing.T, docs []store.Document) map[string]int {
	t.Helper()
	out := make(map[string]int, len(docs))
	for _, d := range docs {
		var v struct {
			N int `json:"n"`
		}
		if err := json.Unmarshal(d.Data, &v); err != nil {
			t.Fatalf("decode %s: %v", d.ID, err)
		}
		out[d.ID] = v.N
	}
	return out
}

type writeFault struct {
	after     int // successful writes allowed before failing
	remaining int // failing attempts left, <0 means forever
}

// Faulty wraps a store and injects failures.
type Faulty struct {
	store.Store

	mu         sync.Mutex
	faults     map[string]*writeFault
	successes  map[string]int
	attempts   map[string]int
	readErr    error
	replaceErr error
	afterWrite func(collection string)
}

// NewFaulty wraps s.
func NewFaulty(s store.Store) *Faulty {
	return &Faulty{
		Store:     s,
		faults:    make(map[string]*writeFault),
		successes: make(map[string]int),
		attempts:  make(map[string]int),
	}
}

// FailWrites lets the first after writes to collection succeed, then fails
// the next times attempts. A negative times fails every later attempt.
func (f *Faulty) FailWrites(collection string, after, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[collection] = &writeFault{after: after, remaining: times}
}

// AfterWrite calls fn after every successful WriteBatch.
func (f *Faulty) AfterWrite(fn func(collection string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterWrite = fn
}

// FailReads makes every ReadAll return err.
func (f *Faulty) FailReads(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

// FailReplace makes every Replace return err.
func (f *Faulty) FailReplace(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceErr = err
}

// Attempts is the number of WriteBatch calls seen for collection.
func (f *Faulty) Attempts(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[collection]
}

func (f *Faulty) ReadAll(ctx context.Context, collection string) ([]store.Document, error) {
	f.mu.Lock()
	err := f.readErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Store.ReadAll(ctx, collection)
}

func (f *Faulty) WriteBatch(ctx context.Context, collection string, docs []store.Document) error {
	f.mu.Lock()
	f.attempts[collection]++
	if fault, ok := f.faults[collection]; ok && f.successes[collection] >= fault.after && fault.remaining != 0 {
		if fault.remaining > 0 {
			fault.remaining--
		}
		f.mu.Unlock()
		return ErrInjected
	}
	f.mu.Unlock()

	if err := f.Store.WriteBatch(ctx, collection, docs); err != nil {
		return err
	}
	f.mu.Lock()
	f.successes[collection]++
	hook := f.afterWrite
	f.mu.Unlock()
	if hook != nil {
		hook(collection)
	}
	return nil
}

func (f *Faulty) Replace(ctx context.Context, collection string, docs []store.Document) error {
	f.mu.Lock()
	err := f.replaceErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.Replace(ctx, collection, docs)
}
