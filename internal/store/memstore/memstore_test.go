package memstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/JonMunkholm/ledgerimport/internal/store"
	"github.com/JonMunkholm/ledgerimport/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, New(), "")
}

func TestReadAllReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.WriteBatch(ctx, "accounts", []store.Document{storetest.Doc("a", 1)}); err != nil {
		t.Fatalf("WriteBatch() error = %v", err)
	}
	docs, _ := s.ReadAll(ctx, "accounts")
	docs[0].Data[0] = 'X'

	again, _ := s.ReadAll(ctx, "accounts")
	if !json.Valid(again[0].Data) {
		t.Errorf("stored document was mutated through ReadAll result: %s", again[0].Data)
	}
}

func TestRejectsInvalidDocuments(t *testing.T) {
	ctx := context.Background()
	s := New()
	tests := []struct {
		name string
		doc  store.Document
	}{
		{"empty id", store.Document{ID: "", Data: json.RawMessage(`{}`)}},
		{"invalid json", store.Document{ID: "a", Data: json.RawMessage(`{`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.WriteBatch(ctx, "c", []store.Document{tt.doc}); err == nil {
				t.Error("WriteBatch() error = nil, want error")
			}
			if err := s.Replace(ctx, "c", []store.Document{tt.doc}); err == nil {
				t.Error("Replace() error = nil, want error")
			}
		})
	}
}

func TestFaultyWrites(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFaulty(New())
	f.FailWrites("c", 1, 1)

	batch := []store.Document{storetest.Doc("a", 1)}
	if err := f.WriteBatch(ctx, "c", batch); err != nil {
		t.Fatalf("first write error = %v", err)
	}
	if err := f.WriteBatch(ctx, "c", batch); err != storetest.ErrInjected {
		t.Fatalf("second write error = %v, want ErrInjected", err)
	}
	if err := f.WriteBatch(ctx, "c", batch); err != nil {
		t.Fatalf("third write error = %v", err)
	}
	if got := f.Attempts("c"); got != 3 {
		t.Errorf("Attempts() = %d, want 3", got)
	}
}
