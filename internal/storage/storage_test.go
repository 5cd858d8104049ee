package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"orderRouter/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "quotes.jsonl")
	s := NewJsonlStorage(path)

	first := model.QuoteRecord{ChainID: 1, TradeType: "EXACT_INPUT", Quote: "1.5", Routes: []model.RouteRecord{{Protocol: "V3", Percent: 100}}}
	second := model.QuoteRecord{ChainID: 1, TradeType: "EXACT_OUTPUT", Quote: "2"}
	if err := s.PutQuotes(context.Background(), []model.QuoteRecord{first}); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := s.PutQuotes(context.Background(), []model.QuoteRecord{second}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	if err := s.PutQuotes(context.Background(), nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}

	got, err := ReadQuotes(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("records = %d, want 2", len(got))
	}
	if got[0].Quote != "1.5" || got[0].Routes[0].Protocol != "V3" || got[1].TradeType != "EXACT_OUTPUT" {
		t.Fatalf("unexpected records %+v", got)
	}
}

type failingSink struct{ err error }

func (f failingSink) PutQuotes(context.Context, []model.QuoteRecord) error { return f.err }

func TestMultiWritesEverySink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.jsonl")
	boom := errors.New("boom")
	m := Multi{failingSink{err: boom}, NewJsonlStorage(path)}

	err := m.PutQuotes(context.Background(), []model.QuoteRecord{{ChainID: 5}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined sink error, got %v", err)
	}
	got, err := ReadQuotes(path)
	if err != nil || len(got) != 1 || got[0].ChainID != 5 {
		t.Fatalf("later sink should still write: %+v, %v", got, err)
	}
}
