package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"orderRouter/internal/model"
)

type fakeDB struct {
	execSQL   []string
	batch     *pgx.Batch
	batchErr  error
	inserted  int
	querySQL  string
	queryArgs []any
	rows      [][]any
	closed    bool
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.querySQL, f.queryArgs = sql, args
	return &fakeRows{rows: f.rows}, nil
}

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batch = b
	return &fakeBatchResults{db: f}
}

func (f *fakeDB) Close() { f.closed = true }

type fakeBatchResults struct {
	pgx.BatchResults
	db *fakeDB
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	if r.db.batchErr != nil {
		return pgconn.CommandTag{}, r.db.batchErr
	}
	r.db.inserted++
	return pgconn.CommandTag{}, nil
}

func (r *fakeBatchResults) Close() error { return nil }

type fakeRows struct {
	pgx.Rows
	rows [][]any
	next int
}

func (r *fakeRows) Next() bool {
	r.next++
	return r.next <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.next-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan %d columns into %d targets", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Close() {}

func record(quotedAt string) model.QuoteRecord {
	return model.QuoteRecord{
		ChainID:          1,
		BlockNumber:      19000000,
		TradeType:        "EXACT_INPUT",
		TokenIn:          "WETH",
		TokenOut:         "USDC",
		Amount:           "1",
		Quote:            "2500.5",
		QuoteGasAdjusted: "2499.25",
		GasUsed:          "135000",
		Routes:           []model.RouteRecord{{Protocol: "V3", Percent: 100, Path: "WETH -- 500 --> USDC"}},
		SimulationStatus: "NOT_SUPPORTED",
		QuotedAt:         quotedAt,
	}
}

func TestNewStoreRequiresDSN(t *testing.T) {
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestEnsureSchemaAndClose(t *testing.T) {
	db := &fakeDB{}
	s := &Store{pool: db}
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if len(db.execSQL) != 1 || !strings.Contains(db.execSQL[0], "CREATE TABLE IF NOT EXISTS quotes") {
		t.Fatalf("unexpected schema exec: %v", db.execSQL)
	}
	s.Close()
	if !db.closed {
		t.Fatalf("expected pool to be closed")
	}
}

func TestPutQuotesBatchesInserts(t *testing.T) {
	db := &fakeDB{}
	s := &Store{pool: db}
	quotes := []model.QuoteRecord{record("2024-01-02T03:04:05Z"), record("2024-01-02T03:04:06Z")}
	if err := s.PutQuotes(context.Background(), quotes); err != nil {
		t.Fatalf("put quotes: %v", err)
	}
	if db.batch.Len() != 2 || db.inserted != 2 {
		t.Fatalf("batch len = %d, inserted = %d", db.batch.Len(), db.inserted)
	}

	args := db.batch.QueuedQueries[0].Arguments
	if args[0] != int64(1) || args[1] != int64(19000000) {
		t.Fatalf("chain/block args = %v, %v", args[0], args[1])
	}
	if got := string(args[12].([]byte)); !strings.Contains(got, `"protocol":"V3"`) {
		t.Fatalf("routes arg = %s", got)
	}
	if got := args[15].(time.Time); !got.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("quoted_at arg = %s", got)
	}

	if err := s.PutQuotes(context.Background(), nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}
	if db.inserted != 2 {
		t.Fatalf("empty batch should not insert, inserted = %d", db.inserted)
	}
}

func TestPutQuotesErrors(t *testing.T) {
	db := &fakeDB{}
	s := &Store{pool: db}
	if err := s.PutQuotes(context.Background(), []model.QuoteRecord{record("yesterday")}); err == nil {
		t.Fatalf("expected error for unparsable quoted_at")
	}
	if db.batch != nil {
		t.Fatalf("batch should not be sent after a bad record")
	}

	boom := errors.New("unique violation")
	db.batchErr = boom
	err := s.PutQuotes(context.Background(), []model.QuoteRecord{record("2024-01-02T03:04:05Z")})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestRecentQuotesDecodesRows(t *testing.T) {
	quotedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	db := &fakeDB{rows: [][]any{{
		int64(1), int64(19000000), "EXACT_INPUT", "WETH", "USDC", "1", "2500.5", "2499.25",
		"135000", "1.25", "1.25", "", []byte(`[{"protocol":"V3","percent":100,"path":"WETH -- 500 --> USDC","pools":null,"amount":"1","quote":"2500.5"}]`),
		"", "NOT_SUPPORTED", quotedAt,
	}}}
	s := &Store{pool: db}

	got, err := s.RecentQuotes(context.Background(), 1, "WETH", "USDC", 5)
	if err != nil {
		t.Fatalf("recent quotes: %v", err)
	}
	if len(db.queryArgs) != 4 || db.queryArgs[0] != int64(1) || db.queryArgs[3] != 5 {
		t.Fatalf("query args = %v", db.queryArgs)
	}
	if !strings.Contains(db.querySQL, "ORDER BY quoted_at DESC") {
		t.Fatalf("query should order newest first: %s", db.querySQL)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	q := got[0]
	if q.ChainID != 1 || q.BlockNumber != 19000000 || q.Quote != "2500.5" || q.GasUsed != "135000" {
		t.Fatalf("unexpected record: %+v", q)
	}
	if q.QuotedAt != "2024-01-02T02:04:05Z" {
		t.Fatalf("quoted_at = %s", q.QuotedAt)
	}
	if len(q.Routes) != 1 || q.Routes[0].Protocol != "V3" || q.Routes[0].Percent != 100 {
		t.Fatalf("routes = %+v", q.Routes)
	}
}

func TestRecentQuotesRejectsBadInput(t *testing.T) {
	s := &Store{pool: &fakeDB{}}
	if _, err := s.RecentQuotes(context.Background(), 1, "WETH", "USDC", 0); err == nil {
		t.Fatalf("expected error for zero limit")
	}

	s = &Store{pool: &fakeDB{rows: [][]any{{
		int64(1), int64(1), "EXACT_INPUT", "WETH", "USDC", "1", "1", "1",
		"", "", "", "", []byte(`{not json`), "", "NOT_SUPPORTED", time.Now(),
	}}}}
	if _, err := s.RecentQuotes(context.Background(), 1, "WETH", "USDC", 1); err == nil {
		t.Fatalf("expected error for malformed routes")
	}
}

// Runs against a real database when ROUTER_TEST_PG_DSN is set.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("ROUTER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("ROUTER_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer s.Close()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	tokenOut := fmt.Sprintf("TEST%d", time.Now().UnixNano())
	older, newer := record("2024-01-02T03:04:05Z"), record("2024-01-02T03:04:06Z")
	older.TokenOut, newer.TokenOut = tokenOut, tokenOut
	newer.Quote = "2600"
	if err := s.PutQuotes(ctx, []model.QuoteRecord{older, newer}); err != nil {
		t.Fatalf("put quotes: %v", err)
	}

	got, err := s.RecentQuotes(ctx, 1, "WETH", tokenOut, 10)
	if err != nil {
		t.Fatalf("recent quotes: %v", err)
	}
	if len(got) != 2 || got[0].Quote != "2600" || got[0].QuotedAt != newer.QuotedAt {
		t.Fatalf("unexpected records: %+v", got)
	}
}
