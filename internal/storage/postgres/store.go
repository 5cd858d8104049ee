package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"orderRouter/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS quotes (
	id BIGSERIAL PRIMARY KEY,
	chain_id BIGINT NOT NULL,
	block_number BIGINT NOT NULL,
	trade_type TEXT NOT NULL,
	token_in TEXT NOT NULL,
	token_out TEXT NOT NULL,
	amount NUMERIC NOT NULL,
	quote NUMERIC NOT NULL,
	quote_gas_adjusted NUMERIC NOT NULL,
	gas_used NUMERIC,
	gas_used_quote_token NUMERIC,
	gas_used_usd NUMERIC,
	gas_price_wei NUMERIC,
	routes JSONB NOT NULL,
	calldata TEXT,
	simulation_status TEXT NOT NULL,
	quoted_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS quotes_pair_idx ON quotes (chain_id, token_in, token_out, quoted_at DESC);
`

// db is the subset of *pgxpool.Pool the store uses.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
}

// Store persists quote records in Postgres.
type Store struct {
	pool db
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the quotes table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutQuotes inserts quote records in one batch.
func (s *Store) PutQuotes(ctx context.Context, quotes []model.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range quotes {
		routes, err := json.Marshal(q.Routes)
		if err != nil {
			return fmt.Errorf("marshal routes: %w", err)
		}
		quotedAt, err := time.Parse(time.RFC3339, q.QuotedAt)
		if err != nil {
			return fmt.Errorf("parse quoted_at %q: %w", q.QuotedAt, err)
		}
		batch.Queue(`
			INSERT INTO quotes (
				chain_id, block_number, trade_type, token_in, token_out, amount, quote, quote_gas_adjusted,
				gas_used, gas_used_quote_token, gas_used_usd, gas_price_wei, routes, calldata,
				simulation_status, quoted_at
			) VALUES ($1,$2,$3,$4,$5,$6::text::numeric,$7::text::numeric,$8::text::numeric,
				NULLIF($9::text,'')::numeric,NULLIF($10::text,'')::numeric,NULLIF($11::text,'')::numeric,
				NULLIF($12::text,'')::numeric,$13,NULLIF($14::text,''),$15,$16)
		`,
			int64(q.ChainID),
			int64(q.BlockNumber),
			q.TradeType,
			q.TokenIn,
			q.TokenOut,
			q.Amount,
			q.Quote,
			q.QuoteGasAdjusted,
			q.GasUsed,
			q.GasUsedQuoteToken,
			q.GasUsedUSD,
			q.GasPriceWei,
			routes,
			q.Calldata,
			q.SimulationStatus,
			quotedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range quotes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}
	}
	return nil
}

// RecentQuotes returns the latest quotes for a pair, newest first.
func (s *Store) RecentQuotes(ctx context.Context, chainID uint64, tokenIn, tokenOut string, limit int) ([]model.QuoteRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, block_number, trade_type, token_in, token_out, amount::text, quote::text,
			quote_gas_adjusted::text, COALESCE(gas_used::text, ''), COALESCE(gas_used_quote_token::text, ''),
			COALESCE(gas_used_usd::text, ''), COALESCE(gas_price_wei::text, ''), routes,
			COALESCE(calldata, ''), simulation_status, quoted_at
		FROM quotes
		WHERE chain_id = $1 AND token_in = $2 AND token_out = $3
		ORDER BY quoted_at DESC
		LIMIT $4
	`, int64(chainID), tokenIn, tokenOut, limit)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	var out []model.QuoteRecord
	for rows.Next() {
		var (
			q            model.QuoteRecord
			chain, block int64
			routes       []byte
			quotedAt     time.Time
		)
		if err := rows.Scan(&chain, &block, &q.TradeType, &q.TokenIn, &q.TokenOut, &q.Amount, &q.Quote,
			&q.QuoteGasAdjusted, &q.GasUsed, &q.GasUsedQuoteToken, &q.GasUsedUSD, &q.GasPriceWei, &routes,
			&q.Calldata, &q.SimulationStatus, &quotedAt); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		if err := json.Unmarshal(routes, &q.Routes); err != nil {
			return nil, fmt.Errorf("decode routes: %w", err)
		}
		q.ChainID, q.BlockNumber = uint64(chain), uint64(block)
		q.QuotedAt = quotedAt.UTC().Format(time.RFC3339)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read quotes: %w", err)
	}
	return out, nil
}
