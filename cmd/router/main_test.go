package main

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/config"
	"orderRouter/internal/currency"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
	"orderRouter/internal/ratio"
	"orderRouter/internal/storage"
)

var usdc = currency.TokenCurrency(currency.NewToken(1, common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC", "USD Coin"))

func TestParseAmount(t *testing.T) {
	amount, err := parseAmount(usdc, "1.5")
	if err != nil {
		t.Fatalf("parse amount: %v", err)
	}
	if amount.Quotient().Cmp(big.NewInt(1_500_000)) != 0 {
		t.Fatalf("raw = %s, want 1500000", amount.Quotient())
	}

	for _, in := range []string{"abc", "-1", "0.0000001"} {
		if _, err := parseAmount(usdc, in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestNewRatioRecordNoRoute(t *testing.T) {
	addr := common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")
	rec := newRatioRecord(1, addr, &ratio.SwapToRatioResult{Status: model.SwapToRatioNoRouteFound, Error: ratio.ReasonNoRoute}, time.Now())
	if rec.Status != "NO_ROUTE_FOUND" || rec.Error != ratio.ReasonNoRoute {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Swap != nil || rec.PostSwapTick != nil {
		t.Fatalf("no-route record carries swap details: %+v", rec)
	}
}

func TestNewRatioRecordSuccess(t *testing.T) {
	addr := common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")
	target := pool.V3Pool{Address: addr, SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96), TickCurrent: 12}
	rec := newRatioRecord(1, addr, &ratio.SwapToRatioResult{
		Status:             model.SwapToRatioSuccess,
		OptimalRatio:       currency.NewFractionInt(1, 2),
		PostSwapTargetPool: &target,
		MethodParameters:   &model.MethodParameters{Calldata: []byte{0x01, 0x02}, To: addr},
	}, time.Now())

	if rec.Status != "SUCCESS" || rec.OptimalRatio != "0.500000000000000000" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.PostSwapTick == nil || *rec.PostSwapTick != 12 {
		t.Fatalf("post swap tick = %v", rec.PostSwapTick)
	}
	if rec.Calldata != "0x0102" || rec.To != addr.Hex() || rec.Value != "" {
		t.Fatalf("unexpected calldata fields %+v", rec)
	}
}

func TestOpenSinks(t *testing.T) {
	sink, store, closeFn, err := openSinks(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("open sinks: %v", err)
	}
	closeFn()
	if sink != nil || store != nil {
		t.Fatalf("expected no sink without out or pg-dsn")
	}

	out := filepath.Join(t.TempDir(), "quotes.jsonl")
	sink, store, closeFn, err = openSinks(context.Background(), config.Config{Out: out})
	if err != nil {
		t.Fatalf("open sinks: %v", err)
	}
	if store != nil {
		t.Fatalf("expected no postgres store without pg-dsn")
	}
	defer closeFn()
	if err := sink.PutQuotes(context.Background(), []model.QuoteRecord{{ChainID: 1, Quote: "1"}}); err != nil {
		t.Fatalf("put quotes: %v", err)
	}
	got, err := storage.ReadQuotes(out)
	if err != nil || len(got) != 1 || got[0].Quote != "1" {
		t.Fatalf("read back = %+v, %v", got, err)
	}
}
