package pool

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/clmath"
	"orderRouter/internal/currency"
)

var (
	tokenA = currency.NewToken(1, common.HexToAddress("0x00000000000000000000000000000000000000aa"), 18, "AAA", "Token A")
	tokenB = currency.NewToken(1, common.HexToAddress("0x00000000000000000000000000000000000000bb"), 6, "BBB", "Token B")
)

func TestNewV2PairOrdersReserves(t *testing.T) {
	p := NewV2Pair(common.Address{1}, tokenB, tokenA, big.NewInt(20), big.NewInt(10))
	if !p.Token0.Equals(tokenA) || p.Reserve0.Int64() != 10 || p.Reserve1.Int64() != 20 {
		t.Fatalf("unexpected pair ordering %+v", p)
	}
	price := p.Token0Price()
	if !price.EqualTo(currency.NewFractionInt(2, 1)) {
		t.Fatalf("token0 price = %s", price.String())
	}
	if p.Depth().Int64() != 200 {
		t.Fatalf("depth = %s", p.Depth())
	}
	if p.ReserveOf(tokenB).Int64() != 20 {
		t.Fatalf("reserve of token B = %s", p.ReserveOf(tokenB))
	}
}

func TestV3PoolPriceAtTickZero(t *testing.T) {
	p := NewV3Pool(common.Address{2}, tokenB, tokenA, FeeMedium, clmath.Q96.ToBig(), big.NewInt(1), 0)
	if !p.Token0.Equals(tokenA) {
		t.Fatalf("tokens not sorted")
	}
	if !p.Token0Price().EqualTo(currency.NewFractionInt(1, 1)) {
		t.Fatalf("token0 price at tick zero = %s", p.Token0Price().String())
	}
	if !p.Token1Price().EqualTo(currency.NewFractionInt(1, 1)) {
		t.Fatalf("token1 price at tick zero = %s", p.Token1Price().String())
	}
}

func TestV3PoolWithSqrtPrice(t *testing.T) {
	p := NewV3Pool(common.Address{2}, tokenA, tokenB, FeeLow, clmath.Q96.ToBig(), big.NewInt(1), 0)
	sqrt, err := clmath.GetSqrtRatioAtTickBig(120)
	if err != nil {
		t.Fatalf("sqrt ratio: %v", err)
	}
	moved, err := p.WithSqrtPrice(sqrt)
	if err != nil {
		t.Fatalf("with sqrt price: %v", err)
	}
	if moved.TickCurrent != 120 {
		t.Fatalf("tick = %d", moved.TickCurrent)
	}
	if p.TickCurrent != 0 || p.SqrtPriceX96.Cmp(clmath.Q96.ToBig()) != 0 {
		t.Fatalf("original pool mutated")
	}
	if !moved.SamePool(p) {
		t.Fatalf("moved pool should match original pair and fee")
	}
}

func TestAccessorsLookupEitherOrder(t *testing.T) {
	v3 := NewV3Pool(common.Address{3}, tokenA, tokenB, FeeHigh, clmath.Q96.ToBig(), big.NewInt(5), 0)
	acc := NewV3Accessor([]V3Pool{v3, v3})
	if len(acc.AllPools()) != 1 {
		t.Fatalf("duplicate pool kept")
	}
	if _, ok := acc.GetPool(tokenB, tokenA, FeeHigh); !ok {
		t.Fatalf("pool not found in reverse order")
	}
	if _, ok := acc.GetPool(tokenA, tokenB, FeeLow); ok {
		t.Fatalf("unexpected pool for other fee tier")
	}
	if _, ok := acc.GetPoolByAddress(common.Address{3}); !ok {
		t.Fatalf("pool not found by address")
	}

	var nilAcc *V2Accessor
	if _, ok := nilAcc.GetPool(tokenA, tokenB); ok {
		t.Fatalf("nil accessor returned a pool")
	}
}

func TestStaticProvidersFilterKeys(t *testing.T) {
	pair := NewV2Pair(common.Address{4}, tokenA, tokenB, big.NewInt(1), big.NewInt(1))
	v2, err := StaticV2Provider{Pairs: []V2Pair{pair}}.GetPools(context.Background(), []V2Key{{TokenA: tokenB, TokenB: tokenA}}, ProviderOptions{})
	if err != nil {
		t.Fatalf("v2 provider: %v", err)
	}
	if len(v2.AllPools()) != 1 {
		t.Fatalf("expected one pair, got %d", len(v2.AllPools()))
	}

	v3, err := StaticV3Provider{}.GetPools(context.Background(), []V3Key{{TokenA: tokenA, TokenB: tokenB, Fee: FeeLow}}, ProviderOptions{})
	if err != nil {
		t.Fatalf("v3 provider: %v", err)
	}
	if len(v3.AllPools()) != 0 {
		t.Fatalf("expected no pools")
	}
}

func TestPositionFromAmountsRoundsDown(t *testing.T) {
	p := NewV3Pool(common.Address{5}, tokenA, tokenB, FeeMedium, clmath.Q96.ToBig(), big.NewInt(1), 0)
	amount := big.NewInt(1_000_000_000_000_000_000)
	pos, err := NewPositionFromAmounts(p, -60, 60, amount, amount)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos.Liquidity.Sign() <= 0 {
		t.Fatalf("liquidity = %s", pos.Liquidity)
	}
	a0, a1, err := pos.Amounts()
	if err != nil {
		t.Fatalf("amounts: %v", err)
	}
	if a0.Cmp(amount) > 0 || a1.Cmp(amount) > 0 || a0.Sign() <= 0 || a1.Sign() <= 0 {
		t.Fatalf("amounts out of bounds: %s %s", a0, a1)
	}

	if _, err := NewPositionFromAmounts(p, 60, -60, amount, amount); err == nil {
		t.Fatalf("expected invalid range error")
	}
}
