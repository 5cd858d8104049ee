package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/clmath"
	"orderRouter/internal/currency"
)

// FeeAmount is a V3 fee tier in hundredths of a basis point.
type FeeAmount uint32

const (
	FeeLowest FeeAmount = 100
	FeeLow    FeeAmount = 500
	FeeMedium FeeAmount = 3000
	FeeHigh   FeeAmount = 10000
)

// FeeTiers is the scan order used for native and USD pool lookups.
var FeeTiers = []FeeAmount{FeeHigh, FeeMedium, FeeLow, FeeLowest}

// V2MixedFee marks a V2 hop inside a mixed-route path.
const V2MixedFee uint32 = 1 << 23

// Pool is a liquidity venue snapshot. The set of implementations is closed to this package.
type Pool interface {
	Tokens() (currency.Token, currency.Token)
	PoolAddress() common.Address
	InvolvesToken(t currency.Token) bool
	Token0Price() currency.Price
	Token1Price() currency.Price
	isPool()
}

// V2Pair is a constant-product pair snapshot. Token0 sorts before Token1.
type V2Pair struct {
	Address  common.Address
	Token0   currency.Token
	Token1   currency.Token
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// NewV2Pair orders the tokens and reserves.
func NewV2Pair(address common.Address, tokenA, tokenB currency.Token, reserveA, reserveB *big.Int) V2Pair {
	if tokenB.SortsBefore(tokenA) {
		tokenA, tokenB = tokenB, tokenA
		reserveA, reserveB = reserveB, reserveA
	}
	return V2Pair{Address: address, Token0: tokenA, Token1: tokenB, Reserve0: reserveA, Reserve1: reserveB}
}

func (p V2Pair) isPool() {}

func (p V2Pair) Tokens() (currency.Token, currency.Token) { return p.Token0, p.Token1 }
func (p V2Pair) PoolAddress() common.Address              { return p.Address }

func (p V2Pair) InvolvesToken(t currency.Token) bool {
	return t.Equals(p.Token0) || t.Equals(p.Token1)
}

// Token0Price is the raw price of token0 in token1.
func (p V2Pair) Token0Price() currency.Price {
	return currency.NewPrice(currency.TokenCurrency(p.Token0), currency.TokenCurrency(p.Token1), p.Reserve0, p.Reserve1)
}

// Token1Price is the raw price of token1 in token0.
func (p V2Pair) Token1Price() currency.Price {
	return currency.NewPrice(currency.TokenCurrency(p.Token1), currency.TokenCurrency(p.Token0), p.Reserve1, p.Reserve0)
}

// ReserveOf returns the reserve held for t.
func (p V2Pair) ReserveOf(t currency.Token) *big.Int {
	if t.Equals(p.Token0) {
		return p.Reserve0
	}
	return p.Reserve1
}

// Depth is the product of reserves, used to rank pairs.
func (p V2Pair) Depth() *big.Int {
	if p.Reserve0 == nil || p.Reserve1 == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(p.Reserve0, p.Reserve1)
}

// V3Pool is a concentrated-liquidity pool snapshot. Token0 sorts before Token1.
type V3Pool struct {
	Address      common.Address
	Token0       currency.Token
	Token1       currency.Token
	Fee          FeeAmount
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	TickCurrent  int
}

// NewV3Pool orders the tokens.
func NewV3Pool(address common.Address, tokenA, tokenB currency.Token, fee FeeAmount, sqrtPriceX96, liquidity *big.Int, tick int) V3Pool {
	token0, token1 := currency.SortTokens(tokenA, tokenB)
	return V3Pool{
		Address:      address,
		Token0:       token0,
		Token1:       token1,
		Fee:          fee,
		SqrtPriceX96: sqrtPriceX96,
		Liquidity:    liquidity,
		TickCurrent:  tick,
	}
}

func (p V3Pool) isPool() {}

func (p V3Pool) Tokens() (currency.Token, currency.Token) { return p.Token0, p.Token1 }
func (p V3Pool) PoolAddress() common.Address              { return p.Address }

func (p V3Pool) InvolvesToken(t currency.Token) bool {
	return t.Equals(p.Token0) || t.Equals(p.Token1)
}

// Token0Price is sqrtPrice^2 / 2^192 as a raw price of token0 in token1.
func (p V3Pool) Token0Price() currency.Price {
	ratioX192 := new(big.Int).Mul(p.SqrtPriceX96, p.SqrtPriceX96)
	return currency.NewPrice(currency.TokenCurrency(p.Token0), currency.TokenCurrency(p.Token1), clmath.Q192.ToBig(), ratioX192)
}

func (p V3Pool) Token1Price() currency.Price {
	ratioX192 := new(big.Int).Mul(p.SqrtPriceX96, p.SqrtPriceX96)
	return currency.NewPrice(currency.TokenCurrency(p.Token1), currency.TokenCurrency(p.Token0), ratioX192, clmath.Q192.ToBig())
}

// WithSqrtPrice returns a copy of the pool moved to sqrtPriceX96, with the tick recomputed.
func (p V3Pool) WithSqrtPrice(sqrtPriceX96 *big.Int) (V3Pool, error) {
	tick, err := clmath.GetTickAtSqrtRatioBig(sqrtPriceX96)
	if err != nil {
		return V3Pool{}, fmt.Errorf("tick at sqrt price: %w", err)
	}
	out := p
	out.SqrtPriceX96 = new(big.Int).Set(sqrtPriceX96)
	out.TickCurrent = tick
	return out, nil
}

// SamePool reports whether two snapshots describe the same pair and fee tier.
func (p V3Pool) SamePool(o V3Pool) bool {
	return p.Token0.Equals(o.Token0) && p.Token1.Equals(o.Token1) && p.Fee == o.Fee
}
