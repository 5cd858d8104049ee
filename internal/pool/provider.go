package pool

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/currency"
)

// ProviderOptions pins provider reads to a block. A nil BlockNumber means latest.
type ProviderOptions struct {
	BlockNumber *big.Int
}

// V3Key identifies a V3 pool by its pair and fee tier.
type V3Key struct {
	TokenA currency.Token
	TokenB currency.Token
	Fee    FeeAmount
}

// V2Key identifies a V2 pair.
type V2Key struct {
	TokenA currency.Token
	TokenB currency.Token
}

// V3Provider loads V3 pool snapshots. Pools that do not exist are absent from the accessor.
type V3Provider interface {
	GetPools(ctx context.Context, keys []V3Key, opts ProviderOptions) (*V3Accessor, error)
}

// V2Provider loads V2 pair snapshots. Pairs that do not exist are absent from the accessor.
type V2Provider interface {
	GetPools(ctx context.Context, keys []V2Key, opts ProviderOptions) (*V2Accessor, error)
}

func pairKey(a, b currency.Token) string {
	t0, t1 := currency.SortTokens(a, b)
	return strings.ToLower(t0.Address.Hex() + t1.Address.Hex())
}

// V3Accessor looks up loaded V3 pools.
type V3Accessor struct {
	byKey     map[string]V3Pool
	byAddress map[common.Address]V3Pool
	ordered   []V3Pool
}

func NewV3Accessor(pools []V3Pool) *V3Accessor {
	a := &V3Accessor{
		byKey:     make(map[string]V3Pool, len(pools)),
		byAddress: make(map[common.Address]V3Pool, len(pools)),
	}
	for _, p := range pools {
		key := v3Key(p.Token0, p.Token1, p.Fee)
		if _, dup := a.byKey[key]; dup {
			continue
		}
		a.byKey[key] = p
		a.byAddress[p.Address] = p
		a.ordered = append(a.ordered, p)
	}
	return a
}

func v3Key(a, b currency.Token, fee FeeAmount) string {
	return pairKey(a, b) + ":" + big.NewInt(int64(fee)).String()
}

// GetPool returns the pool for the pair and fee tier.
func (a *V3Accessor) GetPool(tokenA, tokenB currency.Token, fee FeeAmount) (V3Pool, bool) {
	if a == nil {
		return V3Pool{}, false
	}
	p, ok := a.byKey[v3Key(tokenA, tokenB, fee)]
	return p, ok
}

func (a *V3Accessor) GetPoolByAddress(address common.Address) (V3Pool, bool) {
	if a == nil {
		return V3Pool{}, false
	}
	p, ok := a.byAddress[address]
	return p, ok
}

// AllPools returns the pools in load order.
func (a *V3Accessor) AllPools() []V3Pool {
	if a == nil {
		return nil
	}
	return append([]V3Pool(nil), a.ordered...)
}

// V2Accessor looks up loaded V2 pairs.
type V2Accessor struct {
	byKey     map[string]V2Pair
	byAddress map[common.Address]V2Pair
	ordered   []V2Pair
}

func NewV2Accessor(pairs []V2Pair) *V2Accessor {
	a := &V2Accessor{
		byKey:     make(map[string]V2Pair, len(pairs)),
		byAddress: make(map[common.Address]V2Pair, len(pairs)),
	}
	for _, p := range pairs {
		key := pairKey(p.Token0, p.Token1)
		if _, dup := a.byKey[key]; dup {
			continue
		}
		a.byKey[key] = p
		a.byAddress[p.Address] = p
		a.ordered = append(a.ordered, p)
	}
	return a
}

func (a *V2Accessor) GetPool(tokenA, tokenB currency.Token) (V2Pair, bool) {
	if a == nil {
		return V2Pair{}, false
	}
	p, ok := a.byKey[pairKey(tokenA, tokenB)]
	return p, ok
}

func (a *V2Accessor) GetPoolByAddress(address common.Address) (V2Pair, bool) {
	if a == nil {
		return V2Pair{}, false
	}
	p, ok := a.byAddress[address]
	return p, ok
}

func (a *V2Accessor) AllPools() []V2Pair {
	if a == nil {
		return nil
	}
	return append([]V2Pair(nil), a.ordered...)
}

// StaticV3Provider serves a fixed pool set, ignoring block pins.
type StaticV3Provider struct {
	Pools []V3Pool
}

func (p StaticV3Provider) GetPools(_ context.Context, keys []V3Key, _ ProviderOptions) (*V3Accessor, error) {
	all := NewV3Accessor(p.Pools)
	found := make([]V3Pool, 0, len(keys))
	for _, k := range keys {
		if pool, ok := all.GetPool(k.TokenA, k.TokenB, k.Fee); ok {
			found = append(found, pool)
		}
	}
	return NewV3Accessor(found), nil
}

// StaticV2Provider serves a fixed pair set, ignoring block pins.
type StaticV2Provider struct {
	Pairs []V2Pair
}

func (p StaticV2Provider) GetPools(_ context.Context, keys []V2Key, _ ProviderOptions) (*V2Accessor, error) {
	all := NewV2Accessor(p.Pairs)
	found := make([]V2Pair, 0, len(keys))
	for _, k := range keys {
		if pair, ok := all.GetPool(k.TokenA, k.TokenB); ok {
			found = append(found, pair)
		}
	}
	return NewV2Accessor(found), nil
}
