package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/pool"
)

// snapshotKey scopes a cached pool read to one block. Reads at latest are never cached.
type snapshotKey struct {
	address common.Address
	block   string
}

func cacheKey(address common.Address, block *big.Int) (snapshotKey, bool) {
	if block == nil {
		return snapshotKey{}, false
	}
	return snapshotKey{address: address, block: block.String()}, true
}

type v3State struct {
	exists       bool
	sqrtPriceX96 *big.Int
	liquidity    *big.Int
	tick         int
}

// V3PoolProvider reads slot0 and liquidity of CREATE2-derived pool addresses.
type V3PoolProvider struct {
	caller    Caller
	factory   common.Address
	chunkSize int
	cache     *lru.Cache[snapshotKey, v3State]
	logger    *zap.Logger
}

// NewV3PoolProvider creates a provider batching reads in chunks of chunkSize calls.
func NewV3PoolProvider(caller Caller, chainID chain.ChainID, chunkSize, cacheSize int, logger *zap.Logger) (*V3PoolProvider, error) {
	addrs, err := chain.AddressesFor(chainID)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[snapshotKey, v3State](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("v3 pool cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &V3PoolProvider{caller: caller, factory: addrs.V3Factory, chunkSize: chunkSize, cache: cache, logger: logger}, nil
}

// GetPools loads every key. Pools whose calls fail or whose liquidity is zero are absent.
func (p *V3PoolProvider) GetPools(ctx context.Context, keys []pool.V3Key, opts pool.ProviderOptions) (*pool.V3Accessor, error) {
	poolABI, err := v3PoolABI.get()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	type pending struct {
		key     pool.V3Key
		address common.Address
	}
	seen := make(map[common.Address]bool, len(keys))
	states := make(map[common.Address]v3State, len(keys))
	var (
		ordered []pending
		misses  []pending
	)
	for _, k := range keys {
		addr := ComputeV3PoolAddress(p.factory, k.TokenA.Address, k.TokenB.Address, k.Fee)
		if seen[addr] {
			continue
		}
		seen[addr] = true
		ordered = append(ordered, pending{key: k, address: addr})
		if ck, ok := cacheKey(addr, opts.BlockNumber); ok {
			if st, hit := p.cache.Get(ck); hit {
				states[addr] = st
				continue
			}
		}
		misses = append(misses, pending{key: k, address: addr})
	}

	if len(misses) > 0 {
		slot0Data, err := poolABI.Pack("slot0")
		if err != nil {
			return nil, fmt.Errorf("pack slot0: %w", err)
		}
		liquidityData, err := poolABI.Pack("liquidity")
		if err != nil {
			return nil, fmt.Errorf("pack liquidity: %w", err)
		}
		calls := make([]chain.CallRequest, 0, 2*len(misses))
		for _, m := range misses {
			calls = append(calls,
				chain.CallRequest{To: m.address, Data: slot0Data},
				chain.CallRequest{To: m.address, Data: liquidityData},
			)
		}
		results, err := batchCalls(ctx, p.caller, calls, opts.BlockNumber, p.chunkSize)
		if err != nil {
			return nil, fmt.Errorf("load v3 pools: %w", err)
		}
		for i, m := range misses {
			st, err := parseV3State(poolABI, results[2*i], results[2*i+1])
			if err != nil {
				p.logger.Debug("v3 pool unavailable", zap.String("pool", m.address.Hex()), zap.Error(err))
			}
			states[m.address] = st
			if ck, ok := cacheKey(m.address, opts.BlockNumber); ok {
				p.cache.Add(ck, st)
			}
		}
	}

	pools := make([]pool.V3Pool, 0, len(ordered))
	for _, o := range ordered {
		st := states[o.address]
		if !st.exists {
			continue
		}
		pools = append(pools, pool.NewV3Pool(o.address, o.key.TokenA, o.key.TokenB, o.key.Fee,
			new(big.Int).Set(st.sqrtPriceX96), new(big.Int).Set(st.liquidity), st.tick))
	}
	return pool.NewV3Accessor(pools), nil
}

func parseV3State(poolABI abi.ABI, slot0, liquidity chain.CallResult) (v3State, error) {
	if slot0.Err != nil {
		return v3State{}, slot0.Err
	}
	if liquidity.Err != nil {
		return v3State{}, liquidity.Err
	}
	if len(slot0.Data) == 0 || len(liquidity.Data) == 0 {
		return v3State{}, fmt.Errorf("no pool code")
	}
	values, err := poolABI.Unpack("slot0", slot0.Data)
	if err != nil {
		return v3State{}, fmt.Errorf("unpack slot0: %w", err)
	}
	if len(values) < 2 {
		return v3State{}, fmt.Errorf("slot0 return size %d", len(values))
	}
	sqrt, err := asBigInt(values[0])
	if err != nil {
		return v3State{}, fmt.Errorf("sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return v3State{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return v3State{}, err
	}
	values, err = poolABI.Unpack("liquidity", liquidity.Data)
	if err != nil {
		return v3State{}, fmt.Errorf("unpack liquidity: %w", err)
	}
	liq, err := asBigInt(values[0])
	if err != nil {
		return v3State{}, fmt.Errorf("liquidity: %w", err)
	}
	if liq.Sign() == 0 || sqrt.Sign() == 0 {
		return v3State{}, nil
	}
	return v3State{exists: true, sqrtPriceX96: sqrt, liquidity: liq, tick: tick}, nil
}

type v2State struct {
	exists   bool
	reserve0 *big.Int
	reserve1 *big.Int
}

// V2PoolProvider reads getReserves of CREATE2-derived pair addresses.
type V2PoolProvider struct {
	caller    Caller
	factory   common.Address
	chunkSize int
	cache     *lru.Cache[snapshotKey, v2State]
	logger    *zap.Logger
}

// NewV2PoolProvider creates a pair provider. It fails on chains without a V2 factory.
func NewV2PoolProvider(caller Caller, chainID chain.ChainID, chunkSize, cacheSize int, logger *zap.Logger) (*V2PoolProvider, error) {
	addrs, err := chain.AddressesFor(chainID)
	if err != nil {
		return nil, err
	}
	if addrs.V2Factory == (common.Address{}) {
		return nil, fmt.Errorf("no v2 factory on chain %d", chainID)
	}
	cache, err := lru.New[snapshotKey, v2State](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("v2 pair cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &V2PoolProvider{caller: caller, factory: addrs.V2Factory, chunkSize: chunkSize, cache: cache, logger: logger}, nil
}

// GetPools loads every key. Pairs whose call fails are absent.
func (p *V2PoolProvider) GetPools(ctx context.Context, keys []pool.V2Key, opts pool.ProviderOptions) (*pool.V2Accessor, error) {
	pairABI, err := v2PairABI.get()
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}
	data, err := pairABI.Pack("getReserves")
	if err != nil {
		return nil, fmt.Errorf("pack getReserves: %w", err)
	}

	type pending struct {
		key     pool.V2Key
		address common.Address
	}
	seen := make(map[common.Address]bool, len(keys))
	states := make(map[common.Address]v2State, len(keys))
	var (
		ordered []pending
		calls   []chain.CallRequest
		misses  []pending
	)
	for _, k := range keys {
		addr := ComputeV2PairAddress(p.factory, k.TokenA.Address, k.TokenB.Address)
		if seen[addr] {
			continue
		}
		seen[addr] = true
		ordered = append(ordered, pending{key: k, address: addr})
		if ck, ok := cacheKey(addr, opts.BlockNumber); ok {
			if st, hit := p.cache.Get(ck); hit {
				states[addr] = st
				continue
			}
		}
		misses = append(misses, pending{key: k, address: addr})
		calls = append(calls, chain.CallRequest{To: addr, Data: data})
	}

	if len(calls) > 0 {
		results, err := batchCalls(ctx, p.caller, calls, opts.BlockNumber, p.chunkSize)
		if err != nil {
			return nil, fmt.Errorf("load v2 pairs: %w", err)
		}
		for i, m := range misses {
			var st v2State
			values, err := unpackResult(pairABI, "getReserves", results[i])
			if err == nil && len(values) >= 2 {
				r0, err0 := asBigInt(values[0])
				r1, err1 := asBigInt(values[1])
				if err0 == nil && err1 == nil {
					st = v2State{exists: true, reserve0: r0, reserve1: r1}
				}
			} else {
				p.logger.Debug("v2 pair unavailable", zap.String("pair", m.address.Hex()), zap.Error(err))
			}
			states[m.address] = st
			if ck, ok := cacheKey(m.address, opts.BlockNumber); ok {
				p.cache.Add(ck, st)
			}
		}
	}

	pairs := make([]pool.V2Pair, 0, len(ordered))
	for _, o := range ordered {
		st := states[o.address]
		if !st.exists {
			continue
		}
		// reserves are in token0/token1 order; NewV2Pair expects them aligned with its arguments.
		tokenA, tokenB := o.key.TokenA, o.key.TokenB
		r0, r1 := new(big.Int).Set(st.reserve0), new(big.Int).Set(st.reserve1)
		if !tokenA.SortsBefore(tokenB) {
			r0, r1 = r1, r0
		}
		pairs = append(pairs, pool.NewV2Pair(o.address, tokenA, tokenB, r0, r1))
	}
	return pool.NewV2Accessor(pairs), nil
}
