package gas

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/pool"
)

// ErrNoUSDPool is returned when no wrapped-native/USD pool exists for gas accounting.
var ErrNoUSDPool = errors.New("no usd pool for computing gas costs")

// GasCostInNativeCurrency wraps a wei amount as the chain's wrapped native token.
func GasCostInNativeCurrency(native currency.Token, gasCostWei *big.Int) currency.CurrencyAmount {
	return currency.FromRawAmount(currency.TokenCurrency(native), gasCostWei)
}

// GasCostInUSD quotes a native cost through a native/USD pool.
func GasCostInUSD(usdPool pool.Pool, nativeCost currency.CurrencyAmount) (currency.CurrencyAmount, error) {
	token0, _ := usdPool.Tokens()
	price := usdPool.Token1Price()
	if token0.Address == nativeCost.Currency.Wrapped().Address {
		price = usdPool.Token0Price()
	}
	return price.Quote(nativeCost)
}

// GasCostInQuoteToken quotes a native cost through a native/quote-token pool.
func GasCostInQuoteToken(quoteToken currency.Token, nativePool pool.Pool, nativeCost currency.CurrencyAmount) (currency.CurrencyAmount, error) {
	token0, _ := nativePool.Tokens()
	price := nativePool.Token0Price()
	if token0.Address == quoteToken.Address {
		price = nativePool.Token1Price()
	}
	return price.Quote(nativeCost)
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func maxLiquidity(pools []pool.V3Pool) pool.V3Pool {
	best := pools[0]
	for _, p := range pools[1:] {
		if p.Liquidity != nil && (best.Liquidity == nil || p.Liquidity.Cmp(best.Liquidity) > 0) {
			best = p
		}
	}
	return best
}

// HighestLiquidityV3NativePool returns the deepest wrapped-native/token pool across the fee tiers,
// or nil when none exists.
func HighestLiquidityV3NativePool(ctx context.Context, token currency.Token, provider pool.V3Provider, opts pool.ProviderOptions, logger *zap.Logger) (*pool.V3Pool, error) {
	native, err := chain.WrappedNative(chain.ChainID(token.ChainID))
	if err != nil {
		return nil, err
	}
	keys := make([]pool.V3Key, 0, len(pool.FeeTiers))
	for _, fee := range pool.FeeTiers {
		keys = append(keys, pool.V3Key{TokenA: native, TokenB: token, Fee: fee})
	}
	accessor, err := provider.GetPools(ctx, keys, opts)
	if err != nil {
		return nil, fmt.Errorf("load native pools: %w", err)
	}

	var pools []pool.V3Pool
	for _, fee := range pool.FeeTiers {
		if p, ok := accessor.GetPool(native, token, fee); ok {
			pools = append(pools, p)
		}
	}
	if len(pools) == 0 {
		orNop(logger).Error("could not find a native pool for computing gas costs",
			zap.String("native", native.Symbol),
			zap.String("token", token.Symbol),
		)
		return nil, nil
	}
	best := maxLiquidity(pools)
	return &best, nil
}

// HighestLiquidityV3USDPool returns the deepest wrapped-native/USD pool. Failing to find one is fatal.
func HighestLiquidityV3USDPool(ctx context.Context, chainID chain.ChainID, provider pool.V3Provider, opts pool.ProviderOptions, logger *zap.Logger) (pool.V3Pool, error) {
	usdTokens := chain.USDGasTokens(chainID)
	if len(usdTokens) == 0 {
		return pool.V3Pool{}, fmt.Errorf("%w: no usd tokens on chain %d", ErrNoUSDPool, chainID)
	}
	native, err := chain.WrappedNative(chainID)
	if err != nil {
		return pool.V3Pool{}, err
	}

	keys := make([]pool.V3Key, 0, len(pool.FeeTiers)*len(usdTokens))
	for _, fee := range pool.FeeTiers {
		for _, usd := range usdTokens {
			keys = append(keys, pool.V3Key{TokenA: native, TokenB: usd, Fee: fee})
		}
	}
	accessor, err := provider.GetPools(ctx, keys, opts)
	if err != nil {
		return pool.V3Pool{}, fmt.Errorf("load usd pools: %w", err)
	}

	var pools []pool.V3Pool
	for _, fee := range pool.FeeTiers {
		for _, usd := range usdTokens {
			if p, ok := accessor.GetPool(native, usd, fee); ok {
				pools = append(pools, p)
			}
		}
	}
	if len(pools) == 0 {
		orNop(logger).Error("could not find a usd pool for computing gas costs", zap.String("native", native.Symbol))
		return pool.V3Pool{}, fmt.Errorf("%w: usd/%s on chain %d", ErrNoUSDPool, native.Symbol, chainID)
	}
	return maxLiquidity(pools), nil
}

// V2NativePool returns the wrapped-native/token pair when both reserves are non-zero, else nil.
func V2NativePool(ctx context.Context, token currency.Token, provider pool.V2Provider, opts pool.ProviderOptions, logger *zap.Logger) (*pool.V2Pair, error) {
	native, err := chain.WrappedNative(chain.ChainID(token.ChainID))
	if err != nil {
		return nil, err
	}
	accessor, err := provider.GetPools(ctx, []pool.V2Key{{TokenA: native, TokenB: token}}, opts)
	if err != nil {
		return nil, fmt.Errorf("load native pair: %w", err)
	}
	pair, ok := accessor.GetPool(native, token)
	if !ok || pair.Reserve0 == nil || pair.Reserve1 == nil || pair.Reserve0.Sign() == 0 || pair.Reserve1.Sign() == 0 {
		orNop(logger).Error("could not find a valid native v2 pool for computing gas costs", zap.String("token", token.Symbol))
		return nil, nil
	}
	return &pair, nil
}

// HighestReserveV2USDPool returns the wrapped-native/USD pair holding the most native token.
func HighestReserveV2USDPool(ctx context.Context, chainID chain.ChainID, provider pool.V2Provider, opts pool.ProviderOptions, logger *zap.Logger) (pool.V2Pair, error) {
	native, err := chain.WrappedNative(chainID)
	if err != nil {
		return pool.V2Pair{}, err
	}
	usdTokens := chain.USDGasTokens(chainID)
	keys := make([]pool.V2Key, 0, len(usdTokens))
	for _, usd := range usdTokens {
		keys = append(keys, pool.V2Key{TokenA: native, TokenB: usd})
	}
	accessor, err := provider.GetPools(ctx, keys, opts)
	if err != nil {
		return pool.V2Pair{}, fmt.Errorf("load usd pairs: %w", err)
	}

	var (
		best  pool.V2Pair
		found bool
	)
	for _, usd := range usdTokens {
		pair, ok := accessor.GetPool(native, usd)
		if !ok {
			continue
		}
		if !found || pair.ReserveOf(native).Cmp(best.ReserveOf(native)) > 0 {
			best, found = pair, true
		}
	}
	if !found {
		orNop(logger).Error("could not find a usd pair for computing gas costs", zap.String("native", native.Symbol))
		return pool.V2Pair{}, fmt.Errorf("%w: usd/%s v2 pair on chain %d", ErrNoUSDPool, native.Symbol, chainID)
	}
	return best, nil
}
