package gas

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// GasUsed is the gas accounting of a simulated swap route.
type GasUsed struct {
	GasCostUSD        currency.CurrencyAmount
	GasCostQuoteToken currency.CurrencyAmount
	QuoteGasAdjusted  currency.CurrencyAmount
}

// Providers bundles the pool sources gas accounting quotes through.
type Providers struct {
	V2      pool.V2Provider
	V3      pool.V3Provider
	Options pool.ProviderOptions
}

// CalculateGasUsed prices simulatedGasUsed at the route's gas price, adds the L1 fee on rollups,
// and converts the cost into USD and the quote token.
func CalculateGasUsed(ctx context.Context, chainID chain.ChainID, route *model.SwapRoute, simulatedGasUsed *big.Int, providers Providers, l2 *L2GasData, logger *zap.Logger) (GasUsed, error) {
	logger = orNop(logger)
	quoteToken := route.Quote.Currency.Wrapped()

	l1FeeWei := new(big.Int)
	if NeedsL2GasData(chainID) {
		if route.MethodParameters == nil {
			return GasUsed{}, errors.New("l1 fee needs method parameters")
		}
		_, fee, err := L1Fee(chainID, route.MethodParameters.Calldata, l2)
		if err != nil {
			return GasUsed{}, err
		}
		l1FeeWei = fee
	}

	gasCostWei := new(big.Int).Mul(orZero(route.GasPriceWei), orZero(simulatedGasUsed))
	gasCostWei.Add(gasCostWei, l1FeeWei)

	native, err := chain.WrappedNative(chainID)
	if err != nil {
		return GasUsed{}, err
	}
	nativeCost := GasCostInNativeCurrency(native, gasCostWei)

	usdPool, err := HighestLiquidityV3USDPool(ctx, chainID, providers.V3, providers.Options, logger)
	if err != nil {
		return GasUsed{}, err
	}
	gasCostUSD, err := GasCostInUSD(usdPool, nativeCost)
	if err != nil {
		return GasUsed{}, fmt.Errorf("gas cost in usd: %w", err)
	}

	gasCostQuote := nativeCost
	if !quoteToken.Equals(native) {
		gasCostQuote, err = quoteThroughNativePool(ctx, quoteToken, nativeCost, providers, logger)
		if err != nil {
			return GasUsed{}, err
		}
	}
	gasCostQuote = currency.CurrencyAmount{Currency: route.Quote.Currency, Fraction: gasCostQuote.Fraction}

	adjusted, err := model.AdjustQuoteForGas(route.Quote, gasCostQuote, route.Trade.TradeType)
	if err != nil {
		return GasUsed{}, err
	}
	return GasUsed{GasCostUSD: gasCostUSD, GasCostQuoteToken: gasCostQuote, QuoteGasAdjusted: adjusted}, nil
}

// quoteThroughNativePool converts through the V3 native pool, then the V2 pair. Without either the
// cost degrades to zero.
func quoteThroughNativePool(ctx context.Context, quoteToken currency.Token, nativeCost currency.CurrencyAmount, providers Providers, logger *zap.Logger) (currency.CurrencyAmount, error) {
	var nativePool pool.Pool
	v3Pool, err := HighestLiquidityV3NativePool(ctx, quoteToken, providers.V3, providers.Options, logger)
	if err != nil {
		return currency.CurrencyAmount{}, err
	}
	if v3Pool != nil {
		nativePool = *v3Pool
	} else if providers.V2 != nil {
		v2Pair, err := V2NativePool(ctx, quoteToken, providers.V2, providers.Options, logger)
		if err != nil {
			return currency.CurrencyAmount{}, err
		}
		if v2Pair != nil {
			nativePool = *v2Pair
		}
	}
	if nativePool == nil {
		logger.Info("could not find any v2 or v3 pools to convert the cost into the quote token",
			zap.String("quote_token", quoteToken.Symbol))
		return currency.Zero(currency.TokenCurrency(quoteToken)), nil
	}
	return GasCostInQuoteToken(quoteToken, nativePool, nativeCost)
}

// InitSwapRouteFromExisting copies a swap route with new gas figures. Routes are copied and the
// trade is rebuilt from them.
func InitSwapRouteFromExisting(sr *model.SwapRoute, quoteGasAdjusted currency.CurrencyAmount, estimatedGasUsed *big.Int, gasCostQuoteToken, gasCostUSD currency.CurrencyAmount) (*model.SwapRoute, error) {
	routes := make([]*model.RouteWithValidQuote, len(sr.Route))
	for i, r := range sr.Route {
		cp := *r
		cp.SqrtPriceX96AfterList = append([]*big.Int(nil), r.SqrtPriceX96AfterList...)
		cp.InitializedTicksCrossedList = append([]uint32(nil), r.InitializedTicksCrossedList...)
		routes[i] = &cp
	}
	trade, err := model.BuildTrade(sr.Trade.InputCurrency, sr.Trade.OutputCurrency, sr.Trade.TradeType, routes)
	if err != nil {
		return nil, err
	}

	out := &model.SwapRoute{
		Quote:                      sr.Quote,
		QuoteGasAdjusted:           quoteGasAdjusted,
		EstimatedGasUsed:           new(big.Int).Set(orZero(estimatedGasUsed)),
		EstimatedGasUsedQuoteToken: gasCostQuoteToken,
		EstimatedGasUsedUSD:        gasCostUSD,
		GasPriceWei:                new(big.Int).Set(orZero(sr.GasPriceWei)),
		Route:                      routes,
		Trade:                      trade,
		SimulationStatus:           sr.SimulationStatus,
	}
	if sr.BlockNumber != nil {
		out.BlockNumber = new(big.Int).Set(sr.BlockNumber)
	}
	if mp := sr.MethodParameters; mp != nil {
		cp := *mp
		out.MethodParameters = &cp
	}
	return out, nil
}
