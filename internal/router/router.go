// Package router finds the best split of a trade across V2, V3 and mixed routes.
package router

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/dex"
	"orderRouter/internal/gas"
	"orderRouter/internal/model"
	"orderRouter/internal/quoter"
	"orderRouter/internal/swaprouter"
)

// ErrSimulatorNotInitialized is returned when a simulation is requested without a simulator.
var ErrSimulatorNotInitialized = errors.New("simulator not initialized")

// BlockNumberSource resolves the block every read of a request is pinned to.
type BlockNumberSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// GasPriceProvider returns the current gas price.
type GasPriceProvider interface {
	GetGasPrice(ctx context.Context) (dex.GasPrice, error)
}

// Simulator executes a routed swap off-chain and reports the outcome on the returned route.
type Simulator interface {
	Simulate(
		ctx context.Context,
		from common.Address,
		cfg model.SwapConfig,
		route *model.SwapRoute,
		amount, quote currency.CurrencyAmount,
		l2 *gas.L2GasData,
		blockNumber *big.Int,
	) (*model.SwapRoute, error)
}

// Deps are the router's collaborators. L2GasData and Simulator may be nil; everything else is
// required.
type Deps struct {
	ChainID      chain.ChainID
	BlockNumbers BlockNumberSource
	GasPrices    GasPriceProvider
	L2GasData    dex.L2GasDataProvider

	V3GasModels    gas.ModelFactory
	MixedGasModels gas.ModelFactory
	// GasPools prices gas in the quote token and USD.
	GasPools gas.Providers

	V2Quoter    quoter.Quoter
	V3Quoter    quoter.Quoter
	MixedQuoter quoter.Quoter
	Selector    BestRouteSelector
	Simulator   Simulator

	// MixedChains allows mixed routes. Trades on other chains never query the mixed quoter.
	MixedChains  []chain.ChainID
	BlockBackoff chain.Backoff
	Metrics      Metrics
	Logger       *zap.Logger
}

// AlphaRouter fans a trade out to every applicable quoter and picks the best split.
type AlphaRouter struct {
	deps   Deps
	logger *zap.Logger
}

func New(d Deps) (*AlphaRouter, error) {
	switch {
	case d.BlockNumbers == nil:
		return nil, errors.New("router: block number source is required")
	case d.GasPrices == nil:
		return nil, errors.New("router: gas price provider is required")
	case d.V3GasModels == nil || d.MixedGasModels == nil:
		return nil, errors.New("router: gas model factories are required")
	case d.V2Quoter == nil || d.V3Quoter == nil || d.MixedQuoter == nil:
		return nil, errors.New("router: quoters are required")
	case d.Selector == nil:
		return nil, errors.New("router: best route selector is required")
	case d.Metrics == nil:
		return nil, errors.New("router: metrics are required")
	}
	return &AlphaRouter{deps: d, logger: orNop(d.Logger)}, nil
}

// ChainID is the chain the router quotes on.
func (r *AlphaRouter) ChainID() chain.ChainID { return r.deps.ChainID }

// CurrenciesForTrade orders (amount's currency, quote currency) into (in, out).
func CurrenciesForTrade(tradeType model.TradeType, amount currency.CurrencyAmount, quoteCurrency currency.Currency) (currency.Currency, currency.Currency) {
	if tradeType == model.ExactInput {
		return amount.Currency, quoteCurrency
	}
	return quoteCurrency, amount.Currency
}

// Route finds the best swap of amount against quoteCurrency. A nil route with a nil error means
// no route was found.
func (r *AlphaRouter) Route(
	ctx context.Context,
	amount currency.CurrencyAmount,
	quoteCurrency currency.Currency,
	tradeType model.TradeType,
	swapConfig *model.SwapConfig,
	cfg model.RoutingConfig,
) (*model.SwapRoute, error) {
	m := r.deps.Metrics
	chainID := r.deps.ChainID
	m.Count(fmt.Sprintf("QuoteRequestedForChain%d", chainID), 1)

	cfg = withDefaults(cfg)
	if cfg.BlockNumber == nil {
		block, err := r.blockNumber(ctx)
		if err != nil {
			return nil, err
		}
		cfg.BlockNumber = block
	}

	currencyIn, currencyOut := CurrenciesForTrade(tradeType, amount, quoteCurrency)
	tokenIn, tokenOut := currencyIn.Wrapped(), currencyOut.Wrapped()
	quoteToken := quoteCurrency.Wrapped()

	percents, amounts, err := AmountDistribution(amount, cfg.DistributionPercent)
	if err != nil {
		return nil, err
	}

	gasPriceWei, err := r.gasPrice(ctx)
	if err != nil {
		return nil, err
	}

	queryV2, queryV3, queryMixed := r.protocolsFor(tradeType, cfg)

	var l2 *gas.L2GasData
	if r.deps.L2GasData != nil {
		if l2, err = r.deps.L2GasData.GetGasData(ctx); err != nil {
			return nil, fmt.Errorf("l2 gas data: %w", err)
		}
	}
	v3Model, mixedModel, err := r.gasModels(ctx, gasPriceWei, quoteToken, l2, cfg, queryMixed)
	if err != nil {
		return nil, err
	}

	req := quoter.Request{
		TokenIn:       tokenIn,
		TokenOut:      tokenOut,
		Amounts:       amounts,
		Percents:      percents,
		QuoteToken:    quoteToken,
		TradeType:     tradeType,
		RoutingConfig: cfg,
		GasPriceWei:   gasPriceWei,
	}
	type job struct {
		q  quoter.Quoter
		gm model.GasModel
	}
	var jobs []job
	if queryV2 {
		jobs = append(jobs, job{q: r.deps.V2Quoter})
	}
	if queryV3 {
		jobs = append(jobs, job{q: r.deps.V3Quoter, gm: v3Model})
	}
	if queryMixed {
		jobs = append(jobs, job{q: r.deps.MixedQuoter, gm: mixedModel})
	}

	results := make([]quoter.Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		i, j := i, j
		r.logger.Info("routing across protocol",
			zap.String("protocol", string(j.q.Protocol())),
			zap.Stringer("trade_type", tradeType))
		g.Go(func() error {
			jr := req
			jr.GasModel = j.gm
			res, err := j.q.GetRoutesThenQuotes(gctx, jr)
			if err != nil {
				return fmt.Errorf("%s quoter: %w", j.q.Protocol(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		allRoutes     []*model.RouteWithValidQuote
		allCandidates []*quoter.CandidatePools
	)
	for _, res := range results {
		allRoutes = append(allRoutes, res.Routes...)
		if res.CandidatePools != nil {
			allCandidates = append(allCandidates, res.CandidatePools)
		}
	}
	if len(allRoutes) == 0 {
		r.logger.Info("received no valid quotes")
		return nil, nil
	}

	beforeBestSwap := time.Now()
	best, err := r.deps.Selector.GetBestSwapRoute(ctx, SelectorParams{
		Amount:        amount,
		Percents:      percents,
		Routes:        allRoutes,
		TradeType:     tradeType,
		ChainID:       chainID,
		RoutingConfig: cfg,
		GasModel:      v3Model,
	})
	if err != nil {
		return nil, fmt.Errorf("best swap route: %w", err)
	}
	if best == nil {
		return nil, nil
	}

	trade, err := model.BuildTrade(currencyIn, currencyOut, tradeType, best.Routes)
	if err != nil {
		return nil, err
	}
	var methodParameters *model.MethodParameters
	if swapConfig != nil {
		if methodParameters, err = swaprouter.BuildSwapMethodParameters(chainID, trade, *swapConfig); err != nil {
			return nil, fmt.Errorf("build method parameters: %w", err)
		}
	}
	timeSince(m, "FindBestSwapRoute", beforeBestSwap)
	m.Count(fmt.Sprintf("QuoteFoundForChain%d", chainID), 1)
	emitPoolSelectionMetrics(m, chainID, best.Routes, allCandidates)

	swapRoute := &model.SwapRoute{
		Quote:                      best.Quote,
		QuoteGasAdjusted:           best.QuoteGasAdjusted,
		EstimatedGasUsed:           best.EstimatedGasUsed,
		EstimatedGasUsedQuoteToken: best.EstimatedGasUsedQuoteToken,
		EstimatedGasUsedUSD:        best.EstimatedGasUsedUSD,
		GasPriceWei:                gasPriceWei,
		Route:                      best.Routes,
		Trade:                      trade,
		MethodParameters:           methodParameters,
		BlockNumber:                new(big.Int).Set(cfg.BlockNumber),
	}

	if swapConfig == nil || swapConfig.Simulate == nil || methodParameters == nil || len(methodParameters.Calldata) == 0 {
		return swapRoute, nil
	}
	if r.deps.Simulator == nil {
		return nil, ErrSimulatorNotInitialized
	}
	r.logger.Info("starting simulation",
		zap.String("from", swapConfig.Simulate.FromAddress.Hex()),
		zap.String("to", methodParameters.To.Hex()))
	beforeSimulate := time.Now()
	// The quote is in the wrapped token even when quoteCurrency is native.
	quote := currency.FromRawAmount(quoteCurrency, best.Quote.Quotient())
	simulated, err := r.deps.Simulator.Simulate(ctx, swapConfig.Simulate.FromAddress, *swapConfig, swapRoute, amount, quote, l2, cfg.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	timeSince(m, "SimulateTransaction", beforeSimulate)
	return simulated, nil
}

// protocolsFor decides which quoters run. No explicit protocols means every protocol the chain
// supports. Mixed routes also need an allowed chain and an exact-input trade.
func (r *AlphaRouter) protocolsFor(tradeType model.TradeType, cfg model.RoutingConfig) (v2, v3, mixed bool) {
	none := len(cfg.Protocols) == 0
	v2Supported := chain.SupportsV2(r.deps.ChainID)

	v3 = none || cfg.HasProtocol(model.ProtocolV3)
	v2 = v2Supported && (none || cfg.HasProtocol(model.ProtocolV2))
	wantMixed := cfg.HasProtocol(model.ProtocolMixed) || (none && v2Supported)
	mixedAllowed := chain.Contains(r.deps.MixedChains, r.deps.ChainID) && tradeType == model.ExactInput
	return v2, v3, wantMixed && mixedAllowed
}

func (r *AlphaRouter) blockNumber(ctx context.Context) (*big.Int, error) {
	var block uint64
	err := chain.WithRetry(ctx, r.deps.BlockBackoff, func(ctx context.Context) error {
		var err error
		block, err = r.deps.BlockNumbers.BlockNumber(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("block number: %w", err)
	}
	return new(big.Int).SetUint64(block), nil
}

func (r *AlphaRouter) gasPrice(ctx context.Context) (*big.Int, error) {
	defer timeSince(r.deps.Metrics, "GasPriceLoad", time.Now())
	price, err := r.deps.GasPrices.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	return price.GasPriceWei, nil
}

// gasModels builds the V3 and mixed gas models concurrently. V2 builds its own per quote call.
func (r *AlphaRouter) gasModels(ctx context.Context, gasPriceWei *big.Int, quoteToken currency.Token, l2 *gas.L2GasData, cfg model.RoutingConfig, withMixed bool) (model.GasModel, model.GasModel, error) {
	defer timeSince(r.deps.Metrics, "GasModelCreation", time.Now())
	providers := r.deps.GasPools
	providers.Options.BlockNumber = cfg.BlockNumber
	params := gas.FactoryParams{
		ChainID:     r.deps.ChainID,
		GasPriceWei: gasPriceWei,
		Providers:   providers,
		QuoteToken:  quoteToken,
		L2GasData:   l2,
	}

	var v3Model, mixedModel model.GasModel
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gm, err := r.deps.V3GasModels.BuildGasModel(gctx, params)
		if err != nil {
			return fmt.Errorf("v3 gas model: %w", err)
		}
		v3Model = gm
		return nil
	})
	if withMixed {
		g.Go(func() error {
			mixedParams := params
			mixedParams.L2GasData = nil
			gm, err := r.deps.MixedGasModels.BuildGasModel(gctx, mixedParams)
			if err != nil {
				return fmt.Errorf("mixed gas model: %w", err)
			}
			mixedModel = gm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return v3Model, mixedModel, nil
}

// withDefaults fills unset numeric options from DefaultRoutingConfig.
func withDefaults(cfg model.RoutingConfig) model.RoutingConfig {
	def := model.DefaultRoutingConfig()
	if cfg.DistributionPercent == 0 {
		cfg.DistributionPercent = def.DistributionPercent
	}
	if cfg.MaxSwapsPerPath == 0 {
		cfg.MaxSwapsPerPath = def.MaxSwapsPerPath
	}
	if cfg.MinSplits == 0 {
		cfg.MinSplits = def.MinSplits
	}
	if cfg.MaxSplits == 0 {
		cfg.MaxSplits = def.MaxSplits
	}
	if cfg.TopN == 0 {
		cfg.TopN = def.TopN
	}
	if cfg.TopNDirect == 0 {
		cfg.TopNDirect = def.TopNDirect
	}
	if cfg.TopNTokenInOut == 0 {
		cfg.TopNTokenInOut = def.TopNTokenInOut
	}
	return cfg
}
