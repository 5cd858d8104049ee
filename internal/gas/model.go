package gas

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// Heuristic gas constants.
const (
	v3BaseSwapCost    = 2000
	v3CostPerHop      = 80000
	v3CostPerInitTick = 31000
	v2BaseSwapCost    = 135000
	v2CostPerExtraHop = 50000
)

// FactoryParams binds a gas model to one route request.
type FactoryParams struct {
	ChainID     chain.ChainID
	GasPriceWei *big.Int
	Providers   Providers
	QuoteToken  currency.Token
	L2GasData   *L2GasData
}

// ModelFactory builds a gas model for one protocol family.
type ModelFactory interface {
	BuildGasModel(ctx context.Context, p FactoryParams) (model.GasModel, error)
}

// CalldataBuilder encodes routes the way they would be executed, for L1 fee estimation.
type CalldataBuilder func(routes []*model.RouteWithValidQuote) ([]byte, error)

// pricing converts native gas costs into the quote token and USD with pools fetched once per model.
type pricing struct {
	chainID     chain.ChainID
	gasPriceWei *big.Int
	native      currency.Token
	quoteToken  currency.Token
	nativePool  pool.Pool
	usdPool     pool.Pool
}

func (p pricing) costs(gasUse *big.Int) (model.GasCost, error) {
	wei := new(big.Int).Mul(p.gasPriceWei, gasUse)
	nativeCost := GasCostInNativeCurrency(p.native, wei)
	return p.convert(gasUse, nativeCost)
}

func (p pricing) convert(gasUse *big.Int, nativeCost currency.CurrencyAmount) (model.GasCost, error) {
	usd, err := GasCostInUSD(p.usdPool, nativeCost)
	if err != nil {
		return model.GasCost{}, fmt.Errorf("gas cost in usd: %w", err)
	}

	var inToken currency.CurrencyAmount
	switch {
	case p.quoteToken.Equals(p.native):
		inToken = nativeCost
	case p.nativePool == nil:
		inToken = currency.Zero(currency.TokenCurrency(p.quoteToken))
	default:
		inToken, err = GasCostInQuoteToken(p.quoteToken, p.nativePool, nativeCost)
		if err != nil {
			return model.GasCost{}, fmt.Errorf("gas cost in quote token: %w", err)
		}
	}
	return model.GasCost{GasEstimate: gasUse, GasCostInToken: inToken, GasCostInUSD: usd}, nil
}

func newPricing(ctx context.Context, p FactoryParams, v3USD bool, logger *zap.Logger) (pricing, error) {
	native, err := chain.WrappedNative(p.ChainID)
	if err != nil {
		return pricing{}, err
	}
	out := pricing{
		chainID:     p.ChainID,
		gasPriceWei: orZero(p.GasPriceWei),
		native:      native,
		quoteToken:  p.QuoteToken,
	}

	if v3USD {
		usdPool, err := HighestLiquidityV3USDPool(ctx, p.ChainID, p.Providers.V3, p.Providers.Options, logger)
		if err != nil {
			return pricing{}, err
		}
		out.usdPool = usdPool
	} else {
		usdPair, err := HighestReserveV2USDPool(ctx, p.ChainID, p.Providers.V2, p.Providers.Options, logger)
		if err != nil {
			return pricing{}, err
		}
		out.usdPool = usdPair
	}

	if p.QuoteToken.Equals(native) {
		return out, nil
	}
	if v3USD {
		nativePool, err := HighestLiquidityV3NativePool(ctx, p.QuoteToken, p.Providers.V3, p.Providers.Options, logger)
		if err != nil {
			return pricing{}, err
		}
		if nativePool != nil {
			out.nativePool = *nativePool
			return out, nil
		}
	}
	if p.Providers.V2 != nil {
		pair, err := V2NativePool(ctx, p.QuoteToken, p.Providers.V2, p.Providers.Options, logger)
		if err != nil {
			return pricing{}, err
		}
		if pair != nil {
			out.nativePool = *pair
		}
	}
	return out, nil
}

func sumTicks(ticks []uint32) int64 {
	var total int64
	for _, t := range ticks {
		total += int64(t)
	}
	if total < 1 {
		total = 1
	}
	return total
}

// V3HeuristicFactory builds gas models for V3 routes.
type V3HeuristicFactory struct {
	Calldata CalldataBuilder
	Logger   *zap.Logger
}

type v3Model struct {
	pricing
	calldata CalldataBuilder
	l2       *L2GasData
}

func (f V3HeuristicFactory) BuildGasModel(ctx context.Context, p FactoryParams) (model.GasModel, error) {
	pr, err := newPricing(ctx, p, true, orNop(f.Logger))
	if err != nil {
		return nil, err
	}
	return &v3Model{pricing: pr, calldata: f.Calldata, l2: p.L2GasData}, nil
}

// EstimateGasCost charges a base cost, a cost per hop and a cost per initialized tick crossed.
func (m *v3Model) EstimateGasCost(r *model.RouteWithValidQuote) (model.GasCost, error) {
	hops := int64(len(r.PoolAddresses))
	gasUse := big.NewInt(v3BaseSwapCost + v3CostPerHop*hops + v3CostPerInitTick*sumTicks(r.InitializedTicksCrossedList))
	return m.costs(gasUse)
}

// CalculateL1GasFees prices the calldata of routes on rollups. Other chains pay nothing.
func (m *v3Model) CalculateL1GasFees(routes []*model.RouteWithValidQuote) (model.L1GasFees, error) {
	zeroUSD := currency.Zero(currency.TokenCurrency(m.usdToken()))
	zeroQuote := currency.Zero(currency.TokenCurrency(m.quoteToken))
	if !NeedsL2GasData(m.chainID) || m.calldata == nil {
		return model.L1GasFees{GasUsedL1: new(big.Int), GasCostL1USD: zeroUSD, GasCostL1QuoteToken: zeroQuote}, nil
	}
	data, err := m.calldata(routes)
	if err != nil {
		return model.L1GasFees{}, fmt.Errorf("build calldata for l1 fee: %w", err)
	}
	used, fee, err := L1Fee(m.chainID, data, m.l2)
	if err != nil {
		return model.L1GasFees{}, err
	}
	cost, err := m.convert(used, GasCostInNativeCurrency(m.native, fee))
	if err != nil {
		return model.L1GasFees{}, err
	}
	return model.L1GasFees{GasUsedL1: used, GasCostL1USD: cost.GasCostInUSD, GasCostL1QuoteToken: cost.GasCostInToken}, nil
}

func (m *v3Model) usdToken() currency.Token {
	t0, t1 := m.usdPool.Tokens()
	if t0.Equals(m.native) {
		return t1
	}
	return t0
}

// V2HeuristicFactory builds gas models for V2 routes.
type V2HeuristicFactory struct {
	Logger *zap.Logger
}

type v2Model struct {
	pricing
}

func (f V2HeuristicFactory) BuildGasModel(ctx context.Context, p FactoryParams) (model.GasModel, error) {
	pr, err := newPricing(ctx, p, false, orNop(f.Logger))
	if err != nil {
		return nil, err
	}
	return &v2Model{pricing: pr}, nil
}

// EstimateGasCost charges a base cost and a cost per hop beyond the first.
func (m *v2Model) EstimateGasCost(r *model.RouteWithValidQuote) (model.GasCost, error) {
	hops := int64(len(r.PoolAddresses))
	gasUse := big.NewInt(v2BaseSwapCost + v2CostPerExtraHop*(hops-1))
	return m.costs(gasUse)
}

// MixedHeuristicFactory builds gas models for mixed routes.
type MixedHeuristicFactory struct {
	Logger *zap.Logger
}

type mixedModel struct {
	pricing
}

func (f MixedHeuristicFactory) BuildGasModel(ctx context.Context, p FactoryParams) (model.GasModel, error) {
	pr, err := newPricing(ctx, p, true, orNop(f.Logger))
	if err != nil {
		return nil, err
	}
	return &mixedModel{pricing: pr}, nil
}

// EstimateGasCost charges each same-protocol section of the route as its own swap, plus the ticks
// crossed by its V3 hops.
func (m *mixedModel) EstimateGasCost(r *model.RouteWithValidQuote) (model.GasCost, error) {
	var gasUse int64
	for _, section := range PartitionByProtocol(model.RoutePools(r.Route)) {
		if isV3(section[0]) {
			gasUse += v3BaseSwapCost + v3CostPerHop*int64(len(section))
		} else {
			gasUse += v2BaseSwapCost + v2CostPerExtraHop*int64(len(section)-1)
		}
	}
	gasUse += v3CostPerInitTick * sumTicks(r.InitializedTicksCrossedList)
	return m.costs(big.NewInt(gasUse))
}

// PartitionByProtocol splits pools into maximal runs of the same family.
func PartitionByProtocol(pools []pool.Pool) [][]pool.Pool {
	var sections [][]pool.Pool
	for i, p := range pools {
		if i == 0 || isV3(p) != isV3(pools[i-1]) {
			sections = append(sections, []pool.Pool{p})
			continue
		}
		sections[len(sections)-1] = append(sections[len(sections)-1], p)
	}
	return sections
}

func isV3(p pool.Pool) bool {
	_, ok := p.(pool.V3Pool)
	return ok
}
