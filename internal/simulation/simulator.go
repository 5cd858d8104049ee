package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/gas"
	"orderRouter/internal/model"
)

// DefaultEstimateMultiplier pads eth_estimateGas results.
var DefaultEstimateMultiplier = currency.NewFractionInt(12, 10)

// GasEstimator runs eth_estimateGas.
type GasEstimator interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// EthEstimateGasSimulator simulates SwapRouter02 calldata with eth_estimateGas and reprices the
// route with the estimate.
type EthEstimateGasSimulator struct {
	chainID    chain.ChainID
	router     common.Address
	estimator  GasEstimator
	balances   BalanceReader
	providers  gas.Providers
	multiplier currency.Fraction
	logger     *zap.Logger
}

func NewEthEstimateGasSimulator(chainID chain.ChainID, estimator GasEstimator, balances BalanceReader, providers gas.Providers, logger *zap.Logger) (*EthEstimateGasSimulator, error) {
	if estimator == nil || balances == nil {
		return nil, errors.New("simulation: estimator and balance reader are required")
	}
	addrs, err := chain.AddressesFor(chainID)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EthEstimateGasSimulator{
		chainID:    chainID,
		router:     addrs.SwapRouter02,
		estimator:  estimator,
		balances:   balances,
		providers:  providers,
		multiplier: DefaultEstimateMultiplier,
		logger:     logger,
	}, nil
}

// WithEstimateMultiplier replaces the padding applied to gas estimates.
func (s *EthEstimateGasSimulator) WithEstimateMultiplier(m currency.Fraction) *EthEstimateGasSimulator {
	s.multiplier = m
	return s
}

// Simulate returns a copy of route carrying the simulation status. On success the gas figures
// come from the padded estimate instead of the heuristic models.
func (s *EthEstimateGasSimulator) Simulate(
	ctx context.Context,
	from common.Address,
	cfg model.SwapConfig,
	route *model.SwapRoute,
	amount, quote currency.CurrencyAmount,
	l2 *gas.L2GasData,
	blockNumber *big.Int,
) (*model.SwapRoute, error) {
	if route.MethodParameters == nil {
		return nil, errors.New("simulation needs method parameters")
	}
	if !UserHasSufficientBalance(ctx, s.balances, from, route.Trade.TradeType, amount, quote, blockNumber, s.logger) {
		s.logger.Error("user does not have sufficient balance to simulate", zap.String("from", from.Hex()))
		return withStatus(route, model.SimulationInsufficientBalance), nil
	}

	input := route.Trade.InputAmount()
	if !input.Currency.IsNative {
		approved, err := s.approved(ctx, from, route, blockNumber)
		if err != nil {
			s.logger.Error("error while checking token approval", zap.Error(err))
			return withStatus(route, model.SimulationFailed), nil
		}
		if !approved {
			s.logger.Info("token not approved for simulation", zap.String("token", input.Currency.String()))
			return withStatus(route, model.SimulationNotApproved), nil
		}
	}

	msg := ethereum.CallMsg{
		From:  from,
		To:    &s.router,
		Data:  route.MethodParameters.Calldata,
		Value: new(big.Int),
	}
	if input.Currency.IsNative && route.MethodParameters.Value != nil {
		msg.Value = route.MethodParameters.Value.ToInt()
	}
	estimate, err := s.estimator.EstimateGas(ctx, msg)
	if err != nil {
		s.logger.Error("error estimating gas", zap.Error(err), zap.String("from", from.Hex()))
		return withStatus(route, model.SimulationFailed), nil
	}
	gasUsed := currency.FractionFromInt(new(big.Int).SetUint64(estimate)).Multiply(s.multiplier).Quotient()

	used, err := gas.CalculateGasUsed(ctx, s.chainID, route, gasUsed, s.providers, l2, s.logger)
	if err != nil {
		return nil, fmt.Errorf("gas used: %w", err)
	}
	out, err := gas.InitSwapRouteFromExisting(route, used.QuoteGasAdjusted, gasUsed, used.GasCostQuoteToken, used.GasCostUSD)
	if err != nil {
		return nil, fmt.Errorf("rebuild swap route: %w", err)
	}
	out.SimulationStatus = model.SimulationSucceeded
	s.logger.Info("simulated transaction",
		zap.String("estimated_gas_used", gasUsed.String()),
		zap.String("quote_gas_adjusted", used.QuoteGasAdjusted.ToExact()),
	)
	return out, nil
}

func (s *EthEstimateGasSimulator) approved(ctx context.Context, from common.Address, route *model.SwapRoute, blockNumber *big.Int) (bool, error) {
	token := route.Trade.InputCurrency.Wrapped().Address
	allowance, err := s.balances.Allowance(ctx, token, from, s.router, blockNumber)
	if err != nil {
		return false, err
	}
	return allowance.Cmp(route.Trade.InputAmount().Quotient()) >= 0, nil
}

func withStatus(route *model.SwapRoute, status model.SimulationStatus) *model.SwapRoute {
	out := *route
	out.SimulationStatus = status
	return &out
}
