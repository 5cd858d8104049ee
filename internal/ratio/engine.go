// Package ratio finds the swap that brings two balances to a position's deposit ratio.
package ratio

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/dex"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
	"orderRouter/internal/swaprouter"
)

// Router quotes the swap of each iteration.
type Router interface {
	ChainID() chain.ChainID
	Route(ctx context.Context, amount currency.CurrencyAmount, quoteCurrency currency.Currency, tradeType model.TradeType, swapConfig *model.SwapConfig, cfg model.RoutingConfig) (*model.SwapRoute, error)
}

// ApprovalProvider reports the approvals the final balances need.
type ApprovalProvider interface {
	GetApprovalType(ctx context.Context, tokenInAmount, tokenOutAmount currency.CurrencyAmount) (dex.ApprovalTypes, error)
}

// Engine runs the ratio-matching loop against a Router.
type Engine struct {
	router    Router
	approvals ApprovalProvider
	logger    *zap.Logger
}

func NewEngine(router Router, approvals ApprovalProvider, logger *zap.Logger) (*Engine, error) {
	if router == nil || approvals == nil {
		return nil, errors.New("ratio: router and approval provider are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{router: router, approvals: approvals, logger: logger}, nil
}

// RouteToRatio swaps part of one balance into the other until the pair matches position's
// ratio within cfg's tolerance. Only V3 and V2 routes are considered. With opts, a successful
// result also carries swap-and-add calldata.
func (e *Engine) RouteToRatio(
	ctx context.Context,
	token0Balance, token1Balance currency.CurrencyAmount,
	position pool.Position,
	cfg model.SwapAndAddConfig,
	opts *model.SwapAndAddOptions,
	routingConfig model.RoutingConfig,
) (*SwapToRatioResult, error) {
	state, err := NewState(token0Balance, token1Balance, position)
	if err != nil {
		return nil, err
	}
	routingConfig.Protocols = []model.Protocol{model.ProtocolV3, model.ProtocolV2}

	for {
		state.Iteration++
		if state.Iteration > cfg.MaxIterations {
			e.logger.Info(ReasonMaxIterations)
			return noRoute(ReasonMaxIterations), nil
		}
		amount, err := state.AmountToSwap()
		if err != nil {
			return nil, fmt.Errorf("route to ratio: %w", err)
		}
		if amount.IsZero() {
			e.logger.Info("no swap needed: amountToSwap = 0")
			return &SwapToRatioResult{Status: model.SwapToRatioNoSwapNeeded}, nil
		}

		swap, err := e.router.Route(ctx, amount, state.OutputBalance.Currency, model.ExactInput, nil, routingConfig)
		if err != nil {
			return nil, err
		}
		next, result, err := Step(state, swap, cfg)
		if err != nil {
			return nil, err
		}
		if swap == nil {
			e.logger.Info("no route found from route")
		} else {
			e.logIteration(next, cfg)
		}
		if result == nil {
			state = next
			continue
		}
		if result.Status == model.SwapToRatioSuccess && opts != nil {
			params, err := e.buildSwapAndAddMethodParameters(ctx, swap.Trade, *opts, next)
			if err != nil {
				return nil, err
			}
			result.MethodParameters = params
		}
		return result, nil
	}
}

func (e *Engine) logIteration(s State, cfg model.SwapAndAddConfig) {
	e.logger.Info("QuoteToRatio Iteration Parameters",
		zap.String("exchange_rate", s.ExchangeRate.ToFixed(18)),
		zap.String("optimal_ratio", s.OptimalRatio.ToFixed(18)),
		zap.String("new_ratio", s.NewRatio.ToFixed(18)),
		zap.String("input_balance_updated", s.InputBalanceUpdated.Fraction.ToFixed(18)),
		zap.String("output_balance_updated", s.OutputBalanceUpdated.Fraction.ToFixed(18)),
		zap.String("ratio_error_tolerance", cfg.RatioErrorTolerance.ToFixed(18)),
		zap.Int("iteration", s.Iteration),
	)
}

// buildSwapAndAddMethodParameters sizes the position from the post-swap balances and encodes
// the swap and the deposit together.
func (e *Engine) buildSwapAndAddMethodParameters(ctx context.Context, trade model.Trade, opts model.SwapAndAddOptions, s State) (*model.MethodParameters, error) {
	finalIn, err := s.InputBalance.Subtract(trade.InputAmount())
	if err != nil {
		return nil, fmt.Errorf("final input balance: %w", err)
	}
	finalOut, err := s.OutputBalance.Add(trade.OutputAmount())
	if err != nil {
		return nil, fmt.Errorf("final output balance: %w", err)
	}
	approvals, err := e.approvals.GetApprovalType(ctx, finalIn, finalOut)
	if err != nil {
		return nil, fmt.Errorf("approval types: %w", err)
	}

	zeroForOne := finalIn.Currency.Wrapped().SortsBefore(finalOut.Currency.Wrapped())
	amount0, amount1 := finalIn.Quotient(), finalOut.Quotient()
	if !zeroForOne {
		amount0, amount1 = amount1, amount0
	}
	pre := s.Position
	position, err := pool.NewPositionFromAmounts(pre.Pool, pre.TickLower, pre.TickUpper, amount0, amount1)
	if err != nil {
		return nil, fmt.Errorf("position from amounts: %w", err)
	}
	return swaprouter.BuildSwapAndAddMethodParameters(e.router.ChainID(), trade, opts, position, approvals)
}
