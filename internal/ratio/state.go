package ratio

import (
	"fmt"

	"orderRouter/internal/currency"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// Reasons carried by NO_ROUTE_FOUND results.
const (
	ReasonMaxIterations         = "max iterations exceeded"
	ReasonNoRoute               = "no route found"
	ReasonInsufficientLiquidity = "insufficient liquidity to swap to optimal ratio"
)

// SwapToRatioResult is the terminal outcome of a ratio-matching run.
type SwapToRatioResult struct {
	Status model.SwapToRatioStatus
	// Error explains a NO_ROUTE_FOUND status.
	Error string

	SwapRoute          *model.SwapRoute
	OptimalRatio       currency.Fraction
	PostSwapTargetPool *pool.V3Pool
	MethodParameters   *model.MethodParameters
}

func noRoute(reason string) *SwapToRatioResult {
	return &SwapToRatioResult{Status: model.SwapToRatioNoRouteFound, Error: reason}
}

// State is the loop state of a ratio-matching run. Balances are the initial ones; every
// iteration re-solves the swap from them with a refined ratio and exchange rate.
type State struct {
	Position   pool.Position
	ZeroForOne bool

	InputBalance  currency.CurrencyAmount
	OutputBalance currency.CurrencyAmount

	Iteration           int
	PreSwapOptimalRatio currency.Fraction
	OptimalRatio        currency.Fraction
	ExchangeRate        currency.Fraction
	PostSwapTargetPool  pool.V3Pool

	// Figures of the latest iteration.
	Swap                 *model.SwapRoute
	NewRatio             currency.Fraction
	InputBalanceUpdated  currency.CurrencyAmount
	OutputBalanceUpdated currency.CurrencyAmount
}

// NewState orders the balances by the position's pool and picks the swap direction. Out of range
// positions force the direction; in range it follows the side holding more than the optimal ratio.
func NewState(token0Balance, token1Balance currency.CurrencyAmount, position pool.Position) (State, error) {
	if token1Balance.Currency.Wrapped().SortsBefore(token0Balance.Currency.Wrapped()) {
		token0Balance, token1Balance = token1Balance, token0Balance
	}
	p := position.Pool
	preSwap, err := CalculateOptimalRatio(position, p.SqrtPriceX96, true)
	if err != nil {
		return State{}, fmt.Errorf("pre swap optimal ratio: %w", err)
	}

	var zeroForOne bool
	switch {
	case p.TickCurrent > position.TickUpper:
		zeroForOne = true
	case p.TickCurrent < position.TickLower:
		zeroForOne = false
	default:
		balanceRatio := currency.NewFraction(token0Balance.Quotient(), token1Balance.Quotient())
		zeroForOne = balanceRatio.GreaterThan(preSwap)
		if !zeroForOne {
			preSwap = preSwap.Invert()
		}
	}

	s := State{
		Position:            position,
		ZeroForOne:          zeroForOne,
		PreSwapOptimalRatio: preSwap,
		OptimalRatio:        preSwap,
		PostSwapTargetPool:  p,
	}
	if zeroForOne {
		s.InputBalance, s.OutputBalance = token0Balance, token1Balance
		s.ExchangeRate = p.Token0Price().Fraction
	} else {
		s.InputBalance, s.OutputBalance = token1Balance, token0Balance
		s.ExchangeRate = p.Token1Price().Fraction
	}
	return s, nil
}

// AmountToSwap is the input the current ratio and exchange rate call for.
func (s State) AmountToSwap() (currency.CurrencyAmount, error) {
	return CalculateRatioAmountIn(s.OptimalRatio, s.ExchangeRate, s.InputBalance, s.OutputBalance)
}

// Step folds the route found for this iteration's swap into the state. A non-nil result ends
// the run; the returned state always carries the iteration's figures.
func Step(s State, swap *model.SwapRoute, cfg model.SwapAndAddConfig) (State, *SwapToRatioResult, error) {
	if swap == nil {
		return s, noRoute(ReasonNoRoute), nil
	}
	next := s
	next.Swap = swap

	var err error
	if next.InputBalanceUpdated, err = s.InputBalance.Subtract(swap.Trade.InputAmount()); err != nil {
		return s, nil, fmt.Errorf("update input balance: %w", err)
	}
	if next.OutputBalanceUpdated, err = s.OutputBalance.Add(swap.Trade.OutputAmount()); err != nil {
		return s, nil, fmt.Errorf("update output balance: %w", err)
	}
	next.NewRatio = next.InputBalanceUpdated.Ratio(next.OutputBalanceUpdated)

	target, moved, err := targetPoolAfterSwap(s.Position.Pool, swap.Route)
	if err != nil {
		return s, nil, err
	}
	if moved {
		if next.OptimalRatio, err = CalculateOptimalRatio(s.Position, target.SqrtPriceX96, s.ZeroForOne); err != nil {
			return s, nil, fmt.Errorf("post swap optimal ratio: %w", err)
		}
	} else {
		next.OptimalRatio = s.PreSwapOptimalRatio
	}

	achieved := next.NewRatio.EqualTo(next.OptimalRatio) ||
		AbsoluteValue(next.NewRatio.Divide(next.OptimalRatio).Subtract(currency.NewFractionInt(1, 1))).LessThan(cfg.RatioErrorTolerance)
	if achieved && moved {
		next.PostSwapTargetPool = target
	}

	next.ExchangeRate = swap.Trade.OutputAmount().Ratio(swap.Trade.InputAmount())
	if next.ExchangeRate.IsZero() {
		return next, noRoute(ReasonInsufficientLiquidity), nil
	}
	if !achieved {
		return next, nil, nil
	}
	postSwap := next.PostSwapTargetPool
	return next, &SwapToRatioResult{
		Status:             model.SwapToRatioSuccess,
		SwapRoute:          swap,
		OptimalRatio:       next.OptimalRatio,
		PostSwapTargetPool: &postSwap,
	}, nil
}

// targetPoolAfterSwap finds the last V3 hop through target's pair and fee tier and returns target
// moved to that hop's post-swap price.
func targetPoolAfterSwap(target pool.V3Pool, routes []*model.RouteWithValidQuote) (pool.V3Pool, bool, error) {
	var (
		out   pool.V3Pool
		found bool
	)
	for _, r := range routes {
		v3, ok := r.Route.(model.V3Route)
		if !ok {
			continue
		}
		for i, p := range v3.Pools {
			if !p.SamePool(target) || i >= len(r.SqrtPriceX96AfterList) {
				continue
			}
			moved, err := target.WithSqrtPrice(r.SqrtPriceX96AfterList[i])
			if err != nil {
				return pool.V3Pool{}, false, fmt.Errorf("post swap pool %s: %w", p.Address.Hex(), err)
			}
			out, found = moved, true
		}
	}
	return out, found, nil
}
