package model

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/currency"
)

// GasCost is a gas model's estimate for one quoted route.
type GasCost struct {
	GasEstimate    *big.Int
	GasCostInToken currency.CurrencyAmount
	GasCostInUSD   currency.CurrencyAmount
}

// GasModel prices the execution of a quoted route.
type GasModel interface {
	EstimateGasCost(r *RouteWithValidQuote) (GasCost, error)
}

// L1GasFees is the settlement-layer surcharge for a set of routes on an L2.
type L1GasFees struct {
	GasUsedL1           *big.Int
	GasCostL1USD        currency.CurrencyAmount
	GasCostL1QuoteToken currency.CurrencyAmount
}

// L1FeeModel is implemented by gas models that can price the L1 part of a transaction.
type L1FeeModel interface {
	CalculateL1GasFees(routes []*RouteWithValidQuote) (L1GasFees, error)
}

// RouteWithValidQuote is a route quoted for one slice of the trade.
type RouteWithValidQuote struct {
	Route     Route
	TradeType TradeType
	// Percent of the full trade carried by Amount.
	Percent int
	Amount  currency.CurrencyAmount

	RawQuote            *big.Int
	Quote               currency.CurrencyAmount
	QuoteAdjustedForGas currency.CurrencyAmount
	QuoteToken          currency.Token

	GasEstimate    *big.Int
	GasCostInToken currency.CurrencyAmount
	GasCostInUSD   currency.CurrencyAmount

	// Per hop, V3 and mixed only.
	SqrtPriceX96AfterList       []*big.Int
	InitializedTicksCrossedList []uint32
	QuoterGasEstimate           *big.Int

	PoolAddresses []common.Address
	TokenPath     []currency.Token
}

// QuoteParams carries the quoter output for one (route, amount) pair.
type QuoteParams struct {
	Route                       Route
	TradeType                   TradeType
	Percent                     int
	Amount                      currency.CurrencyAmount
	RawQuote                    *big.Int
	QuoteToken                  currency.Token
	SqrtPriceX96AfterList       []*big.Int
	InitializedTicksCrossedList []uint32
	QuoterGasEstimate           *big.Int
}

// NewRouteWithValidQuote prices the route with gm and adjusts the quote for gas.
func NewRouteWithValidQuote(p QuoteParams, gm GasModel) (*RouteWithValidQuote, error) {
	quote := currency.FromRawAmount(currency.TokenCurrency(p.QuoteToken), p.RawQuote)
	rwq := &RouteWithValidQuote{
		Route:                       p.Route,
		TradeType:                   p.TradeType,
		Percent:                     p.Percent,
		Amount:                      p.Amount,
		RawQuote:                    p.RawQuote,
		Quote:                       quote,
		QuoteToken:                  p.QuoteToken,
		SqrtPriceX96AfterList:       p.SqrtPriceX96AfterList,
		InitializedTicksCrossedList: p.InitializedTicksCrossedList,
		QuoterGasEstimate:           p.QuoterGasEstimate,
		PoolAddresses:               p.Route.PoolAddresses(),
		TokenPath:                   p.Route.TokenPath(),
	}

	cost, err := gm.EstimateGasCost(rwq)
	if err != nil {
		return nil, fmt.Errorf("estimate gas cost for %s route: %w", p.Route.Protocol(), err)
	}
	rwq.GasEstimate = cost.GasEstimate
	rwq.GasCostInToken = cost.GasCostInToken
	rwq.GasCostInUSD = cost.GasCostInUSD

	adjusted, err := AdjustQuoteForGas(quote, cost.GasCostInToken, p.TradeType)
	if err != nil {
		return nil, err
	}
	rwq.QuoteAdjustedForGas = adjusted
	return rwq, nil
}

// Protocol returns the route's family tag.
func (r *RouteWithValidQuote) Protocol() Protocol { return r.Route.Protocol() }

// AdjustQuoteForGas subtracts gas from an exact-input quote and adds it to an exact-output quote.
func AdjustQuoteForGas(quote, gasCostInToken currency.CurrencyAmount, tradeType TradeType) (currency.CurrencyAmount, error) {
	if tradeType == ExactOutput {
		return quote.Add(gasCostInToken)
	}
	return quote.Subtract(gasCostInToken)
}

// RouteAmountToString renders a quoted route with its share of the trade.
func RouteAmountToString(r *RouteWithValidQuote) string {
	return fmt.Sprintf("[%s] %d%% = %s", r.Protocol(), r.Percent, RouteToString(r.Route))
}
