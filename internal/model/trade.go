package model

import (
	"errors"
	"fmt"
	"math/big"

	"orderRouter/internal/currency"
)

// TradeSwap is one route of a trade with its input and output amounts.
type TradeSwap struct {
	Route        Route
	InputAmount  currency.CurrencyAmount
	OutputAmount currency.CurrencyAmount
}

// Trade groups the chosen routes between two currencies.
type Trade struct {
	TradeType      TradeType
	InputCurrency  currency.Currency
	OutputCurrency currency.Currency
	Swaps          []TradeSwap
}

// BuildTrade converts quoted routes into a trade. Native currencies are carried on the amounts
// while routes keep their wrapped tokens.
func BuildTrade(currencyIn, currencyOut currency.Currency, tradeType TradeType, routes []*RouteWithValidQuote) (Trade, error) {
	if len(routes) == 0 {
		return Trade{}, errors.New("build trade: no routes")
	}
	trade := Trade{TradeType: tradeType, InputCurrency: currencyIn, OutputCurrency: currencyOut}
	for _, r := range routes {
		var in, out currency.CurrencyAmount
		if tradeType == ExactInput {
			in = r.Amount.WithCurrency(currencyIn)
			out = r.Quote.WithCurrency(currencyOut)
		} else {
			in = r.Quote.WithCurrency(currencyIn)
			out = r.Amount.WithCurrency(currencyOut)
		}
		if !r.Route.InputToken().Equals(currencyIn.Wrapped()) || !r.Route.OutputToken().Equals(currencyOut.Wrapped()) {
			return Trade{}, fmt.Errorf("build trade: route %s does not connect %s to %s", RouteToString(r.Route), currencyIn, currencyOut)
		}
		trade.Swaps = append(trade.Swaps, TradeSwap{Route: r.Route, InputAmount: in, OutputAmount: out})
	}
	return trade, nil
}

// InputAmount sums the input of every swap.
func (t Trade) InputAmount() currency.CurrencyAmount {
	total := currency.Zero(t.InputCurrency)
	for _, s := range t.Swaps {
		total.Fraction = total.Fraction.Add(s.InputAmount.Fraction)
	}
	return total
}

// OutputAmount sums the output of every swap.
func (t Trade) OutputAmount() currency.CurrencyAmount {
	total := currency.Zero(t.OutputCurrency)
	for _, s := range t.Swaps {
		total.Fraction = total.Fraction.Add(s.OutputAmount.Fraction)
	}
	return total
}

// MinimumAmountOut is the output floor after slippage. Exact-output trades return the output itself.
func (t Trade) MinimumAmountOut(slippage currency.Percent) *big.Int {
	return MinimumAmountOut(t.TradeType, slippage, t.OutputAmount())
}

// MaximumAmountIn is the input ceiling after slippage. Exact-input trades return the input itself.
func (t Trade) MaximumAmountIn(slippage currency.Percent) *big.Int {
	return MaximumAmountIn(t.TradeType, slippage, t.InputAmount())
}

// MinimumAmountOut scales amount by 1/(1+slippage) for exact-input trades.
func MinimumAmountOut(tradeType TradeType, slippage currency.Percent, amount currency.CurrencyAmount) *big.Int {
	if tradeType == ExactOutput {
		return amount.Quotient()
	}
	onePlus := currency.NewFractionInt(1, 1).Add(slippage.Fraction)
	return amount.Fraction.Divide(onePlus).Quotient()
}

// MaximumAmountIn scales amount by 1+slippage for exact-output trades.
func MaximumAmountIn(tradeType TradeType, slippage currency.Percent, amount currency.CurrencyAmount) *big.Int {
	if tradeType == ExactInput {
		return amount.Quotient()
	}
	onePlus := currency.NewFractionInt(1, 1).Add(slippage.Fraction)
	return amount.Fraction.Multiply(onePlus).Quotient()
}
