package ratio

import (
	"errors"
	"math/big"

	"orderRouter/internal/clmath"
	"orderRouter/internal/currency"
	"orderRouter/internal/pool"
)

// ErrInsufficientInputAmount means the input balance cannot cover the swap the ratio calls for.
var ErrInsufficientInputAmount = errors.New("insufficient input token amount")

var ratioPrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// CalculateOptimalRatio is the token0/token1 deposit ratio of position at sqrtRatioX96, inverted
// when zeroForOne is false. Prices outside the position's range give 0/1 in either direction.
func CalculateOptimalRatio(position pool.Position, sqrtRatioX96 *big.Int, zeroForOne bool) (currency.Fraction, error) {
	upper, err := clmath.GetSqrtRatioAtTickBig(position.TickUpper)
	if err != nil {
		return currency.Fraction{}, err
	}
	lower, err := clmath.GetSqrtRatioAtTickBig(position.TickLower)
	if err != nil {
		return currency.Fraction{}, err
	}
	if sqrtRatioX96.Cmp(upper) > 0 || sqrtRatioX96.Cmp(lower) < 0 {
		return currency.NewFractionInt(0, 1), nil
	}
	amount0, err := clmath.GetAmount0DeltaBig(sqrtRatioX96, upper, ratioPrecision, true)
	if err != nil {
		return currency.Fraction{}, err
	}
	amount1, err := clmath.GetAmount1DeltaBig(sqrtRatioX96, lower, ratioPrecision, true)
	if err != nil {
		return currency.Fraction{}, err
	}
	optimal := currency.NewFraction(amount0, amount1)
	if !zeroForOne {
		optimal = optimal.Invert()
	}
	return optimal, nil
}

// AbsoluteValue takes the absolute value of numerator and denominator independently.
func AbsoluteValue(f currency.Fraction) currency.Fraction {
	return f.Abs()
}

// CalculateRatioAmountIn solves for the input that leaves the balances at optimalRatio after
// swapping at inputTokenPrice:
//
//	(inputBalance - optimalRatio*outputBalance) / (optimalRatio*inputTokenPrice + 1)
func CalculateRatioAmountIn(optimalRatio, inputTokenPrice currency.Fraction, inputBalance, outputBalance currency.CurrencyAmount) (currency.CurrencyAmount, error) {
	raw := currency.FractionFromInt(inputBalance.Quotient()).
		Subtract(optimalRatio.Multiply(currency.FractionFromInt(outputBalance.Quotient()))).
		Divide(optimalRatio.Multiply(inputTokenPrice).Add(currency.NewFractionInt(1, 1)))
	if raw.LessThan(currency.NewFractionInt(0, 1)) {
		return currency.CurrencyAmount{}, ErrInsufficientInputAmount
	}
	return currency.FromRawAmount(inputBalance.Currency, raw.Quotient()), nil
}
