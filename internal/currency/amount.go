package currency

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// CurrencyAmount is an exact quantity of a currency in raw (smallest) units.
type CurrencyAmount struct {
	Currency Currency
	Fraction
}

func FromRawAmount(c Currency, raw *big.Int) CurrencyAmount {
	return CurrencyAmount{Currency: c, Fraction: NewFraction(raw, nil)}
}

func FromFractionalAmount(c Currency, num, den *big.Int) CurrencyAmount {
	return CurrencyAmount{Currency: c, Fraction: NewFraction(num, den)}
}

// Zero returns a zero amount of c.
func Zero(c Currency) CurrencyAmount {
	return FromRawAmount(c, new(big.Int))
}

func (a CurrencyAmount) checkCurrency(o CurrencyAmount) error {
	if !a.Currency.Equals(o.Currency) {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, a.Currency, o.Currency)
	}
	return nil
}

func (a CurrencyAmount) Add(o CurrencyAmount) (CurrencyAmount, error) {
	if err := a.checkCurrency(o); err != nil {
		return CurrencyAmount{}, err
	}
	return CurrencyAmount{Currency: a.Currency, Fraction: a.Fraction.Add(o.Fraction)}, nil
}

func (a CurrencyAmount) Subtract(o CurrencyAmount) (CurrencyAmount, error) {
	if err := a.checkCurrency(o); err != nil {
		return CurrencyAmount{}, err
	}
	return CurrencyAmount{Currency: a.Currency, Fraction: a.Fraction.Subtract(o.Fraction)}, nil
}

// Multiply scales the amount by a dimensionless fraction.
func (a CurrencyAmount) Multiply(f Fraction) CurrencyAmount {
	return CurrencyAmount{Currency: a.Currency, Fraction: a.Fraction.Multiply(f)}
}

// Divide scales the amount down by a dimensionless fraction.
func (a CurrencyAmount) Divide(f Fraction) CurrencyAmount {
	return CurrencyAmount{Currency: a.Currency, Fraction: a.Fraction.Divide(f)}
}

// Ratio returns a/o over raw units, regardless of currencies.
func (a CurrencyAmount) Ratio(o CurrencyAmount) Fraction {
	return a.Fraction.Divide(o.Fraction)
}

// WithCurrency re-tags the truncated raw amount with another currency, used for explicit
// wrapping and unwrapping.
func (a CurrencyAmount) WithCurrency(c Currency) CurrencyAmount {
	return FromRawAmount(c, a.Quotient())
}

// Wrapped returns the amount tagged with the wrapped token.
func (a CurrencyAmount) Wrapped() CurrencyAmount {
	if !a.Currency.IsNative {
		return a
	}
	return CurrencyAmount{Currency: TokenCurrency(a.Currency.Wrapped()), Fraction: a.Fraction}
}

func (a CurrencyAmount) asDecimal() decimal.Decimal {
	return decimal.NewFromBigInt(a.Quotient(), -int32(a.Currency.Decimals))
}

// ToExact renders the amount in whole units, trimming trailing zeros.
func (a CurrencyAmount) ToExact() string {
	return a.asDecimal().String()
}

// ToFixed renders the amount in whole units with the given number of decimals.
func (a CurrencyAmount) ToFixed(places int) string {
	return a.asDecimal().StringFixed(int32(places))
}

func (a CurrencyAmount) String() string {
	return a.ToExact() + " " + a.Currency.String()
}
