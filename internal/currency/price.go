package currency

import (
	"fmt"
	"math/big"
)

// Price converts raw amounts of BaseCurrency into raw amounts of QuoteCurrency.
type Price struct {
	BaseCurrency  Currency
	QuoteCurrency Currency
	Fraction
}

// NewPrice builds a price where denominator units of base buy numerator units of quote.
func NewPrice(base, quote Currency, denominator, numerator *big.Int) Price {
	return Price{BaseCurrency: base, QuoteCurrency: quote, Fraction: NewFraction(numerator, denominator)}
}

func (p Price) Invert() Price {
	return Price{BaseCurrency: p.QuoteCurrency, QuoteCurrency: p.BaseCurrency, Fraction: p.Fraction.Invert()}
}

// Quote converts an amount of the base currency into the quote currency.
func (p Price) Quote(amount CurrencyAmount) (CurrencyAmount, error) {
	if !amount.Currency.Wrapped().Equals(p.BaseCurrency.Wrapped()) {
		return CurrencyAmount{}, fmt.Errorf("%w: price base %s, amount %s", ErrCurrencyMismatch, p.BaseCurrency, amount.Currency)
	}
	result := p.Fraction.Multiply(amount.Fraction)
	return CurrencyAmount{Currency: p.QuoteCurrency, Fraction: result}, nil
}

// Percent is a fraction rendered over 100.
type Percent struct {
	Fraction
}

func NewPercent(num, den int64) Percent {
	return Percent{Fraction: NewFractionInt(num, den)}
}

// PercentFromFraction lifts a plain fraction.
func PercentFromFraction(f Fraction) Percent {
	return Percent{Fraction: f}
}

func (p Percent) ToFixed(places int) string {
	return p.Fraction.Multiply(NewFractionInt(100, 1)).ToFixed(places)
}
