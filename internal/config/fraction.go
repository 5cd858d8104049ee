package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"orderRouter/internal/currency"
)

// ParseFraction reads "a/b" or a decimal string such as "0.01" into an exact fraction.
func ParseFraction(input string) (currency.Fraction, error) {
	input = strings.TrimSpace(input)
	if num, den, ok := strings.Cut(input, "/"); ok {
		n, okN := new(big.Int).SetString(strings.TrimSpace(num), 10)
		d, okD := new(big.Int).SetString(strings.TrimSpace(den), 10)
		if !okN || !okD {
			return currency.Fraction{}, fmt.Errorf("invalid fraction %q", input)
		}
		if d.Sign() == 0 {
			return currency.Fraction{}, fmt.Errorf("zero denominator in %q", input)
		}
		return currency.NewFraction(n, d), nil
	}

	d, err := decimal.NewFromString(input)
	if err != nil {
		return currency.Fraction{}, fmt.Errorf("invalid number %q: %w", input, err)
	}
	num := d.Coefficient()
	den := big.NewInt(1)
	exp := d.Exponent()
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(absInt32(exp))), nil)
	if exp < 0 {
		den = scale
	} else {
		num.Mul(num, scale)
	}
	return currency.NewFraction(num, den), nil
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
