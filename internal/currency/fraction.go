package currency

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Fraction is an exact rational over arbitrary-precision integers. The sign may sit on
// either the numerator or the denominator; comparisons cross-multiply without normalising.
type Fraction struct {
	Numerator   *big.Int
	Denominator *big.Int
}

// NewFraction copies num and den. A nil denominator means 1.
func NewFraction(num, den *big.Int) Fraction {
	n := new(big.Int)
	if num != nil {
		n.Set(num)
	}
	d := big.NewInt(1)
	if den != nil {
		d.Set(den)
	}
	return Fraction{Numerator: n, Denominator: d}
}

func NewFractionInt(num, den int64) Fraction {
	return Fraction{Numerator: big.NewInt(num), Denominator: big.NewInt(den)}
}

// FractionFromInt returns n/1.
func FractionFromInt(n *big.Int) Fraction {
	return NewFraction(n, nil)
}

// Quotient truncates toward zero.
func (f Fraction) Quotient() *big.Int {
	if f.Denominator.Sign() == 0 {
		return new(big.Int)
	}
	return new(big.Int).Quo(f.Numerator, f.Denominator)
}

// Remainder returns the fractional part as a Fraction over the same denominator.
func (f Fraction) Remainder() Fraction {
	return NewFraction(new(big.Int).Rem(f.Numerator, f.Denominator), f.Denominator)
}

func (f Fraction) Invert() Fraction {
	return NewFraction(f.Denominator, f.Numerator)
}

func (f Fraction) Add(o Fraction) Fraction {
	if f.Denominator.Cmp(o.Denominator) == 0 {
		return NewFraction(new(big.Int).Add(f.Numerator, o.Numerator), f.Denominator)
	}
	num := new(big.Int).Mul(f.Numerator, o.Denominator)
	num.Add(num, new(big.Int).Mul(o.Numerator, f.Denominator))
	return NewFraction(num, new(big.Int).Mul(f.Denominator, o.Denominator))
}

func (f Fraction) Subtract(o Fraction) Fraction {
	if f.Denominator.Cmp(o.Denominator) == 0 {
		return NewFraction(new(big.Int).Sub(f.Numerator, o.Numerator), f.Denominator)
	}
	num := new(big.Int).Mul(f.Numerator, o.Denominator)
	num.Sub(num, new(big.Int).Mul(o.Numerator, f.Denominator))
	return NewFraction(num, new(big.Int).Mul(f.Denominator, o.Denominator))
}

func (f Fraction) Multiply(o Fraction) Fraction {
	return NewFraction(
		new(big.Int).Mul(f.Numerator, o.Numerator),
		new(big.Int).Mul(f.Denominator, o.Denominator),
	)
}

func (f Fraction) Divide(o Fraction) Fraction {
	return NewFraction(
		new(big.Int).Mul(f.Numerator, o.Denominator),
		new(big.Int).Mul(f.Denominator, o.Numerator),
	)
}

func (f Fraction) cmp(o Fraction) int {
	left := new(big.Int).Mul(f.Numerator, o.Denominator)
	right := new(big.Int).Mul(o.Numerator, f.Denominator)
	return left.Cmp(right)
}

func (f Fraction) LessThan(o Fraction) bool    { return f.cmp(o) < 0 }
func (f Fraction) GreaterThan(o Fraction) bool { return f.cmp(o) > 0 }
func (f Fraction) EqualTo(o Fraction) bool     { return f.cmp(o) == 0 }

// IsZero reports whether the numerator is zero.
func (f Fraction) IsZero() bool {
	return f.Numerator.Sign() == 0
}

// Abs takes the absolute value of numerator and denominator independently.
func (f Fraction) Abs() Fraction {
	return NewFraction(new(big.Int).Abs(f.Numerator), new(big.Int).Abs(f.Denominator))
}

// ToFixed renders the value with the given number of decimal places, rounding half away from zero.
func (f Fraction) ToFixed(places int) string {
	if f.Denominator.Sign() == 0 {
		return "NaN"
	}
	num := decimal.NewFromBigInt(f.Numerator, 0)
	den := decimal.NewFromBigInt(f.Denominator, 0)
	return num.DivRound(den, int32(places)).StringFixed(int32(places))
}

func (f Fraction) String() string {
	return f.Numerator.String() + "/" + f.Denominator.String()
}
