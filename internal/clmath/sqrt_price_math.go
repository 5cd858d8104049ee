package clmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var ErrMulDivOverflow = errors.New("mul div overflow")

func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrMulDivOverflow
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrMulDivOverflow
	}
	return z, nil
}

func mulDivRoundingUp(x, y, d *uint256.Int) (*uint256.Int, error) {
	z, err := mulDiv(x, y, d)
	if err != nil {
		return nil, err
	}
	if !new(uint256.Int).MulMod(x, y, d).IsZero() {
		if z.Eq(maxUint256) {
			return nil, ErrMulDivOverflow
		}
		z.AddUint64(z, 1)
	}
	return z, nil
}

func divRoundingUp(x, d *uint256.Int) *uint256.Int {
	z, rem := new(uint256.Int).DivMod(x, d, new(uint256.Int))
	if !rem.IsZero() {
		z.AddUint64(z, 1)
	}
	return z
}

func ordered(a, b *uint256.Int) (*uint256.Int, *uint256.Int) {
	if a.Gt(b) {
		return b, a
	}
	return a, b
}

// GetAmount0Delta returns the token0 amount between two sqrt prices for the given liquidity.
func GetAmount0Delta(sqrtA, sqrtB, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	if sqrtA.IsZero() {
		return nil, ErrSqrtRatioOutOfRange
	}

	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(sqrtB, sqrtA)

	if roundUp {
		v, err := mulDivRoundingUp(numerator1, numerator2, sqrtB)
		if err != nil {
			return nil, err
		}
		return divRoundingUp(v, sqrtA), nil
	}
	v, err := mulDiv(numerator1, numerator2, sqrtB)
	if err != nil {
		return nil, err
	}
	return v.Div(v, sqrtA), nil
}

// GetAmount1Delta returns the token1 amount between two sqrt prices for the given liquidity.
func GetAmount1Delta(sqrtA, sqrtB, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	diff := new(uint256.Int).Sub(sqrtB, sqrtA)
	if roundUp {
		return mulDivRoundingUp(liquidity, diff, Q96)
	}
	return mulDiv(liquidity, diff, Q96)
}

func maxLiquidityForAmount0(sqrtA, sqrtB, amount0 *uint256.Int) (*uint256.Int, error) {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	intermediate, err := mulDiv(sqrtA, sqrtB, Q96)
	if err != nil {
		return nil, err
	}
	return mulDiv(amount0, intermediate, new(uint256.Int).Sub(sqrtB, sqrtA))
}

func maxLiquidityForAmount1(sqrtA, sqrtB, amount1 *uint256.Int) (*uint256.Int, error) {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	return mulDiv(amount1, Q96, new(uint256.Int).Sub(sqrtB, sqrtA))
}

// MaxLiquidityForAmounts returns the largest liquidity the two amounts can back at the
// current price for a range bounded by sqrtA and sqrtB.
func MaxLiquidityForAmounts(sqrtPrice, sqrtA, sqrtB, amount0, amount1 *uint256.Int) (*uint256.Int, error) {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	switch {
	case !sqrtPrice.Gt(sqrtA):
		return maxLiquidityForAmount0(sqrtA, sqrtB, amount0)
	case sqrtPrice.Lt(sqrtB):
		l0, err := maxLiquidityForAmount0(sqrtPrice, sqrtB, amount0)
		if err != nil {
			return nil, err
		}
		l1, err := maxLiquidityForAmount1(sqrtA, sqrtPrice, amount1)
		if err != nil {
			return nil, err
		}
		if l0.Lt(l1) {
			return l0, nil
		}
		return l1, nil
	default:
		return maxLiquidityForAmount1(sqrtA, sqrtB, amount1)
	}
}

// PositionAmounts returns the token amounts a position of the given liquidity holds at the
// current price, rounded down.
func PositionAmounts(sqrtPrice *uint256.Int, tickCurrent, tickLower, tickUpper int, liquidity *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	sqrtLower, err := GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtUpper, err := GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case tickCurrent < tickLower:
		amount0, err := GetAmount0Delta(sqrtLower, sqrtUpper, liquidity, false)
		return amount0, new(uint256.Int), err
	case tickCurrent < tickUpper:
		amount0, err := GetAmount0Delta(sqrtPrice, sqrtUpper, liquidity, false)
		if err != nil {
			return nil, nil, err
		}
		amount1, err := GetAmount1Delta(sqrtLower, sqrtPrice, liquidity, false)
		return amount0, amount1, err
	default:
		amount1, err := GetAmount1Delta(sqrtLower, sqrtUpper, liquidity, false)
		return new(uint256.Int), amount1, err
	}
}

// GetAmount0DeltaBig and GetAmount1DeltaBig adapt the deltas to math/big callers.
func GetAmount0DeltaBig(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	a, b, l, err := fromBigTriple(sqrtA, sqrtB, liquidity)
	if err != nil {
		return nil, err
	}
	v, err := GetAmount0Delta(a, b, l, roundUp)
	if err != nil {
		return nil, err
	}
	return v.ToBig(), nil
}

func GetAmount1DeltaBig(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	a, b, l, err := fromBigTriple(sqrtA, sqrtB, liquidity)
	if err != nil {
		return nil, err
	}
	v, err := GetAmount1Delta(a, b, l, roundUp)
	if err != nil {
		return nil, err
	}
	return v.ToBig(), nil
}

func fromBigTriple(a, b, c *big.Int) (*uint256.Int, *uint256.Int, *uint256.Int, error) {
	ua, err := fromBig(a)
	if err != nil {
		return nil, nil, nil, err
	}
	ub, err := fromBig(b)
	if err != nil {
		return nil, nil, nil, err
	}
	uc, err := fromBig(c)
	if err != nil {
		return nil, nil, nil, err
	}
	return ua, ub, uc, nil
}
