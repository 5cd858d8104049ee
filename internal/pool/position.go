package pool

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"orderRouter/internal/clmath"
)

var errValueOverflow = errors.New("value overflows uint256")

// Position is liquidity placed in a V3 pool between two ticks.
type Position struct {
	Pool      V3Pool
	TickLower int
	TickUpper int
	Liquidity *big.Int
}

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s", v)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errValueOverflow
	}
	return u, nil
}

// NewPositionFromAmounts sizes the largest position amount0 and amount1 can fund at the pool's price.
func NewPositionFromAmounts(p V3Pool, tickLower, tickUpper int, amount0, amount1 *big.Int) (Position, error) {
	if tickLower >= tickUpper {
		return Position{}, fmt.Errorf("invalid tick range [%d, %d]", tickLower, tickUpper)
	}
	sqrtLower, err := clmath.GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return Position{}, err
	}
	sqrtUpper, err := clmath.GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return Position{}, err
	}
	sqrtPrice, err := toU256(p.SqrtPriceX96)
	if err != nil {
		return Position{}, err
	}
	a0, err := toU256(amount0)
	if err != nil {
		return Position{}, err
	}
	a1, err := toU256(amount1)
	if err != nil {
		return Position{}, err
	}
	liquidity, err := clmath.MaxLiquidityForAmounts(sqrtPrice, sqrtLower, sqrtUpper, a0, a1)
	if err != nil {
		return Position{}, fmt.Errorf("max liquidity: %w", err)
	}
	return Position{Pool: p, TickLower: tickLower, TickUpper: tickUpper, Liquidity: liquidity.ToBig()}, nil
}

// Amounts returns the token0 and token1 held by the position at the pool's price, rounded down.
func (pos Position) Amounts() (*big.Int, *big.Int, error) {
	sqrtPrice, err := toU256(pos.Pool.SqrtPriceX96)
	if err != nil {
		return nil, nil, err
	}
	liquidity, err := toU256(pos.Liquidity)
	if err != nil {
		return nil, nil, err
	}
	a0, a1, err := clmath.PositionAmounts(sqrtPrice, pos.Pool.TickCurrent, pos.TickLower, pos.TickUpper, liquidity)
	if err != nil {
		return nil, nil, err
	}
	return a0.ToBig(), a1.ToBig(), nil
}
