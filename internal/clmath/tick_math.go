package clmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	MinTick = -887272
	MaxTick = 887272
)

var (
	MinSqrtRatio = uint256.NewInt(4295128739)
	MaxSqrtRatio = uint256.MustFromHex("0xfffd8963efd1fc6a506488495d951d5263988d26")

	Q96  = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	Q192 = new(uint256.Int).Lsh(uint256.NewInt(1), 192)

	maxUint256 = new(uint256.Int).SetAllOne()

	ErrTickOutOfRange      = errors.New("tick out of range")
	ErrSqrtRatioOutOfRange = errors.New("sqrt ratio out of range")
	ErrSqrtRatioOverflow   = errors.New("sqrt ratio exceeds 256 bits")
)

// ratio multipliers for bits 1..19 of the absolute tick, each sqrt(1.0001)^-(2^i) in Q128.
var tickMagic = []*uint256.Int{
	uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
	uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
	uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
	uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
	uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
	uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
	uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
	uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
	uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
	uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
	uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
	uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
	uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
	uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
	uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
}

var (
	tickBit0Ratio = uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001")
	q32Mask       = uint256.NewInt(0xffffffff)
)

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96.
func GetSqrtRatioAtTick(tick int) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfRange
	}
	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(uint256.Int)
	if absTick&1 != 0 {
		ratio.Set(tickBit0Ratio)
	} else {
		ratio.Set(Q128)
	}
	for i, magic := range tickMagic {
		if absTick&(1<<(i+1)) != 0 {
			ratio.Mul(ratio, magic)
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// round up when shifting from Q128.128 to Q128.96
	rem := new(uint256.Int).And(ratio, q32Mask)
	out := new(uint256.Int).Rsh(ratio, 32)
	if !rem.IsZero() {
		out.AddUint64(out, 1)
	}
	return out, nil
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio is at most sqrtRatioX96.
func GetTickAtSqrtRatio(sqrtRatioX96 *uint256.Int) (int, error) {
	if sqrtRatioX96.Lt(MinSqrtRatio) || !sqrtRatioX96.Lt(MaxSqrtRatio) {
		return 0, ErrSqrtRatioOutOfRange
	}
	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		ratio, err := GetSqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Gt(sqrtRatioX96) {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return lo, nil
}

// GetSqrtRatioAtTickBig is GetSqrtRatioAtTick for math/big callers.
func GetSqrtRatioAtTickBig(tick int) (*big.Int, error) {
	ratio, err := GetSqrtRatioAtTick(tick)
	if err != nil {
		return nil, err
	}
	return ratio.ToBig(), nil
}

// GetTickAtSqrtRatioBig is GetTickAtSqrtRatio for math/big callers.
func GetTickAtSqrtRatioBig(sqrtRatioX96 *big.Int) (int, error) {
	v, err := fromBig(sqrtRatioX96)
	if err != nil {
		return 0, err
	}
	return GetTickAtSqrtRatio(v)
}

func fromBig(v *big.Int) (*uint256.Int, error) {
	if v == nil || v.Sign() < 0 {
		return nil, ErrSqrtRatioOutOfRange
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrSqrtRatioOverflow
	}
	return out, nil
}
