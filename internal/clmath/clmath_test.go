package clmath

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

func TestGetSqrtRatioAtTickBounds(t *testing.T) {
	cases := []struct {
		tick int
		want string
	}{
		{0, "79228162514264337593543950336"},
		{1, "79232123823359799118286999568"},
		{-1, "79224201403219477170569942574"},
		{MinTick, "4295128739"},
		{MaxTick, "1461446703485210103287273052203988822378723970342"},
	}
	for _, tc := range cases {
		got, err := GetSqrtRatioAtTick(tc.tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tc.tick, err)
		}
		if got.ToBig().String() != tc.want {
			t.Fatalf("tick %d: got %s want %s", tc.tick, got.ToBig().String(), tc.want)
		}
	}

	if _, err := GetSqrtRatioAtTick(MaxTick + 1); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestGetTickAtSqrtRatioInverse(t *testing.T) {
	for _, tick := range []int{MinTick, -200000, -60, -1, 0, 1, 60, 887271} {
		ratio, err := GetSqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("ratio: %v", err)
		}
		got, err := GetTickAtSqrtRatio(ratio)
		if err != nil {
			t.Fatalf("tick at ratio: %v", err)
		}
		if got != tick {
			t.Fatalf("round trip %d -> %d", tick, got)
		}

		between := new(uint256.Int).AddUint64(ratio, 1)
		got, err = GetTickAtSqrtRatio(between)
		if err != nil {
			t.Fatalf("tick at ratio+1: %v", err)
		}
		if got != tick {
			t.Fatalf("ratio+1 for tick %d resolved to %d", tick, got)
		}
	}
}

func TestAmountDeltas(t *testing.T) {
	liquidity := uint256.NewInt(1_000_000_000_000_000_000)
	doubleQ96 := new(uint256.Int).Lsh(Q96, 1)

	amount1, err := GetAmount1Delta(Q96, doubleQ96, liquidity, true)
	if err != nil {
		t.Fatalf("amount1: %v", err)
	}
	if amount1.Uint64() != 1_000_000_000_000_000_000 {
		t.Fatalf("amount1 = %s", amount1.ToBig().String())
	}

	amount0, err := GetAmount0Delta(doubleQ96, Q96, liquidity, true)
	if err != nil {
		t.Fatalf("amount0: %v", err)
	}
	if amount0.Uint64() != 500_000_000_000_000_000 {
		t.Fatalf("amount0 = %s", amount0.ToBig().String())
	}
}

func TestMaxLiquidityForAmountsInRange(t *testing.T) {
	lower, _ := GetSqrtRatioAtTick(-600)
	upper, _ := GetSqrtRatioAtTick(600)
	amount := uint256.NewInt(1_000_000)

	liquidity, err := MaxLiquidityForAmounts(Q96, lower, upper, amount, amount)
	if err != nil {
		t.Fatalf("liquidity: %v", err)
	}
	if liquidity.IsZero() {
		t.Fatalf("expected positive liquidity")
	}

	amount0, amount1, err := PositionAmounts(Q96, 0, -600, 600, liquidity)
	if err != nil {
		t.Fatalf("position amounts: %v", err)
	}
	if amount0.Gt(amount) || amount1.Gt(amount) {
		t.Fatalf("position needs more than supplied: %s %s", amount0.ToBig().String(), amount1.ToBig().String())
	}
}

func TestBigAdapters(t *testing.T) {
	ratio, err := GetSqrtRatioAtTickBig(0)
	if err != nil {
		t.Fatalf("ratio: %v", err)
	}
	if ratio.Cmp(Q96.ToBig()) != 0 {
		t.Fatalf("ratio = %s", ratio)
	}
	if _, err := GetTickAtSqrtRatioBig(big.NewInt(-1)); err == nil {
		t.Fatalf("expected error for negative ratio")
	}
}
