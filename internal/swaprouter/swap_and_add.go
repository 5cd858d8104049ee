package swaprouter

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/dex"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// BuildSwapAndAddMethodParameters swaps into the router, tops up both deposit tokens from the
// sender, adds position's liquidity and sweeps whatever is left back to the recipient.
func BuildSwapAndAddMethodParameters(
	chainID chain.ChainID,
	trade model.Trade,
	opts model.SwapAndAddOptions,
	position pool.Position,
	approvals dex.ApprovalTypes,
) (*model.MethodParameters, error) {
	cfg := opts.SwapConfig
	if cfg.Recipient == (common.Address{}) {
		return nil, ErrMissingRecipient
	}
	addrs, err := chain.AddressesFor(chainID)
	if err != nil {
		return nil, err
	}
	enc, err := newEncoder()
	if err != nil {
		return nil, err
	}
	enc.permit(trade.InputCurrency, cfg.InputTokenPermit)
	sum, err := enc.encodeSwaps(trade, cfg.SlippageTolerance, cfg.Recipient, true)
	if err != nil {
		return nil, fmt.Errorf("encode swaps: %w", err)
	}

	tokenIn := trade.InputCurrency.Wrapped()
	tokenOut := trade.OutputCurrency.Wrapped()
	zeroForOne := position.Pool.Token0.Equals(tokenIn)
	amount0, amount1, err := position.Amounts()
	if err != nil {
		return nil, fmt.Errorf("position amounts: %w", err)
	}
	posIn, posOut := amount0, amount1
	if !zeroForOne {
		posIn, posOut = amount1, amount0
	}

	outRemaining := new(big.Int).Sub(posOut, sum.minOut)
	if outRemaining.Sign() > 0 {
		if sum.outputNative {
			enc.add("wrapETH", outRemaining)
		} else {
			enc.add("pull", tokenOut.Address, outRemaining)
		}
	}
	if sum.inputNative {
		enc.add("wrapETH", posIn)
	} else {
		enc.add("pull", tokenIn.Address, posIn)
	}
	enc.approve(tokenIn.Address, approvals.TokenIn)
	enc.approve(tokenOut.Address, approvals.TokenOut)

	// The position the router can fund if the swap fills at its slippage floor.
	min0, min1 := posIn, sum.minOut
	if !zeroForOne {
		min0, min1 = sum.minOut, posIn
	}
	minimal, err := pool.NewPositionFromAmounts(position.Pool, position.TickLower, position.TickUpper, min0, min1)
	if err != nil {
		return nil, fmt.Errorf("minimal position: %w", err)
	}
	if err := enc.addLiquidity(minimal, opts.AddLiquidityOptions, cfg); err != nil {
		return nil, err
	}

	enc.sweep(trade.InputCurrency, new(big.Int), cfg.Recipient)
	enc.sweep(trade.OutputCurrency, new(big.Int), cfg.Recipient)

	calldata, err := enc.multicall(cfg.Deadline)
	if err != nil {
		return nil, err
	}
	value := new(big.Int)
	switch {
	case sum.inputNative:
		value.Add(sum.maxIn, posIn)
	case sum.outputNative && outRemaining.Sign() > 0:
		value.Set(outRemaining)
	}
	return &model.MethodParameters{Calldata: calldata, Value: (*hexutil.Big)(value), To: addrs.SwapRouter02}, nil
}

func (e *encoder) addLiquidity(minimal pool.Position, add model.AddLiquidityOptions, cfg model.SwapConfig) error {
	amount0, amount1, err := minimal.Amounts()
	if err != nil {
		return fmt.Errorf("minimal position amounts: %w", err)
	}
	amount0Min := applySlippage(amount0, cfg.SlippageTolerance)
	amount1Min := applySlippage(amount1, cfg.SlippageTolerance)
	p := minimal.Pool
	if add.TokenID != nil {
		e.add("increaseLiquidity", increaseLiquidityParams{
			Token0: p.Token0.Address, Token1: p.Token1.Address, TokenId: add.TokenID,
			Amount0Min: amount0Min, Amount1Min: amount1Min,
		})
		return nil
	}
	recipient := cfg.Recipient
	if add.Recipient != nil {
		recipient = *add.Recipient
	}
	e.add("mint", mintParams{
		Token0:     p.Token0.Address,
		Token1:     p.Token1.Address,
		Fee:        big.NewInt(int64(p.Fee)),
		TickLower:  big.NewInt(int64(minimal.TickLower)),
		TickUpper:  big.NewInt(int64(minimal.TickUpper)),
		Amount0Min: amount0Min,
		Amount1Min: amount1Min,
		Recipient:  recipient,
	})
	return nil
}

// applySlippage returns amount*(1-slippage) rounded down.
func applySlippage(amount *big.Int, slippage currency.Percent) *big.Int {
	oneMinus := currency.NewFractionInt(1, 1).Subtract(slippage.Fraction)
	return currency.FractionFromInt(amount).Multiply(oneMinus).Quotient()
}
