// Package swaprouter encodes trades into SwapRouter02 multicall transactions.
package swaprouter

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/dex"
	"orderRouter/internal/gas"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

var (
	ErrMissingRecipient = errors.New("swap recipient is required")
	ErrNoSwaps          = errors.New("trade has no swaps")
)

type encoder struct {
	parsed abi.ABI
	calls  [][]byte
	err    error
}

func newEncoder() (*encoder, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, fmt.Errorf("parse swap router abi: %w", err)
	}
	return &encoder{parsed: parsed}, nil
}

func (e *encoder) add(method string, args ...interface{}) {
	if e.err != nil {
		return
	}
	data, err := e.parsed.Pack(method, args...)
	if err != nil {
		e.err = fmt.Errorf("pack %s: %w", method, err)
		return
	}
	e.calls = append(e.calls, data)
}

func (e *encoder) multicall(deadline int64) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	data, err := e.parsed.Pack("multicall", big.NewInt(deadline), e.calls)
	if err != nil {
		return nil, fmt.Errorf("pack multicall: %w", err)
	}
	return data, nil
}

func (e *encoder) permit(input currency.Currency, p *model.Permit) {
	if p == nil || input.IsNative {
		return
	}
	e.add("selfPermit", input.Wrapped().Address, p.Amount, p.Deadline, p.V, p.R, p.S)
}

func (e *encoder) approve(token common.Address, approval dex.ApprovalType) {
	switch approval {
	case dex.ApprovalMax:
		e.add("approveMax", token)
	case dex.ApprovalMaxMinusOne:
		e.add("approveMaxMinusOne", token)
	case dex.ApprovalZeroThenMax:
		e.add("approveZeroThenMax", token)
	case dex.ApprovalZeroThenMaxMinusOne:
		e.add("approveZeroThenMaxMinusOne", token)
	}
}

// sweep returns the router's remaining balance of c to recipient, unwrapping native output.
func (e *encoder) sweep(c currency.Currency, minimum *big.Int, recipient common.Address) {
	if c.IsNative {
		e.add("unwrapWETH9", minimum, recipient)
		return
	}
	e.add("sweepToken", c.Wrapped().Address, minimum, recipient)
}

type swapSummary struct {
	inputNative  bool
	outputNative bool
	custody      bool
	maxIn        *big.Int
	minOut       *big.Int
}

// encodeSwaps adds one call per swap (several for mixed routes). When the router keeps custody
// of the output, swaps pay AddressThis and the caller settles the balance afterwards.
func (e *encoder) encodeSwaps(trade model.Trade, slippage currency.Percent, recipient common.Address, forceCustody bool) (swapSummary, error) {
	if len(trade.Swaps) == 0 {
		return swapSummary{}, ErrNoSwaps
	}
	sum := swapSummary{
		inputNative:  trade.InputCurrency.IsNative,
		outputNative: trade.OutputCurrency.IsNative,
		maxIn:        trade.MaximumAmountIn(slippage),
		minOut:       trade.MinimumAmountOut(slippage),
	}
	exactIn := trade.TradeType == model.ExactInput
	aggregated := exactIn && len(trade.Swaps) > 2
	sum.custody = forceCustody || sum.outputNative || aggregated
	to := recipient
	if sum.custody {
		to = chain.AddressThis
	}

	for _, s := range trade.Swaps {
		amountIn := model.MaximumAmountIn(trade.TradeType, slippage, s.InputAmount)
		amountOut := model.MinimumAmountOut(trade.TradeType, slippage, s.OutputAmount)
		if aggregated {
			amountOut = new(big.Int)
		}
		err := model.MatchRoute(s.Route,
			func(r model.V2Route) error {
				if exactIn {
					e.add("swapExactTokensForTokens", amountIn, amountOut, dex.V2Path(r), to)
				} else {
					e.add("swapTokensForExactTokens", amountOut, amountIn, dex.V2Path(r), to)
				}
				return nil
			},
			func(r model.V3Route) error {
				if exactIn {
					e.add("exactInput", exactInputParams{
						Path: dex.EncodeV3Path(r, false), Recipient: to, AmountIn: amountIn, AmountOutMinimum: amountOut,
					})
				} else {
					e.add("exactOutput", exactOutputParams{
						Path: dex.EncodeV3Path(r, true), Recipient: to, AmountOut: amountOut, AmountInMaximum: amountIn,
					})
				}
				return nil
			},
			func(r model.MixedRoute) error {
				if !exactIn {
					return dex.ErrMixedExactOutput
				}
				e.mixedExactInput(r, amountIn, amountOut, to)
				return nil
			},
		)
		if err != nil {
			return swapSummary{}, err
		}
	}
	return sum, e.err
}

// mixedExactInput swaps each same-protocol section in turn. Sections after the first spend the
// router's balance, signalled by a zero amountIn.
func (e *encoder) mixedExactInput(r model.MixedRoute, amountIn, minOut *big.Int, recipient common.Address) {
	sections := gas.PartitionByProtocol(r.Pools)
	input := r.Input
	for i, section := range sections {
		output := sectionOutput(input, section)
		in, out, to := new(big.Int), new(big.Int), chain.AddressThis
		if i == 0 {
			in = amountIn
		}
		if i == len(sections)-1 {
			out, to = minOut, recipient
		}
		if _, ok := section[0].(pool.V3Pool); ok {
			v3 := model.V3Route{Input: input, Output: output}
			for _, p := range section {
				v3.Pools = append(v3.Pools, p.(pool.V3Pool))
			}
			e.add("exactInput", exactInputParams{
				Path: dex.EncodeV3Path(v3, false), Recipient: to, AmountIn: in, AmountOutMinimum: out,
			})
		} else {
			v2 := model.V2Route{Input: input, Output: output}
			for _, p := range section {
				v2.Pairs = append(v2.Pairs, p.(pool.V2Pair))
			}
			e.add("swapExactTokensForTokens", in, out, dex.V2Path(v2), to)
		}
		input = output
	}
}

func sectionOutput(input currency.Token, section []pool.Pool) currency.Token {
	tok := input
	for _, p := range section {
		t0, t1 := p.Tokens()
		if t0.Equals(tok) {
			tok = t1
		} else {
			tok = t0
		}
	}
	return tok
}

// BuildSwapMethodParameters encodes trade as a SwapRouter02 multicall bounded by cfg's slippage
// and deadline.
func BuildSwapMethodParameters(chainID chain.ChainID, trade model.Trade, cfg model.SwapConfig) (*model.MethodParameters, error) {
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
	sum, err := enc.encodeSwaps(trade, cfg.SlippageTolerance, cfg.Recipient, false)
	if err != nil {
		return nil, fmt.Errorf("encode swaps: %w", err)
	}
	if sum.custody {
		enc.sweep(trade.OutputCurrency, sum.minOut, cfg.Recipient)
	}
	if sum.inputNative && trade.TradeType == model.ExactOutput {
		enc.add("refundETH")
	}
	calldata, err := enc.multicall(cfg.Deadline)
	if err != nil {
		return nil, err
	}
	value := new(big.Int)
	if sum.inputNative {
		value = sum.maxIn
	}
	return &model.MethodParameters{Calldata: calldata, Value: (*hexutil.Big)(value), To: addrs.SwapRouter02}, nil
}

// L1CalldataBuilder encodes quoted routes with placeholder recipient, deadline and slippage so
// rollup gas models can size the calldata before a real swap config exists.
func L1CalldataBuilder(chainID chain.ChainID) gas.CalldataBuilder {
	cfg := model.SwapConfig{
		Recipient:         common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Deadline:          100,
		SlippageTolerance: currency.NewPercent(1, 100),
	}
	return func(routes []*model.RouteWithValidQuote) ([]byte, error) {
		if len(routes) == 0 {
			return nil, ErrNoSwaps
		}
		first := routes[0]
		in := currency.TokenCurrency(first.Route.InputToken())
		out := currency.TokenCurrency(first.Route.OutputToken())
		trade, err := model.BuildTrade(in, out, first.TradeType, routes)
		if err != nil {
			return nil, err
		}
		params, err := BuildSwapMethodParameters(chainID, trade, cfg)
		if err != nil {
			return nil, err
		}
		return params.Calldata, nil
	}
}
