package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"orderRouter/internal/currency"
)

// MethodParameters is a ready-to-send transaction body.
type MethodParameters struct {
	Calldata hexutil.Bytes  `json:"calldata"`
	Value    *hexutil.Big   `json:"value"`
	To       common.Address `json:"to"`
}

// SwapRoute is the result of a route request.
type SwapRoute struct {
	Quote                      currency.CurrencyAmount
	QuoteGasAdjusted           currency.CurrencyAmount
	EstimatedGasUsed           *big.Int
	EstimatedGasUsedQuoteToken currency.CurrencyAmount
	EstimatedGasUsedUSD        currency.CurrencyAmount
	GasPriceWei                *big.Int
	Route                      []*RouteWithValidQuote
	Trade                      Trade
	MethodParameters           *MethodParameters
	BlockNumber                *big.Int
	SimulationStatus           SimulationStatus
}

// SimulationStatus reports the outcome of a pre-flight simulation.
type SimulationStatus int

const (
	SimulationNotSupported SimulationStatus = iota
	SimulationFailed
	SimulationSucceeded
	SimulationInsufficientBalance
	SimulationNotApproved
)

func (s SimulationStatus) String() string {
	switch s {
	case SimulationFailed:
		return "FAILED"
	case SimulationSucceeded:
		return "SUCCEEDED"
	case SimulationInsufficientBalance:
		return "INSUFFICIENT_BALANCE"
	case SimulationNotApproved:
		return "NOT_APPROVED"
	default:
		return "NOT_SUPPORTED"
	}
}

// SwapToRatioStatus is the terminal state of a ratio-matching run.
type SwapToRatioStatus int

const (
	SwapToRatioSuccess SwapToRatioStatus = iota
	SwapToRatioNoRouteFound
	SwapToRatioNoSwapNeeded
)

func (s SwapToRatioStatus) String() string {
	switch s {
	case SwapToRatioNoRouteFound:
		return "NO_ROUTE_FOUND"
	case SwapToRatioNoSwapNeeded:
		return "NO_SWAP_NEEDED"
	default:
		return "SUCCESS"
	}
}
