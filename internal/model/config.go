package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/currency"
)

// RoutingConfig tunes a single route request.
type RoutingConfig struct {
	// BlockNumber pins every provider read. Nil resolves the latest block.
	BlockNumber *big.Int
	// Protocols to query. Empty means every protocol the chain supports.
	Protocols []Protocol
	// DistributionPercent must divide 100.
	DistributionPercent int

	MaxSwapsPerPath int
	MinSplits       int
	MaxSplits       int

	TopN           int
	TopNDirect     int
	TopNTokenInOut int

	BlockedTokens []common.Address
}

// DefaultRoutingConfig mirrors the CLI defaults.
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{
		DistributionPercent: 5,
		MaxSwapsPerPath:     3,
		MinSplits:           1,
		MaxSplits:           3,
		TopN:                2,
		TopNDirect:          2,
		TopNTokenInOut:      2,
	}
}

// HasProtocol reports whether p was requested explicitly.
func (c RoutingConfig) HasProtocol(p Protocol) bool {
	for _, q := range c.Protocols {
		if q == p {
			return true
		}
	}
	return false
}

// IsBlocked reports whether t is on the blocked list.
func (c RoutingConfig) IsBlocked(t currency.Token) bool {
	for _, b := range c.BlockedTokens {
		if b == t.Address {
			return true
		}
	}
	return false
}

// Permit is an EIP-2612 signature consumed through selfPermit.
type Permit struct {
	V        uint8
	R        [32]byte
	S        [32]byte
	Amount   *big.Int
	Deadline *big.Int
}

// SimulationConfig requests a simulated execution from FromAddress.
type SimulationConfig struct {
	FromAddress common.Address
}

// SwapConfig turns a route into calldata.
type SwapConfig struct {
	Recipient         common.Address
	SlippageTolerance currency.Percent
	// Deadline is a unix timestamp.
	Deadline         int64
	InputTokenPermit *Permit
	Simulate         *SimulationConfig
}

// SwapAndAddConfig bounds the ratio-matching loop.
type SwapAndAddConfig struct {
	MaxIterations       int
	RatioErrorTolerance currency.Fraction
}

// AddLiquidityOptions selects between minting a new position and increasing an existing one.
type AddLiquidityOptions struct {
	Recipient *common.Address
	TokenID   *big.Int
}

// SwapAndAddOptions are the execution options of a swap-and-add.
type SwapAndAddOptions struct {
	SwapConfig          SwapConfig
	AddLiquidityOptions AddLiquidityOptions
}
