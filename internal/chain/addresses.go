package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	OVMGasPriceOracleAddress = common.HexToAddress("0x420000000000000000000000000000000000000F")
	ArbGasInfoAddress        = common.HexToAddress("0x000000000000000000000000000000000000006C")

	// SwapRouter02 sentinels for "this contract" and "msg.sender" recipients.
	AddressThis = common.HexToAddress("0x0000000000000000000000000000000000000002")
	MsgSender   = common.HexToAddress("0x0000000000000000000000000000000000000001")

	V3PoolInitCodeHash = common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54")
	V2PairInitCodeHash = common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f")
)

var (
	defaultV3Factory       = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	defaultQuoterV2        = common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	defaultSwapRouter02    = common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45")
	defaultPositionManager = common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
)

// Addresses groups the contracts a chain's router talks to.
type Addresses struct {
	V3Factory          common.Address
	V2Factory          common.Address
	V2Router           common.Address
	QuoterV2           common.Address
	MixedRouteQuoterV1 common.Address
	SwapRouter02       common.Address
	PositionManager    common.Address
}

var overrides = map[ChainID]func(*Addresses){
	Mainnet: func(a *Addresses) {
		a.V2Factory = common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
		a.V2Router = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
		a.MixedRouteQuoterV1 = common.HexToAddress("0x84E44095eeBfEC7793Cd7d5b57B7e401D7f1cA2E")
	},
	Goerli: func(a *Addresses) {
		a.V2Factory = common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
		a.V2Router = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
		a.MixedRouteQuoterV1 = common.HexToAddress("0xBa60b6e6fF25488308789E6e0A65D838be34194e")
	},
	BSC: func(a *Addresses) {
		a.V3Factory = common.HexToAddress("0xdB1d10011AD0Ff90774D0C6Bb92e5C5c8b4461F7")
		a.QuoterV2 = common.HexToAddress("0x78D78E420Da98ad378D7799bE8f4AF69033EB077")
		a.SwapRouter02 = common.HexToAddress("0xB971eF87ede563556b2ED4b1C0b0019111Dd85d2")
		a.PositionManager = common.HexToAddress("0x7b8A01B39D58278b5DE7e48c8449c9f4F5170613")
	},
}

// AddressesFor returns the contract set for a chain.
func AddressesFor(id ChainID) (Addresses, error) {
	if _, err := WrappedNative(id); err != nil {
		return Addresses{}, fmt.Errorf("unsupported chain %d", id)
	}
	a := Addresses{
		V3Factory:       defaultV3Factory,
		QuoterV2:        defaultQuoterV2,
		SwapRouter02:    defaultSwapRouter02,
		PositionManager: defaultPositionManager,
	}
	if apply, ok := overrides[id]; ok {
		apply(&a)
	}
	return a, nil
}
