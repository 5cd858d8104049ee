package gas

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"orderRouter/internal/chain"
)

// signedTxOverhead approximates the signature bytes an L1 batch adds per transaction.
const signedTxOverhead = 68 * 16

// ArbitrumGasData comes from ArbGasInfo.getPricesInWei.
type ArbitrumGasData struct {
	PerL2TxFee       *big.Int
	PerL1CalldataFee *big.Int
	PerArbGasTotal   *big.Int
}

// OptimismGasData comes from the OVM gas price oracle.
type OptimismGasData struct {
	L1BaseFee *big.Int
	Scalar    *big.Int
	Decimals  *big.Int
	Overhead  *big.Int
}

// L2GasData holds the rollup-specific settlement data. At most one side is set, chosen by chain id.
type L2GasData struct {
	Arbitrum *ArbitrumGasData
	Optimism *OptimismGasData
}

// GetL2ToL1GasUsed prices hex calldata the way the OVM gas price oracle does:
// 4 per zero byte, 16 per non-zero byte, plus overhead and the signed-transaction surcharge.
func GetL2ToL1GasUsed(calldata string, overhead *big.Int) (*big.Int, error) {
	data, err := hexutil.Decode(calldata)
	if err != nil {
		return nil, fmt.Errorf("decode calldata: %w", err)
	}
	return l2ToL1GasUsed(data, overhead), nil
}

func l2ToL1GasUsed(data []byte, overhead *big.Int) *big.Int {
	var count int64
	for _, b := range data {
		if b == 0 {
			count += 4
		} else {
			count += 16
		}
	}
	used := big.NewInt(count + signedTxOverhead)
	if overhead != nil {
		used.Add(used, overhead)
	}
	return used
}

// ArbitrumL1Fee returns the L1 gas used and the fee in wei: gasUsed*perL1CalldataFee + perL2TxFee.
func ArbitrumL1Fee(calldata []byte, d ArbitrumGasData) (*big.Int, *big.Int) {
	used := l2ToL1GasUsed(calldata, nil)
	fee := new(big.Int).Mul(used, orZero(d.PerL1CalldataFee))
	fee.Add(fee, orZero(d.PerL2TxFee))
	return used, fee
}

// OptimismL1Fee returns the L1 gas used and the fee in wei: gasUsed*l1BaseFee*scalar / 10^decimals.
func OptimismL1Fee(calldata []byte, d OptimismGasData) (*big.Int, *big.Int) {
	used := l2ToL1GasUsed(calldata, d.Overhead)
	fee := new(big.Int).Mul(used, orZero(d.L1BaseFee))
	fee.Mul(fee, orZero(d.Scalar))
	scale := new(big.Int).Exp(big.NewInt(10), orZero(d.Decimals), nil)
	fee.Quo(fee, scale)
	return used, fee
}

// L1Fee dispatches on the chain id. Chains outside the rollup sets pay nothing.
func L1Fee(chainID chain.ChainID, calldata []byte, data *L2GasData) (*big.Int, *big.Int, error) {
	switch {
	case chain.IsArbitrum(chainID):
		if data == nil || data.Arbitrum == nil {
			return nil, nil, fmt.Errorf("missing arbitrum gas data for chain %d", chainID)
		}
		used, fee := ArbitrumL1Fee(calldata, *data.Arbitrum)
		return used, fee, nil
	case chain.IsOptimism(chainID):
		if data == nil || data.Optimism == nil {
			return nil, nil, fmt.Errorf("missing optimism gas data for chain %d", chainID)
		}
		used, fee := OptimismL1Fee(calldata, *data.Optimism)
		return used, fee, nil
	}
	return new(big.Int), new(big.Int), nil
}

// NeedsL2GasData reports whether the chain settles calldata on L1.
func NeedsL2GasData(chainID chain.ChainID) bool {
	return chain.IsArbitrum(chainID) || chain.IsOptimism(chainID)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
