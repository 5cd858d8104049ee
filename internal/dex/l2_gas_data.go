package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/chain"
	"orderRouter/internal/gas"
)

// L2GasDataProvider reads rollup settlement parameters.
type L2GasDataProvider interface {
	GetGasData(ctx context.Context) (*gas.L2GasData, error)
}

// NewL2GasDataProvider picks the oracle for chainID. Chains that settle no calldata on L1 get nil.
func NewL2GasDataProvider(caller Caller, chainID chain.ChainID) L2GasDataProvider {
	switch {
	case chain.IsOptimism(chainID):
		return &OptimismGasDataProvider{caller: caller, oracle: chain.OVMGasPriceOracleAddress}
	case chain.IsArbitrum(chainID):
		return &ArbitrumGasDataProvider{caller: caller, gasInfo: chain.ArbGasInfoAddress}
	}
	return nil
}

// OptimismGasDataProvider reads the OVM gas price oracle.
type OptimismGasDataProvider struct {
	caller Caller
	oracle common.Address
}

func (p *OptimismGasDataProvider) GetGasData(ctx context.Context) (*gas.L2GasData, error) {
	parsed, err := gasPriceOracleABI.get()
	if err != nil {
		return nil, fmt.Errorf("parse gas price oracle abi: %w", err)
	}
	read := func(method string) (*big.Int, error) {
		values, err := callContract(ctx, p.caller, p.oracle, parsed, method, nil)
		if err != nil {
			return nil, err
		}
		return asBigInt(values[0])
	}

	var d gas.OptimismGasData
	for _, f := range []struct {
		method string
		dst    **big.Int
	}{
		{"l1BaseFee", &d.L1BaseFee},
		{"scalar", &d.Scalar},
		{"decimals", &d.Decimals},
		{"overhead", &d.Overhead},
	} {
		v, err := read(f.method)
		if err != nil {
			return nil, fmt.Errorf("optimism gas data: %w", err)
		}
		*f.dst = v
	}
	return &gas.L2GasData{Optimism: &d}, nil
}

// ArbitrumGasDataProvider reads ArbGasInfo.getPricesInWei.
type ArbitrumGasDataProvider struct {
	caller  Caller
	gasInfo common.Address
}

func (p *ArbitrumGasDataProvider) GetGasData(ctx context.Context) (*gas.L2GasData, error) {
	parsed, err := arbGasInfoABI.get()
	if err != nil {
		return nil, fmt.Errorf("parse arb gas info abi: %w", err)
	}
	values, err := callContract(ctx, p.caller, p.gasInfo, parsed, "getPricesInWei", nil)
	if err != nil {
		return nil, fmt.Errorf("arbitrum gas data: %w", err)
	}
	if len(values) != 6 {
		return nil, fmt.Errorf("getPricesInWei return size %d", len(values))
	}
	prices := make([]*big.Int, len(values))
	for i, v := range values {
		if prices[i], err = asBigInt(v); err != nil {
			return nil, fmt.Errorf("getPricesInWei[%d]: %w", i, err)
		}
	}
	return &gas.L2GasData{Arbitrum: &gas.ArbitrumGasData{
		PerL2TxFee:       prices[0],
		PerL1CalldataFee: prices[1],
		PerArbGasTotal:   prices[5],
	}}, nil
}
