package dex

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"orderRouter/internal/chain"
	"orderRouter/internal/pool"
)

func sortAddresses(a, b common.Address) (common.Address, common.Address) {
	if a.Cmp(b) < 0 {
		return a, b
	}
	return b, a
}

// ComputeV3PoolAddress derives the CREATE2 address of the (tokenA, tokenB, fee) pool.
func ComputeV3PoolAddress(factory, tokenA, tokenB common.Address, fee pool.FeeAmount) common.Address {
	token0, token1 := sortAddresses(tokenA, tokenB)
	encoded := make([]byte, 0, 96)
	encoded = append(encoded, common.LeftPadBytes(token0.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(token1.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(big.NewInt(int64(fee)).Bytes(), 32)...)
	salt := crypto.Keccak256Hash(encoded)
	return crypto.CreateAddress2(factory, salt, chain.V3PoolInitCodeHash.Bytes())
}

// ComputeV2PairAddress derives the CREATE2 address of the (tokenA, tokenB) pair.
func ComputeV2PairAddress(factory, tokenA, tokenB common.Address) common.Address {
	token0, token1 := sortAddresses(tokenA, tokenB)
	salt := crypto.Keccak256Hash(token0.Bytes(), token1.Bytes())
	return crypto.CreateAddress2(factory, salt, chain.V2PairInitCodeHash.Bytes())
}
