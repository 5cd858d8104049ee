package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type balanceClient interface {
	Caller
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// BalanceReader reads ERC20 and native balances.
type BalanceReader struct {
	client balanceClient
}

func NewBalanceReader(client balanceClient) *BalanceReader {
	return &BalanceReader{client: client}
}

// TokenBalance returns owner's balance of token.
func (r *BalanceReader) TokenBalance(ctx context.Context, token, owner common.Address, blockNumber *big.Int) (*big.Int, error) {
	return r.callUint(ctx, token, "balanceOf", blockNumber, owner)
}

// Allowance returns how much of owner's token spender may move.
func (r *BalanceReader) Allowance(ctx context.Context, token, owner, spender common.Address, blockNumber *big.Int) (*big.Int, error) {
	return r.callUint(ctx, token, "allowance", blockNumber, owner, spender)
}

func (r *BalanceReader) callUint(ctx context.Context, token common.Address, method string, blockNumber *big.Int, args ...interface{}) (*big.Int, error) {
	if r.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	parsed, err := erc20ABIString.get()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callContract(ctx, r.client, token, parsed, method, blockNumber, args...)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s unexpected type %T", method, values[0])
	}
	return v, nil
}

// NativeBalance returns owner's native balance.
func (r *BalanceReader) NativeBalance(ctx context.Context, owner common.Address, blockNumber *big.Int) (*big.Int, error) {
	if r.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	bal, err := r.client.BalanceAt(ctx, owner, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("native balance: %w", err)
	}
	return bal, nil
}
