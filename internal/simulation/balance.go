// Package simulation checks a swap route against the chain before it is returned.
package simulation

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"orderRouter/internal/currency"
	"orderRouter/internal/model"
)

// BalanceReader reads the balances and allowances of the swapping account.
type BalanceReader interface {
	TokenBalance(ctx context.Context, token, owner common.Address, blockNumber *big.Int) (*big.Int, error)
	NativeBalance(ctx context.Context, owner common.Address, blockNumber *big.Int) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address, blockNumber *big.Int) (*big.Int, error)
}

// BalanceCheck is the result of a successful balance read.
type BalanceCheck struct {
	Sufficient bool
	Needed     currency.CurrencyAmount
	Balance    *big.Int
}

// NeededBalance is what from must hold: the amount for exact input, the quote for exact output.
func NeededBalance(tradeType model.TradeType, amount, quote currency.CurrencyAmount) currency.CurrencyAmount {
	if tradeType == model.ExactInput {
		return amount
	}
	return quote
}

// CheckBalance compares from's balance with the needed amount. A failed read is an error, never
// an insufficient balance.
func CheckBalance(ctx context.Context, balances BalanceReader, from common.Address, tradeType model.TradeType, amount, quote currency.CurrencyAmount, blockNumber *big.Int) (BalanceCheck, error) {
	needed := NeededBalance(tradeType, amount, quote)
	var (
		balance *big.Int
		err     error
	)
	if needed.Currency.IsNative {
		balance, err = balances.NativeBalance(ctx, from, blockNumber)
	} else {
		balance, err = balances.TokenBalance(ctx, needed.Currency.Wrapped().Address, from, blockNumber)
	}
	if err != nil {
		return BalanceCheck{}, fmt.Errorf("read balance of %s: %w", needed.Currency, err)
	}
	return BalanceCheck{
		Sufficient: balance.Cmp(needed.Quotient()) >= 0,
		Needed:     needed,
		Balance:    balance,
	}, nil
}

// UserHasSufficientBalance reports false when the balance cannot be read.
func UserHasSufficientBalance(ctx context.Context, balances BalanceReader, from common.Address, tradeType model.TradeType, amount, quote currency.CurrencyAmount, blockNumber *big.Int, logger *zap.Logger) bool {
	check, err := CheckBalance(ctx, balances, from, tradeType, amount, quote, blockNumber)
	if err != nil {
		if logger != nil {
			logger.Error("error while checking user balance", zap.Error(err))
		}
		return false
	}
	return check.Sufficient
}
