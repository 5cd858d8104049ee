package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
)

// ApprovalType is SwapRouter02's IApproveAndCall.ApprovalType.
type ApprovalType uint8

const (
	ApprovalNotRequired ApprovalType = iota
	ApprovalMax
	ApprovalMaxMinusOne
	ApprovalZeroThenMax
	ApprovalZeroThenMaxMinusOne
)

func (a ApprovalType) String() string {
	switch a {
	case ApprovalNotRequired:
		return "NOT_REQUIRED"
	case ApprovalMax:
		return "MAX"
	case ApprovalMaxMinusOne:
		return "MAX_MINUS_ONE"
	case ApprovalZeroThenMax:
		return "ZERO_THEN_MAX"
	case ApprovalZeroThenMaxMinusOne:
		return "ZERO_THEN_MAX_MINUS_ONE"
	}
	return fmt.Sprintf("APPROVAL_TYPE(%d)", uint8(a))
}

// ApprovalTypes holds the approvals SwapRouter02 needs for both deposit tokens.
type ApprovalTypes struct {
	TokenIn  ApprovalType
	TokenOut ApprovalType
}

// ApprovalProvider asks SwapRouter02 which approval each token needs.
type ApprovalProvider struct {
	caller Caller
	router common.Address
}

func NewApprovalProvider(caller Caller, chainID chain.ChainID) (*ApprovalProvider, error) {
	addrs, err := chain.AddressesFor(chainID)
	if err != nil {
		return nil, err
	}
	return &ApprovalProvider{caller: caller, router: addrs.SwapRouter02}, nil
}

// GetApprovalType queries both amounts in one batch. Native currencies need no approval.
func (p *ApprovalProvider) GetApprovalType(ctx context.Context, tokenInAmount, tokenOutAmount currency.CurrencyAmount) (ApprovalTypes, error) {
	parsed, err := approvalABI.get()
	if err != nil {
		return ApprovalTypes{}, fmt.Errorf("parse approval abi: %w", err)
	}

	amounts := []currency.CurrencyAmount{tokenInAmount, tokenOutAmount}
	out := make([]ApprovalType, len(amounts))
	var (
		calls   []chain.CallRequest
		indexes []int
	)
	for i, a := range amounts {
		if a.Currency.IsNative {
			continue
		}
		data, err := parsed.Pack("getApprovalType", a.Currency.Address, a.Quotient())
		if err != nil {
			return ApprovalTypes{}, fmt.Errorf("pack getApprovalType: %w", err)
		}
		calls = append(calls, chain.CallRequest{To: p.router, Data: data})
		indexes = append(indexes, i)
	}

	if len(calls) > 0 {
		results, err := p.caller.BatchCall(ctx, calls, nil)
		if err != nil {
			return ApprovalTypes{}, fmt.Errorf("get approval type: %w", err)
		}
		if len(results) != len(calls) {
			return ApprovalTypes{}, fmt.Errorf("get approval type returned %d results", len(results))
		}
		for k, res := range results {
			values, err := unpackResult(parsed, "getApprovalType", res)
			if err != nil {
				return ApprovalTypes{}, fmt.Errorf("get approval type %s: %w", amounts[indexes[k]].Currency, err)
			}
			v, err := asUint8(values[0])
			if err != nil {
				return ApprovalTypes{}, err
			}
			out[indexes[k]] = ApprovalType(v)
		}
	}
	return ApprovalTypes{TokenIn: out[0], TokenOut: out[1]}, nil
}
