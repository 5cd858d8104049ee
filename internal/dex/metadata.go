package dex

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
)

// TokenProvider resolves ERC20 metadata into tokens, caching by address.
type TokenProvider struct {
	caller  Caller
	chainID chain.ChainID
	cache   *lru.Cache[common.Address, currency.Token]
	logger  *zap.Logger
}

// NewTokenProvider creates a token provider whose cache is seeded with the chain's known tokens.
func NewTokenProvider(caller Caller, chainID chain.ChainID, cacheSize int, logger *zap.Logger) (*TokenProvider, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	cache, err := lru.New[common.Address, currency.Token](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("token cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if native, err := chain.WrappedNative(chainID); err == nil {
		cache.Add(native.Address, native)
	}
	for _, t := range chain.BaseTokens(chainID) {
		cache.Add(t.Address, t)
	}
	for _, t := range chain.USDGasTokens(chainID) {
		cache.Add(t.Address, t)
	}

	return &TokenProvider{caller: caller, chainID: chainID, cache: cache, logger: logger}, nil
}

// GetToken returns the token at address, fetching its metadata on a cache miss.
func (p *TokenProvider) GetToken(ctx context.Context, address common.Address) (currency.Token, error) {
	if t, ok := p.cache.Get(address); ok {
		return t, nil
	}
	t, err := FetchToken(ctx, p.caller, p.chainID, address, p.logger)
	if err != nil {
		return currency.Token{}, err
	}
	p.cache.Add(address, t)
	return t, nil
}

// GetCurrency resolves "native", the chain's native symbol, or a token address.
func (p *TokenProvider) GetCurrency(ctx context.Context, s string) (currency.Currency, error) {
	s = strings.TrimSpace(s)
	native, err := chain.NativeCurrency(p.chainID)
	if err != nil {
		return currency.Currency{}, err
	}
	if strings.EqualFold(s, "native") || strings.EqualFold(s, native.NativeSymbol) {
		return native, nil
	}
	if !common.IsHexAddress(s) {
		return currency.Currency{}, fmt.Errorf("invalid token %q", s)
	}
	t, err := p.GetToken(ctx, common.HexToAddress(s))
	if err != nil {
		return currency.Currency{}, fmt.Errorf("token %s: %w", s, err)
	}
	return currency.TokenCurrency(t), nil
}

// FetchToken loads token metadata via ERC20 calls. Symbol and name fall back to bytes32 encodings
// and are left empty when neither decodes; decimals are required.
func FetchToken(ctx context.Context, caller Caller, chainID chain.ChainID, address common.Address, logger *zap.Logger) (currency.Token, error) {
	if caller == nil {
		return currency.Token{}, fmt.Errorf("chain client is nil")
	}

	stringABI, err := erc20ABIString.get()
	if err != nil {
		return currency.Token{}, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32.get()
	if err != nil {
		return currency.Token{}, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		return callContract(ctx, caller, address, parsed, method, nil)
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return currency.Token{}, fmt.Errorf("token %s: %w", address.Hex(), err)
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return currency.Token{}, err
	}

	text := func(method string) string {
		if values, err := call(method, stringABI); err == nil {
			if s, ok := values[0].(string); ok {
				return s
			}
		}
		values, err := call(method, bytes32ABI)
		if err == nil {
			if s, ok := bytes32ToString(values[0]); ok {
				return s
			}
		}
		if logger != nil {
			logger.Debug(method+" call failed", zap.String("token", address.Hex()), zap.Error(err))
		}
		return ""
	}

	return currency.NewToken(uint64(chainID), address, decimals, text("symbol"), text("name")), nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
