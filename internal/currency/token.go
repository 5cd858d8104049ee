package currency

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Token is an ERC20 identified by chain id and address.
type Token struct {
	ChainID  uint64         `json:"chainId"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol,omitempty"`
	Name     string         `json:"name,omitempty"`
}

func NewToken(chainID uint64, address common.Address, decimals uint8, symbol, name string) Token {
	return Token{ChainID: chainID, Address: address, Decimals: decimals, Symbol: symbol, Name: name}
}

// Equals compares chain id and address only.
func (t Token) Equals(o Token) bool {
	return t.ChainID == o.ChainID && t.Address == o.Address
}

// SortsBefore orders tokens by address bytes, the order pools use for token0/token1.
func (t Token) SortsBefore(o Token) bool {
	return bytes.Compare(t.Address.Bytes(), o.Address.Bytes()) < 0
}

func (t Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}

// SortTokens returns the pair in token0/token1 order.
func SortTokens(a, b Token) (Token, Token) {
	if a.SortsBefore(b) {
		return a, b
	}
	return b, a
}

// Currency is either a token or the chain's native currency. A native currency carries its
// wrapped token so routing can always operate on tokens.
type Currency struct {
	Token
	IsNative     bool   `json:"isNative,omitempty"`
	NativeSymbol string `json:"nativeSymbol,omitempty"`
}

// TokenCurrency wraps a token as a currency.
func TokenCurrency(t Token) Currency {
	return Currency{Token: t}
}

// NativeCurrency builds the native sentinel for a chain given its wrapped token.
func NativeCurrency(wrapped Token, symbol string) Currency {
	return Currency{Token: wrapped, IsNative: true, NativeSymbol: symbol}
}

// Wrapped returns the token form.
func (c Currency) Wrapped() Token {
	return c.Token
}

func (c Currency) Equals(o Currency) bool {
	return c.IsNative == o.IsNative && c.Token.Equals(o.Token)
}

func (c Currency) String() string {
	if c.IsNative {
		return c.NativeSymbol
	}
	return c.Token.String()
}

// ErrCurrencyMismatch is returned for arithmetic between amounts of different currencies.
var ErrCurrencyMismatch = fmt.Errorf("currency mismatch")
