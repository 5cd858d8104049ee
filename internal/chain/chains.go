package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/currency"
)

// ChainID identifies an EVM network.
type ChainID uint64

const (
	Mainnet         ChainID = 1
	Goerli          ChainID = 5
	Optimism        ChainID = 10
	BSC             ChainID = 56
	OptimisticKovan ChainID = 69
	Polygon         ChainID = 137
	OptimismGoerli  ChainID = 420
	ArbitrumOne     ChainID = 42161
	ArbitrumRinkeby ChainID = 421611
	ArbitrumGoerli  ChainID = 421613
)

// V2Supported lists chains with a constant-product V2 deployment.
var V2Supported = []ChainID{Mainnet, Goerli}

// DefaultMixedChains lists chains where mixed V2/V3 routes are quoted by default.
var DefaultMixedChains = []ChainID{Mainnet, Goerli}

var (
	arbitrumChains = []ChainID{ArbitrumOne, ArbitrumRinkeby, ArbitrumGoerli}
	optimismChains = []ChainID{Optimism, OptimisticKovan, OptimismGoerli}
)

func contains(ids []ChainID, id ChainID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// SupportsV2 reports whether id has a V2 deployment.
func SupportsV2(id ChainID) bool { return contains(V2Supported, id) }

// IsArbitrum reports whether id settles through Arbitrum's L1 fee model.
func IsArbitrum(id ChainID) bool { return contains(arbitrumChains, id) }

// IsOptimism reports whether id settles through Optimism's L1 fee model.
func IsOptimism(id ChainID) bool { return contains(optimismChains, id) }

// Contains is exported for allow-list checks in callers.
func Contains(ids []ChainID, id ChainID) bool { return contains(ids, id) }

func token(id ChainID, addr string, decimals uint8, symbol, name string) currency.Token {
	return currency.NewToken(uint64(id), common.HexToAddress(addr), decimals, symbol, name)
}

var wrappedNative = map[ChainID]currency.Token{
	Mainnet:         token(Mainnet, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", 18, "WETH", "Wrapped Ether"),
	Goerli:          token(Goerli, "0xB4FBF271143F4FBf7B91A5ded31805e42b2208d6", 18, "WETH", "Wrapped Ether"),
	Optimism:        token(Optimism, "0x4200000000000000000000000000000000000006", 18, "WETH", "Wrapped Ether"),
	OptimisticKovan: token(OptimisticKovan, "0x4200000000000000000000000000000000000006", 18, "WETH", "Wrapped Ether"),
	OptimismGoerli:  token(OptimismGoerli, "0x4200000000000000000000000000000000000006", 18, "WETH", "Wrapped Ether"),
	ArbitrumOne:     token(ArbitrumOne, "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", 18, "WETH", "Wrapped Ether"),
	ArbitrumRinkeby: token(ArbitrumRinkeby, "0xB47e6A5f8b33b3F17603C83a0535A9dcD7E32681", 18, "WETH", "Wrapped Ether"),
	ArbitrumGoerli:  token(ArbitrumGoerli, "0xe39Ab88f8A4777030A534146A9Ca3B52bd5D43A3", 18, "WETH", "Wrapped Ether"),
	Polygon:         token(Polygon, "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", 18, "WMATIC", "Wrapped MATIC"),
	BSC:             token(BSC, "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", 18, "WBNB", "Wrapped BNB"),
}

var nativeSymbols = map[ChainID]string{
	Polygon: "MATIC",
	BSC:     "BNB",
}

var usdGasTokens = map[ChainID][]currency.Token{
	Mainnet: {
		token(Mainnet, "0x6B175474E89094C44Da98b954EedeAC495271d0F", 18, "DAI", "Dai Stablecoin"),
		token(Mainnet, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", 6, "USDC", "USD Coin"),
		token(Mainnet, "0xdAC17F958D2ee523a2206206994597C13D831ec7", 6, "USDT", "Tether USD"),
	},
	Goerli: {
		token(Goerli, "0x07865c6E87B9F70255377e024ace6630C1Eaa37F", 6, "USDC", "USD Coin"),
	},
	Optimism: {
		token(Optimism, "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1", 18, "DAI", "Dai Stablecoin"),
		token(Optimism, "0x7F5c764cBc14f9669B88837ca1490cCa17c31607", 6, "USDC", "USD Coin"),
		token(Optimism, "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58", 6, "USDT", "Tether USD"),
	},
	ArbitrumOne: {
		token(ArbitrumOne, "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1", 18, "DAI", "Dai Stablecoin"),
		token(ArbitrumOne, "0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8", 6, "USDC", "USD Coin"),
		token(ArbitrumOne, "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9", 6, "USDT", "Tether USD"),
	},
	Polygon: {
		token(Polygon, "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", 6, "USDC", "USD Coin"),
		token(Polygon, "0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063", 18, "DAI", "Dai Stablecoin"),
	},
	BSC: {
		token(BSC, "0x55d398326f99059fF775485246999027B3197955", 18, "USDT", "Tether USD"),
		token(BSC, "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56", 18, "BUSD", "Binance USD"),
	},
}

var baseTokens = map[ChainID][]currency.Token{
	Mainnet: {
		wrappedNative[Mainnet],
		usdGasTokens[Mainnet][0],
		usdGasTokens[Mainnet][1],
		usdGasTokens[Mainnet][2],
		token(Mainnet, "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", 8, "WBTC", "Wrapped BTC"),
	},
}

// WrappedNative returns the wrapped native token of a chain.
func WrappedNative(id ChainID) (currency.Token, error) {
	t, ok := wrappedNative[id]
	if !ok {
		return currency.Token{}, fmt.Errorf("no wrapped native token for chain %d", id)
	}
	return t, nil
}

// NativeCurrency returns the native sentinel of a chain.
func NativeCurrency(id ChainID) (currency.Currency, error) {
	wrapped, err := WrappedNative(id)
	if err != nil {
		return currency.Currency{}, err
	}
	symbol, ok := nativeSymbols[id]
	if !ok {
		symbol = "ETH"
	}
	return currency.NativeCurrency(wrapped, symbol), nil
}

// USDGasTokens returns the stablecoins used to express gas cost in USD.
func USDGasTokens(id ChainID) []currency.Token {
	return usdGasTokens[id]
}

// BaseTokens returns the intermediary tokens used for multi-hop candidate selection.
func BaseTokens(id ChainID) []currency.Token {
	if tokens, ok := baseTokens[id]; ok {
		return tokens
	}
	out := make([]currency.Token, 0, 4)
	if w, ok := wrappedNative[id]; ok {
		out = append(out, w)
	}
	return append(out, usdGasTokens[id]...)
}
