package dex

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

var (
	usdc = currency.NewToken(1, common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC", "USD Coin")
	weth = currency.NewToken(1, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH", "Wrapped Ether")
	dai  = currency.NewToken(1, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18, "DAI", "Dai Stablecoin")
	q96  = new(big.Int).Lsh(big.NewInt(1), 96)
)

func mainnetAddresses(t *testing.T) chain.Addresses {
	t.Helper()
	addrs, err := chain.AddressesFor(chain.Mainnet)
	if err != nil {
		t.Fatalf("addresses: %v", err)
	}
	return addrs
}

func TestSplitChunks(t *testing.T) {
	got, err := SplitChunks(5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Chunk{{Start: 0, End: 2}, {Start: 2, End: 4}, {Start: 4, End: 5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("chunks mismatch: %+v != %+v", got, want)
	}

	got, err = SplitChunks(3, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []Chunk{{Start: 0, End: 3}}) {
		t.Fatalf("single chunk mismatch: %+v", got)
	}
}

func TestSplitChunksInvalid(t *testing.T) {
	if _, err := SplitChunks(10, 0); err == nil {
		t.Fatalf("expected error for zero chunk size")
	}
	if _, err := SplitChunks(-1, 1); err == nil {
		t.Fatalf("expected error for negative count")
	}
}

func TestComputePoolAddresses(t *testing.T) {
	addrs := mainnetAddresses(t)

	v3 := ComputeV3PoolAddress(addrs.V3Factory, weth.Address, usdc.Address, pool.FeeLow)
	if v3 != common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640") {
		t.Fatalf("v3 pool address mismatch: %s", v3.Hex())
	}
	v2 := ComputeV2PairAddress(addrs.V2Factory, weth.Address, usdc.Address)
	if v2 != common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc") {
		t.Fatalf("v2 pair address mismatch: %s", v2.Hex())
	}
	if ComputeV2PairAddress(addrs.V2Factory, usdc.Address, weth.Address) != v2 {
		t.Fatalf("pair address depends on token order")
	}
}

func TestEncodeV3Path(t *testing.T) {
	p1 := pool.NewV3Pool(common.HexToAddress("0x01"), usdc, weth, pool.FeeLow, q96, big.NewInt(1), 0)
	p2 := pool.NewV3Pool(common.HexToAddress("0x02"), weth, dai, pool.FeeMedium, q96, big.NewInt(1), 0)
	route := model.V3Route{Pools: []pool.V3Pool{p1, p2}, Input: usdc, Output: dai}

	path := EncodeV3Path(route, false)
	if len(path) != 20*3+3*2 {
		t.Fatalf("path length %d", len(path))
	}
	if !bytes.Equal(path[:20], usdc.Address.Bytes()) || !bytes.Equal(path[46:], dai.Address.Bytes()) {
		t.Fatalf("path endpoints mismatch: %x", path)
	}
	if !bytes.Equal(path[20:23], []byte{0x00, 0x01, 0xf4}) {
		t.Fatalf("first fee mismatch: %x", path[20:23])
	}

	reversed := EncodeV3Path(route, true)
	if !bytes.Equal(reversed[:20], dai.Address.Bytes()) || !bytes.Equal(reversed[20:23], []byte{0x00, 0x0b, 0xb8}) {
		t.Fatalf("exact output path mismatch: %x", reversed)
	}
}

func TestEncodeMixedPath(t *testing.T) {
	v3 := pool.NewV3Pool(common.HexToAddress("0x01"), usdc, weth, pool.FeeLow, q96, big.NewInt(1), 0)
	v2 := pool.NewV2Pair(common.HexToAddress("0x02"), weth, dai, big.NewInt(1), big.NewInt(1))
	route := model.MixedRoute{Pools: []pool.Pool{v3, v2}, Input: usdc, Output: dai}

	path := EncodeMixedPath(route)
	if !bytes.Equal(path[43:46], []byte{0x80, 0x00, 0x00}) {
		t.Fatalf("v2 hop fee marker mismatch: %x", path[43:46])
	}
}

func TestV3PoolProvider(t *testing.T) {
	addrs := mainnetAddresses(t)
	caller := newFakeCaller()
	poolABI := mustABI(v3PoolABI)

	state := func(liquidity int64) callHandler {
		return methodHandler(poolABI, func(method string, _ []interface{}) ([]interface{}, error) {
			if method == "slot0" {
				return []interface{}{q96, big.NewInt(-5), uint16(0), uint16(1), uint16(1), uint8(0), true}, nil
			}
			return []interface{}{big.NewInt(liquidity)}, nil
		})
	}
	caller.on(ComputeV3PoolAddress(addrs.V3Factory, usdc.Address, weth.Address, pool.FeeLow), state(1_000_000))
	caller.on(ComputeV3PoolAddress(addrs.V3Factory, usdc.Address, weth.Address, pool.FeeMedium), state(0))
	caller.on(ComputeV3PoolAddress(addrs.V3Factory, usdc.Address, weth.Address, pool.FeeHigh), func([]byte) ([]byte, error) {
		return nil, errReverted
	})

	provider, err := NewV3PoolProvider(caller, chain.Mainnet, 50, 16, nil)
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	keys := []pool.V3Key{
		{TokenA: usdc, TokenB: weth, Fee: pool.FeeLow},
		{TokenA: weth, TokenB: usdc, Fee: pool.FeeLow},
		{TokenA: usdc, TokenB: weth, Fee: pool.FeeMedium},
		{TokenA: usdc, TokenB: weth, Fee: pool.FeeHigh},
	}
	opts := pool.ProviderOptions{BlockNumber: big.NewInt(100)}

	accessor, err := provider.GetPools(context.Background(), keys, opts)
	if err != nil {
		t.Fatalf("get pools: %v", err)
	}
	got, ok := accessor.GetPool(weth, usdc, pool.FeeLow)
	if !ok {
		t.Fatalf("expected 0.05%% pool")
	}
	if got.Liquidity.Int64() != 1_000_000 || got.TickCurrent != -5 || !got.Token0.Equals(usdc) {
		t.Fatalf("pool state mismatch: %+v", got)
	}
	if _, ok := accessor.GetPool(usdc, weth, pool.FeeMedium); ok {
		t.Fatalf("zero liquidity pool should be absent")
	}
	if _, ok := accessor.GetPool(usdc, weth, pool.FeeHigh); ok {
		t.Fatalf("reverting pool should be absent")
	}
	if len(accessor.AllPools()) != 1 {
		t.Fatalf("pool count %d", len(accessor.AllPools()))
	}
	if caller.calls != 6 {
		t.Fatalf("expected 6 calls for 3 distinct pools, got %d", caller.calls)
	}

	if _, err := provider.GetPools(context.Background(), keys, opts); err != nil {
		t.Fatalf("cached get pools: %v", err)
	}
	if caller.batches != 1 {
		t.Fatalf("expected pinned block reads to be cached, got %d batches", caller.batches)
	}

	if _, err := provider.GetPools(context.Background(), keys, pool.ProviderOptions{}); err != nil {
		t.Fatalf("latest get pools: %v", err)
	}
	if caller.batches != 2 {
		t.Fatalf("expected latest reads to bypass the cache, got %d batches", caller.batches)
	}
}

func TestV2PoolProvider(t *testing.T) {
	addrs := mainnetAddresses(t)
	caller := newFakeCaller()
	pairABI := mustABI(v2PairABI)
	caller.on(ComputeV2PairAddress(addrs.V2Factory, usdc.Address, weth.Address), methodHandler(pairABI, func(string, []interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(2_000_000), big.NewInt(1_000), uint32(1)}, nil
	}))

	provider, err := NewV2PoolProvider(caller, chain.Mainnet, 1, 16, nil)
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	accessor, err := provider.GetPools(context.Background(), []pool.V2Key{
		{TokenA: weth, TokenB: usdc},
		{TokenA: weth, TokenB: dai},
	}, pool.ProviderOptions{BlockNumber: big.NewInt(7)})
	if err != nil {
		t.Fatalf("get pools: %v", err)
	}

	pair, ok := accessor.GetPool(usdc, weth)
	if !ok {
		t.Fatalf("expected usdc/weth pair")
	}
	if pair.ReserveOf(usdc).Int64() != 2_000_000 || pair.ReserveOf(weth).Int64() != 1_000 {
		t.Fatalf("reserves mismatch: %s %s", pair.Reserve0, pair.Reserve1)
	}
	if _, ok := accessor.GetPool(weth, dai); ok {
		t.Fatalf("pair without code should be absent")
	}
	if caller.batches != 2 {
		t.Fatalf("expected one batch per chunk, got %d", caller.batches)
	}
}

func TestV2PoolProviderUnsupportedChain(t *testing.T) {
	if _, err := NewV2PoolProvider(newFakeCaller(), chain.Optimism, 10, 16, nil); err == nil {
		t.Fatalf("expected error without a v2 factory")
	}
}

func TestOnChainQuoteProvider(t *testing.T) {
	addrs := mainnetAddresses(t)
	caller := newFakeCaller()

	caller.on(addrs.QuoterV2, methodHandler(mustABI(quoterV2ABI), func(method string, args []interface{}) ([]interface{}, error) {
		if method != "quoteExactInput" {
			return nil, errReverted
		}
		if path := args[0].([]byte); len(path) != 43 {
			return nil, errReverted
		}
		amount := args[1].(*big.Int)
		if amount.Int64() == 30 {
			return nil, errReverted
		}
		return []interface{}{
			new(big.Int).Mul(amount, big.NewInt(2)),
			[]*big.Int{q96},
			[]uint32{1},
			big.NewInt(90_000),
		}, nil
	}))
	caller.on(addrs.V2Router, methodHandler(mustABI(v2RouterABI), func(method string, args []interface{}) ([]interface{}, error) {
		amount := args[0].(*big.Int)
		if method == "getAmountsIn" {
			return []interface{}{[]*big.Int{new(big.Int).Mul(amount, big.NewInt(3)), amount}}, nil
		}
		return []interface{}{[]*big.Int{amount, new(big.Int).Div(amount, big.NewInt(3))}}, nil
	}))

	provider, err := NewOnChainQuoteProvider(caller, chain.Mainnet, 2, nil)
	if err != nil {
		t.Fatalf("provider: %v", err)
	}

	v3Pool := pool.NewV3Pool(common.HexToAddress("0x01"), usdc, weth, pool.FeeLow, q96, big.NewInt(1), 0)
	v3Route := model.V3Route{Pools: []pool.V3Pool{v3Pool}, Input: usdc, Output: weth}
	amounts := []currency.CurrencyAmount{
		currency.FromRawAmount(currency.TokenCurrency(usdc), big.NewInt(10)),
		currency.FromRawAmount(currency.TokenCurrency(usdc), big.NewInt(20)),
		currency.FromRawAmount(currency.TokenCurrency(usdc), big.NewInt(30)),
	}

	out, err := provider.GetQuotesManyExactIn(context.Background(), amounts, []model.Route{v3Route}, pool.ProviderOptions{})
	if err != nil {
		t.Fatalf("quote exact in: %v", err)
	}
	if len(out) != 1 || len(out[0].Quotes) != 3 {
		t.Fatalf("unexpected result shape: %+v", out)
	}
	q := out[0].Quotes
	if q[0].Quote.Int64() != 20 || q[1].Quote.Int64() != 40 {
		t.Fatalf("quotes mismatch: %s %s", q[0].Quote, q[1].Quote)
	}
	if len(q[1].SqrtPriceX96AfterList) != 1 || q[1].InitializedTicksCrossedList[0] != 1 || q[1].GasEstimate.Int64() != 90_000 {
		t.Fatalf("quote details mismatch: %+v", q[1])
	}
	if q[2].Quote != nil {
		t.Fatalf("reverted quote should be nil, got %s", q[2].Quote)
	}
	if q[2].Amount.Quotient().Int64() != 30 {
		t.Fatalf("failed quote lost its amount")
	}
	if caller.batches != 2 {
		t.Fatalf("expected 2 chunks, got %d", caller.batches)
	}

	pair := pool.NewV2Pair(common.HexToAddress("0x02"), weth, usdc, big.NewInt(1), big.NewInt(1))
	v2Route := model.V2Route{Pairs: []pool.V2Pair{pair}, Input: weth, Output: usdc}
	out, err = provider.GetQuotesManyExactOut(context.Background(), amounts[:1], []model.Route{v2Route}, pool.ProviderOptions{})
	if err != nil {
		t.Fatalf("quote exact out: %v", err)
	}
	if out[0].Quotes[0].Quote.Int64() != 30 {
		t.Fatalf("exact out quote mismatch: %s", out[0].Quotes[0].Quote)
	}

	mixed := model.MixedRoute{Pools: []pool.Pool{v3Pool}, Input: usdc, Output: weth}
	if _, err := provider.GetQuotesManyExactOut(context.Background(), amounts, []model.Route{mixed}, pool.ProviderOptions{}); !errors.Is(err, ErrMixedExactOutput) {
		t.Fatalf("expected mixed exact output error, got %v", err)
	}
}

func TestTokenProviderBytes32Fallback(t *testing.T) {
	mkr := common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")
	caller := newFakeCaller()
	caller.on(mkr, methodHandler(mustABI(erc20ABIBytes32), func(method string, _ []interface{}) ([]interface{}, error) {
		var b [32]byte
		switch method {
		case "decimals":
			return []interface{}{uint8(18)}, nil
		case "symbol":
			copy(b[:], "MKR")
		default:
			copy(b[:], "Maker")
		}
		return []interface{}{b}, nil
	}))

	provider, err := NewTokenProvider(caller, chain.Mainnet, 8, nil)
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	token, err := provider.GetToken(context.Background(), mkr)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if token.Symbol != "MKR" || token.Name != "Maker" || token.Decimals != 18 || token.ChainID != 1 {
		t.Fatalf("token mismatch: %+v", token)
	}

	calls := caller.calls
	if _, err := provider.GetToken(context.Background(), mkr); err != nil {
		t.Fatalf("cached get token: %v", err)
	}
	native, err := provider.GetToken(context.Background(), weth.Address)
	if err != nil {
		t.Fatalf("seeded get token: %v", err)
	}
	if caller.calls != calls || native.Symbol != "WETH" {
		t.Fatalf("expected cached tokens without calls")
	}
}

func TestTokenProviderMissingDecimals(t *testing.T) {
	provider, err := NewTokenProvider(newFakeCaller(), chain.Mainnet, 8, nil)
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	if _, err := provider.GetToken(context.Background(), common.HexToAddress("0xdead")); err == nil {
		t.Fatalf("expected error for account without code")
	}
}

func TestTokenProviderGetCurrency(t *testing.T) {
	provider, err := NewTokenProvider(newFakeCaller(), chain.Mainnet, 8, nil)
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	for _, s := range []string{"ETH", "native"} {
		c, err := provider.GetCurrency(context.Background(), s)
		if err != nil || !c.IsNative {
			t.Fatalf("currency %q = %+v, %v", s, c, err)
		}
	}
	usdc := chain.USDGasTokens(chain.Mainnet)[1]
	c, err := provider.GetCurrency(context.Background(), usdc.Address.Hex())
	if err != nil || c.IsNative || !c.Wrapped().Equals(usdc) {
		t.Fatalf("usdc currency = %+v, %v", c, err)
	}
	if _, err := provider.GetCurrency(context.Background(), "not-a-token"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestL2GasDataProviders(t *testing.T) {
	caller := newFakeCaller()
	caller.on(chain.OVMGasPriceOracleAddress, methodHandler(mustABI(gasPriceOracleABI), func(method string, _ []interface{}) ([]interface{}, error) {
		values := map[string]int64{"l1BaseFee": 10, "scalar": 1_000_000, "decimals": 6, "overhead": 2100}
		return []interface{}{big.NewInt(values[method])}, nil
	}))
	caller.on(chain.ArbGasInfoAddress, methodHandler(mustABI(arbGasInfoABI), func(string, []interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4), big.NewInt(5), big.NewInt(6)}, nil
	}))

	if NewL2GasDataProvider(caller, chain.Mainnet) != nil {
		t.Fatalf("mainnet needs no l2 gas data")
	}

	op, err := NewL2GasDataProvider(caller, chain.Optimism).GetGasData(context.Background())
	if err != nil {
		t.Fatalf("optimism gas data: %v", err)
	}
	if op.Optimism == nil || op.Optimism.L1BaseFee.Int64() != 10 || op.Optimism.Overhead.Int64() != 2100 || op.Optimism.Decimals.Int64() != 6 {
		t.Fatalf("optimism gas data mismatch: %+v", op.Optimism)
	}

	arb, err := NewL2GasDataProvider(caller, chain.ArbitrumOne).GetGasData(context.Background())
	if err != nil {
		t.Fatalf("arbitrum gas data: %v", err)
	}
	if arb.Arbitrum == nil || arb.Arbitrum.PerL2TxFee.Int64() != 1 || arb.Arbitrum.PerL1CalldataFee.Int64() != 2 || arb.Arbitrum.PerArbGasTotal.Int64() != 6 {
		t.Fatalf("arbitrum gas data mismatch: %+v", arb.Arbitrum)
	}
}

func TestApprovalProviderSkipsNative(t *testing.T) {
	addrs := mainnetAddresses(t)
	caller := newFakeCaller()
	var queried []common.Address
	caller.on(addrs.SwapRouter02, methodHandler(mustABI(approvalABI), func(_ string, args []interface{}) ([]interface{}, error) {
		queried = append(queried, args[0].(common.Address))
		return []interface{}{uint8(ApprovalMaxMinusOne)}, nil
	}))

	provider, err := NewApprovalProvider(caller, chain.Mainnet)
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	eth := currency.NativeCurrency(weth, "ETH")
	types, err := provider.GetApprovalType(context.Background(),
		currency.FromRawAmount(eth, big.NewInt(1)),
		currency.FromRawAmount(currency.TokenCurrency(usdc), big.NewInt(5)),
	)
	if err != nil {
		t.Fatalf("approval type: %v", err)
	}
	if types.TokenIn != ApprovalNotRequired || types.TokenOut != ApprovalMaxMinusOne {
		t.Fatalf("approval types mismatch: %+v", types)
	}
	if len(queried) != 1 || queried[0] != usdc.Address {
		t.Fatalf("expected only usdc queried, got %v", queried)
	}
}

func TestBalanceReader(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	caller := newFakeCaller()
	caller.on(usdc.Address, methodHandler(mustABI(erc20ABIString), func(_ string, args []interface{}) ([]interface{}, error) {
		if args[0].(common.Address) != owner {
			return []interface{}{big.NewInt(0)}, nil
		}
		return []interface{}{big.NewInt(77)}, nil
	}))

	reader := NewBalanceReader(caller)
	bal, err := reader.TokenBalance(context.Background(), usdc.Address, owner, big.NewInt(9))
	if err != nil {
		t.Fatalf("token balance: %v", err)
	}
	if bal.Int64() != 77 {
		t.Fatalf("token balance mismatch: %s", bal)
	}
	if caller.blocks[0].Int64() != 9 {
		t.Fatalf("balance read not pinned to block")
	}
	native, err := reader.NativeBalance(context.Background(), owner, nil)
	if err != nil || native.Int64() != 42 {
		t.Fatalf("native balance mismatch: %v %v", native, err)
	}
}

func TestGasPriceProvider(t *testing.T) {
	provider := NewEthGasPriceProvider(fixedGasPrice(12))
	price, err := provider.GetGasPrice(context.Background())
	if err != nil {
		t.Fatalf("gas price: %v", err)
	}
	if price.GasPriceWei.Int64() != 12 {
		t.Fatalf("gas price mismatch: %s", price.GasPriceWei)
	}
}

type fixedGasPrice int64

func (f fixedGasPrice) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(int64(f)), nil
}
