package model

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/currency"
	"orderRouter/internal/pool"
)

var (
	usdc = currency.NewToken(1, common.HexToAddress("0x00000000000000000000000000000000000000a1"), 6, "USDC", "USD Coin")
	weth = currency.NewToken(1, common.HexToAddress("0x00000000000000000000000000000000000000b2"), 18, "WETH", "Wrapped Ether")
	dai  = currency.NewToken(1, common.HexToAddress("0x00000000000000000000000000000000000000c3"), 18, "DAI", "Dai")
)

type fixedGasModel struct {
	cost int64
}

func (m fixedGasModel) EstimateGasCost(r *RouteWithValidQuote) (GasCost, error) {
	return GasCost{
		GasEstimate:    big.NewInt(100000),
		GasCostInToken: currency.FromRawAmount(currency.TokenCurrency(r.QuoteToken), big.NewInt(m.cost)),
		GasCostInUSD:   currency.FromRawAmount(currency.TokenCurrency(usdc), big.NewInt(m.cost)),
	}, nil
}

func testRoutes() (V2Route, V3Route, MixedRoute) {
	pair := pool.NewV2Pair(common.Address{1}, usdc, dai, big.NewInt(1000), big.NewInt(1000))
	v3a := pool.NewV3Pool(common.Address{2}, dai, weth, pool.FeeMedium, big.NewInt(1), big.NewInt(1), 0)
	v3b := pool.NewV3Pool(common.Address{3}, usdc, weth, pool.FeeLow, big.NewInt(1), big.NewInt(1), 0)
	return V2Route{Pairs: []pool.V2Pair{pair}, Input: usdc, Output: dai},
		V3Route{Pools: []pool.V3Pool{v3b}, Input: usdc, Output: weth},
		MixedRoute{Pools: []pool.Pool{pair, v3a}, Input: usdc, Output: weth}
}

func TestTokenPathAndAddresses(t *testing.T) {
	_, _, mixed := testRoutes()
	path := mixed.TokenPath()
	if len(path) != 3 || !path[0].Equals(usdc) || !path[1].Equals(dai) || !path[2].Equals(weth) {
		t.Fatalf("unexpected path %v", path)
	}
	addrs := mixed.PoolAddresses()
	if len(addrs) != 2 || addrs[0] != (common.Address{1}) || addrs[1] != (common.Address{2}) {
		t.Fatalf("unexpected addresses %v", addrs)
	}
}

func TestMatchRouteDispatchesEveryVariant(t *testing.T) {
	v2, v3, mixed := testRoutes()
	name := func(r Route) string {
		return MatchRoute(r,
			func(V2Route) string { return "v2" },
			func(V3Route) string { return "v3" },
			func(MixedRoute) string { return "mixed" },
		)
	}
	if name(v2) != "v2" || name(v3) != "v3" || name(mixed) != "mixed" {
		t.Fatalf("dispatch mismatch")
	}
	if len(RoutePools(mixed)) != 2 {
		t.Fatalf("mixed pools not returned")
	}
}

func TestRouteToString(t *testing.T) {
	_, v3, _ := testRoutes()
	got := RouteToString(v3)
	want := "USDC -- 0.05% [0x0300000000000000000000000000000000000000] --> WETH"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestAdjustQuoteForGasSign(t *testing.T) {
	quote := currency.FromRawAmount(currency.TokenCurrency(weth), big.NewInt(1000))
	gas := currency.FromRawAmount(currency.TokenCurrency(weth), big.NewInt(30))

	in, err := AdjustQuoteForGas(quote, gas, ExactInput)
	if err != nil || in.Quotient().Int64() != 970 {
		t.Fatalf("exact input adjusted = %v, %v", in, err)
	}
	out, err := AdjustQuoteForGas(quote, gas, ExactOutput)
	if err != nil || out.Quotient().Int64() != 1030 {
		t.Fatalf("exact output adjusted = %v, %v", out, err)
	}
	if _, err := AdjustQuoteForGas(quote, currency.FromRawAmount(currency.TokenCurrency(usdc), big.NewInt(1)), ExactInput); err == nil {
		t.Fatalf("expected currency mismatch")
	}
}

func TestNewRouteWithValidQuote(t *testing.T) {
	_, v3, _ := testRoutes()
	rwq, err := NewRouteWithValidQuote(QuoteParams{
		Route:      v3,
		TradeType:  ExactInput,
		Percent:    50,
		Amount:     currency.FromRawAmount(currency.TokenCurrency(usdc), big.NewInt(500)),
		RawQuote:   big.NewInt(2000),
		QuoteToken: weth,
	}, fixedGasModel{cost: 25})
	if err != nil {
		t.Fatalf("new route: %v", err)
	}
	if rwq.QuoteAdjustedForGas.Quotient().Int64() != 1975 {
		t.Fatalf("adjusted quote = %s", rwq.QuoteAdjustedForGas.Quotient())
	}
	if rwq.Protocol() != ProtocolV3 || len(rwq.PoolAddresses) != 1 {
		t.Fatalf("unexpected route metadata %+v", rwq)
	}
	if RouteAmountToString(rwq) == "" {
		t.Fatalf("empty route string")
	}
}

func TestBuildTradeAndSlippage(t *testing.T) {
	_, v3, _ := testRoutes()
	mk := func(amount, quote int64) *RouteWithValidQuote {
		return &RouteWithValidQuote{
			Route:  v3,
			Amount: currency.FromRawAmount(currency.TokenCurrency(usdc), big.NewInt(amount)),
			Quote:  currency.FromRawAmount(currency.TokenCurrency(weth), big.NewInt(quote)),
		}
	}
	native := currency.NativeCurrency(weth, "ETH")
	trade, err := BuildTrade(currency.TokenCurrency(usdc), native, ExactInput, []*RouteWithValidQuote{mk(600, 1200), mk(400, 800)})
	if err != nil {
		t.Fatalf("build trade: %v", err)
	}
	if trade.InputAmount().Quotient().Int64() != 1000 || trade.OutputAmount().Quotient().Int64() != 2000 {
		t.Fatalf("unexpected totals")
	}
	if !trade.OutputAmount().Currency.IsNative {
		t.Fatalf("output should stay native")
	}

	slippage := currency.NewPercent(1, 100)
	if got := trade.MinimumAmountOut(slippage).Int64(); got != 1980 {
		t.Fatalf("minimum out = %d", got)
	}
	if got := trade.MaximumAmountIn(slippage).Int64(); got != 1000 {
		t.Fatalf("maximum in = %d", got)
	}
	if got := MaximumAmountIn(ExactOutput, slippage, trade.InputAmount()).Int64(); got != 1010 {
		t.Fatalf("exact output maximum in = %d", got)
	}

	if _, err := BuildTrade(currency.TokenCurrency(dai), native, ExactInput, []*RouteWithValidQuote{mk(1, 1)}); err == nil {
		t.Fatalf("expected disconnected route error")
	}
}

func TestRoutingConfigHelpers(t *testing.T) {
	cfg := DefaultRoutingConfig()
	cfg.Protocols = []Protocol{ProtocolV3}
	cfg.BlockedTokens = []common.Address{dai.Address}
	if !cfg.HasProtocol(ProtocolV3) || cfg.HasProtocol(ProtocolV2) {
		t.Fatalf("protocol lookup mismatch")
	}
	if !cfg.IsBlocked(dai) || cfg.IsBlocked(weth) {
		t.Fatalf("blocked lookup mismatch")
	}
	if p, err := ParseProtocol(" mixed "); err != nil || p != ProtocolMixed {
		t.Fatalf("parse protocol = %v, %v", p, err)
	}
	if _, err := ParseProtocol("v4"); err == nil {
		t.Fatalf("expected unknown protocol error")
	}
}

func TestQuoteRecordStringFields(t *testing.T) {
	_, v3, _ := testRoutes()
	rwq := &RouteWithValidQuote{
		Route:         v3,
		Percent:       100,
		Amount:        currency.FromRawAmount(currency.TokenCurrency(usdc), big.NewInt(1_000_000)),
		Quote:         currency.FromRawAmount(currency.TokenCurrency(weth), big.NewInt(5e17)),
		PoolAddresses: v3.PoolAddresses(),
	}
	trade, err := BuildTrade(currency.TokenCurrency(usdc), currency.TokenCurrency(weth), ExactInput, []*RouteWithValidQuote{rwq})
	if err != nil {
		t.Fatalf("build trade: %v", err)
	}
	sr := &SwapRoute{
		Quote:                      rwq.Quote,
		QuoteGasAdjusted:           rwq.Quote,
		EstimatedGasUsed:           big.NewInt(120000),
		EstimatedGasUsedQuoteToken: currency.Zero(currency.TokenCurrency(weth)),
		EstimatedGasUsedUSD:        currency.Zero(currency.TokenCurrency(usdc)),
		GasPriceWei:                big.NewInt(1),
		Route:                      []*RouteWithValidQuote{rwq},
		Trade:                      trade,
		BlockNumber:                big.NewInt(17000000),
	}
	rec := NewQuoteRecord(1, ExactInput, sr, time.Unix(1700000000, 0))
	if rec.Amount != "1" || rec.Quote != "0.5" || rec.BlockNumber != 17000000 {
		t.Fatalf("unexpected record %+v", rec)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["quote_gas_adjusted"].(string); !ok {
		t.Fatalf("quote_gas_adjusted should be string")
	}
	if decoded["simulation_status"] != "NOT_SUPPORTED" {
		t.Fatalf("simulation status = %v", decoded["simulation_status"])
	}
	if _, ok := decoded["calldata"]; ok {
		t.Fatalf("calldata should be omitted without method parameters")
	}
}
