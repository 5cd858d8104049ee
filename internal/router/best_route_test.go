package router

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
	"orderRouter/internal/quoter"
)

// quoteTable builds quotes for two disjoint routes over the same percents.
func quoteTable(t *testing.T, tt model.TradeType, a, b map[int]int64, gasCost int64) []*model.RouteWithValidQuote {
	t.Helper()
	routeA, routeB := v3Route(0x01, pool.FeeMedium), v3Route(0x02, pool.FeeLow)
	var out []*model.RouteWithValidQuote
	for _, pct := range []int{25, 50, 75, 100} {
		amount := amountX(int64(10 * pct))
		out = append(out,
			quoted(t, routeA, tt, pct, amount, tokenY, a[pct], gasCost),
			quoted(t, routeB, tt, pct, amount, tokenY, b[pct], gasCost),
		)
	}
	return out
}

func selectorParams(tt model.TradeType, routes []*model.RouteWithValidQuote) SelectorParams {
	return SelectorParams{
		Amount:        amountX(1000),
		Percents:      []int{25, 50, 75, 100},
		Routes:        routes,
		TradeType:     tt,
		ChainID:       chain.Mainnet,
		RoutingConfig: model.DefaultRoutingConfig(),
		GasModel:      fakeGasModel{},
	}
}

func TestSelectorPrefersBetterSplit(t *testing.T) {
	a := map[int]int64{25: 250, 50: 480, 75: 690, 100: 880}
	b := map[int]int64{25: 240, 50: 470, 75: 680, 100: 870}

	best, err := NewDefaultSelector(nil).GetBestSwapRoute(context.Background(), selectorParams(model.ExactInput, quoteTable(t, model.ExactInput, a, b, 0)))
	require.NoError(t, err)
	require.NotNil(t, best)
	require.Len(t, best.Routes, 2)
	require.Equal(t, "950", best.Quote.Quotient().String())
	require.Equal(t, "950", best.QuoteGasAdjusted.Quotient().String())
	require.Equal(t, int64(200_000), best.EstimatedGasUsed.Int64())
	for _, r := range best.Routes {
		require.Equal(t, 50, r.Percent)
	}
}

func TestSelectorRanksByGasAdjustedQuote(t *testing.T) {
	a := map[int]int64{25: 250, 50: 480, 75: 690, 100: 880}
	b := map[int]int64{25: 240, 50: 470, 75: 680, 100: 870}

	best, err := NewDefaultSelector(nil).GetBestSwapRoute(context.Background(), selectorParams(model.ExactInput, quoteTable(t, model.ExactInput, a, b, 100)))
	require.NoError(t, err)
	require.Len(t, best.Routes, 1)
	require.Equal(t, "880", best.Quote.Quotient().String())
	require.Equal(t, "780", best.QuoteGasAdjusted.Quotient().String())
	require.Equal(t, "100", best.EstimatedGasUsedQuoteToken.Quotient().String())
}

func TestSelectorExactOutputPicksCheapestInput(t *testing.T) {
	a := map[int]int64{25: 230, 50: 460, 75: 690, 100: 900}
	b := map[int]int64{25: 225, 50: 450, 75: 680, 100: 880}

	best, err := NewDefaultSelector(nil).GetBestSwapRoute(context.Background(), selectorParams(model.ExactOutput, quoteTable(t, model.ExactOutput, a, b, 0)))
	require.NoError(t, err)
	require.Len(t, best.Routes, 1)
	require.Equal(t, "880", best.Quote.Quotient().String())
	require.Equal(t, common.Address{0x02}, best.Routes[0].PoolAddresses[0])
}

func TestSelectorNeverSharesPools(t *testing.T) {
	route := v3Route(0x01, pool.FeeMedium)
	var routes []*model.RouteWithValidQuote
	for _, pct := range []int{25, 50, 75} {
		routes = append(routes, quoted(t, route, model.ExactInput, pct, amountX(int64(10*pct)), tokenY, int64(20*pct), 0))
	}
	best, err := NewDefaultSelector(nil).GetBestSwapRoute(context.Background(), selectorParams(model.ExactInput, routes))
	require.NoError(t, err)
	require.Nil(t, best)
}

func TestReconcileAmountsGivesRemainderToLargest(t *testing.T) {
	half := currency.FromFractionalAmount(currency.TokenCurrency(tokenX), big.NewInt(101), big.NewInt(2))
	routes := []*model.RouteWithValidQuote{
		{Percent: 50, Amount: half},
		{Percent: 50, Amount: half},
	}
	out := reconcileAmounts(amountX(101), routes)
	require.Equal(t, "51", out[0].Amount.Quotient().String())
	require.Equal(t, "50", out[1].Amount.Quotient().String())
	require.True(t, routes[0].Amount.Fraction.EqualTo(half.Fraction), "input routes must not change")
}

func TestReconcileAmountsKeepsSelectionOrder(t *testing.T) {
	third := currency.FromFractionalAmount(currency.TokenCurrency(tokenX), big.NewInt(101), big.NewInt(3))
	twoThirds := currency.FromFractionalAmount(currency.TokenCurrency(tokenX), big.NewInt(202), big.NewInt(3))
	routes := []*model.RouteWithValidQuote{
		{Percent: 33, Amount: third},
		{Percent: 67, Amount: twoThirds},
	}
	out := reconcileAmounts(amountX(101), routes)
	require.Len(t, out, 2)
	require.Equal(t, 33, out[0].Percent)
	require.Equal(t, "33", out[0].Amount.Quotient().String())
	require.Equal(t, 67, out[1].Percent)
	require.Equal(t, "68", out[1].Amount.Quotient().String())
}

func TestSumUSDScalesDecimals(t *testing.T) {
	dai := currency.NewToken(1, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18, "DAI", "Dai")
	total := sumUSD([]currency.CurrencyAmount{
		currency.FromRawAmount(currency.TokenCurrency(usdc), big.NewInt(1_000_000)),
		currency.FromRawAmount(currency.TokenCurrency(dai), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)),
	})
	require.Equal(t, "2000000", total.Quotient().String())
	require.True(t, total.Currency.Equals(currency.TokenCurrency(usdc)))
}

func TestRouteCombination(t *testing.T) {
	v2 := &model.RouteWithValidQuote{Route: model.V2Route{}}
	v3 := &model.RouteWithValidQuote{Route: model.V3Route{}}
	mixed := &model.RouteWithValidQuote{Route: model.MixedRoute{}}
	cases := []struct {
		routes []*model.RouteWithValidQuote
		want   string
	}{
		{[]*model.RouteWithValidQuote{v3}, "V3Route"},
		{[]*model.RouteWithValidQuote{v3, v3}, "V3SplitRoute"},
		{[]*model.RouteWithValidQuote{v2}, "V2Route"},
		{[]*model.RouteWithValidQuote{v2, v2}, "V2SplitRoute"},
		{[]*model.RouteWithValidQuote{mixed}, "MixedRoute"},
		{[]*model.RouteWithValidQuote{mixed, mixed}, "MixedSplitRoute"},
		{[]*model.RouteWithValidQuote{v3, v2}, "V3AndV2SplitRoute"},
		{[]*model.RouteWithValidQuote{mixed, v3}, "MixedAndV3SplitRoute"},
		{[]*model.RouteWithValidQuote{mixed, v2}, "MixedAndV2SplitRoute"},
		{[]*model.RouteWithValidQuote{mixed, v3, v2}, "MixedAndV3AndV2SplitRoute"},
		{nil, ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, RouteCombination(tc.routes))
	}
}

func TestPoolSelectionMetrics(t *testing.T) {
	m := newRecordingMetrics()
	used := &model.RouteWithValidQuote{
		Route:         model.V3Route{},
		PoolAddresses: []common.Address{{0x02}},
	}
	candidates := []*quoter.CandidatePools{{
		Protocol: model.ProtocolV3,
		Selections: []quoter.Selection{
			{Name: quoter.SelectionTopByLiquidity, Pools: []common.Address{{0x01}, {0x02}, {0x03}}},
			{Name: quoter.SelectionDirectSwapPool, Pools: []common.Address{{0x04}}},
		},
	}}
	emitPoolSelectionMetrics(m, chain.Mainnet, []*model.RouteWithValidQuote{used}, candidates)
	require.Equal(t, float64(2), m.counts["V3topbytvl"])
	require.Equal(t, float64(0), m.counts["V3topbydirectswappool"])
	require.Equal(t, float64(1), m.counts["V3RouteForChain1"])
}
