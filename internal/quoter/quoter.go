package quoter

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"orderRouter/internal/currency"
	"orderRouter/internal/dex"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// Request is one protocol's share of a route call. Amounts and Percents are parallel.
type Request struct {
	TokenIn       currency.Token
	TokenOut      currency.Token
	Amounts       []currency.CurrencyAmount
	Percents      []int
	QuoteToken    currency.Token
	TradeType     model.TradeType
	RoutingConfig model.RoutingConfig
	// GasModel prices V3 and mixed routes. The V2 quoter builds its own from GasPriceWei.
	GasModel    model.GasModel
	GasPriceWei *big.Int
}

func (r Request) providerOptions() pool.ProviderOptions {
	return pool.ProviderOptions{BlockNumber: r.RoutingConfig.BlockNumber}
}

// Selection is one candidate selection criterion and the pools it picked, best first.
type Selection struct {
	Name  string
	Pools []common.Address
}

// CandidatePools records why each candidate pool was picked.
type CandidatePools struct {
	Protocol   model.Protocol
	Selections []Selection
}

// Result is a quoter's output. An empty Routes is not an error.
type Result struct {
	Routes         []*model.RouteWithValidQuote
	CandidatePools *CandidatePools
}

// Quoter finds routes for one protocol family and quotes every amount along them.
type Quoter interface {
	Protocol() model.Protocol
	GetRoutesThenQuotes(ctx context.Context, req Request) (Result, error)
}

// QuoteProvider quotes many amounts along many routes.
type QuoteProvider interface {
	GetQuotesManyExactIn(ctx context.Context, amounts []currency.CurrencyAmount, routes []model.Route, opts pool.ProviderOptions) ([]dex.RouteWithQuotes, error)
	GetQuotesManyExactOut(ctx context.Context, amounts []currency.CurrencyAmount, routes []model.Route, opts pool.ProviderOptions) ([]dex.RouteWithQuotes, error)
}

func validateRequest(req Request) error {
	if len(req.Amounts) != len(req.Percents) {
		return fmt.Errorf("amounts and percents differ in length: %d != %d", len(req.Amounts), len(req.Percents))
	}
	if req.TokenIn.Equals(req.TokenOut) {
		return fmt.Errorf("token in and token out are both %s", req.TokenIn)
	}
	return nil
}

func fetchQuotes(ctx context.Context, provider QuoteProvider, req Request, routes []model.Route) ([]dex.RouteWithQuotes, error) {
	if req.TradeType == model.ExactOutput {
		return provider.GetQuotesManyExactOut(ctx, req.Amounts, routes, req.providerOptions())
	}
	return provider.GetQuotesManyExactIn(ctx, req.Amounts, routes, req.providerOptions())
}

// validQuote keeps positive quotes. Concentrated-liquidity hops also need their post-swap prices.
func validQuote(q dex.AmountQuote, needsPrices bool) bool {
	if q.Quote == nil || q.Quote.Sign() <= 0 {
		return false
	}
	return !needsPrices || len(q.SqrtPriceX96AfterList) > 0
}

// buildRoutesWithValidQuotes prices every surviving (route, amount) pair with gm.
func buildRoutesWithValidQuotes(quoted []dex.RouteWithQuotes, req Request, gm model.GasModel, needsPrices bool, logger *zap.Logger) ([]*model.RouteWithValidQuote, error) {
	var (
		out     []*model.RouteWithValidQuote
		dropped int
	)
	for _, rq := range quoted {
		for i, q := range rq.Quotes {
			if i >= len(req.Percents) {
				break
			}
			if !validQuote(q, needsPrices) {
				dropped++
				continue
			}
			rwq, err := model.NewRouteWithValidQuote(model.QuoteParams{
				Route:                       rq.Route,
				TradeType:                   req.TradeType,
				Percent:                     req.Percents[i],
				Amount:                      q.Amount,
				RawQuote:                    q.Quote,
				QuoteToken:                  req.QuoteToken,
				SqrtPriceX96AfterList:       q.SqrtPriceX96AfterList,
				InitializedTicksCrossedList: q.InitializedTicksCrossedList,
				QuoterGasEstimate:           q.GasEstimate,
			}, gm)
			if err != nil {
				return nil, err
			}
			out = append(out, rwq)
		}
	}
	if dropped > 0 {
		logger.Debug("dropped invalid quotes", zap.Int("dropped", dropped), zap.Int("valid", len(out)))
	}
	return out, nil
}

func toRoutes[R model.Route](routes []R) []model.Route {
	out := make([]model.Route, len(routes))
	for i, r := range routes {
		out[i] = r
	}
	return out
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
