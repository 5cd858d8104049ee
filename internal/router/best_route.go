package router

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/gas"
	"orderRouter/internal/model"
)

// SelectorParams is everything the best-route search needs for one request.
type SelectorParams struct {
	Amount        currency.CurrencyAmount
	Percents      []int
	Routes        []*model.RouteWithValidQuote
	TradeType     model.TradeType
	ChainID       chain.ChainID
	RoutingConfig model.RoutingConfig
	GasModel      model.GasModel
}

// BestSwapRoute is the winning split with its aggregate figures.
type BestSwapRoute struct {
	Quote                      currency.CurrencyAmount
	QuoteGasAdjusted           currency.CurrencyAmount
	EstimatedGasUsed           *big.Int
	EstimatedGasUsedQuoteToken currency.CurrencyAmount
	EstimatedGasUsedUSD        currency.CurrencyAmount
	Routes                     []*model.RouteWithValidQuote
}

// BestRouteSelector picks the best combination of quoted routes. A nil result means no
// combination covers the whole amount.
type BestRouteSelector interface {
	GetBestSwapRoute(ctx context.Context, p SelectorParams) (*BestSwapRoute, error)
}

// DefaultSelector searches splits breadth first, one extra route per level.
type DefaultSelector struct {
	logger *zap.Logger
}

func NewDefaultSelector(logger *zap.Logger) *DefaultSelector {
	return &DefaultSelector{logger: orNop(logger)}
}

type partialSplit struct {
	routes     []*model.RouteWithValidQuote
	percentIdx int
	remaining  int
}

func (s *DefaultSelector) GetBestSwapRoute(ctx context.Context, p SelectorParams) (*BestSwapRoute, error) {
	if len(p.Routes) == 0 {
		return nil, nil
	}
	better := func(a, b currency.Fraction) bool {
		if p.TradeType == model.ExactOutput {
			return a.LessThan(b)
		}
		return a.GreaterThan(b)
	}

	byPercent := make(map[int][]*model.RouteWithValidQuote)
	for _, r := range p.Routes {
		byPercent[r.Percent] = append(byPercent[r.Percent], r)
	}
	for _, list := range byPercent {
		sort.SliceStable(list, func(i, j int) bool {
			return better(list[i].QuoteAdjustedForGas.Fraction, list[j].QuoteAdjustedForGas.Fraction)
		})
	}
	percents := append([]int(nil), p.Percents...)
	sort.Ints(percents)

	minSplits, maxSplits := p.RoutingConfig.MinSplits, p.RoutingConfig.MaxSplits
	if minSplits < 1 {
		minSplits = 1
	}
	if maxSplits < minSplits {
		maxSplits = minSplits
	}

	var (
		best      []*model.RouteWithValidQuote
		bestQuote currency.Fraction
	)
	consider := func(routes []*model.RouteWithValidQuote) {
		if len(routes) < minSplits {
			return
		}
		total := currency.NewFractionInt(0, 1)
		for _, r := range routes {
			total = total.Add(r.QuoteAdjustedForGas.Fraction)
		}
		if best == nil || better(total, bestQuote) {
			best, bestQuote = routes, total
		}
	}

	if top := byPercent[100]; len(top) > 0 {
		consider([]*model.RouteWithValidQuote{top[0]})
	}

	var queue []partialSplit
	for i := len(percents) - 1; i >= 0; i-- {
		pct := percents[i]
		if pct >= 100 {
			continue
		}
		for k, r := range byPercent[pct] {
			if k > 1 {
				break
			}
			queue = append(queue, partialSplit{routes: []*model.RouteWithValidQuote{r}, percentIdx: i, remaining: 100 - pct})
		}
	}

	for splits := 2; len(queue) > 0 && splits <= maxSplits; splits++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next []partialSplit
		for _, cur := range queue {
			for j := cur.percentIdx; j >= 0; j-- {
				pct := percents[j]
				if pct > cur.remaining {
					continue
				}
				candidate := firstDisjointRoute(cur.routes, byPercent[pct])
				if candidate == nil {
					continue
				}
				routes := append(append([]*model.RouteWithValidQuote(nil), cur.routes...), candidate)
				remaining := cur.remaining - pct
				if remaining == 0 {
					consider(routes)
					continue
				}
				next = append(next, partialSplit{routes: routes, percentIdx: j, remaining: remaining})
			}
		}
		queue = next
	}

	if best == nil {
		s.logger.Info("no split covers the full amount", zap.Int("quotes", len(p.Routes)))
		return nil, nil
	}
	return s.assemble(p, best)
}

// firstDisjointRoute returns the best candidate sharing no pool with routes.
func firstDisjointRoute(routes, candidates []*model.RouteWithValidQuote) *model.RouteWithValidQuote {
	used := make(map[string]struct{})
	for _, r := range routes {
		for _, a := range r.PoolAddresses {
			used[a.Hex()] = struct{}{}
		}
	}
outer:
	for _, c := range candidates {
		for _, a := range c.PoolAddresses {
			if _, ok := used[a.Hex()]; ok {
				continue outer
			}
		}
		return c
	}
	return nil
}

func (s *DefaultSelector) assemble(p SelectorParams, chosen []*model.RouteWithValidQuote) (*BestSwapRoute, error) {
	quoteToken := currency.TokenCurrency(chosen[0].QuoteToken)
	out := &BestSwapRoute{
		Quote:                      currency.Zero(quoteToken),
		QuoteGasAdjusted:           currency.Zero(quoteToken),
		EstimatedGasUsed:           new(big.Int),
		EstimatedGasUsedQuoteToken: currency.Zero(quoteToken),
	}
	usd := make([]currency.CurrencyAmount, 0, len(chosen)+1)
	var err error
	for _, r := range chosen {
		if out.Quote, err = out.Quote.Add(r.Quote); err != nil {
			return nil, fmt.Errorf("sum quotes: %w", err)
		}
		if out.QuoteGasAdjusted, err = out.QuoteGasAdjusted.Add(r.QuoteAdjustedForGas); err != nil {
			return nil, fmt.Errorf("sum gas adjusted quotes: %w", err)
		}
		if out.EstimatedGasUsedQuoteToken, err = out.EstimatedGasUsedQuoteToken.Add(r.GasCostInToken); err != nil {
			return nil, fmt.Errorf("sum gas cost in quote token: %w", err)
		}
		if r.GasEstimate != nil {
			out.EstimatedGasUsed.Add(out.EstimatedGasUsed, r.GasEstimate)
		}
		usd = append(usd, r.GasCostInUSD)
	}

	if l1, ok := p.GasModel.(model.L1FeeModel); ok && gas.NeedsL2GasData(p.ChainID) {
		fees, err := l1.CalculateL1GasFees(chosen)
		if err != nil {
			return nil, fmt.Errorf("l1 gas fees: %w", err)
		}
		out.EstimatedGasUsed.Add(out.EstimatedGasUsed, fees.GasUsedL1)
		usd = append(usd, fees.GasCostL1USD)
		if out.EstimatedGasUsedQuoteToken, err = out.EstimatedGasUsedQuoteToken.Add(fees.GasCostL1QuoteToken); err != nil {
			return nil, fmt.Errorf("add l1 gas cost: %w", err)
		}
		if out.QuoteGasAdjusted, err = model.AdjustQuoteForGas(out.QuoteGasAdjusted, fees.GasCostL1QuoteToken, p.TradeType); err != nil {
			return nil, fmt.Errorf("adjust quote for l1 gas: %w", err)
		}
	}
	out.EstimatedGasUsedUSD = sumUSD(usd)
	out.Routes = reconcileAmounts(p.Amount, chosen)
	return out, nil
}

// sumUSD adds USD amounts that may be denominated in different stablecoins, scaling each to the
// decimals of the first.
func sumUSD(amounts []currency.CurrencyAmount) currency.CurrencyAmount {
	if len(amounts) == 0 {
		return currency.CurrencyAmount{}
	}
	target := amounts[0].Currency
	total := currency.NewFractionInt(0, 1)
	for _, a := range amounts {
		f := a.Fraction
		from, to := int64(a.Currency.Wrapped().Decimals), int64(target.Wrapped().Decimals)
		if from != to {
			scale := currency.NewFraction(
				new(big.Int).Exp(big.NewInt(10), big.NewInt(to), nil),
				new(big.Int).Exp(big.NewInt(10), big.NewInt(from), nil),
			)
			f = f.Multiply(scale)
		}
		total = total.Add(f)
	}
	return currency.CurrencyAmount{Currency: target, Fraction: total}
}

// reconcileAmounts floors each split to raw units and gives the rounding remainder to the largest,
// the earliest on ties. Selection order is kept and the input routes are left untouched.
func reconcileAmounts(amount currency.CurrencyAmount, routes []*model.RouteWithValidQuote) []*model.RouteWithValidQuote {
	out := make([]*model.RouteWithValidQuote, len(routes))
	total := new(big.Int)
	largest := 0
	for i, r := range routes {
		cp := *r
		cp.Amount = currency.FromRawAmount(r.Amount.Currency, r.Amount.Quotient())
		out[i] = &cp
		total.Add(total, cp.Amount.Quotient())
		if cp.Amount.Quotient().Cmp(out[largest].Amount.Quotient()) > 0 {
			largest = i
		}
	}
	missing := new(big.Int).Sub(amount.Quotient(), total)
	if missing.Sign() > 0 && len(out) > 0 {
		r := out[largest]
		r.Amount = currency.FromRawAmount(r.Amount.Currency, new(big.Int).Add(r.Amount.Quotient(), missing))
	}
	return out
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
