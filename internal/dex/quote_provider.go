package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// ErrMixedExactOutput is returned when an exact-output quote is requested for a mixed route.
var ErrMixedExactOutput = errors.New("mixed routes only support exact input")

// AmountQuote is the on-chain answer for one amount along one route. Quote is nil when the call
// reverted or could not be decoded.
type AmountQuote struct {
	Amount                      currency.CurrencyAmount
	Quote                       *big.Int
	SqrtPriceX96AfterList       []*big.Int
	InitializedTicksCrossedList []uint32
	GasEstimate                 *big.Int
}

// RouteWithQuotes pairs a route with one quote per requested amount, in amount order.
type RouteWithQuotes struct {
	Route  model.Route
	Quotes []AmountQuote
}

// OnChainQuoteProvider quotes V3 routes through QuoterV2, mixed routes through
// MixedRouteQuoterV1 and V2 routes through the V2 router's getAmounts views.
type OnChainQuoteProvider struct {
	caller    Caller
	addresses chain.Addresses
	chunkSize int
	logger    *zap.Logger
}

// NewOnChainQuoteProvider creates a quote provider batching chunkSize calls per RPC batch.
func NewOnChainQuoteProvider(caller Caller, chainID chain.ChainID, chunkSize int, logger *zap.Logger) (*OnChainQuoteProvider, error) {
	addrs, err := chain.AddressesFor(chainID)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnChainQuoteProvider{caller: caller, addresses: addrs, chunkSize: chunkSize, logger: logger}, nil
}

// GetQuotesManyExactIn quotes every amount of input along every route.
func (p *OnChainQuoteProvider) GetQuotesManyExactIn(ctx context.Context, amounts []currency.CurrencyAmount, routes []model.Route, opts pool.ProviderOptions) ([]RouteWithQuotes, error) {
	return p.getQuotes(ctx, amounts, routes, model.ExactInput, opts)
}

// GetQuotesManyExactOut quotes every amount of output along every route.
func (p *OnChainQuoteProvider) GetQuotesManyExactOut(ctx context.Context, amounts []currency.CurrencyAmount, routes []model.Route, opts pool.ProviderOptions) ([]RouteWithQuotes, error) {
	return p.getQuotes(ctx, amounts, routes, model.ExactOutput, opts)
}

type quoteCall struct {
	to     common.Address
	parsed abi.ABI
	method string
	args   []interface{}
	decode func(values []interface{}) (AmountQuote, error)
}

func (p *OnChainQuoteProvider) getQuotes(ctx context.Context, amounts []currency.CurrencyAmount, routes []model.Route, tradeType model.TradeType, opts pool.ProviderOptions) ([]RouteWithQuotes, error) {
	if len(routes) == 0 || len(amounts) == 0 {
		return nil, nil
	}

	calls := make([]quoteCall, 0, len(routes)*len(amounts))
	for _, r := range routes {
		for _, amount := range amounts {
			c, err := p.buildCall(r, amount.Quotient(), tradeType)
			if err != nil {
				return nil, err
			}
			calls = append(calls, c)
		}
	}

	requests := make([]chain.CallRequest, len(calls))
	for i, c := range calls {
		data, err := c.parsed.Pack(c.method, c.args...)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", c.method, err)
		}
		requests[i] = chain.CallRequest{To: c.to, Data: data}
	}

	results, err := batchCalls(ctx, p.caller, requests, opts.BlockNumber, p.chunkSize)
	if err != nil {
		return nil, fmt.Errorf("quote routes: %w", err)
	}

	var failed int
	out := make([]RouteWithQuotes, len(routes))
	for i, r := range routes {
		quotes := make([]AmountQuote, len(amounts))
		for j, amount := range amounts {
			idx := i*len(amounts) + j
			c := calls[idx]
			q := AmountQuote{Amount: amount}
			values, err := unpackResult(c.parsed, c.method, results[idx])
			if err == nil {
				q, err = c.decode(values)
				q.Amount = amount
			}
			if err != nil {
				failed++
				q = AmountQuote{Amount: amount}
			}
			quotes[j] = q
		}
		out[i] = RouteWithQuotes{Route: r, Quotes: quotes}
	}

	p.logger.Debug("quoted routes",
		zap.Int("routes", len(routes)),
		zap.Int("amounts", len(amounts)),
		zap.Int("failed", failed),
		zap.String("trade_type", tradeType.String()),
	)
	return out, nil
}

func (p *OnChainQuoteProvider) buildCall(r model.Route, amount *big.Int, tradeType model.TradeType) (quoteCall, error) {
	exactOutput := tradeType == model.ExactOutput
	type result struct {
		call quoteCall
		err  error
	}
	res := model.MatchRoute(r,
		func(v2 model.V2Route) result {
			if p.addresses.V2Router == (common.Address{}) {
				return result{err: fmt.Errorf("no v2 router configured")}
			}
			parsed, err := v2RouterABI.get()
			if err != nil {
				return result{err: fmt.Errorf("parse v2 router abi: %w", err)}
			}
			method := "getAmountsOut"
			if exactOutput {
				method = "getAmountsIn"
			}
			return result{call: quoteCall{
				to:     p.addresses.V2Router,
				parsed: parsed,
				method: method,
				args:   []interface{}{amount, V2Path(v2)},
				decode: func(values []interface{}) (AmountQuote, error) { return decodeV2Amounts(values, exactOutput) },
			}}
		},
		func(v3 model.V3Route) result {
			parsed, err := quoterV2ABI.get()
			if err != nil {
				return result{err: fmt.Errorf("parse quoter abi: %w", err)}
			}
			method := "quoteExactInput"
			if exactOutput {
				method = "quoteExactOutput"
			}
			return result{call: quoteCall{
				to:     p.addresses.QuoterV2,
				parsed: parsed,
				method: method,
				args:   []interface{}{EncodeV3Path(v3, exactOutput), amount},
				decode: decodeQuoterResult,
			}}
		},
		func(m model.MixedRoute) result {
			if exactOutput {
				return result{err: ErrMixedExactOutput}
			}
			if p.addresses.MixedRouteQuoterV1 == (common.Address{}) {
				return result{err: fmt.Errorf("no mixed route quoter configured")}
			}
			parsed, err := mixedQuoterABI.get()
			if err != nil {
				return result{err: fmt.Errorf("parse mixed quoter abi: %w", err)}
			}
			return result{call: quoteCall{
				to:     p.addresses.MixedRouteQuoterV1,
				parsed: parsed,
				method: "quoteExactInput",
				args:   []interface{}{EncodeMixedPath(m), amount},
				decode: decodeQuoterResult,
			}}
		},
	)
	return res.call, res.err
}

func decodeQuoterResult(values []interface{}) (AmountQuote, error) {
	if len(values) != 4 {
		return AmountQuote{}, fmt.Errorf("quoter return size %d", len(values))
	}
	quote, err := asBigInt(values[0])
	if err != nil {
		return AmountQuote{}, fmt.Errorf("quote: %w", err)
	}
	sqrtList, err := asBigInts(values[1])
	if err != nil {
		return AmountQuote{}, fmt.Errorf("sqrt price list: %w", err)
	}
	ticks, ok := values[2].([]uint32)
	if !ok {
		return AmountQuote{}, fmt.Errorf("ticks crossed unexpected type %T", values[2])
	}
	gasEstimate, err := asBigInt(values[3])
	if err != nil {
		return AmountQuote{}, fmt.Errorf("gas estimate: %w", err)
	}
	return AmountQuote{
		Quote:                       quote,
		SqrtPriceX96AfterList:       sqrtList,
		InitializedTicksCrossedList: append([]uint32(nil), ticks...),
		GasEstimate:                 gasEstimate,
	}, nil
}

func decodeV2Amounts(values []interface{}, exactOutput bool) (AmountQuote, error) {
	if len(values) != 1 {
		return AmountQuote{}, fmt.Errorf("getAmounts return size %d", len(values))
	}
	amounts, err := asBigInts(values[0])
	if err != nil {
		return AmountQuote{}, err
	}
	if len(amounts) < 2 {
		return AmountQuote{}, fmt.Errorf("getAmounts returned %d amounts", len(amounts))
	}
	quote := amounts[len(amounts)-1]
	if exactOutput {
		quote = amounts[0]
	}
	return AmountQuote{Quote: quote}, nil
}
