package quoter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/gas"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// V2Quoter routes through constant-product pairs. It builds its gas model per call.
type V2Quoter struct {
	chainID    chain.ChainID
	pools      pool.V2Provider
	quotes     QuoteProvider
	gasFactory gas.ModelFactory
	gasPools   gas.Providers
	logger     *zap.Logger
}

// NewV2Quoter wires a V2 quoter. gasPools are the providers its gas model prices through.
func NewV2Quoter(chainID chain.ChainID, pools pool.V2Provider, quotes QuoteProvider, gasFactory gas.ModelFactory, gasPools gas.Providers, logger *zap.Logger) *V2Quoter {
	return &V2Quoter{chainID: chainID, pools: pools, quotes: quotes, gasFactory: gasFactory, gasPools: gasPools, logger: orNop(logger)}
}

func (q *V2Quoter) Protocol() model.Protocol { return model.ProtocolV2 }

// CandidatePools loads and selects the V2 pairs worth routing through.
func (q *V2Quoter) CandidatePools(ctx context.Context, req Request) ([]pool.V2Pair, *CandidatePools, error) {
	tokens := candidateTokens(req.TokenIn, req.TokenOut, chain.BaseTokens(q.chainID), req.RoutingConfig)
	accessor, err := q.pools.GetPools(ctx, v2Keys(tokens), req.providerOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("load v2 candidate pairs: %w", err)
	}
	selected, report := selectCandidates(accessor.AllPools(), req.TokenIn, req.TokenOut, req.RoutingConfig, model.ProtocolV2, deeperV2)
	return selected, report, nil
}

func (q *V2Quoter) GetRoutesThenQuotes(ctx context.Context, req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}

	candidates, report, err := q.CandidatePools(ctx, req)
	if err != nil {
		return Result{}, err
	}
	routes := computeAllV2Routes(req.TokenIn, req.TokenOut, candidates, req.RoutingConfig.MaxSwapsPerPath)
	if len(routes) == 0 {
		q.logger.Info("no v2 routes", zap.String("token_in", req.TokenIn.String()), zap.String("token_out", req.TokenOut.String()))
		return Result{CandidatePools: report}, nil
	}

	quoted, err := fetchQuotes(ctx, q.quotes, req, toRoutes(routes))
	if err != nil {
		return Result{}, fmt.Errorf("quote v2 routes: %w", err)
	}

	providers := q.gasPools
	providers.Options = req.providerOptions()
	gm, err := q.gasFactory.BuildGasModel(ctx, gas.FactoryParams{
		ChainID:     q.chainID,
		GasPriceWei: req.GasPriceWei,
		Providers:   providers,
		QuoteToken:  req.QuoteToken,
	})
	if err != nil {
		return Result{}, fmt.Errorf("build v2 gas model: %w", err)
	}

	valid, err := buildRoutesWithValidQuotes(quoted, req, gm, false, q.logger)
	if err != nil {
		return Result{}, err
	}
	q.logger.Info("v2 quotes",
		zap.Int("candidate_pairs", len(candidates)),
		zap.Int("routes", len(routes)),
		zap.Int("valid_quotes", len(valid)),
	)
	return Result{Routes: valid, CandidatePools: report}, nil
}
