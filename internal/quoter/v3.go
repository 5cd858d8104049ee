package quoter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// V3Quoter routes through concentrated-liquidity pools.
type V3Quoter struct {
	chainID chain.ChainID
	pools   pool.V3Provider
	quotes  QuoteProvider
	logger  *zap.Logger
}

func NewV3Quoter(chainID chain.ChainID, pools pool.V3Provider, quotes QuoteProvider, logger *zap.Logger) *V3Quoter {
	return &V3Quoter{chainID: chainID, pools: pools, quotes: quotes, logger: orNop(logger)}
}

func (q *V3Quoter) Protocol() model.Protocol { return model.ProtocolV3 }

// CandidatePools loads and selects the V3 pools worth routing through.
func (q *V3Quoter) CandidatePools(ctx context.Context, req Request) ([]pool.V3Pool, *CandidatePools, error) {
	tokens := candidateTokens(req.TokenIn, req.TokenOut, chain.BaseTokens(q.chainID), req.RoutingConfig)
	accessor, err := q.pools.GetPools(ctx, v3Keys(tokens), req.providerOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("load v3 candidate pools: %w", err)
	}
	selected, report := selectCandidates(accessor.AllPools(), req.TokenIn, req.TokenOut, req.RoutingConfig, model.ProtocolV3, deeperV3)
	return selected, report, nil
}

func (q *V3Quoter) GetRoutesThenQuotes(ctx context.Context, req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}
	if req.GasModel == nil {
		return Result{}, fmt.Errorf("v3 quoter needs a gas model")
	}

	candidates, report, err := q.CandidatePools(ctx, req)
	if err != nil {
		return Result{}, err
	}
	routes := computeAllV3Routes(req.TokenIn, req.TokenOut, candidates, req.RoutingConfig.MaxSwapsPerPath)
	if len(routes) == 0 {
		q.logger.Info("no v3 routes", zap.String("token_in", req.TokenIn.String()), zap.String("token_out", req.TokenOut.String()))
		return Result{CandidatePools: report}, nil
	}

	quoted, err := fetchQuotes(ctx, q.quotes, req, toRoutes(routes))
	if err != nil {
		return Result{}, fmt.Errorf("quote v3 routes: %w", err)
	}
	valid, err := buildRoutesWithValidQuotes(quoted, req, req.GasModel, true, q.logger)
	if err != nil {
		return Result{}, err
	}
	q.logger.Info("v3 quotes",
		zap.Int("candidate_pools", len(candidates)),
		zap.Int("routes", len(routes)),
		zap.Int("valid_quotes", len(valid)),
	)
	return Result{Routes: valid, CandidatePools: report}, nil
}
