package quoter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// MixedQuoter routes through paths that combine V3 pools and V2 pairs. Exact input only.
type MixedQuoter struct {
	v3     *V3Quoter
	v2     *V2Quoter
	quotes QuoteProvider
	logger *zap.Logger
}

// NewMixedQuoter reuses the candidate selection of both single-protocol quoters.
func NewMixedQuoter(chainID chain.ChainID, v3Pools pool.V3Provider, v2Pools pool.V2Provider, quotes QuoteProvider, logger *zap.Logger) *MixedQuoter {
	return &MixedQuoter{
		v3:     NewV3Quoter(chainID, v3Pools, quotes, logger),
		v2:     &V2Quoter{chainID: chainID, pools: v2Pools, quotes: quotes, logger: orNop(logger)},
		quotes: quotes,
		logger: orNop(logger),
	}
}

func (q *MixedQuoter) Protocol() model.Protocol { return model.ProtocolMixed }

func (q *MixedQuoter) GetRoutesThenQuotes(ctx context.Context, req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}
	if req.TradeType != model.ExactInput {
		return Result{}, fmt.Errorf("mixed routes only support exact input")
	}
	if req.GasModel == nil {
		return Result{}, fmt.Errorf("mixed quoter needs a gas model")
	}

	v3Pools, v3Report, err := q.v3.CandidatePools(ctx, req)
	if err != nil {
		return Result{}, err
	}
	v2Pairs, v2Report, err := q.v2.CandidatePools(ctx, req)
	if err != nil {
		return Result{}, err
	}

	pools := make([]pool.Pool, 0, len(v3Pools)+len(v2Pairs))
	for _, p := range v3Pools {
		pools = append(pools, p)
	}
	for _, p := range v2Pairs {
		pools = append(pools, p)
	}
	report := &CandidatePools{
		Protocol:   model.ProtocolMixed,
		Selections: append(append([]Selection(nil), v3Report.Selections...), v2Report.Selections...),
	}

	routes := computeAllMixedRoutes(req.TokenIn, req.TokenOut, pools, req.RoutingConfig.MaxSwapsPerPath)
	if len(routes) == 0 {
		q.logger.Info("no mixed routes", zap.String("token_in", req.TokenIn.String()), zap.String("token_out", req.TokenOut.String()))
		return Result{CandidatePools: report}, nil
	}

	quoted, err := fetchQuotes(ctx, q.quotes, req, toRoutes(routes))
	if err != nil {
		return Result{}, fmt.Errorf("quote mixed routes: %w", err)
	}
	valid, err := buildRoutesWithValidQuotes(quoted, req, req.GasModel, true, q.logger)
	if err != nil {
		return Result{}, err
	}
	q.logger.Info("mixed quotes",
		zap.Int("candidate_pools", len(pools)),
		zap.Int("routes", len(routes)),
		zap.Int("valid_quotes", len(valid)),
	)
	return Result{Routes: valid, CandidatePools: report}, nil
}
