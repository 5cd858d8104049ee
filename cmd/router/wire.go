package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/config"
	"orderRouter/internal/currency"
	"orderRouter/internal/dex"
	"orderRouter/internal/gas"
	"orderRouter/internal/metrics"
	"orderRouter/internal/quoter"
	"orderRouter/internal/router"
	"orderRouter/internal/simulation"
	"orderRouter/internal/storage"
	"orderRouter/internal/storage/postgres"
	"orderRouter/internal/swaprouter"
)

// app is the default production wiring of the router and its providers.
type app struct {
	chainID   chain.ChainID
	client    *chain.Client
	tokens    *dex.TokenProvider
	v3Pools   *dex.V3PoolProvider
	approvals *dex.ApprovalProvider
	router    *router.AlphaRouter
	metrics   *metrics.Prometheus
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	a, err := wire(ctx, cfg, client, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return a, nil
}

func wire(ctx context.Context, cfg config.Config, client *chain.Client, logger *zap.Logger) (*app, error) {
	chainID := chain.ChainID(cfg.ChainID)
	if chainID == 0 {
		id, err := client.GetChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("get chain id: %w", err)
		}
		chainID = chain.ChainID(id.Uint64())
	}

	tokens, err := dex.NewTokenProvider(client, chainID, cfg.PoolCacheSize, logger)
	if err != nil {
		return nil, err
	}
	v3Pools, err := dex.NewV3PoolProvider(client, chainID, cfg.QuoteChunkSize, cfg.PoolCacheSize, logger)
	if err != nil {
		return nil, err
	}
	v2Pools, err := dex.NewV2PoolProvider(client, chainID, cfg.QuoteChunkSize, cfg.PoolCacheSize, logger)
	if err != nil {
		return nil, err
	}
	quotes, err := dex.NewOnChainQuoteProvider(client, chainID, cfg.QuoteChunkSize, logger)
	if err != nil {
		return nil, err
	}
	approvals, err := dex.NewApprovalProvider(client, chainID)
	if err != nil {
		return nil, err
	}
	mixedChains, err := cfg.MixedChainIDs()
	if err != nil {
		return nil, err
	}

	gasPools := gas.Providers{V2: v2Pools, V3: v3Pools}
	prom := metrics.NewPrometheus(prometheus.NewRegistry(), "")

	deps := router.Deps{
		ChainID:        chainID,
		BlockNumbers:   client,
		GasPrices:      dex.NewEthGasPriceProvider(client),
		L2GasData:      dex.NewL2GasDataProvider(client, chainID),
		V3GasModels:    gas.V3HeuristicFactory{Calldata: swaprouter.L1CalldataBuilder(chainID), Logger: logger},
		MixedGasModels: gas.MixedHeuristicFactory{Logger: logger},
		GasPools:       gasPools,
		V2Quoter:       quoter.NewV2Quoter(chainID, v2Pools, quotes, gas.V2HeuristicFactory{Logger: logger}, gasPools, logger),
		V3Quoter:       quoter.NewV3Quoter(chainID, v3Pools, quotes, logger),
		MixedQuoter:    quoter.NewMixedQuoter(chainID, v3Pools, v2Pools, quotes, logger),
		Selector:       router.NewDefaultSelector(logger),
		MixedChains:    mixedChains,
		BlockBackoff:   chain.BlockNumberBackoff,
		Metrics:        prom,
		Logger:         logger,
	}
	if cfg.Simulate {
		sim, err := simulation.NewEthEstimateGasSimulator(chainID, client, dex.NewBalanceReader(client), gasPools, logger)
		if err != nil {
			return nil, err
		}
		deps.Simulator = sim
	}

	r, err := router.New(deps)
	if err != nil {
		return nil, err
	}

	logger.Info("router wired",
		zap.Uint64("chain_id", uint64(chainID)),
		zap.Int("quote_chunk_size", cfg.QuoteChunkSize),
		zap.Int("pool_cache_size", cfg.PoolCacheSize),
		zap.Bool("simulate", cfg.Simulate),
	)

	return &app{
		chainID:   chainID,
		client:    client,
		tokens:    tokens,
		v3Pools:   v3Pools,
		approvals: approvals,
		router:    r,
		metrics:   prom,
	}, nil
}

func (a *app) Close() {
	a.client.Close()
}

// openSinks opens the configured quote sinks. The returned sink is nil when none is configured,
// and the store is nil without a pg dsn.
func openSinks(ctx context.Context, cfg config.Config) (storage.QuoteSink, *postgres.Store, func(), error) {
	var (
		sinks storage.Multi
		store *postgres.Store
	)
	closeFn := func() {}

	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PGDSN != "" {
		var err error
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		sinks = append(sinks, store)
		closeFn = store.Close
	}

	if len(sinks) == 0 {
		return nil, nil, closeFn, nil
	}
	return sinks, store, closeFn, nil
}

// parseAmount converts whole units of c into a raw amount.
func parseAmount(c currency.Currency, s string) (currency.CurrencyAmount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return currency.CurrencyAmount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return currency.CurrencyAmount{}, fmt.Errorf("amount %q must not be negative", s)
	}
	raw := d.Shift(int32(c.Decimals))
	if !raw.Equal(raw.Truncate(0)) {
		return currency.CurrencyAmount{}, fmt.Errorf("amount %q has more than %d decimals", s, c.Decimals)
	}
	return currency.FromRawAmount(c, new(big.Int).Set(raw.BigInt())), nil
}
