package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orderRouter/internal/api"
	"orderRouter/internal/config"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	routing, err := cfg.RoutingConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sink, store, closeSinks, err := openSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	opts := api.Options{
		Router:     a.router,
		Currencies: a.tokens,
		Routing:    routing,
		SwapConfig: cfg.SwapConfig,
		Metrics:    a.metrics.Handler(),
		Logger:     logger,
	}
	if sink != nil {
		opts.Sink = sink
	}
	if store != nil {
		opts.History = store
	}
	server, err := api.NewServer(opts)
	if err != nil {
		return err
	}

	logger.Info("serve start",
		zap.String("listen", cfg.Listen),
		zap.Uint64("chain_id", uint64(a.chainID)),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	return server.Run(ctx, cfg.Listen)
}
