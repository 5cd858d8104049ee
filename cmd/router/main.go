package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"orderRouter/internal/model"
)

func main() {
	root := &cobra.Command{
		Use:          "router",
		Short:        "Uniswap smart order router",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Find the best route for a swap",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("token-in", "", "input token address or native symbol")
	quoteCmd.Flags().String("token-out", "", "output token address or native symbol")
	quoteCmd.Flags().String("amount", "", "amount in whole units of the exact side")
	quoteCmd.Flags().Bool("exact-out", false, "treat amount as the exact output")
	quoteCmd.Flags().String("out", "", "append quote records to this JSONL path")
	quoteCmd.Flags().String("pg-dsn", "", "Postgres DSN for quote records")
	addSwapFlags(quoteCmd.Flags())
	addRoutingFlags(quoteCmd.Flags())

	root.AddCommand(quoteCmd)

	ratioCmd := &cobra.Command{
		Use:   "ratio",
		Short: "Swap a token pair to the ratio of a V3 position",
		RunE:  runRatio,
	}

	ratioCmd.Flags().String("token0", "", "first token address or native symbol")
	ratioCmd.Flags().String("token1", "", "second token address or native symbol")
	ratioCmd.Flags().String("amount0", "0", "balance of token0 in whole units")
	ratioCmd.Flags().String("amount1", "0", "balance of token1 in whole units")
	ratioCmd.Flags().Uint32("fee", 3000, "fee tier of the position's pool")
	ratioCmd.Flags().Int("tick-lower", 0, "lower tick of the position")
	ratioCmd.Flags().Int("tick-upper", 0, "upper tick of the position")
	ratioCmd.Flags().Int("max-iterations", 6, "maximum routing attempts")
	ratioCmd.Flags().String("ratio-error-tolerance", "1/100", "accepted ratio error (fraction or decimal)")
	ratioCmd.Flags().String("position-token-id", "", "increase this position instead of minting")
	addSwapFlags(ratioCmd.Flags())
	addRoutingFlags(ratioCmd.Flags())

	root.AddCommand(ratioCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve quotes over HTTP",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("out", "", "append served quotes to this JSONL path")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN for served quotes")
	addSwapFlags(serveCmd.Flags())
	addRoutingFlags(serveCmd.Flags())

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRoutingFlags(fs *pflag.FlagSet) {
	defaults := model.DefaultRoutingConfig()
	fs.String("rpc", "", "RPC URL")
	fs.Uint64("chain-id", 0, "chain id, 0 reads it from the RPC")
	fs.Uint64("block-number", 0, "quote at this block, 0 means latest")
	fs.StringSlice("protocols", nil, "protocols to route through (v2, v3, mixed)")
	fs.Int("distribution-percent", defaults.DistributionPercent, "split granularity in percent")
	fs.Int("max-swaps-per-path", defaults.MaxSwapsPerPath, "maximum hops per route")
	fs.Int("min-splits", defaults.MinSplits, "minimum routes in a split")
	fs.Int("max-splits", defaults.MaxSplits, "maximum routes in a split")
	fs.Int("top-n", defaults.TopN, "pools kept by liquidity")
	fs.Int("top-n-direct", defaults.TopNDirect, "direct pools kept")
	fs.Int("top-n-base", defaults.TopNTokenInOut, "pools kept per base token")
	fs.StringSlice("blocked-tokens", nil, "token addresses never routed through")
	fs.StringSlice("mixed-chains", nil, "chain ids allowed to use mixed routes (default 1,5)")
	fs.Int("quote-chunk-size", 50, "calls per multicall batch")
	fs.Int("pool-cache-size", 2048, "cached pool and token entries")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addSwapFlags(fs *pflag.FlagSet) {
	fs.String("recipient", "", "swap recipient, enables calldata")
	fs.String("slippage", "0.5", "slippage tolerance in percent")
	fs.Duration("deadline", 30*time.Minute, "swap deadline from now")
	fs.Bool("simulate", false, "simulate the swap with eth_estimateGas")
	fs.String("from", "", "sender address used for simulation")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
