package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orderRouter/internal/config"
	"orderRouter/internal/model"
)

func runQuote(cmd *cobra.Command, _ []string) error {
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

	tokenInArg, _ := cmd.Flags().GetString("token-in")
	tokenOutArg, _ := cmd.Flags().GetString("token-out")
	amountArg, _ := cmd.Flags().GetString("amount")
	exactOut, _ := cmd.Flags().GetBool("exact-out")
	if tokenInArg == "" || tokenOutArg == "" || amountArg == "" {
		return fmt.Errorf("token-in, token-out and amount are required")
	}

	routing, err := cfg.RoutingConfig()
	if err != nil {
		return err
	}
	now := time.Now()
	swapConfig, err := cfg.SwapConfig(now)
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

	tokenIn, err := a.tokens.GetCurrency(ctx, tokenInArg)
	if err != nil {
		return fmt.Errorf("token-in: %w", err)
	}
	tokenOut, err := a.tokens.GetCurrency(ctx, tokenOutArg)
	if err != nil {
		return fmt.Errorf("token-out: %w", err)
	}

	tradeType := model.ExactInput
	amountCurrency, quoteCurrency := tokenIn, tokenOut
	if exactOut {
		tradeType = model.ExactOutput
		amountCurrency, quoteCurrency = tokenOut, tokenIn
	}
	amount, err := parseAmount(amountCurrency, amountArg)
	if err != nil {
		return err
	}
	if amount.Quotient().Sign() == 0 {
		return fmt.Errorf("amount must be positive")
	}

	logger.Info("quote start",
		zap.String("token_in", tokenIn.String()),
		zap.String("token_out", tokenOut.String()),
		zap.String("amount", amount.ToExact()),
		zap.String("trade_type", tradeType.String()),
	)

	route, err := a.router.Route(ctx, amount, quoteCurrency, tradeType, swapConfig, routing)
	if err != nil {
		return err
	}
	if route == nil {
		return fmt.Errorf("no route found")
	}

	record := model.NewQuoteRecord(uint64(a.chainID), tradeType, route, now)

	sink, _, closeSinks, err := openSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSinks()
	if sink != nil {
		if err := sink.PutQuotes(ctx, []model.QuoteRecord{record}); err != nil {
			return fmt.Errorf("persist quote: %w", err)
		}
	}

	return printJSON(record)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
