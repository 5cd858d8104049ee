package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orderRouter/internal/config"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
	"orderRouter/internal/ratio"
)

// ratioRecord is the printed outcome of a ratio run.
type ratioRecord struct {
	Status               string             `json:"status"`
	Error                string             `json:"error,omitempty"`
	Pool                 string             `json:"pool"`
	OptimalRatio         string             `json:"optimal_ratio,omitempty"`
	PostSwapTick         *int               `json:"post_swap_tick,omitempty"`
	PostSwapSqrtPriceX96 string             `json:"post_swap_sqrt_price_x96,omitempty"`
	Swap                 *model.QuoteRecord `json:"swap,omitempty"`
	Calldata             string             `json:"calldata,omitempty"`
	Value                string             `json:"value,omitempty"`
	To                   string             `json:"to,omitempty"`
}

func runRatio(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRatio(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	token0Arg, _ := cmd.Flags().GetString("token0")
	token1Arg, _ := cmd.Flags().GetString("token1")
	amount0Arg, _ := cmd.Flags().GetString("amount0")
	amount1Arg, _ := cmd.Flags().GetString("amount1")
	if token0Arg == "" || token1Arg == "" {
		return fmt.Errorf("token0 and token1 are required")
	}
	if cfg.TickLower >= cfg.TickUpper {
		return fmt.Errorf("tick-lower %d must be below tick-upper %d", cfg.TickLower, cfg.TickUpper)
	}

	fee, err := cfg.FeeAmount()
	if err != nil {
		return err
	}
	sac, err := cfg.SwapAndAddConfig()
	if err != nil {
		return err
	}
	tokenID, err := cfg.TokenID()
	if err != nil {
		return err
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

	a, err := newApp(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	token0, err := a.tokens.GetCurrency(ctx, token0Arg)
	if err != nil {
		return fmt.Errorf("token0: %w", err)
	}
	token1, err := a.tokens.GetCurrency(ctx, token1Arg)
	if err != nil {
		return fmt.Errorf("token1: %w", err)
	}
	balance0, err := parseAmount(token0, amount0Arg)
	if err != nil {
		return err
	}
	balance1, err := parseAmount(token1, amount1Arg)
	if err != nil {
		return err
	}

	accessor, err := a.v3Pools.GetPools(ctx, []pool.V3Key{{TokenA: token0.Wrapped(), TokenB: token1.Wrapped(), Fee: fee}}, pool.ProviderOptions{BlockNumber: routing.BlockNumber})
	if err != nil {
		return fmt.Errorf("fetch position pool: %w", err)
	}
	positionPool, ok := accessor.GetPool(token0.Wrapped(), token1.Wrapped(), fee)
	if !ok {
		return fmt.Errorf("no %s/%s pool with fee %d", token0, token1, fee)
	}
	position := pool.Position{
		Pool:      positionPool,
		TickLower: cfg.TickLower,
		TickUpper: cfg.TickUpper,
		Liquidity: new(big.Int),
	}

	var opts *model.SwapAndAddOptions
	if swapConfig != nil {
		opts = &model.SwapAndAddOptions{SwapConfig: *swapConfig}
		if tokenID != nil {
			opts.AddLiquidityOptions.TokenID = tokenID
		} else {
			recipient := swapConfig.Recipient
			opts.AddLiquidityOptions.Recipient = &recipient
		}
	}

	engine, err := ratio.NewEngine(a.router, a.approvals, logger)
	if err != nil {
		return err
	}

	logger.Info("ratio start",
		zap.String("pool", positionPool.Address.Hex()),
		zap.String("balance0", balance0.ToExact()),
		zap.String("balance1", balance1.ToExact()),
		zap.Int("tick_lower", cfg.TickLower),
		zap.Int("tick_upper", cfg.TickUpper),
		zap.Int("max_iterations", sac.MaxIterations),
	)

	result, err := engine.RouteToRatio(ctx, balance0, balance1, position, sac, opts, routing)
	if err != nil {
		return err
	}

	return printJSON(newRatioRecord(uint64(a.chainID), positionPool.Address, result, now))
}

func newRatioRecord(chainID uint64, poolAddress common.Address, result *ratio.SwapToRatioResult, now time.Time) ratioRecord {
	rec := ratioRecord{
		Status: result.Status.String(),
		Error:  result.Error,
		Pool:   poolAddress.Hex(),
	}
	if result.Status != model.SwapToRatioSuccess {
		return rec
	}
	rec.OptimalRatio = result.OptimalRatio.ToFixed(18)
	if p := result.PostSwapTargetPool; p != nil {
		tick := p.TickCurrent
		rec.PostSwapTick = &tick
		if p.SqrtPriceX96 != nil {
			rec.PostSwapSqrtPriceX96 = p.SqrtPriceX96.String()
		}
	}
	if result.SwapRoute != nil {
		swap := model.NewQuoteRecord(chainID, model.ExactInput, result.SwapRoute, now)
		rec.Swap = &swap
	}
	if mp := result.MethodParameters; mp != nil {
		rec.Calldata = mp.Calldata.String()
		if mp.Value != nil {
			rec.Value = mp.Value.String()
		}
		rec.To = mp.To.Hex()
	}
	return rec
}
