package config

import (
	"fmt"
	"math/big"

	"github.com/spf13/pflag"

	"orderRouter/internal/currency"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// RatioConfig is Config plus the keys of the ratio command.
type RatioConfig struct {
	Config

	MaxIterations       int
	RatioErrorTolerance string
	TickLower           int
	TickUpper           int
	Fee                 uint32
	PositionTokenID     string
}

// LoadRatio merges config file, environment variables, and flags into RatioConfig.
func LoadRatio(cfgFile string, flags *pflag.FlagSet) (RatioConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return RatioConfig{}, err
	}
	v.SetDefault("max-iterations", 6)
	v.SetDefault("ratio-error-tolerance", "1/100")
	v.SetDefault("fee", uint32(pool.FeeMedium))

	return RatioConfig{
		Config:              fromViper(v),
		MaxIterations:       v.GetInt("max-iterations"),
		RatioErrorTolerance: v.GetString("ratio-error-tolerance"),
		TickLower:           v.GetInt("tick-lower"),
		TickUpper:           v.GetInt("tick-upper"),
		Fee:                 v.GetUint32("fee"),
		PositionTokenID:     v.GetString("position-token-id"),
	}, nil
}

// SwapAndAddConfig bounds the ratio loop.
func (c RatioConfig) SwapAndAddConfig() (model.SwapAndAddConfig, error) {
	if c.MaxIterations <= 0 {
		return model.SwapAndAddConfig{}, fmt.Errorf("max-iterations must be positive, got %d", c.MaxIterations)
	}
	tol, err := ParseFraction(c.RatioErrorTolerance)
	if err != nil {
		return model.SwapAndAddConfig{}, fmt.Errorf("ratio-error-tolerance: %w", err)
	}
	if tol.LessThan(currency.NewFractionInt(0, 1)) {
		return model.SwapAndAddConfig{}, fmt.Errorf("ratio-error-tolerance must not be negative")
	}
	return model.SwapAndAddConfig{MaxIterations: c.MaxIterations, RatioErrorTolerance: tol}, nil
}

// TokenID is the position to increase, nil to mint a new one.
func (c RatioConfig) TokenID() (*big.Int, error) {
	if c.PositionTokenID == "" {
		return nil, nil
	}
	id, ok := new(big.Int).SetString(c.PositionTokenID, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid position-token-id %q", c.PositionTokenID)
	}
	return id, nil
}

// FeeAmount is the fee tier of the position's pool.
func (c RatioConfig) FeeAmount() (pool.FeeAmount, error) {
	fee := pool.FeeAmount(c.Fee)
	for _, tier := range pool.FeeTiers {
		if fee == tier {
			return fee, nil
		}
	}
	return 0, fmt.Errorf("unsupported fee tier %d", c.Fee)
}
