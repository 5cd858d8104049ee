package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/model"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL   string
	ChainID  uint64
	LogLevel string

	DistributionPercent int
	Protocols           []string
	MaxSwapsPerPath     int
	MinSplits           int
	MaxSplits           int
	TopN                int
	TopNDirect          int
	TopNBase            int
	BlockedTokens       []string
	MixedChains         []string
	BlockNumber         uint64

	QuoteChunkSize int
	PoolCacheSize  int

	Out    string
	PGDSN  string
	Listen string

	Slippage  string
	Deadline  time.Duration
	Recipient string
	Simulate  bool
	From      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	defaults := model.DefaultRoutingConfig()
	v.SetDefault("log-level", "info")
	v.SetDefault("distribution-percent", defaults.DistributionPercent)
	v.SetDefault("max-swaps-per-path", defaults.MaxSwapsPerPath)
	v.SetDefault("min-splits", defaults.MinSplits)
	v.SetDefault("max-splits", defaults.MaxSplits)
	v.SetDefault("top-n", defaults.TopN)
	v.SetDefault("top-n-direct", defaults.TopNDirect)
	v.SetDefault("top-n-base", defaults.TopNTokenInOut)
	v.SetDefault("mixed-chains", chainIDStrings(chain.DefaultMixedChains))
	v.SetDefault("quote-chunk-size", 50)
	v.SetDefault("pool-cache-size", 2048)
	v.SetDefault("listen", ":8080")
	v.SetDefault("slippage", "0.5")
	v.SetDefault("deadline", 30*time.Minute)
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("ROUTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		RPCURL:              v.GetString("rpc"),
		ChainID:             v.GetUint64("chain-id"),
		LogLevel:            v.GetString("log-level"),
		DistributionPercent: v.GetInt("distribution-percent"),
		Protocols:           getStringSlice(v, "protocols"),
		MaxSwapsPerPath:     v.GetInt("max-swaps-per-path"),
		MinSplits:           v.GetInt("min-splits"),
		MaxSplits:           v.GetInt("max-splits"),
		TopN:                v.GetInt("top-n"),
		TopNDirect:          v.GetInt("top-n-direct"),
		TopNBase:            v.GetInt("top-n-base"),
		BlockedTokens:       getStringSlice(v, "blocked-tokens"),
		MixedChains:         getStringSlice(v, "mixed-chains"),
		BlockNumber:         v.GetUint64("block-number"),
		QuoteChunkSize:      v.GetInt("quote-chunk-size"),
		PoolCacheSize:       v.GetInt("pool-cache-size"),
		Out:                 v.GetString("out"),
		PGDSN:               v.GetString("pg-dsn"),
		Listen:              v.GetString("listen"),
		Slippage:            v.GetString("slippage"),
		Deadline:            v.GetDuration("deadline"),
		Recipient:           v.GetString("recipient"),
		Simulate:            v.GetBool("simulate"),
		From:                v.GetString("from"),
	}
}

// RoutingConfig converts the routing keys into a per-request config.
func (c Config) RoutingConfig() (model.RoutingConfig, error) {
	rc := model.RoutingConfig{
		DistributionPercent: c.DistributionPercent,
		MaxSwapsPerPath:     c.MaxSwapsPerPath,
		MinSplits:           c.MinSplits,
		MaxSplits:           c.MaxSplits,
		TopN:                c.TopN,
		TopNDirect:          c.TopNDirect,
		TopNTokenInOut:      c.TopNBase,
	}
	for _, p := range c.Protocols {
		protocol, err := model.ParseProtocol(p)
		if err != nil {
			return model.RoutingConfig{}, err
		}
		rc.Protocols = append(rc.Protocols, protocol)
	}
	for _, addr := range c.BlockedTokens {
		if !common.IsHexAddress(addr) {
			return model.RoutingConfig{}, fmt.Errorf("invalid blocked token address %q", addr)
		}
		rc.BlockedTokens = append(rc.BlockedTokens, common.HexToAddress(addr))
	}
	if c.BlockNumber > 0 {
		rc.BlockNumber = new(big.Int).SetUint64(c.BlockNumber)
	}
	return rc, nil
}

// MixedChainIDs parses the mixed-route allow-list.
func (c Config) MixedChainIDs() ([]chain.ChainID, error) {
	out := make([]chain.ChainID, 0, len(c.MixedChains))
	for _, s := range c.MixedChains {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mixed chain id %q: %w", s, err)
		}
		out = append(out, chain.ChainID(id))
	}
	return out, nil
}

// SlippagePercent reads the slippage key, given in percent.
func (c Config) SlippagePercent() (currency.Percent, error) {
	f, err := ParseFraction(c.Slippage)
	if err != nil {
		return currency.Percent{}, fmt.Errorf("slippage: %w", err)
	}
	if f.LessThan(currency.NewFractionInt(0, 1)) || f.GreaterThan(currency.NewFractionInt(100, 1)) {
		return currency.Percent{}, fmt.Errorf("slippage %s out of range", c.Slippage)
	}
	return currency.PercentFromFraction(f.Divide(currency.NewFractionInt(100, 1))), nil
}

// SwapConfig builds calldata options when a recipient is configured. Without one, routes carry
// no method parameters.
func (c Config) SwapConfig(now time.Time) (*model.SwapConfig, error) {
	if c.Recipient == "" {
		if c.Simulate {
			return nil, fmt.Errorf("simulate requires a recipient")
		}
		return nil, nil
	}
	if !common.IsHexAddress(c.Recipient) {
		return nil, fmt.Errorf("invalid recipient %q", c.Recipient)
	}
	slippage, err := c.SlippagePercent()
	if err != nil {
		return nil, err
	}
	sc := &model.SwapConfig{
		Recipient:         common.HexToAddress(c.Recipient),
		SlippageTolerance: slippage,
		Deadline:          now.Add(c.Deadline).Unix(),
	}
	if c.Simulate {
		if !common.IsHexAddress(c.From) {
			return nil, fmt.Errorf("simulate requires a valid from address, got %q", c.From)
		}
		sc.Simulate = &model.SimulationConfig{FromAddress: common.HexToAddress(c.From)}
	}
	return sc, nil
}

func chainIDStrings(ids []chain.ChainID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatUint(uint64(id), 10)
	}
	return out
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
