package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/model"
)

func TestParseFraction(t *testing.T) {
	cases := []struct {
		in       string
		num, den int64
	}{
		{"1/100", 1, 100},
		{" 3 / 4 ", 3, 4},
		{"0.01", 1, 100},
		{"0.5", 5, 10},
		{"12", 12, 1},
		{"-0.25", -25, 100},
	}
	for _, tc := range cases {
		f, err := ParseFraction(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if !f.EqualTo(currency.NewFractionInt(tc.num, tc.den)) {
			t.Fatalf("parse %q = %s/%s", tc.in, f.Numerator, f.Denominator)
		}
	}
	for _, bad := range []string{"", "1/0", "a/b", "1.2.3"} {
		if _, err := ParseFraction(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router.yaml")
	yaml := "rpc: http://node:8545\nprotocols: [v3, mixed]\nmax-splits: 4\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ROUTER_TOP_N", "7")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("distribution-percent", 5, "")
	if err := flags.Parse([]string{"--distribution-percent=10"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "http://node:8545" || cfg.MaxSplits != 4 || cfg.TopN != 7 || cfg.DistributionPercent != 10 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.QuoteChunkSize != 50 || cfg.Listen != ":8080" || cfg.Deadline != 30*time.Minute {
		t.Fatalf("defaults not applied: %+v", cfg)
	}

	rc, err := cfg.RoutingConfig()
	if err != nil {
		t.Fatalf("routing config: %v", err)
	}
	if len(rc.Protocols) != 2 || rc.Protocols[0] != model.ProtocolV3 || rc.Protocols[1] != model.ProtocolMixed {
		t.Fatalf("protocols = %v", rc.Protocols)
	}
	if rc.BlockNumber != nil {
		t.Fatalf("block number should be unpinned")
	}

	mixed, err := cfg.MixedChainIDs()
	if err != nil || len(mixed) != 2 || mixed[0] != chain.Mainnet || mixed[1] != chain.Goerli {
		t.Fatalf("mixed chains = %v, %v", mixed, err)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for explicit missing config file")
	}
}

func TestSwapConfig(t *testing.T) {
	cfg := Config{Slippage: "0.5", Deadline: time.Minute}
	sc, err := cfg.SwapConfig(time.Unix(1000, 0))
	if err != nil || sc != nil {
		t.Fatalf("no recipient means no swap config, got %+v, %v", sc, err)
	}

	cfg.Recipient = "0x00000000000000000000000000000000000000f1"
	sc, err = cfg.SwapConfig(time.Unix(1000, 0))
	if err != nil {
		t.Fatalf("swap config: %v", err)
	}
	if sc.Deadline != 1060 || sc.Recipient != common.HexToAddress(cfg.Recipient) {
		t.Fatalf("unexpected swap config %+v", sc)
	}
	if !sc.SlippageTolerance.EqualTo(currency.NewFractionInt(5, 1000)) {
		t.Fatalf("slippage = %s", sc.SlippageTolerance.ToFixed(4))
	}

	cfg.Simulate = true
	if _, err := cfg.SwapConfig(time.Now()); err == nil {
		t.Fatalf("simulate without from should fail")
	}
	cfg.From = "0x00000000000000000000000000000000000000aa"
	sc, err = cfg.SwapConfig(time.Now())
	if err != nil || sc.Simulate == nil || sc.Simulate.FromAddress != common.HexToAddress(cfg.From) {
		t.Fatalf("simulate config = %+v, %v", sc, err)
	}
}

func TestRatioConfig(t *testing.T) {
	rc := RatioConfig{MaxIterations: 6, RatioErrorTolerance: "1/100", PositionTokenID: "42"}
	sac, err := rc.SwapAndAddConfig()
	if err != nil {
		t.Fatalf("swap and add config: %v", err)
	}
	if sac.MaxIterations != 6 || !sac.RatioErrorTolerance.EqualTo(currency.NewFractionInt(1, 100)) {
		t.Fatalf("unexpected %+v", sac)
	}
	id, err := rc.TokenID()
	if err != nil || id.Int64() != 42 {
		t.Fatalf("token id = %v, %v", id, err)
	}

	rc.MaxIterations = 0
	if _, err := rc.SwapAndAddConfig(); err == nil {
		t.Fatalf("expected error for zero iterations")
	}
}

func TestLoadRatioFee(t *testing.T) {
	flags := pflag.NewFlagSet("ratio", pflag.ContinueOnError)
	flags.Uint32("fee", 3000, "")
	if err := flags.Parse([]string{"--fee=500"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	rc, err := LoadRatio("", flags)
	if err != nil {
		t.Fatalf("load ratio: %v", err)
	}
	fee, err := rc.FeeAmount()
	if err != nil || fee != 500 {
		t.Fatalf("fee = %d, %v", fee, err)
	}
	if rc.MaxIterations != 6 {
		t.Fatalf("max iterations = %d", rc.MaxIterations)
	}

	rc.Fee = 42
	if _, err := rc.FeeAmount(); err == nil {
		t.Fatalf("expected error for unsupported fee tier")
	}
}
