package router

import (
	"fmt"
	"strings"
	"time"

	"orderRouter/internal/chain"
	"orderRouter/internal/model"
	"orderRouter/internal/quoter"
)

// Metrics receives the router's counters and timings. Implementations must not block.
type Metrics interface {
	Count(name string, value float64)
	Duration(name string, d time.Duration)
}

// NopMetrics drops everything.
type NopMetrics struct{}

func (NopMetrics) Count(string, float64)            {}
func (NopMetrics) Duration(string, time.Duration) {}

func timeSince(m Metrics, name string, start time.Time) {
	m.Duration(name, time.Since(start))
}

// emitPoolSelectionMetrics reports, per protocol and selection criterion, how deep into the
// ranked candidate list the chosen routes reached, then which protocol mix won.
func emitPoolSelectionMetrics(m Metrics, chainID chain.ChainID, routes []*model.RouteWithValidQuote, candidates []*quoter.CandidatePools) {
	used := make(map[string]struct{})
	for _, r := range routes {
		for _, addr := range r.PoolAddresses {
			used[strings.ToLower(addr.Hex())] = struct{}{}
		}
	}
	for _, c := range candidates {
		for _, sel := range c.Selections {
			topNUsed := 0
			for i, addr := range sel.Pools {
				if _, ok := used[strings.ToLower(addr.Hex())]; ok {
					topNUsed = i + 1
				}
			}
			m.Count(capitalize(string(c.Protocol)+sel.Name), float64(topNUsed))
		}
	}

	name := RouteCombination(routes)
	if name == "" {
		return
	}
	m.Count(name, 1)
	m.Count(fmt.Sprintf("%sForChain%d", name, chainID), 1)
}

// RouteCombination names the protocol mix of a winning split, e.g. "V3SplitRoute" or
// "MixedAndV2SplitRoute". Empty routes give "".
func RouteCombination(routes []*model.RouteWithValidQuote) string {
	var hasV2, hasV3, hasMixed bool
	for _, r := range routes {
		switch r.Protocol() {
		case model.ProtocolV2:
			hasV2 = true
		case model.ProtocolV3:
			hasV3 = true
		case model.ProtocolMixed:
			hasMixed = true
		}
	}
	split := len(routes) > 1
	single := func(prefix string) string {
		if split {
			return prefix + "SplitRoute"
		}
		return prefix + "Route"
	}
	switch {
	case hasMixed && hasV3 && hasV2:
		return "MixedAndV3AndV2SplitRoute"
	case hasMixed && hasV3:
		return "MixedAndV3SplitRoute"
	case hasMixed && hasV2:
		return "MixedAndV2SplitRoute"
	case hasV3 && hasV2:
		return "V3AndV2SplitRoute"
	case hasMixed:
		return single("Mixed")
	case hasV3:
		return single("V3")
	case hasV2:
		return single("V2")
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
