package quoter

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/currency"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// Selection names reported to metrics.
const (
	SelectionDirectSwapPool   = "topByDirectSwapPool"
	SelectionBaseWithTokenIn  = "topByBaseWithTokenIn"
	SelectionBaseWithTokenOut = "topByBaseWithTokenOut"
	SelectionTopByLiquidity   = "topByTVL"
)

// candidateTokens is tokenIn, tokenOut and the chain's base tokens, minus blocked ones.
func candidateTokens(tokenIn, tokenOut currency.Token, bases []currency.Token, cfg model.RoutingConfig) []currency.Token {
	out := []currency.Token{tokenIn, tokenOut}
	for _, b := range bases {
		dup := false
		for _, t := range out {
			if t.Equals(b) {
				dup = true
				break
			}
		}
		if !dup && !cfg.IsBlocked(b) {
			out = append(out, b)
		}
	}
	return out
}

func tokenPairs(tokens []currency.Token) [][2]currency.Token {
	var pairs [][2]currency.Token
	for i := range tokens {
		for j := i + 1; j < len(tokens); j++ {
			pairs = append(pairs, [2]currency.Token{tokens[i], tokens[j]})
		}
	}
	return pairs
}

func v3Keys(tokens []currency.Token) []pool.V3Key {
	var keys []pool.V3Key
	for _, pair := range tokenPairs(tokens) {
		for _, fee := range pool.FeeTiers {
			keys = append(keys, pool.V3Key{TokenA: pair[0], TokenB: pair[1], Fee: fee})
		}
	}
	return keys
}

func v2Keys(tokens []currency.Token) []pool.V2Key {
	var keys []pool.V2Key
	for _, pair := range tokenPairs(tokens) {
		keys = append(keys, pool.V2Key{TokenA: pair[0], TokenB: pair[1]})
	}
	return keys
}

// selectCandidates ranks pools with better and picks the top direct pools, the top pools pairing
// each side with a base token, then the top pools overall. The union keeps selection order.
func selectCandidates[P pool.Pool](pools []P, tokenIn, tokenOut currency.Token, cfg model.RoutingConfig, protocol model.Protocol, better func(a, b P) bool) ([]P, *CandidatePools) {
	var allowed []P
	for _, p := range pools {
		t0, t1 := p.Tokens()
		if cfg.IsBlocked(t0) || cfg.IsBlocked(t1) {
			continue
		}
		allowed = append(allowed, p)
	}
	sort.SliceStable(allowed, func(i, j int) bool { return better(allowed[i], allowed[j]) })

	var (
		selected []P
		used     = make(map[common.Address]bool)
		report   = &CandidatePools{Protocol: protocol}
	)
	take := func(name string, n int, match func(P) bool) {
		sel := Selection{Name: name}
		for _, p := range allowed {
			if len(sel.Pools) >= n {
				break
			}
			if !match(p) {
				continue
			}
			sel.Pools = append(sel.Pools, p.PoolAddress())
			if !used[p.PoolAddress()] {
				used[p.PoolAddress()] = true
				selected = append(selected, p)
			}
		}
		report.Selections = append(report.Selections, sel)
	}

	direct := func(p P) bool { return p.InvolvesToken(tokenIn) && p.InvolvesToken(tokenOut) }
	take(SelectionDirectSwapPool, cfg.TopNDirect, direct)
	take(SelectionBaseWithTokenIn, cfg.TopNTokenInOut, func(p P) bool {
		return p.InvolvesToken(tokenIn) && !p.InvolvesToken(tokenOut)
	})
	take(SelectionBaseWithTokenOut, cfg.TopNTokenInOut, func(p P) bool {
		return p.InvolvesToken(tokenOut) && !p.InvolvesToken(tokenIn)
	})
	take(SelectionTopByLiquidity, cfg.TopN, func(p P) bool { return !used[p.PoolAddress()] })

	return selected, report
}

func deeperV3(a, b pool.V3Pool) bool {
	if a.Liquidity == nil || b.Liquidity == nil {
		return b.Liquidity == nil && a.Liquidity != nil
	}
	return a.Liquidity.Cmp(b.Liquidity) > 0
}

func deeperV2(a, b pool.V2Pair) bool {
	return a.Depth().Cmp(b.Depth()) > 0
}
