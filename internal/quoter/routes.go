package quoter

import (
	"orderRouter/internal/currency"
	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// computeAllRoutes walks pools depth-first from tokenIn and returns every path that reaches
// tokenOut in at most maxHops pools. A pool appears at most once per path.
func computeAllRoutes[P pool.Pool](tokenIn, tokenOut currency.Token, pools []P, maxHops int) [][]P {
	var (
		routes [][]P
		path   []P
		used   = make([]bool, len(pools))
	)
	var walk func(current currency.Token)
	walk = func(current currency.Token) {
		for i, p := range pools {
			if used[i] || !p.InvolvesToken(current) {
				continue
			}
			t0, t1 := p.Tokens()
			next := t0
			if next.Equals(current) {
				next = t1
			}
			path = append(path, p)
			used[i] = true
			if next.Equals(tokenOut) {
				routes = append(routes, append([]P(nil), path...))
			} else if len(path) < maxHops && !next.Equals(tokenIn) {
				walk(next)
			}
			used[i] = false
			path = path[:len(path)-1]
		}
	}
	if maxHops > 0 {
		walk(tokenIn)
	}
	return routes
}

func computeAllV3Routes(tokenIn, tokenOut currency.Token, pools []pool.V3Pool, maxHops int) []model.V3Route {
	paths := computeAllRoutes(tokenIn, tokenOut, pools, maxHops)
	out := make([]model.V3Route, len(paths))
	for i, p := range paths {
		out[i] = model.V3Route{Pools: p, Input: tokenIn, Output: tokenOut}
	}
	return out
}

func computeAllV2Routes(tokenIn, tokenOut currency.Token, pairs []pool.V2Pair, maxHops int) []model.V2Route {
	paths := computeAllRoutes(tokenIn, tokenOut, pairs, maxHops)
	out := make([]model.V2Route, len(paths))
	for i, p := range paths {
		out[i] = model.V2Route{Pairs: p, Input: tokenIn, Output: tokenOut}
	}
	return out
}

// computeAllMixedRoutes keeps only paths that use both pool families.
func computeAllMixedRoutes(tokenIn, tokenOut currency.Token, pools []pool.Pool, maxHops int) []model.MixedRoute {
	var out []model.MixedRoute
	for _, p := range computeAllRoutes(tokenIn, tokenOut, pools, maxHops) {
		var v2, v3 bool
		for _, hop := range p {
			switch hop.(type) {
			case pool.V3Pool:
				v3 = true
			case pool.V2Pair:
				v2 = true
			}
		}
		if v2 && v3 {
			out = append(out, model.MixedRoute{Pools: p, Input: tokenIn, Output: tokenOut})
		}
	}
	return out
}
