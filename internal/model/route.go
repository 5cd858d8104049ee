package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/currency"
	"orderRouter/internal/pool"
)

// Protocol tags a route family.
type Protocol string

const (
	ProtocolV2    Protocol = "V2"
	ProtocolV3    Protocol = "V3"
	ProtocolMixed Protocol = "MIXED"
)

// ParseProtocol accepts the tag in any case.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(strings.ToUpper(strings.TrimSpace(s))) {
	case ProtocolV2:
		return ProtocolV2, nil
	case ProtocolV3:
		return ProtocolV3, nil
	case ProtocolMixed:
		return ProtocolMixed, nil
	}
	return "", fmt.Errorf("unknown protocol %q", s)
}

// TradeType fixes which side of the trade is exact.
type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	if t == ExactOutput {
		return "EXACT_OUTPUT"
	}
	return "EXACT_INPUT"
}

// Route is a path of pools from Input to Output. Only V2Route, V3Route and MixedRoute implement it.
type Route interface {
	Protocol() Protocol
	InputToken() currency.Token
	OutputToken() currency.Token
	TokenPath() []currency.Token
	PoolAddresses() []common.Address
	isRoute()
}

// V2Route hops through constant-product pairs.
type V2Route struct {
	Pairs  []pool.V2Pair
	Input  currency.Token
	Output currency.Token
}

// V3Route hops through concentrated-liquidity pools.
type V3Route struct {
	Pools  []pool.V3Pool
	Input  currency.Token
	Output currency.Token
}

// MixedRoute hops through pools of both families.
type MixedRoute struct {
	Pools  []pool.Pool
	Input  currency.Token
	Output currency.Token
}

func (V2Route) isRoute()    {}
func (V3Route) isRoute()    {}
func (MixedRoute) isRoute() {}

func (V2Route) Protocol() Protocol    { return ProtocolV2 }
func (V3Route) Protocol() Protocol    { return ProtocolV3 }
func (MixedRoute) Protocol() Protocol { return ProtocolMixed }

func (r V2Route) InputToken() currency.Token     { return r.Input }
func (r V2Route) OutputToken() currency.Token    { return r.Output }
func (r V3Route) InputToken() currency.Token     { return r.Input }
func (r V3Route) OutputToken() currency.Token    { return r.Output }
func (r MixedRoute) InputToken() currency.Token  { return r.Input }
func (r MixedRoute) OutputToken() currency.Token { return r.Output }

func (r V2Route) TokenPath() []currency.Token {
	pools := make([]pool.Pool, len(r.Pairs))
	for i, p := range r.Pairs {
		pools[i] = p
	}
	return tokenPath(r.Input, pools)
}

func (r V3Route) TokenPath() []currency.Token {
	pools := make([]pool.Pool, len(r.Pools))
	for i, p := range r.Pools {
		pools[i] = p
	}
	return tokenPath(r.Input, pools)
}

func (r MixedRoute) TokenPath() []currency.Token { return tokenPath(r.Input, r.Pools) }

func (r V2Route) PoolAddresses() []common.Address {
	out := make([]common.Address, len(r.Pairs))
	for i, p := range r.Pairs {
		out[i] = p.Address
	}
	return out
}

func (r V3Route) PoolAddresses() []common.Address {
	out := make([]common.Address, len(r.Pools))
	for i, p := range r.Pools {
		out[i] = p.Address
	}
	return out
}

func (r MixedRoute) PoolAddresses() []common.Address {
	out := make([]common.Address, len(r.Pools))
	for i, p := range r.Pools {
		out[i] = p.PoolAddress()
	}
	return out
}

func tokenPath(input currency.Token, pools []pool.Pool) []currency.Token {
	path := make([]currency.Token, 0, len(pools)+1)
	path = append(path, input)
	current := input
	for _, p := range pools {
		t0, t1 := p.Tokens()
		if current.Equals(t0) {
			current = t1
		} else {
			current = t0
		}
		path = append(path, current)
	}
	return path
}

// MatchRoute dispatches on the concrete route type. Every variant needs a handler.
func MatchRoute[T any](r Route, v2 func(V2Route) T, v3 func(V3Route) T, mixed func(MixedRoute) T) T {
	switch route := r.(type) {
	case V2Route:
		return v2(route)
	case V3Route:
		return v3(route)
	case MixedRoute:
		return mixed(route)
	}
	panic(fmt.Sprintf("unknown route type %T", r))
}

// RoutePools returns the route's pools as the shared Pool interface.
func RoutePools(r Route) []pool.Pool {
	return MatchRoute(r,
		func(v2 V2Route) []pool.Pool {
			out := make([]pool.Pool, len(v2.Pairs))
			for i, p := range v2.Pairs {
				out[i] = p
			}
			return out
		},
		func(v3 V3Route) []pool.Pool {
			out := make([]pool.Pool, len(v3.Pools))
			for i, p := range v3.Pools {
				out[i] = p
			}
			return out
		},
		func(m MixedRoute) []pool.Pool { return append([]pool.Pool(nil), m.Pools...) },
	)
}

// RouteToString renders a route as SYM -- fee [pool] --> SYM.
func RouteToString(r Route) string {
	path := r.TokenPath()
	pools := RoutePools(r)
	var b strings.Builder
	for i, p := range pools {
		b.WriteString(path[i].Symbol)
		switch v := p.(type) {
		case pool.V3Pool:
			fmt.Fprintf(&b, " -- %s%% [%s] --> ", currency.NewFractionInt(int64(v.Fee), 10000).ToFixed(2), v.Address.Hex())
		default:
			fmt.Fprintf(&b, " -- [%s] --> ", p.PoolAddress().Hex())
		}
	}
	b.WriteString(path[len(path)-1].Symbol)
	return b.String()
}
