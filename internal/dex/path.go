package dex

import (
	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/model"
	"orderRouter/internal/pool"
)

// EncodeV3Path packs token(20) fee(3) token(20)... in swap order. Exact-output paths run from the
// output token back to the input token.
func EncodeV3Path(r model.V3Route, exactOutput bool) []byte {
	tokens := r.TokenPath()
	fees := make([]uint32, len(r.Pools))
	for i, p := range r.Pools {
		fees[i] = uint32(p.Fee)
	}
	addrs := make([]common.Address, len(tokens))
	for i, t := range tokens {
		addrs[i] = t.Address
	}
	if exactOutput {
		reverse(addrs)
		reverse(fees)
	}
	return packPath(addrs, fees)
}

// EncodeMixedPath packs a mixed route for MixedRouteQuoterV1. V2 hops carry the V2MixedFee marker.
func EncodeMixedPath(r model.MixedRoute) []byte {
	tokens := r.TokenPath()
	addrs := make([]common.Address, len(tokens))
	for i, t := range tokens {
		addrs[i] = t.Address
	}
	fees := make([]uint32, len(r.Pools))
	for i, p := range r.Pools {
		switch v := p.(type) {
		case pool.V3Pool:
			fees[i] = uint32(v.Fee)
		default:
			fees[i] = pool.V2MixedFee
		}
	}
	return packPath(addrs, fees)
}

// V2Path returns the token addresses a V2 router swaps through.
func V2Path(r model.V2Route) []common.Address {
	tokens := r.TokenPath()
	out := make([]common.Address, len(tokens))
	for i, t := range tokens {
		out[i] = t.Address
	}
	return out
}

func packPath(addrs []common.Address, fees []uint32) []byte {
	out := make([]byte, 0, len(addrs)*common.AddressLength+len(fees)*3)
	for i, a := range addrs {
		out = append(out, a.Bytes()...)
		if i < len(fees) {
			f := fees[i]
			out = append(out, byte(f>>16), byte(f>>8), byte(f))
		}
	}
	return out
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
