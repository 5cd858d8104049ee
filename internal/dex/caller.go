package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/chain"
)

// Caller is the read surface of chain.Client the on-chain providers need.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BatchCall(ctx context.Context, calls []chain.CallRequest, blockNumber *big.Int) ([]chain.CallResult, error)
}

// Chunk is a half-open index range [Start, End).
type Chunk struct {
	Start int
	End   int
}

// SplitChunks splits n items into consecutive chunks of at most size items.
func SplitChunks(n, size int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than zero")
	}
	if n < 0 {
		return nil, fmt.Errorf("item count must be >= 0")
	}

	chunks := make([]Chunk, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, Chunk{Start: start, End: end})
	}
	return chunks, nil
}

func callContract(ctx context.Context, caller Caller, to common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// batchCalls sends calls in chunks of chunkSize. Element failures stay in the results.
func batchCalls(ctx context.Context, caller Caller, calls []chain.CallRequest, block *big.Int, chunkSize int) ([]chain.CallResult, error) {
	chunks, err := SplitChunks(len(calls), chunkSize)
	if err != nil {
		return nil, err
	}
	results := make([]chain.CallResult, 0, len(calls))
	for _, c := range chunks {
		res, err := caller.BatchCall(ctx, calls[c.Start:c.End], block)
		if err != nil {
			return nil, fmt.Errorf("batch call %d-%d: %w", c.Start, c.End, err)
		}
		if len(res) != c.End-c.Start {
			return nil, fmt.Errorf("batch call %d-%d returned %d results", c.Start, c.End, len(res))
		}
		results = append(results, res...)
	}
	return results, nil
}

func unpackResult(parsed abi.ABI, method string, res chain.CallResult) ([]interface{}, error) {
	if res.Err != nil {
		return nil, res.Err
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("%s: empty return data", method)
	}
	return parsed.Unpack(method, res.Data)
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asBigInts(value interface{}) ([]*big.Int, error) {
	vs, ok := value.([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unsupported int list type %T", value)
	}
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = new(big.Int).Set(v)
	}
	return out, nil
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int(value.Int64()), nil
}
