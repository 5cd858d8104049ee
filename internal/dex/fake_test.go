package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"orderRouter/internal/chain"
)

type callHandler func(data []byte) ([]byte, error)

// fakeCaller answers eth_calls from per-address handlers. Unknown addresses return empty data,
// like a call to an account without code.
type fakeCaller struct {
	handlers map[common.Address]callHandler
	batches  int
	calls    int
	blocks   []*big.Int
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{handlers: make(map[common.Address]callHandler)}
}

func (f *fakeCaller) on(addr common.Address, h callHandler) { f.handlers[addr] = h }

func (f *fakeCaller) answer(to common.Address, data []byte) ([]byte, error) {
	f.calls++
	h, ok := f.handlers[to]
	if !ok {
		return nil, nil
	}
	return h(data)
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.blocks = append(f.blocks, blockNumber)
	return f.answer(*msg.To, msg.Data)
}

func (f *fakeCaller) BatchCall(_ context.Context, calls []chain.CallRequest, blockNumber *big.Int) ([]chain.CallResult, error) {
	f.batches++
	f.blocks = append(f.blocks, blockNumber)
	out := make([]chain.CallResult, len(calls))
	for i, c := range calls {
		data, err := f.answer(c.To, c.Data)
		out[i] = chain.CallResult{Data: data, Err: err}
	}
	return out, nil
}

func (f *fakeCaller) BalanceAt(_ context.Context, _ common.Address, _ *big.Int) (*big.Int, error) {
	return big.NewInt(42), nil
}

var errReverted = errors.New("execution reverted")

// methodHandler dispatches on the selector and packs the handler's outputs.
func methodHandler(parsed abi.ABI, fn func(method string, args []interface{}) ([]interface{}, error)) callHandler {
	return func(data []byte) ([]byte, error) {
		if len(data) < 4 {
			return nil, fmt.Errorf("short calldata")
		}
		m, err := parsed.MethodById(data[:4])
		if err != nil {
			return nil, err
		}
		args, err := m.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, err
		}
		outs, err := fn(m.Name, args)
		if err != nil {
			return nil, err
		}
		return m.Outputs.Pack(outs...)
	}
}

func mustABI(l *lazyABI) abi.ABI {
	parsed, err := l.get()
	if err != nil {
		panic(err)
	}
	return parsed
}
