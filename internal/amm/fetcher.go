package amm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"swaphelper/internal/contracts"
)

// Fetcher reads pair state from the factory and pair contracts.
type Fetcher struct {
	caller  ethereum.ContractCaller
	factory common.Address
	feeBps  uint32
}

func NewFetcher(caller ethereum.ContractCaller, factory common.Address, feeBps uint32) *Fetcher {
	return &Fetcher{caller: caller, factory: factory, feeBps: feeBps}
}

// FetchPairData returns the pair for a and b with its current reserves.
// A pair the factory does not know yields ErrNullRoute.
func (f *Fetcher) FetchPairData(ctx context.Context, a, b Token) (*Pair, error) {
	if _, err := a.SortsBefore(b); err != nil {
		return nil, err
	}
	if f.caller == nil {
		return nil, errors.New("contract caller is nil")
	}
	out, err := call(ctx, f.caller, contracts.FactoryABI, f.factory, "getPair", a.Address, b.Address)
	if err != nil {
		return nil, fmt.Errorf("getPair: %w", err)
	}
	pairAddr, ok := out[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("getPair: unexpected output %T", out[0])
	}
	if pairAddr == (common.Address{}) {
		return nil, ErrNullRoute
	}
	out, err = call(ctx, f.caller, contracts.PairABI, pairAddr, "getReserves")
	if err != nil {
		return nil, fmt.Errorf("getReserves: %w", err)
	}
	reserve0, ok0 := out[0].(*big.Int)
	reserve1, ok1 := out[1].(*big.Int)
	if !ok0 || !ok1 {
		return nil, fmt.Errorf("getReserves: unexpected output %T/%T", out[0], out[1])
	}
	token0, token1 := a, b
	if before, _ := a.SortsBefore(b); !before {
		token0, token1 = b, a
	}
	return NewPair(pairAddr, NewTokenAmount(token0, reserve0), NewTokenAmount(token1, reserve1), f.feeBps)
}

// ResolveFactory reads factory() from a router.
func ResolveFactory(ctx context.Context, caller ethereum.ContractCaller, router common.Address) (common.Address, error) {
	out, err := call(ctx, caller, contracts.RouterABI, router, "factory")
	if err != nil {
		return common.Address{}, fmt.Errorf("factory: %w", err)
	}
	addr, ok := out[0].(common.Address)
	if !ok || addr == (common.Address{}) {
		return common.Address{}, errors.New("router returned no factory")
	}
	return addr, nil
}

func call(ctx context.Context, caller ethereum.ContractCaller, parsed abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	res, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	out, err := parsed.Unpack(method, res)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty output", method)
	}
	return out, nil
}
