// Package chaintest provides an in-memory chain that answers the router,
// factory, pair and ERC20 calls the swap helpers make.
package chaintest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"swaphelper/internal/contracts"
)

type pairState struct {
	token0, token1     common.Address
	reserve0, reserve1 *big.Int
}

type Chain struct {
	Router  common.Address
	Factory common.Address
	WETH    common.Address

	mu          sync.Mutex
	pairs       map[common.Address]pairState
	pairByKey   map[[2]common.Address]common.Address
	native      map[common.Address]*big.Int
	balances    map[common.Address]map[common.Address]*big.Int
	allowances  map[common.Address]map[[2]common.Address]*big.Int
	gasPrice    *big.Int
	gasEstimate uint64

	// EstimateErr, CallErr and BalanceErr force the matching method to fail.
	EstimateErr error
	CallErr     error
	BalanceErr  error

	Calls     []ethereum.CallMsg
	Estimates []ethereum.CallMsg
}

func New(router, factory, weth common.Address) *Chain {
	return &Chain{
		Router:      router,
		Factory:     factory,
		WETH:        weth,
		pairs:       map[common.Address]pairState{},
		pairByKey:   map[[2]common.Address]common.Address{},
		native:      map[common.Address]*big.Int{},
		balances:    map[common.Address]map[common.Address]*big.Int{},
		allowances:  map[common.Address]map[[2]common.Address]*big.Int{},
		gasPrice:    big.NewInt(5_000_000_000),
		gasEstimate: 150000,
	}
}

func sortAddrs(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}

// AddPair registers a pool and returns its address.
func (c *Chain) AddPair(tokenA, tokenB common.Address, reserveA, reserveB *big.Int) common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	t0, t1 := sortAddrs(tokenA, tokenB)
	r0, r1 := reserveA, reserveB
	if t0 != tokenA {
		r0, r1 = reserveB, reserveA
	}
	addr := common.BytesToAddress(crypto.Keccak256(t0.Bytes(), t1.Bytes()))
	c.pairs[addr] = pairState{token0: t0, token1: t1, reserve0: new(big.Int).Set(r0), reserve1: new(big.Int).Set(r1)}
	c.pairByKey[[2]common.Address{t0, t1}] = addr
	return addr
}

func (c *Chain) SetNativeBalance(owner common.Address, v *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.native[owner] = new(big.Int).Set(v)
}

func (c *Chain) SetTokenBalance(token, owner common.Address, v *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balances[token] == nil {
		c.balances[token] = map[common.Address]*big.Int{}
	}
	c.balances[token][owner] = new(big.Int).Set(v)
}

func (c *Chain) SetAllowance(token, owner, spender common.Address, v *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.allowances[token] == nil {
		c.allowances[token] = map[[2]common.Address]*big.Int{}
	}
	c.allowances[token][[2]common.Address{owner, spender}] = new(big.Int).Set(v)
}

func (c *Chain) SetGasPrice(v *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gasPrice = new(big.Int).Set(v)
}

func (c *Chain) SetGasEstimate(v uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gasEstimate = v
}

// EstimateCount returns how many EstimateGas calls were made.
func (c *Chain) EstimateCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Estimates)
}

// CallCount returns how many eth_call requests targeted to.
func (c *Chain) CallCount(to common.Address) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, msg := range c.Calls {
		if msg.To != nil && *msg.To == to {
			n++
		}
	}
	return n
}

func (c *Chain) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BalanceErr != nil {
		return nil, c.BalanceErr
	}
	if v, ok := c.native[account]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (c *Chain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.gasPrice), nil
}

func (c *Chain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Estimates = append(c.Estimates, msg)
	if c.EstimateErr != nil {
		return 0, c.EstimateErr
	}
	return c.gasEstimate, nil
}

func (c *Chain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, msg)
	if c.CallErr != nil {
		return nil, c.CallErr
	}
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("invalid call")
	}
	to := *msg.To
	switch {
	case to == c.Router:
		return c.callRouter(msg.Data)
	case to == c.Factory:
		return c.callFactory(msg.Data)
	}
	if p, ok := c.pairs[to]; ok {
		return c.callPair(p, msg.Data)
	}
	return c.callERC20(to, msg.Data)
}

func (c *Chain) callRouter(data []byte) ([]byte, error) {
	m, _, err := unpack(contracts.RouterABI, data)
	if err != nil {
		return nil, err
	}
	switch m.Name {
	case "factory":
		return m.Outputs.Pack(c.Factory)
	case "WETH":
		return m.Outputs.Pack(c.WETH)
	}
	return nil, fmt.Errorf("router method %s not supported", m.Name)
}

func (c *Chain) callFactory(data []byte) ([]byte, error) {
	m, args, err := unpack(contracts.FactoryABI, data)
	if err != nil {
		return nil, err
	}
	if m.Name != "getPair" {
		return nil, fmt.Errorf("factory method %s not supported", m.Name)
	}
	t0, t1 := sortAddrs(args[0].(common.Address), args[1].(common.Address))
	return m.Outputs.Pack(c.pairByKey[[2]common.Address{t0, t1}])
}

func (c *Chain) callPair(p pairState, data []byte) ([]byte, error) {
	m, _, err := unpack(contracts.PairABI, data)
	if err != nil {
		return nil, err
	}
	switch m.Name {
	case "getReserves":
		return m.Outputs.Pack(p.reserve0, p.reserve1, uint32(0))
	case "token0":
		return m.Outputs.Pack(p.token0)
	}
	return nil, fmt.Errorf("pair method %s not supported", m.Name)
}

func (c *Chain) callERC20(token common.Address, data []byte) ([]byte, error) {
	m, args, err := unpack(contracts.ERC20ABI, data)
	if err != nil {
		return nil, err
	}
	switch m.Name {
	case "balanceOf":
		v := c.balances[token][args[0].(common.Address)]
		if v == nil {
			v = big.NewInt(0)
		}
		return m.Outputs.Pack(v)
	case "allowance":
		v := c.allowances[token][[2]common.Address{args[0].(common.Address), args[1].(common.Address)}]
		if v == nil {
			v = big.NewInt(0)
		}
		return m.Outputs.Pack(v)
	case "decimals":
		return m.Outputs.Pack(uint8(18))
	}
	return nil, fmt.Errorf("erc20 method %s not supported", m.Name)
}

func unpack(parsed abi.ABI, data []byte) (*abi.Method, []interface{}, error) {
	m, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return m, args, nil
}
