package amm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"swaphelper/internal/chaintest"
)

var (
	tokenA = NewToken(56, common.HexToAddress("0x1000000000000000000000000000000000000001"), 18)
	tokenB = NewToken(56, common.HexToAddress("0x2000000000000000000000000000000000000002"), 18)
	tokenC = NewToken(56, common.HexToAddress("0x3000000000000000000000000000000000000003"), 6)
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func mustPair(t *testing.T, a, b Token, ra, rb *big.Int, fee uint32) *Pair {
	t.Helper()
	p, err := NewPair(common.Address{}, NewTokenAmount(a, ra), NewTokenAmount(b, rb), fee)
	if err != nil {
		t.Fatalf("NewPair error: %v", err)
	}
	return p
}

func TestSortsBeforeSameAddress(t *testing.T) {
	_, err := tokenA.SortsBefore(tokenA)
	if !errors.Is(err, ErrInvariantAddresses) {
		t.Fatalf("expected invariant error, got %v", err)
	}
	if err.Error() != "Invariant failed: ADDRESSES" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestNewPairSortsTokens(t *testing.T) {
	p := mustPair(t, tokenB, tokenA, big.NewInt(200), big.NewInt(100), 25)
	if !p.Token0.Equals(tokenA) || p.Reserve0.Int64() != 100 {
		t.Fatalf("pair not sorted: token0=%s reserve0=%s", p.Token0.Address.Hex(), p.Reserve0)
	}
	if p.Reserve1.Int64() != 200 {
		t.Fatalf("unexpected reserve1: %s", p.Reserve1)
	}
}

func TestGetOutputAmount(t *testing.T) {
	p := mustPair(t, tokenA, tokenB, big.NewInt(1000), big.NewInt(1000), 30)
	out, err := p.GetOutputAmount(NewTokenAmount(tokenA, big.NewInt(100)))
	if err != nil {
		t.Fatalf("GetOutputAmount error: %v", err)
	}
	// 100*9970*1000 / (1000*10000 + 100*9970) = 90.66 -> 90
	if out.Raw.Int64() != 90 || !out.Token.Equals(tokenB) {
		t.Fatalf("unexpected output: %s", out.Raw)
	}
}

func TestGetInputAmountRoundsUp(t *testing.T) {
	p := mustPair(t, tokenA, tokenB, big.NewInt(1000), big.NewInt(1000), 30)
	in, err := p.GetInputAmount(NewTokenAmount(tokenB, big.NewInt(90)))
	if err != nil {
		t.Fatalf("GetInputAmount error: %v", err)
	}
	// 1000*90*10000 / (910*9970) = 99.19 -> 99 + 1
	if in.Raw.Int64() != 100 || !in.Token.Equals(tokenA) {
		t.Fatalf("unexpected input: %s", in.Raw)
	}
	if _, err := p.GetInputAmount(NewTokenAmount(tokenB, big.NewInt(1000))); !errors.Is(err, ErrInsufficientReserves) {
		t.Fatalf("expected insufficient reserves, got %v", err)
	}
}

func TestEmptyReserves(t *testing.T) {
	p := mustPair(t, tokenA, tokenB, big.NewInt(0), big.NewInt(1000), 25)
	if _, err := p.GetOutputAmount(NewTokenAmount(tokenA, big.NewInt(1))); !errors.Is(err, ErrInsufficientReserves) {
		t.Fatalf("expected insufficient reserves, got %v", err)
	}
}

func TestRouteAndMultiHopTrade(t *testing.T) {
	ab := mustPair(t, tokenA, tokenB, ether(100), ether(200), 25)
	bc := mustPair(t, tokenB, tokenC, ether(200), big.NewInt(400_000_000), 25)
	route, err := NewRoute([]*Pair{ab, bc}, tokenA)
	if err != nil {
		t.Fatalf("NewRoute error: %v", err)
	}
	if !route.Output.Equals(tokenC) || len(route.Path) != 3 {
		t.Fatalf("unexpected route: output=%s path=%d", route.Output.Address.Hex(), len(route.Path))
	}
	trade, err := NewTrade(route, NewTokenAmount(tokenA, ether(1)), ExactInput)
	if err != nil {
		t.Fatalf("NewTrade error: %v", err)
	}
	if trade.OutputAmount.Raw.Sign() <= 0 || !trade.OutputAmount.Token.Equals(tokenC) {
		t.Fatalf("unexpected output: %s", trade.OutputAmount.Raw)
	}
	if _, err := NewRoute(nil, tokenA); !errors.Is(err, ErrNullRoute) {
		t.Fatalf("expected null route, got %v", err)
	}
	if _, err := NewRoute([]*Pair{bc}, tokenA); !errors.Is(err, ErrTokenNotInPair) {
		t.Fatalf("expected token not in pair, got %v", err)
	}
}

func TestSlippageBounds(t *testing.T) {
	p := mustPair(t, tokenA, tokenB, ether(100), ether(100), 25)
	route, err := NewRoute([]*Pair{p}, tokenA)
	if err != nil {
		t.Fatalf("NewRoute error: %v", err)
	}
	trade, err := NewTrade(route, NewTokenAmount(tokenA, ether(1)), ExactInput)
	if err != nil {
		t.Fatalf("NewTrade error: %v", err)
	}
	prevMin := new(big.Int).Set(trade.OutputAmount.Raw)
	prevMax := new(big.Int).Set(trade.InputAmount.Raw)
	for s := int64(0); s <= 50; s += 5 {
		minOut, err := trade.MinimumAmountOut(NewPercent(s, 100))
		if err != nil {
			t.Fatalf("MinimumAmountOut error: %v", err)
		}
		maxIn, err := trade.MaximumAmountIn(NewPercent(s, 100))
		if err != nil {
			t.Fatalf("MaximumAmountIn error: %v", err)
		}
		if minOut.Cmp(prevMin) > 0 {
			t.Fatalf("slippage %d: minOut %s increased over %s", s, minOut, prevMin)
		}
		if maxIn.Cmp(prevMax) < 0 {
			t.Fatalf("slippage %d: maxIn %s decreased below %s", s, maxIn, prevMax)
		}
		prevMin, prevMax = minOut, maxIn
	}

	exactOut, err := NewTrade(route, NewTokenAmount(tokenB, ether(1)), ExactOutput)
	if err != nil {
		t.Fatalf("NewTrade exact output error: %v", err)
	}
	lo, _ := exactOut.MaximumAmountIn(NewPercent(1, 100))
	hi, _ := exactOut.MaximumAmountIn(NewPercent(10, 100))
	if hi.Cmp(lo) <= 0 || lo.Cmp(exactOut.InputAmount.Raw) < 0 {
		t.Fatalf("exact output maxIn not increasing: %s %s", lo, hi)
	}
	if _, err := trade.MinimumAmountOut(NewPercent(-1, 100)); err == nil {
		t.Fatalf("expected negative slippage error")
	}
}

func TestFetchPairData(t *testing.T) {
	factory := common.HexToAddress("0xfac0000000000000000000000000000000000000")
	chain := chaintest.New(common.HexToAddress("0xabc0000000000000000000000000000000000000"), factory, common.Address{})
	pairAddr := chain.AddPair(tokenB.Address, tokenA.Address, big.NewInt(500), big.NewInt(300))

	f := NewFetcher(chain, factory, 25)
	p, err := f.FetchPairData(context.Background(), tokenB, tokenA)
	if err != nil {
		t.Fatalf("FetchPairData error: %v", err)
	}
	if p.Address != pairAddr {
		t.Fatalf("unexpected pair address: %s", p.Address.Hex())
	}
	ra, _ := p.ReserveOf(tokenA)
	rb, _ := p.ReserveOf(tokenB)
	if ra.Int64() != 300 || rb.Int64() != 500 {
		t.Fatalf("unexpected reserves: a=%s b=%s", ra, rb)
	}

	if _, err := f.FetchPairData(context.Background(), tokenA, tokenC); !errors.Is(err, ErrNullRoute) {
		t.Fatalf("expected null route, got %v", err)
	}
	if _, err := f.FetchPairData(context.Background(), tokenA, tokenA); !errors.Is(err, ErrInvariantAddresses) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestResolveFactory(t *testing.T) {
	router := common.HexToAddress("0xabc0000000000000000000000000000000000000")
	factory := common.HexToAddress("0xfac0000000000000000000000000000000000000")
	chain := chaintest.New(router, factory, common.Address{})
	got, err := ResolveFactory(context.Background(), chain, router)
	if err != nil {
		t.Fatalf("ResolveFactory error: %v", err)
	}
	if got != factory {
		t.Fatalf("unexpected factory: %s", got.Hex())
	}
}

func TestIsRouteError(t *testing.T) {
	if !IsRouteError(ErrNullRoute) || !IsRouteError(ErrInsufficientReserves) {
		t.Fatalf("route errors not recognised")
	}
	if IsRouteError(errors.New("dial tcp: connection refused")) {
		t.Fatalf("transport error treated as route error")
	}
}
