package txbuilder

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"swaphelper/internal/apperr"
	"swaphelper/internal/chaintest"
	"swaphelper/internal/config"
	"swaphelper/internal/contracts"
)

var (
	testRouter  = common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")
	testFactory = common.HexToAddress("0xcA143Ce32Fe78f1f7019d7d551a6402fC5350c73")
	testWBNB    = common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	testToken   = common.HexToAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82")
	testToken2  = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
	testWallet  = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func newTestBuilder(t *testing.T) (*Builder, *chaintest.Chain) {
	t.Helper()
	chain := chaintest.New(testRouter, testFactory, testWBNB)
	chain.AddPair(testWBNB, testToken, ether(1000), ether(2000))
	chain.AddPair(testToken, testToken2, ether(5000), ether(5000))
	now := func() time.Time { return time.Unix(1700000000, 0) }
	b := NewBuilderWithClock(chain, BuilderConfig{
		ChainID:       56,
		Router:        testRouter,
		Factory:       testFactory,
		WrappedNative: testWBNB,
		FeeBps:        25,
	}, nil, now)
	return b, chain
}

func unpackSwap(t *testing.T, method string, data []byte) []interface{} {
	t.Helper()
	m := contracts.RouterABI.Methods[method]
	if hexutil.Encode(data[:4]) != hexutil.Encode(m.ID) {
		t.Fatalf("unexpected selector %s, want %s", hexutil.Encode(data[:4]), hexutil.Encode(m.ID))
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("unpack %s: %v", method, err)
	}
	return args
}

func TestBuildNativeToToken(t *testing.T) {
	b, _ := newTestBuilder(t)
	res, err := b.Build(context.Background(), SwapParams{
		Wallet:       testWallet,
		From:         "ETH",
		To:           testToken.Hex(),
		FromDecimals: 18,
		ToDecimals:   18,
		FromQuantity: ether(1),
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	tx := res.Transaction
	if tx.To != testRouter {
		t.Fatalf("unexpected to: %s", tx.To.Hex())
	}
	if tx.Value.String() != "1000000000000000000" {
		t.Fatalf("unexpected value: %s", tx.Value)
	}
	if !strings.HasPrefix(hexutil.Encode(tx.Data), "0x7ff36ab5") {
		t.Fatalf("unexpected calldata: %s", hexutil.Encode(tx.Data))
	}
	if res.Mode != ModeFromIsNative {
		t.Fatalf("unexpected mode: %s", res.Mode)
	}
	args := unpackSwap(t, contracts.MethodSwapExactETHForTokens, tx.Data)
	if args[0].(*big.Int).Cmp(res.OutputAmount) != 0 {
		t.Fatalf("amountOutMin %s != output %s", args[0], res.OutputAmount)
	}
	path := args[1].([]common.Address)
	if len(path) != 2 || path[0] != testWBNB || path[1] != testToken {
		t.Fatalf("unexpected path: %v", path)
	}
	if args[2].(common.Address) != testWallet {
		t.Fatalf("unexpected recipient: %v", args[2])
	}
	if args[3].(*big.Int).Uint64() != 1700001200 || res.Deadline != 1700001200 {
		t.Fatalf("unexpected deadline: %v", args[3])
	}
	// default 1% slippage: out*100/101
	want := new(big.Int).Mul(res.Quote.ExpectedOut, big.NewInt(100))
	want.Quo(want, big.NewInt(101))
	if res.OutputAmount.Cmp(want) != 0 {
		t.Fatalf("unexpected min out: %s want %s", res.OutputAmount, want)
	}
}

func TestBuildTokenToNative(t *testing.T) {
	b, _ := newTestBuilder(t)
	res, err := b.Build(context.Background(), SwapParams{
		Wallet:       testWallet,
		From:         testToken.Hex(),
		To:           config.NativeSentinel,
		FromDecimals: 18,
		ToDecimals:   18,
		FromQuantity: ether(3),
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if res.Transaction.Value.Sign() != 0 {
		t.Fatalf("expected zero value, got %s", res.Transaction.Value)
	}
	args := unpackSwap(t, contracts.MethodSwapTokensForExactETH, res.Transaction.Data)
	if args[0].(*big.Int).Cmp(res.OutputAmount) != 0 {
		t.Fatalf("amountOut %s != output %s", args[0], res.OutputAmount)
	}
	if args[1].(*big.Int).Cmp(ether(3)) != 0 {
		t.Fatalf("amountInMax %s != input", args[1])
	}
	path := args[2].([]common.Address)
	if path[0] != testToken || path[1] != testWBNB {
		t.Fatalf("unexpected path: %v", path)
	}
}

func TestBuildTokenToToken(t *testing.T) {
	b, _ := newTestBuilder(t)
	slippage := uint32(5)
	res, err := b.Build(context.Background(), SwapParams{
		Wallet:          testWallet,
		From:            testToken.Hex(),
		To:              strings.ToLower(testToken2.Hex()),
		FromDecimals:    18,
		ToDecimals:      18,
		FromQuantity:    ether(10),
		SlippagePercent: &slippage,
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if res.Mode != ModeTokenToToken || res.Transaction.Value.Sign() != 0 {
		t.Fatalf("unexpected mode/value: %s %s", res.Mode, res.Transaction.Value)
	}
	unpackSwap(t, contracts.MethodSwapTokensForExactTokens, res.Transaction.Data)
	if res.Quote.SlippagePercent != 5 {
		t.Fatalf("unexpected slippage: %d", res.Quote.SlippagePercent)
	}
}

func TestBuildGasEstimation(t *testing.T) {
	b, chain := newTestBuilder(t)
	chain.SetGasEstimate(100000)
	res, err := b.Build(context.Background(), SwapParams{
		Wallet:       testWallet,
		From:         "eth",
		To:           testToken.Hex(),
		FromQuantity: ether(1),
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !res.GasEstimated || res.Transaction.Gas != 120000 {
		t.Fatalf("unexpected gas: %d estimated=%v", res.Transaction.Gas, res.GasEstimated)
	}
	if res.Transaction.GasPrice.Int64() != 5_000_000_000 {
		t.Fatalf("unexpected gas price: %s", res.Transaction.GasPrice)
	}

	chain.EstimateErr = errors.New("execution reverted: TransferHelper: TRANSFER_FROM_FAILED")
	res, err = b.Build(context.Background(), SwapParams{
		Wallet:       testWallet,
		From:         testToken.Hex(),
		To:           "eth",
		FromQuantity: ether(1),
	})
	if err != nil {
		t.Fatalf("Build with failing estimate error: %v", err)
	}
	if res.GasEstimated || res.Transaction.Gas != 21000000 {
		t.Fatalf("expected fallback gas, got %d", res.Transaction.Gas)
	}
}

func TestBuildWithoutWalletSkipsEstimate(t *testing.T) {
	b, chain := newTestBuilder(t)
	res, err := b.Build(context.Background(), SwapParams{
		From:         "eth",
		To:           testToken.Hex(),
		FromQuantity: ether(1),
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if chain.EstimateCount() != 0 || res.Transaction.Gas != 21000000 {
		t.Fatalf("expected fallback without estimate, gas=%d estimates=%d", res.Transaction.Gas, chain.EstimateCount())
	}
}

func TestBuildNoRoute(t *testing.T) {
	b, _ := newTestBuilder(t)
	cases := []SwapParams{
		{From: testToken2.Hex(), To: "eth", FromQuantity: ether(1)},
		{From: testToken.Hex(), To: testToken.Hex(), FromQuantity: ether(1)},
		{From: "eth", To: config.NativeSentinel, FromQuantity: ether(1)},
	}
	for i, p := range cases {
		_, err := b.Build(context.Background(), p)
		if apperr.KindOf(err) != apperr.KindNoRoute {
			t.Fatalf("case %d: expected no route, got %v", i, err)
		}
		if apperr.Translate(err).Message != apperr.MsgTokenPairNotSupported {
			t.Fatalf("case %d: unexpected message %q", i, apperr.Translate(err).Message)
		}
	}
}

func TestBuildResolvesFactoryFromRouter(t *testing.T) {
	chain := chaintest.New(testRouter, testFactory, testWBNB)
	chain.AddPair(testWBNB, testToken, ether(10), ether(10))
	b := NewBuilder(chain, BuilderConfig{ChainID: 56, Router: testRouter, WrappedNative: testWBNB, FeeBps: 25}, nil)
	if _, err := b.Build(context.Background(), SwapParams{From: "eth", To: testToken.Hex(), FromQuantity: big.NewInt(1000)}); err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if chain.CallCount(testRouter) != 1 {
		t.Fatalf("expected one factory() call, got %d", chain.CallCount(testRouter))
	}
}

func TestBuildInvalidInput(t *testing.T) {
	b, _ := newTestBuilder(t)
	if _, err := b.Build(context.Background(), SwapParams{From: "eth", To: testToken.Hex(), FromQuantity: big.NewInt(0)}); apperr.KindOf(err) != apperr.KindInvalidRequest {
		t.Fatalf("expected invalid request, got %v", err)
	}
	if _, err := b.Build(context.Background(), SwapParams{From: "eth", To: "not-a-token", FromQuantity: big.NewInt(1)}); apperr.KindOf(err) != apperr.KindInvalidRequest {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestBuildChainReadError(t *testing.T) {
	b, chain := newTestBuilder(t)
	chain.CallErr = errors.New("dial tcp: connection refused")
	_, err := b.Build(context.Background(), SwapParams{From: "eth", To: testToken.Hex(), FromQuantity: big.NewInt(1)})
	if apperr.KindOf(err) != apperr.KindChainRead {
		t.Fatalf("expected chain read error, got %v", err)
	}
}

func TestBuildApprove(t *testing.T) {
	b, chain := newTestBuilder(t)
	amount := big.NewInt(1000000)
	tx, err := b.BuildApprove(context.Background(), testWallet, testToken, amount)
	if err != nil {
		t.Fatalf("BuildApprove error: %v", err)
	}
	data := hexutil.Encode(tx.Data)
	expected := "0x095ea7b3" + hexAddress(testRouter) + hex32(amount)
	if data != expected {
		t.Fatalf("unexpected calldata\nexpected=%s\nactual=%s", expected, data)
	}
	if tx.To != testToken || tx.Value.Sign() != 0 || tx.Gas != 180000 {
		t.Fatalf("unexpected tx: to=%s value=%s gas=%d", tx.To.Hex(), tx.Value, tx.Gas)
	}

	chain.EstimateErr = errors.New("execution reverted")
	if _, err := b.BuildApprove(context.Background(), testWallet, testToken, amount); apperr.KindOf(err) != apperr.KindChainRead {
		t.Fatalf("expected chain read error, got %v", err)
	}
}

func TestRawTransactionJSON(t *testing.T) {
	tx := &RawTransaction{
		From:     testWallet,
		To:       testRouter,
		Data:     []byte{0x7f, 0xf3, 0x6a, 0xb5},
		Gas:      21000,
		GasPrice: big.NewInt(5_000_000_000),
		Value:    ether(1),
	}
	raw, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if got["data"] != "0x7ff36ab5" || got["value"] != "1000000000000000000" || got["gasPrice"] != "5000000000" {
		t.Fatalf("unexpected json: %s", raw)
	}
	if got["to"] != testRouter.Hex() {
		t.Fatalf("unexpected to: %v", got["to"])
	}
}

func TestResolveRoutingMode(t *testing.T) {
	cases := []struct {
		from, to string
		want     RoutingMode
	}{
		{"eth", testToken.Hex(), ModeFromIsNative},
		{"0xEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEE", testToken.Hex(), ModeFromIsNative},
		{testToken.Hex(), "Eth", ModeToIsNative},
		{"eth", "eth", ModeFromIsNative},
		{testToken.Hex(), testToken2.Hex(), ModeTokenToToken},
	}
	for _, c := range cases {
		if got := ResolveRoutingMode(c.from, c.to, ""); got != c.want {
			t.Fatalf("ResolveRoutingMode(%s, %s) = %s, want %s", c.from, c.to, got, c.want)
		}
	}
	if IsAddressNative("ether", "") {
		t.Fatalf("ether should not be native")
	}
}

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("1.23", 6)
	if err != nil {
		t.Fatalf("ParseUnits error: %v", err)
	}
	if v.String() != "1230000" {
		t.Fatalf("unexpected value: %s", v.String())
	}

	v, err = ParseUnits("0.000001", 6)
	if err != nil {
		t.Fatalf("ParseUnits error: %v", err)
	}
	if v.String() != "1" {
		t.Fatalf("unexpected value: %s", v.String())
	}
	if _, err := ParseUnits("0.0000001", 6); err == nil {
		t.Fatalf("expected precision error")
	}
}

func TestFormatUnits(t *testing.T) {
	if got := FormatUnits(big.NewInt(1230000), 6); got != "1.23" {
		t.Fatalf("unexpected value: %s", got)
	}
	if got := FormatUnits(ether(2), 18); got != "2" {
		t.Fatalf("unexpected value: %s", got)
	}
}

func TestParseBaseUnits(t *testing.T) {
	v, err := ParseBaseUnits("0x0de0b6b3a7640000")
	if err != nil || v.Cmp(ether(1)) != 0 {
		t.Fatalf("unexpected hex parse: %v %v", v, err)
	}
	v, err = ParseBaseUnits("1000000000000000000")
	if err != nil || v.Cmp(ether(1)) != 0 {
		t.Fatalf("unexpected decimal parse: %v %v", v, err)
	}
	if _, err := ParseBaseUnits("-1"); err == nil {
		t.Fatalf("expected negative error")
	}
	if _, err := ParseBaseUnits("1.5"); err == nil {
		t.Fatalf("expected integer error")
	}
	for _, in := range []string{"0x-1", "0X-0a", "0x+1"} {
		if v, err := ParseBaseUnits(in); err == nil {
			t.Fatalf("expected error for %q, got %v", in, v)
		}
	}
	v, err = ParseBaseUnits("0x0")
	if err != nil || v.Sign() != 0 {
		t.Fatalf("unexpected zero parse: %v %v", v, err)
	}
}

func hex32(v *big.Int) string {
	b := common.LeftPadBytes(v.Bytes(), 32)
	return hexutil.Encode(b)[2:]
}

func hexAddress(addr common.Address) string {
	b := common.LeftPadBytes(addr.Bytes(), 32)
	return hexutil.Encode(b)[2:]
}
