package contracts

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func TestSelectors(t *testing.T) {
	cases := []struct {
		abi    abi.ABI
		method string
		want   string
	}{
		{RouterABI, MethodSwapExactETHForTokens, "0x7ff36ab5"},
		{RouterABI, MethodSwapTokensForExactETH, "0x4a25d94a"},
		{RouterABI, MethodSwapTokensForExactTokens, "0x8803dbee"},
		{ERC20ABI, "balanceOf", "0x70a08231"},
		{ERC20ABI, "allowance", "0xdd62ed3e"},
		{ERC20ABI, "approve", "0x095ea7b3"},
		{ERC20ABI, "decimals", "0x313ce567"},
	}
	for _, c := range cases {
		m, ok := c.abi.Methods[c.method]
		if !ok {
			t.Fatalf("method %s missing", c.method)
		}
		if got := hexutil.Encode(m.ID); got != c.want {
			t.Fatalf("%s selector: expected=%s actual=%s", c.method, c.want, got)
		}
	}
}
