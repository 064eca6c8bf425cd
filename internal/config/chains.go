package config

import "strings"

const (
	ChainEthereum uint64 = 1
	ChainBSC      uint64 = 56
	ChainBase     uint64 = 8453
)

// NativeSentinel stands in for the chain's native coin wherever a token
// address is expected.
const NativeSentinel = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

type preset struct {
	Name          string
	ChainID       uint64
	RPC           string
	Router        string
	WrappedNative string
	FeeBps        uint32
	TokenList     string
}

var presets = map[uint64]preset{
	ChainBSC: {
		Name:          "bsc",
		ChainID:       ChainBSC,
		RPC:           "https://bsc-dataseed.binance.org/",
		Router:        "0x10ED43C718714eb63d5aA57B78B54704E256024E",
		WrappedNative: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c",
		FeeBps:        25,
		TokenList:     "https://tokens.pancakeswap.finance/pancakeswap-extended.json",
	},
	ChainEthereum: {
		Name:          "ethereum",
		ChainID:       ChainEthereum,
		Router:        "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
		WrappedNative: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		FeeBps:        30,
	},
	// No canonical v2 router; router_address must be configured.
	ChainBase: {
		Name:          "base",
		ChainID:       ChainBase,
		WrappedNative: "0x4200000000000000000000000000000000000006",
		FeeBps:        30,
	},
}

func presetByName(name string) (preset, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return preset{}, false
	}
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return preset{}, false
}
