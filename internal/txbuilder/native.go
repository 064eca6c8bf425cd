package txbuilder

import (
	"strings"

	"swaphelper/internal/config"
)

// IsAddressNative reports whether address names the chain's native coin:
// the sentinel address or the literal "eth", both case-insensitive.
func IsAddressNative(address, sentinel string) bool {
	if sentinel == "" {
		sentinel = config.NativeSentinel
	}
	address = strings.TrimSpace(address)
	return strings.EqualFold(address, sentinel) || strings.EqualFold(address, "eth")
}

type RoutingMode uint8

const (
	ModeTokenToToken RoutingMode = iota
	ModeFromIsNative
	ModeToIsNative
)

func (m RoutingMode) String() string {
	switch m {
	case ModeFromIsNative:
		return "from_is_native"
	case ModeToIsNative:
		return "to_is_native"
	default:
		return "token_to_token"
	}
}

// ResolveRoutingMode checks from before to, so a native input wins even
// when the output also looks native.
func ResolveRoutingMode(from, to, sentinel string) RoutingMode {
	switch {
	case IsAddressNative(from, sentinel):
		return ModeFromIsNative
	case IsAddressNative(to, sentinel):
		return ModeToIsNative
	default:
		return ModeTokenToToken
	}
}
