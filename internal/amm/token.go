// Package amm models a Uniswap-v2 style constant-product exchange: tokens,
// pairs with reserves, single and multi-hop routes, exact-input and
// exact-output trades, and slippage bounds. Pair reserves are read on chain
// through a Fetcher.
package amm

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swaphelper/internal/apperr"
)

var (
	ErrInvariantAddresses      = errors.New(apperr.MsgInvariantAddresses)
	ErrNullRoute               = errors.New(apperr.MsgNullRoute)
	ErrNullQuote               = errors.New(apperr.MsgQuoteOfNull)
	ErrInsufficientReserves    = errors.New("insufficient reserves")
	ErrInsufficientInputAmount = errors.New("insufficient input amount")
	ErrTokenNotInPair          = errors.New("token not in pair")
	ErrChainMismatch           = errors.New("tokens are on different chains")
)

// IsRouteError reports whether err means the pair cannot be traded, as
// opposed to a failed chain read.
func IsRouteError(err error) bool {
	for _, target := range []error{
		ErrInvariantAddresses,
		ErrNullRoute,
		ErrNullQuote,
		ErrInsufficientReserves,
		ErrInsufficientInputAmount,
		ErrTokenNotInPair,
		ErrChainMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type Token struct {
	ChainID  uint64
	Address  common.Address
	Decimals uint8
}

func NewToken(chainID uint64, address common.Address, decimals uint8) Token {
	return Token{ChainID: chainID, Address: address, Decimals: decimals}
}

func (t Token) Equals(other Token) bool {
	return t.ChainID == other.ChainID && t.Address == other.Address
}

// SortsBefore orders tokens the way the factory orders token0/token1.
func (t Token) SortsBefore(other Token) (bool, error) {
	if t.ChainID != other.ChainID {
		return false, ErrChainMismatch
	}
	if t.Address == other.Address {
		return false, ErrInvariantAddresses
	}
	return bytes.Compare(t.Address.Bytes(), other.Address.Bytes()) < 0, nil
}

type TokenAmount struct {
	Token Token
	Raw   *big.Int
}

func NewTokenAmount(token Token, raw *big.Int) TokenAmount {
	if raw == nil {
		raw = new(big.Int)
	}
	return TokenAmount{Token: token, Raw: new(big.Int).Set(raw)}
}
