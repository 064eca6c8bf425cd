// Package apperr defines the error kinds surfaced by swap operations and the
// translation from those errors to stable outward messages.
package apperr

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Canonical outward messages. The first three are the messages pair
// discovery and quoting fail with; they are also accepted verbatim from
// untyped errors.
const (
	MsgNullRoute             = "Route cannot be null"
	MsgInvariantAddresses    = "Invariant failed: ADDRESSES"
	MsgQuoteOfNull           = "Cannot read property 'quote' of null"
	MsgTokenPairNotSupported = "Provided token pair is not supported"
	MsgInsufficientBalance   = "Insufficient balance."
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindInsufficientBalance
	KindNoRoute
	KindChainRead
	KindHTTP
	KindInvalidRequest
)

func (k Kind) String() string {
	switch k {
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindNoRoute:
		return "no_route"
	case KindChainRead:
		return "chain_read"
	case KindHTTP:
		return "http"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Error carries a kind plus whatever request context was known when the
// failure happened.
type Error struct {
	Kind Kind
	Op   string

	Token     string
	Wallet    string
	From      string
	To        string
	Required  *big.Int
	Available *big.Int

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Kind == KindInsufficientBalance:
		return MsgInsufficientBalance
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by kind so callers can write
// errors.Is(err, &apperr.Error{Kind: apperr.KindNoRoute}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Kind == e.Kind
}

// Detail renders the structured context for logs.
func (e *Error) Detail() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		fmt.Fprintf(&b, " op=%s", e.Op)
	}
	if e.Token != "" {
		fmt.Fprintf(&b, " token=%s", e.Token)
	}
	if e.Wallet != "" {
		fmt.Fprintf(&b, " wallet=%s", e.Wallet)
	}
	if e.From != "" {
		fmt.Fprintf(&b, " from=%s", e.From)
	}
	if e.To != "" {
		fmt.Fprintf(&b, " to=%s", e.To)
	}
	if e.Required != nil {
		fmt.Fprintf(&b, " required=%s", e.Required.String())
	}
	if e.Available != nil {
		fmt.Fprintf(&b, " available=%s", e.Available.String())
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func InsufficientBalance(op, token, wallet string, required, available *big.Int) *Error {
	return &Error{
		Kind:      KindInsufficientBalance,
		Op:        op,
		Token:     token,
		Wallet:    wallet,
		Required:  copyBig(required),
		Available: copyBig(available),
	}
}

func NoRoute(op, from, to string, err error) *Error {
	if err == nil {
		err = errors.New(MsgNullRoute)
	}
	return &Error{Kind: KindNoRoute, Op: op, From: from, To: to, Err: err}
}

func ChainRead(op string, err error) *Error {
	return &Error{Kind: KindChainRead, Op: op, Err: err}
}

func HTTP(op string, err error) *Error {
	return &Error{Kind: KindHTTP, Op: op, Err: err}
}

func InvalidRequest(op string, err error) *Error {
	return &Error{Kind: KindInvalidRequest, Op: op, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
