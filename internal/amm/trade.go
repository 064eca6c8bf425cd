package amm

import (
	"errors"
	"math/big"
)

type Route struct {
	Pairs  []*Pair
	Path   []Token
	Input  Token
	Output Token
}

func NewRoute(pairs []*Pair, input Token) (*Route, error) {
	if len(pairs) == 0 {
		return nil, ErrNullRoute
	}
	path := []Token{input}
	current := input
	for _, p := range pairs {
		if p == nil {
			return nil, ErrNullRoute
		}
		if p.Token0.ChainID != input.ChainID {
			return nil, ErrChainMismatch
		}
		if !p.Involves(current) {
			return nil, ErrTokenNotInPair
		}
		current = p.other(current)
		path = append(path, current)
	}
	return &Route{Pairs: pairs, Path: path, Input: input, Output: current}, nil
}

type TradeType uint8

const (
	ExactInput TradeType = iota
	ExactOutput
)

type Trade struct {
	Route        *Route
	Type         TradeType
	InputAmount  TokenAmount
	OutputAmount TokenAmount
}

// NewTrade quotes amount along route. For ExactInput amount is in the
// route's input token, for ExactOutput in its output token.
func NewTrade(route *Route, amount TokenAmount, tradeType TradeType) (*Trade, error) {
	if route == nil {
		return nil, ErrNullQuote
	}
	if amount.Raw == nil || amount.Raw.Sign() <= 0 {
		return nil, ErrInsufficientInputAmount
	}
	t := &Trade{Route: route, Type: tradeType}
	switch tradeType {
	case ExactInput:
		if !amount.Token.Equals(route.Input) {
			return nil, ErrTokenNotInPair
		}
		current := amount
		for _, p := range route.Pairs {
			next, err := p.GetOutputAmount(current)
			if err != nil {
				return nil, err
			}
			current = next
		}
		t.InputAmount = NewTokenAmount(amount.Token, amount.Raw)
		t.OutputAmount = current
	case ExactOutput:
		if !amount.Token.Equals(route.Output) {
			return nil, ErrTokenNotInPair
		}
		current := amount
		for i := len(route.Pairs) - 1; i >= 0; i-- {
			prev, err := route.Pairs[i].GetInputAmount(current)
			if err != nil {
				return nil, err
			}
			current = prev
		}
		t.InputAmount = current
		t.OutputAmount = NewTokenAmount(amount.Token, amount.Raw)
	default:
		return nil, errors.New("unknown trade type")
	}
	return t, nil
}

// MinimumAmountOut is the least output the trade accepts under slippage.
func (t *Trade) MinimumAmountOut(slippage Percent) (*big.Int, error) {
	if err := slippage.validate(); err != nil {
		return nil, err
	}
	if t.Type == ExactOutput {
		return new(big.Int).Set(t.OutputAmount.Raw), nil
	}
	// out / (1 + s)
	num := new(big.Int).Mul(t.OutputAmount.Raw, slippage.Den)
	den := new(big.Int).Add(slippage.Den, slippage.Num)
	return num.Quo(num, den), nil
}

// MaximumAmountIn is the most input the trade spends under slippage.
func (t *Trade) MaximumAmountIn(slippage Percent) (*big.Int, error) {
	if err := slippage.validate(); err != nil {
		return nil, err
	}
	if t.Type == ExactInput {
		return new(big.Int).Set(t.InputAmount.Raw), nil
	}
	// in * (1 + s)
	num := new(big.Int).Add(slippage.Den, slippage.Num)
	num.Mul(num, t.InputAmount.Raw)
	return num.Quo(num, slippage.Den), nil
}

type Percent struct {
	Num *big.Int
	Den *big.Int
}

func NewPercent(num, den int64) Percent {
	return Percent{Num: big.NewInt(num), Den: big.NewInt(den)}
}

func (p Percent) validate() error {
	if p.Num == nil || p.Den == nil || p.Den.Sign() <= 0 {
		return errors.New("invalid percent")
	}
	if p.Num.Sign() < 0 {
		return errors.New("slippage must be non-negative")
	}
	return nil
}
