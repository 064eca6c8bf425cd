package amm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const feeDenominator = 10000

var bigFeeDen = big.NewInt(feeDenominator)

// Pair is a liquidity pool snapshot. Token0 sorts before Token1.
type Pair struct {
	Address  common.Address
	Token0   Token
	Token1   Token
	Reserve0 *big.Int
	Reserve1 *big.Int
	// FeeBps is the swap fee in basis points (25 on PancakeSwap v2, 30 on Uniswap v2).
	FeeBps uint32
}

func NewPair(address common.Address, a, b TokenAmount, feeBps uint32) (*Pair, error) {
	before, err := a.Token.SortsBefore(b.Token)
	if err != nil {
		return nil, err
	}
	if !before {
		a, b = b, a
	}
	return &Pair{
		Address:  address,
		Token0:   a.Token,
		Token1:   b.Token,
		Reserve0: new(big.Int).Set(a.Raw),
		Reserve1: new(big.Int).Set(b.Raw),
		FeeBps:   feeBps,
	}, nil
}

func (p *Pair) Involves(t Token) bool {
	return t.Equals(p.Token0) || t.Equals(p.Token1)
}

func (p *Pair) ReserveOf(t Token) (*big.Int, error) {
	switch {
	case t.Equals(p.Token0):
		return p.Reserve0, nil
	case t.Equals(p.Token1):
		return p.Reserve1, nil
	}
	return nil, ErrTokenNotInPair
}

func (p *Pair) other(t Token) Token {
	if t.Equals(p.Token0) {
		return p.Token1
	}
	return p.Token0
}

// GetOutputAmount applies the constant-product formula with fee to an
// exact input.
func (p *Pair) GetOutputAmount(in TokenAmount) (TokenAmount, error) {
	reserveIn, err := p.ReserveOf(in.Token)
	if err != nil {
		return TokenAmount{}, err
	}
	outToken := p.other(in.Token)
	reserveOut, _ := p.ReserveOf(outToken)
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return TokenAmount{}, ErrInsufficientReserves
	}
	inWithFee := new(big.Int).Mul(in.Raw, p.feeMultiplier())
	num := new(big.Int).Mul(inWithFee, reserveOut)
	den := new(big.Int).Mul(reserveIn, bigFeeDen)
	den.Add(den, inWithFee)
	out := num.Quo(num, den)
	if out.Sign() == 0 {
		return TokenAmount{}, ErrInsufficientInputAmount
	}
	return TokenAmount{Token: outToken, Raw: out}, nil
}

// GetInputAmount is the inverse of GetOutputAmount, rounded up.
func (p *Pair) GetInputAmount(out TokenAmount) (TokenAmount, error) {
	reserveOut, err := p.ReserveOf(out.Token)
	if err != nil {
		return TokenAmount{}, err
	}
	inToken := p.other(out.Token)
	reserveIn, _ := p.ReserveOf(inToken)
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 || out.Raw.Cmp(reserveOut) >= 0 {
		return TokenAmount{}, ErrInsufficientReserves
	}
	num := new(big.Int).Mul(reserveIn, out.Raw)
	num.Mul(num, bigFeeDen)
	den := new(big.Int).Sub(reserveOut, out.Raw)
	den.Mul(den, p.feeMultiplier())
	in := num.Quo(num, den)
	in.Add(in, big.NewInt(1))
	return TokenAmount{Token: inToken, Raw: in}, nil
}

func (p *Pair) feeMultiplier() *big.Int {
	return big.NewInt(int64(feeDenominator - p.FeeBps))
}
