package txbuilder

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"swaphelper/internal/contracts"
)

func BuildBalanceOfCallData(owner common.Address) ([]byte, error) {
	return contracts.ERC20ABI.Pack("balanceOf", owner)
}

func BuildAllowanceCallData(owner, spender common.Address) ([]byte, error) {
	return contracts.ERC20ABI.Pack("allowance", owner, spender)
}

func BuildApproveCallData(spender common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil {
		return nil, errors.New("amount is required")
	}
	if amount.Sign() < 0 {
		return nil, errors.New("amount must be non-negative")
	}
	return contracts.ERC20ABI.Pack("approve", spender, amount)
}

func ReadERC20Balance(ctx context.Context, caller ethereum.ContractCaller, token common.Address, owner common.Address) (*big.Int, error) {
	data, err := BuildBalanceOfCallData(owner)
	if err != nil {
		return nil, err
	}
	return readUint256(ctx, caller, token, "balanceOf", data)
}

func ReadERC20Allowance(ctx context.Context, caller ethereum.ContractCaller, token, owner, spender common.Address) (*big.Int, error) {
	data, err := BuildAllowanceCallData(owner, spender)
	if err != nil {
		return nil, err
	}
	return readUint256(ctx, caller, token, "allowance", data)
}

func ReadERC20Decimals(ctx context.Context, caller ethereum.ContractCaller, token common.Address) (uint8, error) {
	if caller == nil {
		return 0, errors.New("contract caller is nil")
	}
	data, err := contracts.ERC20ABI.Pack("decimals")
	if err != nil {
		return 0, err
	}
	out, err := caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, err
	}
	vals, err := contracts.ERC20ABI.Unpack("decimals", out)
	if err != nil {
		return 0, err
	}
	d, ok := vals[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected output %T", vals[0])
	}
	return d, nil
}

func readUint256(ctx context.Context, caller ethereum.ContractCaller, token common.Address, method string, data []byte) (*big.Int, error) {
	if caller == nil {
		return nil, errors.New("contract caller is nil")
	}
	out, err := caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	vals, err := contracts.ERC20ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	v, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output %T", method, vals[0])
	}
	return v, nil
}

func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, errors.New("amount is empty")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, errors.New("amount must be non-negative")
	}
	parts := strings.SplitN(amount, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > int(decimals) {
		return nil, fmt.Errorf("too many decimal places: %d > %d", len(fracPart), decimals)
	}
	fracPart = fracPart + strings.Repeat("0", int(decimals)-len(fracPart))
	combined := intPart + fracPart
	combined = strings.TrimLeft(combined, "0")
	if combined == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, errors.New("invalid number format")
	}
	return v, nil
}

// FormatUnits renders a base-unit amount in whole tokens.
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}
