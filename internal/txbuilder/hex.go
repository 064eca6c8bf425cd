package txbuilder

import (
	"errors"
	"math/big"
	"strings"
)

func decodeHexBig(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("hex value is empty")
	}
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		value = value[2:]
	}
	if strings.ContainsAny(value, "+-") {
		return nil, errors.New("invalid hex number")
	}
	value = strings.TrimLeft(value, "0")
	if value == "" {
		return big.NewInt(0), nil
	}
	if len(value)%2 == 1 {
		value = "0" + value
	}
	v, ok := new(big.Int).SetString(value, 16)
	if !ok {
		return nil, errors.New("invalid hex number")
	}
	return v, nil
}

// ParseBaseUnits parses an integer quantity in the token's smallest unit,
// given in decimal or 0x-prefixed hex.
func ParseBaseUnits(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("value is empty")
	}
	var v *big.Int
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		var err error
		if v, err = decodeHexBig(value); err != nil {
			return nil, err
		}
	} else {
		var ok bool
		if v, ok = new(big.Int).SetString(value, 10); !ok {
			return nil, errors.New("invalid integer")
		}
	}
	if v.Sign() < 0 {
		return nil, errors.New("value must be non-negative")
	}
	return v, nil
}
