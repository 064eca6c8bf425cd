// Package decoder turns router and ERC20 calldata back into a method name
// and named arguments.
package decoder

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"swaphelper/internal/contracts"
)

var ErrUnknownMethod = errors.New("unknown method selector")

type DecodedMethod struct {
	Contract string                 `json:"contract"`
	Name     string                 `json:"name"`
	Selector string                 `json:"selector"`
	Args     map[string]interface{} `json:"args"`
}

type namedABI struct {
	name string
	abi  abi.ABI
}

type Decoder struct {
	abis         []namedABI
	methodFilter map[string]struct{}
}

// New returns a decoder for router and ERC20 calls. A non-empty filter
// restricts decoding to the listed method names.
func New(filter ...string) *Decoder {
	d := &Decoder{
		abis: []namedABI{
			{name: "router", abi: contracts.RouterABI},
			{name: "erc20", abi: contracts.ERC20ABI},
		},
		methodFilter: map[string]struct{}{},
	}
	for _, name := range filter {
		if name = strings.TrimSpace(name); name != "" {
			d.methodFilter[name] = struct{}{}
		}
	}
	return d
}

func (d *Decoder) DecodeHex(data string) (*DecodedMethod, error) {
	b, err := hexutil.Decode(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("decode calldata: %w", err)
	}
	return d.DecodeInput(b)
}

func (d *Decoder) DecodeInput(data []byte) (*DecodedMethod, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("calldata too short: %d bytes", len(data))
	}
	for _, c := range d.abis {
		method, err := c.abi.MethodById(data[:4])
		if err != nil {
			continue
		}
		if len(d.methodFilter) > 0 {
			if _, ok := d.methodFilter[method.Name]; !ok {
				return nil, fmt.Errorf("method %s filtered", method.Name)
			}
		}
		args := map[string]interface{}{}
		if err := method.Inputs.UnpackIntoMap(args, data[4:]); err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method.Name, err)
		}
		return &DecodedMethod{
			Contract: c.name,
			Name:     method.Name,
			Selector: "0x" + hex.EncodeToString(data[:4]),
			Args:     normalizeMap(args),
		}, nil
	}
	return nil, fmt.Errorf("%w 0x%s", ErrUnknownMethod, hex.EncodeToString(data[:4]))
}

func normalizeMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case common.Address:
		return t.Hex()
	case *big.Int:
		if t == nil {
			return "0"
		}
		return t.String()
	case []byte:
		return "0x" + hex.EncodeToString(t)
	case []common.Address:
		out := make([]string, 0, len(t))
		for _, a := range t {
			out = append(out, a.Hex())
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(t))
		for _, v := range t {
			out = append(out, normalizeValue(v))
		}
		return out
	default:
		return t
	}
}
