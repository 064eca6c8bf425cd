package txbuilder

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// EstimateGasError keeps the call that failed to estimate so it can be
// replayed with eth_call for a revert reason.
type EstimateGasError struct {
	Op      string
	Err     error
	CallMsg ethereum.CallMsg
}

func (e *EstimateGasError) Error() string {
	if e == nil || e.Err == nil {
		return "estimate gas failed"
	}
	if e.Op != "" {
		return "estimate gas for " + e.Op + " failed: " + e.Err.Error()
	}
	return "estimate gas failed: " + e.Err.Error()
}

func (e *EstimateGasError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (b *Builder) estimateGas(ctx context.Context, op string, from, to common.Address, value *big.Int, data []byte, gasPrice *big.Int) (uint64, error) {
	msg := ethereum.CallMsg{
		From:     from,
		To:       &to,
		GasPrice: gasPrice,
		Value:    value,
		Data:     data,
	}
	gas, err := b.client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, &EstimateGasError{Op: op, Err: err, CallMsg: msg}
	}
	return applyGasMultiplier(gas, b.cfg.GasLimitMultiplier), nil
}

// swapGas estimates the swap call. Estimation failures and an empty wallet
// fall back to the configured limit; only context errors abort.
func (b *Builder) swapGas(ctx context.Context, from common.Address, value *big.Int, data []byte, gasPrice *big.Int) (uint64, bool, error) {
	if from == (common.Address{}) {
		return b.cfg.FallbackGasLimit, false, nil
	}
	gas, err := b.estimateGas(ctx, "swap", from, b.cfg.Router, value, data, gasPrice)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, false, ctxErr
		}
		b.logger.Warn("swap gas estimation failed, using fallback",
			"from", from.Hex(),
			"fallback_gas", b.cfg.FallbackGasLimit,
			"error", err,
		)
		return b.cfg.FallbackGasLimit, false, nil
	}
	return gas, true, nil
}

func applyGasMultiplier(gas uint64, mult float64) uint64 {
	if mult <= 0 {
		return gas
	}
	adjusted := uint64(float64(gas) * mult)
	if adjusted < gas {
		return gas
	}
	return adjusted
}
