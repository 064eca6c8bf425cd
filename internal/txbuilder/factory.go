package txbuilder

import (
	"log/slog"

	"swaphelper/internal/config"
)

func NewBuilderFromConfig(client ChainClient, cfg *config.Config, logger *slog.Logger) *Builder {
	factory, _ := cfg.Factory()
	return NewBuilder(client, BuilderConfig{
		ChainID:                cfg.ChainID,
		Router:                 cfg.Router(),
		Factory:                factory,
		WrappedNative:          cfg.WrappedNative(),
		NativeAddress:          cfg.NativeAddress,
		FeeBps:                 cfg.Swap.FeeBps,
		DefaultSlippagePercent: cfg.Swap.DefaultSlippagePercent,
		GasLimitMultiplier:     cfg.Swap.GasLimitMultiplier,
		FallbackGasLimit:       cfg.Swap.FallbackGasLimit,
	}, logger)
}
