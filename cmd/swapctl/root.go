package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"swaphelper/internal/config"
	"swaphelper/internal/swap"
	"swaphelper/internal/txbuilder"
)

var (
	v          = viper.New()
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "swapctl",
	Short: "Build unsigned swap and approve transactions for a v2 AMM router",
	Long: `swapctl quotes swaps and builds unsigned transactions against a
Uniswap-v2 style router (PancakeSwap on BSC by default).

Settings come from flags, SWAPHELPER_* environment variables, or a YAML
config file.

Examples:
  swapctl quote --from eth --to 0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82 --amount 0.5
  swapctl raw --wallet 0x... --from eth --to 0x... --amount-wei 1000000000000000000
  swapctl approve --wallet 0x... --token 0x... --amount 100
  swapctl decode 0x7ff36ab5...
  swapctl tokens --symbol CAKE`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       "0.1.0",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to YAML config file")
	pf.Uint64("chain-id", 0, "chain id (56 bsc, 1 ethereum, 8453 base)")
	pf.String("rpc", "", "rpc url")
	pf.String("router", "", "router address")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")
	pf.BoolVarP(&jsonOutput, "json", "j", false, "output JSON")

	for _, name := range []string{"config", "chain-id", "rpc", "router"} {
		_ = v.BindPFlag(name, pf.Lookup(name))
	}
	v.SetEnvPrefix("SWAPHELPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

func loadConfig() (*config.Config, error) {
	return config.Load(v.GetString("config"), config.Options{
		ChainID:       v.GetUint64("chain-id"),
		RPCURL:        v.GetString("rpc"),
		RouterAddress: v.GetString("router"),
	})
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *ethclient.Client
	builder *txbuilder.Builder
	swap    *swap.Service
}

func (s *session) Close() {
	s.client.Close()
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger()
	rpcClient, err := rpc.DialContext(ctx, cfg.RPC.HTTP)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPC.HTTP, err)
	}
	rpcClient.SetHeader("User-Agent", "swaphelper-swapctl")
	client := ethclient.NewClient(rpcClient)
	builder := txbuilder.NewBuilderFromConfig(client, cfg, logger)
	return &session{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		builder: builder,
		swap:    swap.NewService(builder, logger),
	}, nil
}

func commandContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.Performance.RequestTimeout.Duration)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
