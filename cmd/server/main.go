package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"swaphelper/internal/api"
	"swaphelper/internal/config"
	"swaphelper/internal/swap"
	"swaphelper/internal/txbuilder"
	"swaphelper/internal/util"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to the chain preset)")
	chainID := flag.Uint64("chain-id", 0, "chain id override")
	rpcURL := flag.String("rpc", "", "rpc url override")
	router := flag.String("router", "", "router address override")
	debug := flag.Bool("debug", false, "enable debug logs")
	flag.Parse()

	cfg, err := config.Load(*configPath, config.Options{ChainID: *chainID, RPCURL: *rpcURL, RouterAddress: *router})
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rpcClient, err := rpc.DialContext(ctx, cfg.RPC.HTTP)
	if err != nil {
		logger.Error("rpc dial failed", "error", err)
		os.Exit(1)
	}
	defer rpcClient.Close()
	rpcClient.SetHeader("User-Agent", "swaphelper-api")
	ethClient := ethclient.NewClient(rpcClient)
	defer ethClient.Close()

	if err := checkChainID(ctx, ethClient, cfg); err != nil {
		logger.Error("chain check failed", "error", err)
		os.Exit(1)
	}

	builder := txbuilder.NewBuilderFromConfig(ethClient, cfg, logger)
	swapSvc := swap.NewService(builder, logger)
	server := api.NewServer(cfg, logger, swapSvc)

	logger.Info("api starting",
		"listen", cfg.API.Listen,
		"chain", cfg.Chain,
		"chain_id", cfg.ChainID,
		"router", cfg.Router().Hex(),
	)
	if err := server.Start(ctx); err != nil {
		logger.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

// checkChainID makes sure the node serves the configured chain, retrying
// while the node is unreachable.
func checkChainID(ctx context.Context, client *ethclient.Client, cfg *config.Config) error {
	policy := util.RetryPolicy{Max: cfg.Performance.RetryMax, Backoff: cfg.Performance.RetryBackoff.Duration}
	return util.Retry(ctx, policy, func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, cfg.Performance.RequestTimeout.Duration)
		defer cancel()
		id, err := client.ChainID(reqCtx)
		if err != nil {
			return err
		}
		if id.Uint64() != cfg.ChainID {
			return util.Permanent(fmt.Errorf("rpc serves chain %s, config expects %d", id, cfg.ChainID))
		}
		return nil
	})
}
