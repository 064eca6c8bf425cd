package txbuilder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"swaphelper/internal/amm"
	"swaphelper/internal/apperr"
	"swaphelper/internal/config"
	"swaphelper/internal/contracts"
)

// SwapDeadline is how long the router accepts a built swap.
const SwapDeadline = 20 * time.Minute

type BuilderConfig struct {
	ChainID       uint64
	Router        common.Address
	Factory       common.Address // zero: read factory() from the router
	WrappedNative common.Address
	NativeAddress string
	FeeBps        uint32

	DefaultSlippagePercent uint32
	GasLimitMultiplier     float64
	FallbackGasLimit       uint64
}

type Builder struct {
	client ChainClient
	cfg    BuilderConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewBuilder(client ChainClient, cfg BuilderConfig, logger *slog.Logger) *Builder {
	if cfg.DefaultSlippagePercent == 0 {
		cfg.DefaultSlippagePercent = 1
	}
	if cfg.GasLimitMultiplier <= 0 {
		cfg.GasLimitMultiplier = 1.2
	}
	if cfg.FallbackGasLimit == 0 {
		cfg.FallbackGasLimit = 21000000
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{client: client, cfg: cfg, logger: logger, now: time.Now}
}

func NewBuilderWithClock(client ChainClient, cfg BuilderConfig, logger *slog.Logger, now func() time.Time) *Builder {
	b := NewBuilder(client, cfg, logger)
	if now != nil {
		b.now = now
	}
	return b
}

func (b *Builder) Client() ChainClient {
	return b.client
}

func (b *Builder) Router() common.Address {
	return b.cfg.Router
}

func (b *Builder) IsNative(address string) bool {
	return IsAddressNative(address, b.cfg.NativeAddress)
}

// SwapParams describes one exact-input swap. From and To are token
// addresses or a native-coin marker.
type SwapParams struct {
	Wallet       common.Address
	From         string
	FromDecimals uint8
	To           string
	ToDecimals   uint8
	FromQuantity *big.Int
	// ToQuantity is accepted for request-shape compatibility; quotes are
	// always exact-input on FromQuantity.
	ToQuantity *big.Int
	// SlippagePercent nil means the configured default.
	SlippagePercent *uint32
}

type Quote struct {
	Pair            common.Address
	AmountIn        *big.Int
	ExpectedOut     *big.Int
	AmountOutMin    *big.Int
	AmountInMax     *big.Int
	SlippagePercent uint32
}

// RawTransaction is an unsigned legacy transaction envelope.
type RawTransaction struct {
	From     common.Address
	To       common.Address
	Data     []byte
	Gas      uint64
	GasPrice *big.Int
	Value    *big.Int
}

type rawTransactionJSON struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Data     string `json:"data"`
	Gas      uint64 `json:"gas"`
	GasPrice string `json:"gasPrice"`
	Value    string `json:"value"`
}

func (t *RawTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(rawTransactionJSON{
		From:     t.From.Hex(),
		To:       t.To.Hex(),
		Data:     hexutil.Encode(t.Data),
		Gas:      t.Gas,
		GasPrice: bigString(t.GasPrice),
		Value:    bigString(t.Value),
	})
}

type BuildResult struct {
	Transaction *RawTransaction
	// OutputAmount is the slippage-bounded minimum output.
	OutputAmount *big.Int
	Quote        *Quote
	Mode         RoutingMode
	Path         []common.Address
	Deadline     uint64
	GasEstimated bool
}

// Build quotes the swap against the pair and encodes the matching router
// call.
func (b *Builder) Build(ctx context.Context, p SwapParams) (*BuildResult, error) {
	if p.FromQuantity == nil || p.FromQuantity.Sign() <= 0 {
		return nil, apperr.InvalidRequest("build", errors.New("fromQuantity must be positive"))
	}
	mode := ResolveRoutingMode(p.From, p.To, b.cfg.NativeAddress)
	fromAddr, toAddr, err := b.resolvePath(mode, p.From, p.To)
	if err != nil {
		return nil, err
	}
	fromToken := amm.NewToken(b.cfg.ChainID, fromAddr, p.FromDecimals)
	toToken := amm.NewToken(b.cfg.ChainID, toAddr, p.ToDecimals)

	var (
		pair     *amm.Pair
		gasPrice *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pair, err = b.fetchPair(gctx, fromToken, toToken)
		return err
	})
	g.Go(func() error {
		price, err := b.client.SuggestGasPrice(gctx)
		if err != nil {
			return apperr.ChainRead("gasPrice", err)
		}
		gasPrice = price
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slippage := b.cfg.DefaultSlippagePercent
	if p.SlippagePercent != nil {
		slippage = *p.SlippagePercent
	}
	quote, err := quoteExactInput(pair, fromToken, p.FromQuantity, slippage)
	if err != nil {
		return nil, apperr.NoRoute("quote", fromAddr.Hex(), toAddr.Hex(), err)
	}

	path := []common.Address{fromAddr, toAddr}
	deadline := uint64(b.now().Add(SwapDeadline).Unix())
	data, err := encodeSwapCall(mode, quote, path, p.Wallet, new(big.Int).SetUint64(deadline))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", mode, err)
	}
	value := big.NewInt(0)
	if mode == ModeFromIsNative {
		value = new(big.Int).Set(quote.AmountIn)
	}
	gas, estimated, err := b.swapGas(ctx, p.Wallet, value, data, gasPrice)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("swap built",
		"mode", mode.String(),
		"from", fromAddr.Hex(),
		"to", toAddr.Hex(),
		"amount_in", quote.AmountIn.String(),
		"amount_out_min", quote.AmountOutMin.String(),
		"gas", gas,
	)
	return &BuildResult{
		Transaction: &RawTransaction{
			From:     p.Wallet,
			To:       b.cfg.Router,
			Data:     data,
			Gas:      gas,
			GasPrice: gasPrice,
			Value:    value,
		},
		OutputAmount: new(big.Int).Set(quote.AmountOutMin),
		Quote:        quote,
		Mode:         mode,
		Path:         path,
		Deadline:     deadline,
		GasEstimated: estimated,
	}, nil
}

// BuildApprove returns an approve(router, amount) transaction on token.
// Unlike swaps, a failed gas estimate is an error here.
func (b *Builder) BuildApprove(ctx context.Context, wallet, token common.Address, amount *big.Int) (*RawTransaction, error) {
	data, err := BuildApproveCallData(b.cfg.Router, amount)
	if err != nil {
		return nil, apperr.InvalidRequest("approve", err)
	}
	gasPrice, err := b.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, apperr.ChainRead("gasPrice", err)
	}
	value := big.NewInt(0)
	gas, err := b.estimateGas(ctx, "approve", wallet, token, value, data, gasPrice)
	if err != nil {
		return nil, apperr.ChainRead("estimateGas", err)
	}
	return &RawTransaction{
		From:     wallet,
		To:       token,
		Data:     data,
		Gas:      gas,
		GasPrice: gasPrice,
		Value:    value,
	}, nil
}

// resolvePath swaps the native side for the wrapped-native token. A side
// that is native but not substituted (both sides native) keeps the
// sentinel, which no pair will match.
func (b *Builder) resolvePath(mode RoutingMode, from, to string) (common.Address, common.Address, error) {
	var fromAddr, toAddr common.Address
	var err error
	if mode == ModeFromIsNative {
		fromAddr = b.cfg.WrappedNative
	} else if fromAddr, err = b.parseToken("from", from); err != nil {
		return common.Address{}, common.Address{}, err
	}
	if mode == ModeToIsNative {
		toAddr = b.cfg.WrappedNative
	} else if toAddr, err = b.parseToken("to", to); err != nil {
		return common.Address{}, common.Address{}, err
	}
	return fromAddr, toAddr, nil
}

func (b *Builder) parseToken(field, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if b.IsNative(value) {
		sentinel := b.cfg.NativeAddress
		if !common.IsHexAddress(sentinel) {
			sentinel = config.NativeSentinel
		}
		return common.HexToAddress(sentinel), nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, apperr.InvalidRequest("build", fmt.Errorf("%s token address %q is invalid", field, value))
	}
	return common.HexToAddress(value), nil
}

func (b *Builder) fetchPair(ctx context.Context, from, to amm.Token) (*amm.Pair, error) {
	factory := b.cfg.Factory
	if factory == (common.Address{}) {
		resolved, err := amm.ResolveFactory(ctx, b.client, b.cfg.Router)
		if err != nil {
			return nil, apperr.ChainRead("factory", err)
		}
		factory = resolved
	}
	pair, err := amm.NewFetcher(b.client, factory, b.cfg.FeeBps).FetchPairData(ctx, from, to)
	if err != nil {
		if amm.IsRouteError(err) {
			return nil, apperr.NoRoute("fetchPairData", from.Address.Hex(), to.Address.Hex(), err)
		}
		return nil, apperr.ChainRead("fetchPairData", err)
	}
	return pair, nil
}

func quoteExactInput(pair *amm.Pair, from amm.Token, amountIn *big.Int, slippagePercent uint32) (*Quote, error) {
	if pair == nil {
		return nil, amm.ErrNullQuote
	}
	route, err := amm.NewRoute([]*amm.Pair{pair}, from)
	if err != nil {
		return nil, err
	}
	trade, err := amm.NewTrade(route, amm.NewTokenAmount(from, amountIn), amm.ExactInput)
	if err != nil {
		return nil, err
	}
	slippage := amm.NewPercent(int64(slippagePercent), 100)
	minOut, err := trade.MinimumAmountOut(slippage)
	if err != nil {
		return nil, err
	}
	maxIn, err := trade.MaximumAmountIn(slippage)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Pair:            pair.Address,
		AmountIn:        new(big.Int).Set(trade.InputAmount.Raw),
		ExpectedOut:     new(big.Int).Set(trade.OutputAmount.Raw),
		AmountOutMin:    minOut,
		AmountInMax:     maxIn,
		SlippagePercent: slippagePercent,
	}, nil
}

func encodeSwapCall(mode RoutingMode, q *Quote, path []common.Address, recipient common.Address, deadline *big.Int) ([]byte, error) {
	switch mode {
	case ModeFromIsNative:
		return contracts.RouterABI.Pack(contracts.MethodSwapExactETHForTokens, q.AmountOutMin, path, recipient, deadline)
	case ModeToIsNative:
		return contracts.RouterABI.Pack(contracts.MethodSwapTokensForExactETH, q.AmountOutMin, q.AmountInMax, path, recipient, deadline)
	default:
		return contracts.RouterABI.Pack(contracts.MethodSwapTokensForExactTokens, q.AmountOutMin, q.AmountInMax, path, recipient, deadline)
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
