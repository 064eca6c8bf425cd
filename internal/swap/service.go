// Package swap exposes the swap operations over the transaction builder:
// balance checks, raw swap transactions, quotes, gas estimates and token
// approvals.
package swap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"swaphelper/internal/apperr"
	"swaphelper/internal/txbuilder"
)

type Service struct {
	builder *txbuilder.Builder
	logger  *slog.Logger
}

func NewService(builder *txbuilder.Builder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{builder: builder, logger: logger}
}

func (s *Service) Builder() *txbuilder.Builder {
	return s.builder
}

// CheckBalance fails with an insufficient-balance error when wallet holds
// less than required of token. It returns the balance it read.
func (s *Service) CheckBalance(ctx context.Context, token string, wallet common.Address, required *big.Int) (*big.Int, error) {
	available, err := s.readBalance(ctx, token, wallet)
	if err != nil {
		return nil, err
	}
	if required != nil && available.Cmp(required) < 0 {
		err := apperr.InsufficientBalance("checkBalance", token, wallet.Hex(), required, available)
		s.logger.Info("insufficient balance", "detail", err.Detail())
		return available, err
	}
	return available, nil
}

// Balance reads token for req.WalletAddress and, when a required quantity is
// given, checks it.
func (s *Service) Balance(ctx context.Context, req BalanceRequest, decimals uint8) (*Balance, error) {
	wallet, err := parseAddress("walletAddress", req.WalletAddress)
	if err != nil {
		return nil, err
	}
	var required *big.Int
	if strings.TrimSpace(req.RequiredQuantity) != "" {
		if required, err = parseQuantity("requiredQuantity", req.RequiredQuantity); err != nil {
			return nil, err
		}
	}
	native := s.builder.IsNative(req.TokenAddress)
	if !native {
		if _, err := parseAddress("tokenAddress", req.TokenAddress); err != nil {
			return nil, err
		}
	}
	available, err := s.CheckBalance(ctx, req.TokenAddress, wallet, required)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Token:     req.TokenAddress,
		Wallet:    wallet.Hex(),
		Native:    native,
		Raw:       available.String(),
		Formatted: txbuilder.FormatUnits(available, decimals),
	}, nil
}

// RawTransaction checks the input balance and builds the swap.
func (s *Service) RawTransaction(ctx context.Context, req SwapRequest) (*txbuilder.RawTransaction, error) {
	params, err := s.params(req, true)
	if err != nil {
		return nil, err
	}
	if _, err := s.CheckBalance(ctx, req.FromContractAddress, params.Wallet, params.FromQuantity); err != nil {
		return nil, err
	}
	res, err := s.builder.Build(ctx, params)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Transaction == nil {
		return nil, apperr.NoRoute("rawTransaction", req.FromContractAddress, req.ToContractAddress, nil)
	}
	return res.Transaction, nil
}

// GetExchangeRate quotes the swap without a balance check. The wallet is
// optional and only used to estimate gas.
func (s *Service) GetExchangeRate(ctx context.Context, req SwapRequest) (*ExchangeRate, error) {
	res, err := s.quote(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ExchangeRate{
		ToTokenAmount:   res.OutputAmount.String(),
		FromTokenAmount: res.Quote.AmountIn.String(),
		EstimatedGas:    res.Transaction.Gas,
	}, nil
}

func (s *Service) GetEstimatedGas(ctx context.Context, req SwapRequest) (*EstimatedGas, error) {
	res, err := s.quote(ctx, req)
	if err != nil {
		return nil, err
	}
	return &EstimatedGas{EstimatedGas: res.Transaction.Gas}, nil
}

// ApprovalRawTransaction returns an approve transaction when the router's
// allowance is below the required quantity. Native input never needs one.
func (s *Service) ApprovalRawTransaction(ctx context.Context, req ApprovalRequest) (*ApprovalResult, error) {
	wallet, err := parseAddress("walletAddress", req.WalletAddress)
	if err != nil {
		return nil, err
	}
	required, err := parseQuantity("fromQuantity", req.FromQuantity)
	if err != nil {
		return nil, err
	}
	if required.Sign() == 0 {
		return nil, apperr.InvalidRequest("approval", errors.New("fromQuantity must be positive"))
	}
	native := s.builder.IsNative(req.FromContractAddress)
	if !native {
		if _, err := parseAddress("fromContractAddress", req.FromContractAddress); err != nil {
			return nil, err
		}
	}
	if _, err := s.CheckBalance(ctx, req.FromContractAddress, wallet, required); err != nil {
		return nil, err
	}
	if native {
		return &ApprovalResult{Approved: true}, nil
	}
	token := common.HexToAddress(req.FromContractAddress)
	allowance, err := txbuilder.ReadERC20Allowance(ctx, s.builder.Client(), token, wallet, s.builder.Router())
	if err != nil {
		return nil, apperr.ChainRead("allowance", err)
	}
	if allowance.Cmp(required) >= 0 {
		return &ApprovalResult{Approved: true}, nil
	}
	tx, err := s.builder.BuildApprove(ctx, wallet, token, required)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("approval required",
		"token", token.Hex(),
		"wallet", wallet.Hex(),
		"allowance", allowance.String(),
		"required", required.String(),
	)
	return &ApprovalResult{Transaction: tx}, nil
}

func (s *Service) quote(ctx context.Context, req SwapRequest) (*txbuilder.BuildResult, error) {
	params, err := s.params(req, false)
	if err != nil {
		return nil, err
	}
	params.ToQuantity = big.NewInt(0)
	res, err := s.builder.Build(ctx, params)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Transaction == nil {
		return nil, apperr.NoRoute("quote", req.FromContractAddress, req.ToContractAddress, nil)
	}
	return res, nil
}

func (s *Service) params(req SwapRequest, walletRequired bool) (txbuilder.SwapParams, error) {
	var wallet common.Address
	if walletRequired || strings.TrimSpace(req.WalletAddress) != "" {
		w, err := parseAddress("walletAddress", req.WalletAddress)
		if err != nil {
			return txbuilder.SwapParams{}, err
		}
		wallet = w
	}
	amount, err := parseQuantity("fromQuantity", req.FromQuantity)
	if err != nil {
		return txbuilder.SwapParams{}, err
	}
	var toQuantity *big.Int
	if strings.TrimSpace(req.ToQuantity) != "" {
		if toQuantity, err = parseQuantity("toQuantity", req.ToQuantity); err != nil {
			return txbuilder.SwapParams{}, err
		}
	}
	return txbuilder.SwapParams{
		Wallet:          wallet,
		From:            req.FromContractAddress,
		FromDecimals:    req.FromContractDecimal,
		To:              req.ToContractAddress,
		ToDecimals:      req.ToContractDecimal,
		FromQuantity:    amount,
		ToQuantity:      toQuantity,
		SlippagePercent: req.SlippageTolerance,
	}, nil
}

func (s *Service) readBalance(ctx context.Context, token string, wallet common.Address) (*big.Int, error) {
	client := s.builder.Client()
	if s.builder.IsNative(token) {
		v, err := client.BalanceAt(ctx, wallet, nil)
		if err != nil {
			return nil, apperr.ChainRead("balance", err)
		}
		return v, nil
	}
	addr, err := parseAddress("tokenAddress", token)
	if err != nil {
		return nil, err
	}
	v, err := txbuilder.ReadERC20Balance(ctx, client, addr, wallet)
	if err != nil {
		return nil, apperr.ChainRead("balanceOf", err)
	}
	return v, nil
}

func parseAddress(field, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.Address{}, apperr.InvalidRequest("parse", fmt.Errorf("%s is required", field))
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, apperr.InvalidRequest("parse", fmt.Errorf("%s %q is not a valid address", field, value))
	}
	return common.HexToAddress(value), nil
}

func parseQuantity(field, value string) (*big.Int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, apperr.InvalidRequest("parse", fmt.Errorf("%s is required", field))
	}
	v, err := txbuilder.ParseBaseUnits(value)
	if err != nil {
		return nil, apperr.InvalidRequest("parse", fmt.Errorf("%s: %w", field, err))
	}
	return v, nil
}
