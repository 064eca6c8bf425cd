package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swaphelper/internal/swap"
	"swaphelper/internal/txbuilder"
)

type swapFlags struct {
	wallet       string
	from         string
	to           string
	fromDecimals int
	toDecimals   int
	amount       string
	amountWei    string
	slippage     int
}

func (f *swapFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.wallet, "wallet", "", "wallet address (recipient and gas estimation sender)")
	fl.StringVar(&f.from, "from", "", "input token address or eth")
	fl.StringVar(&f.to, "to", "", "output token address or eth")
	fl.IntVar(&f.fromDecimals, "from-decimals", -1, "input token decimals (read from chain when unset)")
	fl.IntVar(&f.toDecimals, "to-decimals", -1, "output token decimals (read from chain when unset)")
	fl.StringVar(&f.amount, "amount", "", "input amount in whole tokens, e.g. 1.5")
	fl.StringVar(&f.amountWei, "amount-wei", "", "input amount in base units")
	fl.IntVar(&f.slippage, "slippage", -1, "slippage tolerance in percent (config default when unset)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

// request resolves decimals and converts the amount to base units.
func (f *swapFlags) request(ctx context.Context, s *session) (swap.SwapRequest, error) {
	fromDecimals, err := resolveDecimals(ctx, s, f.from, f.fromDecimals)
	if err != nil {
		return swap.SwapRequest{}, err
	}
	toDecimals, err := resolveDecimals(ctx, s, f.to, f.toDecimals)
	if err != nil {
		return swap.SwapRequest{}, err
	}
	quantity := f.amountWei
	if quantity == "" {
		if f.amount == "" {
			return swap.SwapRequest{}, errors.New("one of --amount or --amount-wei is required")
		}
		v, err := txbuilder.ParseUnits(f.amount, fromDecimals)
		if err != nil {
			return swap.SwapRequest{}, fmt.Errorf("amount: %w", err)
		}
		quantity = v.String()
	}
	req := swap.SwapRequest{
		WalletAddress:       f.wallet,
		FromContractAddress: f.from,
		ToContractAddress:   f.to,
		FromContractDecimal: fromDecimals,
		ToContractDecimal:   toDecimals,
		FromQuantity:        quantity,
	}
	if f.slippage >= 0 {
		sl := uint32(f.slippage)
		req.SlippageTolerance = &sl
	}
	return req, nil
}

func resolveDecimals(ctx context.Context, s *session, token string, flag int) (uint8, error) {
	if flag >= 0 {
		if flag > 255 {
			return 0, fmt.Errorf("decimals %d out of range", flag)
		}
		return uint8(flag), nil
	}
	if s.builder.IsNative(token) {
		return 18, nil
	}
	if !common.IsHexAddress(token) {
		return 0, fmt.Errorf("invalid token address %q", token)
	}
	d, err := txbuilder.ReadERC20Decimals(ctx, s.client, common.HexToAddress(token))
	if err != nil {
		return 0, fmt.Errorf("read decimals of %s: %w", token, err)
	}
	return d, nil
}

func tokenLabel(s *session, token string) string {
	if s.builder.IsNative(token) {
		return "native"
	}
	return token
}

var quoteFlags swapFlags

var quoteCmd = &cobra.Command{
	Use:     "quote",
	Aliases: []string{"rate"},
	Short:   "Quote a swap without checking balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		ctx, cancel := commandContext(s.cfg)
		defer cancel()

		req, err := quoteFlags.request(ctx, s)
		if err != nil {
			return err
		}
		rate, err := s.swap.GetExchangeRate(ctx, req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(rate)
		}
		in, _ := txbuilder.ParseBaseUnits(rate.FromTokenAmount)
		out, _ := txbuilder.ParseBaseUnits(rate.ToTokenAmount)
		fmt.Println()
		color.Green("Quote on %s", s.cfg.Chain)
		fmt.Printf("  %-14s %s %s\n", "pay", color.YellowString(txbuilder.FormatUnits(in, req.FromContractDecimal)), color.HiBlackString(tokenLabel(s, req.FromContractAddress)))
		fmt.Printf("  %-14s %s %s\n", "receive (min)", color.YellowString(txbuilder.FormatUnits(out, req.ToContractDecimal)), color.HiBlackString(tokenLabel(s, req.ToContractAddress)))
		fmt.Printf("  %-14s %d\n\n", "gas", rate.EstimatedGas)
		return nil
	},
}

var gasFlags swapFlags

var gasCmd = &cobra.Command{
	Use:   "gas",
	Short: "Estimate gas for a swap",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		ctx, cancel := commandContext(s.cfg)
		defer cancel()

		req, err := gasFlags.request(ctx, s)
		if err != nil {
			return err
		}
		gas, err := s.swap.GetEstimatedGas(ctx, req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(gas)
		}
		fmt.Printf("\nestimated gas: %s\n\n", color.YellowString("%d", gas.EstimatedGas))
		return nil
	},
}

var rawFlags swapFlags

var rawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Build an unsigned swap transaction",
	Long: `Build an unsigned swap transaction after checking that the wallet
holds the input amount. The transaction is printed as JSON; sign and send it
with your own tooling.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		ctx, cancel := commandContext(s.cfg)
		defer cancel()

		req, err := rawFlags.request(ctx, s)
		if err != nil {
			return err
		}
		tx, err := s.swap.RawTransaction(ctx, req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(tx)
		}
		printTx(tx)
		return nil
	},
}

func printTx(tx *txbuilder.RawTransaction) {
	fmt.Println()
	color.Green("Unsigned transaction")
	fmt.Printf("  %-9s %s\n", "from", tx.From.Hex())
	fmt.Printf("  %-9s %s\n", "to", tx.To.Hex())
	fmt.Printf("  %-9s %s\n", "value", tx.Value.String())
	fmt.Printf("  %-9s %d\n", "gas", tx.Gas)
	fmt.Printf("  %-9s %s\n", "gasPrice", tx.GasPrice.String())
	fmt.Printf("  %-9s %s\n\n", "data", color.HiBlackString(hexutil.Encode(tx.Data)))
}

func init() {
	quoteFlags.register(quoteCmd)
	gasFlags.register(gasCmd)
	rawFlags.register(rawCmd)
	_ = rawCmd.MarkFlagRequired("wallet")
	rootCmd.AddCommand(quoteCmd, gasCmd, rawCmd)
}
