package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swaphelper/internal/swap"
	"swaphelper/internal/txbuilder"
)

var (
	approveWallet    string
	approveToken     string
	approveAmount    string
	approveAmountWei string
	approveDecimals  int
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Build an approve transaction when the router allowance is too low",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		ctx, cancel := commandContext(s.cfg)
		defer cancel()

		quantity := approveAmountWei
		if quantity == "" {
			decimals, err := resolveDecimals(ctx, s, approveToken, approveDecimals)
			if err != nil {
				return err
			}
			v, err := txbuilder.ParseUnits(approveAmount, decimals)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			quantity = v.String()
		}
		res, err := s.swap.ApprovalRawTransaction(ctx, swap.ApprovalRequest{
			FromContractAddress: approveToken,
			WalletAddress:       approveWallet,
			FromQuantity:        quantity,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(res)
		}
		if res.Approved {
			fmt.Printf("\n%s router %s may already spend %s\n\n", color.GreenString("✓"), s.cfg.Router().Hex(), quantity)
			return nil
		}
		printTx(res.Transaction)
		return nil
	},
}

func init() {
	fl := approveCmd.Flags()
	fl.StringVar(&approveWallet, "wallet", "", "token owner")
	fl.StringVar(&approveToken, "token", "", "token address or eth")
	fl.StringVar(&approveAmount, "amount", "", "amount in whole tokens")
	fl.StringVar(&approveAmountWei, "amount-wei", "", "amount in base units")
	fl.IntVar(&approveDecimals, "decimals", -1, "token decimals (read from chain when unset)")
	_ = approveCmd.MarkFlagRequired("wallet")
	_ = approveCmd.MarkFlagRequired("token")
	approveCmd.MarkFlagsOneRequired("amount", "amount-wei")
	rootCmd.AddCommand(approveCmd)
}
