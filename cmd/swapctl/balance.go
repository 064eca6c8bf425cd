package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swaphelper/internal/swap"
)

var (
	balanceToken    string
	balanceDecimals int
)

var balanceCmd = &cobra.Command{
	Use:   "balance <wallet>",
	Short: "Show a wallet's native or token balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		ctx, cancel := commandContext(s.cfg)
		defer cancel()

		decimals, err := resolveDecimals(ctx, s, balanceToken, balanceDecimals)
		if err != nil {
			return err
		}
		bal, err := s.swap.Balance(ctx, swap.BalanceRequest{TokenAddress: balanceToken, WalletAddress: args[0]}, decimals)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(bal)
		}
		fmt.Printf("\n%s %s %s\n\n", color.YellowString(bal.Formatted), color.HiBlackString(tokenLabel(s, balanceToken)), color.HiBlackString("("+bal.Raw+")"))
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVar(&balanceToken, "token", "eth", "token address or eth")
	balanceCmd.Flags().IntVar(&balanceDecimals, "decimals", -1, "token decimals (read from chain when unset)")
	rootCmd.AddCommand(balanceCmd)
}
