package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swaphelper/internal/decoder"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <calldata>",
	Short: "Decode router or ERC20 calldata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := decoder.New().DecodeHex(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(m)
		}
		fmt.Printf("\n%s %s %s\n", color.CyanString(m.Contract), color.GreenString(m.Name), color.HiBlackString(m.Selector))
		keys := make([]string, 0, len(m.Args))
		for k := range m.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-14s %v\n", k, m.Args[k])
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}
