package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swaphelper/internal/httpget"
)

type tokenList struct {
	Name   string      `json:"name"`
	Tokens []listToken `json:"tokens"`
}

type listToken struct {
	ChainID  uint64 `json:"chainId"`
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

var (
	tokensURL    string
	tokensSymbol string
)

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List tokens from the chain's token list",
	Long: `List tokens from a token list (the PancakeSwap extended list on BSC).

Examples:
  swapctl tokens
  swapctl tokens --symbol CAKE
  swapctl tokens --url https://example.org/tokens.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		url := tokensURL
		if url == "" {
			url = cfg.TokenList.URL
		}
		if url == "" {
			return errors.New("no token list configured for this chain; pass --url")
		}
		ctx, cancel := commandContext(cfg)
		defer cancel()

		env := httpget.NewClient(cfg.Performance.RequestTimeout.Duration, newLogger()).GetRequest(ctx, url)
		if jsonOutput && !env.OK() {
			return printJSON(env)
		}
		var list tokenList
		if err := env.Decode(&list); err != nil {
			return err
		}
		filtered := make([]listToken, 0, len(list.Tokens))
		for _, t := range list.Tokens {
			if t.ChainID != 0 && t.ChainID != cfg.ChainID {
				continue
			}
			if tokensSymbol != "" && !strings.EqualFold(t.Symbol, tokensSymbol) {
				continue
			}
			filtered = append(filtered, t)
		}
		if jsonOutput {
			return printJSON(filtered)
		}
		fmt.Println()
		color.Green("%s (%d tokens)", list.Name, len(filtered))
		for _, t := range filtered {
			fmt.Printf("  %-10s %-3d %s\n", color.YellowString(t.Symbol), t.Decimals, color.HiBlackString(t.Address))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	tokensCmd.Flags().StringVar(&tokensURL, "url", "", "token list url (config token_list.url when unset)")
	tokensCmd.Flags().StringVar(&tokensSymbol, "symbol", "", "filter by symbol")
	rootCmd.AddCommand(tokensCmd)
}
