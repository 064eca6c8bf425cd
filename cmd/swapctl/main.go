package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"swaphelper/internal/apperr"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		tr := apperr.Translate(err)
		fmt.Fprintf(os.Stderr, "\n%s %s\n\n", color.RedString("Error:"), tr.Message)
		if verbose && tr.Message != err.Error() {
			fmt.Fprintf(os.Stderr, "%s\n", color.HiBlackString(err.Error()))
		}
		os.Exit(1)
	}
}
