package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/sol/lexer"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens SCRIPT",
	Short: "Print the token stream of a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		toks, err := lexer.NewAt(args[0], lexer.Normalize(string(data)), 1).All()
		for _, t := range toks {
			if t.Kind == lexer.Newline {
				continue
			}
			fmt.Printf("%4d  %-14s %s\n", t.Line, color.Yellow.Sprint(t.Kind), t.Text)
		}
		return err
	},
}
