package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/parser"
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Print the syntax tree of IDL files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range args {
			data, err := os.ReadFile(name)
			if err != nil {
				return errors.Wrapf(err, "reading %s", name)
			}
			f, err := parser.ParseFile(name, string(data))
			if f != nil {
				if derr := parser.Dump(cmd.OutOrStdout(), f); derr != nil {
					return derr
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}
		}
		return nil
	},
}
