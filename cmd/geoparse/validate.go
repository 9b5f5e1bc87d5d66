package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the compiled-in reference data against known locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := newParser()
		if err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return eris.Wrap(err, "validate")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "reference data OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
