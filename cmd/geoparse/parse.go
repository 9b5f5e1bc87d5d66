package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <location>...",
	Short: "Parse location strings given as arguments",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newParser()
		if err != nil {
			return err
		}
		w, err := newResultWriter(cmd.OutOrStdout(), cfg.Output.Format)
		if err != nil {
			return err
		}
		for _, arg := range args {
			if err := w.Write(newResult(arg, p.ParseLocation(arg))); err != nil {
				return eris.Wrap(err, "parse: write result")
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
