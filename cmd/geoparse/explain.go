package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/andreiashu/geoparse"
	"github.com/andreiashu/geoparse/internal/config"
)

var explainCmd = &cobra.Command{
	Use:   "explain <location>",
	Short: "Show the segments and candidate readings behind a parse",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newParser()
		if err != nil {
			return err
		}
		ex := p.Explain(args[0])
		if cfg.Output.Format == config.FormatJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(ex), "explain: encode")
		}
		return writeExplanation(cmd.OutOrStdout(), ex)
	},
}

func writeExplanation(w io.Writer, ex geoparse.Explanation) error {
	fmt.Fprintf(w, "input:  %q\n", ex.Input)
	if ex.Truncated {
		fmt.Fprintln(w, "        (truncated)")
	}
	fmt.Fprintf(w, "style:  %s\n", ex.Style)
	for i, seg := range ex.Segments {
		tag := ""
		if seg.Parenthetical {
			tag = " (parenthetical)"
		}
		fmt.Fprintf(w, "[%d] %q group=%d%s\n", seg.Index, seg.Text, seg.Group, tag)
		for _, c := range ex.Candidates[i] {
			fmt.Fprintf(w, "      %-8s %-24s %.1f %s\n", c.Label, candidateValue(c), float64(c.Confidence), c.Origin)
		}
	}
	fmt.Fprintf(w, "result: %s\n", ex.Location.Full())
	for _, r := range ex.Location.Remainder {
		fmt.Fprintf(w, "remainder: %q\n", r)
	}
	return nil
}

func candidateValue(c geoparse.Candidate) string {
	switch c.Label {
	case geoparse.LabelCountry:
		return c.Country.Code + " " + c.Country.Name
	case geoparse.LabelState:
		return c.State.Country + "." + c.State.Code + " " + c.State.Name
	case geoparse.LabelCity:
		return c.City.Name + ", " + c.City.State + ", " + c.City.Country
	case geoparse.LabelZipcode:
		return c.Zipcode
	}
	return ""
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
