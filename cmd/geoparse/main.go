// Command geoparse reads free-form North American location strings and
// prints their structured form.
//
// Usage:
//
//	geoparse parse "Toronto, ON, CA, M4E 3J1"
//	geoparse batch --input locations.csv --column 2 --format csv
//	geoparse explain "CA-ON-Oakville-3235 Dundas St W"
//	geoparse validate
package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andreiashu/geoparse"
	"github.com/andreiashu/geoparse/internal/config"
)

var (
	cfg        *config.Config
	formatFlag string
	fuzzyFlag  int
)

var rootCmd = &cobra.Command{
	Use:          "geoparse",
	Short:        "Parse North American location strings",
	Long:         "Splits free-form location strings into city, state or province, country and postal code using compiled-in reference data.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if cmd.Flags().Changed("format") {
			c.Output.Format = formatFlag
		}
		if cmd.Flags().Changed("fuzzy") {
			c.Parser.FuzzyDistance = fuzzyFlag
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", config.FormatText, "output format: text, json or csv")
	rootCmd.PersistentFlags().IntVar(&fuzzyFlag, "fuzzy", 0, "max edit distance for city names (0 disables, at most 2)")
}

// newParser builds a parser from the loaded configuration.
func newParser() (*geoparse.Parser, error) {
	p, err := geoparse.New(
		geoparse.WithLogger(zap.L()),
		geoparse.WithFuzzyDistance(cfg.Parser.FuzzyDistance),
		geoparse.WithMaxInputLen(cfg.Parser.MaxInputLen),
	)
	if err != nil {
		return nil, eris.Wrap(err, "init parser")
	}
	return p, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
