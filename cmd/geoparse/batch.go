package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andreiashu/geoparse"
)

var (
	batchInput     string
	batchColumn    int
	batchSkipFirst bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Parse one location per input line",
	Long: `Reads locations from a file (or stdin) and writes one result per input,
in input order.

Examples:
  # One location per line
  geoparse batch --input locations.txt

  # Third column of a CSV with a header row, as CSV
  geoparse batch --input stores.csv --column 2 --skip-header --format csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		in := cmd.InOrStdin()
		if batchInput != "" && batchInput != "-" {
			f, err := os.Open(batchInput)
			if err != nil {
				return eris.Wrap(err, "batch: open input")
			}
			defer f.Close()
			in = f
		}

		inputs, err := readInputs(in, batchColumn, batchSkipFirst)
		if err != nil {
			return err
		}

		p, err := newParser()
		if err != nil {
			return err
		}
		results, err := parseAll(cmd.Context(), p, inputs, cfg.Batch.Concurrency)
		if err != nil {
			return err
		}

		w, err := newResultWriter(cmd.OutOrStdout(), cfg.Output.Format)
		if err != nil {
			return err
		}
		for _, r := range results {
			if err := w.Write(r); err != nil {
				return eris.Wrap(err, "batch: write result")
			}
		}
		return w.Flush()
	},
}

// readInputs returns the location strings of r. With column < 0 every
// non-blank line is one location; otherwise r is CSV and the given
// zero-based column is used.
func readInputs(r io.Reader, column int, skipHeader bool) ([]string, error) {
	var inputs []string
	if column < 0 {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if skipHeader {
				skipHeader = false
				continue
			}
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				inputs = append(inputs, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, eris.Wrap(err, "batch: read input")
		}
		return inputs, nil
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "batch: read csv row %d", row+1)
		}
		if row == 0 && skipHeader {
			continue
		}
		if column >= len(rec) {
			return nil, eris.Errorf("batch: row %d has %d columns, want column %d", row+1, len(rec), column)
		}
		inputs = append(inputs, rec[column])
	}
	return inputs, nil
}

// parseAll parses inputs concurrently and returns results in input order.
func parseAll(ctx context.Context, p *geoparse.Parser, inputs []string, concurrency int) ([]result, error) {
	zap.L().Info("processing batch",
		zap.Int("inputs", len(inputs)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = newResult(input, p.ParseLocation(input))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	empty := 0
	for _, r := range results {
		if r.Location.IsEmpty() {
			empty++
		}
	}
	zap.L().Info("batch complete",
		zap.Int("parsed", len(results)-empty),
		zap.Int("unrecognized", empty),
	)
	return results, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "file to read locations from (default: stdin)")
	batchCmd.Flags().IntVar(&batchColumn, "column", -1, "read CSV input and take this zero-based column (-1 = plain lines)")
	batchCmd.Flags().BoolVar(&batchSkipFirst, "skip-header", false, "skip the first line or row")
	rootCmd.AddCommand(batchCmd)
}
