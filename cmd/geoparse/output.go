package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/andreiashu/geoparse"
	"github.com/andreiashu/geoparse/internal/config"
)

// result pairs an input line with its parsed location.
type result struct {
	Input    string            `json:"input"`
	Rendered string            `json:"rendered"`
	Location geoparse.Location `json:"location"`
}

func newResult(input string, loc geoparse.Location) result {
	return result{Input: input, Rendered: loc.String(), Location: loc}
}

// resultWriter writes results in one output format.
type resultWriter interface {
	Write(r result) error
	Flush() error
}

func newResultWriter(w io.Writer, format string) (resultWriter, error) {
	switch format {
	case config.FormatText:
		return &textWriter{w: w}, nil
	case config.FormatJSON:
		return &jsonWriter{enc: json.NewEncoder(w)}, nil
	case config.FormatCSV:
		cw := &csvWriter{w: csv.NewWriter(w)}
		if err := cw.w.Write(csvHeader); err != nil {
			return nil, eris.Wrap(err, "write csv header")
		}
		return cw, nil
	default:
		return nil, eris.Errorf("unknown output format %q", format)
	}
}

type textWriter struct {
	w io.Writer
}

func (t *textWriter) Write(r result) error {
	line := r.Location.Full()
	if len(r.Location.Remainder) > 0 {
		line += " | " + strings.Join(r.Location.Remainder, "; ")
	}
	_, err := fmt.Fprintln(t.w, line)
	return err
}

func (t *textWriter) Flush() error { return nil }

// jsonWriter writes one JSON object per line.
type jsonWriter struct {
	enc *json.Encoder
}

func (j *jsonWriter) Write(r result) error {
	return j.enc.Encode(r)
}

func (j *jsonWriter) Flush() error { return nil }

var csvHeader = []string{"input", "city", "state", "state_name", "country", "zipcode", "remainder"}

type csvWriter struct {
	w *csv.Writer
}

func (c *csvWriter) Write(r result) error {
	loc := r.Location
	row := make([]string, len(csvHeader))
	row[0] = r.Input
	if loc.City != nil {
		row[1] = loc.City.Name
	}
	if loc.State != nil {
		row[2] = loc.State.Code
		row[3] = loc.State.Name
	}
	if loc.Country != nil {
		row[4] = loc.Country.Code
	}
	if loc.Zipcode != nil {
		row[5] = loc.Zipcode.Value
	}
	row[6] = strings.Join(loc.Remainder, "; ")
	return c.w.Write(row)
}

func (c *csvWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}
