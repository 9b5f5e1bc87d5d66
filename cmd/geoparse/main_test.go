package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreiashu/geoparse"
	"github.com/andreiashu/geoparse/internal/config"
)

func testParser(t *testing.T) *geoparse.Parser {
	t.Helper()
	p, err := geoparse.Default()
	require.NoError(t, err)
	return p
}

func TestReadInputsLines(t *testing.T) {
	in := "Toronto, ON\n\n  Mercer Island, WA  \n"
	got, err := readInputs(strings.NewReader(in), -1, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Toronto, ON", "Mercer Island, WA"}, got)

	got, err = readInputs(strings.NewReader("location\nUS-DE-Wilmington\n"), -1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"US-DE-Wilmington"}, got)
}

func TestReadInputsCSV(t *testing.T) {
	in := "id,store,location\n1,A,\"Toronto, ON, CA\"\n2,B,US-DE-Wilmington\n"
	got, err := readInputs(strings.NewReader(in), 2, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Toronto, ON, CA", "US-DE-Wilmington"}, got)

	_, err = readInputs(strings.NewReader(in), 5, true)
	assert.Error(t, err)

	_, err = readInputs(strings.NewReader("a,\"b\n"), 0, false)
	assert.Error(t, err)
}

func TestParseAllKeepsOrder(t *testing.T) {
	p := testParser(t)
	inputs := []string{
		"Toronto, ON, CA, M4E 3J1",
		"US-DE-Wilmington",
		"Colleretto Giacosa",
		"Mercer Island, WA",
		"Vancouver, CA",
	}
	results, err := parseAll(context.Background(), p, inputs, 2)
	require.NoError(t, err)
	require.Len(t, results, len(inputs))
	for i, r := range results {
		assert.Equal(t, inputs[i], r.Input)
		assert.Equal(t, p.ParseLocation(inputs[i]).String(), r.Rendered)
	}
}

func TestParseAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := parseAll(ctx, testParser(t), []string{"Toronto, ON"}, 1)
	assert.Error(t, err)
}

func TestResultWriters(t *testing.T) {
	p := testParser(t)
	r := newResult("CA-ON-Oakville-3235 Dundas St W", p.ParseLocation("CA-ON-Oakville-3235 Dundas St W"))

	var buf bytes.Buffer
	w, err := newResultWriter(&buf, config.FormatText)
	require.NoError(t, err)
	require.NoError(t, w.Write(r))
	require.NoError(t, w.Flush())
	assert.Equal(t, "Oakville, ON, CA | 3235 Dundas St W\n", buf.String())

	buf.Reset()
	w, err = newResultWriter(&buf, config.FormatCSV)
	require.NoError(t, err)
	require.NoError(t, w.Write(r))
	require.NoError(t, w.Flush())
	assert.Equal(t,
		"input,city,state,state_name,country,zipcode,remainder\n"+
			"CA-ON-Oakville-3235 Dundas St W,Oakville,ON,Ontario,CA,,3235 Dundas St W\n",
		buf.String())

	buf.Reset()
	w, err = newResultWriter(&buf, config.FormatJSON)
	require.NoError(t, err)
	require.NoError(t, w.Write(r))
	var decoded struct {
		Input    string `json:"input"`
		Rendered string `json:"rendered"`
		Location struct {
			City struct {
				Name string `json:"name"`
			} `json:"city"`
		} `json:"location"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Oakville, ON, CA", decoded.Rendered)
	assert.Equal(t, "Oakville", decoded.Location.City.Name)

	_, err = newResultWriter(&buf, "xml")
	assert.Error(t, err)
}

func TestWriteExplanation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeExplanation(&buf, testParser(t).Explain("Vancouver, CA")))
	out := buf.String()
	assert.Contains(t, out, `style:  comma`)
	assert.Contains(t, out, `[1] "CA" group=1`)
	assert.Contains(t, out, "CA.CA California")
	assert.Contains(t, out, "result: Vancouver, BC, CA")
}

func TestParseCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"parse", "Toronto, ON, CA, M4E 3J1", "Colleretto Giacosa"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "Toronto, ON, CA M4E 3J1\n | Colleretto Giacosa\n", out.String())

	out.Reset()
	rootCmd.SetArgs([]string{"validate"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "reference data OK\n", out.String())
}
