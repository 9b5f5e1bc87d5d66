package geoparse_test

import (
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/andreiashu/geoparse"
)

func TestBlackboxParseLocation(t *testing.T) {
	p, err := geoparse.Default()
	require.NoError(t, err)

	loc := p.ParseLocation("Toronto, ON, CA, M4E 3J1")
	assert.Equal(t, "Toronto, ON, CA M4E 3J1", loc.Full())
	assert.Equal(t, "Ontario", loc.State.Name)
	assert.Equal(t, "Canada", loc.Country.Name)
}

func TestBlackboxBlankInput(t *testing.T) {
	p, err := geoparse.Default()
	require.NoError(t, err)

	for _, in := range []string{"", "   ", "\t\n", ",,,", " - - "} {
		loc := p.ParseLocation(in)
		assert.True(t, loc.IsEmpty(), "input %q", in)
		assert.Empty(t, loc.Remainder, "input %q", in)
	}
}

func TestBlackboxTruncation(t *testing.T) {
	p, err := geoparse.New(geoparse.WithMaxInputLen(10))
	require.NoError(t, err)

	ex := p.Explain("Toronto, QC, CA")
	assert.True(t, ex.Truncated)
	assert.Equal(t, "Toronto, Q", ex.Input)

	ex = p.Explain("Toronto")
	assert.False(t, ex.Truncated)

	// "é" occupies bytes 9 and 10 and straddles the cut.
	ex = p.Explain("Toronto, éON")
	assert.True(t, ex.Truncated)
	assert.Equal(t, "Toronto, ", ex.Input)
}

func TestBlackboxDefaultMaxInputLen(t *testing.T) {
	p, err := geoparse.Default()
	require.NoError(t, err)

	long := "Mercer Island, WA, " + strings.Repeat("x", 1000)
	ex := p.Explain(long)
	assert.True(t, ex.Truncated)
	assert.Len(t, ex.Input, geoparse.DefaultMaxInputLen)
	assert.Equal(t, "Mercer Island, WA, US", ex.Rendered)
}

func TestBlackboxConcurrentParse(t *testing.T) {
	p, err := geoparse.Default()
	require.NoError(t, err)

	inputs := map[string]string{
		"Toronto, ON, CA, M4E 3J1": "Toronto, ON, CA",
		"US-DE-Wilmington":         "Wilmington, DE, US",
		"Mercer Island, WA":        "Mercer Island, WA, US",
		"Vancouver, CA":            "Vancouver, BC, CA",
	}

	var wg sync.WaitGroup
	errs := make(chan string, 100)
	for i := 0; i < 25; i++ {
		for in, want := range inputs {
			in, want := in, want
			wg.Add(1)
			go func() {
				defer wg.Done()
				if got := p.ParseLocation(in).String(); got != want {
					errs <- in + ": " + got
				}
			}()
		}
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestBlackboxNewErrors(t *testing.T) {
	_, err := geoparse.New(geoparse.WithFuzzyDistance(-1))
	assert.Error(t, err)

	_, err = geoparse.New(geoparse.WithDataFS(nil))
	assert.Error(t, err)

	_, err = geoparse.New(geoparse.WithDataFS(fstest.MapFS{}))
	assert.Error(t, err)
}

func TestBlackboxLogsLoad(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p, err := geoparse.New(geoparse.WithLogger(zap.New(core)))
	require.NoError(t, err)

	require.Equal(t, 1, logs.FilterMessage("gazetteer loaded").Len())

	p.ParseLocation("Mercer Island, WA")
	entries := logs.FilterMessage("parsed location").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Mercer Island, WA, US", entries[0].ContextMap()["location"])
}

func TestBlackboxExplain(t *testing.T) {
	p, err := geoparse.Default()
	require.NoError(t, err)

	ex := p.Explain("Vancouver, CA")
	assert.Equal(t, "comma", ex.Style)
	require.Len(t, ex.Segments, 2)
	require.Len(t, ex.Candidates, 2)

	var labels []string
	for _, c := range ex.Candidates[1] {
		labels = append(labels, c.Label.String())
	}
	assert.Equal(t, []string{"country", "state"}, labels)
	assert.Equal(t, "Vancouver, BC, CA", ex.Rendered)
}

func TestBlackboxMatchPostal(t *testing.T) {
	p, err := geoparse.Default()
	require.NoError(t, err)

	var matches []geoparse.PostalMatch = p.Gazetteer().MatchPostal("k1a0b1")
	assert.Equal(t, []geoparse.PostalMatch{{Country: "CA", Value: "K1A 0B1"}}, matches)
	assert.Empty(t, p.Gazetteer().MatchPostal("Main St"))
}

func TestBlackboxPostalEdges(t *testing.T) {
	p, err := geoparse.Default()
	require.NoError(t, err)

	tests := []struct {
		input, full string
		remainder   []string
	}{
		{"Boston MA 02101-1234", "Boston, MA, US 02101-1234", nil},
		{"US-MA-Boston-02101-1234", "Boston, MA, US 02101-1234", nil},
		{"K1A 0B1 Ottawa", "Ottawa, ON, CA K1A 0B1", nil},
		{"90210 Sunset Blvd", "", []string{"90210 Sunset Blvd"}},
	}
	for _, tt := range tests {
		loc := p.ParseLocation(tt.input)
		assert.Equal(t, tt.full, loc.Full(), tt.input)
		assert.Equal(t, tt.remainder, loc.Remainder, tt.input)
	}
}
