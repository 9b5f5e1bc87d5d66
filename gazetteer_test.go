package geoparse

import (
	"testing"
	"testing/fstest"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyGazetteer = `
countries:
  - {code: US, name: United States, aliases: [USA]}
  - {code: CA, name: Canada}
states:
  US:
    - {code: WA, name: Washington}
    - {code: NY, name: New York}
  CA:
    - {code: ON, name: Ontario, aliases: [Ont]}
postal:
  US: '\d{5}'
`

func tinyFS(gazetteer, cities string) fstest.MapFS {
	return fstest.MapFS{
		gazetteerFile: &fstest.MapFile{Data: []byte(gazetteer)},
		citiesFile:    &fstest.MapFile{Data: []byte(cities)},
	}
}

func TestLoadGazetteerFromFS(t *testing.T) {
	cities := "# comment\n\nUS;WA;Seattle\nUS;NY;New York;NYC\nCA;ON;Toronto;T.O.\nUS;WA;Vancouver\n"
	g, err := LoadGazetteer(tinyFS(tinyGazetteer, cities))
	require.NoError(t, err)

	assert.Len(t, g.Countries(), 2)
	assert.Equal(t, 4, g.CityCount())
	assert.Len(t, g.States("US"), 2)
	assert.Equal(t, "Ontario", g.StatesByKey("ont")[0].Name)
	assert.Equal(t, "US", g.CountriesByKey("u.s.a")[0].Code)
	assert.Equal(t, "Toronto", g.CitiesByKey("t o")[0].Name)
	assert.Len(t, g.CitiesInState("us", "wa"), 2)
	assert.Equal(t, 2, g.maxCityWords)

	assert.True(t, g.IsCode("USA"))
	assert.True(t, g.IsCode("ON"))
	assert.False(t, g.IsCode("usa"))
	assert.False(t, g.IsCode("Ont"))

	require.Len(t, g.MatchPostal("98101"), 1)
	assert.Empty(t, g.MatchPostal("K1A 0B1"))
}

func TestLoadGazetteerErrors(t *testing.T) {
	tests := []struct {
		name      string
		gazetteer string
		cities    string
	}{
		{"bad yaml", "countries: [", ""},
		{"no countries", "states: {}", ""},
		{"duplicate country", "countries: [{code: US, name: A}, {code: us, name: B}]", ""},
		{"country without name", "countries: [{code: US}]", ""},
		{"states of unknown country", "countries: [{code: US, name: A}]\nstates: {MX: [{code: JA, name: Jalisco}]}", ""},
		{"duplicate state", "countries: [{code: US, name: A}]\nstates: {US: [{code: WA, name: W}, {code: WA, name: X}]}", ""},
		{"state without code", "countries: [{code: US, name: A}]\nstates: {US: [{name: W}]}", ""},
		{"postal of unknown country", "countries: [{code: US, name: A}]\npostal: {MX: '\\d{5}'}", ""},
		{"bad postal pattern", "countries: [{code: US, name: A}]\npostal: {US: '[0-9'}", ""},
		{"short city line", tinyGazetteer, "US;WA\n"},
		{"city in unknown state", tinyGazetteer, "US;ZZ;Nowhere\n"},
		{"empty city name", tinyGazetteer, "US;WA; \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGazetteer(tinyFS(tt.gazetteer, tt.cities))
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidGazetteer), "got %v", err)
		})
	}
}

func TestLoadGazetteerMissingFiles(t *testing.T) {
	_, err := LoadGazetteer(fstest.MapFS{})
	assert.Error(t, err)

	_, err = LoadGazetteer(fstest.MapFS{
		gazetteerFile: &fstest.MapFile{Data: []byte(tinyGazetteer)},
	})
	assert.Error(t, err)
}

func TestAliasKeysDeduplicate(t *testing.T) {
	keys := aliasKeys("QC", "Quebec", []string{"Québec", "PQ", "pq", ""})
	assert.Equal(t, []string{"qc", "quebec", "pq"}, keys)
}

func TestFuzzyCities(t *testing.T) {
	g := newTestParser(t).Gazetteer()

	names := func(cs []*KnownCity) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Toronto"}, names(g.fuzzyCities("torontoo", 1)))
	assert.Contains(t, names(g.fuzzyCities("seatle", 1)), "Seattle")
	// Exact matches are left to CitiesByKey.
	assert.Empty(t, g.fuzzyCities("toronto", 1))
	assert.Empty(t, g.fuzzyCities("torontoo", 0))
	assert.Empty(t, g.fuzzyCities("", 2))
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		query, candidate string
		maxDist          int
		want             bool
	}{
		{"seattle", "seattle", 0, true},
		{"seatle", "seattle", 0, false},
		{"seatle", "seattle", 1, true},
		{"seatl", "seattle", 1, false},
		{"seatl", "seattle", 2, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fuzzyMatch(tt.query, tt.candidate, tt.maxDist), "%s/%s/%d", tt.query, tt.candidate, tt.maxDist)
	}
}
