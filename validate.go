package geoparse

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Thresholds for reference data integrity checks.
const (
	minCountryCount = 2
	minStateCount   = 60
	minCityCount    = 200
)

// knownLocation is an input with a known reading, used for functional
// validation of the reference data.
type knownLocation struct {
	input    string
	rendered string
	zipcode  string
}

// knownLocations are chosen to exercise every field and both delimiter
// styles.
var knownLocations = []knownLocation{
	{"Toronto, ON, CA, M4E 3J1", "Toronto, ON, CA", "M4E 3J1"},
	{"Mercer Island, WA", "Mercer Island, WA, US", ""},
	{"US-DE-Wilmington", "Wilmington, DE, US", ""},
	{"CA-ON-Oakville-3235 Dundas St W", "Oakville, ON, CA", ""},
	{"Sherwood Park, AB, CA, T8A 3H9", "Sherwood Park, AB, CA", "T8A 3H9"},
	{"Los Angeles, CA", "Los Angeles, CA, US", ""},
	{"New York, NY, US", "New York, NY, US", ""},
}

// Validate checks the reference data for completeness and runs the known
// locations through the parser. It returns the first failure.
func (p *Parser) Validate() error {
	g := p.gaz
	if n := len(g.countries); n < minCountryCount {
		return eris.Errorf("country count too low: got %d, want >= %d", n, minCountryCount)
	}
	states := 0
	for _, c := range g.countries {
		states += len(g.States(c.Code))
	}
	if states < minStateCount {
		return eris.Errorf("state count too low: got %d, want >= %d", states, minStateCount)
	}
	if n := g.CityCount(); n < minCityCount {
		return eris.Errorf("city count too low: got %d, want >= %d", n, minCityCount)
	}
	p.log.Info("reference data OK",
		zap.Int("countries", len(g.countries)),
		zap.Int("states", states),
		zap.Int("cities", g.CityCount()),
	)

	for _, tc := range knownLocations {
		loc := p.ParseLocation(tc.input)
		if got := loc.String(); got != tc.rendered {
			return eris.Errorf("parse(%q) = %q, want %q", tc.input, got, tc.rendered)
		}
		got := ""
		if loc.Zipcode != nil {
			got = loc.Zipcode.Value
		}
		if got != tc.zipcode {
			return eris.Errorf("parse(%q) zipcode = %q, want %q", tc.input, got, tc.zipcode)
		}
	}
	p.log.Info("known locations OK", zap.Int("count", len(knownLocations)))
	return nil
}
