package geoparse

import (
	"testing"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type ParserSuite struct {
	p *Parser
}

var _ = Suite(&ParserSuite{})

func (s *ParserSuite) SetUpSuite(c *C) {
	var err error
	s.p, err = New()
	c.Assert(err, IsNil)
	c.Assert(s.p, Not(IsNil))
}

func (s *ParserSuite) TestGazetteerLoaded(c *C) {
	g := s.p.Gazetteer()
	c.Assert(len(g.Countries()), Equals, 2)
	c.Assert(g.Country("US").Name, Equals, "United States")
	c.Assert(g.Country("ca").Name, Equals, "Canada")
	c.Assert(g.State("CA", "ON").Name, Equals, "Ontario")
	c.Assert(g.CityCount() > minCityCount, Equals, true)
}

func (s *ParserSuite) TestTorontoFull(c *C) {
	loc := s.p.ParseLocation("Toronto, ON, CA, M4E 3J1")
	c.Assert(loc.City.Name, Equals, "Toronto")
	c.Assert(loc.State.Code, Equals, "ON")
	c.Assert(loc.State.Name, Equals, "Ontario")
	c.Assert(loc.Country.Code, Equals, "CA")
	c.Assert(loc.Country.Name, Equals, "Canada")
	c.Assert(loc.Zipcode.Value, Equals, "M4E 3J1")
	c.Assert(loc.Remainder, HasLen, 0)
}

func (s *ParserSuite) TestHyphenPrefixWithStreet(c *C) {
	loc := s.p.ParseLocation("CA-ON-Oakville-3235 Dundas St W (Store# 04278)")
	c.Assert(loc.String(), Equals, "Oakville, ON, CA")
	c.Assert(loc.Zipcode, IsNil)
	c.Assert(loc.Remainder, DeepEquals, []string{"3235 Dundas St W", "Store# 04278"})
}

func (s *ParserSuite) TestTrailingStateCode(c *C) {
	loc := s.p.ParseLocation("Mercer Island, WA")
	c.Assert(loc.City.Name, Equals, "Mercer Island")
	c.Assert(loc.State.Code, Equals, "WA")
	c.Assert(loc.Country.Code, Equals, "US")
	c.Assert(loc.Zipcode, IsNil)
}

func (s *ParserSuite) TestCountryStateCityPrefix(c *C) {
	loc := s.p.ParseLocation("US-DE-Wilmington")
	c.Assert(loc.Country.Code, Equals, "US")
	c.Assert(loc.State.Code, Equals, "DE")
	c.Assert(loc.City.Name, Equals, "Wilmington")
}

func (s *ParserSuite) TestNothingRecognized(c *C) {
	loc := s.p.ParseLocation("Colleretto Giacosa")
	c.Assert(loc.IsEmpty(), Equals, true)
	c.Assert(loc.String(), Equals, "")
	c.Assert(loc.Remainder, DeepEquals, []string{"Colleretto Giacosa"})
}

func (s *ParserSuite) TestStreetNumberBeforeCity(c *C) {
	loc := s.p.ParseLocation("12345 Main St, Springfield, IL")
	c.Assert(loc.String(), Equals, "Springfield, IL, US")
	c.Assert(loc.Zipcode, IsNil)
	c.Assert(loc.Remainder, DeepEquals, []string{"12345 Main St"})
}

func (s *ParserSuite) TestZipPlusFourWithoutCommas(c *C) {
	loc := s.p.ParseLocation("Boston MA 02101-1234")
	c.Assert(loc.City.Name, Equals, "Boston")
	c.Assert(loc.State.Code, Equals, "MA")
	c.Assert(loc.Zipcode.Value, Equals, "02101-1234")
	c.Assert(loc.Remainder, HasLen, 0)
}

func (s *ParserSuite) TestCanadaNotCalifornia(c *C) {
	loc := s.p.ParseLocation("Sherwood Park, AB, CA, T8A 3H9")
	c.Assert(loc.City.Name, Equals, "Sherwood Park")
	c.Assert(loc.State.Code, Equals, "AB")
	c.Assert(loc.Country.Code, Equals, "CA")
	c.Assert(loc.Zipcode.Value, Equals, "T8A 3H9")
}

func (s *ParserSuite) TestRenderIsIdempotent(c *C) {
	for _, in := range []string{
		"Toronto, ON, CA, M4E 3J1",
		"US-DE-Wilmington",
		"Mercer Island, WA",
		"Washington, DC",
		"CA-ON-Oakville-3235 Dundas St W (Store# 04278)",
		"B - USA - FL - JACKSONVILLE - 9985 PRITCHARD RD",
	} {
		first := s.p.ParseLocation(in)
		second := s.p.ParseLocation(first.String())
		c.Check(second.String(), Equals, first.String(), Commentf("input %q", in))
	}
}

func (s *ParserSuite) TestDefaultIsShared(c *C) {
	a, err := Default()
	c.Assert(err, IsNil)
	b, err := Default()
	c.Assert(err, IsNil)
	c.Assert(a, Equals, b)
}
