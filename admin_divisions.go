package geoparse

import "strings"

// State returns the division with the given code in a country, or nil.
func (g *Gazetteer) State(country, code string) *StateProvince {
	if divisions, ok := g.stateIdx[strings.ToUpper(country)]; ok {
		return divisions[strings.ToUpper(code)]
	}
	return nil
}

// States returns the divisions of a country in gazetteer order.
func (g *Gazetteer) States(country string) []*StateProvince {
	return g.states[strings.ToUpper(country)]
}

// StatesByKey returns the divisions one of whose aliases matches text.
// The result may span countries.
func (g *Gazetteer) StatesByKey(text string) []*StateProvince {
	return g.stateKey[normalizeKey(text)]
}

// IsState checks if a code is a valid division for a specific country.
func (g *Gazetteer) IsState(country, code string) bool {
	return g.State(country, code) != nil
}

// StateCountry returns the country code if the given code is a known
// division. For codes existing in several countries it returns "".
// Use IsState with a known country for precise matching.
// Examples: "TX" -> "US", "ON" -> "CA"
func (g *Gazetteer) StateCountry(code string) string {
	code = strings.ToUpper(code)
	var match string
	for _, country := range g.countries {
		if g.IsState(country.Code, code) {
			if match != "" {
				return ""
			}
			match = country.Code
		}
	}
	return match
}

// StateName returns the name of a division given country and division code.
func (g *Gazetteer) StateName(country, code string) string {
	if s := g.State(country, code); s != nil {
		return s.Name
	}
	return ""
}

// statesSpanCountries reports whether the divisions belong to more than one
// country, which makes a match on them ambiguous.
func statesSpanCountries(states []*StateProvince) bool {
	if len(states) < 2 {
		return false
	}
	for _, s := range states[1:] {
		if s.Country != states[0].Country {
			return true
		}
	}
	return false
}
