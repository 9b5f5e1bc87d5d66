package geoparse

import (
	"strings"
	"unicode/utf8"
)

// Label is the role a segment may play in a location.
type Label int

const (
	Unclassified Label = iota
	LabelCountry
	LabelState
	LabelCity
	LabelZipcode
)

func (l Label) String() string {
	switch l {
	case LabelCountry:
		return "country"
	case LabelState:
		return "state"
	case LabelCity:
		return "city"
	case LabelZipcode:
		return "zipcode"
	default:
		return "unclassified"
	}
}

// MarshalText renders the label by name in JSON and CSV output.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Confidence is how strongly a candidate is believed.
type Confidence float64

const (
	ConfidenceLow    Confidence = 0.3
	ConfidenceMedium Confidence = 0.6
	ConfidenceHigh   Confidence = 1.0
)

// Origin records how a candidate was found.
type Origin int

const (
	OriginAlias   Origin = iota // exact match on a name, code or alias
	OriginPattern               // postal code shape
	OriginFuzzy                 // within edit distance of a city name
)

func (o Origin) String() string {
	switch o {
	case OriginPattern:
		return "pattern"
	case OriginFuzzy:
		return "fuzzy"
	default:
		return "alias"
	}
}

// MarshalText renders the origin by name.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Candidate is one possible reading of a segment. A segment may own
// several candidates, possibly with different labels.
type Candidate struct {
	Segment    int            `json:"segment"`
	Label      Label          `json:"label"`
	Country    *Country       `json:"country,omitempty"`
	State      *StateProvince `json:"state,omitempty"`
	City       *KnownCity     `json:"city,omitempty"`
	Zipcode    string         `json:"zipcode,omitempty"`
	Confidence Confidence     `json:"confidence"`
	Origin     Origin         `json:"origin"`
}

// countryCode returns the country the candidate belongs to.
func (c Candidate) countryCode() string {
	switch c.Label {
	case LabelCountry:
		return c.Country.Code
	case LabelState:
		return c.State.Country
	case LabelCity:
		return c.City.Country
	case LabelZipcode:
		if c.Country != nil {
			return c.Country.Code
		}
	}
	return ""
}

// minCityRunes keeps two-letter fragments from being read as cities.
const minCityRunes = 3

// classifier labels segments against a gazetteer. It holds no per-call
// state and is safe for concurrent use.
type classifier struct {
	gaz           *Gazetteer
	fuzzyDistance int
}

// classify returns every candidate reading of seg. It never mutates seg.
func (c *classifier) classify(seg Segment) []Candidate {
	key := seg.Normalized
	if key == "" {
		return nil
	}

	var out []Candidate
	countries := c.gaz.countryKey[key]
	for _, country := range countries {
		conf := ConfidenceHigh
		if len(countries) > 1 {
			conf = ConfidenceMedium
		}
		out = append(out, Candidate{Segment: seg.Index, Label: LabelCountry, Country: country, Confidence: conf})
	}

	states := c.gaz.stateKey[key]
	ambiguous := statesSpanCountries(states)
	for _, state := range states {
		conf := ConfidenceHigh
		if ambiguous {
			conf = ConfidenceMedium
		}
		out = append(out, Candidate{Segment: seg.Index, Label: LabelState, State: state, Confidence: conf})
	}

	// Parenthetical asides only ever confirm a region already named.
	if seg.Parenthetical {
		for i := range out {
			out[i].Confidence = min(out[i].Confidence, ConfidenceMedium)
		}
		return out
	}

	var matches []PostalMatch
	if !seg.NumberPrefix {
		matches = c.gaz.MatchPostal(seg.Text)
	}
	for _, m := range matches {
		conf := ConfidenceHigh
		if len(matches) > 1 {
			conf = ConfidenceMedium
		}
		out = append(out, Candidate{
			Segment:    seg.Index,
			Label:      LabelZipcode,
			Country:    c.gaz.Country(m.Country),
			Zipcode:    m.Value,
			Confidence: conf,
			Origin:     OriginPattern,
		})
	}
	if len(matches) > 0 {
		return out
	}

	switch {
	case len(countries) == 0 && len(states) == 0:
		if utf8.RuneCountInString(key) < minCityRunes || !hasLetter(key) {
			return out
		}
		out = append(out, c.cityCandidates(seg, key)...)
	case len(countries) == 0 && namedState(states, key):
		// "New York" or "Washington" may be the city as well as the state.
		for _, city := range c.gaz.cityKey[key] {
			out = append(out, Candidate{Segment: seg.Index, Label: LabelCity, City: city, Confidence: ConfidenceLow})
		}
	}
	return out
}

func (c *classifier) cityCandidates(seg Segment, key string) []Candidate {
	var out []Candidate
	if cities := c.gaz.cityKey[key]; len(cities) > 0 {
		conf := ConfidenceMedium
		if len(cities) > 1 {
			conf = ConfidenceLow
		}
		for _, city := range cities {
			out = append(out, Candidate{Segment: seg.Index, Label: LabelCity, City: city, Confidence: conf})
		}
		return out
	}

	// Fuzzy matching on short keys produces too many false hits.
	if c.fuzzyDistance > 0 && utf8.RuneCountInString(key) > 4 {
		for _, city := range c.gaz.fuzzyCities(key, c.fuzzyDistance) {
			out = append(out, Candidate{Segment: seg.Index, Label: LabelCity, City: city, Confidence: ConfidenceLow, Origin: OriginFuzzy})
		}
	}
	return out
}

// classifyAll classifies every segment of a segmentation.
func (c *classifier) classifyAll(s *Segmentation) [][]Candidate {
	out := make([][]Candidate, len(s.Segments))
	for i, seg := range s.Segments {
		out[i] = c.classify(seg)
	}
	return out
}

// namedState reports whether key matched a state by name rather than by
// its code.
func namedState(states []*StateProvince, key string) bool {
	for _, s := range states {
		if key == strings.ToLower(s.Code) {
			return false
		}
	}
	return len(states) > 0
}
