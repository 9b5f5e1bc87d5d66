package geoparse

import "strings"

// City is the city of a parsed location.
type City struct {
	Name string `json:"name"`
}

// Zipcode is a canonical US ZIP or Canadian postal code.
type Zipcode struct {
	Value string `json:"value"`
}

// Location is the structured reading of a location string. Every field is
// optional; Remainder holds the input text no field consumed, in input order.
type Location struct {
	City      *City          `json:"city,omitempty"`
	State     *StateProvince `json:"state,omitempty"`
	Country   *Country       `json:"country,omitempty"`
	Zipcode   *Zipcode       `json:"zipcode,omitempty"`
	Remainder []string       `json:"remainder,omitempty"`
}

// String renders the location as "City, StateCode, CountryCode", omitting
// unset fields and their separators.
func (l Location) String() string {
	parts := make([]string, 0, 3)
	if l.City != nil {
		parts = append(parts, l.City.Name)
	}
	if l.State != nil {
		parts = append(parts, l.State.Code)
	}
	if l.Country != nil {
		parts = append(parts, l.Country.Code)
	}
	return strings.Join(parts, ", ")
}

// Full is String followed by the postal code, when there is one.
func (l Location) Full() string {
	s := l.String()
	if l.Zipcode == nil {
		return s
	}
	if s == "" {
		return l.Zipcode.Value
	}
	return s + " " + l.Zipcode.Value
}

// IsEmpty reports whether no location field was recognized.
func (l Location) IsEmpty() bool {
	return l.City == nil && l.State == nil && l.Country == nil && l.Zipcode == nil
}

// assemble turns a resolution into a Location. Country and state are the
// canonical gazetteer entities, never the matched text.
func assemble(segs *Segmentation, res resolution) Location {
	var loc Location
	if res.Country != nil {
		c := *res.Country
		c.Aliases = nil
		loc.Country = &c
	}
	if res.State != nil {
		s := *res.State
		s.Aliases = nil
		loc.State = &s
	}
	switch {
	case res.City != nil:
		loc.City = &City{Name: res.City.Name}
	case res.cityText != "":
		loc.City = &City{Name: res.cityText}
	}
	if res.Zipcode != "" {
		loc.Zipcode = &Zipcode{Value: res.Zipcode}
	}
	loc.Remainder = remainder(segs, res.consumed)
	return loc
}

// remainder rebuilds the unconsumed input. A group nothing was taken from is
// emitted whole with its original spacing; otherwise each run of unconsumed
// text between consumed ranges becomes one fragment.
func remainder(segs *Segmentation, consumed []span) []string {
	var out []string
	for gid, g := range segs.groups {
		var members []int
		touched := false
		for i, seg := range segs.Segments {
			if seg.Group != gid {
				continue
			}
			members = append(members, i)
			if consumed[i] != (span{}) {
				touched = true
			}
		}
		if len(members) == 0 {
			continue
		}
		if !touched {
			if text := fragment(segs, g.span, g.paren); text != "" {
				out = append(out, text)
			}
			continue
		}

		run := span{-1, -1}
		flush := func() {
			if run.start >= 0 {
				if text := fragment(segs, run, g.paren); text != "" {
					out = append(out, text)
				}
			}
			run = span{-1, -1}
		}
		extend := func(s span) {
			if s.end <= s.start {
				return
			}
			if run.start < 0 {
				run.start = s.start
			}
			run.end = s.end
		}
		for _, i := range members {
			seg := segs.Segments[i]
			c := consumed[i]
			if c == (span{}) {
				extend(span{seg.Start, seg.End})
				continue
			}
			extend(span{seg.Start, c.start})
			flush()
			extend(span{c.end, seg.End})
		}
		flush()
	}
	return out
}

// fragment returns the text of s with edge punctuation trimmed. A run cut
// out of a nested parenthetical can leave parentheses unbalanced; those are
// dropped.
func fragment(segs *Segmentation, s span, paren bool) string {
	t, ok := trimSpan(segs.Raw, s)
	if !ok {
		return ""
	}
	text := segs.text(t, paren)
	if strings.Count(text, "(") != strings.Count(text, ")") {
		text = strings.NewReplacer("(", " ", ")", " ").Replace(text)
		text = strings.Join(strings.Fields(text), " ")
	}
	return text
}
