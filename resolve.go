package geoparse

import "strings"

// resolution is the single coherent reading chosen for a segmentation.
// Segment indexes are -1 for fields that were inferred rather than read.
type resolution struct {
	Country *Country
	State   *StateProvince
	City    *KnownCity // nil when the city was taken from input text only
	// cityText is the observed city text when City is nil.
	cityText string
	Zipcode  string

	countrySeg, stateSeg, citySeg, zipSeg int

	// cityEntries holds every gazetteer entry the city segment matched
	// consistently; state is inferred from the city only when they agree.
	cityEntries []*KnownCity

	// consumed[i] is the byte range of segment i claimed by a field. The zero
	// span means the segment is unclaimed.
	consumed []span
}

// resolver commits candidates to fields in one deterministic pass. It never
// backtracks and never fails.
type resolver struct {
	gaz   *Gazetteer
	segs  *Segmentation
	orig  [][]Candidate // as classified
	cands [][]Candidate // narrowed as fields are committed
	res   resolution
}

func resolve(gaz *Gazetteer, segs *Segmentation, cands [][]Candidate) resolution {
	r := &resolver{
		gaz:   gaz,
		segs:  segs,
		orig:  cands,
		cands: make([][]Candidate, len(cands)),
		res: resolution{
			countrySeg: -1,
			stateSeg:   -1,
			citySeg:    -1,
			zipSeg:     -1,
			consumed:   make([]span, len(segs.Segments)),
		},
	}
	// Filtering below must not touch the caller's candidate lists.
	for i := range cands {
		r.cands[i] = append([]Candidate(nil), cands[i]...)
	}

	r.seed()
	r.resolveCountryState()
	r.fillCity()
	r.inferFromCity()
	r.fillZipcode()
	return r.res
}

func (r *resolver) claimed(i int) bool {
	return r.res.consumed[i] != span{}
}

func (r *resolver) claim(i int) {
	seg := r.segs.Segments[i]
	r.res.consumed[i] = span{seg.Start, seg.End}
}

func (r *resolver) release(i int) {
	r.res.consumed[i] = span{}
}

func (r *resolver) setCountry(c *Country, seg int) {
	if c == nil {
		return
	}
	r.res.Country = c
	r.res.countrySeg = seg
	if seg >= 0 {
		r.claim(seg)
	}
}

func (r *resolver) setState(s *StateProvince, seg int) {
	if s == nil {
		return
	}
	r.res.State = s
	r.res.stateSeg = seg
	if seg >= 0 {
		r.claim(seg)
	}
}

func (r *resolver) consistentCountry(code string) bool {
	return r.res.Country == nil || r.res.Country.Code == code
}

func (r *resolver) consistentCity(city *KnownCity) bool {
	if !r.consistentCountry(city.Country) {
		return false
	}
	return r.res.State == nil || (r.res.State.Country == city.Country && r.res.State.Code == city.State)
}

// candidates returns the candidates of segment i carrying label l.
func (r *resolver) candidates(i int, l Label) []Candidate {
	var out []Candidate
	for _, c := range r.cands[i] {
		if c.Label == l {
			out = append(out, c)
		}
	}
	return out
}

// seed commits every segment holding exactly one high-confidence
// Country or State reading. The first reading per field wins; later ones
// stay unclaimed unless they win the state contest.
func (r *resolver) seed() {
	for i := range r.segs.Segments {
		var high []Candidate
		for _, c := range r.cands[i] {
			if c.Confidence == ConfidenceHigh && c.Label != LabelZipcode {
				high = append(high, c)
			}
		}
		if len(high) != 1 {
			continue
		}

		switch c := high[0]; c.Label {
		case LabelCountry:
			switch {
			case r.res.Country != nil:
			case r.res.State == nil || r.res.State.Country == c.Country.Code:
				r.setCountry(c.Country, i)
			default:
				r.contestCountry(i, c.Country)
			}
		case LabelState:
			switch {
			case r.res.State == nil && r.consistentCountry(c.State.Country):
				r.setState(c.State, i)
			case r.res.State != nil:
				r.contestState(i, c.State)
			}
		}
	}
}

// contestState handles a second state reading when the slot is taken. If
// the holder's text is also a city of the contender's state, as "New York"
// is in "New York, NY" or "Washington" in "Washington, DC", the holder gives
// up the state and is left to be read as the city.
func (r *resolver) contestState(i int, contender *StateProvince) {
	holder := r.res.stateSeg
	if holder < 0 || !r.consistentCountry(contender.Country) {
		return
	}
	for _, c := range r.candidates(holder, LabelCity) {
		if c.City.Country == contender.Country && c.City.State == contender.Code {
			r.release(holder)
			r.setState(contender, i)
			return
		}
	}
}

// contestCountry handles an explicit country that contradicts the state
// already seeded. A state read from a name that is also a city in that
// country ("Ontario, US") gives way, and its segment is left to be read as
// the city.
func (r *resolver) contestCountry(i int, contender *Country) {
	holder := r.res.stateSeg
	if holder < 0 {
		return
	}
	for _, c := range r.candidates(holder, LabelCity) {
		if c.City.Country == contender.Code {
			r.release(holder)
			r.res.State, r.res.stateSeg = nil, -1
			r.setCountry(contender, i)
			return
		}
	}
}

// resolveCountryState settles the Country and State fields against each
// other: a committed country filters state readings, a committed state
// implies its country.
func (r *resolver) resolveCountryState() {
	r.restrict()
	if r.res.State == nil {
		r.pickState()
	}
	if r.res.Country == nil {
		if r.res.State != nil {
			r.setCountry(r.gaz.Country(r.res.State.Country), -1)
		} else {
			r.pickCountry()
		}
	}
	r.restrict()
	r.bindCountry()
}

// restrict drops readings of unclaimed segments that contradict the
// committed country or state.
func (r *resolver) restrict() {
	if r.res.Country == nil && r.res.State == nil {
		return
	}
	for i := range r.cands {
		if r.claimed(i) {
			continue
		}
		kept := r.cands[i][:0]
		for _, c := range r.cands[i] {
			if code := c.countryCode(); code != "" && !r.consistentCountry(code) {
				continue
			}
			if c.Label == LabelCity && !r.consistentCity(c.City) {
				continue
			}
			kept = append(kept, c)
		}
		r.cands[i] = kept
	}
}

// pickState commits the first unclaimed segment with a surviving state
// reading. A segment that is also a country reading ("CA") is settled by
// preferCountry; if that picks the country, the search continues.
func (r *resolver) pickState() {
	for i := range r.segs.Segments {
		if r.claimed(i) {
			continue
		}
		states := r.candidates(i, LabelState)
		if len(states) == 0 {
			continue
		}
		if countries := r.candidates(i, LabelCountry); len(countries) > 0 && r.preferCountry(i, countries[0].Country, states) {
			if r.res.Country == nil {
				r.setCountry(countries[0].Country, i)
				r.restrict()
			}
			continue
		}
		r.setState(r.chooseState(i, states), i)
		return
	}
}

// pickCountry commits the first unclaimed segment with a country reading.
func (r *resolver) pickCountry() {
	for i := range r.segs.Segments {
		if r.claimed(i) {
			continue
		}
		if countries := r.candidates(i, LabelCountry); len(countries) > 0 {
			r.setCountry(countries[0].Country, i)
			r.restrict()
			return
		}
	}
}

// bindCountry claims the segment that names an inferred country, so "CA" in
// "Sherwood Park, AB, CA" is consumed once AB has implied Canada.
func (r *resolver) bindCountry() {
	if r.res.Country == nil || r.res.countrySeg >= 0 {
		return
	}
	for i := range r.segs.Segments {
		if r.claimed(i) {
			continue
		}
		for _, c := range r.candidates(i, LabelCountry) {
			if c.Country.Code == r.res.Country.Code {
				r.setCountry(r.res.Country, i)
				return
			}
		}
	}
}

// hints collects the countries and states that other segments point at
// through their city and postal code readings.
type hints struct {
	countries map[string]bool
	states    map[string]bool // "CC.ST"
}

func (r *resolver) hintsExcept(skip int) hints {
	h := hints{countries: map[string]bool{}, states: map[string]bool{}}
	for i := range r.segs.Segments {
		if i == skip || r.claimed(i) {
			continue
		}
		for _, c := range r.cands[i] {
			switch c.Label {
			case LabelCity:
				h.countries[c.City.Country] = true
				h.states[c.City.Country+"."+c.City.State] = true
			case LabelZipcode:
				h.countries[c.Country.Code] = true
			}
		}
	}
	return h
}

// preferCountry decides whether an ambiguous segment that reads as both a
// country and a state should be the country. Readings backed by the other
// segments win; otherwise a leading code that prefixes more text is the
// country and anything else is the state.
func (r *resolver) preferCountry(i int, country *Country, states []Candidate) bool {
	h := r.hintsExcept(i)
	stateBacked := false
	for _, s := range states {
		if h.states[s.State.Country+"."+s.State.Code] {
			stateBacked = true
		}
	}
	countryBacked := h.countries[country.Code]
	if stateBacked != countryBacked {
		return countryBacked
	}

	if !r.leading(i) {
		return false
	}
	next := r.nextOpen(i)
	if next < 0 {
		return false
	}
	return r.segs.Style != StyleComma || len(r.candidates(next, LabelState)) > 0
}

// chooseState picks among state readings that span countries.
func (r *resolver) chooseState(i int, states []Candidate) *StateProvince {
	if len(states) == 1 {
		return states[0].State
	}
	h := r.hintsExcept(i)
	for _, s := range states {
		if h.states[s.State.Country+"."+s.State.Code] {
			return s.State
		}
	}
	for _, s := range states {
		if h.countries[s.State.Country] {
			return s.State
		}
	}
	return states[0].State
}

// leading reports whether segment i is the first non-parenthetical segment.
func (r *resolver) leading(i int) bool {
	for j := 0; j < i; j++ {
		if !r.segs.Segments[j].Parenthetical {
			return false
		}
	}
	return !r.segs.Segments[i].Parenthetical
}

// nextOpen returns the next unclaimed non-parenthetical segment after i.
func (r *resolver) nextOpen(i int) int {
	for j := i + 1; j < len(r.segs.Segments); j++ {
		if !r.claimed(j) && !r.segs.Segments[j].Parenthetical {
			return j
		}
	}
	return -1
}

// fillCity commits the city: first a gazetteer city consistent with the
// committed region, then a city named inside the positional city segment,
// then the positional segment's text itself.
func (r *resolver) fillCity() {
	best, bestConf := -1, Confidence(0)
	var entries []*KnownCity
	for i, seg := range r.segs.Segments {
		if r.claimed(i) || seg.Parenthetical {
			continue
		}
		var found []*KnownCity
		conf := Confidence(0)
		for _, c := range r.candidates(i, LabelCity) {
			if r.consistentCity(c.City) {
				found = append(found, c.City)
				conf = max(conf, c.Confidence)
			}
		}
		if len(found) > 0 && conf > bestConf {
			best, bestConf, entries = i, conf, found
		}
	}
	if best >= 0 {
		r.res.City = entries[0]
		r.res.cityEntries = entries
		r.res.citySeg = best
		r.claim(best)
		return
	}

	if !r.hasContext() {
		return
	}
	p := r.positionalCity()
	if p < 0 {
		return
	}
	if city, sub, ok := r.containedCity(p); ok {
		r.res.City = city
		r.res.cityEntries = []*KnownCity{city}
		r.res.citySeg = p
		r.res.consumed[p] = r.absorbRegion(p, city, sub)
		return
	}
	seg := r.segs.Segments[p]
	if hasDigit(seg.Text) {
		return
	}
	if name := cleanCityName(seg.Text); name != "" {
		r.res.cityText = name
		r.res.citySeg = p
		r.claim(p)
	}
}

// hasContext reports whether anything locates the input in a region. Free
// text is only taken as a city when it is.
func (r *resolver) hasContext() bool {
	if r.res.Country != nil || r.res.State != nil {
		return true
	}
	for i := range r.segs.Segments {
		if !r.claimed(i) && len(r.candidates(i, LabelZipcode)) > 0 {
			return true
		}
	}
	return false
}

// open reports whether segment i may still be taken as free-text city. A
// segment that read as a region or postal code is never a city, even when
// that reading lost.
func (r *resolver) open(i int) bool {
	seg := r.segs.Segments[i]
	if r.claimed(i) || seg.Parenthetical || !hasLetter(seg.Text) {
		return false
	}
	for _, c := range r.orig[i] {
		if c.Label != LabelCity {
			return false
		}
	}
	return true
}

// positionalCity returns the segment the delimiter style designates as the
// city. Hyphenated input reads prefix first ("US-DE-Wilmington"), so the
// city follows the last region segment; otherwise it is the first free
// segment.
func (r *resolver) positionalCity() int {
	if r.segs.Style == StyleHyphen {
		anchor := max(r.res.countrySeg, r.res.stateSeg)
		for i := anchor + 1; i < len(r.segs.Segments); i++ {
			if r.open(i) {
				return i
			}
		}
		for i := 0; i < anchor; i++ {
			if r.open(i) {
				return i
			}
		}
		return -1
	}
	for i := range r.segs.Segments {
		if r.open(i) {
			return i
		}
	}
	return -1
}

// cityToken is a word of a segment with its byte range in the input.
type cityToken struct {
	span
	key string
}

// containedCity looks for a known city inside segment p, longest run of
// words first, then leftmost. "BULLHEAD CITY FORT MOHAVE" yields Bullhead
// City; the other words stay in the remainder.
func (r *resolver) containedCity(p int) (*KnownCity, span, bool) {
	seg := r.segs.Segments[p]
	text := r.segs.masked
	var toks []cityToken
	for _, t := range tokens(text, span{seg.Start, seg.End}) {
		if key := normalizeKey(text[t.start:t.end]); key != "" {
			toks = append(toks, cityToken{span: t, key: key})
		}
	}

	for size := min(len(toks), r.gaz.maxCityWords); size > 0; size-- {
		for start := 0; start+size <= len(toks); start++ {
			keys := make([]string, size)
			for k := range keys {
				keys[k] = toks[start+k].key
			}
			for _, city := range r.gaz.cityKey[strings.Join(keys, " ")] {
				if r.consistentCity(city) {
					return city, span{toks[start].start, toks[start+size-1].end}, true
				}
			}
		}
	}
	return nil, span{}, false
}

// absorbRegion widens the city's range within segment p over the words on
// either side when they name the city's own state or country, so "Toronto
// Canada" is consumed whole. Fields still unset are filled from those words.
func (r *resolver) absorbRegion(p int, city *KnownCity, sub span) span {
	seg := r.segs.Segments[p]
	text := r.segs.masked
	if before, ok := trimSpan(text, span{seg.Start, sub.start}); ok && r.namesRegionOf(city, text[before.start:before.end]) {
		sub.start = seg.Start
	}
	if after, ok := trimSpan(text, span{sub.end, seg.End}); ok && r.namesRegionOf(city, text[after.start:after.end]) {
		sub.end = seg.End
	}
	return sub
}

// namesRegionOf reports whether text names city's state or country.
func (r *resolver) namesRegionOf(city *KnownCity, text string) bool {
	key := normalizeKey(text)
	for _, c := range r.gaz.countryKey[key] {
		if c.Code == city.Country {
			if r.res.Country == nil {
				r.setCountry(c, -1)
			}
			return true
		}
	}
	for _, s := range r.gaz.stateKey[key] {
		if s.Country == city.Country && s.Code == city.State {
			if r.res.State == nil {
				r.setState(s, -1)
			}
			return true
		}
	}
	return false
}

// inferFromCity fills state and country from a gazetteer city when every
// entry the city matched agrees on them.
func (r *resolver) inferFromCity() {
	entries := r.res.cityEntries
	if len(entries) == 0 {
		return
	}
	sameState, sameCountry := true, true
	for _, e := range entries[1:] {
		if e.Country != entries[0].Country {
			sameCountry = false
		}
		if e.Country != entries[0].Country || e.State != entries[0].State {
			sameState = false
		}
	}
	if r.res.State == nil && sameState {
		r.setState(r.gaz.State(entries[0].Country, entries[0].State), -1)
	}
	if r.res.Country == nil {
		switch {
		case r.res.State != nil:
			r.setCountry(r.gaz.Country(r.res.State.Country), -1)
		case sameCountry:
			r.setCountry(r.gaz.Country(entries[0].Country), -1)
		}
	}
	r.restrict()
	r.bindCountry()
}

// fillZipcode commits a postal code. With several, the one next to the
// committed state or country wins, then the earliest.
func (r *resolver) fillZipcode() {
	type zip struct {
		seg int
		c   Candidate
	}
	var zips []zip
	for i := range r.segs.Segments {
		if r.claimed(i) {
			continue
		}
		for _, c := range r.candidates(i, LabelZipcode) {
			if r.consistentCountry(c.Country.Code) {
				zips = append(zips, zip{i, c})
				break
			}
		}
	}
	if len(zips) == 0 {
		return
	}

	chosen := zips[0]
	adjacent := func(i, anchor int) bool { return anchor >= 0 && (i == anchor-1 || i == anchor+1) }
	for _, z := range zips {
		if adjacent(z.seg, r.res.stateSeg) || adjacent(z.seg, r.res.countrySeg) {
			chosen = z
			break
		}
	}

	r.res.Zipcode = chosen.c.Zipcode
	r.res.zipSeg = chosen.seg
	r.claim(chosen.seg)
	if r.res.Country == nil {
		r.setCountry(chosen.c.Country, -1)
		r.bindCountry()
	}
}
