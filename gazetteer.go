package geoparse

import (
	"bufio"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed data
var referenceData embed.FS

const (
	gazetteerFile = "data/gazetteer.yaml"
	citiesFile    = "data/cities.txt"
)

// ErrInvalidGazetteer is returned when the reference data is missing or
// internally inconsistent.
var ErrInvalidGazetteer = eris.New("invalid gazetteer")

// Country is a country known to the gazetteer.
type Country struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Aliases []string `json:"-"`
}

// StateProvince is a first-level division (US state, territory or district,
// Canadian province or territory).
type StateProvince struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Country string   `json:"country"`
	Aliases []string `json:"-"`
}

// KnownCity is a city listed in the gazetteer. Several KnownCity entries may
// share a name when the name exists in more than one state.
type KnownCity struct {
	Name    string   `json:"name"`
	State   string   `json:"state"`
	Country string   `json:"country"`
	Aliases []string `json:"-"`
}

// Gazetteer is the immutable reference data the parser resolves against.
// Every lookup takes raw text and normalizes it, so callers never need to
// care about case, diacritics or punctuation. Safe for concurrent use.
type Gazetteer struct {
	countries  []*Country
	countryIdx map[string]*Country
	countryKey map[string][]*Country

	states   map[string][]*StateProvince          // country -> states in file order
	stateIdx map[string]map[string]*StateProvince // country -> code -> state
	stateKey map[string][]*StateProvince

	cities       []*KnownCity
	cityKey      map[string][]*KnownCity
	cityKeys     []string // sorted, for fuzzy scans
	cityByState  map[string][]*KnownCity
	maxCityWords int

	postal []postalPattern

	// codes holds the upper-case codes that may stand alone as a token
	// ("US", "USA", "ON", "PEI").
	codes map[string]bool
}

// gazetteerDoc mirrors data/gazetteer.yaml.
type gazetteerDoc struct {
	Countries []struct {
		Code    string   `yaml:"code"`
		Name    string   `yaml:"name"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"countries"`
	States map[string][]struct {
		Code    string   `yaml:"code"`
		Name    string   `yaml:"name"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"states"`
	Postal map[string]string `yaml:"postal"`
}

// LoadGazetteer reads data/gazetteer.yaml and data/cities.txt from fsys.
func LoadGazetteer(fsys fs.FS) (*Gazetteer, error) {
	raw, err := fs.ReadFile(fsys, gazetteerFile)
	if err != nil {
		return nil, eris.Wrapf(err, "reading %s", gazetteerFile)
	}
	var doc gazetteerDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrapf(ErrInvalidGazetteer, "decoding %s: %v", gazetteerFile, err)
	}

	g := &Gazetteer{
		countryIdx:  make(map[string]*Country),
		countryKey:  make(map[string][]*Country),
		states:      make(map[string][]*StateProvince),
		stateIdx:    make(map[string]map[string]*StateProvince),
		stateKey:    make(map[string][]*StateProvince),
		cityKey:     make(map[string][]*KnownCity),
		cityByState: make(map[string][]*KnownCity),
		codes:       make(map[string]bool),
	}

	if len(doc.Countries) == 0 {
		return nil, eris.Wrap(ErrInvalidGazetteer, "no countries defined")
	}
	for _, c := range doc.Countries {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" || c.Name == "" {
			return nil, eris.Wrapf(ErrInvalidGazetteer, "country %q has no code or name", c.Name)
		}
		if _, dup := g.countryIdx[code]; dup {
			return nil, eris.Wrapf(ErrInvalidGazetteer, "duplicate country %s", code)
		}
		country := &Country{Code: code, Name: c.Name, Aliases: c.Aliases}
		g.countries = append(g.countries, country)
		g.countryIdx[code] = country
		for _, key := range aliasKeys(code, c.Name, c.Aliases) {
			g.countryKey[key] = append(g.countryKey[key], country)
		}
		g.addCodes(code, c.Aliases)
	}

	for cc := range doc.States {
		if _, ok := g.countryIdx[strings.ToUpper(cc)]; !ok {
			return nil, eris.Wrapf(ErrInvalidGazetteer, "states listed for unknown country %s", cc)
		}
	}
	// Walk countries in file order so index slices are deterministic.
	for _, country := range g.countries {
		entries := doc.States[country.Code]
		g.stateIdx[country.Code] = make(map[string]*StateProvince, len(entries))
		for _, s := range entries {
			code := strings.ToUpper(strings.TrimSpace(s.Code))
			if code == "" || s.Name == "" {
				return nil, eris.Wrapf(ErrInvalidGazetteer, "state %q in %s has no code or name", s.Name, country.Code)
			}
			if _, dup := g.stateIdx[country.Code][code]; dup {
				return nil, eris.Wrapf(ErrInvalidGazetteer, "duplicate state %s.%s", country.Code, code)
			}
			state := &StateProvince{Code: code, Name: s.Name, Country: country.Code, Aliases: s.Aliases}
			g.states[country.Code] = append(g.states[country.Code], state)
			g.stateIdx[country.Code][code] = state
			for _, key := range aliasKeys(code, s.Name, s.Aliases) {
				g.stateKey[key] = append(g.stateKey[key], state)
			}
			g.addCodes(code, s.Aliases)
		}
	}

	postalCountries := make([]string, 0, len(doc.Postal))
	for cc := range doc.Postal {
		postalCountries = append(postalCountries, cc)
	}
	sort.Strings(postalCountries)
	for _, cc := range postalCountries {
		code := strings.ToUpper(cc)
		if _, ok := g.countryIdx[code]; !ok {
			return nil, eris.Wrapf(ErrInvalidGazetteer, "postal pattern for unknown country %s", cc)
		}
		p, err := compilePostalPattern(code, doc.Postal[cc])
		if err != nil {
			return nil, err
		}
		g.postal = append(g.postal, p)
	}

	if err := g.loadCities(fsys); err != nil {
		return nil, err
	}
	return g, nil
}

// loadCities reads the semicolon separated city list:
//
//	CC;ST;Name[;alias|alias]
func (g *Gazetteer) loadCities(fsys fs.FS) error {
	f, err := fsys.Open(citiesFile)
	if err != nil {
		return eris.Wrapf(err, "opening %s", citiesFile)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, ";")
		if len(fields) < 3 {
			return eris.Wrapf(ErrInvalidGazetteer, "%s:%d: want CC;ST;Name, got %q", citiesFile, line, text)
		}
		cc := strings.ToUpper(strings.TrimSpace(fields[0]))
		st := strings.ToUpper(strings.TrimSpace(fields[1]))
		name := strings.TrimSpace(fields[2])
		if g.State(cc, st) == nil {
			return eris.Wrapf(ErrInvalidGazetteer, "%s:%d: unknown state %s.%s", citiesFile, line, cc, st)
		}
		if name == "" {
			return eris.Wrapf(ErrInvalidGazetteer, "%s:%d: empty city name", citiesFile, line)
		}
		var aliases []string
		if len(fields) > 3 {
			for _, a := range strings.Split(fields[3], "|") {
				if a = strings.TrimSpace(a); a != "" {
					aliases = append(aliases, a)
				}
			}
		}

		city := &KnownCity{Name: name, State: st, Country: cc, Aliases: aliases}
		g.cities = append(g.cities, city)
		g.cityByState[cc+"."+st] = append(g.cityByState[cc+"."+st], city)
		for _, key := range aliasKeys("", name, aliases) {
			if _, seen := g.cityKey[key]; !seen {
				g.cityKeys = append(g.cityKeys, key)
			}
			g.cityKey[key] = append(g.cityKey[key], city)
			if n := len(strings.Fields(key)); n > g.maxCityWords {
				g.maxCityWords = n
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return eris.Wrapf(err, "reading %s", citiesFile)
	}
	sort.Strings(g.cityKeys)
	return nil
}

// aliasKeys returns the distinct normalized keys for an entity.
func aliasKeys(code, name string, aliases []string) []string {
	seen := make(map[string]bool, len(aliases)+2)
	var keys []string
	for _, s := range append([]string{code, name}, aliases...) {
		key := normalizeKey(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

func (g *Gazetteer) addCodes(code string, aliases []string) {
	for _, s := range append([]string{code}, aliases...) {
		if isCodeToken(s) {
			g.codes[s] = true
		}
	}
}

// IsCode reports whether token is a country or division code exactly as
// written, upper case included.
func (g *Gazetteer) IsCode(token string) bool {
	return g.codes[token]
}

// Countries returns every country in gazetteer order.
func (g *Gazetteer) Countries() []*Country {
	return g.countries
}

// Country returns the country with the given code, or nil.
func (g *Gazetteer) Country(code string) *Country {
	return g.countryIdx[strings.ToUpper(code)]
}

// CountriesByKey returns the countries one of whose aliases matches text.
func (g *Gazetteer) CountriesByKey(text string) []*Country {
	return g.countryKey[normalizeKey(text)]
}

// CitiesByKey returns every city one of whose names matches text.
func (g *Gazetteer) CitiesByKey(text string) []*KnownCity {
	return g.cityKey[normalizeKey(text)]
}

// CitiesInState returns the cities listed for a state.
func (g *Gazetteer) CitiesInState(country, state string) []*KnownCity {
	return g.cityByState[strings.ToUpper(country)+"."+strings.ToUpper(state)]
}

// CityCount returns the number of city entries.
func (g *Gazetteer) CityCount() int {
	return len(g.cities)
}

// MatchPostal returns the countries whose postal code shape fits text,
// together with the canonical rendering of the code.
func (g *Gazetteer) MatchPostal(text string) []PostalMatch {
	return matchPostal(g.postal, text)
}

// fuzzyCities returns cities whose name is within maxDist edits of key.
// Exact matches are excluded; they are found by CitiesByKey.
func (g *Gazetteer) fuzzyCities(key string, maxDist int) []*KnownCity {
	if maxDist <= 0 || key == "" {
		return nil
	}
	var out []*KnownCity
	for _, k := range g.cityKeys {
		if k == key || abs(len(k)-len(key)) > maxDist {
			continue
		}
		if fuzzyMatch(key, k, maxDist) {
			out = append(out, g.cityKey[k]...)
		}
	}
	return out
}

// fuzzyMatch compares two normalized strings with a Levenshtein tolerance.
func fuzzyMatch(query, candidate string, maxDist int) bool {
	if maxDist == 0 {
		return query == candidate
	}
	return levenshtein.ComputeDistance(query, candidate) <= maxDist
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
