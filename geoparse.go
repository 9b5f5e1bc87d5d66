// Package geoparse reads free-form North American location strings such as
// "Toronto, ON, CA, M4E 3J1" or "US-DE-Wilmington" into a structured
// Location: city, state or province, country, postal code, and whatever text
// was left over.
//
// A Parser is built once from compiled-in reference data and is safe for
// concurrent use; each parse allocates its own working state.
//
//	p, err := geoparse.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	loc := p.ParseLocation("Mercer Island, WA")
//	fmt.Println(loc) // Mercer Island, WA, US
package geoparse

import (
	"io/fs"
	"sync"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultMaxInputLen limits input length. Anything longer is cut at a rune
// boundary before segmentation; real location strings are far shorter.
const DefaultMaxInputLen = 256

// maxFuzzyDistance caps the edit distance for fuzzy city matching. Larger
// distances match unrelated names.
const maxFuzzyDistance = 2

// Config contains options for Parser construction.
type Config struct {
	Logger        *zap.Logger
	FuzzyDistance int   // max edit distance for city names, 0 disables fuzzy matching
	MaxInputLen   int   // inputs are truncated to this many bytes
	DataFS        fs.FS // holds data/gazetteer.yaml and data/cities.txt
}

// Option is a functional option for configuring a Parser.
type Option func(*Config)

// WithLogger sets the logger. The default is zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithFuzzyDistance enables typo-tolerant city matching.
func WithFuzzyDistance(d int) Option {
	return func(c *Config) {
		c.FuzzyDistance = d
	}
}

// WithMaxInputLen sets the input length cap.
func WithMaxInputLen(n int) Option {
	return func(c *Config) {
		c.MaxInputLen = n
	}
}

// WithDataFS replaces the compiled-in reference data.
func WithDataFS(fsys fs.FS) Option {
	return func(c *Config) {
		c.DataFS = fsys
	}
}

func defaultConfig() *Config {
	return &Config{
		MaxInputLen: DefaultMaxInputLen,
		DataFS:      referenceData,
	}
}

// Parser reads location strings against a Gazetteer.
// Safe for concurrent use after initialization.
type Parser struct {
	gaz        *Gazetteer
	segmenter  *Segmenter
	classifier *classifier
	cfg        *Config
	log        *zap.Logger
}

// Singleton pattern for the default Parser.
var (
	defaultParser     *Parser
	defaultParserOnce sync.Once
	defaultParserErr  error
)

// Default returns a shared Parser, initializing it on first call.
func Default() (*Parser, error) {
	defaultParserOnce.Do(func() {
		defaultParser, defaultParserErr = New()
	})
	return defaultParser, defaultParserErr
}

// New builds a Parser. It fails only when the reference data cannot be
// loaded or is inconsistent.
func New(opts ...Option) (*Parser, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.L()
	}
	if cfg.FuzzyDistance < 0 {
		return nil, eris.Errorf("fuzzy distance must not be negative, got %d", cfg.FuzzyDistance)
	}
	cfg.FuzzyDistance = min(cfg.FuzzyDistance, maxFuzzyDistance)
	if cfg.MaxInputLen <= 0 {
		cfg.MaxInputLen = DefaultMaxInputLen
	}
	if cfg.DataFS == nil {
		return nil, eris.Wrap(ErrInvalidGazetteer, "no reference data")
	}

	gaz, err := LoadGazetteer(cfg.DataFS)
	if err != nil {
		return nil, eris.Wrap(err, "loading gazetteer")
	}

	p := &Parser{
		gaz:        gaz,
		segmenter:  NewSegmenter(gaz.IsCode),
		classifier: &classifier{gaz: gaz, fuzzyDistance: cfg.FuzzyDistance},
		cfg:        cfg,
		log:        cfg.Logger,
	}
	p.log.Info("gazetteer loaded",
		zap.Int("countries", len(gaz.countries)),
		zap.Int("cities", gaz.CityCount()),
		zap.Int("fuzzy_distance", cfg.FuzzyDistance),
	)
	return p, nil
}

// Gazetteer returns the parser's reference data.
func (p *Parser) Gazetteer() *Gazetteer {
	return p.gaz
}

// ParseLocation reads raw into a Location. It never fails: input without
// recognizable parts yields a Location with no fields set and the input as
// its remainder.
func (p *Parser) ParseLocation(raw string) Location {
	return p.Explain(raw).Location
}

// Explanation shows how a location string was read.
type Explanation struct {
	Input      string        `json:"input"`
	Truncated  bool          `json:"truncated,omitempty"`
	Style      string        `json:"style"`
	Segments   []Segment     `json:"segments"`
	Candidates [][]Candidate `json:"candidates"`
	Location   Location      `json:"location"`
	Rendered   string        `json:"rendered"`
}

// Explain parses raw and returns the intermediate segments and candidates
// alongside the result.
func (p *Parser) Explain(raw string) Explanation {
	input, truncated := truncate(raw, p.cfg.MaxInputLen)
	segs := p.segmenter.Split(input)
	cands := p.classifier.classifyAll(segs)
	res := resolve(p.gaz, segs, cands)
	loc := assemble(segs, res)

	if ce := p.log.Check(zap.DebugLevel, "parsed location"); ce != nil {
		ce.Write(
			zap.String("input", input),
			zap.Bool("truncated", truncated),
			zap.Stringer("style", segs.Style),
			zap.Int("segments", len(segs.Segments)),
			zap.String("location", loc.Full()),
			zap.Strings("remainder", loc.Remainder),
		)
	}

	return Explanation{
		Input:      input,
		Truncated:  truncated,
		Style:      segs.Style.String(),
		Segments:   segs.Segments,
		Candidates: cands,
		Location:   loc,
		Rendered:   loc.String(),
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) (string, bool) {
	if len(s) <= n {
		return s, false
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
