package geoparse

import (
	"regexp"
	"sort"
	"strings"
)

// Style is the delimiter grammar a location string was split with. The
// resolver's positional rules depend on it.
type Style int

const (
	// StyleSingle means no primary delimiter was present.
	StyleSingle Style = iota
	// StyleComma means the string was split on commas or semicolons.
	StyleComma
	// StyleHyphen means the string was split on hyphens ("US-DE-Wilmington").
	StyleHyphen
)

func (s Style) String() string {
	switch s {
	case StyleComma:
		return "comma"
	case StyleHyphen:
		return "hyphen"
	default:
		return "single"
	}
}

// Segment is one delimited piece of the input.
type Segment struct {
	Text          string `json:"text"`
	Normalized    string `json:"normalized"`
	Index         int    `json:"index"`
	Start         int    `json:"start"` // byte offset in the raw input
	End           int    `json:"end"`
	Group         int    `json:"group"`
	Parenthetical bool   `json:"parenthetical,omitempty"`
	// NumberPrefix marks a run of digits split off the front of free text
	// ("12345 Main St"). It is read as a street or store number, never as a
	// postal code.
	NumberPrefix bool `json:"number_prefix,omitempty"`
}

// Segmentation is the ordered result of splitting one input string.
type Segmentation struct {
	Raw      string    `json:"raw"`
	Style    Style     `json:"style"`
	Segments []Segment `json:"segments"`

	masked string // raw with top-level parenthetical groups blanked
	groups []group
}

// group is a delimiter-level unit of the input: one primary piece or one
// top-level parenthetical. Unconsumed groups become remainder fragments.
type group struct {
	span
	paren bool
}

type span struct {
	start, end int
}

// piece is a span produced by refining a primary piece.
type piece struct {
	span
	numberPrefix bool
}

// splitStrategy is one way of cutting a location string into primary pieces.
type splitStrategy struct {
	style   Style
	applies func(masked string) bool
	split   func(masked string, s span) []span
}

// primaryStrategies are tried in order; the first that applies wins.
var primaryStrategies = []splitStrategy{
	{
		style:   StyleComma,
		applies: func(m string) bool { return strings.ContainsAny(m, ",;") },
		split:   splitAt(isListDelim),
	},
	{
		style: StyleHyphen,
		applies: func(m string) bool {
			for i := 0; i < len(m); i++ {
				if isHyphenDelim(m, i) {
					return true
				}
			}
			return false
		},
		split: splitAt(isHyphenDelim),
	},
	{
		style:   StyleSingle,
		applies: func(string) bool { return true },
		split: func(m string, s span) []span {
			if t, ok := trimSpan(m, s); ok {
				return []span{t}
			}
			return nil
		},
	},
}

var (
	spacedHyphen = regexp.MustCompile(`\s+-+\s+`)
	zipShape     = regexp.MustCompile(`^(?:\d{5}(?:-\d{4})?|[A-Z]\d[A-Z]\d[A-Z]\d)$`)
	zipPairShape = regexp.MustCompile(`^[A-Z]\d[A-Z] \d[A-Z]\d$`)
)

// Segmenter splits raw location strings into segments.
type Segmenter struct {
	isCode func(string) bool
}

// NewSegmenter returns a Segmenter. isCode reports whether an upper-case
// token is a known country or division code; such tokens are peeled off the
// edges of a piece ("Mercer Island WA" -> "Mercer Island", "WA"). A nil
// isCode treats every two-letter upper-case token as a code.
func NewSegmenter(isCode func(string) bool) *Segmenter {
	if isCode == nil {
		isCode = func(s string) bool { return len(s) == 2 && isCodeToken(s) }
	}
	return &Segmenter{isCode: isCode}
}

// Split segments raw. It never fails; blank input yields no segments.
func (sg *Segmenter) Split(raw string) *Segmentation {
	out := &Segmentation{Raw: raw}
	parens := findParens(raw)

	masked := []byte(raw)
	for _, p := range parens {
		if p.parent < 0 {
			for i := p.open; i <= p.close; i++ {
				masked[i] = ' '
			}
		}
	}
	out.masked = string(masked)

	whole := span{0, len(raw)}
	for _, st := range primaryStrategies {
		if !st.applies(out.masked) {
			continue
		}
		out.Style = st.style
		for _, piece := range st.split(out.masked, whole) {
			gid := len(out.groups)
			out.groups = append(out.groups, group{span: piece})
			for _, pc := range sg.refine(out.masked, piece) {
				seg := out.newSegment(pc.span, gid, false)
				seg.NumberPrefix = pc.numberPrefix
				out.Segments = append(out.Segments, seg)
			}
		}
		break
	}

	for i, p := range parens {
		if p.parent >= 0 {
			continue
		}
		content, ok := trimSpan(raw, span{p.open + 1, p.close})
		if !ok {
			continue
		}
		gid := len(out.groups)
		out.groups = append(out.groups, group{span: content, paren: true})
		out.addParenSegments(parens, i, gid)
	}

	out.order()
	return out
}

// refine applies the secondary splits to a primary piece.
func (sg *Segmenter) refine(masked string, primary span) []piece {
	spans := []span{primary}
	for _, step := range []func(string, span) []span{splitSpacedHyphens, splitSlashes} {
		var next []span
		for _, sp := range spans {
			next = append(next, step(masked, sp)...)
		}
		spans = next
	}
	var out []piece
	for _, sp := range spans {
		out = append(out, sg.peel(masked, sp)...)
	}
	return out
}

// addParenSegments emits the pieces of parenthetical group pi that are not
// covered by nested groups, then recurses into the nested groups. Nested
// content shares the group id of its outermost parenthetical.
func (s *Segmentation) addParenSegments(parens []parenGroup, pi, gid int) {
	p := parens[pi]
	var children []int
	for ci, c := range parens {
		if c.parent == pi {
			children = append(children, ci)
		}
	}

	cursor := p.open + 1
	emit := func(end int) {
		for _, sp := range splitAt(isListDelim)(s.Raw, span{cursor, end}) {
			s.Segments = append(s.Segments, s.newSegment(sp, gid, true))
		}
	}
	for _, ci := range children {
		emit(parens[ci].open)
		s.addParenSegments(parens, ci, gid)
		cursor = parens[ci].close + 1
	}
	emit(p.close)
}

func (s *Segmentation) newSegment(sp span, gid int, paren bool) Segment {
	text := s.text(sp, paren)
	return Segment{
		Text:          text,
		Normalized:    normalizeKey(text),
		Start:         sp.start,
		End:           sp.end,
		Group:         gid,
		Parenthetical: paren,
	}
}

// text returns the input text of sp. Outside parentheticals, blanked
// parenthetical content is skipped and the gap collapsed.
func (s *Segmentation) text(sp span, paren bool) string {
	if paren {
		return s.Raw[sp.start:sp.end]
	}
	if s.masked[sp.start:sp.end] == s.Raw[sp.start:sp.end] {
		return s.Raw[sp.start:sp.end]
	}
	return strings.Join(strings.Fields(s.masked[sp.start:sp.end]), " ")
}

// order sorts groups and segments by position and assigns indexes.
func (s *Segmentation) order() {
	remap := make(map[int]int, len(s.groups))
	idx := make([]int, len(s.groups))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return s.groups[idx[a]].start < s.groups[idx[b]].start })
	groups := make([]group, len(s.groups))
	for newID, oldID := range idx {
		groups[newID] = s.groups[oldID]
		remap[oldID] = newID
	}
	s.groups = groups

	sort.SliceStable(s.Segments, func(a, b int) bool { return s.Segments[a].Start < s.Segments[b].Start })
	for i := range s.Segments {
		s.Segments[i].Index = i
		s.Segments[i].Group = remap[s.Segments[i].Group]
	}
}

// parenGroup is a matched pair of parentheses.
type parenGroup struct {
	open, close int
	parent      int // index of the enclosing group, -1 at top level
}

// findParens matches parentheses with a depth-aware scan. Unbalanced
// parentheses are left in the text.
func findParens(raw string) []parenGroup {
	var groups []parenGroup
	var stack []int // indexes into groups
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '(':
			parent := -1
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			groups = append(groups, parenGroup{open: i, close: -1, parent: parent})
			stack = append(stack, len(groups)-1)
		case ')':
			if len(stack) == 0 {
				continue
			}
			groups[stack[len(stack)-1]].close = i
			stack = stack[:len(stack)-1]
		}
	}

	// Drop unclosed groups and re-point children at surviving ancestors.
	keep := make([]int, len(groups))
	var out []parenGroup
	for i, g := range groups {
		if g.close < 0 {
			keep[i] = -1
			continue
		}
		keep[i] = len(out)
		out = append(out, g)
	}
	for i := range out {
		p := out[i].parent
		for p >= 0 && keep[p] < 0 {
			p = groups[p].parent
		}
		if p >= 0 {
			p = keep[p]
		}
		out[i].parent = p
	}
	return out
}

func isListDelim(text string, i int) bool {
	return text[i] == ',' || text[i] == ';'
}

// isHyphenDelim reports whether the hyphen at i separates pieces. A hyphen
// between two digits belongs to a ZIP+4 code or a number range.
func isHyphenDelim(text string, i int) bool {
	if text[i] != '-' {
		return false
	}
	return !(i > 0 && i+1 < len(text) && isDigit(text[i-1]) && isDigit(text[i+1]))
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// splitAt returns a split function cutting a span at every delimiter.
func splitAt(isDelim func(text string, i int) bool) func(string, span) []span {
	return func(text string, s span) []span {
		var out []span
		start := s.start
		for i := s.start; i <= s.end; i++ {
			if i < s.end && !isDelim(text, i) {
				continue
			}
			if t, ok := trimSpan(text, span{start, i}); ok {
				out = append(out, t)
			}
			start = i + 1
		}
		return out
	}
}

// splitSpacedHyphens splits on hyphens with whitespace on both sides, so
// "NY - Route 50" splits but "Saint-Lin-Laurentides" does not.
func splitSpacedHyphens(text string, s span) []span {
	locs := spacedHyphen.FindAllStringIndex(text[s.start:s.end], -1)
	if len(locs) == 0 {
		return []span{s}
	}
	var out []span
	start := s.start
	for _, loc := range locs {
		if t, ok := trimSpan(text, span{start, s.start + loc[0]}); ok {
			out = append(out, t)
		}
		start = s.start + loc[1]
	}
	if t, ok := trimSpan(text, span{start, s.end}); ok {
		out = append(out, t)
	}
	return out
}

// splitSlashes splits on slashes that are not between two digits.
func splitSlashes(text string, s span) []span {
	var out []span
	start := s.start
	for i := s.start; i < s.end; i++ {
		if text[i] != '/' || (i > s.start && i+1 < s.end && isDigit(text[i-1]) && isDigit(text[i+1])) {
			continue
		}
		if t, ok := trimSpan(text, span{start, i}); ok {
			out = append(out, t)
		}
		start = i + 1
	}
	if t, ok := trimSpan(text, span{start, s.end}); ok {
		out = append(out, t)
	}
	return out
}

// peel separates edge tokens that carry their own meaning from the free text
// they are glued to: leading and trailing postal codes and region codes, and
// leading street numbers. The last remaining token is never peeled.
func (sg *Segmenter) peel(text string, s span) []piece {
	toks := tokens(text, s)
	var head, tail []piece
	for changed := true; changed && len(toks) > 1; {
		changed = false

		switch last := toks[len(toks)-1]; {
		case len(toks) > 2 && isPostalPair(text, toks[len(toks)-2], last):
			tail = append([]piece{{span: span{toks[len(toks)-2].start, last.end}}}, tail...)
			toks = toks[:len(toks)-2]
			changed = true
		case isPostalToken(text, last) || sg.isCode(text[last.start:last.end]):
			tail = append([]piece{{span: last}}, tail...)
			toks = toks[:len(toks)-1]
			changed = true
		}
		if len(toks) < 2 {
			break
		}

		first := text[toks[0].start:toks[0].end]
		rest := text[toks[1].start:toks[len(toks)-1].end]
		switch {
		case len(toks) > 2 && isPostalPair(text, toks[0], toks[1]):
			head = append(head, piece{span: span{toks[0].start, toks[1].end}})
			toks = toks[2:]
			changed = true
		case isDigits(first) && hasLetter(rest):
			// A bare number before a name is a street or store number,
			// even when it has the shape of a ZIP code.
			head = append(head, piece{span: toks[0], numberPrefix: true})
			toks = toks[1:]
			changed = true
		case isPostalToken(text, toks[0]):
			head = append(head, piece{span: toks[0]})
			toks = toks[1:]
			changed = true
		case sg.isCode(first) && (sg.isCode(text[toks[1].start:toks[1].end]) || rest != strings.ToUpper(rest)):
			// An all-caps remainder ("LA CROSSE") is more likely one name.
			head = append(head, piece{span: toks[0]})
			toks = toks[1:]
			changed = true
		}
	}

	out := head
	if len(toks) > 0 {
		out = append(out, piece{span: span{toks[0].start, toks[len(toks)-1].end}})
	}
	return append(out, tail...)
}

// isPostalToken reports whether token t is a whole postal code.
func isPostalToken(text string, t span) bool {
	return zipShape.MatchString(strings.ToUpper(text[t.start:t.end]))
}

// isPostalPair reports whether tokens a and b form a spaced Canadian
// postal code ("K1A 0B1").
func isPostalPair(text string, a, b span) bool {
	return zipPairShape.MatchString(strings.ToUpper(text[a.start:a.end] + " " + text[b.start:b.end]))
}

// tokens returns the whitespace separated tokens of s.
func tokens(text string, s span) []span {
	var out []span
	start := -1
	for i := s.start; i <= s.end; i++ {
		space := i == s.end || text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r'
		switch {
		case space && start >= 0:
			out = append(out, span{start, i})
			start = -1
		case !space && start < 0:
			start = i
		}
	}
	return out
}

// trimSpan shrinks s past surrounding whitespace and delimiter punctuation.
// A trailing period is kept ("D.C.", "St."). It reports false for spans
// that trim to nothing.
func trimSpan(text string, s span) (span, bool) {
	for s.start < s.end && strings.IndexByte(" \t\r\n,;:_|!?/-.", text[s.start]) >= 0 {
		s.start++
	}
	for s.end > s.start && strings.IndexByte(" \t\r\n,;:_|!?/-", text[s.end-1]) >= 0 {
		s.end--
	}
	return s, s.end > s.start
}
