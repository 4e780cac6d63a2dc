package captions

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/zebehn/docscalpel/model"
)

// maxRangeSpan is the upper bound on enumerable caption ranges; a range
// spanning more elements than this is treated as unparseable.
const maxRangeSpan = 50

// keywordRe matches an element-type keyword, optionally pluralized,
// optionally with a trailing period ("Figure", "figs.", "Tbl.", "EQ").
var keywordRe = regexp.MustCompile(`(?i)\b(fig(?:ure)?s?|tbls?|tab(?:le)?s?|eq(?:uation)?s?)\.?`)

var (
	numberRe    = regexp.MustCompile(`^[\s:]*([0-9]{1,4})`)
	rangeRe     = regexp.MustCompile(`^\s*(?:[-\x{2013}\x{2014}]|to|through)\s*([0-9]{1,4})`)
	listRe      = regexp.MustCompile(`^\s*(?:,|and|&)\s*([0-9]{1,4})`)
	subParenRe  = regexp.MustCompile(`^\s*\(\s*([a-zA-Z]|[ivxIVX]{2,4})\s*\)`)
	subSuffixRe = regexp.MustCompile(`^([a-zA-Z])(?:[^a-zA-Z0-9]|$)`)
)

// romanSublabels are the roman-numeral sub-labels accepted after a caption
// number. Longer numerals collide with ordinary words and are rejected.
var romanSublabels = map[string]struct{}{
	"ii": {}, "iii": {}, "iv": {}, "vi": {}, "vii": {}, "viii": {},
}

// Parser extracts caption signatures from positioned text runs.
// The zero value is ready to use.
type Parser struct{}

// NewParser creates a caption parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse scans one text run for caption signatures. It returns one parsed
// caption per extracted number; an enumerable range ("Figures 3-5",
// "Tables 2 and 4") yields several. Returns nil when the run carries no
// parseable signature, including the ambiguous multi-number formats that
// cannot be enumerated.
func (p *Parser) Parse(c model.CaptionCandidate) []model.ParsedCaption {
	text := norm.NFKC.String(c.Text)

	var out []model.ParsedCaption
	for _, loc := range keywordRe.FindAllStringSubmatchIndex(text, -1) {
		et := keywordType(text[loc[2]:loc[3]])
		if et == model.ElementTypeInvalid {
			continue
		}

		numbers, sublabel, ok := scanNumbers(text[loc[1]:])
		if !ok {
			continue
		}
		for _, n := range numbers {
			out = append(out, model.ParsedCaption{
				CaptionCandidate: c,
				Type:             et,
				Number:           n,
				Sublabel:         sublabel,
			})
		}
	}
	return out
}

// ParseAll splits candidates into parsed captions and raw-only runs.
// A run yielding at least one parsed caption appears on the parsed side;
// everything else is returned untouched and never drives numbering.
func (p *Parser) ParseAll(cands []model.CaptionCandidate) ([]model.ParsedCaption, []model.CaptionCandidate) {
	var parsed []model.ParsedCaption
	var raw []model.CaptionCandidate

	for _, c := range cands {
		pc := p.Parse(c)
		if len(pc) == 0 {
			raw = append(raw, c)
			continue
		}
		parsed = append(parsed, pc...)
	}
	return parsed, raw
}

// keywordType maps a matched keyword to its element type
func keywordType(kw string) model.ElementType {
	kw = strings.ToLower(strings.TrimSuffix(kw, "."))
	switch {
	case strings.HasPrefix(kw, "fig"):
		return model.ElementTypeFigure
	case strings.HasPrefix(kw, "tab"), strings.HasPrefix(kw, "tbl"):
		return model.ElementTypeTable
	case strings.HasPrefix(kw, "eq"):
		return model.ElementTypeEquation
	}
	return model.ElementTypeInvalid
}

// scanNumbers reads the number part following a keyword: a single number
// with an optional sub-label, an enumerable range, or an enumerable list.
// ok is false when no number follows or the format is ambiguous.
func scanNumbers(tail string) (numbers []int, sublabel string, ok bool) {
	m := numberRe.FindStringSubmatch(tail)
	if m == nil {
		return nil, "", false
	}
	first, err := strconv.Atoi(m[1])
	if err != nil || first < 1 {
		return nil, "", false
	}
	rest := tail[len(m[0]):]

	// Range: "3-5", "3 to 5". Reversed or oversized ranges are ambiguous.
	if rm := rangeRe.FindStringSubmatch(rest); rm != nil {
		last, err := strconv.Atoi(rm[1])
		if err != nil || last <= first || last-first > maxRangeSpan {
			return nil, "", false
		}
		for n := first; n <= last; n++ {
			numbers = append(numbers, n)
		}
		return numbers, "", true
	}

	// List: "2, 3 and 5". Every connector must be followed by a number.
	numbers = []int{first}
	for {
		lm := listRe.FindStringSubmatch(rest)
		if lm == nil {
			break
		}
		n, err := strconv.Atoi(lm[1])
		if err != nil || n < 1 {
			return nil, "", false
		}
		numbers = append(numbers, n)
		rest = rest[len(lm[0]):]
	}
	if len(numbers) > 1 {
		// A range connector after a list ("2, 3 and 5-7") is ambiguous.
		if rangeRe.MatchString(rest) {
			return nil, "", false
		}
		return numbers, "", true
	}

	// Single number: check for a sub-label, parenthesized or suffixed.
	if sm := subParenRe.FindStringSubmatch(rest); sm != nil {
		if s, valid := normalizeSublabel(sm[1]); valid {
			return numbers, s, true
		}
		return nil, "", false
	}
	if sm := subSuffixRe.FindStringSubmatch(rest); sm != nil {
		if s, valid := normalizeSublabel(sm[1]); valid {
			return numbers, s, true
		}
	}
	return numbers, "", true
}

// normalizeSublabel lowercases a sub-label token and validates it: a single
// letter, or one of the accepted roman numerals.
func normalizeSublabel(s string) (string, bool) {
	s = strings.ToLower(s)
	if len(s) == 1 {
		return s, true
	}
	if _, ok := romanSublabels[s]; ok {
		return s, true
	}
	return "", false
}
