package titles

import "strings"

// Tier identifies which parsing strategy produced a result.
type Tier int

const (
	TierNone Tier = iota
	TierStructured
	TierNumbered
	TierQuoted
)

func (t Tier) String() string {
	switch t {
	case TierStructured:
		return "structured"
	case TierNumbered:
		return "numbered"
	case TierQuoted:
		return "quoted"
	default:
		return "none"
	}
}

// tiers lists the strategies in strictly decreasing order of confidence.
var tiers = []struct {
	tier Tier
	scan func(text string) []Record
}{
	{TierStructured, scanStructured},
	{TierNumbered, scanNumbered},
	{TierQuoted, scanQuoted},
}

// Parse converts a raw model answer into at most MaxRecords validated
// records ranked 1..N. It returns ErrParseFailure when nothing usable is
// found. Parse has no side effects.
func Parse(raw string) ([]Record, error) {
	recs, _, err := ParseTiered(raw)
	return recs, err
}

// ParseTiered is Parse that also reports the tier that produced the records.
func ParseTiered(raw string) ([]Record, Tier, error) {
	text := normalizeNewlines(raw)
	for _, t := range tiers {
		if out := validate(t.scan(text)); len(out) > 0 {
			return out, t.tier, nil
		}
	}
	return nil, TierNone, ErrParseFailure
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// quoteMarks are the opening and closing marks models put around titles.
const quoteMarks = "《》\"“”「」"

// cleanTitle removes bold markers and one layer of surrounding quote marks.
func cleanTitle(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "**", ""))
	for _, open := range []string{"《", "\"", "“", "「"} {
		if strings.HasPrefix(s, open) {
			s = strings.TrimPrefix(s, open)
			break
		}
	}
	for _, closing := range []string{"》", "\"", "”", "」"} {
		if strings.HasSuffix(s, closing) {
			s = strings.TrimSuffix(s, closing)
			break
		}
	}
	return strings.TrimSpace(s)
}

// stripQuoteMarks removes every quote mark from s.
func stripQuoteMarks(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if strings.ContainsRune(quoteMarks, r) {
			return -1
		}
		return r
	}, s))
}
