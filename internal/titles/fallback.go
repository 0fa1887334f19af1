package titles

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

const (
	numberedMethod   = "标题生成法则"
	numberedAnalysis = "基于咪蒙方法论生成的标题"
	quotedMethod     = "咪蒙标题法则"
	quotedAnalysis   = "根据内容特点生成的标题"

	maxQuotedCandidates = 10
)

var (
	// A number, a list separator, then the rest of the line with optional
	// surrounding quote marks. Matches anywhere, not only at line start.
	numberedItemRe = regexp.MustCompile(`(?m)\d+([.．,，、:：])\s*[《"“「]?([^\n]+?)[》"”」]?[ \t]*$`)

	quotedSpanRe = regexp.MustCompile(`[《"“「][^《》"“”「」\n]{10,50}[》"”」]`)
	shortLineRe  = regexp.MustCompile(`(?m)^[^\n]{10,50}$`)
)

// scanNumbered treats every numbered item in the text as a bare title.
func scanNumbered(text string) []Record {
	var out []Record
	for _, m := range numberedItemRe.FindAllStringSubmatchIndex(text, -1) {
		if decimalPoint(text, m[2], m[3]) {
			continue
		}
		out = append(out, Record{
			Rank:     len(out) + 1,
			Title:    cleanTitle(text[m[4]:m[5]]),
			Method:   numberedMethod,
			Analysis: numberedAnalysis,
		})
	}
	return out
}

// decimalPoint reports whether the separator at text[start:end] is the
// point of a number such as 1.5亿.
func decimalPoint(text string, start, end int) bool {
	sep := text[start:end]
	if sep != "." && sep != "．" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return unicode.IsDigit(r)
}

// scanQuoted takes quoted spans of 10..50 characters, or short standalone
// lines when the text has no such spans.
func scanQuoted(text string) []Record {
	found := quotedSpanRe.FindAllString(text, maxQuotedCandidates)
	if len(found) == 0 {
		found = shortLineRe.FindAllString(text, maxQuotedCandidates)
	}
	out := make([]Record, 0, len(found))
	for i, s := range found {
		out = append(out, Record{
			Rank:     i + 1,
			Title:    stripQuoteMarks(s),
			Method:   quotedMethod,
			Analysis: quotedAnalysis,
		})
	}
	return out
}
