package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	boilerplateSelector = "script, style, nav, footer, header, .advertisement, .ad, .sidebar"
	// a selector wins once its text is longer than this
	selectorAcceptChars = 200
)

// contentSelectors are tried in order; common CMS article containers first,
// paragraph sets last.
var contentSelectors = []string{
	"article",
	".article-content",
	".post-content",
	".content",
	".main-content",
	"#content",
	".entry-content",
	".post-body",
	".article-body",
	"main",
	".container p",
	"body p",
}

// SelectMainText picks the article text out of an HTML page. The result is
// raw text; see CleanWebText. pageURL may be nil.
func SelectMainText(html string, pageURL *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find(boilerplateSelector).Remove()

	content := ""
	for _, sel := range contentSelectors {
		els := doc.Find(sel)
		if els.Length() == 0 {
			continue
		}
		content = strings.TrimSpace(els.Text())
		if runeLen(content) > selectorAcceptChars {
			return content
		}
	}

	if text := readableText(html, pageURL); runeLen(text) > selectorAcceptChars {
		return text
	}

	if runeLen(content) < selectorAcceptChars {
		paras := doc.Find("p").Map(func(_ int, s *goquery.Selection) string {
			return strings.TrimSpace(s.Text())
		})
		content = strings.Join(paras, "\n")
	}
	if runeLen(content) < MinWebChars {
		content = doc.Find("body").Text()
	}
	return content
}

func readableText(html string, pageURL *url.URL) string {
	if pageURL == nil {
		pageURL = &url.URL{Scheme: "http", Host: "localhost"}
	}
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

// CleanWebText collapses whitespace and keeps only CJK unified ideographs
// (U+4E00..U+9FA5), ASCII and whitespace.
func CleanWebText(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	kept := strings.Map(func(r rune) rune {
		if r < 0x80 || (r >= 0x4E00 && r <= 0x9FA5) {
			return r
		}
		return -1
	}, collapsed)
	return strings.TrimSpace(kept)
}

// FinishWebText cleans selected text and enforces the length bounds: fewer
// than MinWebChars is an error, more than MaxWebChars is cut and marked
// with "...".
func FinishWebText(text string) (string, error) {
	text = CleanWebText(text)
	if runeLen(text) < MinWebChars {
		return "", fail("not enough readable content on the page", nil)
	}
	if runeLen(text) > MaxWebChars {
		text = string([]rune(text)[:MaxWebChars]) + "..."
	}
	return text, nil
}

// PageTitle returns the document title, falling back to og:title and the
// first <h1>.
func PageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if t := Clean(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := Clean(og); t != "" {
			return t
		}
	}
	return Clean(doc.Find("h1").First().Text())
}
