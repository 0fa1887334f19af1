package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Extractor converts the raw bytes of one document format into text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(data []byte) (string, error)

func (f ExtractorFunc) Extract(data []byte) (string, error) { return f(data) }

// extractors maps a lower-case extension to its adapter.
var extractors = map[string]Extractor{
	".pdf":  ExtractorFunc(PDF),
	".docx": ExtractorFunc(DOCX),
	".doc":  ExtractorFunc(legacyDOC),
	".txt":  ExtractorFunc(PlainText),
	".md":   ExtractorFunc(PlainText),
}

// Supported reports whether name has an extension File can handle.
func Supported(name string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(name))]
	return ok
}

// File dispatches on the extension of name and returns trimmed text.
func File(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	x, ok := extractors[ext]
	if !ok {
		return "", fail(fmt.Sprintf("unsupported file format %q", ext), nil)
	}
	text, err := x.Extract(data)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fail("file is empty or could not be parsed", nil)
	}
	return text, nil
}
