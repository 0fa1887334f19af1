// Package extract turns uploaded documents and fetched web pages into plain
// article text.
package extract

import (
	"strings"
	"unicode/utf8"
)

const (
	// MinDocumentChars is the shortest usable pdf or docx text.
	MinDocumentChars = 50
	// MinWebChars is the shortest usable web article text.
	MinWebChars = 100
	// MaxWebChars is where web article text is cut.
	MaxWebChars = 5000
)

// Error is an extraction failure with a human-readable reason.
type Error struct {
	Reason string
	Err    error
	// Remote is set when the failure came from the fetched site rather than
	// from the input itself.
	Remote bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

func fail(reason string, err error) error {
	return &Error{Reason: reason, Err: err}
}

// Clean collapses every whitespace run to a single space and trims.
func Clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
