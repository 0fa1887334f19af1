package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// PDF extracts the plain text of every page.
func PDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fail("failed to parse PDF", fmt.Errorf("%v", r))
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fail("failed to parse PDF", err)
	}
	pr, err := r.GetPlainText()
	if err != nil {
		return "", fail("failed to extract PDF text", err)
	}
	b, err := io.ReadAll(pr)
	if err != nil {
		return "", fail("failed to read PDF text", err)
	}
	text = Clean(string(b))
	if runeLen(text) < MinDocumentChars {
		return "", fail("PDF has too little text or could not be parsed", nil)
	}
	return text, nil
}
