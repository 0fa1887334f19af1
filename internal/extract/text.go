package extract

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// PlainText decodes .txt and .md uploads. A UTF-8 or UTF-16 byte order mark
// selects the encoding; without one the bytes are taken as UTF-8.
func PlainText(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fail("failed to decode text file", err)
	}
	return strings.ToValidUTF8(string(out), "�"), nil
}
