package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/beevik/etree"
)

var errNotZip = errors.New("not a zip archive")

// DOCX extracts paragraph text from word/document.xml.
func DOCX(data []byte) (string, error) {
	raw, err := documentXML(data)
	if err != nil {
		return "", fail("failed to parse Word document", err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return "", fail("failed to parse Word document", err)
	}
	var b strings.Builder
	if root := doc.Root(); root != nil {
		walkDOCX(&b, root)
	}
	text := Clean(b.String())
	if runeLen(text) < MinDocumentChars {
		return "", fail("Word document has too little text or could not be parsed", nil)
	}
	return text, nil
}

// legacyDOC accepts .doc uploads that are really OOXML packages, which is
// common for files renamed by hand or exported by web editors.
func legacyDOC(data []byte) (string, error) {
	if !isZip(data) {
		return "", fail("unsupported legacy .doc format, please save as .docx", nil)
	}
	return DOCX(data)
}

func isZip(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("PK\x03\x04"))
}

func documentXML(data []byte) ([]byte, error) {
	if !isZip(data) {
		return nil, errNotZip
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, 64<<20))
	}
	return nil, errors.New("word/document.xml not found")
}

func walkDOCX(b *strings.Builder, el *etree.Element) {
	switch el.Tag {
	case "t":
		b.WriteString(el.Text())
		return
	case "tab":
		b.WriteByte('\t')
		return
	case "br", "cr":
		b.WriteByte('\n')
		return
	}
	for _, c := range el.ChildElements() {
		walkDOCX(b, c)
	}
	if el.Tag == "p" {
		b.WriteByte('\n')
	}
}
