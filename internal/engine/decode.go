package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// LookupEncoding resolves a WHATWG encoding label such as "utf-8", "latin1"
// or "windows-1252". An empty label selects UTF-8. Encodings whose line
// terminators are not the single bytes '\n' and '\r' are rejected.
func LookupEncoding(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, label)
	}
	name, _ := htmlindex.Name(enc)
	switch name {
	case "utf-16be", "utf-16le", "replacement":
		return nil, fmt.Errorf("%w: %q is not ASCII compatible", ErrUnsupportedEncoding, label)
	}
	return enc, nil
}

// lineDecoder turns raw line bytes into text. It never fails: bytes the
// encoding cannot represent become U+FFFD.
type lineDecoder struct {
	utf8 bool
	dec  *encoding.Decoder
}

func newLineDecoder(enc encoding.Encoding) lineDecoder {
	name, _ := htmlindex.Name(enc)
	return lineDecoder{utf8: name == "utf-8", dec: enc.NewDecoder()}
}

func (d lineDecoder) decode(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if d.utf8 && utf8.Valid(raw) {
		return string(raw)
	}
	out, err := d.dec.Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(out)
}
