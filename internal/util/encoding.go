package util

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacyEncodings are tried in order when command output is not valid UTF-8,
// e.g. interface aliases written under a Latin-1 locale.
var legacyEncodings = []encoding.Encoding{
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// EnsureUTF8Bytes returns b as UTF-8 text. A UTF-16 byte order mark is honoured,
// a UTF-8 one is dropped, and other invalid input is decoded with the first
// legacy charset that yields valid UTF-8.
func EnsureUTF8Bytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if bytes.HasPrefix(b, []byte{0xFF, 0xFE}) || bytes.HasPrefix(b, []byte{0xFE, 0xFF}) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		if s, ok := decode(dec, b); ok {
			return s
		}
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return string(b)
	}
	for _, enc := range legacyEncodings {
		if s, ok := decode(enc.NewDecoder(), b); ok {
			return s
		}
	}
	return strings.ToValidUTF8(string(b), "�")
}

func decode(t transform.Transformer, b []byte) (string, bool) {
	out, _, err := transform.Bytes(t, b)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}
