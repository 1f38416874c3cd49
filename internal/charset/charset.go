// Package charset decodes corpus bytes into UTF-8 text under a named encoding
// and guesses the encoding of files that carry no explicit declaration.
package charset

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/kailas-cloud/digesto/internal/domain"
)

// Supported encoding names.
const (
	Auto    = "auto"
	UTF8    = "utf-8"
	UTF8SIG = "utf-8-sig"
	UTF16   = "utf-16"
	UTF16LE = "utf-16-le"
	UTF16BE = "utf-16-be"
	Latin1  = "latin-1"
	CP1252  = "cp1252"
)

var (
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
	bomUTF16LE = []byte{0xff, 0xfe}
	bomUTF16BE = []byte{0xfe, 0xff}
)

var aliases = map[string]string{
	"utf8":         UTF8,
	"utf-8":        UTF8,
	"utf8-sig":     UTF8SIG,
	"utf-8-sig":    UTF8SIG,
	"utf16":        UTF16,
	"utf-16":       UTF16,
	"utf16le":      UTF16LE,
	"utf-16le":     UTF16LE,
	"utf-16-le":    UTF16LE,
	"utf16be":      UTF16BE,
	"utf-16be":     UTF16BE,
	"utf-16-be":    UTF16BE,
	"latin1":       Latin1,
	"latin-1":      Latin1,
	"iso-8859-1":   Latin1,
	"iso8859-1":    Latin1,
	"cp1252":       CP1252,
	"windows-1252": CP1252,
	"auto":         Auto,
}

// Names returns the canonical names accepted by Decode, in a stable order.
func Names() []string {
	return []string{UTF8, UTF8SIG, UTF16, UTF16LE, UTF16BE, Latin1, CP1252}
}

// Normalize maps a user-supplied encoding name to its canonical form.
// Case and '_' versus '-' are not significant.
func Normalize(name string) (string, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	canon, ok := aliases[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownEncoding, name)
	}
	return canon, nil
}

// Decode converts raw bytes to a string under the named encoding.
// Decoding is strict: malformed input yields domain.ErrDecode instead of
// replacement characters. Auto is resolved through Detect first.
func Decode(raw []byte, name string) (string, error) {
	canon, err := Normalize(name)
	if err != nil {
		return "", err
	}
	if canon == Auto {
		canon = Detect(raw)
	}

	switch canon {
	case UTF8:
		if off := invalidUTF8Offset(raw); off >= 0 {
			return "", fmt.Errorf("%w as %s: invalid byte 0x%02x at offset %d", domain.ErrDecode, canon, raw[off], off)
		}
		return string(raw), nil
	case UTF8SIG:
		body := bytes.TrimPrefix(raw, bomUTF8)
		if off := invalidUTF8Offset(body); off >= 0 {
			return "", fmt.Errorf("%w as %s: invalid byte 0x%02x at offset %d",
				domain.ErrDecode, canon, body[off], off+len(raw)-len(body))
		}
		return string(body), nil
	}

	if err := validate(raw, canon); err != nil {
		return "", err
	}

	out, err := lookup(canon).NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w as %s: %w", domain.ErrDecode, canon, err)
	}
	return string(out), nil
}

// validate rejects input the x/text decoders would silently replace with
// U+FFFD. A U+FFFD that is really present in the input decodes fine.
func validate(raw []byte, canon string) error {
	switch {
	case isUTF16(canon):
		if len(raw)%2 != 0 {
			return fmt.Errorf("%w as %s: odd byte length %d", domain.ErrDecode, canon, len(raw))
		}
		if off := loneSurrogateOffset(raw, canon); off >= 0 {
			return fmt.Errorf("%w as %s: unpaired surrogate at offset %d", domain.ErrDecode, canon, off)
		}
	case canon == CP1252:
		for i, b := range raw {
			if charmap.Windows1252.DecodeByte(b) == utf8.RuneError {
				return fmt.Errorf("%w as %s: undefined byte 0x%02x at offset %d", domain.ErrDecode, canon, b, i)
			}
		}
	}
	return nil
}

// loneSurrogateOffset returns the byte offset of the first unpaired UTF-16
// surrogate, or -1. Plain utf-16 follows its BOM and defaults to little endian.
func loneSurrogateOffset(raw []byte, canon string) int {
	bigEndian := canon == UTF16BE
	start := 0
	if canon == UTF16 {
		switch {
		case bytes.HasPrefix(raw, bomUTF16BE):
			bigEndian, start = true, 2
		case bytes.HasPrefix(raw, bomUTF16LE):
			start = 2
		}
	}

	unit := func(i int) uint16 {
		if bigEndian {
			return uint16(raw[i])<<8 | uint16(raw[i+1])
		}
		return uint16(raw[i+1])<<8 | uint16(raw[i])
	}

	for i := start; i+1 < len(raw); i += 2 {
		u := unit(i)
		switch {
		case u >= 0xd800 && u < 0xdc00:
			if i+3 >= len(raw) {
				return i
			}
			if next := unit(i + 2); next < 0xdc00 || next > 0xdfff {
				return i
			}
			i += 2
		case u >= 0xdc00 && u <= 0xdfff:
			return i
		}
	}
	return -1
}

// DecodeAuto decodes raw under name and reports the encoding actually used.
func DecodeAuto(raw []byte, name string) (string, string, error) {
	canon, err := Normalize(name)
	if err != nil {
		return "", "", err
	}
	if canon == Auto {
		canon = Detect(raw)
	}
	text, err := Decode(raw, canon)
	if err != nil {
		return "", canon, err
	}
	return text, canon, nil
}

// Detect guesses the encoding of raw: a byte order mark wins, then UTF-16
// when every other byte is NUL, then valid UTF-8, else cp1252.
func Detect(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return UTF8SIG
	case bytes.HasPrefix(raw, bomUTF16LE), bytes.HasPrefix(raw, bomUTF16BE):
		return UTF16
	}

	// NUL is valid UTF-8, so UTF-16 has to be ruled out first.
	if enc, ok := sniffUTF16(raw); ok {
		return enc
	}
	if utf8.Valid(trimPartialRune(raw)) {
		return UTF8
	}
	return CP1252
}

func lookup(canon string) encoding.Encoding {
	switch canon {
	case UTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case Latin1:
		return charmap.ISO8859_1
	default:
		return charmap.Windows1252
	}
}

func isUTF16(canon string) bool {
	return canon == UTF16 || canon == UTF16LE || canon == UTF16BE
}

// sniffUTF16 reports UTF-16 without BOM when most code units of a mostly
// Latin text have a zero high byte.
func sniffUTF16(raw []byte) (string, bool) {
	pairs := len(raw) / 2
	if pairs == 0 {
		return "", false
	}
	var evenNUL, oddNUL int
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 {
			evenNUL++
		}
		if raw[i+1] == 0 {
			oddNUL++
		}
	}
	switch {
	case oddNUL*2 > pairs && evenNUL*10 < pairs:
		return UTF16LE, true
	case evenNUL*2 > pairs && oddNUL*10 < pairs:
		return UTF16BE, true
	}
	return "", false
}

// invalidUTF8Offset returns the offset of the first invalid byte, or -1.
func invalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

// trimPartialRune drops an incomplete multi-byte sequence at the end of b,
// so that a prefix cut mid-rune still counts as UTF-8.
func trimPartialRune(b []byte) []byte {
	i := len(b) - 1
	for i > 0 && len(b)-i < utf8.UTFMax && !utf8.RuneStart(b[i]) {
		i--
	}
	if i >= 0 && !utf8.FullRune(b[i:]) {
		return b[:i]
	}
	return b
}
