package zfp

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Encoding selects the codepage used for string parameters on the wire.
// The driver server passes the bytes to the device verbatim.
type Encoding int

const (
	EncCP1250 Encoding = iota
	EncISO88592
	EncASCII
)

func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cp1250", "windows-1250", "win1250", "":
		return EncCP1250, nil
	case "latin2", "latin-2", "iso-8859-2", "iso8859-2":
		return EncISO88592, nil
	case "ascii":
		return EncASCII, nil
	default:
		return EncCP1250, fmt.Errorf("unknown encoding: %q (use: cp1250|latin2|ascii)", s)
	}
}

func encodeText(enc Encoding, s string) ([]byte, error) {
	switch enc {
	case EncASCII:
		return []byte(Transliterate(s)), nil

	case EncCP1250:
		return charmap.Windows1250.NewEncoder().Bytes([]byte(s))

	case EncISO88592:
		return charmap.ISO8859_2.NewEncoder().Bytes([]byte(s))

	default:
		return nil, fmt.Errorf("unsupported encoding")
	}
}

// stripMarks decomposes and drops combining marks, so "Țuică" folds to "Tuica".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Letters with no canonical decomposition.
var translitMap = map[rune]string{
	'Ł': "L", 'ł': "l",
	'Đ': "D", 'đ': "d",
	'ß': "ss",
	'Æ': "AE", 'æ': "ae",
	'Ø': "O", 'ø': "o",
	'Þ': "Th", 'þ': "th",
}

// Transliterate folds text to plain ASCII for printing. Runes that cannot
// be folded are replaced with '?' rather than dropped, so line widths stay
// predictable.
func Transliterate(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r <= 0x7F:
			b.WriteRune(r)
		default:
			if rep, ok := translitMap[r]; ok {
				b.WriteString(rep)
			} else {
				b.WriteByte('?')
			}
		}
	}
	return b.String()
}
