// Package slug turns post titles into lowercase ASCII, hyphen-separated
// identifiers.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that do not decompose into base + combining mark.
var folds = map[rune]string{
	'ß': "ss", 'æ': "ae", 'Æ': "ae", 'œ': "oe", 'Œ': "oe",
	'ø': "o", 'Ø': "o", 'đ': "d", 'Đ': "d", 'ð': "d", 'Ð': "d",
	'ł': "l", 'Ł': "l", 'þ': "th", 'Þ': "th", 'ı': "i",
}

// Symbols spelled out instead of dropped.
var symbols = map[rune]string{
	'&': "and", '%': "percent", '$': "dollar",
	'<': "less", '>': "greater", '|': "or",
}

func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Make normalizes title under the strict policy: diacritics are stripped,
// hyphens count as whitespace, anything else that is not an ASCII letter
// or digit is removed (underscores included), and separator runs become a
// single hyphen. The result may be empty.
func Make(title string) string {
	plain, _, err := transform.String(stripMarks(), title)
	if err != nil {
		plain = title
	}

	var b strings.Builder
	b.Grow(len(plain))
	pendingSep := false
	write := func(s string) {
		if pendingSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingSep = false
		b.WriteString(s)
	}

	for _, r := range plain {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			write(string(unicode.ToLower(r)))
		case unicode.IsSpace(r) || r == '-':
			pendingSep = true
		default:
			if s, ok := folds[r]; ok {
				write(s)
			} else if s, ok := symbols[r]; ok {
				write(s)
			}
		}
	}
	return b.String()
}
