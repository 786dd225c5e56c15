// Package escape makes free-form text safe to embed in a RediSearch query
// string. Each function targets one syntactic context of the query language.
//
//	q := "@" + escape.FieldName("first-name") + ":" + escape.Word("o'neil")
//	// @first\-name:o\'neil
//
// Idempotence is not guaranteed (a pre-escaped `\-5` comes back as `-5`), so
// escape every raw input exactly once.
package escape

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Reserved lists every character RediSearch treats as query syntax.
const Reserved = `,.<>{}[]"':;!@#$%^&*()-+=~|`

const digits = "0123456789"

// Word escapes a plain search term. Negative numeric literals are left
// intact so the server still reads them as numbers.
func Word(s string) string {
	return unescapeNegativeNumbers(Common(s))
}

// FieldName escapes an attribute name. A leading minus is always escaped
// since a field name is never a numeric operand.
func FieldName(s string) string {
	return AtWordStart(Word(s), "-")
}

// Negation escapes a term that follows the '-' operator. Words starting with
// a digit get that digit escaped; negative numbers keep their sign.
func Negation(s string) string {
	return AtWordStart(Word(s), digits)
}

// ExactMatch escapes a phrase placed between double quotes.
func ExactMatch(s string) string { return Word(s) }

// Fuzzy escapes a term placed between '%' markers.
func Fuzzy(s string) string { return Word(s) }

// Optional escapes a term that follows the '~' operator.
func Optional(s string) string { return Word(s) }

// Tag escapes a value placed inside a tag filter's braces. Spaces are part of
// the value there, so they are escaped too.
func Tag(s string) string {
	w := Word(s)
	if !strings.ContainsAny(w, " \t") {
		return w
	}
	return prefixUnescaped(w, func(c byte) bool { return c == ' ' || c == '\t' }, 4)
}

// Nothing returns s unchanged. Use it where the caller already escaped.
func Nothing(s string) string { return s }

// Common prefixes every reserved character that is not already escaped with a
// backslash. A character counts as escaped when an odd number of backslashes
// precede it.
func Common(s string) string {
	if !strings.ContainsAny(s, Reserved) {
		return s
	}
	return prefixUnescaped(s, func(c byte) bool { return strings.IndexByte(Reserved, c) >= 0 }, 8)
}

// prefixUnescaped backslashes every byte matching want that is not already
// escaped. Only ASCII is ever matched, so other bytes (invalid UTF-8
// included) are copied as they are.
func prefixUnescaped(s string, want func(byte) bool, extra int) string {
	var sb strings.Builder
	sb.Grow(len(s) + extra)
	run := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if run%2 == 0 && want(c) {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
		if c == '\\' {
			run++
		} else {
			run = 0
		}
	}
	return sb.String()
}

// AtWordStart escapes any of chars found at the start of s or right after
// whitespace. Interior occurrences are untouched.
func AtWordStart(s, chars string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	start := true
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if start && strings.ContainsRune(chars, r) {
			sb.WriteByte('\\')
		}
		sb.WriteString(s[i : i+size])
		start = unicode.IsSpace(r)
		i += size
	}
	return sb.String()
}

// unescapeNegativeNumbers turns `\-5` back into `-5` when it opens a word.
func unescapeNegativeNumbers(s string) string {
	if !strings.Contains(s, `\-`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && wordStart(s, i) && strings.HasPrefix(s[i+1:], "-") {
			if d, _ := utf8.DecodeRuneInString(s[i+2:]); unicode.IsDigit(d) {
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func wordStart(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsSpace(r)
}
