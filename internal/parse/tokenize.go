// Package parse turns raw chat text into command arguments and decodes the
// mention and emoji markup Discord embeds in message content.
package parse

import (
	"regexp"
	"strings"
)

var messageSplit = regexp.MustCompile(`([^"\s]*"[^"\n]*"[^"\s]*)|([^\s]+)`)

// Typographic quotes that phones and keyboards substitute for '"'.
var fancyQuotes = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", `"`,
	"’", `"`,
	"«", `"`,
	"»", `"`,
	"„", `"`,
)

// Tokenize splits raw into arguments. A double-quoted span, possibly glued to
// surrounding non-space characters, is a single argument with its quotes
// removed. A quote preceded by a backslash is kept literally. Tokenize never
// fails: unbalanced quotes fall back to whitespace splitting.
func Tokenize(raw string) []string {
	clean := fancyQuotes.Replace(raw)
	matches := messageSplit.FindAllString(clean, -1)

	args := make([]string, 0, len(matches))
	for _, m := range matches {
		args = append(args, stripQuotes(m))
	}
	return args
}

func stripQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	escaped := false
	for _, c := range s {
		if c != '"' || escaped {
			b.WriteRune(c)
		}
		escaped = !escaped && c == '\\'
	}
	return b.String()
}
