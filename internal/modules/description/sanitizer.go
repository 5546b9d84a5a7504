// Package description turns the markup-bearing descriptions served by the
// store into plain text for a non-scrollable text view.
package description

import (
	"regexp"
	"strings"
)

// tagPattern deletes the shortest <...> run; [^>] also matches newlines so
// tags spanning lines go too. A '<' without a closing '>' never matches.
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// entities are applied in order. Anything not listed, numeric references
// included, is left as is.
var entities = [][2]string{
	{"&nbsp;", " "},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
	{"&apos;", "'"},
}

// Sanitize strips tags, resolves the known entities and collapses whitespace.
// It never fails; empty input yields "".
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	text := tagPattern.ReplaceAllString(raw, "")

	for _, entity := range entities {
		text = strings.ReplaceAll(text, entity[0], entity[1])
	}

	// Fields splits on any unicode whitespace run and drops the ends
	return strings.Join(strings.Fields(text), " ")
}
