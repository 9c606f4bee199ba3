package content

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

var (
	// Stripping a closing tag leaves a space before the punctuation after it.
	reSpaceBeforePunct = regexp.MustCompile(`\s+([.,;:!?)\]])`)
	reSpaceAfterOpen   = regexp.MustCompile(`([(\[])\s+`)
)

// PlainText strips all markup from rendered HTML and collapses whitespace.
func PlainText(rendered string) string {
	text := html.UnescapeString(strict.Sanitize(rendered))
	text = strings.Join(strings.Fields(text), " ")
	text = reSpaceBeforePunct.ReplaceAllString(text, "$1")
	return reSpaceAfterOpen.ReplaceAllString(text, "$1")
}

// Truncate returns at most n runes of text, cut at a word boundary and
// marked with an ellipsis when shortened.
func Truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
