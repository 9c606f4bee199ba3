package plugins

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// parseBody parses rendered page HTML and returns its body selection.
func parseBody(rendered string) (*goquery.Selection, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return nil, err
	}
	return d.Find("body"), nil
}

// rewriteHTML parses rendered, lets fn edit the body and serializes it back.
func rewriteHTML(rendered string, fn func(body *goquery.Selection) error) (string, error) {
	body, err := parseBody(rendered)
	if err != nil {
		return "", err
	}
	if err := fn(body); err != nil {
		return "", err
	}
	return body.Html()
}

// lastRune returns the last rune of the text below n, or 0.
func lastRune(n *html.Node) rune {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		switch c.Type {
		case html.TextNode:
			if r, _ := utf8.DecodeLastRuneInString(c.Data); r != utf8.RuneError {
				return r
			}
		case html.ElementNode:
			if r := lastRune(c); r != 0 {
				return r
			}
		}
	}
	return 0
}
