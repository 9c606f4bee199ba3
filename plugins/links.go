package plugins

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/msahib/blog/content"
	"github.com/msahib/blog/manifest"
)

// catchLinks keeps in-site links inside the path prefix: a root-relative
// href such as "/about/" becomes "/blog/about/" when the site is served
// under /blog.
type catchLinks struct {
	named
}

func newCatchLinks(*manifest.Manifest, manifest.Options) (Plugin, error) {
	return &catchLinks{named: CatchLinks}, nil
}

func (c *catchLinks) Process(site *Site, doc *content.Document) error {
	prefix := site.Manifest.PathPrefix
	if prefix == "" {
		return nil
	}
	out, err := rewriteHTML(doc.HTML, func(body *goquery.Selection) error {
		prefixAnchors(body, prefix)
		return nil
	})
	if err != nil {
		return err
	}
	doc.HTML = out
	return nil
}

// PrefixLinks rewrites root-relative hrefs in rendered HTML under prefix.
// Links that are protocol-relative or already under prefix are left alone.
func PrefixLinks(rendered, prefix string) string {
	if prefix == "" {
		return rendered
	}
	out, err := rewriteHTML(rendered, func(body *goquery.Selection) error {
		prefixAnchors(body, prefix)
		return nil
	})
	if err != nil {
		return rendered
	}
	return out
}

func prefixAnchors(body *goquery.Selection, prefix string) {
	body.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		p := a.AttrOr("href", "")
		if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || p == prefix || strings.HasPrefix(p, prefix+"/") {
			return
		}
		a.SetAttr("href", prefix+p)
	})
}
