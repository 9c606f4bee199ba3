package plugins

import (
	"fmt"
	"html"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/msahib/blog/content"
	"github.com/msahib/blog/manifest"
)

type imageOptions struct {
	maxWidth     int
	linkOriginal bool
}

func parseImageOptions(o manifest.Options) (imageOptions, error) {
	var io imageOptions
	w, err := o.Int("maxWidth", 650)
	if err != nil {
		return io, err
	}
	if w <= 0 {
		return io, fmt.Errorf("%w: maxWidth must be positive", manifest.ErrInvalidOptions)
	}
	io.maxWidth = w
	if io.linkOriginal, err = o.Bool("linkImagesToOriginal", true); err != nil {
		return io, err
	}
	return io, nil
}

// remarkImages hands local raster images to the image processor, pointing
// the img at a resized copy and optionally linking it to the original.
type remarkImages struct {
	named
	opts imageOptions
}

func newRemarkImages(_ *manifest.Manifest, o manifest.Options) (Plugin, error) {
	io, err := parseImageOptions(o)
	if err != nil {
		return nil, err
	}
	return &remarkImages{named: RemarkImages, opts: io}, nil
}

func (r *remarkImages) Apply(site *Site, doc *content.Document, body *goquery.Selection) error {
	body.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		ref := img.AttrOr("src", "")
		src, ok := localRef(doc, ref)
		if !ok || !isRaster(src) {
			return
		}
		base := filepath.Base(src)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		resized, err := staticTarget(src, stem+"-"+strconv.Itoa(r.opts.maxWidth)+"w.jpg")
		if err != nil {
			site.Logger.Warn("image not processed", zap.String("doc", doc.SourcePath), zap.String("src", ref), zap.Error(err))
			return
		}
		doc.AddAsset(content.Asset{Kind: content.AssetImage, Source: src, Target: resized, MaxWidth: r.opts.maxWidth})
		img.SetAttr("src", site.Path(resized))
		img.AddClass("gatsby-resp-image-image")
		if !r.opts.linkOriginal {
			return
		}
		original, err := staticTarget(src, base)
		if err != nil {
			return
		}
		doc.AddAsset(content.Asset{Kind: content.AssetFile, Source: src, Target: original})
		img.WrapHtml(`<a class="gatsby-resp-image-link" href="` + html.EscapeString(site.Path(original)) +
			`" target="_blank" rel="noopener"></a>`)
	})
	return nil
}

type prismOptions struct {
	classPrefix string
}

func parsePrismOptions(o manifest.Options) (prismOptions, error) {
	po := prismOptions{classPrefix: "language-"}
	if v, ok := o["classPrefix"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return po, fmt.Errorf("%w: classPrefix must be a non-empty string", manifest.ErrInvalidOptions)
		}
		po.classPrefix = s
	}
	return po, nil
}

// prismJS marks fenced code blocks up for client side highlighting.
type prismJS struct {
	named
	opts prismOptions
}

func newPrismJS(_ *manifest.Manifest, o manifest.Options) (Plugin, error) {
	po, err := parsePrismOptions(o)
	if err != nil {
		return nil, err
	}
	return &prismJS{named: RemarkPrismJS, opts: po}, nil
}

func (p *prismJS) Apply(_ *Site, _ *content.Document, body *goquery.Selection) error {
	body.Find("div.code-block-wrapper").Each(func(_ int, wrapper *goquery.Selection) {
		code := wrapper.Find("pre.code-block > code").First()
		lang := strings.TrimPrefix(code.AttrOr("class", ""), "language-")
		if lang == "" {
			return
		}
		class := p.opts.classPrefix + lang
		wrapper.AddClass("gatsby-highlight")
		wrapper.SetAttr("data-language", lang)
		code.Parent().AddClass(class)
		code.SetAttr("class", class)
	})
	return nil
}

// smartypants replaces straight quotes, dashes and ellipses with their
// typographic forms outside code.
type smartypants struct {
	named
}

func newSmartypants(*manifest.Manifest, manifest.Options) (Plugin, error) {
	return &smartypants{named: RemarkSmartypants}, nil
}

func (s *smartypants) Apply(_ *Site, _ *content.Document, body *goquery.Selection) error {
	prev := ' '
	for _, n := range body.Nodes {
		smartenNode(n, &prev)
	}
	return nil
}

var dashes = strings.NewReplacer("---", "—", "--", "–", "...", "…")

// Smarten applies typographic punctuation to the text of rendered HTML,
// leaving markup, code and pre content untouched.
func Smarten(rendered string) string {
	out, err := rewriteHTML(rendered, func(body *goquery.Selection) error {
		return (&smartypants{}).Apply(nil, nil, body)
	})
	if err != nil {
		return rendered
	}
	return out
}

// verbatim elements keep their text as written.
var verbatim = map[atom.Atom]bool{
	atom.Code: true, atom.Pre: true, atom.Kbd: true, atom.Samp: true,
	atom.Script: true, atom.Style: true,
}

func smartenNode(n *nethtml.Node, prev *rune) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case nethtml.TextNode:
			c.Data = smartText(c.Data, prev)
		case nethtml.ElementNode:
			if verbatim[c.DataAtom] {
				if r := lastRune(c); r != 0 {
					*prev = r
				}
				continue
			}
			smartenNode(c, prev)
		}
	}
}

// smartText curls quotes in text. A quote opens after whitespace or an
// opening bracket and closes otherwise.
func smartText(text string, prev *rune) string {
	text = dashes.Replace(text)
	var b strings.Builder
	for _, r := range text {
		var open, closing rune
		switch r {
		case '"':
			open, closing = '“', '”'
		case '\'':
			open, closing = '‘', '’'
		default:
			b.WriteRune(r)
			*prev = r
			continue
		}
		if unicode.IsSpace(*prev) || strings.ContainsRune("([{—–", *prev) {
			r = open
		} else {
			r = closing
		}
		b.WriteRune(r)
		*prev = r
	}
	return b.String()
}

type autolinkOptions struct {
	className string
	icon      bool
}

func parseAutolinkOptions(o manifest.Options) (autolinkOptions, error) {
	ao := autolinkOptions{className: "anchor"}
	if v, ok := o["className"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return ao, fmt.Errorf("%w: className must be a non-empty string", manifest.ErrInvalidOptions)
		}
		ao.className = s
	}
	icon, err := o.Bool("icon", true)
	if err != nil {
		return ao, err
	}
	ao.icon = icon
	return ao, nil
}

// autolinkHeaders gives every heading an id and a self link.
type autolinkHeaders struct {
	named
	opts autolinkOptions
}

func newAutolinkHeaders(_ *manifest.Manifest, o manifest.Options) (Plugin, error) {
	ao, err := parseAutolinkOptions(o)
	if err != nil {
		return nil, err
	}
	return &autolinkHeaders{named: RemarkAutolinkHeaders, opts: ao}, nil
}

func (a *autolinkHeaders) Apply(_ *Site, _ *content.Document, body *goquery.Selection) error {
	used := make(map[string]int)
	mark := ""
	if a.opts.icon {
		mark = "#"
	}
	body.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, h *goquery.Selection) {
		id := content.Slugify(h.Text())
		if id == "" {
			return
		}
		if n := used[id]; n > 0 {
			used[id] = n + 1
			id += "-" + strconv.Itoa(n)
		} else {
			used[id] = 1
		}
		h.SetAttr("id", id)
		h.PrependHtml(`<a href="#` + id + `" aria-label="` + id + ` permalink" class="` +
			html.EscapeString(a.opts.className) + `">` + mark + `</a>`)
	})
	return nil
}
