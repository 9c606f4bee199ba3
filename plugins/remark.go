package plugins

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/msahib/blog/content"
	"github.com/msahib/blog/manifest"
	"github.com/msahib/blog/markdown"
)

// remarkStep is a sub-plugin of the remark transformer. Steps edit the
// parsed body of each rendered document, in declaration order.
type remarkStep interface {
	Plugin
	Apply(site *Site, doc *content.Document, body *goquery.Selection) error
}

var remarkBuiltin = table{
	RemarkCopyLinkedFiles: {
		spec:  manifest.Spec{Validate: validator(parseCopyOptions)},
		build: newCopyLinkedFiles,
	},
	RemarkImages: {
		spec:  manifest.Spec{Requires: []string{PluginSharp}, Validate: validator(parseImageOptions)},
		build: newRemarkImages,
	},
	RemarkPrismJS: {
		spec:  manifest.Spec{Validate: validator(parsePrismOptions)},
		build: newPrismJS,
	},
	RemarkSmartypants:     {build: newSmartypants},
	RemarkAutolinkHeaders: {
		spec:  manifest.Spec{Validate: validator(parseAutolinkOptions)},
		build: newAutolinkHeaders,
	},
}

// transformerRemark renders Markdown and runs its sub-plugins over the
// result. It also copies the plain files they link to.
type transformerRemark struct {
	named
	steps []remarkStep
}

func newTransformerRemark(m *manifest.Manifest, o manifest.Options) (Plugin, error) {
	decls, err := manifest.PluginsFromValue(o["plugins"])
	if err != nil {
		return nil, err
	}
	t := &transformerRemark{named: TransformerRemark}
	for _, decl := range decls {
		p, err := build(remarkBuiltin, decl, m)
		if err != nil {
			return nil, err
		}
		step, ok := p.(remarkStep)
		if !ok {
			return nil, fmt.Errorf("plugin %q: not a remark plugin", decl.Name)
		}
		t.steps = append(t.steps, step)
	}
	return t, nil
}

func (t *transformerRemark) Transform(ctx context.Context, site *Site, doc *content.Document) error {
	rendered := markdown.ToHTML(doc.Body)
	doc.Text = content.PlainText(rendered)
	if len(t.steps) == 0 {
		doc.HTML = rendered
		return nil
	}
	out, err := rewriteHTML(rendered, func(body *goquery.Selection) error {
		for _, s := range t.steps {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.Apply(site, doc, body); err != nil {
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	doc.HTML = out
	return nil
}

func (t *transformerRemark) Finalize(ctx context.Context, site *Site) error {
	for _, a := range site.Assets(content.AssetFile) {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(a.Source)
		if err != nil {
			return fmt.Errorf("copy %s: %w", a.Source, err)
		}
		site.Emit(a.Target, data)
	}
	return nil
}

// localRef resolves a relative reference found in doc to a file on disk. It
// reports false for absolute URLs, root paths and fragments.
func localRef(doc *content.Document, ref string) (string, bool) {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "#") {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	return filepath.Join(doc.Dir(), filepath.FromSlash(u.Path)), true
}

// staticTarget returns the content addressed site path of a copied file.
func staticTarget(source, name string) (string, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return path.Join("/static", hex.EncodeToString(sum[:8]), name), nil
}

var rasterExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

func isRaster(p string) bool {
	return rasterExt[strings.ToLower(filepath.Ext(p))]
}

func remarkSiblings(m *manifest.Manifest) map[string]bool {
	out := make(map[string]bool)
	decl, ok := m.Find(TransformerRemark)
	if !ok {
		return out
	}
	subs, _ := manifest.PluginsFromValue(decl.Options["plugins"])
	for _, s := range subs {
		out[s.Name] = true
	}
	return out
}

type copyOptions struct {
	ignore map[string]bool
}

func parseCopyOptions(o manifest.Options) (copyOptions, error) {
	co := copyOptions{ignore: make(map[string]bool)}
	v, ok := o["ignoreFileExtensions"]
	if !ok || v == nil {
		return co, nil
	}
	list, ok := v.([]any)
	if !ok {
		return co, fmt.Errorf("%w: ignoreFileExtensions must be a list", manifest.ErrInvalidOptions)
	}
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return co, fmt.Errorf("%w: ignoreFileExtensions entries must be strings", manifest.ErrInvalidOptions)
		}
		co.ignore["."+strings.ToLower(strings.TrimPrefix(s, "."))] = true
	}
	return co, nil
}

// copyLinkedFiles copies files referenced by relative href or src
// attributes into /static and rewrites the references.
type copyLinkedFiles struct {
	named
	opts copyOptions
	// skipRaster leaves raster img sources to the image plugin.
	skipRaster bool
}

func newCopyLinkedFiles(m *manifest.Manifest, o manifest.Options) (Plugin, error) {
	co, err := parseCopyOptions(o)
	if err != nil {
		return nil, err
	}
	return &copyLinkedFiles{
		named:      RemarkCopyLinkedFiles,
		opts:       co,
		skipRaster: remarkSiblings(m)[RemarkImages],
	}, nil
}

func (c *copyLinkedFiles) Apply(site *Site, doc *content.Document, body *goquery.Selection) error {
	body.Find("[href], [src]").Each(func(_ int, el *goquery.Selection) {
		for _, attr := range []string{"href", "src"} {
			ref, ok := el.Attr(attr)
			if !ok {
				continue
			}
			src, ok := localRef(doc, ref)
			if !ok || strings.EqualFold(filepath.Ext(src), ".md") || c.opts.ignore[strings.ToLower(filepath.Ext(src))] {
				continue
			}
			if attr == "src" && c.skipRaster && isRaster(src) {
				continue
			}
			target, err := staticTarget(src, filepath.Base(src))
			if err != nil {
				site.Logger.Warn("linked file not copied", zap.String("doc", doc.SourcePath), zap.String("ref", ref), zap.Error(err))
				continue
			}
			doc.AddAsset(content.Asset{Kind: content.AssetFile, Source: src, Target: target})
			el.SetAttr(attr, site.Path(target))
		}
	})
	return nil
}
