// Package plugins implements the build plugins a site manifest can declare
// and runs them as an ordered pipeline.
//
// A build runs in phases. Within each phase plugins run in the order the
// manifest lists them:
//
//	source    -> Sourcer adds documents
//	transform -> Transformer renders each document
//	process   -> Processor rewrites each rendered document
//	head      -> HeadContributor / PageHeadContributor add head tags
//	finalize  -> Finalizer emits extra output files
package plugins

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/msahib/blog/content"
	"github.com/msahib/blog/layout"
	"github.com/msahib/blog/manifest"
)

// Plugin is a resolved manifest entry.
type Plugin interface {
	Name() string
}

// Sourcer adds documents to the site.
type Sourcer interface {
	Source(ctx context.Context, site *Site) error
}

// Transformer turns a document's Markdown into HTML.
type Transformer interface {
	Transform(ctx context.Context, site *Site, doc *content.Document) error
}

// Processor rewrites a document's rendered HTML.
type Processor interface {
	Process(site *Site, doc *content.Document) error
}

// HeadContributor adds head tags shared by every page.
type HeadContributor interface {
	Head(site *Site) []layout.HeadTag
}

// PageHeadContributor adds head tags for one page. doc is nil for the index.
type PageHeadContributor interface {
	PageHead(site *Site, doc *content.Document) []layout.HeadTag
}

// Finalizer runs after every document is rendered and may emit files.
type Finalizer interface {
	Finalize(ctx context.Context, site *Site) error
}

// File is an output file emitted by a plugin.
type File struct {
	Path string // site path without the path prefix
	Data []byte
}

// Site is the shared state of one build.
type Site struct {
	Manifest  *manifest.Manifest
	SiteURL   string
	Logger    *zap.Logger
	Documents []*content.Document

	files map[string]int
	out   []File
}

// NewSite creates the build state for m.
func NewSite(m *manifest.Manifest, siteURL string, logger *zap.Logger) *Site {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Site{
		Manifest: m,
		SiteURL:  strings.TrimRight(siteURL, "/"),
		Logger:   logger,
		files:    make(map[string]int),
	}
}

// Emit records an output file. A later Emit for the same path replaces it.
func (s *Site) Emit(path string, data []byte) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if i, ok := s.files[path]; ok {
		s.out[i].Data = data
		return
	}
	s.files[path] = len(s.out)
	s.out = append(s.out, File{Path: path, Data: data})
}

// Files returns emitted files in emission order.
func (s *Site) Files() []File {
	return s.out
}

// Path returns p under the manifest path prefix.
func (s *Site) Path(p string) string {
	return s.Manifest.WithPrefix(p)
}

// AbsURL returns the canonical absolute URL for site path p.
func (s *Site) AbsURL(p string) string {
	return s.SiteURL + s.Path(p)
}

// DocPath is the site path of a document, without the path prefix.
func DocPath(doc *content.Document) string {
	return "/" + doc.Slug + "/"
}

// Published returns the documents that are not drafts.
func (s *Site) Published() []*content.Document {
	var docs []*content.Document
	for _, d := range s.Documents {
		if !d.Front.Draft {
			docs = append(docs, d)
		}
	}
	return docs
}

// PagePaths returns the prefixed path of the index and every published page.
func (s *Site) PagePaths() []string {
	paths := []string{s.Path("/")}
	for _, d := range s.Published() {
		paths = append(paths, s.Path(DocPath(d)))
	}
	return paths
}

// Assets returns the assets of kind referenced by published documents,
// ordered by target path.
func (s *Site) Assets(kind content.AssetKind) []content.Asset {
	seen := make(map[string]bool)
	var out []content.Asset
	for _, d := range s.Published() {
		for _, a := range d.Assets {
			if a.Kind != kind || seen[a.Target] {
				continue
			}
			seen[a.Target] = true
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out
}

// Pipeline runs resolved plugins in manifest order.
type Pipeline struct {
	Plugins []Plugin
}

// Resolve validates m against the builtin registry and instantiates its
// plugins in order.
func Resolve(m *manifest.Manifest) (*Pipeline, error) {
	if err := manifest.Validate(m, Registry()); err != nil {
		return nil, err
	}
	p := &Pipeline{}
	for _, decl := range m.Plugins {
		plugin, err := build(builtin, decl, m)
		if err != nil {
			return nil, err
		}
		p.Plugins = append(p.Plugins, plugin)
	}
	return p, nil
}

// Run executes the source, transform and process phases.
func (p *Pipeline) Run(ctx context.Context, site *Site) error {
	for _, pl := range p.Plugins {
		if s, ok := pl.(Sourcer); ok {
			if err := s.Source(ctx, site); err != nil {
				return fmt.Errorf("%s: source: %w", pl.Name(), err)
			}
		}
	}
	if err := content.CheckSlugs(site.Documents); err != nil {
		return err
	}
	content.SortNewestFirst(site.Documents)

	for _, doc := range site.Documents {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, pl := range p.Plugins {
			if t, ok := pl.(Transformer); ok {
				if err := t.Transform(ctx, site, doc); err != nil {
					return fmt.Errorf("%s: transform %s: %w", pl.Name(), doc.SourcePath, err)
				}
			}
		}
		for _, pl := range p.Plugins {
			if pr, ok := pl.(Processor); ok {
				if err := pr.Process(site, doc); err != nil {
					return fmt.Errorf("%s: process %s: %w", pl.Name(), doc.SourcePath, err)
				}
			}
		}
	}
	site.Logger.Debug("pipeline ran", zap.Int("documents", len(site.Documents)))
	return nil
}

// Head collects the shared head tags.
func (p *Pipeline) Head(site *Site) []layout.HeadTag {
	var tags []layout.HeadTag
	for _, pl := range p.Plugins {
		if h, ok := pl.(HeadContributor); ok {
			tags = append(tags, h.Head(site)...)
		}
	}
	return tags
}

// PageHead collects the head tags for one page; doc is nil for the index.
func (p *Pipeline) PageHead(site *Site, doc *content.Document) []layout.HeadTag {
	var tags []layout.HeadTag
	for _, pl := range p.Plugins {
		if h, ok := pl.(PageHeadContributor); ok {
			tags = append(tags, h.PageHead(site, doc)...)
		}
	}
	return tags
}

// Finalize runs every Finalizer.
func (p *Pipeline) Finalize(ctx context.Context, site *Site) error {
	for _, pl := range p.Plugins {
		if f, ok := pl.(Finalizer); ok {
			if err := f.Finalize(ctx, site); err != nil {
				return fmt.Errorf("%s: finalize: %w", pl.Name(), err)
			}
		}
	}
	return nil
}
