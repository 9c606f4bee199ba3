package blog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/msahib/blog/content"
	"github.com/msahib/blog/layout"
	"github.com/msahib/blog/plugins"
	"github.com/msahib/blog/views"
)

// Build runs the plugin pipeline, refreshes the page index and writes the
// static site to Config.OutDir.
func (a *App) Build(ctx context.Context) error {
	if err := a.Open(); err != nil {
		return err
	}
	start := time.Now()

	site := plugins.NewSite(a.Manifest, a.Config.URL, a.Logger)
	if err := a.pipeline.Run(ctx, site); err != nil {
		return fmt.Errorf("blog: build: %w", err)
	}
	if err := a.pipeline.Finalize(ctx, site); err != nil {
		return fmt.Errorf("blog: build: %w", err)
	}
	if err := a.index(site); err != nil {
		return fmt.Errorf("blog: index pages: %w", err)
	}

	a.site = site
	a.docs = make(map[string]*content.Document, len(site.Documents))
	for _, d := range site.Documents {
		a.docs[d.Slug] = d
	}
	a.root.Head = append(a.pipeline.Head(site), layout.Link("stylesheet", site.Path("/fonts.css")))

	if err := a.writeSite(ctx, site); err != nil {
		return fmt.Errorf("blog: write %s: %w", a.Config.OutDir, err)
	}
	if err := a.writeFonts(ctx); err != nil {
		return fmt.Errorf("blog: write fonts: %w", err)
	}

	a.Logger.Info("site built",
		zap.Int("documents", len(site.Documents)),
		zap.Int("published", len(site.Published())),
		zap.Int("files", len(site.Files())),
		zap.String("out", a.Config.OutDir),
		zap.Duration("took", time.Since(start)))
	return nil
}

// index replaces the page index with the documents of site.
func (a *App) index(site *plugins.Site) error {
	if err := a.Store.Reset(); err != nil {
		return err
	}
	for _, d := range site.Documents {
		if err := a.Store.SavePage(pageFromDocument(site, d)); err != nil {
			return fmt.Errorf("save %s: %w", d.Slug, err)
		}
	}
	pages, err := a.Store.ListPages("")
	if err != nil {
		return err
	}
	tags, err := a.Store.ListTags()
	if err != nil {
		return err
	}
	a.Cache.Fill(pages, tags)
	return nil
}

func (a *App) writeSite(ctx context.Context, site *plugins.Site) error {
	pages, tags := a.Cache.ListPages(""), a.Cache.ListTags()

	if err := a.writeComponent(ctx, "/index.html", a.indexComponent(pages, tags, "")); err != nil {
		return err
	}
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		cmp := a.pageComponent(p, views.FilterRelatedPages(p, pages))
		if err := a.writeComponent(ctx, "/"+p.Slug+"/index.html", cmp); err != nil {
			return err
		}
	}

	for _, f := range site.Files() {
		if err := a.writeFile(f.Path, f.Data); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := a.writeSitemap(&buf, pages); err != nil {
		return err
	}
	if err := a.writeFile("/sitemap.xml", buf.Bytes()); err != nil {
		return err
	}
	buf.Reset()
	if err := a.writeRSS(&buf, pages); err != nil {
		return err
	}
	return a.writeFile("/feed.xml", buf.Bytes())
}

// writeFonts waits a bounded time for the font stylesheet started by the
// layout's first render. A missing stylesheet leaves a placeholder so the
// link in every page still resolves.
func (a *App) writeFonts(ctx context.Context) error {
	timer := time.NewTimer(a.Config.FontWait)
	defer timer.Stop()
	select {
	case <-a.Fonts.Done():
	case <-timer.C:
		a.Logger.Warn("web fonts still loading, writing placeholder", zap.Duration("waited", a.Config.FontWait))
	case <-ctx.Done():
		return ctx.Err()
	}
	css, ok := a.Fonts.Stylesheet()
	if !ok {
		css = []byte(fontsPlaceholder)
	}
	return a.writeFile("/fonts.css", css)
}

const fontsPlaceholder = "/* web fonts unavailable */\n"

func (a *App) writeComponent(ctx context.Context, rel string, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return fmt.Errorf("render %s: %w", rel, err)
	}
	return a.writeFile(rel, buf.Bytes())
}

// writeFile writes data to the site path rel inside the output directory.
func (a *App) writeFile(rel string, data []byte) error {
	clean := filepath.Clean("/" + strings.TrimPrefix(rel, "/"))
	path := filepath.Join(a.Config.OutDir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (a *App) indexComponent(pages []Page, tags []string, activeTag string) templ.Component {
	home := a.home()
	head := append(a.pipeline.PageHead(a.site, nil),
		jsonLD(WebsiteJsonLD(a.siteTitle(), a.absURL("/"), a.Manifest.SiteMetadata.Author)))
	return a.root.Component(layout.Props{
		Location: layout.Location{Pathname: home},
		Head:     head,
		Children: func() templ.Component { return views.Index(pages, tags, activeTag, home) },
	})
}

func (a *App) pageComponent(p Page, related []Page) templ.Component {
	var head []layout.HeadTag
	if doc, ok := a.docs[p.Slug]; ok {
		head = a.pipeline.PageHead(a.site, doc)
	}
	pageURL := a.absURL("/" + p.Slug + "/")
	head = append(head, jsonLD(BlogPostingJsonLD(p, pageURL, a.siteTitle(), a.Manifest.SiteMetadata.Author)))
	return a.root.Component(layout.Props{
		Location: layout.Location{Pathname: p.Link},
		Head:     head,
		Children: func() templ.Component { return views.Post(p, related, a.home()) },
	})
}

func (a *App) statusComponent(pathname string, body templ.Component) templ.Component {
	return a.root.Component(layout.Props{
		Location: layout.Location{Pathname: pathname},
		Children: func() templ.Component { return body },
	})
}

func (a *App) siteTitle() string {
	if t := a.Manifest.SiteMetadata.Title; t != "" {
		return t
	}
	return layout.Title
}
