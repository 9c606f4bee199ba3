package blog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/msahib/blog/content"
)

const testSiteManifest = `
pathPrefix: /blog
siteMetadata:
  title: Test Blog
  author: Tester
plugins:
  - gatsby-plugin-catch-links
  - gatsby-plugin-styled-components
  - resolve: gatsby-source-filesystem
    options:
      path: pages
  - resolve: gatsby-transformer-remark
    options:
      plugins:
        - gatsby-remark-autolink-headers
  - gatsby-plugin-react-helmet
  - gatsby-plugin-offline
  - resolve: gatsby-plugin-manifest
    options:
      name: Test Blog
`

var testPosts = map[string]string{
	"hello.md": `---
title: Hello World
date: 2024-03-01
tags: [go, web]
---
# Hello

First post, see [the other one](/older/).
`,
	"older.md": `---
title: Older
date: 2023-01-01
tags: [go]
description: An older post
---
Old news.
`,
	"draft.md": `---
title: Draft
date: 2025-01-01
draft: true
---
Not yet.
`,
}

type testSite struct {
	app       *App
	out       string
	fontHits  *atomic.Int32
	fontsBody string
}

func newTestSite(t *testing.T, fontStatus int, opts ...Option) *testSite {
	return newTestSiteWith(t, fontStatus, testPosts, opts...)
}

func newTestSiteWith(t *testing.T, fontStatus int, posts map[string]string, opts ...Option) *testSite {
	t.Helper()
	dir := t.TempDir()
	pages := filepath.Join(dir, "pages")
	require.NoError(t, os.MkdirAll(pages, 0o755))
	for name, body := range posts {
		require.NoError(t, os.WriteFile(filepath.Join(pages, name), []byte(body), 0o644))
	}
	manifestPath := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(testSiteManifest), 0o644))

	ts := &testSite{fontHits: &atomic.Int32{}, fontsBody: "@font-face{font-family:'Merriweather'}"}
	fontServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.fontHits.Add(1)
		w.WriteHeader(fontStatus)
		_, _ = w.Write([]byte(ts.fontsBody))
	}))
	t.Cleanup(fontServer.Close)

	ts.out = filepath.Join(dir, "public")
	ts.app = New(SiteConfig{
		ManifestPath:  manifestPath,
		URL:           "https://example.com",
		OutDir:        ts.out,
		DatabasePath:  filepath.Join(dir, "data", "pages.db"),
		FontsEndpoint: fontServer.URL,
	}, opts...)
	t.Cleanup(func() { ts.app.Close() })
	return ts
}

func (ts *testSite) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(ts.out, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func (ts *testSite) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	ts.app.Handler().ServeHTTP(rec, req)
	return rec
}

func TestBuildWritesSite(t *testing.T) {
	ts := newTestSite(t, http.StatusOK)
	require.NoError(t, ts.app.Build(context.Background()))

	index := ts.read(t, "index.html")
	assert.Equal(t, 1, strings.Count(index, "<title>"))
	assert.Equal(t, 2, strings.Count(index, "<meta "))
	assert.Contains(t, index, `<header class="header">`)
	assert.NotContains(t, index, `<header class="header header--post">`)
	assert.Contains(t, index, `<a href="/blog/hello/">Hello World</a>`)
	assert.Contains(t, index, `<p>Hello First post, see the other one.</p>`)
	assert.Contains(t, index, `<link rel="canonical" href="https://example.com/blog/"/>`)
	assert.Contains(t, index, `<link rel="stylesheet" href="/blog/fonts.css"/>`)
	assert.Contains(t, index, `application/ld+json`)
	assert.NotContains(t, index, "Draft")

	post := ts.read(t, "hello/index.html")
	assert.Equal(t, 1, strings.Count(post, "<title>"))
	assert.Equal(t, 2, strings.Count(post, "<meta "))
	assert.Contains(t, post, `<header class="header header--post">`)
	assert.Contains(t, post, `<h1 id="hello">`)
	assert.Contains(t, post, `href="/blog/older/"`)
	assert.Contains(t, post, `<link rel="canonical" href="https://example.com/blog/hello/"/>`)

	_, err := os.Stat(filepath.Join(ts.out, "draft", "index.html"))
	assert.True(t, os.IsNotExist(err), "drafts are not written")

	assert.Contains(t, ts.read(t, "sitemap.xml"), "<loc>https://example.com/blog/older/</loc>")
	assert.Contains(t, ts.read(t, "feed.xml"), "<title>Test Blog</title>")
	assert.Contains(t, ts.read(t, "sw.js"), `"/blog/hello/"`)
	assert.Contains(t, ts.read(t, "manifest.webmanifest"), `"start_url": "/blog/"`)
	assert.Equal(t, ts.fontsBody, ts.read(t, "fonts.css"))
	assert.Equal(t, int32(1), ts.fontHits.Load())

	_, err = ts.app.Store.GetPage("draft")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuildSlugFallback(t *testing.T) {
	posts := map[string]string{
		"日本.md":  "---\ntitle: Nihon\ndate: 2024-02-01\n---\nKonnichiwa.\n",
		"hello.md": testPosts["hello.md"],
	}
	ts := newTestSiteWith(t, http.StatusOK, posts)
	require.NoError(t, ts.app.Build(context.Background()))

	doc, err := content.ParseDocument("pages/日本.md", []byte(posts["日本.md"]))
	require.NoError(t, err)
	require.Regexp(t, `^post-[0-9a-f]{8}$`, doc.Slug)

	index := ts.read(t, "index.html")
	assert.Contains(t, index, `<header class="header">`)
	assert.Contains(t, index, `<a href="/blog/`+doc.Slug+`/">Nihon</a>`)
	assert.Contains(t, index, `<a href="/blog/hello/">Hello World</a>`)
	assert.Contains(t, ts.read(t, doc.Slug+"/index.html"), "Konnichiwa.")
}

func TestBuildRejectsDuplicateSlugs(t *testing.T) {
	posts := map[string]string{
		"a b.md": "---\ntitle: Spaced\n---\none\n",
		"a-b.md": "---\ntitle: Dashed\n---\ntwo\n",
	}
	ts := newTestSiteWith(t, http.StatusOK, posts)
	err := ts.app.Build(context.Background())
	require.ErrorIs(t, err, content.ErrDuplicateSlug)
	assert.Contains(t, err.Error(), "a b.md")
	assert.Contains(t, err.Error(), "a-b.md")
	assert.NoFileExists(t, filepath.Join(ts.out, "a-b", "index.html"))
}

func TestBuildSurvivesFontFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ts := newTestSite(t, http.StatusInternalServerError, WithLogger(zap.New(core)))
	require.NoError(t, ts.app.Build(context.Background()))
	assert.Equal(t, fontsPlaceholder, ts.read(t, "fonts.css"))

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("web fonts not loaded").Len() == 1
	}, time.Second, 10*time.Millisecond)
	entry := logs.FilterMessage("web fonts not loaded").All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Contains(t, entry.ContextMap()["error"], "500")
}

func TestFontsLoadOncePerMount(t *testing.T) {
	ts := newTestSite(t, http.StatusOK)
	require.NoError(t, ts.app.Build(context.Background()))
	require.NoError(t, ts.app.Build(context.Background()))

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, ts.get(t, "/blog/hello/").Code)
	}
	assert.Equal(t, int32(1), ts.fontHits.Load())
}

func TestBuildRejectsInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plugins:\n  - gatsby-plugin-unknown\n"), 0o644))

	app := New(SiteConfig{ManifestPath: path, DatabasePath: filepath.Join(dir, "pages.db"), OutDir: filepath.Join(dir, "out")})
	err := app.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gatsby-plugin-unknown")
}

func TestServerRoutes(t *testing.T) {
	ts := newTestSite(t, http.StatusOK)
	require.NoError(t, ts.app.Build(context.Background()))

	rec := ts.get(t, "/blog/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="/blog/older/">Older</a>`)
	assert.Contains(t, rec.Body.String(), `<p>An older post</p>`)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	rec = ts.get(t, "/blog/?tag=web")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello World")
	assert.NotContains(t, rec.Body.String(), `<a href="/blog/older/">Older</a>`)

	rec = ts.get(t, "/blog/hello/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<header class="header header--post">`)
	assert.Contains(t, rec.Body.String(), `<li><a href="/blog/older/">Older</a></li>`)

	rec = ts.get(t, "/blog/draft/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found")
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "<title>"))

	rec = ts.get(t, "/blog")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/blog/", rec.Header().Get("Location"))

	rec = ts.get(t, "/")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/blog/", rec.Header().Get("Location"))

	rec = ts.get(t, "/blog/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://example.com/blog/hello/")
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))

	rec = ts.get(t, "/blog/feed.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")

	rec = ts.get(t, "/blog/fonts.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ts.fontsBody, rec.Body.String())

	rec = ts.get(t, "/blog/sw.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	rec = ts.get(t, "/blog/missing.txt")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		segs []string
		want string
	}{
		{"https://example.com", nil, "https://example.com"},
		{"https://example.com", []string{"/blog/"}, "https://example.com/blog/"},
		{"https://example.com/", []string{"/"}, "https://example.com/"},
		{"https://example.com", []string{"blog", "hello"}, "https://example.com/blog/hello/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildURL(tt.base, tt.segs...))
	}
}

func TestWriteDefaultManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, WriteDefaultManifest(path))
	assert.DirExists(t, filepath.Join(filepath.Dir(path), "src", "pages"))

	app := New(SiteConfig{ManifestPath: path, DatabasePath: filepath.Join(t.TempDir(), "pages.db")})
	require.NoError(t, app.Open())
	t.Cleanup(func() { app.Close() })
	assert.Equal(t, "/blog", app.Manifest.PathPrefix)

	assert.Error(t, WriteDefaultManifest(path))
}
