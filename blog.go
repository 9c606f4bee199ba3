// Package blog builds a personal blog from Markdown sources and a plugin
// manifest, and serves the result.
//
// A build runs the manifest's plugin pipeline, records every page in a
// SQLite index, and writes static HTML through the shared site layout. The
// server renders the same pages from the index under the manifest's path
// prefix.
package blog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/msahib/blog/content"
	"github.com/msahib/blog/fonts"
	"github.com/msahib/blog/layout"
	"github.com/msahib/blog/manifest"
	"github.com/msahib/blog/plugins"
)

// App is the central blog application. It wires together the manifest,
// plugin pipeline, page index, cache, layout and HTTP server.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *PageCache
	Manifest *manifest.Manifest
	Fonts    *fonts.Loader
	Logger   *zap.Logger

	pipeline *plugins.Pipeline
	root     *layout.Root

	// Written by Build, read by handlers. Builds finish before serving.
	site *plugins.Site
	docs map[string]*content.Document

	open    sync.Once
	openErr error
	routes  sync.Once
}

// New creates an App with the given configuration. Nothing is opened until
// Open, Build or Start is called.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	if a.Fonts == nil {
		a.Fonts = fonts.NewLoader(cfg.Fonts...)
		a.Fonts.Endpoint = cfg.FontsEndpoint
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	return a
}

// Open loads and validates the manifest, resolves its plugins and opens the
// page index. It is safe to call more than once.
func (a *App) Open() error {
	a.open.Do(func() {
		a.openErr = a.doOpen()
	})
	return a.openErr
}

func (a *App) doOpen() error {
	if a.Manifest == nil {
		m, err := manifest.Load(a.Config.ManifestPath)
		if err != nil {
			return fmt.Errorf("blog: %w", err)
		}
		a.Manifest = m
	}
	pipeline, err := plugins.Resolve(a.Manifest)
	if err != nil {
		return fmt.Errorf("blog: manifest %s: %w", a.Config.ManifestPath, err)
	}
	a.pipeline = pipeline

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("blog: init store: %w", err)
	}
	a.Store = store
	a.Cache = &PageCache{}

	a.root = &layout.Root{
		Site:    a.Manifest.SiteMetadata,
		Home:    a.home(),
		OnMount: a.loadFonts,
	}
	a.Logger.Debug("opened",
		zap.Strings("plugins", a.Manifest.Names()),
		zap.String("prefix", a.Manifest.PathPrefix),
		zap.String("db", a.Config.DatabasePath))
	return nil
}

// loadFonts is the layout's mount effect. A failed load only costs the page
// its web fonts, so it is logged and dropped.
func (a *App) loadFonts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := a.Fonts.Load(ctx); err != nil {
		a.Logger.Warn("web fonts not loaded", zap.Error(err))
		return
	}
	a.Logger.Debug("web fonts loaded", zap.String("url", a.Fonts.URL()))
}

// Handler registers middleware and routes on first use and returns the
// server handler. Open must have succeeded.
func (a *App) Handler() http.Handler {
	a.routes.Do(func() {
		a.setupMiddleware()
		a.setupRoutes()
	})
	return a.Echo
}

// Start builds the site and serves it until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	if err := a.Build(ctx); err != nil {
		return err
	}
	a.Handler()

	errc := make(chan error, 1)
	go func() {
		a.Logger.Info("serving", zap.String("addr", a.Config.Addr), zap.String("prefix", a.home()))
		errc <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Echo.Shutdown(shutdownCtx)
	}
}

func (a *App) setupRoutes() {
	e := a.Echo
	e.HTTPErrorHandler = a.httpErrorHandler

	prefix := a.Manifest.PathPrefix
	if prefix != "" {
		e.GET("/", func(c echo.Context) error {
			return c.Redirect(http.StatusMovedPermanently, a.home())
		})
	}

	g := e.Group(prefix)
	g.GET("/", a.handleIndex)
	g.GET("/:slug/", a.handlePage)
	g.GET("/sitemap.xml", a.handleSitemap)
	g.GET("/feed.xml", a.handleFeed)
	g.GET("/fonts.css", a.handleFonts)
	g.GET("/*", a.handleFile)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func (a *App) home() string {
	return a.Manifest.WithPrefix("/")
}

// absURL returns the absolute URL of site path p.
func (a *App) absURL(p string) string {
	return BuildURL(a.Config.URL, a.Manifest.WithPrefix(p))
}
