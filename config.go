package blog

import (
	"time"

	"go.uber.org/zap"

	"github.com/msahib/blog/fonts"
	"github.com/msahib/blog/manifest"
)

// DefaultFonts are the web font families requested when none are configured.
var DefaultFonts = []string{"Merriweather:400,400i,700", "Montserrat:400,700"}

// SiteConfig holds all configuration for a site build and server.
type SiteConfig struct {
	ManifestPath string // Manifest file (default "site.yaml")
	URL          string // Canonical origin, without the path prefix (default "http://localhost:8000")
	OutDir       string // Build output (default "public")
	DatabasePath string // SQLite page index (default "data/pages.db")
	Addr         string // Listen address (default ":8000")

	Fonts         []string      // Web font families (default DefaultFonts)
	FontsEndpoint string        // Stylesheet API (default fonts.DefaultEndpoint)
	FontWait      time.Duration // How long a build waits for the font stylesheet (default 5s)
}

func (c *SiteConfig) setDefaults() {
	if c.ManifestPath == "" {
		c.ManifestPath = "site.yaml"
	}
	if c.URL == "" {
		c.URL = "http://localhost:8000"
	}
	if c.OutDir == "" {
		c.OutDir = "public"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pages.db"
	}
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.Fonts == nil {
		c.Fonts = DefaultFonts
	}
	if c.FontsEndpoint == "" {
		c.FontsEndpoint = fonts.DefaultEndpoint
	}
	if c.FontWait == 0 {
		c.FontWait = 5 * time.Second
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithManifest uses m instead of loading Config.ManifestPath.
func WithManifest(m *manifest.Manifest) Option {
	return func(a *App) {
		a.Manifest = m
	}
}

// WithFontLoader replaces the font loader built from the config.
func WithFontLoader(l *fonts.Loader) Option {
	return func(a *App) {
		a.Fonts = l
	}
}
