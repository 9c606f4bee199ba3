package plugins

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/msahib/blog/content"
	"github.com/msahib/blog/layout"
	"github.com/msahib/blog/manifest"
)

//go:embed base.css
var baseCSS string

type styleOptions struct {
	path string
}

func parseStyleOptions(o manifest.Options) (styleOptions, error) {
	var so styleOptions
	if v, ok := o["path"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return so, fmt.Errorf("%w: path must be a non-empty string", manifest.ErrInvalidOptions)
		}
		so.path = s
	}
	return so, nil
}

// styledComponents inlines the site stylesheet into every page.
type styledComponents struct {
	named
	css string
}

func newStyledComponents(m *manifest.Manifest, o manifest.Options) (Plugin, error) {
	so, err := parseStyleOptions(o)
	if err != nil {
		return nil, err
	}
	css := baseCSS
	if so.path != "" {
		data, err := os.ReadFile(m.Resolve(so.path))
		if err != nil {
			return nil, fmt.Errorf("read stylesheet: %w", err)
		}
		css = string(data)
	}
	return &styledComponents{named: StyledComponents, css: css}, nil
}

func (s *styledComponents) Head(*Site) []layout.HeadTag {
	return []layout.HeadTag{layout.Style(s.css)}
}

// reactHelmet adds the canonical link of each page.
type reactHelmet struct {
	named
}

func newReactHelmet(*manifest.Manifest, manifest.Options) (Plugin, error) {
	return &reactHelmet{named: ReactHelmet}, nil
}

func (h *reactHelmet) PageHead(site *Site, doc *content.Document) []layout.HeadTag {
	path := "/"
	if doc != nil {
		path = DocPath(doc)
	}
	return []layout.HeadTag{layout.Link("canonical", site.AbsURL(path))}
}

var reTrackingID = regexp.MustCompile(`^(UA-\d+-\d+|G-[A-Z0-9]+)$`)

type analyticsOptions struct {
	trackingID string
	anonymize  bool
}

func parseAnalyticsOptions(o manifest.Options) (analyticsOptions, error) {
	var ao analyticsOptions
	id, _ := o.String("trackingId")
	if !reTrackingID.MatchString(id) {
		return ao, fmt.Errorf("%w: trackingId %q is not a UA- or G- measurement id", manifest.ErrInvalidOptions, id)
	}
	ao.trackingID = id
	anonymize, err := o.Bool("anonymize", false)
	if err != nil {
		return ao, err
	}
	ao.anonymize = anonymize
	return ao, nil
}

// googleAnalytics injects the gtag.js snippet.
type googleAnalytics struct {
	named
	opts analyticsOptions
}

func newGoogleAnalytics(_ *manifest.Manifest, o manifest.Options) (Plugin, error) {
	ao, err := parseAnalyticsOptions(o)
	if err != nil {
		return nil, err
	}
	return &googleAnalytics{named: GoogleAnalytics, opts: ao}, nil
}

func (g *googleAnalytics) Head(*Site) []layout.HeadTag {
	id, _ := json.Marshal(g.opts.trackingID)
	cfg := "{}"
	if g.opts.anonymize {
		cfg = `{"anonymize_ip":true}`
	}
	inline := "window.dataLayer=window.dataLayer||[];function gtag(){dataLayer.push(arguments);}" +
		"gtag('js',new Date());gtag('config'," + string(id) + "," + cfg + ");"
	return []layout.HeadTag{
		layout.Script("https://www.googletagmanager.com/gtag/js?id="+g.opts.trackingID, "", layout.Attr{Name: "async"}),
		layout.Script("", inline),
	}
}
