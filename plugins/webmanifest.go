package plugins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/msahib/blog/layout"
	"github.com/msahib/blog/manifest"
)

var displayModes = map[string]bool{
	"fullscreen": true, "standalone": true, "minimal-ui": true, "browser": true,
}

// WebAppManifest is the JSON written to /manifest.webmanifest.
type WebAppManifest struct {
	Name            string `json:"name"`
	ShortName       string `json:"short_name,omitempty"`
	Description     string `json:"description,omitempty"`
	StartURL        string `json:"start_url"`
	BackgroundColor string `json:"background_color,omitempty"`
	ThemeColor      string `json:"theme_color,omitempty"`
	Display         string `json:"display"`
	Orientation     string `json:"orientation,omitempty"`
}

func parseWebManifestOptions(o manifest.Options) (WebAppManifest, error) {
	var wm WebAppManifest
	name, _ := o.String("name")
	if name == "" {
		return wm, fmt.Errorf("%w: name is required", manifest.ErrInvalidOptions)
	}
	wm.Name = name
	wm.ShortName, _ = o.String("short_name")
	wm.Description, _ = o.String("description")
	wm.BackgroundColor, _ = o.String("background_color")
	wm.ThemeColor, _ = o.String("theme_color")
	wm.Orientation, _ = o.String("orientation")
	wm.StartURL, _ = o.String("start_url")
	wm.Display, _ = o.String("display")
	if wm.Display == "" {
		wm.Display = "minimal-ui"
	}
	if !displayModes[wm.Display] {
		return wm, fmt.Errorf("%w: unknown display %q", manifest.ErrInvalidOptions, wm.Display)
	}
	return wm, nil
}

// webManifest emits the web app manifest and links it from every page.
type webManifest struct {
	named
	doc WebAppManifest
}

func newWebManifest(_ *manifest.Manifest, o manifest.Options) (Plugin, error) {
	wm, err := parseWebManifestOptions(o)
	if err != nil {
		return nil, err
	}
	return &webManifest{named: WebManifest, doc: wm}, nil
}

func (w *webManifest) Head(site *Site) []layout.HeadTag {
	return []layout.HeadTag{layout.Link("manifest", site.Path("/manifest.webmanifest"))}
}

func (w *webManifest) Finalize(_ context.Context, site *Site) error {
	doc := w.doc
	if doc.StartURL == "" {
		doc.StartURL = "/"
	}
	doc.StartURL = site.Path(doc.StartURL)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	site.Emit("/manifest.webmanifest", data)
	return nil
}
