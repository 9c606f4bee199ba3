// Package layout renders the shell shared by every page: head tags, header,
// content area and footer.
package layout

import (
	"context"
	"io"
	"regexp"
	"sync"

	"github.com/a-h/templ"

	"github.com/msahib/blog/manifest"
)

// Fixed head content. Every page carries exactly these three tags.
const (
	Title       = "Meera Sahib"
	Description = "The blog of Meera Sahib"
	Keywords    = "Developer, javascript, programming, designer, arduino, raspberry pi, node, user experience, design, jeddah, saudi arabia"
)

var blogIndex = regexp.MustCompile(`^/blog/?$`)

// IsPost reports whether pathname addresses a single post rather than the
// site root or the blog index.
func IsPost(pathname string) bool {
	return pathname != "/" && !blogIndex.MatchString(pathname)
}

// Location is the route being rendered.
type Location struct {
	Pathname string
}

// Props are the per-render inputs of Root.
type Props struct {
	// Children yields the page body. It is called once per render.
	Children func() templ.Component
	Location Location
	// Head holds extra tags for this page only, written after the shared ones.
	Head []HeadTag
}

// Root wraps pages in the site shell. A Root is mounted by its first
// successful render; OnMount runs once at that point on its own goroutine.
type Root struct {
	Site manifest.SiteMetadata
	// Home is the href of the blog index, used by the header.
	Home string
	// Head holds extra tags shared by every page.
	Head    []HeadTag
	OnMount func()

	mount sync.Once
}

// Component returns the templ component for one render of p.
func (r *Root) Component(p Props) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := r.render(ctx, w, p); err != nil {
			return err
		}
		r.mounted()
		return nil
	})
}

func (r *Root) mounted() {
	r.mount.Do(func() {
		if r.OnMount != nil {
			go r.OnMount()
		}
	})
}

func (r *Root) render(ctx context.Context, w io.Writer, p Props) error {
	isPost := IsPost(p.Location.Pathname)

	var body templ.Component = templ.NopComponent
	if p.Children != nil {
		if c := p.Children(); c != nil {
			body = c
		}
	}

	ew := &errWriter{w: w}
	ew.str(`<!DOCTYPE html><html lang="en"><head>`)
	ew.str(`<title>` + templ.EscapeString(Title) + `</title>`)
	ew.str(`<meta name="description" content="` + templ.EscapeString(Description) + `"/>`)
	ew.str(`<meta name="keywords" content="` + templ.EscapeString(Keywords) + `"/>`)
	for _, t := range r.Head {
		t.write(ew)
	}
	for _, t := range p.Head {
		t.write(ew)
	}
	ew.str(`</head><body><div id="root" class="root">`)
	if ew.err != nil {
		return ew.err
	}
	if err := Header(r.Site, r.Home, isPost).Render(ctx, w); err != nil {
		return err
	}
	if err := Content(isPost, Footer(r.Site), body).Render(ctx, w); err != nil {
		return err
	}
	ew.str(`</div></body></html>`)
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) str(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}
