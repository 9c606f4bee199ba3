// Package views holds the page bodies rendered inside the site layout.
package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Index lists pages newest first with a tag filter. home is the prefixed
// path of the index itself.
func Index(pages []Page, tags []string, activeTag, home string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		if len(tags) > 0 {
			ew.str(`<nav class="tags">`)
			ew.str(`<a class="` + TagClass(activeTag == "") + `" href="` + templ.EscapeString(home) + `">all</a>`)
			for _, t := range tags {
				ew.str(`<a class="` + TagClass(t == activeTag) + `" href="` + templ.EscapeString(TagHref(home, t)) + `">` + templ.EscapeString(t) + `</a>`)
			}
			ew.str(`</nav>`)
		}
		if len(pages) == 0 {
			ew.str(`<p class="post-list__empty">Nothing here yet.</p>`)
			return ew.err
		}
		ew.str(`<ul class="post-list">`)
		for _, p := range pages {
			ew.str(`<li class="post-list__item"><h2><a href="` + templ.EscapeString(p.Link) + `">` + templ.EscapeString(p.Title) + `</a></h2>`)
			ew.str(`<time class="post-list__date" datetime="` + templ.EscapeString(p.Date) + `">` + templ.EscapeString(p.Date) + `</time>`)
			if ex := p.Excerpt(); ex != "" {
				ew.str(`<p>` + templ.EscapeString(ex) + `</p>`)
			}
			ew.str(`</li>`)
		}
		ew.str(`</ul>`)
		return ew.err
	})
}

// Post renders one page with links to related pages.
func Post(page Page, related []Page, home string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.str(`<article class="post"><h1 class="post__title">` + templ.EscapeString(page.Title) + `</h1>`)
		ew.str(`<time class="post__date" datetime="` + templ.EscapeString(page.Date) + `">` + templ.EscapeString(page.Date) + `</time>`)
		if len(page.Tags) > 0 {
			ew.str(`<div class="tags">`)
			for _, t := range page.Tags {
				ew.str(`<a class="tag" href="` + templ.EscapeString(TagHref(home, t)) + `">` + templ.EscapeString(t) + `</a>`)
			}
			ew.str(`</div>`)
		}
		// Page HTML was produced by the Markdown renderer, which escapes its input.
		ew.str(`<div class="post__body">` + page.HTML + `</div></article>`)
		if len(related) > 0 {
			ew.str(`<aside class="related"><h2>Related</h2><ul>`)
			for _, r := range related {
				ew.str(`<li><a href="` + templ.EscapeString(r.Link) + `">` + templ.EscapeString(r.Title) + `</a></li>`)
			}
			ew.str(`</ul></aside>`)
		}
		return ew.err
	})
}

// NotFound is the body of the 404 page.
func NotFound(home string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.str(`<section class="not-found"><h1>Not found</h1><p>There is nothing at this address. <a href="` + templ.EscapeString(home) + `">Back to the blog</a>.</p></section>`)
		return ew.err
	})
}

// ServerError is the body of the 5xx page.
func ServerError() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.str(`<section class="server-error"><h1>Something went wrong</h1><p>Please try again later.</p></section>`)
		return ew.err
	})
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
