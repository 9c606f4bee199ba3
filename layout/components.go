package layout

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/msahib/blog/manifest"
)

// Header renders the site banner. Post pages get a compact bar that links
// back to the index.
func Header(site manifest.SiteMetadata, home string, isPost bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		title := templ.EscapeString(site.Title)
		href := templ.EscapeString(home)
		if isPost {
			ew.str(`<header class="header header--post"><a class="header__home" href="` + href + `">` + title + `</a></header>`)
			return ew.err
		}
		ew.str(`<header class="header"><h1 class="header__title"><a href="` + href + `">` + title + `</a></h1>`)
		if site.Author != "" {
			ew.str(`<p class="header__byline">` + templ.EscapeString(site.Author) + `</p>`)
		}
		ew.str(`</header>`)
		return ew.err
	})
}

// Content wraps the page body and places the footer below it.
func Content(isPost bool, footer templ.Component, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		if isPost {
			ew.str(`<div class="content content--post"><main class="content__body">`)
		} else {
			ew.str(`<div class="content"><main class="content__body">`)
		}
		if ew.err != nil {
			return ew.err
		}
		if err := children.Render(ctx, w); err != nil {
			return err
		}
		ew.str(`</main>`)
		if ew.err != nil {
			return ew.err
		}
		if footer != nil {
			if err := footer.Render(ctx, w); err != nil {
				return err
			}
		}
		ew.str(`</div>`)
		return ew.err
	})
}

// Footer renders the author credit.
func Footer(site manifest.SiteMetadata) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<footer class="footer"><p>Written by `+templ.EscapeString(site.Author)+`</p></footer>`)
		return err
	})
}
