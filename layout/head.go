package layout

import "github.com/a-h/templ"

// TagKind is the element name of an extra head tag. Meta tags are not
// offered: the shell owns the page's meta tags.
type TagKind int

const (
	LinkTag TagKind = iota
	StyleTag
	ScriptTag
)

// Attr is one attribute of a head tag. An empty Value renders a bare
// boolean attribute.
type Attr struct {
	Name  string
	Value string
}

// HeadTag is an extra element written into <head>. Body is trusted markup
// for style and script tags.
type HeadTag struct {
	Kind  TagKind
	Attrs []Attr
	Body  string
}

// Link builds a <link> tag.
func Link(rel, href string, extra ...Attr) HeadTag {
	attrs := append([]Attr{{Name: "rel", Value: rel}, {Name: "href", Value: href}}, extra...)
	return HeadTag{Kind: LinkTag, Attrs: attrs}
}

// Style builds an inline <style> tag.
func Style(css string) HeadTag {
	return HeadTag{Kind: StyleTag, Body: css}
}

// Script builds a <script> tag; src may be empty for inline code.
func Script(src, body string, extra ...Attr) HeadTag {
	var attrs []Attr
	if src != "" {
		attrs = append(attrs, Attr{Name: "src", Value: src})
	}
	return HeadTag{Kind: ScriptTag, Attrs: append(attrs, extra...), Body: body}
}

func (t HeadTag) write(ew *errWriter) {
	var name string
	switch t.Kind {
	case LinkTag:
		name = "link"
	case StyleTag:
		name = "style"
	case ScriptTag:
		name = "script"
	default:
		return
	}
	ew.str("<" + name)
	for _, a := range t.Attrs {
		if a.Value == "" {
			ew.str(" " + templ.EscapeString(a.Name))
			continue
		}
		ew.str(" " + templ.EscapeString(a.Name) + `="` + templ.EscapeString(a.Value) + `"`)
	}
	if t.Kind == LinkTag {
		ew.str("/>")
		return
	}
	ew.str(">" + t.Body + "</" + name + ">")
}
