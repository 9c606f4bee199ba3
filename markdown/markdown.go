// Package markdown renders the Markdown subset used by blog posts to HTML.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	// Underscore emphasis needs a non-word character on both sides so
	// snake_case identifiers stay intact.
	reBoldUnderscore   = regexp.MustCompile(`(^|[^\p{L}\p{N}_])__(.+?)__([^\p{L}\p{N}_]|$)`)
	reItalic           = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUnderscore = regexp.MustCompile(`(^|[^\p{L}\p{N}_])_([^_]+)_([^\p{L}\p{N}_]|$)`)
	reInlineCode       = regexp.MustCompile("`([^`]+)`")
	reLink             = regexp.MustCompile(`\[(.*?)\]\((.*?)\)(\^)?`)
	reOrderedList      = regexp.MustCompile(`^(\d+)\.\s`)
	// ![alt](url){style} or ![alt](url){style|width|height}
	reStyledImg = regexp.MustCompile(`\!\[(.*?)\]\((.*?)\)\{([^|}]*?)(?:\|(\d+)\|(\d+))?\}`)
	rePlainImg  = regexp.MustCompile(`\!\[(.*?)\]\((.*?)\)`)
)

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderMarkdown(&buf, content)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// ToHTML renders md and returns the HTML as a string.
func ToHTML(md string) string {
	var buf bytes.Buffer
	RenderMarkdown(&buf, md)
	return buf.String()
}

type block int

const (
	blockNone block = iota
	blockPara
	blockList
	blockOrdered
	blockQuote
	blockTable
)

var blockClose = map[block]string{
	blockPara:    "</p>",
	blockList:    "</ul>",
	blockOrdered: "</ol>",
	blockQuote:   "</blockquote>",
}

type renderer struct {
	buf         *bytes.Buffer
	open        block
	inCode      bool
	codeWrapped bool
	tableBody   bool
	images      int
}

// RenderMarkdown writes the HTML representation of md to buf.
func RenderMarkdown(buf *bytes.Buffer, md string) {
	r := &renderer{buf: buf}
	for _, raw := range strings.Split(md, "\n") {
		r.line(strings.TrimRight(raw, "\r"))
	}
	r.close()
	r.closeCode()
}

// close ends whichever block is open.
func (r *renderer) close() {
	switch r.open {
	case blockNone:
		return
	case blockTable:
		if r.tableBody {
			r.buf.WriteString("</tbody>")
		}
		r.buf.WriteString("</table>")
		r.tableBody = false
	default:
		r.buf.WriteString(blockClose[r.open])
	}
	r.open = blockNone
}

// enter makes b the open block, closing any other, and reports whether b
// was newly opened.
func (r *renderer) enter(b block) bool {
	if r.open == b {
		return false
	}
	r.close()
	r.open = b
	return true
}

func (r *renderer) closeCode() {
	if !r.inCode {
		return
	}
	r.buf.WriteString("</code></pre>")
	if r.codeWrapped {
		r.buf.WriteString("</div>")
		r.codeWrapped = false
	}
	r.inCode = false
}

func (r *renderer) inline(s string) string {
	return FormatInline(s, &r.images)
}

func (r *renderer) line(line string) {
	if strings.HasPrefix(line, "```") {
		if r.inCode {
			r.closeCode()
			return
		}
		r.close()
		lang := strings.TrimSpace(line[3:])
		if lang != "" {
			r.codeWrapped = true
			l := html.EscapeString(lang)
			r.buf.WriteString(`<div class="code-block-wrapper"><span class="code-lang code-lang-` + l + `">` + l + `</span>`)
			r.buf.WriteString(`<pre class="code-block"><code class="language-` + l + `">`)
		} else {
			r.buf.WriteString(`<pre class="code-block"><code>`)
		}
		r.inCode = true
		return
	}

	if r.inCode {
		r.buf.WriteString(html.EscapeString(line))
		r.buf.WriteString("\n")
		return
	}

	if strings.TrimSpace(line) == "" {
		r.close()
		return
	}

	switch {
	case strings.HasPrefix(line, "---"):
		r.close()
		r.buf.WriteString("<hr/>")
	case strings.HasPrefix(line, "# "):
		r.heading(1, line[2:])
	case strings.HasPrefix(line, "## "):
		r.heading(2, line[3:])
	case strings.HasPrefix(line, "### "):
		r.heading(3, line[4:])
	case strings.HasPrefix(line, "|"):
		r.tableRow(line)
	case strings.HasPrefix(line, "- "):
		if r.enter(blockList) {
			r.buf.WriteString("<ul>")
		}
		r.buf.WriteString("<li>" + r.inline(strings.TrimSpace(line[2:])) + "</li>")
	case reOrderedList.MatchString(line):
		if r.enter(blockOrdered) {
			r.buf.WriteString("<ol>")
		}
		content := reOrderedList.ReplaceAllString(line, "")
		r.buf.WriteString("<li>" + r.inline(strings.TrimSpace(content)) + "</li>")
	case strings.HasPrefix(line, "> "):
		if r.enter(blockQuote) {
			r.buf.WriteString("<blockquote>")
		}
		r.buf.WriteString(r.inline(strings.TrimSpace(line[2:])))
	default:
		if r.enter(blockPara) {
			r.buf.WriteString("<p>")
		} else {
			r.buf.WriteString(" ")
		}
		r.buf.WriteString(r.inline(strings.TrimSpace(line)) + "\n")
	}
}

func (r *renderer) heading(level int, text string) {
	r.close()
	n := strconv.Itoa(level)
	r.buf.WriteString("<h" + n + ">" + r.inline(strings.TrimSpace(text)) + "</h" + n + ">")
}

func (r *renderer) tableRow(line string) {
	if r.enter(blockTable) {
		// First row is the header
		r.buf.WriteString("<table><thead><tr>")
		for _, cell := range parseTableCells(line) {
			r.buf.WriteString("<th>" + r.inline(cell) + "</th>")
		}
		r.buf.WriteString("</tr></thead>")
		return
	}
	if !r.tableBody {
		r.buf.WriteString("<tbody>")
		r.tableBody = true
	}
	if isTableSeparator(line) {
		return
	}
	r.buf.WriteString("<tr>")
	for _, cell := range parseTableCells(line) {
		r.buf.WriteString("<td>" + r.inline(cell) + "</td>")
	}
	r.buf.WriteString("</tr>")
}

func parseTableCells(line string) []string {
	line = strings.Trim(strings.TrimSpace(line), "|")
	parts := strings.Split(line, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func isTableSeparator(line string) bool {
	line = strings.Trim(strings.TrimSpace(line), "|")
	for _, cell := range strings.Split(line, "|") {
		cleaned := strings.NewReplacer("-", "", ":", "").Replace(strings.TrimSpace(cell))
		if cleaned != "" {
			return false
		}
	}
	return true
}

// ApplyOutsideTags applies fn only to text segments outside HTML tags,
// so that formatting never touches URLs inside href attributes.
func ApplyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(fn(s))
			break
		}
		if lt > 0 {
			buf.WriteString(fn(s[:lt]))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		buf.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return buf.String()
}

func imgLoading(imageCount *int) string {
	*imageCount++
	if *imageCount == 1 {
		return `fetchpriority="high"`
	}
	return `loading="lazy"`
}

// FormatInline applies inline formatting (bold, italic, code, links, images)
// to s. imageCount tracks images across a document so only the first one is
// fetched eagerly.
func FormatInline(s string, imageCount *int) string {
	escaped := html.EscapeString(s)
	escaped = reStyledImg.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reStyledImg.FindStringSubmatch(m)
		src := SafeURL(match[2])
		if src == "" {
			return match[1]
		}
		width, height := "1024", "768"
		if match[4] != "" && match[5] != "" {
			width, height = match[4], match[5]
		}
		return `<img src="` + src + `" alt="` + match[1] + `" ` + imgLoading(imageCount) +
			` width="` + width + `" height="` + height + `" style="` + match[3] + `" decoding="async"/>`
	})
	escaped = rePlainImg.ReplaceAllStringFunc(escaped, func(m string) string {
		match := rePlainImg.FindStringSubmatch(m)
		src := SafeURL(match[2])
		if src == "" {
			return match[1]
		}
		return `<img src="` + src + `" alt="` + match[1] + `" ` + imgLoading(imageCount) + ` decoding="async"/>`
	})
	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		attrs := `class="underline decoration-2 underline-offset-4"`
		if match[3] == "^" {
			attrs += ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + href + `" ` + attrs + `>` + match[1] + `</a>`
	})
	// Inline code is swapped for placeholders so bold/italic skip it.
	var codes []string
	escaped = reInlineCode.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reInlineCode.FindStringSubmatch(m)
		placeholder := "\x00IC" + strconv.Itoa(len(codes)) + "\x00"
		codes = append(codes, "<code>"+match[1]+"</code>")
		return placeholder
	})
	escaped = ApplyOutsideTags(escaped, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = replaceTwice(reBoldUnderscore, seg, "$1<strong>$2</strong>$3")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		seg = replaceTwice(reItalicUnderscore, seg, "$1<em>$2</em>$3")
		return seg
	})
	for i, code := range codes {
		escaped = strings.Replace(escaped, "\x00IC"+strconv.Itoa(i)+"\x00", code, 1)
	}
	return escaped
}

// replaceTwice covers adjacent matches that share a boundary character.
func replaceTwice(re *regexp.Regexp, s, repl string) string {
	return re.ReplaceAllString(re.ReplaceAllString(s, repl), repl)
}

// SafeURL validates and escapes a URL for use in an HTML attribute. Relative
// paths are allowed; absolute URLs must use an allow-listed scheme.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") || strings.HasPrefix(val, "./") || strings.HasPrefix(val, "../") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil {
		return ""
	}
	if parsed.Scheme == "" {
		if parsed.Host == "" && !strings.Contains(val, ":") {
			return html.EscapeString(val)
		}
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
