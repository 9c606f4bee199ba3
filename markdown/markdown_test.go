package markdown

import (
	"strings"
	"testing"
)

const linkClass = `class="underline decoration-2 underline-offset-4"`

func TestFormatInline(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bold", "**bold**", "<strong>bold</strong>"},
		{"bold underscore", "__bold__", "<strong>bold</strong>"},
		{"bold in text", "text **bold** more", "text <strong>bold</strong> more"},
		{"italic", "*italic*", "<em>italic</em>"},
		{"italic underscore", "_italic_", "<em>italic</em>"},
		{"italic underscore in text", "an _italic_ word", "an <em>italic</em> word"},
		{"adjacent italic underscores", "_a_ _b_", "<em>a</em> <em>b</em>"},
		{"snake case untouched", "call UNIQUE_NIHON_BODY or my_var_name", "call UNIQUE_NIHON_BODY or my_var_name"},
		{"dunder untouched inside word", "x__init__y", "x__init__y"},
		{"nested", "**bold *italic* text**", "<strong>bold <em>italic</em> text</strong>"},
		{"code", "use `fmt.Println` here", "use <code>fmt.Println</code> here"},
		{"bold inside code", "`**not bold**`", "<code>**not bold**</code>"},
		{"escapes html", "a <b> & c", "a &lt;b&gt; &amp; c"},
		{
			"link keeps underscores in url",
			"[Wikipedia](https://en.wikipedia.org/wiki/Some_Article_Title)",
			`<a href="https://en.wikipedia.org/wiki/Some_Article_Title" ` + linkClass + `>Wikipedia</a>`,
		},
		{
			"link new tab",
			"Check [this](https://example.com)^ out",
			`Check <a href="https://example.com" ` + linkClass + ` target="_blank" rel="noopener noreferrer">this</a> out`,
		},
		{"unsafe link dropped", "[x](javascript:alert)", "x"},
		{"relative link", "[next](../other/)", `<a href="../other/" ` + linkClass + `>next</a>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatInline(tt.input, new(int))
			if got != tt.expected {
				t.Errorf("FormatInline(%q)\n  got:  %q\n  want: %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatInlineImages(t *testing.T) {
	count := 0
	first := FormatInline("![cat](./cat.png)", &count)
	want := `<img src="./cat.png" alt="cat" fetchpriority="high" decoding="async"/>`
	if first != want {
		t.Errorf("first image:\n  got:  %q\n  want: %q", first, want)
	}
	second := FormatInline("![dog](/img/dog.jpg){width:50%|640|480}", &count)
	want = `<img src="/img/dog.jpg" alt="dog" loading="lazy" width="640" height="480" style="width:50%" decoding="async"/>`
	if second != want {
		t.Errorf("styled image:\n  got:  %q\n  want: %q", second, want)
	}
	if count != 2 {
		t.Errorf("image count = %d, want 2", count)
	}
}

func TestRenderBlocks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"h1", "# Heading 1", "<h1>Heading 1</h1>"},
		{"h2", "## Heading 2", "<h2>Heading 2</h2>"},
		{"h3", "### Heading 3", "<h3>Heading 3</h3>"},
		{"list", "- item 1\n- item 2", "<ul><li>item 1</li><li>item 2</li></ul>"},
		{"ordered", "1. first\n2. second", "<ol><li>first</li><li>second</li></ol>"},
		{"ordered inline", "1. **bold** item", "<ol><li><strong>bold</strong> item</li></ol>"},
		{"quote", "> quoted", "<blockquote>quoted</blockquote>"},
		{"rule", "---", "<hr/>"},
		{"paragraph", "one\ntwo", "<p>one\n two\n</p>"},
		{"list then ordered", "- a\n1. b", "<ul><li>a</li></ul><ol><li>b</li></ol>"},
		{
			"table",
			"| a | b |\n|---|:-:|\n| 1 | 2 |",
			"<table><thead><tr><th>a</th><th>b</th></tr></thead><tbody><tr><td>1</td><td>2</td></tr></tbody></table>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToHTML(tt.input); got != tt.expected {
				t.Errorf("ToHTML(%q)\n  got:  %q\n  want: %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRenderCodeBlocks(t *testing.T) {
	got := ToHTML("```go\nfmt.Println(\"<hi>\")\n```")
	for _, want := range []string{
		`<div class="code-block-wrapper">`,
		`<span class="code-lang code-lang-go">go</span>`,
		`<code class="language-go">`,
		"fmt.Println(&#34;&lt;hi&gt;&#34;)",
		"</code></pre></div>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("code block missing %q: %q", want, got)
		}
	}

	plain := ToHTML("```\nplain **code**\n```")
	if strings.Contains(plain, "code-block-wrapper") || strings.Contains(plain, "<strong>") {
		t.Errorf("plain code block rendered wrong: %q", plain)
	}
}

func TestRenderUnterminatedCodeBlock(t *testing.T) {
	got := ToHTML("```\nstill code")
	if !strings.HasSuffix(got, "</code></pre>") {
		t.Errorf("unterminated code block should be closed: %q", got)
	}
}

func TestListFollowedByParagraph(t *testing.T) {
	got := ToHTML("1. item one\n2. item two\n\nsome text")
	if !strings.Contains(got, "</ol><p>some text") {
		t.Errorf("expected paragraph after list: %q", got)
	}
}

func TestApplyOutsideTags(t *testing.T) {
	got := ApplyOutsideTags(`a <a href="x_y">b</a> c`, strings.ToUpper)
	want := `A <a href="x_y">B</a> C`
	if got != want {
		t.Errorf("ApplyOutsideTags = %q, want %q", got, want)
	}
}
