// Package content reads Markdown documents with YAML front matter.
package content

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrBadFrontMatter is returned when a document's front matter block is not
// terminated or cannot be decoded.
var ErrBadFrontMatter = errors.New("content: bad front matter")

// ErrDuplicateSlug is returned when two documents would be published at the
// same path.
var ErrDuplicateSlug = errors.New("content: duplicate slug")

// FrontMatter is the YAML header of a post.
type FrontMatter struct {
	Title       string   `yaml:"title"`
	Date        string   `yaml:"date"`
	Path        string   `yaml:"path"`
	Tags        []string `yaml:"tags"`
	Draft       bool     `yaml:"draft"`
	Description string   `yaml:"description"`
}

// AssetKind tells the build what to do with a referenced local file.
type AssetKind int

const (
	// AssetFile is copied verbatim.
	AssetFile AssetKind = iota
	// AssetImage goes through image processing.
	AssetImage
)

// Asset is a local file referenced from a document.
type Asset struct {
	Kind   AssetKind
	Source string // absolute path on disk
	Target string // site path, without the path prefix
	// MaxWidth bounds the output width of an image asset; 0 keeps the size.
	MaxWidth int
}

// Document is one Markdown source file moving through the build.
type Document struct {
	SourcePath string
	Slug       string
	Front      FrontMatter
	Body       string // Markdown, front matter removed
	HTML       string
	// Text is the plain text of the first render, before plugins add markup.
	Text   string
	Assets []Asset
}

// Dir returns the directory holding the source file.
func (d *Document) Dir() string {
	return filepath.Dir(d.SourcePath)
}

// AddAsset records a, ignoring duplicates.
func (d *Document) AddAsset(a Asset) {
	for _, existing := range d.Assets {
		if existing.Source == a.Source && existing.Kind == a.Kind {
			return
		}
	}
	d.Assets = append(d.Assets, a)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// NormalizeDate converts a front matter date to YYYY-MM-DD.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("content: unrecognized date %q", s)
}

// ParseDocument splits front matter from the body of the file at path.
func ParseDocument(path string, data []byte) (*Document, error) {
	front, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc := &Document{SourcePath: path, Body: body}
	if len(front) > 0 {
		if err := yaml.Unmarshal(front, &doc.Front); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrBadFrontMatter, err)
		}
	}
	date, err := NormalizeDate(doc.Front.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Front.Date = date
	doc.Slug = slugFor(path, doc.Front.Path)
	if doc.Front.Title == "" {
		doc.Front.Title = doc.Slug
	}
	return doc, nil
}

func splitFrontMatter(data []byte) (front []byte, body string, err error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return nil, string(data), nil
	}
	rest := data[4:]
	if bytes.HasPrefix(rest, []byte("---")) {
		rest = append([]byte("\n"), rest...)
	}
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, "", ErrBadFrontMatter
	}
	front = rest[:end+1]
	after := rest[end+4:]
	if i := bytes.IndexByte(after, '\n'); i >= 0 {
		after = after[i+1:]
	} else {
		after = nil
	}
	return front, strings.TrimLeft(string(after), "\n"), nil
}

func slugFor(path, frontPath string) string {
	if s := Slugify(strings.ReplaceAll(strings.Trim(frontPath, "/"), "/", "-")); s != "" {
		return s
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "index" {
		name = filepath.Base(filepath.Dir(path))
	}
	if s := Slugify(name); s != "" {
		return s
	}
	// Names with no ASCII letters or digits still need a stable path.
	sum := sha256.Sum256([]byte(name))
	return "post-" + hex.EncodeToString(sum[:4])
}

// CheckSlugs reports the first pair of documents sharing a slug.
func CheckSlugs(docs []*Document) error {
	seen := make(map[string]*Document, len(docs))
	for _, d := range docs {
		if prev, ok := seen[d.Slug]; ok {
			return fmt.Errorf("%w: %q is used by %s and %s", ErrDuplicateSlug, d.Slug, prev.SourcePath, d.SourcePath)
		}
		seen[d.Slug] = d
	}
	return nil
}

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// LoadDir parses every .md file below root, newest first.
func LoadDir(root string) ([]*Document, error) {
	var docs []*Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc, err := ParseDocument(path, data)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortNewestFirst(docs)
	return docs, nil
}

// SortNewestFirst orders documents by date descending, then by slug.
func SortNewestFirst(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Front.Date != docs[j].Front.Date {
			return docs[i].Front.Date > docs[j].Front.Date
		}
		return docs[i].Slug < docs[j].Slug
	})
}
