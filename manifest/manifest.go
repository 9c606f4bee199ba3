// Package manifest loads the site build manifest: site metadata, the path
// prefix the site is served under, and the ordered list of build plugins.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SiteMetadata is read by templates and head tag generation.
type SiteMetadata struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

// Manifest is the declarative description of a site build.
type Manifest struct {
	PathPrefix   string       `yaml:"pathPrefix"`
	SiteMetadata SiteMetadata `yaml:"siteMetadata"`
	Plugins      PluginList   `yaml:"plugins"`

	// Dir is the directory the manifest was loaded from. Relative paths in
	// plugin options resolve against it.
	Dir string `yaml:"-"`
}

// Parse decodes a YAML manifest. Plugin order is kept exactly as written.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.PathPrefix = NormalizePrefix(m.PathPrefix)
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	m.Dir = abs
	return m, nil
}

// NormalizePrefix returns p with a single leading slash and no trailing slash.
// The site root is represented by "".
func NormalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// WithPrefix joins the manifest path prefix onto a site-absolute path.
func (m *Manifest) WithPrefix(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return m.PathPrefix + p
}

// Resolve returns p joined to the manifest directory unless p is absolute.
func (m *Manifest) Resolve(p string) string {
	if filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// Names returns the plugin names in declaration order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Plugins))
	for i, p := range m.Plugins {
		names[i] = p.Name
	}
	return names
}

// Find returns the first plugin declared with name.
func (m *Manifest) Find(name string) (Plugin, bool) {
	for _, p := range m.Plugins {
		if p.Name == name {
			return p, true
		}
	}
	return Plugin{}, false
}
