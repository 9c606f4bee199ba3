package plugins

import (
	"fmt"

	"github.com/msahib/blog/manifest"
)

// Plugin names understood by the build.
const (
	CatchLinks        = "gatsby-plugin-catch-links"
	StyledComponents  = "gatsby-plugin-styled-components"
	SourceFilesystem  = "gatsby-source-filesystem"
	TransformerRemark = "gatsby-transformer-remark"
	ReactHelmet       = "gatsby-plugin-react-helmet"
	Offline           = "gatsby-plugin-offline"
	TransformerSharp  = "gatsby-transformer-sharp"
	PluginSharp       = "gatsby-plugin-sharp"
	GoogleAnalytics   = "gatsby-plugin-google-analytics"
	WebManifest       = "gatsby-plugin-manifest"

	RemarkCopyLinkedFiles = "gatsby-remark-copy-linked-files"
	RemarkImages          = "gatsby-remark-images"
	RemarkPrismJS         = "gatsby-remark-prismjs"
	RemarkSmartypants     = "gatsby-remark-smartypants"
	RemarkAutolinkHeaders = "gatsby-remark-autolink-headers"
)

type factory func(m *manifest.Manifest, opts manifest.Options) (Plugin, error)

type entry struct {
	spec  manifest.Spec
	build factory
}

type table map[string]entry

func (t table) registry() manifest.Registry {
	r := make(manifest.Registry, len(t))
	for name, e := range t {
		r[name] = e.spec
	}
	return r
}

// validator adapts an option parser to a manifest.Spec validator.
func validator[T any](parse func(manifest.Options) (T, error)) func(manifest.Options) error {
	return func(o manifest.Options) error {
		_, err := parse(o)
		return err
	}
}

var builtin = table{
	CatchLinks: {build: newCatchLinks},
	StyledComponents: {
		spec:  manifest.Spec{Validate: validator(parseStyleOptions)},
		build: newStyledComponents,
	},
	SourceFilesystem: {
		spec:  manifest.Spec{Validate: validator(parseSourceOptions)},
		build: newSourceFilesystem,
	},
	TransformerRemark: {
		spec:  manifest.Spec{Nested: remarkBuiltin.registry()},
		build: newTransformerRemark,
	},
	ReactHelmet: {build: newReactHelmet},
	Offline:     {build: newOffline},
	TransformerSharp: {
		spec:  manifest.Spec{Requires: []string{PluginSharp}},
		build: newTransformerSharp,
	},
	PluginSharp: {
		spec:  manifest.Spec{Validate: validator(parseSharpOptions)},
		build: newPluginSharp,
	},
	GoogleAnalytics: {
		spec:  manifest.Spec{Validate: validator(parseAnalyticsOptions)},
		build: newGoogleAnalytics,
	},
	WebManifest: {
		spec:  manifest.Spec{Validate: validator(parseWebManifestOptions)},
		build: newWebManifest,
	},
}

// Registry returns the specs of every builtin plugin.
func Registry() manifest.Registry {
	return builtin.registry()
}

func build(t table, decl manifest.Plugin, m *manifest.Manifest) (Plugin, error) {
	e, ok := t[decl.Name]
	if !ok {
		return nil, fmt.Errorf("plugin %q: %w", decl.Name, manifest.ErrUnknownPlugin)
	}
	opts := decl.Options
	if opts == nil {
		opts = manifest.Options{}
	}
	p, err := e.build(m, opts)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: %w", decl.Name, err)
	}
	return p, nil
}

// named is embedded by plugins to implement Plugin.
type named string

func (n named) Name() string { return string(n) }
