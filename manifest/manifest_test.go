package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const sample = `
pathPrefix: blog/
siteMetadata:
  title: Test Blog
  author: Someone
plugins:
  - catch-links
  - resolve: source
    options:
      path: pages
      name: pages
  - resolve: transformer
    options:
      plugins:
        - copy-files
        - resolve: images
          options:
            linkImagesToOriginal: false
  - helmet
`

func testRegistry() Registry {
	return Registry{
		"catch-links": {},
		"helmet":      {},
		"sharp":       {},
		"source": {Validate: func(o Options) error {
			if _, ok := o.String("path"); !ok {
				return errors.New("path is required")
			}
			return nil
		}},
		"transformer": {Nested: Registry{
			"copy-files": {},
			"images":     {Requires: []string{"sharp"}},
		}},
	}
}

func TestParsePreservesOrder(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "/blog", m.PathPrefix)
	assert.Equal(t, "Test Blog", m.SiteMetadata.Title)
	assert.Equal(t, "Someone", m.SiteMetadata.Author)
	assert.Equal(t, []string{"catch-links", "source", "transformer", "helmet"}, m.Names())
}

func TestParsePluginKinds(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, Named, m.Plugins[0].Kind)
	assert.Nil(t, m.Plugins[0].Options)

	src := m.Plugins[1]
	assert.Equal(t, Configured, src.Kind)
	path, ok := src.Options.String("path")
	require.True(t, ok)
	assert.Equal(t, "pages", path)

	nested, err := PluginsFromValue(m.Plugins[2].Options["plugins"])
	require.NoError(t, err)
	require.Len(t, nested, 2)
	assert.Equal(t, NamedPlugin("copy-files"), nested[0])
	assert.Equal(t, "images", nested[1].Name)
	link, err := nested[1].Options.Bool("linkImagesToOriginal", true)
	require.NoError(t, err)
	assert.False(t, link)
}

func TestParseRejectsBadEntries(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want string
	}{
		"missing resolve": {"plugins:\n  - gatsby-plugin-offline\n  - options: {a: 1}\n", "plugins[1]: line 3: plugin entry is missing resolve"},
		"sequence entry":  {"plugins:\n  - [a, b]\n", "plugins[0]: line 2: plugin entry must be a name or a mapping"},
		"empty name":      {"plugins:\n  - a\n  - b\n  - ''\n", "plugins[2]: "},
		"not a list":      {"plugins: gatsby-plugin-offline\n", "plugins must be a list"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	assert.Equal(t, "", NormalizePrefix(""))
	assert.Equal(t, "", NormalizePrefix("/"))
	assert.Equal(t, "/blog", NormalizePrefix("/blog/"))
	assert.Equal(t, "/a/b", NormalizePrefix("a/b"))
}

func TestWithPrefix(t *testing.T) {
	m := &Manifest{PathPrefix: "/blog"}
	assert.Equal(t, "/blog/", m.WithPrefix("/"))
	assert.Equal(t, "/blog/post/", m.WithPrefix("post/"))

	root := &Manifest{}
	assert.Equal(t, "/feed.xml", root.WithPrefix("/feed.xml"))
}

func TestLoadRecordsDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, m.Dir)
	assert.Equal(t, filepath.Join(dir, "pages"), m.Resolve("pages"))
	assert.Equal(t, "/abs", m.Resolve("/abs"))
}

func TestValidate(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	err = Validate(m, testRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequirement)

	m.Plugins = append(m.Plugins, NamedPlugin("sharp"))
	assert.NoError(t, Validate(m, testRegistry()))
}

func TestValidateAggregatesErrors(t *testing.T) {
	plugins := []Plugin{
		NamedPlugin("nope"),
		ConfiguredPlugin("source", Options{"name": "pages"}),
		ConfiguredPlugin("transformer", Options{"plugins": []any{"mystery"}}),
	}
	err := testRegistry().Validate(plugins)
	require.Error(t, err)

	errs := multierr.Errors(err)
	assert.Len(t, errs, 3)
	assert.ErrorIs(t, err, ErrUnknownPlugin)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestOptionsAccessors(t *testing.T) {
	o := Options{"n": 650, "b": true, "s": "x", "bad": "1"}

	n, err := o.Int("n", 0)
	require.NoError(t, err)
	assert.Equal(t, 650, n)

	n, err = o.Int("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = o.Int("bad", 0)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	b, err := o.Bool("b", false)
	require.NoError(t, err)
	assert.True(t, b)

	_, err = o.Bool("s", false)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
