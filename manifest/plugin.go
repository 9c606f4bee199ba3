package manifest

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind distinguishes the two plugin declaration forms.
type Kind int

const (
	// Named is a bare plugin name with no options.
	Named Kind = iota
	// Configured carries an options mapping.
	Configured
)

func (k Kind) String() string {
	switch k {
	case Named:
		return "named"
	case Configured:
		return "configured"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Plugin is one entry of the plugin list.
type Plugin struct {
	Kind    Kind
	Name    string
	Options Options
}

// NamedPlugin declares a plugin by name only.
func NamedPlugin(name string) Plugin {
	return Plugin{Kind: Named, Name: name}
}

// ConfiguredPlugin declares a plugin with options.
func ConfiguredPlugin(name string, opts Options) Plugin {
	if opts == nil {
		opts = Options{}
	}
	return Plugin{Kind: Configured, Name: name, Options: opts}
}

type configuredEntry struct {
	Resolve string         `yaml:"resolve"`
	Options map[string]any `yaml:"options"`
}

// PluginList is the manifest's plugins sequence.
type PluginList []Plugin

// UnmarshalYAML decodes each entry in turn so that a bad entry is reported
// by its index.
func (l *PluginList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: plugins must be a list", value.Line)
	}
	list := make(PluginList, len(value.Content))
	for i, n := range value.Content {
		if err := list[i].UnmarshalYAML(n); err != nil {
			return fmt.Errorf("plugins[%d]: %w", i, err)
		}
	}
	*l = list
	return nil
}

// UnmarshalYAML accepts either a scalar plugin name or a mapping with
// "resolve" and optional "options".
func (p *Plugin) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			return fmt.Errorf("line %d: empty plugin name", value.Line)
		}
		*p = NamedPlugin(value.Value)
		return nil
	case yaml.MappingNode:
		var e configuredEntry
		if err := value.Decode(&e); err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		if e.Resolve == "" {
			return fmt.Errorf("line %d: plugin entry is missing resolve", value.Line)
		}
		*p = ConfiguredPlugin(e.Resolve, e.Options)
		return nil
	default:
		return fmt.Errorf("line %d: plugin entry must be a name or a mapping", value.Line)
	}
}

// MarshalYAML writes the plugin back in the form it was declared.
func (p Plugin) MarshalYAML() (any, error) {
	if p.Kind == Named {
		return p.Name, nil
	}
	return configuredEntry{Resolve: p.Name, Options: p.Options}, nil
}

// PluginsFromValue decodes a nested plugin list, as found in the options of
// a plugin that runs its own sub-plugins.
func PluginsFromValue(v any) ([]Plugin, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: plugins must be a list", ErrInvalidOptions)
	}
	out := make([]Plugin, 0, len(items))
	for i, item := range items {
		switch it := item.(type) {
		case string:
			if it == "" {
				return nil, fmt.Errorf("%w: plugins[%d]: empty name", ErrInvalidOptions, i)
			}
			out = append(out, NamedPlugin(it))
		case map[string]any:
			name, _ := it["resolve"].(string)
			if name == "" {
				return nil, fmt.Errorf("%w: plugins[%d]: missing resolve", ErrInvalidOptions, i)
			}
			var opts Options
			switch o := it["options"].(type) {
			case nil:
			case map[string]any:
				opts = Options(o)
			default:
				return nil, fmt.Errorf("%w: plugins[%d]: options must be a mapping", ErrInvalidOptions, i)
			}
			out = append(out, ConfiguredPlugin(name, opts))
		default:
			return nil, fmt.Errorf("%w: plugins[%d]: must be a name or a mapping", ErrInvalidOptions, i)
		}
	}
	return out, nil
}

// Options is the free-form option mapping of a configured plugin.
type Options map[string]any

// String returns the string option key.
func (o Options) String(key string) (string, bool) {
	s, ok := o[key].(string)
	return s, ok
}

// Bool returns the boolean option key, or def when unset.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return def, fmt.Errorf("%w: %s must be a boolean", ErrInvalidOptions, key)
	}
	return b, nil
}

// Int returns the integer option key, or def when unset.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return def, fmt.Errorf("%w: %s must be an integer", ErrInvalidOptions, key)
}
