package manifest

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	// ErrUnknownPlugin is returned for a plugin name missing from the registry.
	ErrUnknownPlugin = errors.New("unknown plugin")
	// ErrInvalidOptions is returned when a plugin rejects its options.
	ErrInvalidOptions = errors.New("invalid plugin options")
	// ErrMissingRequirement is returned when a plugin needs another plugin
	// that is not declared.
	ErrMissingRequirement = errors.New("missing required plugin")
)

// Spec describes what the build knows about one plugin name.
type Spec struct {
	// Requires lists plugins that must also be declared, at any level.
	Requires []string
	// Validate checks the plugin options. Named plugins are validated with
	// empty options.
	Validate func(Options) error
	// Nested, when set, means options["plugins"] holds sub-plugin
	// declarations that resolve against this registry.
	Nested Registry
}

// Registry maps plugin names to their specs.
type Registry map[string]Spec

// Validate checks m against r and returns every problem found.
func Validate(m *Manifest, r Registry) error {
	return r.Validate(m.Plugins)
}

// Validate checks plugins, including nested sub-plugins, and aggregates the
// errors.
func (r Registry) Validate(plugins []Plugin) error {
	declared := make(map[string]struct{})
	collectNames(plugins, r, declared)

	var errs error
	r.validate(plugins, declared, &errs)
	return errs
}

func (r Registry) validate(plugins []Plugin, declared map[string]struct{}, errs *error) {
	for _, p := range plugins {
		spec, ok := r[p.Name]
		if !ok {
			*errs = multierr.Append(*errs, fmt.Errorf("plugin %q: %w", p.Name, ErrUnknownPlugin))
			continue
		}
		opts := p.Options
		if opts == nil {
			opts = Options{}
		}
		if spec.Validate != nil {
			if err := spec.Validate(opts); err != nil {
				if !errors.Is(err, ErrInvalidOptions) {
					err = fmt.Errorf("%w: %v", ErrInvalidOptions, err)
				}
				*errs = multierr.Append(*errs, fmt.Errorf("plugin %q: %w", p.Name, err))
			}
		}
		for _, req := range spec.Requires {
			if _, ok := declared[req]; !ok {
				*errs = multierr.Append(*errs, fmt.Errorf("plugin %q needs %q: %w", p.Name, req, ErrMissingRequirement))
			}
		}
		if spec.Nested != nil {
			nested, err := PluginsFromValue(opts["plugins"])
			if err != nil {
				*errs = multierr.Append(*errs, fmt.Errorf("plugin %q: %w", p.Name, err))
				continue
			}
			spec.Nested.validate(nested, declared, errs)
		}
	}
}

func collectNames(plugins []Plugin, r Registry, into map[string]struct{}) {
	for _, p := range plugins {
		into[p.Name] = struct{}{}
		spec, ok := r[p.Name]
		if !ok || spec.Nested == nil {
			continue
		}
		nested, err := PluginsFromValue(p.Options["plugins"])
		if err != nil {
			continue
		}
		collectNames(nested, spec.Nested, into)
	}
}
