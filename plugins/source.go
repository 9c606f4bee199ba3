package plugins

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/msahib/blog/content"
	"github.com/msahib/blog/manifest"
)

type sourceOptions struct {
	path string
	name string
}

func parseSourceOptions(o manifest.Options) (sourceOptions, error) {
	var so sourceOptions
	p, ok := o.String("path")
	if !ok || p == "" {
		return so, fmt.Errorf("%w: path is required", manifest.ErrInvalidOptions)
	}
	so.path = p
	so.name, _ = o.String("name")
	return so, nil
}

// sourceFilesystem reads Markdown documents from a directory relative to the
// manifest.
type sourceFilesystem struct {
	named
	dir  string
	name string
}

func newSourceFilesystem(m *manifest.Manifest, o manifest.Options) (Plugin, error) {
	so, err := parseSourceOptions(o)
	if err != nil {
		return nil, err
	}
	return &sourceFilesystem{named: SourceFilesystem, dir: m.Resolve(so.path), name: so.name}, nil
}

func (s *sourceFilesystem) Source(_ context.Context, site *Site) error {
	docs, err := content.LoadDir(s.dir)
	if err != nil {
		return fmt.Errorf("load %s: %w", s.dir, err)
	}
	site.Documents = append(site.Documents, docs...)
	site.Logger.Info("sourced documents",
		zap.String("name", s.name),
		zap.String("dir", s.dir),
		zap.Int("count", len(docs)))
	return nil
}
