package blog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultManifest is the manifest written by WriteDefaultManifest.
//
//go:embed embedded/site.yaml
var DefaultManifest []byte

// WriteDefaultManifest writes DefaultManifest to path and creates the
// source directory it points at. An existing manifest is left alone.
func WriteDefaultManifest(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("blog: %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Join(filepath.Dir(path), "src", "pages"), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, DefaultManifest, 0o644)
}
