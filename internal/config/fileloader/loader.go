// Package fileloader loads gateway configuration from a YAML file on disk.
package fileloader

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/scanbridge/internal/config"
)

// FileLoader loads configuration from a file on disk. It implements the
// config.Loader interface.
type FileLoader struct {
	// path is the filesystem path to the configuration file.
	path string
}

// NewFileLoader creates a new FileLoader reading from the given path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads, parses, and validates the configuration file. A config that
// fails structural validation never reaches the caller.
func (l *FileLoader) Load(ctx context.Context) (*config.Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
