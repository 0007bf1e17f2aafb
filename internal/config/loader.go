package config

import "context"

// Loader abstracts where configuration comes from so callers can swap
// between a file on disk, the embedded defaults, or a remote source.
type Loader interface {
	// Load retrieves and parses the configuration from the underlying
	// source. The returned config has passed structural validation.
	Load(ctx context.Context) (*Config, error)
}
