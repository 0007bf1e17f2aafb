package config

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// defaultConfig ships a complete runnable configuration with simulated
// devices so the gateway starts without any file on disk.
//
//go:embed defaults.yaml
var defaultConfig string

// DefaultConfig parses the embedded default configuration.
func DefaultConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewBufferString(defaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read embedded config: %w", err)
	}

	var cfg Config
	decodeByYAMLTag := func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" }
	if err := v.Unmarshal(&cfg, decodeByYAMLTag); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedded config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
