package fileloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
api:
  port: "9090"
devices:
  - name: front-desk
    endpoint: http://192.168.1.50:8080/eSCL
    protocol: eSCL
    sources: [Flatbed]
    color_modes: [Color]
    formats: [image/jpeg]
    min_resolution_dpi: 75
    max_resolution_dpi: 600
defaults:
  source: Flatbed
  color_mode: Color
  format: image/jpeg
  resolution_dpi: 300
`

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestFileLoader_Load(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, validYAML)
	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "9090", cfg.API.Port)
	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, "front-desk", cfg.Devices[0].Name)
	assert.Equal(t, []string{"Flatbed"}, cfg.Devices[0].Sources)
	assert.Equal(t, 300, cfg.Defaults.ResolutionDPI)
}

func TestFileLoader_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewFileLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestFileLoader_MalformedYAML(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "api: [not: a: mapping")
	_, err := NewFileLoader(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestFileLoader_InvalidConfigRejected(t *testing.T) {
	t.Parallel()

	// Structurally valid YAML with no devices must fail validation.
	path := writeConfigFile(t, "api:\n  port: \"8080\"\n")
	_, err := NewFileLoader(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
