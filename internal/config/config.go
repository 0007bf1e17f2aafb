// Package config defines the gateway's configuration model: which devices
// exist, how the API and telemetry are wired, and the scan defaults applied
// to requests that omit a field. Vocabulary-bearing fields hold names;
// resolution to identifiers happens in Resolve* so a bad name fails at
// startup with the offending field and value.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config represents the top-level gateway configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Devices   []DeviceSpec    `yaml:"devices" validate:"min=1,dive"`
	Defaults  ScanDefaults    `yaml:"defaults"`
}

// APIConfig configures the HTTP API surface.
type APIConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" validate:"required"`

	// DebugHost serves pprof, expvar, and the runtime visualizer. Empty
	// disables the debug listener.
	DebugHost string `yaml:"debug_host"`

	// RatePerSecond caps request throughput per client IP. Zero (or
	// omitted) disables rate limiting.
	RatePerSecond float64 `yaml:"rate_per_second" validate:"gte=0"`
	RateBurst     int     `yaml:"rate_burst" validate:"gte=0"`
}

// TelemetryConfig configures trace and metric export.
type TelemetryConfig struct {
	// Enabled turns on OTLP export. When false the gateway still records
	// spans and metrics against no-op providers.
	Enabled          bool    `yaml:"enabled"`
	ExporterEndpoint string  `yaml:"exporter_endpoint"`
	Probability      float64 `yaml:"sampling_probability" validate:"gte=0,lte=1"`
	InsecureExporter bool    `yaml:"insecure_exporter"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum level emitted: debug, info, warn, or error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// DeviceSpec declares one scanning device by name. Capability fields carry
// vocabulary names (e.g. "Flatbed", "image/jpeg") exactly as the device
// protocol spells them.
type DeviceSpec struct {
	Name     string `yaml:"name" validate:"required"`
	Endpoint string `yaml:"endpoint" validate:"required"`
	Protocol string `yaml:"protocol" validate:"required"`

	Sources    []string `yaml:"sources" validate:"min=1"`
	ColorModes []string `yaml:"color_modes" validate:"min=1"`
	Formats    []string `yaml:"formats" validate:"min=1"`

	// Justification is how the device aligns narrow documents on the
	// scan line. Empty defaults to "none".
	Justification string `yaml:"justification,omitempty"`

	MinResolutionDPI int `yaml:"min_resolution_dpi" validate:"gt=0"`
	MaxResolutionDPI int `yaml:"max_resolution_dpi" validate:"gtefield=MinResolutionDPI"`

	// Simulation tunes the in-memory driver backing this device.
	Simulation *SimulationSpec `yaml:"simulation,omitempty"`
}

// SimulationSpec tunes the simulated driver for one device.
type SimulationSpec struct {
	// Pages is how many pages one scan produces.
	Pages int `yaml:"pages" validate:"gte=0"`

	// PageBytes is the size reported for each page.
	PageBytes int64 `yaml:"page_bytes" validate:"gte=0"`

	// BusyProbes is how many probe attempts the device rejects as busy
	// before freeing up.
	BusyProbes int `yaml:"busy_probes" validate:"gte=0"`

	// FailLoads is how many page loads fail before pages flow.
	FailLoads int `yaml:"fail_loads" validate:"gte=0"`

	// OpDelayMS is how many milliseconds each protocol operation takes.
	// Zero answers immediately.
	OpDelayMS int `yaml:"op_delay_ms" validate:"gte=0"`
}

// ScanDefaults fills in scan request fields the caller omits.
type ScanDefaults struct {
	Source        string `yaml:"source" validate:"required"`
	ColorMode     string `yaml:"color_mode" validate:"required"`
	Format        string `yaml:"format" validate:"required"`
	ResolutionDPI int    `yaml:"resolution_dpi" validate:"gt=0"`
}

// Validate checks structural constraints: required fields, ranges, and
// shapes. Vocabulary names are checked separately during resolution.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
