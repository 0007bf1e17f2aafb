package config

import (
	"fmt"

	"github.com/ahrav/scanbridge/internal/domain/ident"
	"github.com/ahrav/scanbridge/internal/domain/scanning"
)

// ResolvedDefaults carries the gateway-wide fallback identifiers applied to
// scan requests that omit a field.
type ResolvedDefaults struct {
	Source        ident.Source
	ColorMode     ident.ColorMode
	Format        ident.Format
	ResolutionDPI int
}

// ResolveDevices resolves every configured device spec into a domain
// profile. The first bad vocabulary name aborts with an error naming the
// device, the field, and the value.
func ResolveDevices(specs []DeviceSpec) ([]*scanning.DeviceProfile, error) {
	profiles := make([]*scanning.DeviceProfile, 0, len(specs))
	for _, spec := range specs {
		profile, err := ResolveDevice(spec)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// ResolveDevice resolves one device spec's vocabulary names into
// identifiers and builds the domain profile from them.
func ResolveDevice(spec DeviceSpec) (*scanning.DeviceProfile, error) {
	proto := ident.ParseProto(spec.Protocol)
	if proto == ident.ProtoUnknown {
		return nil, fmt.Errorf("device %q: unknown protocol %q", spec.Name, spec.Protocol)
	}

	sources := make([]ident.Source, 0, len(spec.Sources))
	for _, name := range spec.Sources {
		source := ident.ParseSource(name)
		if source == ident.SourceUnknown {
			return nil, fmt.Errorf("device %q: unknown source %q", spec.Name, name)
		}
		sources = append(sources, source)
	}

	colorModes := make([]ident.ColorMode, 0, len(spec.ColorModes))
	for _, name := range spec.ColorModes {
		mode := ident.ParseColorMode(name)
		if mode == ident.ColorModeUnknown {
			return nil, fmt.Errorf("device %q: unknown color mode %q", spec.Name, name)
		}
		colorModes = append(colorModes, mode)
	}

	formats := make([]ident.Format, 0, len(spec.Formats))
	for _, name := range spec.Formats {
		format := ident.ParseFormat(name)
		if format == ident.FormatUnknown {
			return nil, fmt.Errorf("device %q: unknown format %q", spec.Name, name)
		}
		formats = append(formats, format)
	}

	justification := ident.JustificationXNone
	if spec.Justification != "" {
		justification = ident.ParseJustificationX(spec.Justification)
		if justification == ident.JustificationXUnknown {
			return nil, fmt.Errorf("device %q: unknown justification %q", spec.Name, spec.Justification)
		}
	}

	return scanning.NewDeviceProfile(
		spec.Name,
		spec.Endpoint,
		proto,
		sources,
		colorModes,
		formats,
		justification,
		spec.MinResolutionDPI,
		spec.MaxResolutionDPI,
	)
}

// ResolveDefaults resolves the configured scan defaults into identifiers.
func ResolveDefaults(d ScanDefaults) (ResolvedDefaults, error) {
	source := ident.ParseSource(d.Source)
	if source == ident.SourceUnknown {
		return ResolvedDefaults{}, fmt.Errorf("defaults: unknown source %q", d.Source)
	}

	colorMode := ident.ParseColorMode(d.ColorMode)
	if colorMode == ident.ColorModeUnknown {
		return ResolvedDefaults{}, fmt.Errorf("defaults: unknown color mode %q", d.ColorMode)
	}

	format := ident.ParseFormat(d.Format)
	if format == ident.FormatUnknown {
		return ResolvedDefaults{}, fmt.Errorf("defaults: unknown format %q", d.Format)
	}

	return ResolvedDefaults{
		Source:        source,
		ColorMode:     colorMode,
		Format:        format,
		ResolutionDPI: d.ResolutionDPI,
	}, nil
}
