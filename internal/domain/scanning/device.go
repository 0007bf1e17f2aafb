package scanning

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ahrav/scanbridge/internal/domain/ident"
)

// Device profile validation errors.
var (
	// ErrUnknownDevice is returned when a device name resolves to nothing.
	ErrUnknownDevice = errors.New("unknown device")

	// ErrCapabilityUnsupported is returned when a session requests a
	// source, mode, or format the device does not advertise.
	ErrCapabilityUnsupported = errors.New("capability not supported by device")
)

// DeviceProfile describes one configured scanning device: how to reach it
// and the capabilities it advertises. Profiles are immutable once built;
// the gateway constructs them from config at startup.
type DeviceProfile struct {
	name     string
	endpoint string
	proto    ident.Proto

	sources    []ident.Source
	colorModes []ident.ColorMode
	formats    []ident.Format

	justification ident.JustificationX
	minDPI        int
	maxDPI        int
}

// NewDeviceProfile builds a device profile, rejecting unresolved vocabulary
// identifiers and empty capability sets up front so the rest of the system
// can trust every profile it sees.
func NewDeviceProfile(
	name string,
	endpoint string,
	proto ident.Proto,
	sources []ident.Source,
	colorModes []ident.ColorMode,
	formats []ident.Format,
	justification ident.JustificationX,
	minDPI, maxDPI int,
) (*DeviceProfile, error) {
	if name == "" {
		return nil, errors.New("device name is required")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("device %q: endpoint is required", name)
	}
	if proto.String() == "" {
		return nil, fmt.Errorf("device %q: unknown protocol id %d", name, int(proto))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("device %q: at least one source is required", name)
	}
	for _, s := range sources {
		if s.String() == "" {
			return nil, fmt.Errorf("device %q: unknown source id %d", name, int(s))
		}
	}
	if len(colorModes) == 0 {
		return nil, fmt.Errorf("device %q: at least one color mode is required", name)
	}
	for _, m := range colorModes {
		if m.String() == "" {
			return nil, fmt.Errorf("device %q: unknown color mode id %d", name, int(m))
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("device %q: at least one format is required", name)
	}
	for _, f := range formats {
		if f.MIMEName() == "" {
			return nil, fmt.Errorf("device %q: unknown format id %d", name, int(f))
		}
	}
	if justification.String() == "" {
		return nil, fmt.Errorf("device %q: unknown justification id %d", name, int(justification))
	}
	if minDPI <= 0 || maxDPI < minDPI {
		return nil, fmt.Errorf("device %q: invalid resolution range %d-%d", name, minDPI, maxDPI)
	}

	return &DeviceProfile{
		name:          name,
		endpoint:      endpoint,
		proto:         proto,
		sources:       slices.Clone(sources),
		colorModes:    slices.Clone(colorModes),
		formats:       slices.Clone(formats),
		justification: justification,
		minDPI:        minDPI,
		maxDPI:        maxDPI,
	}, nil
}

// Name returns the device's configured name.
func (d *DeviceProfile) Name() string { return d.name }

// Endpoint returns the device's protocol endpoint URL.
func (d *DeviceProfile) Endpoint() string { return d.endpoint }

// Proto returns the transport protocol the device speaks.
func (d *DeviceProfile) Proto() ident.Proto { return d.proto }

// Sources returns the input sources the device advertises.
func (d *DeviceProfile) Sources() []ident.Source { return slices.Clone(d.sources) }

// ColorModes returns the color modes the device advertises.
func (d *DeviceProfile) ColorModes() []ident.ColorMode { return slices.Clone(d.colorModes) }

// Formats returns the image formats the device advertises.
func (d *DeviceProfile) Formats() []ident.Format { return slices.Clone(d.formats) }

// Justification returns how the device aligns narrow documents.
func (d *DeviceProfile) Justification() ident.JustificationX { return d.justification }

// ResolutionRange returns the supported resolution bounds in DPI.
func (d *DeviceProfile) ResolutionRange() (minDPI, maxDPI int) { return d.minDPI, d.maxDPI }

// SupportsSource reports whether the device advertises the given source.
func (d *DeviceProfile) SupportsSource(s ident.Source) bool {
	return slices.Contains(d.sources, s)
}

// SupportsColorMode reports whether the device advertises the given mode.
func (d *DeviceProfile) SupportsColorMode(m ident.ColorMode) bool {
	return slices.Contains(d.colorModes, m)
}

// SupportsFormat reports whether the device advertises the given format.
func (d *DeviceProfile) SupportsFormat(f ident.Format) bool {
	return slices.Contains(d.formats, f)
}

// SupportsResolution reports whether dpi falls inside the device's range.
func (d *DeviceProfile) SupportsResolution(dpi int) bool {
	return dpi >= d.minDPI && dpi <= d.maxDPI
}

// ValidateRequest checks a session request against the device's advertised
// capabilities, naming the first capability that does not match.
func (d *DeviceProfile) ValidateRequest(source ident.Source, colorMode ident.ColorMode, format ident.Format) error {
	if !d.SupportsSource(source) {
		return fmt.Errorf("%w: device %q has no source %q", ErrCapabilityUnsupported, d.name, source)
	}
	if !d.SupportsColorMode(colorMode) {
		return fmt.Errorf("%w: device %q has no color mode %q", ErrCapabilityUnsupported, d.name, colorMode)
	}
	if !d.SupportsFormat(format) {
		return fmt.Errorf("%w: device %q has no format %q", ErrCapabilityUnsupported, d.name, format)
	}
	return nil
}
