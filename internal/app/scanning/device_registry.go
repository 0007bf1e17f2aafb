// Package scanning implements the application services that run scan
// sessions: admission and persistence through SessionService, and the
// device protocol drive through SessionRunner.
package scanning

import (
	"context"
	"fmt"

	"github.com/ahrav/scanbridge/internal/domain/events"
	domain "github.com/ahrav/scanbridge/internal/domain/scanning"
)

// DeviceRegistry holds the device profiles resolved from configuration at
// startup. The set is immutable for the life of the process; lookups are
// safe for concurrent use.
type DeviceRegistry struct {
	byName  map[string]*domain.DeviceProfile
	ordered []*domain.DeviceProfile
}

// NewDeviceRegistry builds a registry from resolved profiles, rejecting
// duplicate device names.
func NewDeviceRegistry(profiles []*domain.DeviceProfile) (*DeviceRegistry, error) {
	byName := make(map[string]*domain.DeviceProfile, len(profiles))
	ordered := make([]*domain.DeviceProfile, 0, len(profiles))
	for _, profile := range profiles {
		if _, exists := byName[profile.Name()]; exists {
			return nil, fmt.Errorf("duplicate device name %q", profile.Name())
		}
		byName[profile.Name()] = profile
		ordered = append(ordered, profile)
	}
	return &DeviceRegistry{byName: byName, ordered: ordered}, nil
}

// Get returns the profile for the named device.
func (r *DeviceRegistry) Get(name string) (*domain.DeviceProfile, error) {
	profile, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDevice, name)
	}
	return profile, nil
}

// List returns the registered profiles in configuration order.
func (r *DeviceRegistry) List() []*domain.DeviceProfile {
	out := make([]*domain.DeviceProfile, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// AnnounceDevices publishes a DeviceRegistered event for every profile in
// the registry so subscribers learn the gateway's device set at startup.
func AnnounceDevices(ctx context.Context, registry *DeviceRegistry, publisher events.DomainEventPublisher) error {
	for _, profile := range registry.List() {
		evt := domain.NewDeviceRegisteredEvent(profile.Name(), profile.Proto(), profile.Formats())
		if err := publisher.PublishDomainEvent(ctx, evt, events.WithKey(profile.Name())); err != nil {
			return fmt.Errorf("failed to announce device %q: %w", profile.Name(), err)
		}
	}
	return nil
}
