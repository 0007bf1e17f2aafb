package scanning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/scanbridge/internal/domain/ident"
	domain "github.com/ahrav/scanbridge/internal/domain/scanning"
)

func registryProfile(t *testing.T, name string, proto ident.Proto) *domain.DeviceProfile {
	t.Helper()

	profile, err := domain.NewDeviceProfile(
		name,
		"http://10.0.0.5:8080/eSCL",
		proto,
		[]ident.Source{ident.SourceFlatbed},
		[]ident.ColorMode{ident.ColorModeColor},
		[]ident.Format{ident.FormatJPEG, ident.FormatPNG},
		ident.JustificationXNone,
		100, 600,
	)
	require.NoError(t, err)
	return profile
}

func TestNewDeviceRegistry(t *testing.T) {
	frontDesk := registryProfile(t, "front-desk", ident.ProtoESCL)
	mailroom := registryProfile(t, "mailroom", ident.ProtoWSD)

	registry, err := NewDeviceRegistry([]*domain.DeviceProfile{frontDesk, mailroom})
	require.NoError(t, err)

	devices := registry.List()
	require.Len(t, devices, 2)
	assert.Equal(t, "front-desk", devices[0].Name())
	assert.Equal(t, "mailroom", devices[1].Name())
}

func TestNewDeviceRegistryRejectsDuplicateNames(t *testing.T) {
	first := registryProfile(t, "front-desk", ident.ProtoESCL)
	second := registryProfile(t, "front-desk", ident.ProtoWSD)

	registry, err := NewDeviceRegistry([]*domain.DeviceProfile{first, second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate device name "front-desk"`)
	assert.Nil(t, registry)
}

func TestDeviceRegistryGet(t *testing.T) {
	registry, err := NewDeviceRegistry([]*domain.DeviceProfile{
		registryProfile(t, "front-desk", ident.ProtoESCL),
	})
	require.NoError(t, err)

	profile, err := registry.Get("front-desk")
	require.NoError(t, err)
	assert.Equal(t, "front-desk", profile.Name())

	_, err = registry.Get("basement")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownDevice)
}

func TestAnnounceDevices(t *testing.T) {
	registry, err := NewDeviceRegistry([]*domain.DeviceProfile{
		registryProfile(t, "front-desk", ident.ProtoESCL),
		registryProfile(t, "mailroom", ident.ProtoWSD),
	})
	require.NoError(t, err)

	publisher := new(capturePublisher)
	require.NoError(t, AnnounceDevices(context.Background(), registry, publisher))

	published := publisher.Events()
	require.Len(t, published, 2)

	first, ok := published[0].(domain.DeviceRegisteredEvent)
	require.True(t, ok, "expected device registration, got %T", published[0])
	assert.Equal(t, "front-desk", first.Device())
	assert.Equal(t, ident.ProtoESCL, first.Proto())
	assert.Equal(t, []ident.Format{ident.FormatJPEG, ident.FormatPNG}, first.Formats())

	second, ok := published[1].(domain.DeviceRegisteredEvent)
	require.True(t, ok, "expected device registration, got %T", published[1])
	assert.Equal(t, "mailroom", second.Device())
	assert.Equal(t, ident.ProtoWSD, second.Proto())
}

func TestAnnounceDevicesPublishFailure(t *testing.T) {
	registry, err := NewDeviceRegistry([]*domain.DeviceProfile{
		registryProfile(t, "front-desk", ident.ProtoESCL),
	})
	require.NoError(t, err)

	publisher := new(mockDomainEventPublisher)
	publisher.On("PublishDomainEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("bus closed")).Once()

	err = AnnounceDevices(context.Background(), registry, publisher)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to announce device "front-desk"`)
	publisher.AssertExpectations(t)
}
