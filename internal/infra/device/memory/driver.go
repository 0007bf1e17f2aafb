// Package memory provides a simulated device driver for a single-process
// gateway, development, and tests. It implements the device protocol port
// without any network I/O, with configurable page counts and fault windows
// so callers can exercise every protocol path.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/scanbridge/internal/domain/scanning"
)

var _ scanning.DeviceDriver = (*Driver)(nil)

const defaultPageBytes = 512 << 10

// DeviceConfig describes one simulated device.
type DeviceConfig struct {
	// Name identifies the device. Drivers are addressed by name.
	Name string

	// Pages is how many pages one scan produces. Defaults to 1.
	Pages int

	// PageBytes is the size reported for each page. Defaults to 512KiB.
	PageBytes int64

	// BusyProbes is how many probe or start attempts the device rejects
	// with scanning.ErrDeviceBusy before it frees up. Lets tests drive the
	// caller's retry path.
	BusyProbes int

	// FailLoads is how many page loads fail before pages flow. A failed
	// load clears after Check succeeds, driving the load-check-load detour.
	FailLoads int

	// OpDelay is how long each protocol operation takes to answer. Zero
	// answers immediately. Gives dev setups the pacing of real hardware.
	OpDelay time.Duration
}

type deviceState struct {
	cfg           DeviceConfig
	busyLeft      int
	failLeft      int
	activeSession uuid.UUID // uuid.Nil when idle
}

type scanState struct {
	device    string
	remaining int
	pageBytes int64
	opDelay   time.Duration
}

// Driver is an in-memory implementation of scanning.DeviceDriver. One scan
// may be active per device; a second start is answered with
// scanning.ErrDeviceBusy until the first session finishes.
type Driver struct {
	mu       sync.Mutex
	devices  map[string]*deviceState
	sessions map[uuid.UUID]*scanState
}

// NewDriver creates a simulated driver serving the given devices.
func NewDriver(configs ...DeviceConfig) *Driver {
	devices := make(map[string]*deviceState, len(configs))
	for _, cfg := range configs {
		if cfg.Pages <= 0 {
			cfg.Pages = 1
		}
		if cfg.PageBytes <= 0 {
			cfg.PageBytes = defaultPageBytes
		}
		devices[cfg.Name] = &deviceState{
			cfg:      cfg,
			busyLeft: cfg.BusyProbes,
			failLeft: cfg.FailLoads,
		}
	}
	return &Driver{
		devices:  devices,
		sessions: make(map[uuid.UUID]*scanState),
	}
}

// Probe verifies the device exists and is idle.
func (d *Driver) Probe(ctx context.Context, device string) error {
	if err := d.pace(ctx, d.deviceDelay(device)); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.deviceLocked(device)
	if err != nil {
		return err
	}
	return d.availableLocked(state, device)
}

// StartScan claims the device for the request's session and stages the
// configured number of pages.
func (d *Driver) StartScan(ctx context.Context, req scanning.ScanRequest) error {
	if err := d.pace(ctx, d.deviceDelay(req.Device)); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.deviceLocked(req.Device)
	if err != nil {
		return err
	}
	if err := d.availableLocked(state, req.Device); err != nil {
		return err
	}

	state.activeSession = req.SessionID
	d.sessions[req.SessionID] = &scanState{
		device:    req.Device,
		remaining: state.cfg.Pages,
		pageBytes: state.cfg.PageBytes,
		opDelay:   state.cfg.OpDelay,
	}
	return nil
}

// LoadPage delivers the next staged page. It returns done without a page
// once the device has nothing left to deliver.
func (d *Driver) LoadPage(ctx context.Context, sessionID uuid.UUID) (int64, bool, error) {
	if err := d.pace(ctx, d.sessionDelay(sessionID)); err != nil {
		return 0, false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	scan, err := d.scanLocked(sessionID)
	if err != nil {
		return 0, false, err
	}

	if state, ok := d.devices[scan.device]; ok && state.failLeft > 0 {
		return 0, false, fmt.Errorf("device %s: page transfer interrupted", scan.device)
	}

	if scan.remaining == 0 {
		return 0, true, nil
	}
	scan.remaining--
	return scan.pageBytes, false, nil
}

// Check re-reads device state after a failed load. A successful check
// clears the device's fault window so loading can resume.
func (d *Driver) Check(ctx context.Context, sessionID uuid.UUID) error {
	if err := d.pace(ctx, d.sessionDelay(sessionID)); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	scan, err := d.scanLocked(sessionID)
	if err != nil {
		return err
	}
	if state, ok := d.devices[scan.device]; ok && state.failLeft > 0 {
		state.failLeft--
	}
	return nil
}

// Cleanup discards the session's staged pages so the device can be released.
func (d *Driver) Cleanup(ctx context.Context, sessionID uuid.UUID) error {
	if err := d.pace(ctx, d.sessionDelay(sessionID)); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	scan, err := d.scanLocked(sessionID)
	if err != nil {
		return err
	}
	scan.remaining = 0
	return nil
}

// Finish releases the device and forgets the session.
func (d *Driver) Finish(ctx context.Context, sessionID uuid.UUID) error {
	if err := d.pace(ctx, d.sessionDelay(sessionID)); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	scan, err := d.scanLocked(sessionID)
	if err != nil {
		return err
	}
	if state, ok := d.devices[scan.device]; ok && state.activeSession == sessionID {
		state.activeSession = uuid.Nil
	}
	delete(d.sessions, sessionID)
	return nil
}

func (d *Driver) deviceLocked(device string) (*deviceState, error) {
	state, ok := d.devices[device]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scanning.ErrDeviceUnreachable, device)
	}
	return state, nil
}

// availableLocked answers whether the device can accept a new scan,
// consuming one entry of the configured busy window per rejected attempt.
func (d *Driver) availableLocked(state *deviceState, device string) error {
	if state.busyLeft > 0 {
		state.busyLeft--
		return fmt.Errorf("%w: %s", scanning.ErrDeviceBusy, device)
	}
	if state.activeSession != uuid.Nil {
		return fmt.Errorf("%w: %s held by session %s", scanning.ErrDeviceBusy, device, state.activeSession)
	}
	return nil
}

func (d *Driver) scanLocked(sessionID uuid.UUID) (*scanState, error) {
	scan, ok := d.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scanning.ErrSessionNotFound, sessionID)
	}
	return scan, nil
}

func (d *Driver) deviceDelay(device string) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if state, ok := d.devices[device]; ok {
		return state.cfg.OpDelay
	}
	return 0
}

func (d *Driver) sessionDelay(sessionID uuid.UUID) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if scan, ok := d.sessions[sessionID]; ok {
		return scan.opDelay
	}
	return 0
}

// pace waits out the device's operation latency without holding the driver
// lock, so concurrent sessions on other devices keep moving.
func (d *Driver) pace(ctx context.Context, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
