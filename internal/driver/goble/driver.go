// Package goble runs the GAP scanner and GATT discovery on go-ble devices.
package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/blegap/internal/event"
	"github.com/srg/blegap/internal/gap"
	"github.com/srg/blegap/internal/gatt"
	"github.com/srg/blegap/internal/groutine"
)

// StopGracePeriod bounds how long ScanStart waits for a previous scan to
// release the radio.
const StopGracePeriod = time.Second

// ScanningDevice is the scanning half of ble.Device.
type ScanningDevice interface {
	Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error
}

// Dialer is the connecting half of ble.Device.
type Dialer interface {
	Dial(ctx context.Context, a ble.Addr) (ble.Client, error)
}

// Device is what the Driver needs from a go-ble device.
type Device interface {
	ScanningDevice
	Dialer
}

// ScanConfigurer is implemented by devices whose scan timing and type can be
// reprogrammed between scans.
type ScanConfigurer interface {
	ConfigureScan(params gap.ScanParameters) error
}

// Driver implements gap.Driver on top of a go-ble device.
type Driver struct {
	dev    Device
	logger *logrus.Logger
	bus    *event.Bus

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDriver wraps dev. A nil logger gets a default logrus logger.
func NewDriver(dev Device, logger *logrus.Logger) *Driver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Driver{
		dev:    dev,
		logger: logger,
		bus:    event.NewBus(logger),
	}
}

// Open creates a platform device via DeviceFactory and wraps it.
func Open(params gap.ScanParameters, logger *logrus.Logger) (*Driver, error) {
	dev, err := DeviceFactory(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", NormalizeError(err))
	}
	return NewDriver(dev, logger), nil
}

// Events returns the bus that carries gap.AdvertisingReport and gap.Timeout.
func (d *Driver) Events() *event.Bus {
	return d.bus
}

// ScanStart starts scanning in the background. The scan ends on ScanStop
// or once params.Timeout elapses, in which case a scan Timeout is
// published. Devices implementing ScanConfigurer are reprogrammed with
// params first.
func (d *Driver) ScanStart(params gap.ScanParameters) error {
	if err := params.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return ErrAlreadyScanning
	}
	prev := d.done
	d.mu.Unlock()

	// A stopped scan may still hold the radio.
	if prev != nil {
		select {
		case <-prev:
		case <-time.After(StopGracePeriod):
			d.logger.Warn("Previous BLE scan did not finish in time, starting anyway")
		}
	}

	if c, ok := d.dev.(ScanConfigurer); ok {
		if err := c.ConfigureScan(params); err != nil {
			return fmt.Errorf("failed to apply scan parameters: %w", NormalizeError(err))
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return ErrAlreadyScanning
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if params.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), params.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	d.gen++
	gen := d.gen
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done

	d.logger.WithFields(logrus.Fields{
		"interval": params.Interval,
		"window":   params.Window,
		"timeout":  params.Timeout,
		"active":   params.Active,
	}).Debug("Starting go-ble scan")

	groutine.Go(ctx, "ble-scan", func(ctx context.Context) {
		defer close(done)
		d.runScan(ctx, gen, cancel)
	})
	return nil
}

// ScanStop cancels the running scan without waiting for the device.
func (d *Driver) ScanStop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel == nil {
		return ErrNotScanning
	}
	d.cancel()
	d.cancel = nil
	return nil
}

// IsScanning reports whether a scan is running.
func (d *Driver) IsScanning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}

func (d *Driver) runScan(ctx context.Context, gen uint64, cancel context.CancelFunc) {
	defer cancel()

	err := d.dev.Scan(ctx, true, func(adv ble.Advertisement) {
		report, convErr := ReportFromAdvertisement(adv)
		if convErr != nil {
			d.logger.WithFields(logrus.Fields{
				"address": report.Address,
				"error":   convErr,
			}).Warn("Dropped advertising fields that do not fit an AD structure")
		}
		event.Publish(d.bus, report)
	})
	cause := ctx.Err()

	d.mu.Lock()
	current := d.gen == gen && d.cancel != nil
	if current {
		d.cancel = nil
	}
	d.mu.Unlock()

	logger := d.logger.WithField("goroutine", groutine.Name(ctx))
	switch {
	case errors.Is(cause, context.Canceled):
		logger.Debug("go-ble scan canceled")
		return
	case errors.Is(cause, context.DeadlineExceeded):
		logger.Debug("go-ble scan timed out")
	case err != nil:
		logger.WithError(NormalizeError(err)).Error("go-ble scan failed")
	default:
		logger.Debug("go-ble scan ended by the device")
	}

	// The scanner only learns the scan is over through a Timeout event.
	if current {
		event.Publish(d.bus, gap.Timeout{Source: gap.TimeoutSourceScan})
	}
}

// Discover connects to the peer at address, discovers its attribute table
// and disconnects. ctx bounds the connection attempt.
func (d *Driver) Discover(ctx context.Context, address string) (*gatt.Database, error) {
	logger := d.logger.WithField("address", address)

	logger.Info("Connecting to BLE device...")
	client, err := d.dev.Dial(ctx, ble.NewAddr(address))
	if err != nil {
		logger.WithError(err).Error("Failed to dial BLE device")
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", address, NormalizeError(err))
	}
	defer func() {
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection")
		}
	}()

	logger.Debug("Discovering services and characteristics...")
	profile, err := client.DiscoverProfile(true)
	if err != nil {
		logger.WithError(err).Error("Failed to discover profile")
		return nil, fmt.Errorf("failed to discover profile: %w", NormalizeError(err))
	}
	if profile == nil {
		profile = &ble.Profile{}
	}

	logger.WithField("services", len(profile.Services)).Debug("Profile discovered successfully")
	return gatt.NewDatabaseFromProfile(address, profile, d.logger), nil
}

// Close stops any running scan and releases the device when it supports it.
func (d *Driver) Close() error {
	if err := d.ScanStop(); err != nil && !errors.Is(err, ErrNotScanning) {
		return err
	}
	if s, ok := d.dev.(interface{ Stop() error }); ok {
		return NormalizeError(s.Stop())
	}
	return nil
}
