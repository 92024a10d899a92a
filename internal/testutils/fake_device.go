package testutils

import (
	"context"
	"sync"

	"github.com/go-ble/ble"
)

// FakeDevice stands in for a go-ble device. Every Scan replays
// Advertisements and then blocks until the scan context ends, unless
// ScanErr is set. Dial hands out Client.
type FakeDevice struct {
	Advertisements []ble.Advertisement
	ScanErr        error
	Client         ble.Client
	DialErr        error

	mu        sync.Mutex
	scans     int
	dialed    []string
	stopCalls int
}

func (d *FakeDevice) Scan(ctx context.Context, _ bool, h ble.AdvHandler) error {
	d.mu.Lock()
	d.scans++
	advs := d.Advertisements
	d.mu.Unlock()

	for _, adv := range advs {
		h(adv)
	}
	if d.ScanErr != nil {
		return d.ScanErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (d *FakeDevice) Dial(_ context.Context, a ble.Addr) (ble.Client, error) {
	d.mu.Lock()
	d.dialed = append(d.dialed, a.String())
	d.mu.Unlock()

	if d.DialErr != nil {
		return nil, d.DialErr
	}
	return d.Client, nil
}

func (d *FakeDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopCalls++
	return nil
}

// Scans returns how many times Scan was called.
func (d *FakeDevice) Scans() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scans
}

// Dialed returns the addresses passed to Dial.
func (d *FakeDevice) Dialed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dialed...)
}

// FakeClient serves a fixed profile. Methods other than DiscoverProfile,
// Profile, CancelConnection and Addr panic on the nil embedded ble.Client.
type FakeClient struct {
	ble.Client

	Address           string
	DiscoveredProfile *ble.Profile
	Err               error
	Canceled          bool
}

var _ ble.Client = (*FakeClient)(nil)

func (c *FakeClient) Addr() ble.Addr {
	return ble.NewAddr(c.Address)
}

func (c *FakeClient) DiscoverProfile(bool) (*ble.Profile, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.DiscoveredProfile, nil
}

func (c *FakeClient) Profile() *ble.Profile {
	return c.DiscoveredProfile
}

func (c *FakeClient) CancelConnection() error {
	c.Canceled = true
	return nil
}
