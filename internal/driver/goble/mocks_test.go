package goble

import (
	"context"
	"sync"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"

	"github.com/srg/blegap/internal/gap"
)

// mockDevice replays its advertisements on every Scan and then blocks until
// the scan context ends, unless the Scan expectation returns an error.
type mockDevice struct {
	mock.Mock

	mu   sync.Mutex
	advs []ble.Advertisement
}

func (m *mockDevice) setAdvertisements(advs ...ble.Advertisement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advs = advs
}

func (m *mockDevice) Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error {
	args := m.Called(allowDup)

	m.mu.Lock()
	advs := m.advs
	m.mu.Unlock()
	for _, adv := range advs {
		h(adv)
	}

	if err := args.Error(0); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockDevice) Dial(_ context.Context, a ble.Addr) (ble.Client, error) {
	args := m.Called(a.String())
	client, _ := args.Get(0).(ble.Client)
	return client, args.Error(1)
}

func (m *mockDevice) Stop() error {
	return m.Called().Error(0)
}

// configurableDevice is a mockDevice that also accepts new scan parameters.
type configurableDevice struct {
	*mockDevice
}

func (m configurableDevice) ConfigureScan(params gap.ScanParameters) error {
	return m.Called(params).Error(0)
}

// mockClient overrides the ble.Client methods used by discovery; any other
// call panics on the nil embedded interface.
type mockClient struct {
	ble.Client
	mock.Mock
}

func (m *mockClient) DiscoverProfile(force bool) (*ble.Profile, error) {
	args := m.Called(force)
	profile, _ := args.Get(0).(*ble.Profile)
	return profile, args.Error(1)
}

func (m *mockClient) CancelConnection() error {
	return m.Called().Error(0)
}
