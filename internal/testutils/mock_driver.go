package testutils

import (
	"github.com/srg/blegap/internal/event"
	"github.com/srg/blegap/internal/gap"
	"github.com/stretchr/testify/mock"
)

// MockDriver is a gap.Driver whose scan requests are recorded with testify/mock
// and whose events are injected by the test.
type MockDriver struct {
	mock.Mock
	bus *event.Bus
}

// NewMockDriver creates a driver with no expectations set.
func NewMockDriver() *MockDriver {
	return &MockDriver{bus: event.NewBus(nil)}
}

func (m *MockDriver) ScanStart(params gap.ScanParameters) error {
	args := m.Called(params)
	return args.Error(0)
}

func (m *MockDriver) ScanStop() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDriver) Events() *event.Bus {
	return m.bus
}

// EmitReport delivers an advertising report as the radio would.
func (m *MockDriver) EmitReport(r gap.AdvertisingReport) {
	event.Publish(m.bus, r)
}

// EmitTimeout delivers a timeout event for src.
func (m *MockDriver) EmitTimeout(src gap.TimeoutSource) {
	event.Publish(m.bus, gap.Timeout{Source: src})
}
