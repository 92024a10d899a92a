package goble

import "github.com/srg/blegap/internal/gap"

// DeviceFactory creates the platform BLE device. It is a variable so tests
// can substitute a fake.
//
//nolint:gochecknoglobals
var DeviceFactory = func(params gap.ScanParameters) (Device, error) {
	return newDevice(params)
}
