//go:build darwin

package goble

import (
	"github.com/go-ble/ble/darwin"

	"github.com/srg/blegap/internal/gap"
)

// newDevice opens the CoreBluetooth central. CoreBluetooth picks its own
// scan timing, so only the timeout in params takes effect.
func newDevice(_ gap.ScanParameters) (Device, error) {
	dev, err := darwin.NewDevice()
	if err != nil {
		return nil, err
	}
	return dev, nil
}
