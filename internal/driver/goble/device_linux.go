//go:build linux

package goble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/cmd"

	"github.com/srg/blegap/internal/gap"
)

const (
	scanTypePassive uint8 = 0x00
	scanTypeActive  uint8 = 0x01
)

// hciDevice is the default HCI device with scan parameters that can change
// between scans.
type hciDevice struct {
	*linux.Device
}

// newDevice opens the default HCI device programmed with params.
func newDevice(params gap.ScanParameters) (Device, error) {
	dev, err := linux.NewDevice(ble.OptScanParams(hciScanParameters(params)))
	if err != nil {
		return nil, err
	}
	return &hciDevice{Device: dev}, nil
}

// ConfigureScan stores params as the device's scan parameters and sends them
// to the controller. The controller only accepts them while scanning is off.
func (d *hciDevice) ConfigureScan(params gap.ScanParameters) error {
	p := hciScanParameters(params)
	if err := d.HCI.Option(ble.OptScanParams(p)); err != nil {
		return err
	}
	return d.HCI.Send(&p, nil)
}

func hciScanParameters(params gap.ScanParameters) cmd.LESetScanParameters {
	scanType := scanTypePassive
	if params.Active {
		scanType = scanTypeActive
	}
	return cmd.LESetScanParameters{
		LEScanType:           scanType,
		LEScanInterval:       params.IntervalUnits(),
		LEScanWindow:         params.WindowUnits(),
		OwnAddressType:       0x00, // public
		ScanningFilterPolicy: 0x00, // accept all
	}
}
