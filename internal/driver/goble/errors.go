package goble

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBluetoothOff        = errors.New("bluetooth is turned off")
	ErrAlreadyScanning     = errors.New("scan already in progress")
	ErrNotScanning         = errors.New("no scan in progress")
	ErrUnsupportedPlatform = errors.New("BLE is not supported on this platform")
)

// NormalizeError maps known go-ble error strings to sentinel errors. The
// original error is kept in the chain.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case msg == "central manager has invalid state: have=4 want=5: is Bluetooth turned on?":
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "bluetooth is turned off"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "can't init hci"), containsIgnoreCase(msg, "no devices available"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	default:
		return err
	}
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
