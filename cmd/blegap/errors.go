package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/srg/blegap/internal/driver/goble"
	"github.com/srg/blegap/internal/gap"
	"github.com/srg/blegap/internal/gatt"
)

// FormatUserError turns an error into a message for the terminal.
func FormatUserError(err error) string {
	var rangeErr *gap.ParameterRangeError
	var notFound *gatt.NotFoundError

	switch {
	case errors.Is(err, goble.ErrBluetoothOff):
		return "Bluetooth is turned off or no adapter is available. Enable Bluetooth and try again."
	case errors.Is(err, goble.ErrUnsupportedPlatform):
		return "BLE is not supported on this platform."
	case errors.As(err, &rangeErr):
		return fmt.Sprintf("%s (check --interval, --window and --timeout)", rangeErr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return "Operation timed out. Make sure the device is powered on and in range."
	case errors.As(err, &notFound):
		return notFound.Error()
	default:
		return err.Error()
	}
}
