package gap

import (
	"fmt"

	"github.com/srg/blegap/internal/event"
)

// Driver is the radio collaborator a Scanner runs on.
//
// Events are published on the bus returned by Events: AdvertisingReport for
// every received advertising packet and Timeout when a timed procedure ends.
type Driver interface {
	ScanStart(params ScanParameters) error
	ScanStop() error
	Events() *event.Bus
}

// AdvertisingReport is a single advertising or scan response packet seen by the radio.
type AdvertisingReport struct {
	Address      string
	RSSI         int
	Payload      []byte // raw AD structures
	ScanResponse bool
}

// TimeoutSource identifies the procedure a Timeout belongs to.
type TimeoutSource int

const (
	TimeoutSourceAdvertising TimeoutSource = iota
	TimeoutSourceScan
	TimeoutSourceConnection
	TimeoutSourceAuthPayload
)

func (s TimeoutSource) String() string {
	switch s {
	case TimeoutSourceAdvertising:
		return "advertising"
	case TimeoutSourceScan:
		return "scan"
	case TimeoutSourceConnection:
		return "connection"
	case TimeoutSourceAuthPayload:
		return "auth_payload"
	default:
		return fmt.Sprintf("TimeoutSource(%d)", int(s))
	}
}

// Timeout is published by the driver when a timed procedure expires.
type Timeout struct {
	Source TimeoutSource
}
