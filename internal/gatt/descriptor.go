package gatt

import (
	"fmt"

	"github.com/go-ble/ble"
)

// DescriptorType is a well-known characteristic descriptor UUID.
type DescriptorType uint16

const (
	DescriptorExtendedProperty   DescriptorType = 0x2900
	DescriptorUserDescription    DescriptorType = 0x2901
	DescriptorClientCharConfig   DescriptorType = 0x2902
	DescriptorServerCharConfig   DescriptorType = 0x2903
	DescriptorPresentationFormat DescriptorType = 0x2904
	DescriptorAggregateFormat    DescriptorType = 0x2905
)

// UUID returns the 16-bit UUID of the descriptor type.
func (t DescriptorType) UUID() ble.UUID {
	return ble.UUID16(uint16(t))
}

func (t DescriptorType) String() string {
	switch t {
	case DescriptorExtendedProperty:
		return "Characteristic Extended Properties"
	case DescriptorUserDescription:
		return "Characteristic User Description"
	case DescriptorClientCharConfig:
		return "Client Characteristic Configuration"
	case DescriptorServerCharConfig:
		return "Server Characteristic Configuration"
	case DescriptorPresentationFormat:
		return "Characteristic Presentation Format"
	case DescriptorAggregateFormat:
		return "Characteristic Aggregate Format"
	default:
		return fmt.Sprintf("DescriptorType(0x%04X)", uint16(t))
	}
}

// Descriptor is a characteristic descriptor attribute.
type Descriptor struct {
	UUID   ble.UUID
	Handle Handle
}

// Type returns the well-known type of d, if it is one.
func (d *Descriptor) Type() (DescriptorType, bool) {
	for t := DescriptorExtendedProperty; t <= DescriptorAggregateFormat; t++ {
		if d.UUID.Equal(t.UUID()) {
			return t, true
		}
	}
	return 0, false
}

func (d *Descriptor) String() string {
	if t, ok := d.Type(); ok {
		return fmt.Sprintf("Descriptor(%s, %s)", t, d.Handle)
	}
	return fmt.Sprintf("Descriptor(%s, %s)", d.UUID, d.Handle)
}
