package gatt

import (
	"strings"

	"github.com/go-ble/ble"
)

// CharacteristicProperties lists what a characteristic supports. The flags
// are independent; any combination is legal.
type CharacteristicProperties struct {
	Read                 bool
	Write                bool
	Notify               bool
	Indicate             bool
	Broadcast            bool
	WriteWithoutResponse bool
	SignedWrite          bool
}

// DefaultCharacteristicProperties returns read-only properties.
func DefaultCharacteristicProperties() CharacteristicProperties {
	return CharacteristicProperties{Read: true}
}

// FromBLEProperty decodes the characteristic properties bit field of a
// characteristic declaration.
func FromBLEProperty(p ble.Property) CharacteristicProperties {
	return CharacteristicProperties{
		Read:                 p&ble.CharRead != 0,
		Write:                p&ble.CharWrite != 0,
		Notify:               p&ble.CharNotify != 0,
		Indicate:             p&ble.CharIndicate != 0,
		Broadcast:            p&ble.CharBroadcast != 0,
		WriteWithoutResponse: p&ble.CharWriteNR != 0,
		SignedWrite:          p&ble.CharSignedWrite != 0,
	}
}

// BLEProperty encodes the properties as a characteristic declaration bit field.
func (p CharacteristicProperties) BLEProperty() ble.Property {
	var out ble.Property
	for _, f := range []struct {
		set bool
		bit ble.Property
	}{
		{p.Read, ble.CharRead},
		{p.Write, ble.CharWrite},
		{p.Notify, ble.CharNotify},
		{p.Indicate, ble.CharIndicate},
		{p.Broadcast, ble.CharBroadcast},
		{p.WriteWithoutResponse, ble.CharWriteNR},
		{p.SignedWrite, ble.CharSignedWrite},
	} {
		if f.set {
			out |= f.bit
		}
	}
	return out
}

// String renders the set flags, e.g. "CharProps(r,w,n)".
func (p CharacteristicProperties) String() string {
	var set []string
	for _, f := range []struct {
		set  bool
		abbr string
	}{
		{p.Read, "r"},
		{p.Write, "w"},
		{p.Notify, "n"},
		{p.Indicate, "i"},
		{p.Broadcast, "b"},
		{p.WriteWithoutResponse, "wn"},
		{p.SignedWrite, "sw"},
	} {
		if f.set {
			set = append(set, f.abbr)
		}
	}
	return "CharProps(" + strings.Join(set, ",") + ")"
}
