// Package advdata parses and encodes BLE advertising payloads.
//
// A payload is a sequence of AD structures, each encoded as
// length (1 byte) | type (1 byte) | value (length-1 bytes).
// A zero length byte terminates the significant part of the payload.
package advdata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux/adv"
)

// Type is an AD structure type from the Bluetooth assigned numbers.
type Type byte

// https://www.bluetooth.com/specifications/assigned-numbers/generic-access-profile
const (
	TypeFlags                Type = 0x01
	TypeIncompleteUUID16     Type = 0x02
	TypeCompleteUUID16       Type = 0x03
	TypeIncompleteUUID32     Type = 0x04
	TypeCompleteUUID32       Type = 0x05
	TypeIncompleteUUID128    Type = 0x06
	TypeCompleteUUID128      Type = 0x07
	TypeShortLocalName       Type = 0x08
	TypeCompleteLocalName    Type = 0x09
	TypeTxPowerLevel         Type = 0x0a
	TypeServiceData16        Type = 0x16
	TypeServiceData32        Type = 0x20
	TypeServiceData128       Type = 0x21
	TypeManufacturerSpecific Type = 0xff
)

var typeNames = map[Type]string{
	TypeFlags:                "flags",
	TypeIncompleteUUID16:     "uuid16",
	TypeCompleteUUID16:       "uuid16",
	TypeIncompleteUUID32:     "uuid32",
	TypeCompleteUUID32:       "uuid32",
	TypeIncompleteUUID128:    "uuid128",
	TypeCompleteUUID128:      "uuid128",
	TypeShortLocalName:       "name",
	TypeCompleteLocalName:    "name",
	TypeTxPowerLevel:         "txpwr",
	TypeServiceData16:        "svc16",
	TypeServiceData32:        "svc32",
	TypeServiceData128:       "svc128",
	TypeManufacturerSpecific: "mfg",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", byte(t))
}

// Flags bits carried by TypeFlags.
const (
	FlagLimitedDiscoverable uint8 = adv.FlagLimitedDiscoverable
	FlagGeneralDiscoverable uint8 = adv.FlagGeneralDiscoverable
	FlagBREDRNotSupported   uint8 = adv.FlagLEOnly
	FlagLEBREDRController   uint8 = adv.FlagBothController
	FlagLEBREDRHost         uint8 = adv.FlagBothHost
)

// MaxValueLength is the largest value an AD structure can carry; its length
// byte also counts the type byte.
const MaxValueLength = 254

var (
	// ErrMalformed is returned when an AD structure length runs past the payload.
	ErrMalformed = errors.New("malformed advertising data")

	// ErrValueTooLong is returned for a value that does not fit one AD structure.
	ErrValueTooLong = errors.New("advertising data value too long")
)

// Record is a single AD structure.
type Record struct {
	Type  Type
	Value []byte
}

func (r Record) bytes() []byte {
	return append([]byte{byte(len(r.Value) + 1), byte(r.Type)}, r.Value...)
}

// ServiceData is the value of a service data AD structure.
type ServiceData struct {
	UUID ble.UUID
	Data []byte
}

// Data is an ordered set of AD records, at most one per type.
type Data struct {
	records []Record
}

// Parse decodes an advertising payload. On a malformed structure the records
// decoded so far are returned together with ErrMalformed.
func Parse(payload []byte) (Data, error) {
	var d Data
	b := adv.NewRawPacket(payload).Bytes()
	for i := 0; i < len(b); {
		length := int(b[i])
		if length == 0 {
			break
		}
		if i+1+length > len(b) {
			return d, fmt.Errorf("%w: structure at offset %d declares %d bytes, %d available",
				ErrMalformed, i, length, len(b)-i-1)
		}
		d.put(Type(b[i+1]), b[i+2:i+1+length])
		i += 1 + length
	}
	return d, nil
}

// Encode serialises d back into an advertising payload.
func Encode(d Data) []byte {
	structures := make([][]byte, len(d.records))
	for i, r := range d.records {
		structures[i] = r.bytes()
	}
	return slices.Clone(adv.NewRawPacket(structures...).Bytes())
}

// packet exposes d to go-ble's field decoders.
func (d Data) packet() *adv.Packet {
	return adv.NewRawPacket(Encode(d))
}

// Records returns a copy of the records in insertion order.
func (d Data) Records() []Record {
	out := make([]Record, len(d.records))
	for i, r := range d.records {
		out[i] = Record{Type: r.Type, Value: slices.Clone(r.Value)}
	}
	return out
}

// Len returns the number of records.
func (d Data) Len() int {
	return len(d.records)
}

// Get returns the value stored for t.
func (d Data) Get(t Type) ([]byte, bool) {
	v := d.packet().Field(byte(t))
	if v == nil {
		return nil, false
	}
	return v, true
}

// Set stores v for t, replacing an existing record of the same type in place.
// A value longer than MaxValueLength is rejected and d is left unchanged.
func (d *Data) Set(t Type, v []byte) error {
	if len(v) > MaxValueLength {
		return fmt.Errorf("%w: %s carries %d bytes, at most %d fit", ErrValueTooLong, t, len(v), MaxValueLength)
	}
	d.put(t, v)
	return nil
}

func (d *Data) put(t Type, v []byte) {
	v = slices.Clone(v)
	for i := range d.records {
		if d.records[i].Type == t {
			d.records[i].Value = v
			return
		}
	}
	d.records = append(d.records, Record{Type: t, Value: v})
}

// Merge returns a copy of d updated with every record of other. Records of
// other take precedence, which is how scan response data supplements the
// original advertisement.
func (d Data) Merge(other Data) Data {
	var out Data
	for _, r := range d.records {
		out.put(r.Type, r.Value)
	}
	for _, r := range other.records {
		out.put(r.Type, r.Value)
	}
	return out
}

// Flags returns the advertising flags field.
func (d Data) Flags() (uint8, bool) {
	v, ok := d.Get(TypeFlags)
	if !ok || len(v) < 1 {
		return 0, false
	}
	return v[0], true
}

// LocalName returns the complete local name, or the shortened one when only that is present.
func (d Data) LocalName() string {
	if v, ok := d.Get(TypeCompleteLocalName); ok {
		return string(v)
	}
	if v, ok := d.Get(TypeShortLocalName); ok {
		return string(v)
	}
	return ""
}

// TxPowerLevel returns the advertised TX power in dBm.
func (d Data) TxPowerLevel() (int, bool) {
	v, ok := d.Get(TypeTxPowerLevel)
	if !ok || len(v) < 1 {
		return 0, false
	}
	return int(int8(v[0])), true
}

// ManufacturerData returns the manufacturer specific data including the
// leading 2-byte company identifier.
func (d Data) ManufacturerData() []byte {
	return d.packet().ManufacturerData()
}

// CompanyID returns the company identifier of the manufacturer specific data.
func (d Data) CompanyID() (uint16, bool) {
	v := d.ManufacturerData()
	if len(v) < 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(v), true
}

var uuidListSizes = []struct {
	types []Type
	size  int
}{
	{[]Type{TypeIncompleteUUID16, TypeCompleteUUID16}, 2},
	{[]Type{TypeIncompleteUUID32, TypeCompleteUUID32}, 4},
	{[]Type{TypeIncompleteUUID128, TypeCompleteUUID128}, 16},
}

// Services returns all advertised service UUIDs, complete and incomplete lists alike.
// A trailing partial UUID in a list is ignored.
func (d Data) Services() []ble.UUID {
	var lists Data
	for _, g := range uuidListSizes {
		for _, t := range g.types {
			if v, ok := d.Get(t); ok {
				lists.put(t, v[:len(v)-len(v)%g.size])
			}
		}
	}

	uuids := lists.packet().UUIDs()
	out := make([]ble.UUID, len(uuids))
	for i, u := range uuids {
		out[i] = ble.UUID(slices.Clone(u))
	}
	return out
}

// ServiceData returns the service data entries for 16, 32 and 128-bit UUIDs.
func (d Data) ServiceData() []ServiceData {
	var out []ServiceData
	for _, g := range []struct {
		t    Type
		size int
	}{
		{TypeServiceData16, 2},
		{TypeServiceData32, 4},
		{TypeServiceData128, 16},
	} {
		v, ok := d.Get(g.t)
		if !ok || len(v) < g.size {
			continue
		}
		out = append(out, ServiceData{
			UUID: ble.UUID(slices.Clone(v[:g.size])),
			Data: slices.Clone(v[g.size:]),
		})
	}
	return out
}

// SetLocalName stores a complete local name.
func (d *Data) SetLocalName(name string) error {
	return d.Set(TypeCompleteLocalName, []byte(name))
}

// SetFlags stores the advertising flags.
func (d *Data) SetFlags(flags uint8) {
	d.put(TypeFlags, []byte{flags})
}

// SetTxPowerLevel stores the TX power level in dBm.
func (d *Data) SetTxPowerLevel(dbm int) {
	d.put(TypeTxPowerLevel, []byte{byte(int8(dbm))})
}

// SetManufacturerData stores manufacturer specific data (company id included).
func (d *Data) SetManufacturerData(data []byte) error {
	return d.Set(TypeManufacturerSpecific, data)
}

// SetServices stores complete service UUID lists, grouped by UUID length.
// Lists that are too long for one AD structure are rejected.
func (d *Data) SetServices(uuids ...ble.UUID) error {
	var u16, u32, u128 []byte
	for _, u := range uuids {
		switch len(u) {
		case 2:
			u16 = append(u16, u...)
		case 4:
			u32 = append(u32, u...)
		case 16:
			u128 = append(u128, u...)
		}
	}
	var errs []error
	for _, l := range []struct {
		t    Type
		list []byte
	}{
		{TypeCompleteUUID16, u16},
		{TypeCompleteUUID32, u32},
		{TypeCompleteUUID128, u128},
	} {
		if len(l.list) > 0 {
			errs = append(errs, d.Set(l.t, l.list))
		}
	}
	return errors.Join(errs...)
}

// SetServiceData stores service data for uuid. Only one entry per UUID length is kept.
func (d *Data) SetServiceData(uuid ble.UUID, data []byte) error {
	var t Type
	switch len(uuid) {
	case 2:
		t = TypeServiceData16
	case 4:
		t = TypeServiceData32
	case 16:
		t = TypeServiceData128
	default:
		return fmt.Errorf("service data UUID must be 2, 4 or 16 bytes, got %d", len(uuid))
	}
	return d.Set(t, append(slices.Clone([]byte(uuid)), data...))
}

func (d Data) String() string {
	parts := make([]string, 0, len(d.records))
	for _, r := range d.records {
		switch r.Type {
		case TypeShortLocalName, TypeCompleteLocalName:
			parts = append(parts, fmt.Sprintf("%s=%q", r.Type, r.Value))
		default:
			parts = append(parts, fmt.Sprintf("%s=[% X]", r.Type, r.Value))
		}
	}
	return "AdvData(" + strings.Join(parts, ", ") + ")"
}
