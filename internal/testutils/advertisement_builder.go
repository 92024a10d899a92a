package testutils

import (
	"github.com/go-ble/ble"
	"github.com/srg/blegap/internal/advdata"
	"github.com/srg/blegap/internal/gap"
)

// AdvertisementBuilder builds advertisements for tests, either as raw
// gap.AdvertisingReport values or as go-ble advertisements.
type AdvertisementBuilder struct {
	address      string
	rssi         int
	data         advdata.Data
	connectable  bool
	scanResponse bool
}

// NewAdvertisementBuilder creates a connectable advertisement with no AD records.
func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{
		address:     "aa:bb:cc:dd:ee:ff",
		rssi:        -60,
		connectable: true,
	}
}

func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.data.SetLocalName(name)
	return b
}

func (b *AdvertisementBuilder) WithShortName(name string) *AdvertisementBuilder {
	b.data.Set(advdata.TypeShortLocalName, []byte(name))
	return b
}

func (b *AdvertisementBuilder) WithAddress(addr string) *AdvertisementBuilder {
	b.address = addr
	return b
}

func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.rssi = rssi
	return b
}

// WithServices adds service UUIDs, e.g. "180D" or a 128-bit string.
func (b *AdvertisementBuilder) WithServices(uuids ...string) *AdvertisementBuilder {
	parsed := make([]ble.UUID, 0, len(uuids))
	for _, u := range uuids {
		parsed = append(parsed, ble.MustParse(u))
	}
	b.data.SetServices(parsed...)
	return b
}

func (b *AdvertisementBuilder) WithManufacturerData(data []byte) *AdvertisementBuilder {
	b.data.SetManufacturerData(data)
	return b
}

func (b *AdvertisementBuilder) WithServiceData(uuid string, data []byte) *AdvertisementBuilder {
	b.data.SetServiceData(ble.MustParse(uuid), data)
	return b
}

func (b *AdvertisementBuilder) WithTxPower(power int) *AdvertisementBuilder {
	b.data.SetTxPowerLevel(power)
	return b
}

func (b *AdvertisementBuilder) WithConnectable(c bool) *AdvertisementBuilder {
	b.connectable = c
	return b
}

// AsScanResponse marks the built report as a scan response packet.
func (b *AdvertisementBuilder) AsScanResponse() *AdvertisementBuilder {
	b.scanResponse = true
	return b
}

// Report builds the raw driver report.
func (b *AdvertisementBuilder) Report() gap.AdvertisingReport {
	return gap.AdvertisingReport{
		Address:      b.address,
		RSSI:         b.rssi,
		Payload:      advdata.Encode(b.data),
		ScanResponse: b.scanResponse,
	}
}

// Build returns a go-ble advertisement carrying the configured fields.
func (b *AdvertisementBuilder) Build() ble.Advertisement {
	return &FakeAdvertisement{
		addr:        ble.NewAddr(b.address),
		rssi:        b.rssi,
		data:        b.data.Merge(advdata.Data{}),
		connectable: b.connectable,
	}
}

// txPowerUnknown is reported when the advertisement carries no TX power level.
const txPowerUnknown = 127

// FakeAdvertisement implements ble.Advertisement over parsed AD records.
type FakeAdvertisement struct {
	addr        ble.Addr
	rssi        int
	data        advdata.Data
	connectable bool
}

func (a *FakeAdvertisement) LocalName() string            { return a.data.LocalName() }
func (a *FakeAdvertisement) ManufacturerData() []byte     { return a.data.ManufacturerData() }
func (a *FakeAdvertisement) Services() []ble.UUID         { return a.data.Services() }
func (a *FakeAdvertisement) OverflowService() []ble.UUID  { return nil }
func (a *FakeAdvertisement) SolicitedService() []ble.UUID { return nil }
func (a *FakeAdvertisement) Connectable() bool            { return a.connectable }
func (a *FakeAdvertisement) RSSI() int                    { return a.rssi }
func (a *FakeAdvertisement) Addr() ble.Addr               { return a.addr }

func (a *FakeAdvertisement) TxPowerLevel() int {
	tx, ok := a.data.TxPowerLevel()
	if !ok {
		return txPowerUnknown
	}
	return tx
}

func (a *FakeAdvertisement) ServiceData() []ble.ServiceData {
	sd := a.data.ServiceData()
	out := make([]ble.ServiceData, len(sd))
	for i, d := range sd {
		out[i] = ble.ServiceData{UUID: d.UUID, Data: d.Data}
	}
	return out
}
