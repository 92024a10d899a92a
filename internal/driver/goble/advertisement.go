package goble

import (
	"errors"
	"slices"
	"strings"

	"github.com/go-ble/ble"

	"github.com/srg/blegap/internal/advdata"
	"github.com/srg/blegap/internal/gap"
)

// go-ble reports this TX power level when the advertisement carries none.
const txPowerUnknown = 127

// DataFromAdvertisement rebuilds the AD records of a go-ble advertisement.
// go-ble hands over decoded fields only, so flags and the short/complete
// name distinction are not recoverable. Fields too long for an AD structure
// are left out and reported in the returned error.
func DataFromAdvertisement(adv ble.Advertisement) (advdata.Data, error) {
	var d advdata.Data
	var errs []error

	if name := adv.LocalName(); name != "" {
		errs = append(errs, d.SetLocalName(name))
	}
	if tx := adv.TxPowerLevel(); tx != txPowerUnknown {
		d.SetTxPowerLevel(tx)
	}

	services := slices.Concat(adv.Services(), adv.OverflowService())
	if len(services) > 0 {
		errs = append(errs, d.SetServices(services...))
	}
	for _, sd := range adv.ServiceData() {
		errs = append(errs, d.SetServiceData(sd.UUID, sd.Data))
	}
	if md := adv.ManufacturerData(); len(md) > 0 {
		errs = append(errs, d.SetManufacturerData(md))
	}
	return d, errors.Join(errs...)
}

// ReportFromAdvertisement converts a go-ble advertisement into the report
// published to the scanner. The report is usable even when an error is
// returned; it lacks the fields named by the error.
func ReportFromAdvertisement(adv ble.Advertisement) (gap.AdvertisingReport, error) {
	data, err := DataFromAdvertisement(adv)
	return gap.AdvertisingReport{
		Address: strings.ToLower(adv.Addr().String()),
		RSSI:    adv.RSSI(),
		Payload: advdata.Encode(data),
	}, err
}
