// Package gap implements the host side of BLE scanning.
//
// A Scanner drives scan sessions on a radio Driver, merges the advertising
// reports it receives per advertiser and republishes them to subscribers:
//
//	scanner := gap.NewScanner(drv, logger)
//	scanner.OnScanReceived().Register(func(_ *gap.Scanner, r *gap.ScanReport) {
//	    fmt.Println(r.Address, r.LocalName(), r.RSSI)
//	})
//	session, err := scanner.StartScan(nil, true)
//	if err != nil {
//	    return err
//	}
//	reports, err := session.Wait(ctx)
//
// The Driver owns the radio. It accepts scan start/stop requests and pushes
// AdvertisingReport and Timeout events through its event.Bus.
package gap
