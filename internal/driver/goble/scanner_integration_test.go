package goble

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/blegap/internal/gap"
	"github.com/srg/blegap/internal/testutils"
)

func TestScannerOverGoBLEDriver(t *testing.T) {
	helper := testutils.NewTestHelper(t)

	dev := &mockDevice{}
	dev.setAdvertisements(
		testutils.CreateMockAdvertisement("", "aa:bb:cc:dd:ee:01", -70).Build(),
		testutils.CreateMockAdvertisement("Heart", "aa:bb:cc:dd:ee:01", -50).WithServices("180D").Build(),
		testutils.CreateMockAdvertisement("Other", "aa:bb:cc:dd:ee:02", -90).Build(),
	)
	dev.On("Scan", true).Return(nil)

	scanner := gap.NewScanner(NewDriver(dev, helper.Logger), helper.Logger)
	defer scanner.Close()

	var received int
	scanner.OnScanReceived().Register(func(_ *gap.Scanner, _ *gap.ScanReport) { received++ })

	params, err := gap.NewScanParameters(gap.DefaultScanInterval, gap.DefaultScanWindow, 50*time.Millisecond, true)
	require.NoError(t, err)

	session, err := scanner.StartScan(&params, true)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reports, err := session.Wait(ctx)
	require.NoError(t, err, "session MUST resolve without error when the scan times out")

	assert.False(t, scanner.IsScanning())
	assert.Equal(t, 3, received, "every advertising packet MUST be delivered")
	assert.Equal(t, 2, reports.Len(), "packets from one address MUST merge into one peer")

	peer, ok := reports.Get("AA:BB:CC:DD:EE:01")
	require.True(t, ok)
	assert.Equal(t, "Heart", peer.LocalName())
	assert.Equal(t, -50, peer.RSSI, "merged RSSI MUST be the strongest seen")
}
