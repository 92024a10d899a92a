package gap_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/srg/blegap/internal/event"
	"github.com/srg/blegap/internal/gap"
	"github.com/srg/blegap/internal/testutils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ScannerTestSuite struct {
	suite.Suite

	helper  *testutils.TestHelper
	driver  *testutils.MockDriver
	scanner *gap.Scanner
}

func (suite *ScannerTestSuite) SetupTest() {
	suite.helper = testutils.NewTestHelper(suite.T())
	suite.driver = testutils.NewMockDriver()
	suite.scanner = gap.NewScanner(suite.driver, suite.helper.Logger)
}

func (suite *ScannerTestSuite) expectStopAndStart() {
	suite.driver.On("ScanStop").Return(nil)
	suite.driver.On("ScanStart", mock.Anything).Return(nil)
}

func (suite *ScannerTestSuite) TestNewScanner_SubscribesToDriver() {
	suite.Equal(1, event.Subscribers[gap.AdvertisingReport](suite.driver.Events()))
	suite.Equal(1, event.Subscribers[gap.Timeout](suite.driver.Events()))
	suite.False(suite.scanner.IsScanning(), "new scanner MUST be idle")
	suite.Equal(gap.DefaultScanParameters(), suite.scanner.DefaultScanParams())
}

func (suite *ScannerTestSuite) TestStartScan_UsesDefaultParameters() {
	suite.expectStopAndStart()

	session, err := suite.scanner.StartScan(nil, true)

	suite.Require().NoError(err)
	suite.NotNil(session)
	suite.True(suite.scanner.IsScanning())
	suite.driver.AssertCalled(suite.T(), "ScanStart", gap.DefaultScanParameters())
}

func (suite *ScannerTestSuite) TestStartScan_UsesCallerParameters() {
	suite.expectStopAndStart()
	params := gap.ScanParameters{Interval: 100 * time.Millisecond, Window: 100 * time.Millisecond, Timeout: time.Second}

	_, err := suite.scanner.StartScan(&params, true)

	suite.Require().NoError(err)
	suite.driver.AssertCalled(suite.T(), "ScanStart", params)
}

func (suite *ScannerTestSuite) TestStartScan_RejectsInvalidParameters() {
	suite.driver.On("ScanStop").Return(nil)
	params := gap.ScanParameters{Interval: 100 * time.Millisecond, Window: 200 * time.Millisecond}

	session, err := suite.scanner.StartScan(&params, true)

	suite.ErrorIs(err, gap.ErrParameterRange)
	suite.Nil(session)
	suite.False(suite.scanner.IsScanning())
	suite.driver.AssertNotCalled(suite.T(), "ScanStart", mock.Anything)
}

func (suite *ScannerTestSuite) TestStartScan_PropagatesDriverError() {
	driverErr := errors.New("radio busy")
	suite.driver.On("ScanStop").Return(nil)
	suite.driver.On("ScanStart", mock.Anything).Return(driverErr)

	session, err := suite.scanner.StartScan(nil, true)

	suite.ErrorIs(err, driverErr, "driver start error MUST be propagated")
	suite.Nil(session)
	suite.False(suite.scanner.IsScanning(), "failed start MUST leave the scanner idle")
}

func (suite *ScannerTestSuite) TestStartScan_TwiceStopsInBetween() {
	suite.expectStopAndStart()

	_, err := suite.scanner.StartScan(nil, true)
	suite.Require().NoError(err)
	_, err = suite.scanner.StartScan(nil, true)
	suite.Require().NoError(err)

	suite.True(suite.scanner.IsScanning())
	suite.driver.AssertNumberOfCalls(suite.T(), "ScanStart", 2)
	suite.driver.AssertNumberOfCalls(suite.T(), "ScanStop", 2)

	var sequence []string
	for _, call := range suite.driver.Calls {
		sequence = append(sequence, call.Method)
	}
	suite.Equal([]string{"ScanStop", "ScanStart", "ScanStop", "ScanStart"}, sequence,
		"every start MUST be preceded by a stop")
}

func (suite *ScannerTestSuite) TestStartScan_ClearReports() {
	suite.expectStopAndStart()

	_, err := suite.scanner.StartScan(nil, true)
	suite.Require().NoError(err)
	suite.driver.EmitReport(testutils.CreateMockAdvertisement("A", "01:00:00:00:00:01", -50).Report())
	suite.Equal(1, suite.scanner.Reports().Len())

	_, err = suite.scanner.StartScan(nil, false)
	suite.Require().NoError(err)
	suite.Equal(1, suite.scanner.Reports().Len(), "reports MUST be kept when clearReports is false")

	_, err = suite.scanner.StartScan(nil, true)
	suite.Require().NoError(err)
	suite.Equal(0, suite.scanner.Reports().Len(), "reports MUST be cleared when clearReports is true")
}

func (suite *ScannerTestSuite) TestStop_WhenIdleSwallowsDriverError() {
	suite.driver.On("ScanStop").Return(errors.New("not scanning"))
	timeouts := 0
	suite.scanner.OnScanTimeout().Register(func(*gap.Scanner, *gap.ScanReportCollection) { timeouts++ })

	suite.NotPanics(func() { suite.scanner.Stop() })

	suite.False(suite.scanner.IsScanning())
	suite.Equal(0, timeouts, "stop MUST NOT emit a timeout event")
}

func (suite *ScannerTestSuite) TestStop_ResolvesSessionAsStopped() {
	suite.expectStopAndStart()
	session, err := suite.scanner.StartScan(nil, true)
	suite.Require().NoError(err)
	suite.driver.EmitReport(testutils.CreateMockAdvertisement("A", "01:00:00:00:00:01", -50).Report())

	suite.scanner.Stop()

	reports, err := session.Wait(context.Background())
	suite.ErrorIs(err, gap.ErrScanStopped, "stopped session MUST resolve with ErrScanStopped")
	suite.Require().NotNil(reports)
	suite.Equal(1, reports.Len())
	suite.False(suite.scanner.IsScanning())
}

func (suite *ScannerTestSuite) TestAdvertisingReport_EmitsMergedReport() {
	suite.expectStopAndStart()
	_, err := suite.scanner.StartScan(nil, true)
	suite.Require().NoError(err)

	var received []*gap.ScanReport
	suite.scanner.OnScanReceived().Register(func(s *gap.Scanner, r *gap.ScanReport) {
		suite.Same(suite.scanner, s)
		received = append(received, r)
	})

	suite.driver.EmitReport(testutils.NewAdvertisementBuilder().WithAddress("01:00:00:00:00:01").WithShortName("Th").Report())
	suite.driver.EmitReport(testutils.NewAdvertisementBuilder().WithAddress("01:00:00:00:00:01").WithName("Thermo").AsScanResponse().Report())

	suite.Require().Len(received, 2)
	suite.Equal("Th", received[0].LocalName())
	suite.Equal("Thermo", received[1].LocalName(), "second emission MUST carry the merged report")
	suite.Equal(1, suite.scanner.Reports().Len(), "same advertiser MUST produce one entry")
}

func (suite *ScannerTestSuite) TestTimeout_CompletesScan() {
	suite.expectStopAndStart()
	session, err := suite.scanner.StartScan(nil, true)
	suite.Require().NoError(err)
	suite.driver.EmitReport(testutils.CreateMockAdvertisement("A", "01:00:00:00:00:01", -50).Report())
	suite.driver.EmitReport(testutils.CreateMockAdvertisement("B", "01:00:00:00:00:02", -60).Report())

	var emitted []*gap.ScanReportCollection
	suite.scanner.OnScanTimeout().Register(func(_ *gap.Scanner, c *gap.ScanReportCollection) {
		emitted = append(emitted, c)
	})

	suite.True(suite.scanner.IsScanning())
	suite.driver.EmitTimeout(gap.TimeoutSourceScan)

	suite.False(suite.scanner.IsScanning(), "timeout MUST transition the scanner to idle")
	suite.Require().Len(emitted, 1, "timeout MUST be emitted exactly once")
	suite.Equal(2, emitted[0].Len())

	select {
	case <-session.Done():
	default:
		suite.Fail("session MUST resolve on timeout")
	}
	reports, err := session.Wait(context.Background())
	suite.NoError(err)
	suite.Same(emitted[0], reports)
}

func (suite *ScannerTestSuite) TestTimeout_IgnoresOtherSources() {
	suite.expectStopAndStart()
	session, err := suite.scanner.StartScan(nil, true)
	suite.Require().NoError(err)

	emitted := 0
	suite.scanner.OnScanTimeout().Register(func(*gap.Scanner, *gap.ScanReportCollection) { emitted++ })

	suite.driver.EmitTimeout(gap.TimeoutSourceConnection)
	suite.driver.EmitTimeout(gap.TimeoutSourceAdvertising)

	suite.True(suite.scanner.IsScanning())
	suite.Equal(0, emitted)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = session.Wait(ctx)
	suite.ErrorIs(err, context.DeadlineExceeded, "session MUST stay pending")
}

func (suite *ScannerTestSuite) TestSubscribersFanOutInOrder() {
	suite.expectStopAndStart()
	_, err := suite.scanner.StartScan(nil, true)
	suite.Require().NoError(err)

	var order []int
	for i := range 3 {
		suite.scanner.OnScanReceived().Register(func(*gap.Scanner, *gap.ScanReport) { order = append(order, i) })
	}

	suite.driver.EmitReport(testutils.NewAdvertisementBuilder().Report())

	suite.Equal([]int{0, 1, 2}, order)
}

func (suite *ScannerTestSuite) TestHandlerMayStopScan() {
	suite.expectStopAndStart()
	_, err := suite.scanner.StartScan(nil, true)
	suite.Require().NoError(err)

	suite.scanner.OnScanReceived().Register(func(s *gap.Scanner, _ *gap.ScanReport) { s.Stop() })

	suite.NotPanics(func() { suite.driver.EmitReport(testutils.NewAdvertisementBuilder().Report()) })
	suite.False(suite.scanner.IsScanning())
}

func (suite *ScannerTestSuite) TestSetDefaultScanParams() {
	err := suite.scanner.SetDefaultScanParams(500*time.Millisecond, 250*time.Millisecond, 0, false)
	suite.Require().NoError(err)
	suite.Equal(gap.ScanParameters{Interval: 500 * time.Millisecond, Window: 250 * time.Millisecond}, suite.scanner.DefaultScanParams())

	err = suite.scanner.SetDefaultScanParams(100*time.Millisecond, 250*time.Millisecond, 0, false)
	suite.ErrorIs(err, gap.ErrParameterRange)
	suite.Equal(500*time.Millisecond, suite.scanner.DefaultScanParams().Interval, "invalid defaults MUST NOT be stored")
}

func (suite *ScannerTestSuite) TestClose_DetachesFromDriver() {
	suite.driver.On("ScanStop").Return(nil)

	suite.scanner.Close()

	suite.Equal(0, event.Subscribers[gap.AdvertisingReport](suite.driver.Events()))
	suite.Equal(0, event.Subscribers[gap.Timeout](suite.driver.Events()))
}

func TestScannerTestSuite(t *testing.T) {
	suite.Run(t, new(ScannerTestSuite))
}
