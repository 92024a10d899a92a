package gap

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blegap/internal/event"
)

// Scanner runs scan sessions on a Driver and aggregates the advertising reports
// it receives.
type Scanner struct {
	driver Driver
	logger *logrus.Logger

	mu         sync.Mutex
	defaults   ScanParameters
	isScanning bool
	reports    *ScanReportCollection
	session    *ScanSession

	onScanReceived *event.Source[*Scanner, *ScanReport]
	onScanTimeout  *event.Source[*Scanner, *ScanReportCollection]

	unsubscribe []func()
}

// NewScanner creates a Scanner and subscribes it to the driver's events.
func NewScanner(driver Driver, logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}

	s := &Scanner{
		driver:         driver,
		logger:         logger,
		defaults:       DefaultScanParameters(),
		reports:        NewScanReportCollection(),
		onScanReceived: event.NewSource[*Scanner, *ScanReport]("On Scan Received", logger),
		onScanTimeout:  event.NewSource[*Scanner, *ScanReportCollection]("On Scan Timeout", logger),
	}
	s.unsubscribe = []func(){
		event.Subscribe(driver.Events(), s.onAdvertisingReport),
		event.Subscribe(driver.Events(), s.onTimeout),
	}
	return s
}

// OnScanReceived fires for every advertising report with the merged report of its advertiser.
func (s *Scanner) OnScanReceived() *event.Source[*Scanner, *ScanReport] {
	return s.onScanReceived
}

// OnScanTimeout fires when a scan times out, with every report collected.
func (s *Scanner) OnScanTimeout() *event.Source[*Scanner, *ScanReportCollection] {
	return s.onScanTimeout
}

// IsScanning reports whether a scan session is active.
func (s *Scanner) IsScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isScanning
}

// Reports returns the current report collection.
func (s *Scanner) Reports() *ScanReportCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports
}

// DefaultScanParams returns the parameters used when StartScan is given none.
func (s *Scanner) DefaultScanParams() ScanParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults
}

// SetDefaultScanParams validates and stores the default scan parameters.
func (s *Scanner) SetDefaultScanParams(interval, window, timeout time.Duration, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults.Update(window, interval, timeout, active)
}

// StartScan stops any running scan and starts a new one. When params is nil
// the defaults are used. When clearReports is set the reports of previous
// scans are discarded first.
func (s *Scanner) StartScan(params *ScanParameters, clearReports bool) (*ScanSession, error) {
	s.Stop()

	s.mu.Lock()
	p := s.defaults
	if params != nil {
		if err := params.Validate(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		p = *params
	}
	if clearReports {
		s.reports = NewScanReportCollection()
	}
	session := newScanSession()
	s.session = session
	s.isScanning = true
	s.mu.Unlock()

	if err := s.driver.ScanStart(p); err != nil {
		s.mu.Lock()
		if s.session == session {
			s.session = nil
			s.isScanning = false
		}
		s.mu.Unlock()
		session.resolve(nil, err)
		return nil, fmt.Errorf("failed to start scan: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"interval": p.Interval,
		"window":   p.Window,
		"timeout":  p.Timeout,
		"active":   p.Active,
	}).Info("Starting BLE scan...")
	return session, nil
}

// Stop marks the scanner idle and asks the driver to stop scanning. Driver
// errors are ignored; stopping a scan that is not running is not an error.
// An outstanding ScanSession resolves with ErrScanStopped.
func (s *Scanner) Stop() {
	s.mu.Lock()
	wasScanning := s.isScanning
	session := s.session
	reports := s.reports
	s.isScanning = false
	s.session = nil
	s.mu.Unlock()

	if err := s.driver.ScanStop(); err != nil {
		s.logger.WithError(err).Debug("Ignoring driver error while stopping scan")
	}

	if session != nil {
		session.resolve(reports, ErrScanStopped)
	}
	if wasScanning {
		s.logger.WithField("device_count", reports.Len()).Info("BLE scan stopped")
	}
}

// Close stops any running scan and detaches the scanner from the driver.
func (s *Scanner) Close() {
	s.Stop()
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
}

func (s *Scanner) onAdvertisingReport(r AdvertisingReport) {
	s.mu.Lock()
	reports := s.reports
	s.mu.Unlock()

	report, err := reports.Update(r)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"address": report.Address,
			"error":   err,
		}).Warn("Failed to parse advertising data")
	}

	s.logger.WithFields(logrus.Fields{
		"address": report.Address,
		"name":    report.LocalName(),
		"rssi":    r.RSSI,
		"peers":   reports.Len(),
	}).Debug("Received advertising report")

	s.onScanReceived.Notify(s, report)
}

func (s *Scanner) onTimeout(ev Timeout) {
	if ev.Source != TimeoutSourceScan {
		return
	}

	s.mu.Lock()
	s.isScanning = false
	session := s.session
	s.session = nil
	reports := s.reports
	s.mu.Unlock()

	s.logger.WithField("device_count", reports.Len()).Info("BLE scan completed")

	s.onScanTimeout.Notify(s, reports)
	if session != nil {
		session.resolve(reports, nil)
	}
}
