package gap

import (
	"fmt"
	"time"
)

// Scan parameter bounds. Interval and window are programmed in 0.625ms radio
// units (0x0004-0x4000), the timeout in 10ms units (0x0001-0xFFFF).
const (
	MinScanInterval = 2500 * time.Microsecond
	MaxScanInterval = 10240 * time.Millisecond
	MinScanWindow   = 2500 * time.Microsecond
	MaxScanWindow   = 10240 * time.Millisecond
	MinScanTimeout  = 10 * time.Millisecond
	MaxScanTimeout  = 655350 * time.Millisecond

	DefaultScanInterval = 200 * time.Millisecond
	DefaultScanWindow   = 150 * time.Millisecond
	DefaultScanTimeout  = 10 * time.Second

	scanIntervalUnit = 625 * time.Microsecond
	scanTimeoutUnit  = 10 * time.Millisecond
)

// ScanParameters configures a scan session.
// A zero Timeout scans until stopped.
type ScanParameters struct {
	Interval time.Duration
	Window   time.Duration
	Timeout  time.Duration
	Active   bool // request scan responses from advertisers
}

// DefaultScanParameters returns interval 200ms, window 150ms, timeout 10s, active scanning.
func DefaultScanParameters() ScanParameters {
	return ScanParameters{
		Interval: DefaultScanInterval,
		Window:   DefaultScanWindow,
		Timeout:  DefaultScanTimeout,
		Active:   true,
	}
}

// NewScanParameters builds validated scan parameters.
func NewScanParameters(interval, window, timeout time.Duration, active bool) (ScanParameters, error) {
	if err := validateScanParams(window, interval, timeout); err != nil {
		return ScanParameters{}, err
	}
	return ScanParameters{Interval: interval, Window: window, Timeout: timeout, Active: active}, nil
}

// Validate checks the stored values against the permitted ranges.
func (p ScanParameters) Validate() error {
	return validateScanParams(p.Window, p.Interval, p.Timeout)
}

// Update replaces all parameters. The new values are validated first; on
// error p is left unchanged.
func (p *ScanParameters) Update(window, interval, timeout time.Duration, active bool) error {
	if err := validateScanParams(window, interval, timeout); err != nil {
		return err
	}
	p.Window = window
	p.Interval = interval
	p.Timeout = timeout
	p.Active = active
	return nil
}

// IntervalUnits returns the interval in 0.625ms radio units.
func (p ScanParameters) IntervalUnits() uint16 {
	return toUnits(p.Interval, scanIntervalUnit)
}

// WindowUnits returns the window in 0.625ms radio units.
func (p ScanParameters) WindowUnits() uint16 {
	return toUnits(p.Window, scanIntervalUnit)
}

// TimeoutUnits returns the timeout in 10ms units, 0 meaning no timeout.
func (p ScanParameters) TimeoutUnits() uint16 {
	return toUnits(p.Timeout, scanTimeoutUnit)
}

func (p ScanParameters) String() string {
	return fmt.Sprintf("ScanParameters(interval: %v, window: %v, timeout: %v, active: %t)",
		p.Interval, p.Window, p.Timeout, p.Active)
}

func toUnits(d, unit time.Duration) uint16 {
	return uint16((d + unit/2) / unit)
}

func validateScanParams(window, interval, timeout time.Duration) error {
	if err := checkRange("window", window, MinScanWindow, MaxScanWindow); err != nil {
		return err
	}
	if err := checkRange("interval", interval, MinScanInterval, MaxScanInterval); err != nil {
		return err
	}
	if timeout != 0 {
		if err := checkRange("timeout", timeout, MinScanTimeout, MaxScanTimeout); err != nil {
			return err
		}
	}
	if window > interval {
		return &ParameterRangeError{
			Param: "window",
			Value: window,
			Min:   MinScanWindow,
			Max:   interval,
			Msg:   fmt.Sprintf("window cannot be greater than the interval (%v)", interval),
		}
	}
	return nil
}

func checkRange(param string, v, lo, hi time.Duration) error {
	if v < lo || v > hi {
		return &ParameterRangeError{Param: param, Value: v, Min: lo, Max: hi}
	}
	return nil
}
