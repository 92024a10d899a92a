package gap

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrParameterRange is matched by every *ParameterRangeError.
	ErrParameterRange = errors.New("parameter out of range")

	// ErrScanStopped resolves a ScanSession that ended through Stop rather than a timeout.
	ErrScanStopped = errors.New("scan stopped")
)

// ParameterRangeError reports a scan parameter outside its permitted range.
type ParameterRangeError struct {
	Param string // "interval", "window" or "timeout"
	Value time.Duration
	Min   time.Duration
	Max   time.Duration
	Msg   string // set when the violated bound is relative to another parameter
}

func (e *ParameterRangeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("invalid scan %s %v: %s", e.Param, e.Value, e.Msg)
	}
	return fmt.Sprintf("invalid scan %s %v: must be within [%v, %v]", e.Param, e.Value, e.Min, e.Max)
}

// Is lets errors.Is match any ParameterRangeError against ErrParameterRange.
func (e *ParameterRangeError) Is(target error) bool {
	return target == ErrParameterRange
}
