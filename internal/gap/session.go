package gap

import (
	"context"
	"sync"
)

// ScanSession is returned by StartScan and resolves exactly once: with the
// accumulated reports when the scan times out, or with ErrScanStopped (and the
// reports collected so far) when the scan is stopped first.
type ScanSession struct {
	done chan struct{}
	once sync.Once

	reports *ScanReportCollection
	err     error
}

func newScanSession() *ScanSession {
	return &ScanSession{done: make(chan struct{})}
}

func (s *ScanSession) resolve(reports *ScanReportCollection, err error) {
	s.once.Do(func() {
		s.reports = reports
		s.err = err
		close(s.done)
	})
}

// Done is closed once the session has resolved.
func (s *ScanSession) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session resolves or ctx is done.
func (s *ScanSession) Wait(ctx context.Context) (*ScanReportCollection, error) {
	select {
	case <-s.done:
		return s.reports, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
