// Package ringchan provides a bounded channel that never blocks producers.
package ringchan

import (
	"sync"
	"sync/atomic"
)

// RingChannel is a bounded buffer with overwrite-oldest semantics. Producers
// never block: when the buffer is full the oldest value is discarded.
// Consumers range over C() like a normal channel.
//
//	rc := ringchan.New[*gap.ScanReport](64)
//	scanner.OnScanReceived().Register(func(_ *gap.Scanner, r *gap.ScanReport) {
//	    rc.Send(r)
//	})
//	for r := range rc.C() {
//	    fmt.Println(r)
//	}
type RingChannel[T any] struct {
	ch     chan T
	mu     sync.RWMutex
	closed bool

	metrics Metrics
}

// Metrics counts traffic through a RingChannel.
type Metrics struct {
	Written  int64
	Dropped  int64
	Received int64
}

// New creates a RingChannel holding at most capacity values.
func New[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &RingChannel[T]{ch: make(chan T, capacity)}
}

// C returns the receive side. Reads through C are not counted in Received.
func (rc *RingChannel[T]) C() <-chan T {
	return rc.ch
}

// Send enqueues v, discarding the oldest value if the buffer is full. It
// reports whether a value was dropped. Send on a closed RingChannel is a
// no-op.
func (rc *RingChannel[T]) Send(v T) (dropped bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.closed {
		return false
	}

	for {
		select {
		case rc.ch <- v:
			atomic.AddInt64(&rc.metrics.Written, 1)
			return dropped
		default:
		}

		select {
		case <-rc.ch:
			atomic.AddInt64(&rc.metrics.Dropped, 1)
			dropped = true
		default:
			// a consumer freed a slot in the meantime
		}
	}
}

// Receive blocks until a value is available. ok is false once the channel
// is closed and drained.
func (rc *RingChannel[T]) Receive() (v T, ok bool) {
	v, ok = <-rc.ch
	if ok {
		atomic.AddInt64(&rc.metrics.Received, 1)
	}
	return v, ok
}

// TryReceive returns immediately with ok=false when nothing is buffered.
func (rc *RingChannel[T]) TryReceive() (v T, ok bool) {
	select {
	case v, ok = <-rc.ch:
		if ok {
			atomic.AddInt64(&rc.metrics.Received, 1)
		}
		return v, ok
	default:
		return v, false
	}
}

// Len returns the number of buffered values.
func (rc *RingChannel[T]) Len() int {
	return len(rc.ch)
}

// Cap returns the capacity.
func (rc *RingChannel[T]) Cap() int {
	return cap(rc.ch)
}

// Close closes the receive side once buffered values are drained. It is
// safe to call more than once.
func (rc *RingChannel[T]) Close() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if !rc.closed {
		rc.closed = true
		close(rc.ch)
	}
}

// Metrics returns a snapshot of the counters.
func (rc *RingChannel[T]) Metrics() Metrics {
	return Metrics{
		Written:  atomic.LoadInt64(&rc.metrics.Written),
		Dropped:  atomic.LoadInt64(&rc.metrics.Dropped),
		Received: atomic.LoadInt64(&rc.metrics.Received),
	}
}
