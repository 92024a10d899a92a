// Package event provides typed publish/subscribe primitives.
//
// A Source is a named list of handlers for one kind of event. Handlers are
// invoked synchronously, on the publishing goroutine, in registration order.
// A Bus groups Sources by event type so that a producer (for example a radio
// driver) can publish several event types over a single registry.
package event

import (
	"reflect"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

// Handler receives an event emitted by sender.
type Handler[S, T any] func(sender S, args T)

type registration[S, T any] struct {
	id uint64
	fn Handler[S, T]
}

// Source is an ordered fan-out point for events of type T emitted by senders of type S.
type Source[S, T any] struct {
	name   string
	logger *logrus.Logger

	mu       sync.Mutex
	nextID   uint64
	handlers []registration[S, T]
}

// NewSource creates an empty event source. The name is used in log records only.
func NewSource[S, T any](name string, logger *logrus.Logger) *Source[S, T] {
	if logger == nil {
		logger = logrus.New()
	}
	return &Source[S, T]{name: name, logger: logger}
}

// Name returns the source name.
func (s *Source[S, T]) Name() string {
	return s.name
}

// Register appends a handler and returns a function that removes it again.
// Calling the returned function more than once is a no-op.
func (s *Source[S, T]) Register(h Handler[S, T]) (unregister func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, registration[S, T]{id: id, fn: h})

	var once sync.Once
	return func() {
		once.Do(func() { s.unregister(id) })
	}
}

func (s *Source[S, T]) unregister(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers = slices.DeleteFunc(s.handlers, func(r registration[S, T]) bool {
		return r.id == id
	})
}

// Len returns the number of registered handlers.
func (s *Source[S, T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Notify delivers args to every handler registered at the time of the call.
// Handlers may register or unregister from within a callback; the change takes
// effect on the next Notify.
func (s *Source[S, T]) Notify(sender S, args T) {
	s.mu.Lock()
	handlers := slices.Clone(s.handlers)
	s.mu.Unlock()

	for _, r := range handlers {
		s.invoke(r, sender, args)
	}
}

// invoke runs a single handler; a panicking handler is logged and skipped so
// the remaining subscribers still receive the event.
func (s *Source[S, T]) invoke(r registration[S, T], sender S, args T) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.WithFields(logrus.Fields{
				"event":   s.name,
				"handler": r.id,
				"panic":   rec,
			}).Error("Event handler panicked")
		}
	}()
	r.fn(sender, args)
}

// Bus is a registry of Sources keyed by event type.
type Bus struct {
	logger *logrus.Logger

	mu      sync.Mutex
	sources map[reflect.Type]any
}

// NewBus creates an empty event bus.
func NewBus(logger *logrus.Logger) *Bus {
	if logger == nil {
		logger = logrus.New()
	}
	return &Bus{
		logger:  logger,
		sources: make(map[reflect.Type]any),
	}
}

// Subscribe registers fn for events of type T published on b.
func Subscribe[T any](b *Bus, fn func(T)) (unsubscribe func()) {
	return sourceFor[T](b).Register(func(_ *Bus, ev T) {
		fn(ev)
	})
}

// Publish delivers ev to every subscriber of type T on b.
func Publish[T any](b *Bus, ev T) {
	sourceFor[T](b).Notify(b, ev)
}

// Subscribers returns the number of handlers subscribed to type T.
func Subscribers[T any](b *Bus) int {
	return sourceFor[T](b).Len()
}

func sourceFor[T any](b *Bus) *Source[*Bus, T] {
	key := reflect.TypeOf((*T)(nil)).Elem()

	b.mu.Lock()
	defer b.mu.Unlock()

	if src, ok := b.sources[key]; ok {
		return src.(*Source[*Bus, T])
	}
	src := NewSource[*Bus, T](key.String(), b.logger)
	b.sources[key] = src
	return src
}
