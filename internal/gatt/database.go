package gatt

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
)

// Database is the attribute table discovered from one peer. It is rebuilt
// for every connection.
type Database struct {
	Peer string

	logger   *logrus.Logger
	mu       sync.RWMutex
	services []*Service
	byHandle *hashmap.Map[uint16, *Characteristic]
}

// NewDatabase creates an empty database for the given peer address.
func NewDatabase(peer string, logger *logrus.Logger) *Database {
	if logger == nil {
		logger = logrus.New()
	}
	return &Database{
		Peer:     strings.ToLower(peer),
		logger:   logger,
		byHandle: hashmap.New[uint16, *Characteristic](),
	}
}

// AddService attaches svc to the database and indexes its characteristics.
func (db *Database) AddService(svc *Service) *Service {
	db.mu.Lock()
	svc.db = db
	db.services = append(db.services, svc)
	db.mu.Unlock()

	for _, c := range svc.characteristics {
		db.indexCharacteristic(c)
	}

	db.logger.WithFields(logrus.Fields{
		"peer":    db.Peer,
		"service": svc.UUID.String(),
		"start":   svc.StartHandle.String(),
		"end":     svc.EndHandle.String(),
	}).Debug("GATT service added")
	return svc
}

// Services returns the services in discovery order.
func (db *Database) Services() []*Service {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]*Service(nil), db.services...)
}

// FindService returns the first service with the given UUID.
func (db *Database) FindService(uuid ble.UUID) (*Service, error) {
	for _, s := range db.Services() {
		if s.UUID.Equal(uuid) {
			return s, nil
		}
	}
	return nil, &NotFoundError{Resource: "service", Key: uuid.String()}
}

// FindCharacteristic returns the first characteristic with the given UUID
// across all services.
func (db *Database) FindCharacteristic(uuid ble.UUID) (*Characteristic, error) {
	for _, s := range db.Services() {
		if c, err := s.FindCharacteristic(uuid); err == nil {
			return c, nil
		}
	}
	return nil, &NotFoundError{Resource: "characteristic", Key: uuid.String()}
}

// CharacteristicByHandle returns the characteristic owning the declaration,
// value, or descriptor attribute at h.
func (db *Database) CharacteristicByHandle(h Handle) (*Characteristic, error) {
	if c, ok := db.byHandle.Get(uint16(h)); ok {
		return c, nil
	}
	return nil, &NotFoundError{Resource: "characteristic", Key: h.String()}
}

// ServiceForHandle returns the service whose handle range contains h.
func (db *Database) ServiceForHandle(h Handle) (*Service, error) {
	for _, s := range db.Services() {
		if s.ContainsHandle(h) {
			return s, nil
		}
	}
	return nil, &NotFoundError{Resource: "service", Key: h.String()}
}

// Reset drops all services, e.g. after the peer disconnects.
func (db *Database) Reset() {
	db.mu.Lock()
	for _, s := range db.services {
		s.db = nil
	}
	db.services = nil
	db.byHandle = hashmap.New[uint16, *Characteristic]()
	db.mu.Unlock()
}

func (db *Database) indexCharacteristic(c *Characteristic) {
	db.indexHandle(c.DeclarationHandle, c)
	db.indexHandle(c.ValueHandle, c)
	for _, d := range c.descriptors {
		db.indexHandle(d.Handle, c)
	}
}

func (db *Database) indexHandle(h Handle, c *Characteristic) {
	if !h.Valid() {
		return
	}
	db.mu.RLock()
	idx := db.byHandle
	db.mu.RUnlock()
	idx.Set(uint16(h), c)
}

func (db *Database) String() string {
	services := db.Services()
	lines := make([]string, len(services))
	for i, s := range services {
		lines[i] = s.String()
	}
	return fmt.Sprintf("Database(peer: %s, services: [\n  %s\n])", db.Peer, strings.Join(lines, "\n  "))
}
