package gatt

import (
	"fmt"
	"strings"

	"github.com/go-ble/ble"
)

// Service is a service in a peer's attribute table.
type Service struct {
	UUID        ble.UUID
	Type        ServiceType
	StartHandle Handle
	EndHandle   Handle

	db              *Database
	characteristics []*Characteristic
}

// NewService creates a service record. When only a valid start handle is
// given, the end handle equals the start handle.
func NewService(uuid ble.UUID, typ ServiceType, start, end Handle) *Service {
	if start.Valid() && !end.Valid() {
		end = start
	}
	return &Service{
		UUID:        uuid,
		Type:        typ,
		StartHandle: start,
		EndHandle:   end,
	}
}

// Database returns the database the service is attached to, nil if none.
func (s *Service) Database() *Database {
	return s.db
}

// Characteristics returns the characteristics of s in discovery order.
func (s *Service) Characteristics() []*Characteristic {
	return append([]*Characteristic(nil), s.characteristics...)
}

// AddCharacteristic appends a characteristic owned by s.
func (s *Service) AddCharacteristic(uuid ble.UUID, props CharacteristicProperties, declaration, value Handle) *Characteristic {
	c := &Characteristic{
		UUID:              uuid,
		Properties:        props,
		DeclarationHandle: declaration,
		ValueHandle:       value,
		service:           s,
	}
	s.characteristics = append(s.characteristics, c)
	if s.db != nil {
		s.db.indexCharacteristic(c)
	}
	return c
}

// FindCharacteristic returns the first characteristic of s with the given UUID.
func (s *Service) FindCharacteristic(uuid ble.UUID) (*Characteristic, error) {
	for _, c := range s.characteristics {
		if c.UUID.Equal(uuid) {
			return c, nil
		}
	}
	return nil, &NotFoundError{Resource: "characteristic", Key: uuid.String()}
}

// ContainsHandle reports whether h lies within the service's handle range.
func (s *Service) ContainsHandle(h Handle) bool {
	return s.StartHandle.Valid() && h.Valid() && h >= s.StartHandle && h <= s.EndHandle
}

func (s *Service) String() string {
	chars := make([]string, len(s.characteristics))
	for i, c := range s.characteristics {
		chars[i] = c.String()
	}
	return fmt.Sprintf("Service(%s, characteristics: [%s])", s.UUID, strings.Join(chars, "\n    "))
}
