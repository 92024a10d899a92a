package gatt

import (
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
)

// NewDatabaseFromProfile builds a database from a profile discovered by
// go-ble, keeping the discovery order and handles.
func NewDatabaseFromProfile(peer string, p *ble.Profile, logger *logrus.Logger) *Database {
	db := NewDatabase(peer, logger)
	if p == nil {
		return db
	}

	for _, s := range p.Services {
		svc := db.AddService(NewService(s.UUID, ServicePrimary, Handle(s.Handle), Handle(s.EndHandle)))
		for _, c := range s.Characteristics {
			char := svc.AddCharacteristic(c.UUID, FromBLEProperty(c.Property), Handle(c.Handle), Handle(c.ValueHandle))
			for _, d := range c.Descriptors {
				char.AddDescriptor(d.UUID, Handle(d.Handle))
			}
			if c.CCCD != nil && !char.CCCDHandle.Valid() {
				char.AddDescriptor(c.CCCD.UUID, Handle(c.CCCD.Handle))
			}
		}
	}

	db.logger.WithFields(logrus.Fields{
		"peer":     db.Peer,
		"services": len(p.Services),
	}).Debug("GATT database populated from profile")
	return db
}
