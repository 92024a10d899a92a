package gatt

import (
	"fmt"

	"github.com/go-ble/ble"
)

// Characteristic is a characteristic of a Service.
type Characteristic struct {
	UUID              ble.UUID
	Properties        CharacteristicProperties
	DeclarationHandle Handle
	ValueHandle       Handle
	CCCDHandle        Handle

	service      *Service
	descriptors  []*Descriptor
	subscription SubscriptionState
}

// Service returns the service that owns c.
func (c *Characteristic) Service() *Service {
	return c.service
}

// Descriptors returns the descriptors of c in discovery order.
func (c *Characteristic) Descriptors() []*Descriptor {
	return append([]*Descriptor(nil), c.descriptors...)
}

// AddDescriptor appends a descriptor. A Client Characteristic Configuration
// descriptor also sets CCCDHandle.
func (c *Characteristic) AddDescriptor(uuid ble.UUID, handle Handle) *Descriptor {
	d := &Descriptor{UUID: uuid, Handle: handle}
	c.descriptors = append(c.descriptors, d)

	if uuid.Equal(DescriptorClientCharConfig.UUID()) {
		c.CCCDHandle = handle
	}
	if c.service != nil && c.service.db != nil {
		c.service.db.indexHandle(handle, c)
	}
	return d
}

// Subscription returns the current notify/indicate state.
func (c *Characteristic) Subscription() SubscriptionState {
	return c.subscription
}

// SetSubscription records a change of the CCCD state. The characteristic must
// support the requested mode.
func (c *Characteristic) SetSubscription(state SubscriptionState) error {
	switch state {
	case NotSubscribed:
	case SubscribedNotify:
		if !c.Properties.Notify {
			return fmt.Errorf("%w: characteristic %s does not support notifications", ErrInvalidSubscription, c.UUID)
		}
	case SubscribedIndication:
		if !c.Properties.Indicate {
			return fmt.Errorf("%w: characteristic %s does not support indications", ErrInvalidSubscription, c.UUID)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidSubscription, state)
	}
	c.subscription = state
	return nil
}

// SetSubscriptionFromCCCD records the state encoded by a CCCD value.
func (c *Characteristic) SetSubscriptionFromCCCD(v uint16) error {
	state, err := SubscriptionStateFromCCCD(v)
	if err != nil {
		return err
	}
	return c.SetSubscription(state)
}

func (c *Characteristic) String() string {
	return fmt.Sprintf("Characteristic(%s, %s)", c.UUID, c.Properties)
}
