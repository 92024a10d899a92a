package gatt

import (
	"errors"
	"fmt"
	"strings"
)

// Handle is a 16-bit index into the peer's attribute table.
type Handle uint16

// InvalidHandle marks an attribute that has not been discovered.
const InvalidHandle Handle = 0x0000

// Valid reports whether h refers to an attribute.
func (h Handle) Valid() bool {
	return h != InvalidHandle
}

func (h Handle) String() string {
	return fmt.Sprintf("0x%04X", uint16(h))
}

// ServiceType distinguishes primary from secondary services.
type ServiceType int

const (
	ServicePrimary ServiceType = iota + 1
	ServiceSecondary
)

func (t ServiceType) String() string {
	switch t {
	case ServicePrimary:
		return "primary"
	case ServiceSecondary:
		return "secondary"
	default:
		return fmt.Sprintf("ServiceType(%d)", int(t))
	}
}

// SecurityLevel is the security required to access an attribute.
type SecurityLevel int

const (
	SecurityNoAccess SecurityLevel = iota
	SecurityOpen
	SecurityJustWorks
	SecurityMITM
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityNoAccess:
		return "no_access"
	case SecurityOpen:
		return "open"
	case SecurityJustWorks:
		return "just_works"
	case SecurityMITM:
		return "mitm"
	default:
		return fmt.Sprintf("SecurityLevel(%d)", int(l))
	}
}

// SubscriptionState is the notify/indicate state of a characteristic's CCCD.
type SubscriptionState int

const (
	NotSubscribed SubscriptionState = iota
	SubscribedNotify
	SubscribedIndication
)

// CCCD values as written to the Client Characteristic Configuration Descriptor.
const (
	CCCDDisabled   uint16 = 0x0000
	CCCDNotify     uint16 = 0x0001
	CCCDIndication uint16 = 0x0002
)

func (s SubscriptionState) String() string {
	switch s {
	case NotSubscribed:
		return "not_subscribed"
	case SubscribedNotify:
		return "notify"
	case SubscribedIndication:
		return "indication"
	default:
		return fmt.Sprintf("SubscriptionState(%d)", int(s))
	}
}

// CCCDValue returns the CCCD wire value for s.
func (s SubscriptionState) CCCDValue() uint16 {
	switch s {
	case SubscribedNotify:
		return CCCDNotify
	case SubscribedIndication:
		return CCCDIndication
	default:
		return CCCDDisabled
	}
}

// SubscriptionStateFromCCCD decodes a CCCD value. Only one of notify and
// indicate can be active on a client subscription, so a value with both
// bits set is rejected.
func SubscriptionStateFromCCCD(v uint16) (SubscriptionState, error) {
	switch v {
	case CCCDDisabled:
		return NotSubscribed, nil
	case CCCDNotify:
		return SubscribedNotify, nil
	case CCCDIndication:
		return SubscribedIndication, nil
	default:
		return NotSubscribed, fmt.Errorf("%w: CCCD value 0x%04X", ErrInvalidSubscription, v)
	}
}

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSubscription is returned for a subscription the characteristic cannot hold.
	ErrInvalidSubscription = errors.New("invalid subscription")
)

// NotFoundError represents a lookup for an attribute that is not in the database.
type NotFoundError struct {
	Resource string // "service", "characteristic"
	Key      string // UUID or handle
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, strings.ToLower(e.Key))
}

// Is allows errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
