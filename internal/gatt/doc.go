// Package gatt models a peer's GATT attribute table.
//
// A Database is built per connection and holds, in discovery order, the
// peer's Services; each Service owns its Characteristics and each
// Characteristic its Descriptors. Handles follow the Attribute Protocol:
// 16-bit values where 0 (InvalidHandle) means "not present".
package gatt
