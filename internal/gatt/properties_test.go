package gatt

import (
	"testing"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/assert"
)

func TestCharacteristicPropertiesRoundTrip(t *testing.T) {
	const mask = ble.CharBroadcast | ble.CharRead | ble.CharWriteNR | ble.CharWrite |
		ble.CharNotify | ble.CharIndicate | ble.CharSignedWrite

	for bits := 0; bits < 0x80; bits++ {
		p := ble.Property(bits)
		got := FromBLEProperty(p).BLEProperty()
		assert.Equal(t, p&mask, got, "properties 0x%02X MUST round trip", bits)
	}
}

func TestCharacteristicPropertiesDecode(t *testing.T) {
	props := FromBLEProperty(ble.CharRead | ble.CharNotify)

	assert.True(t, props.Read)
	assert.True(t, props.Notify)
	assert.False(t, props.Write)
	assert.False(t, props.Indicate)
	assert.False(t, props.Broadcast)
	assert.False(t, props.WriteWithoutResponse)
	assert.False(t, props.SignedWrite)
}

func TestCharacteristicPropertiesString(t *testing.T) {
	assert.Equal(t, "CharProps(r)", DefaultCharacteristicProperties().String())
	assert.Equal(t, "CharProps(r,w,n,i,b,wn,sw)", FromBLEProperty(0x7F).String())
	assert.Equal(t, "CharProps()", CharacteristicProperties{}.String())
}
