package testutils

import "github.com/go-ble/ble"

// HeartRateProfile returns a two-service profile: Heart Rate with a
// notifying measurement and a readable sensor location, and Battery with an
// indicating level.
func HeartRateProfile() *ble.Profile {
	hrmCCCD := &ble.Descriptor{UUID: ble.UUID16(0x2902), Handle: 0x0013}
	batCCCD := &ble.Descriptor{UUID: ble.UUID16(0x2902), Handle: 0x0023}

	return &ble.Profile{Services: []*ble.Service{
		{
			UUID:      ble.UUID16(0x180D),
			Handle:    0x0010,
			EndHandle: 0x0015,
			Characteristics: []*ble.Characteristic{
				{
					UUID:        ble.UUID16(0x2A37),
					Property:    ble.CharNotify,
					Handle:      0x0011,
					ValueHandle: 0x0012,
					Descriptors: []*ble.Descriptor{hrmCCCD},
					CCCD:        hrmCCCD,
				},
				{
					UUID:        ble.UUID16(0x2A38),
					Property:    ble.CharRead,
					Handle:      0x0014,
					ValueHandle: 0x0015,
				},
			},
		},
		{
			UUID:      ble.UUID16(0x180F),
			Handle:    0x0020,
			EndHandle: 0x0023,
			Characteristics: []*ble.Characteristic{
				{
					UUID:        ble.UUID16(0x2A19),
					Property:    ble.CharRead | ble.CharIndicate,
					Handle:      0x0021,
					ValueHandle: 0x0022,
					Descriptors: []*ble.Descriptor{batCCCD},
					CCCD:        batCCCD,
				},
			},
		},
	}}
}
