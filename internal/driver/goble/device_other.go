//go:build !linux && !darwin

package goble

import "github.com/srg/blegap/internal/gap"

func newDevice(_ gap.ScanParameters) (Device, error) {
	return nil, ErrUnsupportedPlatform
}
