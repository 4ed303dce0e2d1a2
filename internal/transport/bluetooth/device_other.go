//go:build !linux

// internal/transport/bluetooth/device_other.go
package bluetooth

import (
	"errors"

	"github.com/go-ble/ble"
)

func openDevice(opts Options) (ble.Device, error) {
	return nil, errors.New("bluetooth printing requires a linux HCI adapter")
}
