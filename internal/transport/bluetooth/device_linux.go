//go:build linux

// internal/transport/bluetooth/device_linux.go
package bluetooth

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

func openDevice(opts Options) (ble.Device, error) {
	dev, err := linux.NewDevice(
		ble.OptDeviceID(opts.HCIDevice),
		ble.OptDialerTimeout(opts.ConnectTimeout),
	)
	if err != nil {
		return nil, err
	}
	return dev, nil
}
