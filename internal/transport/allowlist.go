// internal/transport/allowlist.go
package transport

import "github.com/google/uuid"

var serviceUUIDs = []uuid.UUID{
	uuid.MustParse("00001101-0000-1000-8000-00805f9b34fb"), // serial port profile
	uuid.MustParse("000018f0-0000-1000-8000-00805f9b34fb"),
	uuid.MustParse("e7810a71-73ae-499d-8c15-faa9aef0c3f2"),
	uuid.MustParse("49535343-fe7d-4ae5-8fa9-9fafd205e455"),
	uuid.MustParse("0000ff00-0000-1000-8000-00805f9b34fb"),
	uuid.MustParse("0000ae30-0000-1000-8000-00805f9b34fb"),
}

var characteristicUUIDs = []uuid.UUID{
	uuid.MustParse("00002af1-0000-1000-8000-00805f9b34fb"),
	uuid.MustParse("bef8d6c9-9c21-4c9e-b632-bd58c1009f9f"),
	uuid.MustParse("49535343-8841-43f4-a8d4-ecbe34729bb3"),
	uuid.MustParse("0000ff02-0000-1000-8000-00805f9b34fb"),
	uuid.MustParse("0000ae01-0000-1000-8000-00805f9b34fb"),
}

// ServiceUUIDs is the allow-list used both when pairing and when resolving a
// connected device. The order is the lookup order.
func ServiceUUIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), serviceUUIDs...)
}

// CharacteristicUUIDs lists the write characteristics tried under each
// service, in order.
func CharacteristicUUIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), characteristicUUIDs...)
}

// IsAllowedService reports whether u is on the service allow-list
func IsAllowedService(u uuid.UUID) bool {
	for _, s := range serviceUUIDs {
		if s == u {
			return true
		}
	}
	return false
}
