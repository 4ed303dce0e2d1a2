// internal/transport/transport.go
package transport

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"printer-service/internal/model"
)

var (
	// ErrUnavailable means the host cannot use this transport at all
	ErrUnavailable = errors.New("transport unavailable on this host")
	// ErrNotFound means no device matched the request
	ErrNotFound = errors.New("device not found")
	// ErrNoCharacteristic means the link has no such service/characteristic pair
	ErrNoCharacteristic = errors.New("characteristic not found")
	// ErrClosed is returned by writes on a link that has gone away
	ErrClosed = errors.New("link closed")
)

// Transport reaches printers over one kind of link
type Transport interface {
	Name() model.TransportKind

	// Available reports ErrUnavailable (possibly wrapped) when the host has
	// no support for this transport.
	Available() error

	// KnownDevice looks up a previously paired device by its identifier.
	KnownDevice(ctx context.Context, id string) (Device, error)

	// RequestDevice picks a new device advertising one of services.
	RequestDevice(ctx context.Context, services []uuid.UUID) (Device, error)
}

// Device is a printer handle that can be connected
type Device interface {
	ID() string
	Name() string
	Connect(ctx context.Context) (Link, error)
}

// Link is an open connection to a device
type Link interface {
	// Characteristic resolves a writable characteristic of service.
	Characteristic(ctx context.Context, service, characteristic uuid.UUID) (Characteristic, error)

	// Disconnected is closed once the link is gone, whichever side dropped it.
	Disconnected() <-chan struct{}

	Disconnect() error
}

// Characteristic is the write channel receipts are streamed through
type Characteristic interface {
	Write(ctx context.Context, data []byte) error
}

// Discoverer is implemented by transports that can list nearby printers
type Discoverer interface {
	Transport
	Discover(ctx context.Context) ([]DiscoveredPrinter, error)
}

// DiscoveredPrinter is a printer found by a scan
type DiscoveredPrinter struct {
	ID         string              `json:"id"`
	Name       string              `json:"name,omitempty"`
	Transport  model.TransportKind `json:"transport"`
	Vendor     string              `json:"vendor,omitempty"`
	CommandSet string              `json:"command_set,omitempty"`
	RSSI       *int                `json:"rssi,omitempty"`
	Services   []string            `json:"services,omitempty"`
}
