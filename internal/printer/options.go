// internal/printer/options.go
package printer

import (
	"time"

	"printer-service/internal/model"
	"printer-service/internal/receipt"
)

// Options control how a receipt is paced onto the link
type Options struct {
	// ChunkSize caps a single write; BLE characteristics commonly accept 20.
	ChunkSize int
	// WriteDelay is the pause after every write. Printers drop bytes when
	// writes arrive back to back.
	WriteDelay   time.Duration
	WriteTimeout time.Duration
	// Encoding is used unless the printer config names a code page.
	Encoding receipt.Encoding
	Clock    func() time.Time
}

// DefaultOptions are safe for BLE printers
func DefaultOptions() Options {
	return Options{
		ChunkSize:    20,
		WriteDelay:   10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		Encoding:     receipt.UTF8,
		Clock:        time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.WriteDelay <= 0 {
		o.WriteDelay = d.WriteDelay
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = d.WriteTimeout
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}

// Listener is told when a session gains or loses its link. Calls are made
// without session locks held.
type Listener interface {
	PrinterConnected(printer model.BluetoothPrinter)
	PrinterDisconnected(printer model.BluetoothPrinter, reason error)
}

type nopListener struct{}

func (nopListener) PrinterConnected(model.BluetoothPrinter)           {}
func (nopListener) PrinterDisconnected(model.BluetoothPrinter, error) {}
