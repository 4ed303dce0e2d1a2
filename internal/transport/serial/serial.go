// internal/transport/serial/serial.go
package serial

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/transport"
)

// Options configures the serial line
type Options struct {
	BaudRate int
	Parity   string // none, odd, even
	// Patterns select the ports RequestDevice and Discover consider, e.g.
	// /dev/rfcomm* for paired Bluetooth classic printers.
	Patterns []string
}

// Transport reaches printers bound to a serial device, including Bluetooth
// classic SPP printers exposed as /dev/rfcommN.
type Transport struct {
	opts   Options
	logger *zap.Logger
	ports  func() ([]string, error)
}

func New(opts Options, logger *zap.Logger) *Transport {
	if opts.BaudRate <= 0 {
		opts.BaudRate = 9600
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = []string{"/dev/rfcomm*", "/dev/ttyUSB*", "/dev/ttyACM*", "COM*"}
	}
	return &Transport{
		opts:   opts,
		logger: logger.With(zap.String("transport", "serial")),
		ports:  listPorts,
	}
}

func (t *Transport) Name() model.TransportKind {
	return model.TransportSerial
}

func (t *Transport) Available() error {
	return nil
}

// KnownDevice accepts a port that is listed by the OS or exists as a device
// node (rfcomm bindings are not always enumerated).
func (t *Transport) KnownDevice(ctx context.Context, id string) (transport.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ports, err := t.ports()
	if err == nil {
		for _, p := range ports {
			if p == id {
				return t.newDevice(id), nil
			}
		}
	}
	if _, statErr := os.Stat(id); statErr == nil {
		return t.newDevice(id), nil
	}
	return nil, fmt.Errorf("serial port %s: %w", id, transport.ErrNotFound)
}

// RequestDevice picks the first port matching the configured patterns
func (t *Transport) RequestDevice(ctx context.Context, services []uuid.UUID) (transport.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ports, err := t.candidates()
	if err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		return nil, transport.ErrNotFound
	}
	return t.newDevice(ports[0]), nil
}

func (t *Transport) Discover(ctx context.Context) ([]transport.DiscoveredPrinter, error) {
	ports, err := t.candidates()
	if err != nil {
		return nil, err
	}

	found := make([]transport.DiscoveredPrinter, 0, len(ports))
	for _, p := range ports {
		found = append(found, transport.DiscoveredPrinter{
			ID:        p,
			Name:      filepath.Base(p),
			Transport: model.TransportSerial,
		})
	}
	t.logger.Info("Serial scan completed", zap.Strings("ports", ports))
	return found, nil
}

func (t *Transport) candidates() ([]string, error) {
	ports, err := t.ports()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	var out []string
	for _, p := range ports {
		if t.matches(p) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (t *Transport) matches(port string) bool {
	for _, pattern := range t.opts.Patterns {
		if ok, _ := filepath.Match(pattern, port); ok {
			return true
		}
	}
	return false
}

func (t *Transport) newDevice(port string) transport.Device {
	return &transport.StreamDevice{
		DeviceID: port,
		Open: func(ctx context.Context) (io.Writer, func() error, error) {
			return t.open(port)
		},
	}
}

func (t *Transport) open(port string) (io.Writer, func() error, error) {
	mode := &serial.Mode{
		BaudRate: t.opts.BaudRate,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	switch strings.ToLower(t.opts.Parity) {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}

	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}

	t.logger.Info("Serial port opened", zap.String("port", port), zap.Int("baud_rate", t.opts.BaudRate))
	return p, p.Close, nil
}

// listPorts merges the OS enumeration with rfcomm nodes, which
// GetPortsList does not report on every platform.
func listPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	rfcomm, _ := filepath.Glob("/dev/rfcomm*")
	seen := make(map[string]bool, len(ports))
	for _, p := range ports {
		seen[p] = true
	}
	for _, p := range rfcomm {
		if !seen[p] {
			ports = append(ports, p)
		}
	}
	return ports, nil
}
