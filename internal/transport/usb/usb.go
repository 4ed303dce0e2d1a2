// internal/transport/usb/usb.go
package usb

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/google/gousb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/transport"
)

// Transport writes to the bulk OUT endpoint of USB printers. Devices are
// identified as "vvvv:pppp" (hex vendor and product id).
type Transport struct {
	logger *zap.Logger

	mu      sync.Mutex
	ctx     *gousb.Context
	initErr error

	enumerate func() ([]gousb.DeviceDesc, error)
}

func New(logger *zap.Logger) *Transport {
	t := &Transport{logger: logger.With(zap.String("transport", "usb"))}
	t.enumerate = t.listDevices
	return t
}

func (t *Transport) Name() model.TransportKind {
	return model.TransportUSB
}

func (t *Transport) Available() error {
	_, err := t.context()
	return err
}

// context opens libusb once. gousb panics when libusb cannot initialise.
func (t *Transport) context() (c *gousb.Context, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctx != nil {
		return t.ctx, nil
	}
	if t.initErr != nil {
		return nil, t.initErr
	}

	defer func() {
		if r := recover(); r != nil {
			t.initErr = fmt.Errorf("libusb: %v: %w", r, transport.ErrUnavailable)
			c, err = nil, t.initErr
		}
	}()

	t.ctx = gousb.NewContext()
	return t.ctx, nil
}

// Close releases libusb
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctx == nil {
		return nil
	}
	err := t.ctx.Close()
	t.ctx = nil
	return err
}

func (t *Transport) KnownDevice(ctx context.Context, id string) (transport.Device, error) {
	vid, pid, err := ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, transport.ErrNotFound)
	}

	descs, err := t.enumerate()
	if err != nil {
		return nil, err
	}
	for _, d := range descs {
		if d.Vendor == vid && d.Product == pid {
			return t.newDevice(d), nil
		}
	}
	return nil, fmt.Errorf("usb device %s: %w", id, transport.ErrNotFound)
}

// RequestDevice picks the first attached printer
func (t *Transport) RequestDevice(ctx context.Context, services []uuid.UUID) (transport.Device, error) {
	descs, err := t.enumerate()
	if err != nil {
		return nil, err
	}
	for _, d := range descs {
		if isPrinter(d) {
			return t.newDevice(d), nil
		}
	}
	return nil, transport.ErrNotFound
}

func (t *Transport) Discover(ctx context.Context) ([]transport.DiscoveredPrinter, error) {
	descs, err := t.enumerate()
	if err != nil {
		return nil, err
	}

	var found []transport.DiscoveredPrinter
	for _, d := range descs {
		if !isPrinter(d) {
			continue
		}
		p := transport.DiscoveredPrinter{
			ID:        FormatID(d.Vendor, d.Product),
			Name:      FormatID(d.Vendor, d.Product),
			Transport: model.TransportUSB,
		}
		if v, ok := LookupVendor(d.Vendor); ok {
			p.Name = v.ModelName(d.Product)
			p.Vendor = v.Name
			p.CommandSet = v.CommandSet.String()
		}
		found = append(found, p)
	}
	t.logger.Info("USB scan completed", zap.Int("printers_found", len(found)))
	return found, nil
}

// listDevices reads descriptors without opening any device
func (t *Transport) listDevices() ([]gousb.DeviceDesc, error) {
	c, err := t.context()
	if err != nil {
		return nil, err
	}

	var descs []gousb.DeviceDesc
	devs, err := c.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		descs = append(descs, *desc)
		return false
	})
	for _, d := range devs {
		d.Close()
	}
	if err != nil && len(descs) == 0 {
		return nil, fmt.Errorf("failed to enumerate usb devices: %w", err)
	}
	return descs, nil
}

func (t *Transport) newDevice(desc gousb.DeviceDesc) transport.Device {
	id := FormatID(desc.Vendor, desc.Product)
	name := id
	if v, ok := LookupVendor(desc.Vendor); ok {
		name = v.ModelName(desc.Product)
	}
	return &transport.StreamDevice{
		DeviceID:   id,
		DeviceName: name,
		Open: func(ctx context.Context) (io.Writer, func() error, error) {
			return t.open(desc.Vendor, desc.Product)
		},
	}
}

func (t *Transport) open(vid, pid gousb.ID) (io.Writer, func() error, error) {
	c, err := t.context()
	if err != nil {
		return nil, nil, err
	}

	dev, err := c.OpenDeviceWithVIDPID(vid, pid)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open usb device: %w", err)
	}
	if dev == nil {
		return nil, nil, transport.ErrNotFound
	}
	if err := dev.SetAutoDetach(true); err != nil {
		t.logger.Warn("Kernel driver auto-detach unavailable", zap.Error(err))
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		return nil, nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	num, ok := bulkOut(intf.Setting)
	if !ok {
		done()
		dev.Close()
		return nil, nil, fmt.Errorf("interface has no bulk OUT endpoint: %w", transport.ErrNoCharacteristic)
	}

	ep, err := intf.OutEndpoint(num)
	if err != nil {
		done()
		dev.Close()
		return nil, nil, fmt.Errorf("failed to get out endpoint: %w", err)
	}

	t.logger.Info("USB printer opened", zap.String("id", FormatID(vid, pid)), zap.Int("endpoint", num))
	return ep, func() error {
		done()
		return dev.Close()
	}, nil
}

func bulkOut(s gousb.InterfaceSetting) (int, bool) {
	for _, ep := range s.Endpoints {
		if ep.Direction == gousb.EndpointDirectionOut && ep.TransferType == gousb.TransferTypeBulk {
			return ep.Number, true
		}
	}
	return 0, false
}

func isPrinter(d gousb.DeviceDesc) bool {
	if _, ok := LookupVendor(d.Vendor); ok {
		return true
	}
	if d.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range d.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// FormatID renders vendor and product as vvvv:pppp
func FormatID(vid, pid gousb.ID) string {
	return vid.String() + ":" + pid.String()
}

// ParseID parses vvvv:pppp
func ParseID(id string) (gousb.ID, gousb.ID, error) {
	v, p, ok := strings.Cut(strings.TrimSpace(id), ":")
	if !ok {
		return 0, 0, fmt.Errorf("usb id %q must be vendor:product", id)
	}
	vid, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(v), "0x"), 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid vendor id %q: %w", v, err)
	}
	pid, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(p), "0x"), 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid product id %q: %w", p, err)
	}
	return gousb.ID(vid), gousb.ID(pid), nil
}
