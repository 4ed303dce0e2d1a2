// internal/transport/bluetooth/bluetooth.go
package bluetooth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/transport"
)

// Options configures the HCI adapter and its timeouts
type Options struct {
	HCIDevice      int
	ScanTimeout    time.Duration
	ConnectTimeout time.Duration
}

// Transport reaches BLE printers through the host's HCI adapter
type Transport struct {
	opts   Options
	logger *zap.Logger

	mu  sync.Mutex
	dev ble.Device
}

// New creates the transport. The adapter is opened on first use.
func New(opts Options, logger *zap.Logger) *Transport {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 10 * time.Second
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 15 * time.Second
	}
	return &Transport{
		opts:   opts,
		logger: logger.With(zap.String("transport", "bluetooth")),
	}
}

func (t *Transport) Name() model.TransportKind {
	return model.TransportBluetooth
}

func (t *Transport) Available() error {
	_, err := t.device()
	return err
}

func (t *Transport) device() (ble.Device, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev != nil {
		return t.dev, nil
	}

	dev, err := openDevice(t.opts)
	if err != nil {
		return nil, fmt.Errorf("hci%d: %v: %w", t.opts.HCIDevice, err, transport.ErrUnavailable)
	}
	t.dev = dev
	t.logger.Info("Bluetooth adapter opened", zap.Int("hci", t.opts.HCIDevice))
	return dev, nil
}

// Close releases the adapter
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return nil
	}
	err := t.dev.Stop()
	t.dev = nil
	return err
}

// KnownDevice scans for the advertiser with the stored address
func (t *Transport) KnownDevice(ctx context.Context, id string) (transport.Device, error) {
	adv, err := t.scanFirst(ctx, func(a ble.Advertisement) bool {
		return strings.EqualFold(a.Addr().String(), id)
	})
	if err != nil {
		return nil, err
	}
	return t.newDevice(adv), nil
}

// RequestDevice takes the first advertiser of an allowed service. There is no
// picker on a server, so the strongest candidate is whichever answers first.
func (t *Transport) RequestDevice(ctx context.Context, services []uuid.UUID) (transport.Device, error) {
	adv, err := t.scanFirst(ctx, func(a ble.Advertisement) bool {
		return advertisesAny(a, services)
	})
	if err != nil {
		return nil, err
	}
	return t.newDevice(adv), nil
}

// Discover lists advertisers of allowed services seen during one scan window
func (t *Transport) Discover(ctx context.Context) ([]transport.DiscoveredPrinter, error) {
	dev, err := t.device()
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		seen  = make(map[string]int)
		found []transport.DiscoveredPrinter
	)

	scanCtx, cancel := context.WithTimeout(ctx, t.opts.ScanTimeout)
	defer cancel()

	err = dev.Scan(scanCtx, false, func(a ble.Advertisement) {
		if !advertisesAllowed(a) {
			return
		}
		mu.Lock()
		defer mu.Unlock()

		rssi := a.RSSI()
		p := transport.DiscoveredPrinter{
			ID:        a.Addr().String(),
			Name:      a.LocalName(),
			Transport: model.TransportBluetooth,
			RSSI:      &rssi,
			Services:  serviceStrings(a.Services()),
		}
		if i, ok := seen[p.ID]; ok {
			found[i] = p
			return
		}
		seen[p.ID] = len(found)
		found = append(found, p)
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("bluetooth scan failed: %w", err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	t.logger.Info("Bluetooth scan completed", zap.Int("printers_found", len(found)))
	return found, nil
}

func (t *Transport) scanFirst(ctx context.Context, match func(ble.Advertisement) bool) (ble.Advertisement, error) {
	dev, err := t.device()
	if err != nil {
		return nil, err
	}

	scanCtx, cancel := context.WithTimeout(ctx, t.opts.ScanTimeout)
	defer cancel()

	var (
		mu    sync.Mutex
		found ble.Advertisement
	)
	err = dev.Scan(scanCtx, false, func(a ble.Advertisement) {
		mu.Lock()
		defer mu.Unlock()
		if found == nil && match(a) {
			found = a
			cancel()
		}
	})

	mu.Lock()
	defer mu.Unlock()
	if found != nil {
		return found, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("bluetooth scan failed: %w", err)
	}
	return nil, transport.ErrNotFound
}

func (t *Transport) newDevice(a ble.Advertisement) *device {
	return &device{
		addr: a.Addr(),
		name: a.LocalName(),
		t:    t,
	}
}

type device struct {
	addr ble.Addr
	name string
	t    *Transport
}

func (d *device) ID() string { return d.addr.String() }

func (d *device) Name() string {
	if d.name == "" {
		return d.addr.String()
	}
	return d.name
}

func (d *device) Connect(ctx context.Context) (transport.Link, error) {
	dev, err := d.t.device()
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, d.t.opts.ConnectTimeout)
	defer cancel()

	client, err := dev.Dial(dialCtx, d.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.addr, err)
	}

	d.t.logger.Debug("GATT connection established", zap.String("address", d.addr.String()))
	return newLink(client), nil
}

// link caches GATT discovery so walking the allow-list costs one
// discovery per service rather than one per pair
type link struct {
	client ble.Client

	mu       sync.Mutex
	services map[string]*gattService
}

type gattService struct {
	svc   *ble.Service // nil when the peripheral lacks the service
	chars []*ble.Characteristic
}

func newLink(client ble.Client) *link {
	return &link{client: client, services: make(map[string]*gattService)}
}

func (l *link) Characteristic(ctx context.Context, service, characteristic uuid.UUID) (transport.Characteristic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gs, err := l.service(service)
	if err != nil {
		return nil, err
	}
	if gs.svc == nil {
		return nil, transport.ErrNoCharacteristic
	}

	chrID := ble.MustParse(characteristic.String())
	for _, c := range gs.chars {
		if c.UUID.Equal(chrID) && c.Property&(ble.CharWrite|ble.CharWriteNR) != 0 {
			return &gattCharacteristic{
				client: l.client,
				c:      c,
				noRsp:  c.Property&ble.CharWriteNR != 0,
			}, nil
		}
	}
	return nil, transport.ErrNoCharacteristic
}

// service discovers a service and all of its characteristics once
func (l *link) service(id uuid.UUID) (*gattService, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := id.String()
	if gs, ok := l.services[key]; ok {
		return gs, nil
	}

	svcID := ble.MustParse(key)
	found, err := l.client.DiscoverServices([]ble.UUID{svcID})
	if err != nil {
		return nil, fmt.Errorf("discover service %s: %w", id, err)
	}

	gs := &gattService{}
	for _, s := range found {
		if !s.UUID.Equal(svcID) {
			continue
		}
		chars, err := l.client.DiscoverCharacteristics(nil, s)
		if err != nil {
			return nil, fmt.Errorf("discover characteristics of %s: %w", id, err)
		}
		gs.svc = s
		gs.chars = chars
		break
	}
	l.services[key] = gs
	return gs, nil
}

func (l *link) Disconnected() <-chan struct{} {
	return l.client.Disconnected()
}

func (l *link) Disconnect() error {
	return l.client.CancelConnection()
}

type gattCharacteristic struct {
	client ble.Client
	c      *ble.Characteristic
	noRsp  bool
}

func (g *gattCharacteristic) Write(ctx context.Context, data []byte) error {
	errc := make(chan error, 1)
	go func() {
		errc <- g.client.WriteCharacteristic(g.c, data, g.noRsp)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-g.client.Disconnected():
		return transport.ErrClosed
	}
}

// advertisesAllowed reports whether the advertiser lists a service on the
// allow-list, in either its 16, 32 or 128-bit form
func advertisesAllowed(a ble.Advertisement) bool {
	for _, s := range a.Services() {
		if u, ok := fromBLE(s); ok && transport.IsAllowedService(u) {
			return true
		}
	}
	return false
}

// advertisesAny reports whether the advertiser lists one of wanted
func advertisesAny(a ble.Advertisement, wanted []uuid.UUID) bool {
	for _, s := range a.Services() {
		u, ok := fromBLE(s)
		if ok && slices.Contains(wanted, u) {
			return true
		}
	}
	return false
}

// last 96 bits of the Bluetooth base UUID
var baseUUIDTail = []byte{0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0x80, 0x5f, 0x9b, 0x34, 0xfb}

// fromBLE converts a little-endian ble.UUID, expanding short forms
func fromBLE(u ble.UUID) (uuid.UUID, bool) {
	be := []byte(ble.Reverse(u))
	switch len(be) {
	case 2:
		be = append([]byte{0x00, 0x00}, be...)
		fallthrough
	case 4:
		be = append(be, baseUUIDTail...)
	case 16:
	default:
		return uuid.Nil, false
	}
	id, err := uuid.FromBytes(be)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func serviceStrings(ids []ble.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
