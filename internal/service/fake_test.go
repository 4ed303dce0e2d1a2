package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/config"
	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/transport"
)

var errPaperJam = errors.New("paper jam")

// memPrinter is a byte sink standing in for a printer
type memPrinter struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	opens      int
	failWrites int
	gate       chan struct{}
}

func (p *memPrinter) Write(b []byte) (int, error) {
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWrites > 0 {
		p.failWrites--
		return 0, errPaperJam
	}
	return p.buf.Write(b)
}

func (p *memPrinter) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

func (p *memPrinter) openCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}

// memTransport serves memPrinters as stream devices
type memTransport struct {
	kind        model.TransportKind
	unavailable error

	mu          sync.Mutex
	printers    map[string]*memPrinter
	found       []transport.DiscoveredPrinter
	discoverErr error
}

func newMemTransport(kind model.TransportKind) *memTransport {
	return &memTransport{kind: kind, printers: make(map[string]*memPrinter)}
}

func (m *memTransport) add(id string) *memPrinter {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &memPrinter{}
	m.printers[id] = p
	return p
}

func (m *memTransport) Name() model.TransportKind { return m.kind }

func (m *memTransport) Available() error { return m.unavailable }

func (m *memTransport) KnownDevice(ctx context.Context, id string) (transport.Device, error) {
	m.mu.Lock()
	p, ok := m.printers[id]
	m.mu.Unlock()
	if !ok {
		return nil, transport.ErrNotFound
	}

	return &transport.StreamDevice{
		DeviceID: id,
		Open: func(ctx context.Context) (io.Writer, func() error, error) {
			p.mu.Lock()
			p.opens++
			p.mu.Unlock()
			return p, func() error { return nil }, nil
		},
	}, nil
}

func (m *memTransport) RequestDevice(ctx context.Context, services []uuid.UUID) (transport.Device, error) {
	return nil, transport.ErrNotFound
}

func (m *memTransport) Discover(ctx context.Context) ([]transport.DiscoveredPrinter, error) {
	return m.found, m.discoverErr
}

// eventRecorder collects published events
type eventRecorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *eventRecorder) Publish(e model.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *eventRecorder) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Device: config.DeviceConfig{
			DefaultTransport: "bluetooth",
			ChunkSize:        64,
			WriteDelay:       time.Microsecond,
			WriteTimeout:     time.Second,
			JobTimeout:       5 * time.Second,
		},
		Queue: config.QueueConfig{
			Size:          4,
			RetryAttempts: 1,
			RetryDelay:    time.Millisecond,
		},
	}
}

type fixture struct {
	svc    *PrintService
	tr     *memTransport
	repo   repository.JobRepository
	events *eventRecorder
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	tr := newMemTransport(model.TransportBluetooth)
	registry := transport.NewRegistry(model.TransportBluetooth, logger)
	registry.Register(tr)

	repo := repository.NewMemoryJobRepository(logger)
	events := &eventRecorder{}
	svc, err := NewPrintService(registry, repo, events, cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Close(ctx)
	})

	return &fixture{svc: svc, tr: tr, repo: repo, events: events}
}

func order() *model.Order {
	return &model.Order{
		ID:            "ord-7",
		OrderNumber:   "7",
		CreatedDate:   time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC),
		OrderType:     model.OrderTypeDelivery,
		Items:         []model.LineItem{{Name: "Margherita Pizza", Quantity: 1, Price: decimal.RequireFromString("12.99")}},
		Subtotal:      decimal.RequireFromString("12.99"),
		DeliveryFee:   decimal.RequireFromString("2.50"),
		Total:         decimal.RequireFromString("15.49"),
		PaymentMethod: "card",
	}
}

func restaurant() *model.Restaurant {
	return &model.Restaurant{Name: "Pizza Place", Address: "1 High Street"}
}

func printerConfig(id string) *model.PrinterConfig {
	return &model.PrinterConfig{
		BluetoothPrinter: &model.BluetoothPrinter{ID: id},
		CommandSet:       "esc_pos",
		Template:         model.TemplateStandard,
		ShowOrderNumber:  true,
	}
}
