package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/config"
	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/service"
	"printer-service/internal/transport"
	"printer-service/internal/utils"
)

type sinkPrinter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (p *sinkPrinter) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Write(b)
}

func (p *sinkPrinter) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

// fakeTransport serves sinkPrinters by id
type fakeTransport struct {
	kind        model.TransportKind
	unavailable error

	mu       sync.Mutex
	printers map[string]*sinkPrinter
	found    []transport.DiscoveredPrinter
}

func newFakeTransport(kind model.TransportKind) *fakeTransport {
	return &fakeTransport{kind: kind, printers: make(map[string]*sinkPrinter)}
}

func (f *fakeTransport) add(id string) *sinkPrinter {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &sinkPrinter{}
	f.printers[id] = p
	return p
}

func (f *fakeTransport) Name() model.TransportKind { return f.kind }

func (f *fakeTransport) Available() error { return f.unavailable }

func (f *fakeTransport) KnownDevice(ctx context.Context, id string) (transport.Device, error) {
	f.mu.Lock()
	p, ok := f.printers[id]
	f.mu.Unlock()
	if !ok {
		return nil, transport.ErrNotFound
	}
	return &transport.StreamDevice{
		DeviceID: id,
		Open: func(ctx context.Context) (io.Writer, func() error, error) {
			return p, func() error { return nil }, nil
		},
	}, nil
}

func (f *fakeTransport) RequestDevice(ctx context.Context, services []uuid.UUID) (transport.Device, error) {
	return nil, transport.ErrNotFound
}

func (f *fakeTransport) Discover(ctx context.Context) ([]transport.DiscoveredPrinter, error) {
	return f.found, nil
}

type unhealthyDB struct{ err error }

func (d unhealthyDB) Health(ctx context.Context) error { return d.err }

var errDBDown = errors.New("connection refused")

// testServer wires every handler onto one engine
type testServer struct {
	engine   *gin.Engine
	ble      *fakeTransport
	tcp      *fakeTransport
	bus      *EventBus
	print    *service.PrintService
	registry *transport.Registry
	cfg      *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "printer-service", Version: "test"},
		Device: config.DeviceConfig{
			DefaultTransport: "bluetooth",
			ChunkSize:        64,
			WriteDelay:       time.Microsecond,
			WriteTimeout:     time.Second,
			JobTimeout:       5 * time.Second,
		},
		Queue: config.QueueConfig{Size: 4, RetryDelay: time.Millisecond},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	cfg := testConfig()

	ble := newFakeTransport(model.TransportBluetooth)
	tcp := newFakeTransport(model.TransportTCP)
	tcp.unavailable = transport.ErrUnavailable
	registry := transport.NewRegistry(model.TransportBluetooth, logger)
	registry.Register(ble)
	registry.Register(tcp)

	bus := NewEventBus(logger)
	go bus.Start()

	printService, err := service.NewPrintService(registry, repository.NewMemoryJobRepository(logger), bus, cfg, logger)
	require.NoError(t, err)
	receiptService, err := service.NewReceiptService("", logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = printService.Close(ctx)
		bus.Stop()
	})

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(utils.RequestIDKey, "req-1")
		c.Next()
	})
	NewHealthHandler(nil, registry, cfg, logger).RegisterRoutes(engine)
	api := engine.Group("/api/v1")
	NewPrintHandler(printService, logger).RegisterRoutes(api)
	NewPrinterHandler(printService, logger).RegisterRoutes(api)
	NewDiscoveryHandler(service.NewDiscoveryService(registry, logger), logger).RegisterRoutes(api)
	NewReceiptHandler(receiptService, logger).RegisterRoutes(api)

	return &testServer{engine: engine, ble: ble, tcp: tcp, bus: bus, print: printService, registry: registry, cfg: cfg}
}

// do sends a request and decodes the envelope
func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp utils.APIResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

// data re-decodes the envelope's data into out
func data(t *testing.T, resp utils.APIResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

const orderJSON = `{
	"id": "ord-7",
	"orderNumber": "7",
	"createdDate": "2024-03-09T18:30:00Z",
	"orderType": "delivery",
	"items": [{"name": "Margherita Pizza", "quantity": 1, "price": "12.99"}],
	"subtotal": "12.99",
	"deliveryFee": "2.50",
	"total": "15.49",
	"paymentMethod": "card"
}`

func printBody(printerID string, wait bool) string {
	w := "false"
	if wait {
		w = "true"
	}
	return `{
		"order": ` + orderJSON + `,
		"restaurant": {"name": "Pizza Place"},
		"config": {"bluetoothPrinter": {"id": "` + printerID + `"}, "commandSet": "esc_pos", "template": "standard", "showOrderNumber": true},
		"wait": ` + w + `
	}`
}
