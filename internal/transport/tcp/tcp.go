// internal/transport/tcp/tcp.go
package tcp

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/transport"
)

// DefaultPort is the raw printing port used by network receipt printers
const DefaultPort = 9100

// Options configures network printers
type Options struct {
	DialTimeout time.Duration
	KeepAlive   time.Duration
	// Hosts are dialled by RequestDevice and Discover, in order.
	Hosts []string
}

// Transport reaches printers over a raw TCP socket
type Transport struct {
	opts   Options
	logger *zap.Logger
	dialer *net.Dialer
}

func New(opts Options, logger *zap.Logger) *Transport {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 3 * time.Second
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 30 * time.Second
	}
	return &Transport{
		opts:   opts,
		logger: logger.With(zap.String("transport", "tcp")),
		dialer: &net.Dialer{Timeout: opts.DialTimeout, KeepAlive: opts.KeepAlive},
	}
}

func (t *Transport) Name() model.TransportKind {
	return model.TransportTCP
}

func (t *Transport) Available() error {
	return nil
}

// KnownDevice validates the stored address; reachability is checked on connect
func (t *Transport) KnownDevice(ctx context.Context, id string) (transport.Device, error) {
	addr, err := Address(id)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, transport.ErrNotFound)
	}
	return t.newDevice(addr), nil
}

// RequestDevice returns the first configured host that accepts a connection
func (t *Transport) RequestDevice(ctx context.Context, services []uuid.UUID) (transport.Device, error) {
	for _, host := range t.opts.Hosts {
		addr, err := Address(host)
		if err != nil {
			continue
		}
		if t.answers(ctx, addr) {
			return t.newDevice(addr), nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, transport.ErrNotFound
}

// Discover dials the configured hosts concurrently
func (t *Transport) Discover(ctx context.Context) ([]transport.DiscoveredPrinter, error) {
	reachable := make([]bool, len(t.opts.Hosts))
	addrs := make([]string, len(t.opts.Hosts))

	var wg sync.WaitGroup
	for i, host := range t.opts.Hosts {
		addr, err := Address(host)
		if err != nil {
			t.logger.Warn("Skipping invalid printer host", zap.String("host", host), zap.Error(err))
			continue
		}
		addrs[i] = addr

		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			reachable[i] = t.answers(ctx, addr)
		}(i, addr)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var found []transport.DiscoveredPrinter
	for i, ok := range reachable {
		if ok {
			found = append(found, transport.DiscoveredPrinter{
				ID:        addrs[i],
				Name:      addrs[i],
				Transport: model.TransportTCP,
			})
		}
	}
	t.logger.Info("TCP scan completed", zap.Int("printers_found", len(found)))
	return found, nil
}

func (t *Transport) answers(ctx context.Context, addr string) bool {
	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (t *Transport) newDevice(addr string) transport.Device {
	return &transport.StreamDevice{
		DeviceID: addr,
		Open: func(ctx context.Context) (io.Writer, func() error, error) {
			conn, err := t.dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
			}
			t.logger.Info("TCP connection opened", zap.String("address", addr))
			return conn, conn.Close, nil
		},
	}
}

// Address normalises host or host:port, defaulting to DefaultPort
func Address(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty printer address")
	}
	host, port, err := net.SplitHostPort(id)
	if err != nil {
		// no port given
		return net.JoinHostPort(id, strconv.Itoa(DefaultPort)), nil
	}
	if host == "" {
		return "", fmt.Errorf("printer address %q has no host", id)
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("printer address %q has an invalid port", id)
	}
	return id, nil
}
