// internal/transport/stream.go
package transport

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
)

// StreamLink adapts a plain byte stream (serial port, socket, USB bulk
// endpoint) to a Link. Streams have no GATT profile, so every requested
// service/characteristic pair resolves to the stream itself and the first
// lookup wins.
type StreamLink struct {
	w      io.Writer
	closer func() error

	done     chan struct{}
	once     sync.Once
	closeErr error
}

// NewStreamLink wraps w. closer releases the underlying resource and is
// called at most once.
func NewStreamLink(w io.Writer, closer func() error) *StreamLink {
	return &StreamLink{
		w:      w,
		closer: closer,
		done:   make(chan struct{}),
	}
}

func (l *StreamLink) Characteristic(ctx context.Context, service, characteristic uuid.UUID) (Characteristic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case <-l.done:
		return nil, ErrClosed
	default:
		return l, nil
	}
}

func (l *StreamLink) Disconnected() <-chan struct{} {
	return l.done
}

func (l *StreamLink) Disconnect() error {
	l.shutdown()
	return l.closeErr
}

// Write sends data in one call. A failed or abandoned write closes the link,
// since the stream position is unknown afterwards.
func (l *StreamLink) Write(ctx context.Context, data []byte) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	errc := make(chan error, 1)
	go func() {
		n, err := l.w.Write(data)
		if err == nil && n < len(data) {
			err = io.ErrShortWrite
		}
		errc <- err
	}()

	select {
	case err := <-errc:
		if err != nil {
			l.shutdown()
		}
		return err
	case <-ctx.Done():
		l.shutdown()
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

func (l *StreamLink) shutdown() {
	l.once.Do(func() {
		if l.closer != nil {
			l.closeErr = l.closer()
		}
		close(l.done)
	})
}

// OpenFunc opens the stream behind a StreamDevice
type OpenFunc func(ctx context.Context) (io.Writer, func() error, error)

// StreamDevice is a Device whose link is a byte stream opened on Connect
type StreamDevice struct {
	DeviceID   string
	DeviceName string
	Open       OpenFunc
}

func (d *StreamDevice) ID() string { return d.DeviceID }

func (d *StreamDevice) Name() string {
	if d.DeviceName == "" {
		return d.DeviceID
	}
	return d.DeviceName
}

func (d *StreamDevice) Connect(ctx context.Context) (Link, error) {
	w, closer, err := d.Open(ctx)
	if err != nil {
		return nil, err
	}
	return NewStreamLink(w, closer), nil
}
