package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{ err error }

func (w failingWriter) Write(p []byte) (int, error) { return 0, w.err }

type blockingWriter struct{ release chan struct{} }

func (w blockingWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

func TestStreamLinkWrites(t *testing.T) {
	var buf bytes.Buffer
	closed := 0
	link := NewStreamLink(&buf, func() error { closed++; return nil })

	ch, err := link.Characteristic(context.Background(), ServiceUUIDs()[0], CharacteristicUUIDs()[0])
	require.NoError(t, err)

	require.NoError(t, ch.Write(context.Background(), []byte("abc")))
	require.NoError(t, ch.Write(context.Background(), []byte("def")))
	assert.Equal(t, "abcdef", buf.String())

	require.NoError(t, link.Disconnect())
	require.NoError(t, link.Disconnect())
	assert.Equal(t, 1, closed)

	select {
	case <-link.Disconnected():
	default:
		t.Fatal("link should report disconnected")
	}

	assert.ErrorIs(t, ch.Write(context.Background(), []byte("x")), ErrClosed)
	_, err = link.Characteristic(context.Background(), ServiceUUIDs()[0], CharacteristicUUIDs()[0])
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStreamLinkWriteErrorClosesLink(t *testing.T) {
	boom := errors.New("boom")
	link := NewStreamLink(failingWriter{err: boom}, nil)

	err := link.Write(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, boom)

	select {
	case <-link.Disconnected():
	case <-time.After(time.Second):
		t.Fatal("link should close after a failed write")
	}
}

func TestStreamLinkShortWrite(t *testing.T) {
	link := NewStreamLink(shortWriter{}, nil)
	assert.ErrorIs(t, link.Write(context.Background(), []byte("ab")), io.ErrShortWrite)
}

func TestStreamLinkWriteHonoursContext(t *testing.T) {
	w := blockingWriter{release: make(chan struct{})}
	defer close(w.release)

	link := NewStreamLink(w, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := link.Write(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	<-link.Disconnected()
}

func TestStreamDevice(t *testing.T) {
	var buf bytes.Buffer
	dev := &StreamDevice{
		DeviceID: "/dev/rfcomm0",
		Open: func(ctx context.Context) (io.Writer, func() error, error) {
			return &buf, nil, nil
		},
	}
	assert.Equal(t, "/dev/rfcomm0", dev.Name())

	link, err := dev.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, link.Disconnect())
}

func TestAllowListsAreCopies(t *testing.T) {
	s := ServiceUUIDs()
	s[0] = CharacteristicUUIDs()[0]
	assert.NotEqual(t, s[0], ServiceUUIDs()[0])
	assert.True(t, IsAllowedService(ServiceUUIDs()[5]))
	assert.False(t, IsAllowedService(CharacteristicUUIDs()[0]))
}
