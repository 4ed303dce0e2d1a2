package tcp

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/transport"
)

func TestAddress(t *testing.T) {
	addr, err := Address("192.168.1.50")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.50:9100", addr)

	addr, err = Address("printer.local:9101")
	require.NoError(t, err)
	assert.Equal(t, "printer.local:9101", addr)

	_, err = Address("")
	assert.Error(t, err)
	_, err = Address(":9100")
	assert.Error(t, err)
	_, err = Address("host:0")
	assert.Error(t, err)
}

// fakePrinter accepts connections and reports every non-empty payload
func fakePrinter(t *testing.T) (net.Listener, <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan []byte, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				data, _ := io.ReadAll(conn)
				if len(data) > 0 {
					received <- data
				}
			}(conn)
		}
	}()
	return ln, received
}

func deadAddress(t *testing.T) string {
	t.Helper()
	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := closed.Addr().String()
	closed.Close()
	return addr
}

func printHello(t *testing.T, dev transport.Device) {
	t.Helper()
	ctx := context.Background()

	link, err := dev.Connect(ctx)
	require.NoError(t, err)

	ch, err := link.Characteristic(ctx, transport.ServiceUUIDs()[0], transport.CharacteristicUUIDs()[0])
	require.NoError(t, err)
	require.NoError(t, ch.Write(ctx, []byte{0x1B, '@'}))
	require.NoError(t, ch.Write(ctx, []byte("hello")))
	require.NoError(t, link.Disconnect())
}

func expectPayload(t *testing.T, received <-chan []byte) {
	t.Helper()
	select {
	case data := <-received:
		assert.Equal(t, append([]byte{0x1B, '@'}, "hello"...), data)
	case <-time.After(2 * time.Second):
		t.Fatal("printer did not receive data")
	}
}

func TestPrintToKnownDevice(t *testing.T) {
	ln, received := fakePrinter(t)
	tr := New(Options{}, zaptest.NewLogger(t))

	dev, err := tr.KnownDevice(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	assert.Equal(t, ln.Addr().String(), dev.ID())

	printHello(t, dev)
	expectPayload(t, received)
}

func TestRequestDevicePicksReachableHost(t *testing.T) {
	ln, received := fakePrinter(t)
	tr := New(Options{
		Hosts:       []string{"", deadAddress(t), ln.Addr().String()},
		DialTimeout: time.Second,
	}, zaptest.NewLogger(t))

	dev, err := tr.RequestDevice(context.Background(), transport.ServiceUUIDs())
	require.NoError(t, err)
	assert.Equal(t, ln.Addr().String(), dev.ID())

	printHello(t, dev)
	expectPayload(t, received)
}

func TestRequestDeviceNoReachableHost(t *testing.T) {
	tr := New(Options{Hosts: []string{deadAddress(t)}, DialTimeout: time.Second}, zaptest.NewLogger(t))

	_, err := tr.RequestDevice(context.Background(), transport.ServiceUUIDs())
	assert.ErrorIs(t, err, transport.ErrNotFound)
}

func TestDiscoverSkipsUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	defer ln.Close()

	tr := New(Options{Hosts: []string{deadAddress(t), ln.Addr().String(), ":9100"}, DialTimeout: time.Second}, zaptest.NewLogger(t))
	found, err := tr.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ln.Addr().String(), found[0].ID)
}
