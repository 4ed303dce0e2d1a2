package usb

import (
	"context"
	"testing"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/transport"
)

func newTestTransport(t *testing.T, descs ...gousb.DeviceDesc) *Transport {
	tr := New(zaptest.NewLogger(t))
	tr.enumerate = func() ([]gousb.DeviceDesc, error) { return descs, nil }
	return tr
}

func printerClassDesc(vid, pid gousb.ID) gousb.DeviceDesc {
	return gousb.DeviceDesc{
		Vendor:  vid,
		Product: pid,
		Configs: map[int]gousb.ConfigDesc{
			1: {Interfaces: []gousb.InterfaceDesc{{
				AltSettings: []gousb.InterfaceSetting{{Class: gousb.ClassPrinter}},
			}}},
		},
	}
}

func TestParseID(t *testing.T) {
	vid, pid, err := ParseID("04B8:0x0202")
	require.NoError(t, err)
	assert.Equal(t, gousb.ID(0x04b8), vid)
	assert.Equal(t, gousb.ID(0x0202), pid)
	assert.Equal(t, "04b8:0202", FormatID(vid, pid))

	_, _, err = ParseID("04b8")
	assert.Error(t, err)
	_, _, err = ParseID("zz:0001")
	assert.Error(t, err)
}

func TestDiscoverIdentifiesPrinters(t *testing.T) {
	tr := newTestTransport(t,
		gousb.DeviceDesc{Vendor: 0x046d, Product: 0xc52b}, // keyboard receiver
		gousb.DeviceDesc{Vendor: 0x0519, Product: 0x0001},
		printerClassDesc(0x1234, 0x5678),
	)

	found, err := tr.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 2)

	assert.Equal(t, "0519:0001", found[0].ID)
	assert.Equal(t, "TSP143III", found[0].Name)
	assert.Equal(t, "esc_pos_star", found[0].CommandSet)

	assert.Equal(t, "1234:5678", found[1].ID)
	assert.Empty(t, found[1].CommandSet)
}

func TestKnownAndRequestDevice(t *testing.T) {
	tr := newTestTransport(t,
		gousb.DeviceDesc{Vendor: 0x046d, Product: 0xc52b},
		gousb.DeviceDesc{Vendor: 0x04b8, Product: 0x0202},
	)
	ctx := context.Background()

	dev, err := tr.KnownDevice(ctx, "04b8:0202")
	require.NoError(t, err)
	assert.Equal(t, "TM-T88IV", dev.Name())

	_, err = tr.KnownDevice(ctx, "04b8:9999")
	assert.ErrorIs(t, err, transport.ErrNotFound)

	dev, err = tr.RequestDevice(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "04b8:0202", dev.ID())

	empty := newTestTransport(t)
	_, err = empty.RequestDevice(ctx, nil)
	assert.ErrorIs(t, err, transport.ErrNotFound)
}

func TestBulkOut(t *testing.T) {
	s := gousb.InterfaceSetting{Endpoints: map[gousb.EndpointAddress]gousb.EndpointDesc{
		0x81: {Number: 1, Direction: gousb.EndpointDirectionIn, TransferType: gousb.TransferTypeBulk},
		0x02: {Number: 2, Direction: gousb.EndpointDirectionOut, TransferType: gousb.TransferTypeBulk},
	}}
	num, ok := bulkOut(s)
	assert.True(t, ok)
	assert.Equal(t, 2, num)

	_, ok = bulkOut(gousb.InterfaceSetting{})
	assert.False(t, ok)
}
