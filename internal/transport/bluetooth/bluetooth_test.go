package bluetooth

import (
	"context"
	"testing"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/model"
	"printer-service/internal/transport"
)

type fakeAdvertisement struct {
	ble.Advertisement
	services []ble.UUID
}

func (a fakeAdvertisement) Services() []ble.UUID { return a.services }

// fakeClient exposes one GATT profile and counts discoveries
type fakeClient struct {
	ble.Client
	profile []*ble.Service

	serviceDiscoveries int
	charDiscoveries    int
}

func (c *fakeClient) DiscoverServices(filter []ble.UUID) ([]*ble.Service, error) {
	c.serviceDiscoveries++
	var out []*ble.Service
	for _, s := range c.profile {
		if len(filter) == 0 || ble.Contains(filter, s.UUID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *fakeClient) DiscoverCharacteristics(filter []ble.UUID, s *ble.Service) ([]*ble.Characteristic, error) {
	c.charDiscoveries++
	return s.Characteristics, nil
}

func newGATTService(svc string, chars ...*ble.Characteristic) *ble.Service {
	return &ble.Service{UUID: ble.MustParse(svc), Characteristics: chars}
}

func gattChar(id string, prop ble.Property) *ble.Characteristic {
	return &ble.Characteristic{UUID: ble.MustParse(id), Property: prop}
}

func TestFromBLE(t *testing.T) {
	spp, ok := fromBLE(ble.UUID16(0x1101))
	require.True(t, ok)
	assert.Equal(t, uuid.MustParse("00001101-0000-1000-8000-00805f9b34fb"), spp)

	long, ok := fromBLE(ble.MustParse("49535343-fe7d-4ae5-8fa9-9fafd205e455"))
	require.True(t, ok)
	assert.Equal(t, uuid.MustParse("49535343-fe7d-4ae5-8fa9-9fafd205e455"), long)

	_, ok = fromBLE(ble.UUID{0x01, 0x02, 0x03})
	assert.False(t, ok)
}

func TestAdvertisesAllowed(t *testing.T) {
	printer := fakeAdvertisement{services: []ble.UUID{ble.MustParse("180a"), ble.MustParse("49535343-fe7d-4ae5-8fa9-9fafd205e455")}}
	assert.True(t, advertisesAllowed(printer))

	// printers often advertise the 16-bit short form
	short := fakeAdvertisement{services: []ble.UUID{ble.UUID16(0x18f0)}}
	assert.True(t, advertisesAllowed(short))

	heartRate := fakeAdvertisement{services: []ble.UUID{ble.MustParse("180d")}}
	assert.False(t, advertisesAllowed(heartRate))
}

func TestAdvertisesAny(t *testing.T) {
	only := []uuid.UUID{uuid.MustParse("0000ff00-0000-1000-8000-00805f9b34fb")}

	assert.True(t, advertisesAny(fakeAdvertisement{services: []ble.UUID{ble.UUID16(0xff00)}}, only))
	assert.False(t, advertisesAny(fakeAdvertisement{services: []ble.UUID{ble.UUID16(0x18f0)}}, only))
	assert.False(t, advertisesAny(fakeAdvertisement{}, transport.ServiceUUIDs()))
}

func TestLinkCachesDiscoveryAcrossAllowList(t *testing.T) {
	client := &fakeClient{profile: []*ble.Service{
		newGATTService("0000180a-0000-1000-8000-00805f9b34fb"),
		newGATTService("0000ff00-0000-1000-8000-00805f9b34fb",
			gattChar("0000ff01-0000-1000-8000-00805f9b34fb", ble.CharNotify),
			gattChar("0000ff02-0000-1000-8000-00805f9b34fb", ble.CharWriteNR),
		),
	}}
	l := newLink(client)
	ctx := context.Background()

	var found transport.Characteristic
	for _, svc := range transport.ServiceUUIDs() {
		for _, chr := range transport.CharacteristicUUIDs() {
			if c, err := l.Characteristic(ctx, svc, chr); err == nil {
				found = c
				break
			}
		}
		if found != nil {
			break
		}
	}

	require.NotNil(t, found)
	g := found.(*gattCharacteristic)
	assert.True(t, g.c.UUID.Equal(ble.MustParse("0000ff02-0000-1000-8000-00805f9b34fb")))
	assert.True(t, g.noRsp)

	// services 1-5 of the allow-list, each discovered once
	assert.Equal(t, 5, client.serviceDiscoveries)
	assert.Equal(t, 1, client.charDiscoveries)
}

func TestLinkMissingService(t *testing.T) {
	client := &fakeClient{}
	l := newLink(client)
	svc := transport.ServiceUUIDs()[0]

	for _, chr := range transport.CharacteristicUUIDs() {
		_, err := l.Characteristic(context.Background(), svc, chr)
		assert.ErrorIs(t, err, transport.ErrNoCharacteristic)
	}
	assert.Equal(t, 1, client.serviceDiscoveries)
	assert.Zero(t, client.charDiscoveries)
}

func TestNewAppliesDefaults(t *testing.T) {
	tr := New(Options{}, zaptest.NewLogger(t))
	assert.Equal(t, model.TransportBluetooth, tr.Name())
	assert.Positive(t, tr.opts.ScanTimeout)
	assert.Positive(t, tr.opts.ConnectTimeout)
}
