package printer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"printer-service/internal/model"
	"printer-service/internal/transport"
)

// journal records transport activity in order
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	j.entries = append(j.entries, e)
	j.mu.Unlock()
}

func (j *journal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeTransport struct {
	mu          sync.Mutex
	unavailable error
	known       map[string]*fakeDevice
	requestable *fakeDevice
	knownCalls  int
	reqCalls    int
	journal     *journal
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{known: make(map[string]*fakeDevice), journal: &journal{}}
}

func (f *fakeTransport) addKnown(id string) *fakeDevice {
	d := f.newDevice(id)
	f.known[id] = d
	return d
}

func (f *fakeTransport) newDevice(id string) *fakeDevice {
	return &fakeDevice{
		id:      id,
		name:    "Printer " + id,
		journal: f.journal,
		failOn:  -1,
		// resolve on the third service and second characteristic so the
		// lookup loop has to walk
		accept: func(svc, chr uuid.UUID) bool {
			return svc == transport.ServiceUUIDs()[2] && chr == transport.CharacteristicUUIDs()[1]
		},
	}
}

func (f *fakeTransport) Name() model.TransportKind { return model.TransportBluetooth }

func (f *fakeTransport) Available() error { return f.unavailable }

func (f *fakeTransport) KnownDevice(ctx context.Context, id string) (transport.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.knownCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d, ok := f.known[id]; ok {
		return d, nil
	}
	return nil, transport.ErrNotFound
}

func (f *fakeTransport) RequestDevice(ctx context.Context, services []uuid.UUID) (transport.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.requestable == nil {
		return nil, transport.ErrNotFound
	}
	return f.requestable, nil
}

type fakeDevice struct {
	id      string
	name    string
	journal *journal
	accept  func(svc, chr uuid.UUID) bool

	mu         sync.Mutex
	connectErr error
	connects   int
	links      []*fakeLink
	lookups    [][2]uuid.UUID
	writes     [][]byte
	writeTimes []time.Time
	failOn     int  // index of the write that fails, -1 for none
	block      bool // writes wait for ctx
	onWrite    func(n int)
}

func (d *fakeDevice) ID() string   { return d.id }
func (d *fakeDevice) Name() string { return d.name }

func (d *fakeDevice) Connect(ctx context.Context) (transport.Link, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.journal.add("connect " + d.id)
	d.connects++
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	l := &fakeLink{dev: d, done: make(chan struct{})}
	d.links = append(d.links, l)
	return l, nil
}

func (d *fakeDevice) lastLink() *fakeLink {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.links[len(d.links)-1]
}

func (d *fakeDevice) data() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []byte
	for _, w := range d.writes {
		out = append(out, w...)
	}
	return out
}

func (d *fakeDevice) writeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}

type fakeLink struct {
	dev         *fakeDevice
	done        chan struct{}
	once        sync.Once
	mu          sync.Mutex
	disconnects int
}

func (l *fakeLink) Characteristic(ctx context.Context, svc, chr uuid.UUID) (transport.Characteristic, error) {
	l.dev.mu.Lock()
	l.dev.lookups = append(l.dev.lookups, [2]uuid.UUID{svc, chr})
	l.dev.mu.Unlock()

	if l.dev.accept(svc, chr) {
		return &fakeChar{link: l}, nil
	}
	return nil, transport.ErrNoCharacteristic
}

func (l *fakeLink) Disconnected() <-chan struct{} { return l.done }

func (l *fakeLink) Disconnect() error {
	l.mu.Lock()
	l.disconnects++
	l.mu.Unlock()
	l.drop()
	return nil
}

// drop simulates the printer going away
func (l *fakeLink) drop() {
	l.once.Do(func() { close(l.done) })
}

func (l *fakeLink) disconnectCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disconnects
}

type fakeChar struct {
	link *fakeLink
}

var errWriteRejected = errors.New("write rejected")

func (c *fakeChar) Write(ctx context.Context, data []byte) error {
	d := c.link.dev

	d.mu.Lock()
	block := d.block
	idx := len(d.writes)
	fail := d.failOn == idx
	d.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if fail {
		return errWriteRejected
	}

	select {
	case <-c.link.done:
		return transport.ErrClosed
	default:
	}

	d.mu.Lock()
	d.writes = append(d.writes, append([]byte(nil), data...))
	d.writeTimes = append(d.writeTimes, time.Now())
	hook := d.onWrite
	d.mu.Unlock()

	d.journal.add("write")
	if hook != nil {
		hook(idx + 1)
	}
	return nil
}

// recordingListener collects listener callbacks
type recordingListener struct {
	mu           sync.Mutex
	connected    []model.BluetoothPrinter
	disconnected []model.BluetoothPrinter
	reasons      []error
}

func (r *recordingListener) PrinterConnected(p model.BluetoothPrinter) {
	r.mu.Lock()
	r.connected = append(r.connected, p)
	r.mu.Unlock()
}

func (r *recordingListener) PrinterDisconnected(p model.BluetoothPrinter, reason error) {
	r.mu.Lock()
	r.disconnected = append(r.disconnected, p)
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
}

func (r *recordingListener) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connected), len(r.disconnected)
}
