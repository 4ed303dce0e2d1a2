// internal/printer/session.go
package printer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/receipt"
	"printer-service/internal/transport"
	"printer-service/internal/utils"
	"printer-service/pkg/commandset"
)

// State of a session's link
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
)

// Stats are cumulative counters for one session
type Stats struct {
	Receipts     int64     `json:"receipts"`
	Failures     int64     `json:"failures"`
	Writes       int64     `json:"writes"`
	BytesWritten int64     `json:"bytes_written"`
	Connects     int64     `json:"connects"`
	Reconnects   int64     `json:"reconnects"`
	LastActivity time.Time `json:"last_activity,omitempty"`
}

// Status is a point-in-time view of a session
type Status struct {
	State     State                   `json:"state"`
	Transport model.TransportKind     `json:"transport"`
	Printer   *model.BluetoothPrinter `json:"printer,omitempty"`
	Stats     Stats                   `json:"stats"`
}

// Result describes one transmitted receipt
type Result struct {
	Fragments   int           `json:"fragments"`
	Writes      int           `json:"writes"`
	Bytes       int           `json:"bytes"`
	Reconnected bool          `json:"reconnected"`
	Duration    time.Duration `json:"duration"`
}

// Session owns at most one link to one printer. Methods may be called from
// several goroutines; operations are serialized.
type Session struct {
	transport transport.Transport
	opts      Options
	logger    *zap.Logger
	listener  Listener

	// opMu serializes Connect, PrintReceipt and Disconnect
	opMu sync.Mutex

	mu          sync.RWMutex
	requestedID string
	printer     *model.BluetoothPrinter
	link        transport.Link
	char        transport.Characteristic
	stats       Stats
}

// NewSession creates an empty, disconnected session
func NewSession(tr transport.Transport, opts Options, logger *zap.Logger) *Session {
	return &Session{
		transport: tr,
		opts:      opts.withDefaults(),
		logger:    logger.With(zap.String("transport", string(tr.Name()))),
		listener:  nopListener{},
	}
}

// SetListener installs l; nil restores the no-op listener
func (s *Session) SetListener(l Listener) {
	if l == nil {
		l = nopListener{}
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Connect opens a link to info and resolves its write characteristic,
// replacing any existing link.
func (s *Session) Connect(ctx context.Context, info *model.BluetoothPrinter) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	return s.connect(ctx, info)
}

func (s *Session) connect(ctx context.Context, info *model.BluetoothPrinter) error {
	if info == nil || strings.TrimSpace(info.ID) == "" {
		return newError("connect", "read printer identity", ErrConfiguration, nil)
	}

	plog := utils.NewPrinterLogger(s.logger, info.ID, string(s.transport.Name()))

	if err := s.transport.Available(); err != nil {
		plog.LogConnection("connect", false, err)
		return newError("connect", "check transport", ErrUnsupportedPlatform, err)
	}

	s.teardown(nil)

	dev, err := s.findDevice(ctx, info.ID, plog)
	if err != nil {
		plog.LogConnection("connect", false, err)
		return err
	}

	link, err := dev.Connect(ctx)
	if err != nil {
		plog.LogConnection("connect", false, err)
		return newError("connect", "open link to "+dev.ID(), ErrConnection, err)
	}

	char, err := resolveCharacteristic(ctx, link)
	if err != nil {
		_ = link.Disconnect()
		plog.LogConnection("connect", false, err)
		if ctx.Err() != nil {
			return newError("connect", "resolve characteristic", ErrConnection, ctx.Err())
		}
		return newError("connect", "resolve characteristic", ErrIncompatibleDevice, err)
	}

	now := s.opts.Clock()
	printer := *info
	printer.ID = dev.ID()
	if printer.Name == "" {
		printer.Name = dev.Name()
	}
	printer.Transport = s.transport.Name()
	printer.ConnectedAt = &now

	s.mu.Lock()
	s.requestedID = info.ID
	s.printer = &printer
	s.link = link
	s.char = char
	s.stats.Connects++
	s.stats.LastActivity = now
	listener := s.listener
	s.mu.Unlock()

	go s.watch(link)

	plog.LogConnection("connect", true, nil)
	listener.PrinterConnected(printer)
	return nil
}

// findDevice prefers the already paired device and only falls back to a
// fresh selection when it cannot be found.
func (s *Session) findDevice(ctx context.Context, id string, plog *utils.PrinterLogger) (transport.Device, error) {
	dev, err := s.transport.KnownDevice(ctx, id)
	if err == nil {
		return dev, nil
	}
	if ctx.Err() != nil {
		return nil, newError("connect", "find paired device", ErrConnection, ctx.Err())
	}
	plog.Debug("Paired device not found, requesting a new one", zap.Error(err))

	dev, err = s.transport.RequestDevice(ctx, transport.ServiceUUIDs())
	switch {
	case err == nil:
		return dev, nil
	case ctx.Err() != nil:
		return nil, newError("connect", "request device", ErrConnection, ctx.Err())
	case errors.Is(err, transport.ErrUnavailable):
		return nil, newError("connect", "request device", ErrUnsupportedPlatform, err)
	default:
		return nil, newError("connect", "request device", ErrDeviceNotFound, err)
	}
}

// resolveCharacteristic tries every allowed service against every allowed
// characteristic, in order, and returns the first that resolves.
func resolveCharacteristic(ctx context.Context, link transport.Link) (transport.Characteristic, error) {
	var lastErr error
	for _, svc := range transport.ServiceUUIDs() {
		for _, chr := range transport.CharacteristicUUIDs() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			c, err := link.Characteristic(ctx, svc, chr)
			if err == nil {
				return c, nil
			}
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = transport.ErrNoCharacteristic
	}
	return nil, lastErr
}

// watch clears the session when the transport drops the link
func (s *Session) watch(link transport.Link) {
	<-link.Disconnected()

	s.mu.Lock()
	if s.link != link {
		s.mu.Unlock()
		return
	}
	printer := s.clearLocked()
	listener := s.listener
	s.mu.Unlock()

	s.logger.Warn("Printer link lost", zap.String("printer_id", printer.ID))
	listener.PrinterDisconnected(printer, transport.ErrClosed)
}

// PrintReceipt lays out and transmits one receipt. It connects first when
// the session has no live link.
func (s *Session) PrintReceipt(ctx context.Context, order *model.Order, restaurant *model.Restaurant, cfg *model.PrinterConfig) (Result, error) {
	if cfg == nil || cfg.BluetoothPrinter == nil {
		return Result{}, newError("print", "read printer config", ErrNotConfigured, nil)
	}
	snapshot := cfg.Snapshot()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	start := time.Now()
	var res Result

	char, ok := s.liveCharacteristic(snapshot.BluetoothPrinter.ID)
	if !ok {
		s.mu.RLock()
		// a first lazy connect is not a reconnect
		reconnect := s.stats.Connects > 0
		s.mu.RUnlock()

		if err := s.connect(ctx, snapshot.BluetoothPrinter); err != nil {
			s.recordFailure()
			return res, err
		}
		if reconnect {
			s.mu.Lock()
			s.stats.Reconnects++
			s.mu.Unlock()
		}
		res.Reconnected = reconnect
		char, _ = s.liveCharacteristic(snapshot.BluetoothPrinter.ID)
		if char == nil {
			// dropped again between connect and first write
			s.recordFailure()
			return res, newError("print", "reconnect", ErrPrintTransport, transport.ErrClosed)
		}
	}

	enc := s.opts.Encoding
	if snapshot.CodePage != "" {
		e, err := receipt.LookupEncoding(snapshot.CodePage)
		if err != nil {
			s.logger.Warn("Ignoring printer code page", zap.Error(err))
		} else {
			enc = e
		}
	}

	parts := receipt.Build(order, restaurant, snapshot, receipt.Options{Now: s.opts.Clock()})
	fragments := receipt.Encode(parts, commandset.GetCommands(snapshot.CommandSet), enc)
	res.Fragments = len(fragments)

	err := s.send(ctx, char, fragments, &res)
	res.Duration = time.Since(start)

	ref := ""
	if order != nil {
		ref = order.Reference()
	}
	plog := utils.NewPrinterLogger(s.logger, snapshot.BluetoothPrinter.ID, string(s.transport.Name()))
	plog.LogReceipt(ref, res.Bytes, res.Writes, res.Duration, err)

	if err != nil {
		s.recordFailure()
		s.teardown(err)
		return res, err
	}

	s.mu.Lock()
	s.stats.Receipts++
	s.mu.Unlock()
	return res, nil
}

// send writes every fragment in order, split into chunks, pausing after
// each write.
func (s *Session) send(ctx context.Context, char transport.Characteristic, fragments []receipt.Fragment, res *Result) error {
	size := s.opts.ChunkSize
	for i, f := range fragments {
		for off := 0; off < len(f.Data); off += size {
			end := min(off+size, len(f.Data))

			wctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
			err := char.Write(wctx, f.Data[off:end])
			cancel()
			if err != nil {
				return newError("print", fmt.Sprintf("write %d/%d %s", i+1, len(fragments), f.Label), ErrPrintTransport, err)
			}

			res.Writes++
			res.Bytes += end - off
			s.recordWrite(end - off)

			if err := pause(ctx, s.opts.WriteDelay); err != nil {
				return newError("print", fmt.Sprintf("pause after %s", f.Label), ErrPrintTransport, err)
			}
		}
	}
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// liveCharacteristic returns the write channel when the link is up and
// belongs to the printer identified by id.
func (s *Session) liveCharacteristic(id string) (transport.Characteristic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.link == nil || s.char == nil || s.requestedID != id {
		return nil, false
	}
	select {
	case <-s.link.Disconnected():
		return nil, false
	default:
		return s.char, true
	}
}

// Disconnect closes the link, if any. Calling it on a disconnected session
// does nothing.
func (s *Session) Disconnect() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	return s.teardown(nil)
}

// teardown clears the session and closes its link. reason is passed to the
// listener; nil means the caller asked for it.
func (s *Session) teardown(reason error) error {
	s.mu.Lock()
	link := s.link
	if link == nil {
		s.clearLocked()
		s.mu.Unlock()
		return nil
	}
	printer := s.clearLocked()
	listener := s.listener
	s.mu.Unlock()

	err := link.Disconnect()

	plog := utils.NewPrinterLogger(s.logger, printer.ID, string(s.transport.Name()))
	plog.LogConnection("disconnect", err == nil, err)
	listener.PrinterDisconnected(printer, reason)

	if err != nil {
		return newError("disconnect", "close link", ErrConnection, err)
	}
	return nil
}

func (s *Session) clearLocked() model.BluetoothPrinter {
	var printer model.BluetoothPrinter
	if s.printer != nil {
		printer = *s.printer
	}
	s.printer = nil
	s.link = nil
	s.char = nil
	s.requestedID = ""
	return printer
}

func (s *Session) recordWrite(n int) {
	s.mu.Lock()
	s.stats.Writes++
	s.stats.BytesWritten += int64(n)
	s.stats.LastActivity = s.opts.Clock()
	s.mu.Unlock()
}

func (s *Session) recordFailure() {
	s.mu.Lock()
	s.stats.Failures++
	s.mu.Unlock()
}

// Status returns the current state and counters
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:     StateDisconnected,
		Transport: s.transport.Name(),
		Stats:     s.stats,
	}
	if s.link != nil && s.char != nil {
		st.State = StateConnected
		p := *s.printer
		st.Printer = &p
	}
	return st
}

// Connected reports whether the session holds a live link
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.link == nil || s.char == nil {
		return false
	}
	select {
	case <-s.link.Disconnected():
		return false
	default:
		return true
	}
}
