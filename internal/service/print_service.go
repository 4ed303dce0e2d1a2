// internal/service/print_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/model"
	"printer-service/internal/printer"
	"printer-service/internal/receipt"
	"printer-service/internal/repository"
	"printer-service/internal/transport"
	"printer-service/internal/utils"
	"printer-service/pkg/commandset"
)

// PrintService owns one printer session per printer and feeds each from
// its own bounded job queue, so receipts for a printer never interleave.
type PrintService struct {
	registry *transport.Registry
	jobRepo  repository.JobRepository
	events   EventPublisher
	config   *config.Config
	logger   *utils.ServiceLogger
	opts     printer.Options

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	workers map[printerKey]*worker
	closed  bool
	wg      sync.WaitGroup
}

type printerKey struct {
	transport model.TransportKind
	id        string
}

type worker struct {
	key     printerKey
	session *printer.Session
	jobs    chan *queuedJob
}

type queuedJob struct {
	job  *model.PrintJob
	req  *PrintRequest
	done chan struct{}
}

// PrintRequest is one receipt to print
type PrintRequest struct {
	Order      *model.Order         `json:"order"`
	Restaurant *model.Restaurant    `json:"restaurant"`
	Config     *model.PrinterConfig `json:"config"`
	// Wait blocks Submit until the job has finished
	Wait bool `json:"wait"`
}

// PrinterState is one printer as seen by the service
type PrinterState struct {
	ID          string              `json:"id"`
	Transport   model.TransportKind `json:"transport"`
	QueueLength int                 `json:"queue_length"`
	Session     printer.Status      `json:"session"`
}

// NewPrintService creates the service. events may be nil.
func NewPrintService(
	registry *transport.Registry,
	jobRepo repository.JobRepository,
	events EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) (*PrintService, error) {
	enc, err := receipt.LookupEncoding(cfg.Device.CodePage)
	if err != nil {
		return nil, fmt.Errorf("invalid device code page: %w", err)
	}
	if events == nil {
		events = nopPublisher{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &PrintService{
		registry: registry,
		jobRepo:  jobRepo,
		events:   events,
		config:   cfg,
		logger:   utils.NewServiceLogger(logger, "print-service"),
		opts: printer.Options{
			ChunkSize:    cfg.Device.ChunkSize,
			WriteDelay:   cfg.Device.WriteDelay,
			WriteTimeout: cfg.Device.WriteTimeout,
			Encoding:     enc,
			Clock:        time.Now,
		},
		ctx:     ctx,
		cancel:  cancel,
		workers: make(map[printerKey]*worker),
	}, nil
}

// Submit records a job and queues it on the printer's worker. With
// req.Wait set it returns the finished job.
func (ps *PrintService) Submit(ctx context.Context, req *PrintRequest) (*model.PrintJob, error) {
	if err := validatePrintRequest(req); err != nil {
		return nil, err
	}

	w, err := ps.workerFor(req.Config.BluetoothPrinter)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job := &model.PrintJob{
		ID:             uuid.New(),
		PrinterID:      w.key.id,
		Transport:      w.key.transport,
		OrderID:        req.Order.ID,
		OrderReference: req.Order.Reference(),
		CommandSet:     commandset.GetCommands(req.Config.CommandSet).ID.String(),
		Template:       req.Config.Template,
		Status:         model.JobStatusQueued,
		Metadata:       model.JSONObject{},
		CreatedAt:      now,
	}
	if req.Restaurant != nil {
		job.Metadata["restaurant"] = req.Restaurant.Name
	}

	if err := ps.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to store print job: %w", err)
	}

	// the worker owns its copies from here on
	cfg := req.Config.Snapshot()
	qj := &queuedJob{
		job:  job.Clone(),
		req:  &PrintRequest{Order: req.Order, Restaurant: req.Restaurant, Config: &cfg},
		done: make(chan struct{}),
	}

	ps.publish(model.EventJobQueued, job, nil)
	if err := ps.enqueue(w, qj); err != nil {
		ps.finish(job, now, err)
		return job, err
	}
	ps.logger.Info("Print job queued",
		zap.String("job_id", job.ID.String()),
		zap.String("printer_id", job.PrinterID),
		zap.String("order", job.OrderReference),
	)

	if !req.Wait {
		return job, nil
	}

	select {
	case <-qj.done:
		return ps.jobRepo.GetByID(ctx, job.ID)
	case <-ctx.Done():
		return job, ctx.Err()
	}
}

func validatePrintRequest(req *PrintRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	if req.Config == nil || req.Config.BluetoothPrinter == nil {
		return fmt.Errorf("%w: printer config has no printer", printer.ErrNotConfigured)
	}
	if strings.TrimSpace(req.Config.BluetoothPrinter.ID) == "" {
		return fmt.Errorf("%w: printer id is empty", printer.ErrConfiguration)
	}
	if req.Order == nil {
		return fmt.Errorf("%w: order is required", ErrInvalidRequest)
	}
	if err := req.Order.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func (ps *PrintService) enqueue(w *worker, qj *queuedJob) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.closed {
		return ErrServiceClosed
	}
	select {
	case w.jobs <- qj:
		return nil
	default:
		return fmt.Errorf("%w: %d jobs waiting for %s", ErrQueueFull, len(w.jobs), w.key.id)
	}
}

// workerFor returns the worker for info, starting one on first use
func (ps *PrintService) workerFor(info *model.BluetoothPrinter) (*worker, error) {
	tr, err := ps.registry.Get(info.Transport)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", printer.ErrUnsupportedPlatform, err)
	}
	key := printerKey{transport: tr.Name(), id: strings.TrimSpace(info.ID)}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.closed {
		return nil, ErrServiceClosed
	}
	if w, ok := ps.workers[key]; ok {
		return w, nil
	}

	w := &worker{
		key:     key,
		session: printer.NewSession(tr, ps.opts, ps.logger.Logger),
		jobs:    make(chan *queuedJob, ps.config.Queue.Size),
	}
	w.session.SetListener(&sessionEvents{ps: ps, key: key})
	ps.workers[key] = w

	ps.wg.Add(1)
	go ps.run(w)

	ps.logger.Info("Printer worker started",
		zap.String("printer_id", key.id),
		zap.String("transport", string(key.transport)),
	)
	return w, nil
}

func (ps *PrintService) lookup(kind model.TransportKind, id string) (*worker, error) {
	if kind == "" {
		kind = ps.registry.Default()
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	w, ok := ps.workers[printerKey{transport: kind, id: id}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrPrinterNotFound, kind, id)
	}
	return w, nil
}

func (ps *PrintService) run(w *worker) {
	defer ps.wg.Done()
	for qj := range w.jobs {
		ps.process(w, qj)
	}
}

// process prints one job, retrying retryable failures
func (ps *PrintService) process(w *worker, qj *queuedJob) {
	defer close(qj.done)

	job := qj.job
	jl := utils.NewJobLogger(ps.logger.Logger, job.ID.String(), job.PrinterID)

	started := time.Now()
	job.Status = model.JobStatusPrinting
	job.StartedAt = &started
	ps.save(job)
	ps.publish(model.EventJobStarted, job, nil)
	jl.Start(zap.String("order", job.OrderReference))

	var res printer.Result
	var err error
	for attempt := 1; ; attempt++ {
		job.Attempts = attempt
		res, err = ps.printOnce(w, qj.req)
		if err == nil || !printer.IsRetryable(err) || attempt > ps.config.Queue.RetryAttempts {
			break
		}

		jl.Retry(attempt, ps.config.Queue.RetryDelay, err)
		if ps.sleep(ps.config.Queue.RetryDelay) != nil {
			break
		}
	}

	job.BytesWritten = int64(res.Bytes)
	job.Metadata["fragments"] = res.Fragments
	job.Metadata["writes"] = res.Writes
	job.Metadata["reconnected"] = res.Reconnected

	ps.finish(job, started, err)
	if err != nil {
		jl.Error(err, zap.Int("attempts", job.Attempts))
	} else {
		jl.Success(zap.Int("bytes", res.Bytes), zap.Int("attempts", job.Attempts))
	}
}

func (ps *PrintService) printOnce(w *worker, req *PrintRequest) (printer.Result, error) {
	ctx, cancel := context.WithTimeout(ps.ctx, ps.config.Device.JobTimeout)
	defer cancel()
	return w.session.PrintReceipt(ctx, req.Order, req.Restaurant, req.Config)
}

func (ps *PrintService) sleep(d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ps.ctx.Done():
		return ps.ctx.Err()
	}
}

// finish stamps the final status and publishes the outcome
func (ps *PrintService) finish(job *model.PrintJob, started time.Time, err error) {
	now := time.Now()
	ms := int(now.Sub(started).Milliseconds())
	job.CompletedAt = &now
	job.DurationMs = &ms

	if err == nil {
		job.Status = model.JobStatusSuccess
		ps.save(job)
		ps.publish(model.EventJobCompleted, job, nil)
		return
	}

	code, msg := ErrorCode(err), err.Error()
	job.Status = model.JobStatusFailed
	job.ErrorCode = &code
	job.ErrorMessage = &msg
	ps.save(job)
	ps.publish(model.EventJobFailed, job, err)
}

func (ps *PrintService) save(job *model.PrintJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ps.jobRepo.Update(ctx, job); err != nil {
		ps.logger.Error("Failed to update print job", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}

func (ps *PrintService) publish(t model.EventType, job *model.PrintJob, err error) {
	data := model.JSONObject{
		"status":   job.Status,
		"order":    job.OrderReference,
		"attempts": job.Attempts,
	}
	if err != nil {
		data["error"] = err.Error()
		data["error_code"] = ErrorCode(err)
	}
	ev := model.NewEvent(t, job.PrinterID, data)
	id := job.ID
	ev.JobID = &id
	ps.events.Publish(ev)
}

// ErrorCode maps service and printer errors to API codes
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrQueueFull):
		return "QUEUE_FULL"
	case errors.Is(err, ErrInvalidRequest):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrPrinterNotFound):
		return "PRINTER_NOT_FOUND"
	case errors.Is(err, ErrServiceClosed):
		return "SERVICE_CLOSED"
	case errors.Is(err, repository.ErrJobNotFound):
		return "JOB_NOT_FOUND"
	default:
		return printer.Code(err)
	}
}

// Connect opens a session to info ahead of the first print
func (ps *PrintService) Connect(ctx context.Context, info *model.BluetoothPrinter) (*PrinterState, error) {
	if info == nil || strings.TrimSpace(info.ID) == "" {
		return nil, fmt.Errorf("%w: printer id is empty", printer.ErrConfiguration)
	}
	w, err := ps.workerFor(info)
	if err != nil {
		return nil, err
	}
	if err := w.session.Connect(ctx, info); err != nil {
		return nil, err
	}
	st := ps.state(w)
	return &st, nil
}

// Disconnect closes the session of one printer
func (ps *PrintService) Disconnect(kind model.TransportKind, id string) error {
	w, err := ps.lookup(kind, id)
	if err != nil {
		return err
	}
	return w.session.Disconnect()
}

// Printers lists every printer the service has a session for
func (ps *PrintService) Printers() []PrinterState {
	ps.mu.Lock()
	workers := make([]*worker, 0, len(ps.workers))
	for _, w := range ps.workers {
		workers = append(workers, w)
	}
	ps.mu.Unlock()

	out := make([]PrinterState, 0, len(workers))
	for _, w := range workers {
		out = append(out, ps.state(w))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Transport != out[j].Transport {
			return out[i].Transport < out[j].Transport
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (ps *PrintService) state(w *worker) PrinterState {
	return PrinterState{
		ID:          w.key.id,
		Transport:   w.key.transport,
		QueueLength: len(w.jobs),
		Session:     w.session.Status(),
	}
}

// TestPrint prints the sample receipt on cfg's printer and waits for it
func (ps *PrintService) TestPrint(ctx context.Context, cfg *model.PrinterConfig) (*model.PrintJob, error) {
	return ps.Submit(ctx, &PrintRequest{
		Order:      SampleOrder(time.Now()),
		Restaurant: SampleRestaurant(),
		Config:     cfg,
		Wait:       true,
	})
}

// GetJob returns one job
func (ps *PrintService) GetJob(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	return ps.jobRepo.GetByID(ctx, id)
}

// ListJobs returns one page of job history
func (ps *PrintService) ListJobs(ctx context.Context, filter *repository.JobFilter) ([]*model.PrintJob, int, error) {
	return ps.jobRepo.List(ctx, filter)
}

// CleanupJobs removes finished jobs older than retention
func (ps *PrintService) CleanupJobs(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := ps.jobRepo.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up print jobs: %w", err)
	}
	if n > 0 {
		ps.logger.Info("Old print jobs removed", zap.Int64("count", n))
	}
	return n, nil
}

// Close stops accepting jobs, lets queued jobs finish until ctx ends and
// disconnects every printer.
func (ps *PrintService) Close(ctx context.Context) error {
	ps.mu.Lock()
	if ps.closed {
		ps.mu.Unlock()
		return nil
	}
	ps.closed = true
	workers := make([]*worker, 0, len(ps.workers))
	for _, w := range ps.workers {
		close(w.jobs)
		workers = append(workers, w)
	}
	ps.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		ps.wg.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = fmt.Errorf("print queues not drained: %w", ctx.Err())
		ps.cancel()
		<-drained
	}
	ps.cancel()

	for _, w := range workers {
		if derr := w.session.Disconnect(); derr != nil {
			ps.logger.Warn("Failed to disconnect printer", zap.String("printer_id", w.key.id), zap.Error(derr))
		}
	}
	ps.logger.LogServiceStop("closed")
	return err
}

// sessionEvents turns session callbacks into published events
type sessionEvents struct {
	ps  *PrintService
	key printerKey
}

func (se *sessionEvents) PrinterConnected(p model.BluetoothPrinter) {
	se.ps.events.Publish(model.NewEvent(model.EventPrinterConnected, se.key.id, model.JSONObject{
		"transport": p.Transport,
		"device_id": p.ID,
		"name":      p.Name,
	}))
}

func (se *sessionEvents) PrinterDisconnected(p model.BluetoothPrinter, reason error) {
	data := model.JSONObject{
		"transport": se.key.transport,
		"device_id": p.ID,
	}
	if reason != nil {
		data["reason"] = reason.Error()
	}
	se.ps.events.Publish(model.NewEvent(model.EventPrinterDisconnected, se.key.id, data))
}
