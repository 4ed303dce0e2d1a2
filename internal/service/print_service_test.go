package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printer-service/internal/model"
	"printer-service/internal/printer"
	"printer-service/internal/repository"
)

func TestSubmitAndWait(t *testing.T) {
	f := newFixture(t, testConfig())
	p := f.tr.add("AA:BB")

	job, err := f.svc.Submit(context.Background(), &PrintRequest{
		Order: order(), Restaurant: restaurant(), Config: printerConfig("AA:BB"), Wait: true,
	})
	require.NoError(t, err)

	assert.Equal(t, model.JobStatusSuccess, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, "AA:BB", job.PrinterID)
	assert.Equal(t, model.TransportBluetooth, job.Transport)
	assert.Equal(t, "7", job.OrderReference)
	assert.Equal(t, "esc_pos", job.CommandSet)
	assert.Equal(t, "Pizza Place", job.Metadata["restaurant"])
	assert.Nil(t, job.ErrorCode)
	require.NotNil(t, job.CompletedAt)
	assert.EqualValues(t, len(p.String()), job.BytesWritten)

	assert.Contains(t, p.String(), "ORDER 7")
	assert.Contains(t, p.String(), "Delivery:")
	assert.Equal(t, 1, p.openCount())

	types := f.events.types()
	assert.Contains(t, types, model.EventPrinterConnected)
	assert.Contains(t, types, model.EventJobQueued)
	assert.Contains(t, types, model.EventJobStarted)
	assert.Equal(t, model.EventJobCompleted, types[len(types)-1])
}

func TestSubmitWithoutWaitReturnsQueuedJob(t *testing.T) {
	f := newFixture(t, testConfig())
	f.tr.add("AA:BB")

	job, err := f.svc.Submit(context.Background(), &PrintRequest{
		Order: order(), Restaurant: restaurant(), Config: printerConfig("AA:BB"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, job.Status)

	require.Eventually(t, func() bool {
		stored, err := f.svc.GetJob(context.Background(), job.ID)
		return err == nil && stored.Status == model.JobStatusSuccess
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Submit(ctx, &PrintRequest{Order: order()})
	assert.ErrorIs(t, err, printer.ErrNotConfigured)
	assert.Equal(t, "NOT_CONFIGURED", ErrorCode(err))

	_, err = f.svc.Submit(ctx, &PrintRequest{Order: order(), Config: printerConfig(" ")})
	assert.ErrorIs(t, err, printer.ErrConfiguration)

	_, err = f.svc.Submit(ctx, &PrintRequest{Config: printerConfig("AA:BB")})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, "VALIDATION_ERROR", ErrorCode(err))

	cfg := printerConfig("10.0.0.5")
	cfg.BluetoothPrinter.Transport = model.TransportTCP
	_, err = f.svc.Submit(ctx, &PrintRequest{Order: order(), Config: cfg})
	assert.ErrorIs(t, err, printer.ErrUnsupportedPlatform)

	_, total, err := f.svc.ListJobs(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, total, "rejected requests leave no job")
}

func TestSubmitRetriesTransportFailure(t *testing.T) {
	f := newFixture(t, testConfig())
	p := f.tr.add("AA:BB")
	p.failWrites = 1

	job, err := f.svc.Submit(context.Background(), &PrintRequest{
		Order: order(), Restaurant: restaurant(), Config: printerConfig("AA:BB"), Wait: true,
	})
	require.NoError(t, err)

	assert.Equal(t, model.JobStatusSuccess, job.Status)
	assert.Equal(t, 2, job.Attempts)
	assert.Equal(t, 2, p.openCount(), "failed write drops the link, retry reconnects")
	require.Eventually(t, func() bool {
		for _, typ := range f.events.types() {
			if typ == model.EventPrinterDisconnected {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestSubmitFailsAfterRetries(t *testing.T) {
	f := newFixture(t, testConfig())
	p := f.tr.add("AA:BB")
	p.failWrites = 100

	job, err := f.svc.Submit(context.Background(), &PrintRequest{
		Order: order(), Restaurant: restaurant(), Config: printerConfig("AA:BB"), Wait: true,
	})
	require.NoError(t, err, "job failures are reported on the job")

	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, 2, job.Attempts)
	require.NotNil(t, job.ErrorCode)
	assert.Equal(t, "PRINT_TRANSPORT_ERROR", *job.ErrorCode)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, errPaperJam.Error())

	assert.Contains(t, f.events.types(), model.EventJobFailed)
}

func TestSubmitDoesNotRetryPermanentFailure(t *testing.T) {
	f := newFixture(t, testConfig())
	f.tr.add("AA:BB")
	f.tr.unavailable = errors.New("adapter powered off")

	job, err := f.svc.Submit(context.Background(), &PrintRequest{
		Order: order(), Config: printerConfig("AA:BB"), Wait: true,
	})
	require.NoError(t, err)

	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.ErrorCode)
	assert.Equal(t, "UNSUPPORTED_PLATFORM", *job.ErrorCode)
}

func TestSubmitQueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.Queue.Size = 1
	f := newFixture(t, cfg)
	p := f.tr.add("AA:BB")
	p.gate = make(chan struct{})
	ctx := context.Background()

	req := &PrintRequest{Order: order(), Config: printerConfig("AA:BB")}

	first, err := f.svc.Submit(ctx, req)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		j, err := f.svc.GetJob(ctx, first.ID)
		return err == nil && j.Status == model.JobStatusPrinting
	}, 2*time.Second, 5*time.Millisecond)

	_, err = f.svc.Submit(ctx, req)
	require.NoError(t, err, "one job fits in the queue")

	rejected, err := f.svc.Submit(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, "QUEUE_FULL", ErrorCode(err))
	require.NotNil(t, rejected)
	assert.Equal(t, model.JobStatusFailed, rejected.Status)

	stored, err := f.svc.GetJob(ctx, rejected.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ErrorCode)
	assert.Equal(t, "QUEUE_FULL", *stored.ErrorCode)

	close(p.gate)

	success := model.JobStatusSuccess
	require.Eventually(t, func() bool {
		_, n, err := f.svc.ListJobs(ctx, &repository.JobFilter{Status: &success})
		return err == nil && n == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestConnectAndDisconnect(t *testing.T) {
	f := newFixture(t, testConfig())
	f.tr.add("AA:BB")
	ctx := context.Background()

	st, err := f.svc.Connect(ctx, &model.BluetoothPrinter{ID: "AA:BB"})
	require.NoError(t, err)
	assert.Equal(t, printer.StateConnected, st.Session.State)

	printers := f.svc.Printers()
	require.Len(t, printers, 1)
	assert.Equal(t, "AA:BB", printers[0].ID)
	assert.Equal(t, model.TransportBluetooth, printers[0].Transport)

	require.NoError(t, f.svc.Disconnect("", "AA:BB"))
	require.NoError(t, f.svc.Disconnect(model.TransportBluetooth, "AA:BB"), "disconnect is idempotent")
	assert.Equal(t, printer.StateDisconnected, f.svc.Printers()[0].Session.State)

	err = f.svc.Disconnect(model.TransportBluetooth, "CC:DD")
	assert.ErrorIs(t, err, ErrPrinterNotFound)

	_, err = f.svc.Connect(ctx, &model.BluetoothPrinter{ID: "CC:DD"})
	assert.ErrorIs(t, err, printer.ErrDeviceNotFound)

	_, err = f.svc.Connect(ctx, &model.BluetoothPrinter{})
	assert.ErrorIs(t, err, printer.ErrConfiguration)
}

func TestTestPrint(t *testing.T) {
	f := newFixture(t, testConfig())
	p := f.tr.add("AA:BB")

	job, err := f.svc.TestPrint(context.Background(), printerConfig("AA:BB"))
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSuccess, job.Status)
	assert.Equal(t, "TEST", job.OrderReference)
	assert.Contains(t, p.String(), "Printer Test")
	assert.Contains(t, p.String(), "Notes: Printer test")
}

func TestCleanupJobs(t *testing.T) {
	f := newFixture(t, testConfig())
	f.tr.add("AA:BB")
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, &PrintRequest{Order: order(), Config: printerConfig("AA:BB"), Wait: true})
	require.NoError(t, err)

	n, err := f.svc.CleanupJobs(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n, "recent jobs are kept")

	n, err = f.svc.CleanupJobs(ctx, -time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCloseRejectsNewJobs(t *testing.T) {
	f := newFixture(t, testConfig())
	f.tr.add("AA:BB")
	ctx := context.Background()

	_, err := f.svc.Connect(ctx, &model.BluetoothPrinter{ID: "AA:BB"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Close(ctx))
	require.NoError(t, f.svc.Close(ctx))

	_, err = f.svc.Submit(ctx, &PrintRequest{Order: order(), Config: printerConfig("AA:BB")})
	assert.ErrorIs(t, err, ErrServiceClosed)
	assert.Equal(t, printer.StateDisconnected, f.svc.Printers()[0].Session.State)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "PRINTER_NOT_FOUND", ErrorCode(ErrPrinterNotFound))
	assert.Equal(t, "JOB_NOT_FOUND", ErrorCode(repository.ErrJobNotFound))
	assert.Equal(t, "SERVICE_CLOSED", ErrorCode(ErrServiceClosed))
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(errors.New("boom")))
}
