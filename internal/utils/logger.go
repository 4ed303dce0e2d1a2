// internal/utils/logger.go
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"printer-service/internal/config"
)

// NewLogger builds the zap logger described by cfg
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	writeSyncer, err := newWriteSyncer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create write syncer: %w", err)
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), writeSyncer, level)

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// newEncoder returns a json encoder unless console output is requested
func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.MessageKey = "message"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	ec.EncodeLevel = zapcore.LowercaseLevelEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder

	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// newWriteSyncer maps the output setting to stdout, stderr or a rotated file
func newWriteSyncer(cfg *config.LoggingConfig) (zapcore.WriteSyncer, error) {
	switch cfg.Output {
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}

	path := cfg.Output
	if path == "" {
		path = "./logs/printer-service.log"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   cfg.Compress,
	}), nil
}

// PrinterLogger wraps zap.Logger with printer-scoped fields
type PrinterLogger struct {
	*zap.Logger
	printerID string
	transport string
}

// NewPrinterLogger creates a printer-specific logger
func NewPrinterLogger(baseLogger *zap.Logger, printerID, transport string) *PrinterLogger {
	logger := baseLogger.With(
		zap.String("printer_id", printerID),
		zap.String("transport", transport),
		zap.String("component", "printer"),
	)

	return &PrinterLogger{
		Logger:    logger,
		printerID: printerID,
		transport: transport,
	}
}

// LogConnection logs connection events
func (pl *PrinterLogger) LogConnection(action string, success bool, err error) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.Bool("success", success),
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
		pl.Error("Printer connection event", fields...)
	} else {
		pl.Info("Printer connection event", fields...)
	}
}

// LogReceipt logs a finished receipt transfer
func (pl *PrinterLogger) LogReceipt(orderRef string, bytes, writes int, duration time.Duration, err error) {
	fields := []zap.Field{
		zap.String("order", orderRef),
		zap.Int("bytes", bytes),
		zap.Int("writes", writes),
		zap.Duration("duration", duration),
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
		pl.Error("Receipt transfer failed", fields...)
	} else {
		pl.Info("Receipt transferred", fields...)
	}
}

// JobLogger provides structured logging for print jobs
type JobLogger struct {
	logger    *zap.Logger
	jobID     string
	startTime time.Time
}

// NewJobLogger creates a job-specific logger
func NewJobLogger(baseLogger *zap.Logger, jobID, printerID string) *JobLogger {
	logger := baseLogger.With(
		zap.String("job_id", jobID),
		zap.String("printer_id", printerID),
		zap.String("component", "job"),
	)

	return &JobLogger{
		logger:    logger,
		jobID:     jobID,
		startTime: time.Now(),
	}
}

// Start logs job start
func (jl *JobLogger) Start(fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Time("start_time", jl.startTime),
	}, fields...)

	jl.logger.Info("Print job started", allFields...)
}

// Success logs successful job completion
func (jl *JobLogger) Success(fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Duration("duration", time.Since(jl.startTime)),
		zap.Bool("success", true),
	}, fields...)

	jl.logger.Info("Print job completed", allFields...)
}

// Error logs job failure
func (jl *JobLogger) Error(err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Duration("duration", time.Since(jl.startTime)),
		zap.Bool("success", false),
		zap.Error(err),
	}, fields...)

	jl.logger.Error("Print job failed", allFields...)
}

// Retry logs a retry after a retryable failure
func (jl *JobLogger) Retry(attempt int, delay time.Duration, err error) {
	jl.logger.Warn("Retrying print job",
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
		zap.Error(err),
	)
}

// ServiceLogger provides service-level logging functionality
type ServiceLogger struct {
	*zap.Logger
	serviceName string
}

// NewServiceLogger creates a service-specific logger
func NewServiceLogger(baseLogger *zap.Logger, serviceName string) *ServiceLogger {
	logger := baseLogger.With(
		zap.String("service", serviceName),
		zap.String("component", "service"),
	)

	return &ServiceLogger{
		Logger:      logger,
		serviceName: serviceName,
	}
}

// LogServiceStart logs service startup
func (sl *ServiceLogger) LogServiceStart(version string, config interface{}) {
	sl.Info("Service starting",
		zap.String("version", version),
		zap.Any("config", config),
	)
}

// LogServiceStop logs service shutdown
func (sl *ServiceLogger) LogServiceStop(reason string) {
	sl.Info("Service stopping",
		zap.String("reason", reason),
	)
}

// LogAPIRequest logs HTTP API requests at a level matching the status
func (sl *ServiceLogger) LogAPIRequest(requestID, method, path, clientIP string, statusCode int, duration time.Duration) {
	level := zapcore.InfoLevel
	if statusCode >= 400 {
		level = zapcore.WarnLevel
	}
	if statusCode >= 500 {
		level = zapcore.ErrorLevel
	}

	if ce := sl.Check(level, "API request"); ce != nil {
		ce.Write(
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("client_ip", clientIP),
			zap.Int("status_code", statusCode),
			zap.Duration("duration", duration),
		)
	}
}

// LoggerWithRequestID adds request ID to logger
func LoggerWithRequestID(logger *zap.Logger, requestID string) *zap.Logger {
	return logger.With(zap.String("request_id", requestID))
}

// CloseLogger flushes buffered entries
func CloseLogger(logger *zap.Logger) error {
	return logger.Sync()
}
