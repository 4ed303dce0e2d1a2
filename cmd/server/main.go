// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "printer-service/docs"
	"printer-service/internal/config"
	"printer-service/internal/database"
	"printer-service/internal/handler"
	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/routes"
	"printer-service/internal/service"
	"printer-service/internal/transport"
	"printer-service/internal/transport/bluetooth"
	"printer-service/internal/transport/serial"
	"printer-service/internal/transport/tcp"
	"printer-service/internal/transport/usb"
	"printer-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	// Transports
	registry *transport.Registry
	closers  []io.Closer

	// Services
	eventBus         *handler.EventBus
	printService     *service.PrintService
	discoveryService *service.DiscoveryService
	receiptService   *service.ReceiptService

	// Repositories
	jobRepo repository.JobRepository

	stopBackground context.CancelFunc
}

// @title Printer Service API
// @version 1.0.0
// @description Receipt printing for thermal printers over Bluetooth, serial, USB and TCP

// @contact.name Printer Service API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8085
// @BasePath /api/v1
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "printer-service")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg.Redacted())

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initializeRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := app.initializeTransports(); err != nil {
		return nil, fmt.Errorf("failed to initialize transports: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeDatabase connects to Postgres and applies migrations when
// job history is persisted
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Info("Database disabled, job history kept in memory")
		return nil
	}

	db, err := database.NewConnection(&app.config.Database, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	if app.config.Database.MigrateOnStart {
		if err := database.NewMigrator(db, app.logger).Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates repository instances
func (app *Application) initializeRepositories() error {
	if app.database != nil {
		app.jobRepo = repository.NewJobRepository(app.database, app.logger)
	} else {
		app.jobRepo = repository.NewMemoryJobRepository(app.logger)
	}

	app.logger.Info("Repositories initialized successfully")
	return nil
}

// initializeTransports registers the enabled printer transports
func (app *Application) initializeTransports() error {
	ports := app.config.Device.Ports
	defaultKind, ok := model.ParseTransportKind(app.config.Device.DefaultTransport)
	if !ok {
		return fmt.Errorf("unknown default transport %q", app.config.Device.DefaultTransport)
	}
	app.registry = transport.NewRegistry(defaultKind, app.logger)

	if ports.Bluetooth.Enabled {
		bt := bluetooth.New(bluetooth.Options{
			HCIDevice:      ports.Bluetooth.HCIDevice,
			ScanTimeout:    ports.Bluetooth.ScanTimeout,
			ConnectTimeout: ports.Bluetooth.ConnectTimeout,
		}, app.logger)
		app.registry.Register(bt)
		app.closers = append(app.closers, bt)
	}

	if ports.Serial.Enabled {
		app.registry.Register(serial.New(serial.Options{
			BaudRate: ports.Serial.BaudRate,
			Parity:   ports.Serial.Parity,
			Patterns: ports.Serial.Patterns,
		}, app.logger))
	}

	if ports.TCP.Enabled {
		app.registry.Register(tcp.New(tcp.Options{
			DialTimeout: ports.TCP.ConnectTimeout,
			KeepAlive:   ports.TCP.KeepAlive,
			Hosts:       ports.TCP.Hosts,
		}, app.logger))
	}

	if ports.USB.Enabled {
		u := usb.New(app.logger)
		app.registry.Register(u)
		app.closers = append(app.closers, u)
	}

	app.logger.Info("Transports initialized successfully",
		zap.Int("registered_transports", len(app.registry.Kinds())),
		zap.String("default", string(defaultKind)),
	)
	return nil
}

// initializeServices creates service instances
func (app *Application) initializeServices() error {
	app.eventBus = handler.NewEventBus(app.logger)

	printService, err := service.NewPrintService(
		app.registry,
		app.jobRepo,
		app.eventBus,
		app.config,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create print service: %w", err)
	}
	app.printService = printService

	app.discoveryService = service.NewDiscoveryService(app.registry, app.logger)

	receiptService, err := service.NewReceiptService(app.config.Device.CodePage, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create receipt service: %w", err)
	}
	app.receiptService = receiptService

	app.logger.Info("Services initialized successfully")
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	var db handler.HealthChecker
	if app.database != nil {
		db = app.database
	}

	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		db,
		app.registry,
		app.eventBus,
		app.printService,
		app.discoveryService,
		app.receiptService,
	)

	router := routerManager.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)

	return nil
}

// startBackgroundServices starts background services
func (app *Application) startBackgroundServices() {
	ctx, cancel := context.WithCancel(context.Background())
	app.stopBackground = cancel

	go app.eventBus.Start()
	go app.startCleanupService(ctx)

	app.logger.Info("Background services started")
}

// startCleanupService removes finished jobs past their retention
func (app *Application) startCleanupService(ctx context.Context) {
	retention := app.config.Jobs.Retention
	interval := app.config.Jobs.CleanupInterval
	if retention <= 0 || interval <= 0 {
		app.logger.Info("Job cleanup disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	app.logger.Info("Job cleanup started",
		zap.Duration("interval", interval),
		zap.Duration("retention", retention),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, time.Minute)
			if _, err := app.printService.CleanupJobs(runCtx, retention); err != nil {
				app.logger.Error("Failed to clean up print jobs", zap.Error(err))
			}
			cancel()
		}
	}
}

// waitForShutdown waits for a shutdown signal or a server failure and
// performs graceful shutdown
func (app *Application) waitForShutdown(serverErr <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var err error
	select {
	case sig := <-quit:
		app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err = <-serverErr:
		err = fmt.Errorf("http server: %w", err)
	}

	app.shutdown()
	return err
}

// shutdown stops the server first so no new jobs arrive, then drains
// the printer queues
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "printer-service")
	serviceLogger.LogServiceStop("shutdown signal received")

	timeout := app.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if app.stopBackground != nil {
		app.stopBackground()
	}

	if err := app.printService.Close(ctx); err != nil {
		app.logger.Error("Print service shutdown error", zap.Error(err))
	} else {
		app.logger.Info("Print service stopped")
	}

	app.eventBus.Stop()

	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.logger.Warn("Transport close error", zap.Error(err))
		}
	}

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start runs the server until a shutdown signal arrives
func (app *Application) Start() error {
	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	app.startBackgroundServices()

	return app.waitForShutdown(errCh)
}
