package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/config"
	"printer-service/internal/handler"
	"printer-service/internal/middleware"
	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/service"
	"printer-service/internal/transport"
)

func TestSetupRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	cfg := &config.Config{
		App:    config.AppConfig{Name: "printer-service", Environment: "test"},
		Device: config.DeviceConfig{ChunkSize: 20, WriteTimeout: time.Second, JobTimeout: time.Second},
		Queue:  config.QueueConfig{Size: 1},
	}

	registry := transport.NewRegistry(model.TransportBluetooth, logger)
	bus := handler.NewEventBus(logger)
	go bus.Start()
	defer bus.Stop()

	printService, err := service.NewPrintService(registry, repository.NewMemoryJobRepository(logger), bus, cfg, logger)
	require.NoError(t, err)
	receiptService, err := service.NewReceiptService("", logger)
	require.NoError(t, err)

	router := NewRouter(cfg, logger, nil, registry, bus, printService,
		service.NewDiscoveryService(registry, logger), receiptService).SetupRouter()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/live", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/api/v1/printers", http.StatusOK},
		{http.MethodGet, "/api/v1/jobs", http.StatusOK},
		{http.MethodGet, "/api/v1/command-sets", http.StatusOK},
		{http.MethodGet, "/ws/stats", http.StatusOK},
		{http.MethodGet, "/docs", http.StatusMovedPermanently},
		{http.MethodGet, "/api/v1/devices", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}
