// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/handler"
	"printer-service/internal/middleware"
	"printer-service/internal/service"
	"printer-service/internal/transport"
	"printer-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config           *config.Config
	logger           *zap.Logger
	db               handler.HealthChecker
	registry         *transport.Registry
	eventBus         *handler.EventBus
	printService     *service.PrintService
	discoveryService *service.DiscoveryService
	receiptService   *service.ReceiptService
}

// NewRouter creates a new router instance. db may be nil.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db handler.HealthChecker,
	registry *transport.Registry,
	eventBus *handler.EventBus,
	printService *service.PrintService,
	discoveryService *service.DiscoveryService,
	receiptService *service.ReceiptService,
) *Router {
	return &Router{
		config:           config,
		logger:           logger,
		db:               db,
		registry:         registry,
		eventBus:         eventBus,
		printService:     printService,
		discoveryService: discoveryService,
		receiptService:   receiptService,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.registry, r.config, r.logger)
	printHandler := handler.NewPrintHandler(r.printService, r.logger)
	printerHandler := handler.NewPrinterHandler(r.printService, r.logger)
	discoveryHandler := handler.NewDiscoveryHandler(r.discoveryService, r.logger)
	receiptHandler := handler.NewReceiptHandler(r.receiptService, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.eventBus, r.printService, r.config.Security.AllowedOrigins, r.logger)
	wsHandler.Start()

	healthHandler.RegisterRoutes(router)

	apiV1 := router.Group("/api/v1")
	printHandler.RegisterRoutes(apiV1)
	printerHandler.RegisterRoutes(apiV1)
	discoveryHandler.RegisterRoutes(apiV1)
	receiptHandler.RegisterRoutes(apiV1)

	wsHandler.RegisterRoutes(router.Group("/ws"))

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
