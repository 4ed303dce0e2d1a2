// internal/handler/discovery_handler.go
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

const maxScanTimeout = 2 * time.Minute

// DiscoveryHandler handles printer discovery requests
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
	logger           *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
		logger:           utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/discovery/scan", h.ScanPrinters)
}

// ScanPrinters scans for nearby and attached printers
// @Summary Scan for printers
// @Description Scan Bluetooth, serial, USB and network transports for printers
// @Tags Discovery
// @Produce json
// @Param type query string false "Comma separated transports, or all" default(all)
// @Param timeout query string false "Scan timeout" default(15s)
// @Success 200 {object} utils.APIResponse{data=service.ScanResult} "Printer scan completed"
// @Failure 400 {object} utils.APIResponse "Invalid scan parameters"
// @Router /discovery/scan [get]
func (h *DiscoveryHandler) ScanPrinters(c *gin.Context) {
	req := &service.ScanRequest{}

	if types := c.DefaultQuery("type", "all"); types != "all" {
		for _, t := range strings.Split(types, ",") {
			kind, ok := model.ParseTransportKind(t)
			if !ok {
				utils.ValidationErrorResponse(c, map[string]string{"type": "unknown transport " + strings.TrimSpace(t)})
				return
			}
			req.Transports = append(req.Transports, kind)
		}
	}

	if timeout := c.Query("timeout"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil || d <= 0 || d > maxScanTimeout {
			utils.ValidationErrorResponse(c, map[string]string{"timeout": "must be a duration up to 2m"})
			return
		}
		req.Timeout = d
	}

	result, err := h.discoveryService.Scan(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to scan printers", zap.Error(err))
		respondError(c, "Failed to scan printers", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer scan completed", result)
}
