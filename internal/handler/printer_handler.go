// internal/handler/printer_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// PrinterHandler exposes printer sessions
type PrinterHandler struct {
	printService *service.PrintService
	logger       *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printService *service.PrintService, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		printService: printService,
		logger:       utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	printers := router.Group("/printers")
	{
		printers.GET("", h.ListPrinters)
		printers.POST("/connect", h.ConnectPrinter)
		printers.POST("/:transport/:printer_id/disconnect", h.DisconnectPrinter)
	}
}

// ListPrinters lists printers with a session
// @Summary List printers
// @Description Get every printer the service has a session for, with link state and counters
// @Tags Printers
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]service.PrinterState} "Printers retrieved"
// @Router /printers [get]
func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Printers retrieved successfully", h.printService.Printers())
}

// ConnectPrinter opens a link to a printer ahead of the first job
// @Summary Connect printer
// @Tags Printers
// @Accept json
// @Produce json
// @Param request body model.BluetoothPrinter true "Printer identity"
// @Success 200 {object} utils.APIResponse{data=service.PrinterState} "Printer connected"
// @Failure 400 {object} utils.APIResponse "Printer identity missing"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Failure 422 {object} utils.APIResponse "Device is not a supported printer"
// @Failure 502 {object} utils.APIResponse "Connection failed"
// @Router /printers/connect [post]
func (h *PrinterHandler) ConnectPrinter(c *gin.Context) {
	var info model.BluetoothPrinter
	if err := c.ShouldBindJSON(&info); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	state, err := h.printService.Connect(c.Request.Context(), &info)
	if err != nil {
		h.logger.Warn("Printer connect failed",
			zap.String("printer_id", info.ID),
			zap.String("transport", string(info.Transport)),
			zap.Error(err),
		)
		respondError(c, "Failed to connect printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer connected successfully", state)
}

// DisconnectPrinter closes a printer's link
// @Summary Disconnect printer
// @Tags Printers
// @Produce json
// @Param transport path string true "Transport" Enums(bluetooth, serial, tcp, usb)
// @Param printer_id path string true "Printer ID"
// @Success 200 {object} utils.APIResponse "Printer disconnected"
// @Failure 400 {object} utils.APIResponse "Unknown transport"
// @Failure 404 {object} utils.APIResponse "No session for printer"
// @Router /printers/{transport}/{printer_id}/disconnect [post]
func (h *PrinterHandler) DisconnectPrinter(c *gin.Context) {
	kind, ok := model.ParseTransportKind(c.Param("transport"))
	if !ok {
		utils.ErrorResponse(c, http.StatusBadRequest, "Unknown transport", nil)
		return
	}
	printerID := c.Param("printer_id")

	if err := h.printService.Disconnect(kind, printerID); err != nil {
		respondError(c, "Failed to disconnect printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer disconnected successfully", gin.H{
		"id":        printerID,
		"transport": kind,
	})
}
