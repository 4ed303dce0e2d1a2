// internal/handler/receipt_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// ReceiptHandler renders receipts without a printer
type ReceiptHandler struct {
	receiptService *service.ReceiptService
	logger         *utils.ServiceLogger
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receiptService *service.ReceiptService, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
		logger:         utils.NewServiceLogger(logger, "receipt-handler"),
	}
}

// RegisterRoutes registers receipt routes
func (h *ReceiptHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/command-sets", h.ListCommandSets)
	router.POST("/receipts/preview", h.PreviewReceipt)
}

// ListCommandSets lists the printer command dialects
// @Summary List command sets
// @Description Get every command set with its control sequences as hex, and the supported code pages
// @Tags Receipts
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{command_sets=[]service.CommandSetInfo,code_pages=[]string}} "Command sets retrieved"
// @Router /command-sets [get]
func (h *ReceiptHandler) ListCommandSets(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Command sets retrieved successfully", gin.H{
		"command_sets": h.receiptService.CommandSets(),
		"code_pages":   h.receiptService.CodePages(),
	})
}

// PreviewReceipt renders the bytes a print would send
// @Summary Preview receipt
// @Description Lay out and encode a receipt, returning the printer stream as base64 and hex plus a plain text rendering
// @Tags Receipts
// @Accept json
// @Produce json
// @Param request body service.PreviewRequest true "Order, restaurant and printer configuration"
// @Success 200 {object} utils.APIResponse{data=service.Preview} "Receipt rendered"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Router /receipts/preview [post]
func (h *ReceiptHandler) PreviewReceipt(c *gin.Context) {
	var req service.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	preview, err := h.receiptService.Preview(&req)
	if err != nil {
		h.logger.Debug("Preview rejected", zap.Error(err))
		respondError(c, "Failed to render receipt", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Receipt rendered successfully", preview)
}
