// internal/handler/print_handler.go
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// PrintHandler handles receipt printing and job history requests
type PrintHandler struct {
	printService *service.PrintService
	logger       *utils.ServiceLogger
}

// NewPrintHandler creates a new print handler
func NewPrintHandler(printService *service.PrintService, logger *zap.Logger) *PrintHandler {
	return &PrintHandler{
		printService: printService,
		logger:       utils.NewServiceLogger(logger, "print-handler"),
	}
}

// RegisterRoutes registers print and job routes
func (h *PrintHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/print", h.PrintReceipt)
	router.POST("/print/test", h.TestPrint)

	jobs := router.Group("/jobs")
	{
		jobs.GET("", h.ListJobs)
		jobs.GET("/:job_id", h.GetJob)
	}
}

// PrintReceipt queues a receipt for printing
// @Summary Print a receipt
// @Description Lay out an order as a receipt and send it to the configured printer. With wait=true the finished job is returned.
// @Tags Print
// @Accept json
// @Produce json
// @Param request body service.PrintRequest true "Order, restaurant and printer configuration"
// @Success 200 {object} utils.APIResponse{data=model.PrintJob} "Job finished"
// @Success 202 {object} utils.APIResponse{data=model.PrintJob} "Job queued"
// @Failure 400 {object} utils.APIResponse "Invalid request or printer not configured"
// @Failure 501 {object} utils.APIResponse "Transport not supported on this host"
// @Failure 503 {object} utils.APIResponse "Printer queue full"
// @Router /print [post]
func (h *PrintHandler) PrintReceipt(c *gin.Context) {
	var req service.PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.printService.Submit(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("Print request rejected", zap.Error(err))
		respondError(c, "Failed to queue receipt", err)
		return
	}

	h.respondJob(c, job)
}

// TestPrint prints a sample receipt on a printer
// @Summary Test print
// @Description Print a short sample receipt and wait for the result
// @Tags Print
// @Accept json
// @Produce json
// @Param request body model.PrinterConfig true "Printer configuration"
// @Success 200 {object} utils.APIResponse{data=model.PrintJob} "Test print finished"
// @Failure 400 {object} utils.APIResponse "Invalid printer configuration"
// @Router /print/test [post]
func (h *PrintHandler) TestPrint(c *gin.Context) {
	var cfg model.PrinterConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.printService.TestPrint(c.Request.Context(), &cfg)
	if err != nil {
		respondError(c, "Failed to print test receipt", err)
		return
	}

	h.respondJob(c, job)
}

func (h *PrintHandler) respondJob(c *gin.Context, job *model.PrintJob) {
	switch job.Status {
	case model.JobStatusSuccess:
		utils.SuccessResponse(c, http.StatusOK, "Receipt printed", job)
	case model.JobStatusFailed:
		// the job ran; its failure is part of the payload
		utils.SuccessResponse(c, http.StatusOK, "Receipt failed to print", job)
	default:
		utils.SuccessResponse(c, http.StatusAccepted, "Receipt queued", job)
	}
}

// GetJob returns one print job
// @Summary Get print job
// @Tags Jobs
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} utils.APIResponse{data=model.PrintJob} "Job retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid job ID"
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Router /jobs/{job_id} [get]
func (h *PrintHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid job ID", err)
		return
	}

	job, err := h.printService.GetJob(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, "Failed to get job", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job retrieved successfully", job)
}

// ListJobs lists print jobs with filtering
// @Summary List print jobs
// @Description Get print jobs, newest first
// @Tags Jobs
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(50)
// @Param printer_id query string false "Filter by printer ID"
// @Param status query string false "Filter by status" Enums(QUEUED, PRINTING, SUCCESS, FAILED)
// @Param since query string false "Only jobs created after (RFC3339)"
// @Success 200 {object} utils.APIResponse{data=object{jobs=[]model.PrintJob,total=int,page=int,per_page=int}} "Jobs retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid filter"
// @Router /jobs [get]
func (h *PrintHandler) ListJobs(c *gin.Context) {
	filter := &repository.JobFilter{Page: 1, PerPage: 50}

	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if perPage := c.Query("per_page"); perPage != "" {
		if pp, err := strconv.Atoi(perPage); err == nil && pp > 0 && pp <= 500 {
			filter.PerPage = pp
		}
	}

	if printerID := c.Query("printer_id"); printerID != "" {
		filter.PrinterID = &printerID
	}
	if status := c.Query("status"); status != "" {
		s := model.JobStatus(status)
		switch s {
		case model.JobStatusQueued, model.JobStatusPrinting, model.JobStatusSuccess, model.JobStatusFailed:
			filter.Status = &s
		default:
			utils.ValidationErrorResponse(c, map[string]string{"status": "unknown job status"})
			return
		}
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			utils.ValidationErrorResponse(c, map[string]string{"since": "must be RFC3339"})
			return
		}
		filter.Since = &t
	}

	jobs, total, err := h.printService.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", zap.Error(err))
		respondError(c, "Failed to list jobs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Jobs retrieved successfully", gin.H{
		"jobs":     jobs,
		"total":    total,
		"page":     filter.Page,
		"per_page": filter.PerPage,
	})
}
