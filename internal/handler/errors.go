// internal/handler/errors.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"printer-service/internal/printer"
	"printer-service/internal/repository"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// statusFor maps service and printer errors to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, printer.ErrNotConfigured),
		errors.Is(err, printer.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, printer.ErrUnsupportedPlatform):
		return http.StatusNotImplemented
	case errors.Is(err, printer.ErrIncompatibleDevice):
		return http.StatusUnprocessableEntity
	case errors.Is(err, printer.ErrDeviceNotFound),
		errors.Is(err, service.ErrPrinterNotFound),
		errors.Is(err, repository.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, printer.ErrConnection),
		errors.Is(err, printer.ErrPrintTransport):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrQueueFull),
		errors.Is(err, service.ErrServiceClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its stable code
func respondError(c *gin.Context, message string, err error) {
	utils.CodedErrorResponse(c, statusFor(err), &utils.APIError{
		Code:      service.ErrorCode(err),
		Message:   message,
		Retryable: printer.IsRetryable(err) || errors.Is(err, service.ErrQueueFull),
	}, err)
}
