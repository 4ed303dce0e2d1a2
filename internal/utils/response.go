// internal/utils/response.go
package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// APIResponse is the envelope every endpoint answers with
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError carries a stable code plus the underlying cause
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// SuccessResponse writes data in the standard envelope
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: GetRequestID(c),
	})
}

// ErrorResponse writes an error using the generic code for statusCode
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	CodedErrorResponse(c, statusCode, &APIError{Code: StatusCode(statusCode), Message: message}, err)
}

// CodedErrorResponse writes apiErr, filling Details from err
func CodedErrorResponse(c *gin.Context, statusCode int, apiErr *APIError, err error) {
	if err != nil && apiErr.Details == "" {
		apiErr.Details = err.Error()
	}

	c.JSON(statusCode, APIResponse{
		Success:   false,
		Message:   apiErr.Message,
		Error:     apiErr,
		Timestamp: time.Now(),
		RequestID: GetRequestID(c),
	})
}

// ValidationErrorResponse reports per-field validation failures
func ValidationErrorResponse(c *gin.Context, errors map[string]string) {
	c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Message: "Validation failed",
		Error: &APIError{
			Code:    "VALIDATION_ERROR",
			Message: "Request validation failed",
		},
		Data:      gin.H{"validation_errors": errors},
		Timestamp: time.Now(),
		RequestID: GetRequestID(c),
	})
}

// GetRequestID returns the id set by the request id middleware
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(RequestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// StatusCode is the fallback error code for an HTTP status
func StatusCode(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	case http.StatusNotImplemented:
		return "NOT_IMPLEMENTED"
	case http.StatusBadGateway:
		return "BAD_GATEWAY"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case http.StatusInternalServerError:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}
