// internal/middleware/recovery_middleware.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/utils"
)

// InternalErrorCode matches the code print failures without a known cause report
const InternalErrorCode = "INTERNAL_ERROR"

// RecoveryMiddleware answers a handler panic with the service's error
// envelope. The panic value stays in the log and out of the response.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		utils.LoggerWithRequestID(logger, utils.GetRequestID(c)).Error("Handler panicked",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Stack("stacktrace"),
		)

		utils.CodedErrorResponse(c, http.StatusInternalServerError, &utils.APIError{
			Code:    InternalErrorCode,
			Message: "Printer service failed to handle the request",
		}, nil)
		c.Abort()
	})
}
