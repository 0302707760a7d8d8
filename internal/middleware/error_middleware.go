package middleware

import (
	"net/http"

	"tableside/internal/services"
	"tableside/internal/transport/httpdto"
	"tableside/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	log := logger.OrNop(l)
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := services.HTTPStatus(err)
		message := err.Error()
		if status >= http.StatusInternalServerError {
			log.WithContext(c.Request.Context()).Error("request error", zap.Error(err))
			message = "internal error"
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(status, httpdto.NewErrorResponse(message, httpdto.ErrorCode(status)))
	}
}
