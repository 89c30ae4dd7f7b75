package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/safetrail/safetrail/internal/common/errors"
)

// Recovery returns a middleware that recovers from panics, logs them with the
// request ID and stack trace, and answers with the standard error envelope.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered",
					zap.String("request_id", GetRequestID(c)),
					zap.String("panic", fmt.Sprintf("%v", r)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("ip", c.ClientIP()),
					zap.String("stack_trace", string(debug.Stack())),
				)

				apperrors.HandleError(c, apperrors.FromPanic(r))
				c.Abort()
			}
		}()

		c.Next()
	}
}
