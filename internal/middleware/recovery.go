package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
	"github.com/chidiebere-dev/homefolio/pkg/logger"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// Recovery converts panics into a 500 response and logs the stack.
func Recovery() gin.HandlerFunc {
	log := logger.WithModule("recovery")

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"))
				response.Error(c, apperrors.ErrInternalServer)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NotFoundHandler renders the standard error envelope for unmatched routes.
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Error(c, apperrors.ErrNotFound)
	}
}

// MethodNotAllowedHandler renders a 405 in the standard envelope.
func MethodNotAllowedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Error(c, apperrors.ErrMethodNotAllowed)
	}
}
