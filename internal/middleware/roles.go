package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/models"
	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// RequireAdmin rejects requests from non-admin callers. It must run after
// Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRoleKey) != models.RoleAdmin {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
