package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/auth"
	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// Context keys set by the auth middleware.
const (
	CtxUserIDKey    = "auth.user_id"
	CtxRoleKey      = "auth.role"
	CtxSessionIDKey = "auth.session_id"
)

// Auth validates the bearer token and stores the caller's identity on the
// request context.
func Auth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, jwtService)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxRoleKey, claims.Role)
		c.Set(CtxSessionIDKey, claims.SessionID)
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present
// but never rejects the request. Public endpoints use it to personalise
// behaviour for logged-in users.
func OptionalAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, jwtService); ok {
			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxRoleKey, claims.Role)
			c.Set(CtxSessionIDKey, claims.SessionID)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, jwtService *auth.JWTService) (*auth.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		// WebSocket clients cannot set headers; accept a token query param.
		if token := c.Query("token"); token != "" {
			header = "Bearer " + token
		}
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, false
	}

	claims, err := jwtService.ValidateAccessToken(strings.TrimPrefix(header, prefix))
	if err != nil {
		return nil, false
	}
	return claims, true
}
