package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/middleware"
	"github.com/chidiebere-dev/homefolio/internal/models"
)

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserIDKey)
}

func currentRole(c *gin.Context) string {
	return c.GetString(middleware.CtxRoleKey)
}

func currentSessionID(c *gin.Context) string {
	return c.GetString(middleware.CtxSessionIDKey)
}

func isAdmin(c *gin.Context) bool {
	return currentRole(c) == models.RoleAdmin
}
