package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/middleware"
)

func registerNotificationRoutes(api *gin.RouterGroup, jwtService *auth.JWTService, h Handlers) {
	group := api.Group("/notifications", middleware.Auth(jwtService))
	{
		group.GET("", h.Notifications.List)
		group.GET("/unread-count", h.Notifications.UnreadCount)
		group.GET("/stream", h.Notifications.Stream)
		group.PUT("/:id/read", h.Notifications.MarkRead)
		group.PUT("/read-all", h.Notifications.MarkAllRead)
	}
}
