package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/middleware"
)

func registerContactRoutes(api *gin.RouterGroup, jwtService *auth.JWTService, h Handlers) {
	api.POST("/contact", middleware.OptionalAuth(jwtService), h.Contact.Submit)

	newsletter := api.Group("/newsletter")
	{
		newsletter.POST("/subscribe", h.Newsletter.Subscribe)
		newsletter.POST("/unsubscribe", h.Newsletter.Unsubscribe)
	}

	api.GET("/settings", h.Settings.Get)
}
