package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/middleware"
)

func registerPropertyRoutes(api *gin.RouterGroup, jwtService *auth.JWTService, h Handlers) {
	group := api.Group("/properties", middleware.OptionalAuth(jwtService))
	{
		group.GET("", h.Properties.Search)
		group.GET("/:id", h.Properties.Get)
		group.POST("/:id/reviews", h.Properties.AddReview)
	}
}
