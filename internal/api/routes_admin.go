package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/middleware"
)

func registerAdminRoutes(api *gin.RouterGroup, jwtService *auth.JWTService, h Handlers) {
	admin := api.Group("/admin", middleware.Auth(jwtService), middleware.RequireAdmin())

	properties := admin.Group("/properties")
	{
		properties.GET("", h.AdminProps.Search)
		properties.POST("", h.AdminProps.Create)
		properties.PUT("/:id", h.AdminProps.Update)
		properties.DELETE("/:id", h.AdminProps.Delete)
	}

	users := admin.Group("/users")
	{
		users.GET("", h.Users.List)
		users.POST("", h.Users.Create)
		users.GET("/:id", h.Users.Get)
		users.PUT("/:id", h.Users.Update)
		users.DELETE("/:id", h.Users.Delete)
	}

	transactions := admin.Group("/transactions")
	{
		transactions.GET("", h.Transactions.List)
		transactions.POST("", h.Transactions.Adjust)
	}

	admin.GET("/contact", h.Contact.List)
	admin.GET("/settings", h.Settings.Get)
	admin.PUT("/settings", h.Settings.Update)
}
