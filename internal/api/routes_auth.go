package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/middleware"
)

func registerAuthRoutes(api *gin.RouterGroup, jwtService *auth.JWTService, h Handlers) {
	group := api.Group("/auth")
	{
		group.POST("/register", h.Auth.Register)
		group.POST("/login", h.Auth.Login)
		group.POST("/refresh", h.Auth.Refresh)
		group.POST("/verify-email", h.Auth.VerifyEmail)
		group.POST("/resend-verification", h.Auth.ResendVerification)
		group.POST("/forgot-password", h.Auth.ForgotPassword)
		group.POST("/reset-password", h.Auth.ResetPassword)
	}

	authed := api.Group("/auth", middleware.Auth(jwtService))
	{
		authed.POST("/logout", h.Auth.Logout)
		authed.POST("/2fa/setup", h.Security.SetupTwoFactor)
		authed.POST("/2fa/verify", h.Security.VerifyTwoFactor)
		authed.POST("/2fa/disable", h.Security.DisableTwoFactor)
	}

	profile := api.Group("/profile", middleware.Auth(jwtService))
	{
		profile.GET("", h.Profile.Get)
		profile.PUT("", h.Profile.Update)
		profile.PUT("/password", h.Profile.ChangePassword)
	}
}
