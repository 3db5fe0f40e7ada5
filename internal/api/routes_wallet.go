package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/middleware"
)

func registerWalletRoutes(api *gin.RouterGroup, jwtService *auth.JWTService, h Handlers) {
	wallet := api.Group("/wallet", middleware.Auth(jwtService))
	{
		wallet.GET("", h.Wallet.Balance)
		wallet.GET("/transactions", h.Wallet.Transactions)
	}

	payments := api.Group("/payments", middleware.Auth(jwtService))
	{
		payments.POST("/flutterwave/verify", h.Wallet.VerifyDeposit)
	}
}
