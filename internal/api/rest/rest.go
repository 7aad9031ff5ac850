package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/playforge/gamebank/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Balance reads (public)
		v1.GET("/balances/:user_id", handler.GetBalance)
		v1.GET("/balances/:user_id/history", handler.GetBalanceHistory)

		// Balance mutations (requires authentication)
		v1.POST("/balances/transfer", middleware.Auth(authCfg), handler.TransferBalance)
		v1.PATCH("/balances/adjust", middleware.Auth(authCfg), handler.AdjustBalance)

		// Item reads (public)
		v1.GET("/items/:item_id", handler.GetItem)

		// Item mutations (requires authentication)
		v1.POST("/items", middleware.Auth(authCfg), handler.CreateItem)
		v1.PATCH("/items/equip", middleware.Auth(authCfg), handler.EquipItem)
		v1.POST("/items/transfer", middleware.Auth(authCfg), handler.TransferItem)
	}
}
