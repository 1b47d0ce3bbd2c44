package handler

import (
	"github.com/ShalConnects/Balanze-sub003/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.APITokenAuthMiddleware, recordHandler *RecordHandler, settlementHandler *SettlementHandler, accountHandler *AccountHandler, apiTokenHandler *APITokenHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Lend/borrow record routes (protected)
	lendBorrow := api.Group("/lend-borrow")
	lendBorrow.Use(authMiddleware.Authenticate())
	lendBorrow.POST("", recordHandler.CreateRecord)
	lendBorrow.GET("", recordHandler.GetRecords)
	lendBorrow.GET("/summary", recordHandler.GetSummary)
	lendBorrow.GET("/:id", recordHandler.GetRecord)
	lendBorrow.PUT("/:id", recordHandler.UpdateRecord)
	lendBorrow.DELETE("/:id", recordHandler.DeleteRecord)
	lendBorrow.GET("/:id/returns", recordHandler.GetReturns)
	lendBorrow.POST("/:id/returns", settlementHandler.SettlePartial)
	lendBorrow.POST("/:id/settle", settlementHandler.SettleFull)

	// Account routes (protected, read-only)
	accounts := api.Group("/accounts")
	accounts.Use(authMiddleware.Authenticate())
	accounts.GET("", accountHandler.GetAccounts)

	// API token routes (protected)
	apiTokens := api.Group("/api-tokens")
	apiTokens.Use(authMiddleware.Authenticate())
	apiTokens.POST("", apiTokenHandler.CreateAPIToken)
	apiTokens.GET("", apiTokenHandler.GetAPITokens)
	apiTokens.DELETE("/:id", apiTokenHandler.RevokeAPIToken)
}
