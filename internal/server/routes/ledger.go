package routes

import (
	"node-wallet/internal/handler"

	"github.com/gin-gonic/gin"
)

// RegisterAccountRoutes GET /accounts/:id/balance
func RegisterAccountRoutes(rg *gin.RouterGroup, h *handler.AccountHandler) {
	rg.GET("/accounts/:id/balance", h.Balance)
}

func RegisterContractRoutes(rg *gin.RouterGroup, h *handler.ContractHandler) {
	contractGroup := rg.Group("/contracts")
	{
		contractGroup.GET("", h.List)
		contractGroup.GET("/:name", h.Get)
	}
}

func RegisterTxRoutes(rg *gin.RouterGroup, h *handler.TxHandler) {
	rg.POST("/tx/execute", h.Execute)
}
